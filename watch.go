package svcctl

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"vawter.tech/stopper"
)

// DefaultWatchDebounce is the quiet period before the unit file is re-checked
const DefaultWatchDebounce = 25 * time.Millisecond

// InstallEvent reports the installed state of the unit file
type InstallEvent struct {
	// Installed is true when the unit file exists
	Installed bool
	// Path is the unit file path
	Path string
	// Err is set when the watcher reported an error
	Err error
}

// WatchCleanupFunc stops a watch and waits for its goroutine to exit
type WatchCleanupFunc func() error

// watchState tracks the last installed state sent to the consumer
type watchState struct {
	mu        sync.Mutex
	sent      bool
	installed bool
	debouncer *time.Timer
}

// Watch monitors the unit directory and emits an InstallEvent whenever the
// installed state changes. The first event carries the current state. The
// channel is closed after cleanup or when ctx is done.
func (m *Manager) Watch(ctx context.Context) (<-chan InstallEvent, WatchCleanupFunc, error) {
	dir := filepath.Dir(m.desc.DescriptorPath)
	base := filepath.Base(m.desc.DescriptorPath)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, &FileSystemError{Op: "watch", Path: dir, Err: err}
	}

	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, nil, &FileSystemError{Op: "watch", Path: dir, Err: err}
	}

	ch := make(chan InstallEvent, 10)

	// Create stopper context for managing goroutine lifecycle
	sctx := stopper.WithContext(ctx)

	state := &watchState{}

	// Register watcher cleanup with stopper
	sctx.Defer(func() {
		_ = watcher.Close()
		state.mu.Lock()
		if state.debouncer != nil {
			state.debouncer.Stop()
		}
		close(ch)
		state.mu.Unlock()
	})

	cleanup := func() error {
		sctx.Stop(100 * time.Millisecond)
		return sctx.Wait()
	}

	send := func(ev InstallEvent) {
		if sctx.IsStopping() {
			return
		}
		select {
		case ch <- ev:
		case <-sctx.Stopping():
		}
	}

	// checkAndSend is called with state.mu held
	checkAndSend := func() {
		installed := m.IsInstalled()
		if state.sent && installed == state.installed {
			return
		}
		state.sent = true
		state.installed = installed
		send(InstallEvent{Installed: installed, Path: m.desc.DescriptorPath})
	}

	state.mu.Lock()
	checkAndSend()
	state.mu.Unlock()

	sctx.Go(func(sctx *stopper.Context) error {
		for !sctx.IsStopping() {
			select {
			case <-sctx.Stopping():
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Base(event.Name) != base {
					continue
				}

				state.mu.Lock()
				if state.debouncer != nil {
					state.debouncer.Stop()
				}
				state.debouncer = time.AfterFunc(DefaultWatchDebounce, func() {
					state.mu.Lock()
					defer state.mu.Unlock()
					if !sctx.IsStopping() {
						checkAndSend()
					}
				})
				state.mu.Unlock()

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				if err != nil {
					send(InstallEvent{Path: m.desc.DescriptorPath, Err: err})
				}
			}
		}
		return nil
	})

	return ch, cleanup, nil
}
