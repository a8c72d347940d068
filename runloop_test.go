package svcctl

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource replays a fixed list of events
type scriptedSource struct {
	events []Event
	next   int
}

func (s *scriptedSource) Next() Event {
	if s.next >= len(s.events) {
		// The loop must have returned before running out of script.
		panic("scripted event source exhausted")
	}
	ev := s.events[s.next]
	s.next++
	return ev
}

func ticks(n int) []Event {
	evs := make([]Event, n)
	for i := range evs {
		evs[i] = Event{Kind: EventTick}
	}
	return evs
}

// recordingObserver captures LoopObserver calls
type recordingObserver struct {
	mu        sync.Mutex
	completed []uint64
	failed    []uint64
	shutdowns []os.Signal
}

func (o *recordingObserver) WorkCompleted(iteration uint64, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, iteration)
	if err != nil {
		o.failed = append(o.failed, iteration)
	}
}

func (o *recordingObserver) ShutdownStarted(sig os.Signal) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.shutdowns = append(o.shutdowns, sig)
}

func (o *recordingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.completed)
}

// newTestDaemon builds a Daemon whose cleanup pause is recorded, not slept
func newTestDaemon(t *testing.T, work WorkFunc, opts ...DaemonOption) (*Daemon, *[]time.Duration) {
	t.Helper()
	base := []DaemonOption{WithDaemonLogger(slog.New(slog.DiscardHandler))}
	d, err := NewDaemon(work, append(base, opts...)...)
	require.NoError(t, err)

	var pauses []time.Duration
	d.sleep = func(p time.Duration) { pauses = append(pauses, p) }
	return d, &pauses
}

func TestDaemonCleanupRunsExactlyOnce(t *testing.T) {
	for _, n := range []int{0, 1, 3, 10} {
		var iterations []uint64
		cleanups := 0
		work := func(_ context.Context, i uint64) error {
			iterations = append(iterations, i)
			return nil
		}
		d, pauses := newTestDaemon(t, work,
			WithCleanupPause(250*time.Millisecond),
			WithCleanup(func(context.Context) error {
				cleanups++
				return nil
			}),
		)

		// Events after the first terminate must never be consumed.
		script := append(ticks(n), Event{Kind: EventTerminate, Signal: syscall.SIGTERM})
		script = append(script, Event{Kind: EventTick}, Event{Kind: EventTerminate, Signal: syscall.SIGINT})
		src := &scriptedSource{events: script}

		require.NoError(t, d.Serve(context.Background(), src))

		assert.Len(t, iterations, n)
		for i, it := range iterations {
			assert.Equal(t, uint64(i+1), it)
		}
		assert.Equal(t, 1, cleanups, "ticks=%d", n)
		assert.Equal(t, []time.Duration{250 * time.Millisecond}, *pauses)
		assert.Equal(t, n+1, src.next, "loop consumed events after terminate")
		assert.Equal(t, LoopShuttingDown, d.State())
	}
}

func TestDaemonWorkFailuresDoNotStopLoop(t *testing.T) {
	work := func(_ context.Context, i uint64) error {
		switch i {
		case 2:
			return errors.New("transient failure")
		case 3:
			panic("unexpected state")
		}
		return nil
	}
	obs := &recordingObserver{}
	d, _ := newTestDaemon(t, work, WithObserver(obs))

	src := &scriptedSource{events: append(ticks(5), Event{Kind: EventTerminate, Signal: syscall.SIGINT})}
	require.NoError(t, d.Serve(context.Background(), src))

	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, obs.completed)
	assert.Equal(t, []uint64{2, 3}, obs.failed)
	assert.Equal(t, []os.Signal{syscall.SIGINT}, obs.shutdowns)
}

func TestDaemonIgnoresUnknownEvents(t *testing.T) {
	calls := 0
	d, _ := newTestDaemon(t, func(context.Context, uint64) error {
		calls++
		return nil
	})

	src := &scriptedSource{events: []Event{{}, {Kind: EventTick}, {Kind: EventKind(99)}, {Kind: EventTerminate}}}
	require.NoError(t, d.Serve(context.Background(), src))
	assert.Equal(t, 1, calls)
}

func TestDaemonCleanupErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	d, pauses := newTestDaemon(t, func(context.Context, uint64) error { return nil },
		WithDaemonLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		WithCleanup(func(context.Context) error { return errors.New("flush failed") }),
	)

	src := &scriptedSource{events: []Event{{Kind: EventTerminate, Signal: syscall.SIGTERM}}}
	require.NoError(t, d.Serve(context.Background(), src))

	out := buf.String()
	assert.Contains(t, out, "shutting down gracefully")
	assert.Contains(t, out, "flush failed")
	assert.Contains(t, out, "service stopped")
	assert.Len(t, *pauses, 1)
}

func TestDaemonServeOnlyOnce(t *testing.T) {
	d, _ := newTestDaemon(t, func(context.Context, uint64) error { return nil })

	require.NoError(t, d.Serve(context.Background(), &scriptedSource{events: []Event{{Kind: EventTerminate}}}))

	err := d.Serve(context.Background(), &scriptedSource{})
	assert.ErrorIs(t, err, ErrDaemonStarted)
	assert.ErrorIs(t, d.Run(context.Background()), ErrDaemonStarted)
}

func TestNewDaemonValidation(t *testing.T) {
	noop := func(context.Context, uint64) error { return nil }

	tests := []struct {
		name string
		work WorkFunc
		opts []DaemonOption
	}{
		{"nil work", nil, nil},
		{"zero interval", noop, []DaemonOption{WithInterval(0)}},
		{"negative pause", noop, []DaemonOption{WithCleanupPause(-time.Second)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDaemon(tt.work, tt.opts...)
			assert.Error(t, err)
		})
	}

	d, err := NewDaemon(noop)
	require.NoError(t, err)
	assert.Equal(t, DefaultInterval, d.interval)
	assert.Equal(t, DefaultCleanupPause, d.cleanupPause)
	assert.Equal(t, LoopNotStarted, d.State())
}

func TestDefaultWork(t *testing.T) {
	var buf bytes.Buffer
	work := DefaultWork(slog.New(slog.NewTextHandler(&buf, nil)))

	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, work(context.Background(), i))
	}

	out := buf.String()
	assert.Equal(t, 5, strings.Count(out, "service is running and doing work"))
	assert.Equal(t, 1, strings.Count(out, "performing maintenance task"))
	assert.Contains(t, out, "iteration=5")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, work(ctx, 6), context.Canceled)
}

func TestLoopStateString(t *testing.T) {
	assert.Equal(t, "not-started", LoopNotStarted.String())
	assert.Equal(t, "running", LoopRunning.String())
	assert.Equal(t, "shutting-down", LoopShuttingDown.String())
}
