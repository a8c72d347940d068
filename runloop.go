package svcctl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
)

// Daemon defaults
const (
	// DefaultInterval is the period between work units
	DefaultInterval = 30 * time.Second
	// DefaultCleanupPause is the bounded pause taken while shutting down
	DefaultCleanupPause = 1 * time.Second
	// maintenanceEvery is how often DefaultWork logs a maintenance pass
	maintenanceEvery = 5
)

// ErrDaemonStarted is returned when Serve or Run is called a second time
var ErrDaemonStarted = errors.New("svcctl: daemon already started")

// LoopState is the state of the daemon run loop
type LoopState int32

const (
	// LoopNotStarted is the state before Serve is entered
	LoopNotStarted LoopState = iota
	// LoopRunning waits for ticks and termination signals
	LoopRunning
	// LoopShuttingDown is terminal; cleanup runs exactly once
	LoopShuttingDown
)

// String returns the string representation of a LoopState
func (s LoopState) String() string {
	switch s {
	case LoopRunning:
		return "running"
	case LoopShuttingDown:
		return "shutting-down"
	default:
		return "not-started"
	}
}

// EventKind identifies what woke the run loop
type EventKind int

const (
	// EventTick is a periodic timer expiry
	EventTick EventKind = iota + 1
	// EventTerminate is a termination signal
	EventTerminate
)

// Event is one input to the run loop
type Event struct {
	Kind EventKind
	// Signal is the received signal for EventTerminate
	Signal os.Signal
}

// EventSource blocks until the next event is available
type EventSource interface {
	Next() Event
}

// WorkFunc performs one unit of periodic work. iteration starts at 1.
type WorkFunc func(ctx context.Context, iteration uint64) error

// CleanupFunc runs once while shutting down, before the cleanup pause
type CleanupFunc func(ctx context.Context) error

// LoopObserver is notified of run loop activity, e.g. to record metrics
type LoopObserver interface {
	WorkCompleted(iteration uint64, elapsed time.Duration, err error)
	ShutdownStarted(sig os.Signal)
}

// Daemon is the process side of the service: the loop systemd runs via the
// run argument.
type Daemon struct {
	interval     time.Duration
	cleanupPause time.Duration
	work         WorkFunc
	cleanup      CleanupFunc
	observer     LoopObserver
	logger       *slog.Logger
	sleep        func(time.Duration)

	state     atomic.Int32
	iteration uint64
}

// DaemonOption configures a Daemon
type DaemonOption func(*Daemon)

// WithInterval sets the period between work units
func WithInterval(d time.Duration) DaemonOption {
	return func(dm *Daemon) {
		dm.interval = d
	}
}

// WithCleanupPause sets the fixed pause taken during shutdown
func WithCleanupPause(d time.Duration) DaemonOption {
	return func(dm *Daemon) {
		dm.cleanupPause = d
	}
}

// WithCleanup sets a hook run once during shutdown
func WithCleanup(fn CleanupFunc) DaemonOption {
	return func(dm *Daemon) {
		dm.cleanup = fn
	}
}

// WithObserver sets the LoopObserver
func WithObserver(o LoopObserver) DaemonOption {
	return func(dm *Daemon) {
		dm.observer = o
	}
}

// WithDaemonLogger sets the logger
func WithDaemonLogger(l *slog.Logger) DaemonOption {
	return func(dm *Daemon) {
		dm.logger = l
	}
}

// NewDaemon creates a Daemon running work on every tick
func NewDaemon(work WorkFunc, opts ...DaemonOption) (*Daemon, error) {
	d := &Daemon{
		interval:     DefaultInterval,
		cleanupPause: DefaultCleanupPause,
		work:         work,
		sleep:        time.Sleep,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.work == nil {
		return nil, fmt.Errorf("daemon: work function not specified")
	}
	if d.interval <= 0 {
		return nil, fmt.Errorf("daemon: interval must be positive, got %s", d.interval)
	}
	if d.cleanupPause < 0 {
		return nil, fmt.Errorf("daemon: cleanup pause must not be negative, got %s", d.cleanupPause)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}

	return d, nil
}

// State returns the current loop state
func (d *Daemon) State() LoopState {
	return LoopState(d.state.Load())
}

// Run registers for SIGINT and SIGTERM, starts the ticker and serves events
// until the first termination signal has been handled. Signal delivery stays
// redirected until Run returns, so a second signal during cleanup is absorbed.
func (d *Daemon) Run(ctx context.Context) error {
	if d.State() != LoopNotStarted {
		return ErrDaemonStarted
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	return d.Serve(ctx, &signalSource{ticks: ticker.C, signals: signals})
}

// Serve runs the state machine over events from src and returns after the
// first EventTerminate has been handled and cleanup has finished.
// Work unit failures are logged and never stop the loop.
func (d *Daemon) Serve(ctx context.Context, src EventSource) error {
	if !d.state.CompareAndSwap(int32(LoopNotStarted), int32(LoopRunning)) {
		return ErrDaemonStarted
	}
	d.logger.Info("service is running", "interval", d.interval)

	for {
		ev := src.Next()
		switch ev.Kind {
		case EventTick:
			d.iteration++
			d.runWork(ctx, d.iteration)
		case EventTerminate:
			d.shutdown(ctx, ev.Signal)
			return nil
		default:
			d.logger.Debug("ignoring unknown event", "kind", int(ev.Kind))
		}
	}
}

func (d *Daemon) runWork(ctx context.Context, iteration uint64) {
	start := time.Now()
	err := d.safeWork(ctx, iteration)
	elapsed := time.Since(start)

	if err != nil {
		d.logger.Error("work unit failed", "iteration", iteration, "duration", elapsed, "error", err)
	} else {
		d.logger.Info("work unit completed", "iteration", iteration, "duration", elapsed)
	}
	if d.observer != nil {
		d.observer.WorkCompleted(iteration, elapsed, err)
	}
}

func (d *Daemon) safeWork(ctx context.Context, iteration uint64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("work unit panicked: %v", r)
		}
	}()
	return d.work(ctx, iteration)
}

func (d *Daemon) shutdown(ctx context.Context, sig os.Signal) {
	d.state.Store(int32(LoopShuttingDown))

	attrs := []any{"iterations", d.iteration}
	if sig != nil {
		attrs = append(attrs, "signal", sig.String())
	}
	d.logger.Info("shutting down gracefully", attrs...)
	if d.observer != nil {
		d.observer.ShutdownStarted(sig)
	}

	if d.cleanup != nil {
		if err := d.cleanup(ctx); err != nil {
			d.logger.Error("cleanup failed", "error", err)
		}
	}
	if d.cleanupPause > 0 {
		d.sleep(d.cleanupPause)
	}
	d.logger.Info("service stopped")
}

// signalSource waits on the ticker and the signal channel
type signalSource struct {
	ticks   <-chan time.Time
	signals <-chan os.Signal
}

func (s *signalSource) Next() Event {
	select {
	case <-s.ticks:
		return Event{Kind: EventTick}
	case sig := <-s.signals:
		return Event{Kind: EventTerminate, Signal: sig}
	}
}

// DefaultWork returns a WorkFunc that logs a heartbeat every tick and a
// maintenance pass every fifth tick.
func DefaultWork(logger *slog.Logger) WorkFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, iteration uint64) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Info("service is running and doing work", "iteration", iteration)
		if iteration%maintenanceEvery == 0 {
			logger.Info("performing maintenance task", "iteration", iteration)
		}
		return nil
	}
}
