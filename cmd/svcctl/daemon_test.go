//go:build !windows

package main

import (
	"context"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunDaemonStopsOnSIGTERM(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("SVCCTL_DAEMON_INTERVAL", "10ms")
	t.Setenv("SVCCTL_DAEMON_CLEANUP_PAUSE", "0s")
	t.Setenv("SVCCTL_METRICS_LISTEN", "127.0.0.1:0")
	require.NoError(t, env.app.setup(&GlobalFlags{}))
	defer env.app.teardown()

	started := make(chan struct{})
	var once sync.Once
	work := func(context.Context, uint64) error {
		once.Do(func() { close(started) })
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- runDaemon(context.Background(), env.app, work) }()

	select {
	case <-started:
	case err := <-done:
		t.Fatalf("daemon exited early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("first work unit never ran")
	}

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop after SIGTERM")
	}
}

func TestRunDaemonBadMetricsAddress(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("SVCCTL_METRICS_LISTEN", "not-an-address")
	require.NoError(t, env.app.setup(&GlobalFlags{}))
	defer env.app.teardown()

	err := runDaemon(context.Background(), env.app, func(context.Context, uint64) error { return nil })
	require.Error(t, err)
}
