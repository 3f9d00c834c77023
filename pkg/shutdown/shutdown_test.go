package shutdown

import (
	"context"
	"syscall"
	"testing"
	"time"
)

func TestWithSignalsCancelsOnSignal(t *testing.T) {
	ctx, cancel := WithSignals(context.Background(), syscall.SIGUSR1)
	defer cancel()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("send signal: %v", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled after signal")
	}
}

func TestWithSignalsFollowsParent(t *testing.T) {
	parent, parentCancel := context.WithCancel(context.Background())
	ctx, cancel := WithSignals(parent, syscall.SIGUSR2)
	defer cancel()

	parentCancel()

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled with parent")
	}
}
