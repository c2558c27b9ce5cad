package metrics

import (
	"context"
	"testing"
	"time"
)

func TestRunStopsOnContextCancel(t *testing.T) {
	calls := make(chan struct{}, 4)
	stats := func() (int, int, int) {
		select {
		case calls <- struct{}{}:
		default:
		}
		return 1, 0, 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Run(ctx, 10*time.Millisecond, stats)
		close(done)
	}()

	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatalf("expected at least one stats tick")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected Run to return after ctx cancel")
	}
}
