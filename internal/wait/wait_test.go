package wait

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSleep(t *testing.T) {
	start := time.Now()
	if err := Sleep(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("Sleep() error = %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("Sleep() returned early")
	}
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Sleep() error = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Sleep() did not return promptly on cancellation")
	}
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	_ = r.Sleep(context.Background(), 3*time.Second)
	_ = r.Sleep(context.Background(), 5*time.Second)

	if len(r.Slept) != 2 {
		t.Fatalf("recorded %d sleeps, want 2", len(r.Slept))
	}
	if r.Total() != 8*time.Second {
		t.Errorf("Total() = %v, want 8s", r.Total())
	}
}
