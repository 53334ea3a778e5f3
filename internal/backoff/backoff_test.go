package backoff

import (
	"context"
	"testing"
	"time"
)

func TestController_ClimbsAndHolds(t *testing.T) {
	c := NewController([]time.Duration{time.Second, 2 * time.Second, 4 * time.Second})

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 4 * time.Second, 4 * time.Second}
	for i, w := range want {
		if got := c.OnRateLimited(); got != w {
			t.Fatalf("signal %d: got %v, want %v", i+1, got, w)
		}
	}
}

func TestController_Monotonic(t *testing.T) {
	c := NewController(nil)

	prev := time.Duration(0)
	for i := 0; i < 10; i++ {
		got := c.OnRateLimited()
		if got < prev {
			t.Fatalf("signal %d: wait %v decreased below %v", i+1, got, prev)
		}
		prev = got
	}
}

func TestController_SuccessResets(t *testing.T) {
	c := NewController(nil)

	c.OnRateLimited()
	c.OnRateLimited()
	if c.Stage() != 2 {
		t.Fatalf("stage = %d, want 2", c.Stage())
	}

	c.OnSuccess()
	if c.Stage() != 0 {
		t.Fatalf("stage after success = %d, want 0", c.Stage())
	}
	if got := c.OnRateLimited(); got != DefaultStages[0] {
		t.Fatalf("wait after reset = %v, want %v", got, DefaultStages[0])
	}
}

func TestController_DefaultLadder(t *testing.T) {
	c := NewController(nil)
	if got := c.OnRateLimited(); got != 10*time.Minute {
		t.Fatalf("first wait = %v, want 10m", got)
	}
}

func TestSleep_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Minute)
	if err == nil {
		t.Fatal("expected context error")
	}
	if time.Since(start) > time.Second {
		t.Fatal("sleep did not return promptly on cancelled context")
	}
}

func TestSleep_Elapses(t *testing.T) {
	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
