package service

import "testing"

// TestTimerTicksOnlyWhileActive drives ticks directly and verifies paused
// intervals are excluded from the accumulated count.
func TestTimerTicksOnlyWhileActive(t *testing.T) {
	timer := NewElapsedTimer()
	if !timer.Active() {
		t.Fatal("timer should start active")
	}

	timer.tick()
	timer.tick()
	if got := timer.Elapsed(); got != 2 {
		t.Errorf("elapsed = %d, want 2", got)
	}

	if active := timer.PauseResume(); active {
		t.Error("first toggle should pause")
	}
	timer.tick()
	timer.tick()
	if got := timer.Elapsed(); got != 2 {
		t.Errorf("elapsed while paused = %d, want 2", got)
	}

	if active := timer.PauseResume(); !active {
		t.Error("second toggle should resume")
	}
	timer.tick()
	if got := timer.Elapsed(); got != 3 {
		t.Errorf("elapsed after resume = %d, want 3", got)
	}
}

// TestTimerStop verifies Stop deactivates the counter and is safe to call
// more than once.
func TestTimerStop(t *testing.T) {
	timer := NewElapsedTimer()
	timer.Start()
	timer.Stop()
	if timer.Active() {
		t.Error("stopped timer should not be active")
	}
	timer.tick()
	if got := timer.Elapsed(); got != 0 {
		t.Errorf("elapsed after stop = %d, want 0", got)
	}
	timer.Stop() // second stop must not panic
}

// TestTimerStartTwice verifies a duplicate Start is a no-op and does not spin
// up a second ticking goroutine.
func TestTimerStartTwice(t *testing.T) {
	timer := NewElapsedTimer()
	timer.Start()
	timer.Start()
	timer.Stop()
}
