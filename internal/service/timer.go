package service

import (
	"sync"
	"time"
)

// ElapsedTimer maintains the "elapsed seconds since start" counter shown
// during an active session. It is a presentational timer: ticks are purely
// additive while active, there is no drift correction, and the count is not
// persisted across restarts.
type ElapsedTimer struct {
	mu      sync.Mutex
	active  bool
	elapsed int
	stop    chan struct{}
	started bool
}

// NewElapsedTimer returns a timer that is active but not yet ticking.
func NewElapsedTimer() *ElapsedTimer {
	return &ElapsedTimer{active: true, stop: make(chan struct{})}
}

// Start begins the repeating 1-second tick. Calling it twice is a no-op.
func (t *ElapsedTimer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return
	}
	t.started = true

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.tick()
			case <-t.stop:
				return
			}
		}
	}()
}

// tick increments the counter only while the timer is active.
func (t *ElapsedTimer) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active {
		t.elapsed++
	}
}

// PauseResume toggles the active flag without resetting the counter and
// returns the new active state.
func (t *ElapsedTimer) PauseResume() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = !t.active
	return t.active
}

// Active reports whether the timer is currently counting.
func (t *ElapsedTimer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Elapsed returns the accumulated active seconds.
func (t *ElapsedTimer) Elapsed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

// Stop ends the ticking goroutine. The timer cannot be restarted.
func (t *ElapsedTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		select {
		case <-t.stop:
		default:
			close(t.stop)
		}
	}
	t.active = false
}
