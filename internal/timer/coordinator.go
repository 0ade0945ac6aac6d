// Package timer drives the two clocks of a live workout session: the
// wall-clock elapsed time and the independent rest countdown. Each clock has
// a single owner — elapsed time is derived from the session start on every
// read (so it can never drift), and the rest countdown is decremented by one
// goroutine holding a one-second ticker. At most one rest countdown is alive
// at a time; starting a new one always cancels the previous first.
package timer

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Snapshot is the combined read-only timer state handed to the UI and the
// presence bridge.
type Snapshot struct {
	SessionActive        bool   `json:"session_active"`
	ElapsedSeconds       int    `json:"elapsed_seconds"`
	Resting              bool   `json:"resting"`
	RestTotalSeconds     int    `json:"rest_total_seconds"`
	RestRemainingSeconds int    `json:"rest_remaining_seconds"`
	RestExerciseID       string `json:"rest_exercise_id,omitempty"`
}

// Coordinator owns the timer state for one feature scope. It is safe for
// concurrent use.
type Coordinator struct {
	log      *slog.Logger
	now      func() time.Time
	interval time.Duration

	mu            sync.Mutex
	sessionActive bool
	sessionStart  time.Time
	resting       bool
	restTotal     int
	restRemaining int
	restExercise  string
	restGen       int
	cancelRest    context.CancelFunc

	finished chan string
}

// New creates a stopped Coordinator.
func New(log *slog.Logger) *Coordinator {
	return &Coordinator{
		log:      log,
		now:      time.Now,
		interval: time.Second,
		finished: make(chan string, 1),
	}
}

// StartSession begins the elapsed clock from the given start time. Calling it
// again simply rebases the clock; there is no accumulated state to reset.
func (c *Coordinator) StartSession(startedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionActive = true
	c.sessionStart = startedAt
}

// StopSession stops the elapsed clock and cancels any running rest countdown
// without firing the rest-finished signal.
func (c *Coordinator) StopSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionActive = false
	c.sessionStart = time.Time{}
	c.clearRestLocked()
}

// StartRest begins a countdown of the given length, cancelling any countdown
// already running. Non-positive lengths are ignored.
func (c *Coordinator) StartRest(seconds int, exerciseID string) {
	if seconds <= 0 {
		return
	}

	c.mu.Lock()
	c.clearRestLocked()
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelRest = cancel
	c.restGen++
	gen := c.restGen
	c.resting = true
	c.restTotal = seconds
	c.restRemaining = seconds
	c.restExercise = exerciseID
	interval := c.interval
	c.mu.Unlock()

	c.log.Debug("rest started", "seconds", seconds, "exercise", exerciseID)
	go c.runRest(ctx, gen, interval)
}

// StopRest cancels the countdown early. No rest-finished signal fires.
func (c *Coordinator) StopRest() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearRestLocked()
}

// AdjustRest adds delta seconds to both the total and the remaining time,
// clamping each at zero. A no-op unless a countdown is running.
func (c *Coordinator) AdjustRest(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.resting {
		return
	}
	c.restTotal = max(0, c.restTotal+delta)
	c.restRemaining = max(0, c.restRemaining+delta)
}

// RestFinished delivers the resting exercise id once per countdown that
// reaches zero on its own. Manual stops and session teardown never fire it.
func (c *Coordinator) RestFinished() <-chan string {
	return c.finished
}

// Snapshot returns the current combined timer state. Elapsed time is
// recomputed from the wall clock here rather than accumulated by a tick, so
// a backgrounded or delayed reader always sees the true value.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		SessionActive:        c.sessionActive,
		Resting:              c.resting,
		RestTotalSeconds:     c.restTotal,
		RestRemainingSeconds: c.restRemaining,
		RestExerciseID:       c.restExercise,
	}
	if c.sessionActive {
		elapsed := int(c.now().Sub(c.sessionStart) / time.Second)
		if elapsed < 0 {
			elapsed = 0
		}
		s.ElapsedSeconds = elapsed
	}
	return s
}

// Close tears down both clocks. Idempotent.
func (c *Coordinator) Close() {
	c.StopSession()
}

// runRest is the single writer for one rest countdown. The generation guard
// makes a stale ticker harmless if a new countdown replaced this one between
// a tick firing and the lock being acquired.
func (c *Coordinator) runRest(ctx context.Context, gen int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.tickRest(gen) {
				return
			}
		}
	}
}

// tickRest decrements the countdown once. Returns true when this goroutine
// should exit, either because the countdown completed or was superseded.
func (c *Coordinator) tickRest(gen int) bool {
	c.mu.Lock()
	if gen != c.restGen || !c.resting {
		c.mu.Unlock()
		return true
	}
	c.restRemaining--
	if c.restRemaining > 0 {
		c.mu.Unlock()
		return false
	}

	exercise := c.restExercise
	c.clearRestLocked()
	c.mu.Unlock()

	c.log.Debug("rest finished", "exercise", exercise)
	select {
	case c.finished <- exercise:
	default:
	}
	return true
}

// clearRestLocked cancels and resets the rest countdown. Callers hold c.mu.
func (c *Coordinator) clearRestLocked() {
	if c.cancelRest != nil {
		c.cancelRest()
		c.cancelRest = nil
	}
	c.restGen++
	c.resting = false
	c.restTotal = 0
	c.restRemaining = 0
	c.restExercise = ""
}
