// Package backoff holds the escalation ladder for sustained rate
// limiting. Stages climb on every limit signal and reset only on a
// successful item, never on elapsed time.
package backoff

import (
	"context"
	"sync"
	"time"
)

// DefaultStages is the ladder used when none is configured.
var DefaultStages = []time.Duration{10 * time.Minute, 30 * time.Minute, time.Hour}

// Controller tracks the current escalation stage.
type Controller struct {
	mu     sync.Mutex
	stages []time.Duration
	stage  int
}

// NewController creates a Controller over the given ladder. An empty
// ladder falls back to DefaultStages.
func NewController(stages []time.Duration) *Controller {
	if len(stages) == 0 {
		stages = DefaultStages
	}
	return &Controller{stages: stages}
}

// OnRateLimited returns the wait for the current stage and advances the
// stage, holding at the top of the ladder. Consecutive calls never
// return a shorter wait.
func (c *Controller) OnRateLimited() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	wait := c.stages[c.stage]
	if c.stage < len(c.stages)-1 {
		c.stage++
	}
	return wait
}

// OnSuccess re-arms the fast path. One completed item is enough; there
// is no partial credit.
func (c *Controller) OnSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stage = 0
}

// Stage reports the current stage index.
func (c *Controller) Stage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
