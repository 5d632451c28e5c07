/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tournament

import (
	"sort"
	"sync"
	"time"
)

// Timer is a handle to one scheduled callback.
type Timer interface {
	// Stop prevents the callback from running if it has not fired yet.
	Stop() bool
}

// Scheduler runs fn once after d. Implementations must run fn on the same
// logical thread that calls the Controller.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// ManualClock is a Scheduler whose time only moves when Advance is called.
// Callbacks run synchronously inside Advance, in due order.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []*manualTimer
}

type manualTimer struct {
	clock *ManualClock
	due   time.Duration
	seq   int
	fn    func()
}

func NewManualClock() *ManualClock {
	return &ManualClock{}
}

func (c *ManualClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	t := &manualTimer{
		clock: c,
		due:   c.now + d,
		seq:   c.seq,
		fn:    fn,
	}
	c.pending = append(c.pending, t)

	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	for i, p := range t.clock.pending {
		if p == t {
			t.clock.pending = append(t.clock.pending[:i], t.clock.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Pending returns the number of timers that have not fired or been stopped.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pending)
}

// Advance moves time forward by d, firing every timer that comes due,
// including timers scheduled by callbacks fired during this call.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		sort.SliceStable(c.pending, func(i, j int) bool {
			if c.pending[i].due == c.pending[j].due {
				return c.pending[i].seq < c.pending[j].seq
			}
			return c.pending[i].due < c.pending[j].due
		})

		if len(c.pending) == 0 || c.pending[0].due > target {
			c.now = target
			c.mu.Unlock()
			return
		}

		next := c.pending[0]
		c.pending = c.pending[1:]
		c.now = next.due
		c.mu.Unlock()

		next.fn()
	}
}
