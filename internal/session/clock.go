package session

import (
	"time"
)

// clock fires once per interval, anchored at its start instant: tick n is
// due at start + n*interval, so a late loop never accumulates drift. Missed
// ticks are reported by due so each one is delivered exactly once.
type clock struct {
	interval time.Duration
	now      func() time.Time

	timer   *time.Timer
	running bool
	start   time.Time
	fired   int64
}

func newClock(interval time.Duration, now func() time.Time) *clock {
	t := time.NewTimer(time.Hour)
	t.Stop()
	return &clock{
		interval: interval,
		now:      now,
		timer:    t,
	}
}

// C returns the timer channel, or nil while the clock is stopped.
func (c *clock) C() <-chan time.Time {
	if !c.running {
		return nil
	}
	return c.timer.C
}

// anchor (re)starts the clock at the current instant.
func (c *clock) anchor() {
	c.start = c.now()
	c.fired = 0
	c.running = true
	c.arm()
}

func (c *clock) stop() {
	c.running = false
	c.timer.Stop()
}

// due returns the number of ticks that became due since the last call and
// re-arms the timer for the next one.
func (c *clock) due() int {
	if !c.running {
		return 0
	}
	elapsed := c.now().Sub(c.start)
	total := int64(elapsed / c.interval)
	n := total - c.fired
	if n < 0 {
		n = 0
	}
	c.fired += n
	c.arm()
	return int(n)
}

func (c *clock) arm() {
	next := c.start.Add(time.Duration(c.fired+1) * c.interval)
	wait := next.Sub(c.now())
	if wait < 0 {
		wait = 0
	}
	c.timer.Stop()
	c.timer.Reset(wait)
}
