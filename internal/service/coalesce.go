package service

import "time"

// Coalescer collapses bursts of triggers into at most one run per settle
// interval. A single goroutine owns the pending state: triggers arriving
// while a run is pending are absorbed, so run frequency is bounded no matter
// how bursty the trigger source is.
type Coalescer struct {
	trigger chan struct{}
	done    chan struct{}
	settle  time.Duration
	run     func()
}

func NewCoalescer(settle time.Duration, run func()) *Coalescer {
	c := &Coalescer{
		trigger: make(chan struct{}, 1),
		done:    make(chan struct{}),
		settle:  settle,
		run:     run,
	}
	go c.loop()
	return c
}

// Trigger requests a run. It never blocks; a trigger arriving while one is
// already pending is dropped.
func (c *Coalescer) Trigger() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

func (c *Coalescer) Stop() {
	close(c.done)
}

func (c *Coalescer) loop() {
	for {
		select {
		case <-c.done:
			return
		case <-c.trigger:
		}

		timer := time.NewTimer(c.settle)
	settle:
		for {
			select {
			case <-c.trigger:
				// Absorbed into the pending run.
			case <-timer.C:
				break settle
			case <-c.done:
				timer.Stop()
				return
			}
		}
		c.run()
	}
}
