package clock

import "time"

// Scheduler is a one-shot deadline.
type Scheduler struct {
	c      Clock
	end    uint64
	active bool
}

func NewScheduler(c Clock) *Scheduler {
	return &Scheduler{c: c}
}

// Start arms the deadline d from now.
func (s *Scheduler) Start(d time.Duration) {
	s.end = s.c.NowMicros() + uint64(d/time.Microsecond)
	s.active = true
}

// StartMillis arms the deadline ms milliseconds from now.
func (s *Scheduler) StartMillis(ms uint64) {
	s.Start(time.Duration(ms) * time.Millisecond)
}

// Reset deactivates the scheduler regardless of remaining time.
func (s *Scheduler) Reset() { s.active = false }

// Active reports whether the scheduler is armed, expired or not.
func (s *Scheduler) Active() bool { return s.active }

// Expired reports whether an armed deadline has passed without
// deactivating it.
func (s *Scheduler) Expired() bool {
	return s.active && s.c.NowMicros() >= s.end
}

// IsRunning reports whether the deadline is armed and not yet reached.
// The first call that observes expiry deactivates the scheduler.
func (s *Scheduler) IsRunning() bool {
	if !s.active {
		return false
	}
	if s.Expired() {
		s.active = false
		return false
	}
	return true
}
