// Package clock provides the monotonic microsecond time base used by the
// control loop.
package clock

import (
	"sync"
	"sync/atomic"
	"time"
)

// Clock is a monotonic microsecond time source.
type Clock interface {
	NowMicros() uint64
}

// Counter is a free-running 32-bit hardware counter ticking at 1MHz.
type Counter interface {
	Counter() uint32
}

// Hardware combines a 32-bit hardware counter with a software overflow
// count into a 64-bit clock. Overflow must be called from the counter's
// wraparound interrupt.
type Hardware struct {
	c         Counter
	overflows uint32
}

var _ Clock = &Hardware{}

func NewHardware(c Counter) *Hardware {
	return &Hardware{c: c}
}

// Overflow records one wraparound of the counter. It is safe to call
// concurrently with NowMicros.
func (h *Hardware) Overflow() {
	atomic.AddUint32(&h.overflows, 1)
}

// NowMicros re-reads until no overflow happened between reading the
// overflow count and the counter.
func (h *Hardware) NowMicros() uint64 {
	for {
		o := atomic.LoadUint32(&h.overflows)
		c := h.c.Counter()
		if atomic.LoadUint32(&h.overflows) == o {
			return uint64(o)<<32 | uint64(c)
		}
	}
}

// System is a Clock backed by the Go runtime's monotonic clock.
type System struct{ start time.Time }

func NewSystem() *System { return &System{start: time.Now()} }

func (s *System) NowMicros() uint64 {
	return uint64(time.Since(s.start) / time.Microsecond)
}

// Fake is a manually advanced Clock for tests and simulation.
type Fake struct {
	mx  sync.Mutex
	now uint64
}

func (f *Fake) NowMicros() uint64 {
	f.mx.Lock()
	defer f.mx.Unlock()
	return f.now
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mx.Lock()
	f.now += uint64(d / time.Microsecond)
	f.mx.Unlock()
}

// Set moves the clock to an absolute microsecond value.
func (f *Fake) Set(us uint64) {
	f.mx.Lock()
	f.now = us
	f.mx.Unlock()
}
