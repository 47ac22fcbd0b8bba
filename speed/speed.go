// Package speed estimates axis velocity from raw sensor positions.
package speed

import (
	"math"

	"github.com/mastercactapus/gplot/clock"
	"github.com/mastercactapus/gplot/hw"
)

const (
	// idleTimeout zeroes the speed when the axis is commanded at low duty
	// and no pulse arrived within it.
	idleTimeout = 100 * 1000
	idleDuty    = 10

	// stallTimeout zeroes the speed regardless of the commanded duty.
	stallTimeout = 200 * 1000
)

// Estimator computes the speed of one axis in pulses per second from the
// time between position changes.
type Estimator struct {
	s hw.Sensor
	c clock.Clock

	lastPos  int
	lastTime uint64
	speed    float64
}

func New(s hw.Sensor, c clock.Clock) *Estimator {
	return &Estimator{
		s:        s,
		c:        c,
		lastPos:  s.Pos(),
		lastTime: c.NowMicros(),
	}
}

// Tick samples the sensor. duty is the signed duty currently commanded to
// the axis.
func (e *Estimator) Tick(duty float64) {
	pos := e.s.Pos()
	now := e.c.NowMicros()
	elapsed := now - e.lastTime

	if pos != e.lastPos {
		if elapsed > 0 {
			e.speed = float64(pos-e.lastPos) / (float64(elapsed) / 1e6)
		}
		e.lastPos = pos
		e.lastTime = now
		return
	}

	if (elapsed > idleTimeout && math.Abs(duty) <= idleDuty) || elapsed > stallTimeout {
		e.speed = 0
	}
}

// Speed returns the last computed speed in pulses per second.
func (e *Estimator) Speed() float64 { return e.speed }

// Pos passes through to the sensor.
func (e *Estimator) Pos() int { return e.s.Pos() }

// Calibrate zeroes the sensor reference.
func (e *Estimator) Calibrate() {
	e.s.Calibrate()
	e.lastPos = e.s.Pos()
	e.lastTime = e.c.NowMicros()
}
