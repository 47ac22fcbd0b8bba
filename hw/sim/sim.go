// Package sim is a simulated two-axis plotter: DC motors with a linear
// duty/speed response and quantized encoders.
package sim

import (
	"math"
	"sync"

	"github.com/mastercactapus/gplot/clock"
	"github.com/mastercactapus/gplot/hw"
	"github.com/mastercactapus/gplot/pen"
)

// Axis is a simulated motor and encoder.
type Axis struct {
	mx sync.Mutex
	c  clock.Clock

	rate float64 // pulses per second at 100% duty
	pos  float64
	zero int
	last uint64

	dir  hw.Direction
	duty float64
}

var _ hw.Axis = &Axis{}

// NewAxis returns an axis moving rate pulses per second at full duty.
func NewAxis(c clock.Clock, rate float64) *Axis {
	return &Axis{c: c, rate: rate, last: c.NowMicros()}
}

func (a *Axis) update() {
	now := a.c.NowMicros()
	dt := float64(now-a.last) / 1e6
	a.last = now
	a.pos += float64(a.dir) * a.duty / 100 * a.rate * dt
}

// Pos returns the encoder count: the floored position relative to the last
// calibration.
func (a *Axis) Pos() int {
	a.mx.Lock()
	defer a.mx.Unlock()
	a.update()
	return int(math.Floor(a.pos)) - a.zero
}

func (a *Axis) Calibrate() {
	a.mx.Lock()
	defer a.mx.Unlock()
	a.update()
	a.zero = int(math.Floor(a.pos))
}

func (a *Axis) Drive(dir hw.Direction, duty float64) {
	hw.CheckDuty(duty)
	a.mx.Lock()
	defer a.mx.Unlock()
	a.update()
	a.dir = dir
	a.duty = duty
}

func (a *Axis) Stop() {
	a.mx.Lock()
	defer a.mx.Unlock()
	a.update()
	a.dir = hw.Stop
	a.duty = 0
}

// SetPos moves the axis to an absolute raw position, e.g. to inject
// disturbances.
func (a *Axis) SetPos(p float64) {
	a.mx.Lock()
	defer a.mx.Unlock()
	a.update()
	a.pos = p
}

// Output returns the currently applied drive.
func (a *Axis) Output() (hw.Direction, float64) {
	a.mx.Lock()
	defer a.mx.Unlock()
	return a.dir, a.duty
}

// Pen records the commanded pen states.
type Pen struct {
	mx      sync.Mutex
	state   pen.State
	history []pen.State
}

var _ hw.Pen = &Pen{}

func (p *Pen) Set(s pen.State) {
	p.mx.Lock()
	p.state = s
	p.history = append(p.history, s)
	p.mx.Unlock()
}

func (p *Pen) State() pen.State {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.state
}

// History returns every state set so far.
func (p *Pen) History() []pen.State {
	p.mx.Lock()
	defer p.mx.Unlock()
	return append([]pen.State(nil), p.history...)
}

// Plotter is a complete simulated machine.
type Plotter struct {
	X, Y *Axis
	Pen  *Pen
}

// NewPlotter returns a plotter whose axes move rateX and rateY pulses per
// second at full duty.
func NewPlotter(c clock.Clock, rateX, rateY float64) *Plotter {
	return &Plotter{
		X:   NewAxis(c, rateX),
		Y:   NewAxis(c, rateY),
		Pen: &Pen{},
	}
}
