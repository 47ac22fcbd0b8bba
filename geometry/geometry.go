// Package geometry models the shape of a single motion segment.
package geometry

import (
	"math"

	"github.com/mastercactapus/gplot/coord"
)

const fullTurn = 2 * math.Pi

// Direction is the rotation sense of a circular segment.
type Direction byte

const (
	Clockwise Direction = iota
	CounterClockwise
)

func (d Direction) String() string {
	if d == Clockwise {
		return "cw"
	}
	return "ccw"
}

// A Method selects how points between the start and end of a segment
// are generated. It is one of Linear, Circular or Rapid.
type Method interface {
	method()
}

// Linear interpolates along a straight line.
type Linear struct{}

// Circular interpolates along an arc around start+(I,J).
type Circular struct {
	I, J float64
	Dir  Direction
}

// Rapid jumps straight to the end point with no intermediate geometry.
type Rapid struct{}

func (Linear) method()   {}
func (Circular) method() {}
func (Rapid) method()    {}

// Path is the computed geometry of one segment.
type Path struct {
	start, end coord.Pulse
	method     Method
	length     int

	// circular only
	cx, cy     float64
	radius     float64
	startAngle float64
	sweep      float64
}

// New computes the geometry from start to end. A nil method is treated as Linear.
func New(start, end coord.Pulse, m Method) Path {
	p := Path{start: start, end: end, method: m}
	switch m := m.(type) {
	case Circular:
		p.setupCircular(m)
	case Rapid:
		p.length = 1
	default:
		p.method = Linear{}
		p.length = start.Chebyshev(end)
	}
	if p.length < 1 {
		p.length = 1
	}
	return p
}

func (p *Path) setupCircular(m Circular) {
	p.cx = float64(p.start.X) + m.I
	p.cy = float64(p.start.Y) + m.J

	sx, sy := float64(p.start.X)-p.cx, float64(p.start.Y)-p.cy
	ex, ey := float64(p.end.X)-p.cx, float64(p.end.Y)-p.cy

	p.radius = math.Hypot(sx, sy)
	p.startAngle = math.Atan2(sy, sx)
	endAngle := math.Atan2(ey, ex)

	var sweep float64
	if m.Dir == Clockwise {
		sweep = math.Mod(p.startAngle-endAngle, fullTurn)
	} else {
		sweep = math.Mod(endAngle-p.startAngle, fullTurn)
	}
	if sweep < 0 {
		sweep += fullTurn
	}
	if sweep == 0 || math.IsNaN(sweep) {
		sweep = fullTurn
	}
	p.sweep = sweep

	l := math.Round(p.radius * sweep)
	if math.IsNaN(l) || math.IsInf(l, 0) || l > math.MaxInt32 {
		// point fallback
		p.radius = 0
		l = 1
	}
	p.length = int(l)
}

// Len returns the number of interpolation steps, always at least 1.
func (p Path) Len() int { return p.length }

func (p Path) Start() coord.Pulse { return p.start }
func (p Path) End() coord.Pulse   { return p.end }
func (p Path) Method() Method     { return p.method }

// Radius and Sweep are zero for non-circular paths.
func (p Path) Radius() float64 { return p.radius }
func (p Path) Sweep() float64  { return p.sweep }

// Center returns the arc center in pulses.
func (p Path) Center() (x, y float64) { return p.cx, p.cy }

// At returns the point at step i of Len().
func (p Path) At(i int) coord.Pulse {
	switch m := p.method.(type) {
	case Circular:
		return p.atCircular(i, m.Dir)
	case Rapid:
		return p.end
	default:
		return p.atLinear(i)
	}
}

func (p Path) atLinear(i int) coord.Pulse {
	if p.start == p.end {
		return p.end
	}
	f := float64(i) / float64(p.length)
	x := float64(p.start.X) + float64(p.end.X-p.start.X)*f
	y := float64(p.start.Y) + float64(p.end.Y-p.start.Y)*f
	return coord.Pulse{X: int(math.Floor(x)), Y: int(math.Floor(y))}
}

func (p Path) atCircular(i int, dir Direction) coord.Pulse {
	if p.radius == 0 {
		return p.end
	}
	offset := float64(i) / float64(p.length) * p.sweep
	angle := p.startAngle + offset
	if dir == Clockwise {
		angle = p.startAngle - offset
	}
	return coord.Pulse{
		X: int(math.Round(p.cx + p.radius*math.Cos(angle))),
		Y: int(math.Round(p.cy + p.radius*math.Sin(angle))),
	}
}
