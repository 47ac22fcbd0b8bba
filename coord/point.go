package coord

import (
	"math"
)

// Point is a position in millimeters. Z carries the pen channel.
type Point struct{ X, Y, Z float64 }

func (p Point) Equal(b Point) bool {
	return p.X == b.X && p.Y == b.Y && p.Z == b.Z
}
func (p Point) Cross(op Point) Point {
	return Point{
		p.Y*op.Z - p.Z*op.Y,
		p.Z*op.X - p.X*op.Z,
		p.X*op.Y - p.Y*op.X,
	}
}
func (p Point) Dot(op Point) float64 {
	return p.X*op.X + p.Y*op.Y + p.Z*op.Z
}

// Add will add the target values to p.
func (p Point) Add(target Point) Point {
	p.X += target.X
	p.Y += target.Y
	p.Z += target.Z
	return p
}

// Sub will subtract the target values from p.
func (p Point) Sub(target Point) Point {
	p.X -= target.X
	p.Y -= target.Y
	p.Z -= target.Z
	return p
}

// DistanceXY will return the 2D distance to p from (x,y).
func (p Point) DistanceXY(x, y float64) float64 {
	return math.Hypot(x-p.X, y-p.Y)
}

// Pulse is an axis position in sensor pulses.
type Pulse struct{ X, Y int }

func (p Pulse) Add(o Pulse) Pulse { return Pulse{p.X + o.X, p.Y + o.Y} }
func (p Pulse) Sub(o Pulse) Pulse { return Pulse{p.X - o.X, p.Y - o.Y} }

// Chebyshev returns max(|dx|, |dy|) between p and o.
func (p Pulse) Chebyshev(o Pulse) int {
	dx, dy := abs(o.X-p.X), abs(o.Y-p.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// Distance returns the euclidean distance between p and o.
//
// math.Hypot is used so that large coordinates do not overflow when squared.
func (p Pulse) Distance(o Pulse) float64 {
	return math.Hypot(float64(o.X-p.X), float64(o.Y-p.Y))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
