package coord

import "math"

// Epsilon is the tolerance, in millimeters, of containment checks.
const Epsilon = 0.001

// Triangle is a planar patch through three probed points.
type Triangle struct{ A, B, C Point }

// ContainsXY reports whether (x,y) lies inside the XY projection of t or
// within Epsilon of one of its edges.
func (t Triangle) ContainsXY(x, y float64) bool {
	p := Point{X: x, Y: y}
	if x < math.Min(t.A.X, math.Min(t.B.X, t.C.X))-Epsilon ||
		x > math.Max(t.A.X, math.Max(t.B.X, t.C.X))+Epsilon ||
		y < math.Min(t.A.Y, math.Min(t.B.Y, t.C.Y))-Epsilon ||
		y > math.Max(t.A.Y, math.Max(t.B.Y, t.C.Y))+Epsilon {
		return false
	}

	s1, s2, s3 := edgeSide(t.A, t.B, p), edgeSide(t.B, t.C, p), edgeSide(t.C, t.A, p)
	if (s1 >= 0 && s2 >= 0 && s3 >= 0) || (s1 <= 0 && s2 <= 0 && s3 <= 0) {
		return true
	}

	return segmentDistance(t.A, t.B, p) <= Epsilon ||
		segmentDistance(t.B, t.C, p) <= Epsilon ||
		segmentDistance(t.C, t.A, p) <= Epsilon
}

// Z returns the height of the plane through t at (x,y).
func (t Triangle) Z(x, y float64) float64 {
	n := t.C.Sub(t.A).Cross(t.B.Sub(t.A))
	return (n.Dot(t.C) - n.X*x - n.Y*y) / n.Z
}

// edgeSide is positive when p is left of a->b in the XY plane.
func edgeSide(a, b, p Point) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

func segmentDistance(a, b, p Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return a.DistanceXY(p.X, p.Y)
	}
	f := math.Max(0, math.Min(1, ((p.X-a.X)*dx+(p.Y-a.Y)*dy)/l2))
	return math.Hypot(p.X-(a.X+f*dx), p.Y-(a.Y+f*dy))
}
