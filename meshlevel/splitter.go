package meshlevel

import (
	"math"

	"github.com/mastercactapus/gplot/trajectory"
)

// Splitter breaks long straight moves into pieces no longer than its
// granularity, so the pen offset is evaluated along the way instead of only
// at the end of the move.
type Splitter struct {
	granularity float64

	// program position and home offset in mm
	x, y         float64
	homeX, homeY float64
}

func NewSplitter(granularity float64) *Splitter {
	return &Splitter{granularity: granularity}
}

// Sync sets the program position and home offset in mm.
func (s *Splitter) Sync(x, y, homeX, homeY float64) {
	s.x, s.y = x, y
	s.homeX, s.homeY = homeX, homeY
}

// Split returns the commands to run in place of c.
func (s *Splitter) Split(c trajectory.Command) []trajectory.Command {
	switch c := c.(type) {
	case trajectory.RapidMove:
		s.moveTo(c.X, c.Y)
	case trajectory.ArcMove:
		s.x, s.y = c.X, c.Y
	case trajectory.SetHome:
		s.x += s.homeX - c.X
		s.y += s.homeY - c.Y
		s.homeX, s.homeY = c.X, c.Y
	case trajectory.LinearMove:
		return s.splitLinear(c)
	}
	return []trajectory.Command{c}
}

func (s *Splitter) moveTo(x, y *float64) {
	if x != nil {
		s.x = *x
	}
	if y != nil {
		s.y = *y
	}
}

func (s *Splitter) splitLinear(c trajectory.LinearMove) []trajectory.Command {
	oldX, oldY := s.x, s.y
	s.moveTo(c.X, c.Y)

	dist := math.Hypot(s.x-oldX, s.y-oldY)
	if s.granularity <= 0 || dist <= s.granularity {
		return []trajectory.Command{c}
	}

	n := int(math.Ceil(dist / s.granularity))
	dx, dy := (s.x-oldX)/float64(n), (s.y-oldY)/float64(n)
	res := make([]trajectory.Command, 0, n)
	for i := 1; i < n; i++ {
		res = append(res, trajectory.LinearMove{
			X: trajectory.Float(oldX + dx*float64(i)),
			Y: trajectory.Float(oldY + dy*float64(i)),
		})
	}
	res = append(res, trajectory.LinearMove{X: trajectory.Float(s.x), Y: trajectory.Float(s.y)})

	return res
}
