package trajectory

import (
	"math"

	"github.com/mastercactapus/gplot/coord"
	"github.com/mastercactapus/gplot/geometry"
	"github.com/mastercactapus/gplot/pen"
)

// PenOffsetter reports a pen angle correction for a position in millimeters.
type PenOffsetter interface {
	OffsetZ(x, y float64) (bool, float64)
}

// Translator converts decoded commands into queue segments.
type Translator struct {
	q *Queue

	unitX, unitY float64 // mm per pulse
	home         coord.Pulse
	pen          float64
	penSet       bool

	offsetter PenOffsetter
}

// NewTranslator appends to q using the given mm-per-pulse unit lengths.
func NewTranslator(q *Queue, unitX, unitY float64) *Translator {
	return &Translator{q: q, unitX: unitX, unitY: unitY}
}

// SetPenOffsetter installs a correction applied to explicit pen angles.
func (t *Translator) SetPenOffsetter(o PenOffsetter) { t.offsetter = o }

// SetHome changes the offset of subsequently converted coordinates only.
func (t *Translator) SetHome(x, y float64) {
	t.home = coord.Pulse{X: t.unitsX(x), Y: t.unitsY(y)}
}

// Home returns the current home offset in pulses.
func (t *Translator) Home() coord.Pulse { return t.home }

// SetPen sets the pending pen angle used for following segments.
func (t *Translator) SetPen(angle float64) {
	t.pen = angle
	t.penSet = true
}

// PenState returns the pen state a segment ending at end would get.
func (t *Translator) PenState(end coord.Pulse) pen.State {
	if !t.penSet {
		return pen.Default
	}
	a := t.pen
	if t.offsetter != nil {
		ok, off := t.offsetter.OffsetZ(t.ToMM(end))
		if ok {
			a += off
		}
	}
	return pen.Angle(a)
}

func (t *Translator) unitsX(mm float64) int { return int(math.Round(mm / t.unitX)) }
func (t *Translator) unitsY(mm float64) int { return int(math.Round(mm / t.unitY)) }

// ToPulse converts a position in millimeters to pulses, including the home offset.
func (t *Translator) ToPulse(x, y float64) coord.Pulse {
	return coord.Pulse{X: t.unitsX(x), Y: t.unitsY(y)}.Add(t.home)
}

// ToMM converts pulses back to millimeters relative to home.
func (t *Translator) ToMM(p coord.Pulse) (x, y float64) {
	p = p.Sub(t.home)
	return float64(p.X) * t.unitX, float64(p.Y) * t.unitY
}

// Translate appends the segment for c. It returns ErrQueueFull when the
// queue has no room; c has then not been applied.
func (t *Translator) Translate(c Command) error {
	switch c := c.(type) {
	case RapidMove:
		if c.X == nil && c.Y == nil {
			if c.Pen != nil {
				t.SetPen(*c.Pen)
			}
			return nil
		}
		if !t.q.HasFreeSpace() {
			return ErrQueueFull
		}
		if c.Pen != nil {
			t.SetPen(*c.Pen)
		}
		return t.move(c.X, c.Y, geometry.Rapid{})
	case LinearMove:
		if c.X == nil && c.Y == nil {
			return nil
		}
		return t.move(c.X, c.Y, geometry.Linear{})
	case ArcMove:
		return t.arc(c)
	case SetHome:
		t.SetHome(c.X, c.Y)
	}
	return nil
}

func (t *Translator) move(x, y *float64, m geometry.Method) error {
	end := t.q.Last().End()
	if x != nil {
		end.X = t.unitsX(*x) + t.home.X
	}
	if y != nil {
		end.Y = t.unitsY(*y) + t.home.Y
	}
	return t.q.Append(end, t.PenState(end), m)
}

func (t *Translator) arc(c ArcMove) error {
	end := t.ToPulse(c.X, c.Y)
	i, j := c.I/t.unitX, c.J/t.unitY
	if c.AbsoluteCenter {
		start := t.q.Last().End()
		i += float64(t.home.X - start.X)
		j += float64(t.home.Y - start.Y)
	}
	dir := geometry.CounterClockwise
	if c.Clockwise {
		dir = geometry.Clockwise
	}
	return t.q.Append(end, t.PenState(end), geometry.Circular{I: i, J: j, Dir: dir})
}
