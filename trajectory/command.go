package trajectory

// A Command is a decoded movement command in millimeters. It is one of
// RapidMove, LinearMove, ArcMove or SetHome.
type Command interface {
	command()
}

// RapidMove jumps to the given position. Nil axes keep their previous
// value; a non-nil Pen sets the pending pen angle.
type RapidMove struct {
	X, Y *float64
	Pen  *float64
}

// LinearMove draws a straight line. Nil axes keep their previous value.
type LinearMove struct {
	X, Y *float64
}

// ArcMove draws an arc to (X,Y) around center (I,J). The center is
// relative to the start of the move unless AbsoluteCenter is set.
type ArcMove struct {
	X, Y, I, J     float64
	Clockwise      bool
	AbsoluteCenter bool
}

// SetHome redefines the offset added to subsequently converted coordinates.
type SetHome struct {
	X, Y float64
}

func (RapidMove) command()  {}
func (LinearMove) command() {}
func (ArcMove) command()    {}
func (SetHome) command()    {}

// Float returns a pointer to v, for optional command fields.
func Float(v float64) *float64 { return &v }
