package gcode

import (
	"io"
	"strings"

	"github.com/mastercactapus/gplot/trajectory"
	"github.com/pkg/errors"
)

// ErrUnsupported is returned for words the plotter cannot execute.
var ErrUnsupported = errors.New("unsupported code")

// Decoder tracks modal state and turns blocks into plotter commands.
//
// Coordinates are millimeters (inches after G20). Z is the pen servo angle
// and is never unit converted.
type Decoder struct {
	motion      float64
	relative    bool
	arcAbsolute bool
	inches      bool

	// program position and home offset in mm
	x, y         float64
	homeX, homeY float64
	pen          float64
}

// NewDecoder returns a decoder in the power-on state: G0 G90 G91.1 G21.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Sync sets the program position and home offset, in mm, e.g. after the
// pending program was discarded.
func (d *Decoder) Sync(x, y, homeX, homeY float64) {
	d.x, d.y = x, y
	d.homeX, d.homeY = homeX, homeY
}

func unsupported(w Word) error {
	return errors.Wrap(ErrUnsupported, w.String())
}

// Decode applies b and returns the commands it produces, if any.
func (d *Decoder) Decode(b Block) ([]trajectory.Command, error) {
	err := b.Validate()
	if err != nil {
		return nil, err
	}

	var setHome bool
	for _, w := range b {
		switch w.W {
		case 'G':
			switch w.Arg {
			case 0, 1, 2, 3:
				d.motion = w.Arg
			case 90:
				d.relative = false
			case 91:
				d.relative = true
			case 90.1:
				d.arcAbsolute = true
			case 91.1:
				d.arcAbsolute = false
			case 20:
				d.inches = true
			case 21:
				d.inches = false
			case 92:
				setHome = true
			case 17, 94:
			default:
				return nil, unsupported(w)
			}
		case 'M':
			switch w.Arg {
			case 2, 30:
			default:
				return nil, unsupported(w)
			}
		case 'X', 'Y', 'Z', 'I', 'J', 'F', 'N':
		default:
			return nil, unsupported(w)
		}
	}

	scale := 1.0
	if d.inches {
		scale = 25.4
	}
	hasX, x := b.Arg('X')
	hasY, y := b.Arg('Y')
	hasZ, z := b.Arg('Z')
	hasI, i := b.Arg('I')
	hasJ, j := b.Arg('J')
	x *= scale
	y *= scale

	if setHome {
		// the physical position is kept, so the program position shifts
		// by the change of offset
		d.x += d.homeX - x
		d.y += d.homeY - y
		d.homeX, d.homeY = x, y
		return []trajectory.Command{trajectory.SetHome{X: x, Y: y}}, nil
	}

	if !hasX && !hasY && !hasZ && !hasI && !hasJ {
		return nil, nil
	}

	tx, ty, tp := d.x, d.y, d.pen
	if d.relative {
		tx += x
		ty += y
		tp += z
	} else {
		if hasX {
			tx = x
		}
		if hasY {
			ty = y
		}
		if hasZ {
			tp = z
		}
	}

	var cmds []trajectory.Command
	var px, py *float64
	if hasX {
		px = trajectory.Float(tx)
	}
	if hasY {
		py = trajectory.Float(ty)
	}

	switch d.motion {
	case 0:
		c := trajectory.RapidMove{X: px, Y: py}
		if hasZ {
			c.Pen = trajectory.Float(tp)
		}
		cmds = append(cmds, c)
	case 1, 2, 3:
		if hasZ {
			cmds = append(cmds, trajectory.RapidMove{Pen: trajectory.Float(tp)})
		}
		if d.motion == 1 {
			if hasX || hasY {
				cmds = append(cmds, trajectory.LinearMove{X: px, Y: py})
			}
			break
		}
		cmds = append(cmds, trajectory.ArcMove{
			X: tx, Y: ty,
			I: i * scale, J: j * scale,
			Clockwise:      d.motion == 2,
			AbsoluteCenter: d.arcAbsolute,
		})
	}

	d.x, d.y, d.pen = tx, ty, tp
	return cmds, nil
}

// DecodeAll decodes every block from r.
func (d *Decoder) DecodeAll(r Reader) ([]trajectory.Command, error) {
	var cmds []trajectory.Command
	for {
		b, err := r.Read()
		if err == io.EOF {
			return cmds, nil
		}
		if err != nil {
			return nil, err
		}
		c, err := d.Decode(b)
		if err != nil {
			if p, ok := r.(*Parser); ok {
				return nil, errors.Wrapf(err, "line %d", p.Line())
			}
			return nil, err
		}
		cmds = append(cmds, c...)
	}
}

// DecodeString parses and decodes a complete program.
func (d *Decoder) DecodeString(s string) ([]trajectory.Command, error) {
	return d.DecodeAll(NewParser(strings.NewReader(s)))
}
