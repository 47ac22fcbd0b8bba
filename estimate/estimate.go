// Package estimate previews a g-code job before it is queued.
package estimate

import (
	"math"

	"github.com/joushou/gocnc/gcode"
	"github.com/joushou/gocnc/vm"
	"github.com/pkg/errors"
)

// Bounds is the area covered by a job, in millimeters.
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Job summarizes the moves of a program.
type Job struct {
	Rapids int
	Lines  int
	Arcs   int

	// TravelLength is the length of all rapid moves, DrawLength of all
	// others. Arcs are measured as chords.
	TravelLength float64
	DrawLength   float64

	Bounds Bounds
}

// feed is prepended to every program since the plotter ignores F words
// but linear moves are rejected without one.
const feed = "F1000\n"

// Estimate runs program through a g-code interpreter and measures the
// resulting moves in the XY plane.
func Estimate(program string) (*Job, error) {
	doc, err := gcode.Parse(feed + program)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	var m vm.Machine
	m.Init()
	err = m.Process(doc)
	if err != nil {
		return nil, errors.Wrap(err, "interpret")
	}

	var job Job
	if len(m.Positions) == 0 {
		return &job, nil
	}
	first := m.Positions[0].Vector()
	job.Bounds = Bounds{MinX: first.X, MinY: first.Y, MaxX: first.X, MaxY: first.Y}

	prev := first
	for _, p := range m.Positions[1:] {
		v := p.Vector()
		dist := math.Hypot(v.X-prev.X, v.Y-prev.Y)
		prev = v
		if dist == 0 {
			continue
		}

		job.Bounds.MinX = math.Min(job.Bounds.MinX, v.X)
		job.Bounds.MinY = math.Min(job.Bounds.MinY, v.Y)
		job.Bounds.MaxX = math.Max(job.Bounds.MaxX, v.X)
		job.Bounds.MaxY = math.Max(job.Bounds.MaxY, v.Y)

		switch p.State.MoveMode {
		case vm.MoveModeRapid:
			job.Rapids++
			job.TravelLength += dist
		case vm.MoveModeLinear:
			job.Lines++
			job.DrawLength += dist
		default:
			job.Arcs++
			job.DrawLength += dist
		}
	}

	return &job, nil
}
