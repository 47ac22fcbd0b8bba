// Package trajectory holds the ordered backlog of motion segments.
package trajectory

import (
	"errors"

	"github.com/mastercactapus/gplot/coord"
	"github.com/mastercactapus/gplot/geometry"
	"github.com/mastercactapus/gplot/pen"
)

// Capacity is the maximum number of segments held at once.
const Capacity = 1024

// ErrQueueFull is returned by Append when no space is left. Callers must
// stop submitting until Advance or Clear frees space.
var ErrQueueFull = errors.New("trajectory queue full")

// Segment is one commanded move. It is immutable once appended.
type Segment struct {
	Pen  pen.State
	Path geometry.Path
}

func newSegment(start, end coord.Pulse, p pen.State, m geometry.Method) Segment {
	return Segment{Pen: p, Path: geometry.New(start, end, m)}
}

func (s Segment) Start() coord.Pulse      { return s.Path.Start() }
func (s Segment) End() coord.Pulse        { return s.Path.End() }
func (s Segment) Method() geometry.Method { return s.Path.Method() }

// Queue is a bounded sequence of segments with a cursor.
//
// It is never empty: a single seed segment exists after creation
// and after Clear.
type Queue struct {
	segments []Segment
	cursor   int
	running  bool
}

// NewQueue returns a queue seeded with a segment ending at the origin.
func NewQueue() *Queue {
	q := &Queue{segments: make([]Segment, 0, Capacity)}
	q.seed(coord.Pulse{}, geometry.Linear{})
	return q
}

func (q *Queue) seed(p coord.Pulse, m geometry.Method) {
	q.segments = append(q.segments[:0], newSegment(p, p, pen.Default, m))
	q.cursor = 0
}

// Append adds a segment from the current last end point to end.
func (q *Queue) Append(end coord.Pulse, p pen.State, m geometry.Method) error {
	if len(q.segments) >= Capacity {
		q.compact()
	}
	if len(q.segments) >= Capacity {
		return ErrQueueFull
	}
	q.segments = append(q.segments, newSegment(q.Last().End(), end, p, m))
	return nil
}

// compact drops the segments that were already passed by the cursor.
func (q *Queue) compact() {
	if q.cursor == 0 {
		return
	}
	n := copy(q.segments, q.segments[q.cursor:])
	q.segments = q.segments[:n]
	q.cursor = 0
}

// HasFreeSpace reports whether Append would succeed.
func (q *Queue) HasFreeSpace() bool {
	return len(q.segments)-q.cursor < Capacity
}

// Advance moves the cursor to the next segment and returns its end point.
// At the tail it returns false and leaves the cursor unchanged.
func (q *Queue) Advance() (coord.Pulse, bool) {
	if q.cursor+1 >= len(q.segments) {
		return coord.Pulse{}, false
	}
	q.cursor++
	return q.segments[q.cursor].End(), true
}

// Clear discards every segment and reseeds the queue at keep, carrying over
// the interpolation method of the current segment.
func (q *Queue) Clear(keep coord.Pulse) {
	q.seed(keep, q.Current().Method())
}

func (q *Queue) Start()          { q.running = true }
func (q *Queue) Stop()           { q.running = false }
func (q *Queue) IsRunning() bool { return q.running }

// Len is the number of segments held, including already passed ones.
func (q *Queue) Len() int { return len(q.segments) }

// Cursor is the index of the current segment.
func (q *Queue) Cursor() int { return q.cursor }

// Remaining is the number of segments after the current one.
func (q *Queue) Remaining() int { return len(q.segments) - q.cursor - 1 }

func (q *Queue) Current() Segment { return q.segments[q.cursor] }
func (q *Queue) Last() Segment    { return q.segments[len(q.segments)-1] }
