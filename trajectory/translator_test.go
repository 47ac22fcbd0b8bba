package trajectory

import (
	"testing"

	"github.com/mastercactapus/gplot/coord"
	"github.com/mastercactapus/gplot/geometry"
	"github.com/mastercactapus/gplot/pen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTranslator() (*Queue, *Translator) {
	q := NewQueue()
	return q, NewTranslator(q, 0.5, 0.25)
}

func TestTranslator_Linear(t *testing.T) {
	q, tr := newTestTranslator()
	require.NoError(t, tr.Translate(LinearMove{X: Float(10), Y: Float(2)}))
	assert.Equal(t, coord.Pulse{X: 20, Y: 8}, q.Last().End())
	assert.Equal(t, geometry.Linear{}, q.Last().Method())
	assert.True(t, q.Last().Pen.IsDefault())

	// missing axis reuses the previous end point
	require.NoError(t, tr.Translate(LinearMove{Y: Float(5)}))
	assert.Equal(t, coord.Pulse{X: 20, Y: 20}, q.Last().End())

	require.NoError(t, tr.Translate(LinearMove{}))
	assert.Equal(t, 3, q.Len())
}

func TestTranslator_Rapid(t *testing.T) {
	q, tr := newTestTranslator()
	require.NoError(t, tr.Translate(RapidMove{X: Float(1), Pen: Float(300)}))
	assert.Equal(t, coord.Pulse{X: 2}, q.Last().End())
	assert.Equal(t, geometry.Rapid{}, q.Last().Method())
	assert.Equal(t, pen.Angle(255), q.Last().Pen)

	// pen only, no segment
	require.NoError(t, tr.Translate(RapidMove{Pen: Float(40)}))
	assert.Equal(t, 2, q.Len())

	require.NoError(t, tr.Translate(LinearMove{X: Float(3)}))
	assert.Equal(t, pen.Angle(40), q.Last().Pen)
}

func TestTranslator_Rounding(t *testing.T) {
	q, tr := newTestTranslator()
	tr.SetHome(1.1, 0)
	assert.Equal(t, coord.Pulse{X: 2}, tr.Home())

	// round(0.6/0.5)=1, then +2
	require.NoError(t, tr.Translate(LinearMove{X: Float(0.6), Y: Float(0)}))
	assert.Equal(t, coord.Pulse{X: 3}, q.Last().End())
}

func TestTranslator_SetHome(t *testing.T) {
	q, tr := newTestTranslator()
	require.NoError(t, tr.Translate(LinearMove{X: Float(1), Y: Float(1)}))
	require.NoError(t, tr.Translate(SetHome{X: 10, Y: 10}))

	// already queued segments are untouched
	assert.Equal(t, coord.Pulse{X: 2, Y: 4}, q.Last().End())

	require.NoError(t, tr.Translate(LinearMove{X: Float(1), Y: Float(1)}))
	assert.Equal(t, coord.Pulse{X: 22, Y: 44}, q.Last().End())

	x, y := tr.ToMM(q.Last().End())
	assert.Equal(t, 1.0, x)
	assert.Equal(t, 1.0, y)
}

func TestTranslator_Arc(t *testing.T) {
	q, tr := newTestTranslator()
	require.NoError(t, tr.Translate(LinearMove{X: Float(5), Y: Float(0)}))

	require.NoError(t, tr.Translate(ArcMove{X: 0, Y: 5, I: -5, J: 0}))
	seg := q.Last()
	assert.Equal(t, coord.Pulse{X: 10}, seg.Start())
	assert.Equal(t, coord.Pulse{X: 0, Y: 20}, seg.End())
	assert.Equal(t, geometry.Circular{I: -10, J: 0, Dir: geometry.CounterClockwise}, seg.Method())

	tr.SetHome(1, 1)
	require.NoError(t, tr.Translate(ArcMove{X: 2, Y: 0, I: 0, J: 0, Clockwise: true, AbsoluteCenter: true}))
	seg = q.Last()
	// center is home (2,4); start is (0,20)
	assert.Equal(t, geometry.Circular{I: 2, J: -16, Dir: geometry.Clockwise}, seg.Method())
	x, y := seg.Path.Center()
	assert.Equal(t, 2.0, x)
	assert.Equal(t, 4.0, y)
}

func TestTranslator_QueueFull(t *testing.T) {
	q, tr := newTestTranslator()
	for i := 1; i < Capacity; i++ {
		require.NoError(t, q.Append(coord.Pulse{X: i}, pen.Default, geometry.Linear{}))
	}
	err := tr.Translate(RapidMove{X: Float(1), Pen: Float(10)})
	assert.Equal(t, ErrQueueFull, err)
	assert.Equal(t, Capacity, q.Len())
	assert.Equal(t, pen.Default, tr.PenState(coord.Pulse{}), "failed command is not applied")

	assert.Equal(t, ErrQueueFull, tr.Translate(LinearMove{X: Float(1)}))
	assert.Equal(t, ErrQueueFull, tr.Translate(ArcMove{X: 1}))
	assert.NoError(t, tr.Translate(SetHome{}))
}

type fixedOffset float64

func (f fixedOffset) OffsetZ(x, y float64) (bool, float64) {
	return x >= 0 && y >= 0, float64(f)
}

func TestTranslator_PenOffsetter(t *testing.T) {
	q, tr := newTestTranslator()
	tr.SetPenOffsetter(fixedOffset(-5))

	require.NoError(t, tr.Translate(LinearMove{X: Float(1), Y: Float(1)}))
	assert.True(t, q.Last().Pen.IsDefault(), "default pen is never offset")

	tr.SetPen(20)
	require.NoError(t, tr.Translate(LinearMove{X: Float(2), Y: Float(2)}))
	assert.Equal(t, pen.Angle(15), q.Last().Pen)

	require.NoError(t, tr.Translate(LinearMove{X: Float(-2), Y: Float(2)}))
	assert.Equal(t, pen.Angle(20), q.Last().Pen)
}
