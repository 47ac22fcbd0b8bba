package coord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTriangle_Z(t *testing.T) {
	tri := Triangle{
		A: Point{0, 0, 0},
		B: Point{10, 0, 0},
		C: Point{5, 5, 5},
	}

	assert.Equal(t, 0.0, tri.Z(0, 0))
	assert.Equal(t, 0.0, tri.Z(5, 0))
	assert.Equal(t, 5.0, tri.Z(5, 5))
	assert.Equal(t, 2.5, tri.Z(2.5, 2.5))
}

func TestTriangle_ContainsXY(t *testing.T) {
	tri := Triangle{
		A: Point{0, 0, 0},
		B: Point{10, 0, 0},
		C: Point{5, 5, 5},
	}
	rev := Triangle{A: tri.C, B: tri.B, C: tri.A}

	for _, tr := range []Triangle{tri, rev} {
		assert.True(t, tr.ContainsXY(5, 1))
		assert.True(t, tr.ContainsXY(0, 0))
		assert.True(t, tr.ContainsXY(5, -Epsilon/2), "within tolerance of an edge")
		assert.False(t, tr.ContainsXY(5, -0.1))
		assert.False(t, tr.ContainsXY(1, 4))
		assert.False(t, tr.ContainsXY(20, 0))
	}
}
