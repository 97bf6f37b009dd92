package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func rect(x0, y0, x1, y1 float64) Polygon {
	return Polygon{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

func TestClipHalfPlane(t *testing.T) {
	sq := rect(0, 0, 2, 2)
	// Keep x <= 1: the line runs upward at x = 1, left is -x.
	got := ClipHalfPlane(sq, r2.Vec{X: 1, Y: 0}, r2.Vec{X: 1, Y: 1})
	assert.InDelta(t, 2.0, got.Area(), 1e-12)

	assert.Empty(t, ClipHalfPlane(sq, r2.Vec{X: -1, Y: 1}, r2.Vec{X: -1, Y: 0}))
	assert.InDelta(t, 4.0, ClipHalfPlane(sq, r2.Vec{X: 5, Y: 0}, r2.Vec{X: 5, Y: 1}).Area(), 1e-12)
}

func TestSubtract(t *testing.T) {
	for _, tc := range []struct {
		name string
		clip Polygon
		want float64
	}{
		{"disjoint", rect(5, 5, 6, 6), 4},
		{"covering", rect(-1, -1, 3, 3), 0},
		{"half", rect(1, -1, 3, 3), 2},
		{"hole", rect(0.5, 0.5, 1.5, 1.5), 3},
		{"corner clockwise", rect(1, 1, 3, 3).Reverse(), 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			pieces := Subtract(rect(0, 0, 2, 2), tc.clip)
			assert.InDelta(t, tc.want, TotalArea(pieces), 1e-9)
			for _, p := range pieces {
				assert.True(t, p.IsConvex())
			}
		})
	}
}

func TestSubtractAll(t *testing.T) {
	pieces := SubtractAll([]Polygon{rect(0, 0, 4, 1)}, []Polygon{rect(0, 0, 1, 1), rect(3, 0, 4, 1), rect(0.5, 0, 3.5, 0.5)})
	assert.InDelta(t, 1.0, TotalArea(pieces), 1e-9)
}

func TestIntersect(t *testing.T) {
	got := Intersect(rect(0, 0, 2, 2), rect(1, 1, 3, 3))
	assert.InDelta(t, 1.0, got.Area(), 1e-12)
	assert.Nil(t, Intersect(rect(0, 0, 1, 1), rect(2, 2, 3, 3)))
}

func TestTriangulate(t *testing.T) {
	tris, err := Triangulate(lshape.Reverse())
	require.NoError(t, err)
	assert.Len(t, tris, len(lshape)-2)
	assert.InDelta(t, lshape.Area(), TotalArea(tris), 1e-12)
	for _, tri := range tris {
		assert.True(t, tri.IsCCW())
	}

	convex, err := Triangulate(rect(0, 0, 1, 1))
	require.NoError(t, err)
	assert.Len(t, convex, 1)

	_, err = Triangulate(Polygon{{X: 0, Y: 0}, {X: 2, Y: 2}, {X: 2, Y: 0}, {X: 0, Y: 2}, {X: -1, Y: 1}})
	assert.ErrorIs(t, err, ErrNotSimple)

	for name, p := range map[string]Polygon{
		"bowtie":    {{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 1}},
		"pentagram": pentagram(),
	} {
		tris, err := Triangulate(p)
		assert.ErrorIs(t, err, ErrNotSimple, name)
		assert.Nil(t, tris, name)
	}
}

func TestSubtractConcaveViaTriangles(t *testing.T) {
	tris, err := Triangulate(lshape)
	require.NoError(t, err)
	pieces := SubtractAll([]Polygon{rect(0, 0, 4, 3)}, tris)
	assert.InDelta(t, 12-lshape.Area(), TotalArea(pieces), 1e-9)
}
