package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestIntersectMesh(t *testing.T) {
	var m Mesh
	roof := OrientedFrame(r3.Vec{Z: 2}, 180, 0)
	require.NoError(t, m.AddPolygon(roof.ToGlobal(lshape)))
	assert.Len(t, m.Tris, len(lshape)-2)

	hit := Ray{Origin: r3.Vec{X: 0.5, Y: 2.5}, Dir: r3.Vec{Z: 1}}
	d, ok := hit.IntersectMesh(&m)
	require.True(t, ok)
	assert.InDelta(t, 2.0, d, 1e-9)
	assertVec(t, r3.Vec{X: 0.5, Y: 2.5, Z: 2}, hit.Along(d))

	// Inside the notch of the L.
	miss := Ray{Origin: r3.Vec{X: 2, Y: 2}, Dir: r3.Vec{Z: 1}}
	_, ok = miss.IntersectMesh(&m)
	assert.False(t, ok)

	// Surfaces behind the origin do not count.
	away := Ray{Origin: r3.Vec{X: 0.5, Y: 2.5}, Dir: r3.Vec{Z: -1}}
	_, ok = away.IntersectMesh(&m)
	assert.False(t, ok)
}

func TestIntersectNearest(t *testing.T) {
	var m Mesh
	for _, z := range []float64{5, 1, 3} {
		require.NoError(t, m.AddPolygon(OrientedFrame(r3.Vec{Z: z}, 180, 0).ToGlobal(rect(-1, -1, 1, 1))))
	}
	r := Ray{Dir: r3.Vec{Z: 1}}
	d, ok := r.IntersectMesh(&m)
	require.True(t, ok)
	assert.InDelta(t, 1.0, d, 1e-9)
}

func TestAddDegenerate(t *testing.T) {
	var m Mesh
	assert.ErrorIs(t, m.AddPolygon([]r3.Vec{{}, {X: 1}, {X: 3}}), ErrCollinear)
	assert.Empty(t, m.Tris)
}
