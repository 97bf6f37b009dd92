package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"
)

var lshape = Polygon{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 3}, {X: 0, Y: 3}}

func TestSignedArea(t *testing.T) {
	assert.InDelta(t, 6.0, lshape.SignedArea(), 1e-12)
	assert.True(t, lshape.IsCCW())

	for k := range lshape {
		assert.InDelta(t, lshape.SignedArea(), lshape.Rotate(k).SignedArea(), 1e-12, "rotation %d", k)
	}
	assert.InDelta(t, -lshape.SignedArea(), lshape.Reverse().SignedArea(), 1e-12)

	mirrored := make(Polygon, len(lshape))
	for i, v := range lshape {
		mirrored[i] = r2.Vec{X: -v.X, Y: v.Y}
	}
	assert.InDelta(t, -lshape.SignedArea(), mirrored.SignedArea(), 1e-12)
}

func TestPerimeterAndEdges(t *testing.T) {
	assert.InDelta(t, 14.0, lshape.Perimeter(), 1e-12)
	assert.InDelta(t, 4.0, lshape.EdgeLength(0), 1e-12)
	assert.InDelta(t, 3.0, lshape.EdgeLength(5), 1e-12)
	a, b := lshape.Edge(5)
	assert.Equal(t, r2.Vec{X: 0, Y: 3}, a)
	assert.Equal(t, r2.Vec{X: 0, Y: 0}, b)
}

func TestContains(t *testing.T) {
	assert.True(t, lshape.Contains(r2.Vec{X: 0.5, Y: 2}))
	assert.True(t, lshape.Contains(r2.Vec{X: 4, Y: 0.5}), "boundary")
	assert.False(t, lshape.Contains(r2.Vec{X: 2, Y: 2}))
	assert.False(t, lshape.Contains(r2.Vec{X: -1, Y: 0}))
}

func TestConvexAndSimple(t *testing.T) {
	square := Polygon{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	assert.True(t, square.IsConvex())
	assert.True(t, square.Reverse().IsConvex())
	assert.False(t, lshape.IsConvex())
	assert.True(t, lshape.IsSimple())

	bowtie := Polygon{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	assert.False(t, bowtie.IsSimple())

	// Every turn of a pentagram has the same sign, but it winds twice.
	star := pentagram()
	assert.False(t, star.IsSimple())
	assert.False(t, star.IsConvex())
	assert.False(t, star.Reverse().IsConvex())
}

func pentagram() Polygon {
	var p Polygon
	for k := 0; k < 5; k++ {
		a := math.Pi/2 + float64(k)*4*math.Pi/5
		p = append(p, r2.Vec{X: math.Cos(a), Y: math.Sin(a)})
	}
	return p
}

func TestTransform(t *testing.T) {
	p := Polygon{{X: 0, Y: 1}}
	got := p.Transform(90, r2.Vec{X: 10, Y: 20})
	assert.InDelta(t, 11, got[0].X, 1e-12)
	assert.InDelta(t, 20, got[0].Y, 1e-12)
}

func TestClean(t *testing.T) {
	p := Polygon{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}, {X: 0, Y: 0}}
	assert.InDelta(t, 4.0, p.Clean().Area(), 1e-12)
	assert.Len(t, p.Clean(), 4)
}
