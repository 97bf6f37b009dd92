package solar

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aclements/envelope/internal/geom"
)

// Grid spacing of the ray origins on a window, and the bounds on the
// number of origins per dimension.
const (
	raySpacing = 0.2 // m
	minRays    = 5
	maxRays    = 10
)

// A rayTracer computes the sunlit fraction of a window by casting rays
// towards the sun from the centers of a grid of cells on the window.
type rayTracer struct {
	origins []r3.Vec
	mesh    geom.Mesh

	// err is set if a shader in front of the window could not be
	// meshed. Every sample is then skipped, as with clipping.
	err error
}

func newRayTracer(t *target) *rayTracer {
	rt := new(rayTracer)
	lo, hi := t.Rect.Bounds()
	w, h := hi.X-lo.X, hi.Y-lo.Y
	nx, ny := raysAlong(w), raysAlong(h)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			u := lo.X + (float64(i)+0.5)*w/float64(nx)
			v := lo.Y + (float64(j)+0.5)*h/float64(ny)
			rt.origins = append(rt.origins, t.Frame.Point(u, v, -t.Setback))
		}
	}
	win := t.Window()
	for _, sh := range t.Shaders {
		err := rt.mesh.AddPolygon(sh.Points)
		switch {
		case err == nil, errors.Is(err, geom.ErrCollinear):
			// A degenerate shader cannot block anything.
		case rt.err == nil && clipFront(sh.Points, win[0], t.Frame.N) != nil:
			rt.err = fmt.Errorf("shader %s: %w", shaderName(sh), err)
		}
	}
	return rt
}

func raysAlong(length float64) int {
	n := int(math.Round(length / raySpacing))
	return max(minRays, min(maxRays, n))
}

func (rt *rayTracer) sunlit(toSun r3.Vec) (float64, error) {
	if rt.err != nil {
		return 0, rt.err
	}
	if len(rt.origins) == 0 {
		return 1, nil
	}
	lit := 0
	for _, o := range rt.origins {
		ray := geom.Ray{Origin: o, Dir: toSun}
		if _, hit := ray.IntersectMesh(&rt.mesh); !hit {
			lit++
		}
	}
	return float64(lit) / float64(len(rt.origins)), nil
}
