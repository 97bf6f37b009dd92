package solar

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aclements/envelope/internal/bdl"
	"github.com/aclements/envelope/internal/geom"
	"github.com/aclements/envelope/internal/model"
)

// A shader is a planar polygon that blocks direct sunlight.
type shader struct {
	Owner  string // wall or shade name, empty for window accessories
	Points []r3.Vec
}

// A Scene holds the shading polygons shared by every window of a
// building: building shades and the exterior and adiabatic walls.
type Scene struct {
	shaders []shader
}

// NewScene collects the shaders of a building. Shades with a
// transmittance of 1 or more are transparent and left out.
func NewScene(x *model.Index, g *model.Geometry) *Scene {
	s := new(Scene)
	recs := x.Records()
	for _, w := range recs.Walls {
		if w.Bounds != bdl.Exterior && w.Bounds != bdl.Adiabatic {
			continue
		}
		wg := g.Walls[w.Name]
		if wg == nil || len(wg.Polygon) < 3 {
			continue
		}
		s.shaders = append(s.shaders, shader{w.Name, wg.Points()})
	}
	for _, sh := range recs.Shades {
		if sh.Transmittance >= 1 {
			continue
		}
		sg := g.Shades[sh.Name]
		if sg == nil {
			continue
		}
		s.shaders = append(s.shaders, shader{sh.Name, sg.Points})
	}
	return s
}

// Len returns the number of shaders in s.
func (s *Scene) Len() int { return len(s.shaders) }

// A target is a window whose obstruction is computed, placed in building
// coordinates.
type target struct {
	Name string

	// Frame is the frame of the window's wall. The window lies in the
	// plane Setback behind the wall surface.
	Frame   geom.Frame
	Rect    geom.Polygon
	Setback float64

	Shaders []shader
}

// newTarget places window o on its wall and collects its shaders: the scene
// without w itself, plus the window's reveals, overhang and fins.
func (s *Scene) newTarget(o *bdl.Opening, wg *model.WallGeometry, og *model.OpeningGeometry) *target {
	t := &target{
		Name:    o.Name,
		Frame:   wg.Frame,
		Rect:    og.Rect,
		Setback: o.Setback,
	}
	for _, sh := range s.shaders {
		if sh.Owner != o.Wall {
			t.Shaders = append(t.Shaders, sh)
		}
	}
	t.Shaders = append(t.Shaders, accessories(wg.Frame, og.Rect, o)...)
	return t
}

// Window returns the window polygon in building coordinates.
func (t *target) Window() []r3.Vec {
	out := make([]r3.Vec, len(t.Rect))
	for i, p := range t.Rect {
		out[i] = t.Frame.Point(p.X, p.Y, -t.Setback)
	}
	return out
}

// accessories returns the shading polygons attached to opening o: the
// reveals of its setback, its overhang and its fins. rect is the opening
// in the coordinates of frame f.
func accessories(f geom.Frame, rect geom.Polygon, o *bdl.Opening) []shader {
	lo, hi := rect.Bounds()
	quad := func(pts ...[3]float64) shader {
		sh := shader{Points: make([]r3.Vec, len(pts))}
		for i, p := range pts {
			sh.Points[i] = f.Point(p[0], p[1], p[2])
		}
		return sh
	}

	var out []shader
	if s := o.Setback; s > geom.Eps {
		out = append(out,
			// Head.
			quad([3]float64{lo.X, hi.Y, -s}, [3]float64{hi.X, hi.Y, -s}, [3]float64{hi.X, hi.Y, 0}, [3]float64{lo.X, hi.Y, 0}),
			// Sill.
			quad([3]float64{lo.X, lo.Y, -s}, [3]float64{lo.X, lo.Y, 0}, [3]float64{hi.X, lo.Y, 0}, [3]float64{hi.X, lo.Y, -s}),
			// Jambs.
			quad([3]float64{lo.X, lo.Y, -s}, [3]float64{lo.X, hi.Y, -s}, [3]float64{lo.X, hi.Y, 0}, [3]float64{lo.X, lo.Y, 0}),
			quad([3]float64{hi.X, lo.Y, -s}, [3]float64{hi.X, lo.Y, 0}, [3]float64{hi.X, hi.Y, 0}, [3]float64{hi.X, hi.Y, -s}),
		)
	}

	if oh := o.Overhang; oh != nil && oh.Width > geom.Eps && oh.Depth > geom.Eps {
		// ANGLE 0 is horizontal; positive angles tilt the overhang down.
		sa, ca := math.Sincos(oh.Angle * deg2rad)
		u0 := lo.X - oh.A
		u1 := u0 + oh.Width
		v0 := hi.Y + oh.B
		dv, dn := -sa*oh.Depth, ca*oh.Depth
		out = append(out, quad(
			[3]float64{u0, v0, 0}, [3]float64{u1, v0, 0},
			[3]float64{u1, v0 + dv, dn}, [3]float64{u0, v0 + dv, dn}))
	}

	fin := func(fn *bdl.Fin, u float64) {
		if fn == nil || fn.Height <= geom.Eps || fn.Depth <= geom.Eps {
			return
		}
		top := hi.Y - fn.B
		bottom := top - fn.Height
		out = append(out, quad(
			[3]float64{u, bottom, 0}, [3]float64{u, top, 0},
			[3]float64{u, top, fn.Depth}, [3]float64{u, bottom, fn.Depth}))
	}
	fin(o.LeftFin, lo.X-aOf(o.LeftFin))
	fin(o.RightFin, hi.X+aOf(o.RightFin))
	return out
}

func aOf(fn *bdl.Fin) float64 {
	if fn == nil {
		return 0
	}
	return fn.A
}

// frontEps is the distance in front of a window plane below which a
// shader point is considered to lie on the plane.
const frontEps = 1e-6

// clipFront returns the part of the planar polygon ps that lies strictly
// in front of the plane through o with normal n. Only that part can shade
// a window in the plane.
func clipFront(ps []r3.Vec, o, n r3.Vec) []r3.Vec {
	if len(ps) == 0 {
		return nil
	}
	dist := func(p r3.Vec) float64 { return r3.Dot(r3.Sub(p, o), n) - frontEps }

	var out []r3.Vec
	prev := ps[len(ps)-1]
	prevD := dist(prev)
	for _, cur := range ps {
		curD := dist(cur)
		switch {
		case curD > 0 && prevD > 0:
			out = append(out, cur)
		case curD > 0:
			out = append(out, lerp3(prev, cur, prevD/(prevD-curD)), cur)
		case prevD > 0:
			out = append(out, lerp3(prev, cur, prevD/(prevD-curD)))
		}
		prev, prevD = cur, curD
	}
	if len(out) < 3 {
		return nil
	}
	return out
}

func lerp3(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}
