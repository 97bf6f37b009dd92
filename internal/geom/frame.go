package geom

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// A Frame is the local coordinate system of a planar surface. U and V
// span the plane and N is the outward normal; all three are unit vectors
// and N = U × V.
//
// Building coordinates are:
//
//	Z/up
//	|  Y/north
//	| /
//	|/____ X/east
type Frame struct {
	Origin  r3.Vec
	U, V, N r3.Vec
}

// Identity is the frame of a horizontal surface facing up, at the origin.
var Identity = Frame{U: r3.Vec{X: 1}, V: r3.Vec{Y: 1}, N: r3.Vec{Z: 1}}

func sincos(deg float64) (float64, float64) { return math.Sincos(deg * math.Pi / 180) }

// OrientedFrame returns the frame of a surface at origin whose outward
// normal points to the compass azimuth (degrees clockwise from north) and
// has the given tilt (0 facing up, 90 vertical, 180 facing down).
//
// This is a horizontal frame tilted about its U axis and then turned to
// the azimuth. For a vertical wall U is horizontal, pointing to the right
// of an observer outside facing the wall, and V points up.
func OrientedFrame(origin r3.Vec, azimuth, tilt float64) Frame {
	sa, ca := sincos(azimuth)
	st, ct := sincos(tilt)
	n := r3.Vec{X: st * sa, Y: st * ca, Z: ct}
	u := r3.Vec{X: -ca, Y: sa}
	return Frame{Origin: origin, U: u, V: r3.Cross(n, u), N: n}
}

// EdgeFrame returns the frame of a vertical surface standing on the edge
// from a to b: U runs along the edge and V points up. N is the outward
// side for an edge of a counter-clockwise footprint.
func EdgeFrame(a, b r3.Vec) Frame {
	u := r3.Unit(r3.Sub(b, a))
	v := r3.Vec{Z: 1}
	return Frame{Origin: a, U: u, V: v, N: r3.Cross(u, v)}
}

// Flip returns f facing the other way, keeping U.
func (f Frame) Flip() Frame {
	return Frame{Origin: f.Origin, U: f.U, V: r3.Scale(-1, f.V), N: r3.Scale(-1, f.N)}
}

// Point maps local plane coordinates (u, v) and an offset w along the
// normal to building coordinates.
func (f Frame) Point(u, v, w float64) r3.Vec {
	p := r3.Add(f.Origin, r3.Scale(u, f.U))
	p = r3.Add(p, r3.Scale(v, f.V))
	return r3.Add(p, r3.Scale(w, f.N))
}

// ToGlobal maps a polygon in plane coordinates to building coordinates.
func (f Frame) ToGlobal(p Polygon) []r3.Vec {
	out := make([]r3.Vec, len(p))
	for i, v := range p {
		out[i] = f.Point(v.X, v.Y, 0)
	}
	return out
}

// ToLocal projects building points orthogonally onto the plane of f.
func (f Frame) ToLocal(ps []r3.Vec) Polygon {
	out := make(Polygon, len(ps))
	for i, p := range ps {
		d := r3.Sub(p, f.Origin)
		out[i] = r2.Vec{X: r3.Dot(d, f.U), Y: r3.Dot(d, f.V)}
	}
	return out
}

// ErrCollinear is returned for a 3D polygon whose vertices do not span a
// plane.
var ErrCollinear = errors.New("polygon vertices are collinear")

// PlaneFrame returns a frame for the plane of the 3D polygon ps, with its
// origin at the first vertex. The normal comes from the first three
// non-collinear vertices, so that the polygon winds counter-clockwise in
// the frame.
func PlaneFrame(ps []r3.Vec) (Frame, error) {
	if len(ps) < 3 {
		return Frame{}, ErrCollinear
	}
	o := ps[0]
	for i := 1; i < len(ps); i++ {
		e1 := r3.Sub(ps[i], o)
		if r3.Norm(e1) < Eps {
			continue
		}
		for j := i + 1; j < len(ps); j++ {
			n := r3.Cross(e1, r3.Sub(ps[j], o))
			if r3.Norm(n) < Eps {
				continue
			}
			n = r3.Unit(n)
			u := r3.Unit(e1)
			return Frame{Origin: o, U: u, V: r3.Cross(n, u), N: n}, nil
		}
	}
	return Frame{}, ErrCollinear
}

// Area3D returns the area of a planar 3D polygon.
func Area3D(ps []r3.Vec) (float64, error) {
	f, err := PlaneFrame(ps)
	if err != nil {
		return 0, err
	}
	return f.ToLocal(ps).Area(), nil
}

// A Projector maps building points onto a plane orthogonal to a
// direction, so that shapes that overlap along the direction overlap in
// the projection.
type Projector struct {
	dir  r3.Vec
	u, v r3.Vec
}

// NewProjector returns a projector along dir, which need not be unit.
func NewProjector(dir r3.Vec) Projector {
	d := r3.Unit(dir)
	// Any vector not parallel to d.
	ref := r3.Vec{Z: 1}
	if math.Abs(d.Z) > 0.9 {
		ref = r3.Vec{X: 1}
	}
	u := r3.Unit(r3.Cross(ref, d))
	v := r3.Cross(d, u)
	return Projector{dir: d, u: u, v: v}
}

// Dir returns the unit projection direction.
func (p Projector) Dir() r3.Vec { return p.dir }

// Project maps ps to 2D coordinates in the projection plane.
func (p Projector) Project(ps []r3.Vec) Polygon {
	out := make(Polygon, len(ps))
	for i, q := range ps {
		out[i] = r2.Vec{X: r3.Dot(q, p.u), Y: r3.Dot(q, p.v)}
	}
	return out
}

// Depth returns the coordinate of q along the projection direction.
func (p Projector) Depth(q r3.Vec) float64 { return r3.Dot(q, p.dir) }
