// Package geom provides the planar and spatial geometry used to derive
// envelope quantities: polygon measures, clipping, triangulation and 3D
// surface frames.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Eps is the tolerance for geometric comparisons, in meters (or square
// meters for areas).
const Eps = 1e-9

// A Polygon is a closed sequence of 2D vertices. The last vertex connects
// back to the first. The vertex order is the winding order.
type Polygon []r2.Vec

// SignedArea returns the shoelace area of p. It is positive for
// counter-clockwise polygons and negative for clockwise ones.
func (p Polygon) SignedArea() float64 {
	var a float64
	for i := range p {
		j := (i + 1) % len(p)
		a += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return a / 2
}

// Area returns the absolute area of p.
func (p Polygon) Area() float64 { return math.Abs(p.SignedArea()) }

// IsCCW reports whether p winds counter-clockwise.
func (p Polygon) IsCCW() bool { return p.SignedArea() > 0 }

// Edge returns the endpoints of the i'th edge, from vertex i to vertex
// i+1.
func (p Polygon) Edge(i int) (a, b r2.Vec) {
	return p[i%len(p)], p[(i+1)%len(p)]
}

// EdgeLength returns the length of the i'th edge.
func (p Polygon) EdgeLength(i int) float64 {
	a, b := p.Edge(i)
	return r2.Norm(r2.Sub(b, a))
}

// Perimeter returns the sum of the edge lengths.
func (p Polygon) Perimeter() float64 {
	var l float64
	for i := range p {
		l += p.EdgeLength(i)
	}
	return l
}

// Reverse returns p with the opposite winding.
func (p Polygon) Reverse() Polygon {
	out := make(Polygon, len(p))
	for i, v := range p {
		out[len(p)-1-i] = v
	}
	return out
}

// Rotate returns p starting at vertex k. The polygon is unchanged; only
// the first vertex moves.
func (p Polygon) Rotate(k int) Polygon {
	if len(p) == 0 {
		return nil
	}
	k = ((k % len(p)) + len(p)) % len(p)
	out := make(Polygon, 0, len(p))
	out = append(out, p[k:]...)
	return append(out, p[:k]...)
}

// Transform returns p rotated clockwise by azimuth degrees about the
// origin and then translated by d. This is the placement of a space in
// building coordinates, where angles are compass angles.
func (p Polygon) Transform(azimuth float64, d r2.Vec) Polygon {
	s, c := math.Sincos(azimuth * math.Pi / 180)
	out := make(Polygon, len(p))
	for i, v := range p {
		out[i] = r2.Vec{X: c*v.X + s*v.Y + d.X, Y: -s*v.X + c*v.Y + d.Y}
	}
	return out
}

// Bounds returns the axis-aligned bounding box of p.
func (p Polygon) Bounds() (min, max r2.Vec) {
	if len(p) == 0 {
		return
	}
	min, max = p[0], p[0]
	for _, v := range p[1:] {
		min.X, min.Y = math.Min(min.X, v.X), math.Min(min.Y, v.Y)
		max.X, max.Y = math.Max(max.X, v.X), math.Max(max.Y, v.Y)
	}
	return
}

// Contains reports whether pt is inside p or on its boundary.
func (p Polygon) Contains(pt r2.Vec) bool {
	for i := range p {
		a, b := p.Edge(i)
		if onSegment(pt, a, b) {
			return true
		}
	}
	inside := false
	for i := range p {
		a, b := p.Edge(i)
		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			x := a.X + (pt.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if pt.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// ContainsPolygon reports whether every vertex of q lies inside p or on
// its boundary. For a convex q inside a simple p this is exact up to
// boundary touching.
func (p Polygon) ContainsPolygon(q Polygon) bool {
	for _, v := range q {
		if !p.Contains(v) {
			return false
		}
	}
	return true
}

// IsConvex reports whether p is convex. Collinear vertices are allowed.
// The turns must all have the same sign and add up to one full turn, which
// rules out star polygons.
func (p Polygon) IsConvex() bool {
	if len(p) < 3 {
		return false
	}
	sign := 0
	var turning float64
	for i := range p {
		a, b := p.Edge(i)
		_, c := p.Edge(i + 1)
		u, v := r2.Sub(b, a), r2.Sub(c, b)
		z := cross(u, v)
		turning += math.Atan2(z, r2.Dot(u, v))
		switch {
		case z > Eps:
			if sign < 0 {
				return false
			}
			sign = 1
		case z < -Eps:
			if sign > 0 {
				return false
			}
			sign = -1
		}
	}
	return sign != 0 && math.Abs(math.Abs(turning)-2*math.Pi) < 1e-6
}

// IsSimple reports whether no two non-adjacent edges of p intersect.
func (p Polygon) IsSimple() bool {
	n := len(p)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		a1, a2 := p.Edge(i)
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			b1, b2 := p.Edge(j)
			if segmentsIntersect(a1, a2, b1, b2) {
				return false
			}
		}
	}
	return true
}

// Clean removes consecutive duplicate vertices and collinear vertices.
func (p Polygon) Clean() Polygon {
	var out Polygon
	for _, v := range p {
		if len(out) > 0 && near(out[len(out)-1], v) {
			continue
		}
		out = append(out, v)
	}
	if len(out) > 1 && near(out[0], out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	for changed := true; changed && len(out) >= 3; {
		changed = false
		for i := range out {
			prev := out[(i+len(out)-1)%len(out)]
			next := out[(i+1)%len(out)]
			if math.Abs(cross(r2.Sub(out[i], prev), r2.Sub(next, out[i]))) < Eps {
				out = append(out[:i:i], out[i+1:]...)
				changed = true
				break
			}
		}
	}
	return out
}

func cross(a, b r2.Vec) float64 { return a.X*b.Y - a.Y*b.X }

func near(a, b r2.Vec) bool {
	return math.Abs(a.X-b.X) < Eps && math.Abs(a.Y-b.Y) < Eps
}

func onSegment(pt, a, b r2.Vec) bool {
	ab, ap := r2.Sub(b, a), r2.Sub(pt, a)
	if math.Abs(cross(ab, ap)) > Eps*math.Max(1, r2.Norm(ab)) {
		return false
	}
	d := r2.Dot(ap, ab)
	return d >= -Eps && d <= r2.Dot(ab, ab)+Eps
}

func orient(a, b, c r2.Vec) int {
	z := cross(r2.Sub(b, a), r2.Sub(c, a))
	switch {
	case z > Eps:
		return 1
	case z < -Eps:
		return -1
	}
	return 0
}

func segmentsIntersect(a1, a2, b1, b2 r2.Vec) bool {
	o1, o2 := orient(a1, a2, b1), orient(a1, a2, b2)
	o3, o4 := orient(b1, b2, a1), orient(b1, b2, a2)
	if o1 != o2 && o3 != o4 && o1 != 0 && o2 != 0 && o3 != 0 && o4 != 0 {
		return true
	}
	return (o1 == 0 && onSegment(b1, a1, a2)) ||
		(o2 == 0 && onSegment(b2, a1, a2)) ||
		(o3 == 0 && onSegment(a1, b1, b2)) ||
		(o4 == 0 && onSegment(a2, b1, b2))
}
