package geom

import "gonum.org/v1/gonum/spatial/r2"

// ClipHalfPlane clips p to the half-plane to the left of the directed line
// from a to b, using one Sutherland–Hodgman pass. p must be convex for the
// result to be a single polygon.
func ClipHalfPlane(p Polygon, a, b r2.Vec) Polygon {
	if len(p) == 0 {
		return nil
	}
	dir := r2.Sub(b, a)
	side := func(v r2.Vec) float64 { return cross(dir, r2.Sub(v, a)) }

	var out Polygon
	prev := p[len(p)-1]
	prevSide := side(prev)
	for _, cur := range p {
		curSide := side(cur)
		switch {
		case curSide >= 0 && prevSide >= 0:
			out = append(out, cur)
		case curSide >= 0 && prevSide < 0:
			out = append(out, lerp(prev, cur, prevSide/(prevSide-curSide)), cur)
		case curSide < 0 && prevSide >= 0:
			if prevSide > 0 {
				out = append(out, lerp(prev, cur, prevSide/(prevSide-curSide)))
			}
		}
		prev, prevSide = cur, curSide
	}
	return out.Clean()
}

func lerp(a, b r2.Vec, t float64) r2.Vec {
	return r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
}

// Intersect returns the intersection of the convex polygons p and clip.
func Intersect(p, clip Polygon) Polygon {
	if !clip.IsCCW() {
		clip = clip.Reverse()
	}
	out := p
	for i := range clip {
		a, b := clip.Edge(i)
		out = ClipHalfPlane(out, a, b)
		if len(out) < 3 {
			return nil
		}
	}
	return out
}

// Subtract returns the convex pieces of p that lie outside the convex
// polygon clip. The pieces do not overlap. If clip does not overlap p the
// result is p itself.
func Subtract(p, clip Polygon) []Polygon {
	if !clip.IsCCW() {
		clip = clip.Reverse()
	}
	var pieces []Polygon
	rest := p
	for i := range clip {
		a, b := clip.Edge(i)
		if outside := ClipHalfPlane(rest, b, a); len(outside) >= 3 && outside.Area() > Eps {
			pieces = append(pieces, outside)
		}
		rest = ClipHalfPlane(rest, a, b)
		if len(rest) < 3 || rest.Area() <= Eps {
			return pieces
		}
	}
	// rest is the part of p inside clip.
	return pieces
}

// SubtractAll removes every shape in clips from the pieces of subject.
// The clips must be convex; use Triangulate to split concave ones first.
func SubtractAll(subject []Polygon, clips []Polygon) []Polygon {
	for _, clip := range clips {
		if len(subject) == 0 {
			return nil
		}
		cmin, cmax := clip.Bounds()
		var next []Polygon
		for _, piece := range subject {
			pmin, pmax := piece.Bounds()
			if pmax.X <= cmin.X || cmax.X <= pmin.X || pmax.Y <= cmin.Y || cmax.Y <= pmin.Y {
				next = append(next, piece)
				continue
			}
			next = append(next, Subtract(piece, clip)...)
		}
		subject = next
	}
	return subject
}

// TotalArea returns the summed area of ps.
func TotalArea(ps []Polygon) float64 {
	var a float64
	for _, p := range ps {
		a += p.Area()
	}
	return a
}
