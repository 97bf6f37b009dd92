package geom

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrNotSimple is returned when a polygon cannot be triangulated because
// its edges cross.
var ErrNotSimple = errors.New("polygon is not simple")

// Triangulate splits the simple polygon p into counter-clockwise
// triangles by ear clipping. Convex polygons are returned unchanged (as
// a single counter-clockwise piece).
func Triangulate(p Polygon) ([]Polygon, error) {
	p = p.Clean()
	if len(p) < 3 {
		return nil, nil
	}
	if !p.IsCCW() {
		p = p.Reverse()
	}
	if !p.IsSimple() {
		return nil, ErrNotSimple
	}
	if p.IsConvex() {
		return []Polygon{p}, nil
	}

	idx := make([]int, len(p))
	for i := range idx {
		idx[i] = i
	}
	var tris []Polygon
	for len(idx) > 3 {
		found := false
		for i := range idx {
			prev := p[idx[(i+len(idx)-1)%len(idx)]]
			cur := p[idx[i]]
			next := p[idx[(i+1)%len(idx)]]
			if !isEar(p, idx, prev, cur, next) {
				continue
			}
			tris = append(tris, Polygon{prev, cur, next})
			idx = append(idx[:i], idx[i+1:]...)
			found = true
			break
		}
		if !found {
			return nil, ErrNotSimple
		}
	}
	tris = append(tris, Polygon{p[idx[0]], p[idx[1]], p[idx[2]]})
	return tris, nil
}

func isEar(p Polygon, idx []int, prev, cur, next r2.Vec) bool {
	if orient(prev, cur, next) <= 0 {
		return false
	}
	tri := Polygon{prev, cur, next}
	for _, j := range idx {
		v := p[j]
		if near(v, prev) || near(v, cur) || near(v, next) {
			continue
		}
		if tri.Contains(v) {
			return false
		}
	}
	return true
}
