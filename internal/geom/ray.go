package geom

import "gonum.org/v1/gonum/spatial/r3"

// A Mesh is a set of triangles sharing a vertex list.
type Mesh struct {
	Verts []r3.Vec
	Tris  [][3]int
}

// AddPolygon triangulates the planar polygon ps and appends it to m.
func (m *Mesh) AddPolygon(ps []r3.Vec) error {
	f, err := PlaneFrame(ps)
	if err != nil {
		return err
	}
	tris, err := Triangulate(f.ToLocal(ps))
	if err != nil {
		return err
	}
	for _, tri := range tris {
		// Convex pieces come back as fans.
		base := len(m.Verts)
		for _, v := range tri {
			m.Verts = append(m.Verts, f.Point(v.X, v.Y, 0))
		}
		for k := 1; k+1 < len(tri); k++ {
			m.Tris = append(m.Tris, [3]int{base, base + k, base + k + 1})
		}
	}
	return nil
}

type Ray struct {
	Origin r3.Vec
	Dir    r3.Vec // Must be normalized
}

// IntersectMesh returns the distance to the nearest triangle of m hit by
// r.
func (r *Ray) IntersectMesh(m *Mesh) (t float64, ok bool) {
	var tri r3.Triangle
	var minT float64
	haveMin := false
	for _, idxs := range m.Tris {
		for i, idx := range idxs {
			tri[i] = m.Verts[idx]
		}
		t, ok := r.IntersectTriangle(&tri)
		if !ok {
			continue
		}
		if !haveMin || t < minT {
			minT, haveMin = t, true
		}
	}
	return minT, haveMin
}

// IntersectTriangle uses the Möller–Trumbore algorithm. Both faces of the
// triangle are hit.
func (r *Ray) IntersectTriangle(tri *r3.Triangle) (t float64, ok bool) {
	const epsilon = 0.0000001
	edge1 := r3.Sub(tri[1], tri[0])
	edge2 := r3.Sub(tri[2], tri[0])
	h := r3.Cross(r.Dir, edge2)
	det := r3.Dot(edge1, h)
	// Close to 0 means the ray is parallel to the plane of the triangle.
	if det > -epsilon && det < epsilon {
		return 0, false
	}
	invDet := 1 / det
	s := r3.Sub(r.Origin, tri[0])
	u := invDet * r3.Dot(s, h)
	if u < 0 || u > 1 {
		return 0, false
	}
	q := r3.Cross(s, edge1)
	v := invDet * r3.Dot(r.Dir, q)
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t = invDet * r3.Dot(edge2, q)
	if t < epsilon {
		// A line intersection behind the origin.
		return 0, false
	}
	return t, true
}

func (r *Ray) Along(t float64) r3.Vec {
	return r3.Add(r.Origin, r3.Scale(t, r.Dir))
}
