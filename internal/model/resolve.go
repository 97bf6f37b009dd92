package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aclements/envelope/internal/bdl"
	"github.com/aclements/envelope/internal/geom"
	"github.com/aclements/envelope/internal/report"
)

// InsufficientGeometryError reports an element whose size cannot be
// derived from the data given for it.
type InsufficientGeometryError struct {
	Kind bdl.Kind
	Name string
	Msg  string
}

func (e *InsufficientGeometryError) Error() string {
	return fmt.Sprintf("%s %q: insufficient geometry: %s", e.Kind, e.Name, e.Msg)
}

// SpaceGeometry is the derived geometry of a space.
type SpaceGeometry struct {
	// Footprint is the space polygon in building coordinates, or nil if
	// the space declares its area directly.
	Footprint geom.Polygon
	Z         float64 // elevation of the space floor

	Area             float64
	GrossHeight      float64 // floor to floor
	NetHeight        float64
	Volume           float64 // Area × NetHeight
	GrossVolume      float64
	ExposedPerimeter float64
}

// WallGeometry is the derived geometry of an opaque element.
type WallGeometry struct {
	// Frame places the wall in building coordinates. Polygon is in the
	// frame's plane, or nil if the wall only declares its area.
	Frame   geom.Frame
	Polygon geom.Polygon

	Azimuth, Tilt float64
	Position      Position

	GrossArea float64
	NetArea   float64 // minus openings inside the wall
	U         float64
}

// Points returns the wall polygon in building coordinates.
func (g *WallGeometry) Points() []r3.Vec { return g.Frame.ToGlobal(g.Polygon) }

// OpeningGeometry is the derived geometry of a window or door.
type OpeningGeometry struct {
	// Rect is the opening rectangle in the coordinates of its wall.
	Rect   geom.Polygon
	Area   float64
	Inside bool // Rect lies within the wall polygon
	U      float64
}

// ShadeGeometry is a building shade polygon in building coordinates.
type ShadeGeometry struct {
	Points []r3.Vec
	Area   float64
}

// Geometry holds the derived geometry of a building, keyed by record
// name.
type Geometry struct {
	Spaces   map[string]*SpaceGeometry
	Walls    map[string]*WallGeometry
	Openings map[string]*OpeningGeometry
	Shades   map[string]*ShadeGeometry

	// GapU is the transmittance of each window construction.
	GapU map[string]float64
}

// A Resolver derives geometry and transmittances. It memoizes by content
// hash, so a Resolver kept across runs recomputes only what changed.
type Resolver struct {
	// SkipUnresolved turns insufficient geometry into a warning. The
	// underivable quantity is taken as zero.
	SkipUnresolved bool

	log     *zap.Logger
	shapes  *Memo[wallShape]
	uvalues *Memo[float64]
}

func NewResolver(log *zap.Logger) *Resolver {
	return &Resolver{
		log:     log,
		shapes:  NewMemo[wallShape](),
		uvalues: NewMemo[float64](),
	}
}

// resolution is the state of a single Resolve call.
type resolution struct {
	*Resolver
	x   *Index
	w   *report.Collector
	geo *Geometry
}

// insufficient reports an underivable quantity. In skip mode it records a
// warning and returns nil so the caller continues with zero.
func (r *resolution) insufficient(kind bdl.Kind, name, format string, args ...any) error {
	err := &InsufficientGeometryError{kind, name, fmt.Sprintf(format, args...)}
	if !r.SkipUnresolved {
		return err
	}
	r.w.Addf(report.InsufficientGeometry, name, "%s; using 0", err.Msg)
	return nil
}

// Resolve derives the geometry of every space, wall, opening and shade
// in x.
func (r *Resolver) Resolve(x *Index, w *report.Collector) (*Geometry, error) {
	res := &resolution{
		Resolver: r,
		x:        x,
		w:        w,
		geo: &Geometry{
			Spaces:   make(map[string]*SpaceGeometry),
			Walls:    make(map[string]*WallGeometry),
			Openings: make(map[string]*OpeningGeometry),
			Shades:   make(map[string]*ShadeGeometry),
			GapU:     make(map[string]float64),
		},
	}
	recs := x.Records()
	for _, s := range recs.Spaces {
		if err := res.space(s); err != nil {
			return nil, err
		}
	}
	for _, wall := range recs.Walls {
		if err := res.wall(wall); err != nil {
			return nil, err
		}
	}
	// Net heights need every wall's position.
	for _, s := range recs.Spaces {
		if err := res.heights(s); err != nil {
			return nil, err
		}
	}
	for _, s := range recs.Shades {
		res.shade(s)
	}
	for _, g := range recs.Gaps {
		u, err := r.windowU(x, g.Name)
		if err != nil {
			return nil, err
		}
		res.geo.GapU[g.Name] = u
	}

	sh, sm := r.shapes.Stats()
	uh, um := r.uvalues.Stats()
	r.log.Debug("resolved geometry",
		zap.Int("spaces", len(res.geo.Spaces)),
		zap.Int("walls", len(res.geo.Walls)),
		zap.Int("shape_hits", sh), zap.Int("shape_misses", sm),
		zap.Int("u_hits", uh), zap.Int("u_misses", um))
	return res.geo, nil
}

// placement returns the building-coordinate footprint of s. It is nil for
// spaces without a polygon.
func (r *resolution) placement(s *bdl.Space) geom.Polygon {
	if s.Polygon == "" {
		return nil
	}
	local := geom.Polygon(r.x.Polygon(s.Polygon).Vertices)
	return local.Transform(s.Azimuth, r2.Vec{X: s.X, Y: s.Y})
}

func (r *resolution) space(s *bdl.Space) error {
	fp := r.placement(s)
	g := &SpaceGeometry{Footprint: fp, Z: s.Z}
	r.geo.Spaces[s.Name] = g
	if floor := r.x.Floor(s.Floor); floor != nil {
		g.Z += floor.Z
		g.GrossHeight = floor.Height
	} else if err := r.insufficient(bdl.KindSpace, s.Name, "floor %q not found to place the space", s.Floor); err != nil {
		return err
	}

	switch {
	case fp != nil:
		g.Area = round(fp.Area(), 3)
		if !fp.IsCCW() {
			r.w.Addf(report.ClockwisePolygon, s.Name, "space polygon %q winds clockwise", s.Polygon)
		}
	case s.Area != nil:
		g.Area = round(*s.Area, 3)
	default:
		return r.insufficient(bdl.KindSpace, s.Name, "no polygon and no declared AREA")
	}

	if v, ok := s.Overrides.Lookup(bdl.OverrideExposedPerimeter); ok {
		g.ExposedPerimeter = v
		r.w.Addf(report.OverrideApplied, s.Name, "exposed perimeter %g from override", v)
	} else if fp != nil {
		g.ExposedPerimeter = round(r.exposedPerimeter(s, fp), 3)
	} else {
		return r.insufficient(bdl.KindSpace, s.Name, "no polygon and no exposed-perimeter override")
	}
	return nil
}

// exposedPerimeter sums the lengths of the polygon edges that carry an
// exterior or ground wall of s. Each edge counts once.
func (r *resolution) exposedPerimeter(s *bdl.Space, fp geom.Polygon) float64 {
	seen := make(map[int]bool)
	var total float64
	for _, w := range r.x.WallsOf(s.Name) {
		if !w.OnEdge() || (w.Bounds != bdl.Exterior && w.Bounds != bdl.Ground) {
			continue
		}
		n, err := strconv.Atoi(w.Location[1:])
		if err != nil || n < 1 || n > len(fp) || seen[n] {
			continue
		}
		seen[n] = true
		total += fp.EdgeLength(n - 1)
	}
	return total
}

// heights derives the net height and volumes of s. The net height is the
// floor-to-floor height less the slab above the space: its own top
// element, or the bottom element of the space above.
func (r *resolution) heights(s *bdl.Space) error {
	g := r.geo.Spaces[s.Name]
	var slab *bdl.Wall
	for _, w := range r.x.Records().Walls {
		pos := PositionOf(w.Tilt)
		if (pos == Top && w.Space == s.Name) || (pos == Bottom && w.NextTo == s.Name) {
			slab = w
			break
		}
	}

	var thickness float64
	switch {
	case slab == nil:
		if err := r.insufficient(bdl.KindSpace, s.Name, "no upper slab to derive the net height"); err != nil {
			return err
		}
	default:
		cons := r.x.Construction(slab.Construction)
		if l := r.x.Layers(cons.Layers); l != nil {
			thickness = l.TotalThickness()
		}
		if thickness <= 0 {
			err := r.insufficient(bdl.KindSpace, s.Name, "upper slab %q has construction %q without layer thicknesses", slab.Name, slab.Construction)
			if err != nil {
				return err
			}
		}
	}

	g.NetHeight = round(g.GrossHeight-thickness, 3)
	g.GrossVolume = round(g.Area*g.GrossHeight, 3)
	if s.Polygon == "" && s.Volume != nil {
		g.Volume = round(*s.Volume, 3)
	} else {
		g.Volume = round(g.Area*g.NetHeight, 3)
	}
	return nil
}

// wallShape is the memoized part of a wall's geometry.
type wallShape struct {
	Frame     geom.Frame
	Polygon   geom.Polygon
	GrossArea float64
}

// wallInputs is everything a wall's shape depends on.
type wallInputs struct {
	Location   string
	Vertices   []r2.Vec
	X, Y, Z    float64
	Azimuth    float64
	Tilt       float64
	Area       *float64
	SpaceAz    float64
	SpaceX     float64
	SpaceY     float64
	Z0, Height float64
	Footprint  []r2.Vec
}

func (r *resolution) wall(w *bdl.Wall) error {
	s := r.x.Space(w.Space)
	sg := r.geo.Spaces[w.Space]
	in := wallInputs{
		Location: w.Location,
		Vertices: w.Vertices,
		X:        w.X, Y: w.Y, Z: w.Z,
		Azimuth: w.Azimuth, Tilt: w.Tilt,
		Area:    w.Area,
		SpaceAz: s.Azimuth, SpaceX: s.X, SpaceY: s.Y,
		Z0: sg.Z, Height: sg.GrossHeight,
		Footprint: sg.Footprint,
	}
	if w.Polygon != "" {
		in.Vertices = r.x.Polygon(w.Polygon).Vertices
	}

	shape, err := r.shapes.Get(MakeKey(in), func() (wallShape, error) {
		shape, msg := buildWallShape(&in)
		if msg != "" {
			return shape, errors.New(msg)
		}
		return shape, nil
	})
	if err != nil {
		if err := r.insufficient(bdl.KindWall, w.Name, "%v", err); err != nil {
			return err
		}
		shape = wallShape{Frame: geom.OrientedFrame(r3.Vec{Z: sg.Z}, in.SpaceAz+in.Azimuth, in.Tilt)}
	}

	g := &WallGeometry{
		Frame:     shape.Frame,
		Polygon:   shape.Polygon,
		GrossArea: round(shape.GrossArea, 3),
	}
	g.Azimuth, g.Tilt = frameAngles(shape.Frame, in.SpaceAz+in.Azimuth)
	g.Position = PositionOf(g.Tilt)
	r.geo.Walls[w.Name] = g

	if v, ok := w.Overrides.Lookup(bdl.OverrideUValue); ok {
		g.U = v
		r.w.Addf(report.OverrideApplied, w.Name, "U %g from override", v)
	} else if g.U, err = r.opaqueU(r.x, w.Construction, g.Position, w.Bounds); err != nil {
		return fmt.Errorf("wall %q: %w", w.Name, err)
	}

	net := shape.GrossArea
	for _, o := range r.x.OpeningsOf(w.Name) {
		og, err := r.opening(o, w, g)
		if err != nil {
			return err
		}
		if og.Inside {
			net -= og.Area
		}
	}
	g.NetArea = round(math.Max(net, 0), 3)
	return nil
}

// buildWallShape places a wall. It returns a non-empty message if the
// wall's size cannot be derived.
func buildWallShape(in *wallInputs) (wallShape, string) {
	az := in.SpaceAz + in.Azimuth
	switch {
	case len(in.Vertices) > 0:
		o := geom.Polygon{{X: in.X, Y: in.Y}}.Transform(in.SpaceAz, r2.Vec{X: in.SpaceX, Y: in.SpaceY})[0]
		f := geom.OrientedFrame(r3.Vec{X: o.X, Y: o.Y, Z: in.Z0 + in.Z}, az, in.Tilt)
		p := geom.Polygon(in.Vertices)
		return wallShape{Frame: f, Polygon: p, GrossArea: p.Area()}, ""

	case (in.Location == "TOP" || in.Location == "BOTTOM") && in.Footprint != nil:
		fp := geom.Polygon(in.Footprint)
		var f geom.Frame
		if in.Location == "TOP" {
			f = geom.Identity
			f.Origin = r3.Vec{Z: in.Z0 + in.Height}
		} else {
			f = geom.Identity.Flip()
			f.Origin = r3.Vec{Z: in.Z0}
		}
		p := f.ToLocal(geom.Identity.ToGlobal(fp))
		return wallShape{Frame: f, Polygon: p, GrossArea: fp.Area()}, ""

	case len(in.Location) > 1 && in.Location[0] == 'V' && in.Footprint != nil:
		fp := geom.Polygon(in.Footprint)
		n, err := strconv.Atoi(in.Location[1:])
		if err != nil || n < 1 || n > len(fp) {
			return wallShape{}, fmt.Sprintf("space polygon has no vertex %s", in.Location)
		}
		a, b := fp[n-1], fp[n%len(fp)]
		if !fp.IsCCW() {
			a, b = b, a
		}
		f := geom.EdgeFrame(r3.Vec{X: a.X, Y: a.Y, Z: in.Z0}, r3.Vec{X: b.X, Y: b.Y, Z: in.Z0})
		l := r2.Norm(r2.Sub(b, a))
		p := geom.Polygon{{X: 0, Y: 0}, {X: l, Y: 0}, {X: l, Y: in.Height}, {X: 0, Y: in.Height}}
		return wallShape{Frame: f, Polygon: p, GrossArea: l * in.Height}, ""

	case in.Area != nil:
		o := geom.Polygon{{X: in.X, Y: in.Y}}.Transform(in.SpaceAz, r2.Vec{X: in.SpaceX, Y: in.SpaceY})[0]
		f := geom.OrientedFrame(r3.Vec{X: o.X, Y: o.Y, Z: in.Z0 + in.Z}, az, in.Tilt)
		return wallShape{Frame: f, GrossArea: *in.Area}, ""
	}
	if in.Location != "" {
		return wallShape{}, fmt.Sprintf("location %s needs a space polygon or a declared AREA", in.Location)
	}
	return wallShape{}, "no polygon, location or declared AREA"
}

// frameAngles returns the compass azimuth and the tilt of a frame's
// normal. Horizontal surfaces keep the declared azimuth.
func frameAngles(f geom.Frame, declared float64) (azimuth, tilt float64) {
	const rad2deg = 180 / math.Pi
	tilt = round(math.Acos(math.Max(-1, math.Min(1, f.N.Z)))*rad2deg, 3)
	if math.Hypot(f.N.X, f.N.Y) < 1e-9 {
		return normalizeAngle(declared), tilt
	}
	return normalizeAngle(round(math.Atan2(f.N.X, f.N.Y)*rad2deg, 3)), tilt
}

func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

func (r *resolution) opening(o *bdl.Opening, w *bdl.Wall, wg *WallGeometry) (*OpeningGeometry, error) {
	rect := geom.Polygon{
		{X: o.X, Y: o.Y},
		{X: o.X + o.Width, Y: o.Y},
		{X: o.X + o.Width, Y: o.Y + o.Height},
		{X: o.X, Y: o.Y + o.Height},
	}
	g := &OpeningGeometry{Rect: rect, Area: round(o.Area(), 3), Inside: true}
	if wg.Polygon != nil && !wg.Polygon.ContainsPolygon(rect) {
		g.Inside = false
		r.w.Addf(report.OpeningOutsideWall, o.Name, "opening lies outside wall %q; its area is not subtracted", w.Name)
	}
	r.geo.Openings[o.Name] = g

	var err error
	switch v, ok := o.Overrides.Lookup(bdl.OverrideUValue); {
	case ok:
		g.U = v
		r.w.Addf(report.OverrideApplied, o.Name, "U %g from override", v)
	case o.Door:
		g.U, err = r.opaqueU(r.x, o.Construction, wg.Position, w.Bounds)
	default:
		g.U, err = r.windowU(r.x, o.Construction)
	}
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", o.Kind(), o.Name, err)
	}
	return g, nil
}

func (r *resolution) shade(s *bdl.Shade) {
	var pts []r3.Vec
	if s.Rect != nil {
		rc := s.Rect
		f := geom.OrientedFrame(r3.Vec{X: rc.X, Y: rc.Y, Z: rc.Z}, rc.Azimuth, rc.Tilt)
		pts = f.ToGlobal(geom.Polygon{{X: 0, Y: 0}, {X: rc.Width, Y: 0}, {X: rc.Width, Y: rc.Height}, {X: 0, Y: rc.Height}})
	} else {
		for _, v := range s.Vertices {
			pts = append(pts, r3.Vec{X: v[0], Y: v[1], Z: v[2]})
		}
	}
	a, err := geom.Area3D(pts)
	if err != nil {
		r.w.Addf(report.DegenerateGeometry, s.Name, "shade %v; ignored", err)
		return
	}
	r.geo.Shades[s.Name] = &ShadeGeometry{Points: pts, Area: round(a, 3)}
}
