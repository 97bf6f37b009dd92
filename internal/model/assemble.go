package model

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aclements/envelope/internal/bdl"
	"github.com/aclements/envelope/internal/geom"
	"github.com/aclements/envelope/internal/report"
)

// SideAreas are the areas a results side table reports for the same
// building, by element and space name.
type SideAreas struct {
	Elements map[string]float64
	Spaces   map[string]float64
}

// areaTolerance is the relative difference between a derived area and a
// side table area that is reported as a mismatch.
const areaTolerance = 0.01

// Inputs are the products of the earlier pipeline stages.
type Inputs struct {
	Index    *Index
	Geometry *Geometry
	Meta     Meta

	// Obstruction holds the computed factors of each solar target
	// window, by window name.
	Obstruction map[string]Obstruction

	// Side, if not nil, is cross-checked against the derived areas.
	Side *SideAreas

	// Reports are the warnings of the earlier stages.
	Reports []*report.Collector
}

// calculatedLengths is the thermal bridge that only carries the tool's
// length bookkeeping.
const calculatedLengths = "LONGITUDES_CALCULADAS"

// Assemble builds the model from the linked records and their derived
// geometry.
func Assemble(in *Inputs) (*Model, error) {
	w := report.NewCollector(report.StageAssembly)
	x, geo := in.Index, in.Geometry
	recs := x.Records()
	m := &Model{
		Meta:                in.Meta,
		Spaces:              make(map[string]*Space),
		Walls:               make(map[string]*Wall),
		Windows:             make(map[string]*Window),
		Doors:               make(map[string]*Door),
		Constructions:       make(map[string]*Construction),
		WindowConstructions: make(map[string]*WindowConstruction),
		Materials:           make(map[string]*Material),
		Shades:              make(map[string]*Shade),
		ThermalBridges:      make(map[string]*ThermalBridge),
		Schedules: Schedules{
			Day:  make(map[string]*DaySchedule),
			Week: make(map[string]*WeekSchedule),
			Year: make(map[string]*YearSchedule),
		},
		Conditions: make(map[string]*Conditions),
	}

	for _, s := range recs.Spaces {
		g := geo.Spaces[s.Name]
		if g.Footprint != nil && len(g.Footprint) < 3 {
			return nil, &bdl.DegenerateGeometryError{Block: s.Polygon, Type: "POLYGON", Msg: "fewer than 3 vertices", Pos: s.Pos}
		}
		mult := s.Multiplier
		if f := x.Floor(s.Floor); f != nil {
			mult *= f.Multiplier
		}
		m.Spaces[ID(bdl.KindSpace, s.Name)] = &Space{
			Name:             s.Name,
			Kind:             s.Type,
			InEnvelope:       s.InEnvelope,
			Floor:            s.Floor,
			Multiplier:       mult,
			Z:                g.Z,
			Area:             g.Area,
			Height:           g.GrossHeight,
			HeightNet:        g.NetHeight,
			Volume:           g.Volume,
			VolumeGross:      g.GrossVolume,
			ExposedPerimeter: g.ExposedPerimeter,
			AirChanges:       s.AirChanges,
			SpaceConditions:  ID(bdl.KindSpaceConditions, s.SpaceConditions),
			SystemConditions: ID(bdl.KindSystemConditions, s.SystemConditions),
			Polygon:          points2(g.Footprint),
		}
	}

	for _, wl := range recs.Walls {
		g := geo.Walls[wl.Name]
		if g.Polygon != nil && len(g.Polygon) < 3 {
			return nil, &bdl.DegenerateGeometryError{Block: wl.Name, Type: wl.BlockType, Msg: "fewer than 3 vertices", Pos: wl.Pos}
		}
		m.Walls[ID(bdl.KindWall, wl.Name)] = &Wall{
			Name:         wl.Name,
			Space:        ID(bdl.KindSpace, wl.Space),
			NextTo:       ID(bdl.KindSpace, wl.NextTo),
			Construction: ID(bdl.KindConstruction, wl.Construction),
			Bounds:       wl.Bounds,
			Position:     g.Position,
			Azimuth:      g.Azimuth,
			Tilt:         g.Tilt,
			GrossArea:    g.GrossArea,
			Area:         g.NetArea,
			U:            g.U,
			Geometry: Surface{
				Origin:  vec3(g.Frame.Origin),
				U:       vec3(g.Frame.U),
				V:       vec3(g.Frame.V),
				Polygon: points2(g.Polygon),
			},
		}
	}

	for _, o := range recs.Windows {
		g := geo.Openings[o.Name]
		win := &Window{
			Name:         o.Name,
			Wall:         ID(bdl.KindWall, o.Wall),
			Construction: ID(bdl.KindGap, o.Construction),
			X:            o.X,
			Y:            o.Y,
			Width:        o.Width,
			Height:       o.Height,
			Setback:      o.Setback,
			Area:         g.Area,
			U:            g.U,
			Fshobst:      1,
		}
		if v, ok := o.Overrides.Lookup(bdl.OverrideFshobst); ok {
			win.Fshobst = v
			w.Addf(report.OverrideApplied, o.Name, "f_shobst %g from override", v)
		} else if f, ok := in.Obstruction[o.Name]; ok {
			win.Fshobst = f.July
			win.Obstruction = &f
		}
		m.Windows[ID(bdl.KindWindow, o.Name)] = win
	}

	for _, o := range recs.Doors {
		g := geo.Openings[o.Name]
		m.Doors[ID(bdl.KindDoor, o.Name)] = &Door{
			Name:         o.Name,
			Wall:         ID(bdl.KindWall, o.Wall),
			Construction: ID(bdl.KindConstruction, o.Construction),
			Area:         g.Area,
			U:            g.U,
		}
	}

	for _, c := range recs.Constructions {
		cons := &Construction{Name: c.Name, Absorptance: c.Absorptance, UValue: c.UValue}
		if l := x.Layers(c.Layers); l != nil {
			for i, mat := range l.Materials {
				cons.Layers = append(cons.Layers, Layer{ID(bdl.KindMaterial, mat), l.Thickness[i]})
			}
			cons.Thickness = round(l.TotalThickness(), 3)
		}
		m.Constructions[ID(bdl.KindConstruction, c.Name)] = cons
	}

	for _, g := range recs.Gaps {
		glass, frame := x.Glass(g.Glass), x.Frame(g.Frame)
		m.WindowConstructions[ID(bdl.KindGap, g.Name)] = &WindowConstruction{
			Name:             g.Name,
			Group:            g.Group,
			Glass:            glass.Name,
			GlassU:           glass.U,
			GGln:             glass.GGln,
			Frame:            frame.Name,
			FrameU:           frame.U,
			FrameAbsorptance: frame.Absorptance,
			FrameFraction:    g.FrameFraction,
			DeltaU:           g.DeltaU,
			Infiltration:     g.Infiltration,
			GGlShWi:          g.GGlShWi,
			U:                geo.GapU[g.Name],
		}
	}

	for _, mat := range recs.Materials {
		m.Materials[ID(bdl.KindMaterial, mat.Name)] = &Material{
			Name:              mat.Name,
			Group:             mat.Group,
			Conductivity:      mat.Conductivity,
			Resistance:        mat.Resistance,
			Thickness:         mat.Thickness,
			Density:           mat.Density,
			SpecificHeat:      mat.SpecificHeat,
			VapourDiffusivity: mat.VapourDiffusivity,
		}
	}

	for _, s := range recs.Shades {
		g, ok := geo.Shades[s.Name]
		if !ok {
			// Degenerate; reported by the resolver.
			continue
		}
		pts := make([][3]float64, len(g.Points))
		for i, p := range g.Points {
			pts[i] = vec3(p)
		}
		m.Shades[ID(bdl.KindShade, s.Name)] = &Shade{
			Name:          s.Name,
			Transmittance: s.Transmittance,
			Reflectance:   s.Reflectance,
			Area:          g.Area,
			Polygon:       pts,
		}
	}

	for _, tb := range recs.ThermalBridges {
		if tb.Name == calculatedLengths {
			continue
		}
		var l float64
		if tb.Length != nil {
			l = *tb.Length
		}
		m.ThermalBridges[ID(bdl.KindThermalBridge, tb.Name)] = &ThermalBridge{
			Name:   tb.Name,
			Kind:   BridgeKind(tb.Name),
			Length: l,
			Psi:    tb.Psi,
			Frsi:   tb.Frsi,
		}
	}

	for _, d := range recs.DaySchedules {
		m.Schedules.Day[ID(bdl.KindDaySchedule, d.Name)] = &DaySchedule{d.Name, d.Type, d.Values}
	}
	for _, wk := range recs.WeekSchedules {
		days := make([]string, len(wk.Days))
		for i, d := range wk.Days {
			days[i] = ID(bdl.KindDaySchedule, d)
		}
		m.Schedules.Week[ID(bdl.KindWeekSchedule, wk.Name)] = &WeekSchedule{wk.Name, wk.Type, days}
	}
	for _, y := range recs.YearSchedules {
		weeks := make([]string, len(y.Weeks))
		for i, wk := range y.Weeks {
			weeks[i] = ID(bdl.KindWeekSchedule, wk)
		}
		m.Schedules.Year[ID(bdl.KindYearSchedule, y.Name)] = &YearSchedule{y.Name, y.Type, y.Days, y.Months, weeks}
	}

	for _, c := range recs.Conditions {
		scheds := make(map[string]string, len(c.Schedules))
		for attr, name := range c.Schedules {
			scheds[attr] = ID(bdl.KindYearSchedule, name)
		}
		m.Conditions[ID(c.Kind(), c.Name)] = &Conditions{
			Name:      c.Name,
			System:    c.System,
			Attrs:     c.Attrs,
			Schedules: scheds,
		}
	}

	if in.Side != nil {
		crossCheck(in.Side, x, geo, w)
	}

	m.Warnings = report.Ordered(append(in.Reports, w)...)
	if m.Warnings == nil {
		m.Warnings = []report.Warning{}
	}
	return m, nil
}

// crossCheck compares derived areas to a side table. Elements are walls
// (net area) and windows.
func crossCheck(side *SideAreas, x *Index, geo *Geometry, w *report.Collector) {
	check := func(name string, got, want float64) {
		if math.Abs(got-want) > areaTolerance*math.Max(math.Abs(want), geom.Eps) {
			w.Addf(report.AreaMismatch, name, "area %.3f differs from side table area %.3f", got, want)
		}
	}
	for _, name := range sortedNames(side.Elements) {
		want := side.Elements[name]
		if g, ok := geo.Walls[name]; ok {
			check(name, g.NetArea, want)
		} else if _, ok := x.Lookup(bdl.KindWindow, name); ok {
			check(name, geo.Openings[name].Area, want)
		} else {
			w.Addf(report.UnmatchedSideTable, name, "side table element has no matching wall or window")
		}
	}
	for _, name := range sortedNames(side.Spaces) {
		if g, ok := geo.Spaces[name]; ok {
			check(name, g.Area, side.Spaces[name])
		} else {
			w.Addf(report.UnmatchedSideTable, name, "side table space has no matching space")
		}
	}
}

func sortedNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var bridgeKinds = []struct {
	kind  ThermalBridgeKind
	names []string
}{
	{BridgeRoof, []string{"UNION_CUBIERTA", "ESQUINA_CONVEXA_FORJADO"}},
	{BridgeCorner, []string{"ESQUINA_CONCAVA", "ESQUINA_CONVEXA", "ESQUINA_CONCAVA_CERRAMIENTO", "ESQUINA_CONVEXA_CERRAMIENTO"}},
	{BridgeIntermediateFloor, []string{"FRENTE_FORJADO"}},
	{BridgePillar, []string{"PILAR"}},
	{BridgeGroundFloor, []string{"UNION_SOLERA_PAREDEXT"}},
	{BridgeWindow, []string{"HUECO_VENTANA", "HUECO_ALFEIZAR", "HUECO_CAPIALZADO", "HUECO_JAMBA"}},
}

// BridgeKind classifies a thermal bridge by its name, as the tool names
// the junctions it generates.
func BridgeKind(name string) ThermalBridgeKind {
	name = strings.TrimSpace(name)
	for _, k := range bridgeKinds {
		for _, n := range k.names {
			if name == n {
				return k.kind
			}
		}
	}
	return BridgeGeneric
}

func points2(p geom.Polygon) [][2]float64 {
	if p == nil {
		return nil
	}
	out := make([][2]float64, len(p))
	for i, v := range p {
		out[i] = [2]float64{round(v.X, 3), round(v.Y, 3)}
	}
	return out
}

func vec3(v r3.Vec) [3]float64 {
	return [3]float64{round(v.X, 6), round(v.Y, 6), round(v.Z, 6)}
}
