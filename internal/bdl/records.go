package bdl

import "gonum.org/v1/gonum/spatial/r2"

// Kind names an entity kind. Names are unique within a kind.
type Kind string

const (
	KindMeta             Kind = "meta"
	KindFloor            Kind = "floor"
	KindSpace            Kind = "space"
	KindPolygon          Kind = "polygon"
	KindWall             Kind = "wall"
	KindWindow           Kind = "window"
	KindDoor             Kind = "door"
	KindConstruction     Kind = "construction"
	KindLayers           Kind = "layers"
	KindMaterial         Kind = "material"
	KindGlass            Kind = "glass"
	KindFrame            Kind = "frame"
	KindGap              Kind = "window_construction"
	KindShade            Kind = "shade"
	KindThermalBridge    Kind = "thermal_bridge"
	KindDaySchedule      Kind = "day_schedule"
	KindWeekSchedule     Kind = "week_schedule"
	KindYearSchedule     Kind = "year_schedule"
	KindSpaceConditions  Kind = "space_conditions"
	KindSystemConditions Kind = "system_conditions"
)

// A Ref is a by-name reference from one record to another. References
// are resolved after extraction so they may point forward in the file.
type Ref struct {
	Kind Kind
	Name string
	Attr string // attribute holding the reference
}

// A Record is a typed entity extracted from a block.
type Record interface {
	Kind() Kind
	RecordName() string
	References() []Ref
	Position() Position
}

// refs builds a reference list, skipping empty names.
func refs(rs ...Ref) []Ref {
	out := rs[:0:0]
	for _, r := range rs {
		if r.Name != "" {
			out = append(out, r)
		}
	}
	return out
}

// OverrideKind tags a value that replaces a derived quantity.
type OverrideKind string

const (
	OverrideUValue           OverrideKind = "u_value"
	OverrideFshobst          OverrideKind = "fshobst"
	OverrideExposedPerimeter OverrideKind = "exposed_perimeter"
)

// An Override replaces a derived quantity of a wall, window or space.
type Override struct {
	Kind   OverrideKind `json:"kind"`
	Value  float64      `json:"value"`
	Source string       `json:"source,omitempty"`
}

type Overrides []Override

// Lookup returns the value of the last override of the given kind.
func (os Overrides) Lookup(kind OverrideKind) (float64, bool) {
	for i := len(os) - 1; i >= 0; i-- {
		if os[i].Kind == kind {
			return os[i].Value, true
		}
	}
	return 0, false
}

// Meta holds a project-level block such as GENERAL-DATA or
// BUILD-PARAMETERS as a raw attribute map.
type Meta struct {
	Name  string
	Type  string
	Attrs map[string]string
	Pos   Position
}

func (m *Meta) Kind() Kind { return KindMeta }
func (m *Meta) RecordName() string { return m.Type }
func (m *Meta) References() []Ref { return nil }
func (m *Meta) Position() Position { return m.Pos }

type Floor struct {
	Name       string
	Z          float64
	Height     float64 // floor-to-floor
	Multiplier float64
	Previous   string
	Pos        Position
}

func (f *Floor) Kind() Kind { return KindFloor }
func (f *Floor) RecordName() string { return f.Name }
func (f *Floor) References() []Ref {
	return refs(Ref{KindFloor, f.Previous, "PREVIOUS"})
}
func (f *Floor) Position() Position { return f.Pos }

type SpaceKind string

const (
	Conditioned   SpaceKind = "CONDITIONED"
	Unconditioned SpaceKind = "UNCONDITIONED"
	Uninhabited   SpaceKind = "UNINHABITED"
)

type Space struct {
	Name    string
	Floor   string
	Polygon string
	Type    SpaceKind

	InEnvelope bool
	X, Y, Z    float64
	Azimuth    float64
	Multiplier float64

	// Area and Volume are declared values for spaces without a polygon.
	Area   *float64
	Volume *float64

	AirChanges       *float64
	SpaceType        string
	SpaceConditions  string
	SystemConditions string

	Overrides Overrides
	Pos       Position
}

func (s *Space) Kind() Kind { return KindSpace }
func (s *Space) RecordName() string { return s.Name }
func (s *Space) References() []Ref {
	return refs(
		Ref{KindFloor, s.Floor, "FLOOR"},
		Ref{KindPolygon, s.Polygon, "POLYGON"},
		Ref{KindSpaceConditions, s.SpaceConditions, "SPACE-CONDITIONS"},
		Ref{KindSystemConditions, s.SystemConditions, "SYSTEM-CONDITIONS"},
	)
}
func (s *Space) Position() Position { return s.Pos }

// Polygon is a named 2D vertex list. Order is the winding order.
type Polygon struct {
	Name     string
	Vertices []r2.Vec
	Pos      Position
}

func (p *Polygon) Kind() Kind { return KindPolygon }
func (p *Polygon) RecordName() string { return p.Name }
func (p *Polygon) References() []Ref { return nil }
func (p *Polygon) Position() Position { return p.Pos }

// Bounds is the boundary condition on the outer side of an element.
type Bounds string

const (
	Exterior  Bounds = "EXTERIOR"
	Ground    Bounds = "GROUND"
	Adiabatic Bounds = "ADIABATIC"
	Interior  Bounds = "INTERIOR"
)

type Wall struct {
	Name         string
	BlockType    string
	Space        string
	NextTo       string
	Construction string
	Bounds       Bounds

	// Location is "", "TOP", "BOTTOM" or a space polygon edge such as
	// "V3".
	Location string

	Polygon  string   // POLYGON block
	Vertices []r2.Vec // inline vertices

	X, Y, Z float64
	Azimuth float64
	Tilt    float64

	Area *float64 // declared

	Overrides Overrides
	Pos       Position
}

func (w *Wall) Kind() Kind { return KindWall }
func (w *Wall) RecordName() string { return w.Name }
func (w *Wall) References() []Ref {
	return refs(
		Ref{KindSpace, w.Space, "SPACE"},
		Ref{KindConstruction, w.Construction, "CONSTRUCTION"},
		Ref{KindPolygon, w.Polygon, "POLYGON"},
		Ref{KindSpace, w.NextTo, "NEXT-TO"},
	)
}
func (w *Wall) Position() Position { return w.Pos }

// OnEdge reports whether w is defined by an edge of its space's polygon.
func (w *Wall) OnEdge() bool {
	return len(w.Location) > 1 && w.Location[0] == 'V'
}

type Overhang struct {
	A, B         float64
	Width, Depth float64
	Angle        float64
}

type Fin struct {
	A, B          float64
	Height, Depth float64
}

type Louvres struct {
	Horizontal     bool
	Width          float64
	Distance       float64
	Angle          float64
	Transmissivity float64
	Reflectivity   float64
}

// An Opening is a WINDOW or DOOR in a wall.
type Opening struct {
	Name         string
	Door         bool
	Wall         string
	Construction string // GAP for windows, CONSTRUCTION for doors

	X, Y          float64
	Width, Height float64
	Setback       float64

	Coefficients []float64
	Overhang     *Overhang
	LeftFin      *Fin
	RightFin     *Fin
	Louvres      *Louvres

	Overrides Overrides
	Pos       Position
}

func (o *Opening) Kind() Kind {
	if o.Door {
		return KindDoor
	}
	return KindWindow
}
func (o *Opening) RecordName() string { return o.Name }
func (o *Opening) References() []Ref {
	cons := Ref{KindGap, o.Construction, "GAP"}
	if o.Door {
		cons = Ref{KindConstruction, o.Construction, "CONSTRUCTION"}
	}
	return refs(Ref{KindWall, o.Wall, "WALL"}, cons)
}
func (o *Opening) Position() Position { return o.Pos }

// Area returns the nominal rectangle area.
func (o *Opening) Area() float64 { return o.Width * o.Height }

type Construction struct {
	Name        string
	Layers      string
	UValue      *float64 // TYPE = U-VALUE
	Absorptance float64
	Pos         Position
}

func (c *Construction) Kind() Kind { return KindConstruction }
func (c *Construction) RecordName() string { return c.Name }
func (c *Construction) References() []Ref {
	return refs(Ref{KindLayers, c.Layers, "LAYERS"})
}
func (c *Construction) Position() Position { return c.Pos }

type Layers struct {
	Name      string
	Group     string
	Materials []string
	Thickness []float64
	Pos       Position
}

func (l *Layers) Kind() Kind { return KindLayers }
func (l *Layers) RecordName() string { return l.Name }
func (l *Layers) References() []Ref {
	rs := make([]Ref, 0, len(l.Materials))
	for _, m := range l.Materials {
		rs = append(rs, Ref{KindMaterial, m, "MATERIAL"})
	}
	return refs(rs...)
}
func (l *Layers) Position() Position { return l.Pos }

// TotalThickness returns the sum of the layer thicknesses.
func (l *Layers) TotalThickness() float64 {
	var t float64
	for _, e := range l.Thickness {
		t += e
	}
	return t
}

type Material struct {
	Name  string
	Group string

	// Either Conductivity (TYPE = PROPERTIES) or Resistance
	// (TYPE = RESISTANCE) is set.
	Conductivity *float64
	Resistance   *float64

	Thickness         *float64
	Density           float64
	SpecificHeat      float64
	VapourDiffusivity *float64
	Pos               Position
}

func (m *Material) Kind() Kind { return KindMaterial }
func (m *Material) RecordName() string { return m.Name }
func (m *Material) References() []Ref { return nil }
func (m *Material) Position() Position { return m.Pos }

type Glass struct {
	Name  string
	Group string
	U     float64 // GLASS-CONDUCTANCE
	GGln  float64 // 0.86 * SHADING-COEF
	Pos   Position
}

func (g *Glass) Kind() Kind { return KindGlass }
func (g *Glass) RecordName() string { return g.Name }
func (g *Glass) References() []Ref { return nil }
func (g *Glass) Position() Position { return g.Pos }

type Frame struct {
	Name        string
	Group       string
	U           float64
	Absorptance float64
	Width       float64
	Pos         Position
}

func (f *Frame) Kind() Kind { return KindFrame }
func (f *Frame) RecordName() string { return f.Name }
func (f *Frame) References() []Ref { return nil }
func (f *Frame) Position() Position { return f.Pos }

// A Gap is a window construction: glass plus frame.
type Gap struct {
	Name          string
	Group         string
	Glass         string
	Frame         string
	FrameFraction float64
	Infiltration  float64
	DeltaU        float64 // percentage increment of U
	GGlShWi       *float64
	Pos           Position
}

func (g *Gap) Kind() Kind { return KindGap }
func (g *Gap) RecordName() string { return g.Name }
func (g *Gap) References() []Ref {
	return refs(Ref{KindGlass, g.Glass, "GLASS-TYPE"}, Ref{KindFrame, g.Frame, "NAME-FRAME"})
}
func (g *Gap) Position() Position { return g.Pos }

// A Shade is an independent shading surface. It is either a rectangle
// placed by X, Y, Z, AZIMUTH and TILT, or an explicit 3D vertex list.
type Shade struct {
	Name          string
	Transmittance float64
	Reflectance   float64

	Rect     *ShadeRect
	Vertices [][3]float64

	Pos Position
}

type ShadeRect struct {
	X, Y, Z       float64
	Width, Height float64
	Azimuth, Tilt float64
}

func (s *Shade) Kind() Kind { return KindShade }
func (s *Shade) RecordName() string { return s.Name }
func (s *Shade) References() []Ref { return nil }
func (s *Shade) Position() Position { return s.Pos }

type ThermalBridge struct {
	Name   string
	Length *float64
	Type   string
	Psi    float64
	Frsi   float64
	Pos    Position
}

func (t *ThermalBridge) Kind() Kind { return KindThermalBridge }
func (t *ThermalBridge) RecordName() string { return t.Name }
func (t *ThermalBridge) References() []Ref { return nil }
func (t *ThermalBridge) Position() Position { return t.Pos }

type ScheduleKind string

const (
	Fraction    ScheduleKind = "FRACTION"
	OnOff       ScheduleKind = "ON/OFF"
	Temperature ScheduleKind = "TEMPERATURE"
)

type DaySchedule struct {
	Name   string
	Type   ScheduleKind
	Values []float64 // 24 hourly values or a single constant
	Pos    Position
}

func (d *DaySchedule) Kind() Kind { return KindDaySchedule }
func (d *DaySchedule) RecordName() string { return d.Name }
func (d *DaySchedule) References() []Ref { return nil }
func (d *DaySchedule) Position() Position { return d.Pos }

type WeekSchedule struct {
	Name string
	Type ScheduleKind
	Days []string // 7 day schedules or a single one
	Pos  Position
}

func (w *WeekSchedule) Kind() Kind { return KindWeekSchedule }
func (w *WeekSchedule) RecordName() string { return w.Name }
func (w *WeekSchedule) References() []Ref {
	rs := make([]Ref, 0, len(w.Days))
	for _, d := range w.Days {
		rs = append(rs, Ref{KindDaySchedule, d, "DAY-SCHEDULES"})
	}
	return refs(rs...)
}
func (w *WeekSchedule) Position() Position { return w.Pos }

type YearSchedule struct {
	Name   string
	Type   ScheduleKind
	Days   []int
	Months []int
	Weeks  []string
	Pos    Position
}

func (y *YearSchedule) Kind() Kind { return KindYearSchedule }
func (y *YearSchedule) RecordName() string { return y.Name }
func (y *YearSchedule) References() []Ref {
	rs := make([]Ref, 0, len(y.Weeks))
	for _, w := range y.Weeks {
		rs = append(rs, Ref{KindWeekSchedule, w, "WEEK-SCHEDULES"})
	}
	return refs(rs...)
}
func (y *YearSchedule) Position() Position { return y.Pos }

// Conditions is a SPACE-CONDITIONS or SYSTEM-CONDITIONS block. Only the
// schedule references are interpreted.
type Conditions struct {
	Name      string
	System    bool
	Attrs     map[string]string
	Schedules map[string]string // attribute -> year schedule
	Pos       Position
}

func (c *Conditions) Kind() Kind {
	if c.System {
		return KindSystemConditions
	}
	return KindSpaceConditions
}
func (c *Conditions) RecordName() string { return c.Name }
func (c *Conditions) References() []Ref {
	rs := make([]Ref, 0, len(c.Schedules))
	for _, attr := range sortedKeys(c.Schedules) {
		rs = append(rs, Ref{KindYearSchedule, c.Schedules[attr], attr})
	}
	return refs(rs...)
}
func (c *Conditions) Position() Position { return c.Pos }
