package model

import (
	"github.com/google/uuid"

	"github.com/aclements/envelope/internal/bdl"
	"github.com/aclements/envelope/internal/report"
)

// A Model is an assembled energy-envelope model. Every entity map is
// keyed by the entity's ID. Lengths are in m, areas in m², volumes in m³
// and transmittances in W/m²K.
//
// A Model is immutable once assembled.
type Model struct {
	Meta Meta `json:"meta"`

	Spaces              map[string]*Space              `json:"spaces"`
	Walls               map[string]*Wall               `json:"walls"`
	Windows             map[string]*Window             `json:"windows"`
	Doors               map[string]*Door               `json:"doors"`
	Constructions       map[string]*Construction       `json:"constructions"`
	WindowConstructions map[string]*WindowConstruction `json:"window_constructions"`
	Materials           map[string]*Material           `json:"materials"`
	Shades              map[string]*Shade              `json:"shades"`
	ThermalBridges      map[string]*ThermalBridge      `json:"thermal_bridges"`
	Schedules           Schedules                      `json:"schedules"`
	Conditions          map[string]*Conditions         `json:"conditions"`

	Warnings []report.Warning `json:"warnings"`
}

type Meta struct {
	Name       string  `json:"name"`
	Climate    string  `json:"climate"`
	NorthAngle float64 `json:"north_angle"` // building azimuth, degrees
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Preamble   string  `json:"preamble,omitempty"`
}

type Space struct {
	Name             string        `json:"name"`
	Kind             bdl.SpaceKind `json:"kind"`
	InEnvelope       bool          `json:"inside_tenv"`
	Floor            string        `json:"floor"`
	Multiplier       float64       `json:"multiplier"`
	Z                float64       `json:"z"`
	Area             float64       `json:"area"`
	Height           float64       `json:"height"`
	HeightNet        float64       `json:"height_net"`
	Volume           float64       `json:"volume"`
	VolumeGross      float64       `json:"volume_gross"`
	ExposedPerimeter float64       `json:"exposed_perimeter"`
	AirChanges       *float64      `json:"n_v,omitempty"`
	SpaceConditions  string        `json:"space_conditions,omitempty"`
	SystemConditions string        `json:"system_conditions,omitempty"`
	Polygon          [][2]float64  `json:"polygon,omitempty"`
}

type Wall struct {
	Name         string     `json:"name"`
	Space        string     `json:"space"`
	NextTo       string     `json:"next_to,omitempty"`
	Construction string     `json:"construction"`
	Bounds       bdl.Bounds `json:"bounds"`
	Position     Position   `json:"position"`
	Azimuth      float64    `json:"azimuth"`
	Tilt         float64    `json:"tilt"`
	GrossArea    float64    `json:"area_gross"`
	Area         float64    `json:"area"`
	U            float64    `json:"u_value"`
	Geometry     Surface    `json:"geometry"`
}

// A Surface places a planar polygon: Polygon is in the plane spanned by
// U and V through Origin.
type Surface struct {
	Origin  [3]float64   `json:"origin"`
	U       [3]float64   `json:"u"`
	V       [3]float64   `json:"v"`
	Polygon [][2]float64 `json:"polygon,omitempty"`
}

type Window struct {
	Name         string  `json:"name"`
	Wall         string  `json:"wall"`
	Construction string  `json:"construction"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Setback      float64 `json:"setback"`
	Area         float64 `json:"area"`
	U            float64 `json:"u_value"`

	// Fshobst is the July obstruction factor of the window.
	Fshobst     float64      `json:"f_shobst"`
	Obstruction *Obstruction `json:"obstruction,omitempty"`
}

// Obstruction holds the computed obstruction factors of a window per
// period.
type Obstruction struct {
	July   float64 `json:"july"`
	Summer float64 `json:"summer"`
	Winter float64 `json:"winter"`
	Year   float64 `json:"year"`
}

type Door struct {
	Name         string  `json:"name"`
	Wall         string  `json:"wall"`
	Construction string  `json:"construction"`
	Area         float64 `json:"area"`
	U            float64 `json:"u_value"`
}

type Construction struct {
	Name        string   `json:"name"`
	Layers      []Layer  `json:"layers,omitempty"`
	Thickness   float64  `json:"thickness"`
	Absorptance float64  `json:"absorptance"`
	UValue      *float64 `json:"u_value,omitempty"` // declared
}

type Layer struct {
	Material  string  `json:"material"`
	Thickness float64 `json:"e"`
}

type WindowConstruction struct {
	Name             string   `json:"name"`
	Group            string   `json:"group"`
	Glass            string   `json:"glass"`
	GlassU           float64  `json:"u_glass"`
	GGln             float64  `json:"g_gln"`
	Frame            string   `json:"frame"`
	FrameU           float64  `json:"u_frame"`
	FrameAbsorptance float64  `json:"absorptance_frame"`
	FrameFraction    float64  `json:"f_f"`
	DeltaU           float64  `json:"delta_u"`
	Infiltration     float64  `json:"c_100"`
	GGlShWi          *float64 `json:"g_glshwi,omitempty"`
	U                float64  `json:"u_value"`
}

type Material struct {
	Name              string   `json:"name"`
	Group             string   `json:"group"`
	Conductivity      *float64 `json:"conductivity,omitempty"`
	Resistance        *float64 `json:"resistance,omitempty"`
	Thickness         *float64 `json:"thickness,omitempty"`
	Density           float64  `json:"density"`
	SpecificHeat      float64  `json:"specific_heat"`
	VapourDiffusivity *float64 `json:"vapour_diffusivity,omitempty"`
}

type Shade struct {
	Name          string       `json:"name"`
	Transmittance float64      `json:"transmittance"`
	Reflectance   float64      `json:"reflectance"`
	Area          float64      `json:"area"`
	Polygon       [][3]float64 `json:"polygon"`
}

// ThermalBridgeKind classifies a linear thermal bridge by the junction it
// sits on.
type ThermalBridgeKind string

const (
	BridgeRoof              ThermalBridgeKind = "ROOF"
	BridgeCorner            ThermalBridgeKind = "CORNER"
	BridgeIntermediateFloor ThermalBridgeKind = "INTERMEDIATEFLOOR"
	BridgePillar            ThermalBridgeKind = "PILLAR"
	BridgeGroundFloor       ThermalBridgeKind = "GROUNDFLOOR"
	BridgeWindow            ThermalBridgeKind = "WINDOW"
	BridgeGeneric           ThermalBridgeKind = "GENERIC"
)

type ThermalBridge struct {
	Name   string            `json:"name"`
	Kind   ThermalBridgeKind `json:"kind"`
	Length float64           `json:"l"`
	Psi    float64           `json:"psi"`
	Frsi   float64           `json:"frsi"`
}

type Schedules struct {
	Day  map[string]*DaySchedule  `json:"day"`
	Week map[string]*WeekSchedule `json:"week"`
	Year map[string]*YearSchedule `json:"year"`
}

type DaySchedule struct {
	Name   string           `json:"name"`
	Kind   bdl.ScheduleKind `json:"kind"`
	Values []float64        `json:"values"`
}

type WeekSchedule struct {
	Name string           `json:"name"`
	Kind bdl.ScheduleKind `json:"kind"`
	Days []string         `json:"days"`
}

type YearSchedule struct {
	Name   string           `json:"name"`
	Kind   bdl.ScheduleKind `json:"kind"`
	Days   []int            `json:"days"`
	Months []int            `json:"months"`
	Weeks  []string         `json:"weeks"`
}

type Conditions struct {
	Name      string            `json:"name"`
	System    bool              `json:"system"`
	Attrs     map[string]string `json:"attrs"`
	Schedules map[string]string `json:"schedules"` // attribute -> year schedule ID
}

var idSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/aclements/envelope"))

// ID returns the deterministic ID of the entity of the given kind and
// name.
func ID(kind bdl.Kind, name string) string {
	if name == "" {
		return ""
	}
	return uuid.NewSHA1(idSpace, []byte(string(kind)+"/"+name)).String()
}
