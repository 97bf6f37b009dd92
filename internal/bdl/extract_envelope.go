package bdl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aclements/envelope/internal/report"
)

func extractFloor(b *Block, w *report.Collector) (Record, error) {
	r := newAttrReader(b)
	f := &Floor{
		Name:       b.Name,
		Z:          r.optFloat("Z", 0),
		Height:     r.float("SPACE-HEIGHT"),
		Multiplier: r.optFloat("MULTIPLIER", 1),
		Previous:   r.optStr("PREVIOUS", ""),
		Pos:        b.Pos,
	}
	return r.done(f)
}

// airtightness maps the airtightness levels used as the SPACE-CONDITIONS
// of uninhabited spaces to air changes per hour.
var airtightness = map[string]float64{
	"NIVEL_ESTANQUEIDAD_1": 0.1,
	"NIVEL_ESTANQUEIDAD_2": 0.5,
	"NIVEL_ESTANQUEIDAD_3": 1.0,
	"NIVEL_ESTANQUEIDAD_4": 3.0,
	"NIVEL_ESTANQUEIDAD_5": 10.0,
}

func extractSpace(b *Block, w *report.Collector) (Record, error) {
	r := newAttrReader(b)
	s := &Space{
		Name:             b.Name,
		Floor:            b.ParentName(),
		X:                r.optFloat("X", 0),
		Y:                r.optFloat("Y", 0),
		Z:                r.optFloat("Z", 0),
		Azimuth:          r.optFloat("AZIMUTH", 0),
		Multiplier:       r.optFloat("MULTIPLIER", 1),
		SpaceType:        r.optStr("SPACE-TYPE", ""),
		SpaceConditions:  r.optStr("SPACE-CONDITIONS", ""),
		SystemConditions: r.optStr("SYSTEM-CONDITIONS", ""),
		Pos:              b.Pos,
	}
	if s.Floor == "" {
		s.Floor = r.str("FLOOR")
	}

	switch shape := r.optStr("SHAPE", "POLYGON"); shape {
	case "POLYGON":
		s.Polygon = r.str("POLYGON")
	case "NO-SHAPE":
		s.Area = r.floatPtr("AREA")
		s.Volume = r.floatPtr("VOLUME")
	default:
		r.invalidValue("SHAPE", r.attrValue("SHAPE"), "expected POLYGON or NO-SHAPE")
	}

	switch typ := r.optStr("TYPE", string(Conditioned)); typ {
	case "CONDITIONED":
		s.Type = Conditioned
	case "UNCONDITIONED":
		s.Type = Unconditioned
	case "UNINHABITED", "UNHABITED":
		s.Type = Uninhabited
	default:
		r.invalidValue("TYPE", r.attrValue("TYPE"), "unknown space type")
	}

	switch v := r.optStr("perteneceALaEnvolventeTermica", ""); v {
	case "SI":
		s.InEnvelope = true
	case "NO":
		s.InEnvelope = false
	default:
		s.InEnvelope = s.Type == Conditioned
	}

	if ach, ok := airtightness[s.SpaceConditions]; ok && s.Type == Uninhabited {
		// The level is not a conditions block.
		s.AirChanges = &ach
		s.SpaceConditions = ""
	} else {
		s.AirChanges = r.floatPtr("AIR-CHANGES/HR")
	}

	rec, err := r.done(s)
	if err == nil && r.has("HEIGHT") {
		w.Addf(report.SpaceHeightIgnored, b.Name, "HEIGHT of space ignored; the floor-to-floor height of the floor is used")
	}
	return rec, err
}

func extractPolygon(b *Block, w *report.Collector) (Record, error) {
	r := newAttrReader(b)
	p := &Polygon{Name: b.Name, Vertices: r.vertices2(), Pos: b.Pos}
	if r.err != nil {
		return nil, r.err
	}
	if len(p.Vertices) < 3 {
		return nil, &DegenerateGeometryError{Block: b.Name, Type: b.Type, Pos: b.Pos,
			Msg: fmt.Sprintf("polygon has %d vertices, need at least 3", len(p.Vertices))}
	}
	return p, nil
}

func extractWall(b *Block, w *report.Collector) (Record, error) {
	r := newAttrReader(b)
	wall := &Wall{
		Name:         b.Name,
		BlockType:    b.Type,
		Space:        b.ParentName(),
		Construction: r.str("CONSTRUCTION"),
		Polygon:      r.optStr("POLYGON", ""),
		X:            r.optFloat("X", 0),
		Y:            r.optFloat("Y", 0),
		Z:            r.optFloat("Z", 0),
		Area:         r.floatPtr("AREA"),
		Pos:          b.Pos,
	}
	if wall.Space == "" {
		wall.Space = r.str("SPACE")
	}

	loc := r.optStr("LOCATION", "")
	if loc == "" && b.Type == "UNDERGROUND-FLOOR" {
		loc = "BOTTOM"
	}
	switch {
	case loc == "", loc == "TOP", loc == "BOTTOM":
		wall.Location = loc
	case strings.HasPrefix(loc, "SPACE-V"):
		n, err := strconv.Atoi(strings.TrimPrefix(loc, "SPACE-V"))
		if err != nil || n < 1 {
			r.invalidValue("LOCATION", r.attrValue("LOCATION"), "expected TOP, BOTTOM or SPACE-Vn")
		}
		wall.Location = strings.TrimPrefix(loc, "SPACE-")
	default:
		r.invalidValue("LOCATION", r.attrValue("LOCATION"), "expected TOP, BOTTOM or SPACE-Vn")
	}

	switch b.Type {
	case "INTERIOR-WALL":
		switch typ := r.str("INT-WALL-TYPE"); typ {
		case "STANDARD":
			wall.Bounds = Interior
			wall.NextTo = r.optStr("NEXT-TO", "")
		case "ADIABATIC":
			wall.Bounds = Adiabatic
		case "":
		default:
			r.invalidValue("INT-WALL-TYPE", r.attrValue("INT-WALL-TYPE"), "expected STANDARD or ADIABATIC")
		}
	case "UNDERGROUND-WALL", "UNDERGROUND-FLOOR":
		wall.Bounds = Ground
	default:
		wall.Bounds = Exterior
	}

	switch {
	case r.has("TILT"):
		wall.Tilt = r.float("TILT")
	case b.Type == "ROOF", wall.Location == "TOP":
		wall.Tilt = 0
	case wall.Location == "BOTTOM":
		wall.Tilt = 180
	default:
		wall.Tilt = 90
	}
	if wall.Location == "BOTTOM" {
		wall.Azimuth = 180
	} else {
		wall.Azimuth = r.optFloat("AZIMUTH", 0)
	}

	wall.Vertices = r.vertices2()
	if r.err != nil {
		return nil, r.err
	}
	if n := len(wall.Vertices); n > 0 && n < 3 {
		return nil, &DegenerateGeometryError{Block: b.Name, Type: b.Type, Pos: b.Pos,
			Msg: fmt.Sprintf("wall polygon has %d vertices, need at least 3", n)}
	}
	if wall.Bounds == Ground && r.has("Z-GROUND") {
		w.Addf(report.ZGroundIgnored, b.Name, "Z-GROUND ignored; the floor elevation is used")
	}
	return wall, nil
}

func extractWindow(b *Block, w *report.Collector) (Record, error) {
	r := newAttrReader(b)
	o := &Opening{
		Name:         b.Name,
		Wall:         b.ParentName(),
		Construction: r.str("GAP"),
		X:            r.float("X"),
		Y:            r.float("Y"),
		Height:       r.float("HEIGHT"),
		Width:        r.float("WIDTH"),
		Setback:      r.float("SETBACK"),
		Pos:          b.Pos,
	}
	if o.Wall == "" {
		o.Wall = r.str("WALL")
	}
	if r.has("COEFF") {
		o.Coefficients = r.floats("COEFF")
		if r.err == nil && len(o.Coefficients) != 4 {
			r.invalidValue("COEFF", r.attrValue("COEFF"), "expected 4 correction coefficients")
		}
	}

	oh := Overhang{
		A:     r.optFloat("OVERHANG-A", 0),
		B:     r.optFloat("OVERHANG-B", 0),
		Width: r.optFloat("OVERHANG-W", 0),
		Depth: r.optFloat("OVERHANG-D", 0),
		Angle: r.optFloat("OVERHANG-ANGLE", 0),
	}
	if oh.Depth*oh.Width > 0 {
		o.Overhang = &oh
	}
	o.LeftFin = readFin(r, "LEFT-FIN-")
	o.RightFin = readFin(r, "RIGHT-FIN-")

	lv := Louvres{
		Horizontal:     r.optStr("POSITION-LAMAS", "") == "Horizontal",
		Width:          r.optFloat("LAMAS-WIDTH", 0),
		Distance:       r.optFloat("LAMAS-DISTANCE", 0),
		Angle:          r.optFloat("LAMAS-ANGLE", 0),
		Transmissivity: r.optFloat("LAMAS-TRANSMISIVITY", 0),
		Reflectivity:   r.optFloat("LAMAS-REFLECTIVITY", 0),
	}
	if lv.Width > 0 {
		o.Louvres = &lv
	}
	return r.done(o)
}

func readFin(r *attrReader, prefix string) *Fin {
	f := Fin{
		A:      r.optFloat(prefix+"A", 0),
		B:      r.optFloat(prefix+"B", 0),
		Height: r.optFloat(prefix+"H", 0),
		Depth:  r.optFloat(prefix+"D", 0),
	}
	if f.Depth*f.Height > 0 {
		return &f
	}
	return nil
}

func extractDoor(b *Block, w *report.Collector) (Record, error) {
	r := newAttrReader(b)
	o := &Opening{
		Name:         b.Name,
		Door:         true,
		Wall:         b.ParentName(),
		Construction: r.str("CONSTRUCTION"),
		X:            r.float("X"),
		Y:            r.float("Y"),
		Height:       r.float("HEIGHT"),
		Width:        r.float("WIDTH"),
		Setback:      r.optFloat("SETBACK", 0),
		Pos:          b.Pos,
	}
	if o.Wall == "" {
		o.Wall = r.str("WALL")
	}
	return r.done(o)
}

func extractShade(b *Block, w *report.Collector) (Record, error) {
	r := newAttrReader(b)
	s := &Shade{
		Name:          b.Name,
		Transmittance: r.float("TRAN"),
		Reflectance:   r.float("REFL"),
		Pos:           b.Pos,
	}
	if r.has("X") {
		s.Rect = &ShadeRect{
			X:       r.float("X"),
			Y:       r.float("Y"),
			Z:       r.float("Z"),
			Width:   r.float("WIDTH"),
			Height:  r.float("HEIGHT"),
			Azimuth: r.float("AZIMUTH"),
			Tilt:    r.float("TILT"),
		}
		return r.done(s)
	}
	s.Vertices = r.vertices3()
	if r.err != nil {
		return nil, r.err
	}
	if len(s.Vertices) < 3 {
		return nil, &DegenerateGeometryError{Block: b.Name, Type: b.Type, Pos: b.Pos,
			Msg: fmt.Sprintf("shade has %d vertices, need at least 3", len(s.Vertices))}
	}
	return s, nil
}

// calculatedLengths is the thermal bridge block that only carries the
// lengths computed by the exporting tool.
const calculatedLengths = "LONGITUDES_CALCULADAS"

func extractThermalBridge(b *Block, w *report.Collector) (Record, error) {
	r := newAttrReader(b)
	tb := &ThermalBridge{
		Name:   b.Name,
		Length: r.floatPtr("LONG-TOTAL"),
		Type:   r.optStr("TYPE", ""),
		Pos:    b.Pos,
	}
	if b.Name != calculatedLengths {
		tb.Psi = r.float("TTL")
		tb.Frsi = r.float("FRSI")
	}
	return r.done(tb)
}
