package bdl

import (
	"errors"
	"slices"

	"github.com/aclements/envelope/internal/report"
)

// An Extractor turns one block into a typed record. References to other
// entities are stored by name and checked later, so a block may refer to
// one defined further down the file.
type Extractor interface {
	Extract(b *Block, w *report.Collector) (Record, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(b *Block, w *report.Collector) (Record, error)

func (f ExtractorFunc) Extract(b *Block, w *report.Collector) (Record, error) {
	return f(b, w)
}

type registration struct {
	kind Kind
	ex   Extractor
}

var registry = map[string]registration{
	"FLOOR":             {KindFloor, ExtractorFunc(extractFloor)},
	"SPACE":             {KindSpace, ExtractorFunc(extractSpace)},
	"POLYGON":           {KindPolygon, ExtractorFunc(extractPolygon)},
	"EXTERIOR-WALL":     {KindWall, ExtractorFunc(extractWall)},
	"INTERIOR-WALL":     {KindWall, ExtractorFunc(extractWall)},
	"UNDERGROUND-WALL":  {KindWall, ExtractorFunc(extractWall)},
	"UNDERGROUND-FLOOR": {KindWall, ExtractorFunc(extractWall)},
	"ROOF":              {KindWall, ExtractorFunc(extractWall)},
	"WINDOW":            {KindWindow, ExtractorFunc(extractWindow)},
	"DOOR":              {KindDoor, ExtractorFunc(extractDoor)},
	"BUILDING-SHADE":    {KindShade, ExtractorFunc(extractShade)},
	"THERMAL-BRIDGE":    {KindThermalBridge, ExtractorFunc(extractThermalBridge)},
	"MATERIAL":          {KindMaterial, ExtractorFunc(extractMaterial)},
	"LAYERS":            {KindLayers, ExtractorFunc(extractLayers)},
	"CONSTRUCTION":      {KindConstruction, ExtractorFunc(extractConstruction)},
	"GLASS-TYPE":        {KindGlass, ExtractorFunc(extractGlass)},
	"NAME-FRAME":        {KindFrame, ExtractorFunc(extractFrame)},
	"GAP":               {KindGap, ExtractorFunc(extractGap)},
	"DAY-SCHEDULE-PD":   {KindDaySchedule, ExtractorFunc(extractDaySchedule)},
	"DAY-SCHEDULE":      {KindDaySchedule, ExtractorFunc(extractDaySchedule)},
	"WEEK-SCHEDULE-PD":  {KindWeekSchedule, ExtractorFunc(extractWeekSchedule)},
	"WEEK-SCHEDULE":     {KindWeekSchedule, ExtractorFunc(extractWeekSchedule)},
	"SCHEDULE-PD":       {KindYearSchedule, ExtractorFunc(extractYearSchedule)},
	"SCHEDULE":          {KindYearSchedule, ExtractorFunc(extractYearSchedule)},
	"SPACE-CONDITIONS":  {KindSpaceConditions, ExtractorFunc(extractConditions)},
	"SYSTEM-CONDITIONS": {KindSystemConditions, ExtractorFunc(extractConditions)},
	"GENERAL-DATA":      {KindMeta, ExtractorFunc(extractMeta)},
	"BUILD-PARAMETERS":  {KindMeta, ExtractorFunc(extractMeta)},
	"RUN-PERIOD":        {KindMeta, ExtractorFunc(extractMeta)},
	"SITE-PARAMETERS":   {KindMeta, ExtractorFunc(extractMeta)},
}

// ignoredTypes are control blocks that carry no building data.
var ignoredTypes = map[string]bool{
	"SET-DEFAULT": true,
	"END":         true,
	"COMPUTE":     true,
	"STOP":        true,
	"TITLE":       true,
}

// Options controls extraction.
type Options struct {
	// SkipUnresolved drops an entity with a missing attribute or an
	// invalid value and records a warning, instead of failing the whole
	// extraction.
	SkipUnresolved bool
}

// Extract runs the registered extractor for every block of doc, in source
// order.
//
// Entities with degenerate geometry are always dropped with a warning.
// Anything that refers to a dropped entity is dropped in turn.
func Extract(doc *Document, opts Options, w *report.Collector) (*Records, error) {
	recs := new(Records)
	dropped := make(map[entityKey]bool)
	for _, b := range doc.Blocks {
		if ignoredTypes[b.Type] {
			continue
		}
		reg, ok := registry[b.Type]
		if !ok {
			w.Addf(report.UnknownBlockType, b.Label(), "unknown block type %s at %s", b.Type, b.Pos)
			continue
		}
		rec, err := reg.ex.Extract(b, w)
		if err == nil {
			recs.Add(rec)
			continue
		}

		var degenerate *DegenerateGeometryError
		switch {
		case errors.As(err, &degenerate):
			w.Addf(report.DegenerateGeometry, b.Label(), "%v; dropped", err)
		case opts.SkipUnresolved && skippable(err):
			w.Addf(report.Skipped, b.Label(), "%v; dropped", err)
		default:
			return nil, err
		}
		dropped[entityKey{reg.kind, b.Name}] = true
	}
	recs.cascade(dropped, w)
	return recs, nil
}

func skippable(err error) bool {
	var (
		missing *MissingAttributeError
		number  *InvalidNumberError
		value   *InvalidValueError
	)
	return errors.As(err, &missing) || errors.As(err, &number) || errors.As(err, &value)
}

type entityKey struct {
	kind Kind
	name string
}

// Records holds the extracted entities. The typed slices are in source
// order.
type Records struct {
	Meta           []*Meta
	Floors         []*Floor
	Spaces         []*Space
	Polygons       []*Polygon
	Walls          []*Wall
	Windows        []*Opening
	Doors          []*Opening
	Constructions  []*Construction
	Layers         []*Layers
	Materials      []*Material
	Glasses        []*Glass
	Frames         []*Frame
	Gaps           []*Gap
	Shades         []*Shade
	ThermalBridges []*ThermalBridge
	DaySchedules   []*DaySchedule
	WeekSchedules  []*WeekSchedule
	YearSchedules  []*YearSchedule
	Conditions     []*Conditions

	all []Record
}

// Add appends r to the records.
func (rs *Records) Add(r Record) {
	rs.all = append(rs.all, r)
	switch r := r.(type) {
	case *Meta:
		rs.Meta = append(rs.Meta, r)
	case *Floor:
		rs.Floors = append(rs.Floors, r)
	case *Space:
		rs.Spaces = append(rs.Spaces, r)
	case *Polygon:
		rs.Polygons = append(rs.Polygons, r)
	case *Wall:
		rs.Walls = append(rs.Walls, r)
	case *Opening:
		if r.Door {
			rs.Doors = append(rs.Doors, r)
		} else {
			rs.Windows = append(rs.Windows, r)
		}
	case *Construction:
		rs.Constructions = append(rs.Constructions, r)
	case *Layers:
		rs.Layers = append(rs.Layers, r)
	case *Material:
		rs.Materials = append(rs.Materials, r)
	case *Glass:
		rs.Glasses = append(rs.Glasses, r)
	case *Frame:
		rs.Frames = append(rs.Frames, r)
	case *Gap:
		rs.Gaps = append(rs.Gaps, r)
	case *Shade:
		rs.Shades = append(rs.Shades, r)
	case *ThermalBridge:
		rs.ThermalBridges = append(rs.ThermalBridges, r)
	case *DaySchedule:
		rs.DaySchedules = append(rs.DaySchedules, r)
	case *WeekSchedule:
		rs.WeekSchedules = append(rs.WeekSchedules, r)
	case *YearSchedule:
		rs.YearSchedules = append(rs.YearSchedules, r)
	case *Conditions:
		rs.Conditions = append(rs.Conditions, r)
	default:
		panic("bdl: unknown record type")
	}
}

// All returns every record in source order.
func (rs *Records) All() []Record { return slices.Clone(rs.all) }

// Len returns the number of records.
func (rs *Records) Len() int { return len(rs.all) }

// Filter keeps only the records for which keep returns true.
func (rs *Records) Filter(keep func(Record) bool) {
	old := rs.all
	*rs = Records{}
	for _, r := range old {
		if keep(r) {
			rs.Add(r)
		}
	}
}

// MetaBlock returns the meta block of the given type, or nil.
func (rs *Records) MetaBlock(typ string) *Meta {
	for _, m := range rs.Meta {
		if m.Type == typ {
			return m
		}
	}
	return nil
}

// cascade drops every record that refers to a dropped entity, until no
// more records are dropped.
func (rs *Records) cascade(dropped map[entityKey]bool, w *report.Collector) {
	for changed := len(dropped) > 0; changed; {
		changed = false
		rs.Filter(func(r Record) bool {
			for _, ref := range r.References() {
				if !dropped[entityKey{ref.Kind, ref.Name}] {
					continue
				}
				w.Addf(report.DroppedReference, r.RecordName(), "%s %q dropped: %s %s %q was dropped",
					r.Kind(), r.RecordName(), ref.Attr, ref.Kind, ref.Name)
				dropped[entityKey{r.Kind(), r.RecordName()}] = true
				changed = true
				return false
			}
			return true
		})
	}
}
