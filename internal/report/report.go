// Package report collects the non-fatal diagnostics produced while
// converting a project.
package report

import (
	"fmt"
	"sort"
)

// Stage identifies the pipeline stage that emitted a warning. Stages are
// ordered: warnings of an earlier stage always precede those of a later
// one in a merged report.
type Stage int

const (
	StageExtraction Stage = iota
	StageGeometry
	StageObstruction
	StageAssembly
)

var stageNames = [...]string{"extraction", "geometry", "obstruction", "assembly"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

func (s Stage) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(stageNames) {
		return nil, fmt.Errorf("unknown stage %d", int(s))
	}
	return []byte(stageNames[s]), nil
}

func (s *Stage) UnmarshalText(text []byte) error {
	for i, name := range stageNames {
		if name == string(text) {
			*s = Stage(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", text)
}

// Code is a stable machine-readable warning identifier.
type Code string

const (
	UnknownBlockType         Code = "UnknownBlockType"
	ZGroundIgnored           Code = "ZGroundIgnored"
	SpaceHeightIgnored       Code = "SpaceHeightIgnored"
	AirChamberThicknessFixed Code = "AirChamberThicknessFixed"
	DegenerateGeometry       Code = "DegenerateGeometry"
	Skipped                  Code = "Skipped"
	DroppedReference         Code = "DroppedReference"
	OpeningOutsideWall       Code = "OpeningOutsideWall"
	InsufficientGeometry     Code = "InsufficientGeometry"
	ClockwisePolygon         Code = "ClockwisePolygon"
	SampleSkipped            Code = "SampleSkipped"
	NoValidSamples           Code = "NoValidSamples"
	AreaMismatch             Code = "AreaMismatch"
	UnmatchedSideTable       Code = "UnmatchedSideTable"
	OverrideApplied          Code = "OverrideApplied"
)

// A Warning is a recoverable problem attached to the converted model.
type Warning struct {
	Stage   Stage  `json:"stage"`
	Code    Code   `json:"code"`
	Entity  string `json:"entity,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Entity == "" {
		return fmt.Sprintf("[%s] %s: %s", w.Stage, w.Code, w.Message)
	}
	return fmt.Sprintf("[%s] %s %q: %s", w.Stage, w.Code, w.Entity, w.Message)
}

// A Collector accumulates warnings for a single stage in emission order.
//
// A Collector is not safe for concurrent use. Parallel stages give each
// task its own Collector and merge them in task order.
type Collector struct {
	stage    Stage
	warnings []Warning
}

func NewCollector(stage Stage) *Collector {
	return &Collector{stage: stage}
}

func (c *Collector) Stage() Stage { return c.stage }

// Addf records a warning about entity.
func (c *Collector) Addf(code Code, entity, format string, args ...any) {
	c.warnings = append(c.warnings, Warning{
		Stage:   c.stage,
		Code:    code,
		Entity:  entity,
		Message: fmt.Sprintf(format, args...),
	})
}

// Merge appends other's warnings after c's. The warnings keep their
// original stage.
func (c *Collector) Merge(other *Collector) {
	if other == nil {
		return
	}
	c.warnings = append(c.warnings, other.warnings...)
}

func (c *Collector) Len() int { return len(c.warnings) }

// Warnings returns a copy of the collected warnings.
func (c *Collector) Warnings() []Warning {
	return append([]Warning(nil), c.warnings...)
}

// Ordered merges the warnings of several collectors into a single list
// ordered by stage, keeping emission order within a stage.
func Ordered(cs ...*Collector) []Warning {
	var all []Warning
	for _, c := range cs {
		if c != nil {
			all = append(all, c.warnings...)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Stage < all[j].Stage
	})
	return all
}
