// Package convert runs the conversion pipeline on a loaded project: it
// parses the building description, links and resolves it, computes the
// window obstruction factors and assembles the model.
package convert

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aclements/envelope/internal/bdl"
	"github.com/aclements/envelope/internal/model"
	"github.com/aclements/envelope/internal/project"
	"github.com/aclements/envelope/internal/report"
	"github.com/aclements/envelope/internal/solar"
)

// Options control a conversion.
type Options struct {
	SkipUnresolved bool

	// Climate is the climate source of the obstruction engine. If nil,
	// the climate zone of the project, or Zone if set, picks one.
	Climate solar.Climate
	Zone    string

	Method  solar.Method
	Workers int
	// Cache, if not nil, stores obstruction factors across runs.
	Cache *solar.Cache
}

// A Converter runs conversions. Its geometry memo persists across runs,
// so converting an edited project again only recomputes what changed.
// A Converter is not safe for concurrent use.
type Converter struct {
	Options

	log      *zap.Logger
	resolver *model.Resolver
}

func New(opts Options, log *zap.Logger) *Converter {
	return &Converter{
		Options:  opts,
		log:      log,
		resolver: model.NewResolver(log.Named("resolve")),
	}
}

// Prepared is a linked and resolved project, ready for the obstruction
// engine.
type Prepared struct {
	Project  *project.Project
	Document *bdl.Document
	Index    *model.Index
	Geometry *model.Geometry
	// Zone is the climate zone the project declares, or "".
	Zone       string
	NorthAngle float64

	extraction *report.Collector
	geometry   *report.Collector
}

// Warnings returns the warnings of the stages run so far.
func (p *Prepared) Warnings() []report.Warning {
	return report.Ordered(p.extraction, p.geometry)
}

// Prepare parses, links and resolves the project and applies its
// overrides. Results-file overrides apply before overrides.yaml, so the
// user's overrides win.
func (c *Converter) Prepare(p *project.Project) (*Prepared, error) {
	start := time.Now()
	doc, err := bdl.Parse(p.BDL)
	if err != nil {
		return nil, err
	}
	xw := report.NewCollector(report.StageExtraction)
	recs, err := bdl.Extract(doc, bdl.Options{SkipUnresolved: c.SkipUnresolved}, xw)
	if err != nil {
		return nil, err
	}
	x, err := model.Link(recs)
	if err != nil {
		return nil, err
	}

	if p.KyG != nil {
		ts := matchedTargets(x, p.KyG.Targets(), xw)
		if err := x.ApplyOverrides(p.Files.KyG, ts); err != nil {
			return nil, err
		}
	}
	if err := x.ApplyOverrides(p.Files.Overrides, p.Overrides); err != nil {
		return nil, err
	}

	northAngle, err := northAngle(recs)
	if err != nil {
		return nil, err
	}

	c.resolver.SkipUnresolved = c.SkipUnresolved
	gw := report.NewCollector(report.StageGeometry)
	geo, err := c.resolver.Resolve(x, gw)
	if err != nil {
		return nil, err
	}

	zone := p.Zone
	if zone == "" {
		if g := recs.MetaBlock("GENERAL-DATA"); g != nil {
			zone = g.Attrs["ZONA"]
		}
	}
	c.log.Info("prepared project",
		zap.String("project", p.Name),
		zap.Int("records", recs.Len()),
		zap.Int("warnings", xw.Len()+gw.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return &Prepared{
		Project:    p,
		Document:   doc,
		Index:      x,
		Geometry:   geo,
		Zone:       zone,
		NorthAngle: northAngle,
		extraction: xw,
		geometry:   gw,
	}, nil
}

// matchedTargets drops results-file targets that name no record. The
// results file covers elements the building file leaves implicit, such as
// adiabatic walls the tool generates.
func matchedTargets(x *model.Index, ts []model.Target, w *report.Collector) []model.Target {
	var out []model.Target
	for _, t := range ts {
		if _, ok := x.Lookup(t.Kind, t.Name); !ok {
			w.Addf(report.UnmatchedSideTable, t.Name, "results file %s has no matching %s", t.Override.Kind, t.Kind)
			continue
		}
		out = append(out, t)
	}
	return out
}

// northAngle returns the building azimuth declared by BUILD-PARAMETERS,
// in degrees, or 0.
func northAngle(recs *bdl.Records) (float64, error) {
	m := recs.MetaBlock("BUILD-PARAMETERS")
	if m == nil {
		return 0, nil
	}
	s, ok := m.Attrs["AZIMUTH"]
	if !ok {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &bdl.InvalidNumberError{Block: m.Name, Attr: "AZIMUTH", Text: s, Pos: m.Pos, Err: err}
	}
	return v, nil
}

// Engine returns an obstruction engine for the prepared project.
func (c *Converter) Engine(p *Prepared) (*solar.Engine, error) {
	cl := c.Climate
	if cl == nil {
		zone := c.Zone
		if zone == "" {
			zone = p.Zone
		}
		zc, err := solar.ZoneClimate(zone)
		if err != nil {
			return nil, err
		}
		cl = zc
	}
	e := solar.NewEngine(cl, c.log.Named("solar"))
	e.Method = c.Method
	if e.Method == "" {
		e.Method = solar.MethodClip
	}
	e.Workers = c.Workers
	e.NorthAngle = p.NorthAngle
	e.Cache = c.Cache
	return e, nil
}

// Convert runs the whole pipeline on p.
func (c *Converter) Convert(ctx context.Context, p *project.Project) (*model.Model, error) {
	prep, err := c.Prepare(p)
	if err != nil {
		return nil, err
	}
	e, err := c.Engine(prep)
	if err != nil {
		return nil, fmt.Errorf("obstruction: %w", err)
	}
	factors, sw, err := e.Run(ctx, prep.Index, prep.Geometry)
	if err != nil {
		return nil, fmt.Errorf("obstruction: %w", err)
	}
	obst := make(map[string]model.Obstruction, len(factors))
	for name, f := range factors {
		obst[name] = model.Obstruction{July: f.July, Summer: f.Summer, Winter: f.Winter, Year: f.Year}
	}

	meta := model.Meta{
		Name:       p.Name,
		Climate:    climateName(e.Climate),
		NorthAngle: prep.NorthAngle,
		Preamble:   prep.Document.Preamble,
	}
	switch cl := e.Climate.(type) {
	case *solar.LocationClimate:
		meta.Latitude, meta.Longitude = cl.Latitude, cl.Longitude
	}

	m, err := model.Assemble(&model.Inputs{
		Index:       prep.Index,
		Geometry:    prep.Geometry,
		Meta:        meta,
		Obstruction: obst,
		Side:        p.Side(),
		Reports:     []*report.Collector{prep.extraction, prep.geometry, sw},
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func climateName(c solar.Climate) string {
	switch c := c.(type) {
	case *solar.LocationClimate:
		return c.Name
	case *solar.TableClimate:
		return c.Name
	}
	return ""
}
