// Package solar computes how much of the direct sunlight reaching each
// window is blocked by the building itself and by shading surfaces.
package solar

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aclements/envelope/internal/bdl"
	"github.com/aclements/envelope/internal/geom"
	"github.com/aclements/envelope/internal/model"
	"github.com/aclements/envelope/internal/report"
)

// Method selects how the sunlit fraction of a window is computed.
type Method string

const (
	// MethodClip projects the window and its shaders along the sun ray
	// and subtracts the shaders' shadows polygonally.
	MethodClip Method = "clip"
	// MethodRays traces rays towards the sun from a grid of points on
	// the window.
	MethodRays Method = "rays"
)

func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodClip, MethodRays:
		return m, nil
	}
	return "", fmt.Errorf("unknown obstruction method %q (want %q or %q)", s, MethodClip, MethodRays)
}

// A Period is a range of months over which factors are averaged.
type Period int

const (
	July Period = iota
	Summer
	Winter
	Year

	numPeriods
)

var periodNames = [...]string{"july", "summer", "winter", "year"}

func (p Period) String() string { return periodNames[p] }

func (p Period) contains(m time.Month) bool {
	switch p {
	case July:
		return m == time.July
	case Summer:
		return m >= time.June && m <= time.September
	case Winter:
		return m == time.December || m <= time.February
	}
	return true
}

// Factors are the obstruction factors of a window per period: the
// fraction of the solar radiation on the window that is not blocked.
type Factors struct {
	July, Summer, Winter, Year float64
}

func (f *Factors) set(p Period, v float64) {
	switch p {
	case July:
		f.July = v
	case Summer:
		f.Summer = v
	case Winter:
		f.Winter = v
	case Year:
		f.Year = v
	}
}

// Get returns the factor of period p.
func (f Factors) Get(p Period) float64 {
	return [...]float64{f.July, f.Summer, f.Winter, f.Year}[p]
}

// View factors of the sky and the ground for the diffuse radiation on a
// window, and the ground albedo.
const (
	skyViewFactor    = 0.5
	groundViewFactor = 0.5
	albedo           = 0.2
)

// A SamplePoint is the state of a window at one sample.
type SamplePoint struct {
	Sample

	// Sunlit is the fraction of the window in direct sunlight.
	Sunlit float64

	// Dir and Dif are the direct and diffuse irradiance on the window
	// plane, in W/m².
	Dir, Dif float64

	// Behind is set if the sun is behind the window's wall. Such samples
	// do not count towards the factors.
	Behind bool

	// Skipped is set if the sample could not be computed. Reason says
	// why.
	Skipped bool
	Reason  string
}

// An Engine computes window obstruction factors.
type Engine struct {
	Climate Climate
	Method  Method

	// Workers bounds the number of windows computed in parallel. Zero
	// means GOMAXPROCS.
	Workers int

	// NorthAngle is the compass azimuth of the building's Y axis, in
	// degrees.
	NorthAngle float64

	// Cache, if not nil, stores per-window results across runs.
	Cache *Cache

	log *zap.Logger
}

func NewEngine(c Climate, log *zap.Logger) *Engine {
	return &Engine{Climate: c, Method: MethodClip, log: log}
}

// engineVersion is part of every cache key. Change it when the results
// of the computation change.
const engineVersion = "obstruction/2"

// Samples returns the daylight samples of the climate: every hour of the
// representative day of each month at which the sun is above the
// horizon.
func (e *Engine) Samples() ([]Sample, error) {
	if e.Climate == nil {
		return nil, &NoClimateDataError{Source: "project", Msg: "no climate configured"}
	}
	var out []Sample
	for _, day := range Days() {
		for hour := 0; hour < 24; hour++ {
			s, err := e.Climate.PositionFor(day, hour)
			if err != nil {
				return nil, err
			}
			if s.Altitude <= 0 {
				continue
			}
			out = append(out, s)
		}
	}
	return out, nil
}

type windowResult struct {
	Factors  Factors
	Warnings []report.Warning
}

// Run computes the obstruction factors of every window on an exterior
// wall that does not carry an fshobst override. The result is keyed by
// window name.
func (e *Engine) Run(ctx context.Context, x *model.Index, g *model.Geometry) (map[string]Factors, *report.Collector, error) {
	w := report.NewCollector(report.StageObstruction)
	samples, err := e.Samples()
	if err != nil {
		return nil, nil, err
	}
	scene := NewScene(x, g)
	targets := e.targets(scene, x, g, w)

	results := make([]windowResult, len(targets))
	cached := make([]bool, len(targets))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.workers())
	for i, t := range targets {
		eg.Go(func() error {
			r, hit, err := e.window(ctx, t, samples)
			if err != nil {
				return fmt.Errorf("window %q: %w", t.Name, err)
			}
			results[i], cached[i] = r, hit
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	out := make(map[string]Factors, len(targets))
	hits := 0
	for i, t := range targets {
		out[t.Name] = results[i].Factors
		for _, wn := range results[i].Warnings {
			w.Addf(wn.Code, wn.Entity, "%s", wn.Message)
		}
		if cached[i] {
			hits++
		}
	}
	e.log.Info("computed obstruction factors",
		zap.Int("windows", len(targets)),
		zap.Int("samples", len(samples)),
		zap.Int("shaders", scene.Len()),
		zap.String("method", string(e.Method)),
		zap.Int("cached", hits))
	return out, w, nil
}

// Trace returns the per-sample state of the named window.
func (e *Engine) Trace(ctx context.Context, x *model.Index, g *model.Geometry, window string) ([]SamplePoint, error) {
	var o *bdl.Opening
	for _, w := range x.Records().Windows {
		if w.Name == window {
			o = w
			break
		}
	}
	if o == nil {
		return nil, fmt.Errorf("no window named %q", window)
	}
	wg, og := g.Walls[o.Wall], g.Openings[o.Name]
	if !placed(wg, og) {
		return nil, &model.InsufficientGeometryError{Kind: bdl.KindWindow, Name: window, Msg: "window is not placed in space"}
	}
	samples, err := e.Samples()
	if err != nil {
		return nil, err
	}
	return e.trace(ctx, NewScene(x, g).newTarget(o, wg, og), samples)
}

func (e *Engine) workers() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func placed(wg *model.WallGeometry, og *model.OpeningGeometry) bool {
	return wg != nil && og != nil && len(wg.Polygon) >= 3 && len(og.Rect) >= 3
}

func (e *Engine) targets(s *Scene, x *model.Index, g *model.Geometry, w *report.Collector) []*target {
	var ts []*target
	for _, o := range x.Records().Windows {
		wall := x.Wall(o.Wall)
		if wall == nil || wall.Bounds != bdl.Exterior {
			continue
		}
		if _, ok := o.Overrides.Lookup(bdl.OverrideFshobst); ok {
			continue
		}
		wg, og := g.Walls[o.Wall], g.Openings[o.Name]
		if !placed(wg, og) {
			w.Addf(report.InsufficientGeometry, o.Name, "window is not placed in space; obstruction not computed")
			continue
		}
		ts = append(ts, s.newTarget(o, wg, og))
	}
	return ts
}

// window computes the factors of t, consulting the cache. It reports
// whether the result came from the cache.
func (e *Engine) window(ctx context.Context, t *target, samples []Sample) (windowResult, bool, error) {
	var key model.Key
	if e.Cache != nil {
		key = model.MakeKey(engineVersion, e.Method, e.NorthAngle, t, samples)
		var r windowResult
		if e.Cache.Load(key, &r) {
			return r, true, nil
		}
	}

	points, err := e.trace(ctx, t, samples)
	if err != nil {
		return windowResult{}, false, err
	}
	r := summarize(t.Name, points)
	e.log.Debug("window obstruction",
		zap.String("window", t.Name),
		zap.Float64("july", r.Factors.July),
		zap.Float64("year", r.Factors.Year))

	if e.Cache != nil {
		e.Cache.Save(key, r)
	}
	return r, false, nil
}

// trace computes the sunlit fraction of t at every sample.
func (e *Engine) trace(ctx context.Context, t *target, samples []Sample) ([]SamplePoint, error) {
	win := t.Window()
	n := t.Frame.N

	var rays *rayTracer
	if e.Method == MethodRays {
		rays = newRayTracer(t)
	}

	points := make([]SamplePoint, len(samples))
	for i, s := range samples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := &points[i]
		p.Sample = s

		toSun := s.SunPos().ToSun(e.NorthAngle)
		cos := r3.Dot(toSun, n)
		if cos <= 0 {
			// The ray towards the window travels along the outward
			// normal, so it reaches the wall from inside.
			p.Behind = true
			continue
		}
		p.Dir = s.DNI * cos
		p.Dif = diffuse(s)

		var err error
		switch e.Method {
		case MethodRays:
			p.Sunlit, err = rays.sunlit(toSun)
		default:
			p.Sunlit, err = sunlitClip(t, win, toSun)
		}
		if err != nil {
			p.Skipped, p.Reason = true, err.Error()
		}
	}
	return points, nil
}

// diffuse returns the diffuse irradiance on a window. The sky and ground
// view factors are fixed rather than derived from the window's tilt.
func diffuse(s Sample) float64 {
	return s.DHI*skyViewFactor + s.GHI()*albedo*groundViewFactor
}

// summarize computes the period factors of a window from its samples.
func summarize(name string, points []SamplePoint) windowResult {
	var num, den [numPeriods]float64
	var valid [numPeriods]int
	skipped := 0
	var firstReason string
	for _, p := range points {
		if p.Skipped {
			if skipped == 0 {
				firstReason = p.Reason
			}
			skipped++
			continue
		}
		if p.Behind {
			continue
		}
		for per := Period(0); per < numPeriods; per++ {
			if !per.contains(p.Day.Month) {
				continue
			}
			num[per] += p.Sunlit*p.Dir + p.Dif
			den[per] += p.Dir + p.Dif
			valid[per]++
		}
	}

	var r windowResult
	var empty []string
	for per := Period(0); per < numPeriods; per++ {
		f := 1.0
		if valid[per] > 0 && den[per] > 0 {
			f = round2(num[per] / den[per])
		} else {
			empty = append(empty, per.String())
		}
		r.Factors.set(per, f)
	}
	if skipped > 0 {
		r.Warnings = append(r.Warnings, report.Warning{
			Stage:   report.StageObstruction,
			Code:    report.SampleSkipped,
			Entity:  name,
			Message: fmt.Sprintf("%d of %d samples skipped; first: %s", skipped, len(points), firstReason),
		})
	}
	if len(empty) > 0 {
		r.Warnings = append(r.Warnings, report.Warning{
			Stage:   report.StageObstruction,
			Code:    report.NoValidSamples,
			Entity:  name,
			Message: fmt.Sprintf("no valid samples for %v; factor taken as 1", empty),
		})
	}
	return r
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }

// errDegenerateOpening is reported for a window seen edge-on from the sun.
var errDegenerateOpening = errors.New("projected opening has no area")

// sunlitClip computes the sunlit fraction of window polygon win by
// projecting it and the shaders of t along the sun direction and
// subtracting the shaders.
func sunlitClip(t *target, win []r3.Vec, toSun r3.Vec) (float64, error) {
	proj := geom.NewProjector(toSun)
	wp := proj.Project(win).Clean()
	area := wp.Area()
	if len(wp) < 3 || area < geom.Eps {
		return 0, errDegenerateOpening
	}

	// Only the part of a shader in front of the window plane can cast a
	// shadow on it.
	origin, n := win[0], t.Frame.N
	var clips []geom.Polygon
	for _, sh := range t.Shaders {
		front := clipFront(sh.Points, origin, n)
		if front == nil {
			continue
		}
		sp := proj.Project(front).Clean()
		if len(sp) < 3 || sp.Area() < geom.Eps {
			// Edge-on.
			continue
		}
		pieces, err := geom.Triangulate(sp)
		if err != nil {
			return 0, fmt.Errorf("projected shader %s: %w", shaderName(sh), err)
		}
		clips = append(clips, pieces...)
	}
	rest := geom.SubtractAll([]geom.Polygon{wp}, clips)
	return math.Min(1, geom.TotalArea(rest)/area), nil
}

func shaderName(sh shader) string {
	if sh.Owner == "" {
		return "window accessory"
	}
	return fmt.Sprintf("%q", sh.Owner)
}
