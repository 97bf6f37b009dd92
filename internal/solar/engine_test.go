package solar

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aclements/envelope/internal/bdl"
	"github.com/aclements/envelope/internal/geom"
	"github.com/aclements/envelope/internal/model"
	"github.com/aclements/envelope/internal/report"
)

const cubeWindow = "P01_E01_PE001_V"

// stubClimate serves fixed samples keyed by month and hour. Every other
// hour is night.
type stubClimate map[[2]int]Sample

func (c stubClimate) PositionFor(day Day, hour int) (Sample, error) {
	s, ok := c[[2]int{int(day.Month), hour}]
	if !ok {
		return Sample{Day: day, Hour: hour, Altitude: -10}, nil
	}
	s.Day, s.Hour = day, hour
	return s, nil
}

// julyClimate has the sun behind the south wall at 8:30 and in the
// south-east, 45° high, at 12:30.
var julyClimate = stubClimate{
	{7, 8}:  {Altitude: 20, Azimuth: 45, DNI: 500, DHI: 80},
	{7, 12}: {Altitude: 45, Azimuth: 135, DNI: 800, DHI: 100},
}

// The right fin of the cube window shades a parallelogram of
// 1.5 - √2/2 m² of the 3 m² window at 12:30.
var noonSunlit = 1 - (1.5-math.Sqrt2/2)/3

func cube(t *testing.T) (*model.Index, *model.Geometry) {
	t.Helper()
	src, err := os.ReadFile("../../testdata/cube/cube.bdl")
	require.NoError(t, err)
	doc, err := bdl.Parse(string(src))
	require.NoError(t, err)
	recs, err := bdl.Extract(doc, bdl.Options{}, report.NewCollector(report.StageExtraction))
	require.NoError(t, err)
	x, err := model.Link(recs)
	require.NoError(t, err)
	g, err := model.NewResolver(zap.NewNop()).Resolve(x, report.NewCollector(report.StageGeometry))
	require.NoError(t, err)
	return x, g
}

func TestFinObstruction(t *testing.T) {
	x, g := cube(t)
	e := NewEngine(julyClimate, zap.NewNop())

	points, err := e.Trace(context.Background(), x, g, cubeWindow)
	require.NoError(t, err)
	require.Len(t, points, 2)

	behind := points[0]
	assert.Equal(t, 8, behind.Hour)
	assert.True(t, behind.Behind)
	assert.Equal(t, 0.0, behind.Sunlit)

	noon := points[1]
	assert.Equal(t, 12, noon.Hour)
	assert.False(t, noon.Behind)
	assert.InDelta(t, noonSunlit, noon.Sunlit, 1e-5)
	assert.InDelta(t, 400, noon.Dir, 1e-6)

	fs, w, err := e.Run(context.Background(), x, g)
	require.NoError(t, err)
	require.Contains(t, fs, cubeWindow)
	f := fs[cubeWindow]

	// The behind sample does not count, so the factor only weighs the
	// noon sample.
	dir := 800 * 0.5
	dif := 100*0.5 + (100+800*math.Sqrt2/2)*0.2*0.5
	want := math.Round((noonSunlit*dir+dif)/(dir+dif)*100) / 100
	assert.Equal(t, 0.8, want)
	assert.Equal(t, want, f.July)
	assert.Greater(t, f.July, 0.0)
	assert.Less(t, f.July, 1.0)
	assert.Equal(t, f.July, f.Summer)
	assert.Equal(t, f.July, f.Year)
	assert.Equal(t, 1.0, f.Winter)

	ws := w.Warnings()
	require.Len(t, ws, 1)
	assert.Equal(t, report.NoValidSamples, ws[0].Code)
	assert.Equal(t, cubeWindow, ws[0].Entity)
	assert.Contains(t, ws[0].Message, "winter")
}

func TestMethodsAgree(t *testing.T) {
	x, g := cube(t)
	e := NewEngine(julyClimate, zap.NewNop())
	e.Method = MethodRays

	points, err := e.Trace(context.Background(), x, g, cubeWindow)
	require.NoError(t, err)
	// 10 × 8 rays resolve the fin's shadow to a few percent.
	assert.InDelta(t, noonSunlit, points[1].Sunlit, 0.03)
	assert.True(t, points[0].Behind)
}

// addShade puts a building shade with the given outline in the plane
// 1 m south of the cube's south wall. Its (x, z) points are in meters.
func addShade(x *model.Index, g *model.Geometry, name string, outline [][2]float64) {
	var pts []r3.Vec
	for _, p := range outline {
		pts = append(pts, r3.Vec{X: p[0], Y: -1, Z: p[1]})
	}
	x.Records().Shades = append(x.Records().Shades, &bdl.Shade{Name: name})
	g.Shades[name] = &model.ShadeGeometry{Points: pts}
}

func pentagram(cx, cz, r float64) [][2]float64 {
	var out [][2]float64
	for k := 0; k < 5; k++ {
		a := math.Pi/2 + float64(k)*4*math.Pi/5
		out = append(out, [2]float64{cx + r*math.Cos(a), cz + r*math.Sin(a)})
	}
	return out
}

func TestSelfIntersectingShadeSkipsSamples(t *testing.T) {
	for name, outline := range map[string][][2]float64{
		"bowtie":    {{3, 1}, {9, 5}, {9, 1}, {3, 4}},
		"pentagram": pentagram(6, 3.2, 3),
	} {
		for _, method := range []Method{MethodClip, MethodRays} {
			t.Run(name+"/"+string(method), func(t *testing.T) {
				x, g := cube(t)
				addShade(x, g, "TOLDO", outline)
				e := NewEngine(julyClimate, zap.NewNop())
				e.Method = method

				points, err := e.Trace(context.Background(), x, g, cubeWindow)
				require.NoError(t, err)
				require.Len(t, points, 2)
				assert.True(t, points[0].Behind)
				assert.False(t, points[0].Skipped)
				assert.True(t, points[1].Skipped)
				assert.Contains(t, points[1].Reason, "TOLDO")
				assert.Contains(t, points[1].Reason, geom.ErrNotSimple.Error())

				fs, w, err := e.Run(context.Background(), x, g)
				require.NoError(t, err)
				assert.Equal(t, 1.0, fs[cubeWindow].July)

				var skipped []report.Warning
				for _, warn := range w.Warnings() {
					if warn.Code == report.SampleSkipped {
						skipped = append(skipped, warn)
					}
				}
				require.Len(t, skipped, 1)
				assert.Equal(t, cubeWindow, skipped[0].Entity)
				assert.Contains(t, skipped[0].Message, "1 of 2 samples skipped")
			})
		}
	}
}

func TestSimpleShadeBlocksWindow(t *testing.T) {
	x, g := cube(t)
	// The window's noon shadow on the shade plane is x 5..7, z 2.4..3.9.
	addShade(x, g, "TOLDO", [][2]float64{{0, 0}, {12, 0}, {12, 7}, {0, 7}})
	e := NewEngine(julyClimate, zap.NewNop())

	points, err := e.Trace(context.Background(), x, g, cubeWindow)
	require.NoError(t, err)
	assert.False(t, points[1].Skipped)
	assert.InDelta(t, 0, points[1].Sunlit, 1e-9)
}

func TestUnshadedWindow(t *testing.T) {
	x, g := cube(t)
	o := x.Records().Windows[0]
	o.RightFin = nil

	e := NewEngine(julyClimate, zap.NewNop())
	fs, _, err := e.Run(context.Background(), x, g)
	require.NoError(t, err)
	assert.Equal(t, 1.0, fs[cubeWindow].July)
}

func TestFshobstOverrideSkipsWindow(t *testing.T) {
	x, g := cube(t)
	require.NoError(t, x.ApplyOverrides("overrides.yaml", []model.Target{{
		Kind:     bdl.KindWindow,
		Name:     cubeWindow,
		Override: bdl.Override{Kind: bdl.OverrideFshobst, Value: 0.5},
	}}))

	fs, w, err := NewEngine(julyClimate, zap.NewNop()).Run(context.Background(), x, g)
	require.NoError(t, err)
	assert.NotContains(t, fs, cubeWindow)
	assert.Zero(t, w.Len())
}

func TestRunCanceled(t *testing.T) {
	x, g := cube(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewEngine(julyClimate, zap.NewNop()).Run(ctx, x, g)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNoClimate(t *testing.T) {
	x, g := cube(t)
	_, _, err := NewEngine(nil, zap.NewNop()).Run(context.Background(), x, g)
	var nce *NoClimateDataError
	assert.True(t, errors.As(err, &nce))
}

func TestCache(t *testing.T) {
	x, g := cube(t)
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)
	cache, err := OpenCache(t.TempDir(), log)
	require.NoError(t, err)

	run := func() map[string]Factors {
		e := NewEngine(julyClimate, log)
		e.Cache = cache
		fs, w, err := e.Run(context.Background(), x, g)
		require.NoError(t, err)
		assert.Equal(t, 1, w.Len())
		return fs
	}
	first := run()
	second := run()
	assert.Equal(t, first, second)

	entries := logs.FilterMessage("computed obstruction factors").All()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(0), entries[0].ContextMap()["cached"])
	assert.Equal(t, int64(1), entries[1].ContextMap()["cached"])
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("rays")
	require.NoError(t, err)
	assert.Equal(t, MethodRays, m)
	_, err = ParseMethod("pov")
	assert.Error(t, err)
}

func TestPeriods(t *testing.T) {
	in := func(p Period) []int {
		var ms []int
		for _, d := range Days() {
			if p.contains(d.Month) {
				ms = append(ms, int(d.Month))
			}
		}
		return ms
	}
	assert.Equal(t, []int{7}, in(July))
	assert.Equal(t, []int{6, 7, 8, 9}, in(Summer))
	assert.Equal(t, []int{1, 2, 12}, in(Winter))
	assert.Len(t, in(Year), 12)
}

func TestChart(t *testing.T) {
	x, g := cube(t)
	points, err := NewEngine(julyClimate, zap.NewNop()).Trace(context.Background(), x, g, cubeWindow)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteChart(&buf, SunlitChart(cubeWindow, points)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}
