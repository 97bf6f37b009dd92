package bdl

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/aclements/envelope/internal/report"
)

func extractString(t *testing.T, src string, opts Options) (*Records, *report.Collector, error) {
	t.Helper()
	doc, err := Parse(src)
	require.NoError(t, err)
	w := report.NewCollector(report.StageExtraction)
	recs, err := Extract(doc, opts, w)
	return recs, w, err
}

func codes(w *report.Collector) []report.Code {
	var out []report.Code
	for _, warn := range w.Warnings() {
		out = append(out, warn.Code)
	}
	return out
}

func TestExtractCube(t *testing.T) {
	src, err := os.ReadFile("../../testdata/cube/cube.bdl")
	require.NoError(t, err)
	recs, w, err := extractString(t, string(src), Options{})
	require.NoError(t, err)

	assert.Len(t, recs.Meta, 2)
	assert.Len(t, recs.Floors, 1)
	assert.Len(t, recs.Spaces, 1)
	assert.Len(t, recs.Walls, 6)
	assert.Len(t, recs.Windows, 1)
	assert.Len(t, recs.Doors, 1)
	assert.Len(t, recs.Conditions, 2)
	assert.Len(t, recs.ThermalBridges, 2)
	assert.Equal(t, []report.Code{report.AirChamberThicknessFixed}, codes(w))

	sp := recs.Spaces[0]
	assert.Equal(t, "P01", sp.Floor)
	assert.Equal(t, "P01_E01_POL", sp.Polygon)
	assert.Equal(t, Conditioned, sp.Type)
	assert.True(t, sp.InEnvelope)

	south := recs.Walls[0]
	assert.Equal(t, "P01_E01", south.Space)
	assert.Equal(t, "V1", south.Location)
	assert.True(t, south.OnEdge())
	assert.Equal(t, Exterior, south.Bounds)
	assert.Equal(t, 90.0, south.Tilt)

	top, bottom := recs.Walls[4], recs.Walls[5]
	assert.Equal(t, Adiabatic, top.Bounds)
	assert.Equal(t, 0.0, top.Tilt)
	assert.Equal(t, 180.0, bottom.Tilt)
	assert.Equal(t, 180.0, bottom.Azimuth)

	win := recs.Windows[0]
	assert.Equal(t, "P01_E01_PE001", win.Wall)
	assert.Equal(t, "Hueco tipo", win.Construction)
	assert.Nil(t, win.Overhang)
	assert.Nil(t, win.LeftFin)
	require.NotNil(t, win.RightFin)
	assert.Equal(t, Fin{A: 0, B: 0, Height: 1.5, Depth: 1}, *win.RightFin)

	door := recs.Doors[0]
	assert.True(t, door.Door)
	assert.Equal(t, KindDoor, door.Kind())
	assert.Equal(t, []Ref{{KindWall, "P01_E01_PE004", "WALL"}, {KindConstruction, "Puerta", "CONSTRUCTION"}}, door.References())

	forjado := recs.Layers[1]
	assert.Equal(t, []float64{0.25, 0.05}, forjado.Thickness)
	assert.InDelta(t, 0.30, forjado.TotalThickness(), 1e-12)

	gap := recs.Gaps[0]
	assert.InDelta(t, 0.2, gap.FrameFraction, 1e-12)
	assert.InDelta(t, 0.688, recs.Glasses[0].GGln, 1e-12)

	spc := recs.Conditions[0]
	assert.False(t, spc.System)
	assert.Equal(t, map[string]string{"PEOPLE-SCHEDULE": "Horario anual"}, spc.Schedules)
	assert.Equal(t, "RESIDENTIAL", spc.Attrs["TYPE"])
	assert.Equal(t, KindSystemConditions, recs.Conditions[1].Kind())

	build := recs.MetaBlock("BUILD-PARAMETERS")
	require.NotNil(t, build)
	assert.Equal(t, "0", build.Attrs["AZIMUTH"])
}

const wallsSrc = `"E" = SPACE
  FLOOR = "P"
  POLYGON = "POL"
  ..
"Good" = EXTERIOR-WALL
  CONSTRUCTION = "C"
  TILT = 30
  AZIMUTH = 90
  V1 = ( 0, 0 )
  V2 = ( 1, 0 )
  V3 = ( 1, 1 )
  ..
"Flat" = EXTERIOR-WALL
  CONSTRUCTION = "C"
  V1 = ( 0, 0 )
  V2 = ( 1, 0 )
  ..
"FlatWindow" = WINDOW
  GAP = "G"
  X = 0
  Y = 0
  HEIGHT = 1
  WIDTH = 1
  SETBACK = 0
  ..
"POL" = POLYGON
  V1 = ( 0, 0 )
  V2 = ( 1, 0 )
  V3 = ( 1, 1 )
  ..
`

func TestExtractDegenerateWallIsDropped(t *testing.T) {
	recs, w, err := extractString(t, wallsSrc, Options{})
	require.NoError(t, err)
	require.Len(t, recs.Walls, 1)
	assert.Equal(t, "Good", recs.Walls[0].Name)
	assert.Equal(t, []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}, recs.Walls[0].Vertices)
	assert.Empty(t, recs.Windows)
	assert.Len(t, recs.Spaces, 1)
	assert.Equal(t, []report.Code{report.DegenerateGeometry, report.DroppedReference}, codes(w))
	assert.Equal(t, "Flat", w.Warnings()[0].Entity)
	assert.Equal(t, "FlatWindow", w.Warnings()[1].Entity)
}

func TestExtractDegeneratePolygonCascades(t *testing.T) {
	src := `"E" = SPACE
  FLOOR = "P"
  POLYGON = "POL"
  ..
"M" = EXTERIOR-WALL
  CONSTRUCTION = "C"
  LOCATION = SPACE-V1
  ..
"POL" = POLYGON
  V1 = ( 0, 0 )
  ..
`
	recs, w, err := extractString(t, src, Options{})
	require.NoError(t, err)
	assert.Empty(t, recs.Polygons)
	assert.Empty(t, recs.Spaces)
	assert.Empty(t, recs.Walls)
	assert.Equal(t, []report.Code{report.DegenerateGeometry, report.DroppedReference, report.DroppedReference}, codes(w))
}

func TestExtractMissingAttribute(t *testing.T) {
	src := "\"W\" = EXTERIOR-WALL\n  SPACE = \"E\"\n  ..\n"
	_, _, err := extractString(t, src, Options{})
	var missing *MissingAttributeError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "CONSTRUCTION", missing.Attr)
	assert.Equal(t, "W", missing.Block)
	assert.Equal(t, 1, missing.Pos.Line)
}

func TestExtractSpaceWithoutFloor(t *testing.T) {
	src := "\"E\" = SPACE\n  POLYGON = \"P\"\n  ..\n"
	_, _, err := extractString(t, src, Options{})
	var missing *MissingAttributeError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "FLOOR", missing.Attr)
	assert.Equal(t, "E", missing.Block)

	recs, w, err := extractString(t, src, Options{SkipUnresolved: true})
	require.NoError(t, err)
	assert.Empty(t, recs.Spaces)
	assert.Equal(t, []report.Code{report.Skipped}, codes(w))

	// A FLOOR attribute stands in for the enclosing block.
	recs, _, err = extractString(t, "\"E\" = SPACE\n  FLOOR = \"P\"\n  POLYGON = \"P\"\n  ..\n", Options{})
	require.NoError(t, err)
	require.Len(t, recs.Spaces, 1)
	assert.Equal(t, "P", recs.Spaces[0].Floor)
}

func TestExtractInvalidNumber(t *testing.T) {
	src := "\"F\" = FLOOR\n  SPACE-HEIGHT = \"2,5\"\n  ..\n"
	_, _, err := extractString(t, src, Options{})
	var bad *InvalidNumberError
	require.True(t, errors.As(err, &bad), "got %v", err)
	assert.Equal(t, "SPACE-HEIGHT", bad.Attr)
}

func TestExtractSkipMode(t *testing.T) {
	src := `"F" = FLOOR
  SPACE-HEIGHT = abc
  ..
"E" = SPACE
  POLYGON = "P"
  ..
"G" = FLOOR
  SPACE-HEIGHT = 3
  ..
`
	recs, w, err := extractString(t, src, Options{SkipUnresolved: true})
	require.NoError(t, err)
	require.Len(t, recs.Floors, 1)
	assert.Equal(t, "G", recs.Floors[0].Name)
	assert.Empty(t, recs.Spaces)
	assert.Equal(t, []report.Code{report.Skipped, report.DroppedReference}, codes(w))
}

func TestExtractUnknownAndIgnoredBlocks(t *testing.T) {
	src := "\"X\" = WORK-SPACE\n  ..\nSET-DEFAULT FOR SPACE\n  HEIGHT = 3\n  ..\n"
	recs, w, err := extractString(t, src, Options{})
	require.NoError(t, err)
	assert.Zero(t, recs.Len())
	assert.Equal(t, []report.Code{report.UnknownBlockType}, codes(w))
}

func TestExtractQuirkWarnings(t *testing.T) {
	src := `"E" = SPACE
  FLOOR = "P"
  POLYGON = "P"
  HEIGHT = 2.5
  ..
"M" = UNDERGROUND-WALL
  CONSTRUCTION = "C"
  LOCATION = SPACE-V2
  Z-GROUND = -1
  ..
"S" = UNDERGROUND-FLOOR
  CONSTRUCTION = "C"
  ..
`
	recs, w, err := extractString(t, src, Options{})
	require.NoError(t, err)
	assert.Equal(t, []report.Code{report.SpaceHeightIgnored, report.ZGroundIgnored}, codes(w))
	require.Len(t, recs.Walls, 2)
	assert.Equal(t, Ground, recs.Walls[0].Bounds)
	assert.Equal(t, "BOTTOM", recs.Walls[1].Location)
	assert.Equal(t, 180.0, recs.Walls[1].Tilt)
}

func TestExtractQuirkWarningsOfDroppedBlocks(t *testing.T) {
	src := `"E" = SPACE
  FLOOR = "P"
  HEIGHT = 2.5
  TYPE = HALL
  POLYGON = "P"
  ..
"M" = UNDERGROUND-WALL
  Z-GROUND = -1
  ..
`
	recs, w, err := extractString(t, src, Options{SkipUnresolved: true})
	require.NoError(t, err)
	assert.Empty(t, recs.Spaces)
	assert.Empty(t, recs.Walls)
	// The wall is skipped itself; it does not cascade from its space.
	assert.Equal(t, []report.Code{report.Skipped, report.Skipped}, codes(w))
}

func TestExtractInvalidValues(t *testing.T) {
	for name, src := range map[string]string{
		"location":       "\"M\" = EXTERIOR-WALL\n  SPACE = \"E\"\n  CONSTRUCTION = \"C\"\n  LOCATION = LEFT\n  ..\n",
		"schedule kind":  "\"D\" = DAY-SCHEDULE-PD\n  TYPE = PERCENT\n  VALUES = ( 1 )\n  ..\n",
		"schedule len":   "\"D\" = DAY-SCHEDULE-PD\n  TYPE = FRACTION\n  VALUES = ( 1, 2 )\n  ..\n",
		"layers lengths": "\"L\" = LAYERS\n  MATERIAL = ( \"A\", \"B\" )\n  THICKNESS = ( 0.1 )\n  ..\n",
		"interior type":  "\"M\" = INTERIOR-WALL\n  SPACE = \"E\"\n  CONSTRUCTION = \"C\"\n  INT-WALL-TYPE = AIR\n  ..\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := extractString(t, src, Options{})
			var bad *InvalidValueError
			assert.True(t, errors.As(err, &bad), "got %v", err)
		})
	}
}

func TestExtractUninhabitedAirtightness(t *testing.T) {
	src := "\"E\" = SPACE\n  FLOOR = \"P\"\n  TYPE = UNHABITED\n  POLYGON = \"P\"\n  SPACE-CONDITIONS = \"NIVEL_ESTANQUEIDAD_3\"\n  ..\n"
	recs, _, err := extractString(t, src, Options{})
	require.NoError(t, err)
	sp := recs.Spaces[0]
	assert.Equal(t, Uninhabited, sp.Type)
	assert.False(t, sp.InEnvelope)
	assert.Empty(t, sp.SpaceConditions)
	require.NotNil(t, sp.AirChanges)
	assert.Equal(t, 1.0, *sp.AirChanges)
}
