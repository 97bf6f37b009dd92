package solar

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// between returns whether x is in [a, b].
func assertBetween(t *testing.T, msg string, x, a, b float64) {
	t.Helper()
	if a <= x && x <= b {
		return
	}
	t.Errorf("got %s = %v, want in range [%v, %v]", msg, x, a, b)
}

func TestGlobalIntensity(t *testing.T) {
	// These tests are based on the tables at
	// https://www.ftexploring.com/solar-energy/air-mass-and-insolation2.htm

	p := SunPos{Altitude: 90}
	assertBetween(t, "GlobalIntensity at 90°", p.GlobalIntensity(0), 1041, 1042)

	p = SunPos{Altitude: 1}
	assertBetween(t, "GlobalIntensity at 1°", p.GlobalIntensity(0), 56, 57)

	p = SunPos{Altitude: 0}
	assertBetween(t, "GlobalIntensity at 0°", p.GlobalIntensity(0), 22.4, 22.5)

	p = SunPos{Altitude: -5}
	assert.Equal(t, 0.0, p.GlobalIntensity(0))

	dir, dif := SunPos{Altitude: 60}.Irradiance(1000)
	hi, _ := SunPos{Altitude: 60}.Irradiance(0)
	assert.Greater(t, dir, hi, "thinner air at altitude")
	assert.InDelta(t, 0.1*dir, dif, 1e-9)
}

func TestToSun(t *testing.T) {
	assertVec := func(want, got r3.Vec) {
		t.Helper()
		assert.InDelta(t, want.X, got.X, 1e-9)
		assert.InDelta(t, want.Y, got.Y, 1e-9)
		assert.InDelta(t, want.Z, got.Z, 1e-9)
	}
	assertVec(r3.Vec{Z: 1}, SunPos{Altitude: 90}.ToSun(0))
	assertVec(r3.Vec{X: 1}, SunPos{Azimuth: 90}.ToSun(0))
	assertVec(r3.Vec{Y: -1}, SunPos{Azimuth: 180}.ToSun(0))
	// A building turned 90° east has its Y axis towards the east.
	assertVec(r3.Vec{Y: 1}, SunPos{Azimuth: 90}.ToSun(90))

	r := SunPos{Azimuth: 180}.Ray(r3.Vec{Z: 2}, 0)
	assertVec(r3.Vec{Y: -3, Z: 2}, r.Along(3))
}

func TestZoneClimate(t *testing.T) {
	c, err := ZoneClimate("D3")
	require.NoError(t, err)
	assert.Equal(t, 40.68333, c.Latitude)
	assert.Equal(t, "D3", c.Name)

	c, err = ZoneClimate("alpha3c")
	require.NoError(t, err)
	assert.Equal(t, 28.325, c.Latitude)
	assert.Equal(t, -16.36666, c.Longitude)

	c, err = ZoneClimate("a3c")
	require.NoError(t, err)
	assert.Equal(t, 28.325, c.Latitude)

	for _, zone := range []string{"", "F1", "D5", "alpha3", "madrid"} {
		_, err := ZoneClimate(zone)
		var nce *NoClimateDataError
		assert.True(t, errors.As(err, &nce), "zone %q", zone)
	}
}

func TestZoneClimateSamples(t *testing.T) {
	c, err := ZoneClimate("D3")
	require.NoError(t, err)

	july := Day{time.July, 17}
	s, err := c.PositionFor(july, 12)
	require.NoError(t, err)
	// Late morning in solar time: high in the south-east.
	assertBetween(t, "altitude", s.Altitude, 60, 71)
	assertBetween(t, "azimuth", s.Azimuth, 130, 170)
	assert.Greater(t, s.DNI, 0.0)
	assert.Greater(t, s.GHI(), s.DHI)

	s, err = c.PositionFor(july, 2)
	require.NoError(t, err)
	assert.Less(t, s.Altitude, 0.0)
	assert.Equal(t, 0.0, s.DNI)

	winter, err := c.PositionFor(Day{time.December, 10}, 12)
	require.NoError(t, err)
	assertBetween(t, "winter altitude", winter.Altitude, 20, 27)

	_, err = c.PositionFor(july, 24)
	var nce *NoClimateDataError
	assert.True(t, errors.As(err, &nce))
}

func TestLocationClimate(t *testing.T) {
	c, err := NewLocationClimate(28.325, -16.36666)
	require.NoError(t, err)
	assert.Equal(t, -1, c.UTCOffset)

	_, err = NewLocationClimate(95, 0)
	var nce *NoClimateDataError
	assert.True(t, errors.As(err, &nce))
}

const climateTable = `
name: test
samples:
  - {month: 7, day: 1, hour: 12, altitude: 70, azimuth: 170, dir: 850, dif: 120}
  - {month: 7, day: 17, hour: 12, altitude: 69, azimuth: 175, dir: 800, dif: 110}
  - {month: 7, day: 17, hour: 13, altitude: 68, azimuth: 200, dir: 790, dif: 115}
`

func TestTableClimate(t *testing.T) {
	c, err := ReadTableClimate(strings.NewReader(climateTable))
	require.NoError(t, err)
	assert.Equal(t, "test", c.Name)

	s, err := c.PositionFor(Day{time.July, 17}, 12)
	require.NoError(t, err)
	assert.Equal(t, 800.0, s.DNI)
	assert.Equal(t, 110.0, s.DHI)
	assert.Equal(t, 175.0, s.Azimuth)

	// Another July day falls back to the first July sample of the hour.
	s, err = c.PositionFor(Day{time.July, 11}, 12)
	require.NoError(t, err)
	assert.Equal(t, 850.0, s.DNI)
	assert.Equal(t, Day{time.July, 11}, s.Day)

	s, err = c.PositionFor(Day{time.July, 17}, 3)
	require.NoError(t, err)
	assert.Less(t, s.Altitude, 0.0, "missing hours are night")

	_, err = c.PositionFor(Day{time.January, 17}, 12)
	var nce *NoClimateDataError
	assert.True(t, errors.As(err, &nce))
}

func TestTableClimateErrors(t *testing.T) {
	for name, src := range map[string]string{
		"empty":         "samples: []\n",
		"unknown field": "samples:\n  - {month: 7, day: 1, hour: 12, ghi: 3}\n",
		"bad hour":      "samples:\n  - {month: 7, day: 1, hour: 25}\n",
		"bad month":     "samples:\n  - {month: 13, day: 1, hour: 2}\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadTableClimate(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}

func TestLoadTableClimate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "climate.yaml")
	src := "samples:\n  - {month: 1, day: 17, hour: 12, altitude: 25, azimuth: 180, dir: 600, dif: 80}\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0666))
	c, err := LoadTableClimate(path)
	require.NoError(t, err)
	assert.Equal(t, path, c.Name)

	e := NewEngine(c, zap.NewNop())
	_, err = e.Samples()
	var nce *NoClimateDataError
	assert.True(t, errors.As(err, &nce), "table without February")
}
