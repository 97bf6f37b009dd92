package solar

import (
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// A Day is a calendar day of the reference year.
type Day struct {
	Month time.Month
	Day   int
}

func (d Day) String() string { return fmt.Sprintf("%02d-%02d", int(d.Month), d.Day) }

// referenceYear is a non-leap year used to place samples in time.
const referenceYear = 2023

// Time returns the instant at half past hour on d, in a zone utcOffset
// hours east of UTC.
func (d Day) Time(hour int, utcOffset int) time.Time {
	loc := time.FixedZone("", utcOffset*3600)
	return time.Date(referenceYear, d.Month, d.Day, hour, 30, 0, 0, loc)
}

// The representative day of each month, whose daily extraterrestrial
// radiation is closest to the monthly mean.
var representativeDays = [12]int{17, 16, 16, 15, 15, 11, 17, 16, 15, 15, 14, 10}

// Days returns the representative day of every month, January first.
func Days() []Day {
	days := make([]Day, 12)
	for i, d := range representativeDays {
		days[i] = Day{time.Month(i + 1), d}
	}
	return days
}

// A Sample is the sun position and irradiance at one hour of a day.
type Sample struct {
	Day  Day
	Hour int

	// Altitude and Azimuth locate the sun, in degrees. Azimuth is a
	// compass azimuth: 0 is north and 90 is east.
	Altitude, Azimuth float64

	// DNI is the direct normal irradiance and DHI the diffuse horizontal
	// irradiance, in W/m².
	DNI, DHI float64
}

// SunPos returns the sun position of s.
func (s Sample) SunPos() SunPos {
	return SunPos{Altitude: s.Altitude, Azimuth: s.Azimuth}
}

// GHI returns the global horizontal irradiance of s.
func (s Sample) GHI() float64 {
	if s.Altitude <= 0 {
		return s.DHI
	}
	return s.DHI + s.DNI*math.Sin(s.Altitude*deg2rad)
}

// A Climate supplies sun positions and irradiance for sample hours.
type Climate interface {
	// PositionFor returns the sample at half past hour on day. It fails
	// with *NoClimateDataError if the climate cannot supply it.
	PositionFor(day Day, hour int) (Sample, error)
}

// NoClimateDataError reports a location or sample the climate source
// cannot supply.
type NoClimateDataError struct {
	Source string
	Msg    string
}

func (e *NoClimateDataError) Error() string {
	return fmt.Sprintf("no climate data for %s: %s", e.Source, e.Msg)
}

// LocationClimate computes clear-sky samples for a location.
type LocationClimate struct {
	Name                string
	Latitude, Longitude float64
	Elevation           float64 // m

	// UTCOffset is the standard time zone of the sample hours, in hours
	// east of UTC.
	UTCOffset int
}

// NewLocationClimate returns the climate of the given latitude and
// longitude, with hours in the nominal standard time of the longitude.
func NewLocationClimate(latitude, longitude float64) (*LocationClimate, error) {
	if math.IsNaN(latitude) || math.Abs(latitude) > 90 || math.IsNaN(longitude) || math.Abs(longitude) > 180 {
		return nil, &NoClimateDataError{
			Source: fmt.Sprintf("%g, %g", latitude, longitude),
			Msg:    "location out of range",
		}
	}
	return &LocationClimate{
		Name:      fmt.Sprintf("%.4f, %.4f", latitude, longitude),
		Latitude:  latitude,
		Longitude: longitude,
		UTCOffset: int(math.Round(longitude / 15)),
	}, nil
}

func (c *LocationClimate) PositionFor(day Day, hour int) (Sample, error) {
	if err := checkSample(c.Name, day, hour); err != nil {
		return Sample{}, err
	}
	p := GetSunPos(day.Time(hour, c.UTCOffset), c.Latitude, c.Longitude)
	dni, dhi := p.Irradiance(c.Elevation)
	return Sample{
		Day:      day,
		Hour:     hour,
		Altitude: p.Altitude,
		Azimuth:  p.Azimuth,
		DNI:      dni,
		DHI:      dhi,
	}, nil
}

func checkSample(source string, day Day, hour int) error {
	if day.Month < time.January || day.Month > time.December || day.Day < 1 || day.Day > 31 {
		return &NoClimateDataError{source, fmt.Sprintf("invalid day %s", day)}
	}
	if hour < 0 || hour > 23 {
		return &NoClimateDataError{source, fmt.Sprintf("invalid hour %d", hour)}
	}
	return nil
}

// Reference locations of the climate zones.
var (
	peninsula = LocationClimate{Latitude: 40.68333, Longitude: -4.133333, UTCOffset: 1}
	canary    = LocationClimate{Latitude: 28.325, Longitude: -16.36666, UTCOffset: 0}
)

var zonePattern = regexp.MustCompile(`^(?i)(alpha|[a-e])[1-4](c?)$`)

// ZoneClimate returns the climate of the reference location of a CTE
// climate zone such as "D3" or "alpha3c". Zones with a "c" suffix are on
// the Canary Islands.
func ZoneClimate(zone string) (*LocationClimate, error) {
	m := zonePattern.FindStringSubmatch(strings.TrimSpace(zone))
	if m == nil {
		return nil, &NoClimateDataError{Source: fmt.Sprintf("zone %q", zone), Msg: "unknown climate zone"}
	}
	c := peninsula
	if m[2] != "" {
		c = canary
	} else if strings.EqualFold(m[1], "alpha") {
		return nil, &NoClimateDataError{Source: fmt.Sprintf("zone %q", zone), Msg: "alpha zones exist only on the Canary Islands"}
	}
	c.Name = strings.TrimSpace(zone)
	return &c, nil
}

// TableClimate serves samples from a table, typically computed from
// hourly weather data.
type TableClimate struct {
	Name string

	byDay   map[tableKey]Sample
	byMonth map[tableKey]Sample // day 0
	months  map[time.Month]bool
}

type tableKey struct {
	month time.Month
	day   int
	hour  int
}

type tableFile struct {
	Name    string     `yaml:"name"`
	Samples []tableRow `yaml:"samples"`
}

type tableRow struct {
	Month    int     `yaml:"month"`
	Day      int     `yaml:"day"`
	Hour     int     `yaml:"hour"`
	Altitude float64 `yaml:"altitude"`
	Azimuth  float64 `yaml:"azimuth"`
	Dir      float64 `yaml:"dir"`
	Dif      float64 `yaml:"dif"`
}

// LoadTableClimate reads a YAML climate table from path.
func LoadTableClimate(path string) (*TableClimate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := ReadTableClimate(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if c.Name == "" {
		c.Name = path
	}
	return c, nil
}

// ReadTableClimate reads a YAML climate table. A table is a list of
// samples with month, day, hour, altitude, azimuth (compass degrees),
// dir (direct normal) and dif (diffuse horizontal) fields.
//
// A table need not cover every representative day: a missing day is
// served by another day of the same month. Hours missing from a month
// the table covers are taken as night.
func ReadTableClimate(r io.Reader) (*TableClimate, error) {
	var tf tableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&tf); err != nil {
		return nil, fmt.Errorf("reading climate table: %w", err)
	}
	c := &TableClimate{
		Name:    tf.Name,
		byDay:   make(map[tableKey]Sample),
		byMonth: make(map[tableKey]Sample),
		months:  make(map[time.Month]bool),
	}
	for i, row := range tf.Samples {
		day := Day{time.Month(row.Month), row.Day}
		if err := checkSample("climate table", day, row.Hour); err != nil {
			return nil, fmt.Errorf("sample %d: %w", i+1, err)
		}
		s := Sample{
			Day:      day,
			Hour:     row.Hour,
			Altitude: row.Altitude,
			Azimuth:  row.Azimuth,
			DNI:      row.Dir,
			DHI:      row.Dif,
		}
		c.byDay[tableKey{day.Month, day.Day, row.Hour}] = s
		c.months[day.Month] = true
		mk := tableKey{day.Month, 0, row.Hour}
		if _, ok := c.byMonth[mk]; !ok {
			c.byMonth[mk] = s
		}
	}
	if len(c.byDay) == 0 {
		return nil, &NoClimateDataError{Source: "climate table", Msg: "no samples"}
	}
	return c, nil
}

func (c *TableClimate) PositionFor(day Day, hour int) (Sample, error) {
	if err := checkSample(c.Name, day, hour); err != nil {
		return Sample{}, err
	}
	if s, ok := c.byDay[tableKey{day.Month, day.Day, hour}]; ok {
		return s, nil
	}
	if s, ok := c.byMonth[tableKey{day.Month, 0, hour}]; ok {
		s.Day = day
		return s, nil
	}
	if c.months[day.Month] {
		return Sample{Day: day, Hour: hour, Altitude: -90}, nil
	}
	return Sample{}, &NoClimateDataError{c.Name, fmt.Sprintf("no sample for %s %02d:30", day, hour)}
}
