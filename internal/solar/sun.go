package solar

import (
	"math"
	"time"

	"github.com/sixdouglas/suncalc"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/aclements/envelope/internal/geom"
)

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
)

type SunPos struct {
	T time.Time

	// Altitude is the altitude of the sun in the alt-azimuth coordinate
	// system, in degrees. This ranges from -90 to 90, where 0 is the
	// horizon and 90 is directly overhead.
	Altitude float64

	// Azimuth is the azimuth of the sun in the alt-azimuth coordinate
	// system, in degrees. This ranges from 0 to 360, where 0 is north
	// and 90 is east.
	Azimuth float64
}

// GetSunPos returns the sun position in horizonal alt-azimuth
// coordinates at the given time and location. Latitude and longitude
// are in degrees, where north and east are positive, respectively.
func GetSunPos(t time.Time, latitude, longitude float64) SunPos {
	p := suncalc.GetPosition(t, latitude, longitude)
	// suncalc returns angles in radians (even though it takes latitude
	// and longitude in degrees). Also, it uses a non-standard
	// convention for azimuth where -90 is east, 0 is south, 90 is west,
	// and 180 is north.
	return SunPos{t, p.Altitude * rad2deg, p.Azimuth*rad2deg + 180}
}

// ToSun returns the unit vector pointing from the ground towards the sun.
// northAngle is the compass azimuth of the building's Y axis; the result
// is in building coordinates.
func (p SunPos) ToSun(northAngle float64) r3.Vec {
	al := p.Altitude * deg2rad
	az := (p.Azimuth - northAngle) * deg2rad
	return r3.Unit(r3.Vec{
		X: math.Sin(az) * math.Cos(al),
		Y: math.Cos(az) * math.Cos(al),
		Z: math.Sin(al),
	})
}

// Ray returns the ray from origin towards the sun.
func (p SunPos) Ray(origin r3.Vec, northAngle float64) geom.Ray {
	return geom.Ray{Origin: origin, Dir: p.ToSun(northAngle)}
}

// Irradiance estimates the direct normal and diffuse horizontal
// irradiance of the sun at this position under a clear sky, in W/m².
// Elevation is in meters.
func (p SunPos) Irradiance(elevation float64) (direct, diffuse float64) {
	// This is based on https://www.pveducation.org/pvcdrom/properties-of-sunlight/air-mass
	if p.Altitude < 0 {
		return 0, 0
	}

	// Compute air mass. This is a unitless number that is between 1 if
	// the sun is directly overhead (minimal air mass) and ~38 if the
	// sun is at the horizon. The core of this formula is simply the
	// 1/cos(Θ); the rest of the terms account for the curvature of the
	// Earth.
	//
	// From Kasten, F. and Young, A. T., “Revised optical air mass
	// tables and approximation formula”, Applied Optics, vol. 28, pp.
	// 4735–4738, 1989.
	zenithAngle := 90 - p.Altitude // 0 is overhead
	airMass := 1 / (math.Cos(zenithAngle*deg2rad) + (0.50572 * math.Pow((96.07995-zenithAngle), -1.6364)))

	// Compute direct component of sunlight, accounting for elevation.
	// From Meinel, A. B. and Meinel, M. P., Applied Solar Energy.
	// Addison Wesley Publishing Co., 1976.
	h := elevation / 1000 // To kilometers
	a := 0.14
	direct = 1353 * ((1-a*h)*math.Pow(0.7, math.Pow(airMass, 0.678)) + a*h)

	// Diffuse radiation is ~10% of direct radiation.
	return direct, 0.1 * direct
}

// GlobalIntensity computes the total global radiation of the sun (aka
// solar flux, aka insolation) at this position on a plane perpendicular
// to the sun, in W/m².
func (p SunPos) GlobalIntensity(elevation float64) float64 {
	dir, dif := p.Irradiance(elevation)
	return dir + dif
}
