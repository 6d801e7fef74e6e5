package geo

import "math"

// EarthRadiusMeters is the fixed approximate Earth radius used by every
// distance computation in the pipeline.
const EarthRadiusMeters = 6373000.0

// -----------------------------------------------------------------------------

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// -----------------------------------------------------------------------------

// Distance returns the great-circle (haversine) distance in meters between
// two WGS84 points. The square-root argument is clamped to [0, 1] so that
// floating-point overshoot near identical or antipodal points cannot produce
// a math domain error.
func Distance(p1, p2 Point) float64 {
	lat1 := p1.Lat * math.Pi / 180.0
	lon1 := p1.Lon * math.Pi / 180.0
	lat2 := p2.Lat * math.Pi / 180.0
	lon2 := p2.Lon * math.Pi / 180.0

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	sinLat := math.Sin(dlat / 2)
	sinLon := math.Sin(dlon / 2)

	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	if a < 0 {
		a = 0
	} else if a > 1 {
		a = 1
	}

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// -----------------------------------------------------------------------------

// DegreesPerMeter converts a meter distance to the equivalent angular distance
// along Earth's circumference. Used for sizing anchor coordinate grid cells.
func DegreesPerMeter(meters float64) float64 {
	circumference := 2 * math.Pi * EarthRadiusMeters
	return 360.0 / circumference * meters
}
