package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ---------------------------------------------------------------------------
// Distance Tests
// ---------------------------------------------------------------------------

func TestDistanceIdenticalPoints(t *testing.T) {
	points := []Point{
		{0, 0},
		{38.263386, -0.7372311},
		{-89.9, 179.9},
	}
	for _, p := range points {
		assert.Equal(t, 0.0, Distance(p, p))
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := Point{38.263386, -0.7372311}
	b := Point{40.4168, -3.7038}
	assert.Equal(t, Distance(a, b), Distance(b, a))
}

func TestDistanceEquatorLongitudeStep(t *testing.T) {
	// 0.001 degrees of longitude at the equator is roughly 111 m.
	d := Distance(Point{0, 0}, Point{0, 0.001})
	assert.InDelta(t, 111.2, d, 0.5)
}

func TestDistanceNearAntipodal(t *testing.T) {
	// Must not NaN from floating-point overshoot of the sqrt argument.
	d := Distance(Point{0, 0}, Point{0, 180})
	assert.False(t, math.IsNaN(d))
	assert.InDelta(t, math.Pi*EarthRadiusMeters, d, 1.0)
}

// ---------------------------------------------------------------------------
// DegreesPerMeter Tests
// ---------------------------------------------------------------------------

func TestDegreesPerMeter(t *testing.T) {
	// One full circumference maps back to 360 degrees.
	circumference := 2 * math.Pi * EarthRadiusMeters
	assert.InDelta(t, 360.0, DegreesPerMeter(circumference), 1e-9)

	// 100 m is a little under a thousandth of a degree.
	assert.InDelta(t, 0.000899, DegreesPerMeter(100), 1e-6)
}
