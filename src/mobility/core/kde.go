package core

import (
	"fmt"
	"math"
)

// -----------------------------------------------------------------------------
// Two-dimensional Gaussian kernel density estimator with Scott's rule
// bandwidth. Fitted over (lat, lon) pairs, evaluated at arbitrary points.
// -----------------------------------------------------------------------------

type KDE2D struct {
	lats []float64
	lons []float64

	// Inverse bandwidth matrix and normalisation, set by Fit
	inv00, inv01, inv11 float64
	norm                float64
}

// -----------------------------------------------------------------------------

// FitKDE2D fits a Gaussian KDE over the given coordinate pairs. It fails when
// fewer than two points are supplied or the sample covariance is singular,
// which happens for perfectly collinear or identical points.
func FitKDE2D(lats, lons []float64) (*KDE2D, error) {
	n := len(lats)
	if n != len(lons) {
		return nil, fmt.Errorf("coordinate slices have mismatched lengths %d and %d", n, len(lons))
	}
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 points to fit a density, got %d", n)
	}

	meanLat, _ := CalculateMeanStd(lats)
	meanLon, _ := CalculateMeanStd(lons)

	// Sample covariance, N-1 denominator
	var c00, c01, c11 float64
	for i := 0; i < n; i++ {
		dLat := lats[i] - meanLat
		dLon := lons[i] - meanLon
		c00 += dLat * dLat
		c01 += dLat * dLon
		c11 += dLon * dLon
	}
	c00 /= float64(n - 1)
	c01 /= float64(n - 1)
	c11 /= float64(n - 1)

	// Scott's rule: bandwidth factor n^(-1/(d+4)) with d=2
	factor := math.Pow(float64(n), -1.0/6.0)
	f2 := factor * factor
	b00 := c00 * f2
	b01 := c01 * f2
	b11 := c11 * f2

	det := b00*b11 - b01*b01
	if det <= 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return nil, fmt.Errorf("singular covariance, cannot fit density over %d points", n)
	}

	kde := &KDE2D{
		lats:  append([]float64(nil), lats...),
		lons:  append([]float64(nil), lons...),
		inv00: b11 / det,
		inv01: -b01 / det,
		inv11: b00 / det,
		norm:  1.0 / (float64(n) * 2 * math.Pi * math.Sqrt(det)),
	}
	return kde, nil
}

// -----------------------------------------------------------------------------

// Evaluate returns the estimated density at (lat, lon).
func (k *KDE2D) Evaluate(lat, lon float64) float64 {
	sum := 0.0
	for i := range k.lats {
		dLat := lat - k.lats[i]
		dLon := lon - k.lons[i]
		exponent := dLat*dLat*k.inv00 + 2*dLat*dLon*k.inv01 + dLon*dLon*k.inv11
		sum += math.Exp(-0.5 * exponent)
	}
	return sum * k.norm
}

// -----------------------------------------------------------------------------

// EvaluateAll evaluates the density at each of the given points.
func (k *KDE2D) EvaluateAll(lats, lons []float64) []float64 {
	result := make([]float64, len(lats))
	for i := range lats {
		result[i] = k.Evaluate(lats[i], lons[i])
	}
	return result
}
