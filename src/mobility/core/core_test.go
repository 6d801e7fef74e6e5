package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func TestCalculateMeanStd(t *testing.T) {
	mean, std := CalculateMeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 1e-9)
	assert.InDelta(t, 2.0, std, 1e-9)

	mean, std = CalculateMeanStd([]float64{3.5})
	assert.Equal(t, 3.5, mean)
	assert.Equal(t, 0.0, std)

	mean, std = CalculateMeanStd(nil)
	assert.Equal(t, 0.0, mean)
	assert.Equal(t, 0.0, std)
}

func TestCalculateQuantile(t *testing.T) {
	data := []float64{1, 2, 3, 4}

	assert.Equal(t, 1.0, CalculateQuantile(data, 0))
	assert.Equal(t, 4.0, CalculateQuantile(data, 1))
	assert.InDelta(t, 2.5, CalculateQuantile(data, 0.5), 1e-9)
	assert.InDelta(t, 1.75, CalculateQuantile(data, 0.25), 1e-9)

	// Odd length median hits an exact rank
	assert.Equal(t, 3.0, CalculateQuantile([]float64{5, 1, 3, 2, 4}, 0.5))

	// Out of range q clamps
	assert.Equal(t, 1.0, CalculateQuantile(data, -0.5))
	assert.Equal(t, 4.0, CalculateQuantile(data, 1.5))

	assert.Equal(t, 0.0, CalculateQuantile(nil, 0.5))
	assert.Equal(t, 7.0, CalculateQuantile([]float64{7}, 0.9))
}

func TestCalculateQuantileDoesNotMutateInput(t *testing.T) {
	data := []float64{3, 1, 2}
	CalculateQuantile(data, 0.5)
	assert.Equal(t, []float64{3, 1, 2}, data)
}

func TestCalculateMax(t *testing.T) {
	assert.Equal(t, 9.0, CalculateMax([]float64{2, 9, 4}))
	assert.Equal(t, -1.0, CalculateMax([]float64{-3, -1, -2}))
	assert.Equal(t, 0.0, CalculateMax(nil))
}

// -----------------------------------------------------------------------------

func TestFitKDE2DRejectsSmallOrDegenerateInput(t *testing.T) {
	_, err := FitKDE2D([]float64{1}, []float64{1})
	assert.Error(t, err)

	_, err = FitKDE2D([]float64{1, 2}, []float64{1})
	assert.Error(t, err)

	// Identical points give a singular covariance
	_, err = FitKDE2D([]float64{48.85, 48.85, 48.85}, []float64{2.35, 2.35, 2.35})
	assert.Error(t, err)

	// Collinear points too
	_, err = FitKDE2D([]float64{1, 2, 3}, []float64{2, 4, 6})
	assert.Error(t, err)
}

func TestKDE2DDensityPeaksAtCluster(t *testing.T) {
	// Tight cluster near the origin plus one outlier
	lats := []float64{0.001, -0.002, 0.002, -0.001, 0.0, 1.0}
	lons := []float64{-0.001, 0.002, 0.001, -0.002, 0.0, 1.0}

	kde, err := FitKDE2D(lats, lons)
	require.NoError(t, err)

	atCluster := kde.Evaluate(0, 0)
	atOutlier := kde.Evaluate(1, 1)
	assert.Greater(t, atCluster, atOutlier)
	assert.Greater(t, atCluster, 0.0)
}

func TestKDE2DEvaluateAll(t *testing.T) {
	lats := []float64{0, 0.01, 0.02, 0.5}
	lons := []float64{0, 0.01, 0.02, 0.5}
	// Add jitter off the diagonal so the covariance is invertible
	lats = append(lats, 0.01, 0.3)
	lons = append(lons, 0.25, 0.02)

	kde, err := FitKDE2D(lats, lons)
	require.NoError(t, err)

	densities := kde.EvaluateAll(lats, lons)
	require.Len(t, densities, len(lats))
	for _, d := range densities {
		assert.Greater(t, d, 0.0)
	}

	// Evaluate matches EvaluateAll per point
	assert.Equal(t, kde.Evaluate(lats[0], lons[0]), densities[0])
}
