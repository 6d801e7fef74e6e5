package mobility

import (
	"math"
	"sort"

	"mobility-observer/src/geo"
	"mobility-observer/src/mobility/core"
	"mobility-observer/src/models"
)

// -----------------------------------------------------------------------------
// Anchor estimation: a device's daily start (resp. end) fixes are snapped to
// a grid, grouped into candidate cells and ranked by a kernel density fitted
// over the raw, unsnapped fixes. Likely home/work locations come out on top.
// -----------------------------------------------------------------------------

// EstimateAnchors derives ranked start and end anchor candidates from a
// device's daily records. precisionMeters sets the snap grid cell size.
// records must not be empty.
func EstimateAnchors(deviceID string, records []models.MDeviceDayRecord, precisionMeters float64) models.MAnchorSet {
	startLats := make([]float64, len(records))
	startLons := make([]float64, len(records))
	endLats := make([]float64, len(records))
	endLons := make([]float64, len(records))

	for i, rec := range records {
		startLats[i] = rec.StartLat
		startLons[i] = rec.StartLon
		endLats[i] = rec.EndLat
		endLons[i] = rec.EndLon
	}

	cell := geo.DegreesPerMeter(precisionMeters)

	return models.MAnchorSet{
		DeviceID: deviceID,
		Start:    rankCandidates(startLats, startLons, cell),
		End:      rankCandidates(endLats, endLons, cell),
		FirstTS:  records[0].StartTime,
		LastTS:   records[len(records)-1].EndTime,
	}
}

// -----------------------------------------------------------------------------

// rankCandidates bins fixes on the snap grid and ranks the bins by the
// density of the unsnapped fixes. When the density cannot be fitted, every
// bin gets confidence 1 and the ranking degrades to bin count.
func rankCandidates(lats, lons []float64, cell float64) []models.MAnchorCandidate {
	type binKey struct {
		lat, lon float64
	}

	// Bin on the snap grid, preserving first-appearance order
	counts := make(map[binKey]int)
	var order []binKey
	for i := range lats {
		key := binKey{lat: snap(lats[i], cell), lon: snap(lons[i], cell)}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	candidates := make([]models.MAnchorCandidate, len(order))
	for i, key := range order {
		candidates[i] = models.MAnchorCandidate{
			Latitude:   key.lat,
			Longitude:  key.lon,
			Count:      counts[key],
			Confidence: 1,
		}
	}

	// Density over the raw fixes; a degenerate fit keeps uniform confidence
	if kde, err := core.FitKDE2D(lats, lons); err == nil {
		for i := range candidates {
			candidates[i].Confidence = kde.Evaluate(candidates[i].Latitude, candidates[i].Longitude)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	return candidates
}

// -----------------------------------------------------------------------------

// snap rounds a coordinate to the nearest grid cell.
func snap(v, cell float64) float64 {
	return math.Round(v/cell) * cell
}
