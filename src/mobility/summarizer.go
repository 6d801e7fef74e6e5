package mobility

import (
	"time"

	"mobility-observer/src/mobility/core"
	"mobility-observer/src/models"
)

// -----------------------------------------------------------------------------
// Device summaries: the daily records of one device are folded into a single
// behavioural profile. Start/end times are summarised as a quantile of the
// time of day, movement as the busiest day's distance and speed.
// -----------------------------------------------------------------------------

// SummarizeDevice folds a device's daily records into one summary.
// totalObservations is the raw ping count of the device, before any daily
// reduction. records must not be empty.
func SummarizeDevice(deviceID string, records []models.MDeviceDayRecord, totalObservations int, quantile float64) models.MDeviceSummary {
	startSeconds := make([]float64, len(records))
	endSeconds := make([]float64, len(records))
	distances := make([]float64, len(records))
	speeds := make([]float64, len(records))
	weekdayDays := 0

	for i, rec := range records {
		startSeconds[i] = secondsOfDay(rec.StartTime)
		endSeconds[i] = secondsOfDay(rec.EndTime)
		distances[i] = rec.DistanceMeters
		speeds[i] = rec.SpeedKmh
		if rec.Weekday() {
			weekdayDays++
		}
	}

	return models.MDeviceSummary{
		DeviceID:          deviceID,
		N:                 totalObservations,
		Quantile:          quantile,
		StartTimeSeconds:  core.CalculateQuantile(startSeconds, quantile),
		EndTimeSeconds:    core.CalculateQuantile(endSeconds, quantile),
		MaxDistanceMeters: core.CalculateMax(distances),
		MaxSpeedKmh:       core.CalculateMax(speeds),
		PercWeekday:       100 * float64(weekdayDays) / float64(len(records)),
	}
}

// -----------------------------------------------------------------------------

// secondsOfDay returns the time of day as seconds since midnight UTC.
func secondsOfDay(t time.Time) float64 {
	u := t.UTC()
	return float64(u.Hour()*3600 + u.Minute()*60 + u.Second())
}
