package models

import "time"

// MDeviceDayRecord collapses one device-day into a single row of daily metrics.
// Never mutated after creation.
type MDeviceDayRecord struct {
	DeviceID  string `json:"device_id"`
	Day       string `json:"day"`
	DayOfWeek string `json:"day_of_week"`

	StartTime time.Time `json:"start_time"` // first ping of the day (UTC)
	EndTime   time.Time `json:"end_time"`   // last ping of the day (UTC)

	StartLat float64 `json:"start_lat"`
	StartLon float64 `json:"start_lon"`
	EndLat   float64 `json:"end_lat"`
	EndLon   float64 `json:"end_lon"`

	DistanceMeters float64 `json:"distance_meters"` // sum of step distances
	ElapsedSeconds float64 `json:"elapsed_seconds"` // end - start, >= 0
	SpeedKmh       float64 `json:"speed_kmh"`       // 0 when ElapsedSeconds == 0

	Observations int `json:"observations"` // raw ping count behind this row
}

// -----------------------------------------------------------------------------

// Weekday reports whether the record falls on Monday through Friday.
func (r MDeviceDayRecord) Weekday() bool {
	wd := r.StartTime.UTC().Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
