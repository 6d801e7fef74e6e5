package models

// MDeviceSummary rolls all of a device's day records up into global statistics.
type MDeviceSummary struct {
	DeviceID string `json:"device_id"`

	// N counts the raw observations behind the summary, not the days.
	N int `json:"n"`

	// Quantile of start/end time-of-day, in seconds since midnight.
	// Computed at the requested quantile (median by default).
	Quantile         float64 `json:"quantile"`
	StartTimeSeconds float64 `json:"start_time_seconds"`
	EndTimeSeconds   float64 `json:"end_time_seconds"`

	// Peak mobility across the device's days.
	MaxDistanceMeters float64 `json:"max_distance_meters"`
	MaxSpeedKmh       float64 `json:"max_speed_kmh"`

	// Share of days landing on Monday..Friday, in [0, 100].
	PercWeekday float64 `json:"perc_weekday"`
}
