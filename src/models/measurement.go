package models

// MDevicePartition is the Reconstructor output for one (device, UTC day) group:
// the chronologically ordered pings plus the per-step annotations derived from them.
type MDevicePartition struct {
	DeviceID  string `json:"device_id"`
	Day       string `json:"day"` // "2006-01-02"
	DayOfWeek string `json:"day_of_week"`

	// Ordered strictly by timestamp.
	Observations []MObservation `json:"observations"`

	// StepDistances[i] is the great-circle distance in meters from
	// Observations[i] to Observations[i+1]. Length = len(Observations)-1,
	// empty for a single-ping day.
	StepDistances []float64 `json:"step_distances"`
}

// -----------------------------------------------------------------------------

// Start returns the first observation of the day. Partitions are built from
// existing rows, so they are never empty.
func (p MDevicePartition) Start() MObservation {
	return p.Observations[0]
}

// -----------------------------------------------------------------------------

// End returns the last observation of the day.
func (p MDevicePartition) End() MObservation {
	return p.Observations[len(p.Observations)-1]
}
