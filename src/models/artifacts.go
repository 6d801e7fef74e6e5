package models

// -----------------------------------------------------------------------------
// Serialized output shapes. These are the four persisted artifacts, each keyed
// first by device_id. All times are ISO-8601 strings.
// -----------------------------------------------------------------------------

// MDeviceMetrics is one entry of the device summary artifact.
type MDeviceMetrics struct {
	N           int     `json:"N"`
	StartTime   string  `json:"start_time"` // time of day, "15:04:05"
	EndTime     string  `json:"end_time"`
	Speed       float64 `json:"speed"` // km/h, max daily
	PercWeekday float64 `json:"perc_weekday"`
}

// -----------------------------------------------------------------------------

// MDayMetrics is one day's entry of the device-day detail artifact.
type MDayMetrics struct {
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	DayOfWeek string  `json:"day_of_week"`
	Speed     float64 `json:"speed"`
	Distance  float64 `json:"distance"` // meters, daily total
}

// -----------------------------------------------------------------------------

// MLocationList holds ranked anchor coordinates as parallel arrays. The three
// slices always have equal length and share rank order.
type MLocationList struct {
	Lat              []float64 `json:"lat"`
	Lon              []float64 `json:"lon"`
	ConfidenceScores []float64 `json:"confidence_scores"`
}

// MAnchorList is one device's entry of the anchor artifact.
type MAnchorList struct {
	Start   MLocationList `json:"start"`
	End     MLocationList `json:"end"`
	FirstTS string        `json:"first_ts"` // RFC3339 UTC
	LastTS  string        `json:"last_ts"`
}

// -----------------------------------------------------------------------------

// MTrajectory is the raw chronological point list of one device-day.
type MTrajectory struct {
	Lat []float64 `json:"lat"`
	Lon []float64 `json:"lon"`
	TS  []string  `json:"ts"` // RFC3339 UTC
}

// -----------------------------------------------------------------------------
// Server State Structure
// -----------------------------------------------------------------------------

// MResultSet is the assembled output of one pipeline run: the four artifacts
// plus run metadata. It is also the payload pushed to websocket clients.
type MResultSet struct {
	Type         string                            `json:"type"` // "INITIAL" or "UPDATE"
	RunID        string                            `json:"run_id"`
	Devices      map[string]MDeviceMetrics         `json:"devices"`
	DeviceDays   map[string]map[string]MDayMetrics `json:"device_days"`
	Anchors      map[string]MAnchorList            `json:"anchors"`
	Trajectories map[string]map[string]MTrajectory `json:"trajectories"`
	Timestamp    int64                             `json:"timestamp"`

	ProcessingMetrics MProcessingMetrics `json:"processing_metrics"`
}
