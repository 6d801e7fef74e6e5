package models

import "time"

// MObservation is one canonical device ping, normalized by an ingestion adapter.
// Immutable once created; every downstream stage reads it as-is.
type MObservation struct {
	DeviceID  string    `json:"device_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"` // always UTC
	GatewayID string    `json:"gateway_id"`
}

// -----------------------------------------------------------------------------

// Day returns the UTC calendar date key ("2006-01-02") the ping belongs to.
func (o MObservation) Day() string {
	return o.Timestamp.UTC().Format("2006-01-02")
}
