package models

import "time"

// MAnchorCandidate is one coordinate bin ranked as a likely recurring stay
// location. Confidence is a relative density value, not a probability.
type MAnchorCandidate struct {
	Latitude   float64 `json:"latitude"`  // snapped to the estimator grid
	Longitude  float64 `json:"longitude"` // snapped to the estimator grid
	Count      int     `json:"count"`     // pings aggregated into this bin
	Confidence float64 `json:"confidence"`
}

// -----------------------------------------------------------------------------

// MAnchorSet holds the independent start-point and end-point rankings for one
// device. The two lists are never mixed.
type MAnchorSet struct {
	DeviceID string             `json:"device_id"`
	Start    []MAnchorCandidate `json:"start"`
	End      []MAnchorCandidate `json:"end"`

	FirstTS time.Time `json:"first_ts"` // earliest ping of the device
	LastTS  time.Time `json:"last_ts"`  // latest ping of the device
}
