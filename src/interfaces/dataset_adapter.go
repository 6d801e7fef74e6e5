package interfaces

import "mobility-observer/src/models"

// -----------------------------------------------------------------------------
// IDatasetAdapter normalizes one raw dataset shape into canonical observations.
// -----------------------------------------------------------------------------

type IDatasetAdapter interface {

	// Name returns the unique identifier of the adapter ("lorawan", "gateway").
	Name() string

	// -----------------------------------------------------------------------------

	// Detect reports whether a sample record (decoded JSON object) belongs to
	// this adapter's source shape.
	Detect(sample map[string]interface{}) bool

	// -----------------------------------------------------------------------------

	// Parse converts the raw JSON document into canonical observations.
	// Records with missing required nested fields are dropped, not errors;
	// the second return value counts them.
	Parse(raw []byte) ([]models.MObservation, int, error)
}
