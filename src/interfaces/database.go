package interfaces

import "mobility-observer/src/models"

// -----------------------------------------------------------------------------
// IDatabase defines the contract for storage operations.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveObservationsBulk inserts a batch of canonical pings.
	SaveObservationsBulk(obs []models.MObservation) error

	// -----------------------------------------------------------------------------
	// SaveDayRecords persists per-device-day metric rows.
	SaveDayRecords(records map[string][]models.MDeviceDayRecord) error

	// -----------------------------------------------------------------------------
	// SaveDeviceSummaries upserts per-device global statistics.
	SaveDeviceSummaries(summaries []models.MDeviceSummary) error

	// -----------------------------------------------------------------------------
	// SaveAnchorSets persists the ranked start/end anchor candidates.
	SaveAnchorSets(sets map[string]models.MAnchorSet) error

	// -----------------------------------------------------------------------------

	// CleanupOldData removes pings older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
