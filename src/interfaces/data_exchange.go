package interfaces

import "mobility-observer/src/models"

// -----------------------------------------------------------------------------
// IDataExchanger defining the interface for sharing results with external
// systems (Server/Push).
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast pushes a completed result set to external listeners.
	Broadcast(result *models.MResultSet)

	// -----------------------------------------------------------------------------
	// UpdateAllDatas replaces the internal state without broadcasting.
	UpdateAllDatas(result *models.MResultSet)

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
