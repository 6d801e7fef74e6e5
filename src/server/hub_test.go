package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mobility-observer/src/logger"
	"mobility-observer/src/models"
)

// -----------------------------------------------------------------------------

func testServer() *APIServer {
	cfg := &models.MConfig{Name: "test", LogLevel: "ERROR"}
	return NewAPIServer(cfg, logger.NewLogger("ERROR", "ServerTest"))
}

func resultSet(runID string, devices ...string) *models.MResultSet {
	rs := &models.MResultSet{
		Type:         "UPDATE",
		RunID:        runID,
		Devices:      make(map[string]models.MDeviceMetrics),
		DeviceDays:   make(map[string]map[string]models.MDayMetrics),
		Anchors:      make(map[string]models.MAnchorList),
		Trajectories: make(map[string]map[string]models.MTrajectory),
		Timestamp:    42,
	}
	for _, d := range devices {
		rs.Devices[d] = models.MDeviceMetrics{N: 1}
		rs.DeviceDays[d] = map[string]models.MDayMetrics{"2024-03-04": {DayOfWeek: "Monday"}}
		rs.Anchors[d] = models.MAnchorList{}
		rs.Trajectories[d] = map[string]models.MTrajectory{"2024-03-04": {}}
	}
	return rs
}

// -----------------------------------------------------------------------------

func TestUpdateAllDatasMerges(t *testing.T) {
	s := testServer()

	s.UpdateAllDatas(resultSet("run-1", "a"))
	s.UpdateAllDatas(resultSet("run-2", "b"))

	assert.Equal(t, "UPDATE", s.latestState.Type)
	assert.Equal(t, "run-2", s.latestState.RunID)

	// Devices from the first run survive the second
	assert.Contains(t, s.latestState.Devices, "a")
	assert.Contains(t, s.latestState.Devices, "b")
	assert.Contains(t, s.latestState.DeviceDays, "a")
	assert.Contains(t, s.latestState.Trajectories, "b")
}

func TestDeviceViewResponseFilters(t *testing.T) {
	s := testServer()
	s.UpdateAllDatas(resultSet("run-1", "a", "b", "c"))

	filtered := s.deviceViewResponse([]string{"a", "c", "missing"})
	assert.Equal(t, "INITIAL", filtered.Type)
	require.Len(t, filtered.Devices, 2)
	assert.Contains(t, filtered.Devices, "a")
	assert.Contains(t, filtered.Devices, "c")
	assert.NotContains(t, filtered.DeviceDays, "b")

	// Empty filter returns everything
	all := s.deviceViewResponse(nil)
	assert.Len(t, all.Devices, 3)
	assert.Equal(t, "INITIAL", all.Type)
}
