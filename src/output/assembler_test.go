package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mobility-observer/src/logger"
	"mobility-observer/src/mobility"
	"mobility-observer/src/models"
)

// -----------------------------------------------------------------------------

func sampleRun() *mobility.MobilityResult {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	pings := []models.MObservation{
		{DeviceID: "dev-1", Latitude: 48.85, Longitude: 2.35, Timestamp: day.Add(8 * time.Hour), GatewayID: "gw"},
		{DeviceID: "dev-1", Latitude: 48.86, Longitude: 2.36, Timestamp: day.Add(18 * time.Hour), GatewayID: "gw"},
	}

	return &mobility.MobilityResult{
		RunID: "run-42",
		Partitions: map[string][]models.MDevicePartition{
			"dev-1": {{
				DeviceID: "dev-1", Day: "2024-03-04", DayOfWeek: "Monday",
				Observations: pings, StepDistances: []float64{1500},
			}},
		},
		DayRecords: map[string][]models.MDeviceDayRecord{
			"dev-1": {{
				DeviceID: "dev-1", Day: "2024-03-04", DayOfWeek: "Monday",
				StartTime: pings[0].Timestamp, EndTime: pings[1].Timestamp,
				StartLat: 48.85, StartLon: 2.35, EndLat: 48.86, EndLon: 2.36,
				DistanceMeters: 1500, ElapsedSeconds: 36000, SpeedKmh: 0.15,
				Observations: 2,
			}},
		},
		Summaries: map[string]models.MDeviceSummary{
			"dev-1": {
				DeviceID: "dev-1", N: 2, Quantile: 0.5,
				StartTimeSeconds: 8 * 3600, EndTimeSeconds: 18*3600 + 30.7,
				MaxDistanceMeters: 1500, MaxSpeedKmh: 0.15, PercWeekday: 100,
			},
		},
		Anchors: map[string]models.MAnchorSet{
			"dev-1": {
				DeviceID: "dev-1",
				Start:    []models.MAnchorCandidate{{Latitude: 48.85, Longitude: 2.35, Count: 1, Confidence: 1}},
				End:      []models.MAnchorCandidate{{Latitude: 48.86, Longitude: 2.36, Count: 1, Confidence: 1}},
				FirstTS:  pings[0].Timestamp, LastTS: pings[1].Timestamp,
			},
		},
		Metrics: models.MProcessingMetrics{ObservationsParsed: 2, ValidDevices: 1, DaysProcessed: 1},
	}
}

// -----------------------------------------------------------------------------

func TestAssembleShapes(t *testing.T) {
	a := NewAssembler(t.TempDir(), logger.NewLogger("ERROR", "OutputTest"))
	rs := a.Assemble(sampleRun(), "INITIAL")

	assert.Equal(t, "INITIAL", rs.Type)
	assert.Equal(t, "run-42", rs.RunID)

	device := rs.Devices["dev-1"]
	assert.Equal(t, 2, device.N)
	assert.Equal(t, "08:00:00", device.StartTime)
	// Fractional seconds truncate
	assert.Equal(t, "18:00:30", device.EndTime)
	assert.Equal(t, 0.15, device.Speed)
	assert.Equal(t, 100.0, device.PercWeekday)

	dayMetrics := rs.DeviceDays["dev-1"]["2024-03-04"]
	assert.Equal(t, "08:00:00", dayMetrics.StartTime)
	assert.Equal(t, "18:00:00", dayMetrics.EndTime)
	assert.Equal(t, "Monday", dayMetrics.DayOfWeek)
	assert.Equal(t, 1500.0, dayMetrics.Distance)

	anchors := rs.Anchors["dev-1"]
	require.Len(t, anchors.Start.Lat, 1)
	assert.Len(t, anchors.Start.Lon, len(anchors.Start.Lat))
	assert.Len(t, anchors.Start.ConfidenceScores, len(anchors.Start.Lat))
	assert.Equal(t, "2024-03-04T08:00:00Z", anchors.FirstTS)
	assert.Equal(t, "2024-03-04T18:00:00Z", anchors.LastTS)

	trajectory := rs.Trajectories["dev-1"]["2024-03-04"]
	require.Len(t, trajectory.Lat, 2)
	assert.Len(t, trajectory.TS, 2)
	assert.Equal(t, "2024-03-04T08:00:00Z", trajectory.TS[0])
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	a := NewAssembler(dir, logger.NewLogger("ERROR", "OutputTest"))
	rs := a.Assemble(sampleRun(), "INITIAL")

	require.NoError(t, a.WriteArtifacts(rs))

	for _, name := range []string{DeviceFile, DeviceDayFile, TrajectoriesFile, AnchorsFile} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &decoded), name)
		assert.Contains(t, decoded, "dev-1", name)
	}

	// Device artifact carries the summary shape
	data, err := os.ReadFile(filepath.Join(dir, DeviceFile))
	require.NoError(t, err)
	var devices map[string]models.MDeviceMetrics
	require.NoError(t, json.Unmarshal(data, &devices))
	assert.Equal(t, 2, devices["dev-1"].N)
}

func TestClockTime(t *testing.T) {
	assert.Equal(t, "00:00:00", clockTime(0))
	assert.Equal(t, "08:30:15", clockTime(8*3600+30*60+15))
	assert.Equal(t, "23:59:59", clockTime(86399.9))
}
