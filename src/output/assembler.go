package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mobility-observer/src/logger"
	"mobility-observer/src/mobility"
	"mobility-observer/src/models"
)

// -----------------------------------------------------------------------------
// Assembler turns a pipeline result into the four persisted JSON artifacts:
// per-device summaries, per-device-day metrics, raw trajectories and ranked
// start/end anchor locations.
// -----------------------------------------------------------------------------

const (
	DeviceFile       = "device.json"
	DeviceDayFile    = "device_day.json"
	TrajectoriesFile = "trajectories.json"
	AnchorsFile      = "list_start_end_locs.json"
)

type Assembler struct {
	Dir    string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAssembler(dir string, log *logger.Logger) *Assembler {
	return &Assembler{Dir: dir, Logger: log}
}

// -----------------------------------------------------------------------------

// Assemble builds the serializable result set from a pipeline run.
// resultType is "INITIAL" for the first run of a process, "UPDATE" after.
func (a *Assembler) Assemble(run *mobility.MobilityResult, resultType string) *models.MResultSet {
	rs := &models.MResultSet{
		Type:              resultType,
		RunID:             run.RunID,
		Devices:           make(map[string]models.MDeviceMetrics, len(run.Summaries)),
		DeviceDays:        make(map[string]map[string]models.MDayMetrics, len(run.DayRecords)),
		Anchors:           make(map[string]models.MAnchorList, len(run.Anchors)),
		Trajectories:      make(map[string]map[string]models.MTrajectory, len(run.Partitions)),
		Timestamp:         time.Now().UTC().Unix(),
		ProcessingMetrics: run.Metrics,
	}

	for deviceID, summary := range run.Summaries {
		rs.Devices[deviceID] = models.MDeviceMetrics{
			N:           summary.N,
			StartTime:   clockTime(summary.StartTimeSeconds),
			EndTime:     clockTime(summary.EndTimeSeconds),
			Speed:       summary.MaxSpeedKmh,
			PercWeekday: summary.PercWeekday,
		}
	}

	for deviceID, records := range run.DayRecords {
		days := make(map[string]models.MDayMetrics, len(records))
		for _, rec := range records {
			days[rec.Day] = models.MDayMetrics{
				StartTime: rec.StartTime.UTC().Format("15:04:05"),
				EndTime:   rec.EndTime.UTC().Format("15:04:05"),
				DayOfWeek: rec.DayOfWeek,
				Speed:     rec.SpeedKmh,
				Distance:  rec.DistanceMeters,
			}
		}
		rs.DeviceDays[deviceID] = days
	}

	for deviceID, set := range run.Anchors {
		rs.Anchors[deviceID] = models.MAnchorList{
			Start:   locationList(set.Start),
			End:     locationList(set.End),
			FirstTS: set.FirstTS.UTC().Format(time.RFC3339),
			LastTS:  set.LastTS.UTC().Format(time.RFC3339),
		}
	}

	for deviceID, partitions := range run.Partitions {
		trajectories := make(map[string]models.MTrajectory, len(partitions))
		for _, partition := range partitions {
			trajectory := models.MTrajectory{
				Lat: make([]float64, len(partition.Observations)),
				Lon: make([]float64, len(partition.Observations)),
				TS:  make([]string, len(partition.Observations)),
			}
			for i, o := range partition.Observations {
				trajectory.Lat[i] = o.Latitude
				trajectory.Lon[i] = o.Longitude
				trajectory.TS[i] = o.Timestamp.UTC().Format(time.RFC3339)
			}
			trajectories[partition.Day] = trajectory
		}
		rs.Trajectories[deviceID] = trajectories
	}

	return rs
}

// -----------------------------------------------------------------------------

// WriteArtifacts persists the four artifacts as indented JSON under Dir.
func (a *Assembler) WriteArtifacts(rs *models.MResultSet) error {
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir '%s': %w", a.Dir, err)
	}

	artifacts := map[string]interface{}{
		DeviceFile:       rs.Devices,
		DeviceDayFile:    rs.DeviceDays,
		TrajectoriesFile: rs.Trajectories,
		AnchorsFile:      rs.Anchors,
	}

	for name, payload := range artifacts {
		path := filepath.Join(a.Dir, name)
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize %s: %w", name, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		a.Logger.Info("Wrote %s (%d bytes)", path, len(data))
	}
	return nil
}

// -----------------------------------------------------------------------------

// locationList flattens ranked candidates into parallel arrays.
func locationList(candidates []models.MAnchorCandidate) models.MLocationList {
	list := models.MLocationList{
		Lat:              make([]float64, len(candidates)),
		Lon:              make([]float64, len(candidates)),
		ConfidenceScores: make([]float64, len(candidates)),
	}
	for i, c := range candidates {
		list.Lat[i] = c.Latitude
		list.Lon[i] = c.Longitude
		list.ConfidenceScores[i] = c.Confidence
	}
	return list
}

// -----------------------------------------------------------------------------

// clockTime renders seconds since midnight as "15:04:05", truncating the
// fractional part.
func clockTime(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
