package mobility

import (
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mobility-observer/src/config"
	"mobility-observer/src/logger"
	"mobility-observer/src/models"
)

// -----------------------------------------------------------------------------
// MobilityFacade runs the full reconstruction pipeline: partitioning, daily
// aggregation, device summaries and anchor estimation. Devices are processed
// concurrently; results are keyed by device id and fully deterministic for a
// given input.
// -----------------------------------------------------------------------------

type MobilityFacade struct {
	Config          *models.MConfig
	PrecisionMeters float64
	Quantile        float64
	Logger          *logger.Logger
}

// MobilityResult is the in-memory output of one pipeline run.
type MobilityResult struct {
	RunID      string
	Partitions map[string][]models.MDevicePartition
	DayRecords map[string][]models.MDeviceDayRecord
	Summaries  map[string]models.MDeviceSummary
	Anchors    map[string]models.MAnchorSet
	Metrics    models.MProcessingMetrics
}

// -----------------------------------------------------------------------------

func NewMobilityFacade(cfg *config.Config, log *logger.Logger) *MobilityFacade {
	return &MobilityFacade{
		Config:          cfg.MConfig,
		PrecisionMeters: cfg.PrecisionMeters(),
		Quantile:        cfg.SummaryQuantile(),
		Logger:          log,
	}
}

// -----------------------------------------------------------------------------

// Run executes the pipeline over the given observations. devices and dates
// optionally restrict the run to those device ids and "2006-01-02" days; nil
// or empty means no restriction.
func (m *MobilityFacade) Run(observations []models.MObservation, devices, dates []string) *MobilityResult {
	started := time.Now()

	filtered := filterObservations(observations, devices, dates)
	m.Logger.Info("Running pipeline over %d observations (%d after filters)",
		len(observations), len(filtered))

	partitions := ReconstructTrajectories(filtered)

	result := &MobilityResult{
		RunID:      uuid.New().String(),
		Partitions: partitions,
		DayRecords: make(map[string][]models.MDeviceDayRecord, len(partitions)),
		Summaries:  make(map[string]models.MDeviceSummary, len(partitions)),
		Anchors:    make(map[string]models.MAnchorSet, len(partitions)),
	}

	// Stable iteration order so concurrent runs stay reproducible
	deviceIDs := make([]string, 0, len(partitions))
	for deviceID := range partitions {
		deviceIDs = append(deviceIDs, deviceID)
	}
	sort.Strings(deviceIDs)

	// Process devices concurrently, bounded by CPU count
	maxWorkers := runtime.NumCPU()
	if maxWorkers > len(deviceIDs) {
		maxWorkers = len(deviceIDs)
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	semaphore := make(chan struct{}, maxWorkers)
	var wg sync.WaitGroup
	var mu sync.Mutex

	daysProcessed := 0

	for _, deviceID := range deviceIDs {
		wg.Add(1)
		go func(deviceID string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			devicePartitions := partitions[deviceID]
			records := make([]models.MDeviceDayRecord, len(devicePartitions))
			totalObs := 0
			for i, partition := range devicePartitions {
				records[i] = AggregateDay(partition)
				totalObs += len(partition.Observations)
			}

			summary := SummarizeDevice(deviceID, records, totalObs, m.Quantile)
			anchors := EstimateAnchors(deviceID, records, m.PrecisionMeters)

			mu.Lock()
			result.DayRecords[deviceID] = records
			result.Summaries[deviceID] = summary
			result.Anchors[deviceID] = anchors
			daysProcessed += len(records)
			mu.Unlock()
		}(deviceID)
	}
	wg.Wait()

	result.Metrics = models.MProcessingMetrics{
		PipelineTimeSeconds: time.Since(started).Seconds(),
		ObservationsParsed:  len(filtered),
		ValidDevices:        len(deviceIDs),
		DaysProcessed:       daysProcessed,
	}

	m.Logger.Info("Pipeline done: %d devices, %d device-days in %.3fs",
		result.Metrics.ValidDevices, result.Metrics.DaysProcessed, result.Metrics.PipelineTimeSeconds)

	return result
}

// -----------------------------------------------------------------------------

// filterObservations keeps observations matching the device and date filters.
// Filtering before reconstruction is equivalent to filtering the outputs,
// since every derived row belongs to exactly one (device, day).
func filterObservations(observations []models.MObservation, devices, dates []string) []models.MObservation {
	if len(devices) == 0 && len(dates) == 0 {
		return observations
	}

	deviceSet := make(map[string]bool, len(devices))
	for _, d := range devices {
		deviceSet[d] = true
	}
	dateSet := make(map[string]bool, len(dates))
	for _, d := range dates {
		dateSet[d] = true
	}

	filtered := make([]models.MObservation, 0, len(observations))
	for _, obs := range observations {
		if len(deviceSet) > 0 && !deviceSet[obs.DeviceID] {
			continue
		}
		if len(dateSet) > 0 && !dateSet[obs.Day()] {
			continue
		}
		filtered = append(filtered, obs)
	}
	return filtered
}
