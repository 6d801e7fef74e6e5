package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"mobility-observer/src/config"
	"mobility-observer/src/helpers"
	"mobility-observer/src/ingest"
	"mobility-observer/src/interfaces"
	"mobility-observer/src/logger"
	"mobility-observer/src/mobility"
	"mobility-observer/src/models"
	"mobility-observer/src/network"
	"mobility-observer/src/output"
	"mobility-observer/src/server"
	"mobility-observer/src/storage"
	"mobility-observer/src/utils"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	datasetPath := flag.String("dataset", "", "dataset file or URL (overrides config)")
	format := flag.String("format", "", "dataset format: lorawan, gateway or auto (overrides config)")
	deviceFilter := flag.String("device", "", "comma-separated device ids to process")
	dateFilter := flag.String("date", "", "comma-separated days (2006-01-02) to process")
	serve := flag.Bool("serve", false, "keep running and expose the API server after the run")
	flag.Parse()

	// Load config from YAML file
	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *datasetPath != "" {
		config.Ingest.DatasetPath = *datasetPath
	}
	if *format != "" {
		config.Ingest.Format = *format
	}

	// Setup logger
	appLogger := logger.NewLogger(config.LogLevel, config.Name)

	// 2. Setup Storage
	var db interfaces.IDatabase

	switch config.Storage.DBType {
	case "postgres":
		db, err = storage.NewPostgresDB(config.MConfig, appLogger)
	default:
		// Default to SQLite
		db, err = storage.NewAsyncSQLiteDB(config.MConfig, appLogger)
	}

	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
	}
	if err := db.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
	}
	defer db.Close()

	// 3. Setup Ingestion
	var networkManage interfaces.INetworkManager = network.NewAsyncNetworkManager(config.MConfig, appLogger)
	reader := ingest.NewDatasetReader(config.MConfig, networkManage, appLogger)

	if config.Ingest.DatasetPath == "" {
		appLogger.Critical("No dataset configured")
	}

	// 4. Memory Manager
	maxPoints := utils.CalculateMaxDataPoints(config.Ingest.DataRetentionDays)
	memLimit := helpers.GetRecommendedMemoryLimit()
	appLogger.Info("Memory limit set to: %d MB", memLimit)
	memManager := utils.NewMemoryManager(memLimit, maxPoints)

	// Transient faults (flaky dataset URLs, busy databases) are retried with
	// backoff rather than aborting the run.
	errHandler := helpers.NewErrorHandler()
	retries := config.Network.MaxRetries
	if retries < 1 {
		retries = 1
	}

	// 5. Load the dataset
	appLogger.Info("Reading dataset %s...", config.Ingest.DatasetPath)
	res, err := errHandler.ExecuteWithRetry("dataset ingest", func() (interface{}, error) {
		observations, dropped, err := reader.Read(config.Ingest.DatasetPath, config.Ingest.Format)
		if err != nil {
			return nil, err
		}
		return ingestResult{observations: observations, dropped: dropped}, nil
	}, retries)
	if err != nil {
		appLogger.Critical("Failed to read dataset: %v", err)
	}
	parsed := res.(ingestResult)
	observations, dropped := parsed.observations, parsed.dropped
	appLogger.Info("Parsed %d observations (%d dropped)", len(observations), dropped)

	for _, obs := range observations {
		memManager.AddObservation(obs)
	}

	if _, err := errHandler.ExecuteWithRetry("save observations", func() (interface{}, error) {
		return nil, db.SaveObservationsBulk(observations)
	}, retries); err != nil {
		appLogger.Error("Failed to persist observations: %v", err)
	}

	// 6. Run the pipeline over the retained window. The ring buffers cap each
	// device at the configured retention, so very old pings fall out here.
	var retained []models.MObservation
	for _, deviceObs := range memManager.GetAllObservations() {
		retained = append(retained, deviceObs...)
	}

	pipeline := mobility.NewMobilityFacade(config, appLogger)
	result := pipeline.Run(retained, splitList(*deviceFilter), splitList(*dateFilter))
	result.Metrics.RecordsDropped = dropped

	// 7. Persist derived tables
	if _, err := errHandler.ExecuteWithRetry("save day records", func() (interface{}, error) {
		return nil, db.SaveDayRecords(result.DayRecords)
	}, retries); err != nil {
		appLogger.Error("Failed to persist day records: %v", err)
	}

	summaries := make([]models.MDeviceSummary, 0, len(result.Summaries))
	for _, s := range result.Summaries {
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].DeviceID < summaries[j].DeviceID
	})
	if _, err := errHandler.ExecuteWithRetry("save device summaries", func() (interface{}, error) {
		return nil, db.SaveDeviceSummaries(summaries)
	}, retries); err != nil {
		appLogger.Error("Failed to persist summaries: %v", err)
	}

	if _, err := errHandler.ExecuteWithRetry("save anchor sets", func() (interface{}, error) {
		return nil, db.SaveAnchorSets(result.Anchors)
	}, retries); err != nil {
		appLogger.Error("Failed to persist anchors: %v", err)
	}

	// 8. Write the JSON artifacts
	assembler := output.NewAssembler(config.Output.Dir, appLogger)
	resultSet := assembler.Assemble(result, "INITIAL")
	if err := assembler.WriteArtifacts(resultSet); err != nil {
		appLogger.Critical("Failed to write artifacts: %v", err)
	}

	db.CleanupOldData()

	appLogger.Info("Run %s complete: %d devices, %d device-days",
		result.RunID, result.Metrics.ValidDevices, result.Metrics.DaysProcessed)

	if !*serve {
		return
	}

	// 9. Serve mode: expose the results over HTTP and websocket
	var srv interfaces.IDataExchanger = server.NewAPIServer(config.MConfig, appLogger)
	srv.UpdateAllDatas(resultSet)

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	srv.Stop()
}

// -----------------------------------------------------------------------------

// ingestResult carries the dataset read outcome through the retry wrapper.
type ingestResult struct {
	observations []models.MObservation
	dropped      int
}

// -----------------------------------------------------------------------------

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
