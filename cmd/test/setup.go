package main

import (
	"mobility-observer/src/config"
	"mobility-observer/src/ingest"
	"mobility-observer/src/interfaces"
	"mobility-observer/src/logger"
	"mobility-observer/src/mobility"
	"mobility-observer/src/network"
	"mobility-observer/src/output"
	"mobility-observer/src/storage"
)

// -----------------------------------------------------------------------------

// Components bundles everything a scenario needs.
type Components struct {
	Config    *config.Config
	DB        interfaces.IDatabase
	Reader    *ingest.DatasetReader
	Pipeline  *mobility.MobilityFacade
	Assembler *output.Assembler
}

// -----------------------------------------------------------------------------

// setupComponents initializes the full stack against the configured storage.
func setupComponents(conf *config.Config, appLogger *logger.Logger) (*Components, error) {
	var db interfaces.IDatabase
	var err error

	switch conf.Storage.DBType {
	case "postgres":
		pgLogger := logger.NewLogger(conf.LogLevel, "PostgresDB")
		db, err = storage.NewPostgresDB(conf.MConfig, pgLogger)
	default:
		// Default to SQLite
		sqliteLogger := logger.NewLogger(conf.LogLevel, "SQLiteDB")
		db, err = storage.NewAsyncSQLiteDB(conf.MConfig, sqliteLogger)
	}

	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
		return nil, err
	}
	if err := db.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
		return nil, err
	}

	networkLogger := logger.NewLogger(conf.LogLevel, "NetworkManager")
	networkManager := network.NewAsyncNetworkManager(conf.MConfig, networkLogger)

	readerLogger := logger.NewLogger(conf.LogLevel, "DatasetReader")
	reader := ingest.NewDatasetReader(conf.MConfig, networkManager, readerLogger)

	pipelineLogger := logger.NewLogger(conf.LogLevel, "Mobility")
	pipeline := mobility.NewMobilityFacade(conf, pipelineLogger)

	outputLogger := logger.NewLogger(conf.LogLevel, "Output")
	assembler := output.NewAssembler(conf.Output.Dir, outputLogger)

	return &Components{
		Config:    conf,
		DB:        db,
		Reader:    reader,
		Pipeline:  pipeline,
		Assembler: assembler,
	}, nil
}
