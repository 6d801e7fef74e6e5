package main

import (
	"flag"
	"fmt"
	"os"

	"mobility-observer/src/config"
	"mobility-observer/src/logger"
)

// Scenario harness: runs the full pipeline over synthetic datasets and
// checks the derived metrics against hand-computed expectations. Useful for
// exercising the whole stack (ingest, pipeline, storage, output) without a
// real deployment.

func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup Logger
	appLogger := logger.NewLogger(conf.LogLevel, "ScenarioHarness")

	// 4. Setup Components
	components, err := setupComponents(conf, appLogger)
	if err != nil {
		os.Exit(1)
	}
	defer components.DB.Close()

	// 5. Run scenarios
	scenarios := []scenario{
		{"commuter-week", runCommuterWeek},
		{"stationary-device", runStationaryDevice},
		{"multi-device-filtering", runMultiDeviceFiltering},
		{"ingest-lorawan-roundtrip", runLoRaWANRoundtrip},
	}

	failures := 0
	for _, sc := range scenarios {
		appLogger.Info("=== Scenario: %s ===", sc.name)
		if err := sc.run(components, appLogger); err != nil {
			appLogger.Error("Scenario %s FAILED: %v", sc.name, err)
			failures++
		} else {
			appLogger.Info("Scenario %s passed", sc.name)
		}
	}

	if failures > 0 {
		appLogger.Critical("%d scenario(s) failed", failures)
	}
	appLogger.Info("All scenarios passed")
}

// -----------------------------------------------------------------------------

type scenario struct {
	name string
	run  func(*Components, *logger.Logger) error
}
