package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"mobility-observer/src/interfaces"
	"mobility-observer/src/logger"
	"mobility-observer/src/models"
)

// -----------------------------------------------------------------------------
// DatasetReader loads a raw dataset from disk or HTTP, picks the matching
// adapter and returns the canonical observation table.
// -----------------------------------------------------------------------------

type DatasetReader struct {
	Adapters []interfaces.IDatasetAdapter
	Network  interfaces.INetworkManager
	Logger   *logger.Logger
}

// -----------------------------------------------------------------------------

func NewDatasetReader(cfg *models.MConfig, netMgr interfaces.INetworkManager, log *logger.Logger) *DatasetReader {
	return &DatasetReader{
		Adapters: []interfaces.IDatasetAdapter{
			NewLoRaWANAdapter(cfg.Ingest.TimestampRule, log),
			NewGatewayAdapter(log),
		},
		Network: netMgr,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

// Read loads the dataset at path (file or http(s) URL) and normalizes it.
// format is "lorawan", "gateway" or "auto"/"" for shape detection.
func (r *DatasetReader) Read(path, format string) ([]models.MObservation, int, error) {
	raw, err := r.load(path)
	if err != nil {
		return nil, 0, err
	}

	adapter, err := r.pick(raw, format)
	if err != nil {
		return nil, 0, err
	}

	r.Logger.Info("Parsing dataset with %s adapter", adapter.Name())
	return adapter.Parse(raw)
}

// -----------------------------------------------------------------------------

func (r *DatasetReader) load(path string) ([]byte, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return r.Network.Get(path, nil)
	}
	return os.ReadFile(path)
}

// -----------------------------------------------------------------------------

// pick resolves the adapter by explicit name or by probing the first record.
func (r *DatasetReader) pick(raw []byte, format string) (interfaces.IDatasetAdapter, error) {
	if format != "" && format != "auto" {
		for _, a := range r.Adapters {
			if a.Name() == format {
				return a, nil
			}
		}
		return nil, fmt.Errorf("no adapter registered for format %q", format)
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("dataset is not a JSON array: %w", err)
	}
	if len(records) == 0 {
		// Empty dataset: any adapter yields the same empty table.
		return r.Adapters[0], nil
	}

	for _, a := range r.Adapters {
		if a.Detect(records[0]) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("no adapter recognizes the dataset shape")
}

// -----------------------------------------------------------------------------
// Shared parsing helpers
// -----------------------------------------------------------------------------

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTimestamp accepts the ISO-8601 variants seen across both dataset shapes.
func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
}

// -----------------------------------------------------------------------------

// asFloat narrows a decoded JSON value to float64.
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
