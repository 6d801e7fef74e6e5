package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

// writeConfigFile materializes a minimal valid YAML config with the given
// estimator block and returns its path.
func writeConfigFile(t *testing.T, estimatorBlock string) string {
	t.Helper()

	content := `name: test-observer
host: 127.0.0.1
port: 8000
storage:
  db_type: sqlite
  db_path: test.db
network:
  timeout: 15
  retries: 3
  concurrent_requests: 8
ingest:
  data_retention_days: 30
estimator:
` + estimatorBlock

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// -----------------------------------------------------------------------------

func TestSummaryQuantileDefaultsToMedian(t *testing.T) {
	cfg, err := NewConfig(writeConfigFile(t, "  precision_meters: 100\n"))
	require.NoError(t, err)

	assert.InDelta(t, 0.5, cfg.SummaryQuantile(), 1e-12)
}

func TestSummaryQuantileHonorsExplicitZero(t *testing.T) {
	cfg, err := NewConfig(writeConfigFile(t, "  quantile: 0\n"))
	require.NoError(t, err)

	assert.Equal(t, 0.0, cfg.SummaryQuantile())
}

func TestSummaryQuantileExplicitValue(t *testing.T) {
	cfg, err := NewConfig(writeConfigFile(t, "  quantile: 0.25\n"))
	require.NoError(t, err)

	assert.InDelta(t, 0.25, cfg.SummaryQuantile(), 1e-12)
}

func TestQuantileOutOfRangeRejected(t *testing.T) {
	_, err := NewConfig(writeConfigFile(t, "  quantile: 1.5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantile")
}

func TestPrecisionMetersDefault(t *testing.T) {
	cfg, err := NewConfig(writeConfigFile(t, "  quantile: 0.5\n"))
	require.NoError(t, err)

	assert.Equal(t, 100.0, cfg.PrecisionMeters())
}
