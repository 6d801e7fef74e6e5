package models

// MConfig Structure
type MConfig struct {
	Name      string           `yaml:"name"`
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	LogLevel  string           `yaml:"log_level"`
	Storage   MStorageConfig   `yaml:"storage"`
	Network   MNetworkConfig   `yaml:"network"`
	Ingest    MIngestConfig    `yaml:"ingest"`
	Estimator MEstimatorConfig `yaml:"estimator"`
	Output    MOutputConfig    `yaml:"output"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MNetworkConfig struct {
	Enabled            bool     `yaml:"enabled"`
	Proxies            []string `yaml:"proxies"`
	RequestTimeout     int      `yaml:"timeout"`
	MaxRetries         int      `yaml:"retries"`
	ConcurrentRequests int      `yaml:"concurrent_requests"`
	UserAgent          string   `yaml:"user_agent"`
}

type MIngestConfig struct {
	// DatasetPath is a local JSON file or an http(s) URL.
	DatasetPath string `yaml:"dataset_path"`
	// Format is "lorawan", "gateway" or "auto".
	Format string `yaml:"format"`
	// TimestampRule selects the LoRaWAN gateway timestamp: "first" or "median".
	TimestampRule     string `yaml:"timestamp_rule"`
	DataRetentionDays int    `yaml:"data_retention_days"`
}

type MEstimatorConfig struct {
	// PrecisionMeters sizes the anchor coordinate grid. Default 100.
	PrecisionMeters float64 `yaml:"precision_meters"`
	// Quantile for start/end time-of-day summaries. Nil means median (0.5);
	// 0 is a valid request (the minimum).
	Quantile *float64 `yaml:"quantile"`
}

type MOutputConfig struct {
	Dir string `yaml:"dir"`
}
