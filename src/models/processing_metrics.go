package models

// MProcessingMetrics represents the performance metrics for one pipeline run.
type MProcessingMetrics struct {
	PipelineTimeSeconds float64 `json:"pipeline_time_seconds"`
	ObservationsParsed  int     `json:"observations_parsed"`
	RecordsDropped      int     `json:"records_dropped"`
	ValidDevices        int     `json:"valid_devices"`
	DaysProcessed       int     `json:"days_processed"`
}
