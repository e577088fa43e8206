// Package bqlog stores detected sensor readings in BigQuery for
// historical analysis. Logging is a best-effort side channel: a sink
// that fails to initialize degrades to disabled and detection carries on.
package bqlog

import (
	"context"
	"time"
)

// Row is one detected sensor reading as stored in the sensor_readings table.
type Row struct {
	DetectionID        string
	FileName           string
	FilePath           string
	Location           string
	Temperature        float64
	SmokeLevel         float64
	SensorTimestamp    time.Time
	DetectionTimestamp time.Time
	FileSize           int64
	TotalReadings      int
}

// HistoryEntry is one row returned by a history query.
type HistoryEntry struct {
	Location           string    `json:"location" bigquery:"location"`
	Temperature        float64   `json:"temperature" bigquery:"temperature"`
	SmokeLevel         float64   `json:"smoke_level" bigquery:"smoke_level"`
	SensorTimestamp    time.Time `json:"sensor_timestamp" bigquery:"sensor_timestamp"`
	DetectionTimestamp time.Time `json:"detection_timestamp" bigquery:"detection_timestamp"`
}

// Status reports the sink configuration, mirroring what operators need
// to see on the status endpoint.
type Status struct {
	Enabled      bool   `json:"enabled"`
	ProjectID    string `json:"project_id,omitempty"`
	DatasetID    string `json:"dataset_id,omitempty"`
	TableID      string `json:"table_id,omitempty"`
	TableCreated bool   `json:"table_created"`
	FullTableID  string `json:"full_table_id,omitempty"`
}

// TargetOverride redirects logging for a single pipeline run, carrying
// the optional bigquery_config object from the request.
type TargetOverride struct {
	ProjectID string `json:"project_id,omitempty"`
	DatasetID string `json:"dataset_id,omitempty"`
	TableID   string `json:"table_id,omitempty"`
}

// Logger is the sink the detection agent writes to.
type Logger interface {
	Enabled() bool
	Insert(ctx context.Context, rows []*Row) error
	QueryHistory(ctx context.Context, location string, hoursBack int) ([]HistoryEntry, error)
	Status() Status
	WithOverride(o TargetOverride) Logger
}

const historyLimit = 1000
