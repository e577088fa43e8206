// Package detection reads sensor data files from the simulated data
// directory, one file per pass, and logs detected readings to BigQuery.
package detection

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/stanley1208/ADK/internal/bqlog"
	"github.com/stanley1208/ADK/internal/sensor"
)

type Status string

const (
	StatusDataDetected Status = "data_detected"
	StatusNoDataFound  Status = "no_data_found"
	StatusFileNotFound Status = "file_not_found"
	StatusInvalidJSON  Status = "invalid_json"
	StatusReadError    Status = "read_error"
)

const (
	DefaultPattern = "*.json"

	agentName        = "sensor_detection_agent"
	agentDescription = "Agent specialized in detecting and reading sensor data from JSON files. " +
		"Monitors the simulated data directory for new sensor readings, processes one file " +
		"at a time, and optionally logs data to BigQuery for historical analysis."
)

// Input selects what to read: a specific file (relative paths resolve
// against the data directory) or a glob pattern, default *.json.
type Input struct {
	FilePath string
	Pattern  string
}

// Info describes where a detection pass looked and what it found.
type Info struct {
	FilePath         string    `json:"file_path,omitempty"`
	FileName         string    `json:"file_name,omitempty"`
	FileSize         int64     `json:"file_size,omitempty"`
	ReadTimestamp    time.Time `json:"read_timestamp,omitempty"`
	DirectoryChecked string    `json:"directory_checked,omitempty"`
	PatternSearched  string    `json:"pattern_searched,omitempty"`
	FilesFound       int       `json:"files_found"`
}

// LoggingStatus reports the outcome of the BigQuery side channel.
type LoggingStatus struct {
	Enabled      bool   `json:"enabled"`
	Status       string `json:"status"`
	RowsInserted int    `json:"rows_inserted,omitempty"`
	TableID      string `json:"table_id,omitempty"`
	DetectionID  string `json:"detection_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Result is the outcome of one detection pass. Failure modes are domain
// statuses, not errors: a missing directory or an unreadable file is a
// result the pipeline reports, not a crash.
type Result struct {
	Status          Status           `json:"status"`
	Message         string           `json:"message,omitempty"`
	Error           string           `json:"error,omitempty"`
	SensorData      []sensor.Reading `json:"sensor_data,omitempty"`
	DetectionInfo   Info             `json:"detection_info"`
	BigQueryLogging LoggingStatus    `json:"bigquery_logging"`
	Timestamp       time.Time        `json:"timestamp"`
}

type Agent struct {
	name        string
	description string
	dataDir     string
	logger      bqlog.Logger
}

func NewAgent(dataDir string, logger bqlog.Logger) *Agent {
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		abs = dataDir
	}
	return &Agent{
		name:        agentName,
		description: agentDescription,
		dataDir:     abs,
		logger:      logger,
	}
}

func (a *Agent) Name() string        { return a.name }
func (a *Agent) Description() string { return a.description }
func (a *Agent) DataDir() string     { return a.dataDir }

// DetectAndRead runs one detection pass. With a specific file it reads
// that file; otherwise it globs the data directory and reads the first
// match in sorted order.
func (a *Agent) DetectAndRead(ctx context.Context, in Input) *Result {
	if in.FilePath != "" {
		path := in.FilePath
		if !filepath.IsAbs(path) {
			path = filepath.Join(a.dataDir, path)
		}
		return a.readFile(ctx, path)
	}

	pattern := in.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	files := a.findFiles(pattern)
	if len(files) == 0 {
		return &Result{
			Status:    StatusNoDataFound,
			Message:   fmt.Sprintf("No JSON files found in %s", a.dataDir),
			Timestamp: time.Now(),
			DetectionInfo: Info{
				DirectoryChecked: a.dataDir,
				PatternSearched:  pattern,
				FilesFound:       0,
			},
			BigQueryLogging: LoggingStatus{
				Enabled: a.logger.Enabled(),
				Status:  "no_data_to_log",
			},
		}
	}

	res := a.readFile(ctx, files[0])
	res.DetectionInfo.DirectoryChecked = a.dataDir
	res.DetectionInfo.PatternSearched = pattern
	res.DetectionInfo.FilesFound = len(files)
	return res
}

// ListAvailableFiles returns every file in the data directory matching
// the default pattern.
func (a *Agent) ListAvailableFiles() []string {
	return a.findFiles(DefaultPattern)
}

func (a *Agent) findFiles(pattern string) []string {
	if _, err := os.Stat(a.dataDir); err != nil {
		slog.Warn("data directory does not exist", "dir", a.dataDir)
		return nil
	}
	files, err := filepath.Glob(filepath.Join(a.dataDir, pattern))
	if err != nil {
		slog.Warn("bad file pattern", "pattern", pattern, "error", err)
		return nil
	}
	// Sort for a stable processing order.
	sort.Strings(files)
	return files
}

func (a *Agent) readFile(ctx context.Context, path string) *Result {
	detectedAt := time.Now()
	failed := func(status Status, err error) *Result {
		return &Result{
			Status:    status,
			Error:     err.Error(),
			Timestamp: detectedAt,
			BigQueryLogging: LoggingStatus{
				Enabled: a.logger.Enabled(),
				Status:  "no_data_to_log",
			},
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return failed(StatusFileNotFound, fmt.Errorf("file not found: %s", path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return failed(StatusReadError, fmt.Errorf("error reading file %s: %w", path, err))
	}

	readings, err := sensor.Parse(data)
	if err != nil {
		return failed(StatusInvalidJSON, fmt.Errorf("invalid JSON in file %s: %w", path, err))
	}

	res := &Result{
		Status:     StatusDataDetected,
		SensorData: readings,
		Timestamp:  detectedAt,
		DetectionInfo: Info{
			FilePath:      path,
			FileName:      filepath.Base(path),
			FileSize:      info.Size(),
			ReadTimestamp: detectedAt,
		},
		BigQueryLogging: LoggingStatus{
			Enabled: a.logger.Enabled(),
			Status:  "not_attempted",
		},
	}

	res.BigQueryLogging = a.logReadings(ctx, readings, path, info.Size(), detectedAt)
	return res
}

// logReadings inserts one row per reading. BigQuery failure never fails
// the detection pass.
func (a *Agent) logReadings(ctx context.Context, readings []sensor.Reading, path string, size int64, detectedAt time.Time) LoggingStatus {
	if !a.logger.Enabled() {
		return LoggingStatus{Enabled: false, Status: "bigquery_not_enabled"}
	}
	if len(readings) == 0 {
		return LoggingStatus{Enabled: true, Status: "no_data_to_log"}
	}

	detectionID := "detection_" + ulid.Make().String()
	fileName := filepath.Base(path)
	rows := make([]*bqlog.Row, len(readings))
	for i, r := range readings {
		rows[i] = &bqlog.Row{
			DetectionID:        fmt.Sprintf("%s_%d", detectionID, i),
			FileName:           fileName,
			FilePath:           path,
			Location:           r.Location,
			Temperature:        r.Temperature,
			SmokeLevel:         r.SmokeLevel,
			SensorTimestamp:    r.Time(detectedAt),
			DetectionTimestamp: detectedAt,
			FileSize:           size,
			TotalReadings:      len(readings),
		}
	}

	if err := a.logger.Insert(ctx, rows); err != nil {
		slog.Error("bigquery insert failed", "file", path, "error", err)
		return LoggingStatus{
			Enabled: true,
			Status:  "error",
			Error:   err.Error(),
		}
	}
	return LoggingStatus{
		Enabled:      true,
		Status:       "success",
		RowsInserted: len(rows),
		TableID:      a.logger.Status().FullTableID,
		DetectionID:  detectionID,
	}
}
