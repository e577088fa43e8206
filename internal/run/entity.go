package run

import "time"

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is the persisted record of one pipeline execution. It is also
// returned by the runs API, so fields carry json tags alongside yaml.
type Run struct {
	ID          string    `yaml:"id" json:"id"`
	SessionID   string    `yaml:"session_id" json:"session_id"`
	Status      Status    `yaml:"status" json:"status"`
	FilePath    string    `yaml:"file_path" json:"file_path"`
	RiskLevel   string    `yaml:"risk_level" json:"risk_level"`
	Priority    string    `yaml:"priority" json:"priority"`
	Error       string    `yaml:"error" json:"error,omitempty"`
	StartedAt   time.Time `yaml:"started_at" json:"started_at"`
	CompletedAt time.Time `yaml:"completed_at" json:"completed_at"`
}
