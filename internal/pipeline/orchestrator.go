// Package pipeline wires the disaster response agents into one flow:
// detection reads sensor data, analysis scores risk, alerting recommends
// the emergency response. Every execution is recorded as a run.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/stanley1208/ADK/internal/alerting"
	"github.com/stanley1208/ADK/internal/analysis"
	"github.com/stanley1208/ADK/internal/bqlog"
	"github.com/stanley1208/ADK/internal/detection"
	"github.com/stanley1208/ADK/internal/eventbus"
	"github.com/stanley1208/ADK/internal/run"
	"github.com/stanley1208/ADK/internal/session"
)

const appName = "disaster_response"

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Request selects the sensor data to process. BigQueryConfig redirects
// detection logging for this run only.
type Request struct {
	FilePath       string                `json:"file_path,omitempty"`
	Pattern        string                `json:"pattern,omitempty"`
	BigQueryConfig *bqlog.TargetOverride `json:"bigquery_config,omitempty"`
}

// Response is the pipeline result returned to callers.
type Response struct {
	PipelineStatus string            `json:"pipeline_status"`
	RiskLevel      string            `json:"risk_level"`
	Priority       string            `json:"priority"`
	Detection      *detection.Result `json:"detection,omitempty"`
	Analysis       *analysis.Result  `json:"analysis,omitempty"`
	Alerts         *alerting.Alert   `json:"alerts,omitempty"`
	RunID          string            `json:"run_id,omitempty"`
	SessionID      string            `json:"session_id,omitempty"`
}

type Orchestrator struct {
	dataDir       string
	logger        bqlog.Logger
	analysisAgent *analysis.Agent
	alertAgent    *alerting.Agent
	sessionRepo   session.Repository
	runRepo       run.Repository
	bus           *eventbus.Bus
}

func NewOrchestrator(
	dataDir string,
	logger bqlog.Logger,
	sessionRepo session.Repository,
	runRepo run.Repository,
	bus *eventbus.Bus,
) *Orchestrator {
	return &Orchestrator{
		dataDir:       dataDir,
		logger:        logger,
		analysisAgent: analysis.NewAgent(),
		alertAgent:    alerting.NewAgent(),
		sessionRepo:   sessionRepo,
		runRepo:       runRepo,
		bus:           bus,
	}
}

// Execute runs one detection-analysis-alerting pass and records it.
func (o *Orchestrator) Execute(ctx context.Context, req Request) *Response {
	meta := map[string]string{}
	if req.FilePath != "" {
		meta["file_path"] = req.FilePath
	}
	if req.Pattern != "" {
		meta["pattern"] = req.Pattern
	}
	sess := &session.Session{
		ID:        ulid.Make().String(),
		AppName:   appName,
		Metadata:  meta,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := o.sessionRepo.Create(ctx, sess); err != nil {
		slog.Error("failed to create session", "error", err)
	}

	rn := &run.Run{
		ID:        ulid.Make().String(),
		SessionID: sess.ID,
		Status:    run.StatusRunning,
		FilePath:  req.FilePath,
		StartedAt: time.Now(),
	}
	if err := o.runRepo.Create(ctx, rn); err != nil {
		slog.Error("failed to create run", "error", err)
	}
	o.bus.PublishNew(eventbus.EventTypeRunStarted, rn.ID, "", nil)
	slog.Info("pipeline run started", "run_id", rn.ID, "file_path", req.FilePath)

	logger := o.logger
	if req.BigQueryConfig != nil {
		logger = logger.WithOverride(*req.BigQueryConfig)
	}
	detectionAgent := detection.NewAgent(o.dataDir, logger)

	det := detectionAgent.DetectAndRead(ctx, detection.Input{
		FilePath: req.FilePath,
		Pattern:  req.Pattern,
	})
	if det.Status != detection.StatusDataDetected {
		return o.failRun(ctx, rn, sess.ID, det)
	}

	ana := o.analysisAgent.Analyze(det.SensorData)
	alert := o.alertAgent.BuildAlert(ana)

	rn.Status = run.StatusCompleted
	rn.FilePath = det.DetectionInfo.FilePath
	rn.RiskLevel = string(ana.OverallRiskLevel)
	rn.Priority = string(alert.Priority)
	rn.CompletedAt = time.Now()
	if err := o.runRepo.Update(ctx, rn); err != nil {
		slog.Error("failed to update run", "run_id", rn.ID, "error", err)
	}

	o.bus.PublishNew(eventbus.EventTypeRunCompleted, rn.ID, "", map[string]string{
		"file_path":  det.DetectionInfo.FilePath,
		"risk_level": rn.RiskLevel,
		"priority":   rn.Priority,
	})
	o.bus.PublishNew(eventbus.EventTypeAlertRaised, rn.ID, "", map[string]string{
		"risk_level": rn.RiskLevel,
		"priority":   rn.Priority,
	})
	slog.Info("pipeline run completed",
		"run_id", rn.ID,
		"risk_level", rn.RiskLevel,
		"priority", rn.Priority,
		"readings", ana.TotalReadings,
	)

	return &Response{
		PipelineStatus: StatusCompleted,
		RiskLevel:      rn.RiskLevel,
		Priority:       rn.Priority,
		Detection:      det,
		Analysis:       ana,
		Alerts:         alert,
		RunID:          rn.ID,
		SessionID:      sess.ID,
	}
}

// failRun records a detection failure. The response still satisfies the
// output contract, with the detection object carrying the reason.
func (o *Orchestrator) failRun(ctx context.Context, rn *run.Run, sessionID string, det *detection.Result) *Response {
	rn.Status = run.StatusFailed
	rn.RiskLevel = string(analysis.RiskLow)
	rn.Priority = string(alerting.PriorityNormal)
	rn.Error = det.Error
	if rn.Error == "" {
		rn.Error = string(det.Status)
	}
	rn.CompletedAt = time.Now()
	if err := o.runRepo.Update(ctx, rn); err != nil {
		slog.Error("failed to update run", "run_id", rn.ID, "error", err)
	}

	o.bus.PublishNew(eventbus.EventTypeRunFailed, rn.ID, "", map[string]string{
		"detection_status": string(det.Status),
	})
	slog.Warn("pipeline run failed", "run_id", rn.ID, "detection_status", det.Status)

	return &Response{
		PipelineStatus: StatusFailed,
		RiskLevel:      rn.RiskLevel,
		Priority:       rn.Priority,
		Detection:      det,
		RunID:          rn.ID,
		SessionID:      sessionID,
	}
}

// Start runs the pipeline for every detected sensor file until ctx is
// cancelled.
func (o *Orchestrator) Start(ctx context.Context) {
	subID, ch := o.bus.Subscribe(256)
	defer o.bus.Unsubscribe(subID)

	slog.Info("pipeline orchestrator started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("pipeline orchestrator stopped")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.Type == eventbus.EventTypeFileDetected {
				o.Execute(ctx, Request{FilePath: event.ResourceID})
			}
		}
	}
}
