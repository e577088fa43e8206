package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanley1208/ADK/internal/bqlog"
	"github.com/stanley1208/ADK/internal/eventbus"
	"github.com/stanley1208/ADK/internal/run"
	runrepo "github.com/stanley1208/ADK/internal/run/repositoryimpl"
	sessionrepo "github.com/stanley1208/ADK/internal/session/repositoryimpl"
	"github.com/stanley1208/ADK/pkg/storage"
)

func newTestOrchestrator(t *testing.T, dataDir string, logger bqlog.Logger) (*Orchestrator, run.Repository, *eventbus.Bus) {
	t.Helper()
	store, err := storage.NewLocalStorage(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)
	bus := eventbus.New()
	runs := runrepo.NewYAMLRepository(store)
	o := NewOrchestrator(dataDir, logger, sessionrepo.NewYAMLRepository(store), runs, bus)
	return o, runs, bus
}

func writeSensorFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestExecuteHighRisk(t *testing.T) {
	dataDir := t.TempDir()
	writeSensorFile(t, dataDir, "fire.json", `{
		"sensor_data": [
			{"location": "Server Room", "temperature": 75, "smoke_level": 85, "timestamp": "2025-01-11T10:30:00Z"},
			{"location": "Lobby", "temperature": 22, "smoke_level": 5, "timestamp": "2025-01-11T10:30:00Z"}
		]
	}`)

	logger := bqlog.NewMock("test-project", "", "")
	o, runs, _ := newTestOrchestrator(t, dataDir, logger)

	res := o.Execute(context.Background(), Request{})
	assert.Equal(t, StatusCompleted, res.PipelineStatus)
	assert.Equal(t, "High", res.RiskLevel)
	assert.Equal(t, "CRITICAL", res.Priority)
	require.NotNil(t, res.Alerts)
	assert.Equal(t, []string{"Server Room"}, res.Alerts.HighRiskLocations)
	require.NotNil(t, res.Analysis)
	assert.Equal(t, 2, res.Analysis.TotalReadings)

	// Detection logged both readings.
	assert.Len(t, logger.Rows(), 2)

	// The run record reflects the outcome.
	rn, err := runs.Get(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.StatusCompleted, rn.Status)
	assert.Equal(t, "High", rn.RiskLevel)
	assert.Equal(t, "CRITICAL", rn.Priority)
	assert.Equal(t, res.SessionID, rn.SessionID)
}

func TestExecuteLowRisk(t *testing.T) {
	dataDir := t.TempDir()
	writeSensorFile(t, dataDir, "normal.json", `{
		"sensor_data": [
			{"location": "Office", "temperature": 21, "smoke_level": 2, "timestamp": "2025-01-11T10:30:00Z"}
		]
	}`)

	o, _, _ := newTestOrchestrator(t, dataDir, bqlog.Disabled{})

	res := o.Execute(context.Background(), Request{})
	assert.Equal(t, StatusCompleted, res.PipelineStatus)
	assert.Equal(t, "Low", res.RiskLevel)
	assert.Equal(t, "NORMAL", res.Priority)
}

func TestExecuteNoData(t *testing.T) {
	o, runs, _ := newTestOrchestrator(t, t.TempDir(), bqlog.Disabled{})

	res := o.Execute(context.Background(), Request{})
	assert.Equal(t, StatusFailed, res.PipelineStatus)
	assert.Equal(t, "Low", res.RiskLevel)
	assert.Equal(t, "NORMAL", res.Priority)
	require.NotNil(t, res.Detection)
	assert.Equal(t, "no_data_found", string(res.Detection.Status))
	assert.Nil(t, res.Analysis)
	assert.Nil(t, res.Alerts)

	rn, err := runs.Get(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.StatusFailed, rn.Status)
	assert.NotEmpty(t, rn.Error)
}

func TestExecuteBigQueryOverride(t *testing.T) {
	dataDir := t.TempDir()
	writeSensorFile(t, dataDir, "readings.json", `[
		{"location": "Basement", "temperature": 45, "smoke_level": 55, "timestamp": "2025-01-11T10:30:00Z"}
	]`)

	logger := bqlog.NewMock("test-project", "", "")
	o, _, _ := newTestOrchestrator(t, dataDir, logger)

	res := o.Execute(context.Background(), Request{
		BigQueryConfig: &bqlog.TargetOverride{DatasetID: "custom_ds", TableID: "custom_tbl"},
	})
	assert.Equal(t, StatusCompleted, res.PipelineStatus)
	assert.Equal(t, "Medium", res.RiskLevel)
	assert.Equal(t, "HIGH", res.Priority)
	assert.Contains(t, res.Detection.BigQueryLogging.TableID, "custom_ds.custom_tbl")

	// Override is per run, the base logger target is untouched.
	assert.Equal(t, "disaster_response", logger.Status().DatasetID)
	assert.Len(t, logger.Rows(), 1)
}

func TestExecuteRecordsSessionMetadata(t *testing.T) {
	dataDir := t.TempDir()
	writeSensorFile(t, dataDir, "fire_readings.json", `[
		{"location": "Roof", "temperature": 80, "smoke_level": 90, "timestamp": "2025-01-11T10:30:00Z"}
	]`)

	store, err := storage.NewLocalStorage(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)
	sessions := sessionrepo.NewYAMLRepository(store)
	o := NewOrchestrator(dataDir, bqlog.Disabled{}, sessions, runrepo.NewYAMLRepository(store), eventbus.New())

	res := o.Execute(context.Background(), Request{Pattern: "fire_*.json"})
	require.Equal(t, StatusCompleted, res.PipelineStatus)

	sess, err := sessions.Get(context.Background(), res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "disaster_response", sess.AppName)
	assert.Equal(t, "fire_*.json", sess.Metadata["pattern"])
}

func TestExecutePublishesEvents(t *testing.T) {
	dataDir := t.TempDir()
	writeSensorFile(t, dataDir, "fire.json", `[
		{"location": "Roof", "temperature": 80, "smoke_level": 90, "timestamp": "2025-01-11T10:30:00Z"}
	]`)

	o, _, bus := newTestOrchestrator(t, dataDir, bqlog.Disabled{})
	_, ch := bus.Subscribe(16)

	res := o.Execute(context.Background(), Request{})
	require.Equal(t, StatusCompleted, res.PipelineStatus)

	types := map[eventbus.EventType]*eventbus.Event{}
	for len(ch) > 0 {
		ev := <-ch
		types[ev.Type] = ev
	}
	require.Contains(t, types, eventbus.EventTypeRunStarted)
	require.Contains(t, types, eventbus.EventTypeRunCompleted)
	require.Contains(t, types, eventbus.EventTypeAlertRaised)
	assert.Equal(t, "CRITICAL", types[eventbus.EventTypeAlertRaised].Metadata["priority"])
	assert.Equal(t, res.RunID, types[eventbus.EventTypeRunCompleted].ResourceID)
}

func TestResponseMatchesOutputContract(t *testing.T) {
	dataDir := t.TempDir()
	writeSensorFile(t, dataDir, "fire.json", `[
		{"location": "Roof", "temperature": 80, "smoke_level": 90, "timestamp": "2025-01-11T10:30:00Z"}
	]`)

	o, _, _ := newTestOrchestrator(t, dataDir, bqlog.Disabled{})
	res := o.Execute(context.Background(), Request{})

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "completed", body["pipeline_status"])
	assert.Contains(t, body, "risk_level")
	assert.Contains(t, body, "priority")
	assert.Contains(t, body, "detection")
	assert.Contains(t, body, "analysis")
	assert.Contains(t, body, "alerts")

	// The analysis object identifies the agent that produced it.
	ana, ok := body["analysis"].(map[string]any)
	require.True(t, ok)
	info, ok := ana["agent_info"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "risk_analysis_agent", info["agent_name"])
	assert.NotEmpty(t, info["agent_description"])
}
