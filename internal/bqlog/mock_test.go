package bqlog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockInsertAndQuery(t *testing.T) {
	m := NewMock("test-project", "", "")
	ctx := context.Background()

	now := time.Now()
	rows := []*Row{
		{
			DetectionID:        "det_1_0",
			FileName:           "fire.json",
			FilePath:           "simulated_data/fire.json",
			Location:           "Building A",
			Temperature:        75,
			SmokeLevel:         85,
			SensorTimestamp:    now.Add(-time.Minute),
			DetectionTimestamp: now,
			TotalReadings:      2,
		},
		{
			DetectionID:        "det_1_1",
			FileName:           "fire.json",
			FilePath:           "simulated_data/fire.json",
			Location:           "Building B",
			Temperature:        25,
			SmokeLevel:         10,
			SensorTimestamp:    now,
			DetectionTimestamp: now,
			TotalReadings:      2,
		},
	}
	require.NoError(t, m.Insert(ctx, rows))

	entries, err := m.QueryHistory(ctx, "", 24)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Newest sensor timestamp first.
	assert.Equal(t, "Building B", entries[0].Location)

	entries, err = m.QueryHistory(ctx, "Building A", 24)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 75.0, entries[0].Temperature)
}

func TestMockQueryHistoryWindow(t *testing.T) {
	m := NewMock("test-project", "", "")
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, m.Insert(ctx, []*Row{{
		DetectionID:        "det_old",
		Location:           "Basement",
		SensorTimestamp:    old,
		DetectionTimestamp: old,
	}}))

	entries, err := m.QueryHistory(ctx, "", 24)
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = m.QueryHistory(ctx, "", 72)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMockWithOverrideSharesStore(t *testing.T) {
	m := NewMock("test-project", "", "")
	ctx := context.Background()

	derived := m.WithOverride(TargetOverride{DatasetID: "custom_ds", TableID: "custom_tbl"})
	require.NoError(t, derived.Insert(ctx, []*Row{{
		DetectionID:        "det_1",
		Location:           "Roof",
		SensorTimestamp:    time.Now(),
		DetectionTimestamp: time.Now(),
	}}))

	assert.Len(t, m.Rows(), 1)
	assert.Equal(t, "custom_ds", derived.Status().DatasetID)
	assert.Equal(t, "disaster_response", m.Status().DatasetID)
	assert.Equal(t, "sensor_readings", m.Status().TableID)
}

func TestDisabledLogger(t *testing.T) {
	var l Logger = Disabled{}
	assert.False(t, l.Enabled())
	assert.NoError(t, l.Insert(context.Background(), []*Row{{DetectionID: "x"}}))
	entries, err := l.QueryHistory(context.Background(), "", 24)
	assert.NoError(t, err)
	assert.Empty(t, entries)
	assert.False(t, l.Status().Enabled)
}
