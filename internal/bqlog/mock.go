package bqlog

import (
	"context"
	"sort"
	"sync"
	"time"
)

type rowStore struct {
	mu   sync.RWMutex
	rows []*Row
}

// Mock is an in-memory Logger used in tests and when USE_MOCK_BIGQUERY
// is set, mirroring how the system runs where Google Cloud is absent.
// Derived loggers (WithOverride) share the backing store so history
// queries see every run.
type Mock struct {
	projectID string
	datasetID string
	tableID   string
	store     *rowStore
}

func NewMock(projectID, datasetID, tableID string) *Mock {
	if datasetID == "" {
		datasetID = "disaster_response"
	}
	if tableID == "" {
		tableID = "sensor_readings"
	}
	return &Mock{
		projectID: projectID,
		datasetID: datasetID,
		tableID:   tableID,
		store:     &rowStore{},
	}
}

func (m *Mock) Enabled() bool {
	return true
}

func (m *Mock) Insert(_ context.Context, rows []*Row) error {
	m.store.mu.Lock()
	m.store.rows = append(m.store.rows, rows...)
	m.store.mu.Unlock()
	return nil
}

func (m *Mock) QueryHistory(_ context.Context, location string, hoursBack int) ([]HistoryEntry, error) {
	if hoursBack <= 0 {
		hoursBack = 24
	}
	cutoff := time.Now().Add(-time.Duration(hoursBack) * time.Hour)

	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	var entries []HistoryEntry
	for _, r := range m.store.rows {
		if r.DetectionTimestamp.Before(cutoff) {
			continue
		}
		if location != "" && r.Location != location {
			continue
		}
		entries = append(entries, HistoryEntry{
			Location:           r.Location,
			Temperature:        r.Temperature,
			SmokeLevel:         r.SmokeLevel,
			SensorTimestamp:    r.SensorTimestamp,
			DetectionTimestamp: r.DetectionTimestamp,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SensorTimestamp.After(entries[j].SensorTimestamp)
	})
	if len(entries) > historyLimit {
		entries = entries[:historyLimit]
	}
	return entries, nil
}

func (m *Mock) Status() Status {
	full := ""
	if m.projectID != "" {
		full = m.projectID + "." + m.datasetID + "." + m.tableID
	}
	return Status{
		Enabled:      true,
		ProjectID:    m.projectID,
		DatasetID:    m.datasetID,
		TableID:      m.tableID,
		TableCreated: true,
		FullTableID:  full,
	}
}

func (m *Mock) WithOverride(o TargetOverride) Logger {
	derived := &Mock{
		projectID: m.projectID,
		datasetID: m.datasetID,
		tableID:   m.tableID,
		store:     m.store,
	}
	if o.ProjectID != "" {
		derived.projectID = o.ProjectID
	}
	if o.DatasetID != "" {
		derived.datasetID = o.DatasetID
	}
	if o.TableID != "" {
		derived.tableID = o.TableID
	}
	return derived
}

// Rows returns a copy of everything inserted so far.
func (m *Mock) Rows() []*Row {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	copied := make([]*Row, len(m.store.rows))
	copy(copied, m.store.rows)
	return copied
}
