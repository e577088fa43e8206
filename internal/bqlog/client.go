package bqlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/stanley1208/ADK/internal/config"
)

var tableSchema = bigquery.Schema{
	{Name: "detection_id", Type: bigquery.StringFieldType, Required: true},
	{Name: "file_name", Type: bigquery.StringFieldType, Required: true},
	{Name: "file_path", Type: bigquery.StringFieldType, Required: true},
	{Name: "location", Type: bigquery.StringFieldType, Required: true},
	{Name: "temperature", Type: bigquery.FloatFieldType, Required: true},
	{Name: "smoke_level", Type: bigquery.FloatFieldType, Required: true},
	{Name: "sensor_timestamp", Type: bigquery.TimestampFieldType, Required: true},
	{Name: "detection_timestamp", Type: bigquery.TimestampFieldType, Required: true},
	{Name: "file_size", Type: bigquery.IntegerFieldType},
	{Name: "total_readings", Type: bigquery.IntegerFieldType},
}

// Client logs readings to a real BigQuery table, creating the dataset
// and table on first use.
type Client struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	tableID   string
	location  string

	mu           sync.Mutex
	tableCreated bool
}

// NewClient connects to BigQuery and makes sure the dataset and table
// exist. An error here means the caller should fall back to a disabled
// sink, not abort.
func NewClient(ctx context.Context, gcp *config.GoogleCloudEnv, bq *config.BigQueryEnv) (*Client, error) {
	if gcp.ProjectID == "" {
		return nil, errors.New("GOOGLE_CLOUD_PROJECT is not set")
	}

	var opts []option.ClientOption
	if gcp.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(gcp.CredentialsFile))
	}
	bqClient, err := bigquery.NewClient(ctx, gcp.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigquery client: %w", err)
	}

	c := &Client{
		client:    bqClient,
		projectID: gcp.ProjectID,
		datasetID: bq.DatasetID,
		tableID:   bq.TableID,
		location:  bq.Location,
	}
	if err := c.ensureTarget(ctx); err != nil {
		_ = bqClient.Close()
		return nil, err
	}
	slog.Info("bigquery logging enabled", "table", c.fullTableID())
	return c, nil
}

func (c *Client) fullTableID() string {
	return fmt.Sprintf("%s.%s.%s", c.projectID, c.datasetID, c.tableID)
}

func (c *Client) ensureTarget(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tableCreated {
		return nil
	}

	ds := c.client.Dataset(c.datasetID)
	if _, err := ds.Metadata(ctx); err != nil {
		if !isNotFound(err) {
			return fmt.Errorf("failed to get dataset %s: %w", c.datasetID, err)
		}
		meta := &bigquery.DatasetMetadata{
			Location:    c.location,
			Description: "Disaster response sensor data storage",
		}
		if err := ds.Create(ctx, meta); err != nil {
			return fmt.Errorf("failed to create dataset %s: %w", c.datasetID, err)
		}
		slog.Info("created bigquery dataset", "dataset", c.datasetID)
	}

	table := ds.Table(c.tableID)
	if _, err := table.Metadata(ctx); err != nil {
		if !isNotFound(err) {
			return fmt.Errorf("failed to get table %s: %w", c.tableID, err)
		}
		meta := &bigquery.TableMetadata{
			Schema:      tableSchema,
			Description: "Sensor readings detected by the disaster response system",
		}
		if err := table.Create(ctx, meta); err != nil {
			return fmt.Errorf("failed to create table %s: %w", c.tableID, err)
		}
		slog.Info("created bigquery table", "table", c.fullTableID())
	}
	c.tableCreated = true
	return nil
}

func (c *Client) Enabled() bool {
	return true
}

// Save implements bigquery.ValueSaver for Row.
type rowSaver struct {
	row *Row
}

func (s rowSaver) Save() (map[string]bigquery.Value, string, error) {
	r := s.row
	return map[string]bigquery.Value{
		"detection_id":        r.DetectionID,
		"file_name":           r.FileName,
		"file_path":           r.FilePath,
		"location":            r.Location,
		"temperature":         r.Temperature,
		"smoke_level":         r.SmokeLevel,
		"sensor_timestamp":    r.SensorTimestamp,
		"detection_timestamp": r.DetectionTimestamp,
		"file_size":           r.FileSize,
		"total_readings":      r.TotalReadings,
	}, r.DetectionID, nil
}

func (c *Client) Insert(ctx context.Context, rows []*Row) error {
	if len(rows) == 0 {
		return nil
	}
	if err := c.ensureTarget(ctx); err != nil {
		return err
	}
	savers := make([]bigquery.ValueSaver, len(rows))
	for i, r := range rows {
		savers[i] = rowSaver{row: r}
	}
	if err := c.client.Dataset(c.datasetID).Table(c.tableID).Inserter().Put(ctx, savers); err != nil {
		return fmt.Errorf("failed to insert %d rows into %s: %w", len(rows), c.fullTableID(), err)
	}
	return nil
}

func (c *Client) QueryHistory(ctx context.Context, location string, hoursBack int) ([]HistoryEntry, error) {
	if hoursBack <= 0 {
		hoursBack = 24
	}

	query := fmt.Sprintf(`
		SELECT location, temperature, smoke_level, sensor_timestamp, detection_timestamp
		FROM `+"`%s`"+`
		WHERE detection_timestamp >= TIMESTAMP_SUB(CURRENT_TIMESTAMP(), INTERVAL @hours_back HOUR)`,
		c.fullTableID())
	params := []bigquery.QueryParameter{
		{Name: "hours_back", Value: int64(hoursBack)},
	}
	if location != "" {
		query += " AND location = @location"
		params = append(params, bigquery.QueryParameter{Name: "location", Value: location})
	}
	query += fmt.Sprintf(" ORDER BY sensor_timestamp DESC LIMIT %d", historyLimit)

	q := c.client.Query(query)
	q.Parameters = params
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.fullTableID(), err)
	}

	var entries []HistoryEntry
	for {
		var e HistoryEntry
		err := it.Next(&e)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read query results: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (c *Client) Status() Status {
	c.mu.Lock()
	created := c.tableCreated
	c.mu.Unlock()
	return Status{
		Enabled:      true,
		ProjectID:    c.projectID,
		DatasetID:    c.datasetID,
		TableID:      c.tableID,
		TableCreated: created,
		FullTableID:  c.fullTableID(),
	}
}

// WithOverride returns a logger writing to the dataset/table named in
// the request. A different project requires different credentials, so a
// project override is ignored with a warning.
func (c *Client) WithOverride(o TargetOverride) Logger {
	if o.ProjectID != "" && o.ProjectID != c.projectID {
		slog.Warn("ignoring bigquery project override", "requested", o.ProjectID, "configured", c.projectID)
	}
	if (o.DatasetID == "" || o.DatasetID == c.datasetID) && (o.TableID == "" || o.TableID == c.tableID) {
		return c
	}
	derived := &Client{
		client:    c.client,
		projectID: c.projectID,
		datasetID: c.datasetID,
		tableID:   c.tableID,
		location:  c.location,
	}
	if o.DatasetID != "" {
		derived.datasetID = o.DatasetID
	}
	if o.TableID != "" {
		derived.tableID = o.TableID
	}
	return derived
}

func (c *Client) Close() error {
	return c.client.Close()
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
