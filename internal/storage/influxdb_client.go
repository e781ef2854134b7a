package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/payperplay/profiles/pkg/logger"
)

const measurement = "profile_event"

// tag keys written with every point; everything else is a field
var eventTags = []string{"event_id", "event_type", "source", "project_id"}

// EventData is a generic event structure that doesn't depend on internal/events
type EventData struct {
	ID        string
	Type      string
	Timestamp time.Time
	Source    string
	ProjectID string
	Data      map[string]interface{}
}

// EventFilters for querying events
type EventFilters struct {
	Types     []string
	ProjectID string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
}

// InfluxDBClient manages connection to InfluxDB for time-series event storage
type InfluxDBClient struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	queryAPI api.QueryAPI
	org      string
	bucket   string
}

// InfluxDBConfig holds InfluxDB connection configuration
type InfluxDBConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// NewInfluxDBClient connects to InfluxDB and verifies the server is healthy
func NewInfluxDBClient(config InfluxDBConfig) (*InfluxDBClient, error) {
	client := influxdb2.NewClient(config.URL, config.Token)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}

	if health.Status != "pass" {
		client.Close()
		msg := ""
		if health.Message != nil {
			msg = *health.Message
		}
		return nil, fmt.Errorf("InfluxDB health check failed: %s", msg)
	}

	logger.Info("InfluxDB connection established", map[string]interface{}{
		"url":    config.URL,
		"org":    config.Org,
		"bucket": config.Bucket,
		"status": health.Status,
	})

	writeAPI := client.WriteAPI(config.Org, config.Bucket)
	go func() {
		for err := range writeAPI.Errors() {
			logger.Error("InfluxDB write failed", err, nil)
		}
	}()

	return &InfluxDBClient{
		client:   client,
		writeAPI: writeAPI,
		queryAPI: client.QueryAPI(config.Org),
		org:      config.Org,
		bucket:   config.Bucket,
	}, nil
}

// WriteEvent writes an event as a time-series point (non-blocking)
func (c *InfluxDBClient) WriteEvent(event EventData) error {
	c.writeAPI.WritePoint(newEventPoint(event))
	return nil
}

func newEventPoint(event EventData) *write.Point {
	fields := make(map[string]interface{}, len(event.Data)+1)
	for k, v := range event.Data {
		fields[k] = v
	}
	// a point without fields is rejected by the server
	fields["count"] = 1

	return influxdb2.NewPoint(
		measurement,
		map[string]string{
			"event_id":   event.ID,
			"event_type": event.Type,
			"source":     event.Source,
			"project_id": event.ProjectID,
		},
		fields,
		event.Timestamp,
	)
}

// Flush ensures all pending writes are sent to InfluxDB
func (c *InfluxDBClient) Flush() {
	c.writeAPI.Flush()
}

// QueryEvents queries events from InfluxDB with filters
func (c *InfluxDBClient) QueryEvents(ctx context.Context, filters EventFilters) ([]EventData, error) {
	result, err := c.queryAPI.Query(ctx, buildFluxQuery(c.bucket, filters))
	if err != nil {
		return nil, fmt.Errorf("failed to query InfluxDB: %w", err)
	}
	defer result.Close()

	var eventsList []EventData
	for result.Next() {
		record := result.Record()

		event := EventData{
			ID:        stringValue(record.ValueByKey("event_id")),
			Type:      stringValue(record.ValueByKey("event_type")),
			Timestamp: record.Time(),
			Source:    stringValue(record.ValueByKey("source")),
			ProjectID: stringValue(record.ValueByKey("project_id")),
			Data:      make(map[string]interface{}),
		}

		for k, v := range record.Values() {
			if strings.HasPrefix(k, "_") || k == "result" || k == "table" || isTag(k) {
				continue
			}
			event.Data[k] = v
		}

		eventsList = append(eventsList, event)

		if filters.Limit > 0 && len(eventsList) >= filters.Limit {
			break
		}
	}

	if result.Err() != nil {
		return nil, fmt.Errorf("query parsing failed: %w", result.Err())
	}

	return eventsList, nil
}

func isTag(key string) bool {
	for _, t := range eventTags {
		if t == key {
			return true
		}
	}
	return false
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

// buildFluxQuery builds a Flux query from filters. Fields are pivoted back
// into one row per event.
func buildFluxQuery(bucket string, filters EventFilters) string {
	var q strings.Builder
	fmt.Fprintf(&q, `from(bucket: %q)`, bucket)

	if !filters.StartTime.IsZero() {
		fmt.Fprintf(&q, "\n  |> range(start: %s", filters.StartTime.UTC().Format(time.RFC3339))
		if !filters.EndTime.IsZero() {
			fmt.Fprintf(&q, ", stop: %s", filters.EndTime.UTC().Format(time.RFC3339))
		}
		q.WriteString(")")
	} else {
		q.WriteString("\n  |> range(start: -24h)")
	}

	fmt.Fprintf(&q, "\n  |> filter(fn: (r) => r._measurement == %q)", measurement)

	if len(filters.Types) > 0 {
		q.WriteString("\n  |> filter(fn: (r) => ")
		for i, eventType := range filters.Types {
			if i > 0 {
				q.WriteString(" or ")
			}
			fmt.Fprintf(&q, "r.event_type == %q", eventType)
		}
		q.WriteString(")")
	}

	if filters.ProjectID != "" {
		fmt.Fprintf(&q, "\n  |> filter(fn: (r) => r.project_id == %q)", filters.ProjectID)
	}

	q.WriteString("\n  |> pivot(rowKey: [\"_time\"], columnKey: [\"_field\"], valueColumn: \"_value\")")
	q.WriteString("\n  |> group()")
	q.WriteString("\n  |> sort(columns: [\"_time\"], desc: true)")

	if filters.Limit > 0 {
		fmt.Fprintf(&q, "\n  |> limit(n: %d)", filters.Limit)
	}

	return q.String()
}

// Close flushes pending writes and closes the client
func (c *InfluxDBClient) Close() {
	c.writeAPI.Flush()
	c.client.Close()
	logger.Info("InfluxDB client closed", nil)
}
