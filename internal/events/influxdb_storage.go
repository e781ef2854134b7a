package events

import (
	"context"
	"time"

	"github.com/payperplay/profiles/internal/storage"
)

const influxQueryTimeout = 10 * time.Second

// InfluxDBEventStorage keeps profile events as time-series points. Useful for
// dashboards of save and parse-failure rates per project.
type InfluxDBEventStorage struct {
	client *storage.InfluxDBClient
}

func NewInfluxDBEventStorage(client *storage.InfluxDBClient) *InfluxDBEventStorage {
	return &InfluxDBEventStorage{client: client}
}

func (s *InfluxDBEventStorage) Store(event Event) error {
	return s.client.WriteEvent(toEventData(event))
}

func (s *InfluxDBEventStorage) Query(filters EventFilters) ([]Event, error) {
	ctx, cancel := context.WithTimeout(context.Background(), influxQueryTimeout)
	defer cancel()

	points, err := s.client.QueryEvents(ctx, toStorageFilters(filters))
	if err != nil {
		return nil, err
	}

	out := make([]Event, 0, len(points))
	for _, p := range points {
		out = append(out, fromEventData(p))
	}
	return out, nil
}

func toEventData(event Event) storage.EventData {
	return storage.EventData{
		ID:        event.ID,
		Type:      string(event.Type),
		Timestamp: event.Timestamp,
		Source:    event.Source,
		ProjectID: event.ProjectID,
		Data:      event.Data,
	}
}

func fromEventData(d storage.EventData) Event {
	data := d.Data
	if data == nil {
		data = map[string]interface{}{}
	}
	return Event{
		ID:        d.ID,
		Type:      EventType(d.Type),
		Timestamp: d.Timestamp,
		Source:    d.Source,
		ProjectID: d.ProjectID,
		Data:      data,
	}
}

func toStorageFilters(filters EventFilters) storage.EventFilters {
	types := make([]string, 0, len(filters.Types))
	for _, t := range filters.Types {
		types = append(types, string(t))
	}
	return storage.EventFilters{
		Types:     types,
		ProjectID: filters.ProjectID,
		StartTime: filters.StartTime,
		EndTime:   filters.EndTime,
		Limit:     filters.Limit,
	}
}
