package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildFluxQuery_Defaults(t *testing.T) {
	q := buildFluxQuery("profile_events", EventFilters{})
	assert.Contains(t, q, `from(bucket: "profile_events")`)
	assert.Contains(t, q, "range(start: -24h)")
	assert.Contains(t, q, `r._measurement == "profile_event"`)
	assert.NotContains(t, q, "limit(")
	assert.NotContains(t, q, "project_id")
}

func TestBuildFluxQuery_Filters(t *testing.T) {
	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	q := buildFluxQuery("b", EventFilters{
		Types:     []string{"profile.saved", "profile.parse_failed"},
		ProjectID: "p1",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Limit:     10,
	})
	assert.Contains(t, q, "range(start: 2025-01-02T03:04:05Z, stop: 2025-01-02T04:04:05Z)")
	assert.Contains(t, q, `r.event_type == "profile.saved" or r.event_type == "profile.parse_failed"`)
	assert.Contains(t, q, `r.project_id == "p1"`)
	assert.Contains(t, q, "limit(n: 10)")
}

func TestBuildFluxQuery_QuotesProjectID(t *testing.T) {
	q := buildFluxQuery("b", EventFilters{ProjectID: `x") or (r._value == "`})
	assert.Contains(t, q, `r.project_id == "x\") or (r._value == \""`)
}

func TestNewEventPoint(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	p := newEventPoint(EventData{
		ID:        "e1",
		Type:      "profile.saved",
		Source:    "profile_service",
		ProjectID: "p1",
		Timestamp: at,
		Data:      map[string]interface{}{"size_bytes": 42},
	})

	assert.Equal(t, "profile_event", p.Name())
	assert.Equal(t, at, p.Time())

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, "p1", tags["project_id"])
	assert.Equal(t, "profile.saved", tags["event_type"])

	fields := map[string]interface{}{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.EqualValues(t, 42, fields["size_bytes"])
	assert.EqualValues(t, 1, fields["count"])
}
