package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SystemEvent is a recorded profile lifecycle event
type SystemEvent struct {
	gorm.Model
	EventID   string         `gorm:"uniqueIndex;size:255" json:"event_id"`
	Type      string         `gorm:"index;size:100" json:"type"`
	Timestamp time.Time      `gorm:"index;index:idx_system_events_project_time,priority:2" json:"timestamp"`
	Source    string         `gorm:"size:100" json:"source"`
	ProjectID string         `gorm:"index:idx_system_events_project_time,priority:1;size:64" json:"project_id,omitempty"`
	Data      datatypes.JSON `gorm:"type:jsonb" json:"data"`
}

// TableName overrides the table name
func (SystemEvent) TableName() string {
	return "system_events"
}
