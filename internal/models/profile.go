package models

import (
	"time"

	"github.com/payperplay/profiles/internal/profile"
)

// ProjectProfile is the persisted profile document of a project. There is at
// most one per project.
type ProjectProfile struct {
	ProjectID string    `gorm:"primaryKey;size:64" json:"projectId"`
	Path      string    `gorm:"not null;size:500" json:"path"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName overrides the table name
func (ProjectProfile) TableName() string {
	return "project_profiles"
}

// ProfileSaveResult is what a successful save hands back so callers can
// refresh their cached project view.
type ProfileSaveResult struct {
	Path    string                    `json:"path"`
	Plugins []profile.PluginReference `json:"plugins"`
	Configs []ProjectConfigFile       `json:"configs"`
}
