package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/payperplay/profiles/internal/profile"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Project is a game-server configuration owned by a user
type Project struct {
	ID               string `gorm:"primaryKey;size:64" json:"id"`
	Name             string `gorm:"not null;size:255" json:"name"`
	MinecraftVersion string `gorm:"size:50" json:"minecraftVersion"`
	Loader           string `gorm:"size:50" json:"loader"` // paper, purpur, ...

	// Plugin list as last saved with the profile: [{"id":..,"version":..}]
	Plugins datatypes.JSON `gorm:"type:jsonb" json:"plugins"`

	// Timestamps
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	ConfigFiles []ProjectConfigFile `gorm:"foreignKey:ProjectID" json:"-"`
}

// BeforeCreate hook to generate UUID
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// Identity returns the read-only part the profile builder works with
func (p *Project) Identity() profile.ProjectIdentity {
	return profile.ProjectIdentity{
		Name:             p.Name,
		MinecraftVersion: p.MinecraftVersion,
		Loader:           p.Loader,
	}
}

// PluginList decodes Plugins. A missing or corrupt column reads as empty.
func (p *Project) PluginList() []profile.PluginReference {
	if len(p.Plugins) == 0 {
		return []profile.PluginReference{}
	}
	var plugins []profile.PluginReference
	if err := json.Unmarshal(p.Plugins, &plugins); err != nil || plugins == nil {
		return []profile.PluginReference{}
	}
	return plugins
}

// SetPlugins encodes plugins into the JSON column
func (p *Project) SetPlugins(plugins []profile.PluginReference) error {
	if plugins == nil {
		plugins = []profile.PluginReference{}
	}
	data, err := json.Marshal(plugins)
	if err != nil {
		return err
	}
	p.Plugins = datatypes.JSON(data)
	return nil
}

// ProjectConfigFile is an uploaded config file known to exist for a project
type ProjectConfigFile struct {
	ID         string    `gorm:"primaryKey;size:64" json:"-"`
	ProjectID  string    `gorm:"not null;size:64;uniqueIndex:idx_project_config_path" json:"-"`
	Path       string    `gorm:"not null;size:500;uniqueIndex:idx_project_config_path" json:"path"` // Relative to the server directory
	SizeBytes  int64     `gorm:"not null;default:0" json:"size"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// BeforeCreate hook to generate UUID
func (f *ProjectConfigFile) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}

// TableName overrides the table name
func (ProjectConfigFile) TableName() string {
	return "project_config_files"
}

// ConfigPaths lists the paths of files in their stored order
func ConfigPaths(files []ProjectConfigFile) []string {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	return paths
}
