package repository

import (
	"context"

	"github.com/payperplay/profiles/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectRepository handles project and config file database operations
type ProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// FetchProject finds a project by ID
func (r *ProjectRepository) FetchProject(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &project, nil
}

// FetchProjectConfigs lists the config files uploaded for a project, ordered by path
func (r *ProjectRepository) FetchProjectConfigs(ctx context.Context, projectID string) ([]models.ProjectConfigFile, error) {
	return findConfigFiles(r.db.WithContext(ctx), projectID)
}

// UpsertConfigFile records a config file, replacing size and mtime of an
// existing entry with the same path
func (r *ProjectRepository) UpsertConfigFile(ctx context.Context, file *models.ProjectConfigFile) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"size_bytes", "modified_at"}),
	}).Create(file).Error
}

func findConfigFiles(db *gorm.DB, projectID string) ([]models.ProjectConfigFile, error) {
	var files []models.ProjectConfigFile
	err := db.Where("project_id = ?", projectID).Order("path ASC").Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}
