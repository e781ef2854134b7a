package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/payperplay/profiles/internal/models"
	"github.com/payperplay/profiles/internal/profile"
	"github.com/payperplay/profiles/internal/repository"
	"github.com/payperplay/profiles/pkg/logger"
)

var ErrInvalidConfigPath = errors.New("config path must be a relative path inside the server directory")

// ProjectStore creates projects and records their uploaded config files
type ProjectStore interface {
	Create(ctx context.Context, project *models.Project) error
	FetchProject(ctx context.Context, id string) (*models.Project, error)
	UpsertConfigFile(ctx context.Context, file *models.ProjectConfigFile) error
}

// CreateProjectInput is the identity a new project starts with
type CreateProjectInput struct {
	Name             string                    `json:"name"`
	MinecraftVersion string                    `json:"minecraftVersion"`
	Loader           string                    `json:"loader"`
	Plugins          []profile.PluginReference `json:"plugins"`
}

// ProjectService registers projects and the config files uploaded for them.
// Registered files become passthrough entries of the next profile save.
type ProjectService struct {
	projects ProjectStore
	now      func() time.Time
}

func NewProjectService(projects ProjectStore) *ProjectService {
	return &ProjectService{projects: projects, now: time.Now}
}

// CreateProject stores a new project. Plugins without id or version are dropped.
func (s *ProjectService) CreateProject(ctx context.Context, in CreateProjectInput) (*models.Project, error) {
	project := &models.Project{
		Name:             strings.TrimSpace(in.Name),
		MinecraftVersion: strings.TrimSpace(in.MinecraftVersion),
		Loader:           strings.TrimSpace(in.Loader),
	}

	plugins := make([]profile.PluginReference, 0, len(in.Plugins))
	for _, p := range in.Plugins {
		id, version := strings.TrimSpace(p.ID), strings.TrimSpace(p.Version)
		if id == "" || version == "" {
			continue
		}
		plugins = append(plugins, profile.PluginReference{ID: id, Version: version})
	}
	if err := project.SetPlugins(plugins); err != nil {
		return nil, fmt.Errorf("failed to encode plugins: %w", err)
	}

	if err := s.projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	logger.Info("Project created", map[string]interface{}{
		"project_id": project.ID,
		"loader":     project.Loader,
		"version":    project.MinecraftVersion,
	})
	return project, nil
}

// RegisterConfigFile records an uploaded config file. Registering the same
// path again updates its size and modification time.
func (s *ProjectService) RegisterConfigFile(ctx context.Context, projectID, filePath string, sizeBytes int64, modifiedAt time.Time) (*models.ProjectConfigFile, error) {
	cleaned, err := cleanConfigPath(filePath)
	if err != nil {
		return nil, err
	}
	if sizeBytes < 0 {
		sizeBytes = 0
	}
	if modifiedAt.IsZero() {
		modifiedAt = s.now()
	}

	if _, err := s.projects.FetchProject(ctx, projectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
		}
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}

	file := &models.ProjectConfigFile{
		ProjectID:  projectID,
		Path:       cleaned,
		SizeBytes:  sizeBytes,
		ModifiedAt: modifiedAt.UTC(),
	}
	if err := s.projects.UpsertConfigFile(ctx, file); err != nil {
		return nil, fmt.Errorf("failed to record config file: %w", err)
	}

	logger.Debug("Config file registered", map[string]interface{}{
		"project_id": projectID,
		"path":       cleaned,
		"size":       sizeBytes,
	})
	return file, nil
}

func cleanConfigPath(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" || strings.HasPrefix(p, "/") {
		return "", ErrInvalidConfigPath
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidConfigPath
	}
	return cleaned, nil
}
