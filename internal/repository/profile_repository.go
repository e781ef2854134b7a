package repository

import (
	"context"
	"path"

	"github.com/payperplay/profiles/internal/models"
	"github.com/payperplay/profiles/internal/profile"
	"github.com/payperplay/profiles/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileFileName is the file name every project profile is stored under
const ProfileFileName = "profile.yml"

// ProfileRepository persists profile documents
type ProfileRepository struct {
	db       *gorm.DB
	pathRoot string
}

// NewProfileRepository creates a new profile repository. pathRoot prefixes
// the reported profile path.
func NewProfileRepository(db *gorm.DB, pathRoot string) *ProfileRepository {
	if pathRoot == "" {
		pathRoot = "profiles"
	}
	return &ProfileRepository{db: db, pathRoot: pathRoot}
}

// ProfilePath returns the path a project's profile is stored under
func ProfilePath(root, projectID string) string {
	return path.Join(root, projectID, ProfileFileName)
}

// FetchProfile returns the stored profile text, or nil when the project has none yet
func (r *ProfileRepository) FetchProfile(ctx context.Context, projectID string) (*string, error) {
	var row models.ProjectProfile
	err := r.db.WithContext(ctx).First(&row, "project_id = ?", projectID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row.Text, nil
}

// SaveProfile stores text as the project's profile (last write wins) and
// refreshes the project's plugin list from it.
func (r *ProfileRepository) SaveProfile(ctx context.Context, projectID, text string) (*models.ProfileSaveResult, error) {
	var result *models.ProfileSaveResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, "id = ?", projectID).Error; err != nil {
			return notFound(err)
		}

		row := models.ProjectProfile{
			ProjectID: projectID,
			Path:      ProfilePath(r.pathRoot, projectID),
			Text:      text,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"path", "text", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return err
		}

		plugins := project.PluginList()
		doc, err := profile.Parse(&text)
		if err != nil {
			// stored anyway; callers validate before saving
			logger.Warn("Saved profile is not parseable, keeping plugin list", map[string]interface{}{
				"project_id": projectID,
				"error":      err.Error(),
			})
		} else if doc != nil {
			plugins = profile.ExtractPlugins(doc)
		}
		if err := project.SetPlugins(plugins); err != nil {
			return err
		}
		if err := tx.Model(&project).Update("plugins", project.Plugins).Error; err != nil {
			return err
		}

		configs, err := findConfigFiles(tx, projectID)
		if err != nil {
			return err
		}

		result = &models.ProfileSaveResult{
			Path:    row.Path,
			Plugins: plugins,
			Configs: configs,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
