package repository

import (
	"context"
	"errors"

	"github.com/payperplay/profiles/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a looked-up row does not exist
var ErrNotFound = errors.New("record not found")

// DatabaseProvider abstracts the concrete database behind GORM
type DatabaseProvider interface {
	GetDB() *gorm.DB
	Migrate(models ...interface{}) error
	Close() error
	Ping() error
}

// PostgreSQLProvider implements DatabaseProvider for PostgreSQL
type PostgreSQLProvider struct {
	db *gorm.DB
}

func (p *PostgreSQLProvider) GetDB() *gorm.DB {
	return p.db
}

func (p *PostgreSQLProvider) Migrate(models ...interface{}) error {
	return p.db.AutoMigrate(models...)
}

func (p *PostgreSQLProvider) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *PostgreSQLProvider) Ping() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Repository interfaces for clean architecture

type ProjectRepositoryInterface interface {
	Create(ctx context.Context, project *models.Project) error
	FetchProject(ctx context.Context, id string) (*models.Project, error)
	FetchProjectConfigs(ctx context.Context, projectID string) ([]models.ProjectConfigFile, error)
	UpsertConfigFile(ctx context.Context, file *models.ProjectConfigFile) error
}

type ProfileRepositoryInterface interface {
	FetchProfile(ctx context.Context, projectID string) (*string, error)
	SaveProfile(ctx context.Context, projectID, text string) (*models.ProfileSaveResult, error)
}

var _ ProjectRepositoryInterface = (*ProjectRepository)(nil)
var _ ProfileRepositoryInterface = (*ProfileRepository)(nil)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
