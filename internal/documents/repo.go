package documents

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/istmo-energy/portal-backend/pkg/db/models"
	"github.com/istmo-energy/portal-backend/pkg/enums"
)

// Repository exposes persistence helpers for project documents.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Document, error)
	MarkUploaded(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkDeleted(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a documents repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, doc *models.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var row models.Document
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Document, error) {
	var rows []models.Document
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND status <> ?", projectID, enums.DocumentStatusDeleted).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) MarkUploaded(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ? AND status = ?", id, enums.DocumentStatusPendingUpload).
		Updates(map[string]any{
			"status":      enums.DocumentStatusUploaded,
			"uploaded_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) MarkDeleted(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ? AND status <> ?", id, enums.DocumentStatusDeleted).
		Update("status", enums.DocumentStatusDeleted)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Document{}).Error
}
