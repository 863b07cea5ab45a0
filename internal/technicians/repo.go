package technicians

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/istmo-energy/portal-backend/pkg/db/models"
)

// Repository exposes persistence helpers for the technician directory.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, technician *models.Technician) error
	Update(ctx context.Context, technician *models.Technician) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Technician, error)
	List(ctx context.Context, includeInactive bool) ([]models.Technician, error)
	ListActive(ctx context.Context) ([]models.Technician, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a technician repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, technician *models.Technician) error {
	return r.db.WithContext(ctx).Create(technician).Error
}

func (r *repositoryImpl) Update(ctx context.Context, technician *models.Technician) error {
	return r.db.WithContext(ctx).Save(technician).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Technician, error) {
	var row models.Technician
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) List(ctx context.Context, includeInactive bool) ([]models.Technician, error) {
	query := r.db.WithContext(ctx).Model(&models.Technician{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.Technician
	err := query.Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ListActive(ctx context.Context) ([]models.Technician, error) {
	return r.List(ctx, false)
}

func (r *repositoryImpl) SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Technician{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
