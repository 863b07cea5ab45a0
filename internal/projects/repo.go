package projects

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/istmo-energy/portal-backend/pkg/db/models"
	"github.com/istmo-energy/portal-backend/pkg/enums"
	"github.com/istmo-energy/portal-backend/pkg/pagination"
)

// Repository exposes persistence helpers for projects.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context, params listProjectsParams) ([]models.Project, *pagination.Cursor, error)
	Update(ctx context.Context, project *models.Project) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ProjectStatus) (bool, error)
	ApplyBooking(ctx context.Context, id uuid.UUID, technicianID, appointmentID uuid.UUID, scheduledDate, scheduledTime string) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a project repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listProjectsParams struct {
	Status enums.ProjectStatus
	Limit  int
	Cursor *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var row models.Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listProjectsParams) ([]models.Project, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Project{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var projects []models.Project
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&projects).Error; err != nil {
		return nil, nil, err
	}

	if len(projects) > normalized {
		next := projects[normalized]
		projects = projects[:normalized]
		return projects, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return projects, nil, nil
}

func (r *repositoryImpl) Update(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

func (r *repositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ProjectStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ApplyBooking mirrors a committed appointment onto the project row.
func (r *repositoryImpl) ApplyBooking(ctx context.Context, id uuid.UUID, technicianID, appointmentID uuid.UUID, scheduledDate, scheduledTime string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":         enums.ProjectStatusPendingInstallation,
			"assigned_to":    technicianID,
			"appointment_id": appointmentID,
			"scheduled_date": scheduledDate,
			"scheduled_time": scheduledTime,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
