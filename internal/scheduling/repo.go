package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/istmo-energy/portal-backend/pkg/db/models"
	"github.com/istmo-energy/portal-backend/pkg/enums"
)

// Repository exposes the persistence surface the scheduling engine needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListAppointmentsBetween(ctx context.Context, start, end time.Time) ([]models.Appointment, error)
	CreateAppointment(ctx context.Context, appointment *models.Appointment) error
	GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	UpdateAppointmentBooking(ctx context.Context, id uuid.UUID, technicianID uuid.UUID, scheduledAt time.Time) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a scheduling repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) ListAppointmentsBetween(ctx context.Context, start, end time.Time) ([]models.Appointment, error) {
	var rows []models.Appointment
	err := r.db.WithContext(ctx).
		Where("scheduled_at BETWEEN ? AND ?", start, end).
		Where("status <> ?", enums.AppointmentStatusCancelled).
		Order("scheduled_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) CreateAppointment(ctx context.Context, appointment *models.Appointment) error {
	return r.db.WithContext(ctx).Create(appointment).Error
}

func (r *repositoryImpl) GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var row models.Appointment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) UpdateAppointmentBooking(ctx context.Context, id uuid.UUID, technicianID uuid.UUID, scheduledAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"technician_id": technicianID,
			"scheduled_at":  scheduledAt,
		}).Error
}
