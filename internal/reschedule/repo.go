package reschedule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/istmo-energy/portal-backend/pkg/db/models"
)

// Repository exposes persistence helpers for reschedule tokens.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, token *models.RescheduleToken) error
	GetByToken(ctx context.Context, token string) (*models.RescheduleToken, error)
	MarkUsed(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a reschedule-token repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, token *models.RescheduleToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *repositoryImpl) GetByToken(ctx context.Context, token string) (*models.RescheduleToken, error) {
	var row models.RescheduleToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// MarkUsed stamps used_at once; a token already stamped is not updated again.
func (r *repositoryImpl) MarkUsed(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.RescheduleToken{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteExpired removes tokens whose expiry passed before the given cutoff.
func (r *repositoryImpl) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&models.RescheduleToken{})
	return result.RowsAffected, result.Error
}
