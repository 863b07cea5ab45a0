package inquiries

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/istmo-energy/portal-backend/pkg/db/models"
	"github.com/istmo-energy/portal-backend/pkg/enums"
	"github.com/istmo-energy/portal-backend/pkg/pagination"
)

// Repository exposes persistence helpers for inquiries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, inquiry *models.Inquiry) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Inquiry, error)
	List(ctx context.Context, params listInquiriesParams) ([]models.Inquiry, *pagination.Cursor, error)
	Update(ctx context.Context, inquiry *models.Inquiry) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an inquiry repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listInquiriesParams struct {
	Status enums.InquiryStatus
	Limit  int
	Cursor *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, inquiry *models.Inquiry) error {
	return r.db.WithContext(ctx).Create(inquiry).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Inquiry, error) {
	var row models.Inquiry
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listInquiriesParams) ([]models.Inquiry, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Inquiry{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var inquiries []models.Inquiry
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&inquiries).Error; err != nil {
		return nil, nil, err
	}

	if len(inquiries) > normalized {
		next := inquiries[normalized]
		inquiries = inquiries[:normalized]
		return inquiries, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return inquiries, nil, nil
}

func (r *repositoryImpl) Update(ctx context.Context, inquiry *models.Inquiry) error {
	return r.db.WithContext(ctx).Save(inquiry).Error
}
