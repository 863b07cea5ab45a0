package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/istmo-energy/portal-backend/pkg/enums"
)

// Quote is a priced proposal for a project.
type Quote struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProjectID   uuid.UUID         `gorm:"column:project_id;type:uuid;not null"`
	QuoteNumber int64             `gorm:"column:quote_number;not null;uniqueIndex"`
	Status      enums.QuoteStatus `gorm:"column:status;type:quote_status;not null;default:'draft'"`
	Subtotal    decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TaxRate     decimal.Decimal   `gorm:"column:tax_rate;type:numeric(5,4);not null"`
	TaxAmount   decimal.Decimal   `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	Total       decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	ValidUntil  *time.Time        `gorm:"column:valid_until;type:timestamptz"`
	SentAt      *time.Time        `gorm:"column:sent_at;type:timestamptz"`
	DecidedAt   *time.Time        `gorm:"column:decided_at;type:timestamptz"`
	Notes       *string           `gorm:"column:notes"`
	CreatedBy   uuid.UUID         `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	LineItems []QuoteLineItem `gorm:"foreignKey:QuoteID"`
}
