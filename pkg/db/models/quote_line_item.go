package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteLineItem is a single priced row inside a quote.
type QuoteLineItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	QuoteID     uuid.UUID       `gorm:"column:quote_id;type:uuid;not null"`
	Description string          `gorm:"column:description;not null"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:numeric(10,2);not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Position    int             `gorm:"column:position;not null;default:0"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
