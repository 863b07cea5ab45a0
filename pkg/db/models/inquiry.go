package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/istmo-energy/portal-backend/pkg/enums"
)

// Inquiry is an incoming customer request captured from the public intake form.
type Inquiry struct {
	ID          uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string              `gorm:"column:name;not null"`
	Email       string              `gorm:"column:email;not null"`
	Phone       *string             `gorm:"column:phone"`
	Address     *string             `gorm:"column:address"`
	ServiceType enums.ServiceType   `gorm:"column:service_type;type:service_type;not null"`
	Message     *string             `gorm:"column:message"`
	Status      enums.InquiryStatus `gorm:"column:status;type:inquiry_status;not null;default:'new'"`
	ReviewedBy  *uuid.UUID          `gorm:"column:reviewed_by;type:uuid"`
	ProjectID   *uuid.UUID          `gorm:"column:project_id;type:uuid"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
