package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/istmo-energy/portal-backend/pkg/enums"
)

// Project is a unit of client work whose status is partially driven by
// appointment lifecycle events.
//
// ScheduledDate/ScheduledTime mirror the active appointment and AppointmentID
// back-references it; both are maintained exclusively through appointment side
// effects, never edited independently.
type Project struct {
	ID            uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	InquiryID     *uuid.UUID          `gorm:"column:inquiry_id;type:uuid"`
	ClientName    string              `gorm:"column:client_name;not null"`
	ClientEmail   string              `gorm:"column:client_email;not null"`
	ClientPhone   *string             `gorm:"column:client_phone"`
	ClientAddress *string             `gorm:"column:client_address"`
	ServiceType   enums.ServiceType   `gorm:"column:service_type;type:service_type;not null"`
	Status        enums.ProjectStatus `gorm:"column:status;type:project_status;not null;default:'new'"`
	AssignedTo    *uuid.UUID          `gorm:"column:assigned_to;type:uuid"`
	AppointmentID *uuid.UUID          `gorm:"column:appointment_id;type:uuid"`
	ScheduledDate *string             `gorm:"column:scheduled_date"`
	ScheduledTime *string             `gorm:"column:scheduled_time"`
	Notes         *string             `gorm:"column:notes"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
