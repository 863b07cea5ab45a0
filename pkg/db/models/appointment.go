package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/istmo-energy/portal-backend/pkg/enums"
)

// Appointment books a technician for a project at a specific timestamp.
//
// Client contact fields are snapshots captured at booking time, not live
// references. The (technician_id, scheduled_at) pair carries a unique index so
// the storage layer rejects a concurrent double-booking that slips past the
// application-level busy check.
type Appointment struct {
	ID            uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProjectID     uuid.UUID               `gorm:"column:project_id;type:uuid;not null"`
	TechnicianID  uuid.UUID               `gorm:"column:technician_id;type:uuid;not null;uniqueIndex:ux_appointments_technician_slot,priority:1"`
	ScheduledAt   time.Time               `gorm:"column:scheduled_at;type:timestamptz;not null;uniqueIndex:ux_appointments_technician_slot,priority:2"`
	Status        enums.AppointmentStatus `gorm:"column:status;type:appointment_status;not null;default:'scheduled'"`
	ClientName    *string                 `gorm:"column:client_name"`
	ClientAddress *string                 `gorm:"column:client_address"`
	ClientPhone   *string                 `gorm:"column:client_phone"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
