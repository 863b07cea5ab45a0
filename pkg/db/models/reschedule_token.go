package models

import (
	"time"

	"github.com/google/uuid"
)

// RescheduleToken grants a client a date-scoped, login-free reschedule action.
//
// UsedAt makes the token single-use: confirmation stamps it and later confirm
// attempts are rejected.
type RescheduleToken struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Token         string     `gorm:"column:token;not null;uniqueIndex"`
	ProjectID     uuid.UUID  `gorm:"column:project_id;type:uuid;not null"`
	AppointmentID uuid.UUID  `gorm:"column:appointment_id;type:uuid;not null"`
	ExpiresAt     time.Time  `gorm:"column:expires_at;type:timestamptz;not null"`
	UsedAt        *time.Time `gorm:"column:used_at;type:timestamptz"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
}
