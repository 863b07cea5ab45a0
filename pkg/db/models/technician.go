package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Technician is a dispatchable field worker.
//
// Technicians are soft-disabled through IsActive and never hard-deleted while
// appointments still reference them.
type Technician struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string         `gorm:"column:name;not null"`
	Email       *string        `gorm:"column:email"`
	Phone       *string        `gorm:"column:phone"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true"`
	Specialties pq.StringArray `gorm:"column:specialties;type:text[];default:ARRAY[]::text[]"`
	// Working-hours window: HH:MM strings plus ISO weekday indices (1=Monday).
	// Shown in the dispatcher view; slot availability does not filter on it.
	WorkStart string        `gorm:"column:work_start;not null;default:'08:00'"`
	WorkEnd   string        `gorm:"column:work_end;not null;default:'17:00'"`
	WorkDays  pq.Int32Array `gorm:"column:work_days;type:int[];default:ARRAY[1,2,3,4,5]"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
