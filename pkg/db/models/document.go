package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/istmo-energy/portal-backend/pkg/enums"
)

// Document tracks a project file stored in the object bucket.
type Document struct {
	ID          uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProjectID   uuid.UUID            `gorm:"column:project_id;type:uuid;not null"`
	Kind        enums.DocumentKind   `gorm:"column:kind;type:document_kind;not null"`
	Status      enums.DocumentStatus `gorm:"column:status;type:document_status;not null;default:'pending_upload'"`
	FileName    string               `gorm:"column:file_name;not null"`
	ContentType string               `gorm:"column:content_type;not null"`
	SizeBytes   int64                `gorm:"column:size_bytes;not null;default:0"`
	ObjectKey   string               `gorm:"column:object_key;not null;uniqueIndex"`
	UploadedBy  uuid.UUID            `gorm:"column:uploaded_by;type:uuid;not null"`
	UploadedAt  *time.Time           `gorm:"column:uploaded_at;type:timestamptz"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
