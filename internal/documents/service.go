package documents

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/istmo-energy/portal-backend/pkg/config"
	"github.com/istmo-energy/portal-backend/pkg/db/models"
	"github.com/istmo-energy/portal-backend/pkg/enums"
	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
)

type projectFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
}

type objectSigner interface {
	SignedUploadURL(bucket, object, contentType string, expires time.Duration) (string, error)
	SignedDownloadURL(bucket, object string, expires time.Duration) (string, error)
	DefaultBucket() string
}

// Service exposes the document presign and lifecycle operations.
type Service interface {
	PresignUpload(ctx context.Context, userID uuid.UUID, input PresignInput) (*PresignOutput, error)
	ConfirmUpload(ctx context.Context, documentID uuid.UUID) error
	List(ctx context.Context, projectID uuid.UUID) ([]DocumentDTO, error)
	Delete(ctx context.Context, documentID uuid.UUID) error
}

type service struct {
	repo        Repository
	projects    projectFinder
	signer      objectSigner
	uploadTTL   time.Duration
	downloadTTL time.Duration
	maxBytes    int64
}

// ServiceParams bundles the dependencies for the documents service.
type ServiceParams struct {
	Repo      Repository
	Projects  projectFinder
	Signer    objectSigner
	GCSConfig config.GCSConfig
	Documents config.DocumentsConfig
}

// NewService constructs a documents service backed by the bucket signer.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("documents repository required")
	}
	if params.Projects == nil {
		return nil, fmt.Errorf("project finder required")
	}
	if params.Signer == nil {
		return nil, fmt.Errorf("object signer required")
	}
	uploadTTL := params.GCSConfig.UploadURLExpiry
	if uploadTTL <= 0 {
		uploadTTL = 15 * time.Minute
	}
	downloadTTL := params.GCSConfig.DownloadURLExpiry
	if downloadTTL <= 0 {
		downloadTTL = 15 * time.Minute
	}
	maxMB := params.Documents.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 50
	}
	return &service{
		repo:        params.Repo,
		projects:    params.Projects,
		signer:      params.Signer,
		uploadTTL:   uploadTTL,
		downloadTTL: downloadTTL,
		maxBytes:    int64(maxMB) * 1024 * 1024,
	}, nil
}

// PresignInput models the payload required to request an upload URL.
type PresignInput struct {
	ProjectID   uuid.UUID
	Kind        enums.DocumentKind
	FileName    string
	ContentType string
	SizeBytes   int64
}

// PresignOutput contains the data returned after reserving a document slot.
type PresignOutput struct {
	DocumentID   uuid.UUID `json:"document_id"`
	ObjectKey    string    `json:"object_key"`
	SignedPUTURL string    `json:"signed_put_url"`
	ContentType  string    `json:"content_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// DocumentDTO is the wire representation of a stored document.
type DocumentDTO struct {
	ID          uuid.UUID            `json:"id"`
	ProjectID   uuid.UUID            `json:"project_id"`
	Kind        enums.DocumentKind   `json:"kind"`
	Status      enums.DocumentStatus `json:"status"`
	FileName    string               `json:"file_name"`
	ContentType string               `json:"content_type"`
	SizeBytes   int64                `json:"size_bytes"`
	UploadedAt  *time.Time           `json:"uploaded_at,omitempty"`
	DownloadURL string               `json:"download_url,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

var contentTypesByKind = map[enums.DocumentKind][]string{
	enums.DocumentKindContract:  {"application/pdf"},
	enums.DocumentKindPermit:    {"application/pdf", "image/png", "image/jpeg"},
	enums.DocumentKindSitePhoto: {"image/png", "image/jpeg", "image/webp"},
	enums.DocumentKindInvoice:   {"application/pdf"},
	enums.DocumentKindReport:    {"application/pdf"},
}

func (s *service) PresignUpload(ctx context.Context, userID uuid.UUID, input PresignInput) (*PresignOutput, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if input.ProjectID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project id required")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid document kind")
	}

	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must be positive")
	}
	if input.SizeBytes > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("size_bytes must not exceed %d bytes", s.maxBytes))
	}

	contentType := strings.TrimSpace(input.ContentType)
	if contentType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content_type is required")
	}
	if !isAllowedContentType(input.Kind, contentType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content_type not allowed for document kind")
	}

	if _, err := s.projects.GetByID(ctx, input.ProjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup project")
	}

	documentID := uuid.New()
	objectKey := buildObjectKey(input.ProjectID, input.Kind, documentID, fileName)

	doc := &models.Document{
		ID:          documentID,
		ProjectID:   input.ProjectID,
		Kind:        input.Kind,
		Status:      enums.DocumentStatusPendingUpload,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   input.SizeBytes,
		ObjectKey:   objectKey,
		UploadedBy:  userID,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist document row")
	}

	expiresAt := time.Now().Add(s.uploadTTL)
	signedURL, err := s.signer.SignedUploadURL(s.signer.DefaultBucket(), objectKey, contentType, s.uploadTTL)
	if err != nil {
		_ = s.repo.Delete(ctx, documentID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	return &PresignOutput{
		DocumentID:   documentID,
		ObjectKey:    objectKey,
		SignedPUTURL: signedURL,
		ContentType:  contentType,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *service) ConfirmUpload(ctx context.Context, documentID uuid.UUID) error {
	if documentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "document id required")
	}
	updated, err := s.repo.MarkUploaded(ctx, documentID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark document uploaded")
	}
	if updated {
		return nil
	}

	if _, err := s.repo.GetByID(ctx, documentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup document")
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "document is not pending upload")
}

func (s *service) List(ctx context.Context, projectID uuid.UUID) ([]DocumentDTO, error) {
	if projectID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project id required")
	}
	rows, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list documents")
	}

	items := make([]DocumentDTO, 0, len(rows))
	for i := range rows {
		row := rows[i]
		dto := DocumentDTO{
			ID:          row.ID,
			ProjectID:   row.ProjectID,
			Kind:        row.Kind,
			Status:      row.Status,
			FileName:    row.FileName,
			ContentType: row.ContentType,
			SizeBytes:   row.SizeBytes,
			UploadedAt:  row.UploadedAt,
			CreatedAt:   row.CreatedAt,
		}
		if row.Status == enums.DocumentStatusUploaded {
			signedURL, err := s.signer.SignedDownloadURL(s.signer.DefaultBucket(), row.ObjectKey, s.downloadTTL)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign download url")
			}
			dto.DownloadURL = signedURL
		}
		items = append(items, dto)
	}
	return items, nil
}

func (s *service) Delete(ctx context.Context, documentID uuid.UUID) error {
	if documentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "document id required")
	}
	deleted, err := s.repo.MarkDeleted(ctx, documentID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark document deleted")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
	}
	return nil
}

func isAllowedContentType(kind enums.DocumentKind, contentType string) bool {
	allowed, ok := contentTypesByKind[kind]
	if !ok || len(allowed) == 0 {
		return true
	}
	for _, candidate := range allowed {
		if strings.EqualFold(candidate, contentType) {
			return true
		}
	}
	return false
}

func buildObjectKey(projectID uuid.UUID, kind enums.DocumentKind, id uuid.UUID, fileName string) string {
	cleanName := sanitizeFileName(fileName)
	if cleanName == "" {
		cleanName = id.String()
	}
	return fmt.Sprintf("documents/%s/%s/%s/%s", projectID, kind, id, cleanName)
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.TrimSpace(name))
	if clean == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
