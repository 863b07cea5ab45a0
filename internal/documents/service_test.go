package documents

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/istmo-energy/portal-backend/pkg/config"
	"github.com/istmo-energy/portal-backend/pkg/db/models"
	"github.com/istmo-energy/portal-backend/pkg/enums"
	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
)

type stubDocumentRepo struct {
	created   *models.Document
	deleted   uuid.UUID
	rows      []models.Document
	byID      *models.Document
	uploaded  bool
	softDel   bool
	createErr error
}

func (s *stubDocumentRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubDocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = doc
	return nil
}

func (s *stubDocumentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	if s.byID == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.byID, nil
}

func (s *stubDocumentRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Document, error) {
	return s.rows, nil
}

func (s *stubDocumentRepo) MarkUploaded(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return s.uploaded, nil
}

func (s *stubDocumentRepo) MarkDeleted(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.softDel, nil
}

func (s *stubDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleted = id
	return nil
}

type stubProjects struct {
	project *models.Project
}

func (s stubProjects) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	if s.project == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.project, nil
}

type stubSigner struct {
	uploadURL   string
	downloadURL string
	lastObject  string
	lastType    string
	err         error
}

func (s *stubSigner) SignedUploadURL(bucket, object, contentType string, expires time.Duration) (string, error) {
	s.lastObject = object
	s.lastType = contentType
	if s.err != nil {
		return "", s.err
	}
	return s.uploadURL, nil
}

func (s *stubSigner) SignedDownloadURL(bucket, object string, expires time.Duration) (string, error) {
	s.lastObject = object
	if s.err != nil {
		return "", s.err
	}
	return s.downloadURL, nil
}

func (s *stubSigner) DefaultBucket() string { return "bucket" }

func newDocService(t *testing.T, repo Repository, projects projectFinder, signer objectSigner) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:      repo,
		Projects:  projects,
		Signer:    signer,
		GCSConfig: config.GCSConfig{UploadURLExpiry: time.Minute, DownloadURLExpiry: time.Minute},
		Documents: config.DocumentsConfig{MaxUploadMB: 10},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestPresignUploadSuccess(t *testing.T) {
	t.Parallel()

	repo := &stubDocumentRepo{}
	signer := &stubSigner{uploadURL: "https://signed.example/put"}
	project := &models.Project{ID: uuid.New()}
	svc := newDocService(t, repo, stubProjects{project: project}, signer)

	res, err := svc.PresignUpload(context.Background(), uuid.New(), PresignInput{
		ProjectID:   project.ID,
		Kind:        enums.DocumentKindContract,
		FileName:    "contrato final.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2048,
	})
	if err != nil {
		t.Fatalf("PresignUpload returned error: %v", err)
	}

	if res.SignedPUTURL != "https://signed.example/put" {
		t.Fatalf("unexpected url %s", res.SignedPUTURL)
	}
	if repo.created == nil || repo.created.Status != enums.DocumentStatusPendingUpload {
		t.Fatalf("expected pending_upload row, got %+v", repo.created)
	}
	if !strings.Contains(res.ObjectKey, "contrato-final.pdf") {
		t.Fatalf("expected sanitized file name in key, got %s", res.ObjectKey)
	}
	if signer.lastType != "application/pdf" {
		t.Fatalf("signer content type %s", signer.lastType)
	}
}

func TestPresignUploadRejectsBadContentType(t *testing.T) {
	t.Parallel()

	repo := &stubDocumentRepo{}
	svc := newDocService(t, repo, stubProjects{project: &models.Project{ID: uuid.New()}}, &stubSigner{})

	_, err := svc.PresignUpload(context.Background(), uuid.New(), PresignInput{
		ProjectID:   uuid.New(),
		Kind:        enums.DocumentKindContract,
		FileName:    "contract.exe",
		ContentType: "application/octet-stream",
		SizeBytes:   100,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.created != nil {
		t.Fatal("no row should be created for rejected input")
	}
}

func TestPresignUploadUnknownProject(t *testing.T) {
	t.Parallel()

	svc := newDocService(t, &stubDocumentRepo{}, stubProjects{}, &stubSigner{})

	_, err := svc.PresignUpload(context.Background(), uuid.New(), PresignInput{
		ProjectID:   uuid.New(),
		Kind:        enums.DocumentKindSitePhoto,
		FileName:    "site.png",
		ContentType: "image/png",
		SizeBytes:   100,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPresignUploadCleansUpWhenSigningFails(t *testing.T) {
	t.Parallel()

	repo := &stubDocumentRepo{}
	signer := &stubSigner{err: context.DeadlineExceeded}
	svc := newDocService(t, repo, stubProjects{project: &models.Project{ID: uuid.New()}}, signer)

	_, err := svc.PresignUpload(context.Background(), uuid.New(), PresignInput{
		ProjectID:   uuid.New(),
		Kind:        enums.DocumentKindReport,
		FileName:    "report.pdf",
		ContentType: "application/pdf",
		SizeBytes:   100,
	})
	if err == nil {
		t.Fatal("expected signing failure")
	}
	if repo.created == nil || repo.deleted != repo.created.ID {
		t.Fatal("expected the pending row to be removed after signing failure")
	}
}

func TestConfirmUploadStates(t *testing.T) {
	t.Parallel()

	svc := newDocService(t, &stubDocumentRepo{uploaded: true}, stubProjects{}, &stubSigner{})
	if err := svc.ConfirmUpload(context.Background(), uuid.New()); err != nil {
		t.Fatalf("confirm upload: %v", err)
	}

	svc = newDocService(t, &stubDocumentRepo{}, stubProjects{}, &stubSigner{})
	err := svc.ConfirmUpload(context.Background(), uuid.New())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	already := &models.Document{ID: uuid.New(), Status: enums.DocumentStatusUploaded}
	svc = newDocService(t, &stubDocumentRepo{byID: already}, stubProjects{}, &stubSigner{})
	err = svc.ConfirmUpload(context.Background(), already.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestListSignsUploadedDocumentsOnly(t *testing.T) {
	t.Parallel()

	projectID := uuid.New()
	uploadedAt := time.Now().UTC()
	rows := []models.Document{
		{ID: uuid.New(), ProjectID: projectID, Status: enums.DocumentStatusUploaded, ObjectKey: "documents/a", UploadedAt: &uploadedAt},
		{ID: uuid.New(), ProjectID: projectID, Status: enums.DocumentStatusPendingUpload, ObjectKey: "documents/b"},
	}
	signer := &stubSigner{downloadURL: "https://signed.example/get"}
	svc := newDocService(t, &stubDocumentRepo{rows: rows}, stubProjects{}, signer)

	items, err := svc.List(context.Background(), projectID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].DownloadURL != "https://signed.example/get" {
		t.Fatalf("uploaded doc missing download url: %+v", items[0])
	}
	if items[1].DownloadURL != "" {
		t.Fatal("pending doc must not carry a download url")
	}
}

func TestDeleteDocument(t *testing.T) {
	t.Parallel()

	svc := newDocService(t, &stubDocumentRepo{softDel: true}, stubProjects{}, &stubSigner{})
	if err := svc.Delete(context.Background(), uuid.New()); err != nil {
		t.Fatalf("delete: %v", err)
	}

	svc = newDocService(t, &stubDocumentRepo{}, stubProjects{}, &stubSigner{})
	err := svc.Delete(context.Background(), uuid.New())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
