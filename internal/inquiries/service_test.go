package inquiries

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/istmo-energy/portal-backend/internal/projects"
	"github.com/istmo-energy/portal-backend/pkg/db/models"
	"github.com/istmo-energy/portal-backend/pkg/enums"
	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
	"github.com/istmo-energy/portal-backend/pkg/outbox"
	"github.com/istmo-energy/portal-backend/pkg/pagination"
)

type fakeRepository struct {
	inquiries map[uuid.UUID]*models.Inquiry
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{inquiries: map[uuid.UUID]*models.Inquiry{}}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, inquiry *models.Inquiry) error {
	inquiry.ID = uuid.New()
	f.inquiries[inquiry.ID] = inquiry
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Inquiry, error) {
	if i, ok := f.inquiries[id]; ok {
		clone := *i
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) List(ctx context.Context, params listInquiriesParams) ([]models.Inquiry, *pagination.Cursor, error) {
	var rows []models.Inquiry
	for _, i := range f.inquiries {
		if params.Status != "" && i.Status != params.Status {
			continue
		}
		rows = append(rows, *i)
	}
	return rows, nil, nil
}

func (f *fakeRepository) Update(ctx context.Context, inquiry *models.Inquiry) error {
	f.inquiries[inquiry.ID] = inquiry
	return nil
}

type fakeProjects struct {
	created []projects.CreateInput
}

func (f *fakeProjects) Create(ctx context.Context, input projects.CreateInput) (*models.Project, error) {
	f.created = append(f.created, input)
	return &models.Project{
		ID:          uuid.New(),
		InquiryID:   input.InquiryID,
		ClientName:  input.ClientName,
		ClientEmail: input.ClientEmail,
		ServiceType: input.ServiceType,
		Status:      enums.ProjectStatusNew,
	}, nil
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func newTestService(t *testing.T) (Service, *fakeRepository, *fakeProjects, *fakeOutbox) {
	t.Helper()
	repo := newFakeRepository()
	projectSvc := &fakeProjects{}
	emitter := &fakeOutbox{}
	svc, err := NewService(repo, projectSvc, fakeTx{}, emitter)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo, projectSvc, emitter
}

func seedInquiry(t *testing.T, svc Service) *models.Inquiry {
	t.Helper()
	inquiry, err := svc.Submit(context.Background(), SubmitInput{
		Name:        "Luisa Herrera",
		Email:       "luisa@example.com",
		ServiceType: "solar_installation",
	})
	if err != nil {
		t.Fatalf("seed inquiry: %v", err)
	}
	return inquiry
}

func TestSubmitQueuesInquiryReceivedEvent(t *testing.T) {
	svc, _, _, emitter := newTestService(t)

	inquiry := seedInquiry(t, svc)
	if inquiry.Status != enums.InquiryStatusNew {
		t.Fatalf("unexpected status: %s", inquiry.Status)
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected one outbox event, got %d", len(emitter.events))
	}
	event := emitter.events[0]
	if event.EventType != enums.EventInquiryReceived {
		t.Fatalf("unexpected event type: %s", event.EventType)
	}
	if event.AggregateID != inquiry.ID {
		t.Fatalf("aggregate mismatch: %s", event.AggregateID)
	}
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	cases := []struct {
		name  string
		input SubmitInput
	}{
		{"empty name", SubmitInput{Email: "a@b.com", ServiceType: "maintenance"}},
		{"empty email", SubmitInput{Name: "Luisa", ServiceType: "maintenance"}},
		{"bad service type", SubmitInput{Name: "Luisa", Email: "a@b.com", ServiceType: "plumbing"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tc.input)
			if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestReviewStampsReviewer(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	inquiry := seedInquiry(t, svc)
	reviewer := uuid.New()

	if err := svc.Review(context.Background(), inquiry.ID, reviewer); err != nil {
		t.Fatalf("review inquiry: %v", err)
	}

	stored := repo.inquiries[inquiry.ID]
	if stored.Status != enums.InquiryStatusReviewed {
		t.Fatalf("unexpected status: %s", stored.Status)
	}
	if stored.ReviewedBy == nil || *stored.ReviewedBy != reviewer {
		t.Fatalf("reviewer not recorded")
	}
}

func TestConvertOpensProjectAndLinksBack(t *testing.T) {
	svc, repo, projectSvc, _ := newTestService(t)
	inquiry := seedInquiry(t, svc)
	reviewer := uuid.New()

	project, err := svc.Convert(context.Background(), inquiry.ID, reviewer)
	if err != nil {
		t.Fatalf("convert inquiry: %v", err)
	}
	if len(projectSvc.created) != 1 {
		t.Fatalf("expected one project, got %d", len(projectSvc.created))
	}
	input := projectSvc.created[0]
	if input.InquiryID == nil || *input.InquiryID != inquiry.ID {
		t.Fatalf("project missing inquiry back-reference")
	}
	if input.ClientName != inquiry.Name || input.ClientEmail != inquiry.Email {
		t.Fatalf("client snapshot not copied from inquiry")
	}

	stored := repo.inquiries[inquiry.ID]
	if stored.Status != enums.InquiryStatusConverted {
		t.Fatalf("unexpected status: %s", stored.Status)
	}
	if stored.ProjectID == nil || *stored.ProjectID != project.ID {
		t.Fatalf("inquiry not linked to project")
	}
}

func TestConvertRejectsTerminalStates(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	reviewer := uuid.New()

	converted := seedInquiry(t, svc)
	if _, err := svc.Convert(context.Background(), converted.ID, reviewer); err != nil {
		t.Fatalf("first convert: %v", err)
	}
	_, err := svc.Convert(context.Background(), converted.ID, reviewer)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for converted inquiry, got %v", err)
	}

	discarded := seedInquiry(t, svc)
	if err := svc.Discard(context.Background(), discarded.ID, reviewer); err != nil {
		t.Fatalf("discard inquiry: %v", err)
	}
	_, err = svc.Convert(context.Background(), discarded.ID, reviewer)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for discarded inquiry, got %v", err)
	}
}

func TestReviewAfterConvertConflicts(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	inquiry := seedInquiry(t, svc)
	reviewer := uuid.New()

	if _, err := svc.Convert(context.Background(), inquiry.ID, reviewer); err != nil {
		t.Fatalf("convert inquiry: %v", err)
	}
	err := svc.Review(context.Background(), inquiry.ID, reviewer)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}
