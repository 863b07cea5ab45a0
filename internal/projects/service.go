package projects

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/istmo-energy/portal-backend/internal/scheduling"
	"github.com/istmo-energy/portal-backend/pkg/db/models"
	"github.com/istmo-energy/portal-backend/pkg/enums"
	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
	"github.com/istmo-energy/portal-backend/pkg/outbox"
	"github.com/istmo-energy/portal-backend/pkg/pagination"
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines project lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ProjectStatus) error
	UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error

	// Booking side effects, invoked by the scheduling engine.
	RecordBooking(ctx context.Context, tx *gorm.DB, booking scheduling.ProjectBooking) error
	MarkUrgentReschedule(ctx context.Context, projectID uuid.UUID) error
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// CreateInput captures the fields needed to open a project.
type CreateInput struct {
	InquiryID     *uuid.UUID
	ClientName    string
	ClientEmail   string
	ClientPhone   *string
	ClientAddress *string
	ServiceType   enums.ServiceType
	Notes         *string
}

// ListParams configures filtering and pagination for projects.
type ListParams struct {
	Status string
	Limit  int
	Cursor string
}

// ListResult wraps returned projects and the cursor for the next page.
type ListResult struct {
	Items  []models.Project `json:"items"`
	Cursor string           `json:"cursor"`
}

// lifecycle transitions an operator may request directly. Scheduling-driven
// transitions (pending_installation, urgent_reschedule) bypass this table.
var allowedTransitions = map[enums.ProjectStatus][]enums.ProjectStatus{
	enums.ProjectStatusNew:                 {enums.ProjectStatusQuoted, enums.ProjectStatusCancelled},
	enums.ProjectStatusQuoted:              {enums.ProjectStatusApproved, enums.ProjectStatusCancelled},
	enums.ProjectStatusApproved:            {enums.ProjectStatusInProgress, enums.ProjectStatusCancelled},
	enums.ProjectStatusPendingInstallation: {enums.ProjectStatusInProgress, enums.ProjectStatusCancelled},
	enums.ProjectStatusUrgentReschedule:    {enums.ProjectStatusCancelled},
	enums.ProjectStatusInProgress:          {enums.ProjectStatusCompleted, enums.ProjectStatusCancelled},
}

// NewService wires project dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "projects repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Project, error) {
	name := strings.TrimSpace(input.ClientName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client name required")
	}
	email := strings.TrimSpace(input.ClientEmail)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client email required")
	}
	if !input.ServiceType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid service type")
	}

	project := &models.Project{
		InquiryID:     input.InquiryID,
		ClientName:    name,
		ClientEmail:   email,
		ClientPhone:   input.ClientPhone,
		ClientAddress: input.ClientAddress,
		ServiceType:   input.ServiceType,
		Status:        enums.ProjectStatusNew,
		Notes:         input.Notes,
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create project")
	}
	return project, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project id required")
	}
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load project")
	}
	return project, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listProjectsParams{Limit: params.Limit}
	if params.Status != "" {
		status, err := enums.ParseProjectStatus(params.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid project status filter")
		}
		query.Status = status
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list projects")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ProjectStatus) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "project id required")
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid project status")
	}

	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load project")
	}
	if project.Status == status {
		return nil
	}
	if !transitionAllowed(project.Status, status) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.UpdateStatus(ctx, id, status)
		if err != nil {
			return err
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
		}
		if s.outbox != nil {
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventProjectStatusChanged,
				AggregateType: enums.AggregateProject,
				AggregateID:   id,
				Data: statusChangedPayload{
					ProjectID: id,
					From:      project.Status,
					To:        status,
				},
				Version: 1,
			})
		}
		return nil
	})
}

func (s *service) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "project id required")
	}
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load project")
	}
	project.Notes = &notes
	if err := s.repo.Update(ctx, project); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update project notes")
	}
	return nil
}

// RecordBooking applies a committed appointment's side effects inside the
// caller's transaction.
func (s *service) RecordBooking(ctx context.Context, tx *gorm.DB, booking scheduling.ProjectBooking) error {
	repo := s.repo.WithTx(tx)
	found, err := repo.ApplyBooking(ctx, booking.ProjectID, booking.TechnicianID, booking.AppointmentID, booking.ScheduledDate, booking.ScheduledTime)
	if err != nil {
		return err
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
	}
	return nil
}

// MarkUrgentReschedule flags the project when assignment finds every
// technician busy.
func (s *service) MarkUrgentReschedule(ctx context.Context, projectID uuid.UUID) error {
	found, err := s.repo.UpdateStatus(ctx, projectID, enums.ProjectStatusUrgentReschedule)
	if err != nil {
		return err
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
	}
	return nil
}

func transitionAllowed(from, to enums.ProjectStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

type statusChangedPayload struct {
	ProjectID uuid.UUID           `json:"projectId"`
	From      enums.ProjectStatus `json:"from"`
	To        enums.ProjectStatus `json:"to"`
}
