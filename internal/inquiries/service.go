package inquiries

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/istmo-energy/portal-backend/internal/projects"
	"github.com/istmo-energy/portal-backend/pkg/db/models"
	"github.com/istmo-energy/portal-backend/pkg/enums"
	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
	"github.com/istmo-energy/portal-backend/pkg/outbox"
	"github.com/istmo-energy/portal-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// projectOpener converts a reviewed inquiry into a project.
type projectOpener interface {
	Create(ctx context.Context, input projects.CreateInput) (*models.Project, error)
}

// Service defines inquiry intake and triage operations.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.Inquiry, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Inquiry, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Review(ctx context.Context, id, reviewerID uuid.UUID) error
	Discard(ctx context.Context, id, reviewerID uuid.UUID) error
	Convert(ctx context.Context, id, reviewerID uuid.UUID) (*models.Project, error)
}

type service struct {
	repo     Repository
	projects projectOpener
	tx       txRunner
	outbox   outboxPublisher
}

// SubmitInput is the public intake form payload.
type SubmitInput struct {
	Name        string
	Email       string
	Phone       *string
	Address     *string
	ServiceType string
	Message     *string
}

// ListParams configures filtering and pagination for inquiries.
type ListParams struct {
	Status string
	Limit  int
	Cursor string
}

// ListResult wraps returned inquiries and the cursor for the next page.
type ListResult struct {
	Items  []models.Inquiry `json:"items"`
	Cursor string           `json:"cursor"`
}

// NewService wires inquiry dependencies.
func NewService(repo Repository, projectSvc projectOpener, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inquiries repository required")
	}
	if projectSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "project service required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, projects: projectSvc, tx: tx, outbox: outboxSvc}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.Inquiry, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	serviceType, err := enums.ParseServiceType(input.ServiceType)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid service type")
	}

	inquiry := &models.Inquiry{
		Name:        name,
		Email:       email,
		Phone:       input.Phone,
		Address:     input.Address,
		ServiceType: serviceType,
		Message:     input.Message,
		Status:      enums.InquiryStatusNew,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, inquiry); err != nil {
			return err
		}
		if s.outbox != nil {
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventInquiryReceived,
				AggregateType: enums.AggregateInquiry,
				AggregateID:   inquiry.ID,
				Data: inquiryReceivedPayload{
					InquiryID:   inquiry.ID,
					Name:        name,
					Email:       email,
					ServiceType: serviceType,
				},
				Version: 1,
			})
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submit inquiry")
	}
	return inquiry, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Inquiry, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inquiry id required")
	}
	inquiry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inquiry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inquiry")
	}
	return inquiry, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listInquiriesParams{Limit: params.Limit}
	if params.Status != "" {
		status, err := enums.ParseInquiryStatus(params.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid inquiry status filter")
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inquiries")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) Review(ctx context.Context, id, reviewerID uuid.UUID) error {
	return s.transition(ctx, id, reviewerID, enums.InquiryStatusReviewed)
}

func (s *service) Discard(ctx context.Context, id, reviewerID uuid.UUID) error {
	return s.transition(ctx, id, reviewerID, enums.InquiryStatusDiscarded)
}

// Convert opens a project from the inquiry and marks it converted.
func (s *service) Convert(ctx context.Context, id, reviewerID uuid.UUID) (*models.Project, error) {
	inquiry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inquiry.Status == enums.InquiryStatusConverted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "inquiry already converted")
	}
	if inquiry.Status == enums.InquiryStatusDiscarded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "inquiry was discarded")
	}

	project, err := s.projects.Create(ctx, projects.CreateInput{
		InquiryID:     &inquiry.ID,
		ClientName:    inquiry.Name,
		ClientEmail:   inquiry.Email,
		ClientPhone:   inquiry.Phone,
		ClientAddress: inquiry.Address,
		ServiceType:   inquiry.ServiceType,
		Notes:         inquiry.Message,
	})
	if err != nil {
		return nil, err
	}

	inquiry.Status = enums.InquiryStatusConverted
	inquiry.ReviewedBy = &reviewerID
	inquiry.ProjectID = &project.ID
	if err := s.repo.Update(ctx, inquiry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark inquiry converted")
	}
	return project, nil
}

func (s *service) transition(ctx context.Context, id, reviewerID uuid.UUID, status enums.InquiryStatus) error {
	inquiry, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if inquiry.Status == enums.InquiryStatusConverted {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "inquiry already converted")
	}
	inquiry.Status = status
	inquiry.ReviewedBy = &reviewerID
	if err := s.repo.Update(ctx, inquiry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update inquiry")
	}
	return nil
}

type inquiryReceivedPayload struct {
	InquiryID   uuid.UUID         `json:"inquiryId"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	ServiceType enums.ServiceType `json:"serviceType"`
}
