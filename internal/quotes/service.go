package quotes

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/istmo-energy/portal-backend/pkg/config"
	"github.com/istmo-energy/portal-backend/pkg/db/models"
	"github.com/istmo-energy/portal-backend/pkg/enums"
	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
	"github.com/istmo-energy/portal-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// projectStatusSetter nudges the owning project through quote-driven states.
type projectStatusSetter interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ProjectStatus) error
}

// Service defines quote lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Quote, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Quote, error)
	Send(ctx context.Context, id uuid.UUID) error
	Decide(ctx context.Context, id uuid.UUID, accepted bool) error
}

type service struct {
	repo     Repository
	projects projectStatusSetter
	tx       txRunner
	outbox   outboxPublisher
	taxRate  decimal.Decimal
}

// LineItemInput is one priced row in a quote request.
type LineItemInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// CreateInput captures a draft quote.
type CreateInput struct {
	ProjectID  uuid.UUID
	CreatedBy  uuid.UUID
	ValidUntil *time.Time
	Notes      *string
	LineItems  []LineItemInput
}

// NewService wires quote dependencies. The ITBMS tax rate comes from config.
func NewService(repo Repository, projects projectStatusSetter, tx txRunner, outboxSvc outboxPublisher, cfg config.QuotesConfig) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "quotes repository required")
	}
	if projects == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "project service required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	taxRate, err := decimal.NewFromString(cfg.DefaultTaxRate)
	if err != nil || taxRate.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "invalid default tax rate")
	}
	return &service{repo: repo, projects: projects, tx: tx, outbox: outboxSvc, taxRate: taxRate}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Quote, error) {
	if input.ProjectID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project id required")
	}
	if input.CreatedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "author required")
	}
	if len(input.LineItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line item required")
	}

	subtotal := decimal.Zero
	items := make([]models.QuoteLineItem, 0, len(input.LineItems))
	for i, item := range input.LineItems {
		description := strings.TrimSpace(item.Description)
		if description == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item description required")
		}
		if item.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item unit price cannot be negative")
		}
		amount := item.Quantity.Mul(item.UnitPrice).Round(2)
		subtotal = subtotal.Add(amount)
		items = append(items, models.QuoteLineItem{
			Description: description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      amount,
			Position:    i,
		})
	}

	taxAmount := subtotal.Mul(s.taxRate).Round(2)
	quote := &models.Quote{
		ProjectID:  input.ProjectID,
		Status:     enums.QuoteStatusDraft,
		Subtotal:   subtotal,
		TaxRate:    s.taxRate,
		TaxAmount:  taxAmount,
		Total:      subtotal.Add(taxAmount),
		ValidUntil: input.ValidUntil,
		Notes:      input.Notes,
		CreatedBy:  input.CreatedBy,
		LineItems:  items,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		number, err := repo.NextQuoteNumber(ctx)
		if err != nil {
			return err
		}
		quote.QuoteNumber = number
		return repo.Create(ctx, quote)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create quote")
	}
	return quote, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote id required")
	}
	quote, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote")
	}
	return quote, nil
}

func (s *service) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Quote, error) {
	if projectID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project id required")
	}
	rows, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quotes")
	}
	return rows, nil
}

// Send transitions a draft to sent and queues the client email through the
// outbox.
func (s *service) Send(ctx context.Context, id uuid.UUID) error {
	quote, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if quote.Status != enums.QuoteStatusDraft {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft quotes can be sent")
	}

	now := time.Now().UTC()
	quote.Status = enums.QuoteStatusSent
	quote.SentAt = &now

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, quote); err != nil {
			return err
		}
		if s.outbox != nil {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventQuoteSent,
				AggregateType: enums.AggregateQuote,
				AggregateID:   quote.ID,
				Data:          quoteEventPayload{QuoteID: quote.ID, ProjectID: quote.ProjectID, QuoteNumber: quote.QuoteNumber, Total: quote.Total},
				Version:       1,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send quote")
	}

	if err := s.projects.UpdateStatus(ctx, quote.ProjectID, enums.ProjectStatusQuoted); err != nil {
		// The quote is already out; a state-conflict here only means the
		// project had moved past "new".
		if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
			return err
		}
	}
	return nil
}

// Decide records the client's accept/reject decision.
func (s *service) Decide(ctx context.Context, id uuid.UUID, accepted bool) error {
	quote, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if quote.Status != enums.QuoteStatusSent {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only sent quotes can be decided")
	}

	now := time.Now().UTC()
	quote.DecidedAt = &now
	if accepted {
		quote.Status = enums.QuoteStatusAccepted
	} else {
		quote.Status = enums.QuoteStatusRejected
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, quote); err != nil {
			return err
		}
		if s.outbox != nil {
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventQuoteDecided,
				AggregateType: enums.AggregateQuote,
				AggregateID:   quote.ID,
				Data:          quoteEventPayload{QuoteID: quote.ID, ProjectID: quote.ProjectID, QuoteNumber: quote.QuoteNumber, Total: quote.Total, Accepted: &accepted},
				Version:       1,
			})
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decide quote")
	}

	if accepted {
		if err := s.projects.UpdateStatus(ctx, quote.ProjectID, enums.ProjectStatusApproved); err != nil {
			if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
				return err
			}
		}
	}
	return nil
}

type quoteEventPayload struct {
	QuoteID     uuid.UUID       `json:"quoteId"`
	ProjectID   uuid.UUID       `json:"projectId"`
	QuoteNumber int64           `json:"quoteNumber"`
	Total       decimal.Decimal `json:"total"`
	Accepted    *bool           `json:"accepted,omitempty"`
}
