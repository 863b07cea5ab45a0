package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/istmo-energy/portal-backend/internal/notifications"
	"github.com/istmo-energy/portal-backend/internal/scheduling"
	"github.com/istmo-energy/portal-backend/pkg/db/models"
	"github.com/istmo-energy/portal-backend/pkg/enums"
	"github.com/istmo-energy/portal-backend/pkg/logger"
	"github.com/istmo-energy/portal-backend/pkg/outbox"
)

type projectFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
}

type technicianFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Technician, error)
}

type staffNotifier interface {
	BroadcastToStaff(ctx context.Context, input notifications.BroadcastInput) error
}

// Consumer turns domain events from the mail subscription into outbound email
// and mirrors the staff-relevant ones into in-app notifications.
type Consumer struct {
	sender       Sender
	projects     projectFinder
	technicians  technicianFinder
	notifier     staffNotifier
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer constructs a consumer that watches the mail subscription.
func NewConsumer(sender Sender, projects projectFinder, technicians technicianFinder, notifier staffNotifier, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if sender == nil {
		return nil, errors.New("mail sender is required")
	}
	if projects == nil {
		return nil, errors.New("project finder is required")
	}
	if technicians == nil {
		return nil, errors.New("technician finder is required")
	}
	if notifier == nil {
		return nil, errors.New("staff notifier is required")
	}
	if subscription == nil {
		return nil, errors.New("mail subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		sender:       sender,
		projects:     projects,
		technicians:  technicians,
		notifier:     notifier,
		subscription: subscription,
		logg:         logg,
	}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

type appointmentEventPayload struct {
	AppointmentID uuid.UUID `json:"appointmentId"`
	ProjectID     uuid.UUID `json:"projectId"`
	TechnicianID  uuid.UUID `json:"technicianId"`
	ScheduledAt   time.Time `json:"scheduledAt"`
}

type inquiryEventPayload struct {
	InquiryID   uuid.UUID         `json:"inquiryId"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	ServiceType enums.ServiceType `json:"serviceType"`
}

type quoteEventPayload struct {
	QuoteID     uuid.UUID `json:"quoteId"`
	ProjectID   uuid.UUID `json:"projectId"`
	QuoteNumber int64     `json:"quoteNumber"`
	Total       string    `json:"total"`
	Accepted    *bool     `json:"accepted,omitempty"`
}

type rescheduleEventPayload struct {
	ProjectID     uuid.UUID `json:"projectId"`
	AppointmentID uuid.UUID `json:"appointmentId"`
	RescheduleURL string    `json:"rescheduleUrl"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to unmarshal event envelope", err)
		return processResult{ack: true}
	}

	var err error
	switch eventType {
	case enums.EventInquiryReceived:
		err = c.handleInquiryReceived(logCtx, envelope.Data)
	case enums.EventQuoteSent:
		err = c.handleQuote(logCtx, envelope.Data, false)
	case enums.EventQuoteDecided:
		err = c.handleQuote(logCtx, envelope.Data, true)
	case enums.EventAppointmentScheduled:
		err = c.handleAppointment(logCtx, envelope.Data, renderAppointmentScheduled)
	case enums.EventAppointmentReminder:
		err = c.handleAppointment(logCtx, envelope.Data, renderAppointmentReminder)
	case enums.EventAppointmentRebooked:
		err = c.handleAppointment(logCtx, envelope.Data, renderAppointmentRebooked)
	case enums.EventRescheduleRequested:
		err = c.handleRescheduleRequested(logCtx, envelope.Data)
	default:
		c.logg.Info(logCtx, "no mail handler for event type")
		return processResult{ack: true}
	}

	if err != nil {
		var bad badPayloadError
		if errors.As(err, &bad) {
			c.logg.Error(logCtx, "dropping event with unusable payload", err)
			return processResult{ack: true}
		}
		c.logg.Error(logCtx, "mail delivery failed, message will retry", err)
		return processResult{nack: true}
	}

	// In-app notifications are best effort: the mail already went out, so a
	// failed fan-out is logged and the message still acks.
	if note := staffNote(eventType, envelope.Data); note != nil {
		if err := c.notifier.BroadcastToStaff(logCtx, *note); err != nil {
			c.logg.Error(logCtx, "staff notification fan-out failed", err)
		}
	}

	c.logg.Info(logCtx, "mail sent")
	return processResult{ack: true}
}

// staffNote maps a delivered event onto the in-app notification the staff
// should see, or nil for client-only events like reminders.
func staffNote(eventType enums.OutboxEventType, data json.RawMessage) *notifications.BroadcastInput {
	switch eventType {
	case enums.EventInquiryReceived:
		var payload inquiryEventPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil
		}
		return &notifications.BroadcastInput{
			Type:    enums.NotificationTypeInquiryReceived,
			Title:   "Nueva consulta recibida",
			Message: payload.Name + " solicitó " + string(payload.ServiceType),
		}
	case enums.EventQuoteDecided:
		var payload quoteEventPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil
		}
		note := &notifications.BroadcastInput{
			Type:    enums.NotificationTypeQuoteRejected,
			Title:   "Cotización rechazada",
			Message: fmt.Sprintf("Cotización #%d", payload.QuoteNumber),
		}
		if payload.Accepted != nil && *payload.Accepted {
			note.Type = enums.NotificationTypeQuoteAccepted
			note.Title = "Cotización aceptada"
		}
		return note
	case enums.EventAppointmentScheduled:
		var payload appointmentEventPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil
		}
		message := ""
		if loc, err := scheduling.Location(); err == nil {
			message = "Visita el " + payload.ScheduledAt.In(loc).Format("02/01/2006 15:04")
		}
		return &notifications.BroadcastInput{
			Type:    enums.NotificationTypeProjectScheduled,
			Title:   "Visita técnica agendada",
			Message: message,
		}
	case enums.EventRescheduleRequested:
		var payload rescheduleEventPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil
		}
		return &notifications.BroadcastInput{
			Type:    enums.NotificationTypeRescheduleRequired,
			Title:   "Reprogramación urgente requerida",
			Message: "Se envió al cliente un enlace de reprogramación",
		}
	default:
		return nil
	}
}

type badPayloadError struct {
	cause error
}

func (e badPayloadError) Error() string { return "unusable payload: " + e.cause.Error() }
func (e badPayloadError) Unwrap() error { return e.cause }

func (c *Consumer) handleInquiryReceived(ctx context.Context, data json.RawMessage) error {
	var payload inquiryEventPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return badPayloadError{cause: err}
	}
	if payload.Email == "" {
		return badPayloadError{cause: errors.New("inquiry payload missing email")}
	}

	subject, html, err := renderInquiryReceived(InquiryReceivedData{
		Name:        payload.Name,
		ServiceType: string(payload.ServiceType),
	})
	if err != nil {
		return badPayloadError{cause: err}
	}
	return c.deliver(ctx, payload.Email, subject, html)
}

func (c *Consumer) handleQuote(ctx context.Context, data json.RawMessage, decided bool) error {
	var payload quoteEventPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return badPayloadError{cause: err}
	}

	project, err := c.findProject(ctx, payload.ProjectID)
	if err != nil {
		return err
	}

	var subject, html string
	if decided {
		accepted := payload.Accepted != nil && *payload.Accepted
		subject, html, err = renderQuoteDecided(QuoteDecidedData{
			ClientName:  project.ClientName,
			QuoteNumber: payload.QuoteNumber,
			Accepted:    accepted,
		})
	} else {
		subject, html, err = renderQuoteSent(QuoteSentData{
			ClientName:  project.ClientName,
			QuoteNumber: payload.QuoteNumber,
			Total:       "B/. " + payload.Total,
		})
	}
	if err != nil {
		return badPayloadError{cause: err}
	}
	return c.deliver(ctx, project.ClientEmail, subject, html)
}

func (c *Consumer) handleAppointment(ctx context.Context, data json.RawMessage, renderFn func(AppointmentData) (string, string, error)) error {
	var payload appointmentEventPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return badPayloadError{cause: err}
	}

	project, err := c.findProject(ctx, payload.ProjectID)
	if err != nil {
		return err
	}

	technicianName := ""
	if payload.TechnicianID != uuid.Nil {
		technician, err := c.technicians.GetByID(ctx, payload.TechnicianID)
		if err == nil {
			technicianName = technician.Name
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	loc, err := scheduling.Location()
	if err != nil {
		return err
	}
	local := payload.ScheduledAt.In(loc)

	subject, html, err := renderFn(AppointmentData{
		ClientName:     project.ClientName,
		TechnicianName: technicianName,
		Date:           local.Format("02/01/2006"),
		Time:           local.Format("15:04"),
	})
	if err != nil {
		return badPayloadError{cause: err}
	}
	return c.deliver(ctx, project.ClientEmail, subject, html)
}

func (c *Consumer) handleRescheduleRequested(ctx context.Context, data json.RawMessage) error {
	var payload rescheduleEventPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return badPayloadError{cause: err}
	}
	if payload.RescheduleURL == "" {
		return badPayloadError{cause: errors.New("reschedule payload missing url")}
	}

	project, err := c.findProject(ctx, payload.ProjectID)
	if err != nil {
		return err
	}

	loc, locErr := scheduling.Location()
	if locErr != nil {
		return locErr
	}

	subject, html, err := renderRescheduleRequested(RescheduleData{
		ClientName:    project.ClientName,
		RescheduleURL: payload.RescheduleURL,
		ExpiresAt:     payload.ExpiresAt.In(loc).Format("02/01/2006 15:04"),
	})
	if err != nil {
		return badPayloadError{cause: err}
	}
	return c.deliver(ctx, project.ClientEmail, subject, html)
}

func (c *Consumer) findProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	if id == uuid.Nil {
		return nil, badPayloadError{cause: errors.New("payload missing project id")}
	}
	project, err := c.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, badPayloadError{cause: errors.New("project no longer exists")}
		}
		return nil, err
	}
	return project, nil
}

func (c *Consumer) deliver(ctx context.Context, to, subject, html string) error {
	_, err := c.sender.Send(ctx, Message{
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	return err
}
