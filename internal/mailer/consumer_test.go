package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/istmo-energy/portal-backend/internal/notifications"
	"github.com/istmo-energy/portal-backend/pkg/db/models"
	"github.com/istmo-energy/portal-backend/pkg/enums"
	"github.com/istmo-energy/portal-backend/pkg/logger"
	"github.com/istmo-energy/portal-backend/pkg/outbox"
)

type stubSender struct {
	sent []Message
	err  error
}

func (s *stubSender) Send(ctx context.Context, msg Message) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, msg)
	return "email_1", nil
}

type stubProjectFinder struct {
	project *models.Project
	err     error
}

func (s stubProjectFinder) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.project == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.project, nil
}

type stubTechnicianFinder struct {
	technician *models.Technician
}

type stubNotifier struct {
	inputs []notifications.BroadcastInput
	err    error
}

func (s *stubNotifier) BroadcastToStaff(ctx context.Context, input notifications.BroadcastInput) error {
	if s.err != nil {
		return s.err
	}
	s.inputs = append(s.inputs, input)
	return nil
}

func (s stubTechnicianFinder) GetByID(ctx context.Context, id uuid.UUID) (*models.Technician, error) {
	if s.technician == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.technician, nil
}

func newTestConsumer(sender Sender, projects projectFinder, technicians technicianFinder, notifier staffNotifier) *Consumer {
	return &Consumer{
		sender:      sender,
		projects:    projects,
		technicians: technicians,
		notifier:    notifier,
		logg:        logger.New(logger.Options{ServiceName: "test"}),
	}
}

func eventMessage(t *testing.T, eventType enums.OutboxEventType, data any) *pubsub.Message {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &pubsub.Message{
		ID:         "msg-1",
		Data:       envelope,
		Attributes: map[string]string{"event_type": string(eventType)},
	}
}

func TestConsumerSendsAppointmentScheduledMail(t *testing.T) {
	sender := &stubSender{}
	project := &models.Project{
		ID:          uuid.New(),
		ClientName:  "Carlos Mendoza",
		ClientEmail: "carlos@example.com",
	}
	technician := &models.Technician{ID: uuid.New(), Name: "Luis Pérez"}
	consumer := newTestConsumer(sender, stubProjectFinder{project: project}, stubTechnicianFinder{technician: technician}, &stubNotifier{})

	// 15:00 UTC is 10:00 in Panama.
	scheduledAt := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	msg := eventMessage(t, enums.EventAppointmentScheduled, appointmentEventPayload{
		AppointmentID: uuid.New(),
		ProjectID:     project.ID,
		TechnicianID:  technician.ID,
		ScheduledAt:   scheduledAt,
	})

	result := consumer.process(context.Background(), msg)
	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(sender.sent))
	}
	mail := sender.sent[0]
	if mail.To[0] != "carlos@example.com" {
		t.Fatalf("unexpected recipient %v", mail.To)
	}
	if !strings.Contains(mail.HTML, "10:00") {
		t.Fatalf("expected Panama local time in body, got %s", mail.HTML)
	}
	if !strings.Contains(mail.HTML, "Luis Pérez") {
		t.Fatalf("expected technician name in body, got %s", mail.HTML)
	}
}

func TestConsumerSendsInquiryConfirmation(t *testing.T) {
	sender := &stubSender{}
	consumer := newTestConsumer(sender, stubProjectFinder{}, stubTechnicianFinder{}, &stubNotifier{})

	msg := eventMessage(t, enums.EventInquiryReceived, inquiryEventPayload{
		InquiryID:   uuid.New(),
		Name:        "Ana",
		Email:       "ana@example.com",
		ServiceType: enums.ServiceTypeSolarInstallation,
	})

	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(sender.sent) != 1 || sender.sent[0].To[0] != "ana@example.com" {
		t.Fatalf("expected confirmation to ana@example.com, got %+v", sender.sent)
	}
}

func TestConsumerAcksUnknownEventType(t *testing.T) {
	sender := &stubSender{}
	consumer := newTestConsumer(sender, stubProjectFinder{}, stubTechnicianFinder{}, &stubNotifier{})

	msg := eventMessage(t, enums.EventProjectStatusChanged, map[string]string{"projectId": uuid.NewString()})
	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected ack for unhandled event, got %+v", result)
	}
	if len(sender.sent) != 0 {
		t.Fatal("no mail expected for unhandled event")
	}
}

func TestConsumerAcksMissingProject(t *testing.T) {
	sender := &stubSender{}
	consumer := newTestConsumer(sender, stubProjectFinder{}, stubTechnicianFinder{}, &stubNotifier{})

	msg := eventMessage(t, enums.EventQuoteSent, quoteEventPayload{
		QuoteID:     uuid.New(),
		ProjectID:   uuid.New(),
		QuoteNumber: 7,
		Total:       "3210.00",
	})
	result := consumer.process(context.Background(), msg)
	if !result.ack || result.nack {
		t.Fatalf("missing project should ack, got %+v", result)
	}
}

func TestConsumerNacksOnSendFailure(t *testing.T) {
	sender := &stubSender{err: errors.New("rate limited")}
	project := &models.Project{ID: uuid.New(), ClientName: "Carlos", ClientEmail: "carlos@example.com"}
	consumer := newTestConsumer(sender, stubProjectFinder{project: project}, stubTechnicianFinder{}, &stubNotifier{})

	msg := eventMessage(t, enums.EventRescheduleRequested, rescheduleEventPayload{
		ProjectID:     project.ID,
		AppointmentID: uuid.New(),
		RescheduleURL: "https://portal.example/reschedule/tok",
		ExpiresAt:     time.Now().Add(24 * time.Hour),
	})
	result := consumer.process(context.Background(), msg)
	if !result.nack {
		t.Fatalf("send failure should nack for retry, got %+v", result)
	}
}

func TestConsumerAcksMalformedEnvelope(t *testing.T) {
	sender := &stubSender{}
	consumer := newTestConsumer(sender, stubProjectFinder{}, stubTechnicianFinder{}, &stubNotifier{})

	msg := &pubsub.Message{
		ID:         "msg-2",
		Data:       []byte("not json"),
		Attributes: map[string]string{"event_type": string(enums.EventQuoteSent)},
	}
	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("malformed envelope should ack, got %+v", result)
	}
}

func TestConsumerNotifiesStaffOfNewInquiry(t *testing.T) {
	sender := &stubSender{}
	notifier := &stubNotifier{}
	consumer := newTestConsumer(sender, stubProjectFinder{}, stubTechnicianFinder{}, notifier)

	msg := eventMessage(t, enums.EventInquiryReceived, inquiryEventPayload{
		InquiryID:   uuid.New(),
		Name:        "Ana",
		Email:       "ana@example.com",
		ServiceType: enums.ServiceTypeSolarInstallation,
	})

	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(notifier.inputs) != 1 {
		t.Fatalf("expected one staff broadcast, got %d", len(notifier.inputs))
	}
	note := notifier.inputs[0]
	if note.Type != enums.NotificationTypeInquiryReceived {
		t.Fatalf("unexpected notification type %s", note.Type)
	}
	if !strings.Contains(note.Message, "Ana") {
		t.Fatalf("expected client name in message, got %q", note.Message)
	}
}

func TestConsumerAcksWhenStaffBroadcastFails(t *testing.T) {
	sender := &stubSender{}
	notifier := &stubNotifier{err: errors.New("insert failed")}
	consumer := newTestConsumer(sender, stubProjectFinder{}, stubTechnicianFinder{}, notifier)

	msg := eventMessage(t, enums.EventInquiryReceived, inquiryEventPayload{
		InquiryID: uuid.New(),
		Name:      "Ana",
		Email:     "ana@example.com",
	})

	result := consumer.process(context.Background(), msg)
	if !result.ack || result.nack {
		t.Fatalf("broadcast failure must not retry a delivered mail, got %+v", result)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected the mail to go out, got %d", len(sender.sent))
	}
}

func TestConsumerReminderSkipsStaffBroadcast(t *testing.T) {
	sender := &stubSender{}
	notifier := &stubNotifier{}
	project := &models.Project{ID: uuid.New(), ClientName: "Carlos", ClientEmail: "carlos@example.com"}
	consumer := newTestConsumer(sender, stubProjectFinder{project: project}, stubTechnicianFinder{}, notifier)

	msg := eventMessage(t, enums.EventAppointmentReminder, appointmentEventPayload{
		AppointmentID: uuid.New(),
		ProjectID:     project.ID,
		ScheduledAt:   time.Now().Add(24 * time.Hour),
	})

	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(notifier.inputs) != 0 {
		t.Fatalf("reminders are client-only, got %d broadcasts", len(notifier.inputs))
	}
}
