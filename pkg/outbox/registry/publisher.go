package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/istmo-energy/portal-backend/pkg/config"
	"github.com/istmo-energy/portal-backend/pkg/db/models"
	"github.com/istmo-energy/portal-backend/pkg/enums"
	"github.com/istmo-energy/portal-backend/pkg/outbox"
	"github.com/istmo-energy/portal-backend/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

// NewEventRegistry builds the registry with the configured topic names.
// Every portal event fans out through the mail topic today; the descriptor
// keeps the topic per event so that can change without touching dispatch.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.MailTopic == "" {
		return nil, fmt.Errorf("mail topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	mailTopic := cfg.MailTopic

	reg.register(EventDescriptor{
		EventType:      enums.EventInquiryReceived,
		AggregateType:  enums.AggregateInquiry,
		Topic:          mailTopic,
		PayloadFactory: func() interface{} { return &payloads.InquiryReceivedEvent{} },
	})
	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventQuoteSent,
			AggregateType:  enums.AggregateQuote,
			Topic:          mailTopic,
			PayloadFactory: func() interface{} { return &payloads.QuoteEvent{} },
		},
		{
			EventType:      enums.EventQuoteDecided,
			AggregateType:  enums.AggregateQuote,
			Topic:          mailTopic,
			PayloadFactory: func() interface{} { return &payloads.QuoteEvent{} },
		},
	} {
		reg.register(desc)
	}
	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventAppointmentScheduled,
			AggregateType:  enums.AggregateAppointment,
			Topic:          mailTopic,
			PayloadFactory: func() interface{} { return &payloads.AppointmentEvent{} },
		},
		{
			EventType:      enums.EventAppointmentReminder,
			AggregateType:  enums.AggregateAppointment,
			Topic:          mailTopic,
			PayloadFactory: func() interface{} { return &payloads.AppointmentEvent{} },
		},
		{
			EventType:      enums.EventAppointmentRebooked,
			AggregateType:  enums.AggregateAppointment,
			Topic:          mailTopic,
			PayloadFactory: func() interface{} { return &payloads.AppointmentEvent{} },
		},
		{
			EventType:      enums.EventRescheduleRequested,
			AggregateType:  enums.AggregateAppointment,
			Topic:          mailTopic,
			PayloadFactory: func() interface{} { return &payloads.RescheduleRequestedEvent{} },
		},
	} {
		reg.register(desc)
	}
	reg.register(EventDescriptor{
		EventType:      enums.EventProjectStatusChanged,
		AggregateType:  enums.AggregateProject,
		Topic:          mailTopic,
		PayloadFactory: func() interface{} { return &payloads.ProjectStatusChangedEvent{} },
	})

	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}
