package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateInquiry     OutboxAggregateType = "inquiry"
	AggregateQuote       OutboxAggregateType = "quote"
	AggregateProject     OutboxAggregateType = "project"
	AggregateAppointment OutboxAggregateType = "appointment"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateInquiry,
	AggregateQuote,
	AggregateProject,
	AggregateAppointment,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventInquiryReceived      OutboxEventType = "inquiry_received"
	EventQuoteSent            OutboxEventType = "quote_sent"
	EventQuoteDecided         OutboxEventType = "quote_decided"
	EventAppointmentScheduled OutboxEventType = "appointment_scheduled"
	EventAppointmentReminder  OutboxEventType = "appointment_reminder"
	EventAppointmentRebooked  OutboxEventType = "appointment_rebooked"
	EventRescheduleRequested  OutboxEventType = "reschedule_requested"
	EventProjectStatusChanged OutboxEventType = "project_status_changed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventInquiryReceived,
	EventQuoteSent,
	EventQuoteDecided,
	EventAppointmentScheduled,
	EventAppointmentReminder,
	EventAppointmentRebooked,
	EventRescheduleRequested,
	EventProjectStatusChanged,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
