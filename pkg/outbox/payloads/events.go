// Package payloads holds the canonical wire schemas carried inside outbox
// envelopes. Emitters and consumers both marshal against these shapes.
package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/istmo-energy/portal-backend/pkg/enums"
)

// InquiryReceivedEvent announces a new public intake submission.
type InquiryReceivedEvent struct {
	InquiryID   uuid.UUID         `json:"inquiryId"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	ServiceType enums.ServiceType `json:"serviceType"`
}

// QuoteEvent covers both quote_sent and quote_decided; Accepted is set only
// on decisions.
type QuoteEvent struct {
	QuoteID     uuid.UUID       `json:"quoteId"`
	ProjectID   uuid.UUID       `json:"projectId"`
	QuoteNumber int64           `json:"quoteNumber"`
	Total       decimal.Decimal `json:"total"`
	Accepted    *bool           `json:"accepted,omitempty"`
}

// AppointmentEvent covers scheduled, reminder and rebooked notifications.
type AppointmentEvent struct {
	AppointmentID uuid.UUID `json:"appointmentId"`
	ProjectID     uuid.UUID `json:"projectId"`
	TechnicianID  uuid.UUID `json:"technicianId"`
	ScheduledAt   time.Time `json:"scheduledAt"`
}

// ProjectStatusChangedEvent records a lifecycle transition.
type ProjectStatusChangedEvent struct {
	ProjectID uuid.UUID           `json:"projectId"`
	From      enums.ProjectStatus `json:"from"`
	To        enums.ProjectStatus `json:"to"`
}

// RescheduleRequestedEvent carries the client-facing reschedule link.
type RescheduleRequestedEvent struct {
	ProjectID     uuid.UUID `json:"projectId"`
	AppointmentID uuid.UUID `json:"appointmentId"`
	RescheduleURL string    `json:"rescheduleUrl"`
	ExpiresAt     time.Time `json:"expiresAt"`
}
