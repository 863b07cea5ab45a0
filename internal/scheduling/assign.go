package scheduling

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/istmo-energy/portal-backend/pkg/db"
	"github.com/istmo-energy/portal-backend/pkg/db/models"
	"github.com/istmo-energy/portal-backend/pkg/enums"
	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
	"github.com/istmo-energy/portal-backend/pkg/outbox"
)

// uxTechnicianSlot backs the application-level busy check at the storage
// layer; a concurrent insert for the same technician and timestamp loses the
// race here instead of double-booking.
const uxTechnicianSlot = "ux_appointments_technician_slot"

// AssignOutcome discriminates the business result of an assignment attempt.
type AssignOutcome string

const (
	OutcomeAssigned            AssignOutcome = "assigned"
	OutcomeNoActiveTechnicians AssignOutcome = "no_active_technicians"
	OutcomeAllBusy             AssignOutcome = "all_busy"
)

// reasonNoSlots is the wire-level reason for both non-assigned outcomes.
const reasonNoSlots = "No slots available"

// AssignInput is the booking request for a project.
type AssignInput struct {
	ProjectID     uuid.UUID
	Date          string
	Time          string
	ClientName    *string
	ClientAddress *string
	ClientPhone   *string
}

// AssignResult keeps the no-technicians versus all-busy distinction visible
// to callers even though the HTTP layer collapses both into assigned=false.
type AssignResult struct {
	Outcome       AssignOutcome
	TechnicianID  *uuid.UUID
	AppointmentID *uuid.UUID
}

// Assigned reports whether an appointment was committed.
func (r *AssignResult) Assigned() bool {
	return r != nil && r.Outcome == OutcomeAssigned
}

// Reason returns the client-facing reason string for non-assigned outcomes.
func (r *AssignResult) Reason() string {
	if r.Assigned() {
		return ""
	}
	return reasonNoSlots
}

// Assign books a technician for the requested slot. Candidates are active
// technicians not already holding an appointment at the localized slot time;
// one is chosen by the configured selection strategy. The appointment insert
// and the project update commit atomically.
func (s *service) Assign(ctx context.Context, input AssignInput) (*AssignResult, error) {
	if input.ProjectID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project id required")
	}
	day, err := ParseDate(input.Date, s.loc)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD")
	}
	slot := strings.TrimSpace(input.Time)
	scheduledAt, err := SlotTimestamp(day, slot, s.loc)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "time must be HH:MM")
	}

	active, err := s.technicians.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active technicians")
	}
	if len(active) == 0 {
		return &AssignResult{Outcome: OutcomeNoActiveTechnicians}, nil
	}

	candidates, err := s.freeCandidates(ctx, day, slot, active)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		if err := s.projects.MarkUrgentReschedule(ctx, input.ProjectID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag project for reschedule")
		}
		return &AssignResult{Outcome: OutcomeAllBusy}, nil
	}

	chosen := s.strategy.Pick(candidates)

	appointment := &models.Appointment{
		ProjectID:     input.ProjectID,
		TechnicianID:  chosen.ID,
		ScheduledAt:   scheduledAt,
		Status:        enums.AppointmentStatusScheduled,
		ClientName:    input.ClientName,
		ClientAddress: input.ClientAddress,
		ClientPhone:   input.ClientPhone,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateAppointment(ctx, appointment); err != nil {
			return err
		}
		booking := ProjectBooking{
			ProjectID:     input.ProjectID,
			TechnicianID:  chosen.ID,
			AppointmentID: appointment.ID,
			ScheduledDate: day.Format("2006-01-02"),
			ScheduledTime: slot,
		}
		if err := s.projects.RecordBooking(ctx, tx, booking); err != nil {
			return err
		}
		if s.outbox != nil {
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventAppointmentScheduled,
				AggregateType: enums.AggregateAppointment,
				AggregateID:   appointment.ID,
				Data: appointmentScheduledPayload{
					AppointmentID: appointment.ID,
					ProjectID:     input.ProjectID,
					TechnicianID:  chosen.ID,
					ScheduledAt:   scheduledAt,
				},
				Version: 1,
			})
		}
		return nil
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, uxTechnicianSlot) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "technician already booked for this slot")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "commit assignment")
	}

	return &AssignResult{
		Outcome:       OutcomeAssigned,
		TechnicianID:  &chosen.ID,
		AppointmentID: &appointment.ID,
	}, nil
}

// freeCandidates filters the active set down to technicians without an
// appointment at the localized slot time on the given day.
func (s *service) freeCandidates(ctx context.Context, day time.Time, slot string, active []models.Technician) ([]models.Technician, error) {
	start, end := DayWindow(day, s.loc)
	appointments, err := s.repo.ListAppointmentsBetween(ctx, start, end)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list appointments")
	}

	busy := make(map[uuid.UUID]struct{})
	for _, appt := range appointments {
		if SlotKey(appt.ScheduledAt, s.loc) == slot {
			busy[appt.TechnicianID] = struct{}{}
		}
	}

	candidates := make([]models.Technician, 0, len(active))
	for _, tech := range active {
		if _, taken := busy[tech.ID]; !taken {
			candidates = append(candidates, tech)
		}
	}
	return candidates, nil
}

type appointmentScheduledPayload struct {
	AppointmentID uuid.UUID `json:"appointmentId"`
	ProjectID     uuid.UUID `json:"projectId"`
	TechnicianID  uuid.UUID `json:"technicianId"`
	ScheduledAt   time.Time `json:"scheduledAt"`
}
