package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/istmo-energy/portal-backend/internal/scheduling"
	"github.com/istmo-energy/portal-backend/pkg/db/models"
	"github.com/istmo-energy/portal-backend/pkg/enums"
	"github.com/istmo-energy/portal-backend/pkg/logger"
	"github.com/istmo-energy/portal-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type appointmentLister interface {
	ListAppointmentsBetween(ctx context.Context, start, end time.Time) ([]models.Appointment, error)
}

type reminderEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// AppointmentReminderJobParams configure the day-before reminder job.
type AppointmentReminderJobParams struct {
	Logger       *logger.Logger
	DB           txRunner
	Appointments appointmentLister
	Outbox       reminderEmitter
}

// NewAppointmentReminderJob queues a reminder event for every appointment
// scheduled on the next operating day.
func NewAppointmentReminderJob(params AppointmentReminderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Appointments == nil {
		return nil, fmt.Errorf("appointments repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &appointmentReminderJob{
		logg:         params.Logger,
		db:           params.DB,
		appointments: params.Appointments,
		outbox:       params.Outbox,
		now:          time.Now,
	}, nil
}

type appointmentReminderJob struct {
	logg         *logger.Logger
	db           txRunner
	appointments appointmentLister
	outbox       reminderEmitter
	now          func() time.Time
}

type reminderPayload struct {
	AppointmentID uuid.UUID `json:"appointmentId"`
	ProjectID     uuid.UUID `json:"projectId"`
	TechnicianID  uuid.UUID `json:"technicianId"`
	ScheduledAt   time.Time `json:"scheduledAt"`
}

func (j *appointmentReminderJob) Name() string { return "appointment-reminder" }

func (j *appointmentReminderJob) Run(ctx context.Context) error {
	loc, err := scheduling.Location()
	if err != nil {
		return fmt.Errorf("appointment reminder: %w", err)
	}

	tomorrow := j.now().In(loc).AddDate(0, 0, 1)
	start, end := scheduling.DayWindow(tomorrow, loc)

	rows, err := j.appointments.ListAppointmentsBetween(ctx, start, end)
	if err != nil {
		return fmt.Errorf("appointment reminder: list appointments: %w", err)
	}
	if len(rows) == 0 {
		j.logg.Info(ctx, "no appointments to remind")
		return nil
	}

	var errs error
	queued := 0
	for _, appointment := range rows {
		if appointment.Status != enums.AppointmentStatusScheduled {
			continue
		}
		emitErr := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			return j.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventAppointmentReminder,
				AggregateType: enums.AggregateAppointment,
				AggregateID:   appointment.ID,
				Data: reminderPayload{
					AppointmentID: appointment.ID,
					ProjectID:     appointment.ProjectID,
					TechnicianID:  appointment.TechnicianID,
					ScheduledAt:   appointment.ScheduledAt,
				},
				Version: 1,
			})
		})
		if emitErr != nil {
			errs = multierr.Append(errs, fmt.Errorf("appointment %s: %w", appointment.ID, emitErr))
			continue
		}
		queued++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"window_start": start,
		"window_end":   end,
		"queued":       queued,
		"failed":       len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "appointment reminders queued")
	if errs != nil {
		return fmt.Errorf("appointment reminder: %w", errs)
	}
	return nil
}
