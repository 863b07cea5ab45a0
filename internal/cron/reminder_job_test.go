package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/istmo-energy/portal-backend/internal/scheduling"
	"github.com/istmo-energy/portal-backend/pkg/db/models"
	"github.com/istmo-energy/portal-backend/pkg/enums"
	"github.com/istmo-energy/portal-backend/pkg/logger"
	"github.com/istmo-energy/portal-backend/pkg/outbox"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeAppointmentLister struct {
	rows      []models.Appointment
	lastStart time.Time
	lastEnd   time.Time
	err       error
}

func (f *fakeAppointmentLister) ListAppointmentsBetween(ctx context.Context, start, end time.Time) ([]models.Appointment, error) {
	f.lastStart = start
	f.lastEnd = end
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

type fakeReminderEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (f *fakeReminderEmitter) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func newReminderJob(t *testing.T, lister *fakeAppointmentLister, emitter *fakeReminderEmitter) *appointmentReminderJob {
	t.Helper()
	jobIface, err := NewAppointmentReminderJob(AppointmentReminderJobParams{
		Logger:       logger.New(logger.Options{ServiceName: "test"}),
		DB:           stubTxRunner{},
		Appointments: lister,
		Outbox:       emitter,
	})
	if err != nil {
		t.Fatalf("NewAppointmentReminderJob: %v", err)
	}
	job, ok := jobIface.(*appointmentReminderJob)
	if !ok {
		t.Fatalf("expected appointmentReminderJob, got %T", jobIface)
	}
	return job
}

func TestReminderJobQueuesEventsForTomorrow(t *testing.T) {
	scheduled := models.Appointment{
		ID:           uuid.New(),
		ProjectID:    uuid.New(),
		TechnicianID: uuid.New(),
		ScheduledAt:  time.Date(2025, 6, 11, 15, 0, 0, 0, time.UTC),
		Status:       enums.AppointmentStatusScheduled,
	}
	cancelled := models.Appointment{
		ID:     uuid.New(),
		Status: enums.AppointmentStatusCancelled,
	}
	lister := &fakeAppointmentLister{rows: []models.Appointment{scheduled, cancelled}}
	emitter := &fakeReminderEmitter{}
	job := newReminderJob(t, lister, emitter)
	job.now = func() time.Time { return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC) }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	loc, err := scheduling.Location()
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	wantStart, wantEnd := scheduling.DayWindow(time.Date(2025, 6, 11, 12, 0, 0, 0, time.UTC).In(loc), loc)
	if !lister.lastStart.Equal(wantStart) || !lister.lastEnd.Equal(wantEnd) {
		t.Fatalf("window [%s, %s], want [%s, %s]", lister.lastStart, lister.lastEnd, wantStart, wantEnd)
	}

	if len(emitter.events) != 1 {
		t.Fatalf("expected one reminder event, got %d", len(emitter.events))
	}
	event := emitter.events[0]
	if event.EventType != enums.EventAppointmentReminder {
		t.Fatalf("unexpected event type %s", event.EventType)
	}
	if event.AggregateID != scheduled.ID {
		t.Fatalf("aggregate %s, want %s", event.AggregateID, scheduled.ID)
	}
}

func TestReminderJobPropagatesListError(t *testing.T) {
	lister := &fakeAppointmentLister{err: errors.New("boom")}
	job := newReminderJob(t, lister, &fakeReminderEmitter{})

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestReminderJobCollectsEmitFailures(t *testing.T) {
	rows := []models.Appointment{
		{ID: uuid.New(), Status: enums.AppointmentStatusScheduled},
		{ID: uuid.New(), Status: enums.AppointmentStatusScheduled},
	}
	lister := &fakeAppointmentLister{rows: rows}
	emitter := &fakeReminderEmitter{err: errors.New("emit failed")}
	job := newReminderJob(t, lister, emitter)
	job.now = func() time.Time { return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC) }

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected aggregated error")
	}
}
