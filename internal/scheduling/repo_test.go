package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/istmo-energy/portal-backend/pkg/db/models"
)

func setupSchedulingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	appointments := `
CREATE TABLE IF NOT EXISTS appointments (
  id TEXT PRIMARY KEY,
  project_id TEXT NOT NULL,
  technician_id TEXT NOT NULL,
  scheduled_at DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'scheduled',
  client_name TEXT,
  client_address TEXT,
  client_phone TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT ux_appointments_technician_slot UNIQUE (technician_id, scheduled_at)
);`
	require.NoError(t, db.Exec(appointments).Error)
	require.NoError(t, db.Exec("DELETE FROM appointments").Error)
	return db
}

func newAppointment(technicianID uuid.UUID, at time.Time) *models.Appointment {
	return &models.Appointment{
		ID:           uuid.New(),
		ProjectID:    uuid.New(),
		TechnicianID: technicianID,
		ScheduledAt:  at,
		Status:       "scheduled",
	}
}

func TestRepositoryListAppointmentsBetween(t *testing.T) {
	db := setupSchedulingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	loc, err := Location()
	require.NoError(t, err)
	day, err := ParseDate("2025-06-10", loc)
	require.NoError(t, err)
	start, end := DayWindow(day, loc)

	inside, err := SlotTimestamp(day, "10:00", loc)
	require.NoError(t, err)
	outside := inside.Add(48 * time.Hour)

	require.NoError(t, repo.CreateAppointment(ctx, newAppointment(uuid.New(), inside)))
	require.NoError(t, repo.CreateAppointment(ctx, newAppointment(uuid.New(), outside)))

	rows, err := repo.ListAppointmentsBetween(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "10:00", SlotKey(rows[0].ScheduledAt, loc))
}

func TestRepositoryExcludesCancelledAppointments(t *testing.T) {
	db := setupSchedulingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	loc, err := Location()
	require.NoError(t, err)
	day, err := ParseDate("2025-06-11", loc)
	require.NoError(t, err)
	start, end := DayWindow(day, loc)

	at, err := SlotTimestamp(day, "09:00", loc)
	require.NoError(t, err)

	cancelled := newAppointment(uuid.New(), at)
	cancelled.Status = "cancelled"
	require.NoError(t, repo.CreateAppointment(ctx, cancelled))
	require.NoError(t, repo.CreateAppointment(ctx, newAppointment(uuid.New(), at)))

	rows, err := repo.ListAppointmentsBetween(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestRepositoryRejectsDoubleBooking(t *testing.T) {
	db := setupSchedulingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	loc, err := Location()
	require.NoError(t, err)
	day, err := ParseDate("2025-06-12", loc)
	require.NoError(t, err)
	at, err := SlotTimestamp(day, "14:00", loc)
	require.NoError(t, err)

	technicianID := uuid.New()
	require.NoError(t, repo.CreateAppointment(ctx, newAppointment(technicianID, at)))
	require.Error(t, repo.CreateAppointment(ctx, newAppointment(technicianID, at)))
}

func TestRepositoryUpdateAppointmentBooking(t *testing.T) {
	db := setupSchedulingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	loc, err := Location()
	require.NoError(t, err)
	day, err := ParseDate("2025-06-13", loc)
	require.NoError(t, err)
	at, err := SlotTimestamp(day, "08:00", loc)
	require.NoError(t, err)

	appt := newAppointment(uuid.New(), at)
	require.NoError(t, repo.CreateAppointment(ctx, appt))

	newTech := uuid.New()
	newAt, err := SlotTimestamp(day, "16:00", loc)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateAppointmentBooking(ctx, appt.ID, newTech, newAt))

	got, err := repo.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	require.Equal(t, newTech, got.TechnicianID)
	require.Equal(t, "16:00", SlotKey(got.ScheduledAt, loc))
}
