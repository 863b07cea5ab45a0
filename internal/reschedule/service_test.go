package reschedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/istmo-energy/portal-backend/internal/scheduling"
	"github.com/istmo-energy/portal-backend/pkg/config"
	"github.com/istmo-energy/portal-backend/pkg/db/models"
	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
)

type fakeTokenRepo struct {
	tokens map[string]*models.RescheduleToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: map[string]*models.RescheduleToken{}}
}

func (f *fakeTokenRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeTokenRepo) Create(ctx context.Context, token *models.RescheduleToken) error {
	token.ID = uuid.New()
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeTokenRepo) GetByToken(ctx context.Context, token string) (*models.RescheduleToken, error) {
	if row, ok := f.tokens[token]; ok {
		clone := *row
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTokenRepo) MarkUsed(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	for _, row := range f.tokens {
		if row.ID == id {
			if row.UsedAt != nil {
				return false, nil
			}
			row.UsedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	var count int64
	for key, row := range f.tokens {
		if row.ExpiresAt.Before(before) {
			delete(f.tokens, key)
			count++
		}
	}
	return count, nil
}

type fakeApptRepo struct {
	appointments map[uuid.UUID]*models.Appointment
	updates      int
}

func newFakeApptRepo() *fakeApptRepo {
	return &fakeApptRepo{appointments: map[uuid.UUID]*models.Appointment{}}
}

func (f *fakeApptRepo) WithTx(tx *gorm.DB) scheduling.Repository { return f }

func (f *fakeApptRepo) ListAppointmentsBetween(ctx context.Context, start, end time.Time) ([]models.Appointment, error) {
	var rows []models.Appointment
	for _, appt := range f.appointments {
		if !appt.ScheduledAt.Before(start) && !appt.ScheduledAt.After(end) {
			rows = append(rows, *appt)
		}
	}
	return rows, nil
}

func (f *fakeApptRepo) CreateAppointment(ctx context.Context, appointment *models.Appointment) error {
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	clone := *appointment
	f.appointments[appointment.ID] = &clone
	return nil
}

func (f *fakeApptRepo) GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	if appt, ok := f.appointments[id]; ok {
		clone := *appt
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeApptRepo) UpdateAppointmentBooking(ctx context.Context, id uuid.UUID, technicianID uuid.UUID, scheduledAt time.Time) error {
	appt, ok := f.appointments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	appt.TechnicianID = technicianID
	appt.ScheduledAt = scheduledAt
	f.updates++
	return nil
}

type fakeDirectory struct {
	technicians []models.Technician
}

func (f *fakeDirectory) ListActive(ctx context.Context) ([]models.Technician, error) {
	return f.technicians, nil
}

type fakeRecorder struct {
	bookings []scheduling.ProjectBooking
}

func (f *fakeRecorder) RecordBooking(ctx context.Context, tx *gorm.DB, booking scheduling.ProjectBooking) error {
	f.bookings = append(f.bookings, booking)
	return nil
}

func (f *fakeRecorder) MarkUrgentReschedule(ctx context.Context, projectID uuid.UUID) error {
	return nil
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fixture struct {
	svc      Service
	tokens   *fakeTokenRepo
	appts    *fakeApptRepo
	recorder *fakeRecorder
}

func newFixture(t *testing.T, techs []models.Technician) *fixture {
	t.Helper()
	tokens := newFakeTokenRepo()
	appts := newFakeApptRepo()
	recorder := &fakeRecorder{}
	svc, err := NewService(tokens, appts, &fakeDirectory{technicians: techs}, recorder, fakeTx{}, nil, config.RescheduleConfig{TokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{svc: svc, tokens: tokens, appts: appts, recorder: recorder}
}

func activeTechs(n int) []models.Technician {
	techs := make([]models.Technician, 0, n)
	for i := 0; i < n; i++ {
		techs = append(techs, models.Technician{ID: uuid.New(), Name: "tech", IsActive: true})
	}
	return techs
}

func seedToken(t *testing.T, fx *fixture, expiresAt time.Time) *models.RescheduleToken {
	t.Helper()
	appt := &models.Appointment{ID: uuid.New(), ProjectID: uuid.New(), TechnicianID: uuid.New(), ScheduledAt: time.Now()}
	if err := fx.appts.CreateAppointment(context.Background(), appt); err != nil {
		t.Fatalf("seed appointment: %v", err)
	}
	token := &models.RescheduleToken{
		Token:         "tok-" + uuid.NewString(),
		ProjectID:     appt.ProjectID,
		AppointmentID: appt.ID,
		ExpiresAt:     expiresAt,
	}
	if err := fx.tokens.Create(context.Background(), token); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	return token
}

func TestVerifyUnknownTokenIsInvalid(t *testing.T) {
	fx := newFixture(t, activeTechs(1))

	_, err := fx.svc.Verify(context.Background(), "missing")
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	fx := newFixture(t, activeTechs(1))
	token := seedToken(t, fx, time.Now().UTC().Add(-time.Minute))

	_, err := fx.svc.Verify(context.Background(), token.Token)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestVerifyReturnsBookingContext(t *testing.T) {
	fx := newFixture(t, activeTechs(1))
	token := seedToken(t, fx, time.Now().UTC().Add(time.Hour))

	result, err := fx.svc.Verify(context.Background(), token.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.ProjectID != token.ProjectID || result.AppointmentID != token.AppointmentID {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestConfirmExpiredTokenMutatesNothing(t *testing.T) {
	fx := newFixture(t, activeTechs(2))
	token := seedToken(t, fx, time.Now().UTC().Add(-time.Minute))

	_, err := fx.svc.Confirm(context.Background(), ConfirmInput{
		Token:       token.Token,
		NewDateTime: "2025-06-12T10:00",
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if fx.appts.updates != 0 {
		t.Fatal("appointment must not be mutated on expired token")
	}
	if len(fx.recorder.bookings) != 0 {
		t.Fatal("project must not be mutated on expired token")
	}
}

func TestConfirmRebooksInPlaceWithFirstAvailable(t *testing.T) {
	techs := activeTechs(3)
	fx := newFixture(t, techs)
	token := seedToken(t, fx, time.Now().UTC().Add(time.Hour))

	result, err := fx.svc.Confirm(context.Background(), ConfirmInput{
		Token:       token.Token,
		NewDateTime: "2025-06-12T14:00",
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if result.TechnicianID != techs[0].ID {
		t.Fatal("expected the first available technician")
	}
	if result.AppointmentID != token.AppointmentID {
		t.Fatal("must mutate the existing appointment, not create a new one")
	}
	if fx.appts.updates != 1 {
		t.Fatalf("expected one in-place update, got %d", fx.appts.updates)
	}
	if len(fx.appts.appointments) != 1 {
		t.Fatalf("no new rows may be created, have %d", len(fx.appts.appointments))
	}
	if len(fx.recorder.bookings) != 1 || fx.recorder.bookings[0].ScheduledTime != "14:00" {
		t.Fatalf("project mirror not updated: %+v", fx.recorder.bookings)
	}
}

func TestConfirmHonorsRequestedTechnicianWhenFree(t *testing.T) {
	techs := activeTechs(3)
	fx := newFixture(t, techs)
	token := seedToken(t, fx, time.Now().UTC().Add(time.Hour))

	result, err := fx.svc.Confirm(context.Background(), ConfirmInput{
		Token:        token.Token,
		NewDateTime:  "2025-06-12T15:00",
		TechnicianID: &techs[2].ID,
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if result.TechnicianID != techs[2].ID {
		t.Fatalf("expected requested technician, got %s", result.TechnicianID)
	}
}

func TestConfirmIsSingleUse(t *testing.T) {
	fx := newFixture(t, activeTechs(2))
	token := seedToken(t, fx, time.Now().UTC().Add(time.Hour))

	if _, err := fx.svc.Confirm(context.Background(), ConfirmInput{
		Token:       token.Token,
		NewDateTime: "2025-06-12T16:00",
	}); err != nil {
		t.Fatalf("first confirm: %v", err)
	}

	_, err := fx.svc.Confirm(context.Background(), ConfirmInput{
		Token:       token.Token,
		NewDateTime: "2025-06-13T16:00",
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected single-use rejection, got %v", err)
	}
}

func TestPurgeExpiredRemovesOnlyStaleTokens(t *testing.T) {
	fx := newFixture(t, activeTechs(1))
	seedToken(t, fx, time.Now().UTC().Add(-time.Hour))
	fresh := seedToken(t, fx, time.Now().UTC().Add(time.Hour))

	count, err := fx.svc.PurgeExpired(context.Background())
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one purged token, got %d", count)
	}
	if _, ok := fx.tokens.tokens[fresh.Token]; !ok {
		t.Fatal("fresh token must survive the purge")
	}
}
