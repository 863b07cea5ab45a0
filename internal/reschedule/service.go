package reschedule

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/istmo-energy/portal-backend/internal/scheduling"
	"github.com/istmo-energy/portal-backend/pkg/config"
	dbpkg "github.com/istmo-energy/portal-backend/pkg/db"
	"github.com/istmo-energy/portal-backend/pkg/db/models"
	"github.com/istmo-energy/portal-backend/pkg/enums"
	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
	"github.com/istmo-energy/portal-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines the login-free reschedule flow.
type Service interface {
	Issue(ctx context.Context, projectID, appointmentID uuid.UUID) (*models.RescheduleToken, error)
	Verify(ctx context.Context, token string) (*VerifyResult, error)
	Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

type service struct {
	repo         Repository
	appointments scheduling.Repository
	technicians  scheduling.TechnicianDirectory
	projects     scheduling.ProjectRecorder
	tx           txRunner
	outbox       outboxPublisher
	cfg          config.RescheduleConfig
	loc          *time.Location
}

// VerifyResult describes a token that passed validation.
type VerifyResult struct {
	ProjectID     uuid.UUID `json:"projectId"`
	AppointmentID uuid.UUID `json:"appointmentId"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// ConfirmInput carries the client's chosen replacement slot.
type ConfirmInput struct {
	Token        string
	NewDateTime  string
	TechnicianID *uuid.UUID
}

// ConfirmResult reports the rebooked appointment.
type ConfirmResult struct {
	AppointmentID uuid.UUID `json:"appointmentId"`
	TechnicianID  uuid.UUID `json:"technicianId"`
	ScheduledAt   time.Time `json:"scheduledAt"`
}

// NewService wires reschedule dependencies.
func NewService(
	repo Repository,
	appointments scheduling.Repository,
	technicians scheduling.TechnicianDirectory,
	projects scheduling.ProjectRecorder,
	tx txRunner,
	outboxSvc outboxPublisher,
	cfg config.RescheduleConfig,
) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "reschedule repository required")
	}
	if appointments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "scheduling repository required")
	}
	if technicians == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "technician directory required")
	}
	if projects == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "project recorder required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	loc, err := scheduling.Location()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load operating timezone")
	}
	return &service{
		repo:         repo,
		appointments: appointments,
		technicians:  technicians,
		projects:     projects,
		tx:           tx,
		outbox:       outboxSvc,
		cfg:          cfg,
		loc:          loc,
	}, nil
}

// Issue mints an opaque token granting a date-scoped reschedule for the
// given appointment.
func (s *service) Issue(ctx context.Context, projectID, appointmentID uuid.UUID) (*models.RescheduleToken, error) {
	if projectID == uuid.Nil || appointmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project id and appointment id required")
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate token")
	}

	ttl := s.cfg.TokenTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	token := &models.RescheduleToken{
		Token:         hex.EncodeToString(raw),
		ProjectID:     projectID,
		AppointmentID: appointmentID,
		ExpiresAt:     time.Now().UTC().Add(ttl),
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, token); err != nil {
			return err
		}
		if s.outbox != nil {
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventRescheduleRequested,
				AggregateType: enums.AggregateAppointment,
				AggregateID:   appointmentID,
				Data: rescheduleRequestedPayload{
					ProjectID:     projectID,
					AppointmentID: appointmentID,
					RescheduleURL: s.publicURL(token.Token),
					ExpiresAt:     token.ExpiresAt,
				},
				Version: 1,
			})
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issue reschedule token")
	}
	return token, nil
}

// Verify checks token existence and expiry. An absent token is invalid; a
// token past expiry or already consumed is terminal.
func (s *service) Verify(ctx context.Context, token string) (*VerifyResult, error) {
	row, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{
		ProjectID:     row.ProjectID,
		AppointmentID: row.AppointmentID,
		ExpiresAt:     row.ExpiresAt,
	}, nil
}

// Confirm rebooks the existing appointment in place. Candidate lookup for
// the new slot picks the first available technician, in contrast to the
// random pick used for fresh assignments. The appointment mutation, the
// project mirror update, and the used_at stamp commit atomically.
func (s *service) Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error) {
	row, err := s.lookup(ctx, input.Token)
	if err != nil {
		return nil, err
	}

	day, slot, scheduledAt, err := s.parseNewDateTime(input.NewDateTime)
	if err != nil {
		return nil, err
	}

	active, err := s.technicians.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active technicians")
	}
	if len(active) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "No slots available")
	}

	candidates, err := s.freeCandidates(ctx, day, slot, active, row.AppointmentID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "No slots available")
	}

	chosen := pickCandidate(candidates, input.TechnicianID)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		used, err := s.repo.WithTx(tx).MarkUsed(ctx, row.ID, time.Now().UTC())
		if err != nil {
			return err
		}
		if !used {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "token already used")
		}
		appts := s.appointments.WithTx(tx)
		if err := appts.UpdateAppointmentBooking(ctx, row.AppointmentID, chosen.ID, scheduledAt); err != nil {
			return err
		}
		booking := scheduling.ProjectBooking{
			ProjectID:     row.ProjectID,
			TechnicianID:  chosen.ID,
			AppointmentID: row.AppointmentID,
			ScheduledDate: day.Format("2006-01-02"),
			ScheduledTime: slot,
		}
		if err := s.projects.RecordBooking(ctx, tx, booking); err != nil {
			return err
		}
		if s.outbox != nil {
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventAppointmentRebooked,
				AggregateType: enums.AggregateAppointment,
				AggregateID:   row.AppointmentID,
				Data: appointmentRebookedPayload{
					AppointmentID: row.AppointmentID,
					ProjectID:     row.ProjectID,
					TechnicianID:  chosen.ID,
					ScheduledAt:   scheduledAt,
				},
				Version: 1,
			})
		}
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		if dbpkg.IsUniqueViolation(err, "ux_appointments_technician_slot") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "technician already booked for this slot")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm reschedule")
	}

	return &ConfirmResult{
		AppointmentID: row.AppointmentID,
		TechnicianID:  chosen.ID,
		ScheduledAt:   scheduledAt,
	}, nil
}

// PurgeExpired removes tokens whose expiry has passed. Run by cron.
func (s *service) PurgeExpired(ctx context.Context) (int64, error) {
	count, err := s.repo.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge reschedule tokens")
	}
	return count, nil
}

func (s *service) lookup(ctx context.Context, token string) (*models.RescheduleToken, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "token required")
	}
	row, err := s.repo.GetByToken(ctx, trimmed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invalid token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reschedule token")
	}
	if time.Now().UTC().After(row.ExpiresAt) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "token expired")
	}
	if row.UsedAt != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "token already used")
	}
	return row, nil
}

// parseNewDateTime accepts "YYYY-MM-DDTHH:MM" (or a space separator) in the
// operating timezone.
func (s *service) parseNewDateTime(value string) (time.Time, string, time.Time, error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(value), " ", "T")
	parsed, err := time.ParseInLocation("2006-01-02T15:04", trimmed, s.loc)
	if err != nil {
		return time.Time{}, "", time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "newDateTime must be YYYY-MM-DDTHH:MM")
	}
	slot := parsed.Format("15:04")
	day := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, s.loc)
	return day, slot, parsed, nil
}

// freeCandidates filters active technicians to those without a conflicting
// appointment at the requested slot, ignoring the appointment being moved.
func (s *service) freeCandidates(ctx context.Context, day time.Time, slot string, active []models.Technician, ignoreAppointment uuid.UUID) ([]models.Technician, error) {
	start, end := scheduling.DayWindow(day, s.loc)
	appointments, err := s.appointments.ListAppointmentsBetween(ctx, start, end)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list appointments")
	}

	busy := make(map[uuid.UUID]struct{})
	for _, appt := range appointments {
		if appt.ID == ignoreAppointment {
			continue
		}
		if scheduling.SlotKey(appt.ScheduledAt, s.loc) == slot {
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

// pickCandidate honors an explicitly requested technician when free,
// otherwise falls back to the first available candidate.
func pickCandidate(candidates []models.Technician, requested *uuid.UUID) models.Technician {
	if requested != nil {
		for _, tech := range candidates {
			if tech.ID == *requested {
				return tech
			}
		}
	}
	return scheduling.FirstAvailableStrategy{}.Pick(candidates)
}

func (s *service) publicURL(token string) string {
	base := strings.TrimRight(s.cfg.PublicBaseURL, "/")
	return fmt.Sprintf("%s/reschedule/%s", base, token)
}

type rescheduleRequestedPayload struct {
	ProjectID     uuid.UUID `json:"projectId"`
	AppointmentID uuid.UUID `json:"appointmentId"`
	RescheduleURL string    `json:"rescheduleUrl"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

type appointmentRebookedPayload struct {
	AppointmentID uuid.UUID `json:"appointmentId"`
	ProjectID     uuid.UUID `json:"projectId"`
	TechnicianID  uuid.UUID `json:"technicianId"`
	ScheduledAt   time.Time `json:"scheduledAt"`
}
