package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/istmo-energy/portal-backend/pkg/db/models"
	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
	"github.com/istmo-energy/portal-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// TechnicianDirectory yields the technicians eligible for dispatch.
type TechnicianDirectory interface {
	ListActive(ctx context.Context) ([]models.Technician, error)
}

// ProjectRecorder applies the project-side effects of booking decisions.
type ProjectRecorder interface {
	RecordBooking(ctx context.Context, tx *gorm.DB, booking ProjectBooking) error
	MarkUrgentReschedule(ctx context.Context, projectID uuid.UUID) error
}

// ProjectBooking mirrors a committed appointment onto the owning project.
type ProjectBooking struct {
	ProjectID     uuid.UUID
	TechnicianID  uuid.UUID
	AppointmentID uuid.UUID
	ScheduledDate string
	ScheduledTime string
}

// Service defines availability and assignment operations.
type Service interface {
	Availability(ctx context.Context, date string) ([]string, error)
	Assign(ctx context.Context, input AssignInput) (*AssignResult, error)
}

type service struct {
	repo        Repository
	technicians TechnicianDirectory
	projects    ProjectRecorder
	tx          txRunner
	strategy    SelectionStrategy
	outbox      outboxPublisher
	loc         *time.Location
}

// NewService wires scheduling dependencies. The selection strategy defaults
// to uniform random when nil.
func NewService(
	repo Repository,
	technicians TechnicianDirectory,
	projects ProjectRecorder,
	tx txRunner,
	strategy SelectionStrategy,
	outboxSvc outboxPublisher,
) (Service, error) {
	if repo == nil {
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
	if strategy == nil {
		strategy = NewRandomStrategy(nil)
	}
	loc, err := Location()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load operating timezone")
	}
	return &service{
		repo:        repo,
		technicians: technicians,
		projects:    projects,
		tx:          tx,
		strategy:    strategy,
		outbox:      outboxSvc,
		loc:         loc,
	}, nil
}

// slotCounts buckets appointments for a day by catalog slot key.
func (s *service) slotCounts(appointments []models.Appointment) map[string]int {
	counts := make(map[string]int, len(SlotCatalog))
	for _, appt := range appointments {
		counts[SlotKey(appt.ScheduledAt, s.loc)]++
	}
	return counts
}
