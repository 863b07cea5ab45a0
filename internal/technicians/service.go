package technicians

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/istmo-energy/portal-backend/pkg/db/models"
	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
)

// Service defines technician directory operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Technician, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Technician, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Technician, error)
	List(ctx context.Context, includeInactive bool) ([]models.Technician, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type service struct {
	repo Repository
}

// CreateInput captures the fields an admin provides when onboarding a technician.
type CreateInput struct {
	Name        string
	Email       *string
	Phone       *string
	Specialties []string
	WorkStart   string
	WorkEnd     string
	WorkDays    []int32
}

// UpdateInput mirrors CreateInput; nil fields are left untouched.
type UpdateInput struct {
	Name        *string
	Email       *string
	Phone       *string
	Specialties []string
	WorkStart   *string
	WorkEnd     *string
	WorkDays    []int32
}

// NewService wires technician directory dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "technicians repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Technician, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "technician name required")
	}
	workStart := input.WorkStart
	if workStart == "" {
		workStart = "08:00"
	}
	workEnd := input.WorkEnd
	if workEnd == "" {
		workEnd = "17:00"
	}
	if err := validateClock(workStart); err != nil {
		return nil, err
	}
	if err := validateClock(workEnd); err != nil {
		return nil, err
	}
	workDays := input.WorkDays
	if len(workDays) == 0 {
		workDays = []int32{1, 2, 3, 4, 5}
	}
	if err := validateWorkDays(workDays); err != nil {
		return nil, err
	}

	technician := &models.Technician{
		Name:        name,
		Email:       input.Email,
		Phone:       input.Phone,
		IsActive:    true,
		Specialties: pq.StringArray(input.Specialties),
		WorkStart:   workStart,
		WorkEnd:     workEnd,
		WorkDays:    pq.Int32Array(workDays),
	}
	if err := s.repo.Create(ctx, technician); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create technician")
	}
	return technician, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Technician, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "technician id required")
	}
	technician, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "technician not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load technician")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "technician name required")
		}
		technician.Name = name
	}
	if input.Email != nil {
		technician.Email = input.Email
	}
	if input.Phone != nil {
		technician.Phone = input.Phone
	}
	if input.Specialties != nil {
		technician.Specialties = pq.StringArray(input.Specialties)
	}
	if input.WorkStart != nil {
		if err := validateClock(*input.WorkStart); err != nil {
			return nil, err
		}
		technician.WorkStart = *input.WorkStart
	}
	if input.WorkEnd != nil {
		if err := validateClock(*input.WorkEnd); err != nil {
			return nil, err
		}
		technician.WorkEnd = *input.WorkEnd
	}
	if input.WorkDays != nil {
		if err := validateWorkDays(input.WorkDays); err != nil {
			return nil, err
		}
		technician.WorkDays = pq.Int32Array(input.WorkDays)
	}

	if err := s.repo.Update(ctx, technician); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update technician")
	}
	return technician, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Technician, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "technician id required")
	}
	technician, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "technician not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load technician")
	}
	return technician, nil
}

func (s *service) List(ctx context.Context, includeInactive bool) ([]models.Technician, error) {
	rows, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list technicians")
	}
	return rows, nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "technician id required")
	}
	found, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update technician active flag")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "technician not found")
	}
	return nil
}

func validateClock(value string) error {
	if _, err := time.Parse("15:04", value); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "working hours must be HH:MM")
	}
	return nil
}

func validateWorkDays(days []int32) error {
	for _, d := range days {
		if d < 1 || d > 7 {
			return pkgerrors.New(pkgerrors.CodeValidation, "work days must be ISO weekday indices 1-7")
		}
	}
	return nil
}
