package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/istmo-energy/portal-backend/internal/users"
	"github.com/istmo-energy/portal-backend/pkg/config"
	"github.com/istmo-energy/portal-backend/pkg/db"
	"github.com/istmo-energy/portal-backend/pkg/db/models"
	"github.com/istmo-energy/portal-backend/pkg/enums"
	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
	"github.com/istmo-energy/portal-backend/pkg/security"
)

const tempPasswordLength = 12

// ProvisionService creates and deactivates staff accounts.
type ProvisionService interface {
	Provision(ctx context.Context, req ProvisionRequest) (*ProvisionResponse, error)
	SetActive(ctx context.Context, userID uuid.UUID, active bool) error
	List(ctx context.Context) ([]users.Profile, error)
}

// ProvisionServiceParams packages the dependencies for account provisioning.
type ProvisionServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
}

type provisionService struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
}

// NewProvisionService builds a provisioning service with the provided dependencies.
func NewProvisionService(params ProvisionServiceParams) (ProvisionService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &provisionService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *provisionService) Provision(ctx context.Context, req ProvisionRequest) (*ProvisionResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	role, err := enums.ParseUserRole(req.Role)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid user role")
	}

	tempPassword, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
	}
	passwordHash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.User
	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user := &models.User{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			Phone:        req.Phone,
			Role:         role,
			IsActive:     true,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		created = user
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return &ProvisionResponse{
		User:         users.FromModel(created),
		TempPassword: tempPassword,
	}, nil
}

func (s *provisionService) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	found, err := users.NewRepository(s.db.DB()).SetActive(ctx, userID, active)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user status")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return nil
}

func (s *provisionService) List(ctx context.Context) ([]users.Profile, error) {
	rows, err := users.NewRepository(s.db.DB()).List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	profiles := make([]users.Profile, 0, len(rows))
	for i := range rows {
		profiles = append(profiles, users.FromModel(&rows[i]))
	}
	return profiles, nil
}
