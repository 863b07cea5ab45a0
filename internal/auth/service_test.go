package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/istmo-energy/portal-backend/pkg/auth"
	"github.com/istmo-energy/portal-backend/pkg/config"
	"github.com/istmo-energy/portal-backend/pkg/db/models"
	"github.com/istmo-energy/portal-backend/pkg/enums"
	pkgerrors "github.com/istmo-energy/portal-backend/pkg/errors"
	"github.com/istmo-energy/portal-backend/pkg/security"
)

type fakeUserRepo struct {
	user       *models.User
	lastLogin  *time.Time
	lastUserID uuid.UUID
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.user == nil || f.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *f.user
	return &clone, nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.lastUserID = id
	f.lastLogin = &at
	return nil
}

type fakeSessionManager struct {
	accessIDs []string
}

func (f *fakeSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	f.accessIDs = append(f.accessIDs, accessID)
	return "refresh-" + accessID, nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "istmo-portal",
		ExpirationMinutes: 15,
	}
}

func newTestUser(t *testing.T, password string, active bool) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.User{
		ID:           uuid.New(),
		Email:        "dispatch@istmo.pa",
		PasswordHash: hash,
		FirstName:    "Ana",
		LastName:     "Rivera",
		Role:         enums.UserRoleDispatcher,
		IsActive:     active,
	}
}

func TestLoginIssuesTokenPair(t *testing.T) {
	user := newTestUser(t, "correct horse", true)
	repo := &fakeUserRepo{user: user}
	sessions := &fakeSessionManager{}
	svc, err := NewService(ServiceParams{UserRepo: repo, SessionManager: sessions, JWTConfig: testJWTConfig()})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "  Dispatch@Istmo.pa ", Password: "correct horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("claims user %s, want %s", claims.UserID, user.ID)
	}
	if claims.Role != enums.UserRoleDispatcher {
		t.Fatalf("claims role %s, want dispatcher", claims.Role)
	}
	if len(sessions.accessIDs) != 1 || claims.ID != sessions.accessIDs[0] {
		t.Fatalf("refresh session not keyed by jti: %v vs %s", sessions.accessIDs, claims.ID)
	}
	if resp.RefreshToken != "refresh-"+claims.ID {
		t.Fatalf("unexpected refresh token %s", resp.RefreshToken)
	}
	if repo.lastLogin == nil || repo.lastUserID != user.ID {
		t.Fatal("expected last login to be recorded")
	}
	if resp.User.Email != user.Email {
		t.Fatalf("response user %s", resp.User.Email)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	repo := &fakeUserRepo{user: newTestUser(t, "correct horse", true)}
	svc, _ := NewService(ServiceParams{UserRepo: repo, SessionManager: &fakeSessionManager{}, JWTConfig: testJWTConfig()})

	_, err := svc.Login(context.Background(), LoginRequest{Email: "dispatch@istmo.pa", Password: "wrong"})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if appErr.Message() != invalidCredentialsMessage {
		t.Fatalf("message %q leaks detail", appErr.Message())
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	repo := &fakeUserRepo{user: newTestUser(t, "correct horse", false)}
	svc, _ := NewService(ServiceParams{UserRepo: repo, SessionManager: &fakeSessionManager{}, JWTConfig: testJWTConfig()})

	_, err := svc.Login(context.Background(), LoginRequest{Email: "dispatch@istmo.pa", Password: "correct horse"})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if repo.lastLogin != nil {
		t.Fatal("inactive user must not record a login")
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := NewService(ServiceParams{UserRepo: &fakeUserRepo{}, SessionManager: &fakeSessionManager{}, JWTConfig: testJWTConfig()})

	_, err := svc.Login(context.Background(), LoginRequest{Email: "nobody@istmo.pa", Password: "x"})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if appErr.Message() != invalidCredentialsMessage {
		t.Fatalf("message %q leaks detail", appErr.Message())
	}
}
