package auth

import (
	"github.com/istmo-energy/portal-backend/internal/users"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the token pair and the user produced by a successful login.
type LoginResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         users.Profile `json:"user"`
}

// ProvisionRequest contains the payload an admin submits to create a staff account.
type ProvisionRequest struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     *string `json:"phone,omitempty"`
	Role      string  `json:"role" validate:"required"`
}

// ProvisionResponse returns the new account plus its one-time password.
type ProvisionResponse struct {
	User         users.Profile `json:"user"`
	TempPassword string        `json:"temp_password"`
}
