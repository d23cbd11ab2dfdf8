package models

import (
	"strings"

	"github.com/voltgrid/voltgrid/internal/auth"
)

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate validates the registration request.
func (r *RegisterRequest) Validate() []FieldError {
	var errs []FieldError
	if !strings.Contains(r.Email, "@") {
		errs = append(errs, FieldError{Field: "email", Message: "a valid email address is required", Code: "FORMAT"})
	}
	if len(r.Password) < 12 {
		errs = append(errs, FieldError{Field: "password", Message: "password must be at least 12 characters", Code: "LENGTH"})
	}
	return errs
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate validates the login request.
func (r *LoginRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required", Code: "REQUIRED"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required", Code: "REQUIRED"})
	}
	return errs
}

// AuthResponse carries a signed access token and its expiry.
type AuthResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   Timestamp `json:"expiresAt"`
}

// User is the wire shape of an account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Admin     bool      `json:"admin"`
	CreatedAt Timestamp `json:"createdAt"`
}

// UserFromDomain converts a domain user to its wire shape.
func UserFromDomain(u *auth.User) User {
	return User{
		ID:        u.ID,
		Email:     u.Email,
		Admin:     u.Admin,
		CreatedAt: Timestamp(u.CreatedAt),
	}
}
