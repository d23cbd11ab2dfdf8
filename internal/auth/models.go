// Package auth provides authentication services for VoltGrid.
package auth

import (
	"errors"
	"time"
)

// Predefined service errors.
var (
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateEmail is returned when registering an email that already
	// has an account.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials is returned on login failure. Unknown email and
	// wrong password are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User represents an account in the system. Admin grants access to station
// and charger management endpoints.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Admin        bool
	CreatedAt    time.Time
}
