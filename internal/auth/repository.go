package auth

import "context"

// UserRepository defines the interface for user data persistence.
type UserRepository interface {
	// Create creates a new user.
	// Returns ErrDuplicateEmail if the email is already taken.
	Create(ctx context.Context, user *User) error

	// FindByEmail finds a user by email.
	// Returns ErrUserNotFound if no such user exists.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByID finds a user by their internal ID.
	// Returns ErrUserNotFound if no such user exists.
	FindByID(ctx context.Context, id string) (*User, error)
}
