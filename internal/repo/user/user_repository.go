package user

import (
	"context"

	"github.com/mkrupp/bestiary/internal/domain"
)

// Repository defines the interface for user data persistence.
type Repository interface {
	// CreateUser adds a new user and returns it with its id and creation time.
	// Returns ErrUserAlreadyExists if the username or email is already taken.
	CreateUser(ctx context.Context, username, email string, passwordHash []byte) (*domain.User, error)

	// GetUserByUsername retrieves a user by username.
	// Returns the user and true if found, or nil and false if not found.
	GetUserByUsername(ctx context.Context, username string) (*domain.User, bool, error)

	// GetUserByEmail retrieves a user by email address.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, bool, error)

	// GetUserByID retrieves a user by id.
	GetUserByID(ctx context.Context, id int64) (*domain.User, bool, error)
}
