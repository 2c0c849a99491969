package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/remnant-dksh/origin-engine/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with email exists already has to return apperrors.ErrEmailTaken
	CreateUser(ctx context.Context, email string, name string, hashedPassword string) (models.User, error)

	// Get user by its id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token in repository
	Save(ctx context.Context, token models.RefreshToken) error

	// Return the token if it exists in the database
	// Returns the row even if it is expired: the caller decides what expiry means
	Get(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Delete every row matching the token string and return how many were removed
	// Deleting zero rows is not an error (logout is idempotent)
	DeleteByToken(ctx context.Context, tokenString string) (int64, error)
}

// Storage combines repositories backed by the same connection
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
}
