package repository

import (
	"context"

	"drawroom/internal/domain"
)

// UserRepository defines storage and retrieval of user accounts.
type UserRepository interface {
	// FindByUsername returns ErrUserNotFound when no such user exists.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// FindByID returns ErrUserNotFound when no such user exists.
	FindByID(ctx context.Context, id uint) (*domain.User, error)

	// FindByIDs loads a batch of users. Missing IDs are silently absent from
	// the result; the caller decides whether that matters.
	FindByIDs(ctx context.Context, ids []uint) ([]domain.User, error)

	// Save creates the user when ID is zero, updates otherwise. Unique
	// constraint violations map to ErrDuplicateEntry.
	Save(ctx context.Context, user *domain.User) error
}
