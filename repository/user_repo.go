package repository

import (
	"context"

	"upbilling/models"
)

// UserRepository defines the interface for user operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.AppUser) error
	// GetUserByEmail returns nil when no user has that email.
	GetUserByEmail(ctx context.Context, email string) (*models.AppUser, error)
	CountUsers(ctx context.Context) (int64, error)
}
