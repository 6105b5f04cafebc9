// Package users defines the user repository contract and its SQL
// implementation.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/chatassist/internal/server/models"
)

// Repository stores user accounts. Lookups never return deactivated users;
// absent users yield common.ErrorNotFound and a taken email yields
// common.ErrorAlreadyExists.
type Repository interface {
	// Create assigns ID and CreatedAt when empty and stores an active user.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	Deactivate(ctx context.Context, id string) error
}
