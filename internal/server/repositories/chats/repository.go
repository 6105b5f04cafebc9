// Package chats defines the chat repository contract and its SQL
// implementation.
package chats

import (
	"context"

	"github.com/dmitrijs2005/chatassist/internal/server/models"
)

// Repository stores chats. Deleted chats are invisible to every lookup.
type Repository interface {
	Create(ctx context.Context, chat *models.Chat) (*models.Chat, error)
	FindByID(ctx context.Context, id string) (*models.Chat, error)
	// FindByUserID lists a user's chats, most recently updated first.
	FindByUserID(ctx context.Context, userID string) ([]*models.Chat, error)
	// Update applies patch and always bumps UpdatedAt.
	Update(ctx context.Context, id string, patch models.ChatPatch) (*models.Chat, error)
	// Delete marks the chat deleted.
	Delete(ctx context.Context, id string) error
}
