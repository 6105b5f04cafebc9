// Package messages defines the message repository contract and its SQL
// implementation.
package messages

import (
	"context"

	"github.com/dmitrijs2005/chatassist/internal/server/models"
)

// Repository stores chat messages. Deleted messages are invisible to every
// lookup.
type Repository interface {
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
	FindByID(ctx context.Context, id string) (*models.Message, error)
	// FindByChatID lists a chat's messages, oldest first.
	FindByChatID(ctx context.Context, chatID string) ([]*models.Message, error)
	// Update applies patch; a changed content pushes the old one onto
	// EditHistory.
	Update(ctx context.Context, id string, patch models.MessagePatch) (*models.Message, error)
	// Delete marks the message deleted.
	Delete(ctx context.Context, id string) error
}
