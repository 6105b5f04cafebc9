package memstore

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/chatassist/internal/common"
	"github.com/dmitrijs2005/chatassist/internal/server/models"
	"github.com/google/uuid"
)

type Chats struct {
	s    *Store
	held bool
}

func cloneChat(c *models.Chat) *models.Chat {
	out := *c
	return &out
}

func (r *Chats) Create(_ context.Context, chat *models.Chat) (*models.Chat, error) {
	var out *models.Chat
	err := r.s.write(r.held, func() error {
		c := cloneChat(chat)
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		now := r.s.timestamp()
		c.CreatedAt, c.UpdatedAt, c.IsDeleted = now, now, false

		r.s.chats[c.ID] = c
		out = cloneChat(c)
		return nil
	})
	return out, err
}

func (r *Chats) FindByID(_ context.Context, id string) (*models.Chat, error) {
	var out *models.Chat
	r.s.read(r.held, func() {
		if c, ok := r.s.chats[id]; ok && !c.IsDeleted {
			out = cloneChat(c)
		}
	})
	if out == nil {
		return nil, common.ErrorNotFound
	}
	return out, nil
}

func (r *Chats) FindByUserID(_ context.Context, userID string) ([]*models.Chat, error) {
	out := make([]*models.Chat, 0)
	r.s.read(r.held, func() {
		for _, c := range r.s.chats {
			if c.UserID == userID && !c.IsDeleted {
				out = append(out, cloneChat(c))
			}
		}
	})
	slices.SortStableFunc(out, func(a, b *models.Chat) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out, nil
}

func (r *Chats) Update(_ context.Context, id string, patch models.ChatPatch) (*models.Chat, error) {
	var out *models.Chat
	err := r.s.write(r.held, func() error {
		c, ok := r.s.chats[id]
		if !ok || c.IsDeleted {
			return common.ErrorNotFound
		}
		c = cloneChat(c)
		if patch.Title != nil {
			c.Title = *patch.Title
		}
		c.UpdatedAt = r.s.timestamp()

		r.s.chats[id] = c
		out = cloneChat(c)
		return nil
	})
	return out, err
}

func (r *Chats) Delete(_ context.Context, id string) error {
	return r.s.write(r.held, func() error {
		c, ok := r.s.chats[id]
		if !ok || c.IsDeleted {
			return common.ErrorNotFound
		}
		c = cloneChat(c)
		c.IsDeleted = true
		c.UpdatedAt = r.s.timestamp()
		r.s.chats[id] = c
		return nil
	})
}
