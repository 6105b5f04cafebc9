package memstore

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/chatassist/internal/common"
	"github.com/dmitrijs2005/chatassist/internal/server/models"
	"github.com/google/uuid"
)

type Messages struct {
	s    *Store
	held bool
}

func cloneMessage(m *models.Message) *models.Message {
	out := *m
	out.EditHistory = slices.Clone(m.EditHistory)
	return &out
}

func (r *Messages) Create(_ context.Context, msg *models.Message) (*models.Message, error) {
	var out *models.Message
	err := r.s.write(r.held, func() error {
		m := cloneMessage(msg)
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		m.CreatedAt = r.s.timestamp()
		m.IsDeleted = false

		r.s.messages[m.ID] = m
		out = cloneMessage(m)
		return nil
	})
	return out, err
}

func (r *Messages) FindByID(_ context.Context, id string) (*models.Message, error) {
	var out *models.Message
	r.s.read(r.held, func() {
		if m, ok := r.s.messages[id]; ok && !m.IsDeleted {
			out = cloneMessage(m)
		}
	})
	if out == nil {
		return nil, common.ErrorNotFound
	}
	return out, nil
}

func (r *Messages) FindByChatID(_ context.Context, chatID string) ([]*models.Message, error) {
	out := make([]*models.Message, 0)
	r.s.read(r.held, func() {
		for _, m := range r.s.messages {
			if m.ChatID == chatID && !m.IsDeleted {
				out = append(out, cloneMessage(m))
			}
		}
	})
	slices.SortStableFunc(out, func(a, b *models.Message) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (r *Messages) Update(_ context.Context, id string, patch models.MessagePatch) (*models.Message, error) {
	var out *models.Message
	err := r.s.write(r.held, func() error {
		m, ok := r.s.messages[id]
		if !ok || m.IsDeleted {
			return common.ErrorNotFound
		}
		m = cloneMessage(m)
		if patch.Content != nil {
			m.ApplyContent(*patch.Content)
		}

		r.s.messages[id] = m
		out = cloneMessage(m)
		return nil
	})
	return out, err
}

func (r *Messages) Delete(_ context.Context, id string) error {
	return r.s.write(r.held, func() error {
		m, ok := r.s.messages[id]
		if !ok || m.IsDeleted {
			return common.ErrorNotFound
		}
		m = cloneMessage(m)
		m.IsDeleted = true
		r.s.messages[id] = m
		return nil
	})
}
