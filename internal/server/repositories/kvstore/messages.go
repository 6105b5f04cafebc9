package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/chatassist/internal/common"
	"github.com/dmitrijs2005/chatassist/internal/server/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Messages struct {
	s *Store
}

func encodeHistory(h []string) (string, error) {
	if h == nil {
		h = []string{}
	}
	b, err := json.Marshal(h)
	return string(b), err
}

func encodeMessage(m *models.Message) (map[string]any, error) {
	history, err := encodeHistory(m.EditHistory)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":          m.ID,
		"chatId":      m.ChatID,
		"role":        m.Role,
		"content":     m.Content,
		"fileUrl":     m.FileURL,
		"fileName":    m.FileName,
		"fileType":    m.FileType,
		"createdAt":   formatTime(m.CreatedAt),
		"isDeleted":   formatBool(m.IsDeleted),
		"editHistory": history,
	}, nil
}

func decodeMessage(h map[string]string) (*models.Message, error) {
	m := &models.Message{
		ID:       h["id"],
		ChatID:   h["chatId"],
		Role:     h["role"],
		Content:  h["content"],
		FileURL:  h["fileUrl"],
		FileName: h["fileName"],
		FileType: h["fileType"],
	}

	var err error
	if m.CreatedAt, err = parseTime("createdAt", h["createdAt"]); err != nil {
		return nil, err
	}
	if m.IsDeleted, err = parseBool("isDeleted", h["isDeleted"]); err != nil {
		return nil, err
	}
	if v := h["editHistory"]; v != "" {
		if err := json.Unmarshal([]byte(v), &m.EditHistory); err != nil {
			return nil, fmt.Errorf("decode editHistory: %w", err)
		}
	}
	if len(m.EditHistory) == 0 {
		m.EditHistory = nil
	}
	return m, nil
}

func (r *Messages) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	m := *msg
	m.EditHistory = slices.Clone(msg.EditHistory)
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = r.s.timestamp()
	m.IsDeleted = false

	h, err := encodeMessage(&m)
	if err != nil {
		return nil, err
	}

	_, err = r.s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, messageKey(m.ID), h)
		p.SAdd(ctx, chatMessagesKey(m.ChatID), m.ID)
		return nil
	})
	if err != nil {
		return nil, wrap(err)
	}
	return &m, nil
}

func (r *Messages) FindByID(ctx context.Context, id string) (*models.Message, error) {
	h, err := r.s.loadHash(ctx, messageKey(id))
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, common.ErrorNotFound
	}
	m, err := decodeMessage(h)
	if err != nil {
		return nil, err
	}
	if m.IsDeleted {
		return nil, common.ErrorNotFound
	}
	return m, nil
}

func (r *Messages) FindByChatID(ctx context.Context, chatID string) ([]*models.Message, error) {
	ids, err := r.s.rdb.SMembers(ctx, chatMessagesKey(chatID)).Result()
	if err != nil {
		return nil, wrap(err)
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = messageKey(id)
	}
	hashes, err := r.s.loadHashes(ctx, keys)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Message, 0, len(hashes))
	for _, h := range hashes {
		m, err := decodeMessage(h)
		if err != nil {
			return nil, err
		}
		if !m.IsDeleted {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b *models.Message) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (r *Messages) Update(ctx context.Context, id string, patch models.MessagePatch) (*models.Message, error) {
	m, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Content == nil || !m.ApplyContent(*patch.Content) {
		return m, nil
	}

	history, err := encodeHistory(m.EditHistory)
	if err != nil {
		return nil, err
	}
	if err := r.s.rdb.HSet(ctx, messageKey(id), "content", m.Content, "editHistory", history).Err(); err != nil {
		return nil, wrap(err)
	}
	return m, nil
}

func (r *Messages) Delete(ctx context.Context, id string) error {
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	if err := r.s.rdb.HSet(ctx, messageKey(id), "isDeleted", formatBool(true)).Err(); err != nil {
		return wrap(err)
	}
	return nil
}
