package kvstore

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/chatassist/internal/common"
	"github.com/dmitrijs2005/chatassist/internal/server/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Chats struct {
	s *Store
}

func encodeChat(c *models.Chat) map[string]any {
	return map[string]any{
		"id":        c.ID,
		"userId":    c.UserID,
		"title":     c.Title,
		"createdAt": formatTime(c.CreatedAt),
		"updatedAt": formatTime(c.UpdatedAt),
		"isDeleted": formatBool(c.IsDeleted),
	}
}

func decodeChat(h map[string]string) (*models.Chat, error) {
	c := &models.Chat{ID: h["id"], UserID: h["userId"], Title: h["title"]}

	var err error
	if c.CreatedAt, err = parseTime("createdAt", h["createdAt"]); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime("updatedAt", h["updatedAt"]); err != nil {
		return nil, err
	}
	if c.IsDeleted, err = parseBool("isDeleted", h["isDeleted"]); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Chats) Create(ctx context.Context, chat *models.Chat) (*models.Chat, error) {
	c := *chat
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := r.s.timestamp()
	c.CreatedAt, c.UpdatedAt, c.IsDeleted = now, now, false

	_, err := r.s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, chatKey(c.ID), encodeChat(&c))
		p.SAdd(ctx, userChatsKey(c.UserID), c.ID)
		return nil
	})
	if err != nil {
		return nil, wrap(err)
	}
	return &c, nil
}

func (r *Chats) FindByID(ctx context.Context, id string) (*models.Chat, error) {
	h, err := r.s.loadHash(ctx, chatKey(id))
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, common.ErrorNotFound
	}
	c, err := decodeChat(h)
	if err != nil {
		return nil, err
	}
	if c.IsDeleted {
		return nil, common.ErrorNotFound
	}
	return c, nil
}

func (r *Chats) FindByUserID(ctx context.Context, userID string) ([]*models.Chat, error) {
	ids, err := r.s.rdb.SMembers(ctx, userChatsKey(userID)).Result()
	if err != nil {
		return nil, wrap(err)
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = chatKey(id)
	}
	hashes, err := r.s.loadHashes(ctx, keys)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Chat, 0, len(hashes))
	for _, h := range hashes {
		c, err := decodeChat(h)
		if err != nil {
			return nil, err
		}
		if !c.IsDeleted {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b *models.Chat) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out, nil
}

func (r *Chats) Update(ctx context.Context, id string, patch models.ChatPatch) (*models.Chat, error) {
	c, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	c.UpdatedAt = r.s.timestamp()

	if err := r.s.rdb.HSet(ctx, chatKey(id), "title", c.Title, "updatedAt", formatTime(c.UpdatedAt)).Err(); err != nil {
		return nil, wrap(err)
	}
	return c, nil
}

func (r *Chats) Delete(ctx context.Context, id string) error {
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	err := r.s.rdb.HSet(ctx, chatKey(id), "isDeleted", formatBool(true), "updatedAt", formatTime(r.s.timestamp())).Err()
	if err != nil {
		return wrap(err)
	}
	return nil
}
