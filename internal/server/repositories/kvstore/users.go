package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/chatassist/internal/common"
	"github.com/dmitrijs2005/chatassist/internal/server/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Users struct {
	s *Store
}

func encodeUser(u *models.User) map[string]any {
	h := map[string]any{
		"id":           u.ID,
		"email":        u.Email,
		"name":         u.Name,
		"passwordHash": u.PasswordHash,
		"createdAt":    formatTime(u.CreatedAt),
		"isActive":     formatBool(u.IsActive),
		"lastLoginAt":  "",
	}
	if u.LastLoginAt != nil {
		h["lastLoginAt"] = formatTime(*u.LastLoginAt)
	}
	return h
}

func decodeUser(h map[string]string) (*models.User, error) {
	u := &models.User{
		ID:           h["id"],
		Email:        h["email"],
		Name:         h["name"],
		PasswordHash: h["passwordHash"],
	}

	var err error
	if u.CreatedAt, err = parseTime("createdAt", h["createdAt"]); err != nil {
		return nil, err
	}
	if u.IsActive, err = parseBool("isActive", h["isActive"]); err != nil {
		return nil, err
	}
	if v := h["lastLoginAt"]; v != "" {
		t, err := parseTime("lastLoginAt", v)
		if err != nil {
			return nil, err
		}
		u.LastLoginAt = &t
	}
	return u, nil
}

// Create claims the email index with SETNX before writing the record, so two
// concurrent registrations cannot both succeed.
func (r *Users) Create(ctx context.Context, user *models.User) (*models.User, error) {
	u := *user
	u.Email = common.NormalizeEmail(u.Email)
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.s.timestamp()
	}
	u.IsActive = true

	ok, err := r.s.rdb.SetNX(ctx, userEmailKey(u.Email), u.ID, 0).Result()
	if err != nil {
		return nil, wrap(err)
	}
	if !ok {
		return nil, common.ErrorAlreadyExists
	}

	if err := r.s.rdb.HSet(ctx, userKey(u.ID), encodeUser(&u)).Err(); err != nil {
		_ = r.s.rdb.Del(ctx, userEmailKey(u.Email)).Err()
		return nil, wrap(err)
	}
	return &u, nil
}

func (r *Users) load(ctx context.Context, id string) (*models.User, error) {
	h, err := r.s.loadHash(ctx, userKey(id))
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, common.ErrorNotFound
	}
	return decodeUser(h)
}

func (r *Users) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (r *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	id, err := r.s.rdb.Get(ctx, userEmailKey(common.NormalizeEmail(email))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, wrap(err)
	}
	return r.FindByID(ctx, id)
}

func (r *Users) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	if err := r.s.rdb.HSet(ctx, userKey(id), "lastLoginAt", formatTime(at)).Err(); err != nil {
		return wrap(err)
	}
	return nil
}

func (r *Users) Deactivate(ctx context.Context, id string) error {
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	if err := r.s.rdb.HSet(ctx, userKey(id), "isActive", formatBool(false)).Err(); err != nil {
		return wrap(err)
	}
	return nil
}
