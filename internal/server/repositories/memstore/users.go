package memstore

import (
	"context"
	"time"

	"github.com/dmitrijs2005/chatassist/internal/common"
	"github.com/dmitrijs2005/chatassist/internal/server/models"
	"github.com/google/uuid"
)

type Users struct {
	s    *Store
	held bool
}

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

func (r *Users) Create(_ context.Context, user *models.User) (*models.User, error) {
	var out *models.User
	err := r.s.write(r.held, func() error {
		email := common.NormalizeEmail(user.Email)
		for _, u := range r.s.users {
			if u.Email == email {
				return common.ErrorAlreadyExists
			}
		}

		u := cloneUser(user)
		u.Email = email
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = r.s.timestamp()
		}
		u.IsActive = true

		r.s.users[u.ID] = u
		out = cloneUser(u)
		return nil
	})
	return out, err
}

func (r *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	email = common.NormalizeEmail(email)

	var out *models.User
	r.s.read(r.held, func() {
		for _, u := range r.s.users {
			if u.Email == email && u.IsActive {
				out = cloneUser(u)
				return
			}
		}
	})
	if out == nil {
		return nil, common.ErrorNotFound
	}
	return out, nil
}

func (r *Users) FindByID(_ context.Context, id string) (*models.User, error) {
	var out *models.User
	r.s.read(r.held, func() {
		if u, ok := r.s.users[id]; ok && u.IsActive {
			out = cloneUser(u)
		}
	})
	if out == nil {
		return nil, common.ErrorNotFound
	}
	return out, nil
}

func (r *Users) update(id string, fn func(u *models.User)) error {
	return r.s.write(r.held, func() error {
		u, ok := r.s.users[id]
		if !ok || !u.IsActive {
			return common.ErrorNotFound
		}
		c := cloneUser(u)
		fn(c)
		r.s.users[id] = c
		return nil
	})
}

func (r *Users) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	return r.update(id, func(u *models.User) {
		t := at.UTC()
		u.LastLoginAt = &t
	})
}

func (r *Users) Deactivate(_ context.Context, id string) error {
	return r.update(id, func(u *models.User) { u.IsActive = false })
}
