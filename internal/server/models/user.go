// Package models defines the server-side records persisted by the
// repositories: users, chats and messages.
package models

import "time"

// User is a registered account. Email is stored lowercased and is unique.
// Users are never deleted; IsActive=false hides them from lookups.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"passwordHash"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	IsActive     bool       `json:"isActive"`
}

// PublicUser is the projection of User returned to clients.
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}
