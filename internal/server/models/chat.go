package models

import "time"

// DefaultChatTitle names chats created without a title.
const DefaultChatTitle = "New Chat"

type Chat struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	IsDeleted bool      `json:"isDeleted"`
}

// ChatPatch lists the chat fields an update may change; nil means keep.
type ChatPatch struct {
	Title *string
}
