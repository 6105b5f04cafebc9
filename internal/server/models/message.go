package models

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat, optionally with an attached file.
// EditHistory keeps every previous content in edit order.
type Message struct {
	ID          string    `json:"id"`
	ChatID      string    `json:"chatId"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	FileURL     string    `json:"fileUrl,omitempty"`
	FileName    string    `json:"fileName,omitempty"`
	FileType    string    `json:"fileType,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	IsDeleted   bool      `json:"isDeleted"`
	EditHistory []string  `json:"editHistory,omitempty"`
}

// MessagePatch lists the message fields an update may change; nil means keep.
type MessagePatch struct {
	Content *string
}

// ApplyContent sets a new content and records the previous one in
// EditHistory. It reports whether anything changed.
func (m *Message) ApplyContent(content string) bool {
	if content == m.Content {
		return false
	}
	m.EditHistory = append(m.EditHistory, m.Content)
	m.Content = content
	return true
}
