package models

import "time"

// ChatKind distinguishes group-wide chats from direct conversations.
type ChatKind string

const (
	// ChatKindGroup is a chat shared by a whole group.
	ChatKindGroup ChatKind = "group"
	// ChatKindDirect is a one-to-one conversation.
	ChatKindDirect ChatKind = "direct"
)

// Chat represents a conversation with a denormalized last-message preview.
// The preview fields follow last-write-wins semantics, they are updated in
// the same transaction that appends a message.
type Chat struct {
	// ID is the unique identifier for the chat (UUID string).
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// GroupID scopes the chat to a group. Nil for direct chats.
	GroupID *string `gorm:"size:36;index" json:"groupId"`
	// Name is the chat display name.
	Name string `gorm:"size:100" json:"name"`
	// Kind is group or direct.
	Kind ChatKind `gorm:"type:varchar(10);not null" json:"kind"`
	// LastMessage is the text of the most recent message.
	LastMessage string `gorm:"size:1000" json:"lastMessage"`
	// LastMessageAt is the timestamp of the most recent message.
	LastMessageAt *time.Time `json:"lastMessageAt"`
	// CreatedAt is the timestamp when the chat was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the chat was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Chat model.
func (Chat) TableName() string {
	return "chats"
}

// ChatParticipant links a user into a chat.
type ChatParticipant struct {
	// ChatID is the ID of the chat.
	ChatID string `gorm:"primaryKey;size:36" json:"chatId"`
	// UserID is the ID of the participating user.
	UserID string `gorm:"primaryKey;size:36;index" json:"userId"`
	// CreatedAt is the timestamp when the user joined the chat (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the database table name for the ChatParticipant model.
func (ChatParticipant) TableName() string {
	return "chat_participants"
}
