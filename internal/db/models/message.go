package models

import "time"

// Message is one entry in the append-only message list of a chat.
// Messages carry no edit history, editing overwrites the text in place.
type Message struct {
	// ID is the unique identifier for the message (UUID string).
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// ChatID is the conversation this message belongs to.
	ChatID string `gorm:"size:36;index;not null" json:"chatId"`
	// SenderID is the user who sent the message.
	SenderID string `gorm:"size:36;not null" json:"senderId"`
	// Text is the message body.
	Text string `gorm:"size:4000" json:"text"`
	// Timestamp orders messages inside a chat.
	Timestamp time.Time `gorm:"index" json:"timestamp"`
	// ReplyTo optionally references the message this one replies to.
	ReplyTo *string `gorm:"size:36" json:"replyTo"`
}

// TableName specifies the database table name for the Message model.
func (Message) TableName() string {
	return "messages"
}
