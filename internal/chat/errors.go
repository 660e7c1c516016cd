package chat

import "errors"

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")

	// ErrChatNotFound is returned when a chat lookup misses.
	ErrChatNotFound = errors.New("chat not found")

	// ErrMessageNotFound is returned when a message lookup misses.
	ErrMessageNotFound = errors.New("message not found")

	// ErrNotParticipant is returned when a user acts on a chat they are not part of.
	ErrNotParticipant = errors.New("user is not a participant of this chat")

	// ErrNotSender is returned when a user edits or deletes someone else's message.
	ErrNotSender = errors.New("only the sender can modify a message")

	// ErrTextEmpty is returned when a message has no text.
	ErrTextEmpty = errors.New("message text cannot be empty")

	// ErrNoParticipants is returned when a chat is created without participants.
	ErrNoParticipants = errors.New("chat needs at least one participant")

	// ErrReplyTargetMissing is returned when a reply references a message that
	// does not exist in the same chat.
	ErrReplyTargetMissing = errors.New("reply target not found in this chat")
)
