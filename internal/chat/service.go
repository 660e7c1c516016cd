// Package chat implements group and direct conversations with an append-only
// message list per chat. Every chat row carries a denormalized last-message
// preview that is maintained in the same transaction as the message write, so
// chat lists never show a preview the message list does not contain.
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/bandsync/bandsync/internal/db/models"
	"github.com/bandsync/bandsync/internal/subscribe"
)

const defaultPageSize = 50

// TopicChat names the hub topic carrying live updates for one chat.
func TopicChat(chatID string) string {
	return "chat:" + chatID
}

// Service wires chat operations to the database and the snapshot hub.
type Service struct {
	db  *gorm.DB
	hub *subscribe.Hub
}

// NewService creates a chat service. hub may be nil to disable live delivery.
func NewService(db *gorm.DB, hub *subscribe.Hub) *Service {
	return &Service{db: db, hub: hub}
}

// CreateGroupChat creates a chat shared by a group and enrolls the given
// participants. The member list of the group is managed elsewhere; callers
// pass the user IDs that should start in the chat.
func (s *Service) CreateGroupChat(ctx context.Context, groupID, name string, participants []string) (*models.Chat, error) {
	return s.create(ctx, &groupID, name, models.ChatKindGroup, participants)
}

// CreateDirectChat creates a one-to-one conversation between two users.
// If a direct chat between the pair already exists it is returned instead of
// creating a duplicate.
func (s *Service) CreateDirectChat(ctx context.Context, userA, userB string) (*models.Chat, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	var existing models.Chat

	err := s.db.WithContext(ctx).
		Joins("JOIN chat_participants a ON a.chat_id = chats.id AND a.user_id = ?", userA).
		Joins("JOIN chat_participants b ON b.chat_id = chats.id AND b.user_id = ?", userB).
		Where("chats.kind = ?", models.ChatKindDirect).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return s.create(ctx, nil, "", models.ChatKindDirect, []string{userA, userB})
}

func (s *Service) create(ctx context.Context, groupID *string, name string, kind models.ChatKind, participants []string) (*models.Chat, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	chat := models.Chat{
		ID:      uuid.NewString(),
		GroupID: groupID,
		Name:    name,
		Kind:    kind,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&chat).Error; err != nil {
			return err
		}

		for _, userID := range participants {
			p := models.ChatParticipant{ChatID: chat.ID, UserID: userID}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &chat, nil
}

// AddParticipant enrolls a user into an existing chat. Adding an existing
// participant is a no-op.
func (s *Service) AddParticipant(ctx context.Context, chatID, userID string) error {
	if s.db == nil {
		return ErrDBNil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadChat(tx, chatID); err != nil {
			return err
		}

		var n int64
		err := tx.Model(&models.ChatParticipant{}).
			Where("chat_id = ? AND user_id = ?", chatID, userID).
			Count(&n).Error
		if err != nil {
			return err
		}

		if n > 0 {
			return nil
		}

		return tx.Create(&models.ChatParticipant{ChatID: chatID, UserID: userID}).Error
	})
}

// SendMessage appends a message and refreshes the chat preview in one
// transaction, then publishes the message on the chat topic.
func (s *Service) SendMessage(ctx context.Context, chatID, senderID, text string, replyTo *string) (*models.Message, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	if text == "" {
		return nil, ErrTextEmpty
	}

	msg := models.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		SenderID:  senderID,
		Text:      text,
		Timestamp: time.Now(),
		ReplyTo:   replyTo,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireParticipant(tx, chatID, senderID); err != nil {
			return err
		}

		if replyTo != nil {
			var n int64
			err := tx.Model(&models.Message{}).
				Where("id = ? AND chat_id = ?", *replyTo, chatID).
				Count(&n).Error
			if err != nil {
				return err
			}

			if n == 0 {
				return ErrReplyTargetMissing
			}
		}

		if err := tx.Create(&msg).Error; err != nil {
			return err
		}

		return tx.Model(&models.Chat{}).Where("id = ?", chatID).Updates(map[string]any{
			"last_message":    msg.Text,
			"last_message_at": msg.Timestamp,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.publish(chatID, &msg)

	return &msg, nil
}

// EditMessage overwrites the text of a message the sender wrote.
// If the message is the latest in its chat the preview follows the edit.
func (s *Service) EditMessage(ctx context.Context, chatID, messageID, senderID, text string) error {
	if s.db == nil {
		return ErrDBNil
	}

	if text == "" {
		return ErrTextEmpty
	}

	var edited models.Message

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		msg, err := loadMessage(tx, chatID, messageID)
		if err != nil {
			return err
		}

		if msg.SenderID != senderID {
			return ErrNotSender
		}

		if err := tx.Model(msg).Update("text", text).Error; err != nil {
			return err
		}

		msg.Text = text
		edited = *msg

		return refreshPreview(tx, chatID)
	})
	if err != nil {
		return err
	}

	s.publish(chatID, &edited)

	return nil
}

// DeleteMessage removes a message the sender wrote and repairs the preview.
func (s *Service) DeleteMessage(ctx context.Context, chatID, messageID, senderID string) error {
	if s.db == nil {
		return ErrDBNil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		msg, err := loadMessage(tx, chatID, messageID)
		if err != nil {
			return err
		}

		if msg.SenderID != senderID {
			return ErrNotSender
		}

		if err := tx.Delete(msg).Error; err != nil {
			return err
		}

		return refreshPreview(tx, chatID)
	})
	if err != nil {
		return err
	}

	s.publish(chatID, nil)

	return nil
}

// ListMessages returns messages of a chat ordered oldest first.
// A zero limit applies the default page size; before limits the page to
// messages older than the given time for backwards pagination.
func (s *Service) ListMessages(ctx context.Context, chatID, userID string, before *time.Time, limit int) ([]models.Message, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	if limit <= 0 {
		limit = defaultPageSize
	}

	if err := requireParticipant(s.db.WithContext(ctx), chatID, userID); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Where("chat_id = ?", chatID)
	if before != nil {
		q = q.Where("timestamp < ?", *before)
	}

	// fetch the newest page, then flip to chronological order
	var page []models.Message
	if err := q.Order("timestamp DESC").Limit(limit).Find(&page).Error; err != nil {
		return nil, err
	}

	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}

	return page, nil
}

// ChatsFor lists the chats a user participates in, most recently active first.
func (s *Service) ChatsFor(ctx context.Context, userID string) ([]models.Chat, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	var chats []models.Chat

	err := s.db.WithContext(ctx).
		Joins("JOIN chat_participants ON chat_participants.chat_id = chats.id").
		Where("chat_participants.user_id = ?", userID).
		Order("last_message_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}

	return chats, nil
}

// Chat loads one chat after checking the user participates in it.
func (s *Service) Chat(ctx context.Context, chatID, userID string) (*models.Chat, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	if err := requireParticipant(s.db.WithContext(ctx), chatID, userID); err != nil {
		return nil, err
	}

	var chat models.Chat
	if err := s.db.WithContext(ctx).First(&chat, "id = ?", chatID).Error; err != nil {
		return nil, err
	}

	return &chat, nil
}

func (s *Service) publish(chatID string, msg *models.Message) {
	version := s.hub.Publish(TopicChat(chatID), msg)
	if version > 0 {
		log.Debug().Str("chat", chatID).Uint64("version", version).Msg("published chat update")
	}
}

// refreshPreview recomputes the chat preview from the newest surviving message.
func refreshPreview(tx *gorm.DB, chatID string) error {
	var latest models.Message

	err := tx.Where("chat_id = ?", chatID).Order("timestamp DESC").First(&latest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Model(&models.Chat{}).Where("id = ?", chatID).Updates(map[string]any{
				"last_message":    "",
				"last_message_at": nil,
			}).Error
		}

		return err
	}

	return tx.Model(&models.Chat{}).Where("id = ?", chatID).Updates(map[string]any{
		"last_message":    latest.Text,
		"last_message_at": latest.Timestamp,
	}).Error
}

func loadChat(tx *gorm.DB, chatID string) error {
	var n int64

	err := tx.Model(&models.Chat{}).Where("id = ?", chatID).Count(&n).Error
	if err != nil {
		return err
	}

	if n == 0 {
		return ErrChatNotFound
	}

	return nil
}

func loadMessage(tx *gorm.DB, chatID, messageID string) (*models.Message, error) {
	var msg models.Message

	err := tx.First(&msg, "id = ? AND chat_id = ?", messageID, chatID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}

		return nil, err
	}

	return &msg, nil
}

func requireParticipant(tx *gorm.DB, chatID, userID string) error {
	if err := loadChat(tx, chatID); err != nil {
		return err
	}

	var n int64

	err := tx.Model(&models.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&n).Error
	if err != nil {
		return err
	}

	if n == 0 {
		return ErrNotParticipant
	}

	return nil
}
