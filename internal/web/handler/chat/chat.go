// Package chat implements the conversation endpoints and the websocket
// stream delivering live chat updates.
package chat

import (
	"errors"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/bandsync/bandsync/internal/auth"
	chatservice "github.com/bandsync/bandsync/internal/chat"
	"github.com/bandsync/bandsync/internal/config"
	"github.com/bandsync/bandsync/internal/db/models"
	"github.com/bandsync/bandsync/internal/subscribe"
	"github.com/bandsync/bandsync/internal/web/handler"
)

const (
	// Path is the base path of the chat endpoints.
	Path = "/api/chats"
)

// Service is the chat handler service.
type Service struct {
	handler.Service
	cfg  *config.Config
	db   *gorm.DB
	chat *chatservice.Service
	hub  *subscribe.Hub
}

// Handler is the chat handler.
var Handler = Service{}

// Init initializes the chat handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, chatService *chatservice.Service, hub *subscribe.Hub) error {
	if app == nil || cfg == nil || db == nil || chatService == nil || hub == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.chat = chatService
	s.hub = hub

	app.Route(Path, func(router fiber.Router) {
		router.Use(auth.Middleware(cfg.Auth.TokenSecret))

		router.Get(handler.RouterRootPath, s.List)
		router.Post(handler.RouterRootPath, s.Create)
		router.Get("/:id", s.Get)
		router.Get("/:id/messages", s.Messages)
		router.Post("/:id/messages", s.Send)
		router.Patch("/:id/messages/:mid", s.Edit)
		router.Delete("/:id/messages/:mid", s.Delete)
	})

	// websocket clients cannot set headers, the token rides a query param
	app.Get("/ws/chats/:id", s.upgrade, websocket.New(s.stream))

	return nil
}

// chatStatuses is the shared error-to-status table of the chat service.
var chatStatuses = map[error]int{
	chatservice.ErrChatNotFound:       fiber.StatusNotFound,
	chatservice.ErrMessageNotFound:    fiber.StatusNotFound,
	chatservice.ErrNotParticipant:     fiber.StatusForbidden,
	chatservice.ErrNotSender:          fiber.StatusForbidden,
	chatservice.ErrTextEmpty:          fiber.StatusBadRequest,
	chatservice.ErrNoParticipants:     fiber.StatusBadRequest,
	chatservice.ErrReplyTargetMissing: fiber.StatusBadRequest,
}

// List returns the chats of the authenticated user, most recently active first.
func (s *Service) List(c *fiber.Ctx) error {
	chats, err := s.chat.ChatsFor(c.Context(), auth.UserID(c))
	if err != nil {
		return handler.FailWith(c, err, chatStatuses)
	}

	return c.JSON(chats)
}

type createRequest struct {
	Kind         models.ChatKind `json:"kind"`
	Name         string          `json:"name"`
	UserID       string          `json:"userId"`       // direct chats: the other party
	Participants []string        `json:"participants"` // group chats
}

// Create creates a group or direct conversation.
func (s *Service) Create(c *fiber.Ctx) error {
	user, err := handler.CurrentUser(c, s.db, auth.UserID(c))
	if user == nil {
		return err
	}

	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	var created *models.Chat

	switch req.Kind {
	case models.ChatKindDirect:
		if req.UserID == "" {
			return handler.Fail(c, fiber.StatusBadRequest, "userId is required for direct chats")
		}

		created, err = s.chat.CreateDirectChat(c.Context(), user.ID, req.UserID)
	case models.ChatKindGroup:
		groupID, gerr := handler.RequireGroup(c, user)
		if gerr != nil {
			return gerr
		}

		participants := req.Participants
		if len(participants) == 0 {
			participants = []string{user.ID}
		}

		created, err = s.chat.CreateGroupChat(c.Context(), groupID, req.Name, participants)
	default:
		return handler.Fail(c, fiber.StatusBadRequest, "unknown chat kind")
	}

	if err != nil {
		return handler.FailWith(c, err, chatStatuses)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// Get returns one chat the user participates in.
func (s *Service) Get(c *fiber.Ctx) error {
	chat, err := s.chat.Chat(c.Context(), c.Params("id"), auth.UserID(c))
	if err != nil {
		return handler.FailWith(c, err, chatStatuses)
	}

	return c.JSON(chat)
}

// Messages returns a page of the chat's message list.
func (s *Service) Messages(c *fiber.Ctx) error {
	var before *time.Time

	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return handler.Fail(c, fiber.StatusBadRequest, "before must be RFC 3339")
		}

		before = &parsed
	}

	msgs, err := s.chat.ListMessages(c.Context(), c.Params("id"), auth.UserID(c), before, c.QueryInt("limit"))
	if err != nil {
		return handler.FailWith(c, err, chatStatuses)
	}

	return c.JSON(msgs)
}

type sendRequest struct {
	Text    string  `json:"text"`
	ReplyTo *string `json:"replyTo"`
}

// Send appends a message to the chat.
func (s *Service) Send(c *fiber.Ctx) error {
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	msg, err := s.chat.SendMessage(c.Context(), c.Params("id"), auth.UserID(c), req.Text, req.ReplyTo)
	if err != nil {
		return handler.FailWith(c, err, chatStatuses)
	}

	return c.Status(fiber.StatusCreated).JSON(msg)
}

type editRequest struct {
	Text string `json:"text"`
}

// Edit overwrites the text of one of the user's own messages.
func (s *Service) Edit(c *fiber.Ctx) error {
	var req editRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	err := s.chat.EditMessage(c.Context(), c.Params("id"), c.Params("mid"), auth.UserID(c), req.Text)
	if err != nil {
		return handler.FailWith(c, err, chatStatuses)
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// Delete removes one of the user's own messages.
func (s *Service) Delete(c *fiber.Ctx) error {
	err := s.chat.DeleteMessage(c.Context(), c.Params("id"), c.Params("mid"), auth.UserID(c))
	if err != nil {
		return handler.FailWith(c, err, chatStatuses)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// upgrade authenticates the websocket handshake and stashes the identities
// the stream handler needs.
func (s *Service) upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	claims, err := auth.ValidateToken([]byte(s.cfg.Auth.TokenSecret), c.Query("token"))
	if err != nil {
		return handler.Fail(c, fiber.StatusUnauthorized, "invalid token")
	}

	// participation check happens here, before the connection is upgraded
	if _, err := s.chat.Chat(c.Context(), c.Params("id"), claims.UserID); err != nil {
		return handler.FailWith(c, err, chatStatuses)
	}

	c.Locals("chatID", c.Params("id"))
	c.Locals("streamUserID", claims.UserID)

	return c.Next()
}

// stream pushes live chat updates to the client until it disconnects.
func (s *Service) stream(conn *websocket.Conn) {
	chatID, _ := conn.Locals("chatID").(string)
	userID, _ := conn.Locals("streamUserID").(string)

	sub := s.hub.Subscribe(chatservice.TopicChat(chatID))
	defer sub.Cancel()

	log.Debug().Str("chat", chatID).Str("user", userID).Msg("chat stream opened")

	// reader goroutine: the subscription dies with the connection
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snap, ok := <-sub.C:
			if !ok {
				return
			}

			if err := conn.WriteJSON(snap); err != nil {
				log.Debug().Err(err).Str("chat", chatID).Msg("chat stream write failed")
				return
			}
		case <-done:
			return
		}
	}
}
