// Package user implements the profile and device endpoints of the
// authenticated account.
package user

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/bandsync/bandsync/internal/auth"
	"github.com/bandsync/bandsync/internal/config"
	"github.com/bandsync/bandsync/internal/notify"
	"github.com/bandsync/bandsync/internal/web/handler"
)

const (
	// Path is the base path of the user endpoints.
	Path = "/api/users"
)

// Service is the user handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the user handler.
var Handler = Service{}

// Init initializes the user handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db

	app.Route(Path, func(router fiber.Router) {
		router.Use(auth.Middleware(cfg.Auth.TokenSecret))
		router.Get("/me", s.Me)
		router.Patch("/me", s.UpdateMe)
		router.Post("/me/devices", s.RegisterDevice)
		router.Delete("/me/devices/:token", s.UnregisterDevice)
	})

	return nil
}

// Me returns the authenticated user's profile.
func (s *Service) Me(c *fiber.Ctx) error {
	user, err := handler.CurrentUser(c, s.db, auth.UserID(c))
	if user == nil {
		return err
	}

	return c.JSON(user)
}

type updateRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// UpdateMe updates the mutable profile fields.
func (s *Service) UpdateMe(c *fiber.Ctx) error {
	user, err := handler.CurrentUser(c, s.db, auth.UserID(c))
	if user == nil {
		return err
	}

	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}

	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return handler.FailWith(c, err, nil)
		}
	}

	return c.JSON(user)
}

type deviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// RegisterDevice stores a push token for the authenticated user.
func (s *Service) RegisterDevice(c *fiber.Ctx) error {
	var req deviceRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	err := notify.Register(s.db, auth.UserID(c), req.Token, req.Platform)
	if err != nil {
		return handler.FailWith(c, err, map[error]int{
			notify.ErrTokenEmpty:      fiber.StatusBadRequest,
			notify.ErrPlatformInvalid: fiber.StatusBadRequest,
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// UnregisterDevice removes a push token of the authenticated user.
func (s *Service) UnregisterDevice(c *fiber.Ctx) error {
	err := notify.Unregister(s.db, auth.UserID(c), c.Params("token"))
	if err != nil {
		return handler.FailWith(c, err, map[error]int{
			notify.ErrTokenNotFound: fiber.StatusNotFound,
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
