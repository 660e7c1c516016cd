// Package state serves the derived capability projection clients use to
// decide which screens and actions to show.
package state

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/bandsync/bandsync/internal/auth"
	"github.com/bandsync/bandsync/internal/config"
	"github.com/bandsync/bandsync/internal/web/handler"
)

const (
	// Path is the path of the state endpoint.
	Path = "/api/state"
)

// Service is the state handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the state handler.
var Handler = Service{}

// Init initializes the state handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db

	app.Get(Path, auth.Middleware(cfg.Auth.TokenSecret), s.Get)

	return nil
}

// Get returns the capability state of the authenticated user.
func (s *Service) Get(c *fiber.Ctx) error {
	user, err := handler.CurrentUser(c, s.db, auth.UserID(c))
	if user == nil {
		return err
	}

	return c.JSON(handler.State(s.db, user))
}
