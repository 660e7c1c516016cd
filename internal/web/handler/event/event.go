// Package event implements the calendar endpoints of the authenticated
// user's group.
package event

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/bandsync/bandsync/internal/auth"
	"github.com/bandsync/bandsync/internal/config"
	eventctl "github.com/bandsync/bandsync/internal/db/controller/event"
	"github.com/bandsync/bandsync/internal/db/models"
	"github.com/bandsync/bandsync/internal/web/handler"
)

const (
	// Path is the base path of the event endpoints.
	Path = "/api/events"
)

// Service is the event handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the event handler.
var Handler = Service{}

// Init initializes the event handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db

	app.Route(Path, func(router fiber.Router) {
		router.Use(auth.Middleware(cfg.Auth.TokenSecret))

		router.Get(handler.RouterRootPath, s.List)
		router.Post(handler.RouterRootPath, s.Create)
		router.Get("/:id", s.Get)
		router.Put("/:id", s.Update)
		router.Delete("/:id", s.Delete)
	})

	return nil
}

var eventStatuses = map[error]int{
	eventctl.ErrEventNotFound:    fiber.StatusNotFound,
	eventctl.ErrEventTitleEmpty:  fiber.StatusBadRequest,
	eventctl.ErrEventKindInvalid: fiber.StatusBadRequest,
}

// List returns the group's events, optionally limited to a time range via
// from/to query params (RFC 3339).
func (s *Service) List(c *fiber.Ctx) error {
	groupID, _, err := s.access(c, false)
	if groupID == "" {
		return err
	}

	from, fromErr := parseTimeQuery(c, "from")
	to, toErr := parseTimeQuery(c, "to")
	if fromErr != nil || toErr != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "from/to must be RFC 3339")
	}

	var events []models.Event
	if from != nil && to != nil {
		events, err = eventctl.GetRange(s.db, groupID, *from, *to)
	} else {
		events, err = eventctl.GetAll(s.db, groupID)
	}
	if err != nil {
		return handler.FailWith(c, err, eventStatuses)
	}

	return c.JSON(events)
}

// Get returns one event.
func (s *Service) Get(c *fiber.Ctx) error {
	groupID, _, err := s.access(c, false)
	if groupID == "" {
		return err
	}

	event, err := eventctl.Get(s.db, groupID, c.Params("id"))
	if err != nil {
		return handler.FailWith(c, err, eventStatuses)
	}

	return c.JSON(event)
}

// Create adds a new event to the group calendar.
func (s *Service) Create(c *fiber.Ctx) error {
	groupID, user, err := s.access(c, true)
	if groupID == "" {
		return err
	}

	var event models.Event
	if err := c.BodyParser(&event); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	event.ID = ""
	event.GroupID = groupID
	event.CreatedBy = user.ID

	created, err := eventctl.Create(s.db, &event)
	if err != nil {
		return handler.FailWith(c, err, eventStatuses)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// Update replaces the mutable fields of an event.
func (s *Service) Update(c *fiber.Ctx) error {
	groupID, _, err := s.access(c, true)
	if groupID == "" {
		return err
	}

	var event models.Event
	if err := c.BodyParser(&event); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	event.ID = c.Params("id")

	updated, err := eventctl.Update(s.db, groupID, &event)
	if err != nil {
		return handler.FailWith(c, err, eventStatuses)
	}

	return c.JSON(updated)
}

// Delete removes an event.
func (s *Service) Delete(c *fiber.Ctx) error {
	groupID, _, err := s.access(c, true)
	if groupID == "" {
		return err
	}

	if err := eventctl.Delete(s.db, groupID, c.Params("id")); err != nil {
		return handler.FailWith(c, err, eventStatuses)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// access checks module access and, for writes, the event creation capability.
func (s *Service) access(c *fiber.Ctx, write bool) (string, *models.User, error) {
	user, err := handler.CurrentUser(c, s.db, auth.UserID(c))
	if user == nil {
		return "", nil, err
	}

	st, err := handler.RequireModule(c, s.db, user, models.ModuleCalendar)
	if err != nil {
		return "", nil, err
	}

	if write && !st.CanCreateEvents {
		return "", nil, handler.Fail(c, fiber.StatusForbidden, "event creation is not allowed for your role")
	}

	return *user.GroupID, user, nil
}

func parseTimeQuery(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}

	return &parsed, nil
}
