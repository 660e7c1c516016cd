// Package contact implements the shared contact book endpoints of the
// authenticated user's group.
package contact

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/bandsync/bandsync/internal/auth"
	"github.com/bandsync/bandsync/internal/config"
	contactctl "github.com/bandsync/bandsync/internal/db/controller/contact"
	"github.com/bandsync/bandsync/internal/db/models"
	"github.com/bandsync/bandsync/internal/web/handler"
)

const (
	// Path is the base path of the contact endpoints.
	Path = "/api/contacts"
)

// Service is the contact handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the contact handler.
var Handler = Service{}

// Init initializes the contact handler.
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

var contactStatuses = map[error]int{
	contactctl.ErrContactNotFound:  fiber.StatusNotFound,
	contactctl.ErrContactNameEmpty: fiber.StatusBadRequest,
}

// List returns the group's contacts, optionally filtered by a q query param.
func (s *Service) List(c *fiber.Ctx) error {
	groupID, err := s.access(c)
	if groupID == "" {
		return err
	}

	var contacts []models.Contact
	if query := c.Query("q"); query != "" {
		contacts, err = contactctl.Search(s.db, groupID, query)
	} else {
		contacts, err = contactctl.GetAll(s.db, groupID)
	}
	if err != nil {
		return handler.FailWith(c, err, contactStatuses)
	}

	return c.JSON(contacts)
}

// Get returns one contact.
func (s *Service) Get(c *fiber.Ctx) error {
	groupID, err := s.access(c)
	if groupID == "" {
		return err
	}

	contact, err := contactctl.Get(s.db, groupID, c.Params("id"))
	if err != nil {
		return handler.FailWith(c, err, contactStatuses)
	}

	return c.JSON(contact)
}

// Create adds a new contact to the group's book.
func (s *Service) Create(c *fiber.Ctx) error {
	groupID, err := s.access(c)
	if groupID == "" {
		return err
	}

	var contact models.Contact
	if err := c.BodyParser(&contact); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	contact.ID = ""
	contact.GroupID = groupID

	created, err := contactctl.Create(s.db, &contact)
	if err != nil {
		return handler.FailWith(c, err, contactStatuses)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// Update replaces the mutable fields of a contact.
func (s *Service) Update(c *fiber.Ctx) error {
	groupID, err := s.access(c)
	if groupID == "" {
		return err
	}

	var contact models.Contact
	if err := c.BodyParser(&contact); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	contact.ID = c.Params("id")

	updated, err := contactctl.Update(s.db, groupID, &contact)
	if err != nil {
		return handler.FailWith(c, err, contactStatuses)
	}

	return c.JSON(updated)
}

// Delete removes a contact.
func (s *Service) Delete(c *fiber.Ctx) error {
	groupID, err := s.access(c)
	if groupID == "" {
		return err
	}

	if err := contactctl.Delete(s.db, groupID, c.Params("id")); err != nil {
		return handler.FailWith(c, err, contactStatuses)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Service) access(c *fiber.Ctx) (string, error) {
	user, err := handler.CurrentUser(c, s.db, auth.UserID(c))
	if user == nil {
		return "", err
	}

	if _, err := handler.RequireModule(c, s.db, user, models.ModuleContacts); err != nil {
		return "", err
	}

	return *user.GroupID, nil
}
