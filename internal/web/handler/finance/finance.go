// Package finance implements the income/expense endpoints of the
// authenticated user's group.
package finance

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/bandsync/bandsync/internal/auth"
	"github.com/bandsync/bandsync/internal/config"
	financectl "github.com/bandsync/bandsync/internal/db/controller/finance"
	"github.com/bandsync/bandsync/internal/db/models"
	"github.com/bandsync/bandsync/internal/web/handler"
)

const (
	// Path is the base path of the finance endpoints.
	Path = "/api/finances"
)

// Service is the finance handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the finance handler.
var Handler = Service{}

// Init initializes the finance handler.
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
		router.Get("/summary", s.Summary)
		router.Get("/categories", s.Categories)
		router.Delete("/:id", s.Delete)
	})

	return nil
}

var financeStatuses = map[error]int{
	financectl.ErrTransactionNotFound: fiber.StatusNotFound,
	financectl.ErrAmountNotPositive:   fiber.StatusBadRequest,
	financectl.ErrKindInvalid:         fiber.StatusBadRequest,
	financectl.ErrCurrencyEmpty:       fiber.StatusBadRequest,
}

// List returns the group's transactions, newest first.
func (s *Service) List(c *fiber.Ctx) error {
	groupID, _, err := s.access(c)
	if groupID == "" {
		return err
	}

	txns, err := financectl.GetAll(s.db, groupID)
	if err != nil {
		return handler.FailWith(c, err, financeStatuses)
	}

	return c.JSON(txns)
}

// Create records a new transaction.
func (s *Service) Create(c *fiber.Ctx) error {
	groupID, user, err := s.access(c)
	if groupID == "" {
		return err
	}

	var txn models.Transaction
	if err := c.BodyParser(&txn); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	txn.ID = ""
	txn.GroupID = groupID
	txn.RecordedBy = user.ID

	created, err := financectl.Create(s.db, &txn)
	if err != nil {
		return handler.FailWith(c, err, financeStatuses)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// Summary returns the group's income/expense/balance totals.
func (s *Service) Summary(c *fiber.Ctx) error {
	groupID, _, err := s.access(c)
	if groupID == "" {
		return err
	}

	summary, err := financectl.Summarize(s.db, groupID)
	if err != nil {
		return handler.FailWith(c, err, financeStatuses)
	}

	return c.JSON(summary)
}

// Categories returns the per-category totals of the group.
func (s *Service) Categories(c *fiber.Ctx) error {
	groupID, _, err := s.access(c)
	if groupID == "" {
		return err
	}

	totals, err := financectl.ByCategory(s.db, groupID)
	if err != nil {
		return handler.FailWith(c, err, financeStatuses)
	}

	return c.JSON(totals)
}

// Delete removes a transaction.
func (s *Service) Delete(c *fiber.Ctx) error {
	groupID, _, err := s.access(c)
	if groupID == "" {
		return err
	}

	if err := financectl.Delete(s.db, groupID, c.Params("id")); err != nil {
		return handler.FailWith(c, err, financeStatuses)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Service) access(c *fiber.Ctx) (string, *models.User, error) {
	user, err := handler.CurrentUser(c, s.db, auth.UserID(c))
	if user == nil {
		return "", nil, err
	}

	if _, err := handler.RequireModule(c, s.db, user, models.ModuleFinances); err != nil {
		return "", nil, err
	}

	return *user.GroupID, user, nil
}
