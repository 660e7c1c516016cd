// Package setlist implements the setlist endpoints of the authenticated
// user's group.
package setlist

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/bandsync/bandsync/internal/auth"
	"github.com/bandsync/bandsync/internal/config"
	setlistctl "github.com/bandsync/bandsync/internal/db/controller/setlist"
	"github.com/bandsync/bandsync/internal/db/models"
	"github.com/bandsync/bandsync/internal/web/handler"
)

const (
	// Path is the base path of the setlist endpoints.
	Path = "/api/setlists"
)

// Service is the setlist handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the setlist handler.
var Handler = Service{}

// Init initializes the setlist handler.
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
		router.Patch("/:id", s.Rename)
		router.Delete("/:id", s.Delete)

		router.Post("/:id/songs", s.AddSong)
		router.Delete("/:id/songs/:songId", s.RemoveSong)
		router.Patch("/:id/songs/:songId", s.MoveSong)
	})

	return nil
}

var setlistStatuses = map[error]int{
	setlistctl.ErrSetlistNotFound:    fiber.StatusNotFound,
	setlistctl.ErrSongNotFound:       fiber.StatusNotFound,
	setlistctl.ErrSetlistNameEmpty:   fiber.StatusBadRequest,
	setlistctl.ErrSongTitleEmpty:     fiber.StatusBadRequest,
	setlistctl.ErrPositionOutOfRange: fiber.StatusBadRequest,
}

// List returns the group's setlists without songs.
func (s *Service) List(c *fiber.Ctx) error {
	groupID, _, err := s.access(c, false)
	if groupID == "" {
		return err
	}

	setlists, err := setlistctl.GetAll(s.db, groupID)
	if err != nil {
		return handler.FailWith(c, err, setlistStatuses)
	}

	return c.JSON(setlists)
}

// Get returns one setlist with its songs in play order.
func (s *Service) Get(c *fiber.Ctx) error {
	groupID, _, err := s.access(c, false)
	if groupID == "" {
		return err
	}

	setlist, err := setlistctl.Get(s.db, groupID, c.Params("id"))
	if err != nil {
		return handler.FailWith(c, err, setlistStatuses)
	}

	return c.JSON(setlist)
}

type createRequest struct {
	Name string `json:"name"`
}

// Create creates a new setlist.
func (s *Service) Create(c *fiber.Ctx) error {
	groupID, user, err := s.access(c, true)
	if groupID == "" {
		return err
	}

	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	created, err := setlistctl.Create(s.db, groupID, req.Name, user.ID)
	if err != nil {
		return handler.FailWith(c, err, setlistStatuses)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

type renameRequest struct {
	Name string `json:"name"`
}

// Rename changes the setlist title.
func (s *Service) Rename(c *fiber.Ctx) error {
	groupID, _, err := s.access(c, true)
	if groupID == "" {
		return err
	}

	var req renameRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	renamed, err := setlistctl.Rename(s.db, groupID, c.Params("id"), req.Name)
	if err != nil {
		return handler.FailWith(c, err, setlistStatuses)
	}

	return c.JSON(renamed)
}

// Delete removes a setlist and its songs.
func (s *Service) Delete(c *fiber.Ctx) error {
	groupID, _, err := s.access(c, true)
	if groupID == "" {
		return err
	}

	if err := setlistctl.Delete(s.db, groupID, c.Params("id")); err != nil {
		return handler.FailWith(c, err, setlistStatuses)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

type songRequest struct {
	Title       string `json:"title"`
	DurationSec int    `json:"durationSec"`
	BPM         int    `json:"bpm"`
}

// AddSong appends a song to the setlist.
func (s *Service) AddSong(c *fiber.Ctx) error {
	groupID, _, err := s.access(c, true)
	if groupID == "" {
		return err
	}

	var req songRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	song, err := setlistctl.AddSong(s.db, groupID, c.Params("id"), req.Title, req.DurationSec, req.BPM)
	if err != nil {
		return handler.FailWith(c, err, setlistStatuses)
	}

	return c.Status(fiber.StatusCreated).JSON(song)
}

// RemoveSong deletes a song from the setlist.
func (s *Service) RemoveSong(c *fiber.Ctx) error {
	groupID, _, err := s.access(c, true)
	if groupID == "" {
		return err
	}

	songID, err := strconv.ParseUint(c.Params("songId"), 10, 64)
	if err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid song id")
	}

	if err := setlistctl.RemoveSong(s.db, groupID, c.Params("id"), songID); err != nil {
		return handler.FailWith(c, err, setlistStatuses)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

type moveRequest struct {
	Position int `json:"position"`
}

// MoveSong moves a song to a new position.
func (s *Service) MoveSong(c *fiber.Ctx) error {
	groupID, _, err := s.access(c, true)
	if groupID == "" {
		return err
	}

	songID, err := strconv.ParseUint(c.Params("songId"), 10, 64)
	if err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid song id")
	}

	var req moveRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := setlistctl.MoveSong(s.db, groupID, c.Params("id"), songID, req.Position); err != nil {
		return handler.FailWith(c, err, setlistStatuses)
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// access checks module access and, for writes, the setlist creation capability.
func (s *Service) access(c *fiber.Ctx, write bool) (string, *models.User, error) {
	user, err := handler.CurrentUser(c, s.db, auth.UserID(c))
	if user == nil {
		return "", nil, err
	}

	st, err := handler.RequireModule(c, s.db, user, models.ModuleSetlists)
	if err != nil {
		return "", nil, err
	}

	if write && !st.CanCreateSetlists {
		return "", nil, handler.Fail(c, fiber.StatusForbidden, "setlist editing is not allowed for your role")
	}

	return *user.GroupID, user, nil
}
