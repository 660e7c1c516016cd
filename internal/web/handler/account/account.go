// Package account implements the authentication endpoints: registration,
// login and the password lifecycle.
package account

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/bandsync/bandsync/internal/auth"
	"github.com/bandsync/bandsync/internal/config"
	"github.com/bandsync/bandsync/internal/web/handler"
)

const (
	// Path is the base path of the account endpoints.
	Path = "/api/auth"
)

// Service is the account handler service.
type Service struct {
	handler.Service
	cfg  *config.Config
	db   *gorm.DB
	auth *auth.Service
}

// Handler is the account handler.
var Handler = Service{}

// Init initializes the account handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) error {
	if app == nil || cfg == nil || db == nil || authService == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.auth = authService

	app.Route(Path, func(router fiber.Router) {
		router.Post("/register", s.Register)
		router.Post("/login", s.Login)
		router.Post("/password/reset", s.RequestReset)
		router.Post("/password/reset/confirm", s.ConfirmReset)
	})

	// changing a password requires a valid session
	app.Post(Path+"/password/change", auth.Middleware(cfg.Auth.TokenSecret), s.ChangePassword)

	return nil
}

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name"     validate:"max=100"`
	Phone    string `json:"phone"    validate:"max=50"`
}

// Register handles account creation.
func (s *Service) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, validationMessage(err))
	}

	session, err := s.auth.Register(c.Context(), req.Email, req.Password, req.Name, req.Phone)
	if err != nil {
		return handler.FailWith(c, err, map[error]int{
			auth.ErrEmailEmpty:       fiber.StatusBadRequest,
			auth.ErrPasswordTooShort: fiber.StatusBadRequest,
			auth.ErrEmailTaken:       fiber.StatusConflict,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

// Login handles credential verification and token issuance.
func (s *Service) Login(c *fiber.Ctx) error {
	var req auth.Credentials
	if err := c.BodyParser(&req); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	session, err := s.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return handler.FailWith(c, err, map[error]int{
			auth.ErrInvalidCredentials: fiber.StatusUnauthorized,
			auth.ErrAccountInactive:    fiber.StatusForbidden,
		})
	}

	return c.JSON(session)
}

type resetRequest struct {
	Email string `json:"email"`
}

// RequestReset issues a password reset token.
// The response is identical whether or not the email is registered.
func (s *Service) RequestReset(c *fiber.Ctx) error {
	var req resetRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	token, err := s.auth.RequestPasswordReset(c.Context(), req.Email)
	if err != nil {
		return handler.FailWith(c, err, nil)
	}

	resp := fiber.Map{"status": "ok"}
	if s.cfg.DevMode && token != "" {
		// no mail delivery in dev mode, hand the token back directly
		resp["token"] = token
	}

	return c.JSON(resp)
}

type confirmResetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ConfirmReset consumes a reset token and sets the new password.
func (s *Service) ConfirmReset(c *fiber.Ctx) error {
	var req confirmResetRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	err := s.auth.ConfirmPasswordReset(c.Context(), req.Token, req.Password)
	if err != nil {
		return handler.FailWith(c, err, map[error]int{
			auth.ErrResetTokenInvalid: fiber.StatusBadRequest,
			auth.ErrPasswordTooShort:  fiber.StatusBadRequest,
		})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

type changePasswordRequest struct {
	Current  string `json:"current"`
	Password string `json:"password"`
}

// ChangePassword sets a new password for the authenticated user.
func (s *Service) ChangePassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	err := s.auth.ChangePassword(c.Context(), auth.UserID(c), req.Current, req.Password)
	if err != nil {
		return handler.FailWith(c, err, map[error]int{
			auth.ErrInvalidCredentials: fiber.StatusForbidden,
			auth.ErrPasswordTooShort:   fiber.StatusBadRequest,
			auth.ErrUserNotFound:       fiber.StatusUnauthorized,
		})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}
