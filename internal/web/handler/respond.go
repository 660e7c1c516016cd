package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/bandsync/bandsync/internal/db/models"
)

// Fail writes a JSON error body with the given status.
func Fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// FailWith maps a service error onto an HTTP status using the provided
// error-to-status table. Unmapped errors are logged and become a 500 without
// leaking the message to the client.
func FailWith(c *fiber.Ctx, err error, statuses map[error]int) error {
	for sentinel, status := range statuses {
		if errors.Is(err, sentinel) {
			return Fail(c, status, sentinel.Error())
		}
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("unhandled service error")

	return Fail(c, fiber.StatusInternalServerError, "internal server error")
}

// CurrentUser loads the account identified by the auth middleware.
// Returns nil after writing a 401 when the request carries no valid identity.
func CurrentUser(c *fiber.Ctx, db *gorm.DB, userID string) (*models.User, error) {
	if userID == "" {
		return nil, Fail(c, fiber.StatusUnauthorized, "not authenticated")
	}

	var user models.User

	err := db.First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Fail(c, fiber.StatusUnauthorized, "unknown account")
		}

		log.Error().Err(err).Msg("failed to load current user")

		return nil, Fail(c, fiber.StatusInternalServerError, "internal server error")
	}

	return &user, nil
}

// RequireGroup checks the user is attached to a group and returns its ID.
// Writes a 409 when the user has no group.
func RequireGroup(c *fiber.Ctx, user *models.User) (string, error) {
	if user.GroupID == nil {
		return "", Fail(c, fiber.StatusConflict, "user is not in a group")
	}

	return *user.GroupID, nil
}
