package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const localsUserID = "userID"

// Middleware returns a fiber handler enforcing a valid bearer token.
// The authenticated user ID lands in the request locals for downstream handlers.
func Middleware(secret string) fiber.Handler {
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)

		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing bearer token",
			})
		}

		claims, err := ValidateToken(key, token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		c.Locals(localsUserID, claims.UserID)

		return c.Next()
	}
}

// UserID returns the authenticated user ID from the request locals,
// or an empty string when the request was not authenticated.
func UserID(c *fiber.Ctx) string {
	id, ok := c.Locals(localsUserID).(string)
	if !ok {
		return ""
	}

	return id
}
