package middleware

import (
	"retail-backoffice/config"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IdentifyUser stores the gateway-supplied user id in the request locals.
// Requests without the header pass through anonymously.
func IdentifyUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(UserIDHeader)
		if raw == "" {
			return c.Next()
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			config.Logger.Debug("Malformed user id header", zap.String("value", raw), zap.Error(err))
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"status":  "error",
				"message": "Invalid " + UserIDHeader + " header",
			})
		}
		c.Locals(userLocalsKey, id)
		return c.Next()
	}
}

// RequireUser rejects requests that did not pass through the auth gateway.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUser(c) == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "Unauthorized",
			})
		}
		return c.Next()
	}
}
