package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UserIDHeader is set by the upstream auth gateway once a session is verified.
const UserIDHeader = "X-User-ID"

const userLocalsKey = "user_id"

// CurrentUser returns the caller's id when the request carried one.
func CurrentUser(c *fiber.Ctx) *uuid.UUID {
	if id, ok := c.Locals(userLocalsKey).(uuid.UUID); ok {
		return &id
	}
	return nil
}
