package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestID tags every request with a correlation id, honoring one supplied
// by the client so dashboard traces line up with server logs.
func RequestID(header string) fiber.Handler {
	if header == "" {
		header = "X-Request-ID"
	}
	return func(c *fiber.Ctx) error {
		id := c.Get(header)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals("request_id", id)
		c.Set(header, id)
		return c.Next()
	}
}
