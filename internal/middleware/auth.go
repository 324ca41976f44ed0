package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const sessionTokenKey = "sessionToken"

// SessionToken reads an optional "Authorization: Bearer <token>" header and
// keeps the token for handlers whose request body carries none.
func SessionToken() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Next()
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		c.Locals(sessionTokenKey, strings.TrimSpace(parts[1]))
		return c.Next()
	}
}

// GetSessionToken returns the token captured by SessionToken.
func GetSessionToken(c *fiber.Ctx) (string, bool) {
	token, ok := c.Locals(sessionTokenKey).(string)
	return token, ok && token != ""
}
