package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/bakery/internal/middleware"
	"github.com/example/bakery/internal/services"
)

// ErrorHandler renders every error as {"err": message}. Rejected input maps to
// 400, fiber errors keep their code and anything else is a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	switch {
	case services.IsRequestError(err):
		code = fiber.StatusBadRequest
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
	default:
		log.Printf("[HTTP] %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(fiber.Map{"err": err.Error()})
}

// requestContext bounds the store calls of one request.
func requestContext(c *fiber.Ctx, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), timeout)
}

func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return nil
}

// sessionToken prefers the token of the body and falls back to the bearer header.
func sessionToken(c *fiber.Ctx, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	token, _ := middleware.GetSessionToken(c)
	return token
}
