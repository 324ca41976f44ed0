package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/bakery/internal/middleware"
	"github.com/example/bakery/internal/services"
)

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/rejected", func(c *fiber.Ctx) error {
		return &services.RequestError{Message: "name is required"}
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})
	app.Get("/broken", func(c *fiber.Ctx) error {
		return errors.New("store offline")
	})

	tests := []struct {
		path   string
		status int
		err    string
	}{
		{"/rejected", http.StatusBadRequest, "name is required"},
		{"/missing", http.StatusNotFound, "Not Found"},
		{"/broken", http.StatusInternalServerError, "store offline"},
	}

	for _, tt := range tests {
		t.Run(strings.TrimPrefix(tt.path, "/"), func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.err, body["err"])
		})
	}
}

func TestSessionTokenPrefersBody(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.SessionToken())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(sessionToken(c, c.Query("token")))
	})

	for query, want := range map[string]string{"/?token=from-body": "from-body", "/": "from-header"} {
		req := httptest.NewRequest(http.MethodGet, query, nil)
		req.Header.Set("Authorization", "Bearer from-header")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		assert.Equal(t, want, string(raw))
	}
}
