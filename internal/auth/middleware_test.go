package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/user-service/pkg/util"
)

type countingRecorder struct {
	reasons []string
}

func (r *countingRecorder) RecordAuthFailure(reason string) {
	r.reasons = append(r.reasons, reason)
}

func newMiddlewareApp(t *testing.T, tm *TokenManager, rec FailureRecorder) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": fiber.Map{
				"code":    domainErr.Code,
				"message": domainErr.Message,
			}})
		},
	})
	mw := NewAuthMiddleware(NewIdentityResolver(tm), zap.NewNop(), rec)
	app.Get("/me", mw.Handle, func(c *fiber.Ctx) error {
		subject, ok := SubjectFromContext(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		return c.SendString(subject)
	})
	return app
}

func TestAuthMiddleware_Handle(t *testing.T) {
	tm, clock := newTestManager(t, time.Hour)
	rec := &countingRecorder{}
	app := newMiddlewareApp(t, tm, rec)

	token, _, err := tm.Issue("alice@example.com")
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "alice@example.com", string(body))
	})

	rejected := []struct {
		name   string
		header string
		reason string
		setup  func()
		reset  func()
	}{
		{name: "missing header", header: "", reason: "malformed_header"},
		{name: "short header", header: "abc", reason: "malformed_header"},
		{name: "garbage token", header: "Bearer abc", reason: "malformed_token"},
		{
			name:   "expired token",
			header: "Bearer " + token,
			reason: "expired",
			setup:  func() { clock.Advance(2 * time.Hour) },
			reset:  func() { clock.Advance(-2 * time.Hour) },
		},
	}
	for _, tc := range rejected {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setup != nil {
				tc.setup()
				defer tc.reset()
			}
			rec.reasons = nil

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			var payload struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
			assert.Equal(t, "UNAUTHORIZED", payload.Error.Code)
			assert.Equal(t, "not authenticated", payload.Error.Message)
			assert.Equal(t, []string{tc.reason}, rec.reasons)
		})
	}
}
