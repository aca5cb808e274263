package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/apperr"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
)

type stubVerifier struct {
	users map[string]*models.User
}

func (s stubVerifier) VerifyToken(_ context.Context, token string) (*models.User, error) {
	if u, ok := s.users[token]; ok {
		return u, nil
	}
	return nil, apperr.New(apperr.Unauthorized, "Token inválido o expirado")
}

func newApp(log *zap.Logger) *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func TestRequireAuth(t *testing.T) {
	freelancer := &models.User{ID: uuid.New(), Role: models.RoleFreelancer, IsActive: true}
	v := stubVerifier{users: map[string]*models.User{"good": freelancer}}

	app := newApp(zap.NewNop())
	app.Get("/me", RequireAuth(v), func(c *fiber.Ctx) error {
		u, err := CurrentUser(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"id": u.ID, "role": c.Locals("role")})
	})

	cases := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"no credentials", "", "", http.StatusUnauthorized},
		{"malformed header", "Token good", "", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", "", http.StatusUnauthorized},
		{"bearer ok", "Bearer good", "", http.StatusOK},
		{"cookie ok", "", "good", http.StatusOK},
		{"header wins over cookie", "Bearer nope", "good", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tc.cookie})
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
			if tc.want == http.StatusOK {
				body := decode(t, resp)
				assert.Equal(t, freelancer.ID.String(), body["id"])
				assert.Equal(t, "freelancer", body["role"])
			} else {
				body := decode(t, resp)
				assert.Equal(t, false, body["success"])
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	client := &models.User{ID: uuid.New(), Role: models.RoleClient, IsActive: true}
	v := stubVerifier{users: map[string]*models.User{"c": client}}

	app := newApp(zap.NewNop())
	app.Post("/services", RequireAuth(v), RequireRoles("freelancer"), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/services", nil)
	req.Header.Set("Authorization", "Bearer c")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestErrorHandlerSanitizes(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	app := newApp(zap.New(core))

	app.Get("/internal", func(c *fiber.Ctx) error {
		return apperr.Internalf(errors.New(`pq: relation "projects" does not exist`), "list projects")
	})
	app.Get("/raw", func(c *fiber.Ctx) error {
		return errors.New("dial tcp 10.0.0.5:5432: connection refused")
	})
	app.Get("/validation", func(c *fiber.Ctx) error {
		fields := apperr.FieldErrors{}
		fields.Add("price", "El precio mínimo es 5")
		return apperr.Invalid(fields)
	})
	app.Get("/fiber", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "Archivo demasiado grande")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/internal", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "Error interno del servidor", body["error"])
	assert.NotContains(t, body["error"], "relation")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/raw", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Error interno del servidor", decode(t, resp)["error"])

	assert.Equal(t, 2, logs.Len(), "both causes logged")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/validation", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body = decode(t, resp)
	fields, ok := body["errors"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, fields, "price")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/fiber", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"), "burst exhausted")
	assert.True(t, rl.Allow("2.2.2.2"), "keys are independent")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("1.1.1.1"), "refilled")

	now = now.Add(time.Hour)
	rl.Allow("3.3.3.3")
	assert.Equal(t, 2, rl.Cleanup(10*time.Minute))
	assert.Equal(t, 1, rl.Len())
}

func TestRateLimiterHandler(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	app := newApp(zap.NewNop())
	app.Post("/login", rl.Handler(), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}
