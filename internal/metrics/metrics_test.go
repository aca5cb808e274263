package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/apperr"
)

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/missing/:id", func(c *fiber.Ctx) error { return apperr.New(apperr.NotFound, "no") })
	app.Get("/metrics", m.Handler())

	_, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest("GET", "/missing/42", nil))
	require.NoError(t, err)
	m.ContractCreated()
	m.MessageSent()
	m.ResetRequested("issued")

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	text := string(body)

	assert.Contains(t, text, `marketplace_http_requests_total{method="GET",route="/ok",status="200"} 1`)
	assert.Contains(t, text, `marketplace_http_requests_total{method="GET",route="/missing/:id",status="404"} 1`)
	assert.Contains(t, text, "marketplace_contracts_created_total 1")
	assert.Contains(t, text, "marketplace_messages_sent_total 1")
	assert.Contains(t, text, `marketplace_password_reset_requests_total{outcome="issued"} 1`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ContractCreated()
		m.MessageSent()
		m.ResetRequested("issued")
	})
}
