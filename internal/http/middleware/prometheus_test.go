package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInstrumentedApp(t *testing.T) (*fiber.App, *PrometheusMiddleware, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	pm, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(pm.Handler())
	app.Get(MetricsPath, Metrics(reg))
	app.Get("/api/pdfs/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Delete("/api/pdfs/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Post("/api/process-answer", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadGateway, "grader down")
	})
	return app, pm, reg
}

func TestPrometheusMiddleware_CountsByRoutePattern(t *testing.T) {
	app, pm, _ := newInstrumentedApp(t)

	tests := []struct {
		method, target string
		labels         []string
	}{
		{method: "GET", target: "/api/pdfs/6f1c", labels: []string{"GET", "/api/pdfs/:id", "200"}},
		{method: "GET", target: "/api/pdfs/9a2b", labels: []string{"GET", "/api/pdfs/:id", "200"}},
		{method: "DELETE", target: "/api/pdfs/6f1c", labels: []string{"DELETE", "/api/pdfs/:id", "204"}},
		{method: "POST", target: "/api/process-answer", labels: []string{"POST", "/api/process-answer", "502"}},
	}
	for _, tt := range tests {
		_, err := app.Test(httptest.NewRequest(tt.method, tt.target, nil))
		require.NoError(t, err)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(pm.requestCount.WithLabelValues("GET", "/api/pdfs/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.requestCount.WithLabelValues("DELETE", "/api/pdfs/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.requestCount.WithLabelValues("POST", "/api/process-answer", "502")))
	assert.Equal(t, 3, testutil.CollectAndCount(pm.requestCount))
	assert.Equal(t, 3, testutil.CollectAndCount(pm.requestDuration))
}

func TestPrometheusMiddleware_ExcludesMetricsEndpoint(t *testing.T) {
	app, pm, _ := newInstrumentedApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", MetricsPath, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Zero(t, testutil.CollectAndCount(pm.requestCount))
	assert.Zero(t, testutil.CollectAndCount(pm.requestDuration))
}

func TestMetricsHandler_ExposesRecordedRequests(t *testing.T) {
	app, _, _ := newInstrumentedApp(t)

	_, err := app.Test(httptest.NewRequest("GET", "/api/pdfs/6f1c", nil))
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", MetricsPath, nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `http_requests_total{method="GET",path="/api/pdfs/:id",status="200"} 1`)
	assert.Contains(t, string(body), `http_request_duration_seconds_count{method="GET",path="/api/pdfs/:id"} 1`)
}

func TestNewPrometheusMiddleware_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	_, err = NewPrometheusMiddleware(reg)
	assert.Error(t, err)
}
