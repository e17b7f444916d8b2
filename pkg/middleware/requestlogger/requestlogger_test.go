package requestlogger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gaze-network/erc20-indexer/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	app := fiber.New()
	app.Use(New(Config{QuietPaths: []string{"/metrics"}}))
	app.Get("/v1/erc20/contracts/:address", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/broken", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusServiceUnavailable, "node unavailable")
	})

	t.Run("counts_by_route", func(t *testing.T) {
		counter := metrics.HTTPRequests.WithLabelValues("/v1/erc20/contracts/:address", http.MethodGet, "200")
		before := testutil.ToFloat64(counter)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/erc20/contracts/0xabc", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, before+1, testutil.ToFloat64(counter))
	})

	t.Run("error_status_from_fiber_error", func(t *testing.T) {
		counter := metrics.HTTPRequests.WithLabelValues("/broken", http.MethodGet, "503")
		before := testutil.ToFloat64(counter)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/broken", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, before+1, testutil.ToFloat64(counter))
	})
}
