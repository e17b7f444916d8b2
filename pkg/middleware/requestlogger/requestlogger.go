package requestlogger

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/internal/metrics"
	"github.com/gaze-network/erc20-indexer/pkg/logger"
	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
	"github.com/gaze-network/erc20-indexer/pkg/middleware/requestcontext"
	"github.com/gofiber/fiber/v2"
)

type Config struct {
	WithRequestHeader    bool     `mapstructure:"request_header"`
	Disable              bool     `mapstructure:"disable"` // Disable logger level `INFO`
	HiddenRequestHeaders []string `mapstructure:"hidden_request_headers"`

	// Paths that are never logged at level `INFO`, e.g. scrape and health endpoints.
	QuietPaths []string `mapstructure:"quiet_paths"`
}

// New logs every completed request and records it in the API metrics.
func New(config Config) fiber.Handler {
	hiddenRequestHeaders := make(map[string]struct{}, len(config.HiddenRequestHeaders))
	for _, header := range config.HiddenRequestHeaders {
		hiddenRequestHeaders[strings.TrimSpace(strings.ToLower(header))] = struct{}{}
	}
	quietPaths := make(map[string]struct{}, len(config.QuietPaths))
	for _, path := range config.QuietPaths {
		quietPaths[path] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			// the error handler has not written the response yet
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				status = fiberErr.Code
			} else if status < http.StatusBadRequest {
				status = http.StatusInternalServerError
			}
		}

		route := c.Route().Path
		metrics.HTTPRequests.WithLabelValues(route, c.Method(), strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route, c.Method()).Observe(latency.Seconds())

		level := slog.LevelInfo
		if err != nil || status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		if level == slog.LevelInfo {
			if config.Disable {
				return errors.WithStack(err)
			}
			if _, quiet := quietPaths[c.Path()]; quiet {
				return errors.WithStack(err)
			}
		}

		requestAttrs := []slog.Attr{
			slogx.String("method", c.Method()),
			slogx.String("path", c.Path()),
			slogx.String("route", route),
			slogx.String("ip", requestcontext.GetClientIP(c.UserContext())),
			slogx.String("user_agent", string(c.Context().UserAgent())),
			slogx.Any("params", c.AllParams()),
			slogx.Any("query", c.Queries()),
		}
		if config.WithRequestHeader {
			headers := make([]any, 0)
			for k, v := range c.GetReqHeaders() {
				if _, hidden := hiddenRequestHeaders[strings.ToLower(k)]; hidden {
					continue
				}
				headers = append(headers, slogx.Any(k, v))
			}
			requestAttrs = append(requestAttrs, slogx.Group("header", headers...))
		}

		attrs := []slog.Attr{
			slogx.String("event", "api_request"),
			slogx.Duration("latency", latency),
			{Key: "request", Value: slog.GroupValue(requestAttrs...)},
			{Key: "response", Value: slog.GroupValue(
				slogx.Int("status", status),
				slogx.Int("length", len(c.Response().Body())),
			)},
		}
		if level == slog.LevelError {
			logErr := err
			if logErr == nil {
				logErr = fiber.NewError(status)
			}
			attrs = append(attrs, slogx.Error(logErr))
		}

		logger.LogAttrs(c.UserContext(), level, "Request Completed", attrs...)
		return errors.WithStack(err)
	}
}
