package requestcontext

import (
	"context"

	"github.com/gaze-network/erc20-indexer/pkg/logger"
	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// maxRequestIdLength bounds caller-supplied ids before they reach the logs.
const maxRequestIdLength = 128

type requestIdKey struct{}

// GetRequestId returns the request id set by [WithRequestId], or an empty string.
func GetRequestId(ctx context.Context) string {
	id, _ := ctx.Value(requestIdKey{}).(string)
	return id
}

// WithRequestId reuses the id from the requestid middleware or the X-Request-ID header,
// generating a UUID when neither is usable, and attaches it to the context logger.
func WithRequestId() Option {
	return func(ctx context.Context, c *fiber.Ctx) (context.Context, error) {
		id := resolveRequestId(c)
		c.Set(requestid.ConfigDefault.Header, id)
		c.Locals(requestid.ConfigDefault.ContextKey, id)

		ctx = context.WithValue(ctx, requestIdKey{}, id)
		return logger.WithContext(ctx, slogx.String("request_id", id)), nil
	}
}

func resolveRequestId(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok && validRequestId(id) {
		return id
	}
	if id := c.Get(requestid.ConfigDefault.Header); validRequestId(id) {
		return id
	}
	return uuid.NewString()
}

func validRequestId(id string) bool {
	return id != "" && len(id) <= maxRequestIdLength
}
