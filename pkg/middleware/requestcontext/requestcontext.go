package requestcontext

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common"
	"github.com/gaze-network/erc20-indexer/pkg/logger"
	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
	"github.com/gofiber/fiber/v2"
)

// rejectError aborts the request with the given status and public message.
type rejectError struct {
	status  int
	message string
}

func (r rejectError) Error() string {
	return r.message
}

type Option func(ctx context.Context, c *fiber.Ctx) (context.Context, error)

// New runs the options in order and stores the resulting context as the request's user context.
func New(opts ...Option) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var err error
		ctx := c.UserContext()
		for i, opt := range opts {
			ctx, err = opt(ctx, c)
			if err != nil {
				var reject rejectError
				if errors.As(err, &reject) {
					return c.Status(reject.status).JSON(common.HttpResponse[any]{Error: &reject.message})
				}

				logger.ErrorContext(ctx, "Failed to extract request context",
					slogx.Error(err),
					slogx.String("event", "requestcontext_error"),
					slogx.Int("option_index", i),
				)
				message := "internal server error"
				return c.Status(http.StatusInternalServerError).JSON(common.HttpResponse[any]{Error: &message})
			}
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}
