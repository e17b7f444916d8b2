package errorhandler

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/common"
	"github.com/gaze-network/erc20-indexer/common/errs"
	"github.com/gaze-network/erc20-indexer/pkg/logger"
	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
	"github.com/gofiber/fiber/v2"
)

type errorResponse = common.HttpResponse[any]

// NewHTTPErrorHandler returns a fiber error handler that renders errors in the `{"error": ...}` response shape.
// Public errors are returned with their own status and message, timeouts of upstream stores as 503 and everything else as 500.
func NewHTTPErrorHandler() func(ctx *fiber.Ctx, err error) error {
	return func(ctx *fiber.Ctx, err error) error {
		if e := new(errs.PublicError); errors.As(err, &e) {
			return respond(ctx, e.Status(), e.Message())
		}
		if e := new(fiber.Error); errors.As(err, &e) {
			return respond(ctx, e.Code, e.Message)
		}
		if errors.Is(err, errs.Timeout) {
			logger.WarnContext(ctx.UserContext(), "Upstream timeout while handling api request",
				slogx.String("event", "api_upstream_timeout"),
				slogx.Error(err),
			)
			return respond(ctx, http.StatusServiceUnavailable, "Service Unavailable")
		}

		logger.ErrorContext(ctx.UserContext(), "Something went wrong, unhandled api error",
			slogx.String("event", "api_unhandled_error"),
			slogx.Error(err),
		)
		return respond(ctx, http.StatusInternalServerError, "Internal Server Error")
	}
}

func respond(ctx *fiber.Ctx, status int, message string) error {
	return errors.WithStack(ctx.Status(status).JSON(errorResponse{Error: &message}))
}
