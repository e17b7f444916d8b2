package logger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
)

// middlewareError adds the verbose form of the first error attribute, which
// for cockroachdb errors includes the wrap chain and the recorded stack.
func middlewareError() middleware {
	return func(next handleFunc) handleFunc {
		return func(ctx context.Context, rec slog.Record) error {
			var verbose string
			rec.Attrs(func(attr slog.Attr) bool {
				if attr.Key != slogx.ErrorKey {
					return true
				}
				if err, ok := attr.Value.Any().(error); ok && err != nil {
					verbose = fmt.Sprintf("%+v", err)
					return false
				}
				return true
			})
			if verbose != "" {
				rec.AddAttrs(slog.String(ErrorVerboseKey, verbose))
			}
			return next(ctx, rec)
		}
	}
}
