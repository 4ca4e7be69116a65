package middleware

import (
	"context"
	"log/slog"
	"time"

	"partywire/codec"
)

// LoggingMiddleware logs every frame at debug level and every rejected frame
// at warn level. A nil logger uses slog.Default().
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) ([]byte, error) {
			start := time.Now()
			out, err := next(ctx, req)
			duration := time.Since(start)
			if err != nil {
				attrs := []any{
					"controller", req.ControllerID,
					"bytes", len(req.Payload),
					"duration", duration,
					"error", err,
				}
				if kind := codec.KindOf(err); kind != 0 {
					attrs = append(attrs, "kind", kind.String())
				}
				logger.WarnContext(ctx, "controller frame rejected", attrs...)
				return out, err
			}
			logger.DebugContext(ctx, "controller frame",
				"controller", req.ControllerID,
				"bytes", len(req.Payload),
				"duration", duration,
			)
			return out, nil
		}
	}
}
