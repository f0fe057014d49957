package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/marketplace/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, enriched with
// correlation_id, market_id, role, trace_id and span_id. Mount it after
// RequestLogging, Tracing and Auth so those fields are already present.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
