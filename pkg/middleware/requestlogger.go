package middleware

import (
	"log/slog"
	"net/http"

	"github.com/wayfarelab/wayfare/pkg/logger"
)

// RequestLogger builds a request-scoped logger enriched with request_id,
// trace_id and span_id, and stores it in context via logger.NewContext.
// Downstream handlers retrieve it with logger.FromContext(ctx).
//
// Mount AFTER RequestLogging (which sets request_id) and Tracing (which sets
// the OpenTelemetry span context). The authentication middleware re-enriches
// the context logger with user_id once the caller is known.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			enriched := logger.WithContext(ctx, base)
			ctx = logger.NewContext(ctx, enriched)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
