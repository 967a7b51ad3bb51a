package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/KathiravanBCS/nexa-ai/pkg/logger"
)

// RequestID tags every request with a short id for log correlation and logs
// the request outcome.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()[:8]
		ctx := logger.ContextWithRequestID(r.Context(), requestID)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))

		slog.InfoContext(ctx, "Handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String(),
		)
	})
}
