package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"
)

// ContextKey is the type of keys the API sets on request contexts.
type ContextKey string

// RequestIDContextKey is used to set a request id for tracing in a request
// context.
const RequestIDContextKey ContextKey = "request_id"

// CorsMiddleware handles cross-origin requests, including OPTIONS preflight
// for the POST endpoints. It must be the outermost handler.
var CorsMiddleware func(http.Handler) http.Handler = cors.New(cors.Options{
	AllowedMethods: []string{
		http.MethodGet,
		http.MethodPost,
	},
	AllowCredentials: false,
}).Handler

// MetricsMiddleware measures the start and end of each request and assigns it
// a request id for tracing.
func (h *Handler) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New()

		h.logger.Debug("starting request",
			"endpoint", r.URL.Path,
			"request_id", requestID,
		)

		t := time.Now()
		timer := h.metrics.RequestTimer(r.URL.Path)
		defer func() {
			h.logger.Debug("ending request",
				"endpoint", r.URL.Path,
				"request_id", requestID,
				"time", time.Since(t),
			)
			timer.ObserveDuration()
		}()

		next.ServeHTTP(w, r.WithContext(
			context.WithValue(r.Context(), RequestIDContextKey, requestID),
		))
	})
}
