// Package v1 implements the V1 vault API.
package v1

import (
	"github.com/go-chi/chi/v5"

	"github.com/vestlock/vestlock/log"
	"github.com/vestlock/vestlock/metrics"
	"github.com/vestlock/vestlock/vault"
)

const moduleName = "api_v1"

// Handler is the V1 API handler.
type Handler struct {
	service *vault.Service
	logger  *log.Logger
	metrics metrics.RequestMetrics
}

// NewHandler creates a new V1 API handler.
func NewHandler(service *vault.Service, l *log.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  l.WithModule(moduleName),
		metrics: metrics.NewDefaultRequestMetrics(moduleName),
	}
}

// RegisterMiddlewares registers the handler's middlewares on the given router.
func (h *Handler) RegisterMiddlewares(r chi.Router) {
	r.Use(CorsMiddleware)
	r.Use(h.MetricsMiddleware)
}

// RegisterRoutes registers the V1 routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", h.InitializeAccount)
			r.Route("/{address}", func(r chi.Router) {
				r.Get("/", h.GetAccount)
				r.Post("/withdraw", h.Withdraw)
				r.Post("/revoke", h.Revoke)
			})
		})

		// Reference ledger bootstrap endpoints.
		r.Route("/holdings", func(r chi.Router) {
			r.Post("/", h.CreateHolding)
			r.Route("/{address}", func(r chi.Router) {
				r.Get("/", h.GetHolding)
				r.Post("/mint", h.Mint)
			})
		})
	})
}
