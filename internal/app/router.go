package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/printhouse-ops/printhouse/internal/invoices"
	"github.com/printhouse-ops/printhouse/internal/observability"
	"github.com/printhouse-ops/printhouse/internal/orders"
	"github.com/printhouse-ops/printhouse/internal/procurement"
	"github.com/printhouse-ops/printhouse/internal/quotes"
	"github.com/printhouse-ops/printhouse/jobs"
	"github.com/printhouse-ops/printhouse/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	QuotesHandler      *quotes.Handler
	OrdersHandler      *orders.Handler
	InvoicesHandler    *invoices.Handler
	ProcurementHandler *procurement.Handler
	JobsHandler        *jobs.Handler
	ReportHandler      *report.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with the standard middleware chain.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		if params.QuotesHandler != nil {
			params.QuotesHandler.MountRoutes(r)
		}
		if params.OrdersHandler != nil {
			params.OrdersHandler.MountRoutes(r)
		}
		if params.InvoicesHandler != nil {
			params.InvoicesHandler.MountRoutes(r)
		}
		if params.ProcurementHandler != nil {
			params.ProcurementHandler.MountRoutes(r)
		}
	})

	if params.ReportHandler != nil {
		r.Route("/report", params.ReportHandler.MountRoutes)
	}

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
