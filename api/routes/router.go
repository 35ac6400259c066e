package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coaltrack/coaltrack-backend/api/controllers"
	"github.com/coaltrack/coaltrack-backend/api/middleware"
	"github.com/coaltrack/coaltrack-backend/internal/allocation"
	exportsvc "github.com/coaltrack/coaltrack-backend/internal/exports"
	investorsvc "github.com/coaltrack/coaltrack-backend/internal/investors"
	mappingsvc "github.com/coaltrack/coaltrack-backend/internal/mappings"
	statsvc "github.com/coaltrack/coaltrack-backend/internal/stats"
	suppliersvc "github.com/coaltrack/coaltrack-backend/internal/suppliers"
	supplysvc "github.com/coaltrack/coaltrack-backend/internal/supplies"
	"github.com/coaltrack/coaltrack-backend/pkg/config"
	"github.com/coaltrack/coaltrack-backend/pkg/db"
	"github.com/coaltrack/coaltrack-backend/pkg/logger"
	pkgredis "github.com/coaltrack/coaltrack-backend/pkg/redis"
)

// Services bundles everything the HTTP layer depends on.
type Services struct {
	Suppliers *suppliersvc.Service
	Supplies  *supplysvc.Service
	Exports   *exportsvc.Service
	Investors *investorsvc.Service
	Mappings  *mappingsvc.Service
	Stats     *statsvc.Service
	Validator *allocation.Validator
	Engine    *allocation.Engine
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database db.Pinger,
	cache *pkgredis.Client,
	registry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, database, cache, logg))
	})
	r.Get("/healthz", controllers.HealthReady(cfg, database, cache, logg))

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		var store pkgredis.IdempotencyStore
		if cache != nil {
			store = cache
		}
		r.Use(middleware.Idempotency(store, logg))

		r.Route("/suppliers", func(r chi.Router) {
			r.Post("/", controllers.CreateSupplier(svcs.Suppliers, logg))
			r.Get("/", controllers.ListSuppliers(svcs.Suppliers, logg))
			r.Get("/{id}", controllers.GetSupplier(svcs.Suppliers, logg))
			r.Delete("/{id}", controllers.DeleteSupplier(svcs.Suppliers, logg))
		})

		r.Route("/supplies", func(r chi.Router) {
			r.Post("/", controllers.CreateSupply(svcs.Supplies, logg))
			r.Get("/", controllers.ListSupplies(svcs.Supplies, logg))
			r.Get("/{id}", controllers.GetSupply(svcs.Supplies, logg))
			r.Delete("/{id}", controllers.DeleteSupply(svcs.Supplies, logg))
			r.Get("/{id}/status", controllers.SupplyAllocationStatus(svcs.Validator, logg))
		})

		r.Route("/exports", func(r chi.Router) {
			r.Post("/", controllers.CreateExport(svcs.Exports, logg))
			r.Get("/", controllers.ListExports(svcs.Exports, logg))
			r.Get("/{id}", controllers.GetExport(svcs.Exports, logg))
			r.Post("/{id}/status", controllers.UpdateExportStatus(svcs.Exports, logg))
			r.Post("/{id}/investor", controllers.AssignExportInvestor(svcs.Exports, logg))
			r.Get("/{id}/status-summary", controllers.ExportAllocationStatus(svcs.Validator, logg))
			r.Get("/{id}/suggestions", controllers.SuggestAllocations(svcs.Engine, logg))
			r.Post("/{id}/auto-allocate", controllers.AutoAllocate(svcs.Engine, logg))
		})

		r.Route("/mappings", func(r chi.Router) {
			r.Post("/", controllers.CreateMapping(svcs.Engine, logg))
			r.Get("/", controllers.ListMappings(svcs.Mappings, logg))
			r.Get("/{id}", controllers.GetMapping(svcs.Mappings, logg))
			r.Delete("/{id}", controllers.DeleteMapping(svcs.Engine, logg))
		})

		r.Route("/allocations", func(r chi.Router) {
			r.Post("/validate", controllers.ValidateMapping(svcs.Validator, logg))
			r.Post("/validate-bulk", controllers.ValidateMappingsBulk(svcs.Validator, logg))
		})

		r.Route("/investors", func(r chi.Router) {
			r.Post("/", controllers.CreateInvestor(svcs.Investors, logg))
			r.Get("/", controllers.ListInvestors(svcs.Investors, logg))
			r.Get("/{id}", controllers.GetInvestor(svcs.Investors, logg))
			r.Get("/{id}/share-estimate", controllers.EstimateInvestorShare(svcs.Investors, logg))
		})

		r.Get("/stats/overview", controllers.StatsOverview(svcs.Stats, logg))
	})

	return r
}
