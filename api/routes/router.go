package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brightwash/orderdesk-backend/api/controllers"
	"github.com/brightwash/orderdesk-backend/api/middleware"
	"github.com/brightwash/orderdesk-backend/internal/catalog"
	"github.com/brightwash/orderdesk-backend/internal/draft"
	"github.com/brightwash/orderdesk-backend/internal/orders"
	"github.com/brightwash/orderdesk-backend/pkg/config"
	"github.com/brightwash/orderdesk-backend/pkg/logger"
	"github.com/brightwash/orderdesk-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface needs.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger

	Catalog     catalog.Service
	Customers   controllers.CustomerDirectory
	Drafts      draft.Service
	Submitter   orders.Submitter
	Journal     controllers.SubmissionJournal
	Idempotency redis.IdempotencyStore

	Registry        *prometheus.Registry
	ReadinessChecks []controllers.ReadinessCheck
	AllowedOrigins  []string
}

// NewRouter assembles the order desk API.
func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	router := chi.NewRouter()
	router.Use(middleware.Recoverer(logg))
	router.Use(middleware.RequestID(logg))
	router.Use(middleware.Logging(logg))
	router.Use(middleware.CORS(params.AllowedOrigins))

	router.Get("/health/live", controllers.HealthLive(cfg))
	router.Get("/health/ready", controllers.HealthReady(cfg, logg, params.ReadinessChecks...))

	if params.Registry != nil {
		router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Registry, promhttp.HandlerOpts{}))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/categories", controllers.CatalogCategories(params.Catalog, logg))
			r.Get("/product-types", controllers.CatalogProductTypes(params.Catalog, logg))
			r.Get("/product-types/{productTypeId}/offerings", controllers.CatalogOfferings(params.Catalog, logg))
			r.Post("/refresh", controllers.CatalogRefresh(params.Catalog, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.CustomersSearch(params.Customers, logg))
			r.Get("/{customerId}", controllers.CustomersGet(params.Customers, logg))
		})

		r.Route("/drafts", func(r chi.Router) {
			if params.Idempotency != nil {
				r.Use(middleware.Idempotency(params.Idempotency, logg))
			}

			r.Post("/", controllers.DraftCreate(params.Drafts, logg))
			r.Route("/{draftId}", func(r chi.Router) {
				r.Get("/", controllers.DraftGet(params.Drafts, logg))
				r.Patch("/", controllers.DraftUpdate(params.Drafts, logg))
				r.Delete("/", controllers.DraftAbandon(params.Drafts, logg))

				r.Post("/items", controllers.DraftAddLine(params.Drafts, logg))
				r.Patch("/items/{lineId}", controllers.DraftUpdateLine(params.Drafts, logg))
				r.Delete("/items/{lineId}", controllers.DraftRemoveLine(params.Drafts, logg))

				r.Get("/validation", controllers.DraftValidation(params.Drafts, logg))
				r.Post("/submit", controllers.DraftSubmit(params.Submitter, logg))
				r.Get("/submissions", controllers.SubmissionsByDraft(params.Journal, logg))
			})
		})

		r.Route("/submissions", func(r chi.Router) {
			r.Get("/", controllers.SubmissionsRecent(params.Journal, logg))
			r.Get("/{submissionId}", controllers.SubmissionsGet(params.Journal, logg))
		})
	})

	return router
}
