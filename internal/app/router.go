package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artemoderno/storefront/internal/auth"
	"github.com/artemoderno/storefront/internal/cart"
	"github.com/artemoderno/storefront/internal/catalog"
	"github.com/artemoderno/storefront/internal/customers"
	"github.com/artemoderno/storefront/internal/leads"
	"github.com/artemoderno/storefront/internal/observability"
	"github.com/artemoderno/storefront/internal/orders"
	"github.com/artemoderno/storefront/internal/platform/httpx"
	"github.com/artemoderno/storefront/internal/shared"
	"github.com/artemoderno/storefront/internal/view"
	"github.com/artemoderno/storefront/jobs"
	"github.com/artemoderno/storefront/report"
	"github.com/artemoderno/storefront/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	CatalogHandler      *catalog.Handler
	CartHandler         *cart.Handler
	CheckoutHandler     *orders.Handler
	CustomerHandler     *customers.Handler
	LeadHandler         *leads.Handler
	AuthHandler         *auth.Handler
	CatalogAdminHandler *catalog.AdminHandler
	OrdersAdminHandler  *orders.AdminHandler
	ReportHandler       *report.Handler
	JobHandler          *jobs.Handler
}

// NewRouter constructs the chi.Router with storefront defaults.
func NewRouter(params RouterParams) http.Handler {
	mwCfg := MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(mwCfg) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Handle("/static/*", staticCacheHandler(http.StripPrefix("/static/", http.FileServer(http.FS(web.Static())))))
	if params.Config != nil && params.Config.ProductImageDir != "" {
		images := http.StripPrefix("/static/product-images/", http.FileServer(http.Dir(params.Config.ProductImageDir)))
		r.Handle("/static/product-images/*", staticCacheHandler(images))
	}

	notFound := func(w http.ResponseWriter, r *http.Request) {
		params.Templates.NotFound(w, r, params.CSRFManager, params.Logger)
	}

	r.Group(func(r chi.Router) {
		for _, mw := range SessionStack(mwCfg) {
			r.Use(mw)
		}

		params.CatalogHandler.MountRoutes(r)
		params.CartHandler.MountRoutes(r)
		params.CheckoutHandler.MountRoutes(r)
		params.CustomerHandler.MountRoutes(r)
		if params.LeadHandler != nil {
			params.LeadHandler.MountRoutes(r)
		}

		r.Route("/admin", func(r chi.Router) {
			// The subrouter already runs inside the session group.
			r.NotFound(notFound)
			params.AuthHandler.MountRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				r.Get("/", func(w http.ResponseWriter, r *http.Request) {
					http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
				})
				params.CatalogAdminHandler.MountRoutes(r)
				params.OrdersAdminHandler.MountRoutes(r)
				if params.LeadHandler != nil {
					params.LeadHandler.MountAdminRoutes(r)
				}
				if params.ReportHandler != nil {
					r.Route("/report", params.ReportHandler.MountRoutes)
				}
				if params.JobHandler != nil {
					r.Route("/jobs", params.JobHandler.MountRoutes)
				}
			})
		})

		// Registered on the group so unknown paths still get a session.
		r.NotFound(notFound)
	})

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
