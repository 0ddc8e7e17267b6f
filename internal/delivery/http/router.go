package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/dukahub/pos-api/internal/config"
	"github.com/dukahub/pos-api/internal/delivery/http/handler"
	"github.com/dukahub/pos-api/internal/delivery/http/middleware"
	"github.com/dukahub/pos-api/internal/delivery/http/response"
	"github.com/dukahub/pos-api/internal/domain"
	"github.com/dukahub/pos-api/internal/pkg/logger"
	"github.com/dukahub/pos-api/internal/usecase/auth"
)

// Router holds HTTP handlers and router configuration
type Router struct {
	productHandler   *handler.ProductHandler
	saleHandler      *handler.SaleHandler
	dashboardHandler *handler.DashboardHandler
	userHandler      *handler.UserHandler
	settingsHandler  *handler.SettingsHandler
	paymentHandler   *handler.PaymentHandler
	authService      *auth.Service
	logger           *logger.Logger
	cfg              *config.Config
}

// NewRouter creates a new HTTP router
func NewRouter(
	productHandler *handler.ProductHandler,
	saleHandler *handler.SaleHandler,
	dashboardHandler *handler.DashboardHandler,
	userHandler *handler.UserHandler,
	settingsHandler *handler.SettingsHandler,
	paymentHandler *handler.PaymentHandler,
	authService *auth.Service,
	cfg *config.Config,
	log *logger.Logger,
) *Router {
	return &Router{
		productHandler:   productHandler,
		saleHandler:      saleHandler,
		dashboardHandler: dashboardHandler,
		userHandler:      userHandler,
		settingsHandler:  settingsHandler,
		paymentHandler:   paymentHandler,
		authService:      authService,
		logger:           log,
		cfg:              cfg,
	}
}

// Setup configures and returns the HTTP router
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logger(rt.logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", rt.healthCheck)
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", rt.userHandler.Login)

		// All other routes require a valid token
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(rt.authService))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", rt.productHandler.List)
				r.Get("/inventory", rt.productHandler.Inventory)
				r.Get("/{id}", rt.productHandler.GetByID)
				r.Post("/", rt.productHandler.Create)
				r.Put("/{id}", rt.productHandler.Update)
				r.Patch("/{id}/stock", rt.productHandler.UpdateStock)
				r.Post("/{id}/deactivate", rt.productHandler.Deactivate)
				r.With(middleware.RequireRole(domain.RoleAdmin)).Delete("/{id}", rt.productHandler.Delete)
			})

			r.Get("/categories", rt.productHandler.Categories)
			r.Get("/brands", rt.productHandler.Brands)

			r.Route("/sales", func(r chi.Router) {
				r.Post("/", rt.saleHandler.Create)
				r.Get("/", rt.saleHandler.List)
				r.Get("/{id}", rt.saleHandler.GetByID)
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/metrics", rt.dashboardHandler.Metrics)
				r.Get("/sales-chart", rt.dashboardHandler.SalesChart)
				r.Get("/stock-alerts", rt.dashboardHandler.StockAlerts)
				r.Get("/payment-methods", rt.dashboardHandler.PaymentMethods)
			})

			r.Post("/payments/stkpush", rt.paymentHandler.STKPush)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))

				r.Route("/users", func(r chi.Router) {
					r.Get("/", rt.userHandler.List)
					r.Post("/", rt.userHandler.Create)
				})

				r.Route("/settings", func(r chi.Router) {
					r.Get("/", rt.settingsHandler.GetAll)
					r.Post("/store", rt.settingsHandler.UpdateStore)
					r.Post("/receipt", rt.settingsHandler.UpdateReceipt)
					r.Post("/backup", rt.settingsHandler.RunBackup)
				})
			})
		})
	})

	return r
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
