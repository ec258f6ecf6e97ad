package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/confetex/taller-backend/api/controllers"
	"github.com/confetex/taller-backend/api/middleware"
	"github.com/confetex/taller-backend/internal/accesscontrol"
	customersvc "github.com/confetex/taller-backend/internal/customers"
	materialsvc "github.com/confetex/taller-backend/internal/materials"
	ordersvc "github.com/confetex/taller-backend/internal/orders"
	productsvc "github.com/confetex/taller-backend/internal/products"
	reportsvc "github.com/confetex/taller-backend/internal/reports"
	staffsvc "github.com/confetex/taller-backend/internal/staff"
	"github.com/confetex/taller-backend/pkg/config"
	"github.com/confetex/taller-backend/pkg/db"
	"github.com/confetex/taller-backend/pkg/logger"
	"github.com/confetex/taller-backend/pkg/redis"
)

// Deps bundles everything the route tree needs. Optional entries may be nil;
// the affected endpoints then degrade instead of panicking at wire time.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        db.Pinger
	Redis     *redis.Client
	Authority accesscontrol.Authority
	Registry  *prometheus.Registry

	Orders    ordersvc.Service
	Products  productsvc.Service
	Materials materialsvc.Service
	Customers customersvc.Service
	Staff     staffsvc.Service
	Reports   reportsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	// A nil *redis.Client must stay a nil interface for the downstream nil checks.
	var idemStore middleware.IdempotencyStore
	var cachePinger redis.Pinger
	if deps.Redis != nil {
		idemStore = deps.Redis
		cachePinger = deps.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, cachePinger, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.Login(deps.Staff, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RequireCapability(deps.Authority, accesscontrol.CapOrdersPlace, logg)).
				Post("/", controllers.PlaceOrder(deps.Orders, logg))
			r.With(middleware.RequireCapability(deps.Authority, accesscontrol.CapOrdersCancel, logg)).
				Post("/{orderID}/cancel", controllers.CancelOrder(deps.Orders, logg))
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.Get("/{orderID}", controllers.GetOrder(deps.Orders, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Products, logg))
			r.Get("/low-stock", controllers.ListLowStockProducts(deps.Products, logg))
			r.Get("/{productID}", controllers.GetProduct(deps.Products, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCapability(deps.Authority, accesscontrol.CapProductsWrite, logg))
				r.Post("/", controllers.CreateProduct(deps.Products, logg))
				r.Patch("/{productID}", controllers.UpdateProduct(deps.Products, logg))
				r.Delete("/{productID}", controllers.DeleteProduct(deps.Products, logg))
				r.Post("/{productID}/adjust-stock", controllers.AdjustProductStock(deps.Products, logg))
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.ListCategories(deps.Products, logg))
			r.With(middleware.RequireCapability(deps.Authority, accesscontrol.CapProductsWrite, logg)).
				Post("/", controllers.CreateCategory(deps.Products, logg))
		})

		r.Route("/materials", func(r chi.Router) {
			r.Get("/", controllers.ListMaterials(deps.Materials, logg))
			r.Get("/low-stock", controllers.ListLowStockMaterials(deps.Materials, logg))
			r.Get("/{materialID}", controllers.GetMaterial(deps.Materials, logg))
			r.Get("/{materialID}/movements", controllers.ListMovements(deps.Materials, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCapability(deps.Authority, accesscontrol.CapMaterialsWrite, logg))
				r.Post("/", controllers.CreateMaterial(deps.Materials, logg))
				r.Patch("/{materialID}", controllers.UpdateMaterial(deps.Materials, logg))
				r.Delete("/{materialID}", controllers.DeleteMaterial(deps.Materials, logg))
				r.Post("/{materialID}/movements", controllers.RecordMovement(deps.Materials, logg))
			})
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.ListCustomers(deps.Customers, logg))
			r.Get("/{customerID}", controllers.GetCustomer(deps.Customers, logg))

			// Sales staff own the customer directory.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCapability(deps.Authority, accesscontrol.CapOrdersPlace, logg))
				r.Post("/", controllers.CreateCustomer(deps.Customers, logg))
				r.Patch("/{customerID}", controllers.UpdateCustomer(deps.Customers, logg))
				r.Delete("/{customerID}", controllers.DeleteCustomer(deps.Customers, logg))
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(middleware.RequireCapability(deps.Authority, accesscontrol.CapReportsRead, logg))
			r.Get("/sales", controllers.SalesReport(deps.Reports, logg))
			r.Get("/top-products", controllers.TopProductsReport(deps.Reports, logg))
			r.Get("/material-consumption", controllers.MaterialConsumptionReport(deps.Reports, logg))
		})

		r.Route("/staff", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(deps.Authority, logg))
			r.Get("/", controllers.ListStaff(deps.Staff, logg))
			r.Post("/", controllers.CreateStaff(deps.Staff, logg))
			r.Patch("/{userID}/role", controllers.UpdateStaffRole(deps.Staff, logg))
			r.Post("/{userID}/deactivate", controllers.DeactivateStaff(deps.Staff, logg))
		})
	})

	return r
}
