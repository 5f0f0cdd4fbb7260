package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tillpoint/tillpoint-backend/api/controllers"
	"github.com/tillpoint/tillpoint-backend/api/middleware"
	businesssvc "github.com/tillpoint/tillpoint-backend/internal/businesses"
	customersvc "github.com/tillpoint/tillpoint-backend/internal/customers"
	expensesvc "github.com/tillpoint/tillpoint-backend/internal/expenses"
	inventorysvc "github.com/tillpoint/tillpoint-backend/internal/inventory"
	ordersvc "github.com/tillpoint/tillpoint-backend/internal/orders"
	productsvc "github.com/tillpoint/tillpoint-backend/internal/products"
	"github.com/tillpoint/tillpoint-backend/internal/rbac"
	subscriptionsvc "github.com/tillpoint/tillpoint-backend/internal/subscriptions"
	"github.com/tillpoint/tillpoint-backend/pkg/auth/session"
	"github.com/tillpoint/tillpoint-backend/pkg/config"
	"github.com/tillpoint/tillpoint-backend/pkg/db"
	"github.com/tillpoint/tillpoint-backend/pkg/logger"
	"github.com/tillpoint/tillpoint-backend/pkg/metrics"
	"github.com/tillpoint/tillpoint-backend/pkg/redis"
)

// NewRouter wires every HTTP surface: health probes and the authenticated
// v1 API. All business-scoped routes hang off /api/v1/businesses/{businessID}
// and are guarded by a permission check against the catalog.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	sessionChecker session.AccessSessionChecker,
	resolver *rbac.Resolver,
	checker *rbac.Checker,
	businessService businesssvc.Service,
	productService productsvc.Service,
	inventoryService inventorysvc.Service,
	orderService ordersvc.Service,
	customerService customersvc.Service,
	expenseService expensesvc.Service,
	subscriptionService subscriptionsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	perm := func(resource, action string) func(http.Handler) http.Handler {
		return middleware.RequirePermission(checker, resource, action, logg)
	}

	var idempotencyStore redis.IdempotencyStore
	if redisClient != nil {
		idempotencyStore = redisClient
	}
	rateLimitPolicy := middleware.RateLimitPolicy{
		Window: cfg.RateLimit.Window(),
		Limit:  cfg.RateLimit.Limit,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, resolver, logg))
		if redisClient != nil {
			r.Use(middleware.RateLimit(rateLimitPolicy, redisClient, logg))
		}
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/businesses", controllers.ListMyBusinesses(businessService, logg))
		r.With(perm("business", "create")).Post("/businesses", controllers.CreateBusiness(businessService, logg))

		r.Route("/businesses/{businessID}", func(r chi.Router) {
			r.With(perm("business", "view")).Get("/", controllers.GetBusiness(businessService, logg))
			r.With(perm("business", "update")).Patch("/", controllers.UpdateBusiness(businessService, logg))

			r.Route("/members", func(r chi.Router) {
				r.With(perm("members", "view")).Get("/", controllers.ListMembers(businessService, logg))
				r.With(perm("members", "add")).Post("/", controllers.AddMember(businessService, logg))
				r.With(perm("members", "update")).Patch("/{userID}", controllers.UpdateMemberRole(businessService, logg))
				r.With(perm("members", "remove")).Delete("/{userID}", controllers.RemoveMember(businessService, logg))
			})

			r.Route("/locations", func(r chi.Router) {
				r.With(perm("business", "view")).Get("/", controllers.ListLocations(businessService, logg))
				r.With(perm("business", "update")).Post("/", controllers.CreateLocation(businessService, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.With(perm("products", "view")).Get("/", controllers.ListProducts(productService, logg))
				r.With(perm("products", "create")).Post("/", controllers.CreateProduct(productService, logg))
				r.With(perm("products", "view")).Get("/{productID}", controllers.GetProduct(productService, logg))
				r.With(perm("products", "update")).Patch("/{productID}", controllers.UpdateProduct(productService, logg))
				r.With(perm("products", "delete")).Delete("/{productID}", controllers.DeactivateProduct(productService, logg))
			})

			r.Route("/customers", func(r chi.Router) {
				r.With(perm("customers", "view")).Get("/", controllers.ListCustomers(customerService, logg))
				r.With(perm("customers", "create")).Post("/", controllers.CreateCustomer(customerService, logg))
				r.With(perm("customers", "create")).Post("/lookup", controllers.LookupCustomer(customerService, logg))
				r.With(perm("customers", "view")).Get("/{customerID}", controllers.GetCustomer(customerService, logg))
				r.With(perm("customers", "update")).Patch("/{customerID}", controllers.UpdateCustomer(customerService, logg))
			})

			r.Route("/pos/sales", func(r chi.Router) {
				r.With(perm("pos", "view")).Get("/", controllers.ListSales(orderService, logg))
				r.With(perm("pos", "create")).Post("/", controllers.CreateSale(orderService, logg))
				r.With(perm("pos", "view")).Get("/{orderID}", controllers.GetSale(orderService, logg))
				r.With(perm("payments", "record")).Post("/{orderID}/payments", controllers.RecordPayment(orderService, logg))
				r.With(perm("pos", "void")).Post("/{orderID}/void", controllers.VoidSale(orderService, logg))
			})

			r.Route("/inventory", func(r chi.Router) {
				r.With(perm("inventory", "view")).Get("/stock", controllers.ListStock(inventoryService, logg))
				r.With(perm("inventory", "view")).Get("/movements", controllers.ListMovements(inventoryService, logg))
				r.With(perm("inventory", "adjust")).Post("/restock", controllers.Restock(inventoryService, logg))
				r.With(perm("inventory", "adjust")).Post("/adjustments", controllers.AdjustStock(inventoryService, logg))
				r.With(perm("inventory", "transfer")).Post("/transfer", controllers.TransferStock(inventoryService, logg))
			})

			r.Route("/expenses", func(r chi.Router) {
				r.With(perm("expenses", "view")).Get("/", controllers.ListExpenses(expenseService, logg))
				r.With(perm("expenses", "create")).Post("/", controllers.CreateExpense(expenseService, logg))
				r.With(perm("expenses", "view")).Get("/{expenseID}", controllers.GetExpense(expenseService, logg))
				r.With(perm("expenses", "update")).Patch("/{expenseID}", controllers.UpdateExpense(expenseService, logg))
				r.With(perm("expenses", "delete")).Delete("/{expenseID}", controllers.DeleteExpense(expenseService, logg))
			})

			r.Route("/subscription", func(r chi.Router) {
				r.With(perm("subscription", "view")).Get("/", controllers.GetSubscription(subscriptionService, logg))
				r.With(perm("subscription", "manage")).Post("/activate", controllers.ActivateSubscription(subscriptionService, logg))
				r.With(perm("subscription", "manage")).Post("/cancel", controllers.CancelSubscription(subscriptionService, logg))
			})
		})
	})

	return r
}
