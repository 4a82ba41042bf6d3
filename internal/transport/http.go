package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"restomanage/internal/auth"
	"restomanage/internal/feedback"
	"restomanage/internal/httputil"
	"restomanage/internal/inventory"
	"restomanage/internal/order"
	"restomanage/internal/payment"
	"restomanage/internal/product"
	"restomanage/internal/production"
	"restomanage/internal/sale"
	"restomanage/internal/user"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	TokenManager *auth.TokenManager
	User         *user.Handler
	Inventory    *inventory.Handler
	Product      *product.Handler
	Production   *production.Handler
	Order        *order.Handler
	Payment      *payment.Handler
	Sale         *sale.Handler
	Feedback     *feedback.Handler
}

// NewRouter assembles the HTTP surface. Reads are open; mutations sit behind
// the role guards, which run before any handler work.
func NewRouter(h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.TokenManager.Authenticate)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", h.User.RegisterAuthRoutes)

	staffOnly := auth.RequireRole(auth.RoleAdmin, auth.RoleManager)
	anyAuthenticated := auth.RequireRole(auth.RoleAdmin, auth.RoleManager, auth.RoleCashier, auth.RoleCustomer)

	r.Route("/api/users", func(r chi.Router) {
		r.Use(staffOnly)
		h.User.RegisterRoutes(r)
	})

	r.Route("/api/inventory-items", func(r chi.Router) {
		h.Inventory.RegisterItemReadRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(staffOnly)
			h.Inventory.RegisterItemWriteRoutes(r)
		})
	})

	r.Route("/api/purchases", func(r chi.Router) {
		r.Use(staffOnly)
		h.Inventory.RegisterPurchaseRoutes(r)
	})

	r.Route("/api/products", func(r chi.Router) {
		h.Product.RegisterReadRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(staffOnly)
			h.Product.RegisterWriteRoutes(r)
		})
	})

	r.Route("/api/inventory-releases", func(r chi.Router) {
		h.Production.RegisterReleaseReadRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(staffOnly)
			h.Production.RegisterReleaseWriteRoutes(r)
		})
	})

	r.Route("/api/production-logs", func(r chi.Router) {
		h.Production.RegisterLogReadRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(staffOnly)
			h.Production.RegisterLogWriteRoutes(r)
		})
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(anyAuthenticated)
			h.Order.RegisterRoutes(r)
		})
		r.Route("/admin", func(r chi.Router) {
			r.Use(staffOnly)
			h.Order.RegisterAdminRoutes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(staffOnly)
			h.Order.RegisterProcessRoute(r)
		})
	})

	r.Route("/api/payments", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(staffOnly)
			h.Payment.RegisterReportRoutes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(anyAuthenticated)
			h.Payment.RegisterRoutes(r)
		})
	})

	r.Route("/api/sales", func(r chi.Router) {
		r.Use(auth.RequireRole(auth.RoleAdmin, auth.RoleManager, auth.RoleCashier))
		h.Sale.RegisterRoutes(r)
	})

	r.Route("/api/feedback", func(r chi.Router) {
		h.Feedback.RegisterReadRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(anyAuthenticated)
			h.Feedback.RegisterWriteRoutes(r)
		})
	})

	return r
}
