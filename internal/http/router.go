package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sahanj/shopledger/internal/auth"
	"github.com/sahanj/shopledger/internal/http/credit"
	"github.com/sahanj/shopledger/internal/http/expense"
	"github.com/sahanj/shopledger/internal/http/inventory"
	"github.com/sahanj/shopledger/internal/http/quotation"
	"github.com/sahanj/shopledger/internal/http/sale"
	"github.com/sahanj/shopledger/internal/http/user"
)

// Handlers groups the per-domain handlers the router mounts.
type Handlers struct {
	Inventory *inventory.Handler
	Expense   *expense.Handler
	Sale      *sale.Handler
	Credit    *credit.Handler
	Quotation *quotation.Handler
	User      *user.Handler
}

// New builds the API router. Every route except login requires a valid
// token; mutating routes on most resources additionally require L2.
func New(a *auth.Auth, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			h.User.PublicRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(a.Authenticate)
				h.User.Routes(r)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireLevel2)
					h.User.AdminRoutes(r)
				})
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(a.Authenticate)

			r.Route("/inventory", func(r chi.Router) {
				h.Inventory.Routes(r)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireLevel2)
					h.Inventory.AdminRoutes(r)
				})
			})

			r.Route("/expenses", func(r chi.Router) {
				h.Expense.Routes(r)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireLevel2)
					h.Expense.AdminRoutes(r)
				})
			})

			r.Route("/sales", func(r chi.Router) {
				h.Sale.Routes(r)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireLevel2)
					h.Sale.AdminRoutes(r)
				})
			})

			r.Route("/credit", func(r chi.Router) {
				h.Credit.Routes(r)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireLevel2)
					h.Credit.AdminRoutes(r)
				})
			})

			r.Route("/quotations", h.Quotation.Routes)
		})
	})

	return router
}
