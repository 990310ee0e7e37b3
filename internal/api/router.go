package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Lot-Ledger-Backend/internal/api/middleware"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/config"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/service"
)

// Services holds the services the router dispatches to.
type Services struct {
	System  *service.SystemService
	Account *service.AccountService
	Lot     *service.LotService
	Sale    *service.SaleService
	Gain    *service.GainService
}

// NewRouter creates and configures the HTTP router
func NewRouter(services Services, cfg *config.Config, logger *logrus.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	systemHandler := handlers.NewSystemHandler(services.System)
	accountHandler := handlers.NewAccountHandler(services.Account, services.Lot, services.Sale, services.Gain)
	lotHandler := handlers.NewLotHandler(services.Lot, services.Gain)
	saleHandler := handlers.NewSaleHandler(services.Sale)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/account", func(r chi.Router) {
			r.Get("/", accountHandler.Accounts)
			r.Post("/", accountHandler.CreateAccount)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", accountHandler.GetAccount)
				r.Get("/gain", accountHandler.GainSummary)
				r.Get("/lot", accountHandler.Lots)
				r.Get("/sale", accountHandler.Sales)
				r.Get("/sale/preview", accountHandler.PreviewSale)
			})
		})

		r.Route("/lot", func(r chi.Router) {
			r.Post("/", lotHandler.CreateLot)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", lotHandler.GetLot)
				r.Delete("/", lotHandler.DeleteLot)
				r.Get("/balance", lotHandler.Balance)
			})
		})

		r.Route("/sale", func(r chi.Router) {
			r.Post("/", saleHandler.CreateSale)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", saleHandler.GetSale)
				r.Delete("/", saleHandler.DeleteSale)
				r.Put("/reinvestment", saleHandler.LinkReinvestment)
			})
		})
	})

	return r
}
