package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Flickmart/flickmart-sub000/internal/handler"
	"github.com/Flickmart/flickmart-sub000/internal/middleware"
)

type Handlers struct {
	Wallet   *handler.WalletHandler
	PIN      *handler.PINHandler
	Transfer *handler.TransferHandler
	Order    *handler.OrderHandler
	Gateway  *handler.GatewayHandler
	Bank     *handler.BankHandler
	Clerk    *handler.ClerkHandler
}

func New(h Handlers, jwtSecret string, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Webhooks authenticate by signature, not bearer token.
	r.Post("/webhooks/paystack", h.Gateway.HandleWebhook)
	r.Post("/webhooks/clerk", h.Clerk.HandleWebhook)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Auth(jwtSecret))

		api.Route("/wallet", func(wr chi.Router) {
			wr.Get("/", h.Wallet.HandleGetWallet)
			wr.Get("/transactions", h.Wallet.HandleListTransactions)
			wr.Get("/transactions/{reference}", h.Wallet.HandleGetTransaction)
			wr.Get("/notifications", h.Wallet.HandleListNotifications)
		})

		api.Route("/pin", func(pr chi.Router) {
			pr.Get("/", h.PIN.HandleCheckPIN)
			pr.Post("/", h.PIN.HandleCreatePIN)
			pr.Post("/verify", h.PIN.HandleVerifyPIN)
		})

		api.Post("/transfers", h.Transfer.HandleTransfer)
		api.Route("/transfers/sessions", func(sr chi.Router) {
			sr.Post("/", h.Transfer.HandleStartSession)
			sr.Get("/{sessionID}", h.Transfer.HandleGetSession)
			sr.Post("/{sessionID}/advance", h.Transfer.HandleAdvanceSession)
			sr.Post("/{sessionID}/back", h.Transfer.HandleSessionBack)
			sr.Delete("/{sessionID}", h.Transfer.HandleEndSession)
		})

		api.Route("/orders/{orderID}", func(or chi.Router) {
			or.Get("/", h.Order.HandleGetOrder)
			or.Post("/confirm", h.Order.HandleConfirmCompletion)
			or.Post("/refund", h.Order.HandleRefund)
		})

		api.Route("/deposits", func(dr chi.Router) {
			dr.Post("/", h.Gateway.HandleInitializeDeposit)
			dr.Get("/{reference}/verify", h.Gateway.HandleVerifyDeposit)
			dr.Post("/{reference}/cancel", h.Gateway.HandleCancelDeposit)
		})
		api.Post("/withdrawals", h.Gateway.HandleWithdraw)

		api.Route("/banks", func(br chi.Router) {
			br.Get("/", h.Bank.HandleListBanks)
			br.Get("/resolve", h.Bank.HandleResolveAccount)
		})
		api.Route("/bank-accounts", func(br chi.Router) {
			br.Get("/", h.Bank.HandleListAccounts)
			br.Post("/", h.Bank.HandleAddAccount)
			br.Delete("/{accountID}", h.Bank.HandleDeleteAccount)
		})
	})

	return r
}
