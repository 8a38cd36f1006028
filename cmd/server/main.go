package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Flickmart/flickmart-sub000/internal/config"
	"github.com/Flickmart/flickmart-sub000/internal/handler"
	"github.com/Flickmart/flickmart-sub000/internal/provider/paystack"
	"github.com/Flickmart/flickmart-sub000/internal/repository"
	"github.com/Flickmart/flickmart-sub000/internal/router"
	"github.com/Flickmart/flickmart-sub000/internal/usecase"
	"github.com/Flickmart/flickmart-sub000/internal/worker"
	"github.com/Flickmart/flickmart-sub000/pkg/cache"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("config: " + err.Error())
	}

	var logger *zap.Logger
	if cfg.Server.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic("logger: " + err.Error())
	}
	defer logger.Sync()
	logger = logger.With(zap.String("instance_id", uuid.NewString()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("postgres ping failed", zap.Error(err))
	}
	if err := repository.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal("schema migration failed", zap.Error(err))
	}

	redisCache := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer redisCache.Close()

	// Repositories.
	users := repository.NewUserRepository(pool)
	wallets := repository.NewWalletRepository(pool)
	transactions := repository.NewTransactionRepository(pool)
	ledger := repository.NewLedgerRepository(pool)
	orders := repository.NewOrderRepository(pool)
	pins := repository.NewPINRepository(pool)
	bankAccounts := repository.NewBankAccountRepository(pool)
	products := repository.NewProductRepository(pool)
	notifications := repository.NewNotificationRepository(pool)

	// Providers.
	gateway := paystack.NewClient(cfg.Paystack, logger)

	// Usecases.
	notifier := usecase.NewNotifier(notifications, logger)
	pinUC := usecase.NewPINUsecase(pins, redisCache, logger)
	walletUC := usecase.NewWalletUsecase(wallets, transactions, notifications, logger)
	transferUC := usecase.NewTransferUsecase(wallets, products, ledger, pinUC, notifier, logger)
	orderUC := usecase.NewOrderUsecase(orders, ledger, notifier, logger)
	gatewayUC := usecase.NewGatewayUsecase(users, wallets, ledger, transactions, bankAccounts, gateway, notifier, cfg.Paystack.CallbackURL, logger)
	bankUC := usecase.NewBankUsecase(bankAccounts, gateway, redisCache, logger)
	sessionUC := usecase.NewSessionUsecase(redisCache, logger)

	// HTTP surface.
	handlers := router.Handlers{
		Wallet:   handler.NewWalletHandler(walletUC, logger),
		PIN:      handler.NewPINHandler(pinUC, logger),
		Transfer: handler.NewTransferHandler(transferUC, sessionUC, logger),
		Order:    handler.NewOrderHandler(orderUC, logger),
		Gateway:  handler.NewGatewayHandler(gatewayUC, gateway, logger),
		Bank:     handler.NewBankHandler(bankUC, logger),
		Clerk:    handler.NewClerkHandler(users, cfg.Clerk.WebhookSecret, logger),
	}
	r := router.New(handlers, cfg.Auth.JWTSecret, logger)

	reconciler := worker.NewReconciler(transactions, ledger, gateway,
		cfg.Reconciler.Interval, cfg.Reconciler.PendingTTL, logger)
	reconciler.Start(ctx)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	reconciler.Stop()
	logger.Info("shutdown complete")
}
