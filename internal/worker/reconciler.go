package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Flickmart/flickmart-sub000/internal/domain"
	"github.com/Flickmart/flickmart-sub000/internal/repository"
	"github.com/Flickmart/flickmart-sub000/internal/usecase"
)

// Reconciler sweeps funding transactions that stayed pending past the TTL
// (missed webhook, user never returned from the payment page) and settles
// or fails them from the gateway's verified state.
type Reconciler struct {
	transactions repository.TransactionRepository
	ledger       repository.LedgerRepository
	gateway      usecase.PaymentGateway
	interval     time.Duration
	pendingTTL   time.Duration
	logger       *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewReconciler(
	transactions repository.TransactionRepository,
	ledger repository.LedgerRepository,
	gateway usecase.PaymentGateway,
	interval, pendingTTL time.Duration,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		transactions: transactions,
		ledger:       ledger,
		gateway:      gateway,
		interval:     interval,
		pendingTTL:   pendingTTL,
		logger:       logger,
	}
}

// Start launches the sweep loop. Stop cancels it and waits for the current
// sweep to finish.
func (r *Reconciler) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.logger.Info("reconciler started",
			zap.Duration("interval", r.interval),
			zap.Duration("pending_ttl", r.pendingTTL))
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sweep(ctx)
			}
		}
	}()
}

func (r *Reconciler) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.logger.Info("reconciler stopped")
}

func (r *Reconciler) sweep(ctx context.Context) {
	stale, err := r.transactions.ListStalePending(ctx, domain.TxTypeFunding, int(r.pendingTTL.Seconds()))
	if err != nil {
		r.logger.Error("reconciler sweep failed", zap.Error(err))
		return
	}
	for i := range stale {
		if ctx.Err() != nil {
			return
		}
		r.reconcile(ctx, &stale[i])
	}
}

func (r *Reconciler) reconcile(ctx context.Context, t *domain.Transaction) {
	v, err := r.gateway.VerifyTransaction(ctx, t.Reference)
	if err != nil {
		// Gateway hiccups resolve themselves; the next sweep retries.
		r.logger.Warn("reconciler verify failed",
			zap.String("reference", t.Reference),
			zap.Error(err))
		return
	}

	switch v.Status {
	case "success":
		applied, err := r.ledger.SettleFunding(ctx, t.Reference, v.GatewayRef)
		if err != nil {
			r.logger.Error("reconciler settle failed",
				zap.String("reference", t.Reference),
				zap.Error(err))
			return
		}
		if applied {
			r.logger.Info("reconciler settled missed deposit",
				zap.String("reference", t.Reference),
				zap.Int64("amount", t.Amount))
		}
	case "failed", "abandoned":
		err := r.ledger.MarkFailed(ctx, t.Reference)
		if err != nil && !errors.Is(err, domain.ErrTransactionNotPending) {
			r.logger.Error("reconciler mark-failed failed",
				zap.String("reference", t.Reference),
				zap.Error(err))
			return
		}
		r.logger.Info("reconciler closed dead deposit",
			zap.String("reference", t.Reference),
			zap.String("gateway_status", v.Status))
	}
}
