package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Flickmart/flickmart-sub000/internal/domain"
	"github.com/Flickmart/flickmart-sub000/pkg/cache"
	"github.com/Flickmart/flickmart-sub000/pkg/id"
)

const (
	sessionNamespace = "transfer_session"
	sessionTTL       = 30 * time.Minute
)

// SessionUsecase keeps the transfer wizard's state server-side in redis.
// The server owns the step machine so a modified client cannot skip the
// validation or PIN steps; every write refreshes the 30 minute TTL.
type SessionUsecase struct {
	cache  *cache.Cache
	logger *zap.Logger
}

func NewSessionUsecase(c *cache.Cache, logger *zap.Logger) *SessionUsecase {
	return &SessionUsecase{cache: c, logger: logger}
}

func (uc *SessionUsecase) Start(ctx context.Context, userID string) (*domain.TransferSession, error) {
	now := time.Now().UTC()
	session := &domain.TransferSession{
		ID:        id.New("tsn"),
		UserID:    userID,
		Step:      domain.StepAmountEntry,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (uc *SessionUsecase) Get(ctx context.Context, userID, sessionID string) (*domain.TransferSession, error) {
	var session domain.TransferSession
	err := uc.cache.GetJSON(ctx, sessionNamespace, sessionID, &session)
	if errors.Is(err, cache.ErrMiss) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

// SessionUpdate carries the fields a step transition may set. Nil fields
// leave the stored value untouched.
type SessionUpdate struct {
	Amount     *int64   `json:"amount,omitempty"`
	SellerID   *string  `json:"seller_id,omitempty"`
	ProductIDs []string `json:"product_ids,omitempty"`
	OrderID    *string  `json:"order_id,omitempty"`
}

// Advance moves the session to the next step, applying the update first so
// the transition is validated against the new state.
func (uc *SessionUsecase) Advance(ctx context.Context, userID, sessionID string, next domain.TransferStep, update *SessionUpdate) (*domain.TransferSession, error) {
	session, err := uc.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.CanAdvance(next) {
		return nil, domain.ErrInvalidSessionStep
	}

	if update != nil {
		if update.Amount != nil {
			session.Amount = *update.Amount
		}
		if update.SellerID != nil {
			session.SellerID = *update.SellerID
		}
		if update.ProductIDs != nil {
			session.ProductIDs = update.ProductIDs
		}
		if update.OrderID != nil {
			session.OrderID = *update.OrderID
		}
	}

	// An amount must exist before leaving the entry step.
	if session.Step == domain.StepAmountEntry && session.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	session.Step = next
	session.UpdatedAt = time.Now().UTC()
	if err := uc.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Back moves one step backwards. The entered amount survives so the user
// does not retype it.
func (uc *SessionUsecase) Back(ctx context.Context, userID, sessionID string) (*domain.TransferSession, error) {
	session, err := uc.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	prev := session.PrevStep()
	if prev == "" {
		return nil, domain.ErrInvalidSessionStep
	}
	session.Step = prev
	session.UpdatedAt = time.Now().UTC()
	if err := uc.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (uc *SessionUsecase) End(ctx context.Context, userID, sessionID string) error {
	if _, err := uc.Get(ctx, userID, sessionID); err != nil {
		return err
	}
	return uc.cache.Delete(ctx, sessionNamespace, sessionID)
}

func (uc *SessionUsecase) save(ctx context.Context, session *domain.TransferSession) error {
	return uc.cache.SetJSON(ctx, sessionNamespace, session.ID, session, sessionTTL)
}
