package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Flickmart/flickmart-sub000/internal/domain"
	"github.com/Flickmart/flickmart-sub000/internal/repository"
)

// AttemptLimiter is the redis-backed fast path in front of the PIN guard.
// It sheds hammering before any bcrypt or database work; Postgres remains
// the authoritative attempt record.
type AttemptLimiter interface {
	IncrWithExpire(ctx context.Context, namespace, key string, window time.Duration) (int64, error)
	GetTTL(ctx context.Context, namespace, key string) (time.Duration, error)
}

const pinAttemptNamespace = "pin_attempts"

// verifyBurstCap bounds verification calls per user per lock window. It sits
// well above the lockout budget so legitimate use never trips it.
const verifyBurstCap = 4 * domain.MaxPINAttempts

// PINUsecase is the PIN guard: it gates every peer-to-peer transfer.
// Attempt accounting and lockout live server-side so a modified client
// cannot bypass the limits.
type PINUsecase struct {
	pins    repository.PINRepository
	limiter AttemptLimiter
	logger  *zap.Logger
}

func NewPINUsecase(pins repository.PINRepository, limiter AttemptLimiter, logger *zap.Logger) *PINUsecase {
	return &PINUsecase{pins: pins, limiter: limiter, logger: logger}
}

type PINStatus struct {
	Exists        bool       `json:"exists"`
	IsLocked      bool       `json:"is_locked"`
	LockExpiresAt *time.Time `json:"lock_expires_at,omitempty"`
}

func (uc *PINUsecase) Check(ctx context.Context, userID string) (*PINStatus, error) {
	p, err := uc.pins.Get(ctx, userID)
	if errors.Is(err, domain.ErrPINNotSet) {
		return &PINStatus{}, nil
	}
	if err != nil {
		return nil, err
	}
	status := &PINStatus{Exists: true}
	if p.LockedAt(time.Now()) {
		status.IsLocked = true
		status.LockExpiresAt = p.LockExpiresAt
	}
	return status, nil
}

func (uc *PINUsecase) Create(ctx context.Context, userID, pin, confirmation string) error {
	if !domain.ValidPINFormat(pin) {
		return domain.ErrInvalidPIN
	}
	if pin != confirmation {
		return domain.ErrPINMismatch
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := uc.pins.Create(ctx, userID, string(hash)); err != nil {
		return err
	}
	uc.logger.Info("transaction PIN created", zap.String("user_id", userID))
	return nil
}

// Verify compares the submitted PIN against the stored hash. Attempts made
// while locked are rejected without consuming an attempt; a success resets
// the counter to zero.
func (uc *PINUsecase) Verify(ctx context.Context, userID, pin string) error {
	if locked := uc.overBurstCap(ctx, userID); locked != nil {
		return locked
	}

	p, err := uc.pins.Get(ctx, userID)
	if err != nil {
		return err
	}

	now := time.Now()
	if p.LockedAt(now) {
		return &domain.PINLockedError{LockExpiresAt: *p.LockExpiresAt}
	}
	if p.Locked {
		// Lock expired: the guard opens again with a fresh attempt budget.
		if err := uc.pins.ResetAttempts(ctx, userID); err != nil {
			return err
		}
		p.FailedAttempts = 0
	}

	if bcrypt.CompareHashAndPassword([]byte(p.PINHash), []byte(pin)) != nil {
		updated, err := uc.pins.RecordFailure(ctx, userID, domain.MaxPINAttempts, domain.PINLockDuration)
		if err != nil {
			return err
		}
		if updated.Locked && updated.LockExpiresAt != nil {
			uc.logger.Warn("PIN guard locked",
				zap.String("user_id", userID),
				zap.Time("lock_expires_at", *updated.LockExpiresAt))
			return &domain.PINLockedError{LockExpiresAt: *updated.LockExpiresAt}
		}
		return &domain.IncorrectPINError{
			RemainingAttempts: domain.MaxPINAttempts - updated.FailedAttempts,
		}
	}

	return uc.pins.ResetAttempts(ctx, userID)
}

// overBurstCap counts this verification call in redis and rejects once the
// window cap is exceeded. Redis being down fails open: the Postgres lockout
// still holds.
func (uc *PINUsecase) overBurstCap(ctx context.Context, userID string) error {
	if uc.limiter == nil {
		return nil
	}
	cnt, err := uc.limiter.IncrWithExpire(ctx, pinAttemptNamespace, userID, domain.PINLockDuration)
	if err != nil {
		uc.logger.Warn("PIN attempt mirror unavailable", zap.Error(err))
		return nil
	}
	if cnt <= verifyBurstCap {
		return nil
	}
	expiresAt := time.Now().Add(domain.PINLockDuration)
	if ttl, err := uc.limiter.GetTTL(ctx, pinAttemptNamespace, userID); err == nil && ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	uc.logger.Warn("PIN verification burst cap exceeded",
		zap.String("user_id", userID),
		zap.Int64("count", cnt))
	return &domain.PINLockedError{LockExpiresAt: expiresAt}
}
