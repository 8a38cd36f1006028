package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Flickmart/flickmart-sub000/internal/domain"
)

func seedPIN(t *testing.T, repo *fakePINRepo, userID, pin string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	repo.records[userID] = &domain.PINSecurity{UserID: userID, PINHash: string(hash)}
}

func TestPINCreate(t *testing.T) {
	repo := newFakePINRepo()
	uc := NewPINUsecase(repo, nil, zap.NewNop())
	ctx := context.Background()

	if err := uc.Create(ctx, "user_a", "12345", "12345"); !errors.Is(err, domain.ErrInvalidPIN) {
		t.Fatalf("short PIN: got %v, want ErrInvalidPIN", err)
	}
	if err := uc.Create(ctx, "user_a", "12345a", "12345a"); !errors.Is(err, domain.ErrInvalidPIN) {
		t.Fatalf("non-numeric PIN: got %v, want ErrInvalidPIN", err)
	}
	if err := uc.Create(ctx, "user_a", "123456", "654321"); !errors.Is(err, domain.ErrPINMismatch) {
		t.Fatalf("mismatched confirmation: got %v, want ErrPINMismatch", err)
	}
	if err := uc.Create(ctx, "user_a", "123456", "123456"); err != nil {
		t.Fatalf("valid create failed: %v", err)
	}
	if err := uc.Create(ctx, "user_a", "123456", "123456"); !errors.Is(err, domain.ErrPINAlreadySet) {
		t.Fatalf("duplicate create: got %v, want ErrPINAlreadySet", err)
	}

	// The stored value must be a hash, never the raw PIN.
	if repo.records["user_a"].PINHash == "123456" {
		t.Fatal("PIN stored in plaintext")
	}
}

func TestPINVerifyLockout(t *testing.T) {
	repo := newFakePINRepo()
	uc := NewPINUsecase(repo, nil, zap.NewNop())
	ctx := context.Background()
	seedPIN(t, repo, "user_a", "123456")

	// Four wrong attempts count down the budget.
	for want := domain.MaxPINAttempts - 1; want >= 1; want-- {
		err := uc.Verify(ctx, "user_a", "654321")
		var incorrect *domain.IncorrectPINError
		if !errors.As(err, &incorrect) {
			t.Fatalf("attempt with %d remaining: got %v, want IncorrectPINError", want, err)
		}
		if incorrect.RemainingAttempts != want {
			t.Fatalf("remaining attempts = %d, want %d", incorrect.RemainingAttempts, want)
		}
	}

	// The fifth failure reports the lock.
	err := uc.Verify(ctx, "user_a", "654321")
	var locked *domain.PINLockedError
	if !errors.As(err, &locked) {
		t.Fatalf("fifth failure: got %v, want PINLockedError", err)
	}
	if !locked.LockExpiresAt.After(time.Now()) {
		t.Fatal("lock expiry should be in the future")
	}

	// While locked, even the correct PIN is rejected and attempts stay put.
	attemptsBefore := repo.records["user_a"].FailedAttempts
	if err := uc.Verify(ctx, "user_a", "123456"); !errors.As(err, &locked) {
		t.Fatalf("correct PIN while locked: got %v, want PINLockedError", err)
	}
	if repo.records["user_a"].FailedAttempts != attemptsBefore {
		t.Fatal("locked attempt consumed attempt budget")
	}
}

func TestPINVerifyExpiredLockReopens(t *testing.T) {
	repo := newFakePINRepo()
	uc := NewPINUsecase(repo, nil, zap.NewNop())
	ctx := context.Background()
	seedPIN(t, repo, "user_a", "123456")

	expired := time.Now().Add(-time.Minute)
	repo.records["user_a"].FailedAttempts = domain.MaxPINAttempts
	repo.records["user_a"].Locked = true
	repo.records["user_a"].LockExpiresAt = &expired

	if err := uc.Verify(ctx, "user_a", "123456"); err != nil {
		t.Fatalf("verify after lock expiry: %v", err)
	}
	if repo.records["user_a"].FailedAttempts != 0 {
		t.Fatal("attempt counter not reset after success")
	}
	if repo.records["user_a"].Locked {
		t.Fatal("lock flag not cleared")
	}
}

func TestPINVerifySuccessResetsCounter(t *testing.T) {
	repo := newFakePINRepo()
	uc := NewPINUsecase(repo, nil, zap.NewNop())
	ctx := context.Background()
	seedPIN(t, repo, "user_a", "123456")

	_ = uc.Verify(ctx, "user_a", "000000")
	_ = uc.Verify(ctx, "user_a", "000000")
	if err := uc.Verify(ctx, "user_a", "123456"); err != nil {
		t.Fatalf("correct PIN rejected: %v", err)
	}
	if got := repo.records["user_a"].FailedAttempts; got != 0 {
		t.Fatalf("failed attempts = %d after success, want 0", got)
	}
}

func TestPINVerifyBurstCap(t *testing.T) {
	repo := newFakePINRepo()
	limiter := newFakeLimiter()
	uc := NewPINUsecase(repo, limiter, zap.NewNop())
	ctx := context.Background()
	seedPIN(t, repo, "user_a", "123456")

	// Under the cap the mirror is transparent: the correct PIN verifies.
	if err := uc.Verify(ctx, "user_a", "123456"); err != nil {
		t.Fatalf("verify under cap: %v", err)
	}

	// Over the cap the call is rejected before the attempt record is
	// touched, even with the correct PIN.
	limiter.counts[pinAttemptNamespace+":user_a"] = int64(verifyBurstCap)
	err := uc.Verify(ctx, "user_a", "123456")
	var locked *domain.PINLockedError
	if !errors.As(err, &locked) {
		t.Fatalf("over cap: got %v, want PINLockedError", err)
	}
	if !locked.LockExpiresAt.After(time.Now()) {
		t.Fatal("lock expiry should be in the future")
	}
	if repo.records["user_a"].FailedAttempts != 0 {
		t.Fatal("capped call must not consume the attempt budget")
	}

	// Redis being down fails open: the Postgres guard still decides.
	limiter.err = errors.New("connection refused")
	if err := uc.Verify(ctx, "user_a", "123456"); err != nil {
		t.Fatalf("verify with mirror down: %v", err)
	}
}

func TestPINVerifyWithoutPIN(t *testing.T) {
	uc := NewPINUsecase(newFakePINRepo(), nil, zap.NewNop())
	if err := uc.Verify(context.Background(), "user_a", "123456"); !errors.Is(err, domain.ErrPINNotSet) {
		t.Fatalf("got %v, want ErrPINNotSet", err)
	}
}

func TestPINCheck(t *testing.T) {
	repo := newFakePINRepo()
	uc := NewPINUsecase(repo, nil, zap.NewNop())
	ctx := context.Background()

	status, err := uc.Check(ctx, "user_a")
	if err != nil || status.Exists {
		t.Fatalf("Check on empty repo = (%+v, %v)", status, err)
	}

	seedPIN(t, repo, "user_a", "123456")
	future := time.Now().Add(time.Minute)
	repo.records["user_a"].Locked = true
	repo.records["user_a"].LockExpiresAt = &future

	status, err = uc.Check(ctx, "user_a")
	if err != nil {
		t.Fatal(err)
	}
	if !status.Exists || !status.IsLocked || status.LockExpiresAt == nil {
		t.Fatalf("Check on locked PIN = %+v", status)
	}
}
