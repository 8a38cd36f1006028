package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/Flickmart/flickmart-sub000/internal/domain"
	"github.com/Flickmart/flickmart-sub000/internal/provider/paystack"
)

func newGatewayFixture() (*GatewayUsecase, *fakeWalletRepo, *fakeLedger, *fakeBankAccountRepo, *fakeGateway) {
	users := &fakeUserRepo{users: map[string]*domain.User{
		"user_a": {ID: "user_a", Email: "a@example.com"},
	}}
	wallets := newFakeWalletRepo()
	ledger := newFakeLedger()
	transactions := &fakeTransactionRepo{byRef: map[string]*domain.Transaction{
		"psk_ref_1": {UserID: "user_a", Reference: "psk_ref_1",
			Type: domain.TxTypeFunding, Amount: 50000, Status: domain.TxStatusPending},
		"psk_ref_other": {UserID: "user_b", Reference: "psk_ref_other",
			Type: domain.TxTypeFunding, Amount: 70000, Status: domain.TxStatusPending},
	}}
	accounts := newFakeBankAccountRepo()
	gateway := &fakeGateway{
		initResp:  &paystack.InitializeResponse{Reference: "psk_ref_1", AuthorizationURL: "https://pay.example/x", AccessCode: "ac_1"},
		recipient: "RCP_new",
	}
	uc := NewGatewayUsecase(users, wallets, ledger, transactions, accounts, gateway,
		testNotifier(&fakeNotificationRepo{}), "https://app.example/callback", zap.NewNop())
	return uc, wallets, ledger, accounts, gateway
}

func TestInitializeDeposit(t *testing.T) {
	uc, wallets, ledger, _, _ := newGatewayFixture()
	ctx := context.Background()

	if _, err := uc.InitializeDeposit(ctx, "user_a", 0); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("zero amount: got %v", err)
	}

	intent, err := uc.InitializeDeposit(ctx, "user_a", 50000)
	if err != nil {
		t.Fatal(err)
	}
	if intent.Reference != "psk_ref_1" || intent.AuthorizationURL == "" {
		t.Fatalf("intent wrong: %+v", intent)
	}

	// Wallet is created eagerly, pending transaction keyed by the
	// gateway's reference, no balance movement yet.
	if _, ok := wallets.wallets["user_a"]; !ok {
		t.Fatal("wallet not ensured")
	}
	if len(ledger.pending) != 1 {
		t.Fatalf("pending transactions = %d", len(ledger.pending))
	}
	p := ledger.pending[0]
	if p.Reference != "psk_ref_1" || p.Type != domain.TxTypeFunding || p.Amount != 50000 {
		t.Fatalf("pending transaction wrong: %+v", p)
	}
	if ledger.balances["user_a"] != 0 {
		t.Fatal("balance credited before verification")
	}
}

func TestVerifyDeposit(t *testing.T) {
	t.Run("success settles once", func(t *testing.T) {
		uc, _, ledger, _, gateway := newGatewayFixture()
		gateway.verifyResp = &paystack.VerifyResponse{Status: "success", Amount: 50000, Reference: "psk_ref_1", GatewayRef: "42"}

		status, err := uc.VerifyDeposit(context.Background(), "user_a", "psk_ref_1")
		if err != nil {
			t.Fatal(err)
		}
		if !status.Credited || status.Status != "success" {
			t.Fatalf("status = %+v", status)
		}
		if len(ledger.settled) != 1 || ledger.settled[0] != "psk_ref_1" {
			t.Fatalf("settled = %v", ledger.settled)
		}
	})

	t.Run("replay reports not credited", func(t *testing.T) {
		uc, _, ledger, _, gateway := newGatewayFixture()
		gateway.verifyResp = &paystack.VerifyResponse{Status: "success", Reference: "psk_ref_1"}
		ledger.settleApplied = false

		status, err := uc.VerifyDeposit(context.Background(), "user_a", "psk_ref_1")
		if err != nil {
			t.Fatal(err)
		}
		if status.Credited {
			t.Fatal("replayed verification must not report a fresh credit")
		}
	})

	t.Run("failed charge closes transaction", func(t *testing.T) {
		uc, _, ledger, _, gateway := newGatewayFixture()
		gateway.verifyResp = &paystack.VerifyResponse{Status: "failed", Reference: "psk_ref_1"}

		status, err := uc.VerifyDeposit(context.Background(), "user_a", "psk_ref_1")
		if err != nil {
			t.Fatal(err)
		}
		if status.Credited {
			t.Fatal("failed charge credited")
		}
		if len(ledger.failed) != 1 {
			t.Fatalf("failed marks = %v", ledger.failed)
		}
	})

	t.Run("another user's reference is invisible", func(t *testing.T) {
		uc, _, ledger, _, gateway := newGatewayFixture()
		// A gateway call here would surface this error instead of the
		// not-found below.
		gateway.verifyErr = errors.New("gateway consulted for foreign reference")

		if _, err := uc.VerifyDeposit(context.Background(), "user_a", "psk_ref_other"); !errors.Is(err, domain.ErrTransactionNotFound) {
			t.Fatalf("foreign reference: got %v, want ErrTransactionNotFound", err)
		}
		if len(ledger.settled) != 0 || len(ledger.failed) != 0 {
			t.Fatal("foreign reference touched the ledger")
		}
	})

	t.Run("unknown reference", func(t *testing.T) {
		uc, _, _, _, _ := newGatewayFixture()
		if _, err := uc.VerifyDeposit(context.Background(), "user_a", "psk_ref_missing"); !errors.Is(err, domain.ErrTransactionNotFound) {
			t.Fatalf("got %v, want ErrTransactionNotFound", err)
		}
	})

	t.Run("already-settled failure is tolerated", func(t *testing.T) {
		uc, _, ledger, _, gateway := newGatewayFixture()
		gateway.verifyResp = &paystack.VerifyResponse{Status: "abandoned", Reference: "psk_ref_1"}
		ledger.failErr = domain.ErrTransactionNotPending

		if _, err := uc.VerifyDeposit(context.Background(), "user_a", "psk_ref_1"); err != nil {
			t.Fatalf("not-pending on mark-failed should be swallowed: %v", err)
		}
	})
}

func TestHandleChargeSuccess(t *testing.T) {
	uc, _, ledger, _, _ := newGatewayFixture()
	event := &paystack.WebhookEvent{Event: "charge.success"}
	event.Data.Reference = "psk_ref_1"
	event.Data.ID = 42

	if err := uc.HandleChargeSuccess(context.Background(), event); err != nil {
		t.Fatal(err)
	}
	if len(ledger.settled) != 1 {
		t.Fatalf("settled = %v", ledger.settled)
	}

	// Unknown references are acknowledged, not retried forever.
	ledger.settleErr = domain.ErrTransactionNotFound
	if err := uc.HandleChargeSuccess(context.Background(), event); err != nil {
		t.Fatalf("unknown reference should ack: %v", err)
	}
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()

	t.Run("amount and ownership guards", func(t *testing.T) {
		uc, wallets, _, accounts, _ := newGatewayFixture()
		wallets.seed("user_a", 100000)
		accounts.accounts["bnk_1"] = &domain.BankAccount{ID: "bnk_1", UserID: "someone_else"}

		if _, err := uc.Withdraw(ctx, "user_a", &WithdrawRequest{AccountID: "bnk_1", Amount: 0}); !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("zero amount: got %v", err)
		}
		if _, err := uc.Withdraw(ctx, "user_a", &WithdrawRequest{AccountID: "bnk_1", Amount: 1000}); !errors.Is(err, domain.ErrBankAccountNotFound) {
			t.Fatalf("foreign account: got %v", err)
		}
	})

	t.Run("insufficient funds", func(t *testing.T) {
		uc, wallets, _, accounts, _ := newGatewayFixture()
		wallets.seed("user_a", 500)
		accounts.accounts["bnk_1"] = &domain.BankAccount{ID: "bnk_1", UserID: "user_a", BankName: "Test Bank"}

		if _, err := uc.Withdraw(ctx, "user_a", &WithdrawRequest{AccountID: "bnk_1", Amount: 1000}); !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("success registers recipient and debits", func(t *testing.T) {
		uc, wallets, ledger, accounts, gateway := newGatewayFixture()
		wallets.seed("user_a", 100000)
		ledger.balances["user_a"] = 100000
		accounts.accounts["bnk_1"] = &domain.BankAccount{
			ID: "bnk_1", UserID: "user_a", AccountNumber: "0123456789",
			AccountName: "JOHN DOE", BankCode: "001", BankName: "Test Bank",
		}

		result, err := uc.Withdraw(ctx, "user_a", &WithdrawRequest{AccountID: "bnk_1", Amount: 40000})
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(result.Reference, "FLK-WDL-") {
			t.Fatalf("reference %q", result.Reference)
		}
		if accounts.recipientCodes["bnk_1"] != "RCP_new" {
			t.Fatal("recipient code not persisted")
		}
		if len(gateway.transfers) != 1 || gateway.transfers[0] != result.Reference {
			t.Fatalf("gateway transfers = %v", gateway.transfers)
		}

		j := ledger.applied[0]
		e := j.Entries[0]
		if e.Delta != -40000 || e.Transaction.Type != domain.TxTypeWithdrawal {
			t.Fatalf("withdrawal entry wrong: %+v", e)
		}
		if e.Transaction.GatewayRef == nil || *e.Transaction.GatewayRef != "TRF_test" {
			t.Fatal("gateway transfer code not recorded")
		}
		if ledger.balances["user_a"] != 60000 {
			t.Fatalf("balance = %d", ledger.balances["user_a"])
		}
	})

	t.Run("reuses stored recipient code", func(t *testing.T) {
		uc, wallets, ledger, accounts, _ := newGatewayFixture()
		wallets.seed("user_a", 100000)
		ledger.balances["user_a"] = 100000
		existing := "RCP_existing"
		accounts.accounts["bnk_1"] = &domain.BankAccount{
			ID: "bnk_1", UserID: "user_a", BankName: "Test Bank", RecipientCode: &existing,
		}

		if _, err := uc.Withdraw(ctx, "user_a", &WithdrawRequest{AccountID: "bnk_1", Amount: 1000}); err != nil {
			t.Fatal(err)
		}
		if _, overwritten := accounts.recipientCodes["bnk_1"]; overwritten {
			t.Fatal("stored recipient code needlessly re-registered")
		}
	})
}

func TestCancelPendingDeposit(t *testing.T) {
	uc, _, ledger, _, _ := newGatewayFixture()
	if err := uc.CancelPendingDeposit(context.Background(), "user_a", "psk_ref_1"); err != nil {
		t.Fatal(err)
	}
	if len(ledger.cancelled) != 1 || ledger.cancelled[0] != "psk_ref_1" {
		t.Fatalf("cancelled = %v", ledger.cancelled)
	}
}
