package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/Flickmart/flickmart-sub000/internal/domain"
)

func TestAddAccountStoresResolvedName(t *testing.T) {
	accounts := newFakeBankAccountRepo()
	uc := NewBankUsecase(accounts, &fakeGateway{}, nil, zap.NewNop())

	account, err := uc.AddAccount(context.Background(), "user_a", &AddAccountRequest{
		AccountNumber: "0123456789",
		BankCode:      "001",
		BankName:      "Test Bank",
	})
	if err != nil {
		t.Fatal(err)
	}
	// The gateway-resolved name wins over anything the client typed.
	if account.AccountName != "JOHN DOE" {
		t.Fatalf("account name = %q", account.AccountName)
	}
	if !account.Verified {
		t.Fatal("resolved account must be stored verified")
	}
	if _, ok := accounts.accounts[account.ID]; !ok {
		t.Fatal("account not persisted")
	}
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	accounts := newFakeBankAccountRepo()
	uc := NewBankUsecase(accounts, &fakeGateway{}, nil, zap.NewNop())

	first, err := uc.AddAccount(ctx, "user_a", &AddAccountRequest{
		AccountNumber: "0000000001", BankCode: "001", BankName: "Test Bank",
	})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("foreign caller cannot delete", func(t *testing.T) {
		if err := uc.DeleteAccount(ctx, "someone_else", first.ID); !errors.Is(err, domain.ErrBankAccountNotFound) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("last account is undeletable", func(t *testing.T) {
		if err := uc.DeleteAccount(ctx, "user_a", first.ID); !errors.Is(err, domain.ErrCannotDeleteOnlyAccount) {
			t.Fatalf("got %v", err)
		}
		remaining, err := uc.ListAccounts(ctx, "user_a")
		if err != nil {
			t.Fatal(err)
		}
		if len(remaining) != 1 {
			t.Fatalf("%d accounts remain", len(remaining))
		}
	})

	t.Run("delete succeeds once another account exists", func(t *testing.T) {
		second, err := uc.AddAccount(ctx, "user_a", &AddAccountRequest{
			AccountNumber: "0000000002", BankCode: "001", BankName: "Test Bank",
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := uc.DeleteAccount(ctx, "user_a", second.ID); err != nil {
			t.Fatal(err)
		}
	})
}

func TestDeleteDefaultPromotesOldestRemaining(t *testing.T) {
	ctx := context.Background()
	accounts := newFakeBankAccountRepo()
	uc := NewBankUsecase(accounts, &fakeGateway{}, nil, zap.NewNop())

	var ids []string
	for _, number := range []string{"0000000001", "0000000002", "0000000003"} {
		a, err := uc.AddAccount(ctx, "user_a", &AddAccountRequest{
			AccountNumber: number, BankCode: "001", BankName: "Test Bank",
		})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, a.ID)
	}

	defaults := func(t *testing.T) []string {
		t.Helper()
		list, err := uc.ListAccounts(ctx, "user_a")
		if err != nil {
			t.Fatal(err)
		}
		var out []string
		for _, a := range list {
			if a.IsDefault {
				out = append(out, a.ID)
			}
		}
		return out
	}

	// The first account became the default on creation. Deleting it must
	// promote exactly one account, the oldest remaining.
	if err := uc.DeleteAccount(ctx, "user_a", ids[0]); err != nil {
		t.Fatal(err)
	}
	got := defaults(t)
	if len(got) != 1 || got[0] != ids[1] {
		t.Fatalf("defaults after deleting default = %v, want [%s]", got, ids[1])
	}

	// Deleting a non-default account leaves the default untouched.
	if err := uc.DeleteAccount(ctx, "user_a", ids[2]); err != nil {
		t.Fatal(err)
	}
	got = defaults(t)
	if len(got) != 1 || got[0] != ids[1] {
		t.Fatalf("defaults after deleting non-default = %v, want [%s]", got, ids[1])
	}
}
