package usecase

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/Flickmart/flickmart-sub000/internal/domain"
	"github.com/Flickmart/flickmart-sub000/internal/provider/paystack"
	"github.com/Flickmart/flickmart-sub000/internal/repository"
	"github.com/Flickmart/flickmart-sub000/pkg/id"
)

// PaymentGateway is the slice of the Paystack client the usecases need.
type PaymentGateway interface {
	InitializeTransaction(ctx context.Context, email string, amount int64, callbackURL string) (*paystack.InitializeResponse, error)
	VerifyTransaction(ctx context.Context, reference string) (*paystack.VerifyResponse, error)
	ListBanks(ctx context.Context) ([]domain.Bank, error)
	ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*paystack.ResolvedAccount, error)
	CreateTransferRecipient(ctx context.Context, name, accountNumber, bankCode string) (string, error)
	InitiateTransfer(ctx context.Context, recipientCode string, amount int64, reference, reason string) (*paystack.TransferResponse, error)
}

// GatewayUsecase bridges wallet funding and withdrawals to the payment
// gateway. Balances are only ever credited from gateway-verified state,
// never from client-supplied flags.
type GatewayUsecase struct {
	users        repository.UserRepository
	wallets      repository.WalletRepository
	ledger       repository.LedgerRepository
	transactions repository.TransactionRepository
	bankAccounts repository.BankAccountRepository
	gateway      PaymentGateway
	notifier     *Notifier
	callbackURL  string
	logger       *zap.Logger
}

func NewGatewayUsecase(
	users repository.UserRepository,
	wallets repository.WalletRepository,
	ledger repository.LedgerRepository,
	transactions repository.TransactionRepository,
	bankAccounts repository.BankAccountRepository,
	gateway PaymentGateway,
	notifier *Notifier,
	callbackURL string,
	logger *zap.Logger,
) *GatewayUsecase {
	return &GatewayUsecase{
		users:        users,
		wallets:      wallets,
		ledger:       ledger,
		transactions: transactions,
		bankAccounts: bankAccounts,
		gateway:      gateway,
		notifier:     notifier,
		callbackURL:  callbackURL,
		logger:       logger,
	}
}

type DepositIntent struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
}

// InitializeDeposit creates a gateway charge and records the matching
// pending funding transaction, keyed by the gateway's reference. No balance
// moves until the charge is verified.
func (uc *GatewayUsecase) InitializeDeposit(ctx context.Context, userID string, amount int64) (*DepositIntent, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	user, err := uc.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	wallet, err := uc.wallets.EnsureWallet(ctx, userID, "NGN")
	if err != nil {
		return nil, err
	}

	init, err := uc.gateway.InitializeTransaction(ctx, user.Email, amount, uc.callbackURL)
	if err != nil {
		return nil, err
	}

	err = uc.ledger.RecordPending(ctx, &domain.Transaction{
		UserID:      userID,
		WalletID:    wallet.ID,
		Type:        domain.TxTypeFunding,
		Amount:      amount,
		Reference:   init.Reference,
		Description: "wallet funding",
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("deposit initialized",
		zap.String("user_id", userID),
		zap.String("reference", init.Reference),
		zap.Int64("amount", amount))

	return &DepositIntent{
		Reference:        init.Reference,
		AuthorizationURL: init.AuthorizationURL,
		AccessCode:       init.AccessCode,
	}, nil
}

type DepositStatus struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Credited  bool   `json:"credited"`
}

// VerifyDeposit re-verifies the caller's charge with the gateway and settles
// the pending transaction on success. Safe to call repeatedly: a settled
// reference is never credited twice. A reference owned by someone else is
// indistinguishable from a missing one.
func (uc *GatewayUsecase) VerifyDeposit(ctx context.Context, userID, reference string) (*DepositStatus, error) {
	t, err := uc.transactions.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}

	v, err := uc.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}

	status := &DepositStatus{Reference: reference, Status: v.Status, Amount: v.Amount}
	switch v.Status {
	case "success":
		applied, err := uc.settle(ctx, reference, v.GatewayRef)
		if err != nil {
			return nil, err
		}
		status.Credited = applied
	case "failed", "abandoned":
		err := uc.ledger.MarkFailed(ctx, reference)
		if err != nil && !errors.Is(err, domain.ErrTransactionNotPending) {
			return nil, err
		}
	}
	return status, nil
}

// HandleChargeSuccess settles a deposit from a verified webhook event.
// Unknown references are acknowledged so the gateway stops retrying.
func (uc *GatewayUsecase) HandleChargeSuccess(ctx context.Context, event *paystack.WebhookEvent) error {
	applied, err := uc.settle(ctx, event.Data.Reference, strconv.FormatInt(event.Data.ID, 10))
	if errors.Is(err, domain.ErrTransactionNotFound) {
		uc.logger.Warn("webhook for unknown reference",
			zap.String("reference", event.Data.Reference))
		return nil
	}
	if err != nil {
		return err
	}
	if !applied {
		uc.logger.Info("webhook replay ignored",
			zap.String("reference", event.Data.Reference))
	}
	return nil
}

func (uc *GatewayUsecase) settle(ctx context.Context, reference, gatewayRef string) (bool, error) {
	applied, err := uc.ledger.SettleFunding(ctx, reference, gatewayRef)
	if err != nil {
		return false, err
	}
	if applied {
		uc.logger.Info("deposit settled", zap.String("reference", reference))
	}
	return applied, nil
}

// CancelPendingDeposit moves the caller's pending funding transaction to
// cancelled, for charges the user abandoned client-side.
func (uc *GatewayUsecase) CancelPendingDeposit(ctx context.Context, userID, reference string) error {
	return uc.ledger.CancelPending(ctx, userID, reference)
}

type WithdrawRequest struct {
	AccountID string `json:"account_id"`
	Amount    int64  `json:"amount"`
}

type WithdrawResult struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// Withdraw pays out to one of the caller's saved bank accounts and debits
// the wallet once the gateway accepts the transfer.
func (uc *GatewayUsecase) Withdraw(ctx context.Context, userID string, req *WithdrawRequest) (*WithdrawResult, error) {
	if req.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	account, err := uc.bankAccounts.GetByID(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, domain.ErrBankAccountNotFound
	}

	wallet, err := uc.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !wallet.CanSpend(req.Amount) {
		return nil, domain.ErrInsufficientFunds
	}

	recipientCode, err := uc.ensureRecipient(ctx, account)
	if err != nil {
		return nil, err
	}

	ref := id.Reference(id.TagWithdrawal)
	transfer, err := uc.gateway.InitiateTransfer(ctx, recipientCode, req.Amount, ref, "wallet withdrawal")
	if err != nil {
		return nil, err
	}

	journal := &domain.Journal{
		Entries: []domain.JournalEntry{{
			UserID: userID,
			Delta:  -req.Amount,
			Transaction: domain.Transaction{
				UserID:      userID,
				Type:        domain.TxTypeWithdrawal,
				Amount:      req.Amount,
				Reference:   ref,
				GatewayRef:  &transfer.TransferCode,
				Description: "withdrawal to " + account.BankName,
			},
		}},
	}
	if err := uc.ledger.Apply(ctx, journal); err != nil {
		// The gateway transfer is already in flight; this needs an
		// operator's eyes, not a silent retry.
		uc.logger.Error("withdrawal debit failed after gateway accept",
			zap.String("user_id", userID),
			zap.String("reference", ref),
			zap.String("transfer_code", transfer.TransferCode),
			zap.Error(err))
		return nil, err
	}

	uc.logger.Info("withdrawal applied",
		zap.String("user_id", userID),
		zap.String("reference", ref),
		zap.Int64("amount", req.Amount))

	return &WithdrawResult{Reference: ref, Status: transfer.Status}, nil
}

func (uc *GatewayUsecase) ensureRecipient(ctx context.Context, account *domain.BankAccount) (string, error) {
	if account.RecipientCode != nil && *account.RecipientCode != "" {
		return *account.RecipientCode, nil
	}
	code, err := uc.gateway.CreateTransferRecipient(ctx, account.AccountName, account.AccountNumber, account.BankCode)
	if err != nil {
		return "", err
	}
	if err := uc.bankAccounts.SetRecipientCode(ctx, account.ID, code); err != nil {
		// The code is still usable for this withdrawal; re-registration on
		// the next one is harmless.
		uc.logger.Warn("failed to persist recipient code",
			zap.String("account_id", account.ID),
			zap.Error(err))
	}
	return code, nil
}
