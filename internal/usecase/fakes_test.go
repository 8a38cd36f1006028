package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Flickmart/flickmart-sub000/internal/domain"
	"github.com/Flickmart/flickmart-sub000/internal/provider/paystack"
)

// In-memory repository fakes. They mirror the SQL semantics the real
// repositories implement so usecase behavior can be exercised without a
// database.

type fakePINRepo struct {
	records map[string]*domain.PINSecurity
}

func newFakePINRepo() *fakePINRepo {
	return &fakePINRepo{records: make(map[string]*domain.PINSecurity)}
}

func (f *fakePINRepo) Get(_ context.Context, userID string) (*domain.PINSecurity, error) {
	p, ok := f.records[userID]
	if !ok {
		return nil, domain.ErrPINNotSet
	}
	cp := *p
	return &cp, nil
}

func (f *fakePINRepo) Create(_ context.Context, userID, pinHash string) error {
	if _, ok := f.records[userID]; ok {
		return domain.ErrPINAlreadySet
	}
	f.records[userID] = &domain.PINSecurity{UserID: userID, PINHash: pinHash}
	return nil
}

func (f *fakePINRepo) RecordFailure(_ context.Context, userID string, maxAttempts int, lockFor time.Duration) (*domain.PINSecurity, error) {
	p, ok := f.records[userID]
	if !ok {
		return nil, domain.ErrPINNotSet
	}
	p.FailedAttempts++
	if p.FailedAttempts >= maxAttempts {
		p.Locked = true
		expiry := time.Now().Add(lockFor)
		p.LockExpiresAt = &expiry
	}
	cp := *p
	return &cp, nil
}

func (f *fakePINRepo) ResetAttempts(_ context.Context, userID string) error {
	if p, ok := f.records[userID]; ok {
		p.FailedAttempts = 0
		p.Locked = false
		p.LockExpiresAt = nil
	}
	return nil
}

type fakeWalletRepo struct {
	wallets map[string]*domain.Wallet
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{wallets: make(map[string]*domain.Wallet)}
}

func (f *fakeWalletRepo) seed(userID string, balance int64) {
	f.wallets[userID] = &domain.Wallet{
		ID:       "wal_" + userID,
		UserID:   userID,
		Balance:  balance,
		Currency: "NGN",
		Status:   domain.WalletStatusActive,
	}
}

func (f *fakeWalletRepo) GetByUserID(_ context.Context, userID string) (*domain.Wallet, error) {
	w, ok := f.wallets[userID]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	cp := *w
	return &cp, nil
}

func (f *fakeWalletRepo) EnsureWallet(_ context.Context, userID, currency string) (*domain.Wallet, error) {
	if w, ok := f.wallets[userID]; ok {
		cp := *w
		return &cp, nil
	}
	f.wallets[userID] = &domain.Wallet{
		ID:       "wal_" + userID,
		UserID:   userID,
		Currency: currency,
		Status:   domain.WalletStatusActive,
	}
	cp := *f.wallets[userID]
	return &cp, nil
}

type fakeProductRepo struct {
	catalog []domain.Product
}

func (f *fakeProductRepo) ListByIDs(_ context.Context, productIDs []string) ([]domain.Product, error) {
	want := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		want[id] = true
	}
	var out []domain.Product
	for _, p := range f.catalog {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeLedger applies journals against in-memory balances and records every
// call for assertions.
type fakeLedger struct {
	balances map[string]int64
	applied  []*domain.Journal
	pending  []*domain.Transaction

	applyErr      error
	settled       []string
	settleApplied bool
	settleErr     error
	failed        []string
	failErr       error
	cancelled     []string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: make(map[string]int64), settleApplied: true}
}

func (f *fakeLedger) Apply(_ context.Context, j *domain.Journal) error {
	if err := j.Validate(); err != nil {
		return err
	}
	if f.applyErr != nil {
		return f.applyErr
	}
	for _, e := range j.Entries {
		if f.balances[e.UserID]+e.Delta < 0 {
			return domain.ErrInsufficientFunds
		}
	}
	for _, e := range j.Entries {
		f.balances[e.UserID] += e.Delta
	}
	f.applied = append(f.applied, j)
	return nil
}

func (f *fakeLedger) RecordPending(_ context.Context, t *domain.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t.Status = domain.TxStatusPending
	f.pending = append(f.pending, t)
	return nil
}

func (f *fakeLedger) SettleFunding(_ context.Context, reference, _ string) (bool, error) {
	if f.settleErr != nil {
		return false, f.settleErr
	}
	f.settled = append(f.settled, reference)
	return f.settleApplied, nil
}

func (f *fakeLedger) CancelPending(_ context.Context, _, reference string) error {
	f.cancelled = append(f.cancelled, reference)
	return nil
}

func (f *fakeLedger) MarkFailed(_ context.Context, reference string) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.failed = append(f.failed, reference)
	return nil
}

type fakeOrderRepo struct {
	orders  map[string]*domain.Order
	escrows map[string]*domain.Escrow
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:  make(map[string]*domain.Order),
		escrows: make(map[string]*domain.Escrow),
	}
}

func (f *fakeOrderRepo) seed(o *domain.Order) {
	f.orders[o.ID] = o
	f.escrows[o.ID] = &domain.Escrow{ID: "esc_" + o.ID, OrderID: o.ID, Status: domain.EscrowStatusFunded}
}

func (f *fakeOrderRepo) GetByID(_ context.Context, orderID string) (*domain.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) GetEscrowByOrderID(_ context.Context, orderID string) (*domain.Escrow, error) {
	e, ok := f.escrows[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeOrderRepo) SetConfirmation(_ context.Context, orderID string, asBuyer bool) (*domain.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if o.Status != domain.OrderStatusInEscrow {
		return nil, domain.ErrInvalidOrderState
	}
	if asBuyer {
		o.BuyerConfirmedCompletion = true
	} else {
		o.SellerConfirmedCompletion = true
	}
	cp := *o
	return &cp, nil
}

type fakeBankAccountRepo struct {
	accounts       map[string]*domain.BankAccount
	recipientCodes map[string]string
	seq            int64
}

func newFakeBankAccountRepo() *fakeBankAccountRepo {
	return &fakeBankAccountRepo{
		accounts:       make(map[string]*domain.BankAccount),
		recipientCodes: make(map[string]string),
	}
}

func (f *fakeBankAccountRepo) ListByUser(_ context.Context, userID string) ([]domain.BankAccount, error) {
	var out []domain.BankAccount
	for _, a := range f.accounts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeBankAccountRepo) GetByID(_ context.Context, accountID string) (*domain.BankAccount, error) {
	a, ok := f.accounts[accountID]
	if !ok {
		return nil, domain.ErrBankAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeBankAccountRepo) Create(_ context.Context, account *domain.BankAccount) error {
	if account.ID == "" {
		account.ID = "bnk_" + account.AccountNumber
	}
	if account.CreatedAt.IsZero() {
		f.seq++
		account.CreatedAt = time.Unix(f.seq, 0)
	}
	first := true
	for _, a := range f.accounts {
		if a.UserID == account.UserID {
			first = false
			if account.IsDefault {
				a.IsDefault = false
			}
		}
	}
	if first {
		account.IsDefault = true
	}
	f.accounts[account.ID] = account
	return nil
}

func (f *fakeBankAccountRepo) Delete(_ context.Context, userID, accountID string) error {
	a, ok := f.accounts[accountID]
	if !ok || a.UserID != userID {
		return domain.ErrBankAccountNotFound
	}
	owned := 0
	for _, acc := range f.accounts {
		if acc.UserID == userID {
			owned++
		}
	}
	if owned <= 1 {
		return domain.ErrCannotDeleteOnlyAccount
	}
	delete(f.accounts, accountID)
	if a.IsDefault {
		var oldest *domain.BankAccount
		for _, acc := range f.accounts {
			if acc.UserID != userID {
				continue
			}
			if oldest == nil || acc.CreatedAt.Before(oldest.CreatedAt) {
				oldest = acc
			}
		}
		if oldest != nil {
			oldest.IsDefault = true
		}
	}
	return nil
}

func (f *fakeBankAccountRepo) SetRecipientCode(_ context.Context, accountID, recipientCode string) error {
	f.recipientCodes[accountID] = recipientCode
	if a, ok := f.accounts[accountID]; ok {
		a.RecipientCode = &recipientCode
	}
	return nil
}

type fakeTransactionRepo struct {
	byRef map[string]*domain.Transaction
}

func (f *fakeTransactionRepo) GetByReference(_ context.Context, reference string) (*domain.Transaction, error) {
	t, ok := f.byRef[reference]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTransactionRepo) ListByUser(_ context.Context, userID string, _, _ int) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, t := range f.byRef {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTransactionRepo) ListStalePending(_ context.Context, _ domain.TransactionType, _ int) ([]domain.Transaction, error) {
	return nil, nil
}

// fakeLimiter counts per namespace:key like the redis-backed cache does.
type fakeLimiter struct {
	counts map[string]int64
	ttl    time.Duration
	err    error
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{counts: make(map[string]int64), ttl: time.Minute}
}

func (f *fakeLimiter) IncrWithExpire(_ context.Context, namespace, key string, _ time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.counts[namespace+":"+key]++
	return f.counts[namespace+":"+key], nil
}

func (f *fakeLimiter) GetTTL(_ context.Context, _, _ string) (time.Duration, error) {
	return f.ttl, nil
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func (f *fakeUserRepo) Get(_ context.Context, userID string) (*domain.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return u, nil
}

func (f *fakeUserRepo) Upsert(_ context.Context, user *domain.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, userID string) error {
	delete(f.users, userID)
	return nil
}

type fakeNotificationRepo struct {
	created []domain.Notification
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	f.created = append(f.created, *n)
	return nil
}

func (f *fakeNotificationRepo) ListByUser(_ context.Context, userID string, _ int) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range f.created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeGateway struct {
	initResp    *paystack.InitializeResponse
	initErr     error
	verifyResp  *paystack.VerifyResponse
	verifyErr   error
	recipient   string
	transferErr error
	transfers   []string
}

func (f *fakeGateway) InitializeTransaction(_ context.Context, _ string, _ int64, _ string) (*paystack.InitializeResponse, error) {
	return f.initResp, f.initErr
}

func (f *fakeGateway) VerifyTransaction(_ context.Context, _ string) (*paystack.VerifyResponse, error) {
	return f.verifyResp, f.verifyErr
}

func (f *fakeGateway) ListBanks(_ context.Context) ([]domain.Bank, error) {
	return []domain.Bank{{Name: "Test Bank", Code: "001", Slug: "test-bank"}}, nil
}

func (f *fakeGateway) ResolveAccount(_ context.Context, accountNumber, _ string) (*paystack.ResolvedAccount, error) {
	return &paystack.ResolvedAccount{AccountNumber: accountNumber, AccountName: "JOHN DOE"}, nil
}

func (f *fakeGateway) CreateTransferRecipient(_ context.Context, _, _, _ string) (string, error) {
	return f.recipient, nil
}

func (f *fakeGateway) InitiateTransfer(_ context.Context, _ string, _ int64, reference, _ string) (*paystack.TransferResponse, error) {
	if f.transferErr != nil {
		return nil, f.transferErr
	}
	f.transfers = append(f.transfers, reference)
	return &paystack.TransferResponse{Status: "pending", TransferCode: "TRF_test", Reference: reference}, nil
}

func testNotifier(repo *fakeNotificationRepo) *Notifier {
	return NewNotifier(repo, zap.NewNop())
}
