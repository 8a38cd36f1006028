package domain

import "errors"

// JournalEntry pairs one wallet balance change with exactly one transaction
// row. Delta is signed: negative debits the wallet, positive credits it.
type JournalEntry struct {
	UserID      string
	Delta       int64
	Transaction Transaction
}

// OrderCreation asks the ledger to create an order together with its funded
// escrow inside the same database transaction as the journal entries.
type OrderCreation struct {
	Order Order
}

// OrderTransition asks the ledger to drive an in-escrow order to a terminal
// state in the same database transaction as the journal entries.
type OrderTransition struct {
	OrderID      string
	OrderStatus  OrderStatus
	EscrowStatus EscrowStatus
}

// Journal is an atomic money movement: a set of wallet deltas with their
// paired transactions, optionally creating or transitioning an order/escrow.
// The ledger applies the whole journal in one database transaction; wallet
// balances must stay non-negative or the journal is rejected.
type Journal struct {
	Entries     []JournalEntry
	CreateOrder *OrderCreation
	Transition  *OrderTransition
}

func (j *Journal) Validate() error {
	if len(j.Entries) == 0 {
		return errors.New("journal requires at least one entry")
	}
	for i := range j.Entries {
		e := &j.Entries[i]
		if e.UserID == "" {
			return errors.New("journal entry requires a user id")
		}
		if e.Delta == 0 {
			return errors.New("journal entry delta must be non-zero")
		}
		if err := e.Transaction.Validate(); err != nil {
			return err
		}
	}
	return nil
}
