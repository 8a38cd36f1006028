package domain

import "time"

// TransferStep is one state of the transfer wizard. The server owns the
// state machine so a stale or modified client cannot skip validation steps.
type TransferStep string

const (
	StepAmountEntry        TransferStep = "amount_entry"
	StepProductSelection   TransferStep = "product_selection"
	StepAmountConfirmation TransferStep = "amount_confirmation"
	StepPINSetup           TransferStep = "pin_setup"
	StepPINVerification    TransferStep = "pin_verification"
	StepTransferComplete   TransferStep = "transfer_complete"
)

// TransferSession is the server-side record of an in-progress transfer flow.
// Back-navigation keeps the previously entered amount.
type TransferSession struct {
	ID         string       `json:"id"`
	UserID     string       `json:"user_id"`
	Step       TransferStep `json:"step"`
	Amount     int64        `json:"amount"`
	SellerID   string       `json:"seller_id,omitempty"`
	ProductIDs []string     `json:"product_ids,omitempty"`
	OrderID    string       `json:"order_id,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// NextSteps returns the steps reachable from the session's current step.
// Product selection is skippable for general transfers.
func (s *TransferSession) NextSteps() []TransferStep {
	switch s.Step {
	case StepAmountEntry:
		return []TransferStep{StepProductSelection, StepAmountConfirmation}
	case StepProductSelection:
		return []TransferStep{StepAmountConfirmation}
	case StepAmountConfirmation:
		return []TransferStep{StepPINSetup, StepPINVerification}
	case StepPINSetup, StepPINVerification:
		return []TransferStep{StepTransferComplete}
	default:
		return nil
	}
}

// PrevStep returns the step reached by back-navigation, or "" when backing
// out is not allowed (terminal and initial steps).
func (s *TransferSession) PrevStep() TransferStep {
	switch s.Step {
	case StepProductSelection:
		return StepAmountEntry
	case StepAmountConfirmation:
		if len(s.ProductIDs) > 0 {
			return StepProductSelection
		}
		return StepAmountEntry
	case StepPINSetup, StepPINVerification:
		return StepAmountConfirmation
	default:
		return ""
	}
}

// CanAdvance reports whether moving to next is a legal transition.
func (s *TransferSession) CanAdvance(next TransferStep) bool {
	for _, step := range s.NextSteps() {
		if step == next {
			return true
		}
	}
	return false
}
