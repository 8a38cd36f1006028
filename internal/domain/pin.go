package domain

import "time"

const (
	// MaxPINAttempts is the number of consecutive failed verifications
	// before the guard locks.
	MaxPINAttempts = 5
	// PINLockDuration is how long verification stays locked after the
	// attempt budget is exhausted.
	PINLockDuration = 5 * time.Minute
	// PINLength is the required number of numeric digits.
	PINLength = 6
)

// PINSecurity is the per-user PIN guard state. The hash never leaves the
// server; every verification is evaluated server-side.
type PINSecurity struct {
	UserID         string     `json:"user_id"`
	PINHash        string     `json:"-"`
	FailedAttempts int        `json:"failed_attempts"`
	Locked         bool       `json:"locked"`
	LockExpiresAt  *time.Time `json:"lock_expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// LockedAt reports whether the guard is locked at the given instant.
func (p *PINSecurity) LockedAt(now time.Time) bool {
	return p.Locked && p.LockExpiresAt != nil && p.LockExpiresAt.After(now)
}

// ValidPINFormat reports whether pin is exactly PINLength numeric digits.
func ValidPINFormat(pin string) bool {
	if len(pin) != PINLength {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
