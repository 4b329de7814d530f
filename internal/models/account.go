package models

import (
	"strings"
	"time"
)

// AccountState represents the subscription state of a ledger account.
type AccountState int

// AccountState constants define the subscription states.
const (
	// AccountStateBasic marks an unfunded account that cannot use gated actions.
	AccountStateBasic AccountState = 1
	// AccountStatePro marks a funded account eligible for gated actions.
	AccountStatePro AccountState = 2
	// AccountStateExpired marks a terminally retired account. Admin only.
	AccountStateExpired AccountState = 3
)

// String returns the canonical name of the state.
func (s AccountState) String() string {
	switch s {
	case AccountStateBasic:
		return "BASIC"
	case AccountStatePro:
		return "PRO"
	case AccountStateExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// ParseAccountState normalizes a state name into an AccountState.
func ParseAccountState(raw string) (AccountState, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "BASIC":
		return AccountStateBasic, true
	case "PRO":
		return AccountStatePro, true
	case "EXPIRED":
		return AccountStateExpired, true
	default:
		return 0, false
	}
}

// Account is the per-user credit ledger aggregate. Its balance and state are
// a materialized view of the latest committed Event for the account and are
// only ever mutated inside the same transaction that appends that Event.
type Account struct {
	ID string `gorm:"primaryKey;type:varchar(64)"` // External account identifier.

	Balance int64        `gorm:"not null;default:0"` // Current credit balance, never negative.
	State   AccountState `gorm:"not null;default:1"` // Subscription state.

	ActivatedAt  *time.Time `gorm:""`                   // First transition into PRO.
	TotalProDays int        `gorm:"not null;default:0"` // Count of daily decays charged.

	LowBalanceWarned  bool `gorm:"not null;default:false"` // Low balance warning has been raised.
	DowngradeNotified bool `gorm:"not null;default:false"` // Downgrade to BASIC has been surfaced.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
