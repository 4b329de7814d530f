package models

import (
	"strings"
	"time"
)

// EventKind identifies the cause of a ledger event. Reward kinds are defined
// by the reward catalog; the kinds below are reserved for the engine itself.
type EventKind string

// Reserved event kinds.
const (
	// EventKindWelcomeBonus credits the one-time bonus on account creation.
	EventKindWelcomeBonus EventKind = "WELCOME_BONUS"
	// EventKindDailyDecay debits the recurring per-day charge for PRO accounts.
	EventKindDailyDecay EventKind = "DAILY_DECAY"
	// EventKindPurchase credits a completed purchase order.
	EventKindPurchase EventKind = "PURCHASE"
	// EventKindAdminAdjustment records a manual operator correction.
	EventKindAdminAdjustment EventKind = "ADMIN_ADJUSTMENT"
	// EventKindRefund debits a refunded purchase.
	EventKindRefund EventKind = "REFUND"
)

// NormalizeEventKind canonicalizes a raw kind string. Kinds are compared in
// their normalized form only; raw strings never travel past this boundary.
func NormalizeEventKind(raw string) (EventKind, bool) {
	kind := EventKind(strings.ToUpper(strings.TrimSpace(raw)))
	if kind == "" {
		return "", false
	}
	return kind, true
}

// IsReservedEventKind reports whether the kind belongs to the engine rather
// than the reward catalog.
func IsReservedEventKind(kind EventKind) bool {
	switch kind {
	case EventKindWelcomeBonus, EventKindDailyDecay, EventKindPurchase,
		EventKindAdminAdjustment, EventKindRefund:
		return true
	default:
		return false
	}
}

// Event is one immutable, append-only ledger entry. Rows are never updated
// or deleted; balance_after must equal balance_before + delta.
type Event struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key, insertion order.

	AccountID string `gorm:"type:varchar(64);not null;index:idx_events_account_created"` // Owning account ID.

	Kind  EventKind `gorm:"type:varchar(64);not null;index"` // Cause of the balance change.
	Delta int64     `gorm:"not null"`                        // Signed credit change.

	BalanceBefore int64 `gorm:"not null"` // Account balance before the event.
	BalanceAfter  int64 `gorm:"not null"` // Account balance after the event.

	CorrelationType string `gorm:"type:varchar(64);not null;default:''"`  // Idempotency entity type, empty when absent.
	CorrelationID   string `gorm:"type:varchar(128);not null;default:''"` // Idempotency entity ID, empty when absent.

	ExternalRef string `gorm:"type:varchar(128);not null;default:''"` // Payment session reference, PURCHASE only.

	Description string `gorm:"type:text"` // Human-readable cause.

	CreatedAt time.Time `gorm:"not null;index:idx_events_account_created"` // UTC event timestamp.
}
