package models

import "time"

// PurchaseStatus represents the lifecycle state of a purchase order.
type PurchaseStatus int

// PurchaseStatus constants define purchase order lifecycle states.
const (
	// PurchaseStatusPending marks an order awaiting the processor signal.
	PurchaseStatusPending PurchaseStatus = 1
	// PurchaseStatusCompleted marks an order whose credits were applied.
	PurchaseStatusCompleted PurchaseStatus = 2
	// PurchaseStatusFailed marks an order the processor abandoned.
	PurchaseStatusFailed PurchaseStatus = 3
	// PurchaseStatusRefunded marks an order refunded after completion.
	PurchaseStatusRefunded PurchaseStatus = 4
)

// String returns the canonical name of the status.
func (s PurchaseStatus) String() string {
	switch s {
	case PurchaseStatusPending:
		return "PENDING"
	case PurchaseStatusCompleted:
		return "COMPLETED"
	case PurchaseStatusFailed:
		return "FAILED"
	case PurchaseStatusRefunded:
		return "REFUNDED"
	default:
		return "UNKNOWN"
	}
}

// PurchaseOrder tracks a credit purchase against an external payment session.
// The session ID is the sole idempotency key; the processor may redeliver the
// completion signal any number of times.
type PurchaseOrder struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ExternalSessionID string `gorm:"type:varchar(128);not null;uniqueIndex"` // Payment session identifier.

	AccountID     string `gorm:"type:varchar(64);not null;index"` // Purchasing account ID.
	CreditsAmount int64  `gorm:"not null"`                        // Credits the order is worth.

	Status      PurchaseStatus `gorm:"not null;default:1"` // Current order status.
	CompletedAt *time.Time     `gorm:""`                   // Completion timestamp.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
