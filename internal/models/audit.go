package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditRecord stores one entry of the admin audit trail. Every manual
// adjustment and state override writes one, carrying the acting operator.
type AuditRecord struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	RequestID string `gorm:"type:varchar(64);not null;default:''"` // Originating request ID.

	ActorID   string `gorm:"type:varchar(64);not null;index"` // Acting operator.
	Action    string `gorm:"type:varchar(64);not null"`       // Performed action name.
	AccountID string `gorm:"type:varchar(64);not null;index"` // Affected account ID.

	Detail datatypes.JSON `gorm:"type:jsonb"` // Action-specific payload.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
