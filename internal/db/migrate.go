package db

import (
	"fmt"

	"github.com/quoteworks/creditledger/internal/models"
	"gorm.io/gorm"
)

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite, DialectPostgres, "":
		return migrate(conn)
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}
}

// migrate applies the schema and the uniqueness guarantees the ledger relies
// on. The partial unique indexes are the storage half of reward and purchase
// idempotency: a duplicate correlation or payment session cannot produce a
// second event even under concurrent writers.
func migrate(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(
		&models.Account{},
		&models.Event{},
		&models.PurchaseOrder{},
		&models.AuditRecord{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	// Partial index syntax is shared by PostgreSQL and SQLite.
	if errCorrelation := conn.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_events_reward_correlation
		ON events (account_id, kind, correlation_type, correlation_id)
		WHERE correlation_type <> '' AND kind <> 'ADMIN_ADJUSTMENT'
	`).Error; errCorrelation != nil {
		return fmt.Errorf("db: create correlation index: %w", errCorrelation)
	}

	if errExternalRef := conn.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_events_external_ref
		ON events (external_ref)
		WHERE external_ref <> ''
	`).Error; errExternalRef != nil {
		return fmt.Errorf("db: create external ref index: %w", errExternalRef)
	}

	return nil
}
