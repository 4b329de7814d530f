// Package audit persists the operator audit trail for manual ledger actions.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/quoteworks/creditledger/internal/db"
	"github.com/quoteworks/creditledger/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entry describes one auditable admin action.
type Entry struct {
	RequestID string
	ActorID   string
	Action    string
	AccountID string
	Detail    map[string]any
}

// Record writes an audit row using the given transaction handle and emits a
// structured log line. It participates in the caller's transaction so the
// trail commits or rolls back together with the ledger mutation.
func Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if tx == nil {
		return fmt.Errorf("audit: nil transaction")
	}

	var detail datatypes.JSON
	if entry.Detail != nil {
		payload, errMarshal := json.Marshal(entry.Detail)
		if errMarshal != nil {
			return fmt.Errorf("audit: marshal detail: %w", errMarshal)
		}
		detail = datatypes.JSON(payload)
	}

	row := models.AuditRecord{
		RequestID: entry.RequestID,
		ActorID:   entry.ActorID,
		Action:    entry.Action,
		AccountID: entry.AccountID,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	if errCreate := tx.WithContext(ctx).Create(&row).Error; errCreate != nil {
		return fmt.Errorf("audit: create record: %w", errCreate)
	}

	log.WithFields(log.Fields{
		"actor":   entry.ActorID,
		"action":  entry.Action,
		"account": entry.AccountID,
	}).Info("admin action audited")
	return nil
}

// List returns audit records, newest first, optionally filtered by account
// and by a case-insensitive actor prefix.
func List(ctx context.Context, conn *gorm.DB, accountID, actor string, limit, offset int) ([]models.AuditRecord, error) {
	if conn == nil {
		return nil, fmt.Errorf("audit: nil connection")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := conn.WithContext(ctx).Model(&models.AuditRecord{})
	if accountID != "" {
		query = query.Where("account_id = ?", accountID)
	}
	if actor != "" {
		query = query.Where(
			db.CaseInsensitiveLikeExpr(conn, "actor_id"),
			db.NormalizeLikePattern(conn, actor+"%"),
		)
	}

	var rows []models.AuditRecord
	if errFind := query.
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("audit: list records: %w", errFind)
	}
	return rows, nil
}
