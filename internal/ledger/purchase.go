package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quoteworks/creditledger/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreatePurchaseOrder registers a PENDING order for an external payment
// session. Redelivered creation calls for a known session return the
// existing order unchanged.
func (s *Service) CreatePurchaseOrder(ctx context.Context, accountID, sessionID string, credits int64) (models.PurchaseOrder, error) {
	accountID, errValidate := normalizeAccountID(accountID)
	if errValidate != nil {
		return models.PurchaseOrder{}, errValidate
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return models.PurchaseOrder{}, ErrEmptySessionID
	}
	if credits <= 0 {
		return models.PurchaseOrder{}, ErrNonPositiveCredits
	}

	order := models.PurchaseOrder{
		ExternalSessionID: sessionID,
		AccountID:         accountID,
		CreditsAmount:     credits,
		Status:            models.PurchaseStatusPending,
	}
	errCreate := s.db.WithContext(ctx).Create(&order).Error
	if errCreate == nil {
		return order, nil
	}
	if !errors.Is(errCreate, gorm.ErrDuplicatedKey) {
		return models.PurchaseOrder{}, fmt.Errorf("ledger: create purchase order: %w", errCreate)
	}

	var existing models.PurchaseOrder
	if errFind := s.db.WithContext(ctx).
		Where("external_session_id = ?", sessionID).
		First(&existing).Error; errFind != nil {
		return models.PurchaseOrder{}, fmt.Errorf("ledger: read purchase order: %w", errFind)
	}
	return existing, nil
}

// CompletePurchase applies the processor's completion signal for a payment
// session exactly once. A replayed signal for a completed order returns
// AlreadyCompleted without mutating anything; an unknown session is reported
// as NotFound since it indicates a processor mismatch.
func (s *Service) CompletePurchase(ctx context.Context, sessionID string, credits int64) (PurchaseOutcome, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return PurchaseOutcome{}, ErrEmptySessionID
	}

	var outcome PurchaseOutcome
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()

		var order models.PurchaseOrder
		errFind := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("external_session_id = ?", sessionID).
			First(&order).Error
		if errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				outcome = PurchaseOutcome{Result: PurchaseNotFound}
				return nil
			}
			return fmt.Errorf("ledger: read purchase order: %w", errFind)
		}

		switch order.Status {
		case models.PurchaseStatusCompleted:
			outcome = PurchaseOutcome{Result: PurchaseAlreadyCompleted, Order: order}
			return nil
		case models.PurchaseStatusPending:
			// proceed
		default:
			return ErrOrderNotPending
		}

		amount := credits
		if amount <= 0 {
			amount = order.CreditsAmount
		}
		if amount != order.CreditsAmount {
			log.WithFields(log.Fields{
				"session":   sessionID,
				"ordered":   order.CreditsAmount,
				"delivered": amount,
			}).Warn("purchase credit amount differs from order")
		}

		completedAt := now.UTC()
		if errUpdate := tx.WithContext(ctx).
			Model(&models.PurchaseOrder{}).
			Where("id = ?", order.ID).
			Updates(map[string]any{
				"status":       models.PurchaseStatusCompleted,
				"completed_at": completedAt,
			}).Error; errUpdate != nil {
			return fmt.Errorf("ledger: complete purchase order: %w", errUpdate)
		}
		order.Status = models.PurchaseStatusCompleted
		order.CompletedAt = &completedAt

		account, errAccount := s.getOrCreateLocked(ctx, tx, order.AccountID, now)
		if errAccount != nil {
			return errAccount
		}

		// Purchases are exempt from daily caps. The unique external_ref
		// index guarantees at most one PURCHASE event per session even if
		// two deliveries race past the status check.
		event, errAppend := s.appendEvent(ctx, tx, account, eventInput{
			kind:        models.EventKindPurchase,
			delta:       amount,
			externalRef: sessionID,
			description: "credit purchase",
			at:          now,
		})
		if errAppend != nil {
			if errors.Is(errAppend, gorm.ErrDuplicatedKey) {
				outcome = PurchaseOutcome{Result: PurchaseAlreadyCompleted, Order: order}
				return nil
			}
			return errAppend
		}

		outcome = PurchaseOutcome{
			Result:  PurchaseCompleted,
			Order:   order,
			Event:   event,
			Balance: account.Balance,
		}
		return nil
	})
	if errTx != nil {
		return PurchaseOutcome{}, errTx
	}

	log.WithFields(log.Fields{
		"session": sessionID,
		"result":  string(outcome.Result),
	}).Info("purchase completion processed")
	return outcome, nil
}

// FailPurchase marks a pending order as abandoned by the processor. A
// replayed failure signal is a no-op.
func (s *Service) FailPurchase(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrEmptySessionID
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.PurchaseOrder
		errFind := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("external_session_id = ?", sessionID).
			First(&order).Error
		if errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("ledger: read purchase order: %w", errFind)
		}

		switch order.Status {
		case models.PurchaseStatusFailed:
			return nil
		case models.PurchaseStatusPending:
			// proceed
		default:
			return ErrOrderNotPending
		}

		if errUpdate := tx.WithContext(ctx).
			Model(&models.PurchaseOrder{}).
			Where("id = ?", order.ID).
			Update("status", models.PurchaseStatusFailed).Error; errUpdate != nil {
			return fmt.Errorf("ledger: fail purchase order: %w", errUpdate)
		}
		return nil
	})
}
