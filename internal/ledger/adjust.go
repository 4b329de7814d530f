package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quoteworks/creditledger/internal/audit"
	"github.com/quoteworks/creditledger/internal/models"

	"gorm.io/gorm"
)

// AdjustInput describes one manual operator correction.
type AdjustInput struct {
	AccountID string
	Delta     int64
	Reason    string
	ActorID   string
	RequestID string
}

// Adjust applies an unrestricted manual correction. It bypasses caps and
// correlation checks, requires a non-empty reason, clamps the resulting
// balance at zero, and writes an audit record in the same transaction.
func (s *Service) Adjust(ctx context.Context, in AdjustInput) (models.Event, error) {
	accountID, errValidate := normalizeAccountID(in.AccountID)
	if errValidate != nil {
		return models.Event{}, errValidate
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return models.Event{}, ErrEmptyReason
	}
	if in.Delta == 0 {
		return models.Event{}, ErrZeroAdjustment
	}
	actorID := strings.TrimSpace(in.ActorID)
	if actorID == "" {
		return models.Event{}, fmt.Errorf("ledger: actor id is required")
	}

	var applied models.Event
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()

		account, errAccount := s.getOrCreateLocked(ctx, tx, accountID, now)
		if errAccount != nil {
			return errAccount
		}

		delta := in.Delta
		if account.Balance+delta < 0 {
			delta = -account.Balance
		}

		event, errAppend := s.appendEvent(ctx, tx, account, eventInput{
			kind:        models.EventKindAdminAdjustment,
			delta:       delta,
			description: reason,
			at:          now,
		})
		if errAppend != nil {
			return errAppend
		}
		applied = *event

		return audit.Record(ctx, tx, audit.Entry{
			RequestID: in.RequestID,
			ActorID:   actorID,
			Action:    "adjust",
			AccountID: accountID,
			Detail: map[string]any{
				"requested_delta": in.Delta,
				"applied_delta":   delta,
				"reason":          reason,
				"balance_after":   event.BalanceAfter,
			},
		})
	})
	if errTx != nil {
		return models.Event{}, errTx
	}
	return applied, nil
}

// Expire retires an account into the terminal EXPIRED state. Expired accounts
// are excluded from the decay sweep and reward mutation; only Adjust may
// still touch their balance.
func (s *Service) Expire(ctx context.Context, accountID, reason, actorID, requestID string) error {
	accountID, errValidate := normalizeAccountID(accountID)
	if errValidate != nil {
		return errValidate
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrEmptyReason
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, errLock := lockAccount(ctx, tx, accountID)
		if errLock != nil {
			if errors.Is(errLock, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("ledger: lock account: %w", errLock)
		}
		if account.State == models.AccountStateExpired {
			return nil
		}

		if errSave := tx.WithContext(ctx).
			Model(&models.Account{}).
			Where("id = ?", accountID).
			Update("state", models.AccountStateExpired).Error; errSave != nil {
			return fmt.Errorf("ledger: expire account: %w", errSave)
		}

		return audit.Record(ctx, tx, audit.Entry{
			RequestID: requestID,
			ActorID:   strings.TrimSpace(actorID),
			Action:    "expire",
			AccountID: accountID,
			Detail: map[string]any{
				"reason":         reason,
				"previous_state": account.State.String(),
			},
		})
	})
}
