package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quoteworks/creditledger/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RewardInput describes one reward application request.
type RewardInput struct {
	AccountID       string
	Kind            string
	Role            string // Caller role, checked against the eligibility predicate.
	CorrelationType string // Idempotency entity type, optional.
	CorrelationID   string // Idempotency entity ID, optional.
	Description     string
}

// ApplyReward grants the configured credits for a business action. Duplicate
// correlations, capped days, and ineligible callers resolve to a Skipped
// result rather than an error so that caller retries are absorbed.
func (s *Service) ApplyReward(ctx context.Context, in RewardInput) (RewardResult, error) {
	accountID, errValidate := normalizeAccountID(in.AccountID)
	if errValidate != nil {
		return RewardResult{}, errValidate
	}

	kind, ok := models.NormalizeEventKind(in.Kind)
	if !ok {
		return RewardResult{}, ErrUnknownRewardKind
	}

	correlationType := strings.TrimSpace(in.CorrelationType)
	correlationID := strings.TrimSpace(in.CorrelationID)
	if (correlationType == "") != (correlationID == "") {
		return RewardResult{}, ErrMalformedCorrelation
	}

	if s.cfg.EligibleRole != "" && !strings.EqualFold(strings.TrimSpace(in.Role), s.cfg.EligibleRole) {
		return skipped(SkipReasonIneligibleRole, nil), nil
	}

	rule, found := s.catalog.Current().Rule(kind)
	if !found {
		return RewardResult{}, ErrUnknownRewardKind
	}
	if rule.Amount <= 0 {
		return skipped(SkipReasonZeroAmount, nil), nil
	}

	var result RewardResult
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()
		account, errAccount := s.getOrCreateLocked(ctx, tx, accountID, now)
		if errAccount != nil {
			return errAccount
		}
		if account.State == models.AccountStateExpired {
			result = skipped(SkipReasonExpired, account)
			return nil
		}

		if correlationType != "" {
			duplicate, errDup := s.correlationExists(ctx, tx, accountID, kind, correlationType, correlationID)
			if errDup != nil {
				return errDup
			}
			if duplicate {
				result = skipped(SkipReasonDuplicate, account)
				return nil
			}
		}

		capped, reason, errCaps := s.checkDailyCaps(ctx, tx, accountID, kind, rule.Amount, rule.MaxPerActionPerDay, now)
		if errCaps != nil {
			return errCaps
		}
		if capped {
			result = skipped(reason, account)
			return nil
		}

		event, errAppend := s.appendEvent(ctx, tx, account, eventInput{
			kind:            kind,
			delta:           rule.Amount,
			correlationType: correlationType,
			correlationID:   correlationID,
			description:     strings.TrimSpace(in.Description),
			at:              now,
		})
		if errAppend != nil {
			// The unique correlation index closes the race between the
			// duplicate pre-check and the insert.
			if errors.Is(errAppend, gorm.ErrDuplicatedKey) {
				result = skipped(SkipReasonDuplicate, account)
				return nil
			}
			return errAppend
		}

		result = RewardResult{
			Applied: true,
			Event:   event,
			Balance: account.Balance,
			State:   account.State,
		}
		return nil
	})
	if errTx != nil {
		return RewardResult{}, errTx
	}

	if result.Applied {
		log.WithFields(log.Fields{
			"account": accountID,
			"kind":    string(kind),
			"delta":   result.Event.Delta,
			"balance": result.Balance,
		}).Info("reward applied")
	} else {
		log.WithFields(log.Fields{
			"account": accountID,
			"kind":    string(kind),
			"reason":  string(result.Skip),
		}).Info("reward skipped")
	}
	return result, nil
}

// correlationExists reports whether a non-admin event with the same
// (account, kind, correlation) already exists.
func (s *Service) correlationExists(ctx context.Context, tx *gorm.DB, accountID string, kind models.EventKind, correlationType, correlationID string) (bool, error) {
	var count int64
	if errCount := tx.WithContext(ctx).
		Model(&models.Event{}).
		Where("account_id = ? AND kind = ? AND correlation_type = ? AND correlation_id = ?",
			accountID, kind, correlationType, correlationID).
		Count(&count).Error; errCount != nil {
		return false, fmt.Errorf("ledger: check correlation: %w", errCount)
	}
	return count > 0, nil
}

// checkDailyCaps enforces the per-kind and global daily ceilings over the
// current UTC calendar day. A reward that would exceed either cap is skipped
// whole, never granted partially.
func (s *Service) checkDailyCaps(ctx context.Context, tx *gorm.DB, accountID string, kind models.EventKind, amount, maxPerAction int64, now time.Time) (bool, SkipReason, error) {
	dayStart := utcDayStart(now)

	if maxPerAction > 0 {
		var kindTotal int64
		if errSum := tx.WithContext(ctx).
			Model(&models.Event{}).
			Where("account_id = ? AND kind = ? AND delta > 0 AND created_at >= ?", accountID, kind, dayStart).
			Select("COALESCE(SUM(delta), 0)").
			Scan(&kindTotal).Error; errSum != nil {
			return false, "", fmt.Errorf("ledger: sum daily kind credits: %w", errSum)
		}
		if kindTotal+amount > maxPerAction {
			return true, SkipReasonActionCap, nil
		}
	}

	maxPerDay := s.catalog.Current().MaxCreditsPerDay()
	if maxPerDay > 0 {
		reserved := []models.EventKind{
			models.EventKindWelcomeBonus,
			models.EventKindDailyDecay,
			models.EventKindPurchase,
			models.EventKindAdminAdjustment,
			models.EventKindRefund,
		}
		var dayTotal int64
		if errSum := tx.WithContext(ctx).
			Model(&models.Event{}).
			Where("account_id = ? AND delta > 0 AND created_at >= ? AND kind NOT IN ?", accountID, dayStart, reserved).
			Select("COALESCE(SUM(delta), 0)").
			Scan(&dayTotal).Error; errSum != nil {
			return false, "", fmt.Errorf("ledger: sum daily credits: %w", errSum)
		}
		if dayTotal+amount > maxPerDay {
			return true, SkipReasonDailyCap, nil
		}
	}
	return false, "", nil
}
