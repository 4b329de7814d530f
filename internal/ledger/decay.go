package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/quoteworks/creditledger/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RunDailyDecay debits every PRO account with a positive balance at most once
// per UTC calendar day. Each account commits in its own transaction, so a
// crash mid-sweep loses only the remaining accounts and the sweep is safe to
// re-run: accounts already decayed today are skipped under the row lock.
func (s *Service) RunDailyDecay(ctx context.Context) (DecayReport, error) {
	var candidates []string
	if errFind := s.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("state = ? AND balance > 0", models.AccountStatePro).
		Order("id ASC").
		Pluck("id", &candidates).Error; errFind != nil {
		return DecayReport{}, fmt.Errorf("ledger: list decay candidates: %w", errFind)
	}

	var report DecayReport
	for _, accountID := range candidates {
		if errCtx := ctx.Err(); errCtx != nil {
			return report, errCtx
		}

		deducted, downgraded, errDecay := s.decayAccount(ctx, accountID)
		switch {
		case errDecay != nil:
			report.AccountsFailed++
			log.WithError(errDecay).WithField("account", accountID).Warn("daily decay failed for account")
		case deducted:
			report.AccountsProcessed++
			if downgraded {
				report.AccountsDowngraded++
			}
		default:
			report.AccountsSkipped++
		}
	}

	log.WithFields(log.Fields{
		"processed":  report.AccountsProcessed,
		"downgraded": report.AccountsDowngraded,
		"skipped":    report.AccountsSkipped,
		"failed":     report.AccountsFailed,
	}).Info("daily decay sweep finished")
	return report, nil
}

// decayAccount applies one daily deduction to a single account inside one
// transaction. The "already decayed today" check runs under the row lock so
// a concurrent sweep or user-triggered decay cannot double-charge.
func (s *Service) decayAccount(ctx context.Context, accountID string) (deducted, downgraded bool, err error) {
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()

		account, errLock := lockAccount(ctx, tx, accountID)
		if errLock != nil {
			if errors.Is(errLock, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("ledger: lock account: %w", errLock)
		}
		if account.State != models.AccountStatePro || account.Balance <= 0 {
			return nil
		}

		var lastDecay models.Event
		errLast := tx.WithContext(ctx).
			Where("account_id = ? AND kind = ?", accountID, models.EventKindDailyDecay).
			Order("created_at DESC, id DESC").
			First(&lastDecay).Error
		if errLast != nil && !errors.Is(errLast, gorm.ErrRecordNotFound) {
			return fmt.Errorf("ledger: read last decay: %w", errLast)
		}
		if errLast == nil && sameUTCDay(lastDecay.CreatedAt, now) {
			return nil
		}

		amount := s.cfg.DecayAmount
		if amount > account.Balance {
			amount = account.Balance
		}
		wasPro := account.State == models.AccountStatePro

		if _, errAppend := s.appendEvent(ctx, tx, account, eventInput{
			kind:        models.EventKindDailyDecay,
			delta:       -amount,
			description: "daily pro decay",
			at:          now,
		}); errAppend != nil {
			return errAppend
		}

		account.TotalProDays++
		update := map[string]any{"total_pro_days": account.TotalProDays}
		if wasPro && account.State == models.AccountStateBasic {
			downgraded = true
			account.DowngradeNotified = true
			update["downgrade_notified"] = true
		}
		if errSave := tx.WithContext(ctx).
			Model(&models.Account{}).
			Where("id = ?", accountID).
			Updates(update).Error; errSave != nil {
			return fmt.Errorf("ledger: update pro days: %w", errSave)
		}

		deducted = true
		return nil
	})
	if errTx != nil {
		return false, false, errTx
	}
	return deducted, downgraded, nil
}
