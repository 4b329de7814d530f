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
	"gorm.io/gorm/clause"
)

// normalizeAccountID validates and trims an external account identifier.
func normalizeAccountID(accountID string) (string, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return "", ErrEmptyAccountID
	}
	return accountID, nil
}

// lockAccount loads the account row under FOR UPDATE within tx. Returns
// gorm.ErrRecordNotFound when the account does not exist.
func lockAccount(ctx context.Context, tx *gorm.DB, accountID string) (*models.Account, error) {
	var account models.Account
	if errFind := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", accountID).
		First(&account).Error; errFind != nil {
		return nil, errFind
	}
	return &account, nil
}

// getOrCreateLocked returns the locked account row, creating it with the
// welcome bonus when absent. Concurrent creators collapse onto the unique
// primary key; the loser re-reads under lock.
func (s *Service) getOrCreateLocked(ctx context.Context, tx *gorm.DB, accountID string, at time.Time) (*models.Account, error) {
	account, errLock := lockAccount(ctx, tx, accountID)
	if errLock == nil {
		return account, nil
	}
	if !errors.Is(errLock, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("ledger: lock account: %w", errLock)
	}

	created := models.Account{
		ID:      accountID,
		Balance: 0,
		State:   models.AccountStateBasic,
	}

	// The insert runs under a savepoint: on postgres a unique-key violation
	// aborts the surrounding transaction, and without the savepoint the
	// loser's fallback re-read below would fail too.
	errCreate := tx.Transaction(func(inner *gorm.DB) error {
		if errInsert := inner.WithContext(ctx).Create(&created).Error; errInsert != nil {
			return errInsert
		}
		if s.cfg.WelcomeBonus > 0 {
			if _, errBonus := s.appendEvent(ctx, inner, &created, eventInput{
				kind:        models.EventKindWelcomeBonus,
				delta:       s.cfg.WelcomeBonus,
				description: "welcome bonus",
				at:          at,
			}); errBonus != nil {
				return errBonus
			}
		}
		return nil
	})
	if errCreate != nil {
		if errors.Is(errCreate, gorm.ErrDuplicatedKey) {
			return lockAccount(ctx, tx, accountID)
		}
		return nil, fmt.Errorf("ledger: create account: %w", errCreate)
	}
	return &created, nil
}

// eventInput describes one ledger event to append.
type eventInput struct {
	kind            models.EventKind
	delta           int64
	correlationType string
	correlationID   string
	externalRef     string
	description     string
	at              time.Time
}

// appendEvent inserts the event and synchronizes the account's materialized
// balance and state in the same transaction. The caller must hold the row
// lock on the account. Deltas that would drive the balance negative are a
// programming error; callers clamp first.
func (s *Service) appendEvent(ctx context.Context, tx *gorm.DB, account *models.Account, in eventInput) (*models.Event, error) {
	before := account.Balance
	after := before + in.delta
	if after < 0 {
		return nil, fmt.Errorf("ledger: event would drive balance negative (account=%s delta=%d balance=%d)", account.ID, in.delta, before)
	}

	at := in.at.UTC()

	// Events are totally ordered per account by created_at. A locally skewed
	// clock must not produce an out-of-order timestamp.
	var latest models.Event
	errLatest := tx.WithContext(ctx).
		Where("account_id = ?", account.ID).
		Order("created_at DESC, id DESC").
		Select("created_at").
		First(&latest).Error
	if errLatest != nil && !errors.Is(errLatest, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("ledger: read latest event: %w", errLatest)
	}
	if errLatest == nil && at.Before(latest.CreatedAt) {
		at = latest.CreatedAt
	}

	event := models.Event{
		AccountID:       account.ID,
		Kind:            in.kind,
		Delta:           in.delta,
		BalanceBefore:   before,
		BalanceAfter:    after,
		CorrelationType: in.correlationType,
		CorrelationID:   in.correlationID,
		ExternalRef:     in.externalRef,
		Description:     in.description,
		CreatedAt:       at,
	}
	if errCreate := tx.WithContext(ctx).Create(&event).Error; errCreate != nil {
		if errors.Is(errCreate, gorm.ErrDuplicatedKey) {
			return nil, errCreate
		}
		return nil, fmt.Errorf("ledger: append event: %w", errCreate)
	}

	account.Balance = after
	s.applyStateTransition(account, at)

	if errSave := tx.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", account.ID).
		Updates(map[string]any{
			"balance":            account.Balance,
			"state":              account.State,
			"activated_at":       account.ActivatedAt,
			"total_pro_days":     account.TotalProDays,
			"low_balance_warned": account.LowBalanceWarned,
			"downgrade_notified": account.DowngradeNotified,
			"updated_at":         at,
		}).Error; errSave != nil {
		return nil, fmt.Errorf("ledger: update account: %w", errSave)
	}
	return &event, nil
}

// applyStateTransition derives the subscription state from the new balance.
// EXPIRED is terminal and never changed here.
func (s *Service) applyStateTransition(account *models.Account, at time.Time) {
	switch {
	case account.State == models.AccountStateExpired:
		// terminal
	case account.Balance > 0:
		if account.State != models.AccountStatePro {
			account.State = models.AccountStatePro
			if account.ActivatedAt == nil {
				activated := at
				account.ActivatedAt = &activated
			}
			account.LowBalanceWarned = false
			account.DowngradeNotified = false
		}
	case account.State == models.AccountStatePro:
		account.State = models.AccountStateBasic
	}

	if account.State == models.AccountStatePro &&
		s.cfg.LowBalanceThreshold > 0 &&
		account.Balance <= s.cfg.LowBalanceThreshold {
		account.LowBalanceWarned = true
	}
}

// GetOrCreate returns the account, creating it with the welcome bonus on
// first reference.
func (s *Service) GetOrCreate(ctx context.Context, accountID string) (models.Account, error) {
	accountID, errValidate := normalizeAccountID(accountID)
	if errValidate != nil {
		return models.Account{}, errValidate
	}

	var existing models.Account
	errFind := s.db.WithContext(ctx).Where("id = ?", accountID).First(&existing).Error
	if errFind == nil {
		return existing, nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return models.Account{}, fmt.Errorf("ledger: read account: %w", errFind)
	}

	var created *models.Account
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, errCreate := s.getOrCreateLocked(ctx, tx, accountID, s.now())
		if errCreate != nil {
			return errCreate
		}
		created = account
		return nil
	})
	if errTx != nil {
		return models.Account{}, errTx
	}

	log.WithFields(log.Fields{
		"account": created.ID,
		"balance": created.Balance,
		"state":   created.State.String(),
	}).Info("account created")
	return *created, nil
}

// Balance returns the read-model for an account. Unknown accounts are a
// NotFound on this read path; write paths create them instead.
func (s *Service) Balance(ctx context.Context, accountID string) (BalanceInfo, error) {
	accountID, errValidate := normalizeAccountID(accountID)
	if errValidate != nil {
		return BalanceInfo{}, errValidate
	}

	var account models.Account
	if errFind := s.db.WithContext(ctx).Where("id = ?", accountID).First(&account).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return BalanceInfo{}, ErrAccountNotFound
		}
		return BalanceInfo{}, fmt.Errorf("ledger: read account: %w", errFind)
	}

	info := BalanceInfo{
		AccountID:         account.ID,
		Balance:           account.Balance,
		State:             account.State,
		StateName:         account.State.String(),
		CanAct:            account.State == models.AccountStatePro && account.Balance > 0,
		LowBalanceWarning: account.State == models.AccountStatePro && s.cfg.LowBalanceThreshold > 0 && account.Balance <= s.cfg.LowBalanceThreshold,
	}
	if account.State == models.AccountStatePro {
		info.ProDaysRemaining = account.Balance / s.cfg.DecayAmount
	}
	return info, nil
}

// ListEvents returns the account's events, most recent first.
func (s *Service) ListEvents(ctx context.Context, accountID string, limit, offset int) ([]models.Event, error) {
	accountID, errValidate := normalizeAccountID(accountID)
	if errValidate != nil {
		return nil, errValidate
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var events []models.Event
	if errFind := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error; errFind != nil {
		return nil, fmt.Errorf("ledger: list events: %w", errFind)
	}
	return events, nil
}

// CheckConsistency verifies that the materialized balance equals the sum of
// all event deltas for the account. The hot path never recomputes balances;
// this exists for tests and operator verification.
func (s *Service) CheckConsistency(ctx context.Context, accountID string) (bool, int64, error) {
	accountID, errValidate := normalizeAccountID(accountID)
	if errValidate != nil {
		return false, 0, errValidate
	}

	var account models.Account
	if errFind := s.db.WithContext(ctx).Where("id = ?", accountID).First(&account).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return false, 0, ErrAccountNotFound
		}
		return false, 0, fmt.Errorf("ledger: read account: %w", errFind)
	}

	var sum int64
	if errSum := s.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("account_id = ?", accountID).
		Select("COALESCE(SUM(delta), 0)").
		Scan(&sum).Error; errSum != nil {
		return false, 0, fmt.Errorf("ledger: sum events: %w", errSum)
	}
	return sum == account.Balance, sum, nil
}
