// Package ledger implements the credit ledger and subscription-state engine:
// an append-only event ledger per account, with the account row holding a
// materialized balance and state that always reflect the latest committed
// event. Every mutation runs in one transaction that locks the account row,
// reads the balance, and writes the event together with the updated balance.
package ledger

import (
	"errors"
	"time"

	"github.com/quoteworks/creditledger/internal/catalog"
	"github.com/quoteworks/creditledger/internal/models"

	"gorm.io/gorm"
)

// Validation errors rejected before any transaction starts.
var (
	// ErrEmptyAccountID indicates a blank account identifier.
	ErrEmptyAccountID = errors.New("ledger: empty account id")
	// ErrUnknownRewardKind indicates a reward kind absent from the catalog.
	ErrUnknownRewardKind = errors.New("ledger: unknown reward kind")
	// ErrMalformedCorrelation indicates a correlation with only one half set.
	ErrMalformedCorrelation = errors.New("ledger: correlation requires both entity type and entity id")
	// ErrEmptyReason indicates an admin action without a reason.
	ErrEmptyReason = errors.New("ledger: adjustment reason is required")
	// ErrZeroAdjustment indicates an admin adjustment with no delta.
	ErrZeroAdjustment = errors.New("ledger: adjustment delta must be non-zero")
	// ErrEmptySessionID indicates a blank payment session identifier.
	ErrEmptySessionID = errors.New("ledger: empty payment session id")
	// ErrNonPositiveCredits indicates a purchase worth zero or fewer credits.
	ErrNonPositiveCredits = errors.New("ledger: purchase credits must be positive")
)

// Read and state errors.
var (
	// ErrAccountNotFound indicates an unknown account on a read path.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrAccountExpired indicates a terminally retired account.
	ErrAccountExpired = errors.New("ledger: account is expired")
	// ErrOrderNotFound indicates an unknown payment session.
	ErrOrderNotFound = errors.New("ledger: purchase order not found")
	// ErrOrderNotPending indicates a completion signal for a failed or
	// refunded order, which is a processor mismatch rather than a replay.
	ErrOrderNotPending = errors.New("ledger: purchase order is not pending")
)

// Config holds the engine settings fixed at construction time.
type Config struct {
	WelcomeBonus        int64  // Credits seeded on account creation.
	DecayAmount         int64  // Credits debited per PRO day.
	LowBalanceThreshold int64  // Balance at or under which a warning is raised.
	EligibleRole        string // Caller role allowed to earn rewards, empty allows all.
}

// Service is the ledger engine. All operations are safe for concurrent use;
// contention on an account resolves through row locking in the database.
type Service struct {
	db      *gorm.DB
	catalog *catalog.Store
	cfg     Config

	now func() time.Time
}

// New constructs a Service.
func New(conn *gorm.DB, catalogStore *catalog.Store, cfg Config) *Service {
	if cfg.DecayAmount <= 0 {
		cfg.DecayAmount = 1
	}
	return &Service{
		db:      conn,
		catalog: catalogStore,
		cfg:     cfg,
		now:     time.Now,
	}
}

// SkipReason explains why a reward was not applied. Skips are benign results,
// not errors: duplicate deliveries and capped days are expected traffic.
type SkipReason string

// SkipReason values.
const (
	SkipReasonDuplicate      SkipReason = "duplicate_correlation"
	SkipReasonActionCap      SkipReason = "per_action_daily_cap"
	SkipReasonDailyCap       SkipReason = "daily_credit_cap"
	SkipReasonZeroAmount     SkipReason = "non_positive_amount"
	SkipReasonIneligibleRole SkipReason = "ineligible_role"
	SkipReasonExpired        SkipReason = "account_expired"
)

// RewardResult reports the outcome of a reward application.
type RewardResult struct {
	Applied bool
	Skip    SkipReason
	Event   *models.Event
	Balance int64
	State   models.AccountState
}

// skipped builds a RewardResult for a benign skip.
func skipped(reason SkipReason, account *models.Account) RewardResult {
	result := RewardResult{Skip: reason}
	if account != nil {
		result.Balance = account.Balance
		result.State = account.State
	}
	return result
}

// DecayReport summarizes one daily decay sweep.
type DecayReport struct {
	AccountsProcessed  int // Accounts that received a deduction.
	AccountsDowngraded int // Accounts downgraded to BASIC by the deduction.
	AccountsSkipped    int // Accounts already decayed today or no longer eligible.
	AccountsFailed     int // Accounts whose transaction failed and was rolled back.
}

// PurchaseResult classifies the outcome of a purchase completion signal.
type PurchaseResult string

// PurchaseResult values.
const (
	PurchaseCompleted        PurchaseResult = "COMPLETED"
	PurchaseAlreadyCompleted PurchaseResult = "ALREADY_COMPLETED"
	PurchaseNotFound         PurchaseResult = "NOT_FOUND"
)

// PurchaseOutcome reports the result of a purchase completion signal.
type PurchaseOutcome struct {
	Result  PurchaseResult
	Order   models.PurchaseOrder
	Event   *models.Event
	Balance int64
}

// BalanceInfo is the read-model returned to collaborators.
type BalanceInfo struct {
	AccountID         string              `json:"account_id"`
	Balance           int64               `json:"balance"`
	State             models.AccountState `json:"-"`
	StateName         string              `json:"state"`
	ProDaysRemaining  int64               `json:"pro_days_remaining"`
	CanAct            bool                `json:"can_act"`
	LowBalanceWarning bool                `json:"low_balance_warning"`
}
