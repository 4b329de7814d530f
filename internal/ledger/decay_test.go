package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/quoteworks/creditledger/internal/models"

	"github.com/stretchr/testify/require"
)

func TestRunDailyDecay_DeductsOncePerDay(t *testing.T) {
	service, clock := newTestService(t, nil, 0, defaultTestConfig())
	ctx := context.Background()

	_, errGet := service.GetOrCreate(ctx, "acct-1")
	require.NoError(t, errGet)

	first, errFirst := service.RunDailyDecay(ctx)
	require.NoError(t, errFirst)
	require.Equal(t, 1, first.AccountsProcessed)
	require.Equal(t, 0, first.AccountsDowngraded)

	info, errBalance := service.Balance(ctx, "acct-1")
	require.NoError(t, errBalance)
	require.Equal(t, int64(89), info.Balance)

	// Re-running within the same UTC day is a no-op.
	clock.Advance(6 * time.Hour)
	second, errSecond := service.RunDailyDecay(ctx)
	require.NoError(t, errSecond)
	require.Equal(t, 0, second.AccountsProcessed)
	require.Equal(t, 1, second.AccountsSkipped)

	info, errBalance = service.Balance(ctx, "acct-1")
	require.NoError(t, errBalance)
	require.Equal(t, int64(89), info.Balance)

	clock.Advance(24 * time.Hour)
	third, errThird := service.RunDailyDecay(ctx)
	require.NoError(t, errThird)
	require.Equal(t, 1, third.AccountsProcessed)
}

func TestRunDailyDecay_DowngradesAtZero(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.WelcomeBonus = 1
	service, _ := newTestService(t, nil, 0, cfg)
	ctx := context.Background()

	_, errGet := service.GetOrCreate(ctx, "acct-1")
	require.NoError(t, errGet)

	report, errDecay := service.RunDailyDecay(ctx)
	require.NoError(t, errDecay)
	require.Equal(t, 1, report.AccountsProcessed)
	require.Equal(t, 1, report.AccountsDowngraded)

	var account models.Account
	require.NoError(t, service.db.First(&account, "id = ?", "acct-1").Error)
	require.Equal(t, int64(0), account.Balance)
	require.Equal(t, models.AccountStateBasic, account.State)
	require.True(t, account.DowngradeNotified)
	require.Equal(t, 1, account.TotalProDays)
}

func TestRunDailyDecay_ClampsDeductionToBalance(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.WelcomeBonus = 3
	cfg.DecayAmount = 5
	service, _ := newTestService(t, nil, 0, cfg)
	ctx := context.Background()

	_, errGet := service.GetOrCreate(ctx, "acct-1")
	require.NoError(t, errGet)

	report, errDecay := service.RunDailyDecay(ctx)
	require.NoError(t, errDecay)
	require.Equal(t, 1, report.AccountsProcessed)

	var event models.Event
	require.NoError(t, service.db.
		Where("account_id = ? AND kind = ?", "acct-1", models.EventKindDailyDecay).
		First(&event).Error)
	require.Equal(t, int64(-3), event.Delta)
	require.Equal(t, int64(0), event.BalanceAfter)
}

func TestRunDailyDecay_IgnoresBasicAndExpired(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.WelcomeBonus = 0
	service, _ := newTestService(t, nil, 0, cfg)
	ctx := context.Background()

	_, errBasic := service.GetOrCreate(ctx, "basic-acct")
	require.NoError(t, errBasic)

	_, errPro := service.Adjust(ctx, AdjustInput{
		AccountID: "expired-acct", Delta: 10, Reason: "seed", ActorID: "ops",
	})
	require.NoError(t, errPro)
	require.NoError(t, service.Expire(ctx, "expired-acct", "fraud", "ops", ""))

	report, errDecay := service.RunDailyDecay(ctx)
	require.NoError(t, errDecay)
	require.Equal(t, 0, report.AccountsProcessed)
	require.Equal(t, 0, report.AccountsSkipped)
}

// A prior deduction recorded with a zoned timestamp must still count as
// "already decayed today" once normalized to the UTC calendar day.
func TestRunDailyDecay_NormalizesZonedTimestamps(t *testing.T) {
	service, clock := newTestService(t, nil, 0, defaultTestConfig())
	ctx := context.Background()

	account, errGet := service.GetOrCreate(ctx, "acct-1")
	require.NoError(t, errGet)

	// 20:00 UTC+8 on March 10 is 12:00 UTC the same day.
	shanghai := time.FixedZone("UTC+8", 8*60*60)
	require.NoError(t, service.db.Create(&models.Event{
		AccountID:     "acct-1",
		Kind:          models.EventKindDailyDecay,
		Delta:         -1,
		BalanceBefore: account.Balance,
		BalanceAfter:  account.Balance - 1,
		CreatedAt:     time.Date(2026, 3, 10, 20, 0, 0, 0, shanghai),
	}).Error)
	require.NoError(t, service.db.Model(&models.Account{}).
		Where("id = ?", "acct-1").
		Update("balance", account.Balance-1).Error)

	clock.Advance(6 * time.Hour) // 18:00 UTC, still March 10
	report, errDecay := service.RunDailyDecay(ctx)
	require.NoError(t, errDecay)
	require.Equal(t, 0, report.AccountsProcessed)
	require.Equal(t, 1, report.AccountsSkipped)
}

func TestDecay_FullLifecycle(t *testing.T) {
	service, clock := newTestService(t, quoteRules(), 0, defaultTestConfig())
	ctx := context.Background()

	_, errGet := service.GetOrCreate(ctx, "acct-1")
	require.NoError(t, errGet)

	reward, errReward := service.ApplyReward(ctx, RewardInput{
		AccountID:       "acct-1",
		Kind:            "QUOTE_ACCEPTED",
		CorrelationType: "quote",
		CorrelationID:   "q-1",
	})
	require.NoError(t, errReward)
	require.Equal(t, int64(95), reward.Balance)

	// 95 daily deductions exhaust the balance.
	for day := 0; day < 95; day++ {
		clock.Advance(24 * time.Hour)
		report, errDecay := service.RunDailyDecay(ctx)
		require.NoError(t, errDecay)
		require.Equal(t, 1, report.AccountsProcessed, "day %d", day)
	}

	var account models.Account
	require.NoError(t, service.db.First(&account, "id = ?", "acct-1").Error)
	require.Equal(t, int64(0), account.Balance)
	require.Equal(t, models.AccountStateBasic, account.State)
	require.Equal(t, 95, account.TotalProDays)

	// Nothing left to decay.
	clock.Advance(24 * time.Hour)
	report, errDecay := service.RunDailyDecay(ctx)
	require.NoError(t, errDecay)
	require.Equal(t, 0, report.AccountsProcessed)

	consistent, sum, errCheck := service.CheckConsistency(ctx, "acct-1")
	require.NoError(t, errCheck)
	require.True(t, consistent)
	require.Equal(t, int64(0), sum)
}
