package ledger

import (
	"context"
	"testing"

	"github.com/quoteworks/creditledger/internal/models"

	"github.com/stretchr/testify/require"
)

func TestCreatePurchaseOrder_Validation(t *testing.T) {
	service, _ := newTestService(t, nil, 0, defaultTestConfig())
	ctx := context.Background()

	_, errEmpty := service.CreatePurchaseOrder(ctx, "acct-1", "  ", 100)
	require.ErrorIs(t, errEmpty, ErrEmptySessionID)

	_, errCredits := service.CreatePurchaseOrder(ctx, "acct-1", "cs_1", 0)
	require.ErrorIs(t, errCredits, ErrNonPositiveCredits)
}

func TestCreatePurchaseOrder_RedeliveryReturnsExisting(t *testing.T) {
	service, _ := newTestService(t, nil, 0, defaultTestConfig())
	ctx := context.Background()

	first, errFirst := service.CreatePurchaseOrder(ctx, "acct-1", "cs_1", 100)
	require.NoError(t, errFirst)
	require.Equal(t, models.PurchaseStatusPending, first.Status)

	second, errSecond := service.CreatePurchaseOrder(ctx, "acct-1", "cs_1", 100)
	require.NoError(t, errSecond)
	require.Equal(t, first.ID, second.ID)
}

func TestCompletePurchase_CreditsExactlyOnce(t *testing.T) {
	service, _ := newTestService(t, nil, 0, defaultTestConfig())
	ctx := context.Background()

	_, errCreate := service.CreatePurchaseOrder(ctx, "acct-1", "cs_1", 100)
	require.NoError(t, errCreate)

	first, errFirst := service.CompletePurchase(ctx, "cs_1", 100)
	require.NoError(t, errFirst)
	require.Equal(t, PurchaseCompleted, first.Result)
	require.Equal(t, int64(190), first.Balance) // welcome bonus + purchase
	require.NotNil(t, first.Event)
	require.Equal(t, models.EventKindPurchase, first.Event.Kind)

	// Replayed completion signal must not credit again.
	second, errSecond := service.CompletePurchase(ctx, "cs_1", 100)
	require.NoError(t, errSecond)
	require.Equal(t, PurchaseAlreadyCompleted, second.Result)

	info, errBalance := service.Balance(ctx, "acct-1")
	require.NoError(t, errBalance)
	require.Equal(t, int64(190), info.Balance)
}

func TestCompletePurchase_CreatesAccountOnDemand(t *testing.T) {
	service, _ := newTestService(t, nil, 0, defaultTestConfig())
	ctx := context.Background()

	// The order references an account no one has touched yet.
	_, errCreate := service.CreatePurchaseOrder(ctx, "fresh-acct", "cs_1", 50)
	require.NoError(t, errCreate)

	outcome, errComplete := service.CompletePurchase(ctx, "cs_1", 50)
	require.NoError(t, errComplete)
	require.Equal(t, PurchaseCompleted, outcome.Result)
	require.Equal(t, int64(140), outcome.Balance) // bonus seeded first
}

func TestCompletePurchase_UnknownSession(t *testing.T) {
	service, _ := newTestService(t, nil, 0, defaultTestConfig())

	outcome, errComplete := service.CompletePurchase(context.Background(), "cs_missing", 100)
	require.NoError(t, errComplete)
	require.Equal(t, PurchaseNotFound, outcome.Result)
}

func TestCompletePurchase_FallsBackToOrderedAmount(t *testing.T) {
	service, _ := newTestService(t, nil, 0, defaultTestConfig())
	ctx := context.Background()

	_, errCreate := service.CreatePurchaseOrder(ctx, "acct-1", "cs_1", 30)
	require.NoError(t, errCreate)

	outcome, errComplete := service.CompletePurchase(ctx, "cs_1", 0)
	require.NoError(t, errComplete)
	require.Equal(t, PurchaseCompleted, outcome.Result)
	require.Equal(t, int64(30), outcome.Event.Delta)
}

func TestFailPurchase(t *testing.T) {
	service, _ := newTestService(t, nil, 0, defaultTestConfig())
	ctx := context.Background()

	require.ErrorIs(t, service.FailPurchase(ctx, "cs_missing"), ErrOrderNotFound)

	_, errCreate := service.CreatePurchaseOrder(ctx, "acct-1", "cs_1", 100)
	require.NoError(t, errCreate)

	require.NoError(t, service.FailPurchase(ctx, "cs_1"))
	// A replayed failure signal is a no-op.
	require.NoError(t, service.FailPurchase(ctx, "cs_1"))

	var order models.PurchaseOrder
	require.NoError(t, service.db.
		Where("external_session_id = ?", "cs_1").
		First(&order).Error)
	require.Equal(t, models.PurchaseStatusFailed, order.Status)

	// A failed order cannot be completed afterwards.
	_, errComplete := service.CompletePurchase(ctx, "cs_1", 100)
	require.ErrorIs(t, errComplete, ErrOrderNotPending)
}
