package catalog

import (
	"testing"

	"github.com/quoteworks/creditledger/internal/config"
	"github.com/quoteworks/creditledger/internal/models"

	"github.com/stretchr/testify/require"
)

func TestNew_NormalizesKinds(t *testing.T) {
	snapshot, errNew := New(map[string]config.RewardRuleConfig{
		"  quote_accepted ": {Amount: 5, MaxPerActionPerDay: 50},
	}, 100)
	require.NoError(t, errNew)

	rule, ok := snapshot.Rule(models.EventKind("QUOTE_ACCEPTED"))
	require.True(t, ok)
	require.Equal(t, int64(5), rule.Amount)
	require.Equal(t, int64(50), rule.MaxPerActionPerDay)
	require.Equal(t, int64(100), snapshot.MaxCreditsPerDay())

	_, missing := snapshot.Rule(models.EventKind("NOT_A_KIND"))
	require.False(t, missing)
}

func TestNew_RejectsReservedKinds(t *testing.T) {
	for _, reserved := range []string{"WELCOME_BONUS", "daily_decay", "PURCHASE", "ADMIN_ADJUSTMENT", "REFUND"} {
		_, errNew := New(map[string]config.RewardRuleConfig{reserved: {Amount: 1}}, 0)
		require.Error(t, errNew, "kind %s", reserved)
	}
}

func TestNew_RejectsEmptyKind(t *testing.T) {
	_, errNew := New(map[string]config.RewardRuleConfig{"   ": {Amount: 1}}, 0)
	require.Error(t, errNew)
}

func TestKinds_Sorted(t *testing.T) {
	snapshot, errNew := New(map[string]config.RewardRuleConfig{
		"REVIEW_RECEIVED":   {Amount: 1},
		"QUOTE_ACCEPTED":    {Amount: 5},
		"PROFILE_COMPLETED": {Amount: 10},
	}, 0)
	require.NoError(t, errNew)

	kinds := snapshot.Kinds()
	require.Equal(t, []models.EventKind{"PROFILE_COMPLETED", "QUOTE_ACCEPTED", "REVIEW_RECEIVED"}, kinds)
}

func TestStore_Swap(t *testing.T) {
	first, errFirst := New(map[string]config.RewardRuleConfig{"QUOTE_ACCEPTED": {Amount: 5}}, 0)
	require.NoError(t, errFirst)
	store := NewStore(first)
	require.Same(t, first, store.Current())

	second, errSecond := New(map[string]config.RewardRuleConfig{"QUOTE_ACCEPTED": {Amount: 8}}, 0)
	require.NoError(t, errSecond)
	store.Swap(second)
	require.Same(t, second, store.Current())

	// A nil swap keeps the previous snapshot active.
	store.Swap(nil)
	require.Same(t, second, store.Current())
}
