package audit

import (
	"context"
	"fmt"
	"testing"

	"github.com/quoteworks/creditledger/internal/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestConn(t *testing.T) *gorm.DB {
	t.Helper()
	conn, errOpen := db.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, errOpen)
	require.NoError(t, db.Migrate(conn))
	return conn
}

func TestRecord_RequiresTransaction(t *testing.T) {
	require.Error(t, Record(context.Background(), nil, Entry{Action: "adjust"}))
}

func TestList_Filters(t *testing.T) {
	conn := newTestConn(t)
	ctx := context.Background()

	entries := []Entry{
		{ActorID: "Ops-Alice", Action: "adjust", AccountID: "acct-1", Detail: map[string]any{"delta": 5}},
		{ActorID: "ops-bob", Action: "expire", AccountID: "acct-1"},
		{ActorID: "auditor", Action: "adjust", AccountID: "acct-2"},
	}
	for _, entry := range entries {
		require.NoError(t, Record(ctx, conn, entry))
	}

	all, errAll := List(ctx, conn, "", "", 10, 0)
	require.NoError(t, errAll)
	require.Len(t, all, 3)
	// Newest first.
	require.Equal(t, "auditor", all[0].ActorID)

	byAccount, errAccount := List(ctx, conn, "acct-1", "", 10, 0)
	require.NoError(t, errAccount)
	require.Len(t, byAccount, 2)

	// The actor prefix matches case-insensitively.
	byActor, errActor := List(ctx, conn, "", "OPS", 10, 0)
	require.NoError(t, errActor)
	require.Len(t, byActor, 2)

	one, errOne := List(ctx, conn, "", "ops-b", 10, 0)
	require.NoError(t, errOne)
	require.Len(t, one, 1)
	require.Equal(t, "ops-bob", one[0].ActorID)

	none, errNone := List(ctx, conn, "", "alice", 10, 0)
	require.NoError(t, errNone)
	require.Empty(t, none)

	both, errBoth := List(ctx, conn, "acct-1", "ops", 10, 0)
	require.NoError(t, errBoth)
	require.Len(t, both, 2)
}
