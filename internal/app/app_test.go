package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/quoteworks/creditledger/internal/config"
	"github.com/quoteworks/creditledger/internal/models"

	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`database-dsn: file:%s
ledger:
  welcome-bonus: 10
  rewards:
    quote_accepted:
      amount: 5
`, filepath.Join(dir, "ledger.db"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestBuildComponents(t *testing.T) {
	t.Setenv(config.EnvDBConnection, "")

	built, errBuild := buildComponents(writeTestConfig(t))
	require.NoError(t, errBuild)
	require.NotNil(t, built.service)

	kinds := built.catalogStore.Current().Kinds()
	require.Equal(t, []models.EventKind{"QUOTE_ACCEPTED"}, kinds)
	require.Equal(t, int64(10), built.ledgerCfg.WelcomeBonus)

	// The schema is migrated by the time components are handed out.
	account, errGet := built.service.GetOrCreate(context.Background(), "acct-1")
	require.NoError(t, errGet)
	require.Equal(t, int64(10), account.Balance)
}

func TestBuildComponents_MissingDSN(t *testing.T) {
	t.Setenv(config.EnvDBConnection, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ledger: {}\n"), 0o600))

	_, errBuild := buildComponents(path)
	require.ErrorIs(t, errBuild, config.ErrMissingDatabaseDSN)
}

func TestMigrateAndRunSweep(t *testing.T) {
	t.Setenv(config.EnvDBConnection, "")

	path := writeTestConfig(t)
	cfg := config.AppConfig{ConfigPath: path}
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, cfg))
	require.NoError(t, RunSweep(ctx, cfg))
}
