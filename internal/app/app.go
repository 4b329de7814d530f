// Package app wires the engine together and runs the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/quoteworks/creditledger/internal/catalog"
	"github.com/quoteworks/creditledger/internal/config"
	"github.com/quoteworks/creditledger/internal/db"
	"github.com/quoteworks/creditledger/internal/http/api"
	adminapi "github.com/quoteworks/creditledger/internal/http/api/admin"
	frontapi "github.com/quoteworks/creditledger/internal/http/api/front"
	"github.com/quoteworks/creditledger/internal/ledger"
	"github.com/quoteworks/creditledger/internal/sweep"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// components bundles everything buildComponents wires up.
type components struct {
	conn         *gorm.DB
	service      *ledger.Service
	catalogStore *catalog.Store
	ledgerCfg    config.LedgerConfig
}

// buildComponents opens the database, migrates, and constructs the ledger
// service with its catalog store.
func buildComponents(configPath string) (*components, error) {
	dsn, errDSN := config.LoadDatabaseDSN(configPath)
	if errDSN != nil {
		return nil, errDSN
	}
	conn, errOpen := db.Open(dsn)
	if errOpen != nil {
		return nil, errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return nil, errMigrate
	}

	ledgerCfg, errLedger := config.LoadLedgerConfig(configPath)
	if errLedger != nil {
		return nil, errLedger
	}
	snapshot, errCatalog := catalog.New(ledgerCfg.Rewards, ledgerCfg.MaxCreditsPerDay)
	if errCatalog != nil {
		return nil, errCatalog
	}
	catalogStore := catalog.NewStore(snapshot)

	service := ledger.New(conn, catalogStore, ledger.Config{
		WelcomeBonus:        ledgerCfg.WelcomeBonus,
		DecayAmount:         ledgerCfg.DecayAmount,
		LowBalanceThreshold: ledgerCfg.LowBalanceThreshold,
		EligibleRole:        ledgerCfg.EligibleRole,
	})

	return &components{
		conn:         conn,
		service:      service,
		catalogStore: catalogStore,
		ledgerCfg:    ledgerCfg,
	}, nil
}

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunSweep opens the database and executes one decay sweep, for use as a
// standalone scheduled job.
func RunSweep(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	built, errBuild := buildComponents(configPath)
	if errBuild != nil {
		return errBuild
	}
	report, errRun := built.service.RunDailyDecay(ctx)
	if errRun != nil {
		return errRun
	}
	log.WithFields(log.Fields{
		"processed":  report.AccountsProcessed,
		"downgraded": report.AccountsDowngraded,
	}).Info("decay sweep completed")
	return nil
}

// RunServer boots the ledger API server with the scheduled decay sweep.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	built, errBuild := buildComponents(configPath)
	if errBuild != nil {
		return errBuild
	}

	jwtCfg, errJWT := config.LoadJWTConfig(configPath)
	if errJWT != nil {
		return errJWT
	}
	adminCfg, errAdmin := config.LoadAdminConfig(configPath)
	if errAdmin != nil {
		return errAdmin
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(api.RequestID())

	frontapi.RegisterFrontRoutes(engine, built.service)
	adminapi.RegisterAdminRoutes(engine, built.conn, built.service, built.catalogStore, jwtCfg, adminCfg, configPath)

	var runner *sweep.Runner
	if built.ledgerCfg.SweepEnabled == nil || *built.ledgerCfg.SweepEnabled {
		runner = sweep.NewRunner(built.service)
		runner.Start(ctx)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()
	log.WithField("port", port).Info("credit ledger server started")

	select {
	case errServe := <-serveErr:
		if runner != nil {
			runner.Stop()
		}
		if errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			return errServe
		}
		return nil
	case <-ctx.Done():
		if runner != nil {
			runner.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return nil
	}
}
