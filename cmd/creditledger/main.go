package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/quoteworks/creditledger/internal/app"
	"github.com/quoteworks/creditledger/internal/config"

	log "github.com/sirupsen/logrus"
)

// main runs the CLI entrypoint and exits on unrecoverable command errors.
func main() {
	if errRun := run(os.Args[1:]); errRun != nil {
		log.WithError(errRun).Error("command failed")
		os.Exit(1)
	}
}

// run parses flags, loads config, and dispatches the selected mode.
func run(args []string) error {
	fs := flag.NewFlagSet("creditledger", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "config file path (or env CONFIG_PATH)")
	port := fs.Int("port", 8420, "server port")
	migrateOnly := fs.Bool("migrate", false, "run database migrations and exit")
	sweepOnce := fs.Bool("sweep-once", false, "run one decay sweep and exit")
	if errParse := fs.Parse(args); errParse != nil {
		return errParse
	}

	if errValidate := validatePort(*port); errValidate != nil {
		return errValidate
	}

	appCfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if strings.TrimSpace(*cfgPath) != "" {
		appCfg.ConfigPath = config.ResolveConfigPath(*cfgPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *migrateOnly:
		return app.Migrate(ctx, appCfg)
	case *sweepOnce:
		return app.RunSweep(ctx, appCfg)
	default:
		return app.RunServer(ctx, appCfg, *port)
	}
}

func validatePort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port: %d", port)
	}
	return nil
}
