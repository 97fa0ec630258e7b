package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/rickgao/explorer-data/internal/config"
	"github.com/rickgao/explorer-data/internal/database"
	"github.com/rickgao/explorer-data/internal/logger"
	"github.com/rickgao/explorer-data/internal/metrics"
	"github.com/rickgao/explorer-data/internal/supervisor"
	"github.com/rickgao/explorer-data/internal/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file (defaults only when empty)")
	storeFlag := flag.String("store", "", "snapshot store backend: postgres or memory (overrides config)")
	listenFlag := flag.String("listen", "", "query service listen address (overrides config)")
	logLevelFlag := flag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	migrateFlag := flag.Bool("migrate", false, "run database migrations before starting")
	migrateOnlyFlag := flag.Bool("migrate-only", false, "run database migrations and exit")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.String())
		return nil
	}

	// A missing .env is fine; any other load error is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *storeFlag != "" {
		cfg.Store.Backend = *storeFlag
	}
	if *listenFlag != "" {
		cfg.Server.ListenAddr = *listenFlag
	}
	if *logLevelFlag != "" {
		cfg.Log.Level = *logLevelFlag
	}
	if *migrateFlag || *migrateOnlyFlag {
		cfg.Database.Migrate = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	log := logger.New(os.Stdout, level, cfg.Log.Format).With("instance", cfg.Instance.ID)
	slog.SetDefault(log)

	log.Info("explorerd: starting",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"backend", cfg.Store.Backend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := supervisor.Deps{Logger: log}

	if cfg.Store.Backend == config.BackendPostgres {
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		pool, err := database.Connect(connectCtx, cfg.Database, log)
		cancel()
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		if cfg.Database.Migrate {
			if err := database.Migrate(ctx, pool, log); err != nil {
				return err
			}
		}
		if *migrateOnlyFlag {
			return nil
		}

		if !cfg.Metrics.Disabled {
			if err := metrics.RegisterPool(pool); err != nil {
				return fmt.Errorf("register pool metrics: %w", err)
			}
		}
		deps.Pool = pool
	} else if *migrateOnlyFlag {
		return errors.New("--migrate-only requires the postgres store")
	}

	app, err := supervisor.Build(cfg, deps)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	if err := app.Run(ctx); err != nil {
		return err
	}

	log.Info("explorerd: stopped")
	return nil
}
