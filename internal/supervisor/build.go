package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/rickgao/explorer-data/internal/api"
	"github.com/rickgao/explorer-data/internal/config"
	"github.com/rickgao/explorer-data/internal/connector"
	"github.com/rickgao/explorer-data/internal/poller"
	"github.com/rickgao/explorer-data/internal/server"
	"github.com/rickgao/explorer-data/internal/store"
)

// Deps are the process-level resources Build wires in.
type Deps struct {
	// Pool backs the postgres store. Nil selects the in-memory store.
	Pool *pgxpool.Pool

	Clock  clockwork.Clock
	Logger *slog.Logger

	// ClientOptions are applied to every connector's api.Client.
	ClientOptions []api.ClientOption
}

// App is an assembled explorerd.
type App struct {
	*Supervisor

	Tables  server.Tables
	Server  *server.Server
	Pollers []server.StatusReporter
}

// Build assembles tables, connectors, pollers and the query service.
func Build(cfg *config.Config, deps Deps) (*App, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	pool := deps.Pool
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		if pool == nil {
			return nil, fmt.Errorf("store backend %q requires a database pool", cfg.Store.Backend)
		}
	case config.BackendMemory:
		pool = nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	src := cfg.Sources
	tables := server.Tables{
		Blocks: newTable(pool, store.BlockSchema(src.Blocks.ReadLimit), clock, logger),
		Chart:  newTable(pool, store.ChartSchema(src.Chart.ReadLimit), clock, logger),
		Rates:  newTable(pool, store.RateSchema(src.Rates.ReadLimit), clock, logger),
	}

	app := &App{
		Supervisor: New(logger),
		Tables:     tables,
	}

	if !src.Blocks.Disabled {
		conn := connector.NewBlocks(connector.BlocksConfig{
			URL:     src.Blocks.URL,
			APIKey:  src.Blocks.APIKey,
			Network: src.Blocks.Network,
			Limit:   src.Blocks.FetchLimit,
			Timeout: src.Blocks.Timeout,
		}, logger.With("component", "connector"), deps.ClientOptions...)
		addPoller(app, src.Blocks.Interval, clock, conn, tables.Blocks, logger)
	}

	if !src.Chart.Disabled {
		conn := connector.NewChart(connector.ChartConfig{
			URL:            src.Chart.URL,
			ChartName:      src.Chart.ChartName,
			Timespan:       src.Chart.Timespan,
			RollingAverage: src.Chart.RollingAverage,
			Timeout:        src.Chart.Timeout,
		}, logger.With("component", "connector"), deps.ClientOptions...)
		addPoller(app, src.Chart.Interval, clock, conn, tables.Chart, logger)
	}

	if !src.Rates.Disabled {
		conn := connector.NewRates(connector.RatesConfig{
			URL:     src.Rates.URL,
			Timeout: src.Rates.Timeout,
		}, logger.With("component", "connector"), deps.ClientOptions...)
		addPoller(app, src.Rates.Interval, clock, conn, tables.Rates, logger)
	}

	srvCfg := server.Config{
		ListenAddr:        cfg.Server.ListenAddr,
		CORSOrigins:       cfg.Server.CORSOrigins,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
		Burst:             cfg.Server.RateLimit.Burst,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	}
	if !cfg.Metrics.Disabled {
		srvCfg.MetricsPath = cfg.Metrics.Path
	}

	opts := []server.Option{
		server.WithLogger(logger.With("component", "server")),
		server.WithPollers(app.Pollers...),
	}
	if pool != nil {
		opts = append(opts, server.WithReadiness(func(ctx context.Context) error {
			return pool.Ping(ctx)
		}))
	}
	app.Server = server.New(srvCfg, tables, opts...)
	app.Add("server", app.Server)

	logger.Info("supervisor: app assembled",
		"backend", cfg.Store.Backend,
		"units", app.Units(),
	)
	return app, nil
}

func newTable[T any](pool *pgxpool.Pool, schema store.Schema[T], clock clockwork.Clock, logger *slog.Logger) store.Table[T] {
	opts := []store.Option{store.WithClock(clock), store.WithLogger(logger.With("component", "store"))}
	if pool == nil {
		return store.NewMemTable(schema, opts...)
	}
	return store.NewPGTable(pool, schema, opts...)
}

func addPoller[T any](app *App, interval time.Duration, clock clockwork.Clock, conn connector.Connector[T], tbl store.Table[T], logger *slog.Logger) {
	p := poller.New(poller.Config{Interval: interval, Clock: clock}, conn, tbl, logger.With("component", "poller"))
	app.Pollers = append(app.Pollers, p)
	app.Add("poller/"+string(conn.Source()), p)
}
