// Command labctl is the single entrypoint for the analytics pipeline,
// replacing the reference backend's separate cmd/cron and cmd/llm
// binaries with one cobra-driven CLI forwarding to the compile-time
// dispatch table in internal/cli.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zeromicro/go-zero/core/logx"

	"alertlab/internal/cache"
	"alertlab/internal/cli"
	"alertlab/internal/config"
	"alertlab/internal/store/relational"
	"alertlab/internal/store/timeseries"
	"alertlab/pkg/artifact"
	"alertlab/pkg/candles"
	"alertlab/pkg/experiment"
	"alertlab/pkg/workerpool"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "labctl",
		Short: "alertlab experiment and ingestion CLI",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (defaults to etc/alertlab.yaml)")

	for _, cmd := range cli.Commands {
		cmd := cmd
		root.AddCommand(&cobra.Command{
			Use:                cmd.Name,
			Short:              cmd.Summary,
			DisableFlagParsing: true,
			RunE: func(c *cobra.Command, args []string) error {
				deps, cleanup, err := buildDeps()
				if err != nil {
					return err
				}
				defer cleanup()

				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				return cli.Dispatch(ctx, deps, cmd.Name, args)
			},
		})
	}

	if err := root.Execute(); err != nil {
		log.Fatalf("[labctl] %v", err)
	}
}

// buildDeps constructs the one Deps instance this process uses,
// matching the "no global singletons" design constraint: every
// dependency is built here and handed down explicitly, never reached
// for through a package-level variable.
func buildDeps() (*cli.Deps, func(), error) {
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = "etc/alertlab.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logx.Errorf("[labctl] config load failed, falling back to defaults: %v", err)
		cfg = &config.Config{Env: "test", DataPath: "./data"}
	}

	dsn := cfg.Postgres.DSN
	conn := sqlx.NewSqlConn("pgx", dsn)

	tsStore := timeseries.NewStore(conn)
	relSet := relational.New(conn, cfg.Cache)
	recorder := relational.NewRecorder(relSet)

	if cfg.MarketData.Value == nil {
		return nil, nil, fmt.Errorf("labctl: marketData config section is not set")
	}
	providers, err := cfg.MarketData.Value.BuildProviders()
	if err != nil {
		return nil, nil, fmt.Errorf("labctl: build market data providers: %w", err)
	}
	client, ok := providers[cfg.MarketData.Value.Default]
	if !ok {
		return nil, nil, fmt.Errorf("labctl: default market data provider %q not registered", cfg.MarketData.Value.Default)
	}

	ttl := cache.NewTTLSet(cfg.TTL)
	provider, err := candles.New(tsStore, client, cache.CandleRangeTTL(ttl))
	if err != nil {
		return nil, nil, fmt.Errorf("labctl: build candle provider: %w", err)
	}

	store, err := artifact.NewStore(cfg.Artifact.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("labctl: build artifact store: %w", err)
	}

	budget := workerpool.NewBudget(cfg.Worker.RateLimitRPS, cfg.Worker.BurstSize)

	orch := &experiment.Orchestrator{
		Candles:  provider,
		Artifact: store,
		Recorder: recorder,
		Budget:   budget,
	}

	deps := &cli.Deps{
		Config:       cfg,
		Relational:   relSet,
		Timeseries:   tsStore,
		MarketClient: client,
		Candles:      provider,
		Artifact:     store,
		Orchestrator: orch,
		MigrationDir: "etc/migrations",
		DSN:          dsn,
	}

	cleanup := func() {
		// sqlx.SqlConn has no explicit close; the underlying *sql.DB
		// pool is reused for the process lifetime.
	}
	return deps, cleanup, nil
}
