// Command report recomposes a persisted backtest run into a markdown
// report, with optional trade/equity CSV exports and the deployment
// gate verdict.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/kpiteira/ktrdr-sub000/internal/config"
	"github.com/kpiteira/ktrdr-sub000/internal/evaluation"
	"github.com/kpiteira/ktrdr-sub000/internal/reporting"
	"github.com/kpiteira/ktrdr-sub000/internal/storage"
	"github.com/kpiteira/ktrdr-sub000/internal/storage/clickhouse"
	"github.com/kpiteira/ktrdr-sub000/internal/storage/postgres"
	"github.com/kpiteira/ktrdr-sub000/internal/util"
)

func main() {
	var (
		configPath    = flag.String("config", "", "path to YAML config file (optional)")
		runID         = flag.String("run-id", "", "identifier of the persisted run (required)")
		postgresDSN   = flag.String("postgres-dsn", "", "PostgreSQL DSN for run/trade storage")
		clickhouseDSN = flag.String("clickhouse-dsn", "", "ClickHouse DSN for equity storage")
		tradesCSV     = flag.String("trades-csv", "", "write the trade list as CSV to this path")
		equityCSV     = flag.String("equity-csv", "", "write the equity curve as CSV to this path")
		evaluate      = flag.Bool("evaluate", false, "append the deployment-gate report")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *postgresDSN != "" {
		cfg.Storage.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.Storage.ClickhouseDSN = *clickhouseDSN
	}

	logger := util.NewLogger(cfg.Logging.Level)

	if *runID == "" {
		logger.Fatal().Msg("-run-id is required")
	}
	if cfg.Storage.PostgresDSN == "" || cfg.Storage.ClickhouseDSN == "" {
		logger.Fatal().Msg("both -postgres-dsn and -clickhouse-dsn are required to load a persisted run")
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connecting to postgres failed")
	}
	defer pool.Close()

	conn, err := clickhouse.NewConn(ctx, cfg.Storage.ClickhouseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connecting to clickhouse failed")
	}
	defer conn.Close()

	runStore := postgres.NewRunStore(pool)
	generator := reporting.NewGenerator(
		runStore,
		postgres.NewTradeStore(pool),
		clickhouse.NewEquityCurveStore(conn),
	)
	report, err := generator.Generate(ctx, *runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Fatal().Str("run_id", *runID).Msg("run not found")
		}
		logger.Fatal().Err(err).Msg("generating report failed")
	}

	fmt.Println(reporting.RenderMarkdown(report))

	if *tradesCSV != "" {
		if err := os.WriteFile(*tradesCSV, []byte(reporting.RenderTradesCSV(report.Trades)), 0o644); err != nil {
			logger.Fatal().Err(err).Msg("writing trades CSV failed")
		}
		logger.Info().Str("path", *tradesCSV).Msg("trades CSV written")
	}
	if *equityCSV != "" {
		if err := os.WriteFile(*equityCSV, []byte(reporting.RenderEquityCSV(report.EquityCurve)), 0o644); err != nil {
			logger.Fatal().Err(err).Msg("writing equity CSV failed")
		}
		logger.Info().Str("path", *equityCSV).Msg("equity CSV written")
	}

	if *evaluate {
		summary, err := runStore.GetByRunID(ctx, *runID)
		if err != nil {
			logger.Fatal().Err(err).Msg("loading run summary failed")
		}
		gate := evaluation.NewEvaluator(evaluation.DefaultThresholds()).Evaluate(summary)
		fmt.Println(evaluation.RenderMarkdown(gate))
	}
}
