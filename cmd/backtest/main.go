// Command backtest runs a single backtest over historical bars loaded
// from a CSV file or from the bar store, prints the result, and
// optionally persists it.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kpiteira/ktrdr-sub000/internal/backtest"
	"github.com/kpiteira/ktrdr-sub000/internal/config"
	"github.com/kpiteira/ktrdr-sub000/internal/domain"
	"github.com/kpiteira/ktrdr-sub000/internal/evaluation"
	"github.com/kpiteira/ktrdr-sub000/internal/observability"
	"github.com/kpiteira/ktrdr-sub000/internal/reporting"
	"github.com/kpiteira/ktrdr-sub000/internal/storage"
	"github.com/kpiteira/ktrdr-sub000/internal/storage/clickhouse"
	"github.com/kpiteira/ktrdr-sub000/internal/storage/memory"
	"github.com/kpiteira/ktrdr-sub000/internal/storage/migrations"
	"github.com/kpiteira/ktrdr-sub000/internal/storage/postgres"
	"github.com/kpiteira/ktrdr-sub000/internal/util"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file (optional)")
		symbol     = flag.String("symbol", "", "instrument symbol, e.g. AAPL (required)")
		timeframe  = flag.String("timeframe", "1h", "bar timeframe, e.g. 1h, 1d")
		strategy   = flag.String("strategy", "sma-cross", "strategy identifier")
		csvPath    = flag.String("csv", "", "load bars from CSV instead of the bar store")
		startStr   = flag.String("start", "", "range start, RFC3339 (required without -csv)")
		endStr     = flag.String("end", "", "range end, RFC3339 (required without -csv)")

		capital     = flag.Float64("capital", 0, "initial capital (overrides config)")
		commission  = flag.Float64("commission", -1, "commission rate per side (overrides config)")
		slippage    = flag.Float64("slippage", -1, "slippage rate per side (overrides config)")
		utilization = flag.Float64("utilization", 0, "capital utilization fraction (overrides config)")
		strict      = flag.Bool("strict", false, "abort on recoverable errors instead of warning")
		reversal    = flag.Bool("allow-reversal", false, "close and reopen on an opposing signal")

		fastWindow = flag.Int("fast", 10, "fast SMA window for the built-in strategy")
		slowWindow = flag.Int("slow", 30, "slow SMA window for the built-in strategy")

		postgresDSN   = flag.String("postgres-dsn", "", "PostgreSQL DSN for run/trade storage")
		clickhouseDSN = flag.String("clickhouse-dsn", "", "ClickHouse DSN for bar/equity storage")
		useMemory     = flag.Bool("use-memory", false, "use in-memory stores regardless of DSNs")
		ingest        = flag.Bool("ingest", false, "insert CSV bars into the bar store before running")
		persist       = flag.Bool("persist", false, "persist the result to the run/trade/equity stores")

		jsonOut     = flag.Bool("json", false, "print the full result as JSON")
		markdownOut = flag.Bool("markdown", false, "print the full result as a markdown report")
		evaluate    = flag.Bool("evaluate", false, "print the deployment-gate report")
		metricsAddr = flag.String("metrics-addr", "", "Prometheus listen address, e.g. :9090")
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
	applyFlagOverrides(cfg, *capital, *commission, *slippage, *utilization,
		*postgresDSN, *clickhouseDSN, *metricsAddr)

	logger := util.NewLogger(cfg.Logging.Level)

	if *symbol == "" {
		logger.Fatal().Msg("-symbol is required")
	}
	if *csvPath == "" && (*startStr == "" || *endStr == "") {
		logger.Fatal().Msg("-start and -end are required when loading from the bar store")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn().Msg("shutdown signal received, cancelling run")
		cancel()
	}()

	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		metrics = observability.NewMetrics("ktrdr_backtest")
		go func() {
			logger.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics endpoint listening")
			if err := http.ListenAndServe(cfg.Metrics.Addr, observability.Handler()); err != nil {
				logger.Error().Err(err).Msg("metrics endpoint failed")
			}
		}()
	}

	stores, cleanup, err := buildStores(ctx, cfg, *useMemory)
	if err != nil {
		logger.Fatal().Err(err).Msg("storage initialization failed")
	}
	defer cleanup()

	runCfg := domain.RunConfig{
		Symbol:             *symbol,
		Timeframe:          *timeframe,
		Strategy:           *strategy,
		InitialCapital:     cfg.Backtest.InitialCapital,
		CommissionRate:     cfg.Backtest.CommissionRate,
		SlippageRate:       cfg.Backtest.SlippageRate,
		CapitalUtilization: cfg.Backtest.CapitalUtilization,
		StrictMode:         cfg.Backtest.StrictMode || *strict,
		AllowReversal:      cfg.Backtest.AllowReversal || *reversal,
	}

	bars, err := loadBars(ctx, stores, runCfg, *csvPath, *startStr, *endStr, *ingest)
	if err != nil {
		logger.Fatal().Err(err).Msg("loading bars failed")
	}
	runCfg.Start = bars[0].Timestamp
	runCfg.End = bars[len(bars)-1].Timestamp

	features := backtest.NewSliceFeatureLookup(computeSMAFeatures(bars, *fastWindow, *slowWindow))
	provider := &smaCrossProvider{fastKey: "sma_fast", slowKey: "sma_slow"}

	engine := backtest.NewEngine(logger, metrics)
	result, err := engine.Run(ctx, runCfg, bars, features, provider)
	if err != nil {
		logger.Fatal().Err(err).Msg("backtest failed")
	}

	if *persist {
		if err := persistResult(ctx, stores, result); err != nil {
			logger.Fatal().Err(err).Str("run_id", result.RunID).Msg("persisting result failed")
		}
		logger.Info().Str("run_id", result.RunID).Msg("result persisted")
	}

	switch {
	case *jsonOut:
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			logger.Fatal().Err(err).Msg("encoding result failed")
		}
		fmt.Println(string(out))
	case *markdownOut:
		gen := reporting.NewGenerator(stores.runs, stores.trades, stores.equity)
		fmt.Println(reporting.RenderMarkdown(gen.FromResult(result)))
	default:
		printSummary(result)
	}

	if *evaluate {
		gate := evaluation.NewEvaluator(evaluation.DefaultThresholds()).Evaluate(result)
		fmt.Println(evaluation.RenderMarkdown(gate))
	}
}

// applyFlagOverrides layers the explicitly set command-line values over
// the file config. Sentinel defaults (0 for values that must be
// positive, -1 for rates where 0 is meaningful) mark "not set".
func applyFlagOverrides(cfg *config.Config, capital, commission, slippage, utilization float64, pgDSN, chDSN, metricsAddr string) {
	if capital > 0 {
		cfg.Backtest.InitialCapital = capital
	}
	if commission >= 0 {
		cfg.Backtest.CommissionRate = commission
	}
	if slippage >= 0 {
		cfg.Backtest.SlippageRate = slippage
	}
	if utilization > 0 {
		cfg.Backtest.CapitalUtilization = utilization
	}
	if pgDSN != "" {
		cfg.Storage.PostgresDSN = pgDSN
	}
	if chDSN != "" {
		cfg.Storage.ClickhouseDSN = chDSN
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}
}

// storeSet bundles the four storage interfaces the command wires
// together, regardless of backend.
type storeSet struct {
	bars   storage.BarStore
	runs   storage.RunStore
	trades storage.TradeStore
	equity storage.EquityCurveStore
}

// buildStores selects backends: in-memory when requested or when no
// DSN is configured, otherwise PostgreSQL for runs/trades and
// ClickHouse for bars/equity, with migrations applied on startup.
func buildStores(ctx context.Context, cfg *config.Config, useMemory bool) (*storeSet, func(), error) {
	if useMemory || (cfg.Storage.PostgresDSN == "" && cfg.Storage.ClickhouseDSN == "") {
		return &storeSet{
			bars:   memory.NewBarStore(),
			runs:   memory.NewRunStore(),
			trades: memory.NewTradeStore(),
			equity: memory.NewEquityCurveStore(),
		}, func() {}, nil
	}

	stores := &storeSet{
		bars:   memory.NewBarStore(),
		runs:   memory.NewRunStore(),
		trades: memory.NewTradeStore(),
		equity: memory.NewEquityCurveStore(),
	}
	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.Storage.PostgresDSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connecting to postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return nil, cleanup, fmt.Errorf("postgres migrations: %w", err)
		}
		stores.runs = postgres.NewRunStore(pool)
		stores.trades = postgres.NewTradeStore(pool)
	}

	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			return nil, cleanup, fmt.Errorf("clickhouse migrations: %w", err)
		}
		closers = append(closers, func() { _ = conn.Close() })
		stores.bars = clickhouse.NewBarStore(conn)
		stores.equity = clickhouse.NewEquityCurveStore(conn)
	}

	return stores, cleanup, nil
}

// loadBars reads bars from the CSV path when given, optionally
// ingesting them into the bar store, and otherwise queries the bar
// store for the requested range.
func loadBars(ctx context.Context, stores *storeSet, cfg domain.RunConfig, csvPath, startStr, endStr string, ingest bool) ([]domain.Bar, error) {
	if csvPath != "" {
		bars, err := backtest.LoadBarsCSV(csvPath)
		if err != nil {
			return nil, err
		}
		if ingest {
			if err := stores.bars.InsertBulk(ctx, cfg.Symbol, cfg.Timeframe, bars); err != nil {
				return nil, fmt.Errorf("ingesting bars: %w", err)
			}
		}
		return bars, nil
	}

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return nil, fmt.Errorf("parsing -start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return nil, fmt.Errorf("parsing -end: %w", err)
	}
	return backtest.NewStoreDataProvider(stores.bars).Load(ctx, cfg.Symbol, cfg.Timeframe, start, end)
}

func persistResult(ctx context.Context, stores *storeSet, result *domain.BacktestResult) error {
	if err := stores.runs.Insert(ctx, result); err != nil {
		return fmt.Errorf("inserting run summary: %w", err)
	}
	if len(result.Trades) > 0 {
		if err := stores.trades.InsertBulk(ctx, result.RunID, result.Trades); err != nil {
			return fmt.Errorf("inserting trades: %w", err)
		}
	}
	if len(result.EquityCurve) > 0 {
		if err := stores.equity.InsertBulk(ctx, result.RunID, result.EquityCurve); err != nil {
			return fmt.Errorf("inserting equity curve: %w", err)
		}
	}
	return nil
}

func printSummary(result *domain.BacktestResult) {
	m := result.Metrics
	fmt.Printf("Run        %s\n", result.RunID)
	fmt.Printf("Status     %s\n", result.Status)
	fmt.Printf("Instrument %s/%s strategy=%s\n", result.Config.Symbol, result.Config.Timeframe, result.Config.Strategy)
	fmt.Printf("Period     %s .. %s\n", result.Config.Start.Format(time.RFC3339), result.Config.End.Format(time.RFC3339))
	fmt.Printf("Bars       %d\n", result.BarsProcessed)
	fmt.Println()
	fmt.Printf("Final equity     %.2f (initial %.2f)\n", result.FinalEquity(), result.Config.InitialCapital)
	fmt.Printf("Total return     %.2f (%.2f%%)\n", m.TotalReturn, m.TotalReturnPct)
	fmt.Printf("Sharpe ratio     %.4f\n", m.SharpeRatio)
	fmt.Printf("Max drawdown     %.2f%%\n", m.MaxDrawdown)
	fmt.Printf("Trades           %d (%d won / %d lost, win rate %.2f%%)\n",
		m.TotalTrades, m.WinningTrades, m.LosingTrades, m.WinRate*100)
	fmt.Printf("Profit factor    %s\n", formatRatio(m.ProfitFactor))
	if len(result.Warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(result.Warnings))
		for _, w := range result.Warnings {
			fmt.Printf("  bar %d [%s] %s\n", w.BarIndex, w.Kind, w.Message)
		}
	}
}

func formatRatio(v float64) string {
	if v > 1e12 {
		return "inf"
	}
	return fmt.Sprintf("%.4f", v)
}
