package cmd

import (
	"database/sql"
	"fmt"
	"net/http"
	"path/filepath"
	"portfoliobacktest/api"
	"portfoliobacktest/internal"
	"portfoliobacktest/internal/config"
	"portfoliobacktest/internal/logger"
	"portfoliobacktest/internal/repository"
	l1_service "portfoliobacktest/internal/service/l1"
	l3_service "portfoliobacktest/internal/service/l3"
	interestrate "portfoliobacktest/pkg/interest_rate"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const DefaultConfigPath = "config.yml"

type Dependencies struct {
	Config          *config.Config
	ApiHandler      *api.ApiHandler
	PriceService    l1_service.PriceService
	BacktestService l3_service.BacktestService
	// PriceStore is nil unless a database is configured
	PriceStore     repository.AdjustedPriceStore
	YahooPrices    repository.AdjustedPriceRepository
	CacheDirectory string

	db *sql.DB
}

func CloseDependencies(deps *Dependencies) {
	if deps.db == nil {
		return
	}
	if err := deps.db.Close(); err != nil {
		logger.New().Errorw("failed to close db", "error", err.Error())
	}
}

func InitializeDependencies(configPath string) (*Dependencies, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.New()

	deps := &Dependencies{
		Config:         cfg,
		YahooPrices:    repository.NewYahooPriceRepository(),
		CacheDirectory: filepath.Join(cfg.DataDir, "cache"),
	}

	if cfg.Db.Enabled() {
		dbConn, err := sql.Open("postgres", cfg.Db.ToConnectionStr())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to db: %w", err)
		}
		deps.db = dbConn
		deps.PriceStore = repository.NewAdjustedPriceRepository(dbConn)
	}

	var priceRepository repository.AdjustedPriceRepository
	switch strings.ToLower(cfg.Prices.Source) {
	case config.PriceSource_Yahoo:
		priceRepository = deps.YahooPrices
	case config.PriceSource_Postgres:
		if deps.PriceStore == nil {
			return nil, fmt.Errorf("price source %s requires db.host to be set", cfg.Prices.Source)
		}
		priceRepository = deps.PriceStore
	default:
		return nil, fmt.Errorf("unknown price source %s", cfg.Prices.Source)
	}

	deps.PriceService = l1_service.NewPriceService(
		priceRepository,
		repository.NewPriceCacheRepository(deps.CacheDirectory),
		l1_service.PriceServiceOptions{
			CacheMaxAge: cfg.CacheMaxAge(),
			MaxAttempts: cfg.Prices.MaxAttempts,
			Backoff:     cfg.Backoff(),
		},
	)

	var yieldCurveClient interestrate.YieldCurveClient
	if cfg.Prices.UseYieldCurve {
		yieldCurveClient = interestrate.NewYieldCurveClient(
			cfg.Prices.YieldCurveURL,
			&http.Client{Timeout: 10 * time.Second},
		)
	}
	deps.BacktestService = l3_service.NewBacktestService(deps.PriceService, yieldCurveClient)

	deps.ApiHandler = &api.ApiHandler{
		BacktestService: deps.BacktestService,
		BenchmarkHandler: internal.BenchmarkHandler{
			PriceService: deps.PriceService,
		},
		Defaults: api.BacktestDefaults{
			InitialInvestment: cfg.Backtest.InitialInvestment,
			Rebalance:         cfg.Backtest.Rebalance,
			Benchmarks:        cfg.Backtest.Benchmarks,
			RiskFreeRate:      cfg.Backtest.RiskFreeRate,
		},
		Logger: lg,
	}

	lg.Infow("initialized dependencies",
		"env", cfg.Env,
		"priceSource", cfg.Prices.Source,
		"db", cfg.Db.Enabled(),
		"yieldCurve", yieldCurveClient != nil,
	)

	return deps, nil
}
