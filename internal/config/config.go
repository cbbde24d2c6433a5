package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"portfoliobacktest/internal/domain"
	"portfoliobacktest/internal/util"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	PriceSource_Yahoo    = "yahoo"
	PriceSource_Postgres = "postgres"
)

type Config struct {
	Env      string         `yaml:"env"`
	DataDir  string         `yaml:"data_dir"`
	Backtest BacktestConfig `yaml:"backtest"`
	Prices   PriceConfig    `yaml:"prices"`
	Db       DbConfig       `yaml:"db"`
	Api      ApiConfig      `yaml:"api"`
}

// BacktestConfig holds the defaults used when a request or CLI flag
// does not say otherwise
type BacktestConfig struct {
	Weights           map[string]float64 `yaml:"weights"`
	InitialInvestment float64            `yaml:"initial_investment"`
	Rebalance         string             `yaml:"rebalance"`
	Start             string             `yaml:"start"`
	End               string             `yaml:"end"`
	// Years is used when Start is empty
	Years            int      `yaml:"years"`
	Benchmarks       []string `yaml:"benchmarks"`
	RiskFreeRate     *float64 `yaml:"risk_free_rate"`
	WholeShares      bool     `yaml:"whole_shares"`
	NormalizeWeights bool     `yaml:"normalize_weights"`
}

type PriceConfig struct {
	Source           string `yaml:"source"` // yahoo | postgres
	CacheMaxAgeHours int    `yaml:"cache_max_age_hours"`
	MaxAttempts      int    `yaml:"max_attempts"`
	BackoffMs        int    `yaml:"backoff_ms"`
	YieldCurveURL    string `yaml:"yield_curve_url"`
	UseYieldCurve    bool   `yaml:"use_yield_curve"`
}

type DbConfig struct {
	Host      string `yaml:"host"`
	User      string `yaml:"user"`
	Port      string `yaml:"port"`
	Password  string `yaml:"password"`
	Database  string `yaml:"database"`
	EnableSsl bool   `yaml:"enable_ssl"`
}

type ApiConfig struct {
	Port int `yaml:"port"`
}

// Load reads the yaml file at path (a missing file means defaults only),
// then .env, then PORTFOLIO_* environment overrides
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %q: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
			}
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	setDefaults(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PORTFOLIO_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("PORTFOLIO_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("PORTFOLIO_PRICE_SOURCE"); v != "" {
		cfg.Prices.Source = v
	}
	if v := os.Getenv("PORTFOLIO_DB_HOST"); v != "" {
		cfg.Db.Host = v
	}
	if v := os.Getenv("PORTFOLIO_DB_PORT"); v != "" {
		cfg.Db.Port = v
	}
	if v := os.Getenv("PORTFOLIO_DB_USER"); v != "" {
		cfg.Db.User = v
	}
	if v := os.Getenv("PORTFOLIO_DB_PASSWORD"); v != "" {
		cfg.Db.Password = v
	}
	if v := os.Getenv("PORTFOLIO_DB_NAME"); v != "" {
		cfg.Db.Database = v
	}
	if v := os.Getenv("PORTFOLIO_API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("failed to parse PORTFOLIO_API_PORT: %w", err)
		}
		cfg.Api.Port = port
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if len(cfg.Backtest.Weights) == 0 {
		cfg.Backtest.Weights = map[string]float64{"VTI": 0.6, "BND": 0.4}
	}
	if cfg.Backtest.InitialInvestment <= 0 {
		cfg.Backtest.InitialInvestment = 100000
	}
	if cfg.Backtest.Rebalance == "" {
		cfg.Backtest.Rebalance = string(domain.RebalanceFrequency_Quarterly)
	}
	if cfg.Backtest.Years <= 0 {
		cfg.Backtest.Years = 10
	}
	if cfg.Backtest.Benchmarks == nil {
		cfg.Backtest.Benchmarks = []string{"^GSPC", "BND"}
	}
	if cfg.Prices.Source == "" {
		cfg.Prices.Source = PriceSource_Yahoo
	}
	if cfg.Prices.CacheMaxAgeHours <= 0 {
		cfg.Prices.CacheMaxAgeHours = 7 * 24
	}
	if cfg.Prices.MaxAttempts <= 0 {
		cfg.Prices.MaxAttempts = 3
	}
	if cfg.Prices.BackoffMs <= 0 {
		cfg.Prices.BackoffMs = 500
	}
	if cfg.Db.Port == "" {
		cfg.Db.Port = "5432"
	}
	if cfg.Api.Port <= 0 {
		cfg.Api.Port = 3009
	}
}

func (c Config) CacheMaxAge() time.Duration {
	return time.Duration(c.Prices.CacheMaxAgeHours) * time.Hour
}

func (c Config) Backoff() time.Duration {
	return time.Duration(c.Prices.BackoffMs) * time.Millisecond
}

func (t DbConfig) Enabled() bool {
	return t.Host != ""
}

func (t DbConfig) ToConnectionStr() string {
	x := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s",
		t.Host, t.Port, t.User, t.Password, t.Database)
	if !t.EnableSsl {
		x += " sslmode=disable"
	}
	return x
}

// Allocation turns the backtest section into an allocation. End
// defaults to now and Start to Years before End
func (c Config) Allocation(now time.Time) (*domain.AllocationConfig, error) {
	frequency, err := domain.NewRebalanceFrequency(c.Backtest.Rebalance)
	if err != nil {
		return nil, err
	}

	end := util.ToDate(now)
	if c.Backtest.End != "" {
		end, err = util.ParseDate(c.Backtest.End)
		if err != nil {
			return nil, domain.ConfigError{Field: "end", Reason: err.Error()}
		}
	}
	start := end.AddDate(-c.Backtest.Years, 0, 0)
	if c.Backtest.Start != "" {
		start, err = util.ParseDate(c.Backtest.Start)
		if err != nil {
			return nil, domain.ConfigError{Field: "start", Reason: err.Error()}
		}
	}

	weights := map[string]float64{}
	for ticker, w := range c.Backtest.Weights {
		weights[ticker] = w
	}

	return &domain.AllocationConfig{
		Weights:           weights,
		InitialInvestment: c.Backtest.InitialInvestment,
		Frequency:         frequency,
		Start:             start,
		End:               end,
		NormalizeWeights:  c.Backtest.NormalizeWeights,
		WholeShares:       c.Backtest.WholeShares,
	}, nil
}
