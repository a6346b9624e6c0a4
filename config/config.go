package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Log        Logger           `mapstructure:"logger"`
	API        API              `mapstructure:"api"`
	MarketData MarketData       `mapstructure:"market_data"`
	Cache      Cache            `mapstructure:"cache"`
	Indicator  Indicator        `mapstructure:"indicator"`
	Signal     Signal           `mapstructure:"signal"`
	Volatility Volatility       `mapstructure:"volatility"`
	Strategy   Strategy         `mapstructure:"strategy"`
	Risk       Risk             `mapstructure:"risk"`
	Backtest   Backtest         `mapstructure:"backtest"`
	Scheduler  Scheduler        `mapstructure:"scheduler"`
	Account    map[string]Bands `mapstructure:"account"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type API struct {
	Port int `mapstructure:"port"`
}

type MarketData struct {
	Symbol           string        `mapstructure:"symbol"`
	BaseURL          string        `mapstructure:"base_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxRequestPerMin int           `mapstructure:"max_request_per_min"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
	SnapshotTTL       time.Duration `mapstructure:"snapshot_ttl"`
	ChainTTL          time.Duration `mapstructure:"chain_ttl"`
}

type Indicator struct {
	SMAPeriods []int `mapstructure:"sma_periods"`
	RSIPeriod  int   `mapstructure:"rsi_period"`
	ADXPeriod  int   `mapstructure:"adx_period"`
	MACDFast   int   `mapstructure:"macd_fast"`
	MACDSlow   int   `mapstructure:"macd_slow"`
	MACDSignal int   `mapstructure:"macd_signal"`
}

type Signal struct {
	MinStrength   float64 `mapstructure:"min_strength"`
	StrongMACD    float64 `mapstructure:"strong_macd"`
	RSIOverbought float64 `mapstructure:"rsi_overbought"`
	RSIOversold   float64 `mapstructure:"rsi_oversold"`
}

type Volatility struct {
	LowVIX         float64 `mapstructure:"low_vix"`
	MidVIX         float64 `mapstructure:"mid_vix"`
	HighVIX        float64 `mapstructure:"high_vix"`
	ExtremeVIX     float64 `mapstructure:"extreme_vix"`
	LowPercentile  float64 `mapstructure:"low_percentile"`
	HighPercentile float64 `mapstructure:"high_percentile"`
}

type Strategy struct {
	TargetDTE      int     `mapstructure:"target_dte"`
	DTETolerance   int     `mapstructure:"dte_tolerance"`
	SpreadWidth    float64 `mapstructure:"spread_width"`
	CreditFraction float64 `mapstructure:"credit_fraction"`
}

type Risk struct {
	DefaultStopLossPct float64 `mapstructure:"default_stop_loss_pct"`
	ProfitTargetPct    float64 `mapstructure:"profit_target_pct"`
	MaxDrawdownCeiling float64 `mapstructure:"max_drawdown_ceiling"`
}

type Bands struct {
	MinPct float64 `mapstructure:"min_pct"`
	MaxPct float64 `mapstructure:"max_pct"`
}

type Backtest struct {
	MaxHoldingDays  int     `mapstructure:"max_holding_days"`
	MinStrength     float64 `mapstructure:"min_strength"`
	MonthlySampling bool    `mapstructure:"monthly_sampling"`
	ProfitMovePct   float64 `mapstructure:"profit_move_pct"`
	StopLossPct     float64 `mapstructure:"stop_loss_pct"`
}

type Scheduler struct {
	Enabled  bool   `mapstructure:"enabled"`
	CronSpec string `mapstructure:"cron_spec"`
}

func Load() (*Config, error) {
	viper.SetConfigType("yaml")
	viper.SetConfigName("config")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a Config populated with the reference thresholds and periods,
// without touching the filesystem. Used by tests and as the fallback when no
// config file is present.
func Default() *Config {
	return &Config{
		Log: Logger{Level: "info", Encoding: "console"},
		API: API{Port: 8080},
		MarketData: MarketData{
			Symbol:           "SPY",
			BaseURL:          "https://query1.finance.yahoo.com",
			Timeout:          10 * time.Second,
			MaxRequestPerMin: 30,
		},
		Cache: Cache{
			DefaultExpiration: 5 * time.Minute,
			CleanupInterval:   10 * time.Minute,
			SnapshotTTL:       time.Minute,
			ChainTTL:          5 * time.Minute,
		},
		Indicator: Indicator{
			SMAPeriods: []int{50, 200},
			RSIPeriod:  14,
			ADXPeriod:  14,
			MACDFast:   12,
			MACDSlow:   26,
			MACDSignal: 9,
		},
		Signal: Signal{
			MinStrength:   1.5,
			StrongMACD:    10.0,
			RSIOverbought: 70.0,
			RSIOversold:   30.0,
		},
		Volatility: Volatility{
			LowVIX:         15.0,
			MidVIX:         20.0,
			HighVIX:        25.0,
			ExtremeVIX:     30.0,
			LowPercentile:  30.0,
			HighPercentile: 70.0,
		},
		Strategy: Strategy{
			TargetDTE:      30,
			DTETolerance:   5,
			SpreadWidth:    5.0,
			CreditFraction: 0.30,
		},
		Risk: Risk{
			DefaultStopLossPct: 0.02,
			ProfitTargetPct:    0.04,
			MaxDrawdownCeiling: 0.25,
		},
		Backtest: Backtest{
			MaxHoldingDays:  30,
			MinStrength:     1.5,
			MonthlySampling: false,
			ProfitMovePct:   0.01,
			StopLossPct:     0.02,
		},
		Scheduler: Scheduler{
			Enabled:  false,
			CronSpec: "0 30 9 * * MON-FRI",
		},
		Account: map[string]Bands{
			"small":    {MinPct: 0.04, MaxPct: 0.10},
			"medium":   {MinPct: 0.05, MaxPct: 0.12},
			"large":    {MinPct: 0.06, MaxPct: 0.15},
			"stressed": {MinPct: 0.02, MaxPct: 0.05},
		},
	}
}

func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "console")
	viper.SetDefault("api.port", 8080)

	viper.SetDefault("market_data.symbol", "SPY")
	viper.SetDefault("market_data.base_url", "https://query1.finance.yahoo.com")
	viper.SetDefault("market_data.timeout", "10s")
	viper.SetDefault("market_data.max_request_per_min", 30)

	viper.SetDefault("cache.default_expiration", "5m")
	viper.SetDefault("cache.cleanup_interval", "10m")
	viper.SetDefault("cache.snapshot_ttl", "1m")
	viper.SetDefault("cache.chain_ttl", "5m")

	viper.SetDefault("indicator.sma_periods", []int{50, 200})
	viper.SetDefault("indicator.rsi_period", 14)
	viper.SetDefault("indicator.adx_period", 14)
	viper.SetDefault("indicator.macd_fast", 12)
	viper.SetDefault("indicator.macd_slow", 26)
	viper.SetDefault("indicator.macd_signal", 9)

	viper.SetDefault("signal.min_strength", 1.5)
	viper.SetDefault("signal.strong_macd", 10.0)
	viper.SetDefault("signal.rsi_overbought", 70.0)
	viper.SetDefault("signal.rsi_oversold", 30.0)

	viper.SetDefault("volatility.low_vix", 15.0)
	viper.SetDefault("volatility.mid_vix", 20.0)
	viper.SetDefault("volatility.high_vix", 25.0)
	viper.SetDefault("volatility.extreme_vix", 30.0)
	viper.SetDefault("volatility.low_percentile", 30.0)
	viper.SetDefault("volatility.high_percentile", 70.0)

	viper.SetDefault("strategy.target_dte", 30)
	viper.SetDefault("strategy.dte_tolerance", 5)
	viper.SetDefault("strategy.spread_width", 5.0)
	viper.SetDefault("strategy.credit_fraction", 0.30)

	viper.SetDefault("risk.default_stop_loss_pct", 0.02)
	viper.SetDefault("risk.profit_target_pct", 0.04)
	viper.SetDefault("risk.max_drawdown_ceiling", 0.25)

	viper.SetDefault("backtest.max_holding_days", 30)
	viper.SetDefault("backtest.min_strength", 1.5)
	viper.SetDefault("backtest.monthly_sampling", false)
	viper.SetDefault("backtest.profit_move_pct", 0.01)
	viper.SetDefault("backtest.stop_loss_pct", 0.02)

	viper.SetDefault("scheduler.enabled", false)
	viper.SetDefault("scheduler.cron_spec", "0 30 9 * * MON-FRI")

	viper.SetDefault("account.small.min_pct", 0.04)
	viper.SetDefault("account.small.max_pct", 0.10)
	viper.SetDefault("account.medium.min_pct", 0.05)
	viper.SetDefault("account.medium.max_pct", 0.12)
	viper.SetDefault("account.large.min_pct", 0.06)
	viper.SetDefault("account.large.max_pct", 0.15)
	viper.SetDefault("account.stressed.min_pct", 0.02)
	viper.SetDefault("account.stressed.max_pct", 0.05)
}
