package config

import "marlin/internal/backtest"

// 默认值常量
const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultHTTPAddr        = ":9980"
	defaultRunCacheSize    = 128
	defaultDataRoot        = "data/candles"
	defaultExchange        = "binance"
	defaultRateLimitPerMin = 480
	defaultMaxBatch        = 1000
	defaultMaxConcurrent   = 2
)

// explicitKeys 标记配置文件里显式出现过的 key。成本类参数的显式 0
// 必须保留（零费率是合法配置），所以不能只看零值。
type explicitKeys map[string]bool

// applyDefaults 为缺省字段填值。
func (c *Config) applyDefaults(set explicitKeys) {
	if c.App.Env == "" {
		c.App.Env = defaultAppEnv
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = defaultAppLogLevel
	}
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = defaultHTTPAddr
	}
	if c.Server.RunCacheSize <= 0 {
		c.Server.RunCacheSize = defaultRunCacheSize
	}
	if c.History.DataRoot == "" {
		c.History.DataRoot = defaultDataRoot
	}
	if c.History.Exchange == "" {
		c.History.Exchange = defaultExchange
	}
	if c.History.RateLimitPerMin <= 0 {
		c.History.RateLimitPerMin = defaultRateLimitPerMin
	}
	if c.History.MaxBatch <= 0 {
		c.History.MaxBatch = defaultMaxBatch
	}
	if c.History.MaxConcurrent <= 0 {
		c.History.MaxConcurrent = defaultMaxConcurrent
	}

	if c.Backtest.StartingBalance <= 0 {
		c.Backtest.StartingBalance = backtest.DefaultStartingBalance
	}
	if c.Backtest.BaseCurrency == "" {
		c.Backtest.BaseCurrency = backtest.DefaultBaseCurrency
	}
	if c.Backtest.MaxLeverage <= 0 {
		c.Backtest.MaxLeverage = backtest.DefaultMaxLeverage
	}
	if c.Backtest.FeeRate == 0 && !set["backtest.fee_rate"] {
		c.Backtest.FeeRate = backtest.DefaultFeeRate
	}
	if c.Backtest.SlippageBps == 0 && !set["backtest.slippage_bps"] {
		c.Backtest.SlippageBps = backtest.DefaultSlippageBps
	}
	if c.Backtest.SpreadBps == 0 && !set["backtest.spread_bps"] {
		c.Backtest.SpreadBps = backtest.DefaultSpreadBps
	}
}
