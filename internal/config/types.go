package config

// Config 是 Marlin 的主配置载体。
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	History  HistoryConfig  `mapstructure:"history"`
	Backtest BacktestConfig `mapstructure:"backtest"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
}

type ServerConfig struct {
	HTTPAddr     string `mapstructure:"http_addr"`
	RunCacheSize int    `mapstructure:"run_cache_size"`
}

type HistoryConfig struct {
	DataRoot        string `mapstructure:"data_root"`
	Exchange        string `mapstructure:"exchange"`
	RateLimitPerMin int    `mapstructure:"rate_limit_per_min"`
	MaxBatch        int    `mapstructure:"max_batch"`
	MaxConcurrent   int    `mapstructure:"max_concurrent"`
}

// BacktestConfig 是回测成本参数的部署级缺省；API 请求里的显式值优先。
type BacktestConfig struct {
	StartingBalance float64 `mapstructure:"starting_balance"`
	BaseCurrency    string  `mapstructure:"base_currency"`
	FeeRate         float64 `mapstructure:"fee_rate"`
	SlippageBps     float64 `mapstructure:"slippage_bps"`
	SpreadBps       float64 `mapstructure:"spread_bps"`
	MaxLeverage     float64 `mapstructure:"max_leverage"`
}
