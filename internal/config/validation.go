package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.History.validate(); err != nil {
		return err
	}
	return c.Backtest.validate()
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

func (a *AppConfig) validate() error {
	if !logLevels[strings.ToLower(a.LogLevel)] {
		return fmt.Errorf("app.log_level 非法: %s", a.LogLevel)
	}
	return nil
}

func (h *HistoryConfig) validate() error {
	if strings.TrimSpace(h.DataRoot) == "" {
		return fmt.Errorf("history.data_root 不能为空")
	}
	if h.RateLimitPerMin < 0 {
		return fmt.Errorf("history.rate_limit_per_min 不能为负")
	}
	return nil
}

func (b *BacktestConfig) validate() error {
	if b.StartingBalance <= 0 {
		return fmt.Errorf("backtest.starting_balance 需 > 0")
	}
	if b.FeeRate < 0 {
		return fmt.Errorf("backtest.fee_rate 不能为负")
	}
	if b.SlippageBps < 0 || b.SpreadBps < 0 {
		return fmt.Errorf("backtest.slippage_bps/spread_bps 不能为负")
	}
	if b.MaxLeverage <= 0 {
		return fmt.Errorf("backtest.max_leverage 需 > 0")
	}
	return nil
}
