package backtest

import "fmt"

// SizingMode 标识仓位策略变体。
type SizingMode string

const (
	SizingFixedFraction SizingMode = "fixed_fraction"
	SizingFixedNotional SizingMode = "fixed_notional"
)

// PositionSizing 是二选一的仓位策略：按权益比例，或固定名义金额。
// 两个模式互斥，应通过 FixedFraction / FixedNotional 构造。
type PositionSizing struct {
	Mode             SizingMode `json:"mode"`
	FractionOfEquity float64    `json:"fraction_of_equity,omitempty"`
	Notional         float64    `json:"notional,omitempty"`
}

// FixedFraction 每笔名义头寸 = 当前权益 × fraction。
func FixedFraction(fraction float64) PositionSizing {
	return PositionSizing{Mode: SizingFixedFraction, FractionOfEquity: fraction}
}

// FixedNotional 每笔使用固定名义金额。
func FixedNotional(notional float64) PositionSizing {
	return PositionSizing{Mode: SizingFixedNotional, Notional: notional}
}

// Validate 校验变体完整且互斥。
func (p PositionSizing) Validate() error {
	switch p.Mode {
	case SizingFixedFraction:
		if p.FractionOfEquity <= 0 {
			return fmt.Errorf("position_sizing: fraction_of_equity 需 > 0")
		}
		if p.Notional != 0 {
			return fmt.Errorf("position_sizing: fixed_fraction 模式不接受 notional")
		}
	case SizingFixedNotional:
		if p.Notional <= 0 {
			return fmt.Errorf("position_sizing: notional 需 > 0")
		}
		if p.FractionOfEquity != 0 {
			return fmt.Errorf("position_sizing: fixed_notional 模式不接受 fraction_of_equity")
		}
	default:
		return fmt.Errorf("position_sizing: 未知模式 %q", p.Mode)
	}
	return nil
}

// desiredNotional 返回期望名义头寸（未套用杠杆上限）。
func (p PositionSizing) desiredNotional(equity float64) float64 {
	switch p.Mode {
	case SizingFixedFraction:
		return equity * p.FractionOfEquity
	case SizingFixedNotional:
		return p.Notional
	default:
		return 0
	}
}

// 单标的回测的缺省参数。
const (
	DefaultStartingBalance  = 1000.0
	DefaultPortfolioBalance = 10000.0
	DefaultBaseCurrency     = "USDT"
	DefaultFeeRate          = 0.0004
	DefaultSlippageBps      = 10.0
	DefaultSpreadBps        = 5.0
	DefaultMaxLeverage      = 2.0
)

// Config 记录一次模拟的全部参数快照。
type Config struct {
	StartingBalance float64        `json:"starting_balance"`
	BaseCurrency    string         `json:"base_currency"`
	FeeRate         float64        `json:"fee_rate"`
	SlippageBps     float64        `json:"slippage_bps"`
	SpreadBps       float64        `json:"spread_bps"`
	MaxLeverage     float64        `json:"max_leverage"`
	AllowShort      bool           `json:"allow_short"`
	PositionSizing  PositionSizing `json:"position_sizing"`
}

// DefaultConfig 返回缺省配置值；调用方可整体替换而无需修改全局状态。
func DefaultConfig() Config {
	return Config{
		StartingBalance: DefaultStartingBalance,
		BaseCurrency:    DefaultBaseCurrency,
		FeeRate:         DefaultFeeRate,
		SlippageBps:     DefaultSlippageBps,
		SpreadBps:       DefaultSpreadBps,
		MaxLeverage:     DefaultMaxLeverage,
		AllowShort:      true,
		PositionSizing:  FixedFraction(1),
	}
}

// Validate 做基础校验。
func (c Config) Validate() error {
	if c.StartingBalance <= 0 {
		return fmt.Errorf("starting_balance 需 > 0")
	}
	if c.FeeRate < 0 {
		return fmt.Errorf("fee_rate 不能为负")
	}
	if c.SlippageBps < 0 || c.SpreadBps < 0 {
		return fmt.Errorf("slippage_bps/spread_bps 不能为负")
	}
	if c.MaxLeverage <= 0 {
		return fmt.Errorf("max_leverage 需 > 0")
	}
	return c.PositionSizing.Validate()
}

// Options 是单标的入口的可选覆盖；nil 字段使用缺省值，
// 显式的 0（例如零费率）会被保留。
type Options struct {
	StartingBalance *float64 `json:"starting_balance,omitempty"`
	BaseCurrency    string   `json:"base_currency,omitempty"`
	FeeRate         *float64 `json:"fee_rate,omitempty"`
	SlippageBps     *float64 `json:"slippage_bps,omitempty"`
	SpreadBps       *float64 `json:"spread_bps,omitempty"`
}

// merged 从缺省配置出发套用覆盖项；非法覆盖回落为缺省。
func (o Options) merged() Config {
	cfg := DefaultConfig()
	if o.StartingBalance != nil && *o.StartingBalance > 0 {
		cfg.StartingBalance = *o.StartingBalance
	}
	if o.BaseCurrency != "" {
		cfg.BaseCurrency = o.BaseCurrency
	}
	if o.FeeRate != nil && *o.FeeRate >= 0 {
		cfg.FeeRate = *o.FeeRate
	}
	if o.SlippageBps != nil && *o.SlippageBps >= 0 {
		cfg.SlippageBps = *o.SlippageBps
	}
	if o.SpreadBps != nil && *o.SpreadBps >= 0 {
		cfg.SpreadBps = *o.SpreadBps
	}
	return cfg
}
