package signal

import (
	"fmt"

	talib "github.com/markcheno/go-talib"

	"marlin/internal/backtest"
	"marlin/internal/market"
)

// CrossoverConfig 控制双均线交叉策略的参数。
type CrossoverConfig struct {
	Symbol     string `json:"symbol"`
	FastPeriod int    `json:"fast_period"`
	SlowPeriod int    `json:"slow_period"`
	AllowShort bool   `json:"allow_short"`
}

// DefaultCrossoverConfig 为常用的 10/30 双均线。
func DefaultCrossoverConfig() CrossoverConfig {
	return CrossoverConfig{FastPeriod: 10, SlowPeriod: 30}
}

// Validate 校验周期参数。
func (c CrossoverConfig) Validate() error {
	if c.FastPeriod <= 0 || c.SlowPeriod <= 0 {
		return fmt.Errorf("crossover: 周期需 > 0")
	}
	if c.FastPeriod >= c.SlowPeriod {
		return fmt.Errorf("crossover: fast_period(%d) 需小于 slow_period(%d)", c.FastPeriod, c.SlowPeriod)
	}
	return nil
}

// SMACrossover 在 K 线序列上跑快慢均线交叉，产出已闭合的交易列表：
// 金叉开多、死叉平多；AllowShort 时死叉同时开空、金叉平空。
// 序列结束仍持仓的，在最后一根 K 线收盘价强制平仓。
// 成交价与时间取信号所在 K 线的收盘价/收盘时间。
func SMACrossover(candles []market.Candle, cfg CrossoverConfig) ([]backtest.Trade, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(candles) < cfg.SlowPeriod+1 {
		return nil, fmt.Errorf("crossover: K 线不足，需 %d 根，实际 %d", cfg.SlowPeriod+1, len(candles))
	}

	closes := market.Closes(candles)
	fast := talib.Sma(closes, cfg.FastPeriod)
	slow := talib.Sma(closes, cfg.SlowPeriod)

	trades := make([]backtest.Trade, 0)
	var open *backtest.Trade

	closeAt := func(i int) {
		open.ExitTime = candles[i].CloseTime
		open.ExitPrice = candles[i].Close
		trades = append(trades, *open)
		open = nil
	}
	openAt := func(i int, side backtest.Side) {
		open = &backtest.Trade{
			Symbol:     cfg.Symbol,
			EntryTime:  candles[i].CloseTime,
			EntryPrice: candles[i].Close,
			Side:       side,
		}
	}

	// 慢线自 SlowPeriod-1 起有效，交叉判定还需要前一根，故从 SlowPeriod 起。
	for i := cfg.SlowPeriod; i < len(candles); i++ {
		goldenCross := fast[i-1] <= slow[i-1] && fast[i] > slow[i]
		deathCross := fast[i-1] >= slow[i-1] && fast[i] < slow[i]

		switch {
		case goldenCross:
			if open != nil && open.Side == backtest.Short {
				closeAt(i)
			}
			if open == nil {
				openAt(i, backtest.Long)
			}
		case deathCross:
			if open != nil && open.Side == backtest.Long {
				closeAt(i)
			}
			if open == nil && cfg.AllowShort {
				openAt(i, backtest.Short)
			}
		}
	}

	if open != nil {
		closeAt(len(candles) - 1)
	}
	return trades, nil
}
