package backtest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestRunDefaults(t *testing.T) {
	res := Run([]Trade{{EntryTime: 1, ExitTime: 2, EntryPrice: 100, ExitPrice: 110}}, Options{})

	assert.InDelta(t, DefaultStartingBalance, res.Config.StartingBalance, 1e-9)
	assert.Equal(t, DefaultBaseCurrency, res.Config.BaseCurrency)
	assert.InDelta(t, DefaultFeeRate, res.Config.FeeRate, 1e-9)
	assert.InDelta(t, DefaultSlippageBps, res.Config.SlippageBps, 1e-9)
	assert.InDelta(t, DefaultSpreadBps, res.Config.SpreadBps, 1e-9)
	assert.InDelta(t, DefaultMaxLeverage, res.Config.MaxLeverage, 1e-9)

	require.Len(t, res.Trades, 1)
	// 缺省成本下净利一定小于毛利。
	assert.Less(t, res.Trades[0].ProfitAfterCosts, res.Trades[0].ProfitBeforeCosts)
	assert.Less(t, res.Stats.NetPnl, res.Stats.GrossPnl)
}

func TestRunExplicitZeroCostsPreserved(t *testing.T) {
	res := Run(
		[]Trade{{EntryTime: 1, ExitTime: 2, EntryPrice: 100, ExitPrice: 110}},
		Options{
			FeeRate:     floatPtr(0),
			SlippageBps: floatPtr(0),
			SpreadBps:   floatPtr(0),
		},
	)

	require.Len(t, res.Trades, 1)
	// 显式 0 不能回落到缺省费率。
	assert.InDelta(t, 0.0, res.Trades[0].Fees, 1e-12)
	assert.InDelta(t, 0.0, res.Trades[0].Slippage, 1e-12)
	assert.InDelta(t, 0.0, res.Trades[0].SpreadCost, 1e-12)
	assert.InDelta(t, 100.0, res.Trades[0].ProfitAfterCosts, 1e-9)
	assert.InDelta(t, 10.0, res.Stats.TotalReturnPct, 1e-9)
}

func TestRunInvalidOverridesFallBack(t *testing.T) {
	res := Run(nil, Options{
		StartingBalance: floatPtr(-5),
		FeeRate:         floatPtr(-1),
	})
	assert.InDelta(t, DefaultStartingBalance, res.Config.StartingBalance, 1e-9)
	assert.InDelta(t, DefaultFeeRate, res.Config.FeeRate, 1e-9)
}

func TestRunEmptyTrades(t *testing.T) {
	res := Run(nil, Options{})

	assert.Empty(t, res.EquityCurve)
	assert.Empty(t, res.Trades)
	assert.Zero(t, res.Stats.NumTrades)
	assert.Zero(t, res.Stats.TotalReturnPct)
	assert.Nil(t, res.Stats.Sharpe)
	assert.Nil(t, res.Stats.Sortino)
	assert.Nil(t, res.Stats.RiskOfRuinPct)

	// 空结果序列化为 []，不是 null。
	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"equity_curve":[]`)
	assert.Contains(t, string(raw), `"trades":[]`)
}

func TestRunDeterministic(t *testing.T) {
	trades := []Trade{
		{EntryTime: 5, ExitTime: 6, EntryPrice: 102, ExitPrice: 99, Side: Short},
		{EntryTime: 1, ExitTime: 2, EntryPrice: 100, ExitPrice: 110},
		{EntryTime: 3, ExitTime: 4, EntryPrice: 50, ExitPrice: 45},
	}
	a := Run(trades, Options{})
	b := Run(trades, Options{})
	assert.Equal(t, a, b)

	// 入参不被修改。
	assert.Equal(t, int64(5), trades[0].EntryTime)
}

func TestRunWithConfigRejectsInvalid(t *testing.T) {
	_, err := RunWithConfig(nil, Config{})
	require.Error(t, err)

	cfg := DefaultConfig()
	cfg.PositionSizing = PositionSizing{Mode: "martingale"}
	_, err = RunWithConfig(nil, cfg)
	require.Error(t, err)
}

func TestRunWithConfigCurveMatchesTrades(t *testing.T) {
	cfg := DefaultConfig()
	trades := []Trade{
		{EntryTime: 1, ExitTime: 2, EntryPrice: 100, ExitPrice: 103},
		{EntryTime: 3, ExitTime: 4, EntryPrice: 100, ExitPrice: 0}, // 丢弃
		{EntryTime: 5, ExitTime: 6, EntryPrice: 100, ExitPrice: 98},
	}
	res, err := RunWithConfig(trades, cfg)
	require.NoError(t, err)

	// 合法交易 2 笔 → 种子点 + 每笔一个点。
	assert.Len(t, res.Trades, 2)
	assert.Len(t, res.EquityCurve, 3)
	assert.InDelta(t, res.EquityCurve[len(res.EquityCurve)-1].Equity,
		cfg.StartingBalance+res.Stats.NetPnl, 1e-9)
}
