package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zeroCostConfig(startingBalance, maxLeverage float64, sizing PositionSizing) Config {
	return Config{
		StartingBalance: startingBalance,
		BaseCurrency:    "USDT",
		FeeRate:         0,
		SlippageBps:     0,
		SpreadBps:       0,
		MaxLeverage:     maxLeverage,
		AllowShort:      true,
		PositionSizing:  sizing,
	}
}

func TestSimulateSingleWinningTrade(t *testing.T) {
	cfg := zeroCostConfig(1000, 1, FixedFraction(1))
	trades := []Trade{{EntryTime: 1000, ExitTime: 2000, EntryPrice: 100, ExitPrice: 110}}

	out := simulate(trades, cfg)
	require.Len(t, out.trades, 1)
	require.Len(t, out.curve, 2)

	fill := out.trades[0]
	assert.InDelta(t, 10.0, fill.Qty, 1e-9)
	assert.InDelta(t, 100.0, fill.ProfitBeforeCosts, 1e-9)
	assert.InDelta(t, 100.0, fill.ProfitAfterCosts, 1e-9)
	assert.InDelta(t, 1.0, fill.Leverage, 1e-9)

	// 种子点在首笔交易的入场时间，第二个点在出场时间。
	assert.Equal(t, int64(1000), out.curve[0].Time)
	assert.InDelta(t, 1000.0, out.curve[0].Equity, 1e-9)
	assert.Equal(t, int64(2000), out.curve[1].Time)
	assert.InDelta(t, 1100.0, out.curve[1].Equity, 1e-9)
}

func TestSimulateFeesOnRoundTripNotional(t *testing.T) {
	cfg := zeroCostConfig(1000, 1, FixedFraction(1))
	cfg.FeeRate = 0.001
	trades := []Trade{{EntryTime: 1, ExitTime: 2, EntryPrice: 100, ExitPrice: 110}}

	out := simulate(trades, cfg)
	require.Len(t, out.trades, 1)
	// 双边名义额 1000+1100，费率 0.001 → 2.1
	assert.InDelta(t, 2.1, out.trades[0].Fees, 1e-9)
	assert.InDelta(t, 97.9, out.trades[0].ProfitAfterCosts, 1e-9)
	assert.InDelta(t, 1097.9, out.curve[len(out.curve)-1].Equity, 1e-9)
}

func TestSimulateCompoundedLosses(t *testing.T) {
	cfg := zeroCostConfig(1000, 1, FixedFraction(1))
	trades := []Trade{
		{EntryTime: 1, ExitTime: 2, EntryPrice: 100, ExitPrice: 40},
		{EntryTime: 3, ExitTime: 4, EntryPrice: 100, ExitPrice: 40},
	}

	out := simulate(trades, cfg)
	require.Len(t, out.trades, 2)
	assert.InDelta(t, 400.0, out.trades[0].EquityAfter, 1e-9)
	assert.InDelta(t, 160.0, out.trades[1].EquityAfter, 1e-9)
	assert.InDelta(t, 160.0, out.curve[len(out.curve)-1].Equity, 1e-9)
}

func TestSimulateShortSide(t *testing.T) {
	cfg := zeroCostConfig(1000, 1, FixedFraction(1))
	trades := []Trade{{EntryTime: 1, ExitTime: 2, EntryPrice: 100, ExitPrice: 90, Side: Short}}

	out := simulate(trades, cfg)
	require.Len(t, out.trades, 1)
	assert.InDelta(t, 100.0, out.trades[0].ProfitAfterCosts, 1e-9)
}

func TestSimulateShortsDroppedWhenDisabled(t *testing.T) {
	cfg := zeroCostConfig(1000, 1, FixedFraction(1))
	cfg.AllowShort = false
	trades := []Trade{
		{EntryTime: 1, ExitTime: 2, EntryPrice: 100, ExitPrice: 90, Side: Short},
		{EntryTime: 3, ExitTime: 4, EntryPrice: 100, ExitPrice: 110},
	}

	out := simulate(trades, cfg)
	require.Len(t, out.trades, 1)
	assert.Equal(t, Long, out.trades[0].Side)
	// 种子点落在首个被接受的交易上。
	assert.Equal(t, int64(3), out.curve[0].Time)
}

func TestSimulateSortsByEntryTime(t *testing.T) {
	cfg := zeroCostConfig(1000, 1, FixedFraction(1))
	trades := []Trade{
		{EntryTime: 300, ExitTime: 400, EntryPrice: 100, ExitPrice: 110},
		{EntryTime: 100, ExitTime: 200, EntryPrice: 100, ExitPrice: 110},
	}

	out := simulate(trades, cfg)
	require.Len(t, out.trades, 2)
	assert.Equal(t, int64(100), out.trades[0].EntryTime)
	assert.Equal(t, int64(100), out.curve[0].Time)
}

func TestSimulateDropsDegenerateTrades(t *testing.T) {
	cfg := zeroCostConfig(1000, 1, FixedFraction(1))
	trades := []Trade{
		{EntryTime: 1, ExitTime: 2, EntryPrice: 0, ExitPrice: 110},
		{EntryTime: 3, ExitTime: 4, EntryPrice: 100, ExitPrice: -5},
	}

	out := simulate(trades, cfg)
	assert.Empty(t, out.trades)
	// 全部非法时不落种子点。
	assert.Empty(t, out.curve)
}

func TestSimulateLeverageCap(t *testing.T) {
	cfg := zeroCostConfig(1000, 2, FixedFraction(5))
	trades := []Trade{{EntryTime: 1, ExitTime: 2, EntryPrice: 100, ExitPrice: 101}}

	out := simulate(trades, cfg)
	require.Len(t, out.trades, 1)
	fill := out.trades[0]
	assert.LessOrEqual(t, fill.Qty*fill.EntryPrice, fill.EquityBefore*cfg.MaxLeverage+1e-9)
	assert.InDelta(t, 2.0, fill.Leverage, 1e-9)
}

func TestSimulateRuinStopsTrading(t *testing.T) {
	cfg := zeroCostConfig(1000, 5, FixedFraction(5))
	trades := []Trade{
		// 5 倍杠杆下跌 30% → 权益 -500，爆仓。
		{EntryTime: 1, ExitTime: 2, EntryPrice: 100, ExitPrice: 70},
		{EntryTime: 3, ExitTime: 4, EntryPrice: 100, ExitPrice: 200},
		{EntryTime: 5, ExitTime: 6, EntryPrice: 100, ExitPrice: 200},
	}

	out := simulate(trades, cfg)
	require.Len(t, out.trades, 1)
	require.Len(t, out.curve, 4) // 种子 + 爆仓交易 + 两条持平点

	assert.InDelta(t, -500.0, out.curve[1].Equity, 1e-9)
	assert.InDelta(t, -500.0, out.curve[2].Equity, 1e-9)
	assert.InDelta(t, -500.0, out.curve[3].Equity, 1e-9)
	assert.Equal(t, int64(4), out.curve[2].Time)
	assert.Equal(t, int64(6), out.curve[3].Time)
}

func TestSimulateEmptyInput(t *testing.T) {
	out := simulate(nil, zeroCostConfig(1000, 1, FixedFraction(1)))
	assert.Empty(t, out.curve)
	assert.Empty(t, out.trades)
}

func TestSimulateFixedNotionalSizing(t *testing.T) {
	cfg := zeroCostConfig(1000, 2, FixedNotional(500))
	trades := []Trade{
		{EntryTime: 1, ExitTime: 2, EntryPrice: 100, ExitPrice: 110},
		{EntryTime: 3, ExitTime: 4, EntryPrice: 100, ExitPrice: 110},
	}

	out := simulate(trades, cfg)
	require.Len(t, out.trades, 2)
	// 两笔都是固定 500 名义额，与权益无关。
	assert.InDelta(t, 5.0, out.trades[0].Qty, 1e-9)
	assert.InDelta(t, 5.0, out.trades[1].Qty, 1e-9)
	assert.InDelta(t, 1100.0, out.curve[len(out.curve)-1].Equity, 1e-9)
}
