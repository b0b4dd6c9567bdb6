package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func curveOf(equities ...float64) []EquityPoint {
	curve := make([]EquityPoint, 0, len(equities))
	for i, e := range equities {
		curve = append(curve, EquityPoint{Time: int64(i + 1), Equity: e, Cash: e})
	}
	return curve
}

func enriched(gross, net, qty, entryPrice float64) EnrichedTrade {
	tr := EnrichedTrade{
		Trade:             Trade{EntryPrice: entryPrice, ExitPrice: entryPrice, Qty: qty},
		ProfitBeforeCosts: gross,
		ProfitAfterCosts:  net,
		Profit:            net,
		Leverage:          1,
	}
	return tr
}

func TestDeriveStatsSharpeHandComputed(t *testing.T) {
	// 收益率 +10%、-5%：均值 0.025，样本标准差 0.075√2，
	// Sharpe = 0.025/(0.075√2)×√2 = 1/3。
	s := deriveStats(curveOf(1000, 1100, 1045), nil, 1000)
	require.NotNil(t, s.Sharpe)
	assert.InDelta(t, 1.0/3.0, *s.Sharpe, 1e-9)
	// 负收益仅 1 个观测，下行标准差为 0 → Sortino 缺数据。
	assert.Nil(t, s.Sortino)
	assert.InDelta(t, 4.5, s.TotalReturnPct, 1e-9)
}

func TestDeriveStatsSharpeNilWhenFlat(t *testing.T) {
	// 两段收益率完全相同 → 标准差 0 → nil，而不是 0。
	s := deriveStats(curveOf(1000, 1100, 1210), nil, 1000)
	assert.Nil(t, s.Sharpe)
	assert.Nil(t, s.Sortino)
}

func TestDeriveStatsSharpeNilWithSingleReturn(t *testing.T) {
	s := deriveStats(curveOf(1000, 1100), nil, 1000)
	assert.Nil(t, s.Sharpe)
	assert.Nil(t, s.Sortino)
}

func TestDeriveStatsSortino(t *testing.T) {
	// 收益率 +10%、-5%、-10%：均值 -5/300，下行序列 [-0.05,-0.10]
	// 样本标准差 0.025√2。
	s := deriveStats(curveOf(1000, 1100, 1045, 940.5), nil, 1000)
	require.NotNil(t, s.Sortino)
	m := (0.10 - 0.05 - 0.10) / 3
	dsd := 0.025 * math.Sqrt2
	assert.InDelta(t, m/dsd*math.Sqrt(3), *s.Sortino, 1e-9)
}

func TestDeriveStatsMaxDrawdown(t *testing.T) {
	// 峰值 1100 → 谷 880：回撤 -20%。
	s := deriveStats(curveOf(1000, 1100, 880, 990), nil, 1000)
	assert.InDelta(t, -20.0, s.MaxDrawdownPct, 1e-9)
}

func TestDeriveStatsTradeDistribution(t *testing.T) {
	trades := []EnrichedTrade{
		enriched(110, 100, 10, 100), // +10%
		enriched(-40, -50, 10, 100), // -5%
	}
	s := deriveStats(curveOf(1000, 1100, 1050), trades, 1000)

	assert.Equal(t, 2, s.NumTrades)
	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.InDelta(t, 50.0, s.WinRatePct, 1e-9)
	assert.InDelta(t, 10.0, s.AvgWinPct, 1e-9)
	assert.InDelta(t, -5.0, s.AvgLossPct, 1e-9)
	assert.InDelta(t, 2.0, s.ProfitFactor, 1e-9)
	// 期望 = 10×0.5 + (-5)×0.5 = 2.5
	assert.InDelta(t, 2.5, s.ExpectancyPct, 1e-9)
	assert.InDelta(t, 100.0, s.BestTradePnl, 1e-9)
	assert.InDelta(t, -50.0, s.WorstTradePnl, 1e-9)
	assert.InDelta(t, 70.0, s.GrossPnl, 1e-9)
	assert.InDelta(t, 50.0, s.NetPnl, 1e-9)
}

func TestDeriveStatsBreakevenCountsAsLoss(t *testing.T) {
	trades := []EnrichedTrade{enriched(0, 0, 10, 100)}
	s := deriveStats(curveOf(1000, 1000), trades, 1000)
	assert.Equal(t, 0, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.InDelta(t, 0.0, s.ProfitFactor, 1e-9)
}

func TestDeriveStatsProfitFactorZeroWithoutLosses(t *testing.T) {
	trades := []EnrichedTrade{enriched(110, 100, 10, 100)}
	s := deriveStats(curveOf(1000, 1100), trades, 1000)
	assert.InDelta(t, 0.0, s.ProfitFactor, 1e-9)
}

func TestRiskOfRuinHeuristic(t *testing.T) {
	// 败率 50%，平均亏损 -10% → 连亏 5 笔破产，0.5^5 = 3.125%。
	assert.InDelta(t, 3.125, riskOfRuinPct(50, -10), 1e-9)
	// 无亏损样本 → 0。
	assert.InDelta(t, 0.0, riskOfRuinPct(100, 0), 1e-9)
	// 从不亏损 → 概率 0。
	assert.InDelta(t, 0.0, riskOfRuinPct(100, -10), 1e-9)
}

func TestDeriveStatsRiskOfRuinNilWithoutTrades(t *testing.T) {
	s := deriveStats(nil, nil, 1000)
	assert.Nil(t, s.RiskOfRuinPct)
	assert.Nil(t, s.AvgLeverage)
	assert.Nil(t, s.PeakLeverage)
}

func TestDeriveStatsEmptyInputs(t *testing.T) {
	s := deriveStats(nil, nil, 1000)
	assert.Zero(t, s.TotalReturnPct)
	assert.Zero(t, s.MaxDrawdownPct)
	assert.Zero(t, s.NumTrades)
	assert.Nil(t, s.Sharpe)
	assert.Nil(t, s.Sortino)
}

func TestDeriveStatsNoNaN(t *testing.T) {
	cases := map[string][]EnrichedTrade{
		"全赢":   {enriched(110, 100, 10, 100), enriched(55, 50, 5, 100)},
		"全输":   {enriched(-110, -120, 10, 100), enriched(-55, -60, 5, 100)},
		"零数量":  {enriched(0, 0, 0, 100)},
		"零入场价": {enriched(5, 5, 1, 0)},
	}
	for name, trades := range cases {
		s := deriveStats(curveOf(1000, 900, 0, -50), trades, 1000)
		for field, v := range map[string]float64{
			"total_return": s.TotalReturnPct,
			"max_drawdown": s.MaxDrawdownPct,
			"win_rate":     s.WinRatePct,
			"avg_win":      s.AvgWinPct,
			"avg_loss":     s.AvgLossPct,
			"pf":           s.ProfitFactor,
			"expectancy":   s.ExpectancyPct,
		} {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s/%s", name, field)
		}
		for field, p := range map[string]*float64{
			"sharpe":  s.Sharpe,
			"sortino": s.Sortino,
			"ror":     s.RiskOfRuinPct,
		} {
			if p != nil {
				assert.False(t, math.IsNaN(*p) || math.IsInf(*p, 0), "%s/%s", name, field)
			}
		}
	}
}
