package backtest

import "math"

// 风险破产启发式的权益损失阈值（-50%）。
const ruinThresholdPct = 50.0

// deriveStats 从资金曲线 + 成交明细推导完整统计。所有除零/样本不足
// 的分支都显式退化为 0 或 nil，正常输入下不会产生 NaN。
func deriveStats(curve []EquityPoint, trades []EnrichedTrade, startingBalance float64) Stats {
	s := Stats{}

	// 收益率序列：相邻两点的环比；前一点权益非正时跳过，避免除零伪影。
	var returns []float64
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev > 0 {
			returns = append(returns, curve[i].Equity/prev-1)
		}
	}

	s.MaxDrawdownPct = maxDrawdownPct(curve)

	// Sharpe/Sortino 需要 >=2 个收益观测且标准差非零，否则为 nil。
	if len(returns) >= 2 {
		m := mean(returns)
		scale := math.Sqrt(float64(len(returns)))
		if sd := stdev(returns); sd > 0 {
			v := m / sd * scale
			s.Sharpe = &v
		}
		var negatives []float64
		for _, r := range returns {
			if r < 0 {
				negatives = append(negatives, r)
			}
		}
		if dsd := stdev(negatives); dsd > 0 {
			v := m / dsd * scale
			s.Sortino = &v
		}
	}

	s.NumTrades = len(trades)
	var (
		winPctSum, lossPctSum     float64
		grossProfit, grossLossAbs float64
	)
	for i, tr := range trades {
		profit := tr.ProfitAfterCosts
		if i == 0 || profit > s.BestTradePnl {
			s.BestTradePnl = profit
		}
		if i == 0 || profit < s.WorstTradePnl {
			s.WorstTradePnl = profit
		}
		s.GrossPnl += tr.ProfitBeforeCosts
		s.NetPnl += profit
		s.TotalFees += tr.Fees
		s.TotalSpread += tr.SpreadCost
		s.TotalSlippage += tr.Slippage

		pct := 0.0
		if entryNotional := tr.Qty * tr.EntryPrice; entryNotional > 0 {
			pct = profit / entryNotional * 100
		}
		// 盈亏分组：严格为正算赢，亏损与持平归入输的一侧。
		if profit > 0 {
			s.Wins++
			winPctSum += pct
			grossProfit += profit
		} else {
			s.Losses++
			lossPctSum += pct
			grossLossAbs += math.Abs(profit)
		}
	}

	if s.NumTrades > 0 {
		s.WinRatePct = float64(s.Wins) / float64(s.NumTrades) * 100
	}
	if s.Wins > 0 {
		s.AvgWinPct = winPctSum / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLossPct = lossPctSum / float64(s.Losses)
	}
	if grossLossAbs > 0 {
		s.ProfitFactor = grossProfit / grossLossAbs
	}
	if s.NumTrades > 0 {
		winProb := float64(s.Wins) / float64(s.NumTrades)
		lossProb := float64(s.Losses) / float64(s.NumTrades)
		// AvgLossPct 带负号，此处即为真实的加权期望。
		s.ExpectancyPct = s.AvgWinPct*winProb + s.AvgLossPct*lossProb

		ror := riskOfRuinPct(s.WinRatePct, s.AvgLossPct)
		s.RiskOfRuinPct = &ror
	}

	if len(curve) > 0 && startingBalance > 0 {
		final := curve[len(curve)-1].Equity
		s.TotalReturnPct = (final/startingBalance - 1) * 100
	}
	// CAGRPct 固定为 0：输入不携带真实跨度，刻意保留该桩值。

	if s.NumTrades > 0 {
		var levSum, levPeak float64
		for _, tr := range trades {
			levSum += tr.Leverage
			if tr.Leverage > levPeak {
				levPeak = tr.Leverage
			}
		}
		avg := levSum / float64(s.NumTrades)
		s.AvgLeverage = &avg
		s.PeakLeverage = &levPeak
	}
	return s
}

// riskOfRuinPct 是刻意简化的连败破产启发式：亏到 -50% 需要的连续
// 亏损笔数 n = ceil(50/|avgLossPct|)，破产概率 = 败率^n。它偏保守，
// 不是严格的破产概率模型，不要向更复杂的模型"修正"。
func riskOfRuinPct(winRatePct, avgLossPct float64) float64 {
	if avgLossPct == 0 {
		return 0
	}
	lossProb := 1 - winRatePct/100
	exponent := math.Ceil(ruinThresholdPct / math.Abs(avgLossPct))
	if math.IsInf(exponent, 0) || math.IsNaN(exponent) {
		return 0
	}
	p := math.Pow(lossProb, exponent)
	if math.IsInf(p, 0) || math.IsNaN(p) {
		return 0
	}
	return p * 100
}

// maxDrawdownPct 用运行峰值法计算最大回撤（返回值 <= 0，单位 %）。
func maxDrawdownPct(curve []EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}
	peak := curve[0].Equity
	worst := 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			if dd := (p.Equity - peak) / peak; dd < worst {
				worst = dd
			}
		}
	}
	return worst * 100
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdev 为样本标准差（n-1）；样本数 < 2 时返回 0。
func stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	variance := 0.0
	for _, v := range values {
		variance += (v - m) * (v - m)
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance)
}
