package backtest

import (
	"sort"

	"golang.org/x/sync/errgroup"
)

// PortfolioRequest 描述一次多标的回测：初始资金均分到各标的，
// 各自独立模拟，模拟期间没有跨标的的资金共享或再平衡。
type PortfolioRequest struct {
	TradesBySymbol  map[string][]Trade `json:"trades_by_symbol"`
	StartingBalance float64            `json:"starting_balance,omitempty"`
	BaseCurrency    string             `json:"base_currency,omitempty"`
}

// RunPortfolio 逐标的运行单标的回测，再把各资金曲线合并到统一时间轴
// 并重算组合级统计。各标的互不共享状态，因此可以并发执行；合并按
// 排序后的 symbol 与时间戳进行，结果与执行顺序无关。
func RunPortfolio(req PortfolioRequest) PortfolioResult {
	total := req.StartingBalance
	if total <= 0 {
		total = DefaultPortfolioBalance
	}
	currency := req.BaseCurrency
	if currency == "" {
		currency = DefaultBaseCurrency
	}

	symbols := make([]string, 0, len(req.TradesBySymbol))
	for sym := range req.TradesBySymbol {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	out := PortfolioResult{
		BaseCurrency:    currency,
		StartingBalance: total,
		ResultsBySymbol: make(map[string]SymbolResult, len(symbols)),
		EquityCurve:     make([]EquityPoint, 0),
	}
	if len(symbols) == 0 {
		return out
	}

	perSymbol := total / float64(len(symbols))
	results := make([]SymbolResult, len(symbols))
	var g errgroup.Group
	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			start := perSymbol
			res := Run(req.TradesBySymbol[sym], Options{
				StartingBalance: &start,
				BaseCurrency:    currency,
			})
			results[i] = SymbolResult{Symbol: sym, Result: res}
			return nil
		})
	}
	_ = g.Wait()

	curves := make([][]EquityPoint, len(results))
	for i, r := range results {
		out.ResultsBySymbol[r.Symbol] = r
		curves[i] = r.EquityCurve
	}
	out.EquityCurve = mergeCurves(curves)
	out.Stats = portfolioStats(out.EquityCurve, results)
	return out
}

// mergeCurves 把多条资金曲线合并到时间戳并集上：每个时间点取各标的
// "该时刻或之前最后一个已知权益"求和（阶梯式延续）；尚无数据的标的
// 贡献 0。每条曲线各持一个单调推进的游标，整体线性完成。
func mergeCurves(curves [][]EquityPoint) []EquityPoint {
	timeSet := make(map[int64]struct{})
	for _, c := range curves {
		for _, p := range c {
			timeSet[p.Time] = struct{}{}
		}
	}
	times := make([]int64, 0, len(timeSet))
	for ts := range timeSet {
		times = append(times, ts)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	cursors := make([]int, len(curves))
	carried := make([]float64, len(curves))
	merged := make([]EquityPoint, 0, len(times))
	for _, ts := range times {
		total := 0.0
		for i, c := range curves {
			for cursors[i] < len(c) && c[cursors[i]].Time <= ts {
				carried[i] = c[cursors[i]].Equity
				cursors[i]++
			}
			total += carried[i]
		}
		merged = append(merged, EquityPoint{Time: ts, Equity: total, Cash: total})
	}
	return merged
}

// portfolioStats 从合并曲线 + 各标的结果重算组合级统计。
// Sharpe/Sortino/ProfitFactor/Expectancy 在组合层面刻意保持 nil/0，
// 不从合并后的收益序列反推；成本与杠杆直接由各标的统计聚合。
func portfolioStats(curve []EquityPoint, results []SymbolResult) Stats {
	s := Stats{}

	if len(curve) > 0 && curve[0].Equity > 0 {
		first := curve[0].Equity
		last := curve[len(curve)-1].Equity
		s.TotalReturnPct = (last/first - 1) * 100
	}
	s.MaxDrawdownPct = maxDrawdownPct(curve)

	// 交易级的胜负分布直接在全部标的的成交并集上计算。
	var winPctSum, lossPctSum float64
	first := true
	for _, r := range results {
		for _, tr := range r.Trades {
			profit := tr.ProfitAfterCosts
			if first || profit > s.BestTradePnl {
				s.BestTradePnl = profit
			}
			if first || profit < s.WorstTradePnl {
				s.WorstTradePnl = profit
			}
			first = false
			s.NumTrades++
			pct := 0.0
			if entryNotional := tr.Qty * tr.EntryPrice; entryNotional > 0 {
				pct = profit / entryNotional * 100
			}
			if profit > 0 {
				s.Wins++
				winPctSum += pct
			} else {
				s.Losses++
				lossPctSum += pct
			}
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

	var levSum, levPeak float64
	levCount := 0
	for _, r := range results {
		s.GrossPnl += r.Stats.GrossPnl
		s.NetPnl += r.Stats.NetPnl
		s.TotalFees += r.Stats.TotalFees
		s.TotalSpread += r.Stats.TotalSpread
		s.TotalSlippage += r.Stats.TotalSlippage
		if r.Stats.AvgLeverage != nil {
			levSum += *r.Stats.AvgLeverage
			levCount++
		}
		if r.Stats.PeakLeverage != nil && *r.Stats.PeakLeverage > levPeak {
			levPeak = *r.Stats.PeakLeverage
		}
	}
	if levCount > 0 {
		avg := levSum / float64(levCount)
		s.AvgLeverage = &avg
		s.PeakLeverage = &levPeak
	}
	return s
}
