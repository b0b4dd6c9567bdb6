package backtest

import "sort"

// simOutcome 聚合模拟过程的产出。
type simOutcome struct {
	curve  []EquityPoint
	trades []EnrichedTrade
}

// simulate 按入场时间升序推演全部交易并维护运行权益。
//
// 约定：
//   - 输入可以无序；稳定排序保证相同入场时间保持原相对顺序。
//   - 首个合法交易处理前，以其入场时间 + 初始资金落一个种子点，
//     因此只要存在合法交易，曲线至少有 1 个点。
//   - 非法价格（entry/exit <= 0）的交易静默丢弃：不计数、不影响权益。
//   - 权益 <= 0 后视为爆仓：后续交易只落一条持平的资金点，不再开仓，
//     也不进入成交明细。
//   - 空交易列表返回空曲线与空明细，不视为错误。
func simulate(trades []Trade, cfg Config) simOutcome {
	ordered := make([]Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].EntryTime < ordered[j].EntryTime
	})

	out := simOutcome{
		curve:  make([]EquityPoint, 0, len(ordered)+1),
		trades: make([]EnrichedTrade, 0, len(ordered)),
	}
	equity := cfg.StartingBalance
	seeded := false

	for _, tr := range ordered {
		if !tr.priced() {
			continue
		}
		// 关闭做空时，空头交易按非法交易同样静默丢弃。
		if !cfg.AllowShort && tr.direction() == Short {
			continue
		}
		if !seeded {
			out.curve = append(out.curve, EquityPoint{
				Time:   tr.EntryTime,
				Equity: cfg.StartingBalance,
				Cash:   cfg.StartingBalance,
			})
			seeded = true
		}
		if equity <= 0 {
			out.curve = append(out.curve, EquityPoint{Time: tr.ExitTime, Equity: equity, Cash: equity})
			continue
		}

		fill := priceTrade(tr, equity, cfg)
		equity += fill.ProfitAfterCosts

		out.curve = append(out.curve, EquityPoint{Time: tr.ExitTime, Equity: equity, Cash: equity})
		out.trades = append(out.trades, fill)
	}
	return out
}
