package backtest

// priceTrade 把一笔交易 + 当前权益换算成带成本的成交结果。纯函数，
// 调用方保证 equityBefore > 0 且 tr.priced()。
//
// 名义头寸先按仓位策略求值，再夹到 [0, equity×maxLeverage]：超出上限
// 的请求被截断而不是拒绝。三项成本（手续费/滑点/点差）均按进出双边
// 合计名义额（qty×entry + qty×exit）计。
func priceTrade(tr Trade, equityBefore float64, cfg Config) EnrichedTrade {
	notional := cfg.PositionSizing.desiredNotional(equityBefore)
	if notional < 0 {
		notional = 0
	}
	if maxNotional := equityBefore * cfg.MaxLeverage; notional > maxNotional {
		notional = maxNotional
	}

	qty := notional / tr.EntryPrice
	leverage := notional / equityBefore

	gross := (tr.ExitPrice - tr.EntryPrice) * qty
	if tr.direction() == Short {
		gross = (tr.EntryPrice - tr.ExitPrice) * qty
	}

	roundTrip := qty*tr.EntryPrice + qty*tr.ExitPrice
	fees := roundTrip * cfg.FeeRate
	slippage := roundTrip * cfg.SlippageBps / 10000
	spread := roundTrip * cfg.SpreadBps / 10000
	net := gross - fees - slippage - spread

	pnlPct := 0.0
	if notional > 0 {
		pnlPct = net / notional * 100
	}

	out := EnrichedTrade{
		Trade:             tr,
		ProfitBeforeCosts: gross,
		Fees:              fees,
		SpreadCost:        spread,
		Slippage:          slippage,
		ProfitAfterCosts:  net,
		Profit:            net,
		PnlPct:            pnlPct,
		Leverage:          leverage,
		EquityBefore:      equityBefore,
		EquityAfter:       equityBefore + net,
	}
	out.Qty = qty
	out.Side = tr.direction()
	return out
}
