package backtest

// Side 表示持仓方向。
type Side string

const (
	Long  Side = "long"
	Short Side = "short"
)

// Trade 是外部输入的一笔已完成交易（入场/出场各一次，时间为 Unix 毫秒）。
// Qty 可选：模拟时会按仓位策略重新计算并覆盖。
type Trade struct {
	Symbol     string  `json:"symbol,omitempty"`
	EntryTime  int64   `json:"entry_time"`
	ExitTime   int64   `json:"exit_time"`
	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price"`
	Side       Side    `json:"side,omitempty"`
	Qty        float64 `json:"qty,omitempty"`
}

// direction 返回方向，缺省为 long。
func (t Trade) direction() Side {
	if t.Side == Short {
		return Short
	}
	return Long
}

// priced 表示价格合法；非法价格的交易不参与模拟。
func (t Trade) priced() bool {
	return t.EntryPrice > 0 && t.ExitPrice > 0
}

// EnrichedTrade 是模拟后的成交明细：原始交易 + 仓位、成本与盈亏。
// Profit 与 ProfitAfterCosts 数值相同，保留两个字段以兼容下游展示。
type EnrichedTrade struct {
	Trade
	ProfitBeforeCosts float64 `json:"profit_before_costs"`
	Fees              float64 `json:"fees"`
	SpreadCost        float64 `json:"spread_cost"`
	Slippage          float64 `json:"slippage"`
	ProfitAfterCosts  float64 `json:"profit_after_costs"`
	Profit            float64 `json:"profit"`
	PnlPct            float64 `json:"pnl_pct"`
	Leverage          float64 `json:"leverage"`
	EquityBefore      float64 `json:"equity_before"`
	EquityAfter       float64 `json:"equity_after"`
}

// EquityPoint 是资金曲线上的一个采样点。仓位在每笔交易内开平完成，
// 两个采样点之间不持仓，因此 PositionValue 恒为 0、Cash 等于 Equity。
type EquityPoint struct {
	Time          int64   `json:"time"`
	Equity        float64 `json:"equity"`
	Cash          float64 `json:"cash"`
	PositionValue float64 `json:"position_value"`
}

// Stats 汇总收益与风控指标。Sharpe/Sortino/RiskOfRuinPct 为 nil 表示
// 数据不足（与"计算结果为 0"严格区分，前端依赖该语义）。
type Stats struct {
	TotalReturnPct float64  `json:"total_return_pct"`
	CAGRPct        float64  `json:"cagr_pct"`
	MaxDrawdownPct float64  `json:"max_drawdown_pct"`
	Sharpe         *float64 `json:"sharpe"`
	Sortino        *float64 `json:"sortino"`
	WinRatePct     float64  `json:"win_rate_pct"`
	AvgWinPct      float64  `json:"avg_win_pct"`
	AvgLossPct     float64  `json:"avg_loss_pct"`
	ProfitFactor   float64  `json:"profit_factor"`
	ExpectancyPct  float64  `json:"expectancy_pct"`
	RiskOfRuinPct  *float64 `json:"risk_of_ruin_pct"`
	NumTrades      int      `json:"num_trades"`
	Wins           int      `json:"wins"`
	Losses         int      `json:"losses"`
	BestTradePnl   float64  `json:"best_trade_pnl"`
	WorstTradePnl  float64  `json:"worst_trade_pnl"`
	GrossPnl       float64  `json:"gross_pnl"`
	NetPnl         float64  `json:"net_pnl"`
	TotalFees      float64  `json:"total_fees"`
	TotalSpread    float64  `json:"total_spread"`
	TotalSlippage  float64  `json:"total_slippage"`
	AvgLeverage    *float64 `json:"avg_leverage"`
	PeakLeverage   *float64 `json:"peak_leverage"`
}

// Result 是一次单标的模拟的完整产出，构造后不再修改。
type Result struct {
	Config      Config          `json:"config"`
	Stats       Stats           `json:"stats"`
	EquityCurve []EquityPoint   `json:"equity_curve"`
	Trades      []EnrichedTrade `json:"trades"`
}

// SymbolResult 在 Result 之上附加标的标签。
type SymbolResult struct {
	Symbol string `json:"symbol"`
	Result
}

// PortfolioResult 汇总多标的独立回测与合并后的组合视图。
type PortfolioResult struct {
	BaseCurrency    string                  `json:"base_currency"`
	StartingBalance float64                 `json:"starting_balance"`
	ResultsBySymbol map[string]SymbolResult `json:"results_by_symbol"`
	EquityCurve     []EquityPoint           `json:"portfolio_equity_curve"`
	Stats           Stats                   `json:"portfolio_stats"`
}
