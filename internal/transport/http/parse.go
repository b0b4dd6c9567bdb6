package http

import (
	"fmt"

	"github.com/tidwall/gjson"

	"marlin/internal/backtest"
)

// pick 返回首个存在的字段，兼容 snake_case 与 camelCase 两种入参。
func pick(item gjson.Result, keys ...string) gjson.Result {
	for _, key := range keys {
		if v := item.Get(key); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

// parseTrades 宽容地解析交易数组：数值字段允许以字符串形式出现，
// 价格非法的交易原样保留，由模拟器按既定规则丢弃。
func parseTrades(raw gjson.Result) ([]backtest.Trade, error) {
	if !raw.Exists() {
		return nil, fmt.Errorf("缺少 trades 字段")
	}
	if !raw.IsArray() {
		return nil, fmt.Errorf("trades 需为数组")
	}
	items := raw.Array()
	trades := make([]backtest.Trade, 0, len(items))
	for _, item := range items {
		trades = append(trades, backtest.Trade{
			Symbol:     pick(item, "symbol").String(),
			EntryTime:  pick(item, "entry_time", "entryTime").Int(),
			ExitTime:   pick(item, "exit_time", "exitTime").Int(),
			EntryPrice: pick(item, "entry_price", "entryPrice").Float(),
			ExitPrice:  pick(item, "exit_price", "exitPrice").Float(),
			Side:       backtest.Side(pick(item, "side").String()),
			Qty:        pick(item, "qty", "quantity").Float(),
		})
	}
	return trades, nil
}

// parseOptions 从请求体取成本/资金覆盖项；未出现的字段落回部署缺省。
func parseOptions(body []byte, defaults backtest.Options) backtest.Options {
	opts := defaults
	root := gjson.ParseBytes(body)

	if v := pick(root, "starting_balance", "startingBalance"); v.Exists() {
		f := v.Float()
		opts.StartingBalance = &f
	}
	if v := pick(root, "fee_rate", "feeRate"); v.Exists() {
		f := v.Float()
		opts.FeeRate = &f
	}
	if v := pick(root, "slippage_bps", "slippageBps"); v.Exists() {
		f := v.Float()
		opts.SlippageBps = &f
	}
	if v := pick(root, "spread_bps", "spreadBps"); v.Exists() {
		f := v.Float()
		opts.SpreadBps = &f
	}
	if v := pick(root, "base_currency", "baseCurrency"); v.Exists() {
		opts.BaseCurrency = v.String()
	}
	return opts
}
