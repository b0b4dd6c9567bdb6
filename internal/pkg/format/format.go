package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Float 以固定小数位渲染数值，去掉多余的尾零（显示用，不参与核心计算）。
func Float(v float64, places int) string {
	if places < 0 {
		places = 0
	}
	d := decimal.NewFromFloat(v).Round(int32(places))
	s := d.StringFixed(int32(places))
	if places == 0 || !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// Pct 渲染百分比（带符号，两位小数）。
func Pct(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	s := d.StringFixed(2)
	if d.Sign() > 0 {
		return "+" + s + "%"
	}
	return s + "%"
}
