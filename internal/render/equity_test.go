package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marlin/internal/backtest"
)

func TestEquityHTMLEmptyCurve(t *testing.T) {
	_, err := EquityHTML(EquityChartInput{})
	require.Error(t, err)
}

func TestEquityHTMLRendersPage(t *testing.T) {
	html, err := EquityHTML(EquityChartInput{
		Title: "BTCUSDT 回测",
		Curve: []backtest.EquityPoint{
			{Time: 1_700_000_000_000, Equity: 1000, Cash: 1000},
			{Time: 1_700_000_060_000, Equity: 1100, Cash: 1100},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, string(html), "BTCUSDT")
	assert.Contains(t, string(html), "echarts")
}

func TestEquityHTMLOverlaysPerSymbol(t *testing.T) {
	curve := []backtest.EquityPoint{
		{Time: 1000, Equity: 10000},
		{Time: 2000, Equity: 10500},
		{Time: 3000, Equity: 11000},
	}
	html, err := EquityHTML(EquityChartInput{
		Title: "Portfolio",
		Curve: curve,
		PerSymbol: map[string][]backtest.EquityPoint{
			"BTCUSDT": {{Time: 1000, Equity: 5000}, {Time: 3000, Equity: 5500}},
			"ETHUSDT": {{Time: 2000, Equity: 5000}, {Time: 3000, Equity: 5500}},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, string(html), "BTCUSDT")
	assert.Contains(t, string(html), "ETHUSDT")
}

func TestAlignToAxisCarriesForward(t *testing.T) {
	axis := []backtest.EquityPoint{{Time: 1000}, {Time: 2000}, {Time: 3000}}
	curve := []backtest.EquityPoint{{Time: 2000, Equity: 42}}
	data := alignToAxis(axis, curve)
	require.Len(t, data, 3)
	assert.Equal(t, 0.0, data[0].Value)
	assert.Equal(t, 42.0, data[1].Value)
	assert.Equal(t, 42.0, data[2].Value)
}
