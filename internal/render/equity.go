package render

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"marlin/internal/backtest"
	"marlin/internal/pkg/format"
)

const (
	colorBackground    = "#060c1b"
	colorTextPrimary   = "#eceff4"
	colorTextSecondary = "#9ca3af"
	colorEquity        = "#34d399"
	colorOverlayA      = "#3b82f6"
	colorOverlayB      = "#fbbf24"
	colorOverlayC      = "#f472b6"
	colorOverlayD      = "#22d3ee"

	chartWidthPx  = 1200
	chartHeightPx = 520
)

var overlayColors = []string{colorOverlayA, colorOverlayB, colorOverlayC, colorOverlayD}

// EquityChartInput 描述一张资金曲线图：主曲线 + 可选的分标的叠加线。
type EquityChartInput struct {
	Title     string
	Subtitle  string
	Curve     []backtest.EquityPoint
	PerSymbol map[string][]backtest.EquityPoint
}

// EquityHTML 把资金曲线渲染成自包含的 HTML 页面。
func EquityHTML(input EquityChartInput) ([]byte, error) {
	if len(input.Curve) == 0 {
		return nil, fmt.Errorf("资金曲线为空，无图可渲染")
	}
	title := input.Title
	if title == "" {
		title = "Equity Curve"
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", chartHeightPx),
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:         title,
			Subtitle:      input.Subtitle,
			Left:          "left",
			Top:           "10",
			TitleStyle:    &opts.TextStyle{Color: colorTextPrimary, FontSize: 18},
			SubtitleStyle: &opts.TextStyle{Color: colorTextSecondary},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), TextStyle: &opts.TextStyle{Color: colorTextPrimary}}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(false)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.2)}},
		}),
	)

	line.SetXAxis(buildXAxis(input.Curve))
	line.AddSeries("Equity", buildSeries(input.Curve),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorEquity, Width: 2}))

	// 叠加线对齐主曲线的时间轴：缺口沿用各自最后已知值。
	symbols := make([]string, 0, len(input.PerSymbol))
	for sym := range input.PerSymbol {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for i, sym := range symbols {
		aligned := alignToAxis(input.Curve, input.PerSymbol[sym])
		line.AddSeries(sym, aligned,
			charts.WithLineStyleOpts(opts.LineStyle{
				Color: overlayColors[i%len(overlayColors)],
				Width: 1,
			}))
	}

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(line)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildXAxis(curve []backtest.EquityPoint) []string {
	axis := make([]string, 0, len(curve))
	for _, p := range curve {
		axis = append(axis, time.UnixMilli(p.Time).UTC().Format("2006-01-02 15:04"))
	}
	return axis
}

func buildSeries(curve []backtest.EquityPoint) []opts.LineData {
	data := make([]opts.LineData, 0, len(curve))
	for _, p := range curve {
		data = append(data, opts.LineData{
			Value: p.Equity,
			Name:  format.Float(p.Equity, 2),
		})
	}
	return data
}

func alignToAxis(axis []backtest.EquityPoint, curve []backtest.EquityPoint) []opts.LineData {
	data := make([]opts.LineData, 0, len(axis))
	cursor := 0
	carried := 0.0
	for _, p := range axis {
		for cursor < len(curve) && curve[cursor].Time <= p.Time {
			carried = curve[cursor].Equity
			cursor++
		}
		data = append(data, opts.LineData{Value: carried})
	}
	return data
}
