package history

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/adshao/go-binance/v2/futures"

	"marlin/internal/market"
)

// FetchRequest 描述一次远端 K 线请求，时间为 Unix 毫秒，End 为 0 表示不限制。
type FetchRequest struct {
	Symbol   string
	Interval string
	Start    int64
	End      int64
	Limit    int
}

// CandleSource 统一不同数据源的拉取行为。
type CandleSource interface {
	Fetch(ctx context.Context, req FetchRequest) ([]market.Candle, error)
	Name() string
}

const maxFetchLimit = 1500

// BinanceSource 基于 Binance USDT 合约 REST 接口。
type BinanceSource struct {
	client *futures.Client
}

func NewBinanceSource() *BinanceSource {
	return &BinanceSource{client: futures.NewClient("", "")}
}

func (b *BinanceSource) Name() string { return "binance" }

func (b *BinanceSource) Fetch(ctx context.Context, req FetchRequest) ([]market.Candle, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	interval := strings.ToLower(strings.TrimSpace(req.Interval))
	if symbol == "" || interval == "" {
		return nil, fmt.Errorf("symbol/interval 不能为空")
	}
	limit := req.Limit
	if limit <= 0 || limit > maxFetchLimit {
		limit = 1000
	}

	svc := b.client.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit)
	if req.Start > 0 {
		svc = svc.StartTime(req.Start)
	}
	if req.End > 0 {
		svc = svc.EndTime(req.End)
	}
	kls, err := svc.Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]market.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
			Trades:    kl.TradeNum,
		})
	}
	return out, nil
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
