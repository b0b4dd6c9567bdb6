package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"marlin/internal/backtest"
	"marlin/internal/config"
	"marlin/internal/history"
	"marlin/internal/logger"
	transport "marlin/internal/transport/http"
)

// App 负责应用级编排：加载配置→初始化依赖→启动 HTTP 服务。
type App struct {
	cfg     *config.Config
	store   *history.Store
	history *history.Service
	server  *transport.Server
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	store, err := history.NewStore(cfg.History.DataRoot)
	if err != nil {
		return nil, fmt.Errorf("初始化 K 线库失败: %w", err)
	}
	svc, err := history.NewService(history.ServiceConfig{
		Store: store,
		Sources: map[string]history.CandleSource{
			"binance": history.NewBinanceSource(),
		},
		DefaultExchange: cfg.History.Exchange,
		RateLimitPerMin: cfg.History.RateLimitPerMin,
		MaxBatch:        cfg.History.MaxBatch,
		MaxConcurrent:   cfg.History.MaxConcurrent,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("初始化同步服务失败: %w", err)
	}

	bt := cfg.Backtest
	server := transport.NewServer(transport.ServerConfig{
		Addr:         cfg.Server.HTTPAddr,
		RunCacheSize: cfg.Server.RunCacheSize,
		Defaults: backtest.Options{
			StartingBalance: &bt.StartingBalance,
			BaseCurrency:    bt.BaseCurrency,
			FeeRate:         &bt.FeeRate,
			SlippageBps:     &bt.SlippageBps,
			SpreadBps:       &bt.SpreadBps,
		},
		History: svc,
		Store:   store,
	})

	return &App{cfg: cfg, store: store, history: svc, server: server}, nil
}

// Run 启动 HTTP 服务并阻塞到信号或错误。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	a.history.SetContext(ctx)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	err := group.Wait()
	if closeErr := a.store.Close(); err == nil {
		err = closeErr
	}
	logger.Infof("[app] 已退出")
	return err
}
