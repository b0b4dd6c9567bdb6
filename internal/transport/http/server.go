package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"marlin/internal/backtest"
	"marlin/internal/history"
	"marlin/internal/logger"
)

// Version 由构建注入，用于 /meta。
var Version = "dev"

// ServerConfig 配置 HTTP 服务。
type ServerConfig struct {
	Addr         string
	RunCacheSize int
	Defaults     backtest.Options
	History      *history.Service
	Store        *history.Store
}

// Server 提供 Gin 接口：回测触发、历史数据同步与结果检索。
type Server struct {
	addr      string
	engine    *gin.Engine
	cache     *runCache
	defaults  backtest.Options
	history   *history.Service
	store     *history.Store
	startedAt time.Time
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":9980"
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		addr:      cfg.Addr,
		engine:    engine,
		cache:     newRunCache(cfg.RunCacheSize),
		defaults:  cfg.Defaults,
		history:   cfg.History,
		store:     cfg.Store,
		startedAt: time.Now(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/meta", s.handleMeta)

	api := s.engine.Group("/api/backtest")
	api.POST("/run", s.handleRun)
	api.POST("/portfolio", s.handlePortfolio)
	api.POST("/signal", s.handleSignalRun)
	api.GET("/runs", s.handleRunList)
	api.GET("/runs/:id", s.handleRunDetail)
	api.GET("/chart/:id", s.handleChart)

	hist := s.engine.Group("/api/history")
	hist.POST("/sync", s.handleSync)
	hist.GET("/jobs", s.handleJobs)
	hist.GET("/jobs/:id", s.handleJobStatus)
	hist.GET("/coverage", s.handleCoverage)

	s.engine.GET("/api/candles", s.handleCandles)
}

// Handler 暴露底层路由，供测试直接驱动。
func (s *Server) Handler() http.Handler { return s.engine }

// Start 启动监听并阻塞到 ctx 取消，随后优雅关停。
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.engine}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Infof("[http] 监听 %s", s.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
