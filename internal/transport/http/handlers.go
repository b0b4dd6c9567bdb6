package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"marlin/internal/backtest"
	"marlin/internal/history"
	"marlin/internal/render"
	"marlin/internal/signal"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleMeta(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":    Version,
		"uptime_sec": int64(time.Since(s.startedAt).Seconds()),
		"timeframes": history.SupportedTimeframes(),
	})
}

func (s *Server) handleRun(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	trades, err := parseTrades(gjson.GetBytes(body, "trades"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res := backtest.Run(trades, parseOptions(body, s.defaults))
	id := s.cache.put(CachedRun{Kind: RunSingle, Single: &res})
	c.JSON(http.StatusOK, gin.H{"run_id": id, "result": res})
}

func (s *Server) handlePortfolio(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bySymbol := gjson.GetBytes(body, "trades_by_symbol")
	if !bySymbol.Exists() {
		bySymbol = gjson.GetBytes(body, "tradesBySymbol")
	}
	if !bySymbol.IsObject() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "trades_by_symbol 需为对象"})
		return
	}
	req := backtest.PortfolioRequest{TradesBySymbol: make(map[string][]backtest.Trade)}
	var parseErr error
	bySymbol.ForEach(func(key, value gjson.Result) bool {
		trades, err := parseTrades(value)
		if err != nil {
			parseErr = err
			return false
		}
		req.TradesBySymbol[key.String()] = trades
		return true
	})
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": parseErr.Error()})
		return
	}
	root := gjson.ParseBytes(body)
	req.StartingBalance = pick(root, "starting_balance", "startingBalance").Float()
	req.BaseCurrency = pick(root, "base_currency", "baseCurrency").String()

	res := backtest.RunPortfolio(req)
	id := s.cache.put(CachedRun{Kind: RunPortfolio, Portfolio: &res})
	c.JSON(http.StatusOK, gin.H{"run_id": id, "result": res})
}

func (s *Server) handleSignalRun(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "历史数据层未启用"})
		return
	}
	var req struct {
		Symbol     string `json:"symbol"`
		Timeframe  string `json:"timeframe"`
		Start      int64  `json:"start"`
		End        int64  `json:"end"`
		FastPeriod int    `json:"fast_period"`
		SlowPeriod int    `json:"slow_period"`
		AllowShort bool   `json:"allow_short"`
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Symbol == "" || req.Timeframe == "" || req.Start <= 0 || req.End <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol/timeframe/start/end 必填"})
		return
	}
	candles, err := s.store.Range(c.Request.Context(), req.Symbol, req.Timeframe, req.Start, req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg := signal.DefaultCrossoverConfig()
	cfg.Symbol = req.Symbol
	cfg.AllowShort = req.AllowShort
	if req.FastPeriod > 0 {
		cfg.FastPeriod = req.FastPeriod
	}
	if req.SlowPeriod > 0 {
		cfg.SlowPeriod = req.SlowPeriod
	}
	trades, err := signal.SMACrossover(candles, cfg)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res := backtest.Run(trades, parseOptions(body, s.defaults))
	id := s.cache.put(CachedRun{Kind: RunSingle, Single: &res})
	c.JSON(http.StatusOK, gin.H{
		"run_id":  id,
		"signals": len(trades),
		"result":  res,
	})
}

func (s *Server) handleRunList(c *gin.Context) {
	runs := s.cache.list()
	summaries := make([]gin.H, 0, len(runs))
	for _, run := range runs {
		item := gin.H{"id": run.ID, "kind": run.Kind, "created_at": run.CreatedAt}
		switch {
		case run.Single != nil:
			item["num_trades"] = run.Single.Stats.NumTrades
			item["total_return_pct"] = run.Single.Stats.TotalReturnPct
		case run.Portfolio != nil:
			item["num_trades"] = run.Portfolio.Stats.NumTrades
			item["total_return_pct"] = run.Portfolio.Stats.TotalReturnPct
		}
		summaries = append(summaries, item)
	}
	c.JSON(http.StatusOK, gin.H{"runs": summaries})
}

func (s *Server) handleRunDetail(c *gin.Context) {
	run, ok := s.cache.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run})
}

func (s *Server) handleChart(c *gin.Context) {
	run, ok := s.cache.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	input := render.EquityChartInput{Title: "Equity Curve"}
	switch {
	case run.Single != nil:
		input.Curve = run.Single.EquityCurve
	case run.Portfolio != nil:
		input.Curve = run.Portfolio.EquityCurve
		input.PerSymbol = make(map[string][]backtest.EquityPoint, len(run.Portfolio.ResultsBySymbol))
		for sym, r := range run.Portfolio.ResultsBySymbol {
			input.PerSymbol[sym] = r.EquityCurve
		}
	}
	html, err := render.EquityHTML(input)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (s *Server) handleSync(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "历史数据层未启用"})
		return
	}
	var req struct {
		Exchange  string `json:"exchange"`
		Symbol    string `json:"symbol" binding:"required"`
		Timeframe string `json:"timeframe" binding:"required"`
		Start     int64  `json:"start" binding:"required"`
		End       int64  `json:"end" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	job, err := s.history.SubmitSync(history.SyncParams{
		Exchange:  req.Exchange,
		Symbol:    req.Symbol,
		Timeframe: req.Timeframe,
		Start:     req.Start,
		End:       req.End,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job": job})
}

func (s *Server) handleJobs(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "历史数据层未启用"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": s.history.Jobs()})
}

func (s *Server) handleJobStatus(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "历史数据层未启用"})
		return
	}
	job, ok := s.history.Job(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}

func (s *Server) handleCoverage(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "历史数据层未启用"})
		return
	}
	symbol := c.Query("symbol")
	tf := c.Query("timeframe")
	if symbol == "" || tf == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol/timeframe 必填"})
		return
	}
	cov, err := s.store.Coverage(c.Request.Context(), symbol, tf)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"coverage": cov})
}

func (s *Server) handleCandles(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "历史数据层未启用"})
		return
	}
	symbol := c.Query("symbol")
	tf := c.Query("timeframe")
	if symbol == "" || tf == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol/timeframe 必填"})
		return
	}
	start, _ := strconv.ParseInt(c.Query("start"), 10, 64)
	end, _ := strconv.ParseInt(c.Query("end"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))

	var (
		candles interface{}
		err     error
	)
	if start > 0 && end > 0 {
		candles, err = s.store.Range(c.Request.Context(), symbol, tf, start, end)
	} else {
		candles, err = s.store.Latest(c.Request.Context(), symbol, tf, limit)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"candles": candles})
}
