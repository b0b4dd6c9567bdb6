package backtest

// Run 是单标的回测的唯一公共入口：缺省配置 + 可选覆盖 → 模拟 → 统计。
// 纯函数：相同输入必然产生相同的 Result。
func Run(trades []Trade, opts Options) Result {
	return runConfigured(trades, opts.merged())
}

// RunWithConfig 允许测试/高级调用方传入完整配置，配置非法时报错。
func RunWithConfig(trades []Trade, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	return runConfigured(trades, cfg), nil
}

func runConfigured(trades []Trade, cfg Config) Result {
	sim := simulate(trades, cfg)
	return Result{
		Config:      cfg,
		Stats:       deriveStats(sim.curve, sim.trades, cfg.StartingBalance),
		EquityCurve: sim.curve,
		Trades:      sim.trades,
	}
}
