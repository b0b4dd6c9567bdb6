package http

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"marlin/internal/backtest"
)

// RunKind 区分缓存里的结果类型。
type RunKind string

const (
	RunSingle    RunKind = "single"
	RunPortfolio RunKind = "portfolio"
)

// CachedRun 是一次回测的可检索快照。
type CachedRun struct {
	ID        string                    `json:"id"`
	Kind      RunKind                   `json:"kind"`
	CreatedAt time.Time                 `json:"created_at"`
	Single    *backtest.Result          `json:"single,omitempty"`
	Portfolio *backtest.PortfolioResult `json:"portfolio,omitempty"`
}

// runCache 是容量固定的内存缓存，塞满后按插入顺序淘汰最老的结果。
type runCache struct {
	mu    sync.Mutex
	cap   int
	order []string
	runs  map[string]CachedRun
}

func newRunCache(capacity int) *runCache {
	if capacity <= 0 {
		capacity = 128
	}
	return &runCache{
		cap:  capacity,
		runs: make(map[string]CachedRun, capacity),
	}
}

func (c *runCache) put(run CachedRun) string {
	run.ID = uuid.NewString()
	run.CreatedAt = time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.order) >= c.cap {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.runs, oldest)
	}
	c.order = append(c.order, run.ID)
	c.runs[run.ID] = run
	return run.ID
}

func (c *runCache) get(id string) (CachedRun, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	run, ok := c.runs[id]
	return run, ok
}

func (c *runCache) list() []CachedRun {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CachedRun, 0, len(c.order))
	// 新的在前。
	for i := len(c.order) - 1; i >= 0; i-- {
		out = append(out, c.runs[c.order[i]])
	}
	return out
}
