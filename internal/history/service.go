package history

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"marlin/internal/logger"
)

// JobStatus 是同步任务的生命周期状态。
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// SyncParams 描述一次历史 K 线同步请求。
type SyncParams struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
	Start     int64  `json:"start"`
	End       int64  `json:"end"`
	Exchange  string `json:"exchange,omitempty"`
}

// SyncJob 是任务快照；对外只暴露副本，内部状态由 Service 持有。
type SyncJob struct {
	ID        string     `json:"id"`
	Status    JobStatus  `json:"status"`
	Params    SyncParams `json:"params"`
	Total     int64      `json:"total"`
	Completed int64      `json:"completed"`
	Message   string     `json:"message,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ServiceConfig 配置同步服务。
type ServiceConfig struct {
	Store           *Store
	Sources         map[string]CandleSource
	DefaultExchange string
	RateLimitPerMin int
	MaxBatch        int
	MaxConcurrent   int
}

// Service 管理同步任务：限速拉取远端 K 线并写入本地库。
type Service struct {
	store           *Store
	sources         map[string]CandleSource
	defaultExchange string
	maxBatch        int

	limiter *rate.Limiter
	sem     chan struct{}

	mu   sync.RWMutex
	jobs map[string]*SyncJob

	baseCtx context.Context
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store 不能为空")
	}
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("至少需要一个数据源")
	}
	perSec := rate.Limit(float64(cfg.RateLimitPerMin) / 60.0)
	if cfg.RateLimitPerMin <= 0 {
		perSec = 8
	}
	maxBatch := cfg.MaxBatch
	if maxBatch <= 0 {
		maxBatch = 1000
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	svc := &Service{
		store:           cfg.Store,
		sources:         make(map[string]CandleSource, len(cfg.Sources)),
		defaultExchange: strings.ToLower(cfg.DefaultExchange),
		maxBatch:        maxBatch,
		limiter:         rate.NewLimiter(perSec, 4),
		sem:             make(chan struct{}, maxConcurrent),
		jobs:            make(map[string]*SyncJob),
		baseCtx:         context.Background(),
	}
	for k, v := range cfg.Sources {
		svc.sources[strings.ToLower(k)] = v
	}
	if svc.defaultExchange == "" {
		for k := range svc.sources {
			svc.defaultExchange = k
			break
		}
	}
	return svc, nil
}

// SetContext 注入宿主 ctx，用于任务取消。
func (s *Service) SetContext(ctx context.Context) {
	if ctx != nil {
		s.baseCtx = ctx
	}
}

// SubmitSync 提交同步任务；区间已完整时直接标记完成，不发起远端请求。
func (s *Service) SubmitSync(params SyncParams) (SyncJob, error) {
	if params.Symbol == "" {
		return SyncJob{}, fmt.Errorf("symbol 不能为空")
	}
	tf, err := ParseTimeframe(params.Timeframe)
	if err != nil {
		return SyncJob{}, err
	}
	exchange := params.Exchange
	if exchange == "" {
		exchange = s.defaultExchange
	}
	src := s.sources[strings.ToLower(exchange)]
	if src == nil {
		return SyncJob{}, fmt.Errorf("未知数据源: %s", exchange)
	}
	start, end := tf.AlignRange(params.Start, params.End)
	if start <= 0 || start == end {
		return SyncJob{}, fmt.Errorf("start 与 end 需要构成合法区间")
	}
	params.Start = start
	params.End = end
	params.Timeframe = tf.Key

	existing, err := s.store.OpenTimes(s.baseCtx, params.Symbol, tf.Key, start, end)
	if err != nil {
		return SyncJob{}, err
	}
	total := tf.ExpectedCandles(start, end)
	now := time.Now()
	job := &SyncJob{
		ID:        uuid.NewString(),
		Status:    JobPending,
		Params:    params,
		Total:     total,
		Completed: int64(len(existing)),
		StartedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	logger.Infof("[history] 任务 %s 提交：%s %s [%d,%d] 预计=%d 已有=%d",
		job.ID, params.Symbol, tf.Key, start, end, total, len(existing))

	if int64(len(existing)) >= total {
		s.finishJob(job.ID, JobDone, "数据已完整，无需拉取")
		return s.snapshot(job.ID), nil
	}

	go s.runJob(job.ID, tf, src)
	return s.snapshot(job.ID), nil
}

// Job 返回任务快照。
func (s *Service) Job(id string) (SyncJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return SyncJob{}, false
	}
	return *job, true
}

// Jobs 返回全部任务快照，按提交时间倒序。
func (s *Service) Jobs() []SyncJob {
	s.mu.RLock()
	out := make([]SyncJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

func (s *Service) runJob(id string, tf Timeframe, src CandleSource) {
	select {
	case s.sem <- struct{}{}:
	case <-s.baseCtx.Done():
		s.finishJob(id, JobFailed, "服务已关闭")
		return
	}
	defer func() { <-s.sem }()

	job := s.snapshot(id)
	s.update(id, func(j *SyncJob) { j.Status = JobRunning })

	ctx := s.baseCtx
	step := tf.durationMillis()
	params := job.Params
	cursor := params.Start
	var synced int64

	for cursor <= params.End {
		if err := s.limiter.Wait(ctx); err != nil {
			s.finishJob(id, JobFailed, err.Error())
			return
		}
		batchEnd := cursor + int64(s.maxBatch-1)*step
		if batchEnd > params.End {
			batchEnd = params.End
		}
		candles, err := src.Fetch(ctx, FetchRequest{
			Symbol:   params.Symbol,
			Interval: tf.SourceInterval,
			Start:    cursor,
			End:      batchEnd,
			Limit:    s.maxBatch,
		})
		if err != nil {
			s.finishJob(id, JobFailed, err.Error())
			return
		}
		if len(candles) > 0 {
			if _, err := s.store.Upsert(ctx, params.Symbol, tf.Key, candles); err != nil {
				s.finishJob(id, JobFailed, err.Error())
				return
			}
			synced += int64(len(candles))
			s.update(id, func(j *SyncJob) {
				j.Completed = min64(j.Completed+int64(len(candles)), j.Total)
			})
		}
		// 数据源返回不足一批说明该段历史到头了，直接跳到下一批窗口。
		cursor = batchEnd + step
	}
	logger.Infof("[history] 任务 %s 完成：新增 %d 根", id, synced)
	s.finishJob(id, JobDone, "")
}

func (s *Service) snapshot(id string) SyncJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if job, ok := s.jobs[id]; ok {
		return *job
	}
	return SyncJob{}
}

func (s *Service) update(id string, fn func(*SyncJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
		job.UpdatedAt = time.Now()
	}
}

func (s *Service) finishJob(id string, status JobStatus, msg string) {
	s.update(id, func(j *SyncJob) {
		j.Status = status
		j.Message = msg
	})
	if status == JobFailed {
		logger.Warnf("[history] 任务 %s 失败：%s", id, msg)
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
