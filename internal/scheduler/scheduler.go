package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/property-service/internal/persistence"
)

// SweepFunc is one background sweep invocation.
type SweepFunc func(ctx context.Context) error

type job struct {
	name     string
	interval time.Duration
	run      SweepFunc
}

// Scheduler drives registered sweeps on fixed tickers. A best-effort
// redis lock keeps replicas from running the same sweep concurrently;
// without redis each instance sweeps on its own, which is safe because
// every sweep re-checks state before mutating.
type Scheduler struct {
	redis  *persistence.Redis
	logger *zap.Logger

	mu      sync.Mutex
	jobs    []job
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// New creates a scheduler. redis may be nil.
func New(redis *persistence.Redis, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{redis: redis, logger: logger}
}

// Register adds a named sweep. Must be called before Start.
func (s *Scheduler) Register(name string, interval time.Duration, run SweepFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || interval <= 0 || run == nil {
		return
	}
	s.jobs = append(s.jobs, job{name: name, interval: interval, run: run})
}

// Start launches one ticker goroutine per registered sweep.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, j)
	}
	s.logger.Info("scheduler started", zap.Int("sweeps", len(s.jobs)))
}

// Stop cancels all sweeps and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, j job) {
	defer s.wg.Done()
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, j)
		}
	}
}

// runOnce executes a single sweep under the distributed lock. Panics are
// contained so a bad sweep cannot take the scheduler down.
func (s *Scheduler) runOnce(ctx context.Context, j job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sweep panicked", zap.String("sweep", j.name), zap.Any("panic", r))
		}
	}()

	if !s.redis.AcquireLock(ctx, "sweep:"+j.name, j.interval) {
		s.logger.Debug("sweep skipped, lock held elsewhere", zap.String("sweep", j.name))
		return
	}

	start := time.Now()
	if err := j.run(ctx); err != nil {
		s.logger.Warn("sweep failed", zap.String("sweep", j.name), zap.Error(err))
		return
	}
	s.logger.Debug("sweep completed",
		zap.String("sweep", j.name),
		zap.Duration("took", time.Since(start)))
}
