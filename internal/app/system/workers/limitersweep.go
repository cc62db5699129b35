// internal/app/system/workers/limitersweep.go
package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper drops state that has been idle for longer than idle and reports
// how many entries it removed. The rate limiters implement it.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// LimiterSweep is a background worker that evicts idle rate-limit buckets so
// the per-user and per-IP maps do not grow without bound.
type LimiterSweep struct {
	targets  map[string]Sweeper
	log      *zap.Logger
	interval time.Duration
	idle     time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewLimiterSweep creates a sweep worker.
//
// Parameters:
//   - targets: named limiters to sweep (the name is only used in logs)
//   - logger: zap logger for logging
//   - interval: how often to sweep (e.g., 5 minutes)
//   - idle: how long a bucket must be unused before it is dropped
func NewLimiterSweep(targets map[string]Sweeper, logger *zap.Logger, interval, idle time.Duration) *LimiterSweep {
	return &LimiterSweep{
		targets:  targets,
		log:      logger,
		interval: interval,
		idle:     idle,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *LimiterSweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("limiter sweep worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("idle", w.idle))
}

// Stop signals the worker to stop and waits for it to finish. It is safe to
// call more than once.
func (w *LimiterSweep) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("limiter sweep worker stopped")
	})
}

func (w *LimiterSweep) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.SweepOnce()
		}
	}
}

// SweepOnce runs one pass over every target.
func (w *LimiterSweep) SweepOnce() int {
	total := 0
	for name, t := range w.targets {
		if t == nil {
			continue
		}
		n := t.Sweep(w.idle)
		if n > 0 {
			w.log.Debug("evicted idle rate-limit buckets", zap.String("limiter", name), zap.Int("count", n))
		}
		total += n
	}
	return total
}
