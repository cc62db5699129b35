// internal/app/bootstrap/workers.go
package bootstrap

import (
	"sync"
	"time"

	"github.com/dalemusser/kerjasama/internal/app/system/workers"
	"go.uber.org/zap"
)

const (
	sweepInterval = 5 * time.Minute
	sweepIdle     = 30 * time.Minute
)

var (
	workersMu sync.Mutex
	sweep     *workers.LimiterSweep
)

// startLimiterSweep replaces any running sweep worker with one over targets.
func startLimiterSweep(targets map[string]workers.Sweeper, logger *zap.Logger) {
	workersMu.Lock()
	defer workersMu.Unlock()
	if sweep != nil {
		sweep.Stop()
	}
	sweep = workers.NewLimiterSweep(targets, logger, sweepInterval, sweepIdle)
	sweep.Start()
}

func stopWorkers() {
	workersMu.Lock()
	defer workersMu.Unlock()
	if sweep != nil {
		sweep.Stop()
		sweep = nil
	}
}
