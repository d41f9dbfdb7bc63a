package workers

import (
	"context"
	"time"

	"tradeboard_backend/internal/logger"
	"tradeboard_backend/internal/services"
)

// SweepWorker runs the job lifecycle sweeps on a ticker for deployments
// without an external scheduler. The /maintenance endpoints stay the
// primary trigger; both paths are idempotent so overlap is harmless.
type SweepWorker struct {
	jobs     services.JobService
	interval time.Duration
}

func NewSweepWorker(jobs services.JobService, interval time.Duration) *SweepWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SweepWorker{jobs: jobs, interval: interval}
}

func (w *SweepWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *SweepWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("sweep worker stopped")
			return
		case <-ticker.C:
			now := time.Now()
			_, err := w.jobs.ExpireSweep(now)
			logger.WorkerLog("sweep", "expire_jobs", err)

			_, err = w.jobs.WarningSweep(now)
			logger.WorkerLog("sweep", "warn_expiring", err)

			_, err = w.jobs.FeatureSweep(now)
			logger.WorkerLog("sweep", "expire_features", err)
		}
	}
}
