package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/polkiloo/coursemart/internal/domain/model"
)

// CleanupFacade purges abandoned checkouts.
type CleanupFacade interface {
	CleanupStale(ctx context.Context) (*model.StaleCleanup, error)
}

// Janitor runs stale enrollment cleanup on a cron schedule.
type Janitor struct {
	facade   CleanupFacade
	schedule string
	logger   *slog.Logger
	cron     *cron.Cron

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewJanitor validates schedule and registers the cleanup job.
func NewJanitor(facade CleanupFacade, schedule string, logger *slog.Logger) (*Janitor, error) {
	j := &Janitor{
		facade:   facade,
		schedule: schedule,
		logger:   logger,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		ctx:      context.Background(),
	}
	if _, err := j.cron.AddFunc(schedule, j.tick); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Start begins scheduling.
func (j *Janitor) Start(ctx context.Context) {
	j.mu.Lock()
	j.ctx, j.cancel = context.WithCancel(context.WithoutCancel(ctx))
	j.mu.Unlock()

	j.cron.Start()
	j.logger.Info("stale enrollment janitor started", slog.String("schedule", j.schedule))
}

// Stop halts scheduling and waits for a running cleanup.
func (j *Janitor) Stop() {
	j.mu.Lock()
	if j.cancel != nil {
		j.cancel()
		j.cancel = nil
	}
	j.mu.Unlock()

	<-j.cron.Stop().Done()
}

// RunOnce performs a single cleanup pass.
func (j *Janitor) RunOnce(ctx context.Context) (*model.StaleCleanup, error) {
	result, err := j.facade.CleanupStale(ctx)
	if err != nil {
		j.logger.Error("stale enrollment cleanup failed", slog.String("error", err.Error()))
		return nil, err
	}
	return result, nil
}

func (j *Janitor) tick() {
	j.mu.Lock()
	ctx := j.ctx
	j.mu.Unlock()

	_, _ = j.RunOnce(ctx)
}
