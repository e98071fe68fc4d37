package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/coursemart/internal/adapter/gateway"
	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/domain/model"
)

// ReconcileFacade exposes the subset of application functionality required by the reconciler.
type ReconcileFacade interface {
	EnrollmentsForReconciliation(ctx context.Context, limit int) ([]model.Enrollment, error)
	ReconcileEnrollment(ctx context.Context, enrollment model.Enrollment) (*model.PaymentResult, error)
}

// Reconciler periodically re-checks pending enrollments against the payment gateway.
type Reconciler struct {
	facade       ReconcileFacade
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan model.Enrollment
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex

	pauseMu     sync.Mutex
	pausedUntil time.Time
}

// NewReconciler constructs reconciliation worker pool.
func NewReconciler(facade ReconcileFacade, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *Reconciler {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Reconciler{
		facade:       facade,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan model.Enrollment, batchSize*workers),
	}
}

// Start launches background processing.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.cancel = cancel

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(runCtx)
	}

	r.wg.Add(1)
	go r.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Reconciler) dispatch(ctx context.Context) {
	defer r.wg.Done()
	defer close(r.jobs)
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if wait := r.pauseLeft(); wait > 0 {
				r.logger.Debug("reconciliation paused", slog.Duration("remaining", wait))
				continue
			}
			r.fetchAndDispatch(ctx)
		}
	}
}

func (r *Reconciler) fetchAndDispatch(ctx context.Context) {
	enrollments, err := r.facade.EnrollmentsForReconciliation(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("fetch enrollments for reconciliation failed", slog.String("error", err.Error()))
		return
	}
	for _, e := range enrollments {
		select {
		case <-ctx.Done():
			return
		case r.jobs <- e:
		}
	}
}

func (r *Reconciler) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-r.jobs:
			if !ok {
				return
			}
			if wait := r.pauseLeft(); wait > 0 {
				// Rate limited: the row stays claimed and is picked up after the stale period.
				continue
			}
			r.handle(ctx, e)
		}
	}
}

func (r *Reconciler) handle(ctx context.Context, e model.Enrollment) {
	log := r.logger.With(
		slog.String("enrollment_id", e.ID.String()),
		slog.String("order_id", e.OrderID()),
	)

	result, err := r.facade.ReconcileEnrollment(ctx, e)
	if err != nil {
		var limited gateway.TooManyRequestsError
		switch {
		case errors.As(err, &limited):
			log.Warn("gateway rate limited", slog.Duration("retry_after", limited.RetryAfter))
			r.pause(limited.RetryAfter)
		case errors.Is(err, domainErrors.ErrNotFound), errors.Is(err, domainErrors.ErrInvalidState):
			log.Debug("enrollment changed before reconciliation", slog.String("error", err.Error()))
		case errors.Is(err, context.Canceled):
		default:
			log.Error("reconciliation failed", slog.String("error", err.Error()))
		}
		return
	}

	if result.Success {
		log.Info("enrollment reconciled", slog.String("message", result.Message))
		return
	}
	log.Debug("enrollment still unpaid", slog.String("message", result.Message))
}

func (r *Reconciler) pause(d time.Duration) {
	if d <= 0 {
		d = r.pollInterval
	}
	r.pauseMu.Lock()
	defer r.pauseMu.Unlock()
	if until := time.Now().Add(d); until.After(r.pausedUntil) {
		r.pausedUntil = until
	}
}

func (r *Reconciler) pauseLeft() time.Duration {
	r.pauseMu.Lock()
	defer r.pauseMu.Unlock()
	return time.Until(r.pausedUntil)
}
