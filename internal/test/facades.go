package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/coursemart/internal/domain/model"
)

// CourseFacadeStub serves a fixed catalog to handlers.
type CourseFacadeStub struct {
	CoursesFn func(context.Context) ([]model.Course, error)
}

// Courses returns override result or a single course.
func (s CourseFacadeStub) Courses(ctx context.Context) ([]model.Course, error) {
	if s.CoursesFn != nil {
		return s.CoursesFn(ctx)
	}
	return []model.Course{{ID: 1, Title: "Go", Price: decimal.NewFromInt(1000)}}, nil
}

// EnrollmentFacadeStub provides controllable behaviour for enrollment endpoints.
type EnrollmentFacadeStub struct {
	CreateOrderFn  func(context.Context, int64, int64) (*model.CheckoutOrder, error)
	VerifyFn       func(context.Context, int64, model.PaymentVerification) (*model.PaymentResult, error)
	ReconcileFn    func(context.Context, int64, uuid.UUID) (*model.PaymentResult, error)
	CancelFn       func(context.Context, int64, uuid.UUID) error
	CleanupFn      func(context.Context) (*model.StaleCleanup, error)
	PartialOrderFn func(context.Context, int64, uuid.UUID, decimal.Decimal) (*model.CheckoutOrder, error)
	EnrollmentsFn  func(context.Context, int64) ([]model.EnrollmentOverview, error)
	PaymentsFn     func(context.Context, int64, uuid.UUID) ([]model.PaymentRecord, error)
}

// CreateOrder returns a checkout handle for the course.
func (s EnrollmentFacadeStub) CreateOrder(ctx context.Context, userID, courseID int64) (*model.CheckoutOrder, error) {
	if s.CreateOrderFn != nil {
		return s.CreateOrderFn(ctx, userID, courseID)
	}
	return &model.CheckoutOrder{OrderID: "order_1", Amount: decimal.NewFromInt(1000), Currency: "INR", EnrollmentID: uuid.New()}, nil
}

// VerifyPayment reports activation unless overridden.
func (s EnrollmentFacadeStub) VerifyPayment(ctx context.Context, userID int64, req model.PaymentVerification) (*model.PaymentResult, error) {
	if s.VerifyFn != nil {
		return s.VerifyFn(ctx, userID, req)
	}
	return &model.PaymentResult{
		Success:    true,
		Message:    "Payment verified. Enrollment is now active.",
		Enrollment: &model.Enrollment{ID: req.EnrollmentID, UserID: userID, Status: model.EnrollmentStatusActive},
	}, nil
}

// Reconcile reports an unpaid order unless overridden.
func (s EnrollmentFacadeStub) Reconcile(ctx context.Context, userID int64, id uuid.UUID) (*model.PaymentResult, error) {
	if s.ReconcileFn != nil {
		return s.ReconcileFn(ctx, userID, id)
	}
	return &model.PaymentResult{Success: false, Message: "Payment is not completed for this order."}, nil
}

// CancelEnrollment succeeds unless overridden.
func (s EnrollmentFacadeStub) CancelEnrollment(ctx context.Context, userID int64, id uuid.UUID) error {
	if s.CancelFn != nil {
		return s.CancelFn(ctx, userID, id)
	}
	return nil
}

// CleanupStale reports an empty pass unless overridden.
func (s EnrollmentFacadeStub) CleanupStale(ctx context.Context) (*model.StaleCleanup, error) {
	if s.CleanupFn != nil {
		return s.CleanupFn(ctx)
	}
	return &model.StaleCleanup{Cutoff: time.Unix(0, 0).UTC()}, nil
}

// CreatePartialPaymentOrder echoes the requested amount.
func (s EnrollmentFacadeStub) CreatePartialPaymentOrder(ctx context.Context, userID int64, id uuid.UUID, amount decimal.Decimal) (*model.CheckoutOrder, error) {
	if s.PartialOrderFn != nil {
		return s.PartialOrderFn(ctx, userID, id, amount)
	}
	return &model.CheckoutOrder{OrderID: "order_2", Amount: amount, Currency: "INR", EnrollmentID: id}, nil
}

// Enrollments returns nothing unless overridden.
func (s EnrollmentFacadeStub) Enrollments(ctx context.Context, userID int64) ([]model.EnrollmentOverview, error) {
	if s.EnrollmentsFn != nil {
		return s.EnrollmentsFn(ctx, userID)
	}
	return nil, nil
}

// Payments returns nothing unless overridden.
func (s EnrollmentFacadeStub) Payments(ctx context.Context, userID int64, id uuid.UUID) ([]model.PaymentRecord, error) {
	if s.PaymentsFn != nil {
		return s.PaymentsFn(ctx, userID, id)
	}
	return nil, nil
}

// HealthCheckerStub returns Err from HealthCheck.
type HealthCheckerStub struct {
	Err error
}

// HealthCheck reports configured error.
func (s HealthCheckerStub) HealthCheck(context.Context) error {
	return s.Err
}

// CourseMartStub aggregates facade dependencies for HTTP layer tests.
type CourseMartStub struct {
	AccountFacadeStub
	CourseFacadeStub
	EnrollmentFacadeStub
	HealthCheckerStub
}

// ReconcileFacadeStub mimics worker interactions with the application facade.
type ReconcileFacadeStub struct {
	Batches     [][]model.Enrollment
	ClaimFn     func(context.Context, int) ([]model.Enrollment, error)
	ReconcileFn func(context.Context, model.Enrollment) (*model.PaymentResult, error)
	Reconciled  []model.Enrollment
	mu          sync.Mutex
	claimCalls  int32
}

// Lock exposes internal mutex for external synchronization.
func (s *ReconcileFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *ReconcileFacadeStub) Unlock() { s.mu.Unlock() }

// ClaimCalls reports how many batches were requested.
func (s *ReconcileFacadeStub) ClaimCalls() int {
	return int(atomic.LoadInt32(&s.claimCalls))
}

// EnrollmentsForReconciliation returns batches from configured queue.
func (s *ReconcileFacadeStub) EnrollmentsForReconciliation(ctx context.Context, limit int) ([]model.Enrollment, error) {
	call := atomic.AddInt32(&s.claimCalls, 1)
	if s.ClaimFn != nil {
		return s.ClaimFn(ctx, limit)
	}
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	return nil, nil
}

// ReconcileEnrollment records the call and delegates to override.
func (s *ReconcileFacadeStub) ReconcileEnrollment(ctx context.Context, e model.Enrollment) (*model.PaymentResult, error) {
	s.mu.Lock()
	s.Reconciled = append(s.Reconciled, e)
	s.mu.Unlock()

	if s.ReconcileFn != nil {
		return s.ReconcileFn(ctx, e)
	}
	return &model.PaymentResult{Success: true, Message: "Payment verified. Enrollment is now active."}, nil
}

// CleanupFacadeStub counts janitor passes.
type CleanupFacadeStub struct {
	Err   error
	calls int32
}

// CleanupStale records the pass.
func (s *CleanupFacadeStub) CleanupStale(context.Context) (*model.StaleCleanup, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.Err != nil {
		return nil, s.Err
	}
	return &model.StaleCleanup{Deleted: 1, Cutoff: time.Now().Add(-24 * time.Hour)}, nil
}

// Calls reports number of passes.
func (s *CleanupFacadeStub) Calls() int {
	return int(atomic.LoadInt32(&s.calls))
}
