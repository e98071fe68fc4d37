package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/coursemart/internal/domain/model"
	"github.com/polkiloo/coursemart/internal/usecase"
)

// HealthChecker reports whether backing storage is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CourseMart is the single entry point used by transport and background workers.
type CourseMart struct {
	auth        *usecase.AuthUseCase
	catalog     *usecase.CatalogUseCase
	enrollments *usecase.EnrollmentUseCase
	health      HealthChecker
}

func NewCourseMart(auth *usecase.AuthUseCase, catalog *usecase.CatalogUseCase, enrollments *usecase.EnrollmentUseCase, health HealthChecker) *CourseMart {
	return &CourseMart{auth: auth, catalog: catalog, enrollments: enrollments, health: health}
}

func (f *CourseMart) Register(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Register(ctx, login, password)
	return token, err
}

func (f *CourseMart) Authenticate(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, login, password)
	return token, err
}

func (f *CourseMart) ParseToken(token string) (int64, error) {
	return f.auth.ParseToken(token)
}

func (f *CourseMart) Courses(ctx context.Context) ([]model.Course, error) {
	return f.catalog.List(ctx)
}

func (f *CourseMart) CreateOrder(ctx context.Context, userID, courseID int64) (*model.CheckoutOrder, error) {
	return f.enrollments.CreateOrder(ctx, userID, courseID)
}

func (f *CourseMart) VerifyPayment(ctx context.Context, userID int64, req model.PaymentVerification) (*model.PaymentResult, error) {
	return f.enrollments.VerifyPayment(ctx, userID, req)
}

func (f *CourseMart) Reconcile(ctx context.Context, userID int64, enrollmentID uuid.UUID) (*model.PaymentResult, error) {
	return f.enrollments.Reconcile(ctx, userID, enrollmentID)
}

func (f *CourseMart) CancelEnrollment(ctx context.Context, userID int64, enrollmentID uuid.UUID) error {
	return f.enrollments.Cancel(ctx, userID, enrollmentID)
}

func (f *CourseMart) CleanupStale(ctx context.Context) (*model.StaleCleanup, error) {
	return f.enrollments.CleanupStale(ctx)
}

func (f *CourseMart) CreatePartialPaymentOrder(ctx context.Context, userID int64, enrollmentID uuid.UUID, amount decimal.Decimal) (*model.CheckoutOrder, error) {
	return f.enrollments.CreatePartialPaymentOrder(ctx, userID, enrollmentID, amount)
}

func (f *CourseMart) Enrollments(ctx context.Context, userID int64) ([]model.EnrollmentOverview, error) {
	return f.enrollments.ListByUser(ctx, userID)
}

func (f *CourseMart) Payments(ctx context.Context, userID int64, enrollmentID uuid.UUID) ([]model.PaymentRecord, error) {
	return f.enrollments.Payments(ctx, userID, enrollmentID)
}

func (f *CourseMart) EnrollmentsForReconciliation(ctx context.Context, limit int) ([]model.Enrollment, error) {
	return f.enrollments.ClaimStale(ctx, limit)
}

func (f *CourseMart) ReconcileEnrollment(ctx context.Context, enrollment model.Enrollment) (*model.PaymentResult, error) {
	return f.enrollments.ReconcileSystem(ctx, enrollment)
}

func (f *CourseMart) HealthCheck(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}
