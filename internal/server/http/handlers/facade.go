package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/coursemart/internal/domain/model"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, login, password string) (string, error)
	Authenticate(ctx context.Context, login, password string) (string, error)
	ParseToken(token string) (int64, error)
}

// CourseFacade exposes the course catalog.
type CourseFacade interface {
	Courses(ctx context.Context) ([]model.Course, error)
}

// EnrollmentFacade encapsulates enrollment payment operations exposed via HTTP.
type EnrollmentFacade interface {
	CreateOrder(ctx context.Context, userID, courseID int64) (*model.CheckoutOrder, error)
	VerifyPayment(ctx context.Context, userID int64, req model.PaymentVerification) (*model.PaymentResult, error)
	Reconcile(ctx context.Context, userID int64, enrollmentID uuid.UUID) (*model.PaymentResult, error)
	CancelEnrollment(ctx context.Context, userID int64, enrollmentID uuid.UUID) error
	CleanupStale(ctx context.Context) (*model.StaleCleanup, error)
	CreatePartialPaymentOrder(ctx context.Context, userID int64, enrollmentID uuid.UUID, amount decimal.Decimal) (*model.CheckoutOrder, error)
	Enrollments(ctx context.Context, userID int64) ([]model.EnrollmentOverview, error)
	Payments(ctx context.Context, userID int64, enrollmentID uuid.UUID) ([]model.PaymentRecord, error)
}

// HealthChecker reports storage availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CourseMart aggregates the full set of operations used across handlers.
type CourseMart interface {
	AuthFacade
	CourseFacade
	EnrollmentFacade
	HealthChecker
}
