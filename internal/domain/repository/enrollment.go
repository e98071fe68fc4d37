package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/coursemart/internal/domain/model"
)

// EnrollmentRepository describes persistence operations with enrollments.
type EnrollmentRepository interface {
	// FindByUserAndCourse returns the PENDING or ACTIVE enrollment of the pair.
	FindByUserAndCourse(ctx context.Context, userID, courseID int64) (*model.Enrollment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Enrollment, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Enrollment, error)
	// InsertPending fails with ErrAlreadyExists when the pair already holds a PENDING or ACTIVE row.
	InsertPending(ctx context.Context, userID, courseID int64, orderID string) (*model.Enrollment, error)
	// ApplyPaymentTransition records the credit and stores the transition only if the row is
	// still PENDING with amount_paid equal to expectedPaid. Returns ErrDuplicatePayment for an
	// already recorded payment id and ErrConcurrentUpdate when the precondition no longer holds.
	// The gateway order id is left untouched.
	ApplyPaymentTransition(ctx context.Context, expectedPaid decimal.Decimal, credit model.PaymentCredit, t model.Transition) error
	// ReassignOrder points a PENDING enrollment at a new gateway order.
	ReassignOrder(ctx context.Context, id uuid.UUID, orderID string) error
	// DeleteIfPending removes the row only while it is PENDING with nothing paid.
	DeleteIfPending(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteStaleOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	// ClaimForReconciliation marks and returns PENDING enrollments with a gateway order
	// untouched since staleBefore.
	ClaimForReconciliation(ctx context.Context, staleBefore time.Time, limit int) ([]model.Enrollment, error)
	Payments(ctx context.Context, id uuid.UUID) ([]model.PaymentRecord, error)
}
