package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/coursemart/internal/adapter/gateway"
	"github.com/polkiloo/coursemart/internal/config"
	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/domain/model"
	"github.com/polkiloo/coursemart/internal/domain/repository"
)

const maxTransitionAttempts = 3

const (
	msgActivated        = "Payment verified. Enrollment is now active."
	msgAlreadyActive    = "Enrollment is already active."
	msgAlreadyApplied   = "Payment has already been applied."
	msgNotPaid          = "Payment is not completed for this order. Please contact support if you were charged."
	msgNoPayment        = "No successful payment found for this order. Please contact support if you were charged."
	msgGatewayUnchecked = "Could not verify the payment with the gateway. Please contact support."
)

// EnrollmentUseCase drives the enrollment payment state machine.
type EnrollmentUseCase struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	gateway     gateway.Client
	currency    string
	pendingTTL  time.Duration
	staleAfter  time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewEnrollmentUseCase constructs EnrollmentUseCase.
func NewEnrollmentUseCase(
	courses repository.CourseRepository,
	enrollments repository.EnrollmentRepository,
	gw gateway.Client,
	cfg *config.Config,
	logger *slog.Logger,
) *EnrollmentUseCase {
	return &EnrollmentUseCase{
		courses:     courses,
		enrollments: enrollments,
		gateway:     gw,
		currency:    cfg.Currency,
		pendingTTL:  cfg.PendingTTL,
		staleAfter:  cfg.ReconcileStaleAfter,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateOrder opens a gateway order for the course price and records a PENDING enrollment.
func (u *EnrollmentUseCase) CreateOrder(ctx context.Context, userID, courseID int64) (*model.CheckoutOrder, error) {
	course, err := u.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if _, err := u.enrollments.FindByUserAndCourse(ctx, userID, courseID); err == nil {
		return nil, domainErrors.ErrAlreadyExists
	} else if !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, err
	}

	order, err := u.gateway.CreateOrder(ctx, model.GatewayOrderRequest{
		Amount:   course.Price,
		Currency: u.currency,
		Receipt:  fmt.Sprintf("c%d-u%d-%d", courseID, userID, u.now().Unix()),
		Notes: map[string]string{
			"courseId": strconv.FormatInt(courseID, 10),
			"userId":   strconv.FormatInt(userID, 10),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}

	enrollment, err := u.enrollments.InsertPending(ctx, userID, courseID, order.ID)
	if err != nil {
		u.logger.Warn("gateway order left without enrollment",
			slog.String("order_id", order.ID),
			slog.Int64("user_id", userID),
			slog.Int64("course_id", courseID),
			slog.Any("error", err),
		)
		return nil, err
	}

	return &model.CheckoutOrder{
		OrderID:      order.ID,
		Amount:       course.Price,
		Currency:     u.currency,
		EnrollmentID: enrollment.ID,
	}, nil
}

// VerifyPayment checks the signed checkout payload and credits the captured amount.
func (u *EnrollmentUseCase) VerifyPayment(ctx context.Context, userID int64, req model.PaymentVerification) (*model.PaymentResult, error) {
	if err := u.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature); err != nil {
		u.logger.Warn("rejected payment signature",
			slog.String("enrollment_id", req.EnrollmentID.String()),
			slog.String("order_id", req.OrderID),
			slog.String("payment_id", req.PaymentID),
		)
		return nil, err
	}

	enrollment, err := u.ownedEnrollment(ctx, userID, req.EnrollmentID)
	if err != nil {
		return nil, err
	}

	if enrollment.Status == model.EnrollmentStatusActive {
		return u.unchanged(ctx, enrollment, msgAlreadyActive)
	}
	if enrollment.Status != model.EnrollmentStatusPending {
		return nil, domainErrors.ErrInvalidState
	}
	if enrollment.OrderID() == "" {
		return nil, domainErrors.ErrMissingOrder
	}
	if enrollment.OrderID() != req.OrderID {
		return nil, domainErrors.ErrOrderMismatch
	}
	if enrollment.PaymentID() == req.PaymentID {
		return u.unchanged(ctx, enrollment, msgAlreadyApplied)
	}

	course, err := u.courses.GetByID(ctx, enrollment.CourseID)
	if err != nil {
		return nil, err
	}

	captured := course.Price
	order, err := u.gateway.FetchOrder(ctx, req.OrderID)
	if err != nil {
		u.logger.Warn("captured amount unavailable, crediting full course price",
			slog.String("enrollment_id", enrollment.ID.String()),
			slog.String("order_id", req.OrderID),
			slog.String("payment_id", req.PaymentID),
			slog.String("credited", captured.String()),
			slog.Any("error", err),
		)
	} else {
		captured = capturedAmount(order)
	}

	return u.applyPayment(ctx, enrollment, course, model.PaymentCredit{
		EnrollmentID: enrollment.ID,
		OrderID:      req.OrderID,
		PaymentID:    req.PaymentID,
		Amount:       captured,
		Source:       model.PaymentSourceVerification,
	})
}

// Reconcile re-checks the gateway for an enrollment owned by userID.
// Gateway failures produce an unsuccessful result, never an error.
func (u *EnrollmentUseCase) Reconcile(ctx context.Context, userID int64, enrollmentID uuid.UUID) (*model.PaymentResult, error) {
	enrollment, err := u.ownedEnrollment(ctx, userID, enrollmentID)
	if err != nil {
		return nil, err
	}

	result, err := u.reconcile(ctx, enrollment)
	if err != nil && isUpstream(err) {
		u.logger.Error("reconciliation could not reach gateway",
			slog.String("enrollment_id", enrollment.ID.String()),
			slog.String("order_id", enrollment.OrderID()),
			slog.Any("error", err),
		)
		return &model.PaymentResult{Success: false, Message: msgGatewayUnchecked, Enrollment: enrollment}, nil
	}
	return result, err
}

// ReconcileSystem reconciles an enrollment on behalf of the service itself.
// Gateway errors are returned so callers can back off.
func (u *EnrollmentUseCase) ReconcileSystem(ctx context.Context, enrollment model.Enrollment) (*model.PaymentResult, error) {
	return u.reconcile(ctx, &enrollment)
}

func (u *EnrollmentUseCase) reconcile(ctx context.Context, enrollment *model.Enrollment) (*model.PaymentResult, error) {
	if enrollment.Status == model.EnrollmentStatusActive {
		return &model.PaymentResult{Success: true, Message: msgAlreadyActive, Enrollment: enrollment}, nil
	}
	if enrollment.Status != model.EnrollmentStatusPending {
		return nil, domainErrors.ErrInvalidState
	}
	orderID := enrollment.OrderID()
	if orderID == "" {
		return nil, domainErrors.ErrMissingOrder
	}

	course, err := u.courses.GetByID(ctx, enrollment.CourseID)
	if err != nil {
		return nil, err
	}

	order, err := u.gateway.FetchOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("fetch gateway order: %w", err)
	}
	if !order.Paid() {
		return u.notSettled(enrollment, course, msgNotPaid, slog.String("order_status", string(order.Status))), nil
	}

	payments, err := u.gateway.FetchPayments(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("fetch gateway payments: %w", err)
	}

	var settled *model.GatewayPayment
	for i := range payments {
		if payments[i].Successful() {
			settled = &payments[i]
			break
		}
	}
	if settled == nil {
		return u.notSettled(enrollment, course, msgNoPayment, slog.Int("payments", len(payments))), nil
	}
	if settled.ID == enrollment.PaymentID() {
		return u.unchanged(ctx, enrollment, msgAlreadyApplied)
	}

	return u.applyPayment(ctx, enrollment, course, model.PaymentCredit{
		EnrollmentID: enrollment.ID,
		OrderID:      orderID,
		PaymentID:    settled.ID,
		Amount:       settled.Amount,
		Source:       model.PaymentSourceReconciliation,
	})
}

// applyPayment is the single place that moves amount_paid and status.
func (u *EnrollmentUseCase) applyPayment(ctx context.Context, enrollment *model.Enrollment, course *model.Course, credit model.PaymentCredit) (*model.PaymentResult, error) {
	current := *enrollment
	for attempt := 1; attempt <= maxTransitionAttempts; attempt++ {
		transition := current.Credit(credit.Amount, course.Price)
		if transition.Excess.IsPositive() {
			u.logger.Warn("payment exceeds course price, excess not credited",
				slog.String("enrollment_id", current.ID.String()),
				slog.String("payment_id", credit.PaymentID),
				slog.String("excess", transition.Excess.String()),
			)
		}

		err := u.enrollments.ApplyPaymentTransition(ctx, current.AmountPaid, credit, transition)
		switch {
		case err == nil:
			paymentID := credit.PaymentID
			current.AmountPaid = transition.AmountPaid
			current.Status = transition.Status
			current.GatewayPaymentID = &paymentID

			u.logger.Info("payment applied",
				slog.String("enrollment_id", current.ID.String()),
				slog.String("order_id", credit.OrderID),
				slog.String("payment_id", credit.PaymentID),
				slog.String("source", string(credit.Source)),
				slog.String("credited", transition.Credited.String()),
				slog.String("amount_paid", transition.AmountPaid.String()),
				slog.String("status", string(transition.Status)),
			)
			return &model.PaymentResult{
				Success:    true,
				Message:    u.transitionMessage(credit.Amount, transition),
				Enrollment: &current,
				Remaining:  transition.Remaining,
			}, nil
		case errors.Is(err, domainErrors.ErrDuplicatePayment):
			return u.unchanged(ctx, &current, msgAlreadyApplied)
		case errors.Is(err, domainErrors.ErrConcurrentUpdate):
			fresh, err := u.enrollments.GetByID(ctx, current.ID)
			if err != nil {
				return nil, err
			}
			if fresh.Status == model.EnrollmentStatusActive {
				return &model.PaymentResult{Success: true, Message: msgAlreadyActive, Enrollment: fresh}, nil
			}
			if fresh.Status != model.EnrollmentStatusPending {
				return nil, domainErrors.ErrInvalidState
			}
			u.logger.Debug("retrying payment transition",
				slog.String("enrollment_id", current.ID.String()),
				slog.Int("attempt", attempt),
			)
			current = *fresh
		default:
			return nil, fmt.Errorf("apply payment: %w", err)
		}
	}
	return nil, domainErrors.ErrConcurrentUpdate
}

func (u *EnrollmentUseCase) transitionMessage(amount decimal.Decimal, t model.Transition) string {
	if t.FullyPaid() {
		return msgActivated
	}
	return fmt.Sprintf("Partial payment of %s received. Remaining: %s",
		model.FormatMoney(u.currency, amount),
		model.FormatMoney(u.currency, t.Remaining),
	)
}

func (u *EnrollmentUseCase) unchanged(ctx context.Context, enrollment *model.Enrollment, message string) (*model.PaymentResult, error) {
	fresh, err := u.enrollments.GetByID(ctx, enrollment.ID)
	if err != nil {
		return nil, err
	}
	result := &model.PaymentResult{Success: true, Message: message, Enrollment: fresh}
	if course, err := u.courses.GetByID(ctx, fresh.CourseID); err == nil {
		result.Remaining = fresh.Remaining(course.Price)
	}
	return result, nil
}

func (u *EnrollmentUseCase) notSettled(enrollment *model.Enrollment, course *model.Course, message string, attr slog.Attr) *model.PaymentResult {
	u.logger.Info("reconciliation found no settled payment",
		slog.String("enrollment_id", enrollment.ID.String()),
		slog.String("order_id", enrollment.OrderID()),
		attr,
	)
	return &model.PaymentResult{
		Success:    false,
		Message:    message,
		Enrollment: enrollment,
		Remaining:  enrollment.Remaining(course.Price),
	}
}

// Cancel deletes a PENDING enrollment owned by userID that has no payment credited yet.
func (u *EnrollmentUseCase) Cancel(ctx context.Context, userID int64, enrollmentID uuid.UUID) error {
	enrollment, err := u.ownedEnrollment(ctx, userID, enrollmentID)
	if err != nil {
		return err
	}
	if enrollment.Status != model.EnrollmentStatusPending {
		return domainErrors.ErrInvalidState
	}
	if enrollment.AmountPaid.IsPositive() {
		return fmt.Errorf("%w: enrollment has %s paid", domainErrors.ErrInvalidState, enrollment.AmountPaid.StringFixed(2))
	}

	deleted, err := u.enrollments.DeleteIfPending(ctx, enrollmentID)
	if err != nil {
		return err
	}
	if deleted {
		u.logger.Info("enrollment cancelled", slog.String("enrollment_id", enrollmentID.String()))
		return nil
	}

	// Row changed between read and delete: gone is fine, paid or activated is not.
	if _, err := u.enrollments.GetByID(ctx, enrollmentID); errors.Is(err, domainErrors.ErrNotFound) {
		return nil
	}
	return domainErrors.ErrInvalidState
}

// CleanupStale purges PENDING enrollments older than the configured TTL.
func (u *EnrollmentUseCase) CleanupStale(ctx context.Context) (*model.StaleCleanup, error) {
	cutoff := u.now().Add(-u.pendingTTL)
	deleted, err := u.enrollments.DeleteStaleOlderThan(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("delete stale enrollments: %w", err)
	}
	u.logger.Info("stale enrollments purged", slog.Int64("deleted", deleted), slog.Time("cutoff", cutoff))
	return &model.StaleCleanup{Deleted: deleted, Cutoff: cutoff}, nil
}

// ClaimStale picks PENDING enrollments whose order has not been looked at recently.
// Claimed rows are not handed out again until the stale period passes.
func (u *EnrollmentUseCase) ClaimStale(ctx context.Context, limit int) ([]model.Enrollment, error) {
	return u.enrollments.ClaimForReconciliation(ctx, u.now().Add(-u.staleAfter), limit)
}

// CreatePartialPaymentOrder opens a follow-up order for part of the remaining balance.
// A zero amount means the whole remaining balance.
func (u *EnrollmentUseCase) CreatePartialPaymentOrder(ctx context.Context, userID int64, enrollmentID uuid.UUID, amount decimal.Decimal) (*model.CheckoutOrder, error) {
	enrollment, err := u.ownedEnrollment(ctx, userID, enrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment.Status != model.EnrollmentStatusPending {
		return nil, domainErrors.ErrInvalidState
	}

	course, err := u.courses.GetByID(ctx, enrollment.CourseID)
	if err != nil {
		return nil, err
	}

	remaining := enrollment.Remaining(course.Price)
	if !remaining.IsPositive() {
		return nil, domainErrors.ErrInvalidState
	}
	if amount.IsZero() {
		amount = remaining
	}
	if amount.IsNegative() || amount.GreaterThan(remaining) {
		return nil, fmt.Errorf("%w: must be between 0 and %s", domainErrors.ErrInvalidAmount, remaining.StringFixed(2))
	}
	if !amount.Equal(amount.Round(2)) || model.ToMinorUnits(amount) <= 0 {
		return nil, fmt.Errorf("%w: at most 2 decimal places and at least 0.01", domainErrors.ErrInvalidAmount)
	}

	order, err := u.gateway.CreateOrder(ctx, model.GatewayOrderRequest{
		Amount:   amount,
		Currency: u.currency,
		Receipt:  fmt.Sprintf("p%d-u%d-%d", enrollment.CourseID, userID, u.now().Unix()),
		Notes: map[string]string{
			"courseId":     strconv.FormatInt(enrollment.CourseID, 10),
			"userId":       strconv.FormatInt(userID, 10),
			"enrollmentId": enrollment.ID.String(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}

	if err := u.enrollments.ReassignOrder(ctx, enrollment.ID, order.ID); err != nil {
		return nil, err
	}

	return &model.CheckoutOrder{
		OrderID:      order.ID,
		Amount:       amount,
		Currency:     u.currency,
		EnrollmentID: enrollment.ID,
	}, nil
}

// ListByUser returns the caller's enrollments with course prices attached.
func (u *EnrollmentUseCase) ListByUser(ctx context.Context, userID int64) ([]model.EnrollmentOverview, error) {
	enrollments, err := u.enrollments.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(enrollments) == 0 {
		return nil, nil
	}

	courses, err := u.courses.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	result := make([]model.EnrollmentOverview, 0, len(enrollments))
	for _, e := range enrollments {
		c := byID[e.CourseID]
		result = append(result, model.EnrollmentOverview{Enrollment: e, CourseTitle: c.Title, Price: c.Price})
	}
	return result, nil
}

// Payments returns ledger entries of an enrollment owned by userID.
func (u *EnrollmentUseCase) Payments(ctx context.Context, userID int64, enrollmentID uuid.UUID) ([]model.PaymentRecord, error) {
	if _, err := u.ownedEnrollment(ctx, userID, enrollmentID); err != nil {
		return nil, err
	}
	return u.enrollments.Payments(ctx, enrollmentID)
}

func (u *EnrollmentUseCase) ownedEnrollment(ctx context.Context, userID int64, id uuid.UUID) (*model.Enrollment, error) {
	enrollment, err := u.enrollments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if enrollment.UserID != userID {
		return nil, domainErrors.ErrForbidden
	}
	return enrollment, nil
}

func capturedAmount(order *model.GatewayOrder) decimal.Decimal {
	if order.AmountPaid.IsPositive() {
		return order.AmountPaid
	}
	return order.Amount
}

func isUpstream(err error) bool {
	return errors.Is(err, domainErrors.ErrUpstream) || errors.Is(err, domainErrors.ErrUpstreamTimeout)
}
