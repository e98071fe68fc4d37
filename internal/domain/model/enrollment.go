package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EnrollmentStatus describes enrollment lifecycle.
type EnrollmentStatus string

const (
	EnrollmentStatusPending   EnrollmentStatus = "PENDING"
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELLED"
)

// Holds reports whether the status occupies the (user, course) slot.
func (s EnrollmentStatus) Holds() bool {
	return s == EnrollmentStatusPending || s == EnrollmentStatusActive
}

// Enrollment ties a user to a course and tracks payment progress.
type Enrollment struct {
	ID               uuid.UUID
	UserID           int64
	CourseID         int64
	Status           EnrollmentStatus
	AmountPaid       decimal.Decimal
	GatewayOrderID   *string
	GatewayPaymentID *string
	EnrolledAt       time.Time
	UpdatedAt        time.Time
}

// OrderID returns the latest gateway order id or an empty string.
func (e Enrollment) OrderID() string {
	if e.GatewayOrderID == nil {
		return ""
	}
	return *e.GatewayOrderID
}

// PaymentID returns the latest captured payment id or an empty string.
func (e Enrollment) PaymentID() string {
	if e.GatewayPaymentID == nil {
		return ""
	}
	return *e.GatewayPaymentID
}

// Remaining returns the unpaid part of price, never negative.
func (e Enrollment) Remaining(price decimal.Decimal) decimal.Decimal {
	rest := price.Sub(e.AmountPaid)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// Transition is the outcome of crediting a captured amount to an enrollment.
type Transition struct {
	PreviousPaid decimal.Decimal
	AmountPaid   decimal.Decimal
	Credited     decimal.Decimal
	Excess       decimal.Decimal
	Remaining    decimal.Decimal
	Status       EnrollmentStatus
}

// FullyPaid reports whether the transition activates the enrollment.
func (t Transition) FullyPaid() bool {
	return t.Status == EnrollmentStatusActive
}

// Credit accumulates amount against the enrollment for a course priced at price.
// The accumulated total is capped at price; anything above it is reported as Excess.
func (e Enrollment) Credit(amount, price decimal.Decimal) Transition {
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	total := e.AmountPaid.Add(amount)
	excess := decimal.Zero
	if total.GreaterThan(price) {
		excess = total.Sub(price)
		total = price
	}

	status := EnrollmentStatusPending
	if total.GreaterThanOrEqual(price) {
		status = EnrollmentStatusActive
	}

	return Transition{
		PreviousPaid: e.AmountPaid,
		AmountPaid:   total,
		Credited:     total.Sub(e.AmountPaid),
		Excess:       excess,
		Remaining:    price.Sub(total),
		Status:       status,
	}
}

// EnrollmentOverview joins an enrollment with the course it pays for.
type EnrollmentOverview struct {
	Enrollment
	CourseTitle string
	Price       decimal.Decimal
}

// Remaining returns the unpaid part of the course price.
func (o EnrollmentOverview) Remaining() decimal.Decimal {
	return o.Enrollment.Remaining(o.Price)
}
