package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/coursemart/internal/domain/model"
)

// CreateOrderRequest starts checkout for a course.
type CreateOrderRequest struct {
	CourseID int64 `json:"courseId" binding:"required,gt=0"`
}

// VerifyPaymentRequest is the signed payload produced by the checkout widget.
type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"gatewayOrderId" binding:"required"`
	GatewayPaymentID string `json:"gatewayPaymentId" binding:"required"`
	Signature        string `json:"signature" binding:"required,hexadecimal"`
	EnrollmentID     string `json:"enrollmentId" binding:"required,uuid"`
}

// EnrollmentRequest addresses a single enrollment.
type EnrollmentRequest struct {
	EnrollmentID string `json:"enrollmentId" binding:"required,uuid"`
}

// PartialPaymentRequest asks for a follow-up order. Amount is in major units; zero or
// absent means the whole remaining balance.
type PartialPaymentRequest struct {
	EnrollmentID string          `json:"enrollmentId" binding:"required,uuid"`
	Amount       decimal.Decimal `json:"amount" binding:"gte=0"`
}

// CheckoutResponse carries what the checkout widget needs. Amount is in minor units.
type CheckoutResponse struct {
	OrderID      string `json:"orderId"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	EnrollmentID string `json:"enrollmentId"`
}

// EnrollmentResponse describes enrollment state after a mutation or in a listing.
type EnrollmentResponse struct {
	ID               string          `json:"id"`
	CourseID         int64           `json:"courseId"`
	CourseTitle      string          `json:"courseTitle,omitempty"`
	Status           string          `json:"status"`
	AmountPaid       decimal.Decimal `json:"amountPaid"`
	Remaining        decimal.Decimal `json:"remaining"`
	GatewayOrderID   string          `json:"gatewayOrderId,omitempty"`
	GatewayPaymentID string          `json:"gatewayPaymentId,omitempty"`
	EnrolledAt       time.Time       `json:"enrolledAt"`
}

// PaymentResponse is a ledger entry.
type PaymentResponse struct {
	PaymentID  string          `json:"paymentId"`
	OrderID    string          `json:"orderId"`
	Amount     decimal.Decimal `json:"amount"`
	Source     string          `json:"source"`
	RecordedAt time.Time       `json:"recordedAt"`
}

// CleanupResponse reports a janitor pass.
type CleanupResponse struct {
	Deleted int64     `json:"deleted"`
	Cutoff  time.Time `json:"cutoff"`
}

// CourseResponse is a catalog entry.
type CourseResponse struct {
	ID    int64           `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
}

// NewCheckoutResponse converts a checkout order to its wire form.
func NewCheckoutResponse(o *model.CheckoutOrder) CheckoutResponse {
	return CheckoutResponse{
		OrderID:      o.OrderID,
		Amount:       model.ToMinorUnits(o.Amount),
		Currency:     o.Currency,
		EnrollmentID: o.EnrollmentID.String(),
	}
}

// NewEnrollmentResponse converts an enrollment; remaining is supplied by the caller.
func NewEnrollmentResponse(e model.Enrollment, remaining decimal.Decimal) EnrollmentResponse {
	return EnrollmentResponse{
		ID:               e.ID.String(),
		CourseID:         e.CourseID,
		Status:           string(e.Status),
		AmountPaid:       e.AmountPaid,
		Remaining:        remaining,
		GatewayOrderID:   e.OrderID(),
		GatewayPaymentID: e.PaymentID(),
		EnrolledAt:       e.EnrolledAt,
	}
}
