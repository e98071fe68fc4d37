package model

import "github.com/shopspring/decimal"

// GatewayOrderStatus mirrors order states reported by the payment gateway.
type GatewayOrderStatus string

const (
	GatewayOrderStatusCreated   GatewayOrderStatus = "created"
	GatewayOrderStatusAttempted GatewayOrderStatus = "attempted"
	GatewayOrderStatusPaid      GatewayOrderStatus = "paid"
)

// GatewayPaymentStatus mirrors payment states reported by the payment gateway.
type GatewayPaymentStatus string

const (
	GatewayPaymentStatusCreated    GatewayPaymentStatus = "created"
	GatewayPaymentStatusAuthorized GatewayPaymentStatus = "authorized"
	GatewayPaymentStatusCaptured   GatewayPaymentStatus = "captured"
	GatewayPaymentStatusRefunded   GatewayPaymentStatus = "refunded"
	GatewayPaymentStatusFailed     GatewayPaymentStatus = "failed"
)

// GatewayOrderRequest describes a charge to open at the gateway. Amount is in major units.
type GatewayOrderRequest struct {
	Amount   decimal.Decimal
	Currency string
	Receipt  string
	Notes    map[string]string
}

// GatewayOrder is the gateway-side charge object. Amounts are in major units.
type GatewayOrder struct {
	ID         string
	Amount     decimal.Decimal
	AmountPaid decimal.Decimal
	AmountDue  decimal.Decimal
	Currency   string
	Receipt    string
	Status     GatewayOrderStatus
	Attempts   int
	Notes      map[string]string
}

// Paid reports whether the gateway considers the order settled.
func (o GatewayOrder) Paid() bool {
	return o.Status == GatewayOrderStatusPaid
}

// GatewayPayment is a single payment attempt against an order.
type GatewayPayment struct {
	ID       string
	OrderID  string
	Amount   decimal.Decimal
	Currency string
	Status   GatewayPaymentStatus
	Method   string
}

// Successful reports whether the payment moved money.
func (p GatewayPayment) Successful() bool {
	return p.Status == GatewayPaymentStatusCaptured || p.Status == GatewayPaymentStatusAuthorized
}
