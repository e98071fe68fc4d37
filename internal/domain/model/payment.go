package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentSource tells which path credited a payment.
type PaymentSource string

const (
	PaymentSourceVerification   PaymentSource = "VERIFICATION"
	PaymentSourceReconciliation PaymentSource = "RECONCILIATION"
)

// PaymentCredit is a captured payment about to be applied to an enrollment.
type PaymentCredit struct {
	EnrollmentID uuid.UUID
	OrderID      string
	PaymentID    string
	Amount       decimal.Decimal
	Source       PaymentSource
}

// PaymentRecord is a ledger entry of an applied payment.
type PaymentRecord struct {
	PaymentID    string
	EnrollmentID uuid.UUID
	OrderID      string
	Amount       decimal.Decimal
	Source       PaymentSource
	RecordedAt   time.Time
}

// PaymentVerification is the signed checkout payload returned by the client widget.
type PaymentVerification struct {
	EnrollmentID uuid.UUID
	OrderID      string
	PaymentID    string
	Signature    string
}

// CheckoutOrder is the handle the client checkout widget needs to collect a payment.
type CheckoutOrder struct {
	OrderID      string
	Amount       decimal.Decimal
	Currency     string
	EnrollmentID uuid.UUID
}

// PaymentResult summarises a verification or reconciliation attempt.
type PaymentResult struct {
	Success    bool
	Message    string
	Enrollment *Enrollment
	Remaining  decimal.Decimal
}

// StaleCleanup reports a janitor pass.
type StaleCleanup struct {
	Deleted int64
	Cutoff  time.Time
}

var currencySymbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// FormatMoney renders amount with the currency symbol when known.
func FormatMoney(currency string, amount decimal.Decimal) string {
	if symbol, ok := currencySymbols[currency]; ok {
		return symbol + amount.StringFixed(2)
	}
	return fmt.Sprintf("%s %s", currency, amount.StringFixed(2))
}

// ToMinorUnits converts a major-unit amount into gateway minor units.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromMinorUnits converts gateway minor units into a major-unit amount.
func FromMinorUnits(units int64) decimal.Decimal {
	return decimal.New(units, -2)
}
