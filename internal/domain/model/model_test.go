package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestEnrollmentStatusValues(t *testing.T) {
	cases := []struct {
		name  string
		got   EnrollmentStatus
		value string
		holds bool
	}{
		{"pending", EnrollmentStatusPending, "PENDING", true},
		{"active", EnrollmentStatusActive, "ACTIVE", true},
		{"completed", EnrollmentStatusCompleted, "COMPLETED", false},
		{"cancelled", EnrollmentStatusCancelled, "CANCELLED", false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if string(tc.got) != tc.value {
				t.Fatalf("expected %s, got %s", tc.value, tc.got)
			}
			if tc.got.Holds() != tc.holds {
				t.Fatalf("expected holds=%v for %s", tc.holds, tc.got)
			}
		})
	}
}

func TestEnrollmentCredit(t *testing.T) {
	price := decimal.NewFromInt(1000)

	cases := []struct {
		name      string
		paid      int64
		amount    int64
		wantPaid  int64
		wantLeft  int64
		wantExtra int64
		status    EnrollmentStatus
	}{
		{name: "full payment", paid: 0, amount: 1000, wantPaid: 1000, wantLeft: 0, status: EnrollmentStatusActive},
		{name: "partial payment", paid: 0, amount: 400, wantPaid: 400, wantLeft: 600, status: EnrollmentStatusPending},
		{name: "completes partial", paid: 400, amount: 600, wantPaid: 1000, wantLeft: 0, status: EnrollmentStatusActive},
		{name: "overpayment capped", paid: 400, amount: 1000, wantPaid: 1000, wantLeft: 0, wantExtra: 400, status: EnrollmentStatusActive},
		{name: "zero amount", paid: 300, amount: 0, wantPaid: 300, wantLeft: 700, status: EnrollmentStatusPending},
		{name: "negative ignored", paid: 300, amount: -50, wantPaid: 300, wantLeft: 700, status: EnrollmentStatusPending},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			e := Enrollment{AmountPaid: decimal.NewFromInt(tc.paid), Status: EnrollmentStatusPending}
			tr := e.Credit(decimal.NewFromInt(tc.amount), price)
			if !tr.AmountPaid.Equal(decimal.NewFromInt(tc.wantPaid)) {
				t.Fatalf("expected paid %d, got %s", tc.wantPaid, tr.AmountPaid)
			}
			if !tr.Remaining.Equal(decimal.NewFromInt(tc.wantLeft)) {
				t.Fatalf("expected remaining %d, got %s", tc.wantLeft, tr.Remaining)
			}
			if !tr.Excess.Equal(decimal.NewFromInt(tc.wantExtra)) {
				t.Fatalf("expected excess %d, got %s", tc.wantExtra, tr.Excess)
			}
			if tr.Status != tc.status {
				t.Fatalf("expected status %s, got %s", tc.status, tr.Status)
			}
			if tr.AmountPaid.GreaterThan(price) {
				t.Fatalf("amount paid %s exceeds price", tr.AmountPaid)
			}
			if !tr.PreviousPaid.Equal(decimal.NewFromInt(tc.paid)) {
				t.Fatalf("expected previous paid %d, got %s", tc.paid, tr.PreviousPaid)
			}
		})
	}
}

func TestEnrollmentAccessors(t *testing.T) {
	e := Enrollment{AmountPaid: decimal.NewFromInt(1200)}
	if e.OrderID() != "" || e.PaymentID() != "" {
		t.Fatal("expected empty gateway identifiers")
	}
	if !e.Remaining(decimal.NewFromInt(1000)).IsZero() {
		t.Fatal("remaining must never be negative")
	}

	order, payment := "order_1", "pay_1"
	e.GatewayOrderID = &order
	e.GatewayPaymentID = &payment
	if e.OrderID() != order || e.PaymentID() != payment {
		t.Fatalf("unexpected identifiers: %q %q", e.OrderID(), e.PaymentID())
	}
}

func TestMinorUnitConversion(t *testing.T) {
	if got := ToMinorUnits(decimal.RequireFromString("1000")); got != 100000 {
		t.Fatalf("expected 100000, got %d", got)
	}
	if got := ToMinorUnits(decimal.RequireFromString("12.345")); got != 1235 {
		t.Fatalf("expected 1235, got %d", got)
	}
	if got := FromMinorUnits(40000); !got.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("expected 400, got %s", got)
	}
}

func TestFormatMoney(t *testing.T) {
	if got := FormatMoney("INR", decimal.NewFromInt(600)); got != "₹600.00" {
		t.Fatalf("unexpected format %q", got)
	}
	if got := FormatMoney("JPY", decimal.NewFromInt(5)); got != "JPY 5.00" {
		t.Fatalf("unexpected format %q", got)
	}
}

func TestGatewayStatuses(t *testing.T) {
	if !(GatewayOrder{Status: GatewayOrderStatusPaid}).Paid() {
		t.Fatal("expected paid order")
	}
	if (GatewayOrder{Status: GatewayOrderStatusAttempted}).Paid() {
		t.Fatal("attempted order is not paid")
	}
	for _, status := range []GatewayPaymentStatus{GatewayPaymentStatusCaptured, GatewayPaymentStatusAuthorized} {
		if !(GatewayPayment{Status: status}).Successful() {
			t.Fatalf("expected %s to be successful", status)
		}
	}
	for _, status := range []GatewayPaymentStatus{GatewayPaymentStatusCreated, GatewayPaymentStatusFailed, GatewayPaymentStatusRefunded} {
		if (GatewayPayment{Status: status}).Successful() {
			t.Fatalf("expected %s to be unsuccessful", status)
		}
	}
}
