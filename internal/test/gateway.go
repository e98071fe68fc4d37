package test

import (
	"context"
	"crypto/hmac"
	"fmt"
	"sync"

	"github.com/polkiloo/coursemart/internal/adapter/gateway"
	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/domain/model"
)

// GatewaySecret signs checkout payloads accepted by GatewayStub.
const GatewaySecret = "test-gateway-secret"

// GatewayStub fakes the payment gateway; unset functions fall back to in-memory behaviour.
type GatewayStub struct {
	CreateOrderFn     func(context.Context, model.GatewayOrderRequest) (*model.GatewayOrder, error)
	FetchOrderFn      func(context.Context, string) (*model.GatewayOrder, error)
	FetchPaymentsFn   func(context.Context, string) ([]model.GatewayPayment, error)
	VerifySignatureFn func(string, string, string) error

	mu       sync.Mutex
	next     int
	Requests []model.GatewayOrderRequest
	Fetches  int
}

// CreateOrder records the request and returns a fresh order id.
func (g *GatewayStub) CreateOrder(ctx context.Context, req model.GatewayOrderRequest) (*model.GatewayOrder, error) {
	g.mu.Lock()
	g.Requests = append(g.Requests, req)
	g.next++
	id := fmt.Sprintf("order_%d", g.next)
	g.mu.Unlock()

	if g.CreateOrderFn != nil {
		return g.CreateOrderFn(ctx, req)
	}
	return &model.GatewayOrder{
		ID:        id,
		Amount:    req.Amount,
		AmountDue: req.Amount,
		Currency:  req.Currency,
		Receipt:   req.Receipt,
		Status:    model.GatewayOrderStatusCreated,
		Notes:     req.Notes,
	}, nil
}

// FetchOrder delegates to override or reports an upstream failure.
func (g *GatewayStub) FetchOrder(ctx context.Context, orderID string) (*model.GatewayOrder, error) {
	g.mu.Lock()
	g.Fetches++
	g.mu.Unlock()

	if g.FetchOrderFn != nil {
		return g.FetchOrderFn(ctx, orderID)
	}
	return nil, domainErrors.ErrUpstream
}

// FetchPayments delegates to override or returns no payments.
func (g *GatewayStub) FetchPayments(ctx context.Context, orderID string) ([]model.GatewayPayment, error) {
	if g.FetchPaymentsFn != nil {
		return g.FetchPaymentsFn(ctx, orderID)
	}
	return nil, nil
}

// VerifySignature checks the payload against GatewaySecret.
func (g *GatewayStub) VerifySignature(orderID, paymentID, signature string) error {
	if g.VerifySignatureFn != nil {
		return g.VerifySignatureFn(orderID, paymentID, signature)
	}
	if !hmac.Equal([]byte(Sign(orderID, paymentID)), []byte(signature)) {
		return domainErrors.ErrInvalidSignature
	}
	return nil
}

// RequestCount returns number of orders opened so far.
func (g *GatewayStub) RequestCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Requests)
}

// Sign produces a signature GatewayStub accepts.
func Sign(orderID, paymentID string) string {
	return gateway.Sign(GatewaySecret, orderID, paymentID)
}

// PaidOrder builds a settled gateway order.
func PaidOrder(id string, amountPaid int64) *model.GatewayOrder {
	paid := model.FromMinorUnits(amountPaid * 100)
	return &model.GatewayOrder{
		ID:         id,
		Amount:     paid,
		AmountPaid: paid,
		Status:     model.GatewayOrderStatusPaid,
	}
}
