package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/domain/model"
)

// ErrOrderNotFound indicates the gateway does not know the order id.
var ErrOrderNotFound = errors.New("gateway order not found")

// TooManyRequestsError represents rate limiting signal from the gateway.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Unwrap lets callers treat throttling as a generic upstream failure.
func (e TooManyRequestsError) Unwrap() error {
	return domainErrors.ErrUpstream
}

// Client exposes operations of the hosted payment gateway.
type Client interface {
	CreateOrder(ctx context.Context, req model.GatewayOrderRequest) (*model.GatewayOrder, error)
	FetchOrder(ctx context.Context, orderID string) (*model.GatewayOrder, error)
	FetchPayments(ctx context.Context, orderID string) ([]model.GatewayPayment, error)
	VerifySignature(orderID, paymentID, signature string) error
}

// HTTPClient implements Client over the gateway REST API.
type HTTPClient struct {
	rest   *resty.Client
	secret string
	logger *slog.Logger
}

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID         string          `json:"id"`
	Amount     int64           `json:"amount"`
	AmountPaid int64           `json:"amount_paid"`
	AmountDue  int64           `json:"amount_due"`
	Currency   string          `json:"currency"`
	Receipt    string          `json:"receipt"`
	Status     string          `json:"status"`
	Attempts   int             `json:"attempts"`
	Notes      json.RawMessage `json:"notes"`
}

type paymentResponse struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Method   string `json:"method"`
}

type paymentCollection struct {
	Count int               `json:"count"`
	Items []paymentResponse `json:"items"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// NewHTTPClient creates gateway client authenticated with keyID and secret.
func NewHTTPClient(baseURL, keyID, secret string, timeout time.Duration, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("gateway url must be absolute")
	}
	if keyID == "" || secret == "" {
		return nil, fmt.Errorf("gateway credentials must be provided")
	}

	rest := resty.New().
		SetBaseURL(parsed.String()).
		SetTimeout(timeout).
		SetBasicAuth(keyID, secret).
		SetHeader("Accept", "application/json").
		SetError(errorResponse{}).
		SetLogger(restyLogger{logger: logger})

	return &HTTPClient{rest: rest, secret: secret, logger: logger}, nil
}

// CreateOrder opens a new order for req.Amount.
func (c *HTTPClient) CreateOrder(ctx context.Context, req model.GatewayOrderRequest) (*model.GatewayOrder, error) {
	body := orderRequest{
		Amount:   model.ToMinorUnits(req.Amount),
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	}

	var data orderResponse
	resp, err := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&data).
		Post("/v1/orders")
	if err := c.checkResponse("create order", resp, err); err != nil {
		return nil, err
	}
	return c.toOrder(data), nil
}

// FetchOrder returns the current state of an order.
func (c *HTTPClient) FetchOrder(ctx context.Context, orderID string) (*model.GatewayOrder, error) {
	var data orderResponse
	resp, err := c.request(ctx).
		SetPathParam("id", orderID).
		SetResult(&data).
		Get("/v1/orders/{id}")
	if err := c.checkResponse("fetch order", resp, err); err != nil {
		return nil, err
	}
	return c.toOrder(data), nil
}

// FetchPayments lists payment attempts recorded against an order.
func (c *HTTPClient) FetchPayments(ctx context.Context, orderID string) ([]model.GatewayPayment, error) {
	var data paymentCollection
	resp, err := c.request(ctx).
		SetPathParam("id", orderID).
		SetResult(&data).
		Get("/v1/orders/{id}/payments")
	if err := c.checkResponse("fetch payments", resp, err); err != nil {
		return nil, err
	}

	payments := make([]model.GatewayPayment, 0, len(data.Items))
	for _, item := range data.Items {
		payments = append(payments, model.GatewayPayment{
			ID:       item.ID,
			OrderID:  item.OrderID,
			Amount:   model.FromMinorUnits(item.Amount),
			Currency: item.Currency,
			Status:   model.GatewayPaymentStatus(item.Status),
			Method:   item.Method,
		})
	}
	return payments, nil
}

// VerifySignature checks the checkout callback signature over "orderID|paymentID".
func (c *HTTPClient) VerifySignature(orderID, paymentID, signature string) error {
	expected := Sign(c.secret, orderID, paymentID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return domainErrors.ErrInvalidSignature
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 the gateway attaches to a successful checkout.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// request prepares a call whose body is always decoded as JSON into SetResult/SetError targets.
func (c *HTTPClient) request(ctx context.Context) *resty.Request {
	return c.rest.R().
		SetContext(ctx).
		ForceContentType("application/json")
}

func (c *HTTPClient) checkResponse(op string, resp *resty.Response, err error) error {
	if err != nil {
		if resp != nil && resp.IsSuccess() {
			return fmt.Errorf("%w: %s: decode response: %v", domainErrors.ErrUpstream, op, err)
		}
		return classifyTransportError(op, err)
	}

	switch {
	case resp.IsSuccess():
		return nil
	case resp.StatusCode() == http.StatusTooManyRequests:
		return TooManyRequestsError{RetryAfter: parseRetryAfter(resp.Header().Get("Retry-After"))}
	case resp.StatusCode() == http.StatusNotFound:
		return fmt.Errorf("%w: %s: %w", domainErrors.ErrUpstream, op, ErrOrderNotFound)
	case resp.StatusCode() == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", domainErrors.ErrUpstreamTimeout, op)
	}

	description := resp.Status()
	if payload, ok := resp.Error().(*errorResponse); ok && payload.Error.Description != "" {
		description = payload.Error.Description
	}
	c.logger.Error("gateway request failed",
		slog.String("op", op),
		slog.Int("status", resp.StatusCode()),
		slog.String("body", resp.String()),
	)
	return fmt.Errorf("%w: %s: %s", domainErrors.ErrUpstream, op, description)
}

func classifyTransportError(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %v", domainErrors.ErrUpstreamTimeout, op, err)
	}
	return fmt.Errorf("%w: %s: %v", domainErrors.ErrUpstream, op, err)
}

func (c *HTTPClient) toOrder(o orderResponse) *model.GatewayOrder {
	notes, err := decodeNotes(o.Notes)
	if err != nil {
		c.logger.Debug("ignoring undecodable order notes",
			slog.String("order_id", o.ID),
			slog.String("notes", string(o.Notes)),
			slog.String("error", err.Error()),
		)
	}
	return &model.GatewayOrder{
		ID:         o.ID,
		Amount:     model.FromMinorUnits(o.Amount),
		AmountPaid: model.FromMinorUnits(o.AmountPaid),
		AmountDue:  model.FromMinorUnits(o.AmountDue),
		Currency:   o.Currency,
		Receipt:    o.Receipt,
		Status:     model.GatewayOrderStatus(o.Status),
		Attempts:   o.Attempts,
		Notes:      notes,
	}
}

// decodeNotes accepts an object or the empty array the gateway sends when no notes were set.
// Any other shape yields empty notes and an error.
func decodeNotes(raw json.RawMessage) (map[string]string, error) {
	notes := map[string]string{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("[]")) {
		return notes, nil
	}
	if err := json.Unmarshal(trimmed, &notes); err != nil {
		return map[string]string{}, err
	}
	return notes, nil
}

// restyLogger forwards resty's internal warnings to slog.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error("gateway client: " + fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn("gateway client: " + fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug("gateway client: " + fmt.Sprintf(format, v...))
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}
