// Package api is the REST client for the Myaje backend. Every call carries
// an explicit timeout and a bearer token when the current identity has one.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/guonaihong/gout"
	"github.com/guonaihong/gout/dataflow"
	"go.uber.org/zap"

	"myaje.io/checkout/models"
	"myaje.io/checkout/models/enum"
)

// requestTimeout bounds every backend call so a dispatch can never hang the
// checkout session indefinitely.
const requestTimeout = 30 * time.Second

// Error is a failed backend call: a non-2xx response or a transport
// failure. The server-provided detail is preferred for user-facing text.
type Error struct {
	StatusCode int    // zero on transport failure
	Detail     string // server "detail" field when present
	Timeout    bool
	Err        error // underlying transport error, if any
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Timeout {
		return "network timeout"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "request failed"
}

func (e *Error) Unwrap() error { return e.Err }

// Client talks to the Myaje backend.
type Client struct {
	base     string
	g        *dataflow.Gout
	identity models.IdentityProvider
	logger   *zap.Logger
}

// NewClient builds a client for the given API base URL, e.g.
// "https://api.myaje.com".
func NewClient(base string, identity models.IdentityProvider, logger *zap.Logger) *Client {
	return &Client{
		base:     base,
		g:        gout.New(&http.Client{Timeout: requestTimeout}),
		identity: identity,
		logger:   logger,
	}
}

// Eligibility fetches the payment-method eligibility snapshot for the given
// view. Callers should only invoke it while authenticated.
func (c *Client) Eligibility(ctx context.Context, view enum.ActiveView) (*models.Eligibility, error) {
	var (
		code int
		raw  []byte
	)
	err := c.g.GET(c.base+"/payment/eligibility").
		WithContext(ctx).
		SetTimeout(requestTimeout).
		SetHeader(c.headers()).
		SetQuery(gout.H{"active_view": string(view)}).
		Code(&code).
		BindBody(&raw).
		Do()
	if err != nil {
		return nil, c.transportError("eligibility", err)
	}
	if code < 200 || code >= 300 {
		return nil, c.statusError("eligibility", code, raw)
	}

	var eligibility models.Eligibility
	if err = json.Unmarshal(raw, &eligibility); err != nil {
		return nil, fmt.Errorf("decode eligibility: %w", err)
	}
	return &eligibility, nil
}

// InitializePayment starts a gateway-routed payment (card, bank transfer)
// and returns the gateway handoff.
func (c *Client) InitializePayment(ctx context.Context, req *PaymentRequest) (*InitializeResponse, error) {
	var resp InitializeResponse
	if err := c.postJSON(ctx, "/payment/initialize", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// InstallmentPayment dispatches an installment payment.
func (c *Client) InstallmentPayment(ctx context.Context, req *PaymentRequest) (*PaymentResponse, error) {
	var resp PaymentResponse
	if err := c.postJSON(ctx, "/payment/installment", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BNPLPayment dispatches a buy-now-pay-later payment.
func (c *Client) BNPLPayment(ctx context.Context, req *PaymentRequest) (*PaymentResponse, error) {
	var resp PaymentResponse
	if err := c.postJSON(ctx, "/payment/bnpl", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BorrowPayment dispatches a loan-funded payment.
func (c *Client) BorrowPayment(ctx context.Context, req *PaymentRequest) (*PaymentResponse, error) {
	var resp PaymentResponse
	if err := c.postJSON(ctx, "/payment/borrow", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CashPayment dispatches a cash-on-delivery payment.
func (c *Client) CashPayment(ctx context.Context, req *PaymentRequest) (*PaymentResponse, error) {
	var resp PaymentResponse
	if err := c.postJSON(ctx, "/payment/cash", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyPayment confirms a gateway payment server-side after the widget
// reports success.
func (c *Client) VerifyPayment(ctx context.Context, reference string, method enum.PaymentMethod) error {
	body := gout.H{
		"reference":      reference,
		"payment_method": string(method),
	}
	return c.postJSON(ctx, "/payment/verify", body, nil)
}

// SubmitInvoice files an invoice request instead of a payment.
func (c *Client) SubmitInvoice(ctx context.Context, req *InvoiceRequest) (*InvoiceResponse, error) {
	var resp InvoiceResponse
	if err := c.postJSON(ctx, "/orders/submit", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	var (
		code int
		raw  []byte
	)
	err := c.g.POST(c.base+path).
		WithContext(ctx).
		SetTimeout(requestTimeout).
		SetHeader(c.headers()).
		SetJSON(body).
		Code(&code).
		BindBody(&raw).
		Do()
	if err != nil {
		return c.transportError(path, err)
	}
	if code < 200 || code >= 300 {
		return c.statusError(path, code, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err = json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) headers() gout.H {
	h := gout.H{"Content-Type": "application/json"}
	if user := c.identity.Current(); user.Authenticated() {
		h["Authorization"] = "Bearer " + user.Token
	}
	return h
}

func (c *Client) transportError(path string, err error) error {
	timeout := errors.Is(err, context.DeadlineExceeded)
	c.logger.Error("Backend request failed",
		zap.String("path", path),
		zap.Bool("timeout", timeout),
		zap.Error(err))
	return &Error{Timeout: timeout, Err: err}
}

func (c *Client) statusError(path string, code int, raw []byte) error {
	var payload struct {
		Detail string `json:"detail"`
	}
	// A missing or non-JSON body just leaves Detail empty.
	_ = json.Unmarshal(raw, &payload)

	c.logger.Warn("Backend rejected request",
		zap.String("path", path),
		zap.Int("status", code),
		zap.String("detail", payload.Detail))
	return &Error{StatusCode: code, Detail: payload.Detail}
}
