package checkout

import (
	"context"
	"fmt"

	"myaje.io/checkout/api"
	"myaje.io/checkout/models"
	"myaje.io/checkout/models/enum"
)

// paymentRoute binds a payment method to its backend endpoint. Gateway
// routes hand off to the payment widget after /payment/initialize; direct
// routes confirm synchronously on a 2xx.
type paymentRoute struct {
	viaGateway bool
	extra      func(req *api.PaymentRequest, sel models.CheckoutSelection)
	submit     func(ctx context.Context, b Backend, req *api.PaymentRequest) (*api.PaymentResponse, error)
}

var paymentRoutes = map[enum.PaymentMethod]paymentRoute{
	enum.PaymentMethodCard:         {viaGateway: true},
	enum.PaymentMethodBankTransfer: {viaGateway: true},

	enum.PaymentMethodInstallment: {
		extra: func(req *api.PaymentRequest, sel models.CheckoutSelection) {
			req.InstallmentOption = string(sel.SubOption)
		},
		submit: func(ctx context.Context, b Backend, req *api.PaymentRequest) (*api.PaymentResponse, error) {
			return b.InstallmentPayment(ctx, req)
		},
	},

	// The BNPL delay is kept client-side for display; the wire body is the
	// shared payment request.
	enum.PaymentMethodBNPL: {
		submit: func(ctx context.Context, b Backend, req *api.PaymentRequest) (*api.PaymentResponse, error) {
			return b.BNPLPayment(ctx, req)
		},
	},

	enum.PaymentMethodBorrow: {
		submit: func(ctx context.Context, b Backend, req *api.PaymentRequest) (*api.PaymentResponse, error) {
			return b.BorrowPayment(ctx, req)
		},
	},

	enum.PaymentMethodCash: {
		submit: func(ctx context.Context, b Backend, req *api.PaymentRequest) (*api.PaymentResponse, error) {
			return b.CashPayment(ctx, req)
		},
	},
}

func routeFor(method enum.PaymentMethod) (paymentRoute, error) {
	route, ok := paymentRoutes[method]
	if !ok {
		return paymentRoute{}, fmt.Errorf("checkout: no route for payment method %q", method)
	}
	return route, nil
}

func (s *Service) buildPaymentRequest(form models.CheckoutForm, sel models.CheckoutSelection, items []models.CartItem, total float64) *api.PaymentRequest {
	req := &api.PaymentRequest{
		Amount:        total,
		Email:         form.CustomerEmail,
		PaymentMethod: string(sel.Method),
		OrderType:     string(enum.CheckoutModePayment),
		Currency:      s.currency,
		CustomerInfo: api.CustomerInfo{
			Name:    form.CustomerName,
			Email:   form.CustomerEmail,
			Phone:   form.CustomerPhone,
			Address: form.ShippingAddress,
		},
		Items: api.PaymentItems(items, false),
	}

	if route, ok := paymentRoutes[sel.Method]; ok && route.extra != nil {
		route.extra(req, sel)
	}
	return req
}

func (s *Service) buildInvoiceRequest(form models.CheckoutForm, items []models.CartItem, total float64) *api.InvoiceRequest {
	return &api.InvoiceRequest{
		OrderType:       string(enum.CheckoutModeInvoice),
		CustomerName:    form.CustomerName,
		CustomerEmail:   form.CustomerEmail,
		CustomerPhone:   form.CustomerPhone,
		ShippingAddress: form.ShippingAddress,
		Items:           api.PaymentItems(items, true),
		Amount:          total,
		Currency:        s.currency,
		Status:          "pending",
	}
}
