package api

import (
	"github.com/stripe/stripe-go/v79"

	"myaje.io/checkout/models"
)

// CustomerInfo is the nested customer block on payment dispatches.
type CustomerInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address"`
}

// OrderItem is one cart line on the wire. Name is only sent on invoice
// submissions.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Quantity  int64   `json:"quantity"`
	Price     float64 `json:"price"`
	Name      string  `json:"name,omitempty"`
}

// PaymentRequest is the shared body for every /payment/* dispatch.
// InstallmentOption is only set for installment payments.
type PaymentRequest struct {
	Amount            float64         `json:"amount"`
	Email             string          `json:"email"`
	PaymentMethod     string          `json:"payment_method"`
	OrderType         string          `json:"order_type"`
	Currency          stripe.Currency `json:"currency,omitempty"`
	CustomerInfo      CustomerInfo    `json:"customer_info"`
	Items             []OrderItem     `json:"items"`
	InstallmentOption string          `json:"installment_option,omitempty"`
}

// InitializeResponse carries the gateway handoff issued by
// /payment/initialize.
type InitializeResponse struct {
	ReferenceNumber string `json:"reference_number"`
	AccessCode      string `json:"access_code"`
}

// PaymentResponse is the acknowledgement for directly settled methods.
type PaymentResponse struct {
	ReferenceNumber string `json:"reference_number"`
}

// InvoiceRequest is the body for /orders/submit in invoice mode.
type InvoiceRequest struct {
	OrderType       string          `json:"order_type"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerPhone   string          `json:"customer_phone,omitempty"`
	ShippingAddress string          `json:"shipping_address"`
	Items           []OrderItem     `json:"items"`
	Amount          float64         `json:"amount"`
	Currency        stripe.Currency `json:"currency,omitempty"`
	Status          string          `json:"status"`
}

// InvoiceResponse acknowledges a submitted invoice request.
type InvoiceResponse struct {
	ReferenceNumber string `json:"reference_number,omitempty"`
	Status          string `json:"status,omitempty"`
}

// PaymentItems converts cart lines to the wire shape. Names are included
// when withNames is set (invoice submissions).
func PaymentItems(items []models.CartItem, withNames bool) []OrderItem {
	out := make([]OrderItem, len(items))
	for i, item := range items {
		out[i] = OrderItem{
			ProductID: item.ID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
		if withNames {
			out[i].Name = item.Name
		}
	}
	return out
}
