package models

import (
	"time"

	"myaje.io/checkout/models/enum"
)

// CheckoutForm holds the customer details for one checkout attempt. It is
// scoped to the session and discarded when the session closes.
type CheckoutForm struct {
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone,omitempty"`
	ShippingAddress string `json:"shipping_address"`
}

// CheckoutSelection is the chosen mode, payment method and sub-option.
// SubOption is only meaningful for bnpl and installment.
type CheckoutSelection struct {
	Mode      enum.CheckoutMode  `json:"mode"`
	Method    enum.PaymentMethod `json:"payment_method"`
	SubOption enum.SubOption     `json:"sub_option,omitempty"`
}

// Confirmation records a completed checkout. For invoice requests the
// session stays open so the user can review it.
type Confirmation struct {
	Reference   string            `json:"reference"`
	Mode        enum.CheckoutMode `json:"mode"`
	Total       float64           `json:"total"`
	SubmittedAt time.Time         `json:"submitted_at"`
}
