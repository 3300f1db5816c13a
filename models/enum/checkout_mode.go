package enum

// CheckoutMode distinguishes paying now from requesting an invoice.
type CheckoutMode string

const (
	CheckoutModePayment CheckoutMode = "payment"
	CheckoutModeInvoice CheckoutMode = "invoice"
)
