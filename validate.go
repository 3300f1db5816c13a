package checkout

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"myaje.io/checkout/models"
	"myaje.io/checkout/models/enum"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// validateCheckout runs the submission rules in a fixed order; the first
// failure wins. Restricted methods additionally require authentication, an
// active bank account, loan headroom (borrow), and a sub-option (bnpl,
// installment).
func validateCheckout(
	form models.CheckoutForm,
	sel models.CheckoutSelection,
	eligibility models.Eligibility,
	total float64,
	user *models.Identity,
) error {
	if strings.TrimSpace(form.CustomerName) == "" {
		return &ValidationError{Field: "customer_name", Message: "name is required"}
	}

	email := strings.TrimSpace(form.CustomerEmail)
	if email == "" {
		return &ValidationError{Field: "customer_email", Message: "email is required"}
	}
	if !emailPattern.MatchString(email) {
		return &ValidationError{Field: "customer_email", Message: "invalid email format"}
	}

	if strings.TrimSpace(form.ShippingAddress) == "" {
		return &ValidationError{Field: "shipping_address", Message: "shipping address is required"}
	}

	if sel.Mode != enum.CheckoutModePayment {
		return nil
	}

	if sel.Method.RequiresAccount() {
		if !user.Authenticated() {
			return &ValidationError{Field: "payment_method", Message: "must be logged in for this payment method"}
		}
		if !eligibility.HasActiveBank {
			return &ValidationError{Field: "payment_method", Message: "active bank account required for this payment method"}
		}
	}

	if sel.Method == enum.PaymentMethodBorrow && total > eligibility.MaxLoanAmount {
		return &ValidationError{
			Field: "payment_method",
			Message: fmt.Sprintf("not eligible for loan amount, maximum eligible amount: ₦%s",
				strconv.FormatFloat(eligibility.MaxLoanAmount, 'f', -1, 64)),
		}
	}

	if sel.Method.RequiresSubOption() && sel.SubOption == "" {
		return &ValidationError{Field: "sub_option", Message: "select a payment option"}
	}

	return nil
}
