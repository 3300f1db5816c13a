package checkout

import (
	"errors"
	"fmt"

	"myaje.io/checkout/models/enum"
)

// ErrSessionClosed is returned when an operation reaches a session that has
// already been closed or superseded. Late network results are discarded
// with this error rather than leaking into a fresh session.
var ErrSessionClosed = errors.New("checkout: session closed")

// ErrEmptyCart rejects a submission with nothing in the cart.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// ValidationError is a form or business-rule failure. It is shown inline
// and never reaches the network layer.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// AuthRequiredError is raised when a restricted payment method is selected
// while signed out. It is a prompt to create an account, not a validation
// banner.
type AuthRequiredError struct {
	Method enum.PaymentMethod
}

func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf("an account is required to pay with %s", e.Method)
}
