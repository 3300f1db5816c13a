package enum

// CheckoutState tracks a single checkout attempt.
type CheckoutState string

const (
	CheckoutStateIdle            CheckoutState = "idle"
	CheckoutStateValidating      CheckoutState = "validating"
	CheckoutStateDispatching     CheckoutState = "dispatching"
	CheckoutStateSubmitting      CheckoutState = "submitting"
	CheckoutStateAwaitingGateway CheckoutState = "awaiting_gateway"
	CheckoutStateConfirmed       CheckoutState = "confirmed"
	CheckoutStateFailed          CheckoutState = "failed"
)
