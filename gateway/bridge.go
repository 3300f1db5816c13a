// Package gateway carries the asynchronous payment-widget events back into
// the checkout controller. The widget reports either success or that the
// user closed it; both arrive out-of-band after control left the session.
package gateway

import "context"

// EventType is the widget outcome.
type EventType string

const (
	// EventSuccess means the widget completed the transaction. It must
	// still be verified server-side before the checkout is confirmed.
	EventSuccess EventType = "success"

	// EventClosed means the user abandoned the widget. Not an error: the
	// session returns to idle with the cart untouched.
	EventClosed EventType = "closed"
)

// EventData identifies the transaction the event belongs to.
type EventData struct {
	Reference string `json:"reference"`
	Status    string `json:"status,omitempty"`
}

// Event is one widget message. Consumers must not assume exactly one event
// per transaction; duplicates happen and are ignored once confirmed.
type Event struct {
	Event EventType `json:"event"`
	Data  EventData `json:"data"`
}

// Submitter accepts gateway events for asynchronous processing. The
// checkout worker pool implements it.
type Submitter interface {
	Submit(ctx context.Context, event *Event)
}
