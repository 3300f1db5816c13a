package gateway

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// eventSubject is where the platform publishes widget callbacks.
const eventSubject = "payment.gateway.event.>"

// Listener feeds gateway events from the platform message bus into a
// Submitter.
type Listener struct {
	natsConn *nats.Conn
	logger   *zap.Logger
	sub      *nats.Subscription
}

func NewListener(natsConn *nats.Conn, logger *zap.Logger) *Listener {
	return &Listener{
		natsConn: natsConn,
		logger:   logger,
	}
}

// Subscribe starts delivering gateway events to the submitter. Malformed
// messages are logged and dropped.
func (l *Listener) Subscribe(submitter Submitter) error {
	sub, err := l.natsConn.Subscribe(eventSubject, func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			l.logger.Error("Failed to unmarshal gateway event", zap.Error(err))
			return
		}

		submitter.Submit(context.Background(), &event)
	})
	if err != nil {
		return err
	}

	l.sub = sub
	return nil
}

// Close drains the subscription.
func (l *Listener) Close() error {
	if l.sub == nil {
		return nil
	}
	return l.sub.Drain()
}
