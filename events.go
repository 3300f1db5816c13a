package checkout

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"myaje.io/checkout/gateway"
)

// EventHandler reacts to one gateway event type.
type EventHandler func(context.Context, *gateway.Event) error

// EventManager routes gateway events to their handlers.
type EventManager struct {
	handlers map[gateway.EventType]EventHandler
	logger   *zap.Logger
}

func NewEventManager(logger *zap.Logger) *EventManager {
	return &EventManager{
		handlers: make(map[gateway.EventType]EventHandler),
		logger:   logger,
	}
}

func (em *EventManager) RegisterHandler(eventType gateway.EventType, handler EventHandler) {
	em.handlers[eventType] = handler
}

func (em *EventManager) GetHandler(eventType gateway.EventType) (EventHandler, bool) {
	handler, exists := em.handlers[eventType]
	return handler, exists
}

func (s *Service) registerEventHandlers() {
	s.events.RegisterHandler(gateway.EventSuccess, s.handleGatewaySuccess)
	s.events.RegisterHandler(gateway.EventClosed, s.handleGatewayClosed)
}

// ProcessEvent dispatches a gateway event to its registered handler. It
// implements EventProcessor for the worker pool.
func (s *Service) ProcessEvent(ctx context.Context, event *gateway.Event) error {
	handler, exists := s.events.GetHandler(event.Event)
	if !exists {
		return fmt.Errorf("no handler registered for gateway event type: %s", event.Event)
	}

	if err := handler(ctx, event); err != nil {
		s.logger.Error("Failed to handle gateway event",
			zap.String("event_type", string(event.Event)),
			zap.String("reference", event.Data.Reference),
			zap.Error(err))
		return err
	}

	return nil
}
