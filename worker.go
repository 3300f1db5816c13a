package checkout

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"myaje.io/checkout/gateway"
)

// EventProcessor consumes gateway events. The checkout Service implements
// it.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, event *gateway.Event) error
}

var _ gateway.Submitter = (*WorkerPool)(nil)

// WorkerPool processes gateway events off the delivery goroutine so a slow
// verification call never blocks the message bus.
type WorkerPool struct {
	tasks     chan func()
	wg        sync.WaitGroup
	logger    *zap.Logger
	processor EventProcessor
}

func NewWorkerPool(size int, processor EventProcessor, logger *zap.Logger) *WorkerPool {
	wp := &WorkerPool{
		tasks:     make(chan func(), 1000),
		logger:    logger,
		processor: processor,
	}

	wp.wg.Add(size)
	for i := 0; i < size; i++ {
		go wp.worker()
	}

	return wp
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for task := range wp.tasks {
		task()
	}
}

// Submit queues one gateway event for processing.
func (wp *WorkerPool) Submit(ctx context.Context, event *gateway.Event) {
	wp.tasks <- func() {
		if err := wp.processor.ProcessEvent(ctx, event); err != nil {
			wp.logger.Error("Failed to process gateway event",
				zap.Error(err),
				zap.String("event_type", string(event.Event)),
				zap.String("reference", event.Data.Reference))
		}
	}
}

// Shutdown stops accepting tasks and waits for in-flight ones. Submit after
// Shutdown panics; stop the gateway listener first.
func (wp *WorkerPool) Shutdown() {
	close(wp.tasks)
	wp.wg.Wait()
}
