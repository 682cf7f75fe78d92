package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/service"
)

const publishTimeout = 5 * time.Second

// NotificationWorker takes ticket events off the request path. Events are
// queued by the dispatcher and forwarded one at a time; when the queue is full
// new events are dropped and logged.
type NotificationWorker struct {
	notifier *service.NotificationService
	logger   *zap.Logger

	mu     sync.Mutex
	closed bool
	queue  chan events.Event
	done   chan struct{}
}

// StartNotificationWorker subscribes to every ticket event and starts the
// delivery goroutine.
func StartNotificationWorker(dispatcher events.Dispatcher, notifier *service.NotificationService, logger *zap.Logger, queueSize int) *NotificationWorker {
	if queueSize <= 0 {
		queueSize = 1
	}
	w := &NotificationWorker{
		notifier: notifier,
		logger:   logger,
		queue:    make(chan events.Event, queueSize),
		done:     make(chan struct{}),
	}
	for _, eventType := range events.TicketEvents {
		dispatcher.Subscribe(eventType, w.enqueue)
	}
	go w.run()
	return w
}

func (w *NotificationWorker) enqueue(_ context.Context, event events.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("notification queue full; dropping event",
			zap.String("type", string(event.Type)),
			zap.String("ticket_id", event.TicketID))
	}
	return nil
}

func (w *NotificationWorker) run() {
	defer close(w.done)
	for event := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		w.notifier.Forward(ctx, event)
		cancel()
	}
}

// Stop refuses further events and waits for the queue to drain or ctx to end.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
