package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/mmg-procurement/internal/domain/event"
)

// ErrClosed is returned by Dispatch after Close
var ErrClosed = errors.New("dispatcher is closed")

// Dispatcher delivers committed procurement events to subscribers on the caller's goroutine
type Dispatcher interface {
	// Subscribe registers a named handler for one event type
	Subscribe(eventType event.Type, name string, handler Handler)

	// SubscribeAll registers a named handler that receives every event type.
	// Catch-all handlers run after the handlers of the specific type.
	SubscribeAll(name string, handler Handler)

	// Dispatch runs every matching subscription in registration order.
	// A failing or panicking handler does not stop the others; failures are joined.
	Dispatch(ctx context.Context, evt *event.Event) error

	// Subscriptions lists what would receive an event of the given type, in delivery order
	Subscriptions(eventType event.Type) []Subscription

	// Close stops accepting events
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// eventDispatcher is the concrete implementation of Dispatcher
type eventDispatcher struct {
	mu       sync.RWMutex
	byType   map[event.Type][]Subscription
	catchAll []Subscription
	logger   Logger
	closed   atomic.Bool
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		byType: make(map[event.Type][]Subscription),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *eventDispatcher) Subscribe(eventType event.Type, name string, handler Handler) {
	if !eventType.IsValid() {
		panic(fmt.Sprintf("dispatcher: cannot subscribe %q to unknown event type %q", name, eventType))
	}

	d.mu.Lock()
	d.byType[eventType] = append(d.byType[eventType], Subscription{
		Name:      name,
		EventType: eventType,
		handler:   handler,
	})
	d.mu.Unlock()

	d.logInfo("Handler registered", "event_type", eventType, "handler_name", name)
}

func (d *eventDispatcher) SubscribeAll(name string, handler Handler) {
	d.mu.Lock()
	d.catchAll = append(d.catchAll, Subscription{Name: name, handler: handler})
	d.mu.Unlock()

	d.logInfo("Handler registered", "event_type", "*", "handler_name", name)
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	if d.closed.Load() {
		return ErrClosed
	}
	if evt == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if !evt.Type.IsValid() {
		return fmt.Errorf("unknown event type %q", evt.Type)
	}

	subs := d.matching(evt.Type)
	d.logInfo("Dispatching event",
		"event_type", evt.Type,
		"event_id", evt.ID,
		"procurement_id", evt.ProcurementID,
		"handler_count", len(subs),
	)

	var errs []error
	for _, sub := range subs {
		if err := d.run(ctx, evt, sub); err != nil {
			d.logError("Handler error",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"handler_name", sub.Name,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("handler %s failed: %w", sub.Name, err))
		}
	}

	return errors.Join(errs...)
}

func (d *eventDispatcher) Subscriptions(eventType event.Type) []Subscription {
	subs := d.matching(eventType)
	for i := range subs {
		subs[i].handler = nil
	}
	return subs
}

func (d *eventDispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("dispatcher already closed")
	}
	d.logInfo("Dispatcher closed")
	return nil
}

// matching copies the subscriptions for eventType so handlers run without the lock held
func (d *eventDispatcher) matching(eventType event.Type) []Subscription {
	d.mu.RLock()
	defer d.mu.RUnlock()

	subs := make([]Subscription, 0, len(d.byType[eventType])+len(d.catchAll))
	subs = append(subs, d.byType[eventType]...)
	subs = append(subs, d.catchAll...)
	return subs
}

// run executes one handler, turning a panic into an error
func (d *eventDispatcher) run(ctx context.Context, evt *event.Event, sub Subscription) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return sub.handler(ctx, evt)
}

func (d *eventDispatcher) logInfo(msg string, keysAndValues ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, keysAndValues...)
	}
}

func (d *eventDispatcher) logError(msg string, keysAndValues ...interface{}) {
	if d.logger != nil {
		d.logger.Error(msg, keysAndValues...)
	}
}
