package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/garyjia/mmg-procurement/internal/domain/event"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu      sync.Mutex
	infos   []string
	errors  []string
	entries []map[string]interface{}
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)

	entry := map[string]interface{}{"msg": msg}
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			entry[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
		}
	}
	m.entries = append(m.entries, entry)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)

	entry := map[string]interface{}{"msg": msg, "level": "error"}
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			entry[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
		}
	}
	m.entries = append(m.entries, entry)
}

func (m *mockLogger) InfoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.infos)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func (m *mockLogger) HasInfo(msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, info := range m.infos {
		if info == msg {
			return true
		}
	}
	return false
}

func newEvent(t event.Type) *event.Event {
	return event.NewEvent(t, 1, "IND-001", nil)
}

func noop(ctx context.Context, evt *event.Event) error { return nil }

func TestNewDispatcher(t *testing.T) {
	t.Run("creates dispatcher without logger", func(t *testing.T) {
		if d := NewDispatcher(); d == nil {
			t.Fatal("expected non-nil dispatcher")
		}
	})

	t.Run("creates dispatcher with logger", func(t *testing.T) {
		if d := NewDispatcher(WithLogger(&mockLogger{})); d == nil {
			t.Fatal("expected non-nil dispatcher")
		}
	})
}

func TestSubscribe(t *testing.T) {
	t.Run("runs handlers of the event type in registration order", func(t *testing.T) {
		d := NewDispatcher()
		var order []string

		d.Subscribe(event.TypeBidAdded, "first", func(ctx context.Context, evt *event.Event) error {
			order = append(order, "first")
			return nil
		})
		d.Subscribe(event.TypeBidAdded, "second", func(ctx context.Context, evt *event.Event) error {
			order = append(order, "second")
			return nil
		})

		if err := d.Dispatch(context.Background(), newEvent(event.TypeBidAdded)); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		if len(order) != 2 || order[0] != "first" || order[1] != "second" {
			t.Errorf("order = %v", order)
		}
	})

	t.Run("ignores other event types", func(t *testing.T) {
		d := NewDispatcher()
		called := false

		d.Subscribe(event.TypeProcurementDeleted, "deleted-only", func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})

		if err := d.Dispatch(context.Background(), newEvent(event.TypeProcurementCreated)); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		if called {
			t.Error("handler for another type must not run")
		}
	})

	t.Run("rejects unknown event types", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic for unknown event type")
			}
		}()
		NewDispatcher().Subscribe(event.Type("instance.created"), "legacy", noop)
	})

	t.Run("logs registration", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		d.Subscribe(event.TypeProcurementStatusChanged, "audit-feed", noop)

		if !logger.HasInfo("Handler registered") {
			t.Error("expected registration to be logged")
		}
	})
}

func TestSubscribeAll(t *testing.T) {
	d := NewDispatcher()
	var calls []string

	d.SubscribeAll("audit", func(ctx context.Context, evt *event.Event) error {
		calls = append(calls, "audit:"+evt.Type.String())
		return nil
	})
	d.Subscribe(event.TypePurchaseOrderCreated, "po-mailer", func(ctx context.Context, evt *event.Event) error {
		calls = append(calls, "po-mailer")
		return nil
	})

	for _, typ := range []event.Type{event.TypePurchaseOrderCreated, event.TypeProcurementDeleted} {
		if err := d.Dispatch(context.Background(), newEvent(typ)); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
	}

	want := []string{"po-mailer", "audit:purchase_order.created", "audit:procurement.deleted"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestSubscriptions(t *testing.T) {
	d := NewDispatcher()
	d.Subscribe(event.TypeBidAdded, "bid-notifier", noop)
	d.SubscribeAll("audit", noop)

	subs := d.Subscriptions(event.TypeBidAdded)
	if len(subs) != 2 {
		t.Fatalf("Subscriptions() = %+v, want 2 entries", subs)
	}
	if subs[0].Name != "bid-notifier" || subs[0].EventType != event.TypeBidAdded {
		t.Errorf("subs[0] = %+v", subs[0])
	}
	if subs[1].Name != "audit" || subs[1].EventType != "" {
		t.Errorf("subs[1] = %+v", subs[1])
	}
	if subs[0].handler != nil {
		t.Error("Subscriptions() must not expose handlers")
	}

	if got := d.Subscriptions(event.TypeProcurementCreated); len(got) != 1 {
		t.Errorf("Subscriptions() for a type without handlers = %+v, want only the catch-all", got)
	}
}

func TestDispatch_HandlerErrors(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher(WithLogger(logger))
	errFirst := errors.New("first failed")
	secondCalled := false

	d.Subscribe(event.TypePurchaseOrderCreated, "failing", func(ctx context.Context, evt *event.Event) error {
		return errFirst
	})
	d.Subscribe(event.TypePurchaseOrderCreated, "healthy", func(ctx context.Context, evt *event.Event) error {
		secondCalled = true
		return nil
	})

	err := d.Dispatch(context.Background(), newEvent(event.TypePurchaseOrderCreated))

	if !errors.Is(err, errFirst) {
		t.Errorf("Dispatch() error = %v, want wrapped %v", err, errFirst)
	}
	if !secondCalled {
		t.Error("a failing handler must not stop later handlers")
	}
	if logger.ErrorCount() != 1 {
		t.Errorf("ErrorCount() = %d, want 1", logger.ErrorCount())
	}
}

func TestDispatch_RecoversPanics(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher(WithLogger(logger))
	afterCalled := false

	d.Subscribe(event.TypeProcurementDeleted, "panicky", func(ctx context.Context, evt *event.Event) error {
		panic("handler exploded")
	})
	d.SubscribeAll("after", func(ctx context.Context, evt *event.Event) error {
		afterCalled = true
		return nil
	})

	err := d.Dispatch(context.Background(), newEvent(event.TypeProcurementDeleted))
	if err == nil {
		t.Fatal("expected error from panicking handler")
	}
	if !afterCalled {
		t.Error("a panicking handler must not stop later handlers")
	}
	if logger.ErrorCount() != 1 {
		t.Errorf("ErrorCount() = %d, want 1", logger.ErrorCount())
	}
}

func TestDispatch_InvalidEvents(t *testing.T) {
	d := NewDispatcher()

	if err := d.Dispatch(context.Background(), nil); err == nil {
		t.Error("Dispatch(nil) should fail")
	}
	if err := d.Dispatch(context.Background(), newEvent(event.Type("procurement.archived"))); err == nil {
		t.Error("Dispatch() of an unknown type should fail")
	}
}

func TestDispatch_ConcurrentSubscribe(t *testing.T) {
	d := NewDispatcher()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			d.Subscribe(event.TypeBidAdded, fmt.Sprintf("h-%d", i), noop)
		}(i)
		go func() {
			defer wg.Done()
			_ = d.Dispatch(context.Background(), newEvent(event.TypeBidAdded))
		}()
	}
	wg.Wait()

	if got := len(d.Subscriptions(event.TypeBidAdded)); got != 20 {
		t.Errorf("Subscriptions() = %d handlers, want 20", got)
	}
}

func TestClose(t *testing.T) {
	d := NewDispatcher()

	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := d.Close(); err == nil {
		t.Error("second Close() should fail")
	}
	if err := d.Dispatch(context.Background(), newEvent(event.TypeProcurementCreated)); !errors.Is(err, ErrClosed) {
		t.Errorf("Dispatch() after Close() error = %v, want ErrClosed", err)
	}
}
