package dispatcher

import (
	"context"

	"github.com/garyjia/mmg-procurement/internal/domain/event"
)

// Handler reacts to a committed procurement event. Its error is reported, never rolled back.
type Handler func(ctx context.Context, evt *event.Event) error

// Subscription describes one registered handler.
// EventType is empty for catch-all subscriptions.
type Subscription struct {
	Name      string
	EventType event.Type
	handler   Handler
}
