// Package realtime provides a typed change-listener abstraction over the
// message broker. Every row-scoped live view in the portal (doctor
// availability, notification inserts) goes through the same Subscribe call
// instead of wiring its own pub/sub loop.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/carebridge/portal-api/pkg/logger"
	"github.com/carebridge/portal-api/pkg/messaging"
)

// Event is a single change notification for one row of one table.
type Event struct {
	Table    string          `json:"table"`
	Key      string          `json:"key"`
	Type     string          `json:"type"`
	NewValue json.RawMessage `json:"new_value"`
	At       time.Time       `json:"at"`
}

// Topic builds the broker channel name for a (table, key) pair.
func Topic(table, key string) string {
	return fmt.Sprintf("changes.%s.%s", table, key)
}

// Subscription is a live change feed. Close must be called when the viewer
// goes away; it releases the underlying broker subscription.
type Subscription struct {
	C      <-chan Event
	cancel context.CancelFunc
}

func (s *Subscription) Close() {
	s.cancel()
}

type Hub struct {
	broker messaging.Broker
	logger *logger.Logger
}

func NewHub(broker messaging.Broker, logger *logger.Logger) *Hub {
	return &Hub{broker: broker, logger: logger}
}

// Publish emits a change event for one row. The payload is whatever the
// caller wants mirrored to viewers, typically the updated column value.
func (h *Hub) Publish(ctx context.Context, table, key, changeType string, newValue interface{}) error {
	payload, err := json.Marshal(newValue)
	if err != nil {
		return fmt.Errorf("failed to marshal change payload: %w", err)
	}

	event := Event{
		Table:    table,
		Key:      key,
		Type:     changeType,
		NewValue: payload,
		At:       time.Now().UTC(),
	}

	return h.broker.Publish(ctx, Topic(table, key), event)
}

// Subscribe opens a change feed scoped to one row. The feed is closed when
// either Close is called or ctx is cancelled; the broker subscription is
// released in both cases.
func (h *Hub) Subscribe(ctx context.Context, table, key string) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)

	raw, err := h.broker.Subscribe(ctx, Topic(table, key))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", Topic(table, key), err)
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		for payload := range raw {
			var event Event
			if err := json.Unmarshal(payload, &event); err != nil {
				h.logger.Error(err, "dropping malformed change event", "topic", Topic(table, key))
				continue
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return &Subscription{C: events, cancel: cancel}, nil
}
