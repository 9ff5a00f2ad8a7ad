package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/portal-api/pkg/logger"
)

// fakeBroker is an in-process broker for tests: channels fan out to every
// subscriber and close when the subscriber's context ends.
type fakeBroker struct {
	mu   sync.Mutex
	subs map[string][]chan []byte
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{subs: make(map[string][]chan []byte)}
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[channel] {
		ch <- payload
	}
	return nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte, 16)

	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		remaining := b.subs[channel][:0]
		for _, sub := range b.subs[channel] {
			if sub != ch {
				remaining = append(remaining, sub)
			}
		}
		b.subs[channel] = remaining
		close(ch)
	}()

	return ch, nil
}

func (b *fakeBroker) Close() error { return nil }

func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub(newFakeBroker(), logger.NewLogger(nil))

	sub, err := hub.Subscribe(context.Background(), "doctor_status", "doc-1")
	require.NoError(t, err)
	defer sub.Close()

	err = hub.Publish(context.Background(), "doctor_status", "doc-1", "update",
		map[string]string{"availability_status": "away"})
	require.NoError(t, err)

	select {
	case event := <-sub.C:
		assert.Equal(t, "doctor_status", event.Table)
		assert.Equal(t, "doc-1", event.Key)
		assert.Equal(t, "update", event.Type)

		var value map[string]string
		require.NoError(t, json.Unmarshal(event.NewValue, &value))
		assert.Equal(t, "away", value["availability_status"])
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

func TestHubSubscriptionScopedToKey(t *testing.T) {
	hub := NewHub(newFakeBroker(), logger.NewLogger(nil))

	sub, err := hub.Subscribe(context.Background(), "doctor_status", "doc-1")
	require.NoError(t, err)
	defer sub.Close()

	// A change to a different row never reaches this subscription.
	require.NoError(t, hub.Publish(context.Background(), "doctor_status", "doc-2", "update",
		map[string]string{"availability_status": "away"}))

	select {
	case event := <-sub.C:
		t.Fatalf("unexpected event for key %s", event.Key)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubClose(t *testing.T) {
	hub := NewHub(newFakeBroker(), logger.NewLogger(nil))

	sub, err := hub.Subscribe(context.Background(), "notifications", "user-1")
	require.NoError(t, err)

	sub.Close()

	select {
	case _, open := <-sub.C:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("subscription channel not closed")
	}
}
