package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/portal-api/internal/model"
	"github.com/carebridge/portal-api/pkg/logger"
)

type fakeOutboxRepo struct {
	pending []*model.OutboxEvent
	updates []statusUpdate
}

type statusUpdate struct {
	id      uuid.UUID
	status  model.OutboxStatus
	message *string
	retryAt *time.Time
}

func (f *fakeOutboxRepo) Create(ctx context.Context, event *model.OutboxEvent) error {
	return nil
}

func (f *fakeOutboxRepo) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeOutboxRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error {
	f.updates = append(f.updates, statusUpdate{id: id, status: status, message: errorMessage, retryAt: retryAt})
	return nil
}

type recordingBroker struct {
	published map[string][][]byte
	err       error
}

func newRecordingBroker() *recordingBroker {
	return &recordingBroker{published: make(map[string][][]byte)}
}

func (b *recordingBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	if b.err != nil {
		return b.err
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	b.published[channel] = append(b.published[channel], payload)
	return nil
}

func (b *recordingBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (b *recordingBroker) Close() error { return nil }

func invitationEvent(retryCount int) *model.OutboxEvent {
	return &model.OutboxEvent{
		ID:         uuid.New(),
		EventType:  model.EventInvitationCreated,
		Payload:    json.RawMessage(`{"email":"nurse@example.com","accept_url":"https://portal.example/accept-invitation?token=t"}`),
		Status:     model.OutboxStatusPending,
		RetryCount: retryCount,
	}
}

func TestProcessBatchPublishesAndMarksProcessed(t *testing.T) {
	event := invitationEvent(0)
	repo := &fakeOutboxRepo{pending: []*model.OutboxEvent{event}}
	broker := newRecordingBroker()

	p := NewOutboxProcessor(repo, broker, OutboxConfig{}, nil, logger.NewLogger(nil))
	require.NoError(t, p.processBatch(context.Background()))

	// The payload rides the channel named after the event type.
	require.Len(t, broker.published[model.EventInvitationCreated], 1)
	assert.JSONEq(t, string(event.Payload), string(broker.published[model.EventInvitationCreated][0]))

	require.Len(t, repo.updates, 1)
	assert.Equal(t, event.ID, repo.updates[0].id)
	assert.Equal(t, model.OutboxStatusProcessed, repo.updates[0].status)
}

func TestProcessSchedulesRetryOnPublishFailure(t *testing.T) {
	event := invitationEvent(0)
	repo := &fakeOutboxRepo{pending: []*model.OutboxEvent{event}}
	broker := newRecordingBroker()
	broker.err = assert.AnError

	p := NewOutboxProcessor(repo, broker, OutboxConfig{RetryAttempts: 3, RetryDelay: time.Minute}, nil, logger.NewLogger(nil))
	require.NoError(t, p.processBatch(context.Background()))

	require.Len(t, repo.updates, 1)
	assert.Equal(t, model.OutboxStatusRetry, repo.updates[0].status)
	require.NotNil(t, repo.updates[0].retryAt)
	assert.WithinDuration(t, time.Now().Add(time.Minute), *repo.updates[0].retryAt, 5*time.Second)
}

func TestProcessParksEventAfterRetryBudget(t *testing.T) {
	event := invitationEvent(2)
	repo := &fakeOutboxRepo{pending: []*model.OutboxEvent{event}}
	broker := newRecordingBroker()
	broker.err = assert.AnError

	p := NewOutboxProcessor(repo, broker, OutboxConfig{RetryAttempts: 3}, nil, logger.NewLogger(nil))
	require.NoError(t, p.processBatch(context.Background()))

	require.Len(t, repo.updates, 1)
	assert.Equal(t, model.OutboxStatusFailed, repo.updates[0].status)
	require.NotNil(t, repo.updates[0].message)
}
