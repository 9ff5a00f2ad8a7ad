package doctor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/portal-api/internal/model"
	"github.com/carebridge/portal-api/internal/repository"
	apperrors "github.com/carebridge/portal-api/pkg/errors"
	"github.com/carebridge/portal-api/pkg/logger"
	"github.com/carebridge/portal-api/pkg/realtime"
)

type fakeDoctorRepo struct {
	profiles map[uuid.UUID]*model.DoctorProfile
}

func (f *fakeDoctorRepo) Upsert(ctx context.Context, profile *model.DoctorProfile) error {
	stored, ok := f.profiles[profile.UserID]
	if !ok {
		profile.ID = uuid.New()
		profile.AvailabilityStatus = model.AvailabilityActive
		f.profiles[profile.UserID] = profile
		return nil
	}
	stored.Specialty = profile.Specialty
	stored.LicenseNumber = profile.LicenseNumber
	stored.WorkingHours = profile.WorkingHours
	stored.Bio = profile.Bio
	return nil
}

func (f *fakeDoctorRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.DoctorProfile, error) {
	profile, ok := f.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return profile, nil
}

func (f *fakeDoctorRepo) UpdateAvailability(ctx context.Context, userID uuid.UUID, status string) (*model.DoctorProfile, error) {
	profile, ok := f.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	profile.AvailabilityStatus = status
	return profile, nil
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

func newTestService(broker *recordingBroker) (*Service, *fakeDoctorRepo) {
	repo := &fakeDoctorRepo{profiles: make(map[uuid.UUID]*model.DoctorProfile)}
	log := logger.NewLogger(nil)
	return NewService(repo, realtime.NewHub(broker, log), log), repo
}

func seedDoctor(repo *fakeDoctorRepo) uuid.UUID {
	userID := uuid.New()
	repo.profiles[userID] = &model.DoctorProfile{
		ID:                 uuid.New(),
		UserID:             userID,
		Specialty:          "cardiology",
		AvailabilityStatus: model.AvailabilityActive,
	}
	return userID
}

func TestSetAvailabilityInvalidStatus(t *testing.T) {
	svc, repo := newTestService(newRecordingBroker())
	userID := seedDoctor(repo)

	_, err := svc.SetAvailability(context.Background(), userID, "on-call")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))
	assert.Equal(t, model.AvailabilityActive, repo.profiles[userID].AvailabilityStatus)
}

func TestSetAvailabilityUnknownDoctor(t *testing.T) {
	svc, _ := newTestService(newRecordingBroker())

	_, err := svc.SetAvailability(context.Background(), uuid.New(), model.AvailabilityAway)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestToggleTwicePublishesBothStates(t *testing.T) {
	broker := newRecordingBroker()
	svc, repo := newTestService(broker)
	userID := seedDoctor(repo)

	away, err := svc.SetAvailability(context.Background(), userID, model.AvailabilityAway)
	require.NoError(t, err)
	assert.Equal(t, model.AvailabilityAway, away.AvailabilityStatus)

	back, err := svc.SetAvailability(context.Background(), userID, model.AvailabilityActive)
	require.NoError(t, err)
	assert.Equal(t, model.AvailabilityActive, back.AvailabilityStatus)

	// Each confirmed write produced its own change event, in order.
	topic := realtime.Topic(ChangeTable, userID.String())
	require.Len(t, broker.published[topic], 2)

	statuses := make([]string, 0, 2)
	for _, payload := range broker.published[topic] {
		var event realtime.Event
		require.NoError(t, json.Unmarshal(payload, &event))

		var change map[string]string
		require.NoError(t, json.Unmarshal(event.NewValue, &change))
		statuses = append(statuses, change["availability_status"])
	}
	assert.Equal(t, []string{model.AvailabilityAway, model.AvailabilityActive}, statuses)
}

func TestSetAvailabilitySurvivesPublishFailure(t *testing.T) {
	broker := newRecordingBroker()
	broker.err = assert.AnError
	svc, repo := newTestService(broker)
	userID := seedDoctor(repo)

	// The write is confirmed even when live mirroring is down.
	profile, err := svc.SetAvailability(context.Background(), userID, model.AvailabilityAway)
	require.NoError(t, err)
	assert.Equal(t, model.AvailabilityAway, profile.AvailabilityStatus)
	assert.Equal(t, model.AvailabilityAway, repo.profiles[userID].AvailabilityStatus)
}

func TestUpsertThenGet(t *testing.T) {
	svc, _ := newTestService(newRecordingBroker())
	userID := uuid.New()

	profile, err := svc.Upsert(context.Background(), userID, &model.UpsertDoctorProfileRequest{
		Specialty:     "dermatology",
		LicenseNumber: "LIC-123",
	})
	require.NoError(t, err)
	assert.Equal(t, "dermatology", profile.Specialty)

	got, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "LIC-123", got.LicenseNumber)
}
