package invitation

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/portal-api/internal/model"
	"github.com/carebridge/portal-api/internal/repository"
	apperrors "github.com/carebridge/portal-api/pkg/errors"
	"github.com/carebridge/portal-api/pkg/logger"
)

type fakeInvitationRepo struct {
	byToken    map[string]*model.Invitation
	acceptErr  error
	accepted   []string
	revokeErr  error
	createdInv *model.Invitation
}

func (f *fakeInvitationRepo) Create(ctx context.Context, invitation *model.Invitation) error {
	invitation.ID = uuid.New()
	f.createdInv = invitation
	return nil
}

func (f *fakeInvitationRepo) GetByToken(ctx context.Context, token string) (*model.Invitation, error) {
	invitation, ok := f.byToken[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return invitation, nil
}

func (f *fakeInvitationRepo) Accept(ctx context.Context, token string, staff *model.StaffRecord) error {
	if f.acceptErr != nil {
		return f.acceptErr
	}
	f.accepted = append(f.accepted, token)
	return nil
}

func (f *fakeInvitationRepo) Revoke(ctx context.Context, token string) error {
	return f.revokeErr
}

func (f *fakeInvitationRepo) ListByPractice(ctx context.Context, practiceID uuid.UUID) ([]*model.Invitation, error) {
	return nil, nil
}

func (f *fakeInvitationRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type fakePractices struct {
	admin    bool
	practice *model.Practice
}

func (f *fakePractices) Create(ctx context.Context, req *model.CreatePracticeRequest, ownerID uuid.UUID) (*model.Practice, error) {
	return nil, nil
}

func (f *fakePractices) Get(ctx context.Context, id uuid.UUID) (*model.Practice, error) {
	return f.practice, nil
}

func (f *fakePractices) Update(ctx context.Context, id uuid.UUID, req *model.UpdatePracticeRequest, actorID uuid.UUID) (*model.Practice, error) {
	return nil, nil
}

func (f *fakePractices) List(ctx context.Context, search string) ([]*model.Practice, error) {
	return nil, nil
}

func (f *fakePractices) ListStaff(ctx context.Context, practiceID uuid.UUID) ([]*model.StaffRecord, error) {
	return nil, nil
}

func (f *fakePractices) IsAdmin(ctx context.Context, practiceID, userID uuid.UUID) (bool, error) {
	return f.admin, nil
}

type fakeOutbox struct {
	err    error
	events []*model.OutboxEvent
}

func (f *fakeOutbox) Create(ctx context.Context, event *model.OutboxEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutbox) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutbox) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error {
	return nil
}

type fakeNotifier struct {
	sent []*model.Notification
}

func (f *fakeNotifier) Feed(ctx context.Context, userID uuid.UUID) (*model.NotificationFeed, error) {
	return nil, nil
}

func (f *fakeNotifier) MarkRead(ctx context.Context, id, userID uuid.UUID) (int, error) {
	return 0, nil
}

func (f *fakeNotifier) Notify(ctx context.Context, notification *model.Notification) error {
	f.sent = append(f.sent, notification)
	return nil
}

func newTestService(repo *fakeInvitationRepo, practices *fakePractices, outbox *fakeOutbox, notifier *fakeNotifier) *Service {
	if practices.practice == nil {
		practices.practice = &model.Practice{Name: "Lakeside Family Medicine"}
		practices.practice.ID = uuid.New()
	}
	return NewService(repo, practices, outbox, notifier, "https://portal.example", logger.NewLogger(nil))
}

func TestCreateRequiresAdmin(t *testing.T) {
	svc := newTestService(&fakeInvitationRepo{}, &fakePractices{admin: false}, &fakeOutbox{}, &fakeNotifier{})

	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), &model.CreateInvitationRequest{
		Email: "nurse@example.com",
		Role:  "nurse",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))
}

func TestCreateQueuesEmail(t *testing.T) {
	repo := &fakeInvitationRepo{}
	outbox := &fakeOutbox{}
	svc := newTestService(repo, &fakePractices{admin: true}, outbox, &fakeNotifier{})

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	result, err := svc.Create(context.Background(), uuid.New(), uuid.New(), &model.CreateInvitationRequest{
		Email: " Nurse@Example.com ",
		Role:  "nurse",
	})
	require.NoError(t, err)
	assert.True(t, result.EmailQueued)

	// Address is normalized and the expiry is a week out.
	assert.Equal(t, "nurse@example.com", result.Invitation.Email)
	assert.Equal(t, start.Add(model.InvitationTTL), result.Invitation.ExpiresAt)
	assert.Equal(t, model.InvitationStatusPending, result.Invitation.Status)

	require.Len(t, outbox.events, 1)
	assert.Equal(t, model.EventInvitationCreated, outbox.events[0].EventType)

	var email model.InvitationEmail
	require.NoError(t, json.Unmarshal(outbox.events[0].Payload, &email))
	assert.Equal(t, "https://portal.example/accept-invitation?token="+result.Invitation.Token, email.AcceptURL)
	assert.Equal(t, "Lakeside Family Medicine", email.PracticeName)
}

func TestCreateSucceedsWhenEmailQueueFails(t *testing.T) {
	repo := &fakeInvitationRepo{}
	outbox := &fakeOutbox{err: assert.AnError}
	svc := newTestService(repo, &fakePractices{admin: true}, outbox, &fakeNotifier{})

	result, err := svc.Create(context.Background(), uuid.New(), uuid.New(), &model.CreateInvitationRequest{
		Email: "nurse@example.com",
		Role:  "nurse",
	})
	require.NoError(t, err)
	assert.False(t, result.EmailQueued)
	assert.NotNil(t, repo.createdInv)
}

func pendingInvitation(email string, expiresAt time.Time) *model.Invitation {
	return &model.Invitation{
		ID:         uuid.New(),
		PracticeID: uuid.New(),
		InviterID:  uuid.New(),
		Email:      email,
		Role:       "nurse",
		Token:      "tok-1",
		Status:     model.InvitationStatusPending,
		ExpiresAt:  expiresAt,
	}
}

func TestAcceptEmailMismatch(t *testing.T) {
	repo := &fakeInvitationRepo{byToken: map[string]*model.Invitation{
		"tok-1": pendingInvitation("invited@example.com", time.Now().Add(time.Hour)),
	}}
	svc := newTestService(repo, &fakePractices{}, &fakeOutbox{}, &fakeNotifier{})

	err := svc.Accept(context.Background(), "tok-1", uuid.New(), "someone-else@example.com")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))
	assert.Empty(t, repo.accepted)
}

func TestAcceptCaseInsensitiveEmail(t *testing.T) {
	repo := &fakeInvitationRepo{byToken: map[string]*model.Invitation{
		"tok-1": pendingInvitation("invited@example.com", time.Now().Add(time.Hour)),
	}}
	notifier := &fakeNotifier{}
	svc := newTestService(repo, &fakePractices{}, &fakeOutbox{}, notifier)

	err := svc.Accept(context.Background(), "tok-1", uuid.New(), "Invited@Example.COM")
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-1"}, repo.accepted)

	// The inviter hears about it.
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, model.NotificationTypeInvitationAccepted, notifier.sent[0].Type)
}

func TestAcceptExpired(t *testing.T) {
	repo := &fakeInvitationRepo{byToken: map[string]*model.Invitation{
		"tok-1": pendingInvitation("invited@example.com", time.Now().Add(-time.Minute)),
	}}
	svc := newTestService(repo, &fakePractices{}, &fakeOutbox{}, &fakeNotifier{})

	err := svc.Accept(context.Background(), "tok-1", uuid.New(), "invited@example.com")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnprocessable))
	assert.Empty(t, repo.accepted)
}

func TestAcceptSecondUseFailsClosed(t *testing.T) {
	// The read sees pending but the guarded update loses the race.
	repo := &fakeInvitationRepo{
		byToken: map[string]*model.Invitation{
			"tok-1": pendingInvitation("invited@example.com", time.Now().Add(time.Hour)),
		},
		acceptErr: repository.ErrStale,
	}
	notifier := &fakeNotifier{}
	svc := newTestService(repo, &fakePractices{}, &fakeOutbox{}, notifier)

	err := svc.Accept(context.Background(), "tok-1", uuid.New(), "invited@example.com")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
	assert.Empty(t, notifier.sent)
}

func TestAcceptAlreadyRevoked(t *testing.T) {
	invitation := pendingInvitation("invited@example.com", time.Now().Add(time.Hour))
	invitation.Status = model.InvitationStatusRevoked
	repo := &fakeInvitationRepo{byToken: map[string]*model.Invitation{"tok-1": invitation}}
	svc := newTestService(repo, &fakePractices{}, &fakeOutbox{}, &fakeNotifier{})

	err := svc.Accept(context.Background(), "tok-1", uuid.New(), "invited@example.com")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestGetMasksInvitedEmail(t *testing.T) {
	repo := &fakeInvitationRepo{byToken: map[string]*model.Invitation{
		"tok-1": pendingInvitation("invited@example.com", time.Now().Add(time.Hour)),
	}}
	svc := newTestService(repo, &fakePractices{}, &fakeOutbox{}, &fakeNotifier{})

	view, err := svc.Get(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "i***@example.com", view.Email)
	assert.Equal(t, "Lakeside Family Medicine", view.PracticeName)
	assert.Equal(t, model.InvitationStatusPending, view.Status)
}

func TestGetExpiredPending(t *testing.T) {
	repo := &fakeInvitationRepo{byToken: map[string]*model.Invitation{
		"tok-1": pendingInvitation("invited@example.com", time.Now().Add(-time.Minute)),
	}}
	svc := newTestService(repo, &fakePractices{}, &fakeOutbox{}, &fakeNotifier{})

	_, err := svc.Get(context.Background(), "tok-1")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnprocessable))
}

func TestRevokeByNonInviterNonAdmin(t *testing.T) {
	repo := &fakeInvitationRepo{byToken: map[string]*model.Invitation{
		"tok-1": pendingInvitation("invited@example.com", time.Now().Add(time.Hour)),
	}}
	svc := newTestService(repo, &fakePractices{admin: false}, &fakeOutbox{}, &fakeNotifier{})

	err := svc.Revoke(context.Background(), "tok-1", uuid.New())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrForbidden))
}
