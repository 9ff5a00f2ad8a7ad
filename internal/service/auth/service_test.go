package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/carebridge/portal-api/internal/model"
	"github.com/carebridge/portal-api/internal/repository"
	pkgauth "github.com/carebridge/portal-api/pkg/auth"
	apperrors "github.com/carebridge/portal-api/pkg/errors"
	"github.com/carebridge/portal-api/pkg/logger"
)

type fakeUserRepo struct {
	byEmail   map[string]*model.User
	createErr error
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	user.ID = uuid.New()
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	for _, user := range f.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	f.byEmail[user.Email] = user
	return nil
}

func newTestService(repo *fakeUserRepo) *Service {
	jwtSvc := pkgauth.NewJWTService(pkgauth.Config{
		Secret:        "test-secret",
		RefreshSecret: "test-refresh-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
	})
	return NewService(repo, jwtSvc, logger.NewLogger(nil))
}

func seedUser(t *testing.T, repo *fakeUserRepo, email, password string) *model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &model.User{
		Email:        email,
		Name:         "Test User",
		PasswordHash: string(hash),
		Type:         model.UserTypeDoctor,
		Status:       model.UserStatusActive,
	}
	user.ID = uuid.New()
	repo.byEmail[email] = user
	return user
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := &fakeUserRepo{byEmail: map[string]*model.User{}, createErr: repository.ErrDuplicate}
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "doc@example.com",
		Name:     "Doc",
		Password: "correct-horse",
		Type:     model.UserTypeDoctor,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestLoginIssuesTokenPair(t *testing.T) {
	repo := &fakeUserRepo{byEmail: map[string]*model.User{}}
	seedUser(t, repo, "doc@example.com", "correct-horse")
	svc := newTestService(repo)

	tokens, err := svc.Login(context.Background(), "doc@example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, int64(3600), tokens.ExpiresIn)

	claims, err := svc.ValidateToken(context.Background(), tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "doc@example.com", claims.Email)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &fakeUserRepo{byEmail: map[string]*model.User{}}
	seedUser(t, repo, "doc@example.com", "correct-horse")
	svc := newTestService(repo)

	_, err := svc.Login(context.Background(), "doc@example.com", "wrong")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnauthorized))
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	repo := &fakeUserRepo{byEmail: map[string]*model.User{}}
	user := seedUser(t, repo, "doc@example.com", "correct-horse")
	svc := newTestService(repo)

	for i := 0; i < maxLoginAttempts; i++ {
		_, err := svc.Login(context.Background(), "doc@example.com", "wrong")
		assert.Error(t, err)
	}
	assert.Equal(t, model.UserStatusLocked, user.Status)

	// Even the right password bounces while the lockout holds.
	_, err := svc.Login(context.Background(), "doc@example.com", "correct-horse")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnauthorized))
}

func TestLoginLockoutExpires(t *testing.T) {
	repo := &fakeUserRepo{byEmail: map[string]*model.User{}}
	user := seedUser(t, repo, "doc@example.com", "correct-horse")
	user.Status = model.UserStatusLocked
	user.LoginAttempts = maxLoginAttempts
	user.LastLoginAttempt = time.Now().Add(-lockoutDuration - time.Minute)
	svc := newTestService(repo)

	tokens, err := svc.Login(context.Background(), "doc@example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.Equal(t, model.UserStatusActive, user.Status)
}

func TestRefresh(t *testing.T) {
	repo := &fakeUserRepo{byEmail: map[string]*model.User{}}
	seedUser(t, repo, "doc@example.com", "correct-horse")
	svc := newTestService(repo)

	tokens, err := svc.Login(context.Background(), "doc@example.com", "correct-horse")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	repo := &fakeUserRepo{byEmail: map[string]*model.User{}}
	seedUser(t, repo, "doc@example.com", "correct-horse")
	svc := newTestService(repo)

	tokens, err := svc.Login(context.Background(), "doc@example.com", "correct-horse")
	require.NoError(t, err)

	// Access tokens are signed with a different secret.
	_, err = svc.Refresh(context.Background(), tokens.AccessToken)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrUnauthorized))
}
