package authsvc_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/clock"
	context_ "github.com/mkrupp/bestiary/internal/infra/context"
	"github.com/mkrupp/bestiary/internal/infra/logging"
	"github.com/mkrupp/bestiary/internal/svc/authsvc"
)

// mockUserRepository implements user.Repository for testing.
type mockUserRepository struct {
	users []*domain.User
	err   error
	m     sync.Mutex
}

func (m *mockUserRepository) CreateUser(
	_ context.Context,
	username, email string,
	passwordHash []byte,
) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	for _, u := range m.users {
		if u.Username == username || strings.EqualFold(u.Email, email) {
			return nil, domain.ErrUserAlreadyExists
		}
	}

	created := &domain.User{
		ID:           int64(len(m.users) + 1),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    "2024-05-01 12:00:00",
	}
	m.users = append(m.users, created)

	return created, nil
}

func (m *mockUserRepository) find(match func(u *domain.User) bool) (*domain.User, bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, false, m.err
	}

	for _, u := range m.users {
		if match(u) {
			return u, true, nil
		}
	}

	return nil, false, nil
}

func (m *mockUserRepository) GetUserByUsername(_ context.Context, username string) (*domain.User, bool, error) {
	return m.find(func(u *domain.User) bool { return u.Username == username })
}

func (m *mockUserRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, bool, error) {
	return m.find(func(u *domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m *mockUserRepository) GetUserByID(_ context.Context, id int64) (*domain.User, bool, error) {
	return m.find(func(u *domain.User) bool { return u.ID == id })
}

func (m *mockUserRepository) setErr(err error) {
	m.m.Lock()
	defer m.m.Unlock()

	m.err = err
}

var ErrRepoError = errors.New("repository error")

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func setupTestService(t *testing.T) (*authsvc.AuthService, *mockUserRepository, *clock.MockClock) {
	t.Helper()

	mockRepo := &mockUserRepository{}
	mockClock := clock.NewMock(testNow)

	svc := &authsvc.AuthService{
		Config: authsvc.AuthConfig{
			TokenDuration:  3600,
			FallbackUserID: 1,
			BcryptCost:     bcrypt.MinCost,
		},
		UserRepo: mockRepo,
		Log:      logging.NewNopLogger(),
		Clock:    mockClock,
	}

	return svc.WithSecret([]byte("test-secret")), mockRepo, mockClock
}

func TestNewAuthService_Secret(t *testing.T) {
	t.Parallel()

	_, err := authsvc.NewAuthService(context.Background(), &mockUserRepository{}, authsvc.AuthConfig{})
	require.ErrorIs(t, err, authsvc.ErrNoSecret)

	svc, err := authsvc.NewAuthService(context.Background(), &mockUserRepository{}, authsvc.AuthConfig{
		Development:   true,
		TokenDuration: 60,
	})
	require.NoError(t, err)

	token, err := svc.IssueToken(1, "alice", "alice@example.com")
	require.NoError(t, err)

	_, err = authsvc.ValidateToken(token, []byte(authsvc.DevelopmentSecret), time.Now())
	require.NoError(t, err)
}

func TestAuthService_RegisterUser(t *testing.T) {
	t.Parallel()

	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.RegisterUser(ctx, domain.RegisterRequest{
		Username: "existinguser", Email: "existing@example.com", Password: "password123",
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     domain.RegisterRequest
		repoErr error
		wantErr error
	}{
		{
			name: "successful registration",
			req:  domain.RegisterRequest{Username: "newuser", Email: "new@example.com", Password: "password123"},
		},
		{
			name:    "duplicate username",
			req:     domain.RegisterRequest{Username: "existinguser", Email: "other@example.com", Password: "x"},
			wantErr: domain.ErrUserAlreadyExists,
		},
		{
			name:    "duplicate email",
			req:     domain.RegisterRequest{Username: "other", Email: "EXISTING@example.com", Password: "x"},
			wantErr: domain.ErrUserAlreadyExists,
		},
		{
			name:    "missing password",
			req:     domain.RegisterRequest{Username: "someone", Email: "someone@example.com"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "blank username",
			req:     domain.RegisterRequest{Username: "   ", Email: "someone@example.com", Password: "x"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "invalid email",
			req:     domain.RegisterRequest{Username: "someone", Email: "not-an-email", Password: "x"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "display name email",
			req:     domain.RegisterRequest{Username: "someone", Email: "Someone <someone@example.com>", Password: "x"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "repository error",
			req:     domain.RegisterRequest{Username: "erroruser", Email: "error@example.com", Password: "x"},
			repoErr: ErrRepoError,
			wantErr: ErrRepoError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo.setErr(tt.repoErr)
			t.Cleanup(func() { mockRepo.setErr(nil) })

			created, err := svc.RegisterUser(ctx, tt.req)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.req.Username, created.Username)
			assert.NoError(t, bcrypt.CompareHashAndPassword(created.PasswordHash, []byte(tt.req.Password)))
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.RegisterUser(ctx, domain.RegisterRequest{
		Username: "testuser", Email: "test@example.com", Password: "testpass123",
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     domain.LoginRequest
		repoErr error
		wantErr error
	}{
		{
			name: "login by email",
			req:  domain.LoginRequest{Email: "test@example.com", Password: "testpass123"},
		},
		{
			name: "login by username",
			req:  domain.LoginRequest{Username: "testuser", Password: "testpass123"},
		},
		{
			name: "username in the email field",
			req:  domain.LoginRequest{Email: "testuser", Password: "testpass123"},
		},
		{
			name:    "wrong password",
			req:     domain.LoginRequest{Email: "test@example.com", Password: "wrongpass"},
			wantErr: domain.ErrInvalidCredentials,
		},
		{
			name:    "user not found",
			req:     domain.LoginRequest{Username: "nonexistent", Password: "anypass"},
			wantErr: domain.ErrInvalidCredentials,
		},
		{
			name:    "missing identifier",
			req:     domain.LoginRequest{Password: "anypass"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "missing password",
			req:     domain.LoginRequest{Username: "testuser"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "repository error",
			req:     domain.LoginRequest{Username: "testuser", Password: "testpass123"},
			repoErr: ErrRepoError,
			wantErr: ErrRepoError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo.setErr(tt.repoErr)
			t.Cleanup(func() { mockRepo.setErr(nil) })

			resp, err := svc.Login(ctx, tt.req)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, resp)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "bearer", resp.TokenType)
			assert.Equal(t, int64(3600), resp.ExpiresIn)
			assert.Equal(t, "testuser", resp.User.Username)

			claims, err := svc.ValidateToken(ctx, resp.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, resp.User.ID, claims.Subject)
			assert.Equal(t, testNow.Unix(), claims.IssuedAt)
			assert.Equal(t, testNow.Unix()+3600, claims.ExpiresAt)
		})
	}
}

func TestAuthService_TokenExpiry(t *testing.T) {
	t.Parallel()

	svc, _, mockClock := setupTestService(t)
	ctx := context.Background()

	token, err := svc.IssueToken(7, "alice", "alice@example.com")
	require.NoError(t, err)

	mockClock.Advance(3599 * time.Second)
	assert.Equal(t, int64(7), svc.UserIDFromAuthorization(ctx, "Bearer "+token))

	mockClock.Advance(time.Second)
	_, err = svc.ValidateToken(ctx, token)
	require.ErrorIs(t, err, domain.ErrInvalidAuthToken)
	assert.Zero(t, svc.UserIDFromAuthorization(ctx, "Bearer "+token))
}

func TestAuthService_UserIDFromAuthorization(t *testing.T) {
	t.Parallel()

	svc, _, _ := setupTestService(t)
	ctx := context.Background()

	token, err := svc.IssueToken(42, "alice", "alice@example.com")
	require.NoError(t, err)

	tests := []struct {
		header string
		want   int64
	}{
		{"Bearer " + token, 42},
		{"bearer " + token, 42},
		{"BEARER   " + token + "  ", 42},
		{token, 0},
		{"Basic " + token, 0},
		{"Bearer ", 0},
		{"", 0},
		{"Bearer not.a.token", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, svc.UserIDFromAuthorization(ctx, tt.header), tt.header)
	}
}

func TestEffectiveUserID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	assert.Zero(t, authsvc.CurrentUserID(ctx))
	assert.Equal(t, int64(1), authsvc.EffectiveUserID(ctx, 1))
	assert.Equal(t, int64(1), authsvc.EffectiveUserID(context_.WithUserID(ctx, 0), 1))
	assert.Equal(t, int64(9), authsvc.EffectiveUserID(context_.WithUserID(ctx, 9), 1))
	assert.Equal(t, int64(5), authsvc.FallbackIdentity(5).ActingUserID(ctx))
	assert.Equal(t, int64(9), authsvc.FallbackIdentity(5).ActingUserID(context_.WithUserID(ctx, 9)))
}

func TestAuthService_CurrentUser(t *testing.T) {
	t.Parallel()

	svc, _, _ := setupTestService(t)
	ctx := context.Background()

	created, err := svc.RegisterUser(ctx, domain.RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "Secret123!",
	})
	require.NoError(t, err)

	_, err = svc.CurrentUser(ctx)
	require.ErrorIs(t, err, domain.ErrNoAuthToken)

	got, err := svc.CurrentUser(context_.WithUserID(ctx, created.ID))
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = svc.CurrentUser(context_.WithUserID(ctx, 99))
	require.ErrorIs(t, err, domain.ErrInvalidAuthToken)
}
