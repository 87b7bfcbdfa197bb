package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/lostfound-backend/internal/domain/entity"
	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
)

// mockUserRepository реализует repository.UserRepository для тестов.
type mockUserRepository struct {
	mu         sync.Mutex
	byID       map[uuid.UUID]*entity.User
	byUsername map[string]*entity.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		byID:       make(map[uuid.UUID]*entity.User),
		byUsername: make(map[string]*entity.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUsername[user.Username]; ok {
		return apperror.ErrUsernameTaken
	}
	m.byID[user.ID] = user
	m.byUsername[user.Username] = user
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, apperror.ErrUserNotFound
}

func (m *mockUserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byUsername[username]; ok {
		return u, nil
	}
	return nil, apperror.ErrUserNotFound
}

func (m *mockUserRepository) AddReputation(ctx context.Context, id uuid.UUID, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return 0, apperror.ErrUserNotFound
	}
	u.Reputation += amount
	return u.Reputation, nil
}

type mockCodeRepository struct {
	mu    sync.Mutex
	codes []*entity.RegistrationCode
}

func (m *mockCodeRepository) Create(ctx context.Context, code *entity.RegistrationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = append(m.codes, code)
	return nil
}

func (m *mockCodeRepository) Consume(ctx context.Context, username, code string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.codes) - 1; i >= 0; i-- {
		c := m.codes[i]
		if c.Username == username && c.Code == code && !c.Used && c.ExpiresAt.After(now) {
			c.Used = true
			return true, nil
		}
	}
	return false, nil
}

func newTestAuthService() (*AuthService, *mockUserRepository, *mockCodeRepository) {
	users := newMockUserRepository()
	codes := &mockCodeRepository{}
	svc := NewAuthService(users, codes, NewTokenManager("test-secret-test-secret-test-secret", time.Hour))
	return svc, users, codes
}

func TestAuthService_SendOTP(t *testing.T) {
	svc, _, codes := newTestAuthService()

	code, err := svc.SendOTP(context.Background(), "  Finder@Gmail.com ")
	require.NoError(t, err)
	assert.Len(t, code, 4)
	require.Len(t, codes.codes, 1)
	assert.Equal(t, "finder@gmail.com", codes.codes[0].Username)
	assert.WithinDuration(t, time.Now().Add(RegistrationCodeTTL), codes.codes[0].ExpiresAt, time.Minute)
}

func TestAuthService_SendOTP_RejectsNonGmail(t *testing.T) {
	svc, _, _ := newTestAuthService()

	_, err := svc.SendOTP(context.Background(), "someone@example.com")
	assert.True(t, apperror.IsValidation(err))
}

func TestAuthService_SendOTP_RejectsTakenUsername(t *testing.T) {
	svc, users, _ := newTestAuthService()
	u, err := entity.NewUser("taken@gmail.com", "", "hash")
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), u))

	_, err = svc.SendOTP(context.Background(), "taken@gmail.com")
	assert.True(t, apperror.IsConflict(err))
}

func TestAuthService_CompleteRegistrationAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newTestAuthService()

	code, err := svc.SendOTP(ctx, "owner@gmail.com")
	require.NoError(t, err)

	res, err := svc.CompleteRegistration(ctx, RegisterInput{
		Username:    "owner@gmail.com",
		Code:        code,
		Password:    "secret123",
		DisplayName: "Анна",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "Анна", res.User.DisplayName)
	assert.Equal(t, 0, res.User.Reputation)

	stored, err := users.FindByUsername(ctx, "owner@gmail.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret123")))

	principal, err := svc.tokenManager.ParseAccess(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, principal.ID)
	assert.Equal(t, "Анна", principal.DisplayName)

	login, err := svc.Login(ctx, LoginInput{Username: "OWNER@gmail.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, stored.ID, login.User.ID)
}

func TestAuthService_CompleteRegistration_CodeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestAuthService()

	code, err := svc.SendOTP(ctx, "first@gmail.com")
	require.NoError(t, err)

	_, err = svc.CompleteRegistration(ctx, RegisterInput{Username: "first@gmail.com", Code: code, Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.CompleteRegistration(ctx, RegisterInput{Username: "first@gmail.com", Code: code, Password: "secret123"})
	assert.ErrorIs(t, err, apperror.ErrInvalidOTP)
}

func TestAuthService_CompleteRegistration_ExpiredCode(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestAuthService()

	code, err := svc.SendOTP(ctx, "late@gmail.com")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(RegistrationCodeTTL + time.Minute) }
	_, err = svc.CompleteRegistration(ctx, RegisterInput{Username: "late@gmail.com", Code: code, Password: "secret123"})
	assert.ErrorIs(t, err, apperror.ErrInvalidOTP)
}

func TestAuthService_CompleteRegistration_WeakPassword(t *testing.T) {
	svc, _, codes := newTestAuthService()

	_, err := svc.CompleteRegistration(context.Background(), RegisterInput{Username: "weak@gmail.com", Code: "1234", Password: "short"})
	assert.True(t, apperror.IsValidation(err))
	assert.Empty(t, codes.codes)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestAuthService()

	code, err := svc.SendOTP(ctx, "user@gmail.com")
	require.NoError(t, err)
	_, err = svc.CompleteRegistration(ctx, RegisterInput{Username: "user@gmail.com", Code: code, Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Username: "user@gmail.com", Password: "wrong-password1"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Username: "nobody@gmail.com", Password: "secret123"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestGenerateOTP_Range(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateOTP()
		require.NoError(t, err)
		require.Len(t, code, 4)
		assert.False(t, strings.HasPrefix(code, "0"))
	}
}
