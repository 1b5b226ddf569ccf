package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/onlymaths/onlymaths/internal/auth/jwt"
	"github.com/onlymaths/onlymaths/internal/db/repository"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) CreateUser(ctx context.Context, params repository.CreateUserParams) (repository.User, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(repository.User), args.Error(1)
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (repository.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(repository.User), args.Error(1)
}

func (m *mockUserStore) GetByID(ctx context.Context, userID uuid.UUID) (repository.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(repository.User), args.Error(1)
}

func (m *mockUserStore) PromoteGuest(ctx context.Context, guestID uuid.UUID, email, passwordHash string) (repository.User, error) {
	args := m.Called(ctx, guestID, email, passwordHash)
	return args.Get(0).(repository.User), args.Error(1)
}

func (m *mockUserStore) UpdateLogin(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockUserStore) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	return m.Called(ctx, userID, passwordHash).Error(0)
}

func (m *mockUserStore) SetDisplayName(ctx context.Context, userID uuid.UUID, displayName string) error {
	return m.Called(ctx, userID, displayName).Error(0)
}

func (m *mockUserStore) DisplayNameTaken(ctx context.Context, displayName string) (bool, error) {
	args := m.Called(ctx, displayName)
	return args.Bool(0), args.Error(1)
}

func newTestService(store UserStore) *Service {
	return NewService(store, ServiceOptions{
		TokenConfig: jwt.TokenConfig{
			AccessSecret:  []byte("test-access-secret"),
			RefreshSecret: []byte("test-refresh-secret"),
		},
	}, zerolog.Nop())
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("testpassword123")
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.True(t, len(hash) > 20) // bcrypt hashes are long
}

func TestVerifyPassword(t *testing.T) {
	hash, _ := HashPassword("testpassword123")

	err := VerifyPassword(hash, "testpassword123")
	assert.NoError(t, err)

	err = VerifyPassword(hash, "wrongpassword")
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestPasswordLengthBounds(t *testing.T) {
	_, err := HashPassword("tiny")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	// Six characters is the floor.
	_, err = HashPassword("sixish")
	assert.NoError(t, err)

	_, err = HashPassword(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestService_Register(t *testing.T) {
	store := new(mockUserStore)
	svc := newTestService(store)

	store.On("GetByEmail", mock.Anything, "kid@example.com").Return(repository.User{}, repository.ErrNotFound)

	email := "kid@example.com"
	created := repository.User{
		ID:          uuid.New(),
		Email:       &email,
		DisplayName: "Maya",
		UserType:    "registered",
	}
	store.On("CreateUser", mock.Anything, mock.MatchedBy(func(p repository.CreateUserParams) bool {
		return p.UserType == "registered" && p.Email != nil && *p.Email == email && p.PasswordHash != nil
	})).Return(created, nil)

	user, tokens, err := svc.Register(context.Background(), RegisterRequest{
		Email:       email,
		Password:    "longenough",
		DisplayName: "Maya",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.False(t, user.IsGuest)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	store.AssertExpectations(t)
}

func TestService_Register_EmailTaken(t *testing.T) {
	store := new(mockUserStore)
	svc := newTestService(store)

	email := "kid@example.com"
	store.On("GetByEmail", mock.Anything, email).Return(repository.User{ID: uuid.New(), Email: &email}, nil)

	_, _, err := svc.Register(context.Background(), RegisterRequest{
		Email:       email,
		Password:    "longenough",
		DisplayName: "Maya",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestService_Login(t *testing.T) {
	store := new(mockUserStore)
	svc := newTestService(store)

	hash, err := HashPassword("longenough")
	require.NoError(t, err)

	email := "kid@example.com"
	dbUser := repository.User{
		ID:           uuid.New(),
		Email:        &email,
		PasswordHash: &hash,
		DisplayName:  "Maya",
		UserType:     "registered",
	}
	store.On("GetByEmail", mock.Anything, email).Return(dbUser, nil)
	store.On("UpdateLogin", mock.Anything, dbUser.ID).Return(nil)

	user, tokens, err := svc.Login(context.Background(), LoginRequest{Email: email, Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, dbUser.ID, user.ID)
	assert.NotEmpty(t, tokens.AccessToken)

	// Token round-trips through validation
	claims, err := svc.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, dbUser.ID, claims.UserID)
	assert.Equal(t, "Maya", claims.DisplayName)
}

func TestService_Login_WrongPassword(t *testing.T) {
	store := new(mockUserStore)
	svc := newTestService(store)

	hash, _ := HashPassword("longenough")
	email := "kid@example.com"
	store.On("GetByEmail", mock.Anything, email).Return(repository.User{
		ID:           uuid.New(),
		Email:        &email,
		PasswordHash: &hash,
		UserType:     "registered",
	}, nil)

	_, _, err := svc.Login(context.Background(), LoginRequest{Email: email, Password: "nope-wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_CreateGuest(t *testing.T) {
	store := new(mockUserStore)
	svc := newTestService(store)

	created := repository.User{
		ID:          uuid.New(),
		DisplayName: "Speedy",
		UserType:    "guest",
	}
	store.On("CreateUser", mock.Anything, mock.MatchedBy(func(p repository.CreateUserParams) bool {
		return p.UserType == "guest" && p.Email == nil
	})).Return(created, nil)

	user, tokens, err := svc.CreateGuest(context.Background(), GuestRequest{DisplayName: "Speedy"})
	require.NoError(t, err)
	assert.True(t, user.IsGuest)
	assert.NotEmpty(t, tokens.AccessToken)

	claims, err := svc.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsGuest)
}

func TestService_RefreshToken(t *testing.T) {
	store := new(mockUserStore)
	svc := newTestService(store)

	dbUser := repository.User{
		ID:          uuid.New(),
		DisplayName: "Maya",
		UserType:    "registered",
	}
	store.On("CreateUser", mock.Anything, mock.Anything).Return(dbUser, nil).Maybe()
	store.On("GetByID", mock.Anything, dbUser.ID).Return(dbUser, nil)

	pair, err := svc.generateTokenPair(*toUser(dbUser))
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// Access tokens must not be accepted as refresh tokens
	_, err = svc.RefreshToken(context.Background(), pair.AccessToken)
	assert.Error(t, err)
}
