package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/onlymaths/onlymaths/internal/auth/jwt"
	"github.com/onlymaths/onlymaths/internal/db/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrDisplayNameTaken   = errors.New("display name taken")
)

// UserStore is the persistence surface the auth flows need.
type UserStore interface {
	CreateUser(ctx context.Context, params repository.CreateUserParams) (repository.User, error)
	GetByEmail(ctx context.Context, email string) (repository.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (repository.User, error)
	PromoteGuest(ctx context.Context, guestID uuid.UUID, email, passwordHash string) (repository.User, error)
	UpdateLogin(ctx context.Context, userID uuid.UUID) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	SetDisplayName(ctx context.Context, userID uuid.UUID, displayName string) error
	DisplayNameTaken(ctx context.Context, displayName string) (bool, error)
}

// Service handles authentication and user management.
type Service struct {
	users    UserStore
	tokenMgr *jwt.Manager
	redis    *redis.Client
	emailSvc *EmailService
	logger   zerolog.Logger
}

// ServiceOptions configures the auth service.
type ServiceOptions struct {
	TokenConfig jwt.TokenConfig
	Redis       *redis.Client
	EmailSvc    *EmailService
}

// NewService creates an authentication service.
func NewService(users UserStore, opts ServiceOptions, logger zerolog.Logger) *Service {
	return &Service{
		users:    users,
		tokenMgr: jwt.NewManager(opts.TokenConfig),
		redis:    opts.Redis,
		emailSvc: opts.EmailSvc,
		logger:   logger,
	}
}

func toUser(u repository.User) *User {
	return &User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		UserType:    u.UserType,
		IsGuest:     u.UserType == "guest",
	}
}

// Register creates a new registered user account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, *TokenPair, error) {
	if req.Email == "" {
		return nil, nil, fmt.Errorf("email required")
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("check email: %w", err)
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	dbUser, err := s.users.CreateUser(ctx, repository.CreateUserParams{
		Email:        &req.Email,
		PasswordHash: &passwordHash,
		DisplayName:  req.DisplayName,
		UserType:     "registered",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	user := toUser(dbUser)
	tokens, err := s.generateTokenPair(*user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Str("email", req.Email).Msg("user registered")

	return user, tokens, nil
}

// Login authenticates a user with email/password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*User, *TokenPair, error) {
	dbUser, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	if dbUser.PasswordHash == nil {
		return nil, nil, ErrInvalidCredentials
	}
	if err := VerifyPassword(*dbUser.PasswordHash, req.Password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	user := toUser(dbUser)

	_ = s.users.UpdateLogin(ctx, user.ID)

	tokens, err := s.generateTokenPair(*user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user logged in")

	return user, tokens, nil
}

// CreateGuest creates an ephemeral guest account so kids can play without signup.
func (s *Service) CreateGuest(ctx context.Context, req GuestRequest) (*User, *TokenPair, error) {
	metadata, _ := json.Marshal(map[string]string{
		"device_fingerprint": req.DeviceFingerprint,
	})

	dbUser, err := s.users.CreateUser(ctx, repository.CreateUserParams{
		DisplayName: req.DisplayName,
		UserType:    "guest",
		Metadata:    metadata,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create guest: %w", err)
	}

	user := toUser(dbUser)
	tokens, err := s.generateTokenPair(*user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("guest created")

	return user, tokens, nil
}

// ConvertGuest upgrades a guest account to registered, keeping its game history.
func (s *Service) ConvertGuest(ctx context.Context, req ConvertGuestRequest) (*User, *TokenPair, error) {
	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	dbUser, err := s.users.PromoteGuest(ctx, req.GuestID, req.Email, passwordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("convert guest: %w", err)
	}

	user := toUser(dbUser)
	tokens, err := s.generateTokenPair(*user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("guest converted to registered")

	return user, tokens, nil
}

// SetDisplayName changes the user's display name if it's not taken.
func (s *Service) SetDisplayName(ctx context.Context, userID uuid.UUID, displayName string) error {
	taken, err := s.users.DisplayNameTaken(ctx, displayName)
	if err != nil {
		return fmt.Errorf("check display name: %w", err)
	}
	if taken {
		return ErrDisplayNameTaken
	}
	return s.users.SetDisplayName(ctx, userID, displayName)
}

// RefreshToken generates a new token pair from a refresh token.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokenMgr.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	// Fetch user to ensure still exists
	dbUser, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	return s.generateTokenPair(*toUser(dbUser))
}

// GetUser fetches the user behind a token's claims.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	dbUser, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toUser(dbUser), nil
}

// ValidateToken validates an access token and returns user claims.
func (s *Service) ValidateToken(tokenString string) (*jwt.Claims, error) {
	return s.tokenMgr.ValidateAccessToken(tokenString)
}

// RequestPasswordReset generates a reset token and sends reset email.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if s.redis == nil {
		return fmt.Errorf("redis not configured for password reset")
	}
	if s.emailSvc == nil {
		return fmt.Errorf("email service not configured")
	}

	dbUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// Don't reveal whether the account exists
		return nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	tokenData, _ := json.Marshal(map[string]string{
		"user_id": dbUser.ID.String(),
		"email":   email,
	})

	key := fmt.Sprintf("password_reset:%s", token)
	if err := s.redis.Set(ctx, key, tokenData, time.Hour).Err(); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if err := s.emailSvc.SendPasswordResetEmail(ctx, email, token); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info().Str("email", email).Msg("password reset requested")
	return nil
}

// ResetPassword validates token and updates password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if s.redis == nil {
		return fmt.Errorf("redis not configured for password reset")
	}

	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	key := fmt.Sprintf("password_reset:%s", token)
	tokenDataJSON, err := s.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return fmt.Errorf("invalid or expired reset token")
	}
	if err != nil {
		return fmt.Errorf("get reset token: %w", err)
	}

	var tokenData map[string]string
	if err := json.Unmarshal([]byte(tokenDataJSON), &tokenData); err != nil {
		return fmt.Errorf("decode token data: %w", err)
	}

	userID, err := uuid.Parse(tokenData["user_id"])
	if err != nil {
		return fmt.Errorf("invalid user ID: %w", err)
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	// Token is single-use
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to delete reset token")
	}

	s.logger.Info().Str("user_id", userID.String()).Msg("password reset completed")
	return nil
}

func (s *Service) generateTokenPair(user User) (*TokenPair, error) {
	jwtUser := jwt.User{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		UserType:    user.UserType,
		IsGuest:     user.IsGuest,
	}

	accessToken, err := s.tokenMgr.GenerateAccessToken(jwtUser)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokenMgr.GenerateRefreshToken(jwtUser)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(1 * 3600), // 1 hour in seconds
	}, nil
}
