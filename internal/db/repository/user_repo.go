package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

const userColumns = `user_id, email, password_hash, display_name, user_type,
	games_played, total_score, best_streak, metadata, created_at, last_login_at`

// UserRepository exposes typed DB operations required by auth flows.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a user repository on a pgx pool.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.UserType,
		&u.GamesPlayed, &u.TotalScore, &u.BestStreak, &u.Metadata, &u.CreatedAt, &u.LastLoginAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// CreateUser inserts a new account (registered or guest).
func (r *UserRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	metadata := params.Metadata
	if metadata == nil {
		metadata = []byte(`{}`)
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, display_name, user_type, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		params.Email, params.PasswordHash, params.DisplayName, params.UserType, metadata)
	u, err := scanUser(row)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetByEmail fetches a user by email if present.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetByID fetches a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID)
	return scanUser(row)
}

// PromoteGuest upgrades a guest to registered, keeping its history intact.
func (r *UserRepository) PromoteGuest(ctx context.Context, guestID uuid.UUID, email, passwordHash string) (User, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE users
		SET email = $2, password_hash = $3, user_type = 'registered'
		WHERE user_id = $1 AND user_type = 'guest'
		RETURNING `+userColumns,
		guestID, email, passwordHash)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, fmt.Errorf("promote guest: %w", ErrNotFound)
		}
		return User{}, fmt.Errorf("promote guest: %w", err)
	}
	return u, nil
}

// UpdateLogin records the last login timestamp.
func (r *UserRepository) UpdateLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_login_at = now() WHERE user_id = $1`, userID)
	return err
}

// UpdatePassword replaces a user's password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE user_id = $1`, userID, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetDisplayName changes a user's display name.
func (r *UserRepository) SetDisplayName(ctx context.Context, userID uuid.UUID, displayName string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET display_name = $2 WHERE user_id = $1`, userID, displayName)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DisplayNameTaken reports whether a display name is already in use.
func (r *UserRepository) DisplayNameTaken(ctx context.Context, displayName string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE lower(display_name) = lower($1))`,
		displayName).Scan(&exists)
	return exists, err
}

// RecordGamePlayed folds a finished game into the user's lifetime counters.
func (r *UserRepository) RecordGamePlayed(ctx context.Context, userID uuid.UUID, score, bestStreak int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET games_played = games_played + 1,
		    total_score = total_score + $2,
		    best_streak = GREATEST(best_streak, $3)
		WHERE user_id = $1`,
		userID, score, bestStreak)
	if err != nil {
		return fmt.Errorf("record game played: %w", err)
	}
	return nil
}
