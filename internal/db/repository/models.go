package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repositories need.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// User is a row in the users table.
type User struct {
	ID           uuid.UUID
	Email        *string
	PasswordHash *string
	DisplayName  string
	UserType     string // "registered" or "guest"
	GamesPlayed  int
	TotalScore   int64
	BestStreak   int
	Metadata     json.RawMessage
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// CreateUserParams holds the fields needed to insert a user.
type CreateUserParams struct {
	Email        *string
	PasswordHash *string
	DisplayName  string
	UserType     string
	Metadata     json.RawMessage
}

// GameResult is a row in the game_results table. Serialized directly in
// history and result responses.
type GameResult struct {
	ID             uuid.UUID       `json:"result_id"`
	UserID         uuid.UUID       `json:"user_id"`
	GameType       string          `json:"game_type"`
	Difficulty     string          `json:"difficulty"`
	Score          int             `json:"score"`
	TotalQuestions int             `json:"total_questions"`
	CorrectAnswers int             `json:"correct_answers"`
	WrongAnswers   int             `json:"wrong_answers"`
	Accuracy       float64         `json:"accuracy"`
	TotalTimeMs    int64           `json:"total_time_ms"`
	AverageTimeMs  int64           `json:"average_time_ms"`
	BestStreak     int             `json:"best_streak"`
	Questions      json.RawMessage `json:"questions"`
	CompletedAt    time.Time       `json:"completed_at"`
}

// InsertResultParams holds the fields needed to persist a finished game.
type InsertResultParams struct {
	UserID         uuid.UUID
	GameType       string
	Difficulty     string
	Score          int
	TotalQuestions int
	CorrectAnswers int
	WrongAnswers   int
	Accuracy       float64
	TotalTimeMs    int64
	AverageTimeMs  int64
	BestStreak     int
	Questions      json.RawMessage
	CompletedAt    time.Time
}

// HistoryFilter narrows and pages a user's game history.
type HistoryFilter struct {
	UserID   uuid.UUID
	GameType string // empty means all types
	SortBy   string // "completed_at" or "score"
	SortDesc bool
	Limit    int
	Offset   int
}

// UserStats aggregates a user's results across all games.
type UserStats struct {
	GamesPlayed   int
	TotalScore    int64
	AverageScore  float64
	BestScore     int
	AvgAccuracy   float64
	BestStreak    int
	TotalTimeMs   int64
}

// GameTypeStats aggregates a user's results for a single game type.
// Serialized inside the stats response.
type GameTypeStats struct {
	GameType     string  `json:"game_type"`
	GamesPlayed  int     `json:"games_played"`
	AverageScore float64 `json:"average_score"`
	BestScore    int     `json:"best_score"`
	AvgAccuracy  float64 `json:"average_accuracy"`
}

// LeaderboardSnapshot is a periodic capture of leaderboard standings.
type LeaderboardSnapshot struct {
	ID         uuid.UUID
	GameType   string
	TimeWindow string
	Payload    json.RawMessage
	CapturedAt time.Time
}
