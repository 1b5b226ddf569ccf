package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const resultColumns = `result_id, user_id, game_type, difficulty, score, total_questions,
	correct_answers, wrong_answers, accuracy, total_time_ms, average_time_ms,
	best_streak, questions, completed_at`

// ResultRepository persists finished game results and serves history queries.
type ResultRepository struct {
	db DB
}

// NewResultRepository creates a result repository on a pgx pool.
func NewResultRepository(db DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func scanResult(row pgx.Row) (GameResult, error) {
	var r GameResult
	err := row.Scan(&r.ID, &r.UserID, &r.GameType, &r.Difficulty, &r.Score, &r.TotalQuestions,
		&r.CorrectAnswers, &r.WrongAnswers, &r.Accuracy, &r.TotalTimeMs, &r.AverageTimeMs,
		&r.BestStreak, &r.Questions, &r.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return GameResult{}, ErrNotFound
	}
	return r, err
}

// Insert persists a finished game's summary.
func (r *ResultRepository) Insert(ctx context.Context, params InsertResultParams) (GameResult, error) {
	questions := params.Questions
	if questions == nil {
		questions = []byte(`[]`)
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO game_results (user_id, game_type, difficulty, score, total_questions,
			correct_answers, wrong_answers, accuracy, total_time_ms, average_time_ms,
			best_streak, questions, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+resultColumns,
		params.UserID, params.GameType, params.Difficulty, params.Score, params.TotalQuestions,
		params.CorrectAnswers, params.WrongAnswers, params.Accuracy, params.TotalTimeMs,
		params.AverageTimeMs, params.BestStreak, questions, params.CompletedAt)
	result, err := scanResult(row)
	if err != nil {
		return GameResult{}, fmt.Errorf("insert result: %w", err)
	}
	return result, nil
}

// GetByID fetches one result.
func (r *ResultRepository) GetByID(ctx context.Context, resultID uuid.UUID) (GameResult, error) {
	row := r.db.QueryRow(ctx, `SELECT `+resultColumns+` FROM game_results WHERE result_id = $1`, resultID)
	return scanResult(row)
}

// History returns a page of a user's results plus the unfiltered total.
func (r *ResultRepository) History(ctx context.Context, filter HistoryFilter) ([]GameResult, int, error) {
	where := sq.Eq{"user_id": filter.UserID}
	countQuery := psql.Select("COUNT(*)").From("game_results").Where(where)
	query := psql.Select(resultColumns).From("game_results").Where(where)

	if filter.GameType != "" {
		query = query.Where(sq.Eq{"game_type": filter.GameType})
		countQuery = countQuery.Where(sq.Eq{"game_type": filter.GameType})
	}

	sortBy := filter.SortBy
	switch sortBy {
	case "score", "completed_at", "accuracy":
	default:
		sortBy = "completed_at"
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query = query.OrderBy(sortBy + " " + direction)

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	countSQL, countArgs, err := countQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	querySQL, queryArgs, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build history query: %w", err)
	}
	rows, err := r.db.Query(ctx, querySQL, queryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var results []GameResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan history row: %w", err)
		}
		results = append(results, result)
	}
	return results, total, rows.Err()
}

// UserStats aggregates a user's results across all game types.
func (r *ResultRepository) UserStats(ctx context.Context, userID uuid.UUID) (UserStats, error) {
	var stats UserStats
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(score), 0),
		       COALESCE(AVG(score), 0),
		       COALESCE(MAX(score), 0),
		       COALESCE(AVG(accuracy), 0),
		       COALESCE(MAX(best_streak), 0),
		       COALESCE(SUM(total_time_ms), 0)
		FROM game_results
		WHERE user_id = $1`, userID).
		Scan(&stats.GamesPlayed, &stats.TotalScore, &stats.AverageScore, &stats.BestScore,
			&stats.AvgAccuracy, &stats.BestStreak, &stats.TotalTimeMs)
	if err != nil {
		return UserStats{}, fmt.Errorf("user stats: %w", err)
	}
	return stats, nil
}

// StatsByGameType breaks down a user's results per game type.
func (r *ResultRepository) StatsByGameType(ctx context.Context, userID uuid.UUID) ([]GameTypeStats, error) {
	rows, err := r.db.Query(ctx, `
		SELECT game_type,
		       COUNT(*),
		       COALESCE(AVG(score), 0),
		       COALESCE(MAX(score), 0),
		       COALESCE(AVG(accuracy), 0)
		FROM game_results
		WHERE user_id = $1
		GROUP BY game_type
		ORDER BY game_type`, userID)
	if err != nil {
		return nil, fmt.Errorf("stats by game type: %w", err)
	}
	defer rows.Close()

	var out []GameTypeStats
	for rows.Next() {
		var s GameTypeStats
		if err := rows.Scan(&s.GameType, &s.GamesPlayed, &s.AverageScore, &s.BestScore, &s.AvgAccuracy); err != nil {
			return nil, fmt.Errorf("scan game type stats: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RecentScores returns the scores of a user's most recent games, newest first.
func (r *ResultRepository) RecentScores(ctx context.Context, userID uuid.UUID, limit int) ([]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT score FROM game_results
		WHERE user_id = $1
		ORDER BY completed_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent scores: %w", err)
	}
	defer rows.Close()

	var scores []int
	for rows.Next() {
		var score int
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}

const (
	insertSnapshotSQL = `
		INSERT INTO leaderboard_snapshots (game_type, time_window, payload, captured_at)
		VALUES ($1, $2, $3, $4)`

	latestSnapshotSQL = `
		SELECT snapshot_id, game_type, time_window, payload, captured_at
		FROM leaderboard_snapshots
		WHERE game_type = $1 AND time_window = $2
		ORDER BY captured_at DESC
		LIMIT 1`
)

// InsertLeaderboardSnapshot stores a periodic leaderboard capture.
func (r *ResultRepository) InsertLeaderboardSnapshot(ctx context.Context, gameType, timeWindow string, payload json.RawMessage, capturedAt time.Time) error {
	_, err := r.db.Exec(ctx, insertSnapshotSQL, gameType, timeWindow, payload, capturedAt)
	if err != nil {
		return fmt.Errorf("insert leaderboard snapshot: %w", err)
	}
	return nil
}

// LatestLeaderboardSnapshot returns the most recent capture for a board,
// or ErrNotFound when none has been taken yet.
func (r *ResultRepository) LatestLeaderboardSnapshot(ctx context.Context, gameType, timeWindow string) (LeaderboardSnapshot, error) {
	var snap LeaderboardSnapshot
	err := r.db.QueryRow(ctx, latestSnapshotSQL, gameType, timeWindow).
		Scan(&snap.ID, &snap.GameType, &snap.TimeWindow, &snap.Payload, &snap.CapturedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaderboardSnapshot{}, ErrNotFound
	}
	if err != nil {
		return LeaderboardSnapshot{}, fmt.Errorf("fetch leaderboard snapshot: %w", err)
	}
	return snap, nil
}
