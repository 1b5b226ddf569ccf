package result

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/onlymaths/onlymaths/internal/db/repository"
)

// ErrForbidden is returned when a caller reads someone else's result.
var ErrForbidden = errors.New("result belongs to another user")

// Reader is the persistence surface the result queries need.
type Reader interface {
	GetByID(ctx context.Context, resultID uuid.UUID) (repository.GameResult, error)
	History(ctx context.Context, filter repository.HistoryFilter) ([]repository.GameResult, int, error)
	UserStats(ctx context.Context, userID uuid.UUID) (repository.UserStats, error)
	StatsByGameType(ctx context.Context, userID uuid.UUID) ([]repository.GameTypeStats, error)
	RecentScores(ctx context.Context, userID uuid.UUID, limit int) ([]int, error)
}

// Service serves game history and aggregated player statistics.
type Service struct {
	repo   Reader
	logger zerolog.Logger
}

// NewService creates a result service.
func NewService(repo Reader, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "result").Logger(),
	}
}

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// HistoryPage is one page of a user's game history.
type HistoryPage struct {
	Results    []repository.GameResult `json:"results"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	Total      int                     `json:"total"`
	TotalPages int                     `json:"total_pages"`
	HasNext    bool                    `json:"has_next"`
	HasPrev    bool                    `json:"has_prev"`
}

// HistoryQuery narrows and pages the history listing.
type HistoryQuery struct {
	GameType string
	SortBy   string // "completed_at", "score" or "accuracy"
	SortDesc bool
	Page     int // 1-based
	PageSize int
}

// History returns a page of the user's past games, newest first by default.
func (s *Service) History(ctx context.Context, userID uuid.UUID, q HistoryQuery) (HistoryPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	if q.SortBy == "" {
		q.SortBy = "completed_at"
		q.SortDesc = true
	}

	results, total, err := s.repo.History(ctx, repository.HistoryFilter{
		UserID:   userID,
		GameType: q.GameType,
		SortBy:   q.SortBy,
		SortDesc: q.SortDesc,
		Limit:    q.PageSize,
		Offset:   (q.Page - 1) * q.PageSize,
	})
	if err != nil {
		return HistoryPage{}, fmt.Errorf("fetch history: %w", err)
	}

	totalPages := (total + q.PageSize - 1) / q.PageSize
	return HistoryPage{
		Results:    results,
		Page:       q.Page,
		PageSize:   q.PageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    q.Page < totalPages,
		HasPrev:    q.Page > 1 && total > 0,
	}, nil
}

// Get fetches one result, scoped to its owner.
func (s *Service) Get(ctx context.Context, userID, resultID uuid.UUID) (repository.GameResult, error) {
	result, err := s.repo.GetByID(ctx, resultID)
	if err != nil {
		return repository.GameResult{}, err
	}
	if result.UserID != userID {
		return repository.GameResult{}, ErrForbidden
	}
	return result, nil
}

// Stats is the aggregated picture of a player's performance.
type Stats struct {
	GamesPlayed       int                        `json:"games_played"`
	TotalScore        int64                      `json:"total_score"`
	AverageScore      float64                    `json:"average_score"`
	BestScore         int                        `json:"best_score"`
	AverageAccuracy   float64                    `json:"average_accuracy"`
	BestStreak        int                        `json:"best_streak"`
	TotalTimeMs       int64                      `json:"total_time_ms"`
	PerformanceRating string                     `json:"performance_rating"`
	ImprovementTrend  string                     `json:"improvement_trend"`
	ByGameType        []repository.GameTypeStats `json:"by_game_type"`
}

// trendSampleSize is how many games each side of the trend comparison uses.
const trendSampleSize = 5

// UserStats aggregates all of a user's games plus a trend over the last ten.
func (s *Service) UserStats(ctx context.Context, userID uuid.UUID) (Stats, error) {
	agg, err := s.repo.UserStats(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("aggregate stats: %w", err)
	}

	byType, err := s.repo.StatsByGameType(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("per-type stats: %w", err)
	}

	recent, err := s.repo.RecentScores(ctx, userID, 2*trendSampleSize)
	if err != nil {
		return Stats{}, fmt.Errorf("recent scores: %w", err)
	}

	return Stats{
		GamesPlayed:       agg.GamesPlayed,
		TotalScore:        agg.TotalScore,
		AverageScore:      round2(agg.AverageScore),
		BestScore:         agg.BestScore,
		AverageAccuracy:   round2(agg.AvgAccuracy),
		BestStreak:        agg.BestStreak,
		TotalTimeMs:       agg.TotalTimeMs,
		PerformanceRating: PerformanceRating(agg.AvgAccuracy, agg.BestStreak),
		ImprovementTrend:  ImprovementTrend(recent),
		ByGameType:        byType,
	}, nil
}

// PerformanceRating buckets accuracy and best streak into a kid-friendly
// label. The top two tiers need a streak as well as accuracy.
func PerformanceRating(avgAccuracy float64, bestStreak int) string {
	switch {
	case avgAccuracy >= 90 && bestStreak >= 5:
		return "excellent"
	case avgAccuracy >= 75 && bestStreak >= 3:
		return "good"
	case avgAccuracy >= 60:
		return "average"
	default:
		return "needs_improvement"
	}
}

// ImprovementTrend compares the average of the latest games against the
// preceding batch. Scores arrive newest first; two games are enough for a
// reading. When the previous batch is empty it defaults to the latest
// average, which reads as stable. A 5% band counts as stable.
func ImprovementTrend(recentScores []int) string {
	if len(recentScores) < 2 {
		return "not_enough_data"
	}

	split := trendSampleSize
	if split > len(recentScores) {
		split = len(recentScores)
	}
	latest := average(recentScores[:split])
	previous := latest
	if rest := recentScores[split:]; len(rest) > 0 {
		if len(rest) > trendSampleSize {
			rest = rest[:trendSampleSize]
		}
		previous = average(rest)
	}

	switch {
	case previous == 0:
		return "stable"
	case latest > previous*1.05:
		return "improving"
	case latest < previous*0.95:
		return "declining"
	default:
		return "stable"
	}
}

func average(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
