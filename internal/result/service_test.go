package result

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/onlymaths/onlymaths/internal/db/repository"
)

type mockReader struct {
	mock.Mock
}

func (m *mockReader) GetByID(ctx context.Context, resultID uuid.UUID) (repository.GameResult, error) {
	args := m.Called(ctx, resultID)
	return args.Get(0).(repository.GameResult), args.Error(1)
}

func (m *mockReader) History(ctx context.Context, filter repository.HistoryFilter) ([]repository.GameResult, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]repository.GameResult), args.Int(1), args.Error(2)
}

func (m *mockReader) UserStats(ctx context.Context, userID uuid.UUID) (repository.UserStats, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(repository.UserStats), args.Error(1)
}

func (m *mockReader) StatsByGameType(ctx context.Context, userID uuid.UUID) ([]repository.GameTypeStats, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]repository.GameTypeStats), args.Error(1)
}

func (m *mockReader) RecentScores(ctx context.Context, userID uuid.UUID, limit int) ([]int, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]int), args.Error(1)
}

func TestPerformanceRating(t *testing.T) {
	cases := []struct {
		accuracy float64
		streak   int
		want     string
	}{
		{95, 6, "excellent"},
		{90, 5, "excellent"},
		{90, 4, "good"},    // accuracy alone is not enough for the top tier
		{95, 2, "average"}, // nor for good without a 3-streak
		{80, 3, "good"},
		{75, 3, "good"},
		{75, 2, "average"},
		{65, 10, "average"},
		{60, 0, "average"},
		{42, 8, "needs_improvement"},
		{0, 0, "needs_improvement"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PerformanceRating(tc.accuracy, tc.streak),
			"accuracy %.0f streak %d", tc.accuracy, tc.streak)
	}
}

func TestImprovementTrend(t *testing.T) {
	t.Run("improving", func(t *testing.T) {
		// newest first: last five average 100, previous five average 80
		scores := []int{100, 100, 100, 100, 100, 80, 80, 80, 80, 80}
		assert.Equal(t, "improving", ImprovementTrend(scores))
	})

	t.Run("declining", func(t *testing.T) {
		scores := []int{70, 70, 70, 70, 70, 90, 90, 90, 90, 90}
		assert.Equal(t, "declining", ImprovementTrend(scores))
	})

	t.Run("stable within five percent band", func(t *testing.T) {
		scores := []int{102, 102, 102, 102, 102, 100, 100, 100, 100, 100}
		assert.Equal(t, "stable", ImprovementTrend(scores))
	})

	t.Run("not enough data", func(t *testing.T) {
		assert.Equal(t, "not_enough_data", ImprovementTrend([]int{100}))
		assert.Equal(t, "not_enough_data", ImprovementTrend(nil))
	})

	t.Run("short history reads stable, not missing", func(t *testing.T) {
		// With no previous batch to compare against, the latest average
		// stands in for it.
		assert.Equal(t, "stable", ImprovementTrend([]int{120, 100}))
		assert.Equal(t, "stable", ImprovementTrend([]int{100, 90, 80}))
	})

	t.Run("partial previous batch", func(t *testing.T) {
		// Six games: latest five against the single older one.
		assert.Equal(t, "improving", ImprovementTrend([]int{120, 120, 120, 120, 120, 100}))
		assert.Equal(t, "declining", ImprovementTrend([]int{80, 80, 80, 80, 80, 100}))
	})

	t.Run("zero previous average is stable", func(t *testing.T) {
		scores := []int{10, 10, 10, 10, 10, 0, 0, 0, 0, 0}
		assert.Equal(t, "stable", ImprovementTrend(scores))
	})
}

func TestService_History_Defaults(t *testing.T) {
	repo := new(mockReader)
	svc := NewService(repo, zerolog.Nop())
	userID := uuid.New()

	repo.On("History", mock.Anything, repository.HistoryFilter{
		UserID:   userID,
		SortBy:   "completed_at",
		SortDesc: true,
		Limit:    10,
		Offset:   0,
	}).Return([]repository.GameResult{{ID: uuid.New(), UserID: userID}}, 23, nil)

	page, err := svc.History(context.Background(), userID, HistoryQuery{SortDesc: true})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.PageSize)
	assert.Equal(t, 23, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrev)
	assert.Len(t, page.Results, 1)
	repo.AssertExpectations(t)
}

func TestService_History_ClampsPageSize(t *testing.T) {
	repo := new(mockReader)
	svc := NewService(repo, zerolog.Nop())
	userID := uuid.New()

	repo.On("History", mock.Anything, mock.MatchedBy(func(f repository.HistoryFilter) bool {
		return f.Limit == maxPageSize && f.Offset == maxPageSize && f.GameType == "arithmetic-basic"
	})).Return([]repository.GameResult{}, 0, nil)

	_, err := svc.History(context.Background(), userID, HistoryQuery{
		GameType: "arithmetic-basic",
		SortBy:   "score",
		Page:     2,
		PageSize: 500,
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestService_Get_OwnerScoped(t *testing.T) {
	repo := new(mockReader)
	svc := NewService(repo, zerolog.Nop())

	owner := uuid.New()
	resultID := uuid.New()
	repo.On("GetByID", mock.Anything, resultID).Return(repository.GameResult{ID: resultID, UserID: owner}, nil)

	got, err := svc.Get(context.Background(), owner, resultID)
	require.NoError(t, err)
	assert.Equal(t, resultID, got.ID)

	_, err = svc.Get(context.Background(), uuid.New(), resultID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestService_UserStats(t *testing.T) {
	repo := new(mockReader)
	svc := NewService(repo, zerolog.Nop())
	userID := uuid.New()

	repo.On("UserStats", mock.Anything, userID).Return(repository.UserStats{
		GamesPlayed:  12,
		TotalScore:   1440,
		AverageScore: 120.333,
		BestScore:    200,
		AvgAccuracy:  91.666,
		BestStreak:   9,
		TotalTimeMs:  600000,
	}, nil)
	repo.On("StatsByGameType", mock.Anything, userID).Return([]repository.GameTypeStats{
		{GameType: "arithmetic-basic", GamesPlayed: 8, AverageScore: 110, BestScore: 150, AvgAccuracy: 95},
		{GameType: "arithmetic-advanced", GamesPlayed: 4, AverageScore: 140, BestScore: 200, AvgAccuracy: 85},
	}, nil)
	repo.On("RecentScores", mock.Anything, userID, 10).Return(
		[]int{150, 150, 150, 150, 150, 100, 100, 100, 100, 100}, nil)

	stats, err := svc.UserStats(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 12, stats.GamesPlayed)
	assert.Equal(t, 120.33, stats.AverageScore)
	assert.Equal(t, 91.67, stats.AverageAccuracy)
	assert.Equal(t, "excellent", stats.PerformanceRating)
	assert.Equal(t, "improving", stats.ImprovementTrend)
	assert.Len(t, stats.ByGameType, 2)
	repo.AssertExpectations(t)
}
