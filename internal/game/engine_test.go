package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onlymaths/onlymaths/internal/game/scoring"
)

// fakeClock hands out a controllable, strictly advancing time source.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func fixedQuestions(n int) []Question {
	qs := make([]Question, n)
	for i := range qs {
		qs[i] = Question{
			Number:    i + 1,
			Operand1:  i + 2,
			Operand2:  1,
			Operation: OpAdd,
			Text:      fmt.Sprintf("%d + 1", i+2),
			Answer:    float64(i + 3),
		}
	}
	return qs
}

func newTestSession(t *testing.T, n int, clock *fakeClock) *Session {
	t.Helper()
	scorer := scoring.NewEngine(scoring.Config{
		BasePoints:           10,
		TimeBonus:            5,
		StreakBonus:          2,
		DifficultyMultiplier: 1,
		TimePerQuestion:      15 * time.Second,
	})
	s, err := NewSession(fixedQuestions(n), scorer, WithClock(clock.Now))
	require.NoError(t, err)
	return s
}

func TestNewSession_RequiresQuestions(t *testing.T) {
	_, err := NewSession(nil, nil)
	assert.ErrorIs(t, err, ErrNoQuestions)
}

func TestSession_StartReturnsFirstQuestion(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, 3, clock)

	q, err := s.Start()
	require.NoError(t, err)
	assert.Equal(t, 1, q.Number)
}

func TestSession_StartTwiceFails(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, 3, clock)

	_, err := s.Start()
	require.NoError(t, err)

	_, err = s.Start()
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestSession_SubmitBeforeStartFails(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, 3, clock)

	_, err := s.Submit("5")
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestSession_SubmitCorrectAnswer(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, 3, clock)
	_, err := s.Start()
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	rec, err := s.Submit("3")
	require.NoError(t, err)

	assert.True(t, rec.IsCorrect)
	assert.Equal(t, 1, rec.QuestionNumber)
	assert.Equal(t, int64(2000), rec.TimeSpentMs)
	assert.Equal(t, 1, rec.StreakAfter)
	// base 10 + floor(5 * (1 - 2/15)) = 10 + 4
	assert.Equal(t, 14, rec.Points)
	assert.Equal(t, 14, s.Score())
}

func TestSession_SubmitWrongAnswerResetsStreak(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, 3, clock)
	_, err := s.Start()
	require.NoError(t, err)

	rec, err := s.Submit("3")
	require.NoError(t, err)
	require.True(t, rec.IsCorrect)
	require.Equal(t, 1, s.Streak())

	_, ok := s.Next()
	require.True(t, ok)

	rec, err = s.Submit("999")
	require.NoError(t, err)
	assert.False(t, rec.IsCorrect)
	assert.Equal(t, 0, rec.Points)
	assert.Equal(t, 0, s.Streak())
	assert.Equal(t, 1, s.BestStreak(), "best streak never decreases")
}

func TestSession_NonNumericAnswerIsJustIncorrect(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, 2, clock)
	_, err := s.Start()
	require.NoError(t, err)

	rec, err := s.Submit("banana")
	require.NoError(t, err)
	assert.False(t, rec.IsCorrect)
	assert.Equal(t, 0, rec.Points)
}

func TestSession_AnswerTolerance(t *testing.T) {
	clock := newFakeClock()
	scorer := scoring.NewEngine(scoring.DefaultConfig())
	questions := []Question{{
		Number: 1, Operand1: 10, Operand2: 3, Operation: OpDivide,
		Text: "10 / 3", Answer: 3.33,
	}}
	s, err := NewSession(questions, scorer, WithClock(clock.Now))
	require.NoError(t, err)
	_, err = s.Start()
	require.NoError(t, err)

	rec, err := s.Submit("3.335")
	require.NoError(t, err)
	assert.True(t, rec.IsCorrect, "answers within 0.01 are accepted")
}

func TestSession_DoubleSubmitRejected(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, 3, clock)
	_, err := s.Start()
	require.NoError(t, err)

	first, err := s.Submit("3")
	require.NoError(t, err)

	_, err = s.Submit("3")
	assert.ErrorIs(t, err, ErrAlreadyAnswered)
	assert.Equal(t, first.Points, s.Score(), "rejected submission must not double-count")
}

func TestSession_SubmitAfterCompleteFails(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, 1, clock)
	_, err := s.Start()
	require.NoError(t, err)
	_, err = s.Submit("3")
	require.NoError(t, err)
	_, ok := s.Next()
	require.False(t, ok)
	_, err = s.Complete()
	require.NoError(t, err)

	_, err = s.Submit("3")
	assert.ErrorIs(t, err, ErrNoActiveQuestion)
}

func TestSession_NextResetsQuestionTimer(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, 2, clock)
	_, err := s.Start()
	require.NoError(t, err)

	clock.Advance(5 * time.Second)
	_, err = s.Submit("3")
	require.NoError(t, err)

	clock.Advance(3 * time.Second)
	q, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, 2, q.Number)

	clock.Advance(1 * time.Second)
	rec, err := s.Submit("4")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), rec.TimeSpentMs, "timer resets when the next question becomes current")
}

func TestSession_NextPastEndKeepsCursorBounded(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, 2, clock)
	_, err := s.Start()
	require.NoError(t, err)

	_, err = s.Submit("3")
	require.NoError(t, err)
	_, ok := s.Next()
	require.True(t, ok)
	_, err = s.Submit("4")
	require.NoError(t, err)

	// Exhausted; repeated Next calls must not move the cursor further.
	for i := 0; i < 3; i++ {
		_, ok = s.Next()
		assert.False(t, ok)
	}
	assert.Equal(t, 2, s.State().Cursor)
}

func TestSession_Progress(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, 10, clock)
	_, err := s.Start()
	require.NoError(t, err)

	// Answer 3 of 10 questions.
	for i := 0; i < 3; i++ {
		_, err = s.Submit("0")
		require.NoError(t, err)
		if i < 2 {
			_, ok := s.Next()
			require.True(t, ok)
		}
	}

	p := s.Progress()
	assert.Equal(t, 3, p.Current)
	assert.Equal(t, 10, p.Total)
	assert.Equal(t, 30, p.Percentage)
}

func TestSession_CompleteIdempotent(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, 2, clock)
	_, err := s.Start()
	require.NoError(t, err)
	_, err = s.Submit("3")
	require.NoError(t, err)

	first, err := s.Complete()
	require.NoError(t, err)

	clock.Advance(time.Hour)
	second, err := s.Complete()
	require.NoError(t, err)
	assert.Equal(t, first, second, "repeat completion returns the cached result")
}

func TestSession_CompleteAccuracy(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, 10, clock)
	_, err := s.Start()
	require.NoError(t, err)

	// 8 correct, 2 wrong.
	for i := 0; i < 10; i++ {
		answer := "999"
		if i < 8 {
			answer = fmt.Sprintf("%d", i+3)
		}
		_, err = s.Submit(answer)
		require.NoError(t, err)
		s.Next()
	}

	res, err := s.Complete()
	require.NoError(t, err)
	assert.Equal(t, 80, res.Accuracy)
	assert.Equal(t, 8, res.CorrectAnswers)
	assert.Equal(t, 2, res.WrongAnswers)
}

func TestSession_CompleteTiming(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, 4, clock)
	_, err := s.Start()
	require.NoError(t, err)

	clock.Advance(40 * time.Second)
	res, err := s.Complete()
	require.NoError(t, err)

	assert.Equal(t, int64(40000), res.TotalTimeMs)
	assert.Equal(t, int64(10000), res.AverageTimeMs)
}

func TestSession_EndToEnd(t *testing.T) {
	cfg := Config{
		Operations:    []Operation{OpAdd, OpSubtract},
		Min:           1,
		Max:           20,
		Count:         5,
		AllowNegative: false,
	}
	questions, err := Generate(cfg, nil)
	require.NoError(t, err)

	clock := newFakeClock()
	scorer := scoring.NewEngine(scoring.DefaultConfig())
	s, err := NewSession(questions, scorer, WithClock(clock.Now))
	require.NoError(t, err)

	q, err := s.Start()
	require.NoError(t, err)
	for {
		clock.Advance(2 * time.Second)
		rec, err := s.Submit(fmt.Sprintf("%v", q.Answer))
		require.NoError(t, err)
		require.True(t, rec.IsCorrect)

		next, ok := s.Next()
		if !ok {
			break
		}
		q = next
	}

	res, err := s.Complete()
	require.NoError(t, err)
	assert.Equal(t, 5, res.CorrectAnswers)
	assert.Equal(t, 0, res.WrongAnswers)
	assert.Equal(t, 100, res.Accuracy)
	assert.Equal(t, 5, res.BestStreak)
	assert.Equal(t, 5, res.FinalStreak)
	assert.Positive(t, res.TotalScore)
}

func TestSession_StateRoundTrip(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, 3, clock)
	_, err := s.Start()
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = s.Submit("3")
	require.NoError(t, err)
	_, ok := s.Next()
	require.True(t, ok)

	st := s.State()
	scorer := scoring.NewEngine(scoring.DefaultConfig())
	restored, err := Restore(st, scorer, WithClock(clock.Now))
	require.NoError(t, err)

	assert.Equal(t, s.Score(), restored.Score())
	assert.Equal(t, s.Streak(), restored.Streak())
	assert.Equal(t, s.Progress(), restored.Progress())

	cur, ok := restored.Current()
	require.True(t, ok)
	assert.Equal(t, 2, cur.Number)

	// The restored session keeps playing where the old one left off.
	clock.Advance(time.Second)
	rec, err := restored.Submit("4")
	require.NoError(t, err)
	assert.True(t, rec.IsCorrect)
	assert.Equal(t, 2, rec.StreakAfter)
}
