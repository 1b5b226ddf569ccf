package game

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/onlymaths/onlymaths/internal/game/scoring"
)

// answerTolerance absorbs float parsing and the 2-decimal rounding of
// division answers.
const answerTolerance = 0.01

// Clock supplies the current time. Injected so tests control elapsed time
// instead of depending on the wall clock.
type Clock func() time.Time

// Session state-machine contract violations. These are caller bugs, not
// runtime conditions; handlers map them to 4xx responses.
var (
	ErrNotStarted       = errors.New("session not started")
	ErrAlreadyStarted   = errors.New("session already started")
	ErrNoActiveQuestion = errors.New("no active question")
	ErrAlreadyAnswered  = errors.New("question already answered")
	ErrNoQuestions      = errors.New("session requires at least one question")
)

// Result is the immutable completion summary of one session.
type Result struct {
	TotalScore     int        `json:"total_score"`
	TotalQuestions int        `json:"total_questions"`
	CorrectAnswers int        `json:"correct_answers"`
	WrongAnswers   int        `json:"wrong_answers"`
	Accuracy       int        `json:"accuracy"` // percent, rounded
	TotalTimeMs    int64      `json:"total_time_ms"`
	AverageTimeMs  int64      `json:"average_time_ms"`
	FinalStreak    int        `json:"final_streak"`
	BestStreak     int        `json:"best_streak"`
	Questions      []Question `json:"questions"`
	Answers        []Answer   `json:"answers"`
	CompletedAt    time.Time  `json:"completed_at"`
}

// Session runs one player through a fixed question list:
// not started -> in progress -> completed.
//
// Questions are immutable; outcomes accumulate in an append-only answer list.
// A Session serves exactly one player and is discarded after completion.
type Session struct {
	questions []Question
	scorer    *scoring.Engine
	now       Clock

	cursor     int
	score      int
	streak     int
	bestStreak int
	answers    []Answer

	startedAt       time.Time
	questionStartAt time.Time
	started         bool
	completed       bool
	result          *Result
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithClock overrides the time source (tests).
func WithClock(c Clock) SessionOption {
	return func(s *Session) {
		if c != nil {
			s.now = c
		}
	}
}

// NewSession builds an unstarted session over the given questions.
func NewSession(questions []Question, scorer *scoring.Engine, opts ...SessionOption) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if scorer == nil {
		scorer = scoring.NewEngine(scoring.DefaultConfig())
	}
	s := &Session{
		questions: questions,
		scorer:    scorer,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start records the session and first-question start times and returns the
// first question. Calling Start twice is a contract violation.
func (s *Session) Start() (Question, error) {
	if s.started {
		return Question{}, ErrAlreadyStarted
	}
	s.started = true
	now := s.now()
	s.startedAt = now
	s.questionStartAt = now
	return s.questions[0], nil
}

// Current returns the question the cursor points at, if any.
func (s *Session) Current() (Question, bool) {
	if !s.started || s.completed || s.cursor >= len(s.questions) {
		return Question{}, false
	}
	return s.questions[s.cursor], true
}

// Submit validates an answer for the current question, scores it and records
// the outcome. Re-submitting the same question is rejected; a non-numeric
// answer is just incorrect, never an error. All preconditions are checked
// before any state mutation.
func (s *Session) Submit(userAnswer string) (Answer, error) {
	if !s.started {
		return Answer{}, ErrNotStarted
	}
	if s.completed || s.cursor >= len(s.questions) {
		return Answer{}, ErrNoActiveQuestion
	}
	q := s.questions[s.cursor]
	if s.answered(q.Number) {
		return Answer{}, ErrAlreadyAnswered
	}

	timeSpent := s.now().Sub(s.questionStartAt)
	isCorrect := validateAnswer(userAnswer, q.Answer)

	streakAfter := 0
	if isCorrect {
		streakAfter = s.streak + 1
	}
	points := s.scorer.Score(isCorrect, timeSpent, streakAfter)

	s.streak = streakAfter
	if s.streak > s.bestStreak {
		s.bestStreak = s.streak
	}
	s.score += points

	record := Answer{
		QuestionNumber: q.Number,
		Submitted:      userAnswer,
		CorrectAnswer:  q.Answer,
		IsCorrect:      isCorrect,
		TimeSpentMs:    timeSpent.Milliseconds(),
		Points:         points,
		StreakAfter:    s.streak,
	}
	s.answers = append(s.answers, record)
	return record, nil
}

// Next advances the cursor and resets the per-question timer. It returns
// ok=false once the question list is exhausted; the caller then calls
// Complete for the summary.
func (s *Session) Next() (Question, bool) {
	if !s.started || s.completed {
		return Question{}, false
	}
	if s.cursor >= len(s.questions) {
		return Question{}, false
	}
	s.cursor++
	if s.cursor >= len(s.questions) {
		return Question{}, false
	}
	s.questionStartAt = s.now()
	return s.questions[s.cursor], true
}

// Complete computes the session summary. Idempotent: the first call caches
// the result, later calls return it unchanged. Completing with unanswered
// questions is allowed (total-time-limit expiry).
func (s *Session) Complete() (Result, error) {
	if !s.started {
		return Result{}, ErrNotStarted
	}
	if s.result != nil {
		return *s.result, nil
	}

	now := s.now()
	total := len(s.questions)
	correct := 0
	for _, a := range s.answers {
		if a.IsCorrect {
			correct++
		}
	}

	totalMs := now.Sub(s.startedAt).Milliseconds()
	result := Result{
		TotalScore:     s.score,
		TotalQuestions: total,
		CorrectAnswers: correct,
		WrongAnswers:   len(s.answers) - correct,
		Accuracy:       int(math.Round(float64(correct) / float64(total) * 100)),
		TotalTimeMs:    totalMs,
		AverageTimeMs:  totalMs / int64(total),
		FinalStreak:    s.streak,
		BestStreak:     s.bestStreak,
		Questions:      append([]Question(nil), s.questions...),
		Answers:        append([]Answer(nil), s.answers...),
		CompletedAt:    now,
	}

	s.completed = true
	s.result = &result
	return result, nil
}

// Progress reports the 1-based position within the session.
func (s *Session) Progress() Progress {
	total := len(s.questions)
	current := s.cursor + 1
	if current > total {
		current = total
	}
	return Progress{
		Current:    current,
		Total:      total,
		Percentage: int(math.Round(float64(current) / float64(total) * 100)),
	}
}

// Score returns the cumulative score.
func (s *Session) Score() int { return s.score }

// Streak returns the current consecutive-correct counter.
func (s *Session) Streak() int { return s.streak }

// BestStreak returns the running maximum streak.
func (s *Session) BestStreak() int { return s.bestStreak }

// Completed reports whether the summary has been computed.
func (s *Session) Completed() bool { return s.completed }

// Questions returns the immutable question list.
func (s *Session) Questions() []Question {
	return append([]Question(nil), s.questions...)
}

// Answers returns a copy of the answer records so far.
func (s *Session) Answers() []Answer {
	return append([]Answer(nil), s.answers...)
}

func (s *Session) answered(questionNumber int) bool {
	for _, a := range s.answers {
		if a.QuestionNumber == questionNumber {
			return true
		}
	}
	return false
}

// validateAnswer parses both sides as floats; unparseable input is incorrect.
func validateAnswer(userAnswer string, correct float64) bool {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(userAnswer), 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return false
	}
	return math.Abs(parsed-correct) < answerTolerance
}

// State is a serializable snapshot of a session, used by the Redis-backed
// session store to round-trip engine state between requests.
type State struct {
	Questions       []Question `json:"questions"`
	Cursor          int        `json:"cursor"`
	Score           int        `json:"score"`
	Streak          int        `json:"streak"`
	BestStreak      int        `json:"best_streak"`
	Answers         []Answer   `json:"answers"`
	StartedAt       time.Time  `json:"started_at"`
	QuestionStartAt time.Time  `json:"question_start_at"`
	Started         bool       `json:"started"`
	Completed       bool       `json:"completed"`
	Result          *Result    `json:"result,omitempty"`
}

// State snapshots the session for persistence.
func (s *Session) State() State {
	return State{
		Questions:       append([]Question(nil), s.questions...),
		Cursor:          s.cursor,
		Score:           s.score,
		Streak:          s.streak,
		BestStreak:      s.bestStreak,
		Answers:         append([]Answer(nil), s.answers...),
		StartedAt:       s.startedAt,
		QuestionStartAt: s.questionStartAt,
		Started:         s.started,
		Completed:       s.completed,
		Result:          s.result,
	}
}

// Restore rebuilds a session from a snapshot.
func Restore(st State, scorer *scoring.Engine, opts ...SessionOption) (*Session, error) {
	s, err := NewSession(st.Questions, scorer, opts...)
	if err != nil {
		return nil, err
	}
	s.cursor = st.Cursor
	s.score = st.Score
	s.streak = st.Streak
	s.bestStreak = st.BestStreak
	s.answers = append([]Answer(nil), st.Answers...)
	s.startedAt = st.StartedAt
	s.questionStartAt = st.QuestionStartAt
	s.started = st.Started
	s.completed = st.Completed
	s.result = st.Result
	return s, nil
}
