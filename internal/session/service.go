package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/onlymaths/onlymaths/internal/db/repository"
	"github.com/onlymaths/onlymaths/internal/game"
	"github.com/onlymaths/onlymaths/internal/game/scoring"
)

// ErrForbidden is returned when a caller touches someone else's session.
var ErrForbidden = errors.New("session belongs to another user")

// StateStore holds live session snapshots between requests.
type StateStore interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, sessionID uuid.UUID) (Record, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
	Lock(ctx context.Context, sessionID uuid.UUID) (func() error, error)
}

// ResultStore persists completed sessions.
type ResultStore interface {
	Insert(ctx context.Context, params repository.InsertResultParams) (repository.GameResult, error)
}

// UserStore folds finished games into user lifetime counters.
type UserStore interface {
	GetByID(ctx context.Context, userID uuid.UUID) (repository.User, error)
	RecordGamePlayed(ctx context.Context, userID uuid.UUID, score, bestStreak int) error
}

// ScoreRecorder feeds completed games into the leaderboards.
type ScoreRecorder interface {
	RecordResult(ctx context.Context, userID uuid.UUID, displayName, gameType string, score int, accuracy float64) error
}

// Notifier pushes completion events to connected clients.
type Notifier interface {
	NotifySessionComplete(userID uuid.UUID, sessionID uuid.UUID, gameType string, result game.Result)
}

// Service runs the full lifecycle of single-player game sessions:
// start from a template, submit answers, advance, complete, report progress.
type Service struct {
	store       StateStore
	results     ResultStore
	users       UserStore
	leaderboard ScoreRecorder
	notifier    Notifier
	logger      zerolog.Logger
}

// NewService creates a session service.
func NewService(store StateStore, results ResultStore, users UserStore, leaderboard ScoreRecorder, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		store:       store,
		results:     results,
		users:       users,
		leaderboard: leaderboard,
		notifier:    notifier,
		logger:      logger.With().Str("component", "session").Logger(),
	}
}

// QuestionView is a question as shown to the player: no answer attached.
type QuestionView struct {
	Number    int            `json:"number"`
	Text      string         `json:"text"`
	Operation game.Operation `json:"operation"`
	Options   []float64      `json:"options,omitempty"`
}

func viewOf(q game.Question) QuestionView {
	return QuestionView{
		Number:    q.Number,
		Text:      q.Text,
		Operation: q.Operation,
		Options:   q.Options,
	}
}

// StartedSession is returned when a new session begins.
type StartedSession struct {
	SessionID      uuid.UUID     `json:"session_id"`
	TemplateID     string        `json:"template_id"`
	GameType       string        `json:"game_type"`
	Difficulty     string        `json:"difficulty"`
	TotalQuestions int           `json:"total_questions"`
	TimeLimit      time.Duration `json:"-"`
	TimeLimitSec   int           `json:"time_limit_seconds"`
	Question       QuestionView  `json:"question"`
	Progress       game.Progress `json:"progress"`
}

// SubmitOutcome reports the scored answer plus the session's running totals.
type SubmitOutcome struct {
	Answer       game.Answer   `json:"answer"`
	Score        int           `json:"score"`
	Streak       int           `json:"streak"`
	BestStreak   int           `json:"best_streak"`
	Progress     game.Progress `json:"progress"`
	LastQuestion bool          `json:"last_question"`
}

// Start generates questions from a template and opens a new session.
func (s *Service) Start(ctx context.Context, userID uuid.UUID, templateID string) (StartedSession, error) {
	tmpl, err := game.TemplateByID(templateID)
	if err != nil {
		return StartedSession{}, err
	}

	questions, err := game.Generate(tmpl.Config, nil)
	if err != nil {
		return StartedSession{}, fmt.Errorf("generate questions: %w", err)
	}

	engine, err := game.NewSession(questions, scoring.NewEngine(tmpl.Scoring))
	if err != nil {
		return StartedSession{}, err
	}
	first, err := engine.Start()
	if err != nil {
		return StartedSession{}, err
	}

	rec := Record{
		SessionID:  uuid.New(),
		UserID:     userID,
		TemplateID: tmpl.ID,
		GameType:   tmpl.Type,
		Difficulty: tmpl.Difficulty,
		CreatedAt:  time.Now(),
		Engine:     engine.State(),
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return StartedSession{}, fmt.Errorf("save session: %w", err)
	}

	sessionsStarted.WithLabelValues(tmpl.ID).Inc()

	s.logger.Info().
		Str("session_id", rec.SessionID.String()).
		Str("user_id", userID.String()).
		Str("template", tmpl.ID).
		Msg("session started")

	return StartedSession{
		SessionID:      rec.SessionID,
		TemplateID:     tmpl.ID,
		GameType:       tmpl.Type,
		Difficulty:     tmpl.Difficulty,
		TotalQuestions: len(questions),
		TimeLimit:      tmpl.TimeLimit,
		TimeLimitSec:   int(tmpl.TimeLimit / time.Second),
		Question:       viewOf(first),
		Progress:       engine.Progress(),
	}, nil
}

// load restores the engine for a stored session, enforcing ownership.
func (s *Service) load(ctx context.Context, userID, sessionID uuid.UUID) (Record, *game.Session, error) {
	rec, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return Record{}, nil, err
	}
	if rec.UserID != userID {
		return Record{}, nil, ErrForbidden
	}

	tmpl, err := game.TemplateByID(rec.TemplateID)
	if err != nil {
		return Record{}, nil, err
	}
	engine, err := game.Restore(rec.Engine, scoring.NewEngine(tmpl.Scoring))
	if err != nil {
		return Record{}, nil, fmt.Errorf("restore session: %w", err)
	}
	return rec, engine, nil
}

// Submit scores an answer for the session's current question.
func (s *Service) Submit(ctx context.Context, userID, sessionID uuid.UUID, answer string) (SubmitOutcome, error) {
	unlock, err := s.store.Lock(ctx, sessionID)
	if err != nil {
		return SubmitOutcome{}, fmt.Errorf("lock session: %w", err)
	}
	defer unlock()

	rec, engine, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return SubmitOutcome{}, err
	}

	record, err := engine.Submit(answer)
	if err != nil {
		return SubmitOutcome{}, err
	}

	rec.Engine = engine.State()
	if err := s.store.Save(ctx, rec); err != nil {
		return SubmitOutcome{}, fmt.Errorf("save session: %w", err)
	}

	answersSubmitted.WithLabelValues(rec.TemplateID, strconv.FormatBool(record.IsCorrect)).Inc()

	progress := engine.Progress()
	return SubmitOutcome{
		Answer:       record,
		Score:        engine.Score(),
		Streak:       engine.Streak(),
		BestStreak:   engine.BestStreak(),
		Progress:     progress,
		LastQuestion: progress.Current == progress.Total,
	}, nil
}

// Next advances to the following question. ok=false means the list is
// exhausted and the client should complete the session.
func (s *Service) Next(ctx context.Context, userID, sessionID uuid.UUID) (QuestionView, bool, error) {
	unlock, err := s.store.Lock(ctx, sessionID)
	if err != nil {
		return QuestionView{}, false, fmt.Errorf("lock session: %w", err)
	}
	defer unlock()

	rec, engine, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return QuestionView{}, false, err
	}

	question, ok := engine.Next()

	rec.Engine = engine.State()
	if err := s.store.Save(ctx, rec); err != nil {
		return QuestionView{}, false, fmt.Errorf("save session: %w", err)
	}

	if !ok {
		return QuestionView{}, false, nil
	}
	return viewOf(question), true, nil
}

// CompletedSession couples the engine summary with the stored result row.
type CompletedSession struct {
	ResultID uuid.UUID   `json:"result_id"`
	Result   game.Result `json:"result"`
}

// Complete finalizes a session: computes the summary, persists it, folds it
// into user stats and leaderboards, and notifies the player's live socket.
// Safe to call twice; the engine summary is idempotent and the session is
// only persisted once.
func (s *Service) Complete(ctx context.Context, userID, sessionID uuid.UUID) (CompletedSession, error) {
	unlock, err := s.store.Lock(ctx, sessionID)
	if err != nil {
		return CompletedSession{}, fmt.Errorf("lock session: %w", err)
	}
	defer unlock()

	rec, engine, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return CompletedSession{}, err
	}

	alreadyCompleted := engine.Completed()
	result, err := engine.Complete()
	if err != nil {
		return CompletedSession{}, err
	}

	if alreadyCompleted {
		// Replayed completion: state already persisted, don't double-count.
		return CompletedSession{Result: result}, nil
	}

	questionsJSON, err := json.Marshal(struct {
		Questions []game.Question `json:"questions"`
		Answers   []game.Answer   `json:"answers"`
	}{result.Questions, result.Answers})
	if err != nil {
		return CompletedSession{}, fmt.Errorf("marshal questions: %w", err)
	}

	saved, err := s.results.Insert(ctx, repository.InsertResultParams{
		UserID:         userID,
		GameType:       rec.TemplateID,
		Difficulty:     rec.Difficulty,
		Score:          result.TotalScore,
		TotalQuestions: result.TotalQuestions,
		CorrectAnswers: result.CorrectAnswers,
		WrongAnswers:   result.WrongAnswers,
		Accuracy:       float64(result.Accuracy),
		TotalTimeMs:    result.TotalTimeMs,
		AverageTimeMs:  result.AverageTimeMs,
		BestStreak:     result.BestStreak,
		Questions:      questionsJSON,
		CompletedAt:    result.CompletedAt,
	})
	if err != nil {
		return CompletedSession{}, fmt.Errorf("persist result: %w", err)
	}

	if err := s.users.RecordGamePlayed(ctx, userID, result.TotalScore, result.BestStreak); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to update user counters")
	}

	displayName := ""
	if user, err := s.users.GetByID(ctx, userID); err == nil {
		displayName = user.DisplayName
	}
	if err := s.leaderboard.RecordResult(ctx, userID, displayName, rec.TemplateID,
		result.TotalScore, float64(result.Accuracy)); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to record leaderboard score")
	}

	if s.notifier != nil {
		s.notifier.NotifySessionComplete(userID, sessionID, rec.TemplateID, result)
	}

	// Persist the completed engine state so a replayed Complete call can be
	// answered from Redis until the TTL runs out.
	rec.Engine = engine.State()
	if err := s.store.Save(ctx, rec); err != nil {
		s.logger.Warn().Err(err).Msg("failed to save completed session state")
	}

	sessionsCompleted.WithLabelValues(rec.TemplateID).Inc()

	s.logger.Info().
		Str("session_id", sessionID.String()).
		Str("user_id", userID.String()).
		Int("score", result.TotalScore).
		Int("accuracy", result.Accuracy).
		Msg("session completed")

	return CompletedSession{ResultID: saved.ID, Result: result}, nil
}

// ProgressInfo is the live position of an in-flight session.
type ProgressInfo struct {
	Progress   game.Progress `json:"progress"`
	Score      int           `json:"score"`
	Streak     int           `json:"streak"`
	BestStreak int           `json:"best_streak"`
	Completed  bool          `json:"completed"`
}

// Progress reports the session's current position and running totals.
func (s *Service) Progress(ctx context.Context, userID, sessionID uuid.UUID) (ProgressInfo, error) {
	_, engine, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return ProgressInfo{}, err
	}
	return ProgressInfo{
		Progress:   engine.Progress(),
		Score:      engine.Score(),
		Streak:     engine.Streak(),
		BestStreak: engine.BestStreak(),
		Completed:  engine.Completed(),
	}, nil
}
