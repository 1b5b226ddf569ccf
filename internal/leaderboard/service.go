package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	ws "github.com/onlymaths/onlymaths/pkg/http/ws"
)

// Supported leaderboard windows.
const (
	WindowDaily   = "daily"
	WindowWeekly  = "weekly"
	WindowMonthly = "monthly"
	WindowAllTime = "all_time"
)

var defaultWindows = []string{WindowDaily, WindowWeekly, WindowMonthly, WindowAllTime}

// windowTTL bounds how long a rolling window's keys survive without updates.
var windowTTL = map[string]time.Duration{
	WindowDaily:   48 * time.Hour,
	WindowWeekly:  14 * 24 * time.Hour,
	WindowMonthly: 62 * 24 * time.Hour,
}

// Entry represents a leaderboard record sent to clients.
type Entry struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Score       int       `json:"score"`
	Games       int       `json:"games"`
	Accuracy    float64   `json:"accuracy"` // average percent across games
}

// ServiceOptions configures leaderboard service behavior.
type ServiceOptions struct {
	TopN             int
	PubSubChannel    string
	Windows          []string
	RedisKeyPrefix   string
	SnapshotTopLimit int
}

// Service manages per-game-type leaderboards in Redis and emits updates
// over Pub/Sub.
type Service struct {
	redis          *redis.Client
	logger         zerolog.Logger
	topN           int
	pubsubChannel  string
	windows        []string
	prefix         string
	snapshotTopLim int
}

// NewService constructs a leaderboard service instance.
func NewService(redis *redis.Client, logger zerolog.Logger, opts ServiceOptions) *Service {
	topN := opts.TopN
	if topN <= 0 {
		topN = 50
	}
	channel := opts.PubSubChannel
	if channel == "" {
		channel = "lb:updates"
	}
	windows := opts.Windows
	if len(windows) == 0 {
		windows = defaultWindows
	}
	prefix := opts.RedisKeyPrefix
	if prefix == "" {
		prefix = "lb"
	}
	snapTop := opts.SnapshotTopLimit
	if snapTop <= 0 {
		snapTop = 100
	}

	return &Service{
		redis:          redis,
		logger:         logger.With().Str("component", "leaderboard").Logger(),
		topN:           topN,
		pubsubChannel:  channel,
		windows:        windows,
		prefix:         prefix,
		snapshotTopLim: snapTop,
	}
}

// Windows returns the configured window names.
func (s *Service) Windows() []string {
	return append([]string(nil), s.windows...)
}

// ValidWindow reports whether a window name is served.
func (s *Service) ValidWindow(window string) bool {
	for _, w := range s.windows {
		if w == window {
			return true
		}
	}
	return false
}

// RecordResult folds one finished game into every window of the game type's
// leaderboard. Accuracy is a percentage for that single game.
func (s *Service) RecordResult(ctx context.Context, userID uuid.UUID, displayName, gameType string, score int, accuracy float64) error {
	entry := Entry{
		UserID:      userID,
		DisplayName: displayName,
		Score:       score,
		Games:       1,
		Accuracy:    accuracy,
	}

	for _, window := range s.windows {
		if err := s.updateWindow(ctx, gameType, window, entry); err != nil {
			return err
		}
	}

	// Publish aggregate update for WebSocket consumers.
	go s.publishUpdate(context.Background(), gameType)
	return nil
}

// Top retrieves the top N entries for a game type and window.
func (s *Service) Top(ctx context.Context, gameType, window string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	zKey := s.leaderboardKey(gameType, window)
	results, err := s.redis.ZRevRangeWithScores(ctx, zKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for _, z := range results {
		meta, err := s.readMeta(ctx, gameType, window, z.Member.(string))
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to read leaderboard metadata")
			continue
		}
		meta.Score = int(z.Score)
		entries = append(entries, *meta)
	}
	return entries, nil
}

// Rank returns a user's 1-based position in a window, or 0 if absent.
func (s *Service) Rank(ctx context.Context, gameType, window string, userID uuid.UUID) (int, error) {
	rank, err := s.redis.ZRevRank(ctx, s.leaderboardKey(gameType, window), userID.String()).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("fetch rank: %w", err)
	}
	return int(rank) + 1, nil
}

// SnapshotTop returns the configured snapshot size for persistence jobs.
func (s *Service) SnapshotTop(ctx context.Context, gameType, window string) ([]Entry, error) {
	return s.Top(ctx, gameType, window, s.snapshotTopLim)
}

func (s *Service) updateWindow(ctx context.Context, gameType, window string, entry Entry) error {
	zKey := s.leaderboardKey(gameType, window)
	metaKey := s.metaKey(gameType, window, entry.UserID)

	pipe := s.redis.TxPipeline()
	pipe.ZIncrBy(ctx, zKey, float64(entry.Score), entry.UserID.String())
	pipe.HIncrBy(ctx, metaKey, "games", int64(entry.Games))
	pipe.HIncrByFloat(ctx, metaKey, "accuracy_sum", entry.Accuracy)
	pipe.HSet(ctx, metaKey, map[string]interface{}{
		"display_name": entry.DisplayName,
	})
	if ttl, ok := windowTTL[window]; ok {
		pipe.Expire(ctx, zKey, ttl)
		pipe.Expire(ctx, metaKey, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update leaderboard %s/%s: %w", gameType, window, err)
	}
	return nil
}

func (s *Service) publishUpdate(ctx context.Context, gameType string) {
	for _, window := range s.windows {
		entries, err := s.Top(ctx, gameType, window, 10)
		if err != nil {
			s.logger.Warn().Err(err).Str("window", window).Msg("failed to collect leaderboard update")
			continue
		}
		if len(entries) == 0 {
			continue
		}

		payload := ws.LeaderboardUpdatePayload{
			GameType: gameType,
			Window:   window,
			Top:      toWSEntries(entries),
		}
		data, err := json.Marshal(payload)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to marshal leaderboard update")
			continue
		}
		if err := s.redis.Publish(ctx, s.pubsubChannel, data).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish leaderboard update")
		}
	}
}

func (s *Service) readMeta(ctx context.Context, gameType, window string, userIDStr string) (*Entry, error) {
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("bad member %q: %w", userIDStr, err)
	}

	metaKey := s.metaKey(gameType, window, userID)
	data, err := s.redis.HGetAll(ctx, metaKey).Result()
	if err != nil {
		return nil, err
	}

	entry := &Entry{UserID: userID}
	if len(data) == 0 {
		// No metadata yet; fallback minimal entry.
		return entry, nil
	}

	entry.DisplayName = data["display_name"]
	entry.Games = parseInt(data["games"])
	if entry.Games > 0 {
		entry.Accuracy = parseFloat(data["accuracy_sum"]) / float64(entry.Games)
	}
	return entry, nil
}

func (s *Service) leaderboardKey(gameType, window string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, gameType, window)
}

func (s *Service) metaKey(gameType, window string, userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s:meta:%s", s.prefix, gameType, window, userID.String())
}

func parseFloat(val string) float64 {
	if val == "" {
		return 0
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(val string) int {
	if val == "" {
		return 0
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return i
}
