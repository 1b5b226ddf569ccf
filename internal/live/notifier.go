package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/onlymaths/onlymaths/internal/game"
	ws "github.com/onlymaths/onlymaths/pkg/http/ws"
)

// Notifier pushes session completion events to the finishing player over the
// hub and tracks per-game-type personal bests in Redis.
type Notifier struct {
	hub    *ws.Hub
	redis  *redis.Client
	logger zerolog.Logger
}

// NewNotifier creates a hub-backed completion notifier.
func NewNotifier(hub *ws.Hub, redis *redis.Client, logger zerolog.Logger) *Notifier {
	return &Notifier{
		hub:    hub,
		redis:  redis,
		logger: logger.With().Str("component", "live_notifier").Logger(),
	}
}

// NotifySessionComplete delivers the final result to the player. A player
// without an open WebSocket connection simply misses the push; the REST
// response already carries the same data.
func (n *Notifier) NotifySessionComplete(userID uuid.UUID, sessionID uuid.UUID, gameType string, result game.Result) {
	payload := ws.SessionCompletePayload{
		SessionID:      sessionID.String(),
		GameType:       gameType,
		TotalScore:     result.TotalScore,
		CorrectAnswers: result.CorrectAnswers,
		TotalQuestions: result.TotalQuestions,
		Accuracy:       float64(result.Accuracy),
		BestStreak:     result.BestStreak,
	}

	msg := ws.Message{Type: ws.TypeSessionComplete}
	msg.Payload, _ = json.Marshal(payload)
	if err := n.hub.SendToUser(userID, msg); err != nil && !errors.Is(err, ws.ErrConnectionNotFound) {
		n.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("session complete push failed")
	}

	n.checkPersonalBest(userID, gameType, result.TotalScore)
}

func (n *Notifier) checkPersonalBest(userID uuid.UUID, gameType string, score int) {
	if n.redis == nil {
		return
	}

	ctx := context.Background()
	key := personalBestKey(userID, gameType)

	prev, err := n.redis.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		n.logger.Warn().Err(err).Msg("personal best lookup failed")
		return
	}

	previous := 0
	if err == nil {
		previous, _ = strconv.Atoi(prev)
	}
	if score <= previous {
		return
	}

	if err := n.redis.Set(ctx, key, score, 0).Err(); err != nil {
		n.logger.Warn().Err(err).Msg("personal best store failed")
		return
	}

	// First ever game is not announced as a record.
	if previous == 0 {
		return
	}

	payload := ws.PersonalBestPayload{
		GameType:     gameType,
		Score:        score,
		PreviousBest: previous,
	}
	msg := ws.Message{Type: ws.TypePersonalBest}
	msg.Payload, _ = json.Marshal(payload)
	if err := n.hub.SendToUser(userID, msg); err != nil && !errors.Is(err, ws.ErrConnectionNotFound) {
		n.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("personal best push failed")
	}
}

func personalBestKey(userID uuid.UUID, gameType string) string {
	return fmt.Sprintf("pb:%s:%s", userID.String(), gameType)
}
