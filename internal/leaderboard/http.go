package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/onlymaths/onlymaths/internal/db/repository"
	"github.com/onlymaths/onlymaths/internal/game"
	httperrors "github.com/onlymaths/onlymaths/pkg/http/errors"
	ws "github.com/onlymaths/onlymaths/pkg/http/ws"
)

// SnapshotReader serves persisted leaderboard captures as a fallback when
// Redis has no live data.
type SnapshotReader interface {
	LatestLeaderboardSnapshot(ctx context.Context, gameType, timeWindow string) (repository.LeaderboardSnapshot, error)
}

// HTTPHandler exposes REST endpoints for leaderboard queries.
type HTTPHandler struct {
	svc       *Service
	snapshots SnapshotReader
	logger    zerolog.Logger
}

// NewHTTPHandler constructs a leaderboard HTTP handler.
func NewHTTPHandler(svc *Service, snapshots SnapshotReader, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:       svc,
		snapshots: snapshots,
		logger:    logger.With().Str("component", "leaderboard_http").Logger(),
	}
}

// HandleGet responds with the current leaderboard for a game type and window.
// Route: GET /v1/leaderboards/{gameType}/{window}?limit=10
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	gameType := r.PathValue("gameType")
	window := r.PathValue("window")

	if _, err := game.TemplateByID(gameType); err != nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeUnknownTemplate, "Unknown game type")
		return
	}
	if !h.svc.ValidWindow(window) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeUnknownWindow, "Unknown leaderboard window")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	ctx := r.Context()
	var (
		top    []ws.LeaderboardEntry
		source = "redis"
	)

	if entries, err := h.svc.Top(ctx, gameType, window, limit); err == nil {
		top = toWSEntries(entries)
	} else {
		h.logger.Warn().Err(err).Str("game_type", gameType).Str("window", window).Msg("redis leaderboard fetch failed")
	}

	if len(top) == 0 {
		source = "snapshot"
		top = h.snapshotFallback(ctx, gameType, window, limit)
	}

	resp := map[string]interface{}{
		"game_type":    gameType,
		"window":       window,
		"top":          top,
		"source":       source,
		"retrieved_at": time.Now().UTC().Format(time.RFC3339),
	}

	writeJSON(w, resp)
}

func (h *HTTPHandler) snapshotFallback(ctx context.Context, gameType, window string, limit int) []ws.LeaderboardEntry {
	if h.snapshots == nil {
		return nil
	}
	snap, err := h.snapshots.LatestLeaderboardSnapshot(ctx, gameType, window)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			h.logger.Warn().Err(err).Str("game_type", gameType).Str("window", window).Msg("snapshot fetch failed")
		}
		return nil
	}

	var entries []ws.LeaderboardEntry
	if err := json.Unmarshal(snap.Payload, &entries); err != nil {
		h.logger.Warn().Err(err).Msg("snapshot payload decode failed")
		return nil
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
