package leaderboard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/onlymaths/onlymaths/internal/game"
)

// SnapshotStore persists leaderboard captures.
type SnapshotStore interface {
	InsertLeaderboardSnapshot(ctx context.Context, gameType, timeWindow string, payload json.RawMessage, capturedAt time.Time) error
}

// SnapshotWorker periodically persists Redis leaderboards into Postgres.
type SnapshotWorker struct {
	svc      *Service
	store    SnapshotStore
	logger   zerolog.Logger
	interval time.Duration
}

func NewSnapshotWorker(svc *Service, store SnapshotStore, interval time.Duration, logger zerolog.Logger) *SnapshotWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SnapshotWorker{
		svc:      svc,
		store:    store,
		logger:   logger.With().Str("component", "leaderboard_snapshot_worker").Logger(),
		interval: interval,
	}
}

// Run blocks until context cancellation.
func (w *SnapshotWorker) Run(ctx context.Context) error {
	if w.svc == nil || w.store == nil {
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// run immediately
	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *SnapshotWorker) tick(ctx context.Context) {
	for _, tmpl := range game.Templates() {
		for _, window := range w.svc.Windows() {
			if err := w.snapshotBoard(ctx, tmpl.ID, window); err != nil {
				w.logger.Warn().Err(err).
					Str("game_type", tmpl.ID).
					Str("window", window).
					Msg("snapshot failed")
			}
		}
	}
}

func (w *SnapshotWorker) snapshotBoard(ctx context.Context, gameType, window string) error {
	entries, err := w.svc.SnapshotTop(ctx, gameType, window)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	wsEntries := toWSEntries(entries)
	data, err := json.Marshal(wsEntries)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := w.store.InsertLeaderboardSnapshot(ctx, gameType, window, data, now); err != nil {
		return err
	}

	w.logger.Info().
		Str("game_type", gameType).
		Str("window", window).
		Int("entries", len(wsEntries)).
		Time("captured_at", now).
		Msg("leaderboard snapshot persisted")

	return nil
}
