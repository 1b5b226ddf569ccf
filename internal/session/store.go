package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/onlymaths/onlymaths/internal/game"
)

// ErrSessionNotFound is returned when no live session exists for an ID.
var ErrSessionNotFound = errors.New("session not found")

// Record is the persisted form of one live game session.
type Record struct {
	SessionID  uuid.UUID  `json:"session_id"`
	UserID     uuid.UUID  `json:"user_id"`
	TemplateID string     `json:"template_id"`
	GameType   string     `json:"game_type"`
	Difficulty string     `json:"difficulty"`
	CreatedAt  time.Time  `json:"created_at"`
	Engine     game.State `json:"engine"`
}

// Store keeps live session state in Redis so any API instance can serve
// the next request. Abandoned sessions expire with the TTL.
type Store struct {
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewStore creates a session store backed by Redis.
func NewStore(redisClient *redis.Client, ttl time.Duration, logger zerolog.Logger) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
	}
}

func sessionKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session:state:%s", sessionID.String())
}

// Save writes a session snapshot, refreshing its TTL.
func (s *Store) Save(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.redis.Set(ctx, sessionKey(rec.SessionID), data, s.ttl).Err()
}

// Get loads a session snapshot.
func (s *Store) Get(ctx context.Context, sessionID uuid.UUID) (Record, error) {
	data, err := s.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return Record{}, ErrSessionNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get session: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return rec, nil
}

// Delete removes a session snapshot after completion.
func (s *Store) Delete(ctx context.Context, sessionID uuid.UUID) error {
	return s.redis.Del(ctx, sessionKey(sessionID)).Err()
}

// Lock acquires a short distributed lock for a session so concurrent
// submits from the same player cannot interleave. Returns an unlock func.
func (s *Store) Lock(ctx context.Context, sessionID uuid.UUID) (func() error, error) {
	key := fmt.Sprintf("session:lock:%s", sessionID.String())
	lockValue := uuid.New().String()

	acquired, err := s.redis.SetNX(ctx, key, lockValue, 10*time.Second).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("lock already held")
	}

	unlock := func() error {
		// Lua script ensures we only delete our own lock
		script := `
			if redis.call("get", KEYS[1]) == ARGV[1] then
				return redis.call("del", KEYS[1])
			else
				return 0
			end
		`
		return s.redis.Eval(ctx, script, []string{key}, lockValue).Err()
	}

	return unlock, nil
}
