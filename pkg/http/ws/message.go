package ws

import "encoding/json"

// MessageType constants for the live-updates WebSocket protocol.
const (
	// Client -> Server
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypePing        = "ping"

	// Server -> Client
	TypeLeaderboardUpdate = "leaderboard_update"
	TypeSessionComplete   = "session_complete"
	TypePersonalBest      = "personal_best"
	TypeError             = "error"
	TypePong              = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
}

// Client Messages (incoming)

type SubscribePayload struct {
	// Channel names a feed, e.g. "leaderboard:arithmetic-basic:daily".
	Channel string `json:"channel"`
}

type UnsubscribePayload struct {
	Channel string `json:"channel"`
}

// Server Messages (outgoing)

type LeaderboardUpdatePayload struct {
	GameType string             `json:"game_type"`
	Window   string             `json:"window"`
	Top      []LeaderboardEntry `json:"top"`
}

type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Score       int     `json:"score"`
	Games       int     `json:"games"`
	Accuracy    float64 `json:"accuracy"`
}

type SessionCompletePayload struct {
	SessionID      string  `json:"session_id"`
	GameType       string  `json:"game_type"`
	TotalScore     int     `json:"total_score"`
	CorrectAnswers int     `json:"correct_answers"`
	TotalQuestions int     `json:"total_questions"`
	Accuracy       float64 `json:"accuracy"`
	BestStreak     int     `json:"best_streak"`
}

type PersonalBestPayload struct {
	GameType     string `json:"game_type"`
	Score        int    `json:"score"`
	PreviousBest int    `json:"previous_best"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
