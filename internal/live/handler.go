package live

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/onlymaths/onlymaths/internal/auth"
	"github.com/onlymaths/onlymaths/internal/server"
	httperrors "github.com/onlymaths/onlymaths/pkg/http/errors"
	ws "github.com/onlymaths/onlymaths/pkg/http/ws"
)

// Handler manages live-update WebSocket connections. Clients subscribe to
// named channels (e.g. "leaderboard:arithmetic-basic:daily") and receive
// pushed updates until they disconnect.
type Handler struct {
	hub     *ws.Hub
	authSvc *auth.Service
	logger  zerolog.Logger
}

// NewHandler creates a live-updates WebSocket handler.
func NewHandler(hub *ws.Hub, authSvc *auth.Service, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:     hub,
		authSvc: authSvc,
		logger:  logger.With().Str("component", "live_ws").Logger(),
	}
}

// HandleWebSocket upgrades the HTTP connection and authenticates the user.
// The token is read from the "token" query parameter because browsers cannot
// set headers on WebSocket requests.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Missing token")
		return
	}

	claims, err := h.authSvc.ValidateToken(token)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket token validation failed")
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid token")
		return
	}

	conn, err := server.WSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.handleConnection(conn, claims.UserID)
}

func (h *Handler) handleConnection(conn *websocket.Conn, userID uuid.UUID) {
	wsConn := ws.NewConnection(conn, h.logger)
	h.hub.RegisterConnection(userID, wsConn)

	go wsConn.WritePump()

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(userID, msg)
	})

	h.hub.UnregisterConnection(userID)
}

func (h *Handler) handleMessage(userID uuid.UUID, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeSubscribe:
		return h.handleSubscribe(userID, msg.Payload)
	case ws.TypeUnsubscribe:
		return h.handleUnsubscribe(userID, msg.Payload)
	case ws.TypePing:
		return h.hub.SendToUser(userID, ws.Message{Type: ws.TypePong})
	default:
		return h.sendError(userID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Handler) handleSubscribe(userID uuid.UUID, payload json.RawMessage) error {
	var req ws.SubscribePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid subscribe payload")
	}
	if !validChannel(req.Channel) {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, fmt.Sprintf("Unknown channel: %s", req.Channel))
	}

	h.hub.Subscribe(req.Channel, userID)
	return nil
}

func (h *Handler) handleUnsubscribe(userID uuid.UUID, payload json.RawMessage) error {
	var req ws.UnsubscribePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid unsubscribe payload")
	}

	h.hub.Unsubscribe(req.Channel, userID)
	return nil
}

// validChannel accepts "leaderboard:{gameType}:{window}" channel names.
func validChannel(channel string) bool {
	parts := strings.Split(channel, ":")
	return len(parts) == 3 && parts[0] == "leaderboard" && parts[1] != "" && parts[2] != ""
}

func (h *Handler) sendError(userID uuid.UUID, code, message string) error {
	errPayload := ws.ErrorPayload{
		Code:    code,
		Message: message,
	}
	msg := ws.Message{Type: ws.TypeError}
	msg.Payload, _ = json.Marshal(errPayload)
	return h.hub.SendToUser(userID, msg)
}
