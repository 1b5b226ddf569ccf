package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/onlymaths/onlymaths/internal/auth"
	"github.com/onlymaths/onlymaths/internal/game"
	httperrors "github.com/onlymaths/onlymaths/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for the game session lifecycle.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for session endpoints.
func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{svc: svc, logger: logger}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// ListTemplates handles GET /v1/templates
func (h *HTTPHandlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	type templateView struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Description    string `json:"description"`
		Type           string `json:"type"`
		Category       string `json:"category"`
		Difficulty     string `json:"difficulty"`
		QuestionCount  int    `json:"question_count"`
		TimeLimitSec   int    `json:"time_limit_seconds"`
		BasePoints     int    `json:"base_points"`
		MultipleChoice bool   `json:"multiple_choice"`
	}

	templates := game.Templates()
	views := make([]templateView, 0, len(templates))
	for _, t := range templates {
		views = append(views, templateView{
			ID:             t.ID,
			Name:           t.Name,
			Description:    t.Description,
			Type:           t.Type,
			Category:       t.Category,
			Difficulty:     t.Difficulty,
			QuestionCount:  t.Config.Count,
			TimeLimitSec:   int(t.TimeLimit.Seconds()),
			BasePoints:     t.Scoring.BasePoints,
			MultipleChoice: t.Config.MultipleChoice,
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"templates": views})
}

func (h *HTTPHandlers) caller(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return uuid.Nil, false
	}
	return claims.UserID, true
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidSessionID, "Invalid session ID")
		return uuid.Nil, false
	}
	return id, true
}

// respondSessionError maps engine and store errors onto HTTP codes.
func (h *HTTPHandlers) respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "Session not found or expired")
	case errors.Is(err, ErrForbidden):
		httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, "Session belongs to another user")
	case errors.Is(err, game.ErrUnknownTemplate):
		httperrors.RespondNotFound(w, httperrors.ErrCodeUnknownTemplate, "Unknown game template")
	case errors.Is(err, game.ErrAlreadyAnswered):
		httperrors.RespondConflict(w, httperrors.ErrCodeQuestionAnswered, "Question already answered")
	case errors.Is(err, game.ErrNoActiveQuestion):
		httperrors.RespondConflict(w, httperrors.ErrCodeNoActiveQuestion, "No active question")
	case errors.Is(err, game.ErrNotStarted), errors.Is(err, game.ErrAlreadyStarted):
		httperrors.RespondConflict(w, httperrors.ErrCodeSessionCompleted, err.Error())
	default:
		h.logger.Error().Err(err).Msg("session operation failed")
		httperrors.RespondInternalError(w, "Internal error")
	}
}

// StartSession handles POST /v1/sessions
func (h *HTTPHandlers) StartSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req struct {
		TemplateID string `json:"template_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.TemplateID == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "Template ID required", "template_id")
		return
	}

	started, err := h.svc.Start(r.Context(), userID, req.TemplateID)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, started)
}

// SubmitAnswer handles POST /v1/sessions/{id}/answers
func (h *HTTPHandlers) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	outcome, err := h.svc.Submit(r.Context(), userID, id, req.Answer)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, outcome)
}

// NextQuestion handles POST /v1/sessions/{id}/next
func (h *HTTPHandlers) NextQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	question, more, err := h.svc.Next(r.Context(), userID, id)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}

	resp := map[string]interface{}{"done": !more}
	if more {
		resp["question"] = question
	}
	respondJSON(w, http.StatusOK, resp)
}

// CompleteSession handles POST /v1/sessions/{id}/complete
func (h *HTTPHandlers) CompleteSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	completed, err := h.svc.Complete(r.Context(), userID, id)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, completed)
}

// GetProgress handles GET /v1/sessions/{id}/progress
func (h *HTTPHandlers) GetProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	info, err := h.svc.Progress(r.Context(), userID, id)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}
