package result

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/onlymaths/onlymaths/internal/auth"
	"github.com/onlymaths/onlymaths/internal/db/repository"
	httperrors "github.com/onlymaths/onlymaths/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for game history and stats.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for result endpoints.
func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{svc: svc, logger: logger}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *HTTPHandlers) caller(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return uuid.Nil, false
	}
	return claims.UserID, true
}

// History handles GET /v1/results
//
// Query params: game_type, sort (completed_at|score|accuracy), order
// (asc|desc), page, page_size.
func (h *HTTPHandlers) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	query := HistoryQuery{
		GameType: r.URL.Query().Get("game_type"),
		SortBy:   r.URL.Query().Get("sort"),
		SortDesc: r.URL.Query().Get("order") != "asc",
	}
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		query.Page = p
	}
	if ps, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil {
		query.PageSize = ps
	}

	page, err := h.svc.History(r.Context(), userID, query)
	if err != nil {
		h.logger.Error().Err(err).Msg("history fetch failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeHistoryFetchFailed, "Failed to fetch history")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// GetResult handles GET /v1/results/{id}
func (h *HTTPHandlers) GetResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	resultID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidResultID, "Invalid result ID")
		return
	}

	result, err := h.svc.Get(r.Context(), userID, resultID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeResultNotFound, "Result not found")
		return
	case errors.Is(err, ErrForbidden):
		httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, "Result belongs to another user")
		return
	case err != nil:
		h.logger.Error().Err(err).Msg("result fetch failed")
		httperrors.RespondInternalError(w, "Failed to fetch result")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// UserStats handles GET /v1/users/me/stats
func (h *HTTPHandlers) UserStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	stats, err := h.svc.UserStats(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("stats fetch failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeStatsFetchFailed, "Failed to fetch stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
