package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	httperrors "github.com/onlymaths/onlymaths/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for authentication.
type HTTPHandlers struct {
	authSvc  *Service
	oauthSvc *OAuthService
	logger   zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for auth endpoints.
func NewHTTPHandlers(authSvc *Service, oauthSvc *OAuthService, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		authSvc:  authSvc,
		oauthSvc: oauthSvc,
		logger:   logger,
	}
}

func userResponse(user *User, tokens *TokenPair) map[string]interface{} {
	return map[string]interface{}{
		"user_id":       user.ID.String(),
		"display_name":  user.DisplayName,
		"user_type":     user.UserType,
		"is_guest":      user.IsGuest,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_in":    tokens.ExpiresIn,
	}
}

// Register handles POST /v1/auth/register
func (h *HTTPHandlers) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	user, tokens, err := h.authSvc.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			httperrors.RespondConflict(w, httperrors.ErrCodeAlreadyExists, "Email already registered")
			return
		}
		httperrors.RespondBadRequest(w, httperrors.ErrCodeRegistrationFailed, err.Error())
		return
	}

	h.respondJSON(w, http.StatusCreated, userResponse(user, tokens))
}

// Login handles POST /v1/auth/login
func (h *HTTPHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	user, tokens, err := h.authSvc.Login(r.Context(), req)
	if err != nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeLoginFailed, "Invalid email or password")
		return
	}

	h.respondJSON(w, http.StatusOK, userResponse(user, tokens))
}

// CreateGuest handles POST /v1/auth/guest
func (h *HTTPHandlers) CreateGuest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	var req GuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.DisplayName == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "Display name required", "display_name")
		return
	}

	user, tokens, err := h.authSvc.CreateGuest(r.Context(), req)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeGuestCreationFailed, err.Error())
		return
	}

	h.respondJSON(w, http.StatusCreated, userResponse(user, tokens))
}

// ConvertGuest handles POST /v1/auth/convert
func (h *HTTPHandlers) ConvertGuest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Invalid or missing token")
		return
	}

	var req ConvertGuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	req.GuestID = claims.UserID

	user, tokens, err := h.authSvc.ConvertGuest(r.Context(), req)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeConversionFailed, err.Error())
		return
	}

	resp := userResponse(user, tokens)
	resp["converted"] = true
	h.respondJSON(w, http.StatusOK, resp)
}

// RefreshToken handles POST /v1/auth/refresh
func (h *HTTPHandlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	tokens, err := h.authSvc.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeRefreshFailed, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_in":    tokens.ExpiresIn,
	})
}

// OAuthStart handles GET /v1/oauth/{provider}/start
func (h *HTTPHandlers) OAuthStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	if h.oauthSvc == nil {
		httperrors.RespondError(w, http.StatusServiceUnavailable, httperrors.ErrCodeOAuthNotConfigured, "OAuth is not configured")
		return
	}

	provider := extractProviderFromPath(r.URL.Path)
	if provider == "" {
		provider = OAuthProviderGoogle
	}

	state := uuid.New().String()

	authURL, err := h.oauthSvc.StartOAuthFlow(provider, state)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeOAuthStartFailed, err.Error())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"auth_url": authURL,
		"state":    state,
	})
}

// OAuthCallback handles GET /v1/oauth/{provider}/callback
func (h *HTTPHandlers) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	if h.oauthSvc == nil {
		httperrors.RespondError(w, http.StatusServiceUnavailable, httperrors.ErrCodeOAuthNotConfigured, "OAuth is not configured")
		return
	}

	provider := extractProviderFromPath(r.URL.Path)
	if provider == "" {
		provider = OAuthProviderGoogle
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	if code == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeOAuthMissingCode, "Authorization code required")
		return
	}

	// CSRF check against the state cookie set at flow start
	cookie, err := r.Cookie("oauth_state")
	if err != nil || cookie.Value != state {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeOAuthInvalidState, "Invalid or missing state parameter")
		return
	}

	userInfo, err := h.oauthSvc.HandleOAuthCallback(r.Context(), provider, code, state)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeOAuthCallbackFailed, err.Error())
		return
	}

	user, tokens, err := h.oauthSvc.CreateOrGetOAuthUser(r.Context(), h.authSvc, provider, userInfo)
	if err != nil {
		httperrors.RespondInternalError(w, err.Error())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
	})

	h.respondJSON(w, http.StatusOK, userResponse(user, tokens))
}

// GetMe handles GET /v1/users/me (requires auth middleware)
func (h *HTTPHandlers) GetMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Invalid or missing token")
		return
	}

	user, err := h.authSvc.GetUser(r.Context(), claims.UserID)
	if err != nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "User not found")
		return
	}

	resp := map[string]interface{}{
		"user_id":      user.ID.String(),
		"display_name": user.DisplayName,
		"user_type":    user.UserType,
		"is_guest":     user.IsGuest,
	}
	if user.Email != nil {
		resp["email"] = *user.Email
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// SetDisplayName handles POST /v1/users/me/display-name (requires auth middleware)
func (h *HTTPHandlers) SetDisplayName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Invalid or missing token")
		return
	}

	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.DisplayName == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "Display name required", "display_name")
		return
	}

	if err := h.authSvc.SetDisplayName(r.Context(), claims.UserID, req.DisplayName); err != nil {
		if errors.Is(err, ErrDisplayNameTaken) {
			httperrors.RespondConflict(w, httperrors.ErrCodeUsernameTaken, "Display name is already taken")
			return
		}
		httperrors.RespondBadRequest(w, httperrors.ErrCodeSetUsernameFailed, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":      claims.UserID.String(),
		"display_name": req.DisplayName,
	})
}

// ForgotPassword handles POST /v1/auth/forgot-password
func (h *HTTPHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	if req.Email == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "Email required", "email")
		return
	}

	if err := h.authSvc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.logger.Warn().Err(err).Str("email", req.Email).Msg("password reset request failed")
	}

	// Always return success to prevent email enumeration
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "If an account exists with this email, a password reset link has been sent",
	})
}

// ResetPassword handles POST /v1/auth/reset-password
func (h *HTTPHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	if req.Token == "" || req.NewPassword == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "Token and new password required", "")
		return
	}

	if err := h.authSvc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeResetFailed, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Password reset successfully",
	})
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// extractProviderFromPath extracts provider name from URL path.
// Example: /v1/oauth/google/start -> "google"
func extractProviderFromPath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "oauth" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}
