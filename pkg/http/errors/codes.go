package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeForbidden              = "forbidden"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"

	// Resource errors
	ErrCodeNotFound      = "not_found"
	ErrCodeAlreadyExists = "already_exists"
	ErrCodeConflict      = "conflict"

	// Account errors
	ErrCodeRegistrationFailed  = "registration_failed"
	ErrCodeLoginFailed         = "login_failed"
	ErrCodeGuestCreationFailed = "guest_creation_failed"
	ErrCodeConversionFailed    = "conversion_failed"
	ErrCodeRefreshFailed       = "refresh_failed"
	ErrCodeSetUsernameFailed   = "set_username_failed"
	ErrCodeResetFailed         = "reset_failed"
	ErrCodeUsernameTaken       = "username_taken"

	// Game session errors
	ErrCodeUnknownTemplate       = "unknown_template"
	ErrCodeSessionStartFailed    = "session_start_failed"
	ErrCodeSessionNotFound       = "session_not_found"
	ErrCodeInvalidSessionID      = "invalid_session_id"
	ErrCodeSessionCompleted      = "session_completed"
	ErrCodeQuestionAnswered      = "question_answered"
	ErrCodeNoActiveQuestion      = "no_active_question"
	ErrCodeSubmitFailed          = "submit_failed"
	ErrCodeSessionCompleteFailed = "session_complete_failed"

	// Result errors
	ErrCodeResultNotFound     = "result_not_found"
	ErrCodeInvalidResultID    = "invalid_result_id"
	ErrCodeHistoryFetchFailed = "history_fetch_failed"
	ErrCodeStatsFetchFailed   = "stats_fetch_failed"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"
	ErrCodeConnectionError    = "connection_error"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"

	// OAuth errors
	ErrCodeOAuthNotConfigured  = "oauth_not_configured"
	ErrCodeOAuthStartFailed    = "oauth_start_failed"
	ErrCodeOAuthCallbackFailed = "oauth_callback_failed"
	ErrCodeOAuthMissingCode    = "missing_code"
	ErrCodeOAuthInvalidState   = "invalid_state"
	ErrCodeUserCreationFailed  = "user_creation_failed"

	// Leaderboard errors
	ErrCodeLeaderboardFetchFailed = "leaderboard_fetch_failed"
	ErrCodeUnknownWindow          = "unknown_leaderboard_window"
)
