package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/onlymaths/onlymaths/internal/auth"
	"github.com/onlymaths/onlymaths/internal/config"
)

// WSUpgrader handles WebSocket upgrades (configure CORS/security as needed).
var WSUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: implement proper origin checking for production
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handlers collects the route handlers wired by the application bootstrap.
// Any nil entry leaves its routes unregistered.
type Handlers struct {
	Auth        *auth.HTTPHandlers
	Templates   http.HandlerFunc
	Session     SessionRoutes
	Results     ResultRoutes
	Leaderboard http.HandlerFunc
	LiveWS      http.HandlerFunc
}

// SessionRoutes groups the game session endpoints.
type SessionRoutes struct {
	Start    http.HandlerFunc
	Submit   http.HandlerFunc
	Next     http.HandlerFunc
	Complete http.HandlerFunc
	Progress http.HandlerFunc
}

// ResultRoutes groups the result and stats endpoints.
type ResultRoutes struct {
	History http.HandlerFunc
	Get     http.HandlerFunc
	Stats   http.HandlerFunc
}

// NewHTTPServer wires all routes for the API service.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redis *redis.Client, authSvc *auth.Service, h Handlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), pool, redis); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	authn := auth.Middleware(authSvc, logger)
	protected := func(fn http.HandlerFunc) http.Handler {
		return authn(auth.RequireAuth(fn))
	}

	if h.Auth != nil {
		mux.HandleFunc("POST /v1/auth/register", h.Auth.Register)
		mux.HandleFunc("POST /v1/auth/login", h.Auth.Login)
		mux.HandleFunc("POST /v1/auth/guest", h.Auth.CreateGuest)
		mux.Handle("POST /v1/auth/convert", protected(h.Auth.ConvertGuest))
		mux.HandleFunc("POST /v1/auth/refresh", h.Auth.RefreshToken)
		mux.HandleFunc("POST /v1/auth/forgot-password", h.Auth.ForgotPassword)
		mux.HandleFunc("POST /v1/auth/reset-password", h.Auth.ResetPassword)
		mux.HandleFunc("GET /v1/oauth/{provider}/start", h.Auth.OAuthStart)
		mux.HandleFunc("GET /v1/oauth/{provider}/callback", h.Auth.OAuthCallback)
		mux.Handle("GET /v1/users/me", protected(h.Auth.GetMe))
		mux.Handle("POST /v1/users/me/display-name", protected(h.Auth.SetDisplayName))
	}

	if h.Templates != nil {
		mux.HandleFunc("GET /v1/templates", h.Templates)
	}

	if h.Session.Start != nil {
		mux.Handle("POST /v1/sessions", protected(h.Session.Start))
		mux.Handle("POST /v1/sessions/{id}/answers", protected(h.Session.Submit))
		mux.Handle("POST /v1/sessions/{id}/next", protected(h.Session.Next))
		mux.Handle("POST /v1/sessions/{id}/complete", protected(h.Session.Complete))
		mux.Handle("GET /v1/sessions/{id}/progress", protected(h.Session.Progress))
	}

	if h.Results.History != nil {
		mux.Handle("GET /v1/results", protected(h.Results.History))
		mux.Handle("GET /v1/results/{id}", protected(h.Results.Get))
		mux.Handle("GET /v1/users/me/stats", protected(h.Results.Stats))
	}

	if h.Leaderboard != nil {
		mux.HandleFunc("GET /v1/leaderboards/{gameType}/{window}", h.Leaderboard)
	}

	if h.LiveWS != nil {
		mux.HandleFunc("GET /ws/live", h.LiveWS)
	}

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: corsMiddleware(cfg.CORS)(mux),
	}
}

// corsMiddleware applies the configured CORS policy to every response and
// short-circuits preflight requests.
func corsMiddleware(cfg config.CORS) func(http.Handler) http.Handler {
	allowedOrigins := make(map[string]bool, len(cfg.AllowedOrigins))
	allowAll := false
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowedOrigins[origin] = true
	}

	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || allowedOrigins[origin]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				if cfg.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redis *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	if err := redis.Ping(ctx).Err(); err != nil {
		return err
	}
	return nil
}
