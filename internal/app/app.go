package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/onlymaths/onlymaths/internal/auth"
	"github.com/onlymaths/onlymaths/internal/auth/jwt"
	"github.com/onlymaths/onlymaths/internal/config"
	"github.com/onlymaths/onlymaths/internal/db/repository"
	"github.com/onlymaths/onlymaths/internal/leaderboard"
	"github.com/onlymaths/onlymaths/internal/live"
	"github.com/onlymaths/onlymaths/internal/logging"
	"github.com/onlymaths/onlymaths/internal/result"
	"github.com/onlymaths/onlymaths/internal/server"
	"github.com/onlymaths/onlymaths/internal/session"
	ws "github.com/onlymaths/onlymaths/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	lbBroadcaster  *leaderboard.Broadcaster
	snapshotWorker *leaderboard.SnapshotWorker
	bgCancels      []context.CancelFunc
}

// New bootstraps configs, logger, Postgres, Redis and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password,
		cfg.Postgres.Database, cfg.Postgres.SSLMode, cfg.Postgres.PoolMax)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	userRepo := repository.NewUserRepository(pool)
	resultRepo := repository.NewResultRepository(pool)

	// Auth
	var emailSvc *auth.EmailService
	if cfg.SMTP.Host != "" {
		emailSvc = auth.NewEmailService(auth.EmailConfig{
			SMTPHost:     cfg.SMTP.Host,
			SMTPPort:     cfg.SMTP.Port,
			SMTPUsername: cfg.SMTP.Username,
			SMTPPassword: cfg.SMTP.Password,
			FromEmail:    cfg.SMTP.FromEmail,
		}, logger)
	} else {
		logger.Warn().Msg("SMTP not configured; password reset emails disabled")
	}

	authSvc := auth.NewService(userRepo, auth.ServiceOptions{
		TokenConfig: jwt.TokenConfig{
			AccessSecret:  []byte(cfg.Security.JWTSecret),
			RefreshSecret: []byte(cfg.Security.JWTSecret + "_refresh"),
			Issuer:        cfg.Name,
		},
		Redis:    redisClient,
		EmailSvc: emailSvc,
	}, logger)

	var oauthSvc *auth.OAuthService
	if cfg.OAuth.GoogleClientID != "" && cfg.OAuth.GoogleClientSecret != "" {
		redirectURL := cfg.OAuth.GoogleRedirectURL
		if redirectURL == "" {
			redirectURL = fmt.Sprintf("http://%s/v1/oauth/google/callback", cfg.HTTPAddr)
		}
		oauthSvc = auth.NewOAuthService(cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, redirectURL, logger)
		logger.Info().Msg("OAuth service initialized")
	} else {
		logger.Warn().Msg("OAuth not configured (missing GOOGLE_OAUTH_CLIENT_ID or GOOGLE_OAUTH_CLIENT_SECRET)")
	}

	authHandlers := auth.NewHTTPHandlers(authSvc, oauthSvc, logger)

	// Live updates
	wsHub := ws.NewHub(logger)
	liveHandler := live.NewHandler(wsHub, authSvc, logger)
	notifier := live.NewNotifier(wsHub, redisClient, logger)

	// Leaderboards
	leaderboardSvc := leaderboard.NewService(redisClient, logger, leaderboard.ServiceOptions{
		SnapshotTopLimit: cfg.Leaderboard.SnapshotTopN,
	})
	lbBroadcaster := leaderboard.NewBroadcaster(redisClient, wsHub, "", logger)
	lbHandlers := leaderboard.NewHTTPHandler(leaderboardSvc, resultRepo, logger)
	var snapshotWorker *leaderboard.SnapshotWorker
	if interval := cfg.Leaderboard.SnapshotInterval; interval > 0 {
		snapshotWorker = leaderboard.NewSnapshotWorker(leaderboardSvc, resultRepo, interval, logger)
	}

	// Gameplay
	sessionStore := session.NewStore(redisClient, cfg.Session.TTL, logger)
	sessionSvc := session.NewService(sessionStore, resultRepo, userRepo, leaderboardSvc, notifier, logger)
	sessionHandlers := session.NewHTTPHandlers(sessionSvc, logger)

	resultSvc := result.NewService(resultRepo, logger)
	resultHandlers := result.NewHTTPHandlers(resultSvc, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, authSvc, server.Handlers{
		Auth:      authHandlers,
		Templates: sessionHandlers.ListTemplates,
		Session: server.SessionRoutes{
			Start:    sessionHandlers.StartSession,
			Submit:   sessionHandlers.SubmitAnswer,
			Next:     sessionHandlers.NextQuestion,
			Complete: sessionHandlers.CompleteSession,
			Progress: sessionHandlers.GetProgress,
		},
		Results: server.ResultRoutes{
			History: resultHandlers.History,
			Get:     resultHandlers.GetResult,
			Stats:   resultHandlers.UserStats,
		},
		Leaderboard: lbHandlers.HandleGet,
		LiveWS:      liveHandler.HandleWebSocket,
	})

	return &Application{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		http:           apiServer,
		lbBroadcaster:  lbBroadcaster,
		snapshotWorker: snapshotWorker,
		bgCancels:      make([]context.CancelFunc, 0, 2),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.lbBroadcaster != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.lbBroadcaster.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("leaderboard broadcaster stopped")
			}
		}()
	}

	if a.snapshotWorker != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.snapshotWorker.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("leaderboard snapshot worker stopped")
			}
		}()
	}
}
