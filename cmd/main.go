package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/francosolari/nba-props-board/config"
	"github.com/francosolari/nba-props-board/handlers"
	"github.com/francosolari/nba-props-board/leaderboard"
	"github.com/francosolari/nba-props-board/middleware"
	api "github.com/francosolari/nba-props-board/routes"
	"github.com/francosolari/nba-props-board/services"
	"github.com/francosolari/nba-props-board/storage"
	"github.com/francosolari/nba-props-board/upstream"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("upstream", cfg.UpstreamBaseURL))

	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	upstreamClient, err := upstream.NewHTTPClient(cfg.UpstreamBaseURL, &http.Client{Timeout: 15 * time.Second}, logger)
	if err != nil {
		logger.Error("failed to build upstream client", slog.Any("error", err))
		os.Exit(1)
	}

	avatarResolver, err := storage.NewAvatarResolver(cfg.AvatarBaseURL)
	if err != nil {
		logger.Error("failed to build avatar resolver", slog.Any("error", err))
		os.Exit(1)
	}

	wsHub := leaderboard.NewHub(logger)
	go wsHub.Run(appCtx)
	logger.Info("WebSocket hub started")

	seasonService := services.NewSeasonService(upstreamClient, logger)
	leaderboardService := services.NewLeaderboardService(upstreamClient, seasonService, wsHub, avatarResolver, logger)
	submissionService := services.NewSubmissionService(upstreamClient, seasonService, logger)
	logger.Info("services initialized")

	// Keep watched seasons warm and nudge their rooms when totals move.
	go func() {
		ticker := time.NewTicker(cfg.RefreshInterval)
		defer ticker.Stop()
		logger.Info("leaderboard refresher started", slog.Duration("interval", cfg.RefreshInterval))
		for {
			select {
			case <-appCtx.Done():
				return
			case <-ticker.C:
				leaderboardService.RefreshWatched(appCtx)
			}
		}
	}()

	authenticator := middleware.NewAuthenticator(cfg.JWTSecretKey)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	seasonHandler := handlers.NewSeasonHandler(seasonService)
	answersHandler := handlers.NewAnswersHandler(submissionService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, seasonService, cfg.AllowedOrigins)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authenticator,
		cfg.AllowedOrigins,
		leaderboardHandler,
		seasonHandler,
		answersHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		// Stops the hub and the refresher before draining requests.
		cancelApp()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
