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
	_ "github.com/lib/pq"

	"github.com/fixtura/livescore-system/config"
	"github.com/fixtura/livescore-system/db"
	"github.com/fixtura/livescore-system/handlers"
	"github.com/fixtura/livescore-system/live"
	"github.com/fixtura/livescore-system/repositories"
	api "github.com/fixtura/livescore-system/routes"
	"github.com/fixtura/livescore-system/services"
	"github.com/fixtura/livescore-system/storage"
)

const (
	watcherInterval = 30 * time.Second
	kickoffWindow   = 15 * time.Minute
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Хранилище эмблем (Cloudflare R2), опционально
	var crestUploader storage.FileUploader
	if cfg.CrestStorageConfigured() {
		crestUploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("crest storage not configured, uploads disabled")
	}

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// Диспетчер подписок
	hub := live.NewHub(logger)
	logger.Info("subscription hub started")

	// Инициализация репозиториев
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	groupRepo := repositories.NewPostgresGroupRepository(dbConn)
	phaseRepo := repositories.NewPostgresPhaseRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	adminRepo := repositories.NewPostgresAdminRepository(dbConn)
	logger.Info("repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(adminRepo, cfg.JWTSecretKey)
	matchService := services.NewMatchService(matchRepo, hub, logger)
	standingsService := services.NewStandingsService(matchRepo, groupRepo)
	teamService := services.NewTeamService(teamRepo, crestUploader)
	logger.Info("services initialized")

	// Мост LISTEN/NOTIFY -> hub: мутации в обход этого процесса тоже
	// инвалидируют подписчиков.
	rowChanges := make(chan db.RowChange, 64)
	changeListener := db.NewMatchChangeListener(cfg.DatabaseURL, logger)
	go func() {
		if err := changeListener.Run(rootCtx, rowChanges); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("match change listener stopped", slog.Any("error", err))
		}
	}()
	go func() {
		for change := range rowChanges {
			hub.Publish(live.Event{
				MatchID:         change.MatchID,
				PhaseID:         change.PhaseID,
				GroupID:         change.GroupID,
				LiveListChanged: true,
			})
		}
	}()

	// Наблюдатель за началом матчей
	watcher := live.NewWatcher(hub, matchRepo, watcherInterval, kickoffWindow, logger)
	go watcher.Run(rootCtx)
	logger.Info("kickoff watcher started",
		slog.Duration("interval", watcherInterval), slog.Duration("window", kickoffWindow))

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService)
	matchHandler := handlers.NewMatchHandler(matchService)
	standingsHandler := handlers.NewStandingsHandler(standingsService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentRepo, phaseRepo)
	teamHandler := handlers.NewTeamHandler(teamService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, logger)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.CORSOrigins,
		authService,
		authHandler,
		matchHandler,
		standingsHandler,
		tournamentHandler,
		teamHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
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

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancelRoot()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
