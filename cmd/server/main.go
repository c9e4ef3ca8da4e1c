package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ensured/skate-deck-sub000/internal/catalog"
	"github.com/ensured/skate-deck-sub000/internal/config"
	"github.com/ensured/skate-deck-sub000/internal/game"
	"github.com/ensured/skate-deck-sub000/internal/handler"
	"github.com/ensured/skate-deck-sub000/internal/identity"
	"github.com/ensured/skate-deck-sub000/internal/kafka"
	"github.com/ensured/skate-deck-sub000/internal/postgres"
	"github.com/ensured/skate-deck-sub000/internal/redis"
	"github.com/ensured/skate-deck-sub000/internal/service"
	"github.com/ensured/skate-deck-sub000/internal/websocket"
	"github.com/ensured/skate-deck-sub000/internal/worker"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	envPath := flag.String("env", ".env", "Path to dotenv file")
	flag.Parse()

	// Missing .env is fine; the environment may already be set
	envErr := godotenv.Load(*envPath)

	// Load configuration
	cfg, cfgErr := config.Load(*configPath)
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn("failed to load env file", "path", *envPath, "error", envErr)
	}
	if cfgErr != nil {
		logger.Warn("failed to load config file, using defaults", "error", cfgErr)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Redis; without it the game lives in memory only
	var store service.SnapshotStore
	logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
	snapshots, err := redis.NewSnapshotStore(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("failed to connect to Redis, game state will not survive restarts", "error", err)
	} else {
		defer snapshots.Close()
		store = snapshots
		logger.Info("connected to Redis")
	}

	// Initialize PostgreSQL
	var history service.HistoryStore
	var postgresRepo *postgres.Repository
	if cfg.Postgres.Enabled {
		logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		postgresRepo, err = postgres.NewRepository(&cfg.Postgres, logger)
		if err != nil {
			logger.Error("failed to connect to PostgreSQL", "error", err)
			os.Exit(1)
		}
		defer postgresRepo.Close()
		logger.Info("connected to PostgreSQL")

		// Run database migrations
		if err := postgresRepo.RunMigrations(ctx); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		history = postgresRepo
	}

	// Initialize the game
	seed := cfg.Game.RNGSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gameService, err := service.NewGameService(ctx, catalog.AllTricks(), game.Options{
		Settings:   cfg.Game.Settings(),
		MaxPlayers: cfg.Game.MaxPlayers,
		Rng:        rand.New(rand.NewSource(seed)),
		Logger:     logger,
	}, store, history, identity.ContextProvider{}, logger)
	if err != nil {
		logger.Error("failed to initialize game", "error", err)
		os.Exit(1)
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(logger)
	wsHub.SetGame(gameService)
	go wsHub.Run()
	gameService.SetBroadcaster(wsHub)
	logger.Info("WebSocket hub initialized")

	// Initialize checkpoint worker
	var checkpointWorker *worker.CheckpointWorker
	if cfg.Checkpoint.Enabled && snapshots != nil && postgresRepo != nil {
		checkpointWorker = worker.NewCheckpointWorker(snapshots, postgresRepo, &cfg.Checkpoint, logger)
		if err := checkpointWorker.Start(ctx); err != nil {
			logger.Error("failed to start checkpoint worker", "error", err)
			os.Exit(1)
		}
	}

	// Initialize Kafka consumer for intents from other frontends
	var kafkaConsumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka consumer",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		kafkaConsumer, err = kafka.NewConsumer(&cfg.Kafka, gameService, logger)
		if err != nil {
			logger.Warn("failed to create Kafka consumer, continuing without Kafka", "error", err)
			kafkaConsumer = nil
		} else if err := kafkaConsumer.Start(); err != nil {
			logger.Warn("failed to start Kafka consumer, continuing without Kafka", "error", err)
			kafkaConsumer = nil
		} else {
			logger.Info("Kafka consumer started successfully")
		}
	}

	// Initialize HTTP handler
	httpHandler := handler.NewHandler(gameService, wsHub, logger)
	if snapshots != nil {
		httpHandler.AddReadinessCheck("redis", snapshots)
	}
	if postgresRepo != nil {
		httpHandler.AddReadinessCheck("postgres", postgresRepo)
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server first so no new intents arrive
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	wsHub.Stop()

	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}

	if checkpointWorker != nil {
		if err := checkpointWorker.Stop(); err != nil {
			logger.Error("failed to stop checkpoint worker", "error", err)
		}
		// Final checkpoint so history has the latest state
		if _, err := checkpointWorker.RunOnce(shutdownCtx); err != nil {
			logger.Warn("final checkpoint failed", "error", err)
		}
	}

	logger.Info("server stopped")
}
