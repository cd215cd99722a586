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

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"chat-relay/auth"
	relayerrors "chat-relay/errors"
	"chat-relay/infrastructure/httpapi"
	"chat-relay/infrastructure/ws"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
)

// Exit codes to provide meaningful status to the operating system or service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Demo credentials matching the bundled browser client. Seeded at boot
// unless SEED_DEMO_USERS is disabled; existing accounts are left untouched.
var demoUsers = map[string]string{
	"Ana":    "password123",
	"Juan":   "password456",
	"Charly": "password789",
}

func main() {
	// main is a thin wrapper: run() does the work, main maps its result
	// to an OS exit code after all defers have executed.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	maskRune, err := config.MaskRune()
	if err != nil {
		return exitConfig, err
	}

	logger := internal.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are
		// flushed before the process exits.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	userRepository := repositories.NewUserRepository(db)
	messageRepository := repositories.NewMessageRepository(db, logger, config.LimitMessages)

	if config.SeedDemoUsers {
		if err := seedUsers(logger, userRepository); err != nil {
			return exitRuntime, fmt.Errorf("user seeding failed: %w", err)
		}
	}

	// 3. Core relay: registry, moderation, router, services
	masker, err := moderation.NewMasker(config.CensoredWordList(), maskRune)
	if err != nil {
		return exitConfig, fmt.Errorf("masker build failed: %w", err)
	}

	registry := runtime.NewRegistry()
	router := runtime.NewRouter(logger, registry, messageRepository, masker)
	tokens := auth.NewTokens(config.JWTSecret, config.AuthTokenDuration)
	verifier := auth.NewVerifier(userRepository)
	authService := services.NewAuthService(verifier, userRepository, tokens)
	chatService := services.NewChatService(registry, router, messageRepository, tokens)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Errors from the HTTP server or a supervised worker
	errChan := make(chan error, 2)

	// 5. Background workers under supervision
	supervisor := workers.NewSupervisor(logger, config.RestartInterval)
	supervisor.Add(workers.NewStorageGC(db, logger, config.StorageGCInterval))
	go supervisor.Run(ctx)

	// 6. HTTP server (REST + WebSocket endpoint)
	wsHandler := ws.NewHandler(logger, chatService, config.ConnectionBufferSize)
	httpRouter := httpapi.NewRouter(logger, authService, chatService, wsHandler)

	address := fmt.Sprintf("0.0.0.0:%d", config.Port)
	server := &http.Server{Addr: address, Handler: httpRouter}

	go func() {
		logger.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 8. Final Cleanup (Graceful Shutdown)
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	supervisor.Stop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG)
	}
	return options.WithLoggingLevel(badger.WARNING)
}

func seedUsers(logger *slog.Logger, users repositories.IUserRepository) error {
	for username, password := range demoUsers {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		if _, err := users.CreateUser(username, hash); err != nil {
			if errors.Is(err, relayerrors.ErrUserAlreadyExists) {
				continue
			}
			return err
		}
		logger.Info("Demo user seeded", "username", username)
	}
	return nil
}
