package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iudanet/entsync/internal/server/handlers"
	"github.com/iudanet/entsync/internal/server/jwt"
	"github.com/iudanet/entsync/internal/server/middleware"
	"github.com/iudanet/entsync/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	addr := flag.String("addr", ":8080", "Listen address")
	dbPath := flag.String("db", "entsync-server.db", "Path to SQLite database")
	accessTTL := flag.Duration("access-ttl", 15*time.Minute, "Access token lifetime")
	refreshTTL := flag.Duration("refresh-ttl", 30*24*time.Hour, "Refresh token lifetime")
	rateLimit := flag.Int("rate-limit", 300, "Requests per client per minute")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := run(logger, *addr, *dbPath, *accessTTL, *refreshTTL, *rateLimit); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, addr, dbPath string, accessTTL, refreshTTL time.Duration, rateLimit int) error {
	// Секрет подписи токенов приходит только из окружения
	secret := os.Getenv("ENTSYNC_JWT_SECRET")
	if secret == "" {
		return fmt.Errorf("ENTSYNC_JWT_SECRET environment variable is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	tokens := jwt.NewService(jwt.Config{
		Secret:          []byte(secret),
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: refreshTTL,
	})

	limiter := middleware.NewRateLimiter(rateLimit, time.Minute, logger)
	defer limiter.Stop()

	mux := newRouter(logger, store, tokens)

	chain := middleware.RecoveryMiddleware(logger)(
		middleware.LoggingMiddleware(logger, "/api/v1/health")(
			middleware.RateLimitMiddleware(limiter, logger)(mux)))

	srv := &http.Server{
		Addr:              addr,
		Handler:           chain,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "version", Version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

// newRouter собирает маршруты: auth-группа открыта, entities — за JWT
func newRouter(logger *slog.Logger, store *sqlite.Storage, tokens *jwt.Service) *http.ServeMux {
	authHandler := handlers.NewAuthHandler(logger, store, store, tokens)
	entitiesHandler := handlers.NewEntitiesHandler(logger, store)
	healthHandler := handlers.NewHealthHandler(logger, Version)

	requireAuth := middleware.AuthMiddleware(logger, tokens)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", healthHandler.Health)
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", authHandler.Refresh)
	mux.Handle("POST /api/v1/entities/get", requireAuth(http.HandlerFunc(entitiesHandler.Get)))
	mux.Handle("POST /api/v1/entities/search", requireAuth(http.HandlerFunc(entitiesHandler.Search)))
	mux.Handle("POST /api/v1/entities/mutate", requireAuth(http.HandlerFunc(entitiesHandler.Mutate)))

	return mux
}

func printVersion() {
	fmt.Printf("entsync server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
