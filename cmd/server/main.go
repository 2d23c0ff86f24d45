// Quizzical - trivia quiz server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/quizzical/internal/api"
	"github.com/ashureev/quizzical/internal/config"
	"github.com/ashureev/quizzical/internal/health"
	"github.com/ashureev/quizzical/internal/identity"
	"github.com/ashureev/quizzical/internal/middleware"
	"github.com/ashureev/quizzical/internal/realtime"
	"github.com/ashureev/quizzical/internal/session"
	"github.com/ashureev/quizzical/internal/store"
	"github.com/ashureev/quizzical/internal/trivia"
	"github.com/ashureev/quizzical/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "question_bank", cfg.QuestionBank.URL)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected", "path", cfg.DBPath)

	questions := trivia.NewClient(cfg.QuestionBank, logger)
	sessions := session.NewManager(repo, questions, logger)
	defer sessions.CloseAll()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional gRPC health server.
	var grpcHealth *health.Server
	var reporter api.StatusReporter
	if cfg.GRPCPort != "" {
		grpcHealth = health.NewServer(logger)
		reporter = grpcHealth
	}

	// Initialize handlers.
	baseHandler := api.NewHandler(sessions)
	quizHandler := api.NewQuizHandler(baseHandler)
	healthHandler := api.NewHealthHandler(repo, reporter)
	wsHandler := realtime.NewHandler(sessions, cfg.AllowedOrigins()[0], cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.AllowedOrigins()))

	// Public routes.
	healthHandler.RegisterHealth(r)

	// Quiz routes carry the anonymous identity.
	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(repo, cfg.IsDevelopment()))
		quizHandler.RegisterRoutes(r)
		r.Get("/ws/quiz", wsHandler.ServeHTTP)
	})

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// WriteTimeout stays 0 so long-lived WebSockets are not cut off.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	session.StartReaper(ctx, repo, sessions, cfg.SessionTTL, cfg.ReaperInterval)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if grpcHealth != nil {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			slog.Error("Failed to listen for gRPC health", "port", cfg.GRPCPort, "error", err)
			os.Exit(1)
		}
		g.Go(func() error { return grpcHealth.Serve(lis) })
		g.Go(func() error {
			grpcHealth.Watch(gctx, repo, 15*time.Second)
			return nil
		})
	}

	// Wait for a shutdown signal or a server failure.
	g.Go(func() error {
		<-gctx.Done()
		stop()

		slog.Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if grpcHealth != nil {
			grpcHealth.Stop()
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully", "sessions_active", sessions.Active())
}
