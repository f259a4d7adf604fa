// Kinematics Lab - projectile practice server
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

	"github.com/ashureev/kinematics-lab/internal/api"
	"github.com/ashureev/kinematics-lab/internal/config"
	"github.com/ashureev/kinematics-lab/internal/metrics"
	"github.com/ashureev/kinematics-lab/internal/middleware"
	"github.com/ashureev/kinematics-lab/internal/practice"
	"github.com/ashureev/kinematics-lab/internal/problem"
	"github.com/ashureev/kinematics-lab/internal/rpc"
	"github.com/ashureev/kinematics-lab/internal/store"
	"github.com/ashureev/kinematics-lab/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	levelVar := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelVar,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.SlogLevel() // validated by Load
	levelVar.Set(level)

	slog.Info("Starting server", "port", cfg.Port, "mode", cfg.Problem.Mode, "dev", cfg.IsDevelopment())

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.New(reg)

	gen, err := problem.NewGenerator(problem.GeneratorConfig{
		Mode: problem.Mode(cfg.Problem.Mode),
		Min:  cfg.Problem.Min,
		Max:  cfg.Problem.Max,
		Seed: cfg.Problem.Seed,
	})
	if err != nil {
		slog.Error("Failed to initialize problem generator", "error", err)
		os.Exit(1)
	}

	// Example mode is stateless and needs no registry.
	var repo store.Repository
	if gen.Mode().Stateful() {
		repo, err = store.New(cfg.Store.Driver, cfg.Store.DBPath)
		if err != nil {
			slog.Error("Failed to initialize problem store", "error", err)
			os.Exit(1)
		}
		defer func() {
			if closeErr := repo.Close(); closeErr != nil {
				slog.Error("Failed to close repository", "error", closeErr)
			}
		}()

		if err := repo.Ping(context.Background()); err != nil {
			slog.Error("Problem store health check failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Problem store ready", "driver", cfg.Store.Driver)
	}

	engine, err := problem.NewEngine(gen, repo, problem.EngineConfig{
		DefaultTolerance: cfg.Problem.DefaultTolerance,
		TTL:              cfg.Problem.TTL,
		Metrics:          recorder,
		Logger:           logger,
	})
	if err != nil {
		slog.Error("Failed to initialize problem engine", "error", err)
		os.Exit(1)
	}

	// Initialize handlers.
	limiter := middleware.NewRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)
	problemHandler := api.NewProblemHandler(engine, cfg.Problem.AllowDebugAnswers).
		WithCheckMiddleware(limiter.Middleware)
	healthHandler := api.NewHealthHandler(repo)
	wsHandler := practice.NewHandler(engine, cfg.CORSOrigins, cfg.IsDevelopment(), cfg.Problem.AllowDebugAnswers)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(recorder.Middleware)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	healthHandler.RegisterHealth(r)
	problemHandler.RegisterRoutes(r)
	r.Handle("/metrics", metrics.Handler(reg))

	// WebSocket endpoint.
	r.Get("/ws/practice", wsHandler.ServeHTTP)

	// Serve embedded frontend.
	web.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // practice sessions are long-lived WebSockets
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if repo != nil {
		store.StartTTLWorker(ctx, repo, cfg.Problem.TTL, cfg.Store.TTLInterval)
	}
	limiter.StartEviction(ctx.Done())

	// Optional gRPC transport.
	var grpcServer *rpc.Server
	if cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			slog.Error("Failed to listen for gRPC", "port", cfg.GRPCPort, "error", err)
			os.Exit(1)
		}
		grpcServer = rpc.NewServer(engine, cfg.Problem.AllowDebugAnswers, logger)
		go func() {
			if err := grpcServer.Serve(lis); err != nil {
				slog.Error("gRPC server failed", "error", err)
				stop()
			}
		}()
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
