package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/efreitasn/papermarket/internal/config"
	"github.com/efreitasn/papermarket/internal/engine"
	"github.com/efreitasn/papermarket/internal/handler"
	"github.com/efreitasn/papermarket/internal/service"
	"github.com/efreitasn/papermarket/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Open the database and seed a fresh one.
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	seedHistories, err := store.Bootstrap(db)
	if err != nil {
		logger.Error("failed to bootstrap database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	instrumentStore := store.NewInstrumentStore(db)
	userStore := store.NewUserStore(db)

	// Build the market engine over the persisted instruments.
	instruments, err := instrumentStore.ListAll()
	if err != nil {
		logger.Error("failed to load instruments", slog.String("error", err.Error()))
		os.Exit(1)
	}
	market := engine.NewMarket(instruments)
	for id, history := range seedHistories {
		market.SeedHistory(id, history)
	}

	trader := engine.NewTrader(market, instrumentStore, userStore)
	evolver := engine.NewEvolver(
		market,
		trader,
		instrumentStore,
		userStore,
		cfg.TickInterval,
		cfg.TradeChance,
		rand.New(rand.NewSource(time.Now().UnixNano())),
		logger,
	)

	// Services.
	marketSvc := service.NewMarketService(market, trader)
	authSvc := service.NewAuthService(userStore, []byte(cfg.JWTSecret), cfg.TokenTTL)

	// Router.
	router := handler.NewRouter(marketSvc, authSvc, logger)

	// Start the evolver with a cancellable context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go evolver.Start(ctx)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, cancel context (stops evolver).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	logger.Info("server stopped")
}
