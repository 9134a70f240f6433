package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kuba/mat-tutor-server/internal/api"
	"github.com/kuba/mat-tutor-server/internal/api/handlers"
	"github.com/kuba/mat-tutor-server/internal/config"
	"github.com/kuba/mat-tutor-server/internal/llm/openai"
	"github.com/kuba/mat-tutor-server/internal/logger"
	"github.com/kuba/mat-tutor-server/internal/ratelimit"
	"github.com/kuba/mat-tutor-server/internal/session"
	"github.com/kuba/mat-tutor-server/internal/tutor"
	"github.com/kuba/mat-tutor-server/internal/usage"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to the config file")

	// Automation subcommands for scripting
	showUsage := flag.Bool("usage", false, "Print current month token usage (JSON output)")

	flag.Parse()

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	log, err := logger.New(cfg.Logging.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Token usage ledger
	ledger := usage.NewLedger(cfg.Ledger.Path, cfg.Ledger.MonthlyTokenLimit, cfg.Ledger.WarningThreshold, log)

	// Handle automation commands (JSON I/O for scripting)
	if *showUsage {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(ledger.CurrentMonth())
		return
	}

	runServer(cfg, ledger, log)
}

func runServer(cfg *config.Config, ledger *usage.Ledger, log *logger.Logger) {
	log.Info("starting tutor server", "address", cfg.Server.Address())

	// Session store and governor
	store, err := session.OpenStore(cfg.Database.Path)
	if err != nil {
		log.Fatal("failed to open session database", "path", cfg.Database.Path, "error", err)
	}
	defer store.Close()
	log.Info("session database ready", "path", cfg.Database.Path)

	governor := session.NewGovernor(store, cfg.Limits.MaxMessagesPerSession, cfg.Limits.MaxSessionDuration, log)

	// Per-session message budget
	limiter := ratelimit.NewSessionLimiter(cfg.Limits.MaxMessagesPerSession, cfg.Limits.RateWindow)

	// Completion provider
	provider := openai.NewProvider(openai.Config{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   int64(cfg.OpenAI.MaxTokens),
		Temperature: cfg.OpenAI.Temperature,
	})
	if provider.IsAvailable() {
		log.Info("completion provider available", "provider", provider.Name(), "model", cfg.OpenAI.Model)
	} else {
		log.Warn("OPENAI_API_KEY is not set, chat requests will fail")
	}

	orchestrator := tutor.NewOrchestrator(provider, limiter, ledger, log, tutor.Config{
		MaxMessageLength: cfg.Limits.MaxMessageLength,
		MaxFormLength:    cfg.Limits.MaxFormLength,
		MaxHistory:       cfg.Limits.MaxHistoryMessages,
		RequestTimeout:   cfg.OpenAI.RequestTimeout,
	})

	// Setup routes
	handler := api.NewRouter(
		api.RouterConfig{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			GlobalRPS:      cfg.Limits.GlobalRPS,
			GlobalBurst:    cfg.Limits.GlobalBurst,
		},
		handlers.NewChatHandler(orchestrator, governor, log),
		handlers.NewTokenStatusHandler(ledger),
		handlers.NewSessionsHandler(store, log),
		log,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server listening", "address", cfg.Server.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed to start", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("server shutting down")

	// Gracefully shutdown the server with a timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
