package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sparrow-api/internal/auth"
	"sparrow-api/internal/calls"
	"sparrow-api/internal/config"
	"sparrow-api/internal/httpapi"
	"sparrow-api/internal/llm"
	"sparrow-api/internal/personas"
	"sparrow-api/internal/plans"
	"sparrow-api/internal/progress"
	"sparrow-api/internal/reporting"
	"sparrow-api/internal/scoring"
	"sparrow-api/internal/users"
	"sparrow-api/internal/voice"
	"sparrow-api/pkg/logger"
	"sparrow-api/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local convenience; the file is absent in deployed environments.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	voiceProvider, err := voice.NewElevenLabsProvider(voice.ElevenLabsConfig{
		APIKey:  cfg.Voice.APIKey,
		AgentID: cfg.Voice.AgentID,
		VoiceID: cfg.Voice.VoiceID,
	})
	if err != nil {
		log.Error("voice init failed", "err", err)
		os.Exit(1)
	}

	groq := llm.NewGroq(cfg.LLM.GroqAPIKey)
	gemini := llm.NewGemini(cfg.LLM.GeminiAPIKey)

	usersSvc := users.NewService(users.NewPostgresRepository(db))
	personasSvc := personas.NewService(personas.NewPostgresRepository(db))
	progressSvc := progress.NewService(progress.NewPostgresRepository(db))

	callRepo := calls.NewPostgresRepository(db)
	plansSvc := plans.NewService(callRepo, rdb)

	// Scoring tries Groq first; persona generation prefers Gemini. The other
	// provider is the fallback in both cases.
	engine := scoring.NewEngine(
		scoring.NewLLMProvider(groq),
		scoring.NewLLMProvider(gemini),
	)
	generator := personas.NewGenerator(gemini, groq)

	callsSvc := calls.NewService(
		callRepo,
		usersSvc,
		personasSvc,
		plansSvc,
		progressSvc,
		voiceProvider,
		engine,
		calls.NewRedisSessionLimiter(rdb),
	)

	h := &httpapi.Handlers{
		Users:          usersSvc,
		Calls:          callsSvc,
		Personas:       personasSvc,
		Generator:      generator,
		Progress:       progressSvc,
		Plans:          plansSvc,
		Reporting:      reporting.NewService(reporting.NewPostgresRepository(db)),
		IdentitySecret: cfg.Webhook.IdentitySecret,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, auth.RequireAccessToken(authManager), db, rdb)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
