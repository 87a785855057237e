// Command server runs the WhatsApp assistant backend: webhook ingestion, the
// conversation engine with its write-safety pipeline, and the operator API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-wa-assistant/internal/config"
	"github.com/tbourn/go-wa-assistant/internal/executor"
	"github.com/tbourn/go-wa-assistant/internal/gateway"
	httpapi "github.com/tbourn/go-wa-assistant/internal/http"
	"github.com/tbourn/go-wa-assistant/internal/llm"
	"github.com/tbourn/go-wa-assistant/internal/observability"
	"github.com/tbourn/go-wa-assistant/internal/pending"
	"github.com/tbourn/go-wa-assistant/internal/planner"
	"github.com/tbourn/go-wa-assistant/internal/repo"
	"github.com/tbourn/go-wa-assistant/internal/search"
	"github.com/tbourn/go-wa-assistant/internal/services"
	"github.com/tbourn/go-wa-assistant/internal/sqlgen"
	"github.com/tbourn/go-wa-assistant/internal/sysutil"
)

const version = "1.0.0"

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	completer := &llm.Client{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		HTTPClient: &http.Client{
			Timeout: cfg.LLM.Timeout,
		},
	}

	notes := search.NewMemory()

	bot := &services.BotService{
		DB:       db,
		Enabled:  cfg.Bot.Enabled,
		Planner:  &planner.Planner{LLM: completer},
		Executor: &executor.Executor{StmtTimeout: cfg.Bot.StmtTimeout},
		Queries:  &sqlgen.Generator{LLM: completer, StmtTimeout: cfg.Bot.StmtTimeout},
		Gateway: &gateway.Client{
			BaseURL: cfg.Gateway.BaseURL,
			APIKey:  cfg.Gateway.APIKey,
		},
		Search:  notes,
		Pending: pending.NewMemStore(cfg.Bot.PendingTTL, cfg.Bot.PendingMax),
	}

	engine := gin.New()
	httpapi.RegisterRoutes(engine, httpapi.Deps{
		Tenants: &services.TenantService{DB: db},
		Audit:   &services.AuditService{DB: db},
		Bot:     bot,
		Notes:   notes,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("gateway", cfg.Gateway.BaseURL).
			Bool("bot_enabled", cfg.Bot.Enabled).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
}
