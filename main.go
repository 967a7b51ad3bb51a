package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/caarlos0/env/v9"

	"github.com/KathiravanBCS/nexa-ai/pkg/api/handler"
	"github.com/KathiravanBCS/nexa-ai/pkg/api/middleware"
	"github.com/KathiravanBCS/nexa-ai/pkg/apikey"
	"github.com/KathiravanBCS/nexa-ai/pkg/database"
	"github.com/KathiravanBCS/nexa-ai/pkg/gemini"
	"github.com/KathiravanBCS/nexa-ai/pkg/logger"
	"github.com/KathiravanBCS/nexa-ai/pkg/repository"
	"github.com/KathiravanBCS/nexa-ai/pkg/service"
	"github.com/KathiravanBCS/nexa-ai/pkg/services"
)

type Config struct {
	GeminiAPIKey       string `env:"GEMINI_API_KEY"`
	GeminiPublicAPIKey string `env:"GEMINI_PUBLIC_API_KEY"`
	GeminiModel        string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	AITimeoutMS        string `env:"AI_TIMEOUT_MS"`
	PgURL              string `env:"DATABASE_URL"`
	PgHost             string `env:"DB_HOST" envDefault:"localhost:5432"`
	Port               string `env:"PORT" envDefault:"8080"`
	Env                string `env:"ENV" envDefault:"development"`
}

const defaultGenerateTimeout = 60 * time.Second

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, logger.DefaultOptions)))

	if err := runMain(); err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func runMain() error {
	serviceGroup, err := setupServices()
	if err != nil {
		return err
	}

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case s := <-sigCh:
			slog.Info("shutting down due to signal", "signal", s.String())
			cancelFn()
		case <-ctx.Done():
		}
	}()

	return serviceGroup.Run(ctx)
}

func setupServices() (service.Group, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}

	db, err := database.NewPostgres(cfg.PgURL, cfg.PgHost)
	if err != nil {
		return nil, fmt.Errorf("creating db: %w", err)
	}

	keyResolver := apikey.NewResolver(cfg.GeminiAPIKey, cfg.GeminiPublicAPIKey)
	geminiClient := gemini.NewClient("")

	generateService := services.NewGenerateService(
		keyResolver,
		geminiClient,
		cfg.GeminiModel,
		resolveTimeout(cfg.AITimeoutMS),
	)

	threadRepository := repository.NewThreadRepository(db)
	messageRepository := repository.NewMessageRepository(db)

	chatHandler := handler.NewChat(generateService)
	threadsHandler := handler.NewThreads(threadRepository, messageRepository)
	diagnosticsHandler := handler.NewDiagnostics(geminiClient, cfg.GeminiAPIKey, cfg.Env == "production")

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", chatHandler.GenerateReply)
	mux.HandleFunc("GET /diagnostics/model-key", diagnosticsHandler.ModelKey)
	mux.HandleFunc("POST /threads", threadsHandler.Create)
	mux.HandleFunc("GET /threads", threadsHandler.List)
	mux.HandleFunc("GET /threads/{id}/messages", threadsHandler.Messages)
	mux.HandleFunc("POST /threads/{id}/messages", threadsHandler.SaveMessage)
	mux.HandleFunc("PATCH /threads/{id}", threadsHandler.Rename)
	mux.HandleFunc("DELETE /threads/{id}", threadsHandler.Delete)

	return service.Group{
		service.NewHTTPServer(":"+cfg.Port, middleware.RequestID(mux)),
	}, nil
}

// resolveTimeout parses the reply deadline from its millisecond env value.
// Non-numeric or non-positive values fall back to the default rather than
// failing startup.
func resolveTimeout(raw string) time.Duration {
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return defaultGenerateTimeout
	}
	return time.Duration(ms) * time.Millisecond
}
