package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	httpadapter "github.com/trananhduc/event-assistant/internal/adapters/http"
	"github.com/trananhduc/event-assistant/internal/config"
	"github.com/trananhduc/event-assistant/internal/core/usecase"
	"github.com/trananhduc/event-assistant/internal/infrastructure/llm/gemini"
	"github.com/trananhduc/event-assistant/internal/infrastructure/payment"
	"github.com/trananhduc/event-assistant/internal/infrastructure/queue/nats"
	"github.com/trananhduc/event-assistant/internal/infrastructure/repository/postgres"
	"github.com/trananhduc/event-assistant/internal/infrastructure/resilience"
	"github.com/trananhduc/event-assistant/internal/infrastructure/session"
	"github.com/trananhduc/event-assistant/internal/infrastructure/vector/qdrant"
	"github.com/trananhduc/event-assistant/internal/infrastructure/weather"
	"github.com/trananhduc/event-assistant/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Handler http.Handler

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.RetryMaxAttempts,
		RetryInitialBackoff: cfg.RetryInitialBackoff,
		RetryMaxBackoff:     cfg.RetryMaxBackoff,
		RetryLinear:         cfg.RetryLinear,

		BreakerEnabled:      cfg.BreakerEnabled,
		BreakerMinRequests:  uint32(cfg.BreakerMinRequests),
		BreakerFailureRatio: cfg.BreakerFailureRatio,
		BreakerOpenTimeout:  cfg.BreakerOpenTimeout,
	})

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	events := postgres.NewEventRepository(db)
	places := postgres.NewPlaceRepository(db)
	tickets := postgres.NewTicketTypeRepository(db)
	orders := postgres.NewOrderRepository(db)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSEventsSubject, cfg.NATSOrdersSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	geminiClient := gemini.New(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiGenModel, cfg.GeminiEmbedModel, executor)
	generator := gemini.NewGenerator(geminiClient)
	embedder := gemini.NewEmbedder(geminiClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.QdrantCollection, cfg.QdrantVectorSize)
	forecast := weather.New(cfg.WeatherURL, cfg.WeatherLatitude, cfg.WeatherLongitude)
	payments := payment.NewLinkBuilder(cfg.PaymentBaseURL)
	sessions := session.NewStore(cfg.SessionTTL)

	agentMetrics := metrics.NewAgentMetrics("api")

	// Losing the curated examples is survivable; the classifier falls back
	// to keyword matching for the ticket-info check.
	examples, err := usecase.BuildTicketIntentExamples(ctx, embedder)
	if err != nil {
		slog.Warn("ticket_intent_examples_unavailable", "error", err)
		examples = nil
	}
	intents := usecase.NewIntentClassifier(embedder, vectorDB, examples, agentMetrics, "api")

	agent := usecase.NewChatAgentUseCase(generator, sessions, intents, events, places, forecast, queue, agentMetrics, "api")
	dialogue := usecase.NewOrderDialogueUseCase(events, tickets, orders, sessions, payments, queue, agentMetrics, "api")

	router := httpadapter.NewRouter(agent, dialogue, events, orders, agentMetrics, httpadapter.RouterOptions{
		Service:        "api",
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	return &App{
		Config:  cfg,
		Handler: router.Handler(),

		closeFn: func() {
			sessions.Close()
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
