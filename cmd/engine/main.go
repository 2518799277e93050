package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/zanon-alive/taktchat-sub003/internal/audit"
	"github.com/zanon-alive/taktchat-sub003/internal/catalog"
	"github.com/zanon-alive/taktchat-sub003/internal/classifier"
	"github.com/zanon-alive/taktchat-sub003/internal/confirm"
	"github.com/zanon-alive/taktchat-sub003/internal/delivery"
	"github.com/zanon-alive/taktchat-sub003/internal/dispatch"
	"github.com/zanon-alive/taktchat-sub003/internal/engine"
	"github.com/zanon-alive/taktchat-sub003/internal/history"
	"github.com/zanon-alive/taktchat-sub003/internal/metrics"
	"github.com/zanon-alive/taktchat-sub003/internal/models"
	"github.com/zanon-alive/taktchat-sub003/internal/state"
	"github.com/zanon-alive/taktchat-sub003/pkg/config"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	var store state.Store
	if cfg.Redis.UseInMemory {
		logger.Info("Using in-memory session state")
		store = state.NewMemoryStore(cfg.Engine.ConfirmationTTL, cfg.Engine.SessionFileWindow)
	} else {
		logger.Info("Using Redis session state", zap.String("addr", cfg.Redis.Addr))
		redisStore := state.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			cfg.Engine.ConfirmationTTL, cfg.Engine.SessionFileWindow)
		if err := redisStore.Ping(context.Background()); err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisStore.Close()
		store = redisStore
	}

	cat, err := catalog.NewPostgresCatalog(db)
	if err != nil {
		logger.Fatal("Failed to initialize catalog", zap.Error(err))
	}

	auditLog, err := audit.NewPostgresLog(db)
	if err != nil {
		logger.Fatal("Failed to initialize audit log", zap.Error(err))
	}

	hist, err := history.NewPostgresHistory(db)
	if err != nil {
		logger.Fatal("Failed to initialize message history", zap.Error(err))
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal("Failed to create telegram client", zap.Error(err))
	}
	transport := delivery.NewTelegramTransport(api)

	var llm classifier.CompletionClient
	if cfg.OpenAI.APIKey != "" {
		llm = classifier.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model,
			cfg.OpenAI.MaxTokens, cfg.OpenAI.Temperature)
	} else {
		logger.Info("No LLM credential configured, using pattern classifier only")
	}
	clf := classifier.NewLLMClassifier(llm, cfg.Engine.ClassifierTimeout, logger)

	executor := delivery.NewExecutor(transport, auditLog, store, hist,
		cfg.Engine.InterFileDelay, logger)
	coordinator := confirm.NewCoordinator(store, transport, executor, auditLog, logger)
	executor.SetConfirmer(coordinator)

	eng := engine.New(clf, cat, store, coordinator, executor, transport,
		engine.Options{TopK: cfg.Engine.TopK, MinScore: cfg.Engine.MinScore}, logger)

	dispatcher := dispatch.New(api, eng, dispatch.NewPostgresResolver(db), logger)

	aggregator := metrics.NewAggregator(hist, hist, logger)
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Metrics.Schedule, func() {
		runMetricsReport(aggregator, cfg.Metrics, logger)
	})
	if err != nil {
		logger.Fatal("Failed to schedule metrics job", zap.Error(err))
	}
	scheduler.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Engine started")
	dispatcher.Run(ctx)

	logger.Info("Shutting down")
	<-scheduler.Stop().Done()
}

func runMetricsReport(aggregator *metrics.Aggregator, cfg config.MetricsConfig, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	period := models.MetricsPeriod{
		Start: time.Now().Add(-cfg.Window),
		End:   time.Now(),
	}

	overall, err := aggregator.OverallMetrics(ctx, cfg.TenantID, period)
	if err != nil {
		logger.Error("Metrics report failed", zap.Error(err))
		return
	}

	logger.Info("Metrics report",
		zap.Int("files_offered", overall.FilesOffered),
		zap.Int("files_accepted", overall.FilesAccepted),
		zap.Int("files_rejected", overall.FilesRejected),
		zap.Float64("acceptance_rate", overall.AcceptanceRate),
		zap.String("best_queue", overall.BestQueueID),
		zap.Ints("peak_hours", overall.PeakHours),
		zap.Strings("recommendations", overall.Recommendations))
}
