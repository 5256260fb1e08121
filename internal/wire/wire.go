// Package wire provides dependency injection for the responder application.
// It creates singleton services with lazy initialization.
package wire

import (
	"log"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/example/responder/internal/adapters/httpapi"
	"github.com/example/responder/internal/adapters/sqlite"
	"github.com/example/responder/internal/app"
	"github.com/example/responder/internal/config"
	"github.com/example/responder/internal/core/ratelimit"
	"github.com/example/responder/internal/core/variant"
	"github.com/example/responder/internal/db"
	"github.com/example/responder/internal/logging"
	"github.com/example/responder/internal/ports/primary"
	"github.com/example/responder/internal/ports/secondary"
)

var (
	cfg             config.Config
	logger          *slog.Logger
	channelService  primary.ChannelService
	ruleService     primary.RuleService
	queueService    primary.QueueService
	approvalService primary.ApprovalService
	reportService   primary.ReportService
	engine          *app.Engine
	poller          *app.Poller
	optimizer       *app.Optimizer
	once            sync.Once
)

// Cfg returns the loaded configuration.
func Cfg() config.Config {
	once.Do(initServices)
	return cfg
}

// Logger returns the shared structured logger.
func Logger() *slog.Logger {
	once.Do(initServices)
	return logger
}

// ChannelService returns the singleton ChannelService instance.
func ChannelService() primary.ChannelService {
	once.Do(initServices)
	return channelService
}

// RuleService returns the singleton RuleService instance.
func RuleService() primary.RuleService {
	once.Do(initServices)
	return ruleService
}

// QueueService returns the singleton QueueService instance.
func QueueService() primary.QueueService {
	once.Do(initServices)
	return queueService
}

// ApprovalService returns the singleton ApprovalService instance.
func ApprovalService() primary.ApprovalService {
	once.Do(initServices)
	return approvalService
}

// ReportService returns the singleton ReportService instance.
func ReportService() primary.ReportService {
	once.Do(initServices)
	return reportService
}

// Engine returns the singleton automation engine.
func Engine() *app.Engine {
	once.Do(initServices)
	return engine
}

// Poller returns the singleton ingestion poller.
func Poller() *app.Poller {
	once.Do(initServices)
	return poller
}

// Optimizer returns the singleton A/B test optimizer.
func Optimizer() *app.Optimizer {
	once.Do(initServices)
	return optimizer
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logger = logging.New(cfg.Logging.Level)

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Repository adapters (secondary ports) with injected DB
	channelRepo := sqlite.NewChannelRepository(database)
	queueRepo := sqlite.NewQueueRepository(database)
	ruleRepo := sqlite.NewRuleRepository(database)
	approvalRepo := sqlite.NewApprovalRepository(database)
	execRepo := sqlite.NewExecutionLogRepository(database)
	metricRepo := sqlite.NewMetricRepository(database)

	// External collaborators over HTTP
	connector := httpapi.NewConnector(cfg.Services.SourceURL)
	classifier := httpapi.NewClassifier(cfg.Services.ClassifierURL)
	renderer := httpapi.NewRenderer(cfg.Services.RendererURL)
	moderation := httpapi.NewModeration(cfg.Services.ModerationURL)
	notifier := notificationSink()

	// Services (primary ports implementation)
	channelService = app.NewChannelService(channelRepo)
	ruleService = app.NewRuleService(ruleRepo, channelRepo)
	queueService = app.NewQueueService(queueRepo)
	approvalService = app.NewApprovalService(approvalRepo, metricRepo, notifier, cfg.Approvals.UrgentPriority, logger)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	executor := app.NewExecutor(app.ExecutorDeps{
		Limiter:    ratelimit.NewMinuteWindow(time.Now),
		Selector:   variant.NewSelector(rng),
		Renderer:   renderer,
		Moderation: moderation,
		Connector:  connector,
		Queue:      queueRepo,
		ExecLog:    execRepo,
		Metrics:    metricRepo,
		Approvals:  approvalService,
	}, app.ExecutorConfig{
		RespondPerMinute: cfg.Limits.RespondPerMinute,
		DeletePerMinute:  cfg.Limits.DeletePerMinute,
		FlagPerMinute:    cfg.Limits.FlagPerMinute,
		AutoApproveAfter: cfg.Approvals.AutoApproveAfter.Std(),
	}, rng, logger)

	engine = app.NewEngine(channelRepo, ruleRepo, queueRepo, executor, logger)
	poller = app.NewPoller(channelRepo, queueRepo, connector, classifier, logger)
	optimizer = app.NewOptimizer(ruleRepo, metricRepo, cfg.Analysis.MinSamples, logger)

	reportService = app.NewAnalyzer(execRepo, metricRepo, app.AnalyzerConfig{
		AnomalyThreshold: cfg.Analysis.AnomalyThreshold,
		SecondsPerManual: cfg.Analysis.SecondsPerManual,
		HourlyRate:       cfg.Analysis.HourlyRate,
		CostPerResponse:  cfg.Analysis.CostPerResponse,
		MinSamples:       cfg.Analysis.MinSamples,
	})
}

// notificationSink picks the webhook sink when a notify URL is configured and
// falls back to logging otherwise, so urgent approvals are never silent.
func notificationSink() secondary.NotificationSink {
	if cfg.Services.NotifyURL != "" {
		return httpapi.NewWebhookNotifier(cfg.Services.NotifyURL)
	}
	return httpapi.NewLogNotifier(logger)
}
