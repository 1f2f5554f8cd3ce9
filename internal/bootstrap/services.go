package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/skimworks/skim-api/config"
	"github.com/skimworks/skim-api/internal/adapters/fetcher"
	"github.com/skimworks/skim-api/internal/adapters/ollama"
	"github.com/skimworks/skim-api/internal/adapters/tokenizer"
	"github.com/skimworks/skim-api/internal/core"
	"github.com/skimworks/skim-api/internal/data"
	"github.com/skimworks/skim-api/internal/domain/job"
	"github.com/skimworks/skim-api/internal/observability/metrics"
	"github.com/skimworks/skim-api/internal/observability/statsd"
	"github.com/skimworks/skim-api/internal/service"
	"github.com/skimworks/skim-api/internal/service/pipeline"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Summaries     *service.SummarizeService
	Janitor       *service.JanitorService
	Runner        *pipeline.Runner
	Cache         core.CacheRepository
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	DB          *sql.DB
	Redis       redis.UniversalClient
	SummaryRepo *data.SummaryRepo
	CacheRepo   *data.RedisCacheRepo
}

// buildObservability configures the metrics sink.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled:    true,
			Address:    cfg.Metrics.StatsdAddress,
			Prefix:     "skim",
			Logger:     obsLogger,
			GlobalTags: map[string]string{"service": "skim-api"},
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient redis.UniversalClient) *serviceRepositories {
	return &serviceRepositories{
		DB:          db,
		Redis:       redisClient,
		SummaryRepo: data.NewSummaryRepo(db),
		CacheRepo:   data.NewRedisCacheRepo(redisClient),
	}
}

// newGenerator builds the model client and wraps it with call metrics.
//
//nolint:ireturn // the instrumented wrapper and the bare client share only the Generator port.
func newGenerator(cfg config.ModelConfig, sink statsd.Sink, logger *slog.Logger) core.Generator {
	client := ollama.NewClient(ollama.Config{
		Endpoint: cfg.APIURL,
		Model:    cfg.Name,
		Timeout:  cfg.Timeout,
		Logger:   logger,
	})
	return metrics.InstrumentGenerator(client, sink)
}

func newArticleFetcher(cfg config.FetcherConfig, gen core.Generator, cache core.CacheRepository, logger *slog.Logger) (*fetcher.Fetcher, error) {
	return fetcher.New(fetcher.Config{
		UserAgent:    cfg.UserAgent,
		Timeout:      cfg.Timeout,
		MaxBodyBytes: cfg.MaxBodyBytes,
		CacheTTL:     cfg.CacheTTL,
		Generator:    gen,
		Cache:        cache,
		Logger:       logger,
	})
}

// DomainServicesOptions groups inputs for domain service wiring.
type DomainServicesOptions struct {
	Repos         *serviceRepositories
	Observability ObservabilityContainer
	Config        *config.AppConfig
	Logger        *slog.Logger
}

// buildDomainServices wires business services using repositories and observability adapters.
func buildDomainServices(opts *DomainServicesOptions) (ServiceContainer, error) {
	if opts == nil {
		return ServiceContainer{}, errors.New("domain services options are required")
	}
	svcLogger := opts.Logger
	if svcLogger == nil {
		svcLogger = slog.Default()
	}

	appCfg := opts.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	var sink statsd.Sink
	if opts.Observability.MetricsSink != nil {
		sink = opts.Observability.MetricsSink
	}

	codec, err := tokenizer.New(tokenizer.DefaultEncoding)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("init tokenizer: %w", err)
	}

	gen := newGenerator(appCfg.Model, sink, svcLogger)

	articles, err := newArticleFetcher(appCfg.Fetcher, gen, opts.Repos.CacheRepo, svcLogger)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("init article fetcher: %w", err)
	}

	registry, err := job.NewRegistry(job.RegistryOptions{
		MaxInFlight: appCfg.Pipeline.MaxInFlight,
		Retention:   appCfg.Registry.Retention,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("init job registry: %w", err)
	}

	chunker, err := pipeline.NewChunker(codec, appCfg.Pipeline.ChunkMaxTokens, appCfg.Pipeline.ChunkOverlap)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("init chunker: %w", err)
	}

	merger, err := pipeline.NewMerger(gen, svcLogger)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("init merger: %w", err)
	}

	engine, err := pipeline.NewEngine(pipeline.EngineOptions{
		Registry:  registry,
		Fetcher:   articles,
		Generator: gen,
		Tokenizer: codec,
		Chunker:   chunker,
		Merger:    merger,
		Store:     opts.Repos.SummaryRepo,
		MaxTokens: appCfg.Pipeline.MaxTokens,
		Metrics:   sink,
		Logger:    svcLogger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("init pipeline engine: %w", err)
	}

	runner, err := pipeline.NewRunner(pipeline.RunnerOptions{
		Capacity: appCfg.Pipeline.MaxInFlight,
		Logger:   svcLogger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("init task runner: %w", err)
	}

	summaries, err := service.NewSummarizeService(service.SummarizeServiceOptions{
		Registry: registry,
		Runner:   runner,
		Engine:   engine,
		Store:    opts.Repos.SummaryRepo,
		Logger:   svcLogger,
		Metrics:  sink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("init summarize service: %w", err)
	}

	janitor, err := service.NewJanitorService(service.JanitorServiceOptions{
		Registry: registry,
		Interval: appCfg.Registry.SweepInterval,
		Logger:   svcLogger,
		Metrics:  sink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("init registry janitor: %w", err)
	}

	return ServiceContainer{
		Summaries:     summaries,
		Janitor:       janitor,
		Runner:        runner,
		Cache:         opts.Repos.CacheRepo,
		Observability: opts.Observability,
	}, nil
}

// NewServices builds the full service graph from infrastructure handles.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil {
		return ServiceContainer{}, errors.New("service dependencies are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var obsCfg config.ObservabilityConfig
	if deps.Config != nil {
		obsCfg = deps.Config.Observability
	}
	observability := buildObservability(logger, obsCfg)
	repos := buildRepositories(deps.DB, deps.RedisClient)
	return buildDomainServices(&DomainServicesOptions{
		Repos:         repos,
		Observability: observability,
		Config:        deps.Config,
		Logger:        logger,
	})
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// backgroundService describes a startable background component.
type backgroundService struct {
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	name string
	done <-chan struct{}
}

func buildBackgroundServices(services ServiceContainer) []backgroundService {
	var list []backgroundService
	if services.Janitor != nil {
		list = append(list, backgroundService{
			name:  "registry janitor",
			start: services.Janitor.Run,
		})
	}
	return list
}

func launchBackground(ctx context.Context, logger *slog.Logger, errCh chan<- error, descriptor backgroundService) backgroundServiceHandle {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case errCh <- errMsg:
			case <-ctx.Done():
			default:
				logger.WarnContext(ctx, "dropping background service error", "service", descriptor.name, "error", errMsg)
			}
		}
	}()

	logger.InfoContext(ctx, "background service started", "service", descriptor.name)

	return backgroundServiceHandle{name: descriptor.name, done: done}
}

func startBackgroundServices(ctx context.Context, logger *slog.Logger, errCh chan<- error, services []backgroundService) []backgroundServiceHandle {
	handles := make([]backgroundServiceHandle, 0, len(services))
	for _, svc := range services {
		handles = append(handles, launchBackground(ctx, logger, errCh, svc))
	}
	return handles
}

// RunServicesWithShutdown starts the HTTP server and background services and
// manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	backgrounds := buildBackgroundServices(cfg.Services)
	errCh := make(chan error, len(backgrounds)+1)

	server := StartHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		DB:       cfg.DB,
		Logger:   logger,
	})

	handles := startBackgroundServices(serviceCtx, logger, errCh, backgrounds)

	// Wait for shutdown signal or error
	return waitForShutdown(shutdownConfig{
		ctx:         serviceCtx,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  server,
		runner:      cfg.Services.Runner,
		logger:      logger,
		backgrounds: handles,
	})
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	runner      *pipeline.Runner
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel() // Cancel service context before waiting
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel() // Cancel service context before waiting
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	// Gracefully stop HTTP server if running
	if cfg.httpServer != nil {
		// The service context is already cancelled here, so the shutdown
		// window needs a context of its own.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  cfg.httpServer,
			Runner:  cfg.runner,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	// Wait for background services to finish
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
