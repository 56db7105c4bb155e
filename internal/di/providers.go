package di

import (
	"context"
	"fmt"
	"time"

	"FinSight/internal/domain/repository"
	"FinSight/internal/handler/api"
	internalrepo "FinSight/internal/repository"
	"FinSight/internal/service/cache"
	"FinSight/internal/service/fetch"
	"FinSight/internal/service/gemini"
	"FinSight/internal/service/yahoo"
	"FinSight/internal/services/analytics"
	"FinSight/internal/usecase"
	pkgch "FinSight/pkg/clickhouse"
	"FinSight/pkg/config"
	xhttp "FinSight/pkg/http"
	pkgkafka "FinSight/pkg/kafka"
	applogger "FinSight/pkg/logger"
	"FinSight/pkg/metrics"
	"FinSight/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the structured application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideStore creates the fetch-result cache for the configured backend.
func ProvideStore(cfg *config.Config, log *applogger.Logger) repository.Store {
	if cfg.Cache.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		return cache.NewRedis(client, cfg.Cache.TTL, log)
	}
	return cache.NewMemory(cfg.Cache.TTL, cfg.Cache.MaxSize)
}

// ProvideFetchWrapper creates the cache-and-retry fetch wrapper.
func ProvideFetchWrapper(store repository.Store, m repository.Metrics, log *applogger.Logger, cfg *config.Config) *fetch.Wrapper {
	return fetch.NewWrapper(store, m, log, fetch.Config{
		MaxRetries: cfg.Upstream.MaxRetries,
		BaseDelay:  cfg.Upstream.BaseDelay,
		JitterMin:  cfg.Upstream.JitterMin,
		JitterMax:  cfg.Upstream.JitterMax,
	})
}

// ProvideMarketData creates the upstream market data client.
func ProvideMarketData(cfg *config.Config, log *applogger.Logger) repository.MarketData {
	return yahoo.NewClient(yahoo.Config{
		BaseURL:            cfg.Upstream.BaseURL,
		Timeout:            cfg.Upstream.Timeout,
		MinRequestInterval: cfg.Upstream.MinRequestInterval,
	}, log)
}

// ProvideChatModel creates the function-calling model client.
func ProvideChatModel(cfg *config.Config, log *applogger.Logger) repository.ChatModel {
	return gemini.NewClient(gemini.Config{
		BaseURL:         cfg.Gemini.BaseURL,
		Model:           cfg.Gemini.Model,
		Timeout:         cfg.Gemini.Timeout,
		MinCallInterval: cfg.Gemini.MinCallInterval,
		MaxRetries:      cfg.Gemini.MaxRetries,
	}, log)
}

// ProvideFinancial creates the aggregation usecase.
func ProvideFinancial(market repository.MarketData, fetcher *fetch.Wrapper, log *applogger.Logger) *usecase.Financial {
	return usecase.NewFinancial(market, fetcher, log)
}

// ProvideToolbox creates the agentic tool registry.
func ProvideToolbox(financial *usecase.Financial, log *applogger.Logger) *usecase.Toolbox {
	return usecase.NewToolbox(financial, analytics.NewHealthScorer(), analytics.NewAnomalyDetector(), log)
}

// ProvideAgentic creates the agentic analysis usecase.
func ProvideAgentic(chat repository.ChatModel, toolbox *usecase.Toolbox, m repository.Metrics, log *applogger.Logger, cfg *config.Config) *usecase.Agentic {
	return usecase.NewAgentic(chat, toolbox, m, log, cfg.Gemini.MaxIterations)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher creates the snapshot event publisher, or nil when Kafka
// is disabled.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSnapshotPublisher(producer, cfg.Kafka.Topic)
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, false),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideArchive creates the snapshot archive over ClickHouse, or nil when
// disabled. The schema is initialized eagerly.
func ProvideArchive(chClient *pkgch.Client, cfg *config.Config, log *applogger.Logger) (repository.Archive, error) {
	if chClient == nil {
		return nil, nil
	}
	archive := internalrepo.NewClickHouseSnapshotArchive(chClient.DB(), cfg.ClickHouse.Database+".snapshots", log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := archive.Init(ctx); err != nil {
		return nil, err
	}
	return archive, nil
}

// ProvideHandler creates the Echo API handler.
func ProvideHandler(
	log *applogger.Logger,
	cfg *config.Config,
	financial *usecase.Financial,
	agentic *usecase.Agentic,
	store repository.Store,
	publisher repository.Publisher,
	archive repository.Archive,
) xhttp.Handler {
	return api.NewHandler(log, cfg, financial, agentic, store, publisher, archive)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	publisher repository.Publisher,
	chClient *pkgch.Client,
) *server.App {
	return server.New(cfg, log, handler, publisher, chClient)
}
