package di

import (
	"context"
	"fmt"
	"time"

	"SpotCast/internal/domain/repository"
	"SpotCast/internal/handler/api"
	internalrepo "SpotCast/internal/repository"
	"SpotCast/internal/service/bench"
	"SpotCast/internal/service/history"
	"SpotCast/internal/service/marketdata"
	"SpotCast/internal/service/rates"
	"SpotCast/internal/service/registry"
	"SpotCast/internal/usecase"
	"SpotCast/pkg/cache"
	pkgch "SpotCast/pkg/clickhouse"
	"SpotCast/pkg/config"
	xhttp "SpotCast/pkg/http"
	pkgkafka "SpotCast/pkg/kafka"
	applogger "SpotCast/pkg/logger"
	"SpotCast/pkg/metrics"
	"SpotCast/pkg/server"
	pkgsqlite "SpotCast/pkg/sqlite"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", cfg.ClickHouse.Database),
		internalrepo.BarTableSchema,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideSQLiteClient opens the training-run registry database.
func ProvideSQLiteClient(cfg *config.Config) (*pkgsqlite.Client, error) {
	client, err := pkgsqlite.NewClient(cfg.Registry.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		internalrepo.RunTableSchema,
		internalrepo.RunIndexSchema,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	return client, nil
}

// ProvideSnapshotCache creates the history snapshot cache. With redis enabled
// a layered memory+redis cache survives process restarts; otherwise the cache
// is purely in-process.
func ProvideSnapshotCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.History.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.History.Redis.Addr),
		cache.WithRedisAuth(cfg.History.Redis.Password, cfg.History.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc), nil
}

// ProvideEventPublisher creates the training-event publisher. When Kafka is
// disabled the pipeline runs with a no-op publisher instead of a nil check
// at every call site.
func ProvideEventPublisher(cfg *config.Config) (repository.EventPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopEventPublisher{}, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideRateCache creates the FX rate cache with its ordered source chain:
// ECB first, open.er-api as fallback.
func ProvideRateCache(cfg *config.Config, log *applogger.Logger, m repository.Metrics) *rates.Cache {
	client := xhttp.NewClient(xhttp.WithTimeout(cfg.FX.Timeout))

	sources := []repository.RateSource{
		rates.NewECBSource(client, cfg.FX.PrimaryURL),
		rates.NewERAPISource(client, cfg.FX.FallbackURL),
	}

	return rates.NewCache(log, sources,
		rates.WithTTL(cfg.FX.TTL),
		rates.WithMetrics(m),
	)
}

// ProvideMarketFeed creates the upstream OHLCV chart feed.
func ProvideMarketFeed(cfg *config.Config, log *applogger.Logger) repository.MarketFeed {
	client := xhttp.NewClient(xhttp.WithTimeout(cfg.MarketData.Timeout))
	return marketdata.NewFeed(log, client, cfg.MarketData.BaseURL)
}

// ProvideBarStore creates the ClickHouse bar store.
func ProvideBarStore(chClient *pkgch.Client, cfg *config.Config) repository.BarStore {
	return internalrepo.NewClickHouseBarStore(chClient.DB(), cfg.ClickHouse.Database+".spot_bars")
}

// ProvideHistoryStore creates the incremental historical data store.
func ProvideHistoryStore(
	log *applogger.Logger,
	feed repository.MarketFeed,
	bars repository.BarStore,
	snapshots cache.Service,
	m repository.Metrics,
	cfg *config.Config,
) *history.Store {
	return history.NewStore(log, feed, bars,
		history.WithSnapshotCache(snapshots, cfg.History.SnapshotTTL),
		history.WithMetrics(m),
	)
}

// ProvideBench creates the model bench with the default candidate roster.
func ProvideBench(log *applogger.Logger) *bench.Bench {
	return bench.New(log)
}

// ProvideRunStore creates the sqlite training-run store.
func ProvideRunStore(sqClient *pkgsqlite.Client) repository.RunStore {
	return internalrepo.NewSQLiteRunStore(sqClient.DB())
}

// ProvideArtifactStore creates the filesystem artifact store.
func ProvideArtifactStore() repository.ArtifactStore {
	return internalrepo.NewFSArtifactStore()
}

// ProvideRegistry creates the training-run registry.
func ProvideRegistry(
	log *applogger.Logger,
	runs repository.RunStore,
	artifacts repository.ArtifactStore,
	cfg *config.Config,
) *registry.Registry {
	return registry.New(log, runs, artifacts, cfg.Registry.ArtifactDir)
}

// ProvideForecaster creates the forecast orchestrator use case.
func ProvideForecaster(
	log *applogger.Logger,
	hist *history.Store,
	rateCache *rates.Cache,
	modelBench *bench.Bench,
	reg *registry.Registry,
	events repository.EventPublisher,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.Forecaster {
	return usecase.New(log, hist, rateCache, modelBench, reg, events,
		usecase.WithMinTrainingRows(cfg.Training.MinRows),
		usecase.WithMetrics(m),
	)
}

// ProvideHTTPHandler creates the Echo route handler.
func ProvideHTTPHandler(log *applogger.Logger, forecaster *usecase.Forecaster) xhttp.Handler {
	return api.NewForecastEchoHandler(log, forecaster)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	sqClient *pkgsqlite.Client,
	events repository.EventPublisher,
	snapshots cache.Service,
) *server.App {
	return server.New(cfg, log, handler, chClient, sqClient, events, snapshots)
}
