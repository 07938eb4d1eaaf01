package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/meilisearch/milli-sub001/internal/indexer"
	"github.com/meilisearch/milli-sub001/internal/indexer/consumer"
	"github.com/meilisearch/milli-sub001/internal/indexer/store"
	"github.com/meilisearch/milli-sub001/pkg/config"
	"github.com/meilisearch/milli-sub001/pkg/health"
	"github.com/meilisearch/milli-sub001/pkg/kafka"
	"github.com/meilisearch/milli-sub001/pkg/logger"
	"github.com/meilisearch/milli-sub001/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting indexer service", "store", cfg.Store.Path, "workers", cfg.Indexer.NumWorkers)

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		slog.Error("failed to open index store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	checker := health.NewChecker()
	checker.Register("store", func() error {
		_, err := st.DocumentIDs()
		return err
	})

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Port, registry, checker)
		metricsServer.Start()
		slog.Info("metrics server started", "port", cfg.Metrics.Port)
	}

	engine := indexer.New(cfg.Indexer, st, m)
	schema := consumer.NewSchema(cfg.Indexer)
	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
	defer producer.Close()

	batcher := consumer.NewBatcher(engine, producer, schema.Context(), cfg.Indexer.BatchSize, cfg.Indexer.FlushInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go batcher.StartFlushLoop(ctx)

	handler := consumer.NewHandler(schema, batcher, m)
	kafkaConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest, handler)

	slog.Info("indexer service ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.DocumentIngest,
		"group", cfg.Kafka.ConsumerGroup,
	)

	if err := kafkaConsumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
	}

	slog.Info("flushing pending documents before shutdown")
	flushCtx := context.Background()
	if err := batcher.Flush(flushCtx); err != nil {
		slog.Error("final flush failed", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(flushCtx); err != nil {
			slog.Error("metrics server shutdown failed", "error", err)
		}
	}

	slog.Info("indexer service stopped")
}
