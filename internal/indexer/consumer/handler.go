package consumer

import (
	"context"

	"github.com/meilisearch/milli-sub001/internal/ingestion"
	"github.com/meilisearch/milli-sub001/pkg/kafka"
	"github.com/meilisearch/milli-sub001/pkg/logger"
	"github.com/meilisearch/milli-sub001/pkg/metrics"
)

// NewHandler returns the Kafka message handler for the ingest topic.
// Malformed messages are logged, counted, and committed; redelivering them
// cannot help.
func NewHandler(schema *Schema, batcher *Batcher, m *metrics.Metrics) kafka.MessageHandler {
	log := logger.WithComponent("ingest-handler")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.IngestEvent](value)
		if err != nil {
			log.Warn("dropping malformed ingest event", "key", string(key), "error", err)
			if m != nil {
				m.DocumentsSkipped.Inc()
			}
			return nil
		}
		if event.DocumentID == "" {
			log.Warn("dropping ingest event without document id", "key", string(key))
			if m != nil {
				m.DocumentsSkipped.Inc()
			}
			return nil
		}
		return batcher.Add(ctx, schema.BuildDocument(event))
	}
}
