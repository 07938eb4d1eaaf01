package consumer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/meilisearch/milli-sub001/internal/indexer"
	"github.com/meilisearch/milli-sub001/internal/indexer/extract"
	"github.com/meilisearch/milli-sub001/internal/ingestion"
	"github.com/meilisearch/milli-sub001/pkg/kafka"
	"github.com/meilisearch/milli-sub001/pkg/logger"
)

// Batcher accumulates documents and hands them to the engine once the
// batch is full or the flush interval elapses. A batch commits atomically,
// so completion events for its documents are published only after it does.
type Batcher struct {
	engine   *indexer.Engine
	producer *kafka.Producer
	ectx     extract.Context
	size     int
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	pending []indexer.Document
}

// NewBatcher creates a Batcher. producer may be nil, in which case no
// completion events are published.
func NewBatcher(engine *indexer.Engine, producer *kafka.Producer, ectx extract.Context, size int, interval time.Duration) *Batcher {
	return &Batcher{
		engine:   engine,
		producer: producer,
		ectx:     ectx,
		size:     size,
		interval: interval,
		logger:   logger.WithComponent("batcher"),
	}
}

// Add queues a document, flushing first if the batch is full.
func (b *Batcher) Add(ctx context.Context, doc indexer.Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, doc)
	if len(b.pending) >= b.size {
		return b.flushLocked(ctx)
	}
	return nil
}

// Flush indexes whatever is pending.
func (b *Batcher) Flush(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushLocked(ctx)
}

func (b *Batcher) flushLocked(ctx context.Context) error {
	if len(b.pending) == 0 {
		return nil
	}
	docs := b.pending
	b.pending = nil

	stats, err := b.engine.IndexBatch(ctx, docs, b.ectx)
	if err != nil {
		return err
	}
	b.logger.Debug("batch flushed", "documents", stats.Documents, "duration", stats.Duration)

	if b.producer != nil {
		now := time.Now().UTC()
		events := make([]kafka.Event, 0, len(docs))
		for _, doc := range docs {
			events = append(events, kafka.Event{
				Key:   doc.ExternalID,
				Value: ingestion.IndexedEvent{DocumentID: doc.ExternalID, IndexedAt: now},
			})
		}
		if err := b.producer.PublishBatch(ctx, events); err != nil {
			// The batch is committed; losing the notification is not a
			// reason to fail the consume loop.
			b.logger.Error("failed to publish completion events", "error", err)
		}
	}
	return nil
}

// StartFlushLoop flushes partial batches on a ticker until ctx is
// cancelled. It performs one final flush on shutdown.
func (b *Batcher) StartFlushLoop(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := b.Flush(flushCtx); err != nil {
				b.logger.Error("final flush failed", "error", err)
			}
			cancel()
			return
		case <-ticker.C:
			if err := b.Flush(ctx); err != nil {
				b.logger.Error("interval flush failed", "error", err)
			}
		}
	}
}
