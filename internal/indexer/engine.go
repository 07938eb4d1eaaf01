// Package indexer orchestrates the write path: documents come in as parsed
// fields, are fanned out over extraction workers, and the drained postings
// are bulk-loaded into the store in one atomic batch.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meilisearch/milli-sub001/internal/indexer/docids"
	"github.com/meilisearch/milli-sub001/internal/indexer/extract"
	"github.com/meilisearch/milli-sub001/internal/indexer/sorter"
	"github.com/meilisearch/milli-sub001/internal/indexer/store"
	"github.com/meilisearch/milli-sub001/internal/indexer/tables"
	"github.com/meilisearch/milli-sub001/pkg/config"
	apperrors "github.com/meilisearch/milli-sub001/pkg/errors"
	"github.com/meilisearch/milli-sub001/pkg/logger"
	"github.com/meilisearch/milli-sub001/pkg/metrics"
)

// mergers assigns each table its combine strategy at bulk-load time.
// Bitmap-valued tables union. The intermediate positions table is the
// exception: per-field lists are concatenated inside the worker's sorter,
// so a row arriving here is always a document's complete positions list,
// and a collision means the document was re-submitted — the new row
// supersedes the stored one instead of concatenating with it.
var mergers = map[string]sorter.Merger{
	tables.WordDocids:              sorter.RoaringUnion{},
	tables.ExactWordDocids:         sorter.RoaringUnion{},
	tables.WordPositionDocids:      sorter.CboUnion{},
	tables.WordPairProximityDocids: sorter.CboUnion{},
	tables.DocidWordPositions:      sorter.KeepLast{},
	tables.FidWordCountDocids:      sorter.CboUnion{},
	tables.FacetNumberDocids:       sorter.CboUnion{},
	tables.FacetStringDocids:       sorter.CboUnion{},
}

// Document is one input document: a stable external id plus its already
// tokenized fields.
type Document struct {
	ExternalID string
	Fields     []extract.Field
}

// BatchStats summarises one indexing batch.
type BatchStats struct {
	Documents int
	Reused    int
	Sorter    sorter.Stats
	Duration  time.Duration
}

// Engine runs indexing batches against one store.
type Engine struct {
	cfg     config.IndexerConfig
	store   *store.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an Engine. metrics may be nil in tests.
func New(cfg config.IndexerConfig, st *store.Store, m *metrics.Metrics) *Engine {
	return &Engine{
		cfg:     cfg,
		store:   st,
		metrics: m,
		logger:  logger.WithComponent("engine"),
	}
}

// IndexBatch indexes docs as one atomic batch: ids are resolved or
// allocated, extraction runs across the configured number of workers, and
// every drained table is merged into the store inside a single write
// transaction. On error nothing of the batch is visible.
func (e *Engine) IndexBatch(ctx context.Context, docs []Document, ectx extract.Context) (BatchStats, error) {
	start := time.Now()
	stats, err := e.indexBatch(ctx, docs, ectx)
	stats.Duration = time.Since(start)

	if e.metrics != nil {
		e.metrics.BatchDuration.Observe(stats.Duration.Seconds())
		e.metrics.BatchSize.Observe(float64(len(docs)))
		e.metrics.SorterSpills.Add(float64(stats.Sorter.Spills))
		e.metrics.SorterSpilledBytes.Add(float64(stats.Sorter.SpilledBytes))
		if err != nil {
			e.metrics.BatchesTotal.WithLabelValues("failed").Inc()
		} else {
			e.metrics.BatchesTotal.WithLabelValues("ok").Inc()
			e.metrics.DocumentsExtracted.Add(float64(stats.Documents))
		}
	}
	if err != nil {
		e.logger.Error("batch aborted", "documents", len(docs), "error", err)
		return stats, fmt.Errorf("%w: %w", apperrors.ErrBatchAborted, err)
	}
	e.logger.Info("batch indexed",
		"documents", stats.Documents,
		"reused_ids", stats.Reused,
		"spills", stats.Sorter.Spills,
		"duration", stats.Duration,
	)
	return stats, nil
}

func (e *Engine) indexBatch(ctx context.Context, docs []Document, ectx extract.Context) (BatchStats, error) {
	var stats BatchStats
	if len(docs) == 0 {
		return stats, nil
	}
	// One document per external id per batch, last occurrence wins. Two
	// extractions sharing one internal id would collide in the positions
	// table, whose rows must each cover a whole document.
	if len(docs) > 1 {
		last := make(map[string]int, len(docs))
		for i, doc := range docs {
			last[doc.ExternalID] = i
		}
		if len(last) != len(docs) {
			deduped := make([]Document, 0, len(last))
			for i, doc := range docs {
				if last[doc.ExternalID] == i {
					deduped = append(deduped, doc)
				}
			}
			docs = deduped
		}
	}
	if err := os.MkdirAll(e.cfg.DataDir, 0o755); err != nil {
		return stats, fmt.Errorf("creating spill directory: %w", err)
	}

	used, err := e.store.DocumentIDs()
	if err != nil {
		return stats, err
	}

	externals := make([]string, len(docs))
	for i, doc := range docs {
		externals[i] = doc.ExternalID
	}
	known, err := e.store.LookupExternals(externals)
	if err != nil {
		return stats, err
	}

	// Resolve every document to an internal id before extraction starts:
	// known external ids keep theirs, the rest draw from the allocator.
	alloc := docids.FromDocumentIDs(used)
	assigned := make([]uint32, len(docs))
	fresh := make(map[string]uint32)
	for i, doc := range docs {
		if id, ok := known[doc.ExternalID]; ok {
			assigned[i] = id
			stats.Reused++
			continue
		}
		if id, ok := fresh[doc.ExternalID]; ok {
			assigned[i] = id
			continue
		}
		id, ok := alloc.Next()
		if !ok {
			return stats, apperrors.ErrDocIDExhausted
		}
		assigned[i] = id
		fresh[doc.ExternalID] = id
		used.Add(id)
	}

	compression, err := sorter.ParseCompression(e.cfg.ChunkCompression)
	if err != nil {
		return stats, err
	}
	numWorkers := e.cfg.NumWorkers
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > len(docs) {
		numWorkers = len(docs)
	}
	params := extract.Params{
		MaxMemory:        e.cfg.MaxMemory / int64(numWorkers),
		MaxChunks:        e.cfg.MaxChunkCount,
		Compression:      compression,
		CompressionLevel: e.cfg.CompressionLevel,
		TempDir:          e.cfg.DataDir,
	}

	workers := make([]*extract.Worker, numWorkers)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < numWorkers; w++ {
		w := w
		workers[w] = extract.NewWorker(params)
		g.Go(func() error {
			for i := w; i < len(docs); i += numWorkers {
				if err := gctx.Err(); err != nil {
					return err
				}
				doc := extract.Document{ID: assigned[i], Fields: docs[i].Fields}
				if err := workers[w].ExtractDocument(doc, ectx); err != nil {
					return fmt.Errorf("extracting document %s: %w", docs[i].ExternalID, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	for _, w := range workers {
		st := w.Stats()
		stats.Sorter.Inserts += st.Inserts
		stats.Sorter.Spills += st.Spills
		stats.Sorter.SpilledBytes += st.SpilledBytes
	}

	rebucket := extract.NewWordPositionSorter(params)
	err = e.store.Update(func(b *store.Batch) error {
		for _, w := range workers {
			tbls := w.Tables()
			for _, name := range tables.All {
				s, ok := tbls[name]
				if !ok {
					continue
				}
				name := name
				var emit func(key, value []byte) error
				if name == tables.DocidWordPositions {
					// The intermediate stream is loaded as-is and
					// simultaneously regrouped for the word+position table.
					emit = func(key, value []byte) error {
						if err := b.MergePut(name, mergers[name], key, value); err != nil {
							return err
						}
						return extract.Rebucket(rebucket, key, value)
					}
				} else {
					emit = func(key, value []byte) error {
						return b.MergePut(name, mergers[name], key, value)
					}
				}
				if e.metrics != nil {
					inner := emit
					emit = func(key, value []byte) error {
						e.metrics.EntriesLoaded.WithLabelValues(name).Inc()
						return inner(key, value)
					}
				}
				if err := s.Drain(emit); err != nil {
					return err
				}
			}
		}
		err := rebucket.Drain(func(key, value []byte) error {
			return b.MergePut(tables.WordPositionDocids, mergers[tables.WordPositionDocids], key, value)
		})
		if err != nil {
			return err
		}
		if err := b.PutDocumentIDs(used); err != nil {
			return err
		}
		for ext, id := range fresh {
			if err := b.PutExternalDocid(ext, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	rst := rebucket.Stats()
	stats.Sorter.Inserts += rst.Inserts
	stats.Sorter.Spills += rst.Spills
	stats.Sorter.SpilledBytes += rst.SpilledBytes
	stats.Documents = len(docs)
	if e.metrics != nil {
		e.metrics.DocumentsIndexed.Set(float64(used.GetCardinality()))
	}
	return stats, nil
}
