package extract

import (
	"github.com/meilisearch/milli-sub001/internal/indexer/sorter"
	"github.com/meilisearch/milli-sub001/internal/indexer/tables"
)

// Params configures the sorters one extraction worker owns. MaxMemory is
// the worker's whole budget; each table gets a fixed share of it.
type Params struct {
	MaxMemory        int64
	MaxChunks        int
	Compression      sorter.Compression
	CompressionLevel int
	TempDir          string
}

func (p Params) options(name string, share int64, stable bool) sorter.Options {
	return sorter.Options{
		Name:             name,
		MaxMemory:        p.MaxMemory / share,
		MaxChunks:        p.MaxChunks,
		Stable:           stable,
		Compression:      p.Compression,
		CompressionLevel: p.CompressionLevel,
		TempDir:          p.TempDir,
	}
}

// Worker is one independent instance of the extraction pipeline: its own
// sorters, its own scratch buffers, no state shared with other workers. It
// lives for one batch and its sorters are drained exactly once.
type Worker struct {
	wordDocids              *sorter.Sorter
	exactWordDocids         *sorter.Sorter
	wordPairProximityDocids *sorter.Sorter
	docidWordPositions      *sorter.Sorter
	fidWordCountDocids      *sorter.Sorter
	facetNumberDocids       *sorter.Sorter
	facetStringDocids       *sorter.Sorter
}

// NewWorker creates the per-table sorters. Memory shares and sort
// stability follow each table's merge strategy: the intermediate positions
// table concatenates and must keep insertion order, the bitmap tables union
// and may sort unstably. The pair table gets the largest share because its
// row count grows quadratically with field length.
func NewWorker(p Params) *Worker {
	return &Worker{
		wordDocids:              sorter.New(sorter.RoaringUnion{}, p.options(tables.WordDocids, 5, false)),
		exactWordDocids:         sorter.New(sorter.RoaringUnion{}, p.options(tables.ExactWordDocids, 10, false)),
		wordPairProximityDocids: sorter.New(sorter.CboUnion{}, p.options(tables.WordPairProximityDocids, 2, false)),
		docidWordPositions:      sorter.New(sorter.ConcatU32{}, p.options(tables.DocidWordPositions, 5, true)),
		fidWordCountDocids:      sorter.New(sorter.CboUnion{}, p.options(tables.FidWordCountDocids, 20, false)),
		facetNumberDocids:       sorter.New(sorter.CboUnion{}, p.options(tables.FacetNumberDocids, 10, false)),
		facetStringDocids:       sorter.New(sorter.CboUnion{}, p.options(tables.FacetStringDocids, 10, false)),
	}
}

// ExtractDocument runs every extractor over one document. Each field is
// committed exactly once — the loop finishes a field before moving to the
// next, and the last field is finished before returning, so a half-flushed
// document cannot escape this function.
func (w *Worker) ExtractDocument(doc Document, ctx Context) error {
	wp := newWordPositions(doc.ID, w.docidWordPositions)
	wd, err := newWordDocids(doc.ID, w.wordDocids, w.exactWordDocids)
	if err != nil {
		return err
	}
	wpp := newWordPairProximity(doc.ID, w.wordPairProximityDocids)
	fwc := newFidWordCount(doc.ID, w.fidWordCountDocids)
	fv := newFacetValues(doc.ID, w.facetNumberDocids, w.facetStringDocids)

	for _, field := range doc.Fields {
		var wordCount uint32
		for _, tok := range field.Tokens {
			wp.push(tok)
			wpp.push(tok)
			if tok.Position+1 > wordCount {
				wordCount = tok.Position + 1
			}
		}
		if len(field.Tokens) > 0 {
			if err := wd.commitField(field.ID, wp, ctx); err != nil {
				return err
			}
		}
		// A searchable field carries a non-nil token slice even when the
		// text was empty; those fields still land in the zero bucket.
		// Facet-only fields have a nil slice and are not counted.
		if field.Tokens != nil {
			if err := fwc.commitField(field.ID, wordCount); err != nil {
				return err
			}
		}
		if err := wp.finishField(); err != nil {
			return err
		}
		wpp.finishField()
		if err := fv.commitField(field); err != nil {
			return err
		}
	}
	return wpp.finishDocument()
}

// Tables returns the worker's sorters keyed by table name, for draining.
// The docid-word-positions entry is the intermediate stream the
// re-bucketing pass consumes.
func (w *Worker) Tables() map[string]*sorter.Sorter {
	return map[string]*sorter.Sorter{
		tables.WordDocids:              w.wordDocids,
		tables.ExactWordDocids:         w.exactWordDocids,
		tables.WordPairProximityDocids: w.wordPairProximityDocids,
		tables.DocidWordPositions:      w.docidWordPositions,
		tables.FidWordCountDocids:      w.fidWordCountDocids,
		tables.FacetNumberDocids:       w.facetNumberDocids,
		tables.FacetStringDocids:       w.facetStringDocids,
	}
}

// Stats sums the sorter counters across all of the worker's tables.
func (w *Worker) Stats() sorter.Stats {
	var total sorter.Stats
	for _, s := range w.Tables() {
		st := s.Stats()
		total.Inserts += st.Inserts
		total.Spills += st.Spills
		total.SpilledBytes += st.SpilledBytes
	}
	return total
}
