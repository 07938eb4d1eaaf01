package indexer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/RoaringBitmap/roaring"

	"github.com/meilisearch/milli-sub001/internal/indexer/codec"
	"github.com/meilisearch/milli-sub001/internal/indexer/extract"
	"github.com/meilisearch/milli-sub001/internal/indexer/store"
	"github.com/meilisearch/milli-sub001/internal/indexer/tables"
	"github.com/meilisearch/milli-sub001/pkg/config"
)

func testEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	cfg := config.IndexerConfig{
		DataDir:       t.TempDir(),
		MaxMemory:     1 << 20,
		NumWorkers:    2,
		MaxChunkCount: 8,
	}
	return New(cfg, st, nil), st
}

func textDoc(externalID string, words ...string) Document {
	toks := make([]extract.Token, len(words))
	for i, w := range words {
		toks[i] = extract.Token{Word: []byte(w), Position: uint32(i)}
	}
	return Document{
		ExternalID: externalID,
		Fields:     []extract.Field{{ID: 0, Tokens: toks}},
	}
}

func wordBitmap(t *testing.T, st *store.Store, word string) *roaring.Bitmap {
	t.Helper()
	data, err := st.Get(tables.WordDocids, []byte(word))
	if err != nil {
		t.Fatalf("get %q: %v", word, err)
	}
	if data == nil {
		return roaring.New()
	}
	b, err := codec.DecodeBitmap(data)
	if err != nil {
		t.Fatalf("decode %q: %v", word, err)
	}
	return b
}

func TestIndexBatch(t *testing.T) {
	e, st := testEngine(t)
	docs := []Document{
		textDoc("doc-a", "fox", "jumps"),
		textDoc("doc-b", "fox"),
	}
	stats, err := e.IndexBatch(context.Background(), docs, extract.Context{})
	if err != nil {
		t.Fatalf("index batch: %v", err)
	}
	if stats.Documents != 2 {
		t.Errorf("expected 2 documents, got %d", stats.Documents)
	}

	if got := wordBitmap(t, st, "fox"); !got.Equals(roaring.BitmapOf(0, 1)) {
		t.Errorf("fox postings: got %v, want {0,1}", got)
	}
	if got := wordBitmap(t, st, "jumps"); !got.Equals(roaring.BitmapOf(0)) {
		t.Errorf("jumps postings: got %v, want {0}", got)
	}

	// The regrouped word+position table and the intermediate stream are
	// both persisted.
	data, err := st.Get(tables.WordPositionDocids, extract.WordPositionKey([]byte("fox"), 0))
	if err != nil {
		t.Fatalf("get word+position: %v", err)
	}
	b, err := codec.DecodeCboBitmap(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !b.Equals(roaring.BitmapOf(0, 1)) {
		t.Errorf("fox@0: got %v, want {0,1}", b)
	}
	data, err = st.Get(tables.DocidWordPositions, extract.DocidWordKey(0, []byte("jumps")))
	if err != nil {
		t.Fatalf("get intermediate: %v", err)
	}
	if got := codec.DecodeBoU32s(data); len(got) != 1 || got[0] != 1 {
		t.Errorf("jumps positions for doc 0: got %v, want [1]", got)
	}

	ids, err := st.DocumentIDs()
	if err != nil {
		t.Fatalf("document ids: %v", err)
	}
	if !ids.Equals(roaring.BitmapOf(0, 1)) {
		t.Errorf("document ids: got %v, want {0,1}", ids)
	}
}

// A second batch must merge into existing postings, reuse ids for known
// external ids, and allocate fresh ids past the current maximum.
func TestIndexBatchAcrossBatches(t *testing.T) {
	e, st := testEngine(t)
	ctx := context.Background()

	if _, err := e.IndexBatch(ctx, []Document{textDoc("doc-a", "fox"), textDoc("doc-b", "cat")}, extract.Context{}); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	stats, err := e.IndexBatch(ctx, []Document{textDoc("doc-a", "vulpine"), textDoc("doc-c", "fox")}, extract.Context{})
	if err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if stats.Reused != 1 {
		t.Errorf("expected 1 reused id, got %d", stats.Reused)
	}

	if got := wordBitmap(t, st, "fox"); !got.Equals(roaring.BitmapOf(0, 2)) {
		t.Errorf("fox postings after both batches: got %v, want {0,2}", got)
	}
	if got := wordBitmap(t, st, "vulpine"); !got.Equals(roaring.BitmapOf(0)) {
		t.Errorf("vulpine postings: got %v, want {0}", got)
	}

	known, err := st.LookupExternals([]string{"doc-a", "doc-b", "doc-c"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	want := map[string]uint32{"doc-a": 0, "doc-b": 1, "doc-c": 2}
	for ext, id := range want {
		if known[ext] != id {
			t.Errorf("%s: got id %d, want %d", ext, known[ext], id)
		}
	}
}

func TestIndexBatchEmpty(t *testing.T) {
	e, _ := testEngine(t)
	stats, err := e.IndexBatch(context.Background(), nil, extract.Context{})
	if err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if stats.Documents != 0 {
		t.Errorf("expected 0 documents, got %d", stats.Documents)
	}
}

// Re-submitting an external id inside one batch keeps only the last
// occurrence; in particular a word shared by both occurrences must not get
// its positions list stored twice.
func TestIndexBatchDuplicateExternalIDs(t *testing.T) {
	e, st := testEngine(t)
	docs := []Document{
		textDoc("doc-a", "fox", "first"),
		textDoc("doc-a", "fox", "second"),
	}
	stats, err := e.IndexBatch(context.Background(), docs, extract.Context{})
	if err != nil {
		t.Fatalf("index batch: %v", err)
	}
	if stats.Documents != 1 {
		t.Errorf("expected 1 document after dedup, got %d", stats.Documents)
	}

	ids, err := st.DocumentIDs()
	if err != nil {
		t.Fatalf("document ids: %v", err)
	}
	if ids.GetCardinality() != 1 {
		t.Errorf("expected 1 document id, got %d", ids.GetCardinality())
	}

	data, err := st.Get(tables.DocidWordPositions, extract.DocidWordKey(0, []byte("fox")))
	if err != nil {
		t.Fatalf("get positions: %v", err)
	}
	if got := codec.DecodeBoU32s(data); len(got) != 1 || got[0] != 0 {
		t.Errorf("fox positions: got %v, want [0]", got)
	}
	if got := wordBitmap(t, st, "second"); !got.Equals(roaring.BitmapOf(0)) {
		t.Errorf("last occurrence should win: second → %v, want {0}", got)
	}
	data, err = st.Get(tables.WordDocids, []byte("first"))
	if err != nil {
		t.Fatalf("get first: %v", err)
	}
	if data != nil {
		t.Error("earlier occurrence should be discarded")
	}
}

// Re-submitting a document in a later batch replaces its intermediate
// positions rows rather than concatenating the old and new lists.
func TestIndexBatchResubmissionReplacesPositions(t *testing.T) {
	e, st := testEngine(t)
	ctx := context.Background()

	if _, err := e.IndexBatch(ctx, []Document{textDoc("doc-a", "fox")}, extract.Context{}); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if _, err := e.IndexBatch(ctx, []Document{textDoc("doc-a", "moved", "fox")}, extract.Context{}); err != nil {
		t.Fatalf("second batch: %v", err)
	}

	data, err := st.Get(tables.DocidWordPositions, extract.DocidWordKey(0, []byte("fox")))
	if err != nil {
		t.Fatalf("get positions: %v", err)
	}
	if got := codec.DecodeBoU32s(data); len(got) != 1 || got[0] != 1 {
		t.Errorf("fox positions after resubmission: got %v, want [1]", got)
	}
}

// A hand-built config that skips validation must not crash the engine.
func TestIndexBatchZeroWorkersConfig(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	e := New(config.IndexerConfig{DataDir: t.TempDir(), MaxMemory: 1 << 20}, st, nil)

	if _, err := e.IndexBatch(context.Background(), []Document{textDoc("doc-a", "fox")}, extract.Context{}); err != nil {
		t.Fatalf("index batch with zero workers: %v", err)
	}
	if got := wordBitmap(t, st, "fox"); !got.Equals(roaring.BitmapOf(0)) {
		t.Errorf("fox postings: got %v, want {0}", got)
	}
}
