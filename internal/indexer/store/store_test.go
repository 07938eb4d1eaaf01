package store

import (
	"path/filepath"
	"testing"

	"github.com/RoaringBitmap/roaring"

	"github.com/meilisearch/milli-sub001/internal/indexer/codec"
	"github.com/meilisearch/milli-sub001/internal/indexer/sorter"
	"github.com/meilisearch/milli-sub001/internal/indexer/tables"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMergePutCombinesExisting(t *testing.T) {
	s := openTestStore(t)
	key := []byte("fox")

	put := func(ids ...uint32) {
		t.Helper()
		data, err := codec.EncodeBitmap(roaring.BitmapOf(ids...))
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		err = s.Update(func(b *Batch) error {
			return b.MergePut(tables.WordDocids, sorter.RoaringUnion{}, key, data)
		})
		if err != nil {
			t.Fatalf("merge put: %v", err)
		}
	}
	put(1, 2)
	put(2, 3)

	data, err := s.Get(tables.WordDocids, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got, err := codec.DecodeBitmap(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Equals(roaring.BitmapOf(1, 2, 3)) {
		t.Errorf("expected union {1,2,3}, got %v", got)
	}
}

func TestUpdateRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	err := s.Update(func(b *Batch) error {
		if err := b.MergePut(tables.WordDocids, sorter.KeepFirst{}, []byte("k"), []byte("v")); err != nil {
			return err
		}
		return errIntentional
	})
	if err != errIntentional {
		t.Fatalf("expected intentional error, got %v", err)
	}
	data, err := s.Get(tables.WordDocids, []byte("k"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if data != nil {
		t.Error("aborted batch must leave no trace")
	}
}

var errIntentional = &intentionalError{}

type intentionalError struct{}

func (*intentionalError) Error() string { return "intentional" }

func TestDocumentIDsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	ids, err := s.DocumentIDs()
	if err != nil {
		t.Fatalf("initial read: %v", err)
	}
	if !ids.IsEmpty() {
		t.Fatal("fresh store should have no document ids")
	}

	want := roaring.BitmapOf(0, 7, 4094)
	err = s.Update(func(b *Batch) error {
		return b.PutDocumentIDs(want)
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.DocumentIDs()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !got.Equals(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestForEachVisitsInKeyOrder(t *testing.T) {
	s := openTestStore(t)
	err := s.Update(func(b *Batch) error {
		for _, key := range []string{"c", "a", "b"} {
			if err := b.MergePut(tables.WordDocids, sorter.KeepFirst{}, []byte(key), []byte("v-"+key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	var keys []string
	err = s.ForEach(tables.WordDocids, func(key, value []byte) error {
		keys = append(keys, string(key))
		if want := "v-" + string(key); string(value) != want {
			t.Errorf("key %q: got value %q, want %q", key, value, want)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("foreach: %v", err)
	}
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Errorf("expected ascending keys [a b c], got %v", keys)
	}
}

func TestLookupExternals(t *testing.T) {
	s := openTestStore(t)
	err := s.Update(func(b *Batch) error {
		if err := b.PutExternalDocid("movie-1", 0); err != nil {
			return err
		}
		return b.PutExternalDocid("movie-2", 9)
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	found, err := s.LookupExternals([]string{"movie-1", "movie-2", "missing"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(found) != 2 || found["movie-1"] != 0 || found["movie-2"] != 9 {
		t.Errorf("unexpected lookup result: %v", found)
	}
}
