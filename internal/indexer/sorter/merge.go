package sorter

import (
	"fmt"

	"github.com/meilisearch/milli-sub001/internal/indexer/codec"
)

// Merger combines all the values inserted under one key during a sort-merge.
// Implementations are stateless named strategies selected per table at
// sorter construction. Merge receives values left to right in accumulation
// order; every strategy except ConcatU32 must be associative and
// commutative, because sub-buffers may be combined pairwise in any order.
type Merger interface {
	Merge(key []byte, values [][]byte) ([]byte, error)
}

// RoaringUnion decodes each value with the general bitmap codec and encodes
// the union. Used by the word and exact-word docids tables.
type RoaringUnion struct{}

func (RoaringUnion) Merge(_ []byte, values [][]byte) ([]byte, error) {
	if len(values) == 1 {
		return values[0], nil
	}
	acc, err := codec.DecodeBitmap(values[0])
	if err != nil {
		return nil, fmt.Errorf("merging roaring bitmaps: %w", err)
	}
	for _, v := range values[1:] {
		b, err := codec.DecodeBitmap(v)
		if err != nil {
			return nil, fmt.Errorf("merging roaring bitmaps: %w", err)
		}
		acc.Or(b)
	}
	return codec.EncodeBitmap(acc)
}

// CboUnion is RoaringUnion over the conditional encoding, used by tables
// whose id sets usually stay tiny (word+position, field word-count, facets).
type CboUnion struct{}

func (CboUnion) Merge(_ []byte, values [][]byte) ([]byte, error) {
	if len(values) == 1 {
		return values[0], nil
	}
	acc, err := codec.DecodeCboBitmap(values[0])
	if err != nil {
		return nil, fmt.Errorf("merging cbo bitmaps: %w", err)
	}
	for _, v := range values[1:] {
		b, err := codec.DecodeCboBitmap(v)
		if err != nil {
			return nil, fmt.Errorf("merging cbo bitmaps: %w", err)
		}
		acc.Or(b)
	}
	return codec.EncodeCboBitmap(acc)
}

// ConcatU32 concatenates fixed-width u32 lists in insertion order. It is
// order-sensitive (positions lists must keep discovery order) and assumes
// the table is structured so the same document id or position cannot occur
// twice under one key; duplicates are a caller bug and are not detected
// here.
type ConcatU32 struct{}

func (ConcatU32) Merge(_ []byte, values [][]byte) ([]byte, error) {
	if len(values) == 1 {
		return values[0], nil
	}
	total := 0
	for _, v := range values {
		total += len(v)
	}
	out := make([]byte, 0, total)
	for _, v := range values {
		out = append(out, v...)
	}
	return out, nil
}

// KeepFirst discards everything but the first value seen for a key.
type KeepFirst struct{}

func (KeepFirst) Merge(_ []byte, values [][]byte) ([]byte, error) {
	return values[0], nil
}

// KeepLast keeps only the newest value for a key. The bulk loader uses it
// where a re-submitted document's row supersedes the stored one.
type KeepLast struct{}

func (KeepLast) Merge(_ []byte, values [][]byte) ([]byte, error) {
	return values[len(values)-1], nil
}
