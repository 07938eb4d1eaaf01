package extract

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/meilisearch/milli-sub001/internal/indexer/codec"
	"github.com/meilisearch/milli-sub001/internal/indexer/sorter"
)

// wordDocids inserts (token) → {docid} rows for every distinct token of a
// field, routed to the exact-word table when the field is an exact-match
// attribute. The single-id set is bitmap-encoded once per document so the
// union merge can combine it with other documents' contributions.
type wordDocids struct {
	value []byte
	words *sorter.Sorter
	exact *sorter.Sorter
}

func newWordDocids(docid uint32, words, exact *sorter.Sorter) (*wordDocids, error) {
	value, err := codec.EncodeBitmap(roaring.BitmapOf(docid))
	if err != nil {
		return nil, err
	}
	return &wordDocids{value: value, words: words, exact: exact}, nil
}

// commitField reads the token set the position collector accumulated for
// the field; it must run before that collector's finishField clears it.
func (e *wordDocids) commitField(fieldID uint16, wp *wordPositions, ctx Context) error {
	target := e.words
	if ctx.IsExact(fieldID) {
		target = e.exact
	}
	for word := range wp.positions {
		if err := target.Insert([]byte(word), e.value); err != nil {
			return err
		}
	}
	return nil
}
