package extract

import (
	"github.com/meilisearch/milli-sub001/internal/indexer/codec"
	"github.com/meilisearch/milli-sub001/internal/indexer/sorter"
	"github.com/meilisearch/milli-sub001/internal/indexer/tables"
)

// The re-bucketing pass regroups the already-sorted docid+word → positions
// intermediate stream into the final word+position → docids table. It is a
// second pass over data sorted once before: the first pass must group by
// (docid, word) to flush cheaply per field, while this table groups by
// (word, position).

// NewWordPositionSorter returns the sorter the re-bucketing pass writes
// into, using the conditional union merge.
func NewWordPositionSorter(p Params) *sorter.Sorter {
	return sorter.New(sorter.CboUnion{}, p.options(tables.WordPositionDocids, 5, false))
}

// Rebucket expands one intermediate entry into one (word, position) →
// {docid} row per position. Keys shorter than the docid prefix are
// corruption and abort the batch.
func Rebucket(s *sorter.Sorter, key, value []byte) error {
	docid, word, err := SplitDocidWordKey(key)
	if err != nil {
		return err
	}
	docidValue := codec.EncodeCboU32(docid)
	for _, pos := range codec.DecodeBoU32s(value) {
		if err := s.Insert(WordPositionKey(word, pos), docidValue); err != nil {
			return err
		}
	}
	return nil
}
