package extract

import (
	"github.com/meilisearch/milli-sub001/internal/indexer/codec"
	"github.com/meilisearch/milli-sub001/internal/indexer/sorter"
)

// maxTrackedWordCount is the bucket cutoff: fields with more words than
// this are not tracked at word-count granularity.
const maxTrackedWordCount = 10

// fidWordCount buckets short fields by their exact word count. The value is
// the raw fixed-width docid, merged with the conditional union strategy.
type fidWordCount struct {
	value  []byte
	sorter *sorter.Sorter
}

func newFidWordCount(docid uint32, s *sorter.Sorter) *fidWordCount {
	return &fidWordCount{value: codec.EncodeCboU32(docid), sorter: s}
}

func (e *fidWordCount) commitField(fieldID uint16, wordCount uint32) error {
	if wordCount > maxTrackedWordCount {
		return nil
	}
	return e.sorter.Insert(FidWordCountKey(fieldID, uint8(wordCount)), e.value)
}
