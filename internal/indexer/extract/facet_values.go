package extract

import (
	"github.com/meilisearch/milli-sub001/internal/indexer/codec"
	"github.com/meilisearch/milli-sub001/internal/indexer/sorter"
)

// facetValues emits facet rows keyed by field id, order-preserving value,
// and document id, so that range scans over the value are contiguous byte
// ranges.
type facetValues struct {
	docid   uint32
	value   []byte
	numbers *sorter.Sorter
	strings *sorter.Sorter
}

func newFacetValues(docid uint32, numbers, strings *sorter.Sorter) *facetValues {
	return &facetValues{
		docid:   docid,
		value:   codec.EncodeCboU32(docid),
		numbers: numbers,
		strings: strings,
	}
}

func (e *facetValues) commitField(field Field) error {
	for _, n := range field.FacetNumbers {
		key := codec.FacetNumberKey(field.ID, n, e.docid)
		if err := e.numbers.Insert(key, e.value); err != nil {
			return err
		}
	}
	for _, s := range field.FacetStrings {
		key := codec.FacetStringKey(field.ID, []byte(s), e.docid)
		if err := e.strings.Insert(key, e.value); err != nil {
			return err
		}
	}
	return nil
}
