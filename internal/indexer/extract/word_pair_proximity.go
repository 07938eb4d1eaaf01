package extract

import (
	"github.com/meilisearch/milli-sub001/internal/indexer/codec"
	"github.com/meilisearch/milli-sub001/internal/indexer/sorter"
)

// maxPairProximity is the largest position distance at which two words are
// still considered a pair.
const maxPairProximity = 7

type windowToken struct {
	word     []byte
	position uint32
}

// wordPairProximity records, per document, the minimum proximity of every
// ordered word pair whose occurrences lie within maxPairProximity positions
// of each other. A sliding window over the field's token stream bounds the
// work; pairs never span fields. Token positions within a field must be
// non-decreasing.
//
// For a pair observed at distance d, the forward key (word1, word2) gets
// proximity d and the reverse key (word2, word1) gets d+1, so reversed
// matches rank just behind in-order ones.
type wordPairProximity struct {
	value  []byte
	window []windowToken
	pairs  map[string]uint8
	sorter *sorter.Sorter
}

func newWordPairProximity(docid uint32, s *sorter.Sorter) *wordPairProximity {
	return &wordPairProximity{
		value:  codec.EncodeCboU32(docid),
		pairs:  make(map[string]uint8),
		sorter: s,
	}
}

func (e *wordPairProximity) push(tok Token) {
	for len(e.window) > 0 && tok.Position-e.window[0].position > maxPairProximity {
		e.dequeueFirst()
	}
	e.window = append(e.window, windowToken{
		word:     append([]byte(nil), tok.Word...),
		position: tok.Position,
	})
}

// dequeueFirst pairs the oldest window token with every younger one, then
// drops it.
func (e *wordPairProximity) dequeueFirst() {
	first := e.window[0]
	for _, second := range e.window[1:] {
		distance := uint8(second.position - first.position)
		e.record(first.word, second.word, distance)
		e.record(second.word, first.word, distance+1)
	}
	e.window = e.window[1:]
}

func (e *wordPairProximity) record(word1, word2 []byte, proximity uint8) {
	key := make([]byte, 0, len(word1)+len(word2)+2)
	key = append(key, word1...)
	key = append(key, 0)
	key = append(key, word2...)
	key = append(key, 0)
	if cur, ok := e.pairs[string(key)]; !ok || proximity < cur {
		e.pairs[string(key)] = proximity
	}
}

// finishField empties the window so pairs cannot cross a field boundary,
// where positions restart.
func (e *wordPairProximity) finishField() {
	for len(e.window) > 0 {
		e.dequeueFirst()
	}
}

// finishDocument commits one row per recorded pair.
func (e *wordPairProximity) finishDocument() error {
	for key, proximity := range e.pairs {
		row := make([]byte, 0, len(key)+1)
		row = append(row, key...)
		row = append(row, proximity)
		if err := e.sorter.Insert(row, e.value); err != nil {
			return err
		}
	}
	return nil
}
