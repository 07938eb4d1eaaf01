package extract

import (
	"encoding/binary"

	"github.com/meilisearch/milli-sub001/internal/indexer/codec"
	"github.com/meilisearch/milli-sub001/internal/indexer/sorter"
)

// wordPositions accumulates, per field, the positions at which each token
// occurs. finishField commits one docid+word row per distinct token (value:
// the field's positions in discovery order) and resets the map, so state
// never survives a field change.
type wordPositions struct {
	docid     uint32
	keyBuf    []byte
	positions map[string][]uint32
	sorter    *sorter.Sorter
}

func newWordPositions(docid uint32, s *sorter.Sorter) *wordPositions {
	return &wordPositions{
		docid:     docid,
		positions: make(map[string][]uint32),
		sorter:    s,
	}
}

func (e *wordPositions) push(tok Token) {
	e.positions[string(tok.Word)] = append(e.positions[string(tok.Word)], tok.Position)
}

// finishField flushes the current field's token→positions map into the
// intermediate table. ExtractDocument calls it for every field, including
// the document's last, so a field can never be left uncommitted.
func (e *wordPositions) finishField() error {
	for word, positions := range e.positions {
		e.keyBuf = e.keyBuf[:0]
		e.keyBuf = binary.BigEndian.AppendUint32(e.keyBuf, e.docid)
		e.keyBuf = append(e.keyBuf, word...)
		if err := e.sorter.Insert(e.keyBuf, codec.EncodeBoU32s(positions)); err != nil {
			return err
		}
	}
	clear(e.positions)
	return nil
}
