package extract

import (
	"encoding/binary"
	"fmt"

	apperrors "github.com/meilisearch/milli-sub001/pkg/errors"
)

// Key layouts, all big-endian so byte order is sort order:
//
//	docid+word:    4-byte docid ++ word bytes
//	word+position: word bytes ++ 4-byte position
//	word pair:     word1 ++ NUL ++ word2 ++ NUL ++ 1-byte proximity
//	fid+wordcount: 2-byte field id ++ 1-byte count

// DocidWordKey builds the intermediate table key.
func DocidWordKey(docid uint32, word []byte) []byte {
	key := make([]byte, 0, 4+len(word))
	key = binary.BigEndian.AppendUint32(key, docid)
	return append(key, word...)
}

// SplitDocidWordKey splits an intermediate table key back into its document
// id and word. A key too short to hold the id prefix is corruption and
// fatal to the batch.
func SplitDocidWordKey(key []byte) (uint32, []byte, error) {
	if len(key) < 4 {
		return 0, nil, fmt.Errorf("%w: docid+word key of %d bytes", apperrors.ErrCorruptEntry, len(key))
	}
	return binary.BigEndian.Uint32(key), key[4:], nil
}

// WordPositionKey builds the final word+position table key.
func WordPositionKey(word []byte, position uint32) []byte {
	key := make([]byte, 0, len(word)+4)
	key = append(key, word...)
	return binary.BigEndian.AppendUint32(key, position)
}

// SplitWordPositionKey splits a word+position key.
func SplitWordPositionKey(key []byte) ([]byte, uint32, error) {
	if len(key) < 4 {
		return nil, 0, fmt.Errorf("%w: word+position key of %d bytes", apperrors.ErrCorruptEntry, len(key))
	}
	n := len(key) - 4
	return key[:n], binary.BigEndian.Uint32(key[n:]), nil
}

// WordPairKey builds a word-pair proximity table key. Words are
// NUL-terminated because their lengths vary.
func WordPairKey(word1, word2 []byte, proximity uint8) []byte {
	key := make([]byte, 0, len(word1)+len(word2)+3)
	key = append(key, word1...)
	key = append(key, 0)
	key = append(key, word2...)
	key = append(key, 0)
	return append(key, proximity)
}

// FidWordCountKey builds the field word-count bucket key.
func FidWordCountKey(fieldID uint16, wordCount uint8) []byte {
	key := make([]byte, 0, 3)
	key = binary.BigEndian.AppendUint16(key, fieldID)
	return append(key, wordCount)
}
