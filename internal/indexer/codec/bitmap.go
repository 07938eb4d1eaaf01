package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/RoaringBitmap/roaring"

	apperrors "github.com/meilisearch/milli-sub001/pkg/errors"
)

// CboThreshold is the cardinality at or below which the conditional codec
// stores ids as a flat array instead of a serialized bitmap. At 7 ids the
// flat layout (28 bytes) is never larger than the bitmap header alone.
const CboThreshold = 7

// EncodeBitmap serializes a bitmap in the portable roaring format.
func EncodeBitmap(b *roaring.Bitmap) ([]byte, error) {
	data, err := b.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("encoding bitmap: %w", err)
	}
	return data, nil
}

// DecodeBitmap deserializes a portable roaring bitmap.
func DecodeBitmap(data []byte) (*roaring.Bitmap, error) {
	b := roaring.New()
	if err := b.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%w: roaring bitmap: %v", apperrors.ErrCorruptEntry, err)
	}
	return b, nil
}

// EncodeCboBitmap serializes a bitmap conditionally: at most CboThreshold
// ids are written as flat little-endian u32s, anything larger as a portable
// roaring bitmap. The two layouts are distinguished on decode by length
// alone, which is why the threshold must never change for stored data.
func EncodeCboBitmap(b *roaring.Bitmap) ([]byte, error) {
	if n := b.GetCardinality(); n <= CboThreshold {
		data := make([]byte, 0, n*4)
		it := b.Iterator()
		for it.HasNext() {
			data = binary.LittleEndian.AppendUint32(data, it.Next())
		}
		return data, nil
	}
	return EncodeBitmap(b)
}

// DecodeCboBitmap reverses EncodeCboBitmap. Payloads no longer than
// CboThreshold flat ids are read as the flat layout, longer ones as a
// roaring bitmap.
func DecodeCboBitmap(data []byte) (*roaring.Bitmap, error) {
	if len(data) <= CboThreshold*4 {
		b := roaring.New()
		for _, id := range DecodeBoU32s(data) {
			b.Add(id)
		}
		return b, nil
	}
	return DecodeBitmap(data)
}

// EncodeCboU32 encodes a single id in the conditional layout, which for one
// id is just the flat form.
func EncodeCboU32(id uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, id)
}

// EncodeBoU32s writes ids as flat little-endian u32s in the order given.
func EncodeBoU32s(ids []uint32) []byte {
	data := make([]byte, 0, len(ids)*4)
	for _, id := range ids {
		data = AppendBoU32(data, id)
	}
	return data
}

// AppendBoU32 appends one id to a flat little-endian u32 list.
func AppendBoU32(dst []byte, id uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, id)
}

// DecodeBoU32s reads a flat little-endian u32 list. Trailing bytes that do
// not fill a whole u32 are ignored.
func DecodeBoU32s(data []byte) []uint32 {
	n := len(data) / 4
	ids := make([]uint32, n)
	for i := 0; i < n; i++ {
		ids[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return ids
}
