package codec

import (
	"encoding/binary"
	"math"
)

// EncodeF64 writes a float in an order-preserving big-endian layout: the
// sign bit of non-negative values is set, negative values are bitwise
// inverted. Byte comparison of two encoded floats then matches numeric
// comparison, NaN excluded.
func EncodeF64(f float64) []byte {
	return AppendF64(make([]byte, 0, 8), f)
}

// AppendF64 appends the order-preserving encoding of f to dst.
func AppendF64(dst []byte, f float64) []byte {
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	return binary.BigEndian.AppendUint64(dst, bits)
}

// DecodeF64 reverses EncodeF64.
func DecodeF64(data []byte) float64 {
	bits := binary.BigEndian.Uint64(data)
	if bits&(1<<63) != 0 {
		bits &^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits)
}

// FacetNumberKey builds a facet-number table key: field id, the
// order-preserving float, then the docid, all big-endian. The trailing
// docid keeps keys unique per document while preserving value order.
func FacetNumberKey(fieldID uint16, value float64, docid uint32) []byte {
	key := make([]byte, 0, 2+8+4)
	key = binary.BigEndian.AppendUint16(key, fieldID)
	key = AppendF64(key, value)
	return binary.BigEndian.AppendUint32(key, docid)
}

// FacetStringKey builds a facet-string table key: field id, the raw string
// bytes, then the docid.
func FacetStringKey(fieldID uint16, value []byte, docid uint32) []byte {
	key := make([]byte, 0, 2+len(value)+4)
	key = binary.BigEndian.AppendUint16(key, fieldID)
	key = append(key, value...)
	return binary.BigEndian.AppendUint32(key, docid)
}
