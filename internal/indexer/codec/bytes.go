// Package codec implements the binary encodings of the postings tables:
// roaring bitmaps, the conditional and flat id-list layouts, and the
// order-preserving facet key layouts. Every multi-byte key component is
// big-endian so byte order equals logical order; id-list values are
// little-endian.
package codec

// EncodeBytes passes an opaque value through unchanged.
func EncodeBytes(value []byte) []byte {
	return value
}

// DecodeBytes returns the raw bytes as-is. The result aliases the input.
func DecodeBytes(data []byte) []byte {
	return data
}
