package codec

import (
	"bytes"
	"math"
	"sort"
	"testing"
)

func TestF64RoundTrip(t *testing.T) {
	values := []float64{0, -0.5, 0.5, 1, -1, 42.25, -1e308, 1e308, math.SmallestNonzeroFloat64}
	for _, v := range values {
		if got := DecodeF64(EncodeF64(v)); got != v {
			t.Errorf("round trip %v: got %v", v, got)
		}
	}
}

// Byte order of the encoding must equal numeric order, negatives included.
func TestF64EncodingPreservesOrder(t *testing.T) {
	values := []float64{-1e308, -273.15, -1, -0.25, 0, 0.25, 1, 3.14, 1000, 1e308}
	encoded := make([][]byte, len(values))
	for i, v := range values {
		encoded[i] = EncodeF64(v)
	}
	if !sort.SliceIsSorted(encoded, func(i, j int) bool {
		return bytes.Compare(encoded[i], encoded[j]) < 0
	}) {
		t.Error("encoded floats are not in numeric order")
	}
}

func TestFacetNumberKeyOrdering(t *testing.T) {
	// Same field: value order dominates. Different field: field id dominates.
	low := FacetNumberKey(3, -10, 7)
	high := FacetNumberKey(3, 10, 1)
	if bytes.Compare(low, high) >= 0 {
		t.Error("negative value should sort before positive within a field")
	}
	otherField := FacetNumberKey(4, -1e308, 0)
	if bytes.Compare(high, otherField) >= 0 {
		t.Error("field id should dominate the ordering")
	}
}

func TestFacetNumberKeyUniquePerDocument(t *testing.T) {
	a := FacetNumberKey(1, 2.5, 10)
	b := FacetNumberKey(1, 2.5, 11)
	if bytes.Equal(a, b) {
		t.Error("same value for different documents must produce distinct keys")
	}
	if bytes.Compare(a, b) >= 0 {
		t.Error("docid should break ties in ascending order")
	}
}

func TestFacetStringKeyLayout(t *testing.T) {
	key := FacetStringKey(258, []byte("rust"), 9)
	if len(key) != 2+4+4 {
		t.Fatalf("unexpected key length %d", len(key))
	}
	if key[0] != 1 || key[1] != 2 {
		t.Errorf("field id prefix not big-endian: % x", key[:2])
	}
	if string(key[2:6]) != "rust" {
		t.Errorf("value bytes not raw: %q", key[2:6])
	}
}
