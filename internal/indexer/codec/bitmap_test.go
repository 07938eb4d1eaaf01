package codec

import (
	"errors"
	"testing"

	"github.com/RoaringBitmap/roaring"

	apperrors "github.com/meilisearch/milli-sub001/pkg/errors"
)

func TestCboBitmapRoundTrip(t *testing.T) {
	cases := map[string]*roaring.Bitmap{
		"empty":     roaring.New(),
		"single":    roaring.BitmapOf(42),
		"threshold": roaring.BitmapOf(1, 2, 3, 4, 5, 6, 7),
		"overflow":  roaring.BitmapOf(1, 2, 3, 4, 5, 6, 7, 8),
		"sparse":    roaring.BitmapOf(0, 1<<16, 1<<24, 1<<31, 4294967295),
		"bounds":    roaring.BitmapOf(0, 4294967295),
	}
	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			data, err := EncodeCboBitmap(want)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			got, err := DecodeCboBitmap(data)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !got.Equals(want) {
				t.Errorf("round trip mismatch: got %v, want %v", got, want)
			}
		})
	}
}

func TestCboBitmapDenseRoundTrip(t *testing.T) {
	want := roaring.New()
	want.AddRange(0, 100000)
	data, err := EncodeCboBitmap(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeCboBitmap(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Equals(want) {
		t.Error("dense round trip mismatch")
	}
}

// At the threshold cardinality the flat layout must be chosen, and one more
// id must switch to the bitmap layout.
func TestCboBitmapLayoutSelection(t *testing.T) {
	atThreshold := roaring.BitmapOf(1, 2, 3, 4, 5, 6, 7)
	data, err := EncodeCboBitmap(atThreshold)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) != CboThreshold*4 {
		t.Errorf("expected flat layout of %d bytes, got %d", CboThreshold*4, len(data))
	}

	overThreshold := roaring.BitmapOf(1, 2, 3, 4, 5, 6, 7, 8)
	data, err = EncodeCboBitmap(overThreshold)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) <= CboThreshold*4 {
		t.Errorf("expected bitmap layout longer than %d bytes, got %d", CboThreshold*4, len(data))
	}
}

func TestDecodeBitmapCorrupt(t *testing.T) {
	_, err := DecodeBitmap([]byte{0xde, 0xad, 0xbe, 0xef})
	if !errors.Is(err, apperrors.ErrCorruptEntry) {
		t.Errorf("expected ErrCorruptEntry, got %v", err)
	}
}

func TestBoU32sRoundTrip(t *testing.T) {
	// Insertion order is preserved, duplicates are kept.
	ids := []uint32{5, 1, 5, 4294967295, 0}
	got := DecodeBoU32s(EncodeBoU32s(ids))
	if len(got) != len(ids) {
		t.Fatalf("expected %d ids, got %d", len(ids), len(got))
	}
	for i, id := range ids {
		if got[i] != id {
			t.Errorf("id %d: got %d, want %d", i, got[i], id)
		}
	}
}

func TestAppendBoU32ExtendsFlatList(t *testing.T) {
	got := AppendBoU32(EncodeBoU32s([]uint32{1}), 2)
	want := EncodeBoU32s([]uint32{1, 2})
	if len(got) != len(want) {
		t.Fatalf("expected %d bytes, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: got %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestDecodeBoU32sIgnoresTrailingBytes(t *testing.T) {
	data := append(EncodeBoU32s([]uint32{1, 2}), 0xff, 0xff)
	got := DecodeBoU32s(data)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("expected [1 2], got %v", got)
	}
}

func TestEncodeCboU32MatchesFlatLayout(t *testing.T) {
	single := EncodeCboU32(99)
	flat := EncodeBoU32s([]uint32{99})
	if len(single) != 4 || single[0] != flat[0] {
		t.Errorf("single-id encoding diverges from flat layout: %v vs %v", single, flat)
	}
	b, err := DecodeCboBitmap(single)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !b.Equals(roaring.BitmapOf(99)) {
		t.Errorf("expected {99}, got %v", b)
	}
}
