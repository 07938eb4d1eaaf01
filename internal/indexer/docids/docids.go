// Package docids hands out internal document ids. Ids freed by deletions
// leave holes in the assigned set; the allocator reuses every hole before
// extending past the current maximum, so the id space stays dense.
package docids

import (
	"math"

	"github.com/RoaringBitmap/roaring"
)

// Available yields unassigned document ids: first the holes below the
// current maximum in ascending order, then fresh ids above it.
type Available struct {
	holes roaring.IntIterable
	next  uint64
}

// FromDocumentIDs builds an allocator from the set of assigned ids.
func FromDocumentIDs(used *roaring.Bitmap) *Available {
	if used.IsEmpty() {
		return &Available{next: 0}
	}
	max := used.Maximum()
	return &Available{
		holes: roaring.Flip(used, 0, uint64(max)).Iterator(),
		next:  uint64(max) + 1,
	}
}

// Next returns the smallest available id. It reports false once the id
// space is exhausted.
func (a *Available) Next() (uint32, bool) {
	if a.holes != nil && a.holes.HasNext() {
		return a.holes.Next(), true
	}
	if a.next > math.MaxUint32 {
		return 0, false
	}
	id := uint32(a.next)
	a.next++
	return id, true
}
