// Package tables names the postings tables produced by the indexing
// pipeline. Each name doubles as the bolt bucket the table is bulk-loaded
// into.
package tables

const (
	WordDocids              = "word-docids"
	ExactWordDocids         = "exact-word-docids"
	WordPositionDocids      = "word-position-docids"
	WordPairProximityDocids = "word-pair-proximity-docids"
	DocidWordPositions      = "docid-word-positions"
	FidWordCountDocids      = "fid-word-count-docids"
	FacetNumberDocids       = "facet-number-docids"
	FacetStringDocids       = "facet-string-docids"
)

// All lists every persisted table in bulk-load order.
var All = []string{
	WordDocids,
	ExactWordDocids,
	WordPositionDocids,
	WordPairProximityDocids,
	DocidWordPositions,
	FidWordCountDocids,
	FacetNumberDocids,
	FacetStringDocids,
}
