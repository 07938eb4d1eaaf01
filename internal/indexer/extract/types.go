// Package extract turns one document's tokenized field data into rows of
// the postings tables, writing through per-table bounded sorters. Extractor
// state is fully reset between documents; nothing leaks across document
// boundaries except through the sorters.
package extract

// Token is one word occurrence: normalized token bytes and the token's
// ordinal position within its field.
type Token struct {
	Word     []byte
	Position uint32
}

// Field carries one attribute's data for one document, already tokenized.
// FacetNumbers and FacetStrings are set only for faceted attributes.
type Field struct {
	ID           uint16
	Tokens       []Token
	FacetNumbers []float64
	FacetStrings []string
}

// Document is the unit the pipeline consumes: a minted document id plus its
// field data. Upstream decoding and tokenization are not this package's
// concern.
type Document struct {
	ID     uint32
	Fields []Field
}

// Context holds the schema knowledge extraction needs.
type Context struct {
	// ExactAttributes flags the fields whose words go to the exact-word
	// table instead of the normal word table.
	ExactAttributes map[uint16]struct{}
}

// IsExact reports whether the field is an exact-match attribute.
func (c Context) IsExact(fieldID uint16) bool {
	_, ok := c.ExactAttributes[fieldID]
	return ok
}
