// Package tokenizer normalises field text into the tokens the extraction
// pipeline consumes. It lower-cases input and splits on non-alphanumeric
// boundaries; every kept word carries its position in the field.
package tokenizer

import (
	"strings"
	"unicode"

	"github.com/meilisearch/milli-sub001/internal/indexer/extract"
)

// maxWordLength caps a token's byte length; longer words would blow up
// postings keys and are overwhelmingly garbage input.
const maxWordLength = 250

// Tokenize breaks text into lowercased tokens with field positions.
// Positions count kept tokens, starting at zero.
func Tokenize(text string) []extract.Token {
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]extract.Token, 0, len(words))
	var pos uint32
	for _, word := range words {
		if len(word) > maxWordLength {
			continue
		}
		tokens = append(tokens, extract.Token{
			Word:     []byte(word),
			Position: pos,
		})
		pos++
	}
	return tokens
}
