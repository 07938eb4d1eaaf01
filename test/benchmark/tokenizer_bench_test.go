package benchmark

import (
	"strings"
	"testing"

	"github.com/meilisearch/milli-sub001/internal/indexer/tokenizer"
)

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog",
	"medium": `Inverted indexes map each term to the documents containing it,
        along with positional information for phrase queries. Postings are
        stored as compressed bitmaps and merged during bulk loads so that a
        rebuilt batch never overwrites data written by an earlier one.`,
	"long": strings.Repeat(`Bounded external sorting keeps memory use flat while
        indexing arbitrarily large batches. Entries accumulate up to a byte
        budget, spill to sorted chunks on disk, and drain as one merged
        ascending stream into the persistent store. `, 20),
}

func BenchmarkTokenize(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				tokens := tokenizer.Tokenize(text)
				_ = tokens
			}
		})
	}
}

func BenchmarkTokenizeParallel(b *testing.B) {
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			tokens := tokenizer.Tokenize(text)
			_ = tokens
		}
	})
}
