// Package consumer connects the Kafka ingest topic to the indexing engine:
// it decodes ingest events, maps attribute names onto field ids, and
// accumulates documents into batches.
package consumer

import (
	"github.com/meilisearch/milli-sub001/internal/indexer"
	"github.com/meilisearch/milli-sub001/internal/indexer/extract"
	"github.com/meilisearch/milli-sub001/internal/indexer/tokenizer"
	"github.com/meilisearch/milli-sub001/internal/ingestion"
	"github.com/meilisearch/milli-sub001/pkg/config"
)

// Schema is the configured attribute list. An attribute's index in the
// config is its field id, so ids stay stable as long as the list order
// does.
type Schema struct {
	names       []string
	ids         map[string]uint16
	exact       map[uint16]struct{}
	facetNumber map[string]struct{}
	facetString map[string]struct{}
}

// NewSchema builds the schema from the indexer configuration.
func NewSchema(cfg config.IndexerConfig) *Schema {
	s := &Schema{
		names:       cfg.Fields,
		ids:         make(map[string]uint16, len(cfg.Fields)),
		exact:       make(map[uint16]struct{}),
		facetNumber: make(map[string]struct{}),
		facetString: make(map[string]struct{}),
	}
	for i, name := range cfg.Fields {
		s.ids[name] = uint16(i)
	}
	for _, name := range cfg.ExactFields {
		if id, ok := s.ids[name]; ok {
			s.exact[id] = struct{}{}
		}
	}
	for _, name := range cfg.FacetNumberFields {
		s.facetNumber[name] = struct{}{}
	}
	for _, name := range cfg.FacetStringFields {
		s.facetString[name] = struct{}{}
	}
	return s
}

// Context returns the extraction context derived from the schema.
func (s *Schema) Context() extract.Context {
	return extract.Context{ExactAttributes: s.exact}
}

// BuildDocument tokenizes an ingest event into an indexable document.
// Attributes absent from the schema are ignored; facet values of the wrong
// type are dropped.
func (s *Schema) BuildDocument(ev ingestion.IngestEvent) indexer.Document {
	fields := make([]extract.Field, 0, len(s.names))
	for _, name := range s.names {
		id := s.ids[name]
		field := extract.Field{ID: id}
		text, hasText := ev.Fields[name]
		if hasText {
			// Empty text keeps a non-nil slice so the field still lands in
			// the zero word-count bucket downstream.
			field.Tokens = tokenizer.Tokenize(text)
		}
		if raw, ok := ev.Facets[name]; ok {
			// JSON numbers decode as float64.
			switch v := raw.(type) {
			case float64:
				if _, ok := s.facetNumber[name]; ok {
					field.FacetNumbers = append(field.FacetNumbers, v)
				}
			case string:
				if _, ok := s.facetString[name]; ok {
					field.FacetStrings = append(field.FacetStrings, v)
				}
			}
		}
		if hasText || len(field.FacetNumbers) > 0 || len(field.FacetStrings) > 0 {
			fields = append(fields, field)
		}
	}
	return indexer.Document{ExternalID: ev.DocumentID, Fields: fields}
}
