// Package ingestion defines the event shapes exchanged over Kafka between
// document producers and the indexer.
package ingestion

import "time"

// IngestEvent is one document submitted for indexing. Fields maps
// attribute names to their text; Facets maps attribute names to a number
// or a string.
type IngestEvent struct {
	DocumentID string            `json:"document_id"`
	Fields     map[string]string `json:"fields"`
	Facets     map[string]any    `json:"facets,omitempty"`
}

// IndexedEvent is published after a document's batch has committed.
type IndexedEvent struct {
	DocumentID string    `json:"document_id"`
	IndexedAt  time.Time `json:"indexed_at"`
}
