// Package store persists the postings tables in a bolt database, one
// sorted bucket per table. A whole indexing batch is loaded inside a single
// write transaction: it commits atomically or not at all, so no partial
// table is ever visible. Colliding keys — across extraction workers or
// across batches — are combined with the table's merge strategy, never
// overwritten.
package store

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"github.com/RoaringBitmap/roaring"
	"github.com/boltdb/bolt"

	"github.com/meilisearch/milli-sub001/internal/indexer/sorter"
	"github.com/meilisearch/milli-sub001/internal/indexer/tables"
	apperrors "github.com/meilisearch/milli-sub001/pkg/errors"
	"github.com/meilisearch/milli-sub001/pkg/logger"
)

const (
	metaBucket        = "meta"
	externalIDsBucket = "external-docids"
	documentIDsKey    = "documents-ids"
)

// Store wraps the bolt database holding every postings table plus the
// document-id bookkeeping.
type Store struct {
	db     *bolt.DB
	logger *slog.Logger
}

// Open creates or opens the database at path and ensures every bucket
// exists.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening index store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range tables.All {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		for _, name := range []string{metaBucket, externalIDsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{
		db:     db,
		logger: logger.WithComponent("store"),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DocumentIDs returns a snapshot of the bitmap of currently assigned
// document ids. The caller owns the copy.
func (s *Store) DocumentIDs() (*roaring.Bitmap, error) {
	ids := roaring.New()
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(metaBucket)).Get([]byte(documentIDsKey))
		if data == nil {
			return nil
		}
		if err := ids.UnmarshalBinary(data); err != nil {
			return fmt.Errorf("%w: documents-ids bitmap: %v", apperrors.ErrCorruptEntry, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// LookupExternals resolves the given external document ids to their
// internal ids in one read transaction; unknown ids are absent from the
// result.
func (s *Store) LookupExternals(externalIDs []string) (map[string]uint32, error) {
	found := make(map[string]uint32, len(externalIDs))
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(externalIDsBucket))
		for _, ext := range externalIDs {
			if data := bkt.Get([]byte(ext)); len(data) >= 4 {
				found[ext] = binary.BigEndian.Uint32(data)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Get returns a copy of the value stored under key in the given table, or
// nil when absent.
func (s *Store) Get(table string, key []byte) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket([]byte(table)).Get(key); data != nil {
			value = append([]byte(nil), data...)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.ForTable(table, err)
	}
	return value, nil
}

// ForEach visits every entry of a table in ascending key order.
func (s *Store) ForEach(table string, fn func(key, value []byte) error) error {
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(table)).ForEach(fn)
	})
	return apperrors.ForTable(table, err)
}

// Batch is one atomic bulk load. It exists only inside Update.
type Batch struct {
	tx *bolt.Tx
}

// Update runs fn inside a single write transaction.
func (s *Store) Update(fn func(b *Batch) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&Batch{tx: tx})
	})
}

// MergePut inserts one drained entry into a table. If the key already holds
// a value (written by an earlier worker or an earlier batch), the two are
// combined with the table's merge strategy — postings are
// write-once-merge-always.
func (b *Batch) MergePut(table string, merger sorter.Merger, key, value []byte) error {
	bkt := b.tx.Bucket([]byte(table))
	if existing := bkt.Get(key); existing != nil {
		merged, err := merger.Merge(key, [][]byte{existing, value})
		if err != nil {
			return apperrors.ForTable(table, err)
		}
		value = merged
	}
	// bolt requires key and value to stay valid for the transaction.
	k := append([]byte(nil), key...)
	v := append([]byte(nil), value...)
	if err := bkt.Put(k, v); err != nil {
		return apperrors.ForTable(table, err)
	}
	return nil
}

// PutDocumentIDs persists the updated assigned-ids bitmap.
func (b *Batch) PutDocumentIDs(ids *roaring.Bitmap) error {
	data, err := ids.ToBytes()
	if err != nil {
		return fmt.Errorf("encoding documents-ids bitmap: %w", err)
	}
	return b.tx.Bucket([]byte(metaBucket)).Put([]byte(documentIDsKey), data)
}

// PutExternalDocid records the external→internal id mapping.
func (b *Batch) PutExternalDocid(externalID string, docid uint32) error {
	value := binary.BigEndian.AppendUint32(nil, docid)
	return b.tx.Bucket([]byte(externalIDsBucket)).Put([]byte(externalID), value)
}
