// Package sorter implements the bounded external sorter behind every
// postings table: entries accumulate in memory up to a byte budget, spill
// to sorted merge-combined chunks on disk, and drain as a single ascending,
// duplicate-free key/value stream.
package sorter

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"sort"

	apperrors "github.com/meilisearch/milli-sub001/pkg/errors"
	"github.com/meilisearch/milli-sub001/pkg/logger"
)

// per-entry bookkeeping overhead added to the raw key/value bytes when
// tracking memory use.
const entryOverhead = 16

// Options configures one Sorter. The zero value gets a 64 MiB budget, no
// compression, and no chunk-count cap.
type Options struct {
	// Name of the postings table, used in logs and error context.
	Name string
	// MaxMemory is the in-memory accumulation budget in bytes.
	MaxMemory int64
	// MaxChunks caps the fan-in of the final merge; once reached, existing
	// chunks are compacted into one before accepting more spills.
	MaxChunks int
	// Stable keeps the insertion order of equal keys within a spill, which
	// order-sensitive merge strategies (ConcatU32) require.
	Stable           bool
	Compression      Compression
	CompressionLevel int
	// TempDir is where spill chunks are created; empty means os.TempDir.
	TempDir string
}

type entry struct {
	key   []byte
	value []byte
}

// Stats reports what a sorter did over its lifetime.
type Stats struct {
	Inserts      int64
	Spills       int64
	SpilledBytes int64
}

// Sorter accumulates (key, value) insertions and produces a merged sorted
// stream exactly once. It is owned by a single extraction flow and is not
// safe for concurrent use.
type Sorter struct {
	merger  Merger
	opts    Options
	entries []entry
	memUsed int64
	chunks  []string
	stats   Stats
	drained bool
	logger  *slog.Logger
}

// New creates a Sorter that combines colliding keys with the given strategy.
func New(merger Merger, opts Options) *Sorter {
	if opts.MaxMemory <= 0 {
		opts.MaxMemory = 64 << 20
	}
	return &Sorter{
		merger: merger,
		opts:   opts,
		logger: logger.WithComponent("sorter").With("table", opts.Name),
	}
}

// Insert appends one entry. The key and value are copied; colliding keys
// are combined later, never overwritten. Crossing the memory budget
// triggers a spill to disk.
func (s *Sorter) Insert(key, value []byte) error {
	if s.drained {
		return apperrors.ForTable(s.opts.Name, apperrors.ErrSorterDrained)
	}
	s.entries = append(s.entries, entry{
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	})
	s.stats.Inserts++
	s.memUsed += int64(len(key)+len(value)) + entryOverhead
	if s.memUsed >= s.opts.MaxMemory {
		return s.spill()
	}
	return nil
}

// sortAndCombine sorts the in-memory buffer and merges runs of equal keys
// left to right in accumulation order. The buffer is left untouched.
func (s *Sorter) sortAndCombine() ([]entry, error) {
	less := func(i, j int) bool {
		return bytes.Compare(s.entries[i].key, s.entries[j].key) < 0
	}
	if s.opts.Stable {
		sort.SliceStable(s.entries, less)
	} else {
		sort.Slice(s.entries, less)
	}

	combined := make([]entry, 0, len(s.entries))
	for i := 0; i < len(s.entries); {
		j := i + 1
		for j < len(s.entries) && bytes.Equal(s.entries[j].key, s.entries[i].key) {
			j++
		}
		if j == i+1 {
			combined = append(combined, s.entries[i])
		} else {
			values := make([][]byte, 0, j-i)
			for k := i; k < j; k++ {
				values = append(values, s.entries[k].value)
			}
			merged, err := s.merger.Merge(s.entries[i].key, values)
			if err != nil {
				return nil, apperrors.ForTable(s.opts.Name, err)
			}
			combined = append(combined, entry{key: s.entries[i].key, value: merged})
		}
		i = j
	}
	return combined, nil
}

// spill writes the sorted, combined in-memory buffer to a new temporary
// chunk and resets the buffer. I/O failures are fatal to the batch.
func (s *Sorter) spill() error {
	if len(s.entries) == 0 {
		return nil
	}
	combined, err := s.sortAndCombine()
	if err != nil {
		return err
	}
	path, written, err := s.writeChunk(combined)
	if err != nil {
		return apperrors.ForTable(s.opts.Name, err)
	}
	s.chunks = append(s.chunks, path)
	s.stats.Spills++
	s.stats.SpilledBytes += written
	s.logger.Debug("spilled chunk",
		"entries", len(combined),
		"bytes_in_memory", s.memUsed,
		"chunks", len(s.chunks),
	)
	s.entries = s.entries[:0]
	s.memUsed = 0

	if s.opts.MaxChunks > 0 && len(s.chunks) >= s.opts.MaxChunks {
		return s.compactChunks()
	}
	return nil
}

func (s *Sorter) writeChunk(entries []entry) (path string, written int64, err error) {
	f, err := os.CreateTemp(s.opts.TempDir, "sorter-chunk-*.bin")
	if err != nil {
		return "", 0, fmt.Errorf("creating spill chunk: %w", err)
	}
	w, err := newChunkWriter(f, s.opts.Compression, s.opts.CompressionLevel)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", 0, err
	}
	for _, e := range entries {
		if err := w.writeEntry(e.key, e.value); err != nil {
			w.close()
			os.Remove(f.Name())
			return "", 0, err
		}
		written += int64(len(e.key) + len(e.value))
	}
	if err := w.close(); err != nil {
		os.Remove(f.Name())
		return "", 0, err
	}
	return f.Name(), written, nil
}

// compactChunks k-way merges every existing chunk into one, keeping the
// final merge fan-in bounded.
func (s *Sorter) compactChunks() error {
	old := s.chunks
	s.chunks = nil

	f, err := os.CreateTemp(s.opts.TempDir, "sorter-chunk-*.bin")
	if err != nil {
		return apperrors.ForTable(s.opts.Name, fmt.Errorf("creating compacted chunk: %w", err))
	}
	w, err := newChunkWriter(f, s.opts.Compression, s.opts.CompressionLevel)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return apperrors.ForTable(s.opts.Name, err)
	}
	err = s.mergeChunks(old, nil, func(key, value []byte) error {
		return w.writeEntry(key, value)
	})
	if cerr := w.close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return apperrors.ForTable(s.opts.Name, err)
	}
	removeChunks(old)
	s.chunks = []string{f.Name()}
	s.logger.Debug("compacted chunks", "merged", len(old))
	return nil
}

// Drain finalizes the sorter: the in-memory buffer and every spilled chunk
// are k-way merged into a single ascending, duplicate-free stream passed to
// emit. A sorter drains exactly once; chunk files are removed afterwards.
func (s *Sorter) Drain(emit func(key, value []byte) error) error {
	if s.drained {
		return apperrors.ForTable(s.opts.Name, apperrors.ErrSorterDrained)
	}
	s.drained = true
	defer func() {
		removeChunks(s.chunks)
		s.chunks = nil
		s.entries = nil
	}()

	combined, err := s.sortAndCombine()
	if err != nil {
		return err
	}
	if err := s.mergeChunks(s.chunks, combined, emit); err != nil {
		return apperrors.ForTable(s.opts.Name, err)
	}
	return nil
}

// Stats returns insertion and spill counters for metrics.
func (s *Sorter) Stats() Stats {
	return s.stats
}

func removeChunks(paths []string) {
	for _, p := range paths {
		os.Remove(p)
	}
}
