package sorter

import (
	"bytes"
	"container/heap"
)

// mergeSource is one ascending, duplicate-free input to the k-way merge:
// either a spill chunk on disk or the final in-memory buffer.
type mergeSource interface {
	key() []byte
	value() []byte
	// advance loads the next record, reporting false at end of input.
	advance() (bool, error)
	close() error
}

type memSource struct {
	entries []entry
	pos     int
}

func (m *memSource) key() []byte   { return m.entries[m.pos].key }
func (m *memSource) value() []byte { return m.entries[m.pos].value }

func (m *memSource) advance() (bool, error) {
	m.pos++
	return m.pos < len(m.entries), nil
}

func (m *memSource) close() error { return nil }

type fileSource struct {
	r        *chunkReader
	curKey   []byte
	curValue []byte
}

func (f *fileSource) key() []byte   { return f.curKey }
func (f *fileSource) value() []byte { return f.curValue }

func (f *fileSource) advance() (bool, error) {
	key, value, ok, err := f.r.next()
	if err != nil || !ok {
		return false, err
	}
	f.curKey, f.curValue = key, value
	return true, nil
}

func (f *fileSource) close() error { return f.r.close() }

// mergeChunks k-way merges the given chunk files plus an optional
// already-combined in-memory tail, combining equal keys across sources with
// the sorter's merge strategy. Sources are ordered oldest chunk first and
// the memory buffer last, so order-sensitive strategies see values in
// accumulation order.
func (s *Sorter) mergeChunks(chunks []string, tail []entry, emit func(key, value []byte) error) error {
	sources := make([]mergeSource, 0, len(chunks)+1)
	defer func() {
		for _, src := range sources {
			src.close()
		}
	}()
	for _, path := range chunks {
		r, err := openChunk(path, s.opts.Compression)
		if err != nil {
			return err
		}
		sources = append(sources, &fileSource{r: r})
	}
	if len(tail) > 0 {
		sources = append(sources, &memSource{entries: tail, pos: -1})
	}

	h := &sourceHeap{}
	for ord, src := range sources {
		ok, err := src.advance()
		if err != nil {
			return err
		}
		if ok {
			h.items = append(h.items, sourceItem{src: src, ord: ord})
		}
	}
	heap.Init(h)

	var values [][]byte
	for h.Len() > 0 {
		top := h.items[0]
		key := top.src.key()
		values = append(values[:0], top.src.value())
		if err := advanceTop(h); err != nil {
			return err
		}
		// Pull every other source holding the same key; the ord tie-break
		// keeps values in accumulation order.
		for h.Len() > 0 && bytes.Equal(h.items[0].src.key(), key) {
			values = append(values, h.items[0].src.value())
			if err := advanceTop(h); err != nil {
				return err
			}
		}

		merged := values[0]
		if len(values) > 1 {
			var err error
			merged, err = s.merger.Merge(key, values)
			if err != nil {
				return err
			}
		}
		if err := emit(key, merged); err != nil {
			return err
		}
	}
	return nil
}

// advanceTop moves the heap's minimum source forward, dropping it once
// exhausted.
func advanceTop(h *sourceHeap) error {
	ok, err := h.items[0].src.advance()
	if err != nil {
		return err
	}
	if ok {
		heap.Fix(h, 0)
	} else {
		heap.Pop(h)
	}
	return nil
}

type sourceItem struct {
	src mergeSource
	ord int
}

type sourceHeap struct {
	items []sourceItem
}

func (h *sourceHeap) Len() int { return len(h.items) }

func (h *sourceHeap) Less(i, j int) bool {
	if c := bytes.Compare(h.items[i].src.key(), h.items[j].src.key()); c != 0 {
		return c < 0
	}
	return h.items[i].ord < h.items[j].ord
}

func (h *sourceHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *sourceHeap) Push(x interface{}) {
	h.items = append(h.items, x.(sourceItem))
}

func (h *sourceHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}
