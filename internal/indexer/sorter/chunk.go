package sorter

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// Compression selects how spill chunks are encoded on disk.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
)

// ParseCompression maps a config string to a Compression.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return CompressionNone, fmt.Errorf("unknown chunk compression %q", name)
	}
}

// chunkWriter frames (key, value) records with uvarint length prefixes,
// optionally behind a zstd stream. Records are written in ascending key
// order, already merge-combined.
type chunkWriter struct {
	f   *os.File
	bw  *bufio.Writer
	zw  *zstd.Encoder
	out io.Writer
	len [binary.MaxVarintLen64]byte
}

func newChunkWriter(f *os.File, compression Compression, level int) (*chunkWriter, error) {
	w := &chunkWriter{f: f}
	switch compression {
	case CompressionZstd:
		opts := []zstd.EOption{}
		if level > 0 {
			opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		}
		zw, err := zstd.NewWriter(f, opts...)
		if err != nil {
			return nil, fmt.Errorf("creating zstd chunk writer: %w", err)
		}
		w.zw = zw
		w.out = zw
	default:
		w.bw = bufio.NewWriter(f)
		w.out = w.bw
	}
	return w, nil
}

func (w *chunkWriter) writeEntry(key, value []byte) error {
	for _, part := range [2][]byte{key, value} {
		n := binary.PutUvarint(w.len[:], uint64(len(part)))
		if _, err := w.out.Write(w.len[:n]); err != nil {
			return fmt.Errorf("writing chunk record: %w", err)
		}
		if _, err := w.out.Write(part); err != nil {
			return fmt.Errorf("writing chunk record: %w", err)
		}
	}
	return nil
}

func (w *chunkWriter) close() error {
	if w.zw != nil {
		if err := w.zw.Close(); err != nil {
			return fmt.Errorf("closing zstd chunk writer: %w", err)
		}
	}
	if w.bw != nil {
		if err := w.bw.Flush(); err != nil {
			return fmt.Errorf("flushing chunk writer: %w", err)
		}
	}
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("closing chunk file: %w", err)
	}
	return nil
}

// chunkReader streams the records of one spill chunk back in order.
type chunkReader struct {
	f  *os.File
	zr *zstd.Decoder
	br *bufio.Reader
}

func openChunk(path string, compression Compression) (*chunkReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chunk file: %w", err)
	}
	r := &chunkReader{f: f}
	switch compression {
	case CompressionZstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening zstd chunk reader: %w", err)
		}
		r.zr = zr
		r.br = bufio.NewReader(zr)
	default:
		r.br = bufio.NewReader(f)
	}
	return r, nil
}

// next returns the following record, or ok=false at a clean end of chunk.
// The returned slices are freshly allocated and safe to retain.
func (r *chunkReader) next() (key, value []byte, ok bool, err error) {
	keyLen, err := binary.ReadUvarint(r.br)
	if err == io.EOF {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, fmt.Errorf("reading chunk record: %w", err)
	}
	key = make([]byte, keyLen)
	if _, err := io.ReadFull(r.br, key); err != nil {
		return nil, nil, false, fmt.Errorf("reading chunk record: %w", err)
	}
	valueLen, err := binary.ReadUvarint(r.br)
	if err != nil {
		return nil, nil, false, fmt.Errorf("reading chunk record: %w", err)
	}
	value = make([]byte, valueLen)
	if _, err := io.ReadFull(r.br, value); err != nil {
		return nil, nil, false, fmt.Errorf("reading chunk record: %w", err)
	}
	return key, value, true, nil
}

func (r *chunkReader) close() error {
	if r.zr != nil {
		r.zr.Close()
	}
	return r.f.Close()
}
