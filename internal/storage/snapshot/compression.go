package snapshot

import (
	"fmt"
	"io"
	"sync"

	"github.com/pierrec/lz4"
)

// Compressor wraps snapshot bodies in a compressed stream.
type Compressor interface {
	// Name returns the name of the compression algorithm.
	Name() string
	// ID is the byte recorded in the snapshot header.
	ID() byte
	NewWriter(w io.Writer) io.WriteCloser
	NewReader(r io.Reader) io.Reader
}

var (
	mu          sync.RWMutex
	compressors = make(map[string]Compressor)
	byID        = make(map[byte]Compressor)
)

// Register makes c available by name and header id.
func Register(c Compressor) {
	mu.Lock()
	defer mu.Unlock()
	compressors[c.Name()] = c
	byID[c.ID()] = c
}

// Get returns the compressor registered as name.
func Get(name string) (Compressor, error) {
	mu.RLock()
	c, ok := compressors[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown compressor: %s", name)
	}
	return c, nil
}

func lookupID(id byte) (Compressor, error) {
	mu.RLock()
	c, ok := byID[id]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: compressor id %d", ErrBadSnapshot, id)
	}
	return c, nil
}

func init() {
	Register(NoCompressor{})
	Register(LZ4Compressor{})
}

// NoCompressor passes data through.
type NoCompressor struct{}

func (NoCompressor) Name() string { return "none" }
func (NoCompressor) ID() byte     { return 0 }

func (NoCompressor) NewWriter(w io.Writer) io.WriteCloser { return nopCloser{w} }
func (NoCompressor) NewReader(r io.Reader) io.Reader      { return r }

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// LZ4Compressor uses the lz4 frame format.
type LZ4Compressor struct{}

func (LZ4Compressor) Name() string { return "lz4" }
func (LZ4Compressor) ID() byte     { return 1 }

func (LZ4Compressor) NewWriter(w io.Writer) io.WriteCloser {
	zw := lz4.NewWriter(w)
	zw.Header = lz4.Header{BlockChecksum: true}
	return zw
}

func (LZ4Compressor) NewReader(r io.Reader) io.Reader { return lz4.NewReader(r) }
