// Package snapshot exports and imports the full world state as a single
// compressed stream.
//
// Layout: 8-byte magic, version byte, compressor id, then the compressed
// body. The body is a sequence of records: tag 1 followed by a 32-byte key,
// a uvarint length and the data; tag 0 followed by the uvarint entry count
// ends it.
package snapshot

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
	"github.com/LeJamon/goNFTMarket/internal/core/state"
)

const version = 1

var magic = [8]byte{'N', 'F', 'T', 'M', 'S', 'N', 'A', 'P'}

const (
	tagEnd   byte = 0
	tagEntry byte = 1

	maxEntrySize = 16 << 20
)

var ErrBadSnapshot = errors.New("malformed snapshot")

// Stats summarises an export or import.
type Stats struct {
	Entries int
	Bytes   int64
}

// Export writes every entry of view to w using the named compressor.
func Export(w io.Writer, view state.View, compression string) (Stats, error) {
	var stats Stats
	comp, err := Get(compression)
	if err != nil {
		return stats, err
	}

	header := append(magic[:], version, comp.ID())
	if _, err := w.Write(header); err != nil {
		return stats, fmt.Errorf("write header: %w", err)
	}

	zw := comp.NewWriter(w)
	bw := bufio.NewWriter(zw)
	var (
		lenBuf   [binary.MaxVarintLen64]byte
		writeErr error
	)
	err = view.ForEach(func(key [32]byte, data []byte) bool {
		n := binary.PutUvarint(lenBuf[:], uint64(len(data)))
		for _, chunk := range [][]byte{{tagEntry}, key[:], lenBuf[:n], data} {
			if _, writeErr = bw.Write(chunk); writeErr != nil {
				return false
			}
		}
		stats.Entries++
		stats.Bytes += int64(len(data))
		return true
	})
	if err == nil {
		err = writeErr
	}
	if err != nil {
		return stats, fmt.Errorf("write entries: %w", err)
	}

	n := binary.PutUvarint(lenBuf[:], uint64(stats.Entries))
	if err := bw.WriteByte(tagEnd); err != nil {
		return stats, err
	}
	if _, err := bw.Write(lenBuf[:n]); err != nil {
		return stats, err
	}
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("flush: %w", err)
	}
	if err := zw.Close(); err != nil {
		return stats, fmt.Errorf("close compressor: %w", err)
	}
	return stats, nil
}

// Import reads a snapshot from r and inserts every entry into view.
// Entries already present in view fail the import with state.ErrEntryExists.
// Views implementing state.BatchWriter receive the whole set in one batch.
func Import(r io.Reader, view state.View) (Stats, error) {
	var stats Stats

	var header [10]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return stats, fmt.Errorf("%w: header: %v", ErrBadSnapshot, err)
	}
	if [8]byte(header[:8]) != magic {
		return stats, fmt.Errorf("%w: bad magic", ErrBadSnapshot)
	}
	if header[8] != version {
		return stats, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, header[8])
	}
	comp, err := lookupID(header[9])
	if err != nil {
		return stats, err
	}

	br := bufio.NewReader(comp.NewReader(r))
	var changes []state.Change
	for {
		tag, err := br.ReadByte()
		if err != nil {
			return stats, fmt.Errorf("%w: truncated body: %v", ErrBadSnapshot, err)
		}
		if tag == tagEnd {
			count, err := binary.ReadUvarint(br)
			if err != nil {
				return stats, fmt.Errorf("%w: trailer: %v", ErrBadSnapshot, err)
			}
			if count != uint64(len(changes)) {
				return stats, fmt.Errorf("%w: trailer counts %d entries, read %d", ErrBadSnapshot, count, len(changes))
			}
			break
		}
		if tag != tagEntry {
			return stats, fmt.Errorf("%w: unknown tag %d", ErrBadSnapshot, tag)
		}

		var k keylet.Keylet
		if _, err := io.ReadFull(br, k.Key[:]); err != nil {
			return stats, fmt.Errorf("%w: key: %v", ErrBadSnapshot, err)
		}
		size, err := binary.ReadUvarint(br)
		if err != nil || size > maxEntrySize {
			return stats, fmt.Errorf("%w: entry size", ErrBadSnapshot)
		}
		data := make([]byte, size)
		if _, err := io.ReadFull(br, data); err != nil {
			return stats, fmt.Errorf("%w: entry data: %v", ErrBadSnapshot, err)
		}
		changes = append(changes, state.Change{Keylet: k, Action: state.ActionInsert, Data: data})
		stats.Bytes += int64(size)
	}

	if bw, ok := view.(state.BatchWriter); ok {
		for _, c := range changes {
			exists, err := view.Exists(c.Keylet)
			if err != nil {
				return stats, err
			}
			if exists {
				return stats, state.ErrEntryExists
			}
		}
		if err := bw.WriteBatch(changes); err != nil {
			return stats, err
		}
	} else {
		for _, c := range changes {
			if err := view.Insert(c.Keylet, c.Data); err != nil {
				return stats, err
			}
		}
	}
	stats.Entries = len(changes)
	return stats, nil
}
