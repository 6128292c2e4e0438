package state

import (
	"fmt"
	"math/big"

	"github.com/ugorji/go/codec"

	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
)

var cborHandle = func() *codec.CborHandle {
	h := &codec.CborHandle{}
	h.Canonical = true
	return h
}()

// Marshal encodes a state record as canonical CBOR.
func Marshal(v interface{}) ([]byte, error) {
	var out []byte
	if err := codec.NewEncoderBytes(&out, cborHandle).Encode(v); err != nil {
		return nil, fmt.Errorf("encode state record: %w", err)
	}
	return out, nil
}

// Unmarshal decodes a state record produced by Marshal.
func Unmarshal(data []byte, v interface{}) error {
	if err := codec.NewDecoderBytes(data, cborHandle).Decode(v); err != nil {
		return fmt.Errorf("decode state record: %w", err)
	}
	return nil
}

// ReadRecord loads and decodes k into v. It reports whether the entry exists.
func ReadRecord(view View, k keylet.Keylet, v interface{}) (bool, error) {
	data, err := view.Read(k)
	if err != nil || data == nil {
		return false, err
	}
	return true, Unmarshal(data, v)
}

// WriteRecord encodes v and stores it under k.
func WriteRecord(view View, k keylet.Keylet, v interface{}) error {
	data, err := Marshal(v)
	if err != nil {
		return err
	}
	return Put(view, k, data)
}

// BigBytes returns the big-endian magnitude of n, nil for zero or nil.
func BigBytes(n *big.Int) []byte {
	if n == nil || n.Sign() == 0 {
		return nil
	}
	return n.Bytes()
}

// Big parses a magnitude produced by BigBytes.
func Big(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

// ReadBig loads an amount stored under k, zero when absent.
func ReadBig(view View, k keylet.Keylet) (*big.Int, error) {
	data, err := view.Read(k)
	if err != nil {
		return nil, err
	}
	return Big(data), nil
}

// WriteBig stores n under k. Zero erases the entry.
func WriteBig(view View, k keylet.Keylet, n *big.Int) error {
	if n == nil || n.Sign() == 0 {
		return Delete(view, k)
	}
	if n.Sign() < 0 {
		return fmt.Errorf("negative amount %s", n)
	}
	return Put(view, k, n.Bytes())
}

// ReadFlag reports whether k holds a set flag.
func ReadFlag(view View, k keylet.Keylet) (bool, error) {
	return view.Exists(k)
}

// WriteFlag sets or clears the flag stored under k.
func WriteFlag(view View, k keylet.Keylet, set bool) error {
	if !set {
		return Delete(view, k)
	}
	return Put(view, k, []byte{1})
}

// ReadUint loads a uint64 stored under k, zero when absent.
func ReadUint(view View, k keylet.Keylet) (uint64, error) {
	n, err := ReadBig(view, k)
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// WriteUint stores n under k. Zero erases the entry.
func WriteUint(view View, k keylet.Keylet, n uint64) error {
	return WriteBig(view, k, new(big.Int).SetUint64(n))
}
