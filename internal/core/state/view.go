// Package state holds the world state the host executes against: a View
// abstraction, tracked overlay tables that give transactions and sub-calls
// all-or-nothing semantics, and the base stores underneath them.
package state

import (
	"errors"

	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
)

var (
	// ErrEntryExists is returned when inserting over a live entry.
	ErrEntryExists = errors.New("entry already exists")
	// ErrEntryNotFound is returned when updating or erasing a missing entry.
	ErrEntryNotFound = errors.New("entry not found")
)

// View provides access to state entries. Read returns (nil, nil) for a
// missing entry.
type View interface {
	Read(k keylet.Keylet) ([]byte, error)
	Exists(k keylet.Keylet) (bool, error)
	Insert(k keylet.Keylet, data []byte) error
	Update(k keylet.Keylet, data []byte) error
	Erase(k keylet.Keylet) error

	// ForEach visits every live entry. Returning false stops the walk.
	ForEach(fn func(key [32]byte, data []byte) bool) error
}

// BatchWriter is implemented by base views that can commit a whole change
// set atomically.
type BatchWriter interface {
	WriteBatch(changes []Change) error
}

// Put inserts or updates k.
func Put(v View, k keylet.Keylet, data []byte) error {
	exists, err := v.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return v.Update(k, data)
	}
	return v.Insert(k, data)
}

// Delete erases k if it is present.
func Delete(v View, k keylet.Keylet) error {
	exists, err := v.Exists(k)
	if err != nil || !exists {
		return err
	}
	return v.Erase(k)
}
