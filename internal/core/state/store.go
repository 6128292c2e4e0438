package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
	"github.com/LeJamon/goNFTMarket/internal/storage/database"
	"github.com/LeJamon/goNFTMarket/internal/storage/database/leveldb"
	"github.com/LeJamon/goNFTMarket/internal/storage/database/pebble"
)

// Backend names accepted by OpenStore.
const (
	BackendMemory  = "memory"
	BackendPebble  = "pebble"
	BackendLevelDB = "leveldb"
)

// Store is a View over a persistent key-value backend.
type Store struct {
	db  database.DB
	ctx context.Context
}

// NewStore wraps db. ctx bounds every backend call.
func NewStore(ctx context.Context, db database.DB) *Store {
	return &Store{db: db, ctx: ctx}
}

// OpenBase opens the base view named by backend. Memory ignores path.
func OpenBase(ctx context.Context, backend, path string) (View, func() error, error) {
	var (
		db  database.DB
		err error
	)
	switch backend {
	case "", BackendMemory:
		return NewMemory(), func() error { return nil }, nil
	case BackendPebble:
		db, err = pebble.Open(path)
	case BackendLevelDB:
		db, err = leveldb.Open(path)
	default:
		return nil, nil, fmt.Errorf("%w: %s", database.ErrUnknownBackend, backend)
	}
	if err != nil {
		return nil, nil, err
	}
	return NewStore(ctx, db), db.Close, nil
}

func (s *Store) Read(k keylet.Keylet) ([]byte, error) {
	data, err := s.db.Read(s.ctx, k.Key[:])
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, nil
	}
	return data, err
}

func (s *Store) Exists(k keylet.Keylet) (bool, error) {
	data, err := s.Read(k)
	return data != nil, err
}

func (s *Store) Insert(k keylet.Keylet, data []byte) error {
	exists, err := s.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return ErrEntryExists
	}
	return s.db.Write(s.ctx, k.Key[:], data)
}

func (s *Store) Update(k keylet.Keylet, data []byte) error {
	exists, err := s.Exists(k)
	if err != nil {
		return err
	}
	if !exists {
		return ErrEntryNotFound
	}
	return s.db.Write(s.ctx, k.Key[:], data)
}

func (s *Store) Erase(k keylet.Keylet) error {
	exists, err := s.Exists(k)
	if err != nil {
		return err
	}
	if !exists {
		return ErrEntryNotFound
	}
	return s.db.Delete(s.ctx, k.Key[:])
}

func (s *Store) ForEach(fn func(key [32]byte, data []byte) bool) error {
	it, err := s.db.Iterator(s.ctx, nil, nil)
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		raw := it.Key()
		if len(raw) != 32 {
			continue
		}
		var key [32]byte
		copy(key[:], raw)
		if !fn(key, it.Value()) {
			break
		}
	}
	return it.Error()
}

// WriteBatch commits changes in one backend batch.
func (s *Store) WriteBatch(changes []Change) error {
	ops := make([]database.BatchOperation, 0, len(changes))
	for _, c := range changes {
		key := c.Keylet.Key
		if c.Action == ActionErase {
			ops = append(ops, database.BatchOperation{Type: database.BatchDelete, Key: key[:]})
			continue
		}
		ops = append(ops, database.BatchOperation{Type: database.BatchPut, Key: key[:], Value: c.Data})
	}
	return s.db.Batch(s.ctx, ops)
}
