package state

import (
	"bytes"
	"sort"
	"sync"

	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
)

// Memory is a map-backed base view.
type Memory struct {
	mu      sync.RWMutex
	entries map[[32]byte][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[[32]byte][]byte)}
}

func (m *Memory) Read(k keylet.Keylet) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[k.Key], nil
}

func (m *Memory) Exists(k keylet.Keylet) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[k.Key]
	return ok, nil
}

func (m *Memory) Insert(k keylet.Keylet, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[k.Key]; ok {
		return ErrEntryExists
	}
	m.entries[k.Key] = data
	return nil
}

func (m *Memory) Update(k keylet.Keylet, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[k.Key]; !ok {
		return ErrEntryNotFound
	}
	m.entries[k.Key] = data
	return nil
}

func (m *Memory) Erase(k keylet.Keylet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[k.Key]; !ok {
		return ErrEntryNotFound
	}
	delete(m.entries, k.Key)
	return nil
}

// ForEach visits entries in ascending key order.
func (m *Memory) ForEach(fn func(key [32]byte, data []byte) bool) error {
	m.mu.RLock()
	keys := make([][32]byte, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	m.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	for _, key := range keys {
		m.mu.RLock()
		data, ok := m.entries[key]
		m.mu.RUnlock()
		if !ok {
			continue
		}
		if !fn(key, data) {
			return nil
		}
	}
	return nil
}

// WriteBatch applies changes under a single lock.
func (m *Memory) WriteBatch(changes []Change) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range changes {
		switch c.Action {
		case ActionInsert:
			if _, ok := m.entries[c.Keylet.Key]; ok {
				return ErrEntryExists
			}
			m.entries[c.Keylet.Key] = c.Data
		case ActionModify:
			if _, ok := m.entries[c.Keylet.Key]; !ok {
				return ErrEntryNotFound
			}
			m.entries[c.Keylet.Key] = c.Data
		case ActionErase:
			if _, ok := m.entries[c.Keylet.Key]; !ok {
				return ErrEntryNotFound
			}
			delete(m.entries, c.Keylet.Key)
		}
	}
	return nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
