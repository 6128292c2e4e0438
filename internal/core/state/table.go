package state

import (
	"bytes"
	"sort"

	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
)

// Action represents the type of modification to a state entry
type Action int

const (
	// ActionCache means the entry was read but not modified
	ActionCache Action = iota
	// ActionInsert means a new entry was created
	ActionInsert
	// ActionModify means an existing entry was modified
	ActionModify
	// ActionErase means an entry was deleted
	ActionErase
)

func (a Action) String() string {
	switch a {
	case ActionCache:
		return "cache"
	case ActionInsert:
		return "insert"
	case ActionModify:
		return "modify"
	case ActionErase:
		return "erase"
	}
	return "unknown"
}

// TrackedEntry represents a state entry being tracked for changes
type TrackedEntry struct {
	Keylet   keylet.Keylet
	Action   Action
	Original []byte // Original state (nil for inserts)
	Current  []byte // Current state (state before deletion for erases)
}

// Change is one committed modification.
type Change struct {
	Keylet keylet.Keylet
	Action Action
	Data   []byte // nil for erases
}

// ChangeSet summarises what a committed table changed.
type ChangeSet struct {
	Changes []Change
}

// Count returns the number of entries created, modified, or deleted.
func (c *ChangeSet) Count() int {
	if c == nil {
		return 0
	}
	return len(c.Changes)
}

// Table wraps a View and tracks every modification so the whole set can be
// committed into the base with Apply or dropped with Discard.
type Table struct {
	base  View
	items map[[32]byte]*TrackedEntry
}

// NewTable creates a new Table wrapping the given base view
func NewTable(base View) *Table {
	return &Table{
		base:  base,
		items: make(map[[32]byte]*TrackedEntry),
	}
}

// Read reads an entry, tracking it as cached
func (t *Table) Read(k keylet.Keylet) ([]byte, error) {
	if entry, exists := t.items[k.Key]; exists {
		if entry.Action == ActionErase {
			return nil, nil
		}
		return entry.Current, nil
	}

	data, err := t.base.Read(k)
	if err != nil {
		return nil, err
	}

	// Only track entries that exist in the base
	if data != nil {
		t.items[k.Key] = &TrackedEntry{
			Keylet:   k,
			Action:   ActionCache,
			Original: data,
			Current:  data,
		}
	}

	return data, nil
}

// Exists checks if an entry exists
func (t *Table) Exists(k keylet.Keylet) (bool, error) {
	if entry, exists := t.items[k.Key]; exists {
		return entry.Action != ActionErase, nil
	}
	return t.base.Exists(k)
}

// Insert adds a new entry
func (t *Table) Insert(k keylet.Keylet, data []byte) error {
	if entry, exists := t.items[k.Key]; exists {
		if entry.Action != ActionErase {
			return ErrEntryExists
		}
		// Re-inserting a deleted entry becomes a modify
		entry.Action = ActionModify
		entry.Current = data
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return ErrEntryExists
	}

	t.items[k.Key] = &TrackedEntry{
		Keylet:  k,
		Action:  ActionInsert,
		Current: data,
	}
	return nil
}

// Update modifies an existing entry
func (t *Table) Update(k keylet.Keylet, data []byte) error {
	if entry, exists := t.items[k.Key]; exists {
		if entry.Action == ActionErase {
			return ErrEntryNotFound
		}
		if entry.Action == ActionCache {
			entry.Action = ActionModify
		}
		// For insert, keep it as insert with new data
		entry.Current = data
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return ErrEntryNotFound
	}

	t.items[k.Key] = &TrackedEntry{
		Keylet:   k,
		Action:   ActionModify,
		Original: original,
		Current:  data,
	}
	return nil
}

// Erase removes an entry
func (t *Table) Erase(k keylet.Keylet) error {
	if entry, exists := t.items[k.Key]; exists {
		switch entry.Action {
		case ActionErase:
			return ErrEntryNotFound
		case ActionInsert:
			// Inserting then deleting = no change, remove from tracking
			delete(t.items, k.Key)
			return nil
		}
		entry.Action = ActionErase
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return ErrEntryNotFound
	}

	t.items[k.Key] = &TrackedEntry{
		Keylet:   k,
		Action:   ActionErase,
		Original: original,
		Current:  original,
	}
	return nil
}

// ForEach visits the merged view of base entries and tracked changes.
func (t *Table) ForEach(fn func(key [32]byte, data []byte) bool) error {
	stopped := false
	err := t.base.ForEach(func(key [32]byte, data []byte) bool {
		if _, tracked := t.items[key]; tracked {
			return true
		}
		if !fn(key, data) {
			stopped = true
			return false
		}
		return true
	})
	if err != nil || stopped {
		return err
	}

	for _, key := range t.sortedKeys() {
		entry := t.items[key]
		if entry.Action == ActionErase {
			continue
		}
		if !fn(key, entry.Current) {
			return nil
		}
	}
	return nil
}

// Pending returns the number of entries that Apply would write.
func (t *Table) Pending() int {
	n := 0
	for _, entry := range t.items {
		if entry.Action != ActionCache {
			n++
		}
	}
	return n
}

// Apply commits all tracked changes into the base view in ascending key
// order. The table is empty afterwards.
func (t *Table) Apply() (*ChangeSet, error) {
	changes := make([]Change, 0, len(t.items))
	for _, key := range t.sortedKeys() {
		entry := t.items[key]
		switch entry.Action {
		case ActionCache:
			continue
		case ActionErase:
			changes = append(changes, Change{Keylet: entry.Keylet, Action: ActionErase})
		default:
			changes = append(changes, Change{Keylet: entry.Keylet, Action: entry.Action, Data: entry.Current})
		}
	}

	if bw, ok := t.base.(BatchWriter); ok {
		if err := bw.WriteBatch(changes); err != nil {
			return nil, err
		}
	} else {
		for _, c := range changes {
			if err := applyChange(t.base, c); err != nil {
				return nil, err
			}
		}
	}

	t.items = make(map[[32]byte]*TrackedEntry)
	return &ChangeSet{Changes: changes}, nil
}

// Discard drops every tracked change.
func (t *Table) Discard() {
	t.items = make(map[[32]byte]*TrackedEntry)
}

func (t *Table) sortedKeys() [][32]byte {
	keys := make([][32]byte, 0, len(t.items))
	for key := range t.items {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	return keys
}

func applyChange(v View, c Change) error {
	switch c.Action {
	case ActionInsert:
		return v.Insert(c.Keylet, c.Data)
	case ActionModify:
		return v.Update(c.Keylet, c.Data)
	case ActionErase:
		return v.Erase(c.Keylet)
	}
	return nil
}
