package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
	"github.com/LeJamon/goNFTMarket/internal/storage/database/pebble"
)

var (
	owner   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	spender = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	kA      = keylet.NativeBalance(owner)
	kB      = keylet.NativeBalance(spender)
	kC      = keylet.Guard(owner)
)

func TestTableTracksAndApplies(t *testing.T) {
	base := NewMemory()
	require.NoError(t, base.Insert(kA, []byte("a0")))

	table := NewTable(base)
	require.NoError(t, table.Update(kA, []byte("a1")))
	require.NoError(t, table.Insert(kB, []byte("b1")))
	require.ErrorIs(t, table.Insert(kB, []byte("again")), ErrEntryExists)
	require.ErrorIs(t, table.Update(kC, []byte("c")), ErrEntryNotFound)

	// base untouched until Apply
	got, err := base.Read(kA)
	require.NoError(t, err)
	require.Equal(t, []byte("a0"), got)
	require.Equal(t, 2, table.Pending())

	changes, err := table.Apply()
	require.NoError(t, err)
	require.Equal(t, 2, changes.Count())

	got, err = base.Read(kA)
	require.NoError(t, err)
	require.Equal(t, []byte("a1"), got)
	got, err = base.Read(kB)
	require.NoError(t, err)
	require.Equal(t, []byte("b1"), got)
}

func TestTableEraseSemantics(t *testing.T) {
	base := NewMemory()
	require.NoError(t, base.Insert(kA, []byte("a0")))

	table := NewTable(base)

	// insert then erase leaves nothing to commit
	require.NoError(t, table.Insert(kB, []byte("b")))
	require.NoError(t, table.Erase(kB))
	require.Equal(t, 0, table.Pending())

	// erase then re-insert becomes a modify
	require.NoError(t, table.Erase(kA))
	exists, err := table.Exists(kA)
	require.NoError(t, err)
	require.False(t, exists)
	require.ErrorIs(t, table.Erase(kA), ErrEntryNotFound)
	require.NoError(t, table.Insert(kA, []byte("a2")))

	changes, err := table.Apply()
	require.NoError(t, err)
	require.Len(t, changes.Changes, 1)
	require.Equal(t, ActionModify, changes.Changes[0].Action)

	got, err := base.Read(kA)
	require.NoError(t, err)
	require.Equal(t, []byte("a2"), got)
}

func TestNestedTableDiscard(t *testing.T) {
	base := NewMemory()
	outer := NewTable(base)
	require.NoError(t, outer.Insert(kA, []byte("outer")))

	inner := NewTable(outer)
	require.NoError(t, inner.Update(kA, []byte("inner")))
	require.NoError(t, inner.Insert(kB, []byte("inner")))
	inner.Discard()

	got, err := outer.Read(kA)
	require.NoError(t, err)
	require.Equal(t, []byte("outer"), got)
	exists, err := outer.Exists(kB)
	require.NoError(t, err)
	require.False(t, exists)

	inner = NewTable(outer)
	require.NoError(t, inner.Insert(kB, []byte("kept")))
	_, err = inner.Apply()
	require.NoError(t, err)

	_, err = outer.Apply()
	require.NoError(t, err)
	require.Equal(t, 2, base.Len())
}

func TestTableForEachMergesBase(t *testing.T) {
	base := NewMemory()
	require.NoError(t, base.Insert(kA, []byte("a")))
	require.NoError(t, base.Insert(kB, []byte("b")))

	table := NewTable(base)
	require.NoError(t, table.Erase(kA))
	require.NoError(t, table.Update(kB, []byte("b2")))
	require.NoError(t, table.Insert(kC, []byte("c")))

	seen := make(map[[32]byte]string)
	require.NoError(t, table.ForEach(func(key [32]byte, data []byte) bool {
		seen[key] = string(data)
		return true
	}))
	require.Equal(t, map[[32]byte]string{kB.Key: "b2", kC.Key: "c"}, seen)
}

func TestStoreCommitsThroughBatch(t *testing.T) {
	db, err := pebble.Open(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(context.Background(), db)
	require.NoError(t, store.Insert(kA, []byte("a")))

	table := NewTable(store)
	require.NoError(t, table.Erase(kA))
	require.NoError(t, table.Insert(kB, []byte("b")))
	_, err = table.Apply()
	require.NoError(t, err)

	exists, err := store.Exists(kA)
	require.NoError(t, err)
	require.False(t, exists)
	got, err := store.Read(kB)
	require.NoError(t, err)
	require.Equal(t, []byte("b"), got)

	count := 0
	require.NoError(t, store.ForEach(func([32]byte, []byte) bool { count++; return true }))
	require.Equal(t, 1, count)
}
