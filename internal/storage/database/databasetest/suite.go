// Package databasetest holds the behaviour every database.DB backend must share.
package databasetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goNFTMarket/internal/storage/database"
)

// Run exercises a fresh backend returned by open.
func Run(t *testing.T, open func(t *testing.T) database.DB) {
	ctx := context.Background()

	t.Run("ReadWriteDelete", func(t *testing.T) {
		db := open(t)

		_, err := db.Read(ctx, []byte("missing"))
		require.ErrorIs(t, err, database.ErrKeyNotFound)

		require.NoError(t, db.Write(ctx, []byte("k"), []byte("v")))
		got, err := db.Read(ctx, []byte("k"))
		require.NoError(t, err)
		require.Equal(t, []byte("v"), got)

		require.NoError(t, db.Delete(ctx, []byte("k")))
		_, err = db.Read(ctx, []byte("k"))
		require.ErrorIs(t, err, database.ErrKeyNotFound)
	})

	t.Run("Batch", func(t *testing.T) {
		db := open(t)
		require.NoError(t, db.Write(ctx, []byte("gone"), []byte("x")))

		err := db.Batch(ctx, []database.BatchOperation{
			{Type: database.BatchPut, Key: []byte("a"), Value: []byte("1")},
			{Type: database.BatchPut, Key: []byte("b"), Value: []byte("2")},
			{Type: database.BatchDelete, Key: []byte("gone")},
		})
		require.NoError(t, err)

		got, err := db.Read(ctx, []byte("b"))
		require.NoError(t, err)
		require.Equal(t, []byte("2"), got)
		_, err = db.Read(ctx, []byte("gone"))
		require.ErrorIs(t, err, database.ErrKeyNotFound)
	})

	t.Run("IteratorRange", func(t *testing.T) {
		db := open(t)
		for _, k := range []string{"a", "b", "c", "d"} {
			require.NoError(t, db.Write(ctx, []byte(k), []byte(k+k)))
		}

		it, err := db.Iterator(ctx, []byte("b"), []byte("d"))
		require.NoError(t, err)
		defer it.Close()

		var keys []string
		for it.Next() {
			keys = append(keys, string(it.Key()))
			require.Equal(t, string(it.Key())+string(it.Key()), string(it.Value()))
		}
		require.NoError(t, it.Error())
		require.Equal(t, []string{"b", "c"}, keys)
	})

	t.Run("Closed", func(t *testing.T) {
		db := open(t)
		require.NoError(t, db.Close())

		_, err := db.Read(ctx, []byte("k"))
		require.ErrorIs(t, err, database.ErrDBClosed)
		require.ErrorIs(t, db.Write(ctx, []byte("k"), nil), database.ErrDBClosed)
	})
}
