package pebble

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goNFTMarket/internal/storage/database"
	"github.com/LeJamon/goNFTMarket/internal/storage/database/databasetest"
)

func TestPebbleDB(t *testing.T) {
	databasetest.Run(t, func(t *testing.T) database.DB {
		db, err := Open(filepath.Join(t.TempDir(), "state.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		return db
	})
}
