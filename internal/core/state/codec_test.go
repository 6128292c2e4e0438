package state

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

type sampleRecord struct {
	Holder common.Address `codec:"holder"`
	Amount []byte         `codec:"amount"`
	Open   bool           `codec:"open"`
}

func TestRecordHelpers(t *testing.T) {
	view := NewMemory()
	in := sampleRecord{Holder: owner, Amount: BigBytes(big.NewInt(1_000_000)), Open: true}
	require.NoError(t, WriteRecord(view, kA, in))

	var out sampleRecord
	found, err := ReadRecord(view, kA, &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, in.Holder, out.Holder)
	require.Equal(t, int64(1_000_000), Big(out.Amount).Int64())

	found, err = ReadRecord(view, kB, &out)
	require.NoError(t, err)
	require.False(t, found)
}

func TestWriteBigZeroErases(t *testing.T) {
	view := NewMemory()
	require.NoError(t, WriteBig(view, kA, big.NewInt(5)))
	require.NoError(t, WriteBig(view, kA, big.NewInt(0)))

	exists, err := view.Exists(kA)
	require.NoError(t, err)
	require.False(t, exists)
	require.Error(t, WriteBig(view, kA, big.NewInt(-1)))

	n, err := ReadBig(view, kA)
	require.NoError(t, err)
	require.Equal(t, 0, n.Sign())
}
