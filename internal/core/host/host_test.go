package host_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
	"github.com/LeJamon/goNFTMarket/internal/core/state"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// counter stores a single number and optionally accepts native value.
type counter struct {
	accept bool
	greedy bool
}

func (c *counter) Kind() string { return "counter" }

func (c *counter) Init(f *host.Frame) error {
	return state.WriteUint(f.State(), keylet.TokenConfig(f.Self), 1)
}

func (c *counter) Increment(f *host.Frame) error {
	n, err := state.ReadUint(f.State(), keylet.TokenConfig(f.Self))
	if err != nil {
		return err
	}
	if err := state.WriteUint(f.State(), keylet.TokenConfig(f.Self), n+1); err != nil {
		return err
	}
	return f.Emit("Incremented", common.Hash{}, map[string]string{"by": f.Caller.Hex()})
}

func (c *counter) Receive(f *host.Frame) error {
	if c.greedy {
		for {
			if err := f.UseGas(1000); err != nil {
				return err
			}
		}
	}
	if !c.accept {
		return host.Revert("no deposits")
	}
	return nil
}

func (c *counter) SupportsInterface(_ *host.Frame, id host.InterfaceID) (bool, error) {
	return id == host.InterfaceID{0x01, 0xff, 0xc9, 0xa7} || id == host.InterfaceID{0xaa, 0xbb, 0xcc, 0xdd}, nil
}

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func newHost(t *testing.T) (*host.Host, *state.Memory) {
	t.Helper()
	base := state.NewMemory()
	h, err := host.New(base, 16, host.WithClock(fixedClock{now: time.Unix(1_700_000_000, 0)}))
	require.NoError(t, err)
	return h, base
}

func count(t *testing.T, h *host.Host, addr common.Address) uint64 {
	t.Helper()
	var n uint64
	require.NoError(t, h.View(alice, addr, func(f *host.Frame) error {
		var err error
		n, err = state.ReadUint(f.State(), keylet.TokenConfig(f.Self))
		return err
	}))
	return n
}

func TestDeployRunsConstructor(t *testing.T) {
	h, _ := newHost(t)
	c := &counter{}

	expected := h.NextAddress(alice)
	addr, receipt := h.Deploy(alice, c)
	require.True(t, receipt.Succeeded(), receipt.Reason)
	require.Equal(t, expected, addr)
	require.True(t, h.IsContract(addr))
	require.Equal(t, uint64(1), count(t, h, addr))

	second, _ := h.Deploy(alice, &counter{})
	require.NotEqual(t, addr, second)
}

func TestTransactCommitsAndReverts(t *testing.T) {
	h, _ := newHost(t)
	c := &counter{}
	addr, _ := h.Deploy(alice, c)

	r := h.Transact(host.Tx{From: bob, To: addr, Method: "increment", Call: c.Increment})
	require.True(t, r.Succeeded())
	require.Len(t, r.EventsNamed("Incremented"), 1)
	require.Equal(t, bob.Hex(), r.Events[0].Args["by"])
	require.Equal(t, 1, r.Changes)
	require.Equal(t, uint64(2), count(t, h, addr))

	r = h.Transact(host.Tx{From: bob, To: addr, Method: "incrementThenFail", Call: func(f *host.Frame) error {
		if err := c.Increment(f); err != nil {
			return err
		}
		return host.Revert("boom")
	}})
	require.Equal(t, host.StatusReverted, r.Status)
	require.Equal(t, "boom", r.Reason)
	require.Empty(t, r.Events)
	require.Equal(t, uint64(2), count(t, h, addr))
}

func TestSubCallFailureIsIsolated(t *testing.T) {
	h, _ := newHost(t)
	c := &counter{}
	addr, _ := h.Deploy(alice, c)

	var inner error
	r := h.Transact(host.Tx{From: bob, To: addr, Method: "outer", Call: func(f *host.Frame) error {
		inner = f.Call(addr, nil, 0, func(cf *host.Frame) error {
			if err := c.Increment(cf); err != nil {
				return err
			}
			return host.Revert("inner")
		})
		return c.Increment(f)
	}})
	require.True(t, r.Succeeded())
	require.Equal(t, "inner", host.ReasonOf(inner))
	require.Len(t, r.Events, 1)
	require.Equal(t, uint64(2), count(t, h, addr))
}

func TestNativeTransfers(t *testing.T) {
	h, _ := newHost(t)
	require.NoError(t, h.Fund(alice, big.NewInt(100)))

	r := h.Transact(host.Tx{From: alice, To: bob, Value: big.NewInt(40), Method: "send"})
	require.True(t, r.Succeeded())
	require.Equal(t, big.NewInt(60), h.Balance(alice))
	require.Equal(t, big.NewInt(40), h.Balance(bob))

	r = h.Transact(host.Tx{From: bob, To: alice, Value: big.NewInt(41), Method: "send"})
	require.Equal(t, "insufficient funds", r.Reason)

	refuser, _ := h.Deploy(alice, &counter{})
	r = h.Transact(host.Tx{From: alice, To: refuser, Value: big.NewInt(1), Method: "send"})
	require.Equal(t, "no deposits", r.Reason)
	require.Equal(t, big.NewInt(60), h.Balance(alice))
}

func TestGasCapBoundsGreedyReceiver(t *testing.T) {
	h, _ := newHost(t)
	require.NoError(t, h.Fund(alice, big.NewInt(100)))
	greedy, _ := h.Deploy(alice, &counter{greedy: true})

	var sendErr error
	var left uint64
	r := h.Transact(host.Tx{From: alice, To: bob, Method: "forward", GasLimit: 1_000_000, Call: func(f *host.Frame) error {
		sendErr = f.Send(greedy, big.NewInt(0), 50_000)
		left = f.GasLeft()
		return nil
	}})
	require.True(t, r.Succeeded())
	require.ErrorIs(t, sendErr, host.ErrOutOfGas)
	require.Greater(t, left, uint64(900_000))

	r = h.Transact(host.Tx{From: alice, To: bob, Method: "forwardUncapped", GasLimit: 1_000_000, Call: func(f *host.Frame) error {
		if err := f.Send(greedy, big.NewInt(0), 0); err != nil {
			return err
		}
		return nil
	}})
	require.Equal(t, host.StatusOutOfGas, r.Status)
}

func TestStaticCallRejectsWrites(t *testing.T) {
	h, _ := newHost(t)
	c := &counter{}
	addr, _ := h.Deploy(alice, c)

	r := h.Transact(host.Tx{From: bob, To: addr, Method: "static", Call: func(f *host.Frame) error {
		return f.StaticCall(addr, 0, c.Increment)
	}})
	require.ErrorIs(t, r.Err, host.ErrWriteProtection)
}

func TestSupportsInterface(t *testing.T) {
	h, _ := newHost(t)
	addr, _ := h.Deploy(alice, &counter{})

	require.NoError(t, h.View(alice, addr, func(f *host.Frame) error {
		ok, err := h.SupportsInterface(f, addr, host.InterfaceID{0xaa, 0xbb, 0xcc, 0xdd})
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = h.SupportsInterface(f, addr, host.InterfaceID{0x12, 0x34, 0x56, 0x78})
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = h.SupportsInterface(f, bob, host.InterfaceID{0xaa, 0xbb, 0xcc, 0xdd})
		require.NoError(t, err)
		require.False(t, ok)
		return nil
	}))
}

func TestAttachAfterRestart(t *testing.T) {
	h, base := newHost(t)
	addr, _ := h.Deploy(alice, &counter{})
	h.Transact(host.Tx{From: bob, To: addr, Method: "increment", Call: (&counter{}).Increment})

	restarted, err := host.New(base, 16)
	require.NoError(t, err)
	again, r := restarted.Deploy(alice, &counter{})
	require.Equal(t, addr, again)
	require.Equal(t, "attach", r.Method)
	require.Equal(t, uint64(2), count(t, restarted, addr))

	require.Error(t, restarted.Attach(bob, &counter{}))
}
