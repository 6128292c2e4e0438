package transfer_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goNFTMarket/internal/core/asset"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/state"
	"github.com/LeJamon/goNFTMarket/internal/core/token"
	"github.com/LeJamon/goNFTMarket/internal/core/transfer"
)

type clock struct{}

func (clock) Now() time.Time { return time.Unix(1_700_000_000, 0) }

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

type fixture struct {
	h         *host.Host
	vault     *token.Wallet
	vaultAddr common.Address
	nft       *token.Collection
	nftAddr   common.Address
	cur       *token.Currency
	curAddr   common.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	h, err := host.New(state.NewMemory(), 16, host.WithClock(clock{}))
	require.NoError(t, err)
	fx := &fixture{h: h, vault: token.NewWallet(), nft: token.NewCollection(), cur: token.NewCurrency()}
	fx.vaultAddr, _ = h.Deploy(alice, fx.vault)
	fx.nftAddr, _ = h.Deploy(alice, fx.nft)
	fx.curAddr, _ = h.Deploy(alice, fx.cur)

	fx.tx(t, alice, fx.nftAddr, func(f *host.Frame) error { return fx.nft.Mint(f, alice, big.NewInt(1)) })
	fx.tx(t, alice, fx.nftAddr, func(f *host.Frame) error { return fx.nft.SetApprovalForAll(f, fx.vaultAddr, true) })
	fx.tx(t, alice, fx.curAddr, func(f *host.Frame) error { return fx.cur.Mint(f, alice, big.NewInt(1000)) })
	fx.tx(t, alice, fx.curAddr, func(f *host.Frame) error {
		_, err := fx.cur.Approve(f, fx.vaultAddr, big.NewInt(1000))
		return err
	})
	return fx
}

func (fx *fixture) tx(t *testing.T, from, to common.Address, fn func(f *host.Frame) error) *host.Receipt {
	t.Helper()
	r := fx.h.Transact(host.Tx{From: from, To: to, Method: "setup", Call: fn})
	require.True(t, r.Succeeded(), r.Reason)
	return r
}

func (fx *fixture) inVault(from common.Address, fn func(f *host.Frame) error) *host.Receipt {
	return fx.h.Transact(host.Tx{From: from, To: fx.vaultAddr, Method: "vault", GasLimit: 10_000_000, Call: fn})
}

func (fx *fixture) owner(t *testing.T) common.Address {
	t.Helper()
	var owner common.Address
	require.NoError(t, fx.h.View(alice, fx.nftAddr, func(f *host.Frame) error {
		var err error
		owner, err = fx.nft.OwnerOf(f, big.NewInt(1))
		return err
	}))
	return owner
}

func (fx *fixture) balance(t *testing.T, who common.Address) *big.Int {
	t.Helper()
	var bal *big.Int
	require.NoError(t, fx.h.View(alice, fx.curAddr, func(f *host.Frame) error {
		var err error
		bal, err = fx.cur.BalanceOf(f, who)
		return err
	}))
	return bal
}

func TestFromFlags(t *testing.T) {
	require.Equal(t, transfer.Strict(), transfer.FromFlags(true, false, 100))
	require.Equal(t, transfer.BestEffort(100), transfer.FromFlags(false, true, 100))
	require.Equal(t, transfer.Policy{OnFailure: transfer.Abort, GasBudget: 100}, transfer.FromFlags(true, true, 100))
	require.Equal(t, transfer.BestEffort(0), transfer.FromFlags(false, false, 100))
}

func TestNFTCustodyRoundTrip(t *testing.T) {
	fx := newFixture(t)
	d := asset.ERC721(fx.nftAddr, big.NewInt(1))

	r := fx.inVault(alice, func(f *host.Frame) error { return transfer.In(f, d, alice) })
	require.True(t, r.Succeeded(), r.Reason)
	require.Equal(t, fx.vaultAddr, fx.owner(t))

	r = fx.inVault(alice, func(f *host.Frame) error {
		_, err := transfer.Out(f, d, bob, transfer.Strict())
		return err
	})
	require.True(t, r.Succeeded(), r.Reason)
	require.Equal(t, bob, fx.owner(t))
}

func TestRevertingNFTUnderPolicies(t *testing.T) {
	fx := newFixture(t)
	d := asset.ERC721(fx.nftAddr, big.NewInt(1))
	fx.inVault(alice, func(f *host.Frame) error { return transfer.In(f, d, alice) })
	fx.tx(t, alice, fx.nftAddr, func(f *host.Frame) error { return fx.nft.SetBehaviour(f, token.Reverting) })

	r := fx.inVault(alice, func(f *host.Frame) error {
		_, err := transfer.Out(f, d, bob, transfer.Strict())
		return err
	})
	require.Equal(t, "ERC721 transfer revert", r.Reason)

	var outcome transfer.Outcome
	r = fx.inVault(alice, func(f *host.Frame) error {
		var err error
		outcome, err = transfer.Out(f, d, bob, transfer.BestEffort(0))
		return err
	})
	require.True(t, r.Succeeded(), r.Reason)
	require.Equal(t, transfer.Reverted, outcome.Failure)
	require.Equal(t, "ERC721 transfer revert", outcome.Reason)
	require.Equal(t, fx.vaultAddr, fx.owner(t))
}

func TestERC20ReturnData(t *testing.T) {
	tests := []struct {
		name      string
		behaviour token.Behaviour
		failure   transfer.Failure
	}{
		{"honest", token.Honest, transfer.None},
		{"no return value", token.NoReturnValue, transfer.None},
		{"return false", token.ReturningFalse, transfer.Rejected},
		{"revert", token.Reverting, transfer.Reverted},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fx := newFixture(t)
			fx.tx(t, alice, fx.curAddr, func(f *host.Frame) error { return fx.cur.SetBehaviour(f, tc.behaviour) })

			var outcome transfer.Outcome
			r := fx.inVault(alice, func(f *host.Frame) error {
				var err error
				outcome, err = transfer.Move(f, asset.ERC20(fx.curAddr, big.NewInt(10)), alice, bob, transfer.BestEffort(0))
				return err
			})
			require.True(t, r.Succeeded(), r.Reason)
			require.Equal(t, tc.failure, outcome.Failure)
			if tc.failure == transfer.None {
				require.Equal(t, big.NewInt(10), fx.balance(t, bob))
			} else {
				require.Equal(t, 0, fx.balance(t, bob).Sign())
			}
		})
	}
}

func TestReturnFalseAbortsStrictPayIn(t *testing.T) {
	fx := newFixture(t)
	fx.tx(t, alice, fx.curAddr, func(f *host.Frame) error { return fx.cur.SetBehaviour(f, token.ReturningFalse) })

	r := fx.inVault(alice, func(f *host.Frame) error {
		return transfer.PayIn(f, fx.curAddr, alice, big.NewInt(10))
	})
	require.Equal(t, "NftMarketplaceV2: ERC20 transfer result false", r.Reason)
}

func TestGasCapContainsGriefing(t *testing.T) {
	fx := newFixture(t)
	fx.tx(t, alice, fx.curAddr, func(f *host.Frame) error { return fx.cur.SetBehaviour(f, token.BurningGas) })

	var outcome transfer.Outcome
	var left uint64
	r := fx.inVault(alice, func(f *host.Frame) error {
		var err error
		outcome, err = transfer.PayOut(f, fx.curAddr, bob, big.NewInt(1), transfer.BestEffort(200_000))
		left = f.GasLeft()
		return err
	})
	require.True(t, r.Succeeded(), r.Reason)
	require.Equal(t, transfer.OutOfGas, outcome.Failure)
	require.Greater(t, left, uint64(9_000_000))

	r = fx.inVault(alice, func(f *host.Frame) error {
		_, err := transfer.PayOut(f, fx.curAddr, bob, big.NewInt(1), transfer.Strict())
		return err
	})
	require.Equal(t, host.StatusOutOfGas, r.Status)
}

func TestNativePayOut(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.h.Fund(fx.vaultAddr, big.NewInt(50)))
	refuser := token.NewWallet()
	refuserAddr, _ := fx.h.Deploy(alice, refuser)
	fx.tx(t, alice, refuserAddr, func(f *host.Frame) error { return refuser.SetBehaviour(f, token.Reverting) })

	var outcome transfer.Outcome
	r := fx.inVault(alice, func(f *host.Frame) error {
		if _, err := transfer.PayOut(f, asset.NativeToken, bob, big.NewInt(20), transfer.Strict()); err != nil {
			return err
		}
		var err error
		outcome, err = transfer.PayOut(f, asset.NativeToken, refuserAddr, big.NewInt(20), transfer.BestEffort(50_000))
		return err
	})
	require.True(t, r.Succeeded(), r.Reason)
	require.Equal(t, transfer.Reverted, outcome.Failure)
	require.Equal(t, big.NewInt(20), fx.h.Balance(bob))
	require.Equal(t, big.NewInt(30), fx.h.Balance(fx.vaultAddr))
}

func TestPayInRequiresContract(t *testing.T) {
	fx := newFixture(t)
	r := fx.inVault(alice, func(f *host.Frame) error {
		return transfer.PayIn(f, asset.NativeToken, alice, big.NewInt(1))
	})
	require.Equal(t, "NftMarketplaceV2: Token is not a contract", r.Reason)
}
