package market

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/asset"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
	"github.com/LeJamon/goNFTMarket/internal/core/state"
	"github.com/LeJamon/goNFTMarket/internal/core/swap"
)

const reasonReentrant = "ReentrancyGuard: reentrant call"

// nonReentrant runs fn with the guard of the executing contract held.
func nonReentrant(f *host.Frame, fn func() error) error {
	k := keylet.Guard(f.Self)
	entered, err := state.ReadFlag(f.State(), k)
	if err != nil {
		return err
	}
	if entered {
		return host.Revert(reasonReentrant)
	}
	if err := state.WriteFlag(f.State(), k, true); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return state.WriteFlag(f.State(), k, false)
}

// CreateAuction lists d and returns the auction id.
func (m *Marketplace) CreateAuction(f *host.Frame, d asset.Descriptor, startTime, endTime uint64, minPrice *big.Int, bidToken common.Address) (common.Hash, error) {
	var id common.Hash
	err := nonReentrant(f, func() error {
		var err error
		id, err = m.auctions.CreateAuction(f, d, startTime, endTime, minPrice, bidToken)
		return err
	})
	return id, err
}

// Bid bids amount on auction id.
func (m *Marketplace) Bid(f *host.Frame, id common.Hash, amount *big.Int) error {
	return nonReentrant(f, func() error { return m.auctions.Bid(f, id, amount) })
}

// BidNative bids the call value on auction id.
func (m *Marketplace) BidNative(f *host.Frame, id common.Hash) error {
	return nonReentrant(f, func() error { return m.auctions.BidNative(f, id) })
}

// EndAuction settles auction id.
func (m *Marketplace) EndAuction(f *host.Frame, id common.Hash) error {
	return nonReentrant(f, func() error { return m.auctions.EndAuction(f, id) })
}

// DeleteAuction unwinds auction id with per-leg policies.
func (m *Marketplace) DeleteAuction(f *host.Frame, id common.Hash, requireSuccessSeller, capGasSeller, requireSuccessBuyer, capGasBuyer bool) error {
	return nonReentrant(f, func() error {
		return m.auctions.DeleteAuction(f, id, requireSuccessSeller, capGasSeller, requireSuccessBuyer, capGasBuyer)
	})
}

// WithdrawRefund pays out refunds of bidToken held for the caller.
func (m *Marketplace) WithdrawRefund(f *host.Frame, bidToken common.Address) error {
	return nonReentrant(f, func() error { return m.auctions.WithdrawRefund(f, bidToken) })
}

// MakeSwap executes a signed swap order.
func (m *Marketplace) MakeSwap(f *host.Frame, o swap.Order, sig []byte, seller common.Address) error {
	return nonReentrant(f, func() error { return m.swaps.MakeSwap(f, o, sig, seller) })
}
