package market

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/asset"
	"github.com/LeJamon/goNFTMarket/internal/core/auction"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/royalty"
	"github.com/LeJamon/goNFTMarket/internal/core/swap"
)

// AuctionData returns auction id, zeroed when it is not open.
func (m *Marketplace) AuctionData(f *host.Frame, id common.Hash) (auction.Auction, error) {
	a, _, err := m.auctions.Ledger.Get(f, id)
	return a, err
}

// IsAuctionCompleted reports whether id was settled or deleted.
func (m *Marketplace) IsAuctionCompleted(f *host.Frame, id common.Hash) (bool, error) {
	return m.auctions.Ledger.IsCompleted(f, id)
}

// ActiveAuctionsLength returns the number of open auctions.
func (m *Marketplace) ActiveAuctionsLength(f *host.Frame) (uint64, error) {
	return m.auctions.Ledger.Len(f)
}

// ActiveAuctionsAt returns the open auction id at index.
func (m *Marketplace) ActiveAuctionsAt(f *host.Frame, index uint64) (common.Hash, error) {
	return m.auctions.Ledger.At(f, index)
}

// ActiveAuctionsContains reports whether id is open.
func (m *Marketplace) ActiveAuctionsContains(f *host.Frame, id common.Hash) (bool, error) {
	return m.auctions.Ledger.Contains(f, id)
}

// ActiveAuctions lists the open auction ids in set order.
func (m *Marketplace) ActiveAuctions(f *host.Frame) ([]common.Hash, error) {
	n, err := m.auctions.Ledger.Len(f)
	if err != nil {
		return nil, err
	}
	ids := make([]common.Hash, 0, n)
	for i := uint64(0); i < n; i++ {
		id, err := m.auctions.Ledger.At(f, i)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// AuctionID computes the id an auction with these terms would get.
func (m *Marketplace) AuctionID(d asset.Descriptor, seller common.Address, startTime, endTime uint64, bidToken common.Address) (common.Hash, error) {
	return auction.ID(d, seller, startTime, endTime, bidToken)
}

// GetRoyaltyInfo returns the royalty owed on a sale of tokenID at price.
func (m *Marketplace) GetRoyaltyInfo(f *host.Frame, collection common.Address, tokenID, price *big.Int) (royalty.Quote, error) {
	return m.Resolve(f, collection, tokenID, price)
}

// PendingRefund returns the refund of bidToken held for account.
func (m *Marketplace) PendingRefund(f *host.Frame, bidToken, account common.Address) (*big.Int, error) {
	return auction.PendingRefund(f, bidToken, account)
}

// IsOrderCompleted reports whether the swap order o signed by seller ran.
func (m *Marketplace) IsOrderCompleted(f *host.Frame, o swap.Order, seller common.Address) (bool, error) {
	key, err := o.Key(seller)
	if err != nil {
		return false, err
	}
	return swap.IsCompleted(f, key)
}
