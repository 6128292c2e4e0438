package auction

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/asset"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
	"github.com/LeJamon/goNFTMarket/internal/core/state"
)

// Auction is the state of one listing. A zero Auction is returned for ids
// that are not open.
type Auction struct {
	TokenInfo     asset.Descriptor
	Seller        common.Address
	StartTime     uint64
	EndTime       uint64
	MinPrice      *big.Int
	BidToken      common.Address
	LastBidAmount *big.Int
	LastBidder    common.Address
}

// HasBid reports whether anyone bid on the auction.
func (a Auction) HasBid() bool {
	return a.LastBidder != (common.Address{})
}

// record is the stored form of an Auction.
type record struct {
	TokenInfo     asset.Record   `codec:"tokenInfo"`
	Seller        common.Address `codec:"seller"`
	StartTime     uint64         `codec:"startTime"`
	EndTime       uint64         `codec:"endTime"`
	MinPrice      []byte         `codec:"minPrice"`
	BidToken      common.Address `codec:"bidToken"`
	LastBidAmount []byte         `codec:"lastBidAmount"`
	LastBidder    common.Address `codec:"lastBidder"`
}

func toRecord(a Auction) record {
	return record{
		TokenInfo:     a.TokenInfo.Record(),
		Seller:        a.Seller,
		StartTime:     a.StartTime,
		EndTime:       a.EndTime,
		MinPrice:      state.BigBytes(a.MinPrice),
		BidToken:      a.BidToken,
		LastBidAmount: state.BigBytes(a.LastBidAmount),
		LastBidder:    a.LastBidder,
	}
}

func (r record) auction() Auction {
	return Auction{
		TokenInfo:     r.TokenInfo.Descriptor(),
		Seller:        r.Seller,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		MinPrice:      state.Big(r.MinPrice),
		BidToken:      r.BidToken,
		LastBidAmount: state.Big(r.LastBidAmount),
		LastBidder:    r.LastBidder,
	}
}

func zeroAuction() Auction {
	return Auction{
		TokenInfo:     asset.Descriptor{ID: new(big.Int), Amount: new(big.Int)},
		MinPrice:      new(big.Int),
		LastBidAmount: new(big.Int),
	}
}

// Ledger stores the auctions of the executing contract: records, the
// enumerable set of open ids and the tombstones of completed ids.
type Ledger struct{}

// Get returns the open auction id, or a zero Auction and false.
func (Ledger) Get(f *host.Frame, id common.Hash) (Auction, bool, error) {
	var r record
	found, err := state.ReadRecord(f.State(), keylet.Auction(f.Self, id), &r)
	if err != nil {
		return Auction{}, false, err
	}
	if !found {
		return zeroAuction(), false, nil
	}
	return r.auction(), true, nil
}

// IsCompleted reports whether id was ended or deleted.
func (Ledger) IsCompleted(f *host.Frame, id common.Hash) (bool, error) {
	return state.ReadFlag(f.State(), keylet.AuctionCompleted(f.Self, id))
}

// Contains reports whether id is open.
func (Ledger) Contains(f *host.Frame, id common.Hash) (bool, error) {
	return f.State().Exists(keylet.OpenSetIndex(f.Self, id))
}

// Len returns the number of open auctions.
func (Ledger) Len(f *host.Frame) (uint64, error) {
	return state.ReadUint(f.State(), keylet.OpenSetLength(f.Self))
}

// At returns the open auction id at index.
func (l Ledger) At(f *host.Frame, index uint64) (common.Hash, error) {
	n, err := l.Len(f)
	if err != nil {
		return common.Hash{}, err
	}
	if index >= n {
		return common.Hash{}, host.Revert("EnumerableSet: index out of bounds")
	}
	data, err := f.State().Read(keylet.OpenSetSlot(f.Self, index))
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(data), nil
}

// Insert opens a new auction under id.
func (l Ledger) Insert(f *host.Frame, id common.Hash, a Auction) error {
	completed, err := l.IsCompleted(f, id)
	if err != nil {
		return err
	}
	if completed {
		return host.Revert(reasonCompleted)
	}
	open, err := l.Contains(f, id)
	if err != nil {
		return err
	}
	if open {
		return host.Revert(reasonExisting)
	}
	if err := state.WriteRecord(f.State(), keylet.Auction(f.Self, id), toRecord(a)); err != nil {
		return err
	}

	n, err := l.Len(f)
	if err != nil {
		return err
	}
	if err := state.Put(f.State(), keylet.OpenSetSlot(f.Self, n), id.Bytes()); err != nil {
		return err
	}
	if err := state.WriteUint(f.State(), keylet.OpenSetIndex(f.Self, id), n+1); err != nil {
		return err
	}
	return state.WriteUint(f.State(), keylet.OpenSetLength(f.Self), n+1)
}

// UpdateBid records bidder as the highest bidder with amount.
func (l Ledger) UpdateBid(f *host.Frame, id common.Hash, bidder common.Address, amount *big.Int) error {
	a, found, err := l.Get(f, id)
	if err != nil {
		return err
	}
	if !found {
		return host.Revert(reasonNoSuchAuction)
	}
	a.LastBidder = bidder
	a.LastBidAmount = new(big.Int).Set(amount)
	return state.WriteRecord(f.State(), keylet.Auction(f.Self, id), toRecord(a))
}

// Remove closes id: the record is cleared, the id leaves the open set and
// is tombstoned.
func (l Ledger) Remove(f *host.Frame, id common.Hash) error {
	idx, err := state.ReadUint(f.State(), keylet.OpenSetIndex(f.Self, id))
	if err != nil {
		return err
	}
	if idx == 0 {
		return host.Revert(reasonNoSuchAuction)
	}
	n, err := l.Len(f)
	if err != nil {
		return err
	}
	last := n - 1
	if idx-1 != last {
		data, err := f.State().Read(keylet.OpenSetSlot(f.Self, last))
		if err != nil {
			return err
		}
		moved := common.BytesToHash(data)
		if err := state.Put(f.State(), keylet.OpenSetSlot(f.Self, idx-1), moved.Bytes()); err != nil {
			return err
		}
		if err := state.WriteUint(f.State(), keylet.OpenSetIndex(f.Self, moved), idx); err != nil {
			return err
		}
	}
	if err := state.Delete(f.State(), keylet.OpenSetSlot(f.Self, last)); err != nil {
		return err
	}
	if err := state.Delete(f.State(), keylet.OpenSetIndex(f.Self, id)); err != nil {
		return err
	}
	if err := state.WriteUint(f.State(), keylet.OpenSetLength(f.Self), last); err != nil {
		return err
	}
	if err := state.Delete(f.State(), keylet.Auction(f.Self, id)); err != nil {
		return err
	}
	return state.WriteFlag(f.State(), keylet.AuctionCompleted(f.Self, id), true)
}
