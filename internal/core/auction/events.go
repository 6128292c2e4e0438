package auction

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/transfer"
)

// Event names.
const (
	EventAuctionCreated  = "AuctionCreated"
	EventBidPlaced       = "BidPlaced"
	EventAuctionEnded    = "AuctionEnded"
	EventAuctionDeleted  = "AuctionDeleted"
	EventRefundFailed    = "RefundFailed"
	EventRefundWithdrawn = "RefundWithdrawn"
	EventTransferFailed  = "TransferFailed"
)

// Leg names one side of a recovery.
type Leg int

const (
	// LegSeller returns the NFT to the seller.
	LegSeller Leg = iota
	// LegBuyer returns the last bid to the bidder.
	LegBuyer
)

func (l Leg) String() string {
	if l == LegBuyer {
		return "buyer"
	}
	return "seller"
}

func emitCreated(f *host.Frame, id common.Hash, a Auction) error {
	return f.Emit(EventAuctionCreated, id, map[string]string{
		"seller":    a.Seller.Hex(),
		"token":     a.TokenInfo.String(),
		"startTime": strconv.FormatUint(a.StartTime, 10),
		"endTime":   strconv.FormatUint(a.EndTime, 10),
		"minPrice":  a.MinPrice.String(),
		"bidToken":  a.BidToken.Hex(),
	})
}

func emitBid(f *host.Frame, id common.Hash, bidder common.Address, amount *big.Int) error {
	return f.Emit(EventBidPlaced, id, map[string]string{
		"bidder": bidder.Hex(),
		"amount": amount.String(),
	})
}

func emitEnded(f *host.Frame, id common.Hash, a Auction, s Settlement) error {
	return f.Emit(EventAuctionEnded, id, map[string]string{
		"seller":          a.Seller.Hex(),
		"winner":          a.LastBidder.Hex(),
		"price":           a.LastBidAmount.String(),
		"fee":             s.Fee.String(),
		"royalty":         s.Royalty.String(),
		"royaltyReceiver": s.RoyaltyReceiver.Hex(),
		"sellerProceeds":  s.Seller.String(),
	})
}

func emitDeleted(f *host.Frame, id common.Hash, nft, funds transfer.Outcome) error {
	return f.Emit(EventAuctionDeleted, id, map[string]string{
		"manager": f.Caller.Hex(),
		"seller":  nft.Failure.String(),
		"buyer":   funds.Failure.String(),
	})
}

func emitRefundFailed(f *host.Frame, id common.Hash, bidder common.Address, amount *big.Int, out transfer.Outcome) error {
	return f.Emit(EventRefundFailed, id, map[string]string{
		"bidder":  bidder.Hex(),
		"amount":  amount.String(),
		"failure": out.Failure.String(),
		"reason":  out.Reason,
	})
}

func emitRefundWithdrawn(f *host.Frame, bidToken, account common.Address, amount *big.Int) error {
	return f.Emit(EventRefundWithdrawn, common.Hash{}, map[string]string{
		"bidToken": bidToken.Hex(),
		"account":  account.Hex(),
		"amount":   amount.String(),
	})
}

func emitTransferFailed(f *host.Frame, id common.Hash, leg Leg, to common.Address, out transfer.Outcome) error {
	return f.Emit(EventTransferFailed, id, map[string]string{
		"leg":     leg.String(),
		"to":      to.Hex(),
		"failure": out.Failure.String(),
		"reason":  out.Reason,
	})
}
