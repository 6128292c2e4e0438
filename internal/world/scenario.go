package world

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/LeJamon/goNFTMarket/internal/core/asset"
	"github.com/LeJamon/goNFTMarket/internal/core/auction"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/market"
)

var ErrNoClock = errors.New("scenario needs a manual clock")

// AuctionScenario is a two-bidder English auction run end to end.
type AuctionScenario struct {
	Seller     string
	First      string
	Second     string
	Collection string
	TokenID    int64
	// Currency names a genesis ERC20, or "native".
	Currency  string
	MinPrice  *big.Int
	FirstBid  *big.Int
	SecondBid *big.Int
	// StartDelay and Duration place the auction window relative to now.
	StartDelay time.Duration
	Duration   time.Duration
}

// DefaultAuctionScenario sells punks #1 for USD: minimum 10, bids of 10
// and 20, starting in an hour and lasting a day.
func DefaultAuctionScenario() AuctionScenario {
	return AuctionScenario{
		Seller:     "seller",
		First:      "alice",
		Second:     "bob",
		Collection: "punks",
		TokenID:    1,
		Currency:   "USD",
		MinPrice:   asset.Units(10),
		FirstBid:   asset.Units(10),
		SecondBid:  asset.Units(20),
		StartDelay: time.Hour,
		Duration:   24 * time.Hour,
	}
}

// AuctionReport is what RunAuction observed.
type AuctionReport struct {
	AuctionID       common.Hash
	StartTime       uint64
	EndTime         uint64
	BidToken        common.Address
	Winner          common.Address
	Price           *big.Int
	Fee             *big.Int
	Royalty         *big.Int
	RoyaltyReceiver common.Address
	SellerProceeds  *big.Int
	// FirstRefund is the first bidder's balance change between bidding
	// and settlement.
	FirstRefund *big.Int
	NewOwner    common.Address
	Receipts    []*host.Receipt
}

// RunAuction creates the auction, places both bids, moves time past the end
// and settles it.
func (w *World) RunAuction(s AuctionScenario) (*AuctionReport, error) {
	if w.clock == nil {
		return nil, ErrNoClock
	}
	seller, ok1 := w.Account(s.Seller)
	first, ok2 := w.Account(s.First)
	second, ok3 := w.Account(s.Second)
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("%w: scenario account", ErrUnknownName)
	}
	collection, err := w.Resolve(s.Collection)
	if err != nil {
		return nil, err
	}
	bidToken, err := w.Resolve(s.Currency)
	if err != nil {
		return nil, err
	}

	now := uint64(w.clock.Now().Unix())
	start := now + uint64(s.StartDelay/time.Second)
	end := start + uint64(s.Duration/time.Second)
	report := &AuctionReport{StartTime: start, EndTime: end, BidToken: bidToken}
	nft := asset.ERC721(collection, big.NewInt(s.TokenID))

	r, err := w.Submit(seller, nil, "createAuction", func(m *market.Marketplace, f *host.Frame) error {
		id, err := m.CreateAuction(f, nft, start, end, s.MinPrice, bidToken)
		report.AuctionID = id
		return err
	})
	report.Receipts = append(report.Receipts, r)
	if err != nil {
		return report, err
	}

	bid := func(from Account, amount *big.Int) error {
		var value *big.Int
		if asset.IsNative(bidToken) {
			value = amount
		}
		r, err := w.Submit(from, value, "bid", func(m *market.Marketplace, f *host.Frame) error {
			if value != nil {
				return m.BidNative(f, report.AuctionID)
			}
			return m.Bid(f, report.AuctionID, amount)
		})
		report.Receipts = append(report.Receipts, r)
		return err
	}

	w.clock.Set(time.Unix(int64(start+1), 0).UTC())
	if err := bid(first, s.FirstBid); err != nil {
		return report, err
	}
	afterBid, err := w.ERC20Balance(bidToken, first.Address)
	if err != nil {
		return report, err
	}

	w.clock.Set(time.Unix(int64(end-60), 0).UTC())
	if err := bid(second, s.SecondBid); err != nil {
		return report, err
	}

	w.clock.Set(time.Unix(int64(end), 0).UTC())
	r, err = w.Submit(second, nil, "endAuction", func(m *market.Marketplace, f *host.Frame) error {
		return m.EndAuction(f, report.AuctionID)
	})
	report.Receipts = append(report.Receipts, r)
	if err != nil {
		return report, err
	}

	ended := r.EventsNamed(auction.EventAuctionEnded)
	if len(ended) != 1 {
		return report, fmt.Errorf("expected one %s event, got %d", auction.EventAuctionEnded, len(ended))
	}
	args := ended[0].Args
	report.Winner = common.HexToAddress(args["winner"])
	report.RoyaltyReceiver = common.HexToAddress(args["royaltyReceiver"])
	for key, dst := range map[string]**big.Int{
		"price":          &report.Price,
		"fee":            &report.Fee,
		"royalty":        &report.Royalty,
		"sellerProceeds": &report.SellerProceeds,
	} {
		v, ok := new(big.Int).SetString(args[key], 10)
		if !ok {
			return report, fmt.Errorf("malformed %s in %s: %q", key, auction.EventAuctionEnded, args[key])
		}
		*dst = v
	}

	settled, err := w.ERC20Balance(bidToken, first.Address)
	if err != nil {
		return report, err
	}
	report.FirstRefund = new(big.Int).Sub(settled, afterBid)
	if report.NewOwner, err = w.OwnerOf(collection, nft.ID); err != nil {
		return report, err
	}

	w.logger.Info("auction scenario settled",
		zap.String("auction", report.AuctionID.Hex()),
		zap.String("price", asset.FormatUnits(report.Price, 18)),
		zap.String("fee", asset.FormatUnits(report.Fee, 18)),
		zap.String("sellerProceeds", asset.FormatUnits(report.SellerProceeds, 18)))
	return report, nil
}
