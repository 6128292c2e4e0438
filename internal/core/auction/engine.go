// Package auction implements English auctions over NFTs held in custody by
// the executing contract. Auctions are identified by a hash of their terms,
// tracked in a Ledger, and tombstoned once ended or deleted.
package auction

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/LeJamon/goNFTMarket/internal/core/access"
	"github.com/LeJamon/goNFTMarket/internal/core/asset"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/royalty"
	"github.com/LeJamon/goNFTMarket/internal/core/token"
	"github.com/LeJamon/goNFTMarket/internal/core/transfer"
)

const (
	reasonPaused        = "NftMarketplaceV2: Creation paused"
	reasonOnlyNFT       = "NftMarketplaceV2: Only NFT"
	reasonNotContract   = "NftMarketplaceV2: Not a contract"
	reasonERC721Type    = "NftMarketplaceV2: ERC721 type"
	reasonERC1155Type   = "NftMarketplaceV2: ERC1155 type"
	reasonERC721Amount  = "NftMarketplaceV2: ERC721 amount"
	reasonERC1155Amount = "NftMarketplaceV2: ERC1155 amount"
	reasonTime          = "NftMarketplaceV2: Wrong start/end time"
	reasonBidToken      = "NftMarketplaceV2: bidToken is not a contract"
	reasonBidTokenSelf  = "NftMarketplaceV2: bidToken is the marketplace"
	reasonCompleted     = "NftMarketplaceV2: Auction is completed"
	reasonExisting      = "NftMarketplaceV2: Existing auction"
	reasonNoSuchAuction = "NftMarketplaceV2: No such open auction"
	reasonNotStarted    = "NftMarketplaceV2: Auction is not started"
	reasonEnded         = "NftMarketplaceV2: Auction has ended"
	reasonTooLow        = "NftMarketplaceV2: Too low amount"
	reasonUseBid        = "NftMarketplaceV2: Use {bid} function"
	reasonNeedNoValue   = "NftMarketplaceV2: Not native, need no value"
	reasonWrongAmount   = "NftMarketplaceV2: Wrong amount"
	reasonNotEnded      = "NftMarketplaceV2: Not ended yet"
	reasonNothing       = "NftMarketplaceV2: Nothing to withdraw"
)

// DefaultRecoveryGasCap bounds a best-effort leg when the caller asks for
// a gas cap.
const DefaultRecoveryGasCap uint64 = 200_000

const feeDenominator = 10000

// Terms exposes the marketplace settings the engine reads.
type Terms interface {
	FeeInfo(f *host.Frame) (bps uint64, receiver common.Address, err error)
	IsPausedCreation(f *host.Frame) (bool, error)
}

// Royalties resolves the royalty owed on a sale.
type Royalties interface {
	Resolve(f *host.Frame, collection common.Address, tokenID, salePrice *big.Int) (royalty.Quote, error)
}

// Engine runs the auction lifecycle against the state of the executing
// contract.
type Engine struct {
	Ledger  Ledger
	Terms   Terms
	Royalty Royalties
	Auth    access.Authorizer
	Refunds RefundPolicy
	// RecoveryGasCap is the gas budget of capped best-effort legs. Zero
	// means DefaultRecoveryGasCap.
	RecoveryGasCap uint64
	Logger         *zap.Logger
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Engine) gasCap() uint64 {
	if e.RecoveryGasCap == 0 {
		return DefaultRecoveryGasCap
	}
	return e.RecoveryGasCap
}

// CreateAuction takes d into custody from the caller and opens an auction
// on it. It returns the auction id.
func (e *Engine) CreateAuction(f *host.Frame, d asset.Descriptor, startTime, endTime uint64, minPrice *big.Int, bidToken common.Address) (common.Hash, error) {
	paused, err := e.Terms.IsPausedCreation(f)
	if err != nil {
		return common.Hash{}, err
	}
	if paused {
		return common.Hash{}, host.Revert(reasonPaused)
	}
	if err := e.checkAsset(f, d); err != nil {
		return common.Hash{}, err
	}
	if startTime >= endTime || endTime <= f.Timestamp() {
		return common.Hash{}, host.Revert(reasonTime)
	}
	if !asset.IsNative(bidToken) {
		if !f.Host().IsContract(bidToken) {
			return common.Hash{}, host.Revert(reasonBidToken)
		}
		if bidToken == f.Self {
			return common.Hash{}, host.Revert(reasonBidTokenSelf)
		}
	}
	if minPrice == nil {
		minPrice = new(big.Int)
	}

	seller := f.Caller
	id, err := ID(d, seller, startTime, endTime, bidToken)
	if err != nil {
		return common.Hash{}, err
	}
	a := Auction{
		TokenInfo:     d,
		Seller:        seller,
		StartTime:     startTime,
		EndTime:       endTime,
		MinPrice:      new(big.Int).Set(minPrice),
		BidToken:      bidToken,
		LastBidAmount: new(big.Int),
	}
	if err := e.Ledger.Insert(f, id, a); err != nil {
		return common.Hash{}, err
	}
	if err := transfer.In(f, d, seller); err != nil {
		return common.Hash{}, err
	}
	if err := emitCreated(f, id, a); err != nil {
		return common.Hash{}, err
	}
	e.logger().Debug("auction created",
		zap.String("auction", id.Hex()),
		zap.String("seller", seller.Hex()),
		zap.Stringer("asset", d))
	return id, nil
}

func (e *Engine) checkAsset(f *host.Frame, d asset.Descriptor) error {
	var typeID host.InterfaceID
	var typeReason string
	switch d.Kind {
	case asset.KindERC20:
		return host.Revert(reasonOnlyNFT)
	case asset.KindERC721:
		typeID, typeReason = token.InterfaceERC721, reasonERC721Type
	case asset.KindERC1155:
		typeID, typeReason = token.InterfaceERC1155, reasonERC1155Type
	default:
		return host.Revert("")
	}
	if !f.Host().IsContract(d.Contract) {
		return host.Revert(reasonNotContract)
	}
	ok, err := f.Host().SupportsInterface(f, d.Contract, typeID)
	if err != nil {
		return err
	}
	if !ok {
		return host.Revert(typeReason)
	}
	amount := d.AmountOrZero()
	if d.Kind == asset.KindERC721 && amount.Sign() != 0 {
		return host.Revert(reasonERC721Amount)
	}
	if d.Kind == asset.KindERC1155 && amount.Sign() <= 0 {
		return host.Revert(reasonERC1155Amount)
	}
	return nil
}

// Bid places a bid of amount. ERC20 auctions pull amount from the caller.
// Native auctions accept the call value, which must equal amount.
func (e *Engine) Bid(f *host.Frame, id common.Hash, amount *big.Int) error {
	a, err := e.biddable(f, id, amount)
	if err != nil {
		return err
	}
	native := asset.IsNative(a.BidToken)
	if f.Value.Sign() != 0 {
		if !native {
			return host.Revert(reasonNeedNoValue)
		}
		if f.Value.Cmp(amount) != 0 {
			return host.Revert(reasonWrongAmount)
		}
		return e.placeBid(f, id, a, amount, false)
	}
	return e.placeBid(f, id, a, amount, true)
}

// BidNative places a bid of the call value on a native auction.
func (e *Engine) BidNative(f *host.Frame, id common.Hash) error {
	amount := new(big.Int).Set(f.Value)
	a, err := e.biddable(f, id, amount)
	if err != nil {
		return err
	}
	if !asset.IsNative(a.BidToken) {
		return host.Revert(reasonUseBid)
	}
	return e.placeBid(f, id, a, amount, false)
}

func (e *Engine) biddable(f *host.Frame, id common.Hash, amount *big.Int) (Auction, error) {
	a, found, err := e.Ledger.Get(f, id)
	if err != nil {
		return Auction{}, err
	}
	if !found {
		return Auction{}, host.Revert(reasonNoSuchAuction)
	}
	now := f.Timestamp()
	if now < a.StartTime {
		return Auction{}, host.Revert(reasonNotStarted)
	}
	if now >= a.EndTime {
		return Auction{}, host.Revert(reasonEnded)
	}
	if amount == nil || amount.Cmp(a.LastBidAmount) <= 0 || amount.Cmp(a.MinPrice) < 0 {
		return Auction{}, host.Revert(reasonTooLow)
	}
	return a, nil
}

func (e *Engine) placeBid(f *host.Frame, id common.Hash, a Auction, amount *big.Int, pull bool) error {
	bidder := f.Caller
	if err := e.Ledger.UpdateBid(f, id, bidder, amount); err != nil {
		return err
	}
	if pull {
		if err := transfer.PayIn(f, a.BidToken, bidder, amount); err != nil {
			return err
		}
	}
	if a.HasBid() {
		if err := e.refund(f, id, a); err != nil {
			return err
		}
	}
	return emitBid(f, id, bidder, amount)
}

// refund returns the superseded bid. Under the lenient policy a failed
// refund stays in custody as a pending refund of the previous bidder.
func (e *Engine) refund(f *host.Frame, id common.Hash, prev Auction) error {
	p := transfer.Strict()
	if e.Refunds == RefundLenient {
		p = transfer.BestEffort(e.gasCap())
	}
	out, err := transfer.PayOut(f, prev.BidToken, prev.LastBidder, prev.LastBidAmount, p)
	if err != nil {
		return err
	}
	if out.OK() {
		return nil
	}
	e.logger().Warn("refund failed",
		zap.String("auction", id.Hex()),
		zap.String("bidder", prev.LastBidder.Hex()),
		zap.Stringer("failure", out.Failure),
		zap.String("reason", out.Reason))
	if err := credit(f, prev.BidToken, prev.LastBidder, prev.LastBidAmount); err != nil {
		return err
	}
	return emitRefundFailed(f, id, prev.LastBidder, prev.LastBidAmount, out)
}

// EndAuction settles an auction whose end time has passed. Anyone may call
// it. Every leg must succeed.
func (e *Engine) EndAuction(f *host.Frame, id common.Hash) error {
	a, found, err := e.Ledger.Get(f, id)
	if err != nil {
		return err
	}
	if !found {
		return host.Revert(reasonNoSuchAuction)
	}
	if f.Timestamp() < a.EndTime {
		return host.Revert(reasonNotEnded)
	}
	if err := e.Ledger.Remove(f, id); err != nil {
		return err
	}

	if !a.HasBid() {
		if _, err := transfer.Out(f, a.TokenInfo, a.Seller, transfer.Strict()); err != nil {
			return err
		}
		return emitEnded(f, id, a, Settlement{Fee: new(big.Int), Royalty: new(big.Int), Seller: new(big.Int)})
	}

	s, err := e.Settle(f, a)
	if err != nil {
		return err
	}
	strict := transfer.Strict()
	if s.Fee.Sign() > 0 {
		if _, err := transfer.PayOut(f, a.BidToken, s.FeeReceiver, s.Fee, strict); err != nil {
			return err
		}
	}
	if s.Royalty.Sign() > 0 {
		if _, err := transfer.PayOut(f, a.BidToken, s.RoyaltyReceiver, s.Royalty, strict); err != nil {
			return err
		}
	}
	if s.Seller.Sign() > 0 {
		if _, err := transfer.PayOut(f, a.BidToken, a.Seller, s.Seller, strict); err != nil {
			return err
		}
	}
	if _, err := transfer.Out(f, a.TokenInfo, a.LastBidder, strict); err != nil {
		return err
	}
	e.logger().Debug("auction ended",
		zap.String("auction", id.Hex()),
		zap.String("winner", a.LastBidder.Hex()),
		zap.String("price", a.LastBidAmount.String()))
	return emitEnded(f, id, a, s)
}

// Settlement is the split of a winning bid.
type Settlement struct {
	Fee             *big.Int
	FeeReceiver     common.Address
	Royalty         *big.Int
	RoyaltyReceiver common.Address
	RoyaltySource   royalty.Source
	Seller          *big.Int
}

// Settle computes the split of the last bid of a. Fee and royalty are
// truncated; the seller gets the remainder. The royalty never exceeds what
// is left after the fee.
func (e *Engine) Settle(f *host.Frame, a Auction) (Settlement, error) {
	price := a.LastBidAmount
	bps, receiver, err := e.Terms.FeeInfo(f)
	if err != nil {
		return Settlement{}, err
	}
	fee := new(big.Int).Mul(price, new(big.Int).SetUint64(bps))
	fee.Div(fee, big.NewInt(feeDenominator))

	q, err := e.Royalty.Resolve(f, a.TokenInfo.Contract, a.TokenInfo.IDOrZero(), price)
	if err != nil {
		return Settlement{}, err
	}
	amount := new(big.Int)
	if q.Receiver != (common.Address{}) && q.Amount != nil {
		amount.Set(q.Amount)
	}
	rest := new(big.Int).Sub(price, fee)
	if amount.Cmp(rest) > 0 {
		amount.Set(rest)
	}
	return Settlement{
		Fee:             fee,
		FeeReceiver:     receiver,
		Royalty:         amount,
		RoyaltyReceiver: q.Receiver,
		RoyaltySource:   q.Source,
		Seller:          rest.Sub(rest, amount),
	}, nil
}

// DeleteAuction unwinds an open auction. The NFT goes back to the seller
// and the last bid back to the bidder, each leg under its own policy.
// The auction is tombstoned whether or not a best-effort leg succeeds.
func (e *Engine) DeleteAuction(f *host.Frame, id common.Hash, requireSuccessSeller, capGasSeller, requireSuccessBuyer, capGasBuyer bool) error {
	if err := access.Require(f, e.Auth, access.AuctionManagerRole); err != nil {
		return err
	}
	a, found, err := e.Ledger.Get(f, id)
	if err != nil {
		return err
	}
	if !found {
		return host.Revert(reasonNoSuchAuction)
	}
	if err := e.Ledger.Remove(f, id); err != nil {
		return err
	}

	nft, err := transfer.Out(f, a.TokenInfo, a.Seller, transfer.FromFlags(requireSuccessSeller, capGasSeller, e.gasCap()))
	if err != nil {
		return err
	}
	if !nft.OK() {
		if err := e.legFailed(f, id, LegSeller, a.Seller, nft); err != nil {
			return err
		}
	}

	funds := transfer.Outcome{}
	if a.HasBid() {
		funds, err = transfer.PayOut(f, a.BidToken, a.LastBidder, a.LastBidAmount, transfer.FromFlags(requireSuccessBuyer, capGasBuyer, e.gasCap()))
		if err != nil {
			return err
		}
		if !funds.OK() {
			if err := e.legFailed(f, id, LegBuyer, a.LastBidder, funds); err != nil {
				return err
			}
		}
	}
	return emitDeleted(f, id, nft, funds)
}

func (e *Engine) legFailed(f *host.Frame, id common.Hash, leg Leg, to common.Address, out transfer.Outcome) error {
	e.logger().Warn("recovery leg failed",
		zap.String("auction", id.Hex()),
		zap.Stringer("leg", leg),
		zap.Stringer("failure", out.Failure),
		zap.String("reason", out.Reason))
	return emitTransferFailed(f, id, leg, to, out)
}

// WithdrawRefund pays the caller the refunds of bidToken held for them.
func (e *Engine) WithdrawRefund(f *host.Frame, bidToken common.Address) error {
	amount, err := PendingRefund(f, bidToken, f.Caller)
	if err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return host.Revert(reasonNothing)
	}
	if err := clearRefund(f, bidToken, f.Caller); err != nil {
		return err
	}
	if _, err := transfer.PayOut(f, bidToken, f.Caller, amount, transfer.Strict()); err != nil {
		return err
	}
	return emitRefundWithdrawn(f, bidToken, f.Caller, amount)
}
