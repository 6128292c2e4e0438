package auction_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	engine "github.com/LeJamon/goNFTMarket/internal/core/auction"
	jtx "github.com/LeJamon/goNFTMarket/internal/testing"
	"github.com/LeJamon/goNFTMarket/internal/testing/auction"
)

// ---------------------------------------------------------------------------
// Window
// ---------------------------------------------------------------------------

func TestBidWindowBoundaries(t *testing.T) {
	w := newWorld(t)
	env := w.env
	id, start, end := w.listNative(t)

	env.SetTime(start - 1)
	jtx.RequireReason(t, env.Submit(auction.Bid(w.alice, id, jtx.Ether(10)).Native().Build()),
		"NftMarketplaceV2: Auction is not started")

	env.SetTime(start)
	jtx.RequireTxSuccess(t, env.Submit(auction.Bid(w.alice, id, jtx.Ether(10)).Native().Build()))

	env.SetTime(end - 1)
	jtx.RequireTxSuccess(t, env.Submit(auction.Bid(w.bob, id, jtx.Ether(11)).Native().Build()))

	env.SetTime(end)
	jtx.RequireReason(t, env.Submit(auction.Bid(w.carol, id, jtx.Ether(12)).Native().Build()),
		"NftMarketplaceV2: Auction has ended")
}

func TestBidUnknownAuction(t *testing.T) {
	w := newWorld(t)
	jtx.RequireReason(t, w.env.Submit(auction.Bid(w.alice, common.HexToHash("0x01"), jtx.Ether(1)).Native().Build()),
		"NftMarketplaceV2: No such open auction")
}

// ---------------------------------------------------------------------------
// Amounts
// ---------------------------------------------------------------------------

func TestBidsStrictlyIncrease(t *testing.T) {
	w := newWorld(t)
	env := w.env
	id, start, _ := w.listNative(t)
	env.SetTime(start)

	jtx.RequireReason(t, env.Submit(auction.Bid(w.alice, id, jtx.MustUnits("9.99")).Native().Build()),
		"NftMarketplaceV2: Too low amount")
	jtx.RequireTxSuccess(t, env.Submit(auction.Bid(w.alice, id, jtx.Ether(10)).Native().Build()))
	jtx.RequireReason(t, env.Submit(auction.Bid(w.bob, id, jtx.Ether(10)).Native().Build()),
		"NftMarketplaceV2: Too low amount")
	jtx.RequireReason(t, env.Submit(auction.Bid(w.bob, id, jtx.Ether(9)).Native().Build()),
		"NftMarketplaceV2: Too low amount")
	jtx.RequireTxSuccess(t, env.Submit(auction.Bid(w.bob, id, new(big.Int).Add(jtx.Ether(10), jtx.Wei(1))).Native().Build()))

	a := auction.Data(env, id)
	require.Equal(t, w.bob.Address, a.LastBidder)
	require.Equal(t, new(big.Int).Add(jtx.Ether(10), jtx.Wei(1)), a.LastBidAmount)
}

func TestNativeBidOutbidRefund(t *testing.T) {
	w := newWorld(t)
	env := w.env
	id, start, _ := w.listNative(t)
	env.SetTime(start)

	jtx.AssertBalanceChange(t, env, w.alice.Address, new(big.Int).Neg(jtx.Ether(10)), func() {
		jtx.RequireTxSuccess(t, env.Submit(auction.Bid(w.alice, id, jtx.Ether(10)).Native().Build()))
	})
	jtx.RequireBalance(t, env, env.MarketAddress(), jtx.Ether(10))

	jtx.AssertBalanceChange(t, env, w.alice.Address, jtx.Ether(10), func() {
		r := env.Submit(auction.Bid(w.bob, id, jtx.Ether(15)).Native().Build())
		jtx.RequireTxSuccess(t, r)
		jtx.RequireEvent(t, r, engine.EventBidPlaced)
		jtx.RequireNoEvent(t, r, engine.EventRefundFailed)
	})
	jtx.RequireBalance(t, env, env.MarketAddress(), jtx.Ether(15))
}

func TestERC20BidsConserveCustody(t *testing.T) {
	w := newWorld(t)
	env := w.env
	id, start, _ := w.listERC20(t)
	env.SetTime(start)

	bids := []struct {
		who    *jtx.Account
		amount *big.Int
	}{
		{w.alice, jtx.Ether(10)},
		{w.bob, jtx.Ether(12)},
		{w.carol, jtx.Ether(20)},
		{w.alice, jtx.Ether(21)},
	}
	for _, b := range bids {
		jtx.RequireTxSuccess(t, env.Submit(auction.Bid(b.who, id, b.amount).Build()))
		jtx.RequireERC20Balance(t, env, w.currency, env.MarketAddress(), b.amount)
	}
	jtx.RequireERC20Balance(t, env, w.currency, w.alice.Address, jtx.Ether(979))
	jtx.RequireERC20Balance(t, env, w.currency, w.bob.Address, jtx.Ether(1000))
	jtx.RequireERC20Balance(t, env, w.currency, w.carol.Address, jtx.Ether(1000))
	require.Equal(t, jtx.Ether(3000), sumERC20(env, w.currency,
		w.alice.Address, w.bob.Address, w.carol.Address, env.MarketAddress()))
}

// ---------------------------------------------------------------------------
// Entry point and call value
// ---------------------------------------------------------------------------

func TestBidEntryPoints(t *testing.T) {
	w := newWorld(t)
	env := w.env
	native, start, _ := w.listNative(t)

	env.MintNFT(w.nft, w.seller, 2)
	erc20 := auction.Create(w.seller, tokenTwo(w)).Window(start, start+day).MinPrice(jtx.Ether(1)).BidToken(w.currency)
	jtx.RequireTxSuccess(t, env.Submit(erc20.Build()))
	env.SetTime(start)

	t.Run("bidNative on erc20 auction", func(t *testing.T) {
		jtx.RequireReason(t, env.Submit(auction.Bid(w.alice, erc20.ID(), jtx.Ether(2)).Native().Build()),
			"NftMarketplaceV2: Use {bid} function")
	})
	t.Run("value on erc20 auction", func(t *testing.T) {
		jtx.RequireReason(t, env.Submit(auction.Bid(w.alice, erc20.ID(), jtx.Ether(2)).Value(jtx.Ether(2)).Build()),
			"NftMarketplaceV2: Not native, need no value")
	})
	t.Run("value mismatch on native auction", func(t *testing.T) {
		jtx.RequireReason(t, env.Submit(auction.Bid(w.alice, native, jtx.Ether(10)).Value(jtx.Ether(11)).Build()),
			"NftMarketplaceV2: Wrong amount")
	})
	t.Run("no value on native auction", func(t *testing.T) {
		jtx.RequireReason(t, env.Submit(auction.Bid(w.alice, native, jtx.Ether(10)).Build()),
			"NftMarketplaceV2: Token is not a contract")
	})
	t.Run("bid with matching value on native auction", func(t *testing.T) {
		jtx.RequireTxSuccess(t, env.Submit(auction.Bid(w.alice, native, jtx.Ether(10)).Value(jtx.Ether(10)).Build()))
		require.Equal(t, w.alice.Address, auction.Data(env, native).LastBidder)
	})
	t.Run("bid on erc20 auction", func(t *testing.T) {
		jtx.RequireTxSuccess(t, env.Submit(auction.Bid(w.alice, erc20.ID(), jtx.Ether(2)).Build()))
		jtx.RequireERC20Balance(t, env, w.currency, env.MarketAddress(), jtx.Ether(2))
	})
}

func TestERC20BidWithoutAllowance(t *testing.T) {
	w := newWorld(t)
	env := w.env
	id, start, _ := w.listERC20(t)
	env.SetTime(start)

	// dave holds the currency but never approved the marketplace.
	dave := env.Account("dave")
	env.Fund(dave)
	env.MintERC20(w.currency, dave, jtx.Ether(50))
	env.MustExec(dave, w.currency, approve(env, w.currency, env.MarketAddress(), new(big.Int)))

	r := env.Submit(auction.Bid(dave, id, jtx.Ether(10)).Build())
	require.False(t, r.Success)
	require.Equal(t, 0, auction.Data(env, id).LastBidAmount.Sign())
	jtx.RequireERC20Balance(t, env, w.currency, dave.Address, jtx.Ether(50))
}
