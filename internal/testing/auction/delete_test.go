package auction_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goNFTMarket/internal/core/asset"
	engine "github.com/LeJamon/goNFTMarket/internal/core/auction"
	"github.com/LeJamon/goNFTMarket/internal/core/token"
	jtx "github.com/LeJamon/goNFTMarket/internal/testing"
	"github.com/LeJamon/goNFTMarket/internal/testing/auction"
)

// ---------------------------------------------------------------------------
// Honest assets
// ---------------------------------------------------------------------------

func TestDeleteReturnsBothLegs(t *testing.T) {
	w := newWorld(t)
	env := w.env
	id, start, _ := w.listERC20(t)
	env.SetTime(start)
	jtx.RequireTxSuccess(t, env.Submit(auction.Bid(w.alice, id, jtx.Ether(15)).Build()))

	r := env.Submit(auction.Delete(env.Deployer, id).Build())
	jtx.RequireTxSuccess(t, r)
	ev := jtx.RequireEvent(t, r, engine.EventAuctionDeleted)
	require.Equal(t, "none", ev.Args["seller"])
	require.Equal(t, "none", ev.Args["buyer"])
	jtx.RequireNoEvent(t, r, engine.EventTransferFailed)

	jtx.RequireOwner(t, env, w.nft, 1, w.seller.Address)
	jtx.RequireERC20Balance(t, env, w.currency, w.alice.Address, jtx.Ether(1000))
	require.True(t, auction.Completed(env, id))
	require.Empty(t, auction.Active(env))
}

func TestDeleteWithoutBid(t *testing.T) {
	w := newWorld(t)
	env := w.env
	id, _, _ := w.listNative(t)

	r := env.Submit(auction.Delete(env.Deployer, id).Build())
	jtx.RequireTxSuccess(t, r)
	jtx.RequireEvent(t, r, engine.EventAuctionDeleted)
	jtx.RequireOwner(t, env, w.nft, 1, w.seller.Address)
}

func TestDeleteAfterEnd(t *testing.T) {
	w := newWorld(t)
	env := w.env
	id, start, end := w.listNative(t)
	env.SetTime(start)
	jtx.RequireTxSuccess(t, env.Submit(auction.Bid(w.alice, id, jtx.Ether(10)).Native().Build()))
	env.SetTime(end + day)

	// An ended but unsettled auction can still be unwound.
	jtx.AssertBalanceChange(t, env, w.alice.Address, jtx.Ether(10), func() {
		jtx.RequireTxSuccess(t, env.Submit(auction.Delete(env.Deployer, id).Build()))
	})
	jtx.RequireReason(t, env.Submit(auction.End(w.alice, id)), "NftMarketplaceV2: No such open auction")
}

func TestDeleteAccessAndExistence(t *testing.T) {
	w := newWorld(t)
	env := w.env
	id, _, _ := w.listNative(t)

	r := env.Submit(auction.Delete(w.alice, id).Build())
	jtx.RequireTxFail(t, r, jtx.CodeReverted)
	require.Contains(t, r.Message, "AccessControl: account "+lowerHex(w.alice))
	require.Contains(t, r.Message, "is missing role")

	jtx.RequireTxSuccess(t, env.Submit(auction.Delete(env.Deployer, id).Build()))
	jtx.RequireReason(t, env.Submit(auction.Delete(env.Deployer, id).Build()), "NftMarketplaceV2: No such open auction")
}

// ---------------------------------------------------------------------------
// Hostile NFTs
// ---------------------------------------------------------------------------

func TestDeleteWithGasGriefingNFT(t *testing.T) {
	w := newWorld(t)
	env := w.env
	id, start, end := w.listNative(t)
	env.SetTime(start)
	jtx.RequireTxSuccess(t, env.Submit(auction.Bid(w.alice, id, jtx.Ether(10)).Native().Build()))
	env.SetBehaviour(w.nft, token.BurningGas)
	env.SetTime(end)

	r := env.Submit(auction.End(w.bob, id))
	require.False(t, r.Success)

	r = env.Submit(auction.Delete(env.Deployer, id).Seller(true, false).Buyer(true, false).Build())
	require.False(t, r.Success)
	require.False(t, auction.Completed(env, id))

	jtx.AssertBalanceChange(t, env, w.alice.Address, jtx.Ether(10), func() {
		r = env.Submit(auction.Delete(env.Deployer, id).Seller(false, true).Buyer(true, false).Build())
		jtx.RequireTxSuccess(t, r)
	})
	ev := jtx.RequireEvent(t, r, engine.EventTransferFailed)
	require.Equal(t, "seller", ev.Args["leg"])
	require.Equal(t, "outOfGas", ev.Args["failure"])

	jtx.RequireOwner(t, env, w.nft, 1, env.MarketAddress())
	jtx.RequireBalance(t, env, env.MarketAddress(), new(big.Int))
	require.True(t, auction.Completed(env, id))
}

func TestDeleteWithRevertingNFT(t *testing.T) {
	w := newWorld(t)
	env := w.env
	id, start, _ := w.listERC20(t)
	env.SetTime(start)
	jtx.RequireTxSuccess(t, env.Submit(auction.Bid(w.alice, id, jtx.Ether(10)).Build()))
	env.SetBehaviour(w.nft, token.Reverting)

	jtx.RequireReason(t, env.Submit(auction.Delete(env.Deployer, id).Build()), "ERC721 transfer revert")

	r := env.Submit(auction.Delete(env.Deployer, id).Seller(false, false).Buyer(true, false).Build())
	jtx.RequireTxSuccess(t, r)
	ev := jtx.RequireEvent(t, r, engine.EventTransferFailed)
	require.Equal(t, "reverted", ev.Args["failure"])
	require.Equal(t, "ERC721 transfer revert", ev.Args["reason"])

	jtx.RequireOwner(t, env, w.nft, 1, env.MarketAddress())
	jtx.RequireERC20Balance(t, env, w.currency, w.alice.Address, jtx.Ether(1000))
}

func TestDeleteWithRejectingSellerWallet(t *testing.T) {
	w := newWorld(t)
	env := w.env
	wallet, seller := env.DeployWallet(w.seller)
	env.MintNFT(w.nft, w.seller, 5)
	env.MustExec(w.seller, w.nft, transferNFT(env, w.nft, w.seller, seller, 5))
	env.MustExec(w.seller, seller.Address, approveAllFromWallet(env, wallet, w.nft))

	b := auction.Create(seller, asset.ERC721(w.nft, big.NewInt(5))).Window(env.Now(), env.Now()+day)
	jtx.RequireTxSuccess(t, walletSubmit(env, wallet, w.seller, seller, b.Build()))
	env.SetBehaviour(seller.Address, token.Reverting)

	r := env.Submit(auction.Delete(env.Deployer, b.ID()).Seller(false, false).Build())
	jtx.RequireTxSuccess(t, r)
	ev := jtx.RequireEvent(t, r, engine.EventTransferFailed)
	require.Equal(t, seller.Address.Hex(), ev.Args["to"])
	jtx.RequireOwner(t, env, w.nft, 5, env.MarketAddress())
}

// ---------------------------------------------------------------------------
// Hostile ERC20 bid tokens
// ---------------------------------------------------------------------------

func TestDeleteWithGasGriefingERC20(t *testing.T) {
	w := newWorld(t)
	env := w.env
	id, start, end := w.listERC20(t)
	env.SetTime(start)
	jtx.RequireTxSuccess(t, env.Submit(auction.Bid(w.alice, id, jtx.Ether(10)).Build()))
	env.SetBehaviour(w.currency, token.BurningGas)
	env.SetTime(end)

	// Settlement pays the seller in the bid token and cannot go through.
	require.False(t, env.Submit(auction.End(w.bob, id)).Success)
	require.False(t, auction.Completed(env, id))
	require.False(t, env.Submit(auction.Delete(env.Deployer, id).Build()).Success)

	r := env.Submit(auction.Delete(env.Deployer, id).Seller(true, false).Buyer(false, true).Build())
	jtx.RequireTxSuccess(t, r)
	ev := jtx.RequireEvent(t, r, engine.EventTransferFailed)
	require.Equal(t, "buyer", ev.Args["leg"])
	require.Equal(t, "outOfGas", ev.Args["failure"])

	jtx.RequireOwner(t, env, w.nft, 1, w.seller.Address)
	require.True(t, auction.Completed(env, id))
	env.SetBehaviour(w.currency, token.Honest)
	jtx.RequireERC20Balance(t, env, w.currency, env.MarketAddress(), jtx.Ether(10))
}

func TestDeleteWithFailingERC20(t *testing.T) {
	tests := []struct {
		behaviour token.Behaviour
		failure   string
	}{
		{token.ReturningFalse, "rejected"},
		{token.Reverting, "reverted"},
	}
	for _, tc := range tests {
		t.Run(tc.behaviour.String(), func(t *testing.T) {
			w := newWorld(t)
			env := w.env
			id, start, end := w.listERC20(t)
			env.SetTime(start)
			jtx.RequireTxSuccess(t, env.Submit(auction.Bid(w.alice, id, jtx.Ether(10)).Build()))
			env.SetBehaviour(w.currency, tc.behaviour)
			env.SetTime(end)

			require.False(t, env.Submit(auction.End(w.bob, id)).Success)
			require.False(t, auction.Completed(env, id))
			require.False(t, env.Submit(auction.Delete(env.Deployer, id).Build()).Success)

			r := env.Submit(auction.Delete(env.Deployer, id).Seller(true, false).Buyer(false, false).Build())
			jtx.RequireTxSuccess(t, r)
			ev := jtx.RequireEvent(t, r, engine.EventTransferFailed)
			require.Equal(t, tc.failure, ev.Args["failure"])
			require.Equal(t, tc.failure, jtx.RequireEvent(t, r, engine.EventAuctionDeleted).Args["buyer"])

			jtx.RequireOwner(t, env, w.nft, 1, w.seller.Address)
			require.True(t, auction.Completed(env, id))
			env.SetBehaviour(w.currency, token.Honest)
			jtx.RequireERC20Balance(t, env, w.currency, env.MarketAddress(), jtx.Ether(10))
			jtx.RequireERC20Balance(t, env, w.currency, w.alice.Address, jtx.Ether(990))
		})
	}
}

func TestDeleteNoReturnValueERC20Succeeds(t *testing.T) {
	w := newWorld(t)
	env := w.env
	id, start, _ := w.listERC20(t)
	env.SetTime(start)
	jtx.RequireTxSuccess(t, env.Submit(auction.Bid(w.alice, id, jtx.Ether(10)).Build()))
	env.SetBehaviour(w.currency, token.NoReturnValue)

	r := env.Submit(auction.Delete(env.Deployer, id).Build())
	jtx.RequireTxSuccess(t, r)
	jtx.RequireNoEvent(t, r, engine.EventTransferFailed)
	jtx.RequireERC20Balance(t, env, w.currency, w.alice.Address, jtx.Ether(1000))
}
