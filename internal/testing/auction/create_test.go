package auction_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goNFTMarket/internal/core/asset"
	engine "github.com/LeJamon/goNFTMarket/internal/core/auction"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/market"
	jtx "github.com/LeJamon/goNFTMarket/internal/testing"
	"github.com/LeJamon/goNFTMarket/internal/testing/auction"
)

func TestCreateAuction(t *testing.T) {
	w := newWorld(t)
	env := w.env
	id, start, end := w.listNative(t)

	jtx.RequireOwner(t, env, w.nft, 1, env.MarketAddress())
	a := auction.Data(env, id)
	require.Equal(t, w.seller.Address, a.Seller)
	require.Equal(t, start, a.StartTime)
	require.Equal(t, end, a.EndTime)
	require.Equal(t, asset.NativeToken, a.BidToken)
	require.Equal(t, 0, a.LastBidAmount.Sign())
	require.Equal(t, common.Address{}, a.LastBidder)
	require.Equal(t, []common.Hash{id}, auction.Active(env))
	require.False(t, auction.Completed(env, id))
}

func TestCreateAuctionValidation(t *testing.T) {
	w := newWorld(t)
	env := w.env
	now := env.Now()
	multi := env.DeployMultiCollection()
	env.MintMulti(multi, w.seller, 7, 5)

	tests := []struct {
		name     string
		token    asset.Descriptor
		start    uint64
		end      uint64
		bidToken common.Address
		reason   string
	}{
		{"erc20 asset", asset.ERC20(w.currency, big.NewInt(1)), now, now + day, asset.NativeToken, "NftMarketplaceV2: Only NFT"},
		{"unknown kind", asset.Descriptor{Kind: 7, Contract: w.nft}, now, now + day, asset.NativeToken, ""},
		{"not a contract", asset.ERC721(w.alice.Address, big.NewInt(1)), now, now + day, asset.NativeToken, "NftMarketplaceV2: Not a contract"},
		{"erc721 declared for erc1155", asset.ERC721(multi, big.NewInt(7)), now, now + day, asset.NativeToken, "NftMarketplaceV2: ERC721 type"},
		{"erc1155 declared for erc721", asset.ERC1155(w.nft, big.NewInt(1), big.NewInt(1)), now, now + day, asset.NativeToken, "NftMarketplaceV2: ERC1155 type"},
		{"erc721 with amount", asset.Descriptor{Kind: asset.KindERC721, Contract: w.nft, ID: big.NewInt(1), Amount: big.NewInt(1)}, now, now + day, asset.NativeToken, "NftMarketplaceV2: ERC721 amount"},
		{"erc1155 without amount", asset.ERC1155(multi, big.NewInt(7), big.NewInt(0)), now, now + day, asset.NativeToken, "NftMarketplaceV2: ERC1155 amount"},
		{"start after end", w.token(), now + day, now + hour, asset.NativeToken, "NftMarketplaceV2: Wrong start/end time"},
		{"start equals end", w.token(), now + day, now + day, asset.NativeToken, "NftMarketplaceV2: Wrong start/end time"},
		{"end in the past", w.token(), now - day, now - hour, asset.NativeToken, "NftMarketplaceV2: Wrong start/end time"},
		{"bid token without code", w.token(), now, now + day, w.bob.Address, "NftMarketplaceV2: bidToken is not a contract"},
		{"bid token is the marketplace", w.token(), now, now + day, env.MarketAddress(), "NftMarketplaceV2: bidToken is the marketplace"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := auction.Create(w.seller, tc.token).Window(tc.start, tc.end).BidToken(tc.bidToken)
			jtx.RequireReason(t, env.Submit(b.Build()), tc.reason)
		})
	}
	require.Empty(t, auction.Active(env))
}

func TestCreateERC1155Auction(t *testing.T) {
	w := newWorld(t)
	env := w.env
	multi := env.DeployMultiCollection()
	env.MintMulti(multi, w.seller, 7, 5)

	b := auction.Create(w.seller, asset.ERC1155(multi, big.NewInt(7), big.NewInt(3))).
		Window(env.Now(), env.Now()+day).
		MinPrice(jtx.Ether(1))
	r := env.Submit(b.Build())
	jtx.RequireTxSuccess(t, r)
	jtx.RequireEvent(t, r, engine.EventAuctionCreated)
	require.Equal(t, big.NewInt(3), env.MultiBalance(multi, env.MarketAddress(), 7))
	require.Equal(t, big.NewInt(2), env.MultiBalance(multi, w.seller.Address, 7))
}

func TestCreateRequiresCustody(t *testing.T) {
	w := newWorld(t)
	env := w.env
	b := auction.Create(w.alice, w.token()).Window(env.Now(), env.Now()+day)
	r := env.Submit(b.Build())
	require.False(t, r.Success)
	require.Empty(t, auction.Active(env))
	require.False(t, auction.Completed(env, b.ID()))
}

func TestCreateExistingAndCompleted(t *testing.T) {
	w := newWorld(t)
	env := w.env
	start, end := env.Now()+hour, env.Now()+day
	b := auction.Create(w.seller, w.token()).Window(start, end)
	jtx.RequireTxSuccess(t, env.Submit(b.Build()))
	jtx.RequireReason(t, env.Submit(b.Build()), "NftMarketplaceV2: Existing auction")

	jtx.RequireTxSuccess(t, env.Submit(auction.Delete(env.Deployer, b.ID()).Build()))
	require.True(t, auction.Completed(env, b.ID()))
	jtx.RequireOwner(t, env, w.nft, 1, w.seller.Address)

	// The seller owns the token again, but the id stays tombstoned.
	for i := 0; i < 3; i++ {
		jtx.RequireReason(t, env.Submit(b.Build()), "NftMarketplaceV2: Auction is completed")
	}

	// A different minimum price does not change the identity.
	jtx.RequireReason(t, env.Submit(b.MinPrice(jtx.Ether(5)).Build()), "NftMarketplaceV2: Auction is completed")

	// Different terms give a new identity.
	again := auction.Create(w.seller, w.token()).Window(start, end+1)
	jtx.RequireTxSuccess(t, env.Submit(again.Build()))
}

func TestCreationPause(t *testing.T) {
	w := newWorld(t)
	env := w.env
	id, start, _ := w.listNative(t)

	toggle := jtx.Tx{From: env.Deployer, Method: "togglePause", Call: func(m *market.Marketplace, f *host.Frame) error {
		return m.TogglePause(f)
	}}
	r := env.Submit(toggle)
	jtx.RequireTxSuccess(t, r)
	jtx.RequireEvent(t, r, market.EventCreationPaused)

	multi := env.DeployMultiCollection()
	env.MintMulti(multi, w.seller, 1, 1)
	b := auction.Create(w.seller, asset.ERC1155(multi, big.NewInt(1), big.NewInt(1))).Window(env.Now(), env.Now()+day)
	jtx.RequireReason(t, env.Submit(b.Build()), "NftMarketplaceV2: Creation paused")

	// Open auctions keep accepting bids.
	env.SetTime(start)
	jtx.RequireTxSuccess(t, env.Submit(auction.Bid(w.alice, id, jtx.Ether(10)).Native().Build()))

	r = env.Submit(toggle)
	jtx.RequireEvent(t, r, market.EventCreationUnpaused)
	jtx.RequireTxSuccess(t, env.Submit(b.Build()))
}
