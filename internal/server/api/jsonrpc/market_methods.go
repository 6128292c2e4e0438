package jsonrpc

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/asset"
	"github.com/LeJamon/goNFTMarket/internal/core/auction"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/market"
	"github.com/LeJamon/goNFTMarket/internal/core/royalty"
)

// FeeInfoMethod handles market_feeInfo.
type FeeInfoMethod struct{ chain Chain }

func (m *FeeInfoMethod) Handle(_ *RpcContext, _ json.RawMessage) (interface{}, *RpcError) {
	var (
		bps                    uint64
		receiver               common.Address
		pausedCreation, paused bool
	)
	rpcErr := view(m.chain, func(mk *market.Marketplace, f *host.Frame) error {
		var err error
		if bps, receiver, err = mk.FeeInfo(f); err != nil {
			return err
		}
		if pausedCreation, err = mk.IsPausedCreation(f); err != nil {
			return err
		}
		paused, err = mk.IsPausedSwaps(f)
		return err
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]interface{}{
		"marketplace":     m.chain.MarketplaceAddress().Hex(),
		"fee_bps":         bps,
		"fee_receiver":    receiver.Hex(),
		"paused_creation": pausedCreation,
		"paused_swaps":    paused,
	}, nil
}

func (m *FeeInfoMethod) Cacheable() bool { return true }

// AuctionView is the JSON form of an auction.
type AuctionView struct {
	ID            string `json:"id"`
	Open          bool   `json:"open"`
	Completed     bool   `json:"completed"`
	Kind          string `json:"kind"`
	Collection    string `json:"collection"`
	TokenID       string `json:"token_id"`
	Amount        string `json:"amount"`
	Seller        string `json:"seller"`
	StartTime     uint64 `json:"start_time"`
	EndTime       uint64 `json:"end_time"`
	MinPrice      Amount `json:"min_price"`
	BidToken      string `json:"bid_token"`
	Native        bool   `json:"native"`
	LastBidder    string `json:"last_bidder,omitempty"`
	LastBidAmount Amount `json:"last_bid_amount"`
}

func auctionView(id common.Hash, a auction.Auction, completed bool) AuctionView {
	v := AuctionView{
		ID:            id.Hex(),
		Open:          a.Seller != (common.Address{}),
		Completed:     completed,
		Kind:          a.TokenInfo.Kind.String(),
		Collection:    a.TokenInfo.Contract.Hex(),
		TokenID:       a.TokenInfo.IDOrZero().String(),
		Amount:        a.TokenInfo.AmountOrZero().String(),
		Seller:        a.Seller.Hex(),
		StartTime:     a.StartTime,
		EndTime:       a.EndTime,
		MinPrice:      amountOf(a.MinPrice),
		BidToken:      a.BidToken.Hex(),
		Native:        asset.IsNative(a.BidToken),
		LastBidAmount: amountOf(a.LastBidAmount),
	}
	if a.HasBid() {
		v.LastBidder = a.LastBidder.Hex()
	}
	return v
}

type auctionParams struct {
	ID string `json:"id"`
}

// AuctionMethod handles market_auction.
type AuctionMethod struct{ chain Chain }

func (m *AuctionMethod) Handle(_ *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p auctionParams
	if rpcErr := parseParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := parseHash("id", p.ID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	var (
		a         auction.Auction
		completed bool
	)
	rpcErr = view(m.chain, func(mk *market.Marketplace, f *host.Frame) error {
		var err error
		if a, err = mk.AuctionData(f, id); err != nil {
			return err
		}
		completed, err = mk.IsAuctionCompleted(f, id)
		return err
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return auctionView(id, a, completed), nil
}

func (m *AuctionMethod) Cacheable() bool { return true }

// ActiveAuctionsMethod handles market_activeAuctions.
type ActiveAuctionsMethod struct{ chain Chain }

func (m *ActiveAuctionsMethod) Handle(_ *RpcContext, _ json.RawMessage) (interface{}, *RpcError) {
	var ids []common.Hash
	rpcErr := view(m.chain, func(mk *market.Marketplace, f *host.Frame) error {
		var err error
		ids, err = mk.ActiveAuctions(f)
		return err
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return map[string]interface{}{
		"count":    len(out),
		"auctions": out,
	}, nil
}

func (m *ActiveAuctionsMethod) Cacheable() bool { return true }

type auctionIDParams struct {
	Kind       string `json:"kind"`
	Collection string `json:"collection"`
	TokenID    string `json:"token_id"`
	Amount     string `json:"amount"`
	Seller     string `json:"seller"`
	StartTime  uint64 `json:"start_time"`
	EndTime    uint64 `json:"end_time"`
	BidToken   string `json:"bid_token"`
}

// AuctionIDMethod handles market_auctionId. It computes the id an auction
// with these terms would get.
type AuctionIDMethod struct{ chain Chain }

func (m *AuctionIDMethod) Handle(_ *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p auctionIDParams
	if rpcErr := parseParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	if p.Kind == "" {
		p.Kind = "erc721"
	}
	kind, err := asset.ParseKind(p.Kind)
	if err != nil || kind == asset.KindERC20 {
		return nil, RpcErrorInvalidParams("kind must be erc721 or erc1155")
	}
	collection, rpcErr := resolve(m.chain, "collection", p.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	seller, rpcErr := resolve(m.chain, "seller", p.Seller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	bidToken, rpcErr := resolve(m.chain, "bid_token", p.BidToken)
	if rpcErr != nil {
		return nil, rpcErr
	}
	tokenID, rpcErr := parseInteger("token_id", p.TokenID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseInteger("amount", p.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}

	d := asset.ERC721(collection, tokenID)
	if kind == asset.KindERC1155 {
		d = asset.ERC1155(collection, tokenID, amount)
	}
	id, err := auction.ID(d, seller, p.StartTime, p.EndTime, bidToken)
	if err != nil {
		return nil, RpcErrorInvalidParams(err.Error())
	}
	return map[string]interface{}{"id": id.Hex()}, nil
}

func (m *AuctionIDMethod) Cacheable() bool { return false }

type royaltyParams struct {
	Collection string `json:"collection"`
	TokenID    string `json:"token_id"`
	Price      string `json:"price"`
}

// RoyaltyQuoteMethod handles market_royaltyQuote. Price is in whole
// tokens.
type RoyaltyQuoteMethod struct{ chain Chain }

func (m *RoyaltyQuoteMethod) Handle(_ *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p royaltyParams
	if rpcErr := parseParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	collection, rpcErr := resolve(m.chain, "collection", p.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	tokenID, rpcErr := parseInteger("token_id", p.TokenID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	price, rpcErr := parseAmount("price", p.Price)
	if rpcErr != nil {
		return nil, rpcErr
	}

	var q royalty.Quote
	rpcErr = view(m.chain, func(mk *market.Marketplace, f *host.Frame) error {
		var err error
		q, err = mk.GetRoyaltyInfo(f, collection, tokenID, price)
		return err
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]interface{}{
		"receiver": q.Receiver.Hex(),
		"amount":   amountOf(q.Amount),
		"source":   q.Source.String(),
		"price":    amountOf(price),
	}, nil
}

func (m *RoyaltyQuoteMethod) Cacheable() bool { return true }

type refundParams struct {
	BidToken string `json:"bid_token"`
	Account  string `json:"account"`
}

// PendingRefundMethod handles market_pendingRefund.
type PendingRefundMethod struct{ chain Chain }

func (m *PendingRefundMethod) Handle(_ *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p refundParams
	if rpcErr := parseParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	bidToken, rpcErr := resolve(m.chain, "bid_token", p.BidToken)
	if rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := resolve(m.chain, "account", p.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}

	var amount *big.Int
	rpcErr = view(m.chain, func(mk *market.Marketplace, f *host.Frame) error {
		var err error
		amount, err = mk.PendingRefund(f, bidToken, account)
		return err
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]interface{}{
		"bid_token": bidToken.Hex(),
		"account":   account.Hex(),
		"amount":    amountOf(amount),
	}, nil
}

func (m *PendingRefundMethod) Cacheable() bool { return true }
