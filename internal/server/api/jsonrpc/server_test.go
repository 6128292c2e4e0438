package jsonrpc_test

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/LeJamon/goNFTMarket/internal/core/asset"
	"github.com/LeJamon/goNFTMarket/internal/core/auction"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/market"
	"github.com/LeJamon/goNFTMarket/internal/core/state"
	"github.com/LeJamon/goNFTMarket/internal/server/api/jsonrpc"
	"github.com/LeJamon/goNFTMarket/internal/storage/eventstore"
	"github.com/LeJamon/goNFTMarket/internal/world"
)

type response struct {
	Result json.RawMessage   `json:"result"`
	Error  *jsonrpc.RpcError `json:"error"`
	ID     interface{}       `json:"id"`
}

func bootWorld(t *testing.T) *world.World {
	t.Helper()
	clock := host.NewManualClock(world.DefaultTime)
	h, err := host.New(state.NewMemory(), 0, host.WithClock(clock))
	require.NoError(t, err)
	w, err := world.Bootstrap(h, nil, world.Options{Clock: clock})
	require.NoError(t, err)
	return w
}

func post(t *testing.T, s http.Handler, body string) response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func call(t *testing.T, s http.Handler, method string, params interface{}) response {
	t.Helper()
	req := map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": method}
	if params != nil {
		req["params"] = params
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return post(t, s, string(body))
}

func result(t *testing.T, resp response, v interface{}) {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected rpc error: %+v", resp.Error)
	require.NoError(t, json.Unmarshal(resp.Result, v))
}

func createAuction(t *testing.T, w *world.World) common.Hash {
	t.Helper()
	seller, _ := w.Account("seller")
	punks, _ := w.Token("punks")
	usd, _ := w.Token("USD")
	now := uint64(w.Clock().Now().Unix())

	var id common.Hash
	_, err := w.Submit(seller, nil, "createAuction", func(m *market.Marketplace, f *host.Frame) error {
		var err error
		id, err = m.CreateAuction(f, asset.ERC721(punks.Address, big.NewInt(1)), now+60, now+3600, asset.Units(10), usd.Address)
		return err
	})
	require.NoError(t, err)
	return id
}

// =============================================================================
// Transport
// =============================================================================

func TestRejectsGet(t *testing.T) {
	s := jsonrpc.NewServer(bootWorld(t), jsonrpc.Options{})
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestProtocolErrors(t *testing.T) {
	s := jsonrpc.NewServer(bootWorld(t), jsonrpc.Options{})

	tests := []struct {
		name string
		body string
		code int
	}{
		{"parse error", `{`, jsonrpc.CodeParseError},
		{"missing method", `{"jsonrpc":"2.0","id":1}`, jsonrpc.CodeInvalidRequest},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"eth_call"}`, jsonrpc.CodeMethodNotFound},
		{"bad id", `{"jsonrpc":"2.0","id":1,"method":"market_auction","params":{"id":"xyz"}}`, jsonrpc.CodeInvalidParams},
		{"unknown field", `{"jsonrpc":"2.0","id":1,"method":"market_auction","params":{"auction":"0x00"}}`, jsonrpc.CodeInvalidParams},
		{"two params", `{"jsonrpc":"2.0","id":1,"method":"market_feeInfo","params":[{},{}]}`, jsonrpc.CodeInvalidParams},
		{"unknown name", `{"jsonrpc":"2.0","id":1,"method":"world_balance","params":{"token":"EUR","holder":"alice"}}`, jsonrpc.CodeInvalidParams},
		{"no history", `{"jsonrpc":"2.0","id":1,"method":"history_events"}`, jsonrpc.CodeMethodNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, s, tt.body)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestParamsArray(t *testing.T) {
	w := bootWorld(t)
	s := jsonrpc.NewServer(w, jsonrpc.Options{})

	var out struct {
		Balance jsonrpc.Amount `json:"balance"`
	}
	result(t, call(t, s, "world_balance", []map[string]string{{"token": "USD", "holder": "alice"}}), &out)
	assert.Equal(t, "1000", out.Balance.Display)
	assert.Equal(t, asset.Units(1000).String(), out.Balance.Raw)
}

// =============================================================================
// Marketplace
// =============================================================================

func TestFeeInfo(t *testing.T) {
	w := bootWorld(t)
	s := jsonrpc.NewServer(w, jsonrpc.Options{})
	receiver, err := w.Resolve("feeReceiver")
	require.NoError(t, err)

	var out struct {
		Marketplace    string `json:"marketplace"`
		FeeBps         uint64 `json:"fee_bps"`
		FeeReceiver    string `json:"fee_receiver"`
		PausedCreation bool   `json:"paused_creation"`
		PausedSwaps    bool   `json:"paused_swaps"`
	}
	result(t, call(t, s, "market_feeInfo", nil), &out)
	assert.Equal(t, w.MarketAddress.Hex(), out.Marketplace)
	assert.EqualValues(t, market.DefaultFeeBps, out.FeeBps)
	assert.Equal(t, receiver.Hex(), out.FeeReceiver)
	assert.False(t, out.PausedCreation)
	assert.False(t, out.PausedSwaps)
}

func TestAuctionQueries(t *testing.T) {
	w := bootWorld(t)
	s := jsonrpc.NewServer(w, jsonrpc.Options{})
	id := createAuction(t, w)

	var active struct {
		Count    int      `json:"count"`
		Auctions []string `json:"auctions"`
	}
	result(t, call(t, s, "market_activeAuctions", nil), &active)
	assert.Equal(t, 1, active.Count)
	assert.Equal(t, []string{id.Hex()}, active.Auctions)

	var view jsonrpc.AuctionView
	result(t, call(t, s, "market_auction", map[string]string{"id": id.Hex()}), &view)
	assert.True(t, view.Open)
	assert.False(t, view.Completed)
	assert.Equal(t, "ERC721", view.Kind)
	assert.Equal(t, "1", view.TokenID)
	assert.Equal(t, "10", view.MinPrice.Display)
	assert.Empty(t, view.LastBidder)
	assert.Equal(t, "0", view.LastBidAmount.Raw)

	seller, _ := w.Account("seller")
	assert.Equal(t, seller.Address.Hex(), view.Seller)

	var computed struct {
		ID string `json:"id"`
	}
	result(t, call(t, s, "market_auctionId", map[string]interface{}{
		"collection": "punks",
		"token_id":   "1",
		"seller":     "seller",
		"start_time": view.StartTime,
		"end_time":   view.EndTime,
		"bid_token":  "USD",
	}), &computed)
	assert.Equal(t, id.Hex(), computed.ID)

	var unknown jsonrpc.AuctionView
	result(t, call(t, s, "market_auction", map[string]string{"id": common.Hash{0x01}.Hex()}), &unknown)
	assert.False(t, unknown.Open)
	assert.Equal(t, "0", unknown.MinPrice.Raw)
}

func TestRoyaltyQuote(t *testing.T) {
	w := bootWorld(t)
	s := jsonrpc.NewServer(w, jsonrpc.Options{})
	artist, _ := w.Account("artist")

	var out struct {
		Receiver string         `json:"receiver"`
		Amount   jsonrpc.Amount `json:"amount"`
		Source   string         `json:"source"`
	}
	result(t, call(t, s, "market_royaltyQuote", map[string]string{
		"collection": "art", "token_id": "7", "price": "100",
	}), &out)
	assert.Equal(t, artist.Address.Hex(), out.Receiver)
	assert.Equal(t, "5", out.Amount.Display)
	assert.Equal(t, "erc2981", out.Source)

	resp := call(t, s, "market_royaltyQuote", map[string]string{"collection": "art", "token_id": "7"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.CodeInvalidParams, resp.Error.Code)
}

func TestPendingRefundAndOwner(t *testing.T) {
	w := bootWorld(t)
	s := jsonrpc.NewServer(w, jsonrpc.Options{})

	var refund struct {
		Amount jsonrpc.Amount `json:"amount"`
	}
	result(t, call(t, s, "market_pendingRefund", map[string]string{"bid_token": "USD", "account": "alice"}), &refund)
	assert.Equal(t, "0", refund.Amount.Raw)

	seller, _ := w.Account("seller")
	var owner struct {
		Owner string `json:"owner"`
	}
	result(t, call(t, s, "world_ownerOf", map[string]string{"collection": "punks", "token_id": "1"}), &owner)
	assert.Equal(t, seller.Address.Hex(), owner.Owner)
}

func TestWorldListings(t *testing.T) {
	w := bootWorld(t)
	s := jsonrpc.NewServer(w, jsonrpc.Options{})

	var tokens struct {
		Tokens []world.Token `json:"tokens"`
	}
	result(t, call(t, s, "world_tokens", nil), &tokens)
	assert.Equal(t, w.Tokens(), tokens.Tokens)

	var accounts struct {
		Accounts []map[string]string `json:"accounts"`
	}
	result(t, call(t, s, "world_accounts", nil), &accounts)
	assert.Len(t, accounts.Accounts, len(w.Accounts()))
}

// =============================================================================
// Cache
// =============================================================================

func TestQuoteCache(t *testing.T) {
	t.Run("stale without invalidation", func(t *testing.T) {
		w := bootWorld(t)
		s := jsonrpc.NewServer(w, jsonrpc.Options{QuoteCacheTTL: time.Minute})

		var before, after struct {
			Count int `json:"count"`
		}
		result(t, call(t, s, "market_activeAuctions", nil), &before)
		createAuction(t, w)
		result(t, call(t, s, "market_activeAuctions", nil), &after)
		assert.Equal(t, 0, before.Count)
		assert.Equal(t, 0, after.Count)
	})

	t.Run("flushed on commit", func(t *testing.T) {
		w := bootWorld(t)
		s := jsonrpc.NewServer(w, jsonrpc.Options{QuoteCacheTTL: time.Minute})
		s.InvalidateOn(w.Host)

		var before, after struct {
			Count int `json:"count"`
		}
		result(t, call(t, s, "market_activeAuctions", nil), &before)
		createAuction(t, w)
		result(t, call(t, s, "market_activeAuctions", nil), &after)
		assert.Equal(t, 0, before.Count)
		assert.Equal(t, 1, after.Count)
	})
}

// =============================================================================
// History
// =============================================================================

func TestHistoryMethods(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	store, err := eventstore.New(eventstore.SQLiteConfig(filepath.Join(t.TempDir(), "events.db")))
	require.NoError(t, err)
	require.NoError(t, store.Open(ctx))
	defer store.Close(ctx)

	w := bootWorld(t)
	rec := eventstore.NewRecorder(store, 8, nil)
	rec.Attach(w.Host)
	s := jsonrpc.NewServer(w, jsonrpc.Options{Events: store})

	id := createAuction(t, w)
	require.NoError(t, rec.Close(ctx))

	var events struct {
		Events []eventstore.EventRecord `json:"events"`
	}
	result(t, call(t, s, "history_events", map[string]string{"name": auction.EventAuctionCreated}), &events)
	require.Len(t, events.Events, 1)
	assert.Equal(t, id.Hex(), events.Events[0].Topic)

	var receipt eventstore.ReceiptRecord
	result(t, call(t, s, "history_receipt", map[string]string{"id": events.Events[0].ReceiptID.String()}), &receipt)
	assert.Equal(t, "createAuction", receipt.Method)
	assert.Equal(t, "success", receipt.Status)

	missing := call(t, s, "history_receipt", map[string]string{"id": "00000000-0000-0000-0000-000000000001"})
	require.NotNil(t, missing.Error)
	assert.Equal(t, jsonrpc.CodeNotFound, missing.Error.Code)

	tooMany := call(t, s, "history_events", map[string]int{"limit": eventstore.MaxEventLimit + 1})
	require.NotNil(t, tooMany.Error)
	assert.Equal(t, jsonrpc.CodeInvalidParams, tooMany.Error.Code)

	var info struct {
		History  bool  `json:"history"`
		Receipts int64 `json:"receipts"`
	}
	result(t, call(t, s, "server_info", nil), &info)
	assert.True(t, info.History)
	assert.EqualValues(t, 1, info.Receipts)
}

func TestCallInProcess(t *testing.T) {
	s := jsonrpc.NewServer(bootWorld(t), jsonrpc.Options{})

	out, rpcErr := s.Call(context.Background(), "market_pendingRefund", json.RawMessage(`[{"bid_token":"native","account":"bob"}]`))
	require.Nil(t, rpcErr)
	m, ok := out.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, jsonrpc.Amount{Raw: "0", Display: "0"}, m["amount"])

	_, rpcErr = s.Call(context.Background(), "nope", nil)
	require.NotNil(t, rpcErr)
	assert.Equal(t, jsonrpc.CodeMethodNotFound, rpcErr.Code)
}
