package auction_test

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/asset"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/token"
	jtx "github.com/LeJamon/goNFTMarket/internal/testing"
	"github.com/LeJamon/goNFTMarket/internal/testing/auction"
)

const (
	hour = 3600
	day  = 86400
)

// world is the fixture shared by the auction scenarios: an ERC721 token 1
// owned by seller, an ERC20 and three funded bidders holding it.
type world struct {
	env      *jtx.TestEnv
	seller   *jtx.Account
	alice    *jtx.Account
	bob      *jtx.Account
	carol    *jtx.Account
	nft      common.Address
	currency common.Address
}

func newWorld(t *testing.T, opts ...jtx.Option) *world {
	t.Helper()
	env := jtx.NewTestEnv(t, opts...)
	w := &world{
		env:    env,
		seller: env.Account("seller"),
		alice:  env.Account("alice"),
		bob:    env.Account("bob"),
		carol:  env.Account("carol"),
	}
	env.Fund(w.seller, w.alice, w.bob, w.carol)
	w.nft = env.DeployCollection()
	env.MintNFT(w.nft, w.seller, 1)
	w.currency = env.DeployCurrency()
	for _, acc := range []*jtx.Account{w.alice, w.bob, w.carol} {
		env.MintERC20(w.currency, acc, jtx.Ether(1000))
	}
	return w
}

func (w *world) token() asset.Descriptor {
	return asset.ERC721(w.nft, big.NewInt(1))
}

// listNative creates the literal fixture auction: start in an hour, end a
// day later, minimum 10 ether, native bids.
func (w *world) listNative(t *testing.T) (common.Hash, uint64, uint64) {
	t.Helper()
	start, end := w.env.Now()+hour, w.env.Now()+hour+day
	b := auction.Create(w.seller, w.token()).Window(start, end).MinPrice(jtx.Ether(10))
	jtx.RequireTxSuccess(t, w.env.Submit(b.Build()))
	return b.ID(), start, end
}

// listERC20 creates the same auction with bids in the fixture currency.
func (w *world) listERC20(t *testing.T) (common.Hash, uint64, uint64) {
	t.Helper()
	start, end := w.env.Now()+hour, w.env.Now()+hour+day
	b := auction.Create(w.seller, w.token()).Window(start, end).MinPrice(jtx.Ether(10)).BidToken(w.currency)
	jtx.RequireTxSuccess(t, w.env.Submit(b.Build()))
	return b.ID(), start, end
}

func tokenTwo(w *world) asset.Descriptor {
	return asset.ERC721(w.nft, big.NewInt(2))
}

// approve returns a call setting the allowance of spender on currency.
func approve(env *jtx.TestEnv, currency, spender common.Address, amount *big.Int) func(f *host.Frame) error {
	c, ok := host.CodeAs[*token.Currency](env.Host(), currency)
	return func(f *host.Frame) error {
		if !ok {
			return host.Revert("not a currency")
		}
		_, err := c.Approve(f, spender, amount)
		return err
	}
}

// sumERC20 adds up the balances of holders.
func sumERC20(env *jtx.TestEnv, currency common.Address, holders ...common.Address) *big.Int {
	total := new(big.Int)
	for _, h := range holders {
		total.Add(total, env.ERC20Balance(currency, h))
	}
	return total
}

func lowerHex(acc *jtx.Account) string {
	return strings.ToLower(acc.Address.Hex())
}

// transferNFT returns a call moving id of collection from one holder to
// another.
func transferNFT(env *jtx.TestEnv, collection common.Address, from, to *jtx.Account, id int64) func(f *host.Frame) error {
	c, ok := host.CodeAs[token.ERC721](env.Host(), collection)
	return func(f *host.Frame) error {
		if !ok {
			return host.Revert("not a collection")
		}
		return c.SafeTransferFrom(f, from.Address, to.Address, big.NewInt(id), nil)
	}
}

// approveAllFromWallet returns a call, made by the wallet owner into the
// wallet, approving the marketplace for every token of collection.
func approveAllFromWallet(env *jtx.TestEnv, wallet *token.Wallet, collection common.Address) func(f *host.Frame) error {
	c, ok := host.CodeAs[token.ERC721](env.Host(), collection)
	return func(f *host.Frame) error {
		if !ok {
			return host.Revert("not a collection")
		}
		return wallet.Execute(f, collection, nil, func(cf *host.Frame) error {
			return c.SetApprovalForAll(cf, env.MarketAddress(), true)
		})
	}
}

// walletSubmit sends tx into the marketplace through wallet, signed by its
// owner.
func walletSubmit(env *jtx.TestEnv, wallet *token.Wallet, owner, walletAcc *jtx.Account, tx jtx.Tx) jtx.TxResult {
	return env.Exec(owner, walletAcc.Address, tx.Value, func(f *host.Frame) error {
		return wallet.Execute(f, env.MarketAddress(), tx.Value, func(mf *host.Frame) error {
			return tx.Call(env.Market(), mf)
		})
	})
}
