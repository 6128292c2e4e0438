// Package swap provides fluent builders for signed swap orders.
package swap

import (
	"crypto/rand"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/asset"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/market"
	core "github.com/LeJamon/goNFTMarket/internal/core/swap"
	"github.com/LeJamon/goNFTMarket/internal/testing"
)

// OrderBuilder builds a signed order and the makeSwap call executing it.
type OrderBuilder struct {
	seller   *testing.Account
	signer   *testing.Account
	order    core.Order
	sig      []byte
	claimAs  common.Address
	hasClaim bool
}

// Order starts an order by seller on env's marketplace. The deadline
// defaults to one day from now and the order id is random.
func Order(env *testing.TestEnv, seller *testing.Account) *OrderBuilder {
	var id common.Hash
	if _, err := rand.Read(id[:]); err != nil {
		panic(err)
	}
	return &OrderBuilder{
		seller: seller,
		signer: seller,
		order: core.Order{
			Marketplace: env.MarketAddress(),
			Deadline:    env.Now() + 86400,
			OrderID:     id,
		},
	}
}

// Wants sets the asset the seller receives from the counterparty.
func (b *OrderBuilder) Wants(d asset.Descriptor) *OrderBuilder {
	b.order.Wanted = d
	return b
}

// Offers sets the asset the seller gives.
func (b *OrderBuilder) Offers(d asset.Descriptor) *OrderBuilder {
	b.order.Offered = d
	return b
}

// Deadline sets the last timestamp the order executes at.
func (b *OrderBuilder) Deadline(ts uint64) *OrderBuilder {
	b.order.Deadline = ts
	return b
}

// OrderID sets the order id.
func (b *OrderBuilder) OrderID(id common.Hash) *OrderBuilder {
	b.order.OrderID = id
	return b
}

// Marketplace sets the marketplace the order is bound to.
func (b *OrderBuilder) Marketplace(addr common.Address) *OrderBuilder {
	b.order.Marketplace = addr
	return b
}

// SignedBy signs the order with acc instead of the seller.
func (b *OrderBuilder) SignedBy(acc *testing.Account) *OrderBuilder {
	b.signer = acc
	return b
}

// Signature replaces the signature with sig.
func (b *OrderBuilder) Signature(sig []byte) *OrderBuilder {
	b.sig = sig
	return b
}

// ClaimSeller passes addr as seller to makeSwap.
func (b *OrderBuilder) ClaimSeller(addr common.Address) *OrderBuilder {
	b.claimAs, b.hasClaim = addr, true
	return b
}

// Value returns the order as built.
func (b *OrderBuilder) Value() core.Order {
	return b.order
}

// Key returns the completion key of the order.
func (b *OrderBuilder) Key() common.Hash {
	key, err := b.order.Key(b.sellerAddress())
	if err != nil {
		panic(err)
	}
	return key
}

func (b *OrderBuilder) sellerAddress() common.Address {
	if b.hasClaim {
		return b.claimAs
	}
	return b.seller.Address
}

func (b *OrderBuilder) signature() []byte {
	if b.sig != nil {
		return b.sig
	}
	sig, err := core.Sign(b.signer.Key, b.order)
	if err != nil {
		panic(err)
	}
	return sig
}

// Build returns the makeSwap call sent by buyer.
func (b *OrderBuilder) Build(buyer *testing.Account) testing.Tx {
	o, sig, seller := b.order, b.signature(), b.sellerAddress()
	return testing.Tx{
		From:   buyer,
		Method: "makeSwap",
		Call: func(m *market.Marketplace, f *host.Frame) error {
			return m.MakeSwap(f, o, sig, seller)
		},
	}
}

// Completed reads whether the order is tombstoned.
func Completed(env *testing.TestEnv, b *OrderBuilder) bool {
	var done bool
	env.View(func(m *market.Marketplace, f *host.Frame) error {
		var err error
		done, err = m.IsOrderCompleted(f, b.order, b.sellerAddress())
		return err
	})
	return done
}
