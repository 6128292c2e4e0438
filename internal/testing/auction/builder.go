// Package auction provides fluent builders for marketplace auction calls.
package auction

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/asset"
	engine "github.com/LeJamon/goNFTMarket/internal/core/auction"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/market"
	"github.com/LeJamon/goNFTMarket/internal/testing"
)

// CreateBuilder builds a createAuction call.
type CreateBuilder struct {
	seller    *testing.Account
	token     asset.Descriptor
	startTime uint64
	endTime   uint64
	minPrice  *big.Int
	bidToken  common.Address
}

// Create starts a createAuction call listing token for seller. The bid
// token defaults to native currency.
func Create(seller *testing.Account, token asset.Descriptor) *CreateBuilder {
	return &CreateBuilder{
		seller:   seller,
		token:    token,
		minPrice: new(big.Int),
		bidToken: asset.NativeToken,
	}
}

// Window sets the start and end time.
func (b *CreateBuilder) Window(start, end uint64) *CreateBuilder {
	b.startTime, b.endTime = start, end
	return b
}

// MinPrice sets the minimum first bid.
func (b *CreateBuilder) MinPrice(p *big.Int) *CreateBuilder {
	b.minPrice = p
	return b
}

// BidToken sets the ERC20 bids are paid in.
func (b *CreateBuilder) BidToken(token common.Address) *CreateBuilder {
	b.bidToken = token
	return b
}

// ID returns the id the auction gets.
func (b *CreateBuilder) ID() common.Hash {
	id, err := engine.ID(b.token, b.seller.Address, b.startTime, b.endTime, b.bidToken)
	if err != nil {
		panic(err)
	}
	return id
}

// Build returns the call.
func (b *CreateBuilder) Build() testing.Tx {
	return testing.Tx{
		From:   b.seller,
		Method: "createAuction",
		Call: func(m *market.Marketplace, f *host.Frame) error {
			_, err := m.CreateAuction(f, b.token, b.startTime, b.endTime, b.minPrice, b.bidToken)
			return err
		},
	}
}

// BidBuilder builds a bid or bidNative call.
type BidBuilder struct {
	bidder *testing.Account
	id     common.Hash
	amount *big.Int
	value  *big.Int
	native bool
}

// Bid starts a bid of amount on id. Without Value or Native the bid is paid
// in the auction's ERC20.
func Bid(bidder *testing.Account, id common.Hash, amount *big.Int) *BidBuilder {
	return &BidBuilder{bidder: bidder, id: id, amount: amount}
}

// Native makes the call bidNative with amount as call value.
func (b *BidBuilder) Native() *BidBuilder {
	b.native = true
	return b
}

// Value attaches call value to a bid call.
func (b *BidBuilder) Value(v *big.Int) *BidBuilder {
	b.value = v
	return b
}

// Build returns the call.
func (b *BidBuilder) Build() testing.Tx {
	if b.native {
		return testing.Tx{
			From:   b.bidder,
			Value:  b.amount,
			Method: "bidNative",
			Call: func(m *market.Marketplace, f *host.Frame) error {
				return m.BidNative(f, b.id)
			},
		}
	}
	return testing.Tx{
		From:   b.bidder,
		Value:  b.value,
		Method: "bid",
		Call: func(m *market.Marketplace, f *host.Frame) error {
			return m.Bid(f, b.id, b.amount)
		},
	}
}

// End returns an endAuction call.
func End(caller *testing.Account, id common.Hash) testing.Tx {
	return testing.Tx{
		From:   caller,
		Method: "endAuction",
		Call: func(m *market.Marketplace, f *host.Frame) error {
			return m.EndAuction(f, id)
		},
	}
}

// DeleteBuilder builds a deleteAuction call. Both legs default to
// requireSuccess without a gas cap.
type DeleteBuilder struct {
	manager              *testing.Account
	id                   common.Hash
	requireSuccessSeller bool
	capGasSeller         bool
	requireSuccessBuyer  bool
	capGasBuyer          bool
	gasLimit             uint64
}

// Delete starts a deleteAuction call.
func Delete(manager *testing.Account, id common.Hash) *DeleteBuilder {
	return &DeleteBuilder{manager: manager, id: id, requireSuccessSeller: true, requireSuccessBuyer: true}
}

// Seller sets the policy flags of the NFT leg.
func (b *DeleteBuilder) Seller(requireSuccess, capGas bool) *DeleteBuilder {
	b.requireSuccessSeller, b.capGasSeller = requireSuccess, capGas
	return b
}

// Buyer sets the policy flags of the funds leg.
func (b *DeleteBuilder) Buyer(requireSuccess, capGas bool) *DeleteBuilder {
	b.requireSuccessBuyer, b.capGasBuyer = requireSuccess, capGas
	return b
}

// GasLimit sets the gas limit of the call.
func (b *DeleteBuilder) GasLimit(gas uint64) *DeleteBuilder {
	b.gasLimit = gas
	return b
}

// Build returns the call.
func (b *DeleteBuilder) Build() testing.Tx {
	return testing.Tx{
		From:     b.manager,
		GasLimit: b.gasLimit,
		Method:   "deleteAuction",
		Call: func(m *market.Marketplace, f *host.Frame) error {
			return m.DeleteAuction(f, b.id, b.requireSuccessSeller, b.capGasSeller, b.requireSuccessBuyer, b.capGasBuyer)
		},
	}
}

// Withdraw returns a withdrawRefund call.
func Withdraw(account *testing.Account, bidToken common.Address) testing.Tx {
	return testing.Tx{
		From:   account,
		Method: "withdrawRefund",
		Call: func(m *market.Marketplace, f *host.Frame) error {
			return m.WithdrawRefund(f, bidToken)
		},
	}
}

// Data reads the stored auction id.
func Data(env *testing.TestEnv, id common.Hash) engine.Auction {
	var a engine.Auction
	env.View(func(m *market.Marketplace, f *host.Frame) error {
		var err error
		a, err = m.AuctionData(f, id)
		return err
	})
	return a
}

// Completed reads whether id is tombstoned.
func Completed(env *testing.TestEnv, id common.Hash) bool {
	var done bool
	env.View(func(m *market.Marketplace, f *host.Frame) error {
		var err error
		done, err = m.IsAuctionCompleted(f, id)
		return err
	})
	return done
}

// Active lists the open auction ids.
func Active(env *testing.TestEnv) []common.Hash {
	var ids []common.Hash
	env.View(func(m *market.Marketplace, f *host.Frame) error {
		var err error
		ids, err = m.ActiveAuctions(f)
		return err
	})
	return ids
}
