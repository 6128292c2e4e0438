// Package royalty resolves the secondary-sale royalty owed on a token and
// manages the administrator overrides that take priority over what the
// collection itself declares.
package royalty

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/access"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
	"github.com/LeJamon/goNFTMarket/internal/core/state"
	"github.com/LeJamon/goNFTMarket/internal/core/token"
)

const (
	// MaxOverrideBps caps administrator overrides.
	MaxOverrideBps = 1000
	// MaxOwnerFeeBps caps the collection owner default fee.
	MaxOwnerFeeBps = 1000
	// DefaultOwnerFeeBps is the collection owner fee after deploy.
	DefaultOwnerFeeBps = 100

	denominator = 10000
)

// Source tells which rule produced a Quote.
type Source int

const (
	SourceNone Source = iota
	SourceOverride
	SourceERC2981
	// SourceERC2981Clamped marks an ERC2981 answer above the sale price that
	// was cut to half of it.
	SourceERC2981Clamped
	SourceOwner
)

func (s Source) String() string {
	switch s {
	case SourceNone:
		return "none"
	case SourceOverride:
		return "override"
	case SourceERC2981:
		return "erc2981"
	case SourceERC2981Clamped:
		return "erc2981Clamped"
	case SourceOwner:
		return "owner"
	}
	return "unknown"
}

// Quote is the royalty owed on a sale.
type Quote struct {
	Receiver common.Address
	Amount   *big.Int
	Source   Source
}

func zeroQuote() Quote {
	return Quote{Amount: new(big.Int)}
}

// Override is an administrator set royalty for a collection.
type Override struct {
	Enabled  bool           `codec:"enabled"`
	Receiver common.Address `codec:"receiver"`
	Bps      uint64         `codec:"bps"`
}

// Registry holds the royalty configuration of the executing contract.
// Administrative calls require RoyaltyManagerRole through Auth.
type Registry struct {
	Auth access.Authorizer
}

// Init stores the default owner fee.
func (r Registry) Init(f *host.Frame) error {
	return state.WriteUint(f.State(), keylet.OwnerFee(f.Self), DefaultOwnerFeeBps)
}

// RoyaltiesInfo returns the override stored for collection.
func (r Registry) RoyaltiesInfo(f *host.Frame, collection common.Address) (Override, error) {
	var o Override
	_, err := state.ReadRecord(f.State(), keylet.RoyaltyOverride(f.Self, collection), &o)
	return o, err
}

// DefaultFeeForOwner returns the fee paid to Ownable collection owners.
func (r Registry) DefaultFeeForOwner(f *host.Frame) (uint64, error) {
	return state.ReadUint(f.State(), keylet.OwnerFee(f.Self))
}

// SetRoyalty enables an override paying bps of each sale to receiver.
func (r Registry) SetRoyalty(f *host.Frame, collection, receiver common.Address, bps uint64) error {
	if err := access.Require(f, r.Auth, access.RoyaltyManagerRole); err != nil {
		return err
	}
	if !f.Host().IsContract(collection) {
		return host.Revert("RoyaltiesInfo: Not a contract")
	}
	nft, err := isNFT(f, collection)
	if err != nil {
		return err
	}
	if !nft {
		return host.Revert("RoyaltiesInfo: Wrong interface")
	}
	if bps == 0 || bps > MaxOverrideBps {
		return host.Revert("RoyaltiesInfo: Percentage")
	}
	// The registry's own contract takes no native payments, so it cannot
	// receive royalties either.
	if receiver == (common.Address{}) || receiver == f.Self {
		return host.Revert("RoyaltiesInfo: royaltyReceiver")
	}
	return state.WriteRecord(f.State(), keylet.RoyaltyOverride(f.Self, collection), Override{
		Enabled: true, Receiver: receiver, Bps: bps,
	})
}

// DisableAdminRoyalty removes the override of collection.
func (r Registry) DisableAdminRoyalty(f *host.Frame, collection common.Address) error {
	if err := access.Require(f, r.Auth, access.RoyaltyManagerRole); err != nil {
		return err
	}
	o, err := r.RoyaltiesInfo(f, collection)
	if err != nil {
		return err
	}
	if !o.Enabled {
		return host.Revert("RoyaltiesInfo: Disabled")
	}
	return state.Delete(f.State(), keylet.RoyaltyOverride(f.Self, collection))
}

// SetDefaultFeeForOwner changes the Ownable owner fee.
func (r Registry) SetDefaultFeeForOwner(f *host.Frame, bps uint64) error {
	if err := access.Require(f, r.Auth, access.RoyaltyManagerRole); err != nil {
		return err
	}
	if bps > MaxOwnerFeeBps {
		return host.Revert("NftMarketplace: Too big percent")
	}
	current, err := r.DefaultFeeForOwner(f)
	if err != nil {
		return err
	}
	if current == bps {
		return host.Revert("NftMarketplace: No change")
	}
	return state.WriteUint(f.State(), keylet.OwnerFee(f.Self), bps)
}

// Resolve computes the royalty owed when tokenID of collection sells for
// salePrice. Rules are tried in order: enabled override, ERC2981, Ownable
// owner default fee. The first that applies wins. Resolve never writes
// state.
func (r Registry) Resolve(f *host.Frame, collection common.Address, tokenID, salePrice *big.Int) (Quote, error) {
	o, err := r.RoyaltiesInfo(f, collection)
	if err != nil {
		return Quote{}, err
	}
	if o.Enabled {
		return Quote{Receiver: o.Receiver, Amount: share(salePrice, o.Bps), Source: SourceOverride}, nil
	}

	if q, ok, err := r.fromERC2981(f, collection, tokenID, salePrice); err != nil || ok {
		return q, err
	}
	return r.fromOwner(f, collection, salePrice)
}

func (r Registry) fromERC2981(f *host.Frame, collection common.Address, tokenID, salePrice *big.Int) (Quote, bool, error) {
	supported, err := f.Host().SupportsInterface(f, collection, token.InterfaceERC2981)
	if err != nil || !supported {
		return Quote{}, false, err
	}
	info, ok := host.CodeAs[token.RoyaltyInfo](f.Host(), collection)
	if !ok {
		return Quote{}, false, nil
	}
	var receiver common.Address
	var amount *big.Int
	err = f.StaticCall(collection, 0, func(cf *host.Frame) error {
		var err error
		receiver, amount, err = info.RoyaltyInfo(cf, tokenID, salePrice)
		return err
	})
	if err != nil {
		if f.GasLeft() == 0 {
			return Quote{}, false, err
		}
		return Quote{}, false, nil
	}
	if amount == nil {
		amount = new(big.Int)
	}
	if amount.Cmp(salePrice) > 0 {
		return Quote{Receiver: receiver, Amount: new(big.Int).Div(salePrice, big.NewInt(2)), Source: SourceERC2981Clamped}, true, nil
	}
	return Quote{Receiver: receiver, Amount: amount, Source: SourceERC2981}, true, nil
}

func (r Registry) fromOwner(f *host.Frame, collection common.Address, salePrice *big.Int) (Quote, error) {
	ownable, ok := host.CodeAs[token.Ownable](f.Host(), collection)
	if !ok {
		return zeroQuote(), nil
	}
	fee, err := r.DefaultFeeForOwner(f)
	if err != nil {
		return Quote{}, err
	}
	if fee == 0 {
		return zeroQuote(), nil
	}
	var owner common.Address
	err = f.StaticCall(collection, 0, func(cf *host.Frame) error {
		var err error
		owner, err = ownable.Owner(cf)
		return err
	})
	if err != nil {
		if f.GasLeft() == 0 {
			return Quote{}, err
		}
		return zeroQuote(), nil
	}
	if owner == (common.Address{}) {
		return zeroQuote(), nil
	}
	return Quote{Receiver: owner, Amount: share(salePrice, fee), Source: SourceOwner}, nil
}

func isNFT(f *host.Frame, collection common.Address) (bool, error) {
	ok, err := f.Host().SupportsInterface(f, collection, token.InterfaceERC721)
	if err != nil || ok {
		return ok, err
	}
	return f.Host().SupportsInterface(f, collection, token.InterfaceERC1155)
}

func share(price *big.Int, bps uint64) *big.Int {
	out := new(big.Int).Mul(price, new(big.Int).SetUint64(bps))
	return out.Div(out, big.NewInt(denominator))
}
