package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
	"github.com/LeJamon/goNFTMarket/internal/core/state"
)

// Ownership records the deployer as contract owner.
type Ownership struct{}

// Init stores the deploying account as owner.
func (Ownership) Init(f *host.Frame) error {
	return state.Put(f.State(), keylet.ContractOwner(f.Self), f.Caller.Bytes())
}

// Owner returns the contract owner.
func (Ownership) Owner(f *host.Frame) (common.Address, error) {
	data, err := f.State().Read(keylet.ContractOwner(f.Self))
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(data), nil
}

// TransferOwnership hands the contract to next. Only the owner may call it.
func (o Ownership) TransferOwnership(f *host.Frame, next common.Address) error {
	owner, err := o.Owner(f)
	if err != nil {
		return err
	}
	if owner != f.Caller {
		return host.Revert("Ownable: caller is not the owner")
	}
	if next == (common.Address{}) {
		return host.Revert("Ownable: new owner is the zero address")
	}
	return state.Put(f.State(), keylet.ContractOwner(f.Self), next.Bytes())
}

// OwnableCollection is an ERC721 collection with an owner.
type OwnableCollection struct {
	Collection
	Ownership
}

var (
	_ ERC721  = (*OwnableCollection)(nil)
	_ Ownable = (*OwnableCollection)(nil)
)

func (c *OwnableCollection) Kind() string { return "OwnableERC721" }

// OwnableMultiCollection is an ERC1155 collection with an owner.
type OwnableMultiCollection struct {
	MultiCollection
	Ownership
}

var (
	_ ERC1155 = (*OwnableMultiCollection)(nil)
	_ Ownable = (*OwnableMultiCollection)(nil)
)

func (m *OwnableMultiCollection) Kind() string { return "OwnableERC1155" }

// DefaultRoyaltyBps is the royalty a RoyaltyCollection charges after deploy.
const DefaultRoyaltyBps = 500

// RoyaltyCollection is an ownable ERC721 collection implementing ERC2981.
// Without an initial receiver the deployer receives royalties.
type RoyaltyCollection struct {
	OwnableCollection

	InitialReceiver common.Address
	InitialBps      uint64
}

// NewRoyaltyCollection returns a collection paying bps to receiver.
func NewRoyaltyCollection(receiver common.Address, bps uint64) *RoyaltyCollection {
	return &RoyaltyCollection{InitialReceiver: receiver, InitialBps: bps}
}

var (
	_ ERC721      = (*RoyaltyCollection)(nil)
	_ RoyaltyInfo = (*RoyaltyCollection)(nil)
)

func (c *RoyaltyCollection) Kind() string { return "RoyaltyERC721" }

func (c *RoyaltyCollection) Init(f *host.Frame) error {
	if err := c.Ownership.Init(f); err != nil {
		return err
	}
	return initRoyalty(f, c.InitialReceiver, c.InitialBps)
}

func (c *RoyaltyCollection) SupportsInterface(f *host.Frame, id host.InterfaceID) (bool, error) {
	if id == InterfaceERC2981 {
		return true, f.UseGas(300)
	}
	return c.Collection.SupportsInterface(f, id)
}

func (c *RoyaltyCollection) RoyaltyInfo(f *host.Frame, _ *big.Int, salePrice *big.Int) (common.Address, *big.Int, error) {
	return royaltyInfo(f, salePrice)
}

// SetRoyalty changes the receiver and rate. Only the owner may call it.
func (c *RoyaltyCollection) SetRoyalty(f *host.Frame, receiver common.Address, bps uint64) error {
	if err := c.onlyOwner(f); err != nil {
		return err
	}
	return setRoyalty(f, receiver, bps)
}

// SetRoyaltyMode switches how royaltyInfo answers.
func (c *RoyaltyCollection) SetRoyaltyMode(f *host.Frame, mode RoyaltyMode) error {
	return setRoyaltyMode(f, mode)
}

func (c *RoyaltyCollection) onlyOwner(f *host.Frame) error {
	owner, err := c.Owner(f)
	if err != nil {
		return err
	}
	if owner != f.Caller {
		return host.Revert("Ownable: caller is not the owner")
	}
	return nil
}

// UnownedRoyaltyCollection implements ERC2981 without an owner, so royalty
// resolution has nothing to fall back to when royaltyInfo fails.
type UnownedRoyaltyCollection struct {
	Collection

	InitialReceiver common.Address
	InitialBps      uint64
}

// NewUnownedRoyaltyCollection returns an ownerless collection paying bps to receiver.
func NewUnownedRoyaltyCollection(receiver common.Address, bps uint64) *UnownedRoyaltyCollection {
	return &UnownedRoyaltyCollection{InitialReceiver: receiver, InitialBps: bps}
}

var (
	_ ERC721      = (*UnownedRoyaltyCollection)(nil)
	_ RoyaltyInfo = (*UnownedRoyaltyCollection)(nil)
)

func (c *UnownedRoyaltyCollection) Kind() string { return "UnownedRoyaltyERC721" }

func (c *UnownedRoyaltyCollection) Init(f *host.Frame) error {
	return initRoyalty(f, c.InitialReceiver, c.InitialBps)
}

func (c *UnownedRoyaltyCollection) SupportsInterface(f *host.Frame, id host.InterfaceID) (bool, error) {
	if id == InterfaceERC2981 {
		return true, f.UseGas(300)
	}
	return c.Collection.SupportsInterface(f, id)
}

func (c *UnownedRoyaltyCollection) RoyaltyInfo(f *host.Frame, _ *big.Int, salePrice *big.Int) (common.Address, *big.Int, error) {
	return royaltyInfo(f, salePrice)
}

// SetRoyaltyMode switches how royaltyInfo answers.
func (c *UnownedRoyaltyCollection) SetRoyaltyMode(f *host.Frame, mode RoyaltyMode) error {
	return setRoyaltyMode(f, mode)
}

// initRoyalty stores the initial royalty terms. A zero receiver means the
// deployer, a zero rate means DefaultRoyaltyBps.
func initRoyalty(f *host.Frame, receiver common.Address, bps uint64) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	cfg.RoyaltyReceiver = receiver
	if cfg.RoyaltyReceiver == (common.Address{}) {
		cfg.RoyaltyReceiver = f.Caller
	}
	cfg.RoyaltyBps = bps
	if cfg.RoyaltyBps == 0 {
		cfg.RoyaltyBps = DefaultRoyaltyBps
	}
	return storeConfig(f, cfg)
}

func royaltyInfo(f *host.Frame, salePrice *big.Int) (common.Address, *big.Int, error) {
	cfg, err := loadConfig(f)
	if err != nil {
		return common.Address{}, nil, err
	}
	switch cfg.RoyaltyMode {
	case RoyaltyReverting:
		return common.Address{}, nil, host.Revert("royaltyInfo revert")
	case RoyaltyOverPrice:
		return cfg.RoyaltyReceiver, new(big.Int).Add(salePrice, big.NewInt(1)), nil
	}
	amount := new(big.Int).Mul(salePrice, new(big.Int).SetUint64(cfg.RoyaltyBps))
	return cfg.RoyaltyReceiver, amount.Div(amount, big.NewInt(10000)), nil
}

func setRoyalty(f *host.Frame, receiver common.Address, bps uint64) error {
	if bps > 10000 {
		return host.Revert("ERC2981: royalty fee will exceed salePrice")
	}
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	cfg.RoyaltyReceiver = receiver
	cfg.RoyaltyBps = bps
	return storeConfig(f, cfg)
}

func setRoyaltyMode(f *host.Frame, mode RoyaltyMode) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	cfg.RoyaltyMode = mode
	return storeConfig(f, cfg)
}
