// Package token implements the token standards the marketplace trades:
// ERC20 currencies, ERC721 and ERC1155 collections, their ownable and
// royalty-bearing variants, and a programmable wallet contract. Every
// token can be switched into a hostile behaviour to exercise the
// marketplace's failure handling.
package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/host"
)

// Interface identifiers.
var (
	InterfaceERC165                  = host.InterfaceID{0x01, 0xff, 0xc9, 0xa7}
	InterfaceERC721                  = host.InterfaceID{0x80, 0xac, 0x58, 0xcd}
	InterfaceERC721Metadata          = host.InterfaceID{0x5b, 0x5e, 0x13, 0x9f}
	InterfaceERC1155                 = host.InterfaceID{0xd9, 0xb6, 0x7a, 0x26}
	InterfaceERC1155MetadataURI      = host.InterfaceID{0x0e, 0x89, 0x34, 0x1c}
	InterfaceERC2981                 = host.InterfaceID{0x2a, 0x55, 0x20, 0x5a}
	InterfaceERC1155Receiver         = host.InterfaceID{0x4e, 0x23, 0x12, 0xe0}
	InterfaceERC721Receiver          = host.InterfaceID{0x15, 0x0b, 0x7a, 0x02}
	InterfaceAccessControl           = host.InterfaceID{0x79, 0x65, 0xdb, 0x0b}
	InterfaceAccessControlEnumerable = host.InterfaceID{0x5a, 0x05, 0x18, 0x0f}
)

// Receiver hook selectors.
var (
	SelectorERC721Received  = host.InterfaceID{0x15, 0x0b, 0x7a, 0x02}
	SelectorERC1155Received = host.InterfaceID{0xf2, 0x3a, 0x6e, 0x61}
)

// ERC20 is the fungible token surface. Transfer and TransferFrom return raw
// ABI return data, which hostile tokens may leave empty or set to false.
type ERC20 interface {
	host.Contract
	BalanceOf(f *host.Frame, holder common.Address) (*big.Int, error)
	Allowance(f *host.Frame, owner, spender common.Address) (*big.Int, error)
	Approve(f *host.Frame, spender common.Address, amount *big.Int) ([]byte, error)
	Transfer(f *host.Frame, to common.Address, amount *big.Int) ([]byte, error)
	TransferFrom(f *host.Frame, from, to common.Address, amount *big.Int) ([]byte, error)
}

// ERC721 is the non-fungible token surface.
type ERC721 interface {
	host.Contract
	host.InterfaceSupporter
	BalanceOf(f *host.Frame, holder common.Address) (*big.Int, error)
	OwnerOf(f *host.Frame, id *big.Int) (common.Address, error)
	Approve(f *host.Frame, to common.Address, id *big.Int) error
	GetApproved(f *host.Frame, id *big.Int) (common.Address, error)
	SetApprovalForAll(f *host.Frame, operator common.Address, approved bool) error
	IsApprovedForAll(f *host.Frame, owner, operator common.Address) (bool, error)
	TransferFrom(f *host.Frame, from, to common.Address, id *big.Int) error
	SafeTransferFrom(f *host.Frame, from, to common.Address, id *big.Int, data []byte) error
}

// ERC1155 is the multi-token surface.
type ERC1155 interface {
	host.Contract
	host.InterfaceSupporter
	BalanceOf(f *host.Frame, holder common.Address, id *big.Int) (*big.Int, error)
	SetApprovalForAll(f *host.Frame, operator common.Address, approved bool) error
	IsApprovedForAll(f *host.Frame, owner, operator common.Address) (bool, error)
	SafeTransferFrom(f *host.Frame, from, to common.Address, id, amount *big.Int, data []byte) error
}

// RoyaltyInfo is the ERC2981 royalty surface.
type RoyaltyInfo interface {
	RoyaltyInfo(f *host.Frame, tokenID, salePrice *big.Int) (common.Address, *big.Int, error)
}

// Ownable exposes a contract owner.
type Ownable interface {
	Owner(f *host.Frame) (common.Address, error)
}

// ERC721Receiver accepts safe ERC721 transfers by returning
// SelectorERC721Received.
type ERC721Receiver interface {
	OnERC721Received(f *host.Frame, operator, from common.Address, id *big.Int, data []byte) (host.InterfaceID, error)
}

// ERC1155Receiver accepts safe ERC1155 transfers by returning
// SelectorERC1155Received.
type ERC1155Receiver interface {
	OnERC1155Received(f *host.Frame, operator, from common.Address, id, amount *big.Int, data []byte) (host.InterfaceID, error)
}
