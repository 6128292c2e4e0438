// Package asset describes the tokens the marketplace moves.
package asset

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/state"
)

// Kind is the token standard of an asset.
type Kind uint8

const (
	KindERC20 Kind = iota
	KindERC721
	KindERC1155
)

func (k Kind) String() string {
	switch k {
	case KindERC20:
		return "ERC20"
	case KindERC721:
		return "ERC721"
	case KindERC1155:
		return "ERC1155"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind accepts "erc20", "erc721" or "erc1155" in any case.
func ParseKind(s string) (Kind, error) {
	for k := KindERC20; k <= KindERC1155; k++ {
		if strings.EqualFold(k.String(), s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown asset kind %q", s)
}

// NativeToken is the bid token sentinel for the chain's native currency.
var NativeToken = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// IsNative reports whether token is the native currency sentinel.
func IsNative(token common.Address) bool {
	return token == NativeToken
}

var (
	ErrUnknownKind   = errors.New("unknown asset kind")
	ErrERC20ID       = errors.New("ERC20 asset must have zero id")
	ErrERC721Amount  = errors.New("ERC721 asset must have zero amount")
	ErrERC1155Amount = errors.New("ERC1155 asset must have positive amount")
)

// Descriptor identifies an amount of a token. ID is ignored for ERC20 and
// Amount for ERC721.
type Descriptor struct {
	Kind     Kind
	Contract common.Address
	ID       *big.Int
	Amount   *big.Int
}

// ERC721 returns a descriptor for one non-fungible token.
func ERC721(contract common.Address, id *big.Int) Descriptor {
	return Descriptor{Kind: KindERC721, Contract: contract, ID: id, Amount: new(big.Int)}
}

// ERC1155 returns a descriptor for amount units of id.
func ERC1155(contract common.Address, id, amount *big.Int) Descriptor {
	return Descriptor{Kind: KindERC1155, Contract: contract, ID: id, Amount: amount}
}

// ERC20 returns a descriptor for amount of a fungible token.
func ERC20(contract common.Address, amount *big.Int) Descriptor {
	return Descriptor{Kind: KindERC20, Contract: contract, ID: new(big.Int), Amount: amount}
}

// IDOrZero returns ID, or zero when unset.
func (d Descriptor) IDOrZero() *big.Int {
	if d.ID == nil {
		return new(big.Int)
	}
	return d.ID
}

// AmountOrZero returns Amount, or zero when unset.
func (d Descriptor) AmountOrZero() *big.Int {
	if d.Amount == nil {
		return new(big.Int)
	}
	return d.Amount
}

// IsNFT reports whether d is an ERC721 or ERC1155 asset.
func (d Descriptor) IsNFT() bool {
	return d.Kind == KindERC721 || d.Kind == KindERC1155
}

// Validate checks the shape invariant of the descriptor.
func (d Descriptor) Validate() error {
	switch d.Kind {
	case KindERC20:
		if d.IDOrZero().Sign() != 0 {
			return ErrERC20ID
		}
	case KindERC721:
		if d.AmountOrZero().Sign() != 0 {
			return ErrERC721Amount
		}
	case KindERC1155:
		if d.AmountOrZero().Sign() <= 0 {
			return ErrERC1155Amount
		}
	default:
		return ErrUnknownKind
	}
	return nil
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s(%s id=%s amount=%s)", d.Kind, d.Contract.Hex(), d.IDOrZero(), d.AmountOrZero())
}

// Tuple is the ABI shape (uint8 tokenType, address tokenAddress,
// uint256 id, uint256 amount).
type Tuple struct {
	TokenType    uint8
	TokenAddress common.Address
	Id           *big.Int
	Amount       *big.Int
}

// TupleType is the ABI type of Tuple.
var TupleType = func() abi.Type {
	t, err := abi.NewType("tuple", "", []abi.ArgumentMarshaling{
		{Name: "tokenType", Type: "uint8"},
		{Name: "tokenAddress", Type: "address"},
		{Name: "id", Type: "uint256"},
		{Name: "amount", Type: "uint256"},
	})
	if err != nil {
		panic(err)
	}
	return t
}()

// Tuple returns the ABI value of d.
func (d Descriptor) Tuple() Tuple {
	return Tuple{
		TokenType:    uint8(d.Kind),
		TokenAddress: d.Contract,
		Id:           d.IDOrZero(),
		Amount:       d.AmountOrZero(),
	}
}

// Encode returns abi.encode(d).
func (d Descriptor) Encode() ([]byte, error) {
	return abi.Arguments{{Type: TupleType}}.Pack(d.Tuple())
}

// Record is the stored form of a Descriptor.
type Record struct {
	Kind     uint8          `codec:"kind"`
	Contract common.Address `codec:"contract"`
	ID       []byte         `codec:"id"`
	Amount   []byte         `codec:"amount"`
}

// Record converts d for storage.
func (d Descriptor) Record() Record {
	return Record{
		Kind:     uint8(d.Kind),
		Contract: d.Contract,
		ID:       state.BigBytes(d.ID),
		Amount:   state.BigBytes(d.Amount),
	}
}

// Descriptor converts a stored record back.
func (r Record) Descriptor() Descriptor {
	return Descriptor{
		Kind:     Kind(r.Kind),
		Contract: r.Contract,
		ID:       state.Big(r.ID),
		Amount:   state.Big(r.Amount),
	}
}
