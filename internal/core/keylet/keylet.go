package keylet

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	crypto "github.com/LeJamon/goNFTMarket/internal/crypto/common"
)

// Type identifies the kind of record stored under a key.
type Type uint16

const (
	TypeNativeBalance Type = iota + 1
	TypeCode
	TypeERC20Balance
	TypeERC20Allowance
	TypeERC20Supply
	TypeNFTOwner
	TypeNFTBalance
	TypeNFTApproval
	TypeOperatorApproval
	TypeMultiBalance
	TypeContractOwner
	TypeAuction
	TypeAuctionCompleted
	TypeOpenSetLength
	TypeOpenSetSlot
	TypeOpenSetIndex
	TypeRoyaltyOverride
	TypeFeeState
	TypeOwnerFee
	TypeRoleMemberIndex
	TypeRoleMemberSlot
	TypeRoleMemberCount
	TypeRoleAdmin
	TypeSwapOrder
	TypeGuard
	TypeTokenConfig
	TypePendingRefund
)

// Space identifiers for keylet generation.
const (
	spaceNative       uint16 = 'N' // Native currency balance
	spaceCode         uint16 = 'c' // Deployed contract marker
	spaceERC20Balance uint16 = 'b' // ERC20 balance
	spaceAllowance    uint16 = 'a' // ERC20 allowance
	spaceSupply       uint16 = 'y' // ERC20 total supply
	spaceNFTOwner     uint16 = 'o' // ERC721 owner of token id
	spaceNFTBalance   uint16 = 'B' // ERC721 balance of account
	spaceNFTApproval  uint16 = 'p' // ERC721 single-token approval
	spaceOperator     uint16 = 'O' // ERC721/ERC1155 operator approval
	spaceMultiBalance uint16 = 'm' // ERC1155 balance
	spaceOwner        uint16 = 'w' // Ownable owner
	spaceAuction      uint16 = 'u' // Auction record
	spaceCompleted    uint16 = 'C' // Completed auction tombstone
	spaceOpenLen      uint16 = 'L' // Open auction set length
	spaceOpenSlot     uint16 = 'l' // Open auction set slot
	spaceOpenIndex    uint16 = 'i' // Open auction set index
	spaceRoyalty      uint16 = 'r' // Royalty override
	spaceFees         uint16 = 'f' // Fee state (singleton per marketplace)
	spaceOwnerFee     uint16 = 'F' // Default fee for collection owners
	spaceRoleIndex    uint16 = 'R' // Role member index
	spaceRoleSlot     uint16 = 'S' // Role member slot
	spaceRoleCount    uint16 = 'K' // Role member count
	spaceRoleAdmin    uint16 = 'A' // Role admin
	spaceSwapOrder    uint16 = 's' // Completed swap order
	spaceGuard        uint16 = 'g' // Reentrancy guard
	spaceTokenConfig  uint16 = 't' // Token contract configuration
	spacePending      uint16 = 'P' // Refund held for a bidder
)

// Keylet represents an addressable location in the world state.
// It combines a type identifier with a 256-bit key.
type Keylet struct {
	Type Type
	Key  [32]byte
}

// indexHash computes a keylet key by hashing the space and provided data.
func indexHash(space uint16, data ...[]byte) [32]byte {
	spaceBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(spaceBytes, space)

	inputs := make([][]byte, 0, len(data)+1)
	inputs = append(inputs, spaceBytes)
	inputs = append(inputs, data...)

	return crypto.Keccak256(inputs...)
}

func word(n *big.Int) []byte {
	if n == nil {
		return make([]byte, 32)
	}
	return common.BigToHash(n).Bytes()
}

func uint64Bytes(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

// NativeBalance returns the keylet for an account's native currency balance.
func NativeBalance(account common.Address) Keylet {
	return Keylet{Type: TypeNativeBalance, Key: indexHash(spaceNative, account[:])}
}

// Code returns the keylet marking a deployed contract.
func Code(contract common.Address) Keylet {
	return Keylet{Type: TypeCode, Key: indexHash(spaceCode, contract[:])}
}

// ERC20Balance returns the keylet for holder's balance in token.
func ERC20Balance(token, holder common.Address) Keylet {
	return Keylet{Type: TypeERC20Balance, Key: indexHash(spaceERC20Balance, token[:], holder[:])}
}

// Allowance returns the keylet for spender's allowance over owner's tokens.
func Allowance(token, owner, spender common.Address) Keylet {
	return Keylet{Type: TypeERC20Allowance, Key: indexHash(spaceAllowance, token[:], owner[:], spender[:])}
}

// Supply returns the keylet for a token's total supply.
func Supply(token common.Address) Keylet {
	return Keylet{Type: TypeERC20Supply, Key: indexHash(spaceSupply, token[:])}
}

// NFTOwner returns the keylet for the owner of an ERC721 token id.
func NFTOwner(collection common.Address, id *big.Int) Keylet {
	return Keylet{Type: TypeNFTOwner, Key: indexHash(spaceNFTOwner, collection[:], word(id))}
}

// NFTBalance returns the keylet for the number of ERC721 tokens held by holder.
func NFTBalance(collection, holder common.Address) Keylet {
	return Keylet{Type: TypeNFTBalance, Key: indexHash(spaceNFTBalance, collection[:], holder[:])}
}

// NFTApproval returns the keylet for the approved address of an ERC721 token id.
func NFTApproval(collection common.Address, id *big.Int) Keylet {
	return Keylet{Type: TypeNFTApproval, Key: indexHash(spaceNFTApproval, collection[:], word(id))}
}

// Operator returns the keylet for an operator-for-all approval.
func Operator(collection, owner, operator common.Address) Keylet {
	return Keylet{Type: TypeOperatorApproval, Key: indexHash(spaceOperator, collection[:], owner[:], operator[:])}
}

// MultiBalance returns the keylet for an ERC1155 balance.
func MultiBalance(collection common.Address, id *big.Int, holder common.Address) Keylet {
	return Keylet{Type: TypeMultiBalance, Key: indexHash(spaceMultiBalance, collection[:], word(id), holder[:])}
}

// ContractOwner returns the keylet for an Ownable contract's owner.
func ContractOwner(contract common.Address) Keylet {
	return Keylet{Type: TypeContractOwner, Key: indexHash(spaceOwner, contract[:])}
}

// TokenConfig returns the keylet for a token contract's mutable configuration.
func TokenConfig(contract common.Address) Keylet {
	return Keylet{Type: TypeTokenConfig, Key: indexHash(spaceTokenConfig, contract[:])}
}

// Auction returns the keylet for an auction record.
func Auction(market common.Address, id common.Hash) Keylet {
	return Keylet{Type: TypeAuction, Key: indexHash(spaceAuction, market[:], id[:])}
}

// AuctionCompleted returns the keylet for an auction's completion tombstone.
func AuctionCompleted(market common.Address, id common.Hash) Keylet {
	return Keylet{Type: TypeAuctionCompleted, Key: indexHash(spaceCompleted, market[:], id[:])}
}

// OpenSetLength returns the keylet holding the number of open auctions.
func OpenSetLength(market common.Address) Keylet {
	return Keylet{Type: TypeOpenSetLength, Key: indexHash(spaceOpenLen, market[:])}
}

// OpenSetSlot returns the keylet for position i (0-based) of the open set.
func OpenSetSlot(market common.Address, i uint64) Keylet {
	return Keylet{Type: TypeOpenSetSlot, Key: indexHash(spaceOpenSlot, market[:], uint64Bytes(i))}
}

// OpenSetIndex returns the keylet holding the 1-based position of id in the open set.
func OpenSetIndex(market common.Address, id common.Hash) Keylet {
	return Keylet{Type: TypeOpenSetIndex, Key: indexHash(spaceOpenIndex, market[:], id[:])}
}

// RoyaltyOverride returns the keylet for the admin royalty of a collection.
func RoyaltyOverride(market, collection common.Address) Keylet {
	return Keylet{Type: TypeRoyaltyOverride, Key: indexHash(spaceRoyalty, market[:], collection[:])}
}

// Fees returns the keylet for the marketplace fee state.
func Fees(market common.Address) Keylet {
	return Keylet{Type: TypeFeeState, Key: indexHash(spaceFees, market[:])}
}

// OwnerFee returns the keylet for the default fee paid to collection owners.
func OwnerFee(market common.Address) Keylet {
	return Keylet{Type: TypeOwnerFee, Key: indexHash(spaceOwnerFee, market[:])}
}

// RoleMemberIndex returns the keylet holding the 1-based position of account in role.
func RoleMemberIndex(contract common.Address, role common.Hash, account common.Address) Keylet {
	return Keylet{Type: TypeRoleMemberIndex, Key: indexHash(spaceRoleIndex, contract[:], role[:], account[:])}
}

// RoleMemberSlot returns the keylet for position i (0-based) of role's members.
func RoleMemberSlot(contract common.Address, role common.Hash, i uint64) Keylet {
	return Keylet{Type: TypeRoleMemberSlot, Key: indexHash(spaceRoleSlot, contract[:], role[:], uint64Bytes(i))}
}

// RoleMemberCount returns the keylet holding the number of members of role.
func RoleMemberCount(contract common.Address, role common.Hash) Keylet {
	return Keylet{Type: TypeRoleMemberCount, Key: indexHash(spaceRoleCount, contract[:], role[:])}
}

// RoleAdmin returns the keylet for the admin role of role.
func RoleAdmin(contract common.Address, role common.Hash) Keylet {
	return Keylet{Type: TypeRoleAdmin, Key: indexHash(spaceRoleAdmin, contract[:], role[:])}
}

// SwapOrder returns the keylet for a completed swap order.
func SwapOrder(market common.Address, orderKey common.Hash) Keylet {
	return Keylet{Type: TypeSwapOrder, Key: indexHash(spaceSwapOrder, market[:], orderKey[:])}
}

// Guard returns the keylet for a contract's reentrancy guard.
func Guard(contract common.Address) Keylet {
	return Keylet{Type: TypeGuard, Key: indexHash(spaceGuard, contract[:])}
}

// PendingRefund returns the keylet for a refund of token that the
// marketplace holds for account after a failed payout.
func PendingRefund(market, token, account common.Address) Keylet {
	return Keylet{Type: TypePendingRefund, Key: indexHash(spacePending, market[:], token[:], account[:])}
}
