package keylet

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	market     = common.HexToAddress("0x1000000000000000000000000000000000000001")
	collection = common.HexToAddress("0x2000000000000000000000000000000000000002")
	alice      = common.HexToAddress("0x3000000000000000000000000000000000000003")
	bob        = common.HexToAddress("0x4000000000000000000000000000000000000004")
)

func TestKeyletsAreDeterministic(t *testing.T) {
	id := common.HexToHash("0xabcdef")
	require.Equal(t, Auction(market, id), Auction(market, id))
	require.Equal(t, NFTOwner(collection, big.NewInt(7)), NFTOwner(collection, big.NewInt(7)))
	require.Equal(t, TypeAuction, Auction(market, id).Type)
}

func TestKeyletsDoNotCollide(t *testing.T) {
	id := common.HexToHash("0x01")
	keys := []Keylet{
		NativeBalance(alice),
		Code(alice),
		ERC20Balance(collection, alice),
		ERC20Balance(collection, bob),
		Allowance(collection, alice, bob),
		Allowance(collection, bob, alice),
		Supply(collection),
		NFTOwner(collection, big.NewInt(1)),
		NFTOwner(collection, big.NewInt(2)),
		NFTBalance(collection, alice),
		NFTApproval(collection, big.NewInt(1)),
		Operator(collection, alice, market),
		MultiBalance(collection, big.NewInt(1), alice),
		MultiBalance(collection, big.NewInt(2), alice),
		ContractOwner(collection),
		TokenConfig(collection),
		Auction(market, id),
		AuctionCompleted(market, id),
		OpenSetLength(market),
		OpenSetSlot(market, 0),
		OpenSetSlot(market, 1),
		OpenSetIndex(market, id),
		RoyaltyOverride(market, collection),
		Fees(market),
		OwnerFee(market),
		RoleMemberIndex(market, id, alice),
		RoleMemberSlot(market, id, 0),
		RoleMemberCount(market, id),
		RoleAdmin(market, id),
		SwapOrder(market, id),
		Guard(market),
		PendingRefund(market, collection, alice),
	}

	seen := make(map[[32]byte]int)
	for i, k := range keys {
		prev, dup := seen[k.Key]
		require.False(t, dup, "keylet %d collides with keylet %d", i, prev)
		seen[k.Key] = i
	}
}

func TestNilIDMatchesZero(t *testing.T) {
	require.Equal(t, NFTOwner(collection, big.NewInt(0)).Key, NFTOwner(collection, nil).Key)
}
