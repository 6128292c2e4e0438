package auction

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/asset"
	crypto "github.com/LeJamon/goNFTMarket/internal/crypto/common"
)

var idArgs = func() abi.Arguments {
	address, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(err)
	}
	uint128, err := abi.NewType("uint128", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{
		{Name: "tokenInfo", Type: asset.TupleType},
		{Name: "seller", Type: address},
		{Name: "startTime", Type: uint128},
		{Name: "endTime", Type: uint128},
		{Name: "bidToken", Type: address},
	}
}()

// ID derives the identifier of an auction from its immutable terms:
// keccak256(abi.encode(tokenInfo, seller, startTime, endTime, bidToken)).
// The minimum price is not part of the identity.
func ID(d asset.Descriptor, seller common.Address, startTime, endTime uint64, bidToken common.Address) (common.Hash, error) {
	encoded, err := idArgs.Pack(
		d.Tuple(),
		seller,
		new(big.Int).SetUint64(startTime),
		new(big.Int).SetUint64(endTime),
		bidToken,
	)
	if err != nil {
		return common.Hash{}, err
	}
	return common.Hash(crypto.Keccak256(encoded)), nil
}
