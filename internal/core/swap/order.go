// Package swap executes direct swaps of two assets between a seller, who
// signs an order off-chain, and the counterparty that submits it.
package swap

import (
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/asset"
	crypto "github.com/LeJamon/goNFTMarket/internal/crypto/common"
	"github.com/LeJamon/goNFTMarket/internal/crypto/signature"
)

// Order is the seller-signed swap offer. Wanted is paid by the submitter to
// the seller, Offered is paid by the seller to the submitter.
type Order struct {
	Marketplace common.Address
	Wanted      asset.Descriptor
	Offered     asset.Descriptor
	Deadline    uint64
	OrderID     common.Hash
}

var orderArgs = func() abi.Arguments {
	address, _ := abi.NewType("address", "", nil)
	uint256, _ := abi.NewType("uint256", "", nil)
	bytes32, _ := abi.NewType("bytes32", "", nil)
	return abi.Arguments{
		{Name: "marketplace", Type: address},
		{Name: "wanted", Type: asset.TupleType},
		{Name: "offered", Type: asset.TupleType},
		{Name: "deadline", Type: uint256},
		{Name: "orderId", Type: bytes32},
	}
}()

// Encode returns the ABI encoding the seller signs. The order is a static
// tuple, so its encoding equals that of its fields in sequence.
func (o Order) Encode() ([]byte, error) {
	return orderArgs.Pack(
		o.Marketplace,
		o.Wanted.Tuple(),
		o.Offered.Tuple(),
		new(big.Int).SetUint64(o.Deadline),
		[32]byte(o.OrderID),
	)
}

// Key returns the replay key of the order signed by seller.
func (o Order) Key(seller common.Address) (common.Hash, error) {
	encoded, err := o.Encode()
	if err != nil {
		return common.Hash{}, err
	}
	return common.Hash(crypto.Keccak256(encoded, seller.Bytes())), nil
}

// Sign signs the order with personal_sign.
func Sign(key *btcec.PrivateKey, o Order) ([]byte, error) {
	encoded, err := o.Encode()
	if err != nil {
		return nil, err
	}
	return signature.SignPersonal(key, encoded), nil
}

// Signer recovers the address that signed o.
func Signer(o Order, sig []byte) (common.Address, error) {
	encoded, err := o.Encode()
	if err != nil {
		return common.Address{}, err
	}
	return signature.RecoverPersonal(encoded, sig)
}
