package testing

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/crypto/signature"
)

// Account is a named test account with a deterministic key.
type Account struct {
	// Name identifies the account in failure messages.
	Name string

	Key     *btcec.PrivateKey
	Address common.Address
}

// NewAccount derives an account from name. The same name always yields the
// same key.
func NewAccount(name string) *Account {
	key, err := signature.KeyFromSeed(name)
	if err != nil {
		panic("failed to derive key for account " + name + ": " + err.Error())
	}
	return &Account{Name: name, Key: key, Address: signature.Address(key)}
}

// AccountFromAddress wraps an address without a key, for contracts.
func AccountFromAddress(name string, addr common.Address) *Account {
	return &Account{Name: name, Address: addr}
}

// Sign signs msg with personal_sign.
func (a *Account) Sign(msg []byte) []byte {
	if a.Key == nil {
		panic("account " + a.Name + " has no key")
	}
	return signature.SignPersonal(a.Key, msg)
}

func (a *Account) String() string {
	return fmt.Sprintf("%s(%s)", a.Name, a.Address.Hex())
}
