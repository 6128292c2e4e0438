package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/host"
)

// KindWallet is the code kind of Wallet.
const KindWallet = "Wallet"

// Wallet is a contract account. It accepts native value, ERC721 and ERC1155
// receipts unless switched into a hostile behaviour, which makes it useful
// as a bidder or seller that misbehaves on refunds.
type Wallet struct {
	switchboard
}

// NewWallet returns an accepting wallet.
func NewWallet() *Wallet {
	return &Wallet{}
}

func (w *Wallet) Kind() string { return KindWallet }

func (w *Wallet) Receive(f *host.Frame) error {
	_, err := w.misbehave(f, "Wallet: receive revert")
	return err
}

func (w *Wallet) SupportsInterface(f *host.Frame, id host.InterfaceID) (bool, error) {
	if err := f.UseGas(300); err != nil {
		return false, err
	}
	return id == InterfaceERC165 || id == InterfaceERC721Receiver || id == InterfaceERC1155Receiver, nil
}

func (w *Wallet) OnERC721Received(f *host.Frame, _, _ common.Address, _ *big.Int, _ []byte) (host.InterfaceID, error) {
	if _, err := w.misbehave(f, "Wallet: receive revert"); err != nil {
		return host.InterfaceID{}, err
	}
	return SelectorERC721Received, nil
}

func (w *Wallet) OnERC1155Received(f *host.Frame, _, _ common.Address, _, _ *big.Int, _ []byte) (host.InterfaceID, error) {
	if _, err := w.misbehave(f, "Wallet: receive revert"); err != nil {
		return host.InterfaceID{}, err
	}
	return SelectorERC1155Received, nil
}

// Execute forwards value and a call into target from the wallet.
func (w *Wallet) Execute(f *host.Frame, target common.Address, value *big.Int, fn func(cf *host.Frame) error) error {
	return f.Call(target, value, 0, fn)
}
