package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
	"github.com/LeJamon/goNFTMarket/internal/core/state"
)

// KindMultiCollection is the code kind of MultiCollection.
const KindMultiCollection = "ERC1155"

// MultiCollection is an ERC1155 token with an open mint.
type MultiCollection struct {
	switchboard
}

var _ ERC1155 = (*MultiCollection)(nil)

// NewMultiCollection returns an honest multi-token collection.
func NewMultiCollection() *MultiCollection {
	return &MultiCollection{}
}

func (m *MultiCollection) Kind() string { return KindMultiCollection }

func (m *MultiCollection) SupportsInterface(f *host.Frame, id host.InterfaceID) (bool, error) {
	if err := f.UseGas(300); err != nil {
		return false, err
	}
	return id == InterfaceERC165 || id == InterfaceERC1155 || id == InterfaceERC1155MetadataURI, nil
}

// Mint creates amount units of id for to.
func (m *MultiCollection) Mint(f *host.Frame, to common.Address, id, amount *big.Int) error {
	if to == (common.Address{}) {
		return host.Revert("ERC1155: mint to the zero address")
	}
	if err := m.credit(f, to, id, amount); err != nil {
		return err
	}
	return m.emitTransfer(f, common.Address{}, to, id, amount)
}

func (m *MultiCollection) BalanceOf(f *host.Frame, holder common.Address, id *big.Int) (*big.Int, error) {
	if holder == (common.Address{}) {
		return nil, host.Revert("ERC1155: address zero is not a valid owner")
	}
	return state.ReadBig(f.State(), keylet.MultiBalance(f.Self, id, holder))
}

func (m *MultiCollection) SetApprovalForAll(f *host.Frame, operator common.Address, approved bool) error {
	return setOperator(f, "ERC1155: setting approval status for self", operator, approved)
}

func (m *MultiCollection) IsApprovedForAll(f *host.Frame, owner, operator common.Address) (bool, error) {
	return state.ReadFlag(f.State(), keylet.Operator(f.Self, owner, operator))
}

func (m *MultiCollection) SafeTransferFrom(f *host.Frame, from, to common.Address, id, amount *big.Int, data []byte) error {
	if _, err := m.misbehave(f, "ERC1155 transfer revert"); err != nil {
		return err
	}
	if from != f.Caller {
		approved, err := m.IsApprovedForAll(f, from, f.Caller)
		if err != nil {
			return err
		}
		if !approved {
			return host.Revert("ERC1155: caller is not token owner or approved")
		}
	}
	if to == (common.Address{}) {
		return host.Revert("ERC1155: transfer to the zero address")
	}
	k := keylet.MultiBalance(f.Self, id, from)
	fromBal, err := state.ReadBig(f.State(), k)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return host.Revert("ERC1155: insufficient balance for transfer")
	}
	if err := state.WriteBig(f.State(), k, fromBal.Sub(fromBal, amount)); err != nil {
		return err
	}
	if err := m.credit(f, to, id, amount); err != nil {
		return err
	}
	if err := m.emitTransfer(f, from, to, id, amount); err != nil {
		return err
	}
	return checkERC1155Received(f, from, to, id, amount, data)
}

func (m *MultiCollection) credit(f *host.Frame, to common.Address, id, amount *big.Int) error {
	k := keylet.MultiBalance(f.Self, id, to)
	bal, err := state.ReadBig(f.State(), k)
	if err != nil {
		return err
	}
	return state.WriteBig(f.State(), k, bal.Add(bal, amount))
}

func (m *MultiCollection) emitTransfer(f *host.Frame, from, to common.Address, id, amount *big.Int) error {
	return f.Emit("TransferSingle", common.Hash{}, map[string]string{
		"operator": f.Caller.Hex(), "from": from.Hex(), "to": to.Hex(),
		"id": id.String(), "value": amount.String(),
	})
}

func checkERC1155Received(f *host.Frame, from, to common.Address, id, amount *big.Int, data []byte) error {
	if !f.Host().IsContract(to) {
		return nil
	}
	operator := f.Caller
	var selector host.InterfaceID
	err := f.Call(to, nil, 0, func(cf *host.Frame) error {
		r, ok := host.CodeAs[ERC1155Receiver](cf.Host(), to)
		if !ok {
			return host.Revert("ERC1155: transfer to non-ERC1155Receiver implementer")
		}
		var err error
		selector, err = r.OnERC1155Received(cf, operator, from, id, amount, data)
		return err
	})
	if err != nil {
		return err
	}
	if selector != SelectorERC1155Received {
		return host.Revert("ERC1155: ERC1155Receiver rejected tokens")
	}
	return nil
}
