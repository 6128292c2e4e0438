package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
	"github.com/LeJamon/goNFTMarket/internal/core/state"
)

// KindCollection is the code kind of Collection.
const KindCollection = "ERC721"

// Collection is an ERC721 token with an open mint.
type Collection struct {
	switchboard
}

var _ ERC721 = (*Collection)(nil)

// NewCollection returns an honest collection.
func NewCollection() *Collection {
	return &Collection{}
}

func (c *Collection) Kind() string { return KindCollection }

func (c *Collection) SupportsInterface(f *host.Frame, id host.InterfaceID) (bool, error) {
	if err := f.UseGas(300); err != nil {
		return false, err
	}
	return id == InterfaceERC165 || id == InterfaceERC721 || id == InterfaceERC721Metadata, nil
}

// Mint creates token id owned by to.
func (c *Collection) Mint(f *host.Frame, to common.Address, id *big.Int) error {
	if to == (common.Address{}) {
		return host.Revert("ERC721: mint to the zero address")
	}
	owner, err := c.ownerOf(f, id)
	if err != nil {
		return err
	}
	if owner != (common.Address{}) {
		return host.Revert("ERC721: token already minted")
	}
	if err := c.adjustBalance(f, to, 1); err != nil {
		return err
	}
	if err := state.Put(f.State(), keylet.NFTOwner(f.Self, id), to.Bytes()); err != nil {
		return err
	}
	return c.emitTransfer(f, common.Address{}, to, id)
}

func (c *Collection) BalanceOf(f *host.Frame, holder common.Address) (*big.Int, error) {
	if holder == (common.Address{}) {
		return nil, host.Revert("ERC721: address zero is not a valid owner")
	}
	return state.ReadBig(f.State(), keylet.NFTBalance(f.Self, holder))
}

func (c *Collection) OwnerOf(f *host.Frame, id *big.Int) (common.Address, error) {
	owner, err := c.ownerOf(f, id)
	if err != nil {
		return common.Address{}, err
	}
	if owner == (common.Address{}) {
		return common.Address{}, host.Revert("ERC721: invalid token ID")
	}
	return owner, nil
}

func (c *Collection) Approve(f *host.Frame, to common.Address, id *big.Int) error {
	owner, err := c.OwnerOf(f, id)
	if err != nil {
		return err
	}
	if to == owner {
		return host.Revert("ERC721: approval to current owner")
	}
	if f.Caller != owner {
		approved, err := c.IsApprovedForAll(f, owner, f.Caller)
		if err != nil {
			return err
		}
		if !approved {
			return host.Revert("ERC721: approve caller is not token owner or approved for all")
		}
	}
	if err := state.Put(f.State(), keylet.NFTApproval(f.Self, id), to.Bytes()); err != nil {
		return err
	}
	return f.Emit("Approval", common.Hash{}, map[string]string{
		"owner": owner.Hex(), "approved": to.Hex(), "tokenId": id.String(),
	})
}

func (c *Collection) GetApproved(f *host.Frame, id *big.Int) (common.Address, error) {
	if _, err := c.OwnerOf(f, id); err != nil {
		return common.Address{}, err
	}
	data, err := f.State().Read(keylet.NFTApproval(f.Self, id))
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(data), nil
}

func (c *Collection) SetApprovalForAll(f *host.Frame, operator common.Address, approved bool) error {
	return setOperator(f, "ERC721: approve to caller", operator, approved)
}

func (c *Collection) IsApprovedForAll(f *host.Frame, owner, operator common.Address) (bool, error) {
	return state.ReadFlag(f.State(), keylet.Operator(f.Self, owner, operator))
}

func (c *Collection) TransferFrom(f *host.Frame, from, to common.Address, id *big.Int) error {
	if _, err := c.misbehave(f, "ERC721 transfer revert"); err != nil {
		return err
	}
	return c.transfer(f, from, to, id)
}

func (c *Collection) SafeTransferFrom(f *host.Frame, from, to common.Address, id *big.Int, data []byte) error {
	if err := c.TransferFrom(f, from, to, id); err != nil {
		return err
	}
	return checkERC721Received(f, from, to, id, data)
}

func (c *Collection) transfer(f *host.Frame, from, to common.Address, id *big.Int) error {
	owner, err := c.OwnerOf(f, id)
	if err != nil {
		return err
	}
	if f.Caller != owner {
		approved, err := c.GetApproved(f, id)
		if err != nil {
			return err
		}
		operator, err := c.IsApprovedForAll(f, owner, f.Caller)
		if err != nil {
			return err
		}
		if approved != f.Caller && !operator {
			return host.Revert("ERC721: caller is not token owner or approved")
		}
	}
	if owner != from {
		return host.Revert("ERC721: transfer from incorrect owner")
	}
	if to == (common.Address{}) {
		return host.Revert("ERC721: transfer to the zero address")
	}
	if err := state.Delete(f.State(), keylet.NFTApproval(f.Self, id)); err != nil {
		return err
	}
	if err := c.adjustBalance(f, from, -1); err != nil {
		return err
	}
	if err := c.adjustBalance(f, to, 1); err != nil {
		return err
	}
	if err := state.Put(f.State(), keylet.NFTOwner(f.Self, id), to.Bytes()); err != nil {
		return err
	}
	return c.emitTransfer(f, from, to, id)
}

func (c *Collection) ownerOf(f *host.Frame, id *big.Int) (common.Address, error) {
	data, err := f.State().Read(keylet.NFTOwner(f.Self, id))
	if err != nil || data == nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(data), nil
}

func (c *Collection) adjustBalance(f *host.Frame, holder common.Address, delta int64) error {
	k := keylet.NFTBalance(f.Self, holder)
	bal, err := state.ReadBig(f.State(), k)
	if err != nil {
		return err
	}
	return state.WriteBig(f.State(), k, bal.Add(bal, big.NewInt(delta)))
}

func (c *Collection) emitTransfer(f *host.Frame, from, to common.Address, id *big.Int) error {
	return f.Emit("Transfer", common.Hash{}, map[string]string{
		"from": from.Hex(), "to": to.Hex(), "tokenId": id.String(),
	})
}

func setOperator(f *host.Frame, selfReason string, operator common.Address, approved bool) error {
	if operator == f.Caller {
		return host.Revert(selfReason)
	}
	if err := state.WriteFlag(f.State(), keylet.Operator(f.Self, f.Caller, operator), approved); err != nil {
		return err
	}
	flag := "false"
	if approved {
		flag = "true"
	}
	return f.Emit("ApprovalForAll", common.Hash{}, map[string]string{
		"owner": f.Caller.Hex(), "operator": operator.Hex(), "approved": flag,
	})
}

// checkERC721Received runs the recipient's hook when to is a contract.
func checkERC721Received(f *host.Frame, from, to common.Address, id *big.Int, data []byte) error {
	if !f.Host().IsContract(to) {
		return nil
	}
	operator := f.Caller
	var selector host.InterfaceID
	err := f.Call(to, nil, 0, func(cf *host.Frame) error {
		r, ok := host.CodeAs[ERC721Receiver](cf.Host(), to)
		if !ok {
			return host.Revert("ERC721: transfer to non ERC721Receiver implementer")
		}
		var err error
		selector, err = r.OnERC721Received(cf, operator, from, id, data)
		return err
	})
	if err != nil {
		return err
	}
	if selector != SelectorERC721Received {
		return host.Revert("ERC721: transfer to non ERC721Receiver implementer")
	}
	return nil
}
