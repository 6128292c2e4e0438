package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
	"github.com/LeJamon/goNFTMarket/internal/core/state"
)

// KindCurrency is the code kind of Currency.
const KindCurrency = "ERC20"

// Currency is an ERC20 token with an open mint.
type Currency struct {
	switchboard
}

var _ ERC20 = (*Currency)(nil)

// NewCurrency returns an honest currency.
func NewCurrency() *Currency {
	return &Currency{}
}

func (c *Currency) Kind() string { return KindCurrency }

// Mint creates amount tokens for to.
func (c *Currency) Mint(f *host.Frame, to common.Address, amount *big.Int) error {
	if to == (common.Address{}) {
		return host.Revert("ERC20: mint to the zero address")
	}
	supply, err := state.ReadBig(f.State(), keylet.Supply(f.Self))
	if err != nil {
		return err
	}
	if err := state.WriteBig(f.State(), keylet.Supply(f.Self), supply.Add(supply, amount)); err != nil {
		return err
	}
	bal, err := c.BalanceOf(f, to)
	if err != nil {
		return err
	}
	if err := state.WriteBig(f.State(), keylet.ERC20Balance(f.Self, to), bal.Add(bal, amount)); err != nil {
		return err
	}
	return f.Emit("Transfer", common.Hash{}, map[string]string{
		"from": common.Address{}.Hex(), "to": to.Hex(), "value": amount.String(),
	})
}

// TotalSupply returns the minted supply.
func (c *Currency) TotalSupply(f *host.Frame) (*big.Int, error) {
	return state.ReadBig(f.State(), keylet.Supply(f.Self))
}

func (c *Currency) BalanceOf(f *host.Frame, holder common.Address) (*big.Int, error) {
	return state.ReadBig(f.State(), keylet.ERC20Balance(f.Self, holder))
}

func (c *Currency) Allowance(f *host.Frame, owner, spender common.Address) (*big.Int, error) {
	return state.ReadBig(f.State(), keylet.Allowance(f.Self, owner, spender))
}

func (c *Currency) Approve(f *host.Frame, spender common.Address, amount *big.Int) ([]byte, error) {
	if spender == (common.Address{}) {
		return nil, host.Revert("ERC20: approve to the zero address")
	}
	if err := state.WriteBig(f.State(), keylet.Allowance(f.Self, f.Caller, spender), amount); err != nil {
		return nil, err
	}
	if err := f.Emit("Approval", common.Hash{}, map[string]string{
		"owner": f.Caller.Hex(), "spender": spender.Hex(), "value": amount.String(),
	}); err != nil {
		return nil, err
	}
	return EncodeBool(true), nil
}

func (c *Currency) Transfer(f *host.Frame, to common.Address, amount *big.Int) ([]byte, error) {
	return c.transferChecked(f, f.Caller, to, amount, false)
}

func (c *Currency) TransferFrom(f *host.Frame, from, to common.Address, amount *big.Int) ([]byte, error) {
	return c.transferChecked(f, from, to, amount, true)
}

func (c *Currency) transferChecked(f *host.Frame, from, to common.Address, amount *big.Int, spend bool) ([]byte, error) {
	b, err := c.misbehave(f, "ERC20 transfer revert")
	if err != nil {
		return nil, err
	}
	if b == ReturningFalse {
		return EncodeBool(false), nil
	}
	if spend {
		if err := c.spendAllowance(f, from, f.Caller, amount); err != nil {
			return nil, err
		}
	}
	if err := c.move(f, from, to, amount); err != nil {
		return nil, err
	}
	if b == NoReturnValue {
		return nil, nil
	}
	return EncodeBool(true), nil
}

func (c *Currency) spendAllowance(f *host.Frame, owner, spender common.Address, amount *big.Int) error {
	allowance, err := c.Allowance(f, owner, spender)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return host.Revert("ERC20: insufficient allowance")
	}
	return state.WriteBig(f.State(), keylet.Allowance(f.Self, owner, spender), allowance.Sub(allowance, amount))
}

func (c *Currency) move(f *host.Frame, from, to common.Address, amount *big.Int) error {
	if from == (common.Address{}) {
		return host.Revert("ERC20: transfer from the zero address")
	}
	if to == (common.Address{}) {
		return host.Revert("ERC20: transfer to the zero address")
	}
	fromBal, err := c.BalanceOf(f, from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return host.Revert("ERC20: transfer amount exceeds balance")
	}
	if err := state.WriteBig(f.State(), keylet.ERC20Balance(f.Self, from), fromBal.Sub(fromBal, amount)); err != nil {
		return err
	}
	toBal, err := c.BalanceOf(f, to)
	if err != nil {
		return err
	}
	if err := state.WriteBig(f.State(), keylet.ERC20Balance(f.Self, to), toBal.Add(toBal, amount)); err != nil {
		return err
	}
	return f.Emit("Transfer", common.Hash{}, map[string]string{
		"from": from.Hex(), "to": to.Hex(), "value": amount.String(),
	})
}
