package token

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
	"github.com/LeJamon/goNFTMarket/internal/core/state"
)

// Behaviour selects how a token reacts to transfers.
type Behaviour uint8

const (
	// Honest tokens follow the standard.
	Honest Behaviour = iota
	// Reverting tokens abort every transfer.
	Reverting
	// ReturningFalse ERC20 tokens report failure without reverting.
	ReturningFalse
	// NoReturnValue ERC20 tokens transfer but return no data.
	NoReturnValue
	// BurningGas tokens consume every unit of gas they are given.
	BurningGas
)

func (b Behaviour) String() string {
	switch b {
	case Honest:
		return "honest"
	case Reverting:
		return "revert"
	case ReturningFalse:
		return "returnFalse"
	case NoReturnValue:
		return "noReturnValue"
	case BurningGas:
		return "burnGas"
	}
	return fmt.Sprintf("behaviour(%d)", uint8(b))
}

// ParseBehaviour maps a behaviour name back to its value.
func ParseBehaviour(s string) (Behaviour, error) {
	for b := Honest; b <= BurningGas; b++ {
		if b.String() == s {
			return b, nil
		}
	}
	return Honest, fmt.Errorf("unknown token behaviour %q", s)
}

// RoyaltyMode selects how a royalty-bearing collection answers royaltyInfo.
type RoyaltyMode uint8

const (
	RoyaltyHonest RoyaltyMode = iota
	// RoyaltyOverPrice returns an amount larger than the sale price.
	RoyaltyOverPrice
	// RoyaltyReverting aborts royaltyInfo.
	RoyaltyReverting
)

// config is the per-contract switchboard stored in state.
type config struct {
	Behaviour       Behaviour      `codec:"behaviour"`
	RoyaltyReceiver common.Address `codec:"royaltyReceiver"`
	RoyaltyBps      uint64         `codec:"royaltyBps"`
	RoyaltyMode     RoyaltyMode    `codec:"royaltyMode"`
}

func loadConfig(f *host.Frame) (config, error) {
	var c config
	_, err := state.ReadRecord(f.State(), keylet.TokenConfig(f.Self), &c)
	return c, err
}

func storeConfig(f *host.Frame, c config) error {
	return state.WriteRecord(f.State(), keylet.TokenConfig(f.Self), c)
}

// switchboard is embedded by every token and exposes the behaviour switch.
type switchboard struct {
	// OnTransfer, when set, runs inside the token frame before every
	// transfer. It models tokens that call back into their caller.
	OnTransfer func(f *host.Frame) error
}

// SetBehaviour switches the token's transfer behaviour.
func (s *switchboard) SetBehaviour(f *host.Frame, b Behaviour) error {
	c, err := loadConfig(f)
	if err != nil {
		return err
	}
	c.Behaviour = b
	return storeConfig(f, c)
}

// GetBehaviour returns the token's transfer behaviour.
func (s *switchboard) GetBehaviour(f *host.Frame) (Behaviour, error) {
	c, err := loadConfig(f)
	return c.Behaviour, err
}

// misbehave applies the reverting and gas burning behaviours and runs the
// transfer hook. It returns the configured behaviour for the caller to act
// on the remaining ones.
func (s *switchboard) misbehave(f *host.Frame, reason string) (Behaviour, error) {
	c, err := loadConfig(f)
	if err != nil {
		return Honest, err
	}
	switch c.Behaviour {
	case Reverting:
		return c.Behaviour, host.Revert(reason)
	case BurningGas:
		return c.Behaviour, burn(f)
	}
	if s.OnTransfer != nil {
		if err := s.OnTransfer(f); err != nil {
			return c.Behaviour, err
		}
	}
	return c.Behaviour, nil
}

func burn(f *host.Frame) error {
	for {
		if err := f.UseGas(10_000); err != nil {
			return err
		}
	}
}

var boolArgs = func() abi.Arguments {
	t, err := abi.NewType("bool", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: t}}
}()

// EncodeBool returns the ABI encoding of v.
func EncodeBool(v bool) []byte {
	out, err := boolArgs.Pack(v)
	if err != nil {
		panic(err)
	}
	return out
}

// DecodeBool parses an ABI encoded bool.
func DecodeBool(data []byte) (bool, error) {
	values, err := boolArgs.Unpack(data)
	if err != nil {
		return false, err
	}
	v, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("abi: unexpected %T for bool", values[0])
	}
	return v, nil
}
