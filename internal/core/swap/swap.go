package swap

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/LeJamon/goNFTMarket/internal/core/asset"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
	"github.com/LeJamon/goNFTMarket/internal/core/state"
	"github.com/LeJamon/goNFTMarket/internal/core/transfer"
)

const (
	reasonPaused       = "NftMarketplace: Swaps paused"
	reasonMarketplace  = "NftMarketplace: Wrong marketplace"
	reasonExpired      = "NftMarketplace: Expired"
	reasonBadSignature = "NftMarketplace: Bad signature"
	reasonBadAsset     = "NftMarketplace: Bad asset"
	reasonCompleted    = "NftMarketplace: Order completed"
)

// EventSwapMade is emitted for every executed swap.
const EventSwapMade = "SwapMade"

const feeDenominator = 10000

// Terms exposes the marketplace settings a swap reads.
type Terms interface {
	FeeInfo(f *host.Frame) (bps uint64, receiver common.Address, err error)
	IsPausedSwaps(f *host.Frame) (bool, error)
}

// Desk executes swaps on behalf of the executing contract.
type Desk struct {
	Terms  Terms
	Logger *zap.Logger
}

func (d *Desk) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// MakeSwap executes o, signed by seller, with the caller as counterparty.
// Both legs must succeed. The fee is taken from the first ERC20 leg.
func (d *Desk) MakeSwap(f *host.Frame, o Order, sig []byte, seller common.Address) error {
	paused, err := d.Terms.IsPausedSwaps(f)
	if err != nil {
		return err
	}
	if paused {
		return host.Revert(reasonPaused)
	}
	if o.Marketplace != f.Self {
		return host.Revert(reasonMarketplace)
	}
	if o.Deadline < f.Timestamp() {
		return host.Revert(reasonExpired)
	}
	signer, err := Signer(o, sig)
	if err != nil || signer != seller {
		return host.Revert(reasonBadSignature)
	}
	if o.Wanted.Validate() != nil || o.Offered.Validate() != nil {
		return host.Revert(reasonBadAsset)
	}
	key, err := o.Key(seller)
	if err != nil {
		return err
	}
	done, err := IsCompleted(f, key)
	if err != nil {
		return err
	}
	if done {
		return host.Revert(reasonCompleted)
	}
	if err := state.WriteFlag(f.State(), keylet.SwapOrder(f.Self, key), true); err != nil {
		return err
	}

	bps, feeReceiver, err := d.Terms.FeeInfo(f)
	if err != nil {
		return err
	}
	buyer := f.Caller
	fee := new(big.Int)
	switch {
	case o.Wanted.Kind == asset.KindERC20:
		fee, err = d.payWithFee(f, o.Wanted, buyer, seller, feeReceiver, bps)
		if err != nil {
			return err
		}
		if err := d.move(f, o.Offered, seller, buyer); err != nil {
			return err
		}
	case o.Offered.Kind == asset.KindERC20:
		if err := d.move(f, o.Wanted, buyer, seller); err != nil {
			return err
		}
		fee, err = d.payWithFee(f, o.Offered, seller, buyer, feeReceiver, bps)
		if err != nil {
			return err
		}
	default:
		if err := d.move(f, o.Wanted, buyer, seller); err != nil {
			return err
		}
		if err := d.move(f, o.Offered, seller, buyer); err != nil {
			return err
		}
	}

	d.logger().Debug("swap made",
		zap.String("order", key.Hex()),
		zap.String("seller", seller.Hex()),
		zap.String("buyer", buyer.Hex()))
	return f.Emit(EventSwapMade, key, map[string]string{
		"seller":   seller.Hex(),
		"buyer":    buyer.Hex(),
		"orderId":  o.OrderID.Hex(),
		"wanted":   o.Wanted.String(),
		"offered":  o.Offered.String(),
		"deadline": strconv.FormatUint(o.Deadline, 10),
		"fee":      fee.String(),
	})
}

func (d *Desk) move(f *host.Frame, a asset.Descriptor, from, to common.Address) error {
	_, err := transfer.Move(f, a, from, to, transfer.Strict())
	return err
}

// payWithFee moves the ERC20 leg a from payer, splitting off the fee.
func (d *Desk) payWithFee(f *host.Frame, a asset.Descriptor, payer, payee, feeReceiver common.Address, bps uint64) (*big.Int, error) {
	amount := a.AmountOrZero()
	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	fee.Div(fee, big.NewInt(feeDenominator))
	if fee.Sign() > 0 {
		if err := d.move(f, asset.ERC20(a.Contract, fee), payer, feeReceiver); err != nil {
			return nil, err
		}
	}
	return fee, d.move(f, asset.ERC20(a.Contract, new(big.Int).Sub(amount, fee)), payer, payee)
}

// IsCompleted reports whether the order with key was executed.
func IsCompleted(f *host.Frame, key common.Hash) (bool, error) {
	return state.ReadFlag(f.State(), keylet.SwapOrder(f.Self, key))
}
