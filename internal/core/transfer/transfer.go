package transfer

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/asset"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/token"
)

var (
	// ErrNotContract is raised for ERC20 legs against an address without code.
	ErrNotContract = &host.RevertError{Reason: "NftMarketplaceV2: Token is not a contract"}
	// ErrResultFalse is raised when an ERC20 transfer returns false.
	ErrResultFalse = &host.RevertError{Reason: "NftMarketplaceV2: ERC20 transfer result false"}
	// ErrResultMalformed is raised when an ERC20 transfer returns data that is
	// not an ABI bool.
	ErrResultMalformed = &host.RevertError{Reason: "NftMarketplaceV2: ERC20 transfer result malformed"}
)

// In pulls d from from into the executing contract. Failure always aborts.
func In(f *host.Frame, d asset.Descriptor, from common.Address) error {
	_, err := Move(f, d, from, f.Self, Strict())
	return err
}

// Out sends d from the executing contract to to under p.
func Out(f *host.Frame, d asset.Descriptor, to common.Address, p Policy) (Outcome, error) {
	return Move(f, d, f.Self, to, p)
}

// PayIn pulls amount of the ERC20 bidToken from from into the executing
// contract. Native funds arrive with the call value and need no transfer.
func PayIn(f *host.Frame, bidToken, from common.Address, amount *big.Int) error {
	_, err := Move(f, asset.ERC20(bidToken, amount), from, f.Self, Strict())
	return err
}

// PayOut sends amount of bidToken, native or ERC20, to to under p.
func PayOut(f *host.Frame, bidToken, to common.Address, amount *big.Int, p Policy) (Outcome, error) {
	if asset.IsNative(bidToken) {
		return settle(f, p, f.Send(to, amount, p.GasBudget))
	}
	return Out(f, asset.ERC20(bidToken, amount), to, p)
}

// Move transfers d from from to to on behalf of the executing contract,
// which must own or be approved for the asset.
func Move(f *host.Frame, d asset.Descriptor, from, to common.Address, p Policy) (Outcome, error) {
	if d.Kind == asset.KindERC20 && !f.Host().IsContract(d.Contract) {
		return settle(f, p, ErrNotContract)
	}
	self := f.Self
	err := f.Call(d.Contract, nil, p.GasBudget, func(cf *host.Frame) error {
		switch d.Kind {
		case asset.KindERC20:
			t, ok := host.CodeAs[token.ERC20](cf.Host(), d.Contract)
			if !ok {
				return host.Revert("")
			}
			var ret []byte
			var err error
			if from == self {
				ret, err = t.Transfer(cf, to, d.AmountOrZero())
			} else {
				ret, err = t.TransferFrom(cf, from, to, d.AmountOrZero())
			}
			if err != nil {
				return err
			}
			return checkResult(ret)
		case asset.KindERC721:
			t, ok := host.CodeAs[token.ERC721](cf.Host(), d.Contract)
			if !ok {
				return host.Revert("")
			}
			return t.SafeTransferFrom(cf, from, to, d.IDOrZero(), nil)
		case asset.KindERC1155:
			t, ok := host.CodeAs[token.ERC1155](cf.Host(), d.Contract)
			if !ok {
				return host.Revert("")
			}
			return t.SafeTransferFrom(cf, from, to, d.IDOrZero(), d.AmountOrZero(), nil)
		}
		return host.Revert("")
	})
	return settle(f, p, err)
}

func checkResult(ret []byte) error {
	if len(ret) == 0 {
		return nil
	}
	ok, err := token.DecodeBool(ret)
	if err != nil {
		return ErrResultMalformed
	}
	if !ok {
		return ErrResultFalse
	}
	return nil
}

// settle applies p to the error of a leg. Running the caller itself out of
// gas always propagates.
func settle(f *host.Frame, p Policy, err error) (Outcome, error) {
	if err == nil {
		return Outcome{}, nil
	}
	if p.OnFailure == Abort || (errors.Is(err, host.ErrOutOfGas) && f.GasLeft() == 0) {
		return Outcome{}, err
	}
	return Classify(err), nil
}

// Classify maps a leg error onto an Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return Outcome{}
	case errors.Is(err, ErrResultFalse), errors.Is(err, ErrResultMalformed):
		return Outcome{Failure: Rejected, Reason: host.ReasonOf(err)}
	case errors.Is(err, host.ErrOutOfGas):
		return Outcome{Failure: OutOfGas, Reason: err.Error()}
	default:
		return Outcome{Failure: Reverted, Reason: host.ReasonOf(err)}
	}
}
