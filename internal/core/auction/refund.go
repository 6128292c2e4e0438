package auction

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
	"github.com/LeJamon/goNFTMarket/internal/core/state"
)

// RefundPolicy decides what happens when refunding an outbid bidder fails.
type RefundPolicy int

const (
	// RefundStrict aborts the new bid.
	RefundStrict RefundPolicy = iota
	// RefundLenient keeps the refund in custody and lets the bid through.
	RefundLenient
)

func (p RefundPolicy) String() string {
	if p == RefundLenient {
		return "lenient"
	}
	return "strict"
}

// ParseRefundPolicy parses "strict" or "lenient".
func ParseRefundPolicy(s string) (RefundPolicy, error) {
	switch strings.ToLower(s) {
	case "", "strict":
		return RefundStrict, nil
	case "lenient":
		return RefundLenient, nil
	}
	return RefundStrict, fmt.Errorf("unknown refund policy %q", s)
}

// PendingRefund returns the amount of bidToken held for account after
// failed refunds.
func PendingRefund(f *host.Frame, bidToken, account common.Address) (*big.Int, error) {
	return state.ReadBig(f.State(), keylet.PendingRefund(f.Self, bidToken, account))
}

func credit(f *host.Frame, bidToken, account common.Address, amount *big.Int) error {
	k := keylet.PendingRefund(f.Self, bidToken, account)
	prev, err := state.ReadBig(f.State(), k)
	if err != nil {
		return err
	}
	return state.WriteBig(f.State(), k, prev.Add(prev, amount))
}

func clearRefund(f *host.Frame, bidToken, account common.Address) error {
	return state.WriteBig(f.State(), keylet.PendingRefund(f.Self, bidToken, account), nil)
}
