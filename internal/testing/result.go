package testing

import (
	"github.com/LeJamon/goNFTMarket/internal/core/host"
)

// Result codes.
const (
	CodeSuccess  = "success"
	CodeReverted = "reverted"
	CodeOutOfGas = "outOfGas"
)

// TxResult is the result of a submitted call.
type TxResult struct {
	// Code is one of the Code constants.
	Code string

	Success bool

	// Message is the revert reason, if any.
	Message string

	Receipt *host.Receipt
}

func resultOf(r *host.Receipt) TxResult {
	return TxResult{
		Code:    r.Status.String(),
		Success: r.Succeeded(),
		Message: r.Reason,
		Receipt: r,
	}
}

// IsSuccess reports whether the call committed.
func (r TxResult) IsSuccess() bool {
	return r.Code == CodeSuccess
}

// Events returns the events of the call named name.
func (r TxResult) Events(name string) []host.Event {
	if r.Receipt == nil {
		return nil
	}
	return r.Receipt.EventsNamed(name)
}
