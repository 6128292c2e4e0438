package host

import (
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Status is the outcome of a transaction.
type Status int

const (
	StatusSuccess Status = iota
	StatusReverted
	StatusOutOfGas
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusReverted:
		return "reverted"
	case StatusOutOfGas:
		return "outOfGas"
	}
	return "unknown"
}

// Event is a log entry emitted by a contract. Args hold display values
// (hex addresses, decimal amounts).
type Event struct {
	Contract common.Address    `json:"contract"`
	Name     string            `json:"name"`
	Topic    common.Hash       `json:"topic"`
	Args     map[string]string `json:"args,omitempty"`
}

// Receipt describes an executed transaction.
type Receipt struct {
	ID        uuid.UUID      `json:"id"`
	Sequence  uint64         `json:"sequence"`
	Method    string         `json:"method"`
	From      common.Address `json:"from"`
	To        common.Address `json:"to"`
	Value     *big.Int       `json:"value"`
	Status    Status         `json:"status"`
	Reason    string         `json:"reason,omitempty"`
	GasUsed   uint64         `json:"gasUsed"`
	Timestamp time.Time      `json:"timestamp"`
	Events    []Event        `json:"events,omitempty"`
	Changes   int            `json:"changes"`

	// Err is the error that aborted the transaction, nil on success.
	Err error `json:"-"`
}

// Succeeded reports whether the transaction committed.
func (r *Receipt) Succeeded() bool {
	return r.Status == StatusSuccess
}

// EventsNamed returns the emitted events called name, in order.
func (r *Receipt) EventsNamed(name string) []Event {
	var out []Event
	for _, ev := range r.Events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

func statusOf(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrOutOfGas):
		return StatusOutOfGas
	default:
		return StatusReverted
	}
}
