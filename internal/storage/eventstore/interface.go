// Package eventstore keeps the history of executed transactions and the
// events they emitted in a relational database.
package eventstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/LeJamon/goNFTMarket/internal/core/host"
)

// ReceiptRecord is a stored transaction receipt.
type ReceiptRecord struct {
	ID        uuid.UUID     `json:"id"`
	Sequence  uint64        `json:"sequence"`
	Method    string        `json:"method"`
	From      string        `json:"from"`
	To        string        `json:"to"`
	Value     string        `json:"value"`
	Status    string        `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	GasUsed   uint64        `json:"gasUsed"`
	Timestamp time.Time     `json:"timestamp"`
	Changes   int           `json:"changes"`
	Events    []EventRecord `json:"events,omitempty"`
}

// EventRecord is a stored event. Index is its position in the receipt.
type EventRecord struct {
	ReceiptID uuid.UUID         `json:"receiptId"`
	Sequence  uint64            `json:"sequence"`
	Index     int               `json:"index"`
	Contract  string            `json:"contract"`
	Name      string            `json:"name"`
	Topic     string            `json:"topic"`
	Args      map[string]string `json:"args,omitempty"`
}

// EventFilter selects events. Empty fields match everything.
type EventFilter struct {
	Name     string
	Contract string
	Topic    string
	// FromSequence is inclusive.
	FromSequence uint64
	Limit        int
	Offset       int
}

// DefaultEventLimit applies when EventFilter.Limit is zero.
const DefaultEventLimit = 100

// MaxEventLimit bounds EventFilter.Limit.
const MaxEventLimit = 1000

// Store persists receipts. Implementations are safe for concurrent use.
type Store interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
	Ping(ctx context.Context) error

	// SaveReceipt stores r and its events atomically.
	SaveReceipt(ctx context.Context, r *ReceiptRecord) error
	GetReceipt(ctx context.Context, id uuid.UUID) (*ReceiptRecord, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]EventRecord, error)
	ReceiptCount(ctx context.Context) (int64, error)
	// LatestSequence returns 0 for an empty store.
	LatestSequence(ctx context.Context) (uint64, error)
}

// FromReceipt converts a host receipt to its stored form.
func FromReceipt(r *host.Receipt) *ReceiptRecord {
	rec := &ReceiptRecord{
		ID:        r.ID,
		Sequence:  r.Sequence,
		Method:    r.Method,
		From:      r.From.Hex(),
		To:        r.To.Hex(),
		Value:     "0",
		Status:    r.Status.String(),
		Reason:    r.Reason,
		GasUsed:   r.GasUsed,
		Timestamp: r.Timestamp.UTC(),
		Changes:   r.Changes,
	}
	if r.Value != nil {
		rec.Value = r.Value.String()
	}
	for i, ev := range r.Events {
		rec.Events = append(rec.Events, EventRecord{
			ReceiptID: r.ID,
			Sequence:  r.Sequence,
			Index:     i,
			Contract:  ev.Contract.Hex(),
			Name:      ev.Name,
			Topic:     ev.Topic.Hex(),
			Args:      ev.Args,
		})
	}
	return rec
}
