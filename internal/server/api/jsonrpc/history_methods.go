package jsonrpc

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/LeJamon/goNFTMarket/internal/storage/eventstore"
)

type receiptParams struct {
	ID string `json:"id"`
}

// ReceiptMethod handles history_receipt.
type ReceiptMethod struct{ events eventstore.Store }

func (m *ReceiptMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p receiptParams
	if rpcErr := parseParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return nil, RpcErrorInvalidParams("id must be a uuid")
	}
	rec, err := m.events.GetReceipt(ctx.Context, id)
	if errors.Is(err, eventstore.ErrReceiptNotFound) {
		return nil, RpcErrorNotFound("receipt not found: " + p.ID)
	}
	if err != nil {
		return nil, RpcErrorInternal(err.Error())
	}
	return rec, nil
}

func (m *ReceiptMethod) Cacheable() bool { return false }

type eventsParams struct {
	Name         string `json:"name"`
	Contract     string `json:"contract"`
	Topic        string `json:"topic"`
	FromSequence uint64 `json:"from_sequence"`
	Limit        int    `json:"limit"`
	Offset       int    `json:"offset"`
}

// EventsMethod handles history_events.
type EventsMethod struct{ events eventstore.Store }

func (m *EventsMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p eventsParams
	if rpcErr := parseParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	events, err := m.events.ListEvents(ctx.Context, eventstore.EventFilter{
		Name:         p.Name,
		Contract:     p.Contract,
		Topic:        p.Topic,
		FromSequence: p.FromSequence,
		Limit:        p.Limit,
		Offset:       p.Offset,
	})
	if errors.Is(err, eventstore.ErrInvalidLimit) {
		return nil, RpcErrorInvalidParams(err.Error())
	}
	if err != nil {
		return nil, RpcErrorInternal(err.Error())
	}
	if events == nil {
		events = []eventstore.EventRecord{}
	}
	return map[string]interface{}{"events": events}, nil
}

func (m *EventsMethod) Cacheable() bool { return false }

// ServerInfoMethod handles server_info.
type ServerInfoMethod struct {
	chain  Chain
	events eventstore.Store
	list   func() []string
}

func (m *ServerInfoMethod) Handle(ctx *RpcContext, _ json.RawMessage) (interface{}, *RpcError) {
	info := map[string]interface{}{
		"marketplace": m.chain.MarketplaceAddress().Hex(),
		"methods":     m.list(),
		"history":     m.events != nil,
	}
	if m.events != nil {
		count, err := m.events.ReceiptCount(ctx.Context)
		if err != nil {
			return nil, RpcErrorInternal(err.Error())
		}
		seq, err := m.events.LatestSequence(ctx.Context)
		if err != nil {
			return nil, RpcErrorInternal(err.Error())
		}
		info["receipts"] = count
		info["latest_sequence"] = seq
	}
	return info, nil
}

func (m *ServerInfoMethod) Cacheable() bool { return false }
