package jsonrpc

import (
	"context"
	"encoding/json"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/market"
	"github.com/LeJamon/goNFTMarket/internal/world"
)

// Chain is the world the read API serves.
type Chain interface {
	View(fn func(m *market.Marketplace, f *host.Frame) error) error
	Resolve(ref string) (common.Address, error)
	MarketplaceAddress() common.Address
	Tokens() []world.Token
	Accounts() []world.Account
	ERC20Balance(currency, holder common.Address) (*big.Int, error)
	OwnerOf(collection common.Address, id *big.Int) (common.Address, error)
}

var _ Chain = (*world.World)(nil)

// RpcContext carries request-scoped information to handlers.
type RpcContext struct {
	Context  context.Context
	ClientIP string
}

// MethodHandler is implemented by every RPC method.
type MethodHandler interface {
	Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError)
	// Cacheable results are served from the quote cache until the next
	// committed receipt.
	Cacheable() bool
}

// MethodRegistry maps method names to handlers.
type MethodRegistry struct {
	methods map[string]MethodHandler
}

func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{
		methods: make(map[string]MethodHandler),
	}
}

func (r *MethodRegistry) Register(name string, handler MethodHandler) {
	r.methods[name] = handler
}

func (r *MethodRegistry) Get(name string) (MethodHandler, bool) {
	handler, exists := r.methods[name]
	return handler, exists
}

// List returns the registered method names in order.
func (r *MethodRegistry) List() []string {
	methods := make([]string, 0, len(r.methods))
	for name := range r.methods {
		methods = append(methods, name)
	}
	sort.Strings(methods)
	return methods
}

// JsonRpcRequest is a JSON-RPC 2.0 request. Params is either an object or
// an array holding one object.
type JsonRpcRequest struct {
	JsonRpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id,omitempty"`
}

// JsonRpcResponse is a JSON-RPC 2.0 response.
type JsonRpcResponse struct {
	JsonRpc string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RpcError   `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Amount is a token amount in base units with its 18-decimal rendering.
type Amount struct {
	Raw     string `json:"raw"`
	Display string `json:"display"`
}
