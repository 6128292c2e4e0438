package jsonrpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/asset"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/market"
)

// parseParams decodes params into v. Missing params decode as {}.
func parseParams(params json.RawMessage, v interface{}) *RpcError {
	if len(params) == 0 {
		return nil
	}
	dec := json.NewDecoder(strings.NewReader(string(params)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return RpcErrorInvalidParams(err.Error())
	}
	return nil
}

func resolve(chain Chain, field, ref string) (common.Address, *RpcError) {
	if ref == "" {
		return common.Address{}, RpcErrorInvalidParams(field + " is required")
	}
	addr, err := chain.Resolve(ref)
	if err != nil {
		return common.Address{}, RpcErrorInvalidParams(fmt.Sprintf("%s: %v", field, err))
	}
	return addr, nil
}

func parseHash(field, s string) (common.Hash, *RpcError) {
	raw := strings.TrimPrefix(s, "0x")
	if len(raw) != 64 {
		return common.Hash{}, RpcErrorInvalidParams(field + " must be a 32-byte hex string")
	}
	if _, ok := new(big.Int).SetString(raw, 16); !ok {
		return common.Hash{}, RpcErrorInvalidParams(field + " must be a 32-byte hex string")
	}
	return common.HexToHash(raw), nil
}

// parseInteger accepts decimal or 0x-prefixed hex.
func parseInteger(field, s string) (*big.Int, *RpcError) {
	if s == "" {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(s, 0)
	if !ok || n.Sign() < 0 {
		return nil, RpcErrorInvalidParams(field + " must be a non-negative integer")
	}
	return n, nil
}

// parseAmount reads a decimal amount in whole tokens.
func parseAmount(field, s string) (*big.Int, *RpcError) {
	if s == "" {
		return nil, RpcErrorInvalidParams(field + " is required")
	}
	n, err := asset.ParseUnits(s, 18)
	if err != nil {
		return nil, RpcErrorInvalidParams(fmt.Sprintf("%s: %v", field, err))
	}
	return n, nil
}

func amountOf(n *big.Int) Amount {
	if n == nil {
		n = new(big.Int)
	}
	return Amount{Raw: n.String(), Display: asset.FormatUnits(n, 18)}
}

// view runs fn against the marketplace, mapping failures to internal
// errors.
func view(chain Chain, fn func(m *market.Marketplace, f *host.Frame) error) *RpcError {
	if err := chain.View(fn); err != nil {
		return RpcErrorInternal(err.Error())
	}
	return nil
}
