package jsonrpc

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// TokensMethod handles world_tokens.
type TokensMethod struct{ chain Chain }

func (m *TokensMethod) Handle(_ *RpcContext, _ json.RawMessage) (interface{}, *RpcError) {
	return map[string]interface{}{"tokens": m.chain.Tokens()}, nil
}

func (m *TokensMethod) Cacheable() bool { return false }

// AccountsMethod handles world_accounts.
type AccountsMethod struct{ chain Chain }

func (m *AccountsMethod) Handle(_ *RpcContext, _ json.RawMessage) (interface{}, *RpcError) {
	accounts := m.chain.Accounts()
	out := make([]map[string]string, len(accounts))
	for i, a := range accounts {
		out[i] = map[string]string{"name": a.Name, "address": a.Address.Hex()}
	}
	return map[string]interface{}{"accounts": out}, nil
}

func (m *AccountsMethod) Cacheable() bool { return false }

type balanceParams struct {
	Token  string `json:"token"`
	Holder string `json:"holder"`
}

// BalanceMethod handles world_balance for ERC20 currencies and "native".
type BalanceMethod struct{ chain Chain }

func (m *BalanceMethod) Handle(_ *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p balanceParams
	if rpcErr := parseParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	currency, rpcErr := resolve(m.chain, "token", p.Token)
	if rpcErr != nil {
		return nil, rpcErr
	}
	holder, rpcErr := resolve(m.chain, "holder", p.Holder)
	if rpcErr != nil {
		return nil, rpcErr
	}
	bal, err := m.chain.ERC20Balance(currency, holder)
	if err != nil {
		return nil, RpcErrorInvalidParams(err.Error())
	}
	return map[string]interface{}{
		"token":   currency.Hex(),
		"holder":  holder.Hex(),
		"balance": amountOf(bal),
	}, nil
}

func (m *BalanceMethod) Cacheable() bool { return true }

type ownerParams struct {
	Collection string `json:"collection"`
	TokenID    string `json:"token_id"`
}

// OwnerOfMethod handles world_ownerOf.
type OwnerOfMethod struct{ chain Chain }

func (m *OwnerOfMethod) Handle(_ *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var p ownerParams
	if rpcErr := parseParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	collection, rpcErr := resolve(m.chain, "collection", p.Collection)
	if rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := parseInteger("token_id", p.TokenID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	owner, err := m.chain.OwnerOf(collection, id)
	if err != nil {
		return nil, RpcErrorNotFound(fmt.Sprintf("owner of %s #%s: %v", collection.Hex(), id, err))
	}
	if owner == (common.Address{}) {
		return nil, RpcErrorNotFound(fmt.Sprintf("%s #%s has no owner", collection.Hex(), id))
	}
	return map[string]interface{}{"owner": owner.Hex()}, nil
}

func (m *OwnerOfMethod) Cacheable() bool { return true }
