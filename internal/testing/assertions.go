package testing

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goNFTMarket/internal/core/host"
)

// RequireTxSuccess asserts that the call committed.
func RequireTxSuccess(t *testing.T, result TxResult) {
	t.Helper()
	require.True(t, result.Success,
		"Expected transaction success, got %s: %s", result.Code, result.Message)
}

// RequireTxFail asserts that the call failed with code.
func RequireTxFail(t *testing.T, result TxResult, expectedCode string) {
	t.Helper()
	require.False(t, result.Success,
		"Expected transaction failure with code %s, but transaction succeeded", expectedCode)
	require.Equal(t, expectedCode, result.Code,
		"Expected failure code %s, got %s: %s", expectedCode, result.Code, result.Message)
}

// RequireReason asserts that the call reverted with reason.
func RequireReason(t *testing.T, result TxResult, reason string) {
	t.Helper()
	RequireTxFail(t, result, CodeReverted)
	require.Equal(t, reason, result.Message, "Unexpected revert reason")
}

// RequireEvent asserts that the call emitted exactly one event named name
// and returns it.
func RequireEvent(t *testing.T, result TxResult, name string) host.Event {
	t.Helper()
	events := result.Events(name)
	require.Len(t, events, 1, "Expected one %s event", name)
	return events[0]
}

// RequireNoEvent asserts that the call emitted no event named name.
func RequireNoEvent(t *testing.T, result TxResult, name string) {
	t.Helper()
	require.Empty(t, result.Events(name), "Unexpected %s event", name)
}

// RequireBalance asserts the native balance of addr.
func RequireBalance(t *testing.T, env *TestEnv, addr common.Address, expected *big.Int) {
	t.Helper()
	actual := env.Balance(addr)
	require.Zero(t, expected.Cmp(actual),
		"Balance mismatch for %s: expected %s, got %s", addr.Hex(), expected, actual)
}

// RequireERC20Balance asserts holder's balance of currency.
func RequireERC20Balance(t *testing.T, env *TestEnv, currency, holder common.Address, expected *big.Int) {
	t.Helper()
	actual := env.ERC20Balance(currency, holder)
	require.Zero(t, expected.Cmp(actual),
		"ERC20 balance mismatch for %s: expected %s, got %s", holder.Hex(), expected, actual)
}

// RequireOwner asserts the owner of id of an ERC721.
func RequireOwner(t *testing.T, env *TestEnv, collection common.Address, id int64, expected common.Address) {
	t.Helper()
	require.Equal(t, expected, env.OwnerOf(collection, id),
		"Owner mismatch for token %d of %s", id, collection.Hex())
}

// AssertBalanceChange runs fn and asserts the native balance of addr moved
// by delta.
func AssertBalanceChange(t *testing.T, env *TestEnv, addr common.Address, delta *big.Int, fn func()) {
	t.Helper()
	before := env.Balance(addr)
	fn()
	after := env.Balance(addr)
	actual := new(big.Int).Sub(after, before)
	require.Zero(t, delta.Cmp(actual),
		"Balance change mismatch for %s: expected %s, got %s (before %s, after %s)",
		addr.Hex(), delta, actual, before, after)
}

// AssertNoBalanceChange runs fn and asserts the native balance of addr did
// not move.
func AssertNoBalanceChange(t *testing.T, env *TestEnv, addr common.Address, fn func()) {
	t.Helper()
	AssertBalanceChange(t, env, addr, new(big.Int), fn)
}
