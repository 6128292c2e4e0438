package testing

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/LeJamon/goNFTMarket/internal/core/auction"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/market"
	"github.com/LeJamon/goNFTMarket/internal/core/state"
	"github.com/LeJamon/goNFTMarket/internal/core/token"
)

// DefaultGasLimit is the gas limit of submitted calls unless overridden.
const DefaultGasLimit uint64 = 10_000_000

// TestEnv manages a simulated chain with a deployed marketplace. The
// deployer holds every marketplace role.
type TestEnv struct {
	t        *testing.T
	host     *host.Host
	clock    *ManualClock
	accounts map[string]*Account

	market     *market.Marketplace
	marketAddr common.Address

	Deployer    *Account
	FeeReceiver *Account
}

type envConfig struct {
	refunds        auction.RefundPolicy
	feeBps         uint64
	recoveryGasCap uint64
	logger         *zap.Logger
	base           state.View
}

// Option customises NewTestEnv.
type Option func(*envConfig)

// WithRefundPolicy selects how failed outbid refunds are handled.
func WithRefundPolicy(p auction.RefundPolicy) Option {
	return func(c *envConfig) { c.refunds = p }
}

// WithFeeBps sets the fee at deploy.
func WithFeeBps(bps uint64) Option {
	return func(c *envConfig) { c.feeBps = bps }
}

// WithRecoveryGasCap sets the gas budget of capped recovery legs.
func WithRecoveryGasCap(gas uint64) Option {
	return func(c *envConfig) { c.recoveryGasCap = gas }
}

// WithLogger routes host and marketplace logs to l.
func WithLogger(l *zap.Logger) Option {
	return func(c *envConfig) { c.logger = l }
}

// WithState runs the environment over base instead of a fresh in-memory
// state.
func WithState(base state.View) Option {
	return func(c *envConfig) { c.base = base }
}

// NewTestEnv creates a chain and deploys the marketplace from "deployer"
// with "feeReceiver" collecting fees.
func NewTestEnv(t *testing.T, opts ...Option) *TestEnv {
	t.Helper()
	cfg := envConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.base == nil {
		cfg.base = state.NewMemory()
	}

	clock := NewManualClock()
	h, err := host.New(cfg.base, 256, host.WithClock(clock), host.WithLogger(cfg.logger))
	if err != nil {
		t.Fatalf("Failed to create host: %v", err)
	}

	env := &TestEnv{
		t:           t,
		host:        h,
		clock:       clock,
		accounts:    make(map[string]*Account),
		Deployer:    NewAccount("deployer"),
		FeeReceiver: NewAccount("feeReceiver"),
	}
	env.accounts[env.Deployer.Name] = env.Deployer
	env.accounts[env.FeeReceiver.Name] = env.FeeReceiver

	env.market = market.New(market.Config{
		FeeReceiver:    env.FeeReceiver.Address,
		FeeBps:         cfg.feeBps,
		Refunds:        cfg.refunds,
		RecoveryGasCap: cfg.recoveryGasCap,
		Logger:         cfg.logger,
	})
	addr, r := h.Deploy(env.Deployer.Address, env.market)
	if !r.Succeeded() {
		t.Fatalf("Failed to deploy marketplace: %s", r.Reason)
	}
	env.marketAddr = addr
	return env
}

// Host returns the underlying host.
func (e *TestEnv) Host() *host.Host { return e.host }

// Market returns the marketplace contract object.
func (e *TestEnv) Market() *market.Marketplace { return e.market }

// MarketAddress returns the marketplace address.
func (e *TestEnv) MarketAddress() common.Address { return e.marketAddr }

// ---------------------------------------------------------------------------
// Time
// ---------------------------------------------------------------------------

// Now returns the current block timestamp.
func (e *TestEnv) Now() uint64 {
	return uint64(e.clock.Now().Unix())
}

// AdvanceTime moves block time forward by d.
func (e *TestEnv) AdvanceTime(d time.Duration) {
	e.clock.Advance(d)
}

// SetTime moves block time to ts seconds.
func (e *TestEnv) SetTime(ts uint64) {
	e.clock.Set(time.Unix(int64(ts), 0).UTC())
}

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

// Account returns the account registered under name, creating it.
func (e *TestEnv) Account(name string) *Account {
	if acc, ok := e.accounts[name]; ok {
		return acc
	}
	acc := NewAccount(name)
	e.accounts[name] = acc
	return acc
}

// Fund gives each account DefaultFunding of native currency.
func (e *TestEnv) Fund(accounts ...*Account) {
	e.t.Helper()
	for _, acc := range accounts {
		e.FundAmount(acc, DefaultFunding)
	}
}

// FundAmount gives acc amount of native currency.
func (e *TestEnv) FundAmount(acc *Account, amount *big.Int) {
	e.t.Helper()
	e.accounts[acc.Name] = acc
	if err := e.host.Fund(acc.Address, amount); err != nil {
		e.t.Fatalf("Failed to fund %s: %v", acc, err)
	}
}

// Balance returns the native balance of addr.
func (e *TestEnv) Balance(addr common.Address) *big.Int {
	return e.host.Balance(addr)
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

// Tx is a call into the marketplace built by the feature builders.
type Tx struct {
	From     *Account
	Value    *big.Int
	GasLimit uint64
	Method   string
	Call     func(m *market.Marketplace, f *host.Frame) error
}

// Submit executes tx against the marketplace.
func (e *TestEnv) Submit(tx Tx) TxResult {
	gas := tx.GasLimit
	if gas == 0 {
		gas = DefaultGasLimit
	}
	r := e.host.Transact(host.Tx{
		From:     tx.From.Address,
		To:       e.marketAddr,
		Value:    tx.Value,
		GasLimit: gas,
		Method:   tx.Method,
		Call: func(f *host.Frame) error {
			return tx.Call(e.market, f)
		},
	})
	return resultOf(r)
}

// Exec runs fn as a call from from into the contract at to.
func (e *TestEnv) Exec(from *Account, to common.Address, value *big.Int, fn func(f *host.Frame) error) TxResult {
	return resultOf(e.host.Transact(host.Tx{
		From:     from.Address,
		To:       to,
		Value:    value,
		GasLimit: DefaultGasLimit,
		Method:   "exec",
		Call:     fn,
	}))
}

// MustExec is Exec that fails the test unless the call succeeds.
func (e *TestEnv) MustExec(from *Account, to common.Address, fn func(f *host.Frame) error) {
	e.t.Helper()
	if r := e.Exec(from, to, nil, fn); !r.Success {
		e.t.Fatalf("Call from %s into %s failed: %s", from, to.Hex(), r.Message)
	}
}

// View runs fn as a static call into the marketplace.
func (e *TestEnv) View(fn func(m *market.Marketplace, f *host.Frame) error) {
	e.t.Helper()
	if err := e.host.View(e.Deployer.Address, e.marketAddr, func(f *host.Frame) error {
		return fn(e.market, f)
	}); err != nil {
		e.t.Fatalf("View failed: %v", err)
	}
}

// ViewAt runs fn as a static call into the contract at to.
func (e *TestEnv) ViewAt(to common.Address, fn func(f *host.Frame) error) {
	e.t.Helper()
	if err := e.host.View(e.Deployer.Address, to, fn); err != nil {
		e.t.Fatalf("View of %s failed: %v", to.Hex(), err)
	}
}

// Deploy deploys c from from.
func (e *TestEnv) Deploy(from *Account, c host.Contract) common.Address {
	e.t.Helper()
	addr, r := e.host.Deploy(from.Address, c)
	if !r.Succeeded() {
		e.t.Fatalf("Failed to deploy %s: %s", c.Kind(), r.Reason)
	}
	return addr
}

// ---------------------------------------------------------------------------
// Tokens
// ---------------------------------------------------------------------------

// DeployCurrency deploys an ERC20.
func (e *TestEnv) DeployCurrency() common.Address {
	return e.Deploy(e.Deployer, token.NewCurrency())
}

// DeployCollection deploys an ERC721.
func (e *TestEnv) DeployCollection() common.Address {
	return e.Deploy(e.Deployer, token.NewCollection())
}

// DeployMultiCollection deploys an ERC1155.
func (e *TestEnv) DeployMultiCollection() common.Address {
	return e.Deploy(e.Deployer, token.NewMultiCollection())
}

// DeployWallet deploys a contract account controlled by owner.
func (e *TestEnv) DeployWallet(owner *Account) (*token.Wallet, *Account) {
	w := token.NewWallet()
	addr := e.Deploy(owner, w)
	acc := AccountFromAddress(owner.Name+"Wallet", addr)
	e.accounts[acc.Name] = acc
	return w, acc
}

func contractAt[T any](e *TestEnv, addr common.Address) T {
	e.t.Helper()
	c, ok := host.CodeAs[T](e.host, addr)
	if !ok {
		e.t.Fatalf("No matching contract at %s", addr.Hex())
	}
	return c
}

// MintERC20 mints amount to to and approves the marketplace for it.
func (e *TestEnv) MintERC20(currency common.Address, to *Account, amount *big.Int) {
	e.t.Helper()
	c := contractAt[*token.Currency](e, currency)
	e.MustExec(to, currency, func(f *host.Frame) error { return c.Mint(f, to.Address, amount) })
	e.MustExec(to, currency, func(f *host.Frame) error {
		_, err := c.Approve(f, e.marketAddr, amount)
		return err
	})
}

// MintNFT mints id of an ERC721 to to and approves the marketplace for all
// of to's tokens.
func (e *TestEnv) MintNFT(collection common.Address, to *Account, id int64) {
	e.t.Helper()
	c := contractAt[token.ERC721](e, collection)
	minter, ok := c.(interface {
		Mint(f *host.Frame, to common.Address, id *big.Int) error
	})
	if !ok {
		e.t.Fatalf("Collection %s cannot mint", collection.Hex())
	}
	e.MustExec(to, collection, func(f *host.Frame) error { return minter.Mint(f, to.Address, big.NewInt(id)) })
	e.MustExec(to, collection, func(f *host.Frame) error { return c.SetApprovalForAll(f, e.marketAddr, true) })
}

// MintMulti mints amount of id of an ERC1155 to to and approves the
// marketplace.
func (e *TestEnv) MintMulti(collection common.Address, to *Account, id, amount int64) {
	e.t.Helper()
	c := contractAt[token.ERC1155](e, collection)
	minter, ok := c.(interface {
		Mint(f *host.Frame, to common.Address, id, amount *big.Int) error
	})
	if !ok {
		e.t.Fatalf("Collection %s cannot mint", collection.Hex())
	}
	e.MustExec(to, collection, func(f *host.Frame) error {
		return minter.Mint(f, to.Address, big.NewInt(id), big.NewInt(amount))
	})
	e.MustExec(to, collection, func(f *host.Frame) error { return c.SetApprovalForAll(f, e.marketAddr, true) })
}

// SetBehaviour switches the transfer behaviour of a test token or wallet.
func (e *TestEnv) SetBehaviour(contract common.Address, b token.Behaviour) {
	e.t.Helper()
	c := contractAt[interface {
		SetBehaviour(f *host.Frame, b token.Behaviour) error
	}](e, contract)
	e.MustExec(e.Deployer, contract, func(f *host.Frame) error { return c.SetBehaviour(f, b) })
}

// ERC20Balance returns holder's balance of currency.
func (e *TestEnv) ERC20Balance(currency, holder common.Address) *big.Int {
	e.t.Helper()
	c := contractAt[token.ERC20](e, currency)
	var bal *big.Int
	e.ViewAt(currency, func(f *host.Frame) error {
		var err error
		bal, err = c.BalanceOf(f, holder)
		return err
	})
	return bal
}

// OwnerOf returns the owner of id of an ERC721.
func (e *TestEnv) OwnerOf(collection common.Address, id int64) common.Address {
	e.t.Helper()
	c := contractAt[token.ERC721](e, collection)
	var owner common.Address
	e.ViewAt(collection, func(f *host.Frame) error {
		var err error
		owner, err = c.OwnerOf(f, big.NewInt(id))
		return err
	})
	return owner
}

// MultiBalance returns holder's balance of id of an ERC1155.
func (e *TestEnv) MultiBalance(collection, holder common.Address, id int64) *big.Int {
	e.t.Helper()
	c := contractAt[token.ERC1155](e, collection)
	var bal *big.Int
	e.ViewAt(collection, func(f *host.Frame) error {
		var err error
		bal, err = c.BalanceOf(f, holder, big.NewInt(id))
		return err
	})
	return bal
}
