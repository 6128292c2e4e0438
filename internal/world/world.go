// Package world boots a marketplace chain from a genesis description:
// named accounts, test tokens and a deployed marketplace, and replays the
// same deployments against persisted state on restart.
package world

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/LeJamon/goNFTMarket/internal/core/asset"
	"github.com/LeJamon/goNFTMarket/internal/core/auction"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
	"github.com/LeJamon/goNFTMarket/internal/core/market"
	"github.com/LeJamon/goNFTMarket/internal/core/token"
	"github.com/LeJamon/goNFTMarket/internal/crypto/signature"
)

// DefaultGasLimit is the gas limit of calls submitted through a World.
const DefaultGasLimit uint64 = 10_000_000

// DefaultTime is the block time of DefaultGenesis.
var DefaultTime = time.Unix(1_700_000_000, 0).UTC()

var ErrUnknownName = errors.New("unknown name")

// Account is a named externally owned account with a key derived from the
// name.
type Account struct {
	Name    string
	Key     *btcec.PrivateKey
	Address common.Address
}

// NewAccount derives the account called name.
func NewAccount(name string) (Account, error) {
	key, err := signature.KeyFromSeed(name)
	if err != nil {
		return Account{}, fmt.Errorf("derive key for %s: %w", name, err)
	}
	return Account{Name: name, Key: key, Address: signature.Address(key)}, nil
}

// Token is a contract deployed from genesis.
type Token struct {
	Name    string         `json:"name"`
	Kind    string         `json:"kind"`
	Address common.Address `json:"address"`
}

// Options configures the marketplace deployment.
type Options struct {
	Deployer       string
	FeeReceiver    string
	FeeBps         uint64
	Refunds        auction.RefundPolicy
	RecoveryGasCap uint64
	// Clock, when set, is moved to the genesis time of a fresh world and
	// drives scenarios.
	Clock  *host.ManualClock
	Logger *zap.Logger
}

// World is a running chain with a deployed marketplace.
type World struct {
	Host          *host.Host
	Market        *market.Marketplace
	MarketAddress common.Address

	clock    *host.ManualClock
	logger   *zap.Logger
	deployer Account
	accounts map[string]Account
	tokens   map[string]Token
	order    []string
	// Fresh reports whether genesis was applied rather than attached.
	Fresh bool
}

// Bootstrap deploys the marketplace and genesis tokens on h. When h's state
// already holds the marketplace the contracts are attached and no balances
// or mints are applied again.
func Bootstrap(h *host.Host, g *Genesis, opts Options) (*World, error) {
	if g == nil {
		g = DefaultGenesis()
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Deployer == "" {
		opts.Deployer = "deployer"
	}
	if opts.FeeReceiver == "" {
		opts.FeeReceiver = "feeReceiver"
	}

	w := &World{
		Host:     h,
		clock:    opts.Clock,
		logger:   logger.Named("world"),
		accounts: make(map[string]Account),
		tokens:   make(map[string]Token),
	}
	deployer, err := w.account(opts.Deployer)
	if err != nil {
		return nil, err
	}
	w.deployer = deployer
	feeReceiver, err := w.account(opts.FeeReceiver)
	if err != nil {
		return nil, err
	}
	for _, a := range g.Accounts {
		if _, err := w.account(a.Name); err != nil {
			return nil, err
		}
	}

	marker, err := h.Base().Read(keylet.Code(h.NextAddress(deployer.Address)))
	if err != nil {
		return nil, fmt.Errorf("probe existing marketplace: %w", err)
	}
	w.Fresh = marker == nil
	if w.Fresh && opts.Clock != nil && g.Time > 0 {
		opts.Clock.Set(time.Unix(g.Time, 0).UTC())
	}

	w.Market = market.New(market.Config{
		FeeReceiver:    feeReceiver.Address,
		FeeBps:         opts.FeeBps,
		Refunds:        opts.Refunds,
		RecoveryGasCap: opts.RecoveryGasCap,
		Logger:         logger,
	})
	addr, r := h.Deploy(deployer.Address, w.Market)
	if !r.Succeeded() {
		return nil, fmt.Errorf("deploy marketplace: %s", r.Reason)
	}
	w.MarketAddress = addr

	if w.Fresh {
		for _, a := range g.Accounts {
			amount, _ := asset.ParseUnits(a.Balance, 18)
			if err := h.Fund(w.accounts[a.Name].Address, amount); err != nil {
				return nil, fmt.Errorf("fund %s: %w", a.Name, err)
			}
		}
	}
	for _, c := range g.Currencies {
		if err := w.deployCurrency(c); err != nil {
			return nil, err
		}
	}
	for _, c := range g.Collections {
		if err := w.deployCollection(c); err != nil {
			return nil, err
		}
	}

	w.logger.Info("world ready",
		zap.Bool("fresh", w.Fresh),
		zap.String("market", addr.Hex()),
		zap.Int("accounts", len(w.accounts)),
		zap.Int("tokens", len(w.tokens)))
	return w, nil
}

func (w *World) account(name string) (Account, error) {
	if acc, ok := w.accounts[name]; ok {
		return acc, nil
	}
	acc, err := NewAccount(name)
	if err != nil {
		return Account{}, err
	}
	w.accounts[name] = acc
	return acc, nil
}

func (w *World) deploy(name string, c host.Contract) (common.Address, error) {
	addr, r := w.Host.Deploy(w.deployer.Address, c)
	if !r.Succeeded() {
		return common.Address{}, fmt.Errorf("deploy %s: %s", name, r.Reason)
	}
	w.tokens[name] = Token{Name: name, Kind: c.Kind(), Address: addr}
	w.order = append(w.order, name)
	return addr, nil
}

func (w *World) deployCurrency(g GenesisCurrency) error {
	c := token.NewCurrency()
	addr, err := w.deploy(g.Name, c)
	if err != nil || !w.Fresh {
		return err
	}

	holders := make([]string, 0, len(g.Balances))
	for holder := range g.Balances {
		holders = append(holders, holder)
	}
	sort.Strings(holders)
	for _, holder := range holders {
		acc, err := w.account(holder)
		if err != nil {
			return err
		}
		amount, _ := asset.ParseUnits(g.Balances[holder], 18)
		r := w.Host.Transact(host.Tx{
			From:     acc.Address,
			To:       addr,
			GasLimit: DefaultGasLimit,
			Method:   "genesisMint",
			Call: func(f *host.Frame) error {
				if err := c.Mint(f, acc.Address, amount); err != nil {
					return err
				}
				_, err := c.Approve(f, w.MarketAddress, amount)
				return err
			},
		})
		if !r.Succeeded() {
			return fmt.Errorf("mint %s to %s: %s", g.Name, holder, r.Reason)
		}
	}
	return nil
}

type nftMinter interface {
	host.Contract
	SetApprovalForAll(f *host.Frame, operator common.Address, approved bool) error
}

func (w *World) deployCollection(g GenesisCollection) error {
	var (
		c    nftMinter
		mint func(f *host.Frame, to common.Address, t GenesisToken) error
	)
	switch {
	case g.Standard == StandardERC1155:
		multi := token.NewMultiCollection()
		c = multi
		if g.Ownable {
			owned := &token.OwnableMultiCollection{}
			multi, c = &owned.MultiCollection, owned
		}
		mint = func(f *host.Frame, to common.Address, t GenesisToken) error {
			return multi.Mint(f, to, big.NewInt(t.ID), big.NewInt(t.Amount))
		}
	case g.Royalty != nil:
		receiver, err := w.account(g.Royalty.Receiver)
		if err != nil {
			return err
		}
		rc := token.NewRoyaltyCollection(receiver.Address, g.Royalty.Bps)
		c = rc
		mint = func(f *host.Frame, to common.Address, t GenesisToken) error {
			return rc.Mint(f, to, big.NewInt(t.ID))
		}
	default:
		single := token.NewCollection()
		c = single
		if g.Ownable {
			owned := &token.OwnableCollection{}
			single, c = &owned.Collection, owned
		}
		mint = func(f *host.Frame, to common.Address, t GenesisToken) error {
			return single.Mint(f, to, big.NewInt(t.ID))
		}
	}

	addr, err := w.deploy(g.Name, c)
	if err != nil || !w.Fresh {
		return err
	}
	for _, t := range g.Tokens {
		owner, err := w.account(t.Owner)
		if err != nil {
			return err
		}
		r := w.Host.Transact(host.Tx{
			From:     owner.Address,
			To:       addr,
			GasLimit: DefaultGasLimit,
			Method:   "genesisMint",
			Call: func(f *host.Frame) error {
				if err := mint(f, owner.Address, t); err != nil {
					return err
				}
				return c.SetApprovalForAll(f, w.MarketAddress, true)
			},
		})
		if !r.Succeeded() {
			return fmt.Errorf("mint %s #%d to %s: %s", g.Name, t.ID, t.Owner, r.Reason)
		}
	}
	return nil
}

// Clock returns the manual clock, nil when the world runs on system time.
func (w *World) Clock() *host.ManualClock { return w.clock }

// Deployer returns the marketplace deployer.
func (w *World) Deployer() Account { return w.deployer }

// Account returns the account called name.
func (w *World) Account(name string) (Account, bool) {
	acc, ok := w.accounts[name]
	return acc, ok
}

// Accounts returns every known account sorted by name.
func (w *World) Accounts() []Account {
	out := make([]Account, 0, len(w.accounts))
	for _, acc := range w.accounts {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Token returns the genesis token called name.
func (w *World) Token(name string) (Token, bool) {
	t, ok := w.tokens[name]
	return t, ok
}

// Tokens returns the genesis tokens in deployment order.
func (w *World) Tokens() []Token {
	out := make([]Token, 0, len(w.order))
	for _, name := range w.order {
		out = append(out, w.tokens[name])
	}
	return out
}

// Resolve turns a 0x address, an account name, a token name or "native"
// into an address.
func (w *World) Resolve(ref string) (common.Address, error) {
	switch {
	case strings.EqualFold(ref, "native"):
		return asset.NativeToken, nil
	case common.IsHexAddress(ref):
		return common.HexToAddress(ref), nil
	}
	if t, ok := w.tokens[ref]; ok {
		return t.Address, nil
	}
	if acc, ok := w.accounts[ref]; ok {
		return acc.Address, nil
	}
	return common.Address{}, fmt.Errorf("%w: %q", ErrUnknownName, ref)
}

// Submit runs fn as a marketplace call from from. The returned error wraps
// the receipt's failure.
func (w *World) Submit(from Account, value *big.Int, method string, fn func(m *market.Marketplace, f *host.Frame) error) (*host.Receipt, error) {
	r := w.Host.Transact(host.Tx{
		From:     from.Address,
		To:       w.MarketAddress,
		Value:    value,
		GasLimit: DefaultGasLimit,
		Method:   method,
		Call:     func(f *host.Frame) error { return fn(w.Market, f) },
	})
	if !r.Succeeded() {
		return r, fmt.Errorf("%s from %s: %w", method, from.Name, r.Err)
	}
	return r, nil
}

// View runs fn read-only against the marketplace.
func (w *World) View(fn func(m *market.Marketplace, f *host.Frame) error) error {
	return w.Host.View(w.deployer.Address, w.MarketAddress, func(f *host.Frame) error {
		return fn(w.Market, f)
	})
}

// ERC20Balance returns holder's balance of the currency at currency, or
// the native balance for asset.NativeToken.
func (w *World) ERC20Balance(currency, holder common.Address) (*big.Int, error) {
	if asset.IsNative(currency) {
		return w.Host.Balance(holder), nil
	}
	c, ok := host.CodeAs[token.ERC20](w.Host, currency)
	if !ok {
		return nil, fmt.Errorf("%s is not an ERC20", currency.Hex())
	}
	var bal *big.Int
	err := w.Host.View(holder, currency, func(f *host.Frame) error {
		var err error
		bal, err = c.BalanceOf(f, holder)
		return err
	})
	return bal, err
}

// OwnerOf returns the owner of an ERC721 token.
func (w *World) OwnerOf(collection common.Address, id *big.Int) (common.Address, error) {
	c, ok := host.CodeAs[token.ERC721](w.Host, collection)
	if !ok {
		return common.Address{}, fmt.Errorf("%s is not an ERC721", collection.Hex())
	}
	var owner common.Address
	err := w.Host.View(w.deployer.Address, collection, func(f *host.Frame) error {
		var err error
		owner, err = c.OwnerOf(f, id)
		return err
	})
	return owner, err
}

// MarketplaceAddress returns the address the marketplace is deployed at.
func (w *World) MarketplaceAddress() common.Address { return w.MarketAddress }
