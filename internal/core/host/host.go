// Package host is a deterministic single-chain execution environment. It
// runs contract code written as Go objects against a world state with
// all-or-nothing transactions, nested sub-calls, gas metering and events.
package host

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethCrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
	"github.com/LeJamon/goNFTMarket/internal/core/state"
)

// Contract is code that can be registered at an address. Kind names the
// implementation and is recorded in state when deployed.
type Contract interface {
	Kind() string
}

// Initializer is implemented by contracts with a constructor.
type Initializer interface {
	Init(f *Frame) error
}

// Receiver is implemented by contracts that accept plain native transfers.
type Receiver interface {
	Receive(f *Frame) error
}

// InterfaceID is an ERC165 interface selector.
type InterfaceID [4]byte

// InterfaceSupporter is implemented by contracts answering ERC165 queries.
type InterfaceSupporter interface {
	SupportsInterface(f *Frame, id InterfaceID) (bool, error)
}

var (
	erc165ID  = InterfaceID{0x01, 0xff, 0xc9, 0xa7}
	invalidID = InterfaceID{0xff, 0xff, 0xff, 0xff}
)

// Clock supplies block timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Tx is a transaction submitted by an externally owned account.
type Tx struct {
	From     common.Address
	To       common.Address
	Value    *big.Int
	GasLimit uint64
	Method   string

	// Call is the entry point executed inside the recipient's frame. A nil
	// Call is a plain native transfer.
	Call func(f *Frame) error
}

type probeKey struct {
	addr common.Address
	id   InterfaceID
}

// Host executes transactions against a base view.
type Host struct {
	mu       sync.Mutex
	base     state.View
	clock    Clock
	logger   *zap.Logger
	gasLimit uint64
	seq      uint64

	codeMu sync.RWMutex
	code   map[common.Address]Contract
	nonces map[common.Address]uint64

	probes *lru.Cache[probeKey, bool]

	subMu       sync.RWMutex
	subscribers []func(*Receipt)
}

// Option configures a Host.
type Option func(*Host)

// WithClock sets the block timestamp source.
func WithClock(c Clock) Option {
	return func(h *Host) { h.clock = c }
}

// WithLogger sets the receipt logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithBlockGasLimit sets the maximum gas a transaction may use.
func WithBlockGasLimit(limit uint64) Option {
	return func(h *Host) {
		if limit > 0 {
			h.gasLimit = limit
		}
	}
}

// New creates a host over base.
func New(base state.View, probeCacheSize int, opts ...Option) (*Host, error) {
	if probeCacheSize <= 0 {
		probeCacheSize = 1024
	}
	probes, err := lru.New[probeKey, bool](probeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create probe cache: %w", err)
	}
	h := &Host{
		base:     base,
		clock:    systemClock{},
		logger:   zap.NewNop(),
		gasLimit: DefaultBlockGasLimit,
		code:     make(map[common.Address]Contract),
		nonces:   make(map[common.Address]uint64),
		probes:   probes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Now returns the current clock reading.
func (h *Host) Now() time.Time {
	return h.clock.Now()
}

// Base returns the committed world state.
func (h *Host) Base() state.View {
	return h.base
}

// Subscribe registers fn to be called with every receipt after execution.
func (h *Host) Subscribe(fn func(*Receipt)) {
	h.subMu.Lock()
	h.subscribers = append(h.subscribers, fn)
	h.subMu.Unlock()
}

// Code returns the contract registered at addr.
func (h *Host) Code(addr common.Address) (Contract, bool) {
	h.codeMu.RLock()
	defer h.codeMu.RUnlock()
	c, ok := h.code[addr]
	return c, ok
}

// IsContract reports whether code is registered at addr.
func (h *Host) IsContract(addr common.Address) bool {
	_, ok := h.Code(addr)
	return ok
}

// CodeAs returns the contract at addr when it implements T.
func CodeAs[T any](h *Host, addr common.Address) (T, bool) {
	var zero T
	c, ok := h.Code(addr)
	if !ok {
		return zero, false
	}
	t, ok := c.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// NextAddress returns the address the next deployment from sender gets.
func (h *Host) NextAddress(from common.Address) common.Address {
	h.codeMu.RLock()
	defer h.codeMu.RUnlock()
	return gethCrypto.CreateAddress(from, h.nonces[from])
}

// Deploy registers c at the next CREATE address of from and runs its
// constructor. When the code marker for that address already exists in
// state the contract is attached without running the constructor.
func (h *Host) Deploy(from common.Address, c Contract) (common.Address, *Receipt) {
	h.codeMu.Lock()
	addr := gethCrypto.CreateAddress(from, h.nonces[from])
	h.nonces[from]++
	h.codeMu.Unlock()

	if marker, err := h.base.Read(keylet.Code(addr)); err == nil && marker != nil {
		if err := h.Attach(addr, c); err != nil {
			return addr, &Receipt{ID: uuid.New(), Method: "deploy", From: from, To: addr, Status: StatusReverted, Reason: err.Error(), Err: err}
		}
		return addr, &Receipt{ID: uuid.New(), Method: "attach", From: from, To: addr, Status: StatusSuccess}
	}

	h.register(addr, c)
	receipt := h.Transact(Tx{
		From:   from,
		To:     addr,
		Method: "deploy",
		Call: func(f *Frame) error {
			if err := f.view.Insert(keylet.Code(addr), []byte(c.Kind())); err != nil {
				return fmt.Errorf("code marker: %w", err)
			}
			if init, ok := c.(Initializer); ok {
				return init.Init(f)
			}
			return nil
		},
	})
	if !receipt.Succeeded() {
		h.codeMu.Lock()
		delete(h.code, addr)
		h.codeMu.Unlock()
	}
	return addr, receipt
}

// Attach registers c at addr, which must carry a code marker of the same
// kind in committed state.
func (h *Host) Attach(addr common.Address, c Contract) error {
	marker, err := h.base.Read(keylet.Code(addr))
	if err != nil {
		return err
	}
	if marker == nil {
		return fmt.Errorf("attach %s: %w", addr.Hex(), ErrNoCode)
	}
	if string(marker) != c.Kind() {
		return fmt.Errorf("attach %s: code is %q, not %q", addr.Hex(), marker, c.Kind())
	}
	h.register(addr, c)
	return nil
}

func (h *Host) register(addr common.Address, c Contract) {
	h.codeMu.Lock()
	h.code[addr] = c
	h.codeMu.Unlock()
}

// Balance returns the committed native balance of addr.
func (h *Host) Balance(addr common.Address) *big.Int {
	h.mu.Lock()
	defer h.mu.Unlock()
	bal, err := NativeBalance(h.base, addr)
	if err != nil {
		return new(big.Int)
	}
	return bal
}

// Fund credits amount of native currency to addr outside any transaction.
func (h *Host) Fund(addr common.Address, amount *big.Int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	table := state.NewTable(h.base)
	bal, err := NativeBalance(table, addr)
	if err != nil {
		return err
	}
	if err := state.WriteBig(table, keylet.NativeBalance(addr), bal.Add(bal, amount)); err != nil {
		table.Discard()
		return err
	}
	_, err = table.Apply()
	return err
}

// View runs fn in a read-only frame over committed state.
func (h *Host) View(from, to common.Address, fn func(f *Frame) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	f := &Frame{
		host:      h,
		view:      state.NewTable(h.base),
		Caller:    from,
		Self:      to,
		Value:     new(big.Int),
		gas:       NewGasMeter(h.gasLimit),
		static:    true,
		timestamp: uint64(h.clock.Now().Unix()),
	}
	return fn(f)
}

// Transact executes tx. State changes and events are committed only when
// the call returns nil.
func (h *Host) Transact(tx Tx) *Receipt {
	h.mu.Lock()
	receipt := h.execute(tx)
	h.mu.Unlock()

	h.log(receipt)
	h.subMu.RLock()
	subs := append([]func(*Receipt){}, h.subscribers...)
	h.subMu.RUnlock()
	for _, fn := range subs {
		fn(receipt)
	}
	return receipt
}

func (h *Host) execute(tx Tx) *Receipt {
	h.seq++
	now := h.clock.Now()
	value := tx.Value
	if value == nil {
		value = new(big.Int)
	}
	gasLimit := tx.GasLimit
	if gasLimit == 0 || gasLimit > h.gasLimit {
		gasLimit = h.gasLimit
	}

	table := state.NewTable(h.base)
	f := &Frame{
		host:      h,
		view:      table,
		Caller:    tx.From,
		Self:      tx.To,
		Value:     value,
		gas:       NewGasMeter(gasLimit),
		timestamp: uint64(now.Unix()),
	}
	receipt := &Receipt{
		ID:        uuid.New(),
		Sequence:  h.seq,
		Method:    tx.Method,
		From:      tx.From,
		To:        tx.To,
		Value:     new(big.Int).Set(value),
		Timestamp: now,
	}

	call := tx.Call
	if call == nil {
		call = (*Frame).receive
	}
	err := f.moveValue(tx.From, tx.To, value)
	if err == nil {
		err = call(f)
	}
	receipt.GasUsed = f.gas.Used()
	if err != nil {
		table.Discard()
		receipt.Status = statusOf(err)
		receipt.Reason = ReasonOf(err)
		receipt.Err = err
		return receipt
	}

	changes, err := table.Apply()
	if err != nil {
		receipt.Status = StatusReverted
		receipt.Reason = err.Error()
		receipt.Err = fmt.Errorf("commit: %w", err)
		return receipt
	}
	receipt.Status = StatusSuccess
	receipt.Events = f.events
	receipt.Changes = changes.Count()
	return receipt
}

func (h *Host) log(r *Receipt) {
	fields := []zap.Field{
		zap.Uint64("seq", r.Sequence),
		zap.String("method", r.Method),
		zap.String("from", r.From.Hex()),
		zap.String("to", r.To.Hex()),
		zap.Uint64("gas", r.GasUsed),
		zap.Stringer("status", r.Status),
	}
	if r.Succeeded() {
		h.logger.Debug("transaction applied", append(fields, zap.Int("changes", r.Changes), zap.Int("events", len(r.Events)))...)
		return
	}
	h.logger.Info("transaction failed", append(fields, zap.String("reason", r.Reason))...)
}

// SupportsInterface performs an ERC165 check of addr for id from f. The
// caller pays a flat ProbeGas; each underlying query runs with its own
// ProbeBudget and results are memoised per (address, id).
func (h *Host) SupportsInterface(f *Frame, addr common.Address, id InterfaceID) (bool, error) {
	if err := f.UseGas(ProbeGas); err != nil {
		return false, err
	}
	if !h.probe(f, addr, erc165ID) || h.probe(f, addr, invalidID) {
		return false, nil
	}
	if id == erc165ID {
		return true, nil
	}
	return h.probe(f, addr, id), nil
}

func (h *Host) probe(f *Frame, addr common.Address, id InterfaceID) bool {
	key := probeKey{addr: addr, id: id}
	if v, ok := h.probes.Get(key); ok {
		return v
	}
	c, ok := h.Code(addr)
	if !ok {
		return false
	}
	s, ok := c.(InterfaceSupporter)
	if !ok {
		h.probes.Add(key, false)
		return false
	}

	pf := f.child(addr, new(big.Int), NewGasMeter(ProbeBudget), true)
	supported, err := s.SupportsInterface(pf, id)
	pf.view.Discard()
	if err != nil {
		if errors.Is(err, ErrOutOfGas) {
			h.logger.Debug("interface probe out of gas", zap.String("contract", addr.Hex()))
		}
		return false
	}
	h.probes.Add(key, supported)
	return supported
}
