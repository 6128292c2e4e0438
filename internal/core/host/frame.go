package host

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/LeJamon/goNFTMarket/internal/core/keylet"
	"github.com/LeJamon/goNFTMarket/internal/core/state"
)

// Frame is the execution context of one call. Caller is the immediate
// sender and Self the executing contract.
type Frame struct {
	host      *Host
	view      *state.Table
	gas       *GasMeter
	static    bool
	depth     int
	timestamp uint64
	events    []Event

	Caller common.Address
	Self   common.Address
	Value  *big.Int
}

// Host returns the executing host.
func (f *Frame) Host() *Host {
	return f.host
}

// Timestamp returns the block timestamp in unix seconds.
func (f *Frame) Timestamp() uint64 {
	return f.timestamp
}

// Static reports whether the frame is read-only.
func (f *Frame) Static() bool {
	return f.static
}

// Depth returns the call depth, zero for the transaction frame.
func (f *Frame) Depth() int {
	return f.depth
}

// UseGas charges n gas to the frame.
func (f *Frame) UseGas(n uint64) error {
	return f.gas.Use(n)
}

// GasLeft returns the frame's remaining gas.
func (f *Frame) GasLeft() uint64 {
	return f.gas.Remaining()
}

// State returns the frame's metered state view.
func (f *Frame) State() state.View {
	return meteredView{f: f}
}

// Emit appends an event emitted by the executing contract.
func (f *Frame) Emit(name string, topic common.Hash, args map[string]string) error {
	if f.static {
		return ErrWriteProtection
	}
	if err := f.UseGas(EmitGas); err != nil {
		return err
	}
	f.events = append(f.events, Event{Contract: f.Self, Name: name, Topic: topic, Args: args})
	return nil
}

// Balance returns the native balance of addr.
func (f *Frame) Balance(addr common.Address) (*big.Int, error) {
	if err := f.UseGas(SloadGas); err != nil {
		return nil, err
	}
	return NativeBalance(f.view, addr)
}

// Call runs fn as a sub-call into to, moving value first. The callee gets
// all but one 64th of the remaining gas, capped by gasCap when non-zero.
// On error the callee's state changes and events are dropped.
func (f *Frame) Call(to common.Address, value *big.Int, gasCap uint64, fn func(cf *Frame) error) error {
	return f.call(to, value, gasCap, false, fn)
}

// StaticCall runs fn as a read-only sub-call into to.
func (f *Frame) StaticCall(to common.Address, gasCap uint64, fn func(cf *Frame) error) error {
	return f.call(to, nil, gasCap, true, fn)
}

// Send transfers amount of native currency to to, running its Receive hook
// when to is a contract.
func (f *Frame) Send(to common.Address, amount *big.Int, gasCap uint64) error {
	return f.Call(to, amount, gasCap, (*Frame).receive)
}

func (f *Frame) call(to common.Address, value *big.Int, gasCap uint64, static bool, fn func(cf *Frame) error) error {
	if value == nil {
		value = new(big.Int)
	}
	if f.depth+1 > MaxCallDepth {
		return ErrDepth
	}
	cost := CallGas
	if value.Sign() > 0 {
		if f.static {
			return ErrWriteProtection
		}
		cost += CallValueGas
	}
	if err := f.UseGas(cost); err != nil {
		return err
	}

	cf := f.child(to, value, NewGasMeter(forwardable(f.gas.Remaining(), gasCap)), f.static || static)
	err := cf.moveValue(f.Self, to, value)
	if err == nil {
		err = fn(cf)
	}
	f.gas.consume(cf.gas.Used())
	if err != nil {
		cf.view.Discard()
		return err
	}
	if _, err := cf.view.Apply(); err != nil {
		return err
	}
	f.events = append(f.events, cf.events...)
	return nil
}

func (f *Frame) child(to common.Address, value *big.Int, gas *GasMeter, static bool) *Frame {
	return &Frame{
		host:      f.host,
		view:      state.NewTable(f.view),
		gas:       gas,
		static:    static,
		depth:     f.depth + 1,
		timestamp: f.timestamp,
		Caller:    f.Self,
		Self:      to,
		Value:     value,
	}
}

func (f *Frame) receive() error {
	c, ok := f.host.Code(f.Self)
	if !ok {
		return nil
	}
	if r, ok := c.(Receiver); ok {
		return r.Receive(f)
	}
	return Revert("")
}

func (f *Frame) moveValue(from, to common.Address, value *big.Int) error {
	if value == nil || value.Sign() == 0 || from == to {
		return nil
	}
	fromBal, err := NativeBalance(f.view, from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(value) < 0 {
		return Revert("insufficient funds")
	}
	toBal, err := NativeBalance(f.view, to)
	if err != nil {
		return err
	}
	if err := state.WriteBig(f.view, keylet.NativeBalance(from), fromBal.Sub(fromBal, value)); err != nil {
		return err
	}
	return state.WriteBig(f.view, keylet.NativeBalance(to), toBal.Add(toBal, value))
}

// NativeBalance reads the native balance of addr from v.
func NativeBalance(v state.View, addr common.Address) (*big.Int, error) {
	return state.ReadBig(v, keylet.NativeBalance(addr))
}

// meteredView charges gas for storage access and rejects writes in static
// frames.
type meteredView struct {
	f *Frame
}

func (m meteredView) Read(k keylet.Keylet) ([]byte, error) {
	if err := m.f.UseGas(SloadGas); err != nil {
		return nil, err
	}
	return m.f.view.Read(k)
}

func (m meteredView) Exists(k keylet.Keylet) (bool, error) {
	if err := m.f.UseGas(SloadGas); err != nil {
		return false, err
	}
	return m.f.view.Exists(k)
}

func (m meteredView) Insert(k keylet.Keylet, data []byte) error {
	if err := m.write(SstoreSetGas); err != nil {
		return err
	}
	return m.f.view.Insert(k, data)
}

func (m meteredView) Update(k keylet.Keylet, data []byte) error {
	if err := m.write(SstoreResetGas); err != nil {
		return err
	}
	return m.f.view.Update(k, data)
}

func (m meteredView) Erase(k keylet.Keylet) error {
	if err := m.write(SstoreResetGas); err != nil {
		return err
	}
	return m.f.view.Erase(k)
}

func (m meteredView) ForEach(fn func(key [32]byte, data []byte) bool) error {
	return m.f.view.ForEach(fn)
}

func (m meteredView) write(cost uint64) error {
	if m.f.static {
		return ErrWriteProtection
	}
	return m.f.UseGas(cost)
}
