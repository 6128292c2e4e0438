package host

// Gas schedule.
const (
	SloadGas       uint64 = 2100
	SstoreSetGas   uint64 = 20000
	SstoreResetGas uint64 = 5000
	CallGas        uint64 = 2600
	CallValueGas   uint64 = 9000
	EmitGas        uint64 = 750
	ProbeGas       uint64 = 5000

	// ProbeBudget bounds a single ERC165 supportsInterface evaluation.
	ProbeBudget uint64 = 30000

	DefaultBlockGasLimit uint64 = 30_000_000
	MaxCallDepth                = 1024
)

// GasMeter tracks gas consumption of one frame.
type GasMeter struct {
	limit uint64
	used  uint64
}

// NewGasMeter returns a meter allowing limit gas.
func NewGasMeter(limit uint64) *GasMeter {
	return &GasMeter{limit: limit}
}

// Use consumes n gas. Running out burns the whole budget.
func (g *GasMeter) Use(n uint64) error {
	if n > g.limit-g.used {
		g.used = g.limit
		return ErrOutOfGas
	}
	g.used += n
	return nil
}

// Remaining returns the unused budget.
func (g *GasMeter) Remaining() uint64 {
	return g.limit - g.used
}

// Used returns the gas consumed so far.
func (g *GasMeter) Used() uint64 {
	return g.used
}

// Limit returns the meter's budget.
func (g *GasMeter) Limit() uint64 {
	return g.limit
}

func (g *GasMeter) consume(n uint64) {
	if n > g.limit-g.used {
		g.used = g.limit
		return
	}
	g.used += n
}

// forwardable applies the all-but-one-64th rule, bounded by cap when non-zero.
func forwardable(remaining, cap uint64) uint64 {
	forward := remaining - remaining/64
	if cap > 0 && cap < forward {
		forward = cap
	}
	return forward
}
