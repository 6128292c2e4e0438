// Package transfer moves assets and bid funds in and out of the executing
// contract. Every leg runs as a sub-call, so a failed leg leaves no partial
// state behind, and a Policy decides whether the failure aborts the caller
// or is reported as an Outcome.
package transfer

import "fmt"

// OnFailure selects what happens when a leg fails.
type OnFailure int

const (
	// Abort propagates the failure and reverts the enclosing call.
	Abort OnFailure = iota
	// RecordAndContinue reports the failure in the Outcome.
	RecordAndContinue
)

func (o OnFailure) String() string {
	if o == Abort {
		return "abort"
	}
	return "recordAndContinue"
}

// Policy governs one transfer leg. A zero GasBudget forwards all available
// gas.
type Policy struct {
	OnFailure OnFailure
	GasBudget uint64
}

// Strict returns the abort-on-failure policy without a gas cap.
func Strict() Policy {
	return Policy{OnFailure: Abort}
}

// BestEffort returns a policy that records failures and caps the leg at gas.
func BestEffort(gas uint64) Policy {
	return Policy{OnFailure: RecordAndContinue, GasBudget: gas}
}

// FromFlags maps a (requireSuccess, capGas) flag pair onto a Policy. cap is
// the budget used when capGas is set.
func FromFlags(requireSuccess, capGas bool, cap uint64) Policy {
	p := Policy{OnFailure: RecordAndContinue}
	if requireSuccess {
		p.OnFailure = Abort
	}
	if capGas {
		p.GasBudget = cap
	}
	return p
}

func (p Policy) String() string {
	if p.GasBudget == 0 {
		return p.OnFailure.String()
	}
	return fmt.Sprintf("%s(gas=%d)", p.OnFailure, p.GasBudget)
}

// Failure classifies a failed leg.
type Failure int

const (
	None Failure = iota
	// Reverted means the token or receiver aborted the call.
	Reverted
	// Rejected means an ERC20 returned false or malformed data.
	Rejected
	// OutOfGas means the leg exhausted its gas budget.
	OutOfGas
)

func (f Failure) String() string {
	switch f {
	case None:
		return "none"
	case Reverted:
		return "reverted"
	case Rejected:
		return "rejected"
	case OutOfGas:
		return "outOfGas"
	}
	return "unknown"
}

// Outcome is the result of a leg that did not abort.
type Outcome struct {
	Failure Failure
	Reason  string
}

// OK reports whether the leg completed.
func (o Outcome) OK() bool {
	return o.Failure == None
}
