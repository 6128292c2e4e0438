package host

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfGas is returned when a frame exhausts its gas budget.
	ErrOutOfGas = errors.New("out of gas")
	// ErrWriteProtection is returned for state writes inside a static call.
	ErrWriteProtection = errors.New("write protection")
	// ErrNoCode is returned when calling into an address without a contract.
	ErrNoCode = errors.New("no contract code at address")
	// ErrDepth is returned when the call stack is too deep.
	ErrDepth = errors.New("max call depth exceeded")
)

// RevertError is a deliberate abort carrying a human readable reason.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}
	return "execution reverted: " + e.Reason
}

// Revert aborts the current frame with reason.
func Revert(reason string) error {
	return &RevertError{Reason: reason}
}

// Revertf aborts the current frame with a formatted reason.
func Revertf(format string, args ...interface{}) error {
	return &RevertError{Reason: fmt.Sprintf(format, args...)}
}

// IsRevert reports whether err carries a RevertError.
func IsRevert(err error) bool {
	var re *RevertError
	return errors.As(err, &re)
}

// ReasonOf extracts the revert reason from err. Non-revert errors yield
// their message.
func ReasonOf(err error) string {
	if err == nil {
		return ""
	}
	var re *RevertError
	if errors.As(err, &re) {
		return re.Reason
	}
	return err.Error()
}
