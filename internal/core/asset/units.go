package asset

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// FormatUnits renders a base-unit amount with the given number of decimals,
// e.g. 1500000000000000000 with 18 decimals is "1.5".
func FormatUnits(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}

// ParseUnits converts a decimal string into base units. Values with more
// fractional digits than decimals are rejected.
func ParseUnits(s string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	scaled := d.Shift(decimals)
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("amount %q has more than %d decimals", s, decimals)
	}
	if scaled.Sign() < 0 {
		return nil, fmt.Errorf("amount %q is negative", s)
	}
	return scaled.BigInt(), nil
}

// Ether is 10^18 base units.
var Ether = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Units returns n·10^18.
func Units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), Ether)
}
