package testing

import (
	"math/big"

	"github.com/LeJamon/goNFTMarket/internal/core/asset"
)

// DefaultFunding is the native balance Fund gives each account.
var DefaultFunding = Ether(1000)

// Ether returns n whole units of an 18 decimals token.
func Ether(n int64) *big.Int {
	return asset.Units(n)
}

// MustUnits parses a decimal amount of an 18 decimals token, e.g. "0.5".
func MustUnits(s string) *big.Int {
	v, err := asset.ParseUnits(s, 18)
	if err != nil {
		panic(err)
	}
	return v
}

// Wei returns n base units.
func Wei(n int64) *big.Int {
	return big.NewInt(n)
}

// Pct returns amount·bps/10000, truncated.
func Pct(amount *big.Int, bps int64) *big.Int {
	out := new(big.Int).Mul(amount, big.NewInt(bps))
	return out.Div(out, big.NewInt(10000))
}
