package model

import (
	"fmt"
	"math/big"
	"strings"
)

// UnitDecimals is the number of smallest units per value-unit exponent.
const UnitDecimals = 18

var unitScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(UnitDecimals), nil)

// ParseUnits converts a decimal value-unit string such as "0.01" into
// smallest units. Fractions finer than one smallest unit are rejected.
func ParseUnits(s string) (*big.Int, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if r.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", s)
	}
	r.Mul(r, new(big.Rat).SetInt(unitScale))
	if !r.IsInt() {
		return nil, fmt.Errorf("amount %q has more than %d decimals", s, UnitDecimals)
	}
	return new(big.Int).Set(r.Num()), nil
}

// MustParseUnits is ParseUnits for constants; it panics on bad input.
func MustParseUnits(s string) *big.Int {
	v, err := ParseUnits(s)
	if err != nil {
		panic(err)
	}
	return v
}

// FormatUnits renders smallest units as a value-unit decimal string with
// trailing zeros removed.
func FormatUnits(v *big.Int) string {
	if v == nil {
		return "0"
	}
	q, r := new(big.Int).QuoRem(v, unitScale, new(big.Int))
	if r.Sign() == 0 {
		return q.String()
	}
	frac := r.String()
	frac = strings.Repeat("0", UnitDecimals-len(frac)) + frac
	return q.String() + "." + strings.TrimRight(frac, "0")
}
