// Package fixed8 converts between the ledger's fixed-point integers and display units.
//
// Every amount stored by the ingester carries 8 implied decimal digits (1 SWTH = 100000000).
// All conversions between raw integers and human readable values go through this package.
package fixed8

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrOutOfRange is returned for display amounts whose raw form does not fit an int64,
// i.e. beyond roughly ±92233720368.
var ErrOutOfRange = errors.New("amount out of fixed-point range")

var (
	maxRaw = decimal.NewFromInt(math.MaxInt64)
	minRaw = decimal.NewFromInt(math.MinInt64)
)

// Decimals is the number of implied decimal digits of a raw amount.
const Decimals = 8

// One is the raw representation of a single display unit.
const One int64 = 100_000_000

// ToDecimal scales a raw fixed-point integer down to display units without loss.
func ToDecimal(raw int64) decimal.Decimal {
	return decimal.New(raw, -Decimals)
}

// ToFloat scales a raw fixed-point integer down to display units as float64 for JSON output.
func ToFloat(raw int64) float64 {
	f, _ := ToDecimal(raw).Float64()
	return f
}

// FromDecimal scales a display amount up to the raw fixed-point representation.
// Digits beyond the 8th decimal are truncated. Amounts outside the int64 range are clamped
// to the nearest bound and reported with ErrOutOfRange.
func FromDecimal(d decimal.Decimal) (int64, error) {
	raw := d.Shift(Decimals).Truncate(0)
	switch {
	case raw.GreaterThan(maxRaw):
		return math.MaxInt64, fmt.Errorf("%w: %s", ErrOutOfRange, d)
	case raw.LessThan(minRaw):
		return math.MinInt64, fmt.Errorf("%w: %s", ErrOutOfRange, d)
	}
	return raw.IntPart(), nil
}
