// Package wad implements 18-decimal fixed point helpers used by the reward curve and the fee math.
//
// All intermediate products are computed on arbitrary precision integers, so
// the only failure mode is a result that doesn't fit back into uint64.
package wad

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

const (
	// Decimal digits of a WAD value
	Precision = sdkmath.LegacyPrecision

	// Parts per 10000
	BpsBase uint64 = 10000
)

var (
	ErrOverflow       = errors.New("result doesn't fit in uint64")
	ErrDivisionByZero = errors.New("division by zero")
)

func One() sdkmath.LegacyDec {
	return sdkmath.LegacyOneDec()
}

func Zero() sdkmath.LegacyDec {
	return sdkmath.LegacyZeroDec()
}

func toInt(v uint64) sdkmath.Int {
	return sdkmath.NewIntFromUint64(v)
}

func fromInt(v sdkmath.Int) (uint64, error) {
	if v.IsNegative() || !v.IsUint64() {
		return 0, fmt.Errorf("%w: %s", ErrOverflow, v)
	}
	return v.Uint64(), nil
}

// Fraction returns num/den as a WAD value
func Fraction(num, den uint64) (sdkmath.LegacyDec, error) {
	if den == 0 {
		return sdkmath.LegacyDec{}, ErrDivisionByZero
	}
	return sdkmath.LegacyNewDecFromInt(toInt(num)).Quo(sdkmath.LegacyNewDecFromInt(toInt(den))), nil
}

// MulDiv computes floor(a * b / c) without intermediate overflow
func MulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, ErrDivisionByZero
	}
	return fromInt(toInt(a).Mul(toInt(b)).Quo(toInt(c)))
}

// MulDiv3 computes floor(a * b * c / d) without intermediate overflow
func MulDiv3(a, b, c, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivisionByZero
	}
	return fromInt(toInt(a).Mul(toInt(b)).Mul(toInt(c)).Quo(toInt(d)))
}

// Bps computes floor(amount * bps / 10000)
func Bps(amount, bps uint64) (uint64, error) {
	return MulDiv(amount, bps, BpsBase)
}

// MulTruncate computes floor(amount * x)
func MulTruncate(amount uint64, x sdkmath.LegacyDec) (uint64, error) {
	if x.IsNegative() {
		return 0, fmt.Errorf("negative multiplier: %s", x)
	}
	return fromInt(sdkmath.LegacyNewDecFromInt(toInt(amount)).Mul(x).TruncateInt())
}
