package wad

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

const (
	// Curve exponents are accepted with at most this many fractional digits
	powerDecimals = 2
	powerScale    = 100

	MaxPower = 10
)

var ErrInvalidPower = errors.New("invalid power")

// Power is an exponent p = whole + num/den, kept in a form that can be
// evaluated deterministically: x^p = x^whole * root_den(x^num)
type Power struct {
	value sdkmath.LegacyDec
	whole uint64
	num   uint64
	den   uint64
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func NewPowerFromInt(v uint64) Power {
	return Power{value: sdkmath.LegacyNewDecFromInt(sdkmath.NewIntFromUint64(v)), whole: v, den: 1}
}

// ParsePower parses a decimal exponent like "2", "2.0" or "1.5"
func ParsePower(s string) (p Power, err error) {
	value, err := sdkmath.LegacyNewDecFromStr(s)
	if err != nil {
		return p, fmt.Errorf("%w: %q: %s", ErrInvalidPower, s, err)
	}

	if !value.IsPositive() || value.GT(sdkmath.LegacyNewDec(MaxPower)) {
		return p, fmt.Errorf("%w: %s must be in (0, %d]", ErrInvalidPower, value, MaxPower)
	}

	scaled := value.MulInt64(powerScale)
	if !scaled.IsInteger() {
		return p, fmt.Errorf("%w: %s has more than %d fractional digits", ErrInvalidPower, value, powerDecimals)
	}

	total := scaled.TruncateInt().Uint64()
	p.value = value
	p.whole = total / powerScale

	frac := total % powerScale
	if frac == 0 {
		p.den = 1
		return
	}

	g := gcd(frac, powerScale)
	p.num = frac / g
	p.den = powerScale / g
	return
}

func (self Power) IsInteger() bool {
	return self.num == 0
}

func (self Power) Dec() sdkmath.LegacyDec {
	return self.value
}

func (self Power) String() string {
	return self.value.String()
}

// Apply computes x^p for x in [0, 1]
func (self Power) Apply(x sdkmath.LegacyDec) (out sdkmath.LegacyDec, err error) {
	if x.IsNegative() || x.GT(sdkmath.LegacyOneDec()) {
		return out, fmt.Errorf("base %s out of [0, 1]", x)
	}
	if self.den == 0 {
		return out, fmt.Errorf("%w: uninitialized", ErrInvalidPower)
	}

	out = x.Power(self.whole)
	if self.num == 0 {
		return
	}

	root, err := x.Power(self.num).ApproxRoot(self.den)
	if err != nil {
		return out, fmt.Errorf("failed to compute root: %w", err)
	}

	return out.Mul(root), nil
}
