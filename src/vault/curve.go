package vault

import (
	"fmt"

	"github.com/warp-contracts/vault/src/utils/wad"
)

// Curve computes staking rewards.
//
// Past one year the reward is linear: P * APY * t / (10000 * Y).
// Below one year it's back-loaded: P * APY / 10000 * (t/Y)^power.
// Both branches yield the full annual reward at t = Y.
type Curve struct {
	APY     uint64
	Enabled bool
	Power   wad.Power
}

func (self Curve) Reward(principal, timeStaked uint64) (reward uint64, err error) {
	if timeStaked == 0 || principal == 0 || self.APY == 0 {
		return 0, nil
	}

	if timeStaked >= SecondsPerYear || !self.Enabled {
		return self.linear(principal, timeStaked)
	}

	fullAnnual, err := wad.Bps(principal, self.APY)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrAmountOverflow, err)
	}

	fraction, err := wad.Fraction(timeStaked, SecondsPerYear)
	if err != nil {
		return
	}

	scale, err := self.Power.Apply(fraction)
	if err != nil {
		return
	}

	reward, err = wad.MulTruncate(fullAnnual, scale)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrAmountOverflow, err)
	}
	return
}

func (self Curve) linear(principal, timeStaked uint64) (reward uint64, err error) {
	reward, err = wad.MulDiv3(principal, self.APY, timeStaked, BpsBase*SecondsPerYear)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrAmountOverflow, err)
	}
	return
}
