package vault

import (
	"fmt"

	"github.com/warp-contracts/vault/src/utils/wad"
)

// EarlyExitFee decays linearly from maxFeeRate at t=0 to nothing at t=Y. VIPs don't pay it.
func EarlyExitFee(principal, timeStaked, maxFeeRate uint64, isVIP bool) (fee uint64, err error) {
	if isVIP || maxFeeRate == 0 || timeStaked >= SecondsPerYear {
		return 0, nil
	}

	remainingRatio := (SecondsPerYear - timeStaked) * BpsBase / SecondsPerYear
	effectiveRate := maxFeeRate * remainingRatio / BpsBase

	fee, err = wad.Bps(principal, effectiveRate)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrAmountOverflow, err)
	}
	return
}

// SmallAmountFee charges amounts below the boundary a full year of APY
func SmallAmountFee(amount, apy, boundaryAmount uint64) (fee uint64, err error) {
	if amount >= boundaryAmount || apy == 0 {
		return 0, nil
	}

	fee, err = wad.Bps(amount, apy)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrAmountOverflow, err)
	}
	return
}

// Both unstake fees summed. Never above principal when clamped.
func unstakeFee(principal, earlyFee, smallFee uint64, clamp bool) (uint64, error) {
	total := earlyFee + smallFee
	if total < earlyFee || total > principal {
		if !clamp {
			return 0, fmt.Errorf("%w: %d + %d > %d", ErrFeeExceedsPrincipal, earlyFee, smallFee, principal)
		}
		return principal, nil
	}
	return total, nil
}
