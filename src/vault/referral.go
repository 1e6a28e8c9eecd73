package vault

import (
	"context"
	"fmt"

	"github.com/warp-contracts/vault/src/utils/wad"
)

// AssignReferrer stores a one-time referrer assignment for the account
func (self *Engine) AssignReferrer(ctx context.Context, account, referrer Account) error {
	return self.atomically(ctx, func(tx *tx) error {
		return tx.emit(&Event{
			Kind:     EventReferrerAssigned,
			Account:  account,
			Referrer: referrer,
		})
	})
}

func referralReward(params Params, base uint64) (uint64, error) {
	reward, err := wad.Bps(base, params.ReferralRate)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrAmountOverflow, err)
	}
	return reward, nil
}

// Whether unstaking rewards the referrer
func isUnstakeReferralEligible(params Params, record AccountState) bool {
	if record.Referrer == NoAccount {
		return false
	}

	switch params.UnstakeReferral {
	case UnstakeReferralAlways:
		return true
	case UnstakeReferralLargeDeposit:
		return record.LargeDepositor
	default:
		return false
	}
}

// Mints the referral reward to the account's referrer, if there's one
func (self *tx) rewardReferrer(account Account, base uint64, reason ReferralReason) (reward uint64, err error) {
	referrer := self.account(account).Referrer
	if referrer == NoAccount {
		return 0, nil
	}

	reward, err = referralReward(self.params(), base)
	if err != nil || reward == 0 {
		return
	}

	err = self.mint(self.params().ProtocolAsset, referrer, reward)
	if err != nil {
		return 0, err
	}

	err = self.emit(&Event{
		Kind:     EventReferralRewardMinted,
		Account:  account,
		Referrer: referrer,
		Amount:   reward,
		Reason:   reason,
	})
	if err != nil {
		return 0, err
	}

	self.engine.report.State.ReferralRewardsMinted.Add(reward)
	return
}
