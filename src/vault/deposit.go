package vault

import (
	"context"
)

type DepositResult struct {
	Amount         uint64  `json:"amount"`
	Referrer       Account `json:"referrer"`
	ReferralReward uint64  `json:"referral_reward"`
	VIPGranted     bool    `json:"vip_granted"`
}

// Deposit exchanges the settlement asset 1:1 for the protocol asset.
//
// A supplied referrer is assigned only if the account has none yet, otherwise it's ignored.
// Deposits of at least the boundary amount reward the referrer and, when a
// referrer was supplied, make the depositor a VIP.
func (self *Engine) Deposit(ctx context.Context, account Account, amount uint64, referrer Account) (out DepositResult, err error) {
	err = self.atomically(ctx, func(tx *tx) (err error) {
		if amount == 0 {
			return ErrZeroAmount
		}
		err = tx.requireUser(account)
		if err != nil {
			return
		}

		params := tx.params()
		if account == params.Settlement {
			return ErrInvalidAddress
		}

		supplied := referrer != NoAccount
		if supplied && referrer == account {
			return ErrInvalidReferrer
		}

		if supplied && tx.account(account).Referrer == NoAccount {
			err = tx.emit(&Event{
				Kind:     EventReferrerAssigned,
				Account:  account,
				Referrer: referrer,
			})
			if err != nil {
				return
			}
		}

		err = tx.transfer(params.SettlementAsset, account, params.Settlement, amount)
		if err != nil {
			return
		}

		err = tx.mint(params.ProtocolAsset, account, amount)
		if err != nil {
			return
		}

		large := amount >= params.BoundaryAmount
		var reward uint64
		if large {
			reward, err = tx.rewardReferrer(account, amount, ReasonLargeDeposit)
			if err != nil {
				return
			}
		}

		grantVIP := supplied && large && params.AutoVIPOnReferredDeposit && !tx.account(account).VIP
		if grantVIP {
			err = tx.emit(&Event{
				Kind:      EventVIPUpdated,
				Account:   account,
				Enabled:   true,
				VIPReason: VIPReasonReferredDeposit,
			})
			if err != nil {
				return
			}
		}

		err = tx.emit(&Event{
			Kind:           EventDeposited,
			Account:        account,
			Amount:         amount,
			ReferralReward: reward,
			Large:          large,
		})
		if err != nil {
			return
		}

		tx.engine.report.State.Deposits.Inc()

		out = DepositResult{
			Amount:         amount,
			Referrer:       tx.account(account).Referrer,
			ReferralReward: reward,
			VIPGranted:     grantVIP,
		}
		return nil
	})
	return
}
