package vault

import (
	"context"
)

// Everything an unstake would do at a given time
type Quote struct {
	Account        Account `json:"account"`
	Principal      uint64  `json:"principal"`
	TimeStaked     uint64  `json:"time_staked"`
	Reward         uint64  `json:"reward"`
	EarlyFee       uint64  `json:"early_fee"`
	SmallFee       uint64  `json:"small_fee"`
	TotalFee       uint64  `json:"total_fee"`
	Payout         uint64  `json:"payout"`
	ReferralReward uint64  `json:"referral_reward"`
	Referrer       Account `json:"referrer"`
}

func quoteUnstake(state *State, account Account, now int64) (quote Quote, err error) {
	params := state.Params
	record := state.Account(account)
	if !record.Position.IsLive() {
		return quote, ErrNoStakedBalance
	}

	quote.Account = account
	quote.Principal = record.Position.Principal
	quote.TimeStaked = timeStaked(record.Position, now)

	curve, err := params.Curve()
	if err != nil {
		return
	}

	quote.Reward, err = curve.Reward(quote.Principal, quote.TimeStaked)
	if err != nil {
		return
	}

	// Fees are always computed on the original principal
	quote.EarlyFee, err = EarlyExitFee(quote.Principal, quote.TimeStaked, params.MaxEarlyFeeRate, record.VIP)
	if err != nil {
		return
	}

	quote.SmallFee, err = SmallAmountFee(quote.Principal, params.APY, params.BoundaryAmount)
	if err != nil {
		return
	}

	quote.TotalFee, err = unstakeFee(quote.Principal, quote.EarlyFee, quote.SmallFee, params.ClampFeeToPrincipal)
	if err != nil {
		return
	}
	quote.Payout = quote.Principal - quote.TotalFee

	if isUnstakeReferralEligible(params, record) {
		quote.Referrer = record.Referrer
		quote.ReferralReward, err = referralReward(params, quote.Principal)
		if err != nil {
			return
		}
	}

	return
}

// Stake moves the account's whole amount into custody. One position per account.
func (self *Engine) Stake(ctx context.Context, account Account, amount uint64) error {
	return self.atomically(ctx, func(tx *tx) (err error) {
		if amount == 0 {
			return ErrZeroAmount
		}
		err = tx.requireUser(account)
		if err != nil {
			return
		}
		if tx.account(account).Position.IsLive() {
			return ErrAlreadyStaked
		}

		params := tx.params()

		err = tx.emit(&Event{
			Kind:    EventStaked,
			Account: account,
			Amount:  amount,
		})
		if err != nil {
			return
		}

		err = tx.transfer(params.ProtocolAsset, account, params.Custody, amount)
		if err != nil {
			return
		}

		tx.engine.report.State.Stakes.Inc()
		return nil
	})
}

// Unstake closes the position: mints the reward, releases principal minus fees
// to the account and routes fees to the owner.
func (self *Engine) Unstake(ctx context.Context, account Account) (out Quote, err error) {
	err = self.atomically(ctx, func(tx *tx) (err error) {
		err = tx.requireUser(account)
		if err != nil {
			return
		}

		params := tx.params()
		record := tx.account(account)

		quote, err := quoteUnstake(tx.state, account, tx.now)
		if err != nil {
			return
		}

		// State first, transfers after
		err = tx.emit(&Event{
			Kind:           EventUnstaked,
			Account:        account,
			Principal:      quote.Principal,
			TimeStaked:     quote.TimeStaked,
			Reward:         quote.Reward,
			EarlyFee:       quote.EarlyFee,
			SmallFee:       quote.SmallFee,
			ReferralReward: quote.ReferralReward,
		})
		if err != nil {
			return
		}

		err = tx.mint(params.ProtocolAsset, account, quote.Reward)
		if err != nil {
			return
		}

		err = tx.transfer(params.ProtocolAsset, params.Custody, account, quote.Payout)
		if err != nil {
			return
		}

		err = tx.transfer(params.ProtocolAsset, params.Custody, params.Owner, quote.TotalFee)
		if err != nil {
			return
		}

		if quote.ReferralReward > 0 {
			var reward uint64
			reward, err = tx.rewardReferrer(account, quote.Principal, ReasonUnstake)
			if err != nil {
				return
			}
			quote.ReferralReward = reward
		}

		if params.ClearReferrerOnUnstake && record.Referrer != NoAccount {
			err = tx.emit(&Event{
				Kind:     EventReferrerCleared,
				Account:  account,
				Referrer: record.Referrer,
			})
			if err != nil {
				return
			}
		}

		if params.RevokeVIPOnUnstake && record.VIP {
			err = tx.emit(&Event{
				Kind:      EventVIPUpdated,
				Account:   account,
				Enabled:   false,
				VIPReason: VIPReasonUnstake,
			})
			if err != nil {
				return
			}
		}

		tx.engine.report.State.Unstakes.Inc()
		tx.engine.report.State.RewardsMinted.Add(quote.Reward)
		tx.engine.report.State.FeesCollected.Add(quote.TotalFee)

		out = quote
		return nil
	})
	return
}
