package vault

import (
	"context"
)

type RedemptionResult struct {
	Amount         uint64 `json:"amount"`
	SmallFee       uint64 `json:"small_fee"`
	NetAmount      uint64 `json:"net_amount"`
	ReferralReward uint64 `json:"referral_reward"`
}

// RequestRedemption escrows the amount in custody and queues it net of the small amount fee
func (self *Engine) RequestRedemption(ctx context.Context, account Account, amount uint64) (out RedemptionResult, err error) {
	err = self.atomically(ctx, func(tx *tx) (err error) {
		if amount == 0 {
			return ErrZeroAmount
		}
		err = tx.requireUser(account)
		if err != nil {
			return
		}

		params := tx.params()
		small := amount < params.BoundaryAmount
		if small && params.EnforceMinimumRedemption && !tx.account(account).VIP {
			return ErrBelowMinimumRedemption
		}

		fee, err := SmallAmountFee(amount, params.APY, params.BoundaryAmount)
		if err != nil {
			return
		}
		net := amount - fee

		err = tx.emit(&Event{
			Kind:      EventRedemptionRequested,
			Account:   account,
			Amount:    amount,
			NetAmount: net,
			SmallFee:  fee,
		})
		if err != nil {
			return
		}

		err = tx.transfer(params.ProtocolAsset, account, params.Custody, amount)
		if err != nil {
			return
		}

		err = tx.transfer(params.ProtocolAsset, params.Custody, params.Owner, fee)
		if err != nil {
			return
		}

		var reward uint64
		if small && params.RewardSmallRedemption {
			// Pre-fee amount
			reward, err = tx.rewardReferrer(account, amount, ReasonSmallRedemption)
			if err != nil {
				return
			}
		}

		tx.engine.report.State.RedemptionRequests.Inc()
		tx.engine.report.State.FeesCollected.Add(fee)

		out = RedemptionResult{
			Amount:         amount,
			SmallFee:       fee,
			NetAmount:      net,
			ReferralReward: reward,
		}
		return nil
	})
	return
}

// FulfillRedemption pays the investor's queue from the caller's own settlement
// asset and burns the escrow. Only the owner and authorized redeemers may call it.
func (self *Engine) FulfillRedemption(ctx context.Context, caller, investor Account) (amount uint64, err error) {
	err = self.atomically(ctx, func(tx *tx) (err error) {
		if !tx.state.CanFulfill(caller) {
			return ErrUnauthorized
		}
		if investor == NoAccount {
			return ErrInvalidAddress
		}

		params := tx.params()
		pending := tx.account(investor).PendingRedemption
		if pending == 0 {
			return ErrNoPendingRedemption
		}

		err = tx.emit(&Event{
			Kind:    EventRedemptionFulfilled,
			Account: investor,
			Caller:  caller,
			Amount:  pending,
		})
		if err != nil {
			return
		}

		err = tx.transfer(params.SettlementAsset, caller, investor, pending)
		if err != nil {
			return
		}

		err = tx.burn(params.ProtocolAsset, params.Custody, pending)
		if err != nil {
			return
		}

		tx.engine.report.State.RedemptionsFulfilled.Inc()

		amount = pending
		return nil
	})
	return
}
