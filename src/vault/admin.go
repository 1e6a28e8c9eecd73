package vault

import (
	"context"
	"fmt"
)

func (self *tx) updateParams(caller Account, f func(params *Params) error) (err error) {
	err = self.requireOwner(caller)
	if err != nil {
		return
	}

	params := self.params().Clone()
	err = f(&params)
	if err != nil {
		return
	}

	err = params.Validate()
	if err != nil {
		return
	}

	err = self.emit(&Event{
		Kind:   EventParamsUpdated,
		Caller: caller,
		Params: &params,
	})
	if err != nil {
		return
	}

	self.engine.report.State.AdminOperations.Inc()
	return
}

// SetRates changes APY, the maximum early exit fee and the referral rate, all in basis points
func (self *Engine) SetRates(ctx context.Context, caller Account, apy, maxEarlyFeeRate, referralRate uint64) error {
	return self.atomically(ctx, func(tx *tx) error {
		return tx.updateParams(caller, func(params *Params) error {
			params.APY = apy
			params.MaxEarlyFeeRate = maxEarlyFeeRate
			params.ReferralRate = referralRate
			return nil
		})
	})
}

func (self *Engine) SetBoundaryAmount(ctx context.Context, caller Account, amount uint64) error {
	return self.atomically(ctx, func(tx *tx) error {
		return tx.updateParams(caller, func(params *Params) error {
			params.BoundaryAmount = amount
			return nil
		})
	})
}

// SetVault changes the account receiving deposited settlement asset
func (self *Engine) SetVault(ctx context.Context, caller, vault Account) error {
	return self.atomically(ctx, func(tx *tx) error {
		return tx.updateParams(caller, func(params *Params) error {
			if vault == NoAccount {
				return ErrInvalidAddress
			}
			params.Settlement = vault
			return nil
		})
	})
}

func (self *Engine) SetCurve(ctx context.Context, caller Account, enabled bool, power string) error {
	return self.atomically(ctx, func(tx *tx) error {
		return tx.updateParams(caller, func(params *Params) error {
			params.CurveEnabled = enabled
			params.CurvePower = power
			return nil
		})
	})
}

// SetPolicy replaces all behavior toggles at once
func (self *Engine) SetPolicy(ctx context.Context, caller Account, policy Policy) error {
	return self.atomically(ctx, func(tx *tx) error {
		return tx.updateParams(caller, func(params *Params) error {
			policy.apply(params)
			return nil
		})
	})
}

func (self *Engine) SetVIP(ctx context.Context, caller, account Account, enabled bool) error {
	return self.atomically(ctx, func(tx *tx) (err error) {
		err = tx.requireOwner(caller)
		if err != nil {
			return
		}
		if account == NoAccount {
			return ErrInvalidAddress
		}

		err = tx.emit(&Event{
			Kind:      EventVIPUpdated,
			Account:   account,
			Caller:    caller,
			Enabled:   enabled,
			VIPReason: VIPReasonAdmin,
		})
		if err != nil {
			return
		}

		tx.engine.report.State.AdminOperations.Inc()
		return
	})
}

func (self *Engine) SetRedeemer(ctx context.Context, caller, account Account, enabled bool) error {
	return self.atomically(ctx, func(tx *tx) (err error) {
		err = tx.requireOwner(caller)
		if err != nil {
			return
		}
		if account == NoAccount {
			return ErrInvalidAddress
		}

		err = tx.emit(&Event{
			Kind:    EventRedeemerUpdated,
			Account: account,
			Caller:  caller,
			Enabled: enabled,
		})
		if err != nil {
			return
		}

		tx.engine.report.State.AdminOperations.Inc()
		return
	})
}

func (self *Engine) TransferOwnership(ctx context.Context, caller, owner Account) error {
	return self.atomically(ctx, func(tx *tx) (err error) {
		err = tx.requireOwner(caller)
		if err != nil {
			return
		}
		if owner == NoAccount {
			return ErrInvalidAddress
		}

		err = tx.emit(&Event{
			Kind:   EventOwnershipTransferred,
			Caller: caller,
			To:     owner,
		})
		if err != nil {
			return
		}

		tx.engine.report.State.AdminOperations.Inc()
		return
	})
}

// Sweep moves assets that ended up in custody by mistake. The protocol asset backs stakes and escrow, it never leaves this way.
func (self *Engine) Sweep(ctx context.Context, caller Account, asset Asset, to Account, amount uint64) error {
	return self.atomically(ctx, func(tx *tx) (err error) {
		err = tx.requireOwner(caller)
		if err != nil {
			return
		}

		params := tx.params()
		if asset == params.ProtocolAsset {
			return ErrCannotWithdrawOwnAsset
		}
		if to == NoAccount {
			return ErrInvalidAddress
		}
		if amount == 0 {
			return ErrZeroAmount
		}

		err = tx.emit(&Event{
			Kind:   EventSwept,
			Caller: caller,
			To:     to,
			Asset:  asset,
			Amount: amount,
		})
		if err != nil {
			return
		}

		err = tx.transfer(asset, params.Custody, to, amount)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrWithdrawFailed, err)
		}

		tx.engine.report.State.AdminOperations.Inc()
		return
	})
}
