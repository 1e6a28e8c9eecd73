package vault

import (
	"context"
	"fmt"
)

func (self *Engine) Params() (params Params) {
	self.read(func(state *State) { params = state.Params.Clone() })
	return
}

// Sequence number of the last committed event
func (self *Engine) Seq() (seq uint64) {
	self.read(func(state *State) { seq = state.Seq })
	return
}

func (self *Engine) Totals() (totals Totals) {
	self.read(func(state *State) { totals = state.Totals })
	return
}

func (self *Engine) Account(account Account) (record AccountState) {
	self.read(func(state *State) { record = state.Account(account) })
	return
}

func (self *Engine) Position(account Account) Position {
	return self.Account(account).Position
}

func (self *Engine) PendingRedemption(account Account) uint64 {
	return self.Account(account).PendingRedemption
}

func (self *Engine) Referrer(account Account) Account {
	return self.Account(account).Referrer
}

func (self *Engine) IsVIP(account Account) bool {
	return self.Account(account).VIP
}

func (self *Engine) IsRedeemer(account Account) (ok bool) {
	self.read(func(state *State) { ok = state.IsRedeemer(account) })
	return
}

// Reward the position would get if unstaked now
func (self *Engine) AccruedReward(account Account) (reward uint64, err error) {
	quote, err := self.QuoteUnstake(account)
	if err != nil {
		return
	}
	return quote.Reward, nil
}

// Early exit fee the position would pay if unstaked now
func (self *Engine) EarlyExitFee(account Account) (fee uint64, err error) {
	quote, err := self.QuoteUnstake(account)
	if err != nil {
		return
	}
	return quote.EarlyFee, nil
}

// Small amount fee for an amount with current parameters
func (self *Engine) SmallAmountFee(amount uint64) (fee uint64, err error) {
	self.read(func(state *State) {
		fee, err = SmallAmountFee(amount, state.Params.APY, state.Params.BoundaryAmount)
	})
	return
}

// QuoteUnstake predicts the outcome of unstaking now, without changing anything
func (self *Engine) QuoteUnstake(account Account) (quote Quote, err error) {
	now := self.Now()
	self.read(func(state *State) {
		quote, err = quoteUnstake(state, account, now)
	})
	return
}

// CheckInvariants verifies aggregates against per-account records and custody holdings
func (self *Engine) CheckInvariants(ctx context.Context) (err error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	err = self.state.CheckInvariants()
	if err != nil {
		return
	}

	ledger, err := self.Ledger(self.state.Params.ProtocolAsset)
	if err != nil {
		return
	}

	custody, err := ledger.BalanceOf(ctx, self.state.Params.Custody)
	if err != nil {
		return
	}

	expected := self.state.Totals.Staked + self.state.Totals.PendingRedemption
	if custody != expected {
		return fmt.Errorf("%w: custody holds %d, staked and pending add up to %d", ErrInvariantViolated, custody, expected)
	}

	return nil
}

// CheckInvariants verifies the state on its own, without ledgers
func (self *State) CheckInvariants() error {
	var staked, pending uint64
	for account, record := range self.Accounts {
		if (record.Position.Principal > 0) != (record.Position.Start > 0) {
			return fmt.Errorf("%w: %s has a half-open position %+v", ErrInvariantViolated, account, record.Position)
		}
		if record.Referrer == account {
			return fmt.Errorf("%w: %s refers itself", ErrInvariantViolated, account)
		}
		staked += record.Position.Principal
		pending += record.PendingRedemption
	}

	if staked != self.Totals.Staked {
		return fmt.Errorf("%w: positions add up to %d, total staked is %d", ErrInvariantViolated, staked, self.Totals.Staked)
	}
	if pending != self.Totals.PendingRedemption {
		return fmt.Errorf("%w: pending redemptions add up to %d, total is %d", ErrInvariantViolated, pending, self.Totals.PendingRedemption)
	}
	return nil
}
