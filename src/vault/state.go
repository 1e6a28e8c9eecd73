package vault

import (
	"fmt"
	"maps"
)

// State is everything the vault knows besides ledger balances.
//
// Records and aggregates change only through the write-path methods below,
// each of them updates the per-account record and the aggregate together.
// Inside a transaction every write saves a pre-image of what it touches, so
// a failed transaction is rolled back without copying the whole state.
type State struct {
	Params    Params                   `json:"params"`
	Accounts  map[Account]AccountState `json:"accounts"`
	Redeemers map[Account]bool         `json:"redeemers"`
	Totals    Totals                   `json:"totals"`

	// Sequence number of the last applied event
	Seq uint64 `json:"seq"`

	undo *undoLog
}

type undoLog struct {
	params    Params
	totals    Totals
	seq       uint64
	accounts  map[Account]AccountState
	redeemers map[Account]bool
}

func NewState(params Params) *State {
	return &State{
		Params:    params.Clone(),
		Accounts:  make(map[Account]AccountState),
		Redeemers: make(map[Account]bool),
	}
}

// Genesis state from configuration
func (self *State) WithVIPs(accounts ...Account) *State {
	for _, account := range accounts {
		self.update(account, func(record *AccountState) { record.VIP = true })
	}
	return self
}

func (self *State) WithRedeemers(accounts ...Account) *State {
	for _, account := range accounts {
		self.setRedeemer(account, true)
	}
	return self
}

// Deep copy, never shares the undo log
func (self *State) Clone() *State {
	return &State{
		Params:    self.Params.Clone(),
		Accounts:  maps.Clone(self.Accounts),
		Redeemers: maps.Clone(self.Redeemers),
		Totals:    self.Totals,
		Seq:       self.Seq,
	}
}

func (self *State) Account(account Account) AccountState {
	return self.Accounts[account]
}

func (self *State) IsRedeemer(account Account) bool {
	return self.Redeemers[account]
}

// Owner and authorized redeemers may settle redemptions
func (self *State) CanFulfill(account Account) bool {
	return account == self.Params.Owner || self.IsRedeemer(account)
}

func (self *State) begin() {
	self.undo = &undoLog{
		params:    self.Params.Clone(),
		totals:    self.Totals,
		seq:       self.Seq,
		accounts:  make(map[Account]AccountState),
		redeemers: make(map[Account]bool),
	}
}

func (self *State) commit() {
	self.undo = nil
}

func (self *State) rollback() {
	if self.undo == nil {
		return
	}

	self.Params = self.undo.params
	self.Totals = self.undo.totals
	self.Seq = self.undo.seq

	for account, record := range self.undo.accounts {
		if record.IsEmpty() {
			delete(self.Accounts, account)
		} else {
			self.Accounts[account] = record
		}
	}

	for account, enabled := range self.undo.redeemers {
		if enabled {
			self.Redeemers[account] = true
		} else {
			delete(self.Redeemers, account)
		}
	}

	self.undo = nil
}

// The only place account records are written
func (self *State) update(account Account, f func(record *AccountState)) {
	record := self.Accounts[account]

	if self.undo != nil {
		if _, ok := self.undo.accounts[account]; !ok {
			self.undo.accounts[account] = record
		}
	}

	f(&record)

	if record.IsEmpty() {
		delete(self.Accounts, account)
	} else {
		self.Accounts[account] = record
	}
}

func (self *State) openPosition(account Account, amount, start uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	if start == 0 {
		return fmt.Errorf("%w: position must start after the epoch", ErrInvalidParams)
	}
	if self.Accounts[account].Position.IsLive() {
		return ErrAlreadyStaked
	}

	totalStaked := self.Totals.Staked + amount
	if totalStaked < self.Totals.Staked {
		return ErrAmountOverflow
	}

	self.update(account, func(record *AccountState) {
		record.Position = Position{Principal: amount, Start: start}
	})
	self.Totals.Staked = totalStaked
	return nil
}

func (self *State) closePosition(account Account) (position Position, err error) {
	position = self.Accounts[account].Position
	if !position.IsLive() {
		return position, ErrNoStakedBalance
	}

	self.update(account, func(record *AccountState) {
		record.Position = Position{}
	})
	self.Totals.Staked -= position.Principal
	return
}

func (self *State) enqueueRedemption(account Account, amount uint64) error {
	record := self.Accounts[account]
	pending := record.PendingRedemption + amount
	total := self.Totals.PendingRedemption + amount
	if pending < record.PendingRedemption || total < self.Totals.PendingRedemption {
		return ErrAmountOverflow
	}

	self.update(account, func(record *AccountState) {
		record.PendingRedemption = pending
	})
	self.Totals.PendingRedemption = total
	return nil
}

func (self *State) settleRedemption(account Account) (amount uint64, err error) {
	amount = self.Accounts[account].PendingRedemption
	if amount == 0 {
		return 0, ErrNoPendingRedemption
	}

	self.update(account, func(record *AccountState) {
		record.PendingRedemption = 0
	})
	self.Totals.PendingRedemption -= amount
	return
}

func (self *State) assignReferrer(account, referrer Account) error {
	if account == NoAccount || referrer == NoAccount {
		return ErrInvalidAddress
	}
	if account == referrer {
		return ErrInvalidReferrer
	}
	if self.Accounts[account].Referrer != NoAccount {
		return ErrAlreadyHasReferrer
	}

	self.update(account, func(record *AccountState) {
		record.Referrer = referrer
	})
	return nil
}

// Clearing the referrer also resets the deposit history used for referral eligibility
func (self *State) clearReferrer(account Account) {
	self.update(account, func(record *AccountState) {
		record.Referrer = NoAccount
		record.LargeDepositor = false
	})
}

func (self *State) markLargeDepositor(account Account) {
	self.update(account, func(record *AccountState) {
		record.LargeDepositor = true
	})
}

func (self *State) setVIP(account Account, enabled bool) {
	self.update(account, func(record *AccountState) {
		record.VIP = enabled
	})
}

func (self *State) setRedeemer(account Account, enabled bool) {
	if self.undo != nil {
		if _, ok := self.undo.redeemers[account]; !ok {
			self.undo.redeemers[account] = self.Redeemers[account]
		}
	}

	if enabled {
		self.Redeemers[account] = true
	} else {
		delete(self.Redeemers, account)
	}
}

// Apply validates and applies a single event. Engine transactions and replay share this path.
func (self *State) Apply(event *Event) (err error) {
	if event.Seq != self.Seq+1 {
		return fmt.Errorf("%w: expected seq %d, got %d", ErrEventOutOfOrder, self.Seq+1, event.Seq)
	}

	switch event.Kind {
	case EventReferrerAssigned:
		err = self.assignReferrer(event.Account, event.Referrer)

	case EventReferrerCleared:
		self.clearReferrer(event.Account)

	case EventDeposited:
		if event.Large {
			self.markLargeDepositor(event.Account)
		}

	case EventStaked:
		if event.Timestamp <= 0 {
			return fmt.Errorf("%w: staked at %d", ErrInvalidParams, event.Timestamp)
		}
		err = self.openPosition(event.Account, event.Amount, uint64(event.Timestamp))

	case EventUnstaked:
		var position Position
		position, err = self.closePosition(event.Account)
		if err == nil && position.Principal != event.Principal {
			err = fmt.Errorf("%w: unstaked principal %d, position has %d", ErrInvariantViolated, event.Principal, position.Principal)
		}

	case EventRedemptionRequested:
		err = self.enqueueRedemption(event.Account, event.NetAmount)

	case EventRedemptionFulfilled:
		var amount uint64
		amount, err = self.settleRedemption(event.Account)
		if err == nil && amount != event.Amount {
			err = fmt.Errorf("%w: fulfilled %d, pending %d", ErrInvariantViolated, event.Amount, amount)
		}

	case EventVIPUpdated:
		self.setVIP(event.Account, event.Enabled)

	case EventRedeemerUpdated:
		self.setRedeemer(event.Account, event.Enabled)

	case EventParamsUpdated:
		if event.Params == nil {
			return fmt.Errorf("%w: params missing", ErrInvalidParams)
		}
		err = event.Params.Validate()
		if err == nil {
			self.Params = event.Params.Clone()
		}

	case EventOwnershipTransferred:
		if event.To == NoAccount {
			return ErrInvalidAddress
		}
		self.Params.Owner = event.To

	case EventReferralRewardMinted, EventSwept:
		// Ledger only

	default:
		return fmt.Errorf("unknown event kind: %q", event.Kind)
	}

	if err != nil {
		return
	}

	self.Seq = event.Seq
	return nil
}
