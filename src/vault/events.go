package vault

import (
	"encoding/json"
	"slices"
)

type EventKind string

const (
	EventReferrerAssigned     EventKind = "referrer_assigned"
	EventReferrerCleared      EventKind = "referrer_cleared"
	EventReferralRewardMinted EventKind = "referral_reward_minted"
	EventDeposited            EventKind = "deposited"
	EventRedemptionRequested  EventKind = "redemption_requested"
	EventRedemptionFulfilled  EventKind = "redemption_fulfilled"
	EventStaked               EventKind = "staked"
	EventUnstaked             EventKind = "unstaked"
	EventVIPUpdated           EventKind = "vip_updated"
	EventRedeemerUpdated      EventKind = "redeemer_updated"
	EventParamsUpdated        EventKind = "params_updated"
	EventOwnershipTransferred EventKind = "ownership_transferred"
	EventSwept                EventKind = "swept"
)

type ReferralReason string

const (
	ReasonLargeDeposit    ReferralReason = "large_deposit"
	ReasonSmallRedemption ReferralReason = "small_redemption"
	ReasonUnstake         ReferralReason = "unstake"
)

// Why VIP status changed
type VIPReason string

const (
	VIPReasonAdmin           VIPReason = "admin"
	VIPReasonReferredDeposit VIPReason = "referred_deposit"
	VIPReasonUnstake         VIPReason = "unstake"
)

// Event describes a single committed state change.
// Applying all events in order to the genesis state reproduces the current state.
type Event struct {
	// Sortable, unique
	Id string `json:"id"`

	// Consecutive, starting at 1
	Seq uint64 `json:"seq"`

	// Unix seconds
	Timestamp int64 `json:"timestamp"`

	Kind EventKind `json:"kind"`

	// Account the event is about: depositor, staker, referee, investor
	Account Account `json:"account"`

	// Set on referral events
	Referrer Account `json:"referrer"`

	// Who triggered administrative actions and fulfillments
	Caller Account `json:"caller"`

	// Sweep destination, new owner
	To Account `json:"to"`

	Amount         uint64 `json:"amount,omitempty"`
	NetAmount      uint64 `json:"net_amount,omitempty"`
	Principal      uint64 `json:"principal,omitempty"`
	TimeStaked     uint64 `json:"time_staked,omitempty"`
	Reward         uint64 `json:"reward,omitempty"`
	EarlyFee       uint64 `json:"early_fee,omitempty"`
	SmallFee       uint64 `json:"small_fee,omitempty"`
	ReferralReward uint64 `json:"referral_reward,omitempty"`

	// Deposit of at least the boundary amount
	Large bool `json:"large,omitempty"`

	// VIP or redeemer flag after the change
	Enabled bool `json:"enabled,omitempty"`

	Reason    ReferralReason `json:"reason,omitempty"`
	VIPReason VIPReason      `json:"vip_reason,omitempty"`
	Asset     Asset          `json:"asset,omitempty"`
	Params    *Params        `json:"params,omitempty"`
}

func (self *Event) MarshalBinary() ([]byte, error) {
	return json.Marshal(self)
}

func (self *Event) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, self)
}

// Non-empty accounts involved in the event, without duplicates
func (self *Event) Accounts() (out []Account) {
	for _, account := range []Account{self.Account, self.Referrer, self.Caller, self.To} {
		if account == NoAccount {
			continue
		}
		if !slices.Contains(out, account) {
			out = append(out, account)
		}
	}
	return
}

// Involves reports whether the account takes part in the event
func (self *Event) Involves(account Account) bool {
	return account != NoAccount && slices.Contains(self.Accounts(), account)
}
