package report

import (
	"go.uber.org/atomic"
)

type VaultErrors struct {
	// Operations rejected by vault rules
	Rejected atomic.Uint64 `json:"rejected"`

	// Ledger calls that failed
	Ledger atomic.Uint64 `json:"ledger"`

	// Ledger calls that failed while rolling back, balances may be off
	Compensation atomic.Uint64 `json:"compensation"`

	Reentrant atomic.Uint64 `json:"reentrant"`
}

type VaultState struct {
	Transactions       atomic.Uint64 `json:"transactions"`
	FailedTransactions atomic.Uint64 `json:"failed_transactions"`
	LastSeq            atomic.Uint64 `json:"last_seq"`

	Deposits             atomic.Uint64 `json:"deposits"`
	Stakes               atomic.Uint64 `json:"stakes"`
	Unstakes             atomic.Uint64 `json:"unstakes"`
	RedemptionRequests   atomic.Uint64 `json:"redemption_requests"`
	RedemptionsFulfilled atomic.Uint64 `json:"redemptions_fulfilled"`
	AdminOperations      atomic.Uint64 `json:"admin_operations"`

	TotalStaked            atomic.Uint64 `json:"total_staked"`
	TotalPendingRedemption atomic.Uint64 `json:"total_pending_redemption"`

	RewardsMinted         atomic.Uint64 `json:"rewards_minted"`
	ReferralRewardsMinted atomic.Uint64 `json:"referral_rewards_minted"`
	FeesCollected         atomic.Uint64 `json:"fees_collected"`

	EventsDropped atomic.Uint64 `json:"events_dropped"`
}

type VaultReport struct {
	State  VaultState  `json:"state"`
	Errors VaultErrors `json:"errors"`
}
