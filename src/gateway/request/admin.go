package request

import "github.com/warp-contracts/vault/src/vault"

type SetRates struct {
	Auth
	APY             uint64 `json:"apy"`
	MaxEarlyFeeRate uint64 `json:"max_early_fee_rate"`
	ReferralRate    uint64 `json:"referral_rate"`
}

type SetBoundaryAmount struct {
	Auth
	Amount uint64 `json:"amount"`
}

type SetVault struct {
	Auth
	Vault string `json:"vault"`
}

type SetCurve struct {
	Auth
	Enabled bool   `json:"enabled"`
	Power   string `json:"power"`
}

type SetPolicy struct {
	Auth
	Policy vault.Policy `json:"policy"`
}

// Used for VIP and redeemer flags
type SetFlag struct {
	Auth
	Account string `json:"account"`
	Enabled bool   `json:"enabled"`
}

type TransferOwnership struct {
	Auth
	Owner string `json:"owner"`
}

type Sweep struct {
	Auth
	Asset  string `json:"asset"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}
