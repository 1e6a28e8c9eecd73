package vault

import (
	"fmt"
	"slices"

	"github.com/warp-contracts/vault/src/utils/config"
	"github.com/warp-contracts/vault/src/utils/wad"
)

type UnstakeReferralMode string

const (
	UnstakeReferralAlways       UnstakeReferralMode = config.UnstakeReferralAlways
	UnstakeReferralLargeDeposit UnstakeReferralMode = config.UnstakeReferralLargeDeposit
	UnstakeReferralNever        UnstakeReferralMode = config.UnstakeReferralNever
)

// Process-wide parameters, changed only by the owner
type Params struct {
	Owner      Account `json:"owner"`
	Custody    Account `json:"custody"`
	Settlement Account `json:"settlement"`

	ProtocolAsset   Asset   `json:"protocol_asset"`
	SettlementAsset Asset   `json:"settlement_asset"`
	StrayAssets     []Asset `json:"stray_assets"`

	APY             uint64 `json:"apy"`
	MaxEarlyFeeRate uint64 `json:"max_early_fee_rate"`
	ReferralRate    uint64 `json:"referral_rate"`
	BoundaryAmount  uint64 `json:"boundary_amount"`

	CurveEnabled bool   `json:"curve_enabled"`
	CurvePower   string `json:"curve_power"`

	ClearReferrerOnUnstake   bool                `json:"clear_referrer_on_unstake"`
	RevokeVIPOnUnstake       bool                `json:"revoke_vip_on_unstake"`
	RewardSmallRedemption    bool                `json:"reward_small_redemption"`
	UnstakeReferral          UnstakeReferralMode `json:"unstake_referral"`
	EnforceMinimumRedemption bool                `json:"enforce_minimum_redemption"`
	AutoVIPOnReferredDeposit bool                `json:"auto_vip_on_referred_deposit"`
	ClampFeeToPrincipal      bool                `json:"clamp_fee_to_principal"`
}

func NewParams(config *config.Vault) (self Params, err error) {
	for _, v := range []struct {
		dst *Account
		src string
	}{
		{&self.Owner, config.Owner},
		{&self.Custody, config.Custody},
		{&self.Settlement, config.Settlement},
	} {
		*v.dst, err = ParseAccount(v.src)
		if err != nil {
			return self, fmt.Errorf("%w: %q", err, v.src)
		}
	}

	self.ProtocolAsset = Asset(config.ProtocolAsset)
	self.SettlementAsset = Asset(config.SettlementAsset)
	for _, asset := range config.StrayAssets {
		self.StrayAssets = append(self.StrayAssets, Asset(asset))
	}

	self.APY = config.APY
	self.MaxEarlyFeeRate = config.MaxEarlyFeeRate
	self.ReferralRate = config.ReferralRate
	self.BoundaryAmount = config.BoundaryAmount
	self.CurveEnabled = config.CurveEnabled
	self.CurvePower = config.CurvePower
	self.ClearReferrerOnUnstake = config.ClearReferrerOnUnstake
	self.RevokeVIPOnUnstake = config.RevokeVIPOnUnstake
	self.RewardSmallRedemption = config.RewardSmallRedemption
	self.UnstakeReferral = UnstakeReferralMode(config.UnstakeReferral)
	self.EnforceMinimumRedemption = config.EnforceMinimumRedemption
	self.AutoVIPOnReferredDeposit = config.AutoVIPOnReferredDeposit
	self.ClampFeeToPrincipal = config.ClampFeeToPrincipal

	err = self.Validate()
	return
}

func (self Params) Clone() Params {
	self.StrayAssets = slices.Clone(self.StrayAssets)
	return self
}

func (self Params) Validate() error {
	if self.Owner == NoAccount || self.Custody == NoAccount || self.Settlement == NoAccount {
		return ErrInvalidAddress
	}

	if self.ProtocolAsset == "" || self.SettlementAsset == "" || self.ProtocolAsset == self.SettlementAsset {
		return fmt.Errorf("%w: protocol and settlement assets must be set and differ", ErrInvalidParams)
	}

	if self.APY > BpsBase || self.MaxEarlyFeeRate > BpsBase || self.ReferralRate > BpsBase {
		return fmt.Errorf("%w: rates can't exceed %d bps", ErrInvalidParams, BpsBase)
	}

	switch self.UnstakeReferral {
	case UnstakeReferralAlways, UnstakeReferralLargeDeposit, UnstakeReferralNever:
	default:
		return fmt.Errorf("%w: unknown unstake referral mode %q", ErrInvalidParams, self.UnstakeReferral)
	}

	_, err := self.Curve()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}

	return nil
}

func (self Params) Curve() (curve Curve, err error) {
	curve.APY = self.APY
	curve.Enabled = self.CurveEnabled
	curve.Power, err = wad.ParsePower(self.CurvePower)
	return
}

// Assets that may be swept from custody
func (self Params) IsStrayAsset(asset Asset) bool {
	return slices.Contains(self.StrayAssets, asset)
}

// Behavior toggles, all settable at once by the owner
type Policy struct {
	ClearReferrerOnUnstake   bool                `json:"clear_referrer_on_unstake"`
	RevokeVIPOnUnstake       bool                `json:"revoke_vip_on_unstake"`
	RewardSmallRedemption    bool                `json:"reward_small_redemption"`
	UnstakeReferral          UnstakeReferralMode `json:"unstake_referral"`
	EnforceMinimumRedemption bool                `json:"enforce_minimum_redemption"`
	AutoVIPOnReferredDeposit bool                `json:"auto_vip_on_referred_deposit"`
	ClampFeeToPrincipal      bool                `json:"clamp_fee_to_principal"`
}

func (self Params) Policy() Policy {
	return Policy{
		ClearReferrerOnUnstake:   self.ClearReferrerOnUnstake,
		RevokeVIPOnUnstake:       self.RevokeVIPOnUnstake,
		RewardSmallRedemption:    self.RewardSmallRedemption,
		UnstakeReferral:          self.UnstakeReferral,
		EnforceMinimumRedemption: self.EnforceMinimumRedemption,
		AutoVIPOnReferredDeposit: self.AutoVIPOnReferredDeposit,
		ClampFeeToPrincipal:      self.ClampFeeToPrincipal,
	}
}

func (self Policy) apply(params *Params) {
	params.ClearReferrerOnUnstake = self.ClearReferrerOnUnstake
	params.RevokeVIPOnUnstake = self.RevokeVIPOnUnstake
	params.RewardSmallRedemption = self.RewardSmallRedemption
	params.UnstakeReferral = self.UnstakeReferral
	params.EnforceMinimumRedemption = self.EnforceMinimumRedemption
	params.AutoVIPOnReferredDeposit = self.AutoVIPOnReferredDeposit
	params.ClampFeeToPrincipal = self.ClampFeeToPrincipal
}
