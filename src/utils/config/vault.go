package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

const (
	UnstakeReferralAlways       = "always"
	UnstakeReferralLargeDeposit = "large_deposit"
	UnstakeReferralNever        = "never"
)

type Vault struct {
	// Administrative actor, receives all fees
	Owner string

	// Account holding staked principal and escrowed redemptions
	Custody string

	// Account receiving the settlement asset on deposit
	Settlement string

	// Asset minted and burned by the vault
	ProtocolAsset string

	// External stable asset used for deposits and redemption settlement
	SettlementAsset string

	// Other assets that may end up in custody and can be swept by the owner
	StrayAssets []string

	// Annual rate in basis points
	APY uint64

	// Early exit fee at t=0 in basis points, decays linearly to 0 after a year
	MaxEarlyFeeRate uint64

	// Referral reward in basis points
	ReferralRate uint64

	// Amounts below this are small (6 decimals)
	BoundaryAmount uint64

	// Use the sub-year curve. Linear accrual for the whole period otherwise.
	CurveEnabled bool

	// Exponent of the sub-year curve, at most two fractional digits
	CurvePower string

	// Unstake clears referrer assignment
	ClearReferrerOnUnstake bool

	// Unstake clears VIP flag
	RevokeVIPOnUnstake bool

	// Reward referrer on redemption requests below the boundary
	RewardSmallRedemption bool

	// When unstake rewards the referrer: always, large_deposit, never
	UnstakeReferral string

	// Non VIP accounts can't request redemptions below the boundary
	EnforceMinimumRedemption bool

	// Referred deposit above the boundary grants VIP to the depositor
	AutoVIPOnReferredDeposit bool

	// Total unstake fee never exceeds principal
	ClampFeeToPrincipal bool

	// Initial VIP accounts
	VIPs []string

	// Initial authorized redeemers
	Redeemers []string

	// Capacity of each event subscriber's buffer
	EventBufferSize int
}

func setVaultDefaults() {
	viper.SetDefault("Vault.Owner", "0x1000000000000000000000000000000000000001")
	viper.SetDefault("Vault.Custody", "0x2000000000000000000000000000000000000002")
	viper.SetDefault("Vault.Settlement", "0x3000000000000000000000000000000000000003")
	viper.SetDefault("Vault.ProtocolAsset", "VUSD")
	viper.SetDefault("Vault.SettlementAsset", "USDT")
	viper.SetDefault("Vault.StrayAssets", []string{"USDC"})
	viper.SetDefault("Vault.APY", 1200)
	viper.SetDefault("Vault.MaxEarlyFeeRate", 600)
	viper.SetDefault("Vault.ReferralRate", 500)
	viper.SetDefault("Vault.BoundaryAmount", 1000_000000)
	viper.SetDefault("Vault.CurveEnabled", true)
	viper.SetDefault("Vault.CurvePower", "2.0")
	viper.SetDefault("Vault.ClearReferrerOnUnstake", true)
	viper.SetDefault("Vault.RevokeVIPOnUnstake", true)
	viper.SetDefault("Vault.RewardSmallRedemption", true)
	viper.SetDefault("Vault.UnstakeReferral", UnstakeReferralAlways)
	viper.SetDefault("Vault.EnforceMinimumRedemption", false)
	viper.SetDefault("Vault.AutoVIPOnReferredDeposit", true)
	viper.SetDefault("Vault.ClampFeeToPrincipal", true)
	viper.SetDefault("Vault.VIPs", []string{})
	viper.SetDefault("Vault.Redeemers", []string{})
	viper.SetDefault("Vault.EventBufferSize", 1000)
}

func (self *Vault) Validate() error {
	for name, addr := range map[string]string{
		"owner":      self.Owner,
		"custody":    self.Custody,
		"settlement": self.Settlement,
	} {
		if !common.IsHexAddress(addr) || common.HexToAddress(addr) == (common.Address{}) {
			return fmt.Errorf("invalid %s address: %q", name, addr)
		}
	}

	for _, addr := range append(slices.Clone(self.VIPs), self.Redeemers...) {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid account address: %q", addr)
		}
	}

	if self.ProtocolAsset == "" || self.SettlementAsset == "" || self.ProtocolAsset == self.SettlementAsset {
		return errors.New("protocol and settlement assets must be set and differ")
	}

	if self.APY > 10000 || self.MaxEarlyFeeRate > 10000 || self.ReferralRate > 10000 {
		return errors.New("rates are basis points and can't exceed 10000")
	}

	switch self.UnstakeReferral {
	case UnstakeReferralAlways, UnstakeReferralLargeDeposit, UnstakeReferralNever:
	default:
		return fmt.Errorf("unknown unstake referral mode: %q", self.UnstakeReferral)
	}

	return nil
}
