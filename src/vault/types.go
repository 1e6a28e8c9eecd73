package vault

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/warp-contracts/vault/src/utils/wad"
)

// Account identity, the zero address means "none"
type Account = common.Address

// Asset symbol, each asset has its own ledger
type Asset string

const (
	SecondsPerYear uint64 = 365 * 86400
	BpsBase               = wad.BpsBase
)

var NoAccount = Account{}

func ParseAccount(s string) (Account, error) {
	if !common.IsHexAddress(s) {
		return NoAccount, ErrInvalidAddress
	}
	return common.HexToAddress(s), nil
}

type Position struct {
	Principal uint64 `json:"principal"`

	// Unix seconds
	Start uint64 `json:"start"`
}

func (self Position) IsLive() bool {
	return self.Principal > 0
}

// Everything the vault keeps about a single account
type AccountState struct {
	Position          Position `json:"position"`
	Referrer          Account  `json:"referrer"`
	PendingRedemption uint64   `json:"pending_redemption"`
	VIP               bool     `json:"vip"`

	// Deposited at least the boundary amount since the referrer was last cleared
	LargeDepositor bool `json:"large_depositor"`
}

func (self AccountState) IsEmpty() bool {
	return self == AccountState{}
}

type Totals struct {
	Staked            uint64 `json:"staked"`
	PendingRedemption uint64 `json:"pending_redemption"`
}
