package response

import (
	"github.com/warp-contracts/vault/src/vault"
)

type Account struct {
	Address           string                 `json:"address"`
	Principal         uint64                 `json:"principal"`
	Start             uint64                 `json:"start"`
	Referrer          string                 `json:"referrer,omitempty"`
	PendingRedemption uint64                 `json:"pending_redemption"`
	VIP               bool                   `json:"vip"`
	LargeDepositor    bool                   `json:"large_depositor"`
	Redeemer          bool                   `json:"redeemer"`
	Balances          map[vault.Asset]uint64 `json:"balances"`
}

func AccountToResponse(account vault.Account, record vault.AccountState, isRedeemer bool, balances map[vault.Asset]uint64) *Account {
	out := &Account{
		Address:           account.Hex(),
		Principal:         record.Position.Principal,
		Start:             record.Position.Start,
		PendingRedemption: record.PendingRedemption,
		VIP:               record.VIP,
		LargeDepositor:    record.LargeDepositor,
		Redeemer:          isRedeemer,
		Balances:          balances,
	}
	if record.Referrer != vault.NoAccount {
		out.Referrer = record.Referrer.Hex()
	}
	return out
}

type State struct {
	Seq    uint64       `json:"seq"`
	Totals vault.Totals `json:"totals"`
	Params vault.Params `json:"params"`
}

type Fee struct {
	Amount uint64 `json:"amount"`
	Fee    uint64 `json:"fee"`
}

// Sequence number of the last committed event
type Ok struct {
	Seq uint64 `json:"seq"`
}

type Fulfilled struct {
	Investor string `json:"investor"`
	Amount   uint64 `json:"amount"`
}

type Balance struct {
	Account string      `json:"account"`
	Asset   vault.Asset `json:"asset"`
	Balance uint64      `json:"balance"`
}
