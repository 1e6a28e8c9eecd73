package cmd

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Amounts have 6 decimals
const decimals = 6

func parseAmount(s string) (amount uint64, err error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return
	}

	units := d.Shift(decimals)
	if units.IsNegative() || !units.Equal(units.Truncate(0)) || units.GreaterThan(decimal.NewFromBigInt(new(big.Int).SetUint64(^uint64(0)), 0)) {
		return 0, fmt.Errorf("invalid amount: %s", s)
	}

	return units.BigInt().Uint64(), nil
}

func formatAmount(amount uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -decimals).StringFixed(decimals)
}
