package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// FormatUnits renders a token amount in whole units.
func FormatUnits(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}

// ParseUnits converts a human amount such as "1000.5" into base units.
func ParseUnits(amount string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, err
	}
	return d.Shift(decimals).BigInt(), nil
}

// GweiToWei converts a gwei decimal into wei.
func GweiToWei(gwei decimal.Decimal) *big.Int {
	return gwei.Shift(9).BigInt()
}
