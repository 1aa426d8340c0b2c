package models

import "github.com/shopspring/decimal"

func init() {
	// Amounts go over the wire as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// MinorUnits converts a major-unit amount to the gateway's minor units (x100)
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
