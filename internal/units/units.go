// Package units converts between human decimal amounts and integer base
// units. Nothing in here goes through float64.
package units

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// OLTDecimals scales transaction amounts: 1 OLT = 10^18 base units.
	OLTDecimals = 18
	// GasPriceDecimals scales gas prices: "1" means 10^9 base units.
	GasPriceDecimals = 9
)

// ToBaseUnits scales amount by 10^decimals. The result must be a
// non-negative integer; anything finer than one base unit is rejected
// rather than rounded.
func ToBaseUnits(amount decimal.Decimal, decimals int32) (*big.Int, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("negative amount %s", amount)
	}
	scaled := amount.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}
	return scaled.BigInt(), nil
}

// FromBaseUnits is the inverse of ToBaseUnits.
func FromBaseUnits(raw *big.Int, decimals int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -decimals)
}

// ParseAmount parses a user supplied decimal string such as "1.5".
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid amount %q: must not be negative", s)
	}
	return d, nil
}

// FormatTokenAmount formats a raw token amount with decimals
func FormatTokenAmount(raw *big.Int, decimals int, symbol string) string {
	if raw == nil || raw.Sign() == 0 {
		if decimals == 0 {
			return strings.TrimSpace("0 " + symbol)
		}
		return strings.TrimSpace(fmt.Sprintf("0.%s %s", strings.Repeat("0", decimals), symbol))
	}

	rawStr := raw.String()
	if decimals == 0 {
		return strings.TrimSpace(addThousandSeparators(rawStr) + " " + symbol)
	}

	// Pad with leading zeros if necessary
	for len(rawStr) <= decimals {
		rawStr = "0" + rawStr
	}

	insertPos := len(rawStr) - decimals
	wholePart := addThousandSeparators(rawStr[:insertPos])
	decimalPart := rawStr[insertPos:]

	return strings.TrimSpace(fmt.Sprintf("%s.%s %s", wholePart, decimalPart, symbol))
}

func addThousandSeparators(s string) string {
	if len(s) <= 3 {
		return s
	}

	var result []byte
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}
