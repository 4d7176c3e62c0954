package uniswap

import (
	"math/big"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MinReceived is floor(amount * (100 - slippage) / 100).
func MinReceived(amount *big.Int, slippage decimal.Decimal) (*big.Int, error) {
	num, den, err := slippageFraction(slippage, false)
	if err != nil {
		return nil, err
	}
	out := new(big.Int).Mul(amount, num)
	return out.Quo(out, den), nil
}

// MaxPaid is ceil(amount * (100 + slippage) / 100).
func MaxPaid(amount *big.Int, slippage decimal.Decimal) (*big.Int, error) {
	num, den, err := slippageFraction(slippage, true)
	if err != nil {
		return nil, err
	}
	out := new(big.Int).Mul(amount, num)
	out.Add(out, den)
	out.Sub(out, big.NewInt(1))
	return out.Quo(out, den), nil
}

// slippageFraction returns (100 +/- s) and 100 scaled to integers so the
// result is exact for any decimal slippage.
func slippageFraction(s decimal.Decimal, up bool) (*big.Int, *big.Int, error) {
	if s.IsNegative() || s.GreaterThan(hundred) {
		return nil, nil, ErrInvalidSlippage
	}

	var scale int32
	if exp := s.Exponent(); exp < 0 {
		scale = -exp
	}
	den := hundred.Shift(scale).BigInt()
	pct := s.Shift(scale).BigInt()

	if up {
		return new(big.Int).Add(den, pct), den, nil
	}
	return new(big.Int).Sub(den, pct), den, nil
}

// ValidateSlippage reports whether s is a usable percentage.
func ValidateSlippage(s decimal.Decimal) error {
	_, _, err := slippageFraction(s, false)
	return err
}
