package units

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int32
		want     string
		wantErr  bool
	}{
		{"one token 18 decimals", "1", 18, "1000000000000000000", false},
		{"gas price", "1", 9, "1000000000", false},
		{"fraction", "0.5", 18, "500000000000000000", false},
		{"smallest unit", "0.000000000000000001", 18, "1", false},
		{"zero", "0", 18, "0", false},
		{"large", "123456789.123456789", 18, "123456789123456789000000000", false},
		{"below one base unit", "0.0000000000000000001", 18, "", true},
		{"negative", "-1", 18, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToBaseUnits(decimal.RequireFromString(tt.amount), tt.decimals)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFromBaseUnits(t *testing.T) {
	raw, _ := new(big.Int).SetString("1500000000000000000", 10)
	assert.Equal(t, "1.5", FromBaseUnits(raw, 18).String())
	assert.True(t, FromBaseUnits(nil, 18).IsZero())
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount(" 2.25 ")
	require.NoError(t, err)
	assert.Equal(t, "2.25", d.String())

	_, err = ParseAmount("abc")
	assert.Error(t, err)
	_, err = ParseAmount("-3")
	assert.Error(t, err)
}

func TestFormatTokenAmount(t *testing.T) {
	tests := []struct {
		name     string
		raw      *big.Int
		decimals int
		symbol   string
		want     string
	}{
		{"zero", big.NewInt(0), 6, "USDC", "0.000000 USDC"},
		{"nil", nil, 2, "X", "0.00 X"},
		{"small", big.NewInt(1), 6, "USDC", "0.000001 USDC"},
		{"thousands", big.NewInt(1234567890000), 6, "USDC", "1,234,567.890000 USDC"},
		{"no decimals", big.NewInt(1234567), 0, "LP", "1,234,567 LP"},
		{"no symbol", big.NewInt(150), 2, "", "1.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatTokenAmount(tt.raw, tt.decimals, tt.symbol)
			if got != tt.want {
				t.Errorf("FormatTokenAmount() = %q, want %q", got, tt.want)
			}
		})
	}
}
