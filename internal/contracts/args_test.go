package contracts

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func arguments(t *testing.T, types ...string) abi.Arguments {
	t.Helper()
	var args abi.Arguments
	for _, name := range types {
		typ, err := abi.NewType(name, "", nil)
		require.NoError(t, err)
		args = append(args, abi.Argument{Name: "a", Type: typ})
	}
	return args
}

func TestParseArgs(t *testing.T) {
	inputs := arguments(t, "address", "uint256", "uint8", "bool", "string", "bytes32", "int64")
	raw := []string{
		"0lt1111111111111111111111111111111111111111",
		"1000000000000000000",
		"0x12",
		"true",
		"Dai Stablecoin",
		"0x" + "ab" + "000000000000000000000000000000000000000000000000000000000000cd",
		"-5",
	}

	got, err := ParseArgs(inputs, raw)
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress("0x1111111111111111111111111111111111111111"), got[0])
	assert.Equal(t, "1000000000000000000", got[1].(*big.Int).String())
	assert.Equal(t, uint8(0x12), got[2])
	assert.Equal(t, true, got[3])
	assert.Equal(t, "Dai Stablecoin", got[4])
	fixed := got[5].([32]byte)
	assert.Equal(t, byte(0xab), fixed[0])
	assert.Equal(t, byte(0xcd), fixed[31])
	assert.Equal(t, int64(-5), got[6])

	// the parsed values are accepted by the encoder
	_, err = inputs.Pack(got...)
	assert.NoError(t, err)
}

func TestParseArgsErrors(t *testing.T) {
	tests := []struct {
		name  string
		types []string
		raw   []string
	}{
		{"count mismatch", []string{"address"}, nil},
		{"bad address", []string{"address"}, []string{"0lt12"}},
		{"0x address", []string{"address"}, []string{"0x1111111111111111111111111111111111111111"}},
		{"uint overflow", []string{"uint8"}, []string{"256"}},
		{"negative uint", []string{"uint256"}, []string{"-1"}},
		{"not a number", []string{"uint256"}, []string{"ten"}},
		{"short bytes32", []string{"bytes32"}, []string{"0xabcd"}},
		{"bad bool", []string{"bool"}, []string{"maybe"}},
		{"unsupported", []string{"uint256[]"}, []string{"1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(arguments(t, tt.types...), tt.raw)
			assert.Error(t, err)
		})
	}
}
