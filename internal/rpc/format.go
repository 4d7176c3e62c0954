package rpc

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// flexBig accepts a JSON number or a decimal string of arbitrary size. An
// empty or null balance reads as zero.
type flexBig struct {
	*big.Int
}

func (f *flexBig) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		f.Int = new(big.Int)
		return nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fmt.Errorf("invalid integer %q", s)
	}
	f.Int = v
	return nil
}

// Value returns the wrapped integer, never nil.
func (f flexBig) Value() *big.Int {
	if f.Int == nil {
		return new(big.Int)
	}
	return f.Int
}

// DecodeHex converts an EVM return string ("0x..." or bare hex) into bytes.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex result: %w", err)
	}
	return b, nil
}
