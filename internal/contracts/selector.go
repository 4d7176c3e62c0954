package contracts

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// FunctionSelector computes the 4-byte function selector from a signature
// e.g., "balanceOf(address)" -> 0x70a08231
func FunctionSelector(signature string) []byte {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(signature))
	return hasher.Sum(nil)[:4]
}

// Require checks that the ABI declares every listed function. Entries are
// either a bare name ("getPair") or a full signature ("getPair(address,address)");
// a signature must match the declared argument types exactly.
func (c *Contract) Require(methods ...string) error {
	var missing []string
	for _, m := range methods {
		if !c.has(m) {
			missing = append(missing, m)
		}
	}
	if len(missing) > 0 {
		return &AbiError{Contract: c.Name, Err: fmt.Errorf("abi is missing %s", strings.Join(missing, ", "))}
	}
	return nil
}

func (c *Contract) has(method string) bool {
	name, _, isSig := strings.Cut(method, "(")
	if !isSig {
		_, ok := c.ABI.Methods[method]
		return ok
	}

	m, ok := c.ABI.Methods[name]
	if !ok {
		return false
	}
	return bytes.Equal(m.ID, FunctionSelector(method))
}
