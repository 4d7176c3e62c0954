package keys

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// AddressPrefix marks an address in its user-facing text form.
const AddressPrefix = "0lt"

// FormatAddress renders a as "0lt" followed by 40 lowercase hex characters.
func FormatAddress(a common.Address) string {
	return AddressPrefix + BareAddress(a)
}

// BareAddress renders a as 40 lowercase hex characters without any prefix.
// This is the form kept in the state and swap-list files.
func BareAddress(a common.Address) string {
	return hex.EncodeToString(a.Bytes())
}

// ParseAddress accepts "0lt" + 40 hex characters or the bare 40 hex
// characters, case-insensitively. Anything else is rejected, including
// Ethereum-style "0x" addresses.
func ParseAddress(s string) (common.Address, error) {
	body := strings.TrimPrefix(strings.TrimSpace(s), AddressPrefix)
	if len(body) != 2*common.AddressLength {
		return common.Address{}, fmt.Errorf("invalid address %q: expected %s prefix and 40 hex chars", s, AddressPrefix)
	}

	raw, err := hex.DecodeString(body)
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid address %q: contains non-hex characters", s)
	}
	return common.BytesToAddress(raw), nil
}

// ValidateAddress reports whether s has the address text shape.
func ValidateAddress(s string) error {
	_, err := ParseAddress(s)
	return err
}

// ParseChainAddress is the lenient form used for values coming back from the
// node (event attributes, ABI results), which may carry "0x", "0lt" or no prefix.
func ParseChainAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return ParseAddress(s)
}
