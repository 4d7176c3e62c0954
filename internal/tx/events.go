package tx

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dmagro/oneswap-deployer/internal/keys"
	"github.com/dmagro/oneswap-deployer/internal/rpc"
)

// Event keys the VM emits.
const (
	EventContract = "tx.contract"
	EventStatus   = "tx.status"
	EventError    = "tx.error"
)

// Attribute is one decoded event attribute. Value is UTF-8 text when the
// bytes are valid UTF-8 and lowercase hex otherwise; Raw keeps the bytes.
type Attribute struct {
	Type  string
	Key   string
	Value string
	Raw   []byte
}

// Events is the flattened attribute list of a transaction in emission order.
type Events []Attribute

// Get returns the last attribute with key, mirroring map semantics where a
// later attribute replaces an earlier one.
func (ev Events) Get(key string) (Attribute, bool) {
	for i := len(ev) - 1; i >= 0; i-- {
		if ev[i].Key == key {
			return ev[i], true
		}
	}
	return Attribute{}, false
}

// Map flattens ev into key -> value.
func (ev Events) Map() map[string]string {
	out := make(map[string]string, len(ev))
	for _, a := range ev {
		out[a.Key] = a.Value
	}
	return out
}

// DecodeEvents decodes base64 keys and values.
func DecodeEvents(events []rpc.Event) (Events, error) {
	var out Events
	for _, e := range events {
		for _, attr := range e.Attributes {
			key, err := base64.StdEncoding.DecodeString(attr.Key)
			if err != nil {
				return nil, fmt.Errorf("decode event key %q: %w", attr.Key, err)
			}

			a := Attribute{Type: e.Type, Key: string(key)}
			if attr.Value != "" {
				raw, err := base64.StdEncoding.DecodeString(attr.Value)
				if err != nil {
					return nil, fmt.Errorf("decode event %s value: %w", a.Key, err)
				}
				a.Raw = raw
				if utf8.Valid(raw) {
					a.Value = string(raw)
				} else {
					a.Value = hex.EncodeToString(raw)
				}
			}
			out = append(out, a)
		}
	}
	return out, nil
}

// statusOK reports whether the status marker is nonzero once trailing zero
// padding is stripped.
func statusOK(a Attribute) bool {
	return len(bytes.TrimRight(a.Raw, "\x00")) > 0
}

// contractAddress reads the created contract address from a tx.contract
// attribute, which carries either the 20 raw bytes or a hex string.
func contractAddress(a Attribute) (common.Address, error) {
	if len(a.Raw) == common.AddressLength {
		return common.BytesToAddress(a.Raw), nil
	}
	return keys.ParseChainAddress(a.Value)
}
