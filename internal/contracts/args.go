package contracts

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/dmagro/oneswap-deployer/internal/keys"
)

var bigIntType = reflect.TypeOf(&big.Int{})

// ParseArgs converts command-line strings into the Go values the ABI
// encoder expects for inputs. Addresses may be 0lt or 0x prefixed; integers
// may be decimal or 0x hex.
func ParseArgs(inputs abi.Arguments, raw []string) ([]any, error) {
	if len(raw) != len(inputs) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(inputs), len(raw))
	}
	out := make([]any, len(raw))
	for i, in := range inputs {
		v, err := parseArg(in.Type, strings.TrimSpace(raw[i]))
		if err != nil {
			return nil, fmt.Errorf("argument %d (%s %s): %w", i, in.Name, in.Type, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseArg(t abi.Type, s string) (any, error) {
	switch t.T {
	case abi.AddressTy:
		return keys.ParseAddress(s)
	case abi.BoolTy:
		return strconv.ParseBool(s)
	case abi.StringTy:
		return s, nil
	case abi.UintTy, abi.IntTy:
		return parseInt(t, s)
	case abi.BytesTy:
		return hexutil.Decode(s)
	case abi.FixedBytesTy:
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("want %d bytes, got %d", t.Size, len(b))
		}
		v := reflect.New(t.GetType()).Elem()
		reflect.Copy(v, reflect.ValueOf(b))
		return v.Interface(), nil
	default:
		return nil, fmt.Errorf("type %s is not supported on the command line", t)
	}
}

func parseInt(t abi.Type, s string) (any, error) {
	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("%q is not an integer", s)
	}
	if t.T == abi.UintTy && (n.Sign() < 0 || n.BitLen() > t.Size) {
		return nil, fmt.Errorf("%s out of range for %s", s, t)
	}
	if t.T == abi.IntTy && n.BitLen() >= t.Size {
		return nil, fmt.Errorf("%s out of range for %s", s, t)
	}

	typ := t.GetType()
	if typ == bigIntType {
		return n, nil
	}
	v := reflect.New(typ).Elem()
	if t.T == abi.UintTy {
		v.SetUint(n.Uint64())
	} else {
		v.SetInt(n.Int64())
	}
	return v.Interface(), nil
}
