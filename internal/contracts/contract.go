// Package contracts binds compiled contract artifacts (ABI + init bytecode)
// to typed call encoding and result decoding.
package contracts

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// AbiError reports an encode or decode mismatch between the arguments or
// return data and the declared ABI.
type AbiError struct {
	Contract string
	Method   string
	Err      error
}

func (e *AbiError) Error() string {
	m := e.Method
	if m == "" {
		m = "constructor"
	}
	return fmt.Sprintf("abi %s.%s: %v", e.Contract, m, e.Err)
}

func (e *AbiError) Unwrap() error { return e.Err }

// Contract is a parsed artifact. The method table comes from the ABI once at
// load time; lookups never re-parse JSON.
type Contract struct {
	Name     string
	ABI      abi.ABI
	Bytecode []byte
}

// New parses an ABI document and an optional hex bytecode string ("0x" prefix
// optional). A contract without bytecode can be called but not deployed.
func New(name string, abiJSON []byte, bytecodeHex string) (*Contract, error) {
	parsed, err := abi.JSON(bytes.NewReader(abiJSON))
	if err != nil {
		return nil, &AbiError{Contract: name, Err: fmt.Errorf("parse abi: %w", err)}
	}

	c := &Contract{Name: name, ABI: parsed}

	bytecodeHex = strings.TrimSpace(bytecodeHex)
	if bytecodeHex != "" {
		if !strings.HasPrefix(bytecodeHex, "0x") {
			bytecodeHex = "0x" + bytecodeHex
		}
		code, err := hexutil.Decode(bytecodeHex)
		if err != nil {
			return nil, &AbiError{Contract: name, Err: fmt.Errorf("parse bytecode: %w", err)}
		}
		c.Bytecode = code
	}
	return c, nil
}

// Method returns the ABI entry for name.
func (c *Contract) Method(name string) (abi.Method, error) {
	m, ok := c.ABI.Methods[name]
	if !ok {
		return abi.Method{}, &AbiError{Contract: c.Name, Method: name, Err: fmt.Errorf("method not found in abi")}
	}
	return m, nil
}

// EncodeCall packs selector + arguments for method. Argument Go types must
// match the ABI (*big.Int for uintN above 64 bits, common.Address, bool...).
func (c *Contract) EncodeCall(method string, args ...any) ([]byte, error) {
	if _, err := c.Method(method); err != nil {
		return nil, err
	}
	data, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, &AbiError{Contract: c.Name, Method: method, Err: err}
	}
	return data, nil
}

// EncodeDeploy appends packed constructor arguments to the init bytecode.
func (c *Contract) EncodeDeploy(args ...any) ([]byte, error) {
	if len(c.Bytecode) == 0 {
		return nil, &AbiError{Contract: c.Name, Err: fmt.Errorf("no bytecode loaded")}
	}
	packed, err := c.ABI.Pack("", args...)
	if err != nil {
		return nil, &AbiError{Contract: c.Name, Err: err}
	}

	out := make([]byte, 0, len(c.Bytecode)+len(packed))
	out = append(out, c.Bytecode...)
	return append(out, packed...), nil
}

// DecodeResult unpacks return data for method. A method with a single output
// yields that value; several outputs yield []any in declaration order.
// Integers of every width come back as *big.Int.
func (c *Contract) DecodeResult(method string, data []byte) (any, error) {
	m, err := c.Method(method)
	if err != nil {
		return nil, err
	}
	if len(m.Outputs) == 0 {
		return nil, nil
	}
	if len(data) == 0 {
		return nil, &AbiError{Contract: c.Name, Method: method, Err: fmt.Errorf("empty return data")}
	}

	values, err := m.Outputs.Unpack(data)
	if err != nil {
		return nil, &AbiError{Contract: c.Name, Method: method, Err: err}
	}
	if len(values) != len(m.Outputs) {
		return nil, &AbiError{Contract: c.Name, Method: method, Err: fmt.Errorf("expected %d outputs, got %d", len(m.Outputs), len(values))}
	}
	// Unpack ignores trailing bytes; the canonical encoding must match exactly.
	repacked, err := m.Outputs.Pack(values...)
	if err != nil {
		return nil, &AbiError{Contract: c.Name, Method: method, Err: err}
	}
	if !bytes.Equal(repacked, data) {
		return nil, &AbiError{Contract: c.Name, Method: method, Err: fmt.Errorf("return data is %d bytes, outputs encode to %d", len(data), len(repacked))}
	}

	for i := range values {
		values[i] = normalize(values[i])
	}
	if len(values) == 1 {
		return values[0], nil
	}
	return values, nil
}

// normalize widens fixed-size integers so callers only deal with *big.Int.
func normalize(v any) any {
	switch n := v.(type) {
	case uint8:
		return new(big.Int).SetUint64(uint64(n))
	case uint16:
		return new(big.Int).SetUint64(uint64(n))
	case uint32:
		return new(big.Int).SetUint64(uint64(n))
	case uint64:
		return new(big.Int).SetUint64(n)
	case int8:
		return big.NewInt(int64(n))
	case int16:
		return big.NewInt(int64(n))
	case int32:
		return big.NewInt(int64(n))
	case int64:
		return big.NewInt(n)
	default:
		return v
	}
}
