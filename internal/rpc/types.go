package rpc

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Request is a JSON-RPC 2.0 request. The node takes named params, so Params
// is a single object rather than a positional array.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      uint64 `json:"id"`
}

// Response is a JSON-RPC 2.0 response. Result stays raw until the typed
// method that issued the call knows what shape to expect.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the error member of a response.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Err converts an embedded RPC error into a *ProtocolAPIError, or returns nil.
func (r *Response) Err(method string) error {
	if r == nil || r.Error == nil {
		return nil
	}
	return &ProtocolAPIError{Method: method, Code: r.Error.Code, Message: r.Error.Message}
}

// Account is the result of query.EVMAccount.
type Account struct {
	Nonce   flexUint `json:"nonce"`
	Balance flexBig  `json:"balance"`
}

// Coin is an amount tagged with its currency; Value is an integer string in
// base units.
type Coin struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

// SendPayload is the params object of tx.CreateRawSend and query.EVMCall.
// To is empty for contract creation; Data is base64 of the call data bytes.
type SendPayload struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Amount   Coin   `json:"amount"`
	Gas      uint64 `json:"gas"`
	GasPrice Coin   `json:"gasPrice"`
	Data     string `json:"data"`
	Nonce    uint64 `json:"nonce"`
}

// EventAttribute is a base64 encoded key/value pair attached to an event.
type EventAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event groups attributes emitted by a transaction.
type Event struct {
	Type       string           `json:"type"`
	Attributes []EventAttribute `json:"attributes"`
}

// TxResult is the execution outcome embedded in a query.Tx response.
type TxResult struct {
	Code      flexUint `json:"code"`
	Log       string   `json:"log"`
	GasUsed   flexUint `json:"gasUsed"`
	GasWanted flexUint `json:"gasWanted"`
	Events    []Event  `json:"events"`
}

// TxLookup is the result of query.Tx once the transaction is mined.
type TxLookup struct {
	Result struct {
		Hash     string   `json:"hash"`
		Height   flexUint `json:"height"`
		TxResult TxResult `json:"tx_result"`
	} `json:"result"`
}

// flexUint accepts a JSON number or a decimal string. The node is not
// consistent about which one it sends for 64-bit fields.
type flexUint uint64

func (f *flexUint) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexUint(v)
	return nil
}
