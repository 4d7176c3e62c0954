package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	MethodEVMAccount    = "query.EVMAccount"
	MethodBalance       = "query.Balance"
	MethodTx            = "query.Tx"
	MethodEVMCall       = "query.EVMCall"
	MethodCreateRawSend = "tx.CreateRawSend"
	MethodBroadcastSync = "broadcast.TxSync"
)

// EVMAccount returns the nonce and balance of address at the latest block.
func (c *Client) EVMAccount(ctx context.Context, address string) (nonce uint64, balance *big.Int, err error) {
	var acc Account
	params := map[string]string{"address": address, "blockTag": "latest"}
	if err := c.callInto(ctx, MethodEVMAccount, params, &acc); err != nil {
		return 0, nil, err
	}
	return uint64(acc.Nonce), acc.Balance.Value(), nil
}

// Balance returns the OLT balance reported by query.Balance, e.g.
// "12.5 OLT" -> 12.5.
func (c *Client) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	var out struct {
		Balance string `json:"balance"`
	}
	if err := c.callInto(ctx, MethodBalance, map[string]string{"address": address}, &out); err != nil {
		return decimal.Zero, err
	}

	fields := strings.Fields(out.Balance)
	if len(fields) == 0 {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(fields[0])
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse balance %q: %w", out.Balance, err)
	}
	return v, nil
}

// CreateRawSend asks the node to serialize payload; the returned raw tx is
// base64 and is what gets signed.
func (c *Client) CreateRawSend(ctx context.Context, payload SendPayload) (string, error) {
	var out struct {
		RawTx string `json:"rawTx"`
	}
	if err := c.callInto(ctx, MethodCreateRawSend, payload, &out); err != nil {
		return "", err
	}
	if out.RawTx == "" {
		return "", &ProtocolAPIError{Method: MethodCreateRawSend, Message: "empty rawTx in response"}
	}
	return out.RawTx, nil
}

// BroadcastTxSync submits a signed envelope and returns the transaction hash.
// envelope is anything that marshals to {rawTx, signature, publicKey}.
func (c *Client) BroadcastTxSync(ctx context.Context, envelope any) (string, error) {
	var out struct {
		TxHash string `json:"txHash"`
	}
	if err := c.callInto(ctx, MethodBroadcastSync, envelope, &out); err != nil {
		return "", err
	}
	if out.TxHash == "" {
		return "", &ProtocolAPIError{Method: MethodBroadcastSync, Message: "empty txHash in response"}
	}
	return out.TxHash, nil
}

// Tx looks up a transaction by hash. While the transaction is not yet
// indexed the node answers with an error member, surfaced as *ProtocolAPIError.
func (c *Client) Tx(ctx context.Context, hash string) (*TxLookup, error) {
	var out TxLookup
	params := map[string]any{"hash": hash, "prove": true}
	if err := c.callInto(ctx, MethodTx, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EVMCall executes payload read-only and returns the raw return data.
func (c *Client) EVMCall(ctx context.Context, payload SendPayload) ([]byte, error) {
	var out struct {
		Result string `json:"result"`
	}
	if err := c.callInto(ctx, MethodEVMCall, payload, &out); err != nil {
		return nil, err
	}
	return DecodeHex(out.Result)
}

func (c *Client) callInto(ctx context.Context, method string, params, out any) error {
	resp, err := c.Call(ctx, method, params)
	if err != nil {
		return err
	}
	if err := resp.Err(method); err != nil {
		return err
	}
	if len(resp.Result) == 0 || string(resp.Result) == "null" {
		return &ProtocolAPIError{Method: method, Message: "empty result"}
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return &TransportError{Method: method, Err: fmt.Errorf("decode result: %w", err)}
	}
	return nil
}
