package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/oneswap-deployer/internal/state"
	"github.com/dmagro/oneswap-deployer/internal/tx"
	"github.com/dmagro/oneswap-deployer/internal/uniswap"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTerminal, false},
		{"terminal", FormatTerminal, false},
		{"json", FormatJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestStateEntries(t *testing.T) {
	entries := []state.Entry{
		{Key: "DAI", Record: state.Record{Address: "4444444444444444444444444444444444444444", TxHash: "D"}},
		{Key: "WOLT", Record: state.Record{Address: "1111111111111111111111111111111111111111", TxHash: "W"}},
	}

	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatTerminal).StateEntries(entries))
	assert.Contains(t, buf.String(), "0lt4444444444444444444444444444444444444444")
	assert.Contains(t, buf.String(), "WOLT")

	buf.Reset()
	require.NoError(t, New(&buf, FormatJSON).StateEntries(entries))
	var decoded map[string]state.Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, entries[1].Record, decoded["WOLT"])
}

func TestSwapQuoteJSON(t *testing.T) {
	q := &uniswap.SwapQuote{
		Request:   uniswap.SwapRequest{Kind: uniswap.ExactIn, Slippage: decimal.RequireFromString("0.5")},
		Method:    "swapExactETHForTokens",
		Path:      []common.Address{common.HexToAddress("0x01"), common.HexToAddress("0x02")},
		AmountIn:  big.NewInt(1000),
		AmountOut: big.NewInt(498),
		Limit:     big.NewInt(495),
		Fee:       big.NewInt(3),
		Price:     decimal.RequireFromString("0.498"),
	}

	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatJSON).SwapQuote(QuoteView{Quote: q, FromSymbol: "OLT", ToSymbol: "DAI"}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "swapExactETHForTokens", decoded["method"])
	assert.Equal(t, "exact-in", decoded["kind"])
	assert.Equal(t, "495", decoded["limit"])
	assert.Equal(t, "0lt0000000000000000000000000000000000000001", decoded["path"].([]any)[0])

	buf.Reset()
	require.NoError(t, New(&buf, FormatTerminal).SwapQuote(QuoteView{Quote: q, FromSymbol: "OLT", ToSymbol: "DAI"}))
	assert.Contains(t, buf.String(), "Minimum received")
	assert.Contains(t, buf.String(), "0.3%")
}

func TestReceipt(t *testing.T) {
	contract := common.HexToAddress("0xabc")
	r := &tx.Receipt{Hash: "CAFE", Status: true, ContractAddress: &contract, GasUsed: 21000, GasWanted: 10000000}

	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatTerminal).Receipt(r))
	assert.Contains(t, buf.String(), "CAFE")
	assert.Contains(t, buf.String(), "21000 / 10000000")

	buf.Reset()
	require.NoError(t, New(&buf, FormatJSON).Receipt(r))
	assert.Contains(t, buf.String(), `"contract_address": "0lt0000000000000000000000000000000000000abc"`)
}

func TestSuccessAndError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatJSON).Success("approved %s", "DAI"))
	assert.JSONEq(t, `{"message": "approved DAI"}`, buf.String())

	buf.Reset()
	New(&buf, FormatJSON).Warn("ignored")
	assert.Empty(t, buf.String())

	buf.Reset()
	Error(&buf, errors.New("boom"))
	assert.Contains(t, buf.String(), "boom")
}
