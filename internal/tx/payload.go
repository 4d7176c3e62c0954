package tx

import (
	"encoding/base64"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/dmagro/oneswap-deployer/internal/keys"
	"github.com/dmagro/oneswap-deployer/internal/rpc"
	"github.com/dmagro/oneswap-deployer/internal/units"
)

const (
	Currency        = "OLT"
	DefaultGas      = 10_000_000
	defaultGasPrice = "1"
)

// Options are the per-call payload knobs. Zero values fall back to the
// executor defaults; a nil Nonce is fetched from the chain.
type Options struct {
	From     *common.Address
	Amount   decimal.Decimal
	Gas      uint64
	GasPrice decimal.Decimal
	Nonce    *uint64
}

// WithAmount returns a copy of o carrying amount OLT.
func (o Options) WithAmount(amount decimal.Decimal) Options {
	o.Amount = amount
	return o
}

// DefaultOptions is what the deployer sends when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Gas:      DefaultGas,
		GasPrice: decimal.RequireFromString(defaultGasPrice),
	}
}

// merge fills unset fields of o from defaults.
func (o Options) merge(defaults Options) Options {
	if o.From == nil {
		o.From = defaults.From
	}
	if o.Gas == 0 {
		o.Gas = defaults.Gas
	}
	if o.GasPrice.IsZero() {
		o.GasPrice = defaults.GasPrice
	}
	if o.Nonce == nil {
		o.Nonce = defaults.Nonce
	}
	return o
}

// BuildPayload normalizes o into the wire payload. Amount is scaled by
// 10^18 and GasPrice by 10^9; data travels base64 encoded. A nil to means
// contract creation. The nonce is left for the caller to fill.
func BuildPayload(from common.Address, to *common.Address, data []byte, o Options) (rpc.SendPayload, error) {
	amount, err := units.ToBaseUnits(o.Amount, units.OLTDecimals)
	if err != nil {
		return rpc.SendPayload{}, fmt.Errorf("amount: %w", err)
	}
	gasPrice, err := units.ToBaseUnits(o.GasPrice, units.GasPriceDecimals)
	if err != nil {
		return rpc.SendPayload{}, fmt.Errorf("gas price: %w", err)
	}
	if o.Gas == 0 {
		return rpc.SendPayload{}, fmt.Errorf("gas limit must be positive")
	}

	p := rpc.SendPayload{
		From:     keys.FormatAddress(from),
		Amount:   rpc.Coin{Currency: Currency, Value: amount.String()},
		Gas:      o.Gas,
		GasPrice: rpc.Coin{Currency: Currency, Value: gasPrice.String()},
		Data:     base64.StdEncoding.EncodeToString(data),
	}
	if to != nil {
		p.To = keys.FormatAddress(*to)
	}
	if o.Nonce != nil {
		p.Nonce = *o.Nonce
	}
	return p, nil
}
