package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dmagro/oneswap-deployer/internal/units"
)

// tokenAmount parses a human amount of token into base units using the
// token's own decimals. The zero address is native OLT.
func (a *app) tokenAmount(ctx context.Context, token common.Address, s string) (*big.Int, error) {
	d, err := units.ParseAmount(s)
	if err != nil {
		return nil, err
	}
	decimals, err := a.decimals(ctx, token)
	if err != nil {
		return nil, err
	}
	return units.ToBaseUnits(d, int32(decimals))
}

// optionalAmount is tokenAmount for flags where empty means unset.
func (a *app) optionalAmount(ctx context.Context, token common.Address, s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	return a.tokenAmount(ctx, token, s)
}

func (a *app) decimals(ctx context.Context, token common.Address) (int, error) {
	if token == (common.Address{}) {
		return units.OLTDecimals, nil
	}
	return a.manager.Decimals(ctx, token)
}

func (a *app) symbol(ctx context.Context, token common.Address) (string, error) {
	if token == (common.Address{}) {
		return "OLT", nil
	}
	return a.manager.Symbol(ctx, token)
}

func oltAmount(s string) (*big.Int, error) {
	d, err := units.ParseAmount(s)
	if err != nil {
		return nil, fmt.Errorf("OLT amount: %w", err)
	}
	return units.ToBaseUnits(d, units.OLTDecimals)
}
