package uniswap

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/dmagro/oneswap-deployer/internal/contracts"
	"github.com/dmagro/oneswap-deployer/internal/units"
)

const priceDigits = 18

// PairAddress asks the factory for the pair of a and b. ok is false when the
// pair has not been created.
func (m *Manager) PairAddress(ctx context.Context, a, b common.Address) (pair common.Address, ok bool, err error) {
	if _, _, err := SortTokens(a, b); err != nil {
		return common.Address{}, false, err
	}

	c, factory, err := m.deployed(Factory)
	if err != nil {
		return common.Address{}, false, err
	}
	v, err := m.query(ctx, c, factory, "getPair", a, b)
	if err != nil {
		return common.Address{}, false, err
	}
	pair, isAddr := v.(common.Address)
	if !isAddr {
		return common.Address{}, false, unexpected(c, "getPair", v)
	}
	return pair, pair != (common.Address{}), nil
}

// Reserves returns the pair reserves in sorted token order. A missing pair
// has reserves [0, 0].
func (m *Manager) Reserves(ctx context.Context, a, b common.Address) ([2]*big.Int, error) {
	zero := [2]*big.Int{new(big.Int), new(big.Int)}

	pair, ok, err := m.PairAddress(ctx, a, b)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, nil
	}
	return m.pairReserves(ctx, pair)
}

func (m *Manager) pairReserves(ctx context.Context, pair common.Address) ([2]*big.Int, error) {
	c := contracts.Pair()
	v, err := m.query(ctx, c, pair, "getReserves")
	if err != nil {
		return [2]*big.Int{}, err
	}
	vals, ok := v.([]any)
	if !ok || len(vals) < 2 {
		return [2]*big.Int{}, unexpected(c, "getReserves", v)
	}
	r0, ok0 := vals[0].(*big.Int)
	r1, ok1 := vals[1].(*big.Int)
	if !ok0 || !ok1 {
		return [2]*big.Int{}, unexpected(c, "getReserves", v)
	}
	return [2]*big.Int{r0, r1}, nil
}

func reservesEmpty(r [2]*big.Int) bool {
	return r[0].Sign() == 0 && r[1].Sign() == 0
}

// PairInfo is a snapshot of one liquidity pool.
type PairInfo struct {
	Pair     common.Address
	Exists   bool
	Token0   TokenInfo
	Token1   TokenInfo
	Reserves [2]*big.Int
	// Price0 is token1 per token0, Price1 its inverse. Both are zero for an
	// empty pool.
	Price0 decimal.Decimal
	Price1 decimal.Decimal
	// K is reserve0 * reserve1.
	K *big.Int
}

// PairInfo reads reserves, prices and the product constant of the pool for
// a and b.
func (m *Manager) PairInfo(ctx context.Context, a, b common.Address) (*PairInfo, error) {
	t0, t1, err := SortTokens(a, b)
	if err != nil {
		return nil, err
	}

	info := &PairInfo{Price0: decimal.Zero, Price1: decimal.Zero}
	info.Pair, info.Exists, err = m.PairAddress(ctx, t0, t1)
	if err != nil {
		return nil, err
	}

	tok0, err := m.TokenInfo(ctx, t0, m.Deployer())
	if err != nil {
		return nil, err
	}
	tok1, err := m.TokenInfo(ctx, t1, m.Deployer())
	if err != nil {
		return nil, err
	}
	info.Token0, info.Token1 = *tok0, *tok1

	info.Reserves = [2]*big.Int{new(big.Int), new(big.Int)}
	if info.Exists {
		if info.Reserves, err = m.pairReserves(ctx, info.Pair); err != nil {
			return nil, err
		}
	}
	info.K = new(big.Int).Mul(info.Reserves[0], info.Reserves[1])

	r0 := units.FromBaseUnits(info.Reserves[0], int32(tok0.Decimals))
	r1 := units.FromBaseUnits(info.Reserves[1], int32(tok1.Decimals))
	if !r0.IsZero() && !r1.IsZero() {
		info.Price0 = r1.DivRound(r0, priceDigits)
		info.Price1 = r0.DivRound(r1, priceDigits)
	}
	return info, nil
}
