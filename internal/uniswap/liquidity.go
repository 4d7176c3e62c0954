package uniswap

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dmagro/oneswap-deployer/internal/keys"
	"github.com/dmagro/oneswap-deployer/internal/state"
	"github.com/dmagro/oneswap-deployer/internal/tx"
)

// AddLiquidityOLTParams adds Token plus native OLT to the Token/WOLT pool.
type AddLiquidityOLTParams struct {
	Token       common.Address
	AmountToken *big.Int
	AmountOLT   *big.Int
	MinToken    *big.Int
	MinOLT      *big.Int
	To          *common.Address
	Deadline    time.Duration
	// Force adds liquidity even when the pool is already funded.
	Force bool
}

type AddLiquidityParams struct {
	TokenA, TokenB   common.Address
	AmountA, AmountB *big.Int
	MinA, MinB       *big.Int
	To               *common.Address
	Deadline         time.Duration
	Force            bool
}

type RemoveLiquidityOLTParams struct {
	Token     common.Address
	Liquidity *big.Int
	MinToken  *big.Int
	MinOLT    *big.Int
	To        *common.Address
	Deadline  time.Duration
}

type RemoveLiquidityParams struct {
	TokenA, TokenB common.Address
	Liquidity      *big.Int
	MinA, MinB     *big.Int
	To             *common.Address
	Deadline       time.Duration
}

// LiquidityResult reports the pool after an add or remove.
type LiquidityResult struct {
	Pair     common.Address
	Reserves [2]*big.Int
	Receipt  *tx.Receipt
	// Skipped is set when the pool was already funded and nothing was sent.
	Skipped bool
	// Simulated holds the router's return values from the dry run.
	Simulated any
}

// AddLiquidityOLT funds the Token/WOLT pool. It is a no-op when the pool
// already has reserves unless Force is set.
func (m *Manager) AddLiquidityOLT(ctx context.Context, p AddLiquidityOLTParams) (*LiquidityResult, error) {
	_, wolt, err := m.deployed(WOLT)
	if err != nil {
		return nil, err
	}
	router, routerAddr, err := m.deployed(Router)
	if err != nil {
		return nil, err
	}

	return m.addLiquidity(ctx, p.Token, wolt, p.Force, func(ctx context.Context) (*tx.Receipt, error) {
		m.logger.Info("adding liquidity",
			"token", keys.FormatAddress(p.Token), "amount_token", p.AmountToken.String(), "amount_olt", p.AmountOLT.String())
		return m.execute(ctx, router, routerAddr, "addLiquidityETH",
			tx.Options{Amount: olt(p.AmountOLT)},
			p.Token, p.AmountToken, orZero(p.MinToken), orZero(p.MinOLT), m.recipient(p.To), m.deadlineAt(p.Deadline))
	})
}

// AddLiquidity funds the TokenA/TokenB pool. Both tokens must already be
// approved for the router.
func (m *Manager) AddLiquidity(ctx context.Context, p AddLiquidityParams) (*LiquidityResult, error) {
	router, routerAddr, err := m.deployed(Router)
	if err != nil {
		return nil, err
	}

	return m.addLiquidity(ctx, p.TokenA, p.TokenB, p.Force, func(ctx context.Context) (*tx.Receipt, error) {
		m.logger.Info("adding liquidity",
			"token_a", keys.FormatAddress(p.TokenA), "token_b", keys.FormatAddress(p.TokenB),
			"amount_a", p.AmountA.String(), "amount_b", p.AmountB.String())
		return m.execute(ctx, router, routerAddr, "addLiquidity", tx.Options{},
			p.TokenA, p.TokenB, p.AmountA, p.AmountB, orZero(p.MinA), orZero(p.MinB), m.recipient(p.To), m.deadlineAt(p.Deadline))
	})
}

func (m *Manager) addLiquidity(ctx context.Context, a, b common.Address, force bool, send func(context.Context) (*tx.Receipt, error)) (*LiquidityResult, error) {
	reserves, err := m.Reserves(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if !force && !reservesEmpty(reserves) {
		m.logger.Info("liquidity already provided", "reserve0", reserves[0].String(), "reserve1", reserves[1].String())
		pair, _, err := m.PairAddress(ctx, a, b)
		if err != nil {
			return nil, err
		}
		return &LiquidityResult{Pair: pair, Reserves: reserves, Skipped: true}, nil
	}

	r, err := send(ctx)
	if err != nil {
		return nil, err
	}

	pair, ok, err := m.PairAddress(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &StateInconsistencyError{Op: "add liquidity", Reason: "pair not found after transaction " + r.Hash}
	}
	if err := m.recordPair(a, b, pair, r.Hash); err != nil {
		return nil, err
	}

	reserves, err = m.pairReserves(ctx, pair)
	if err != nil {
		return nil, err
	}
	if reserves[0].Sign() == 0 || reserves[1].Sign() == 0 {
		return nil, &StateInconsistencyError{Op: "add liquidity", Reason: "pair reserves still empty after transaction " + r.Hash}
	}
	return &LiquidityResult{Pair: pair, Reserves: reserves, Receipt: r}, nil
}

func (m *Manager) recordPair(a, b, pair common.Address, hash string) error {
	key, err := PairKey(a, b)
	if err != nil {
		return err
	}
	if m.ledger.Has(key) {
		return nil
	}
	return m.ledger.Put(key, state.Record{Address: keys.BareAddress(pair), TxHash: hash})
}

// RemoveLiquidityOLT burns liquidity from the Token/WOLT pool, paying the
// OLT side out as native OLT. The call is simulated before it is sent.
func (m *Manager) RemoveLiquidityOLT(ctx context.Context, p RemoveLiquidityOLTParams) (*LiquidityResult, error) {
	_, wolt, err := m.deployed(WOLT)
	if err != nil {
		return nil, err
	}
	args := []any{p.Token, p.Liquidity, orZero(p.MinToken), orZero(p.MinOLT), m.recipient(p.To), m.deadlineAt(p.Deadline)}
	return m.removeLiquidity(ctx, p.Token, wolt, p.Liquidity, "removeLiquidityETH", args)
}

func (m *Manager) RemoveLiquidity(ctx context.Context, p RemoveLiquidityParams) (*LiquidityResult, error) {
	args := []any{p.TokenA, p.TokenB, p.Liquidity, orZero(p.MinA), orZero(p.MinB), m.recipient(p.To), m.deadlineAt(p.Deadline)}
	return m.removeLiquidity(ctx, p.TokenA, p.TokenB, p.Liquidity, "removeLiquidity", args)
}

func (m *Manager) removeLiquidity(ctx context.Context, a, b common.Address, liquidity *big.Int, method string, args []any) (*LiquidityResult, error) {
	if liquidity == nil || liquidity.Sign() <= 0 {
		return nil, fmt.Errorf("liquidity must be positive")
	}
	router, routerAddr, err := m.deployed(Router)
	if err != nil {
		return nil, err
	}
	pair, ok, err := m.PairAddress(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoLiquidity
	}

	// The router pulls LP tokens from the deployer.
	if err := m.EnsureAllowance(ctx, pair, routerAddr, liquidity); err != nil {
		return nil, err
	}

	simulated, err := m.query(ctx, router, routerAddr, method, args...)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	m.logger.Info("removing liquidity", "pair", keys.FormatAddress(pair), "liquidity", liquidity.String())

	r, err := m.execute(ctx, router, routerAddr, method, tx.Options{}, args...)
	if err != nil {
		return nil, err
	}
	reserves, err := m.pairReserves(ctx, pair)
	if err != nil {
		return nil, err
	}
	return &LiquidityResult{Pair: pair, Reserves: reserves, Receipt: r, Simulated: simulated}, nil
}

// QuoteOLTForToken returns the OLT amount matching amountToken at the
// current Token/WOLT pool ratio.
func (m *Manager) QuoteOLTForToken(ctx context.Context, token common.Address, amountToken *big.Int) (*big.Int, error) {
	_, wolt, err := m.deployed(WOLT)
	if err != nil {
		return nil, err
	}
	reserves, err := m.Reserves(ctx, wolt, token)
	if err != nil {
		return nil, err
	}
	if reserves[0].Sign() == 0 || reserves[1].Sign() == 0 {
		return nil, ErrNoLiquidity
	}

	rOLT, rToken := reserves[0], reserves[1]
	if t0, _, _ := SortTokens(wolt, token); t0 != wolt {
		rOLT, rToken = rToken, rOLT
	}
	out := new(big.Int).Mul(amountToken, rOLT)
	return out.Quo(out, rToken), nil
}
