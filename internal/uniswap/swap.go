package uniswap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/dmagro/oneswap-deployer/internal/keys"
	"github.com/dmagro/oneswap-deployer/internal/tx"
)

type SwapKind int

const (
	// ExactIn fixes the amount sold.
	ExactIn SwapKind = iota
	// ExactOut fixes the amount bought.
	ExactOut
)

func (k SwapKind) String() string {
	if k == ExactOut {
		return "exact-out"
	}
	return "exact-in"
}

// feePerMille is the pool fee taken from the input amount.
const feePerMille = 3

// SwapRequest describes a swap. A zero From or To means native OLT.
type SwapRequest struct {
	From, To  common.Address
	Amount    *big.Int
	Kind      SwapKind
	Slippage  decimal.Decimal
	Recipient *common.Address
	Deadline  time.Duration
}

// SwapQuote is a priced swap ready to execute.
type SwapQuote struct {
	Request  SwapRequest
	Method   string
	Path     []common.Address
	AmountIn *big.Int
	// AmountOut is the router's expected output.
	AmountOut *big.Int
	// Limit is the minimum received for ExactIn, the maximum paid for
	// ExactOut.
	Limit *big.Int
	Fee   *big.Int
	// Price is output per input, in base units.
	Price decimal.Decimal
}

func native(a common.Address) bool { return a == (common.Address{}) }

// swapMethod picks the router entry point for the swap direction.
func swapMethod(fromNative, toNative bool, kind SwapKind) string {
	switch {
	case fromNative && kind == ExactIn:
		return "swapExactETHForTokens"
	case fromNative:
		return "swapETHForExactTokens"
	case toNative && kind == ExactIn:
		return "swapExactTokensForETH"
	case toNative:
		return "swapTokensForExactETH"
	case kind == ExactIn:
		return "swapExactTokensForTokens"
	default:
		return "swapTokensForExactTokens"
	}
}

// QuoteSwap prices req against the current pool and applies slippage.
func (m *Manager) QuoteSwap(ctx context.Context, req SwapRequest) (*SwapQuote, error) {
	if native(req.From) && native(req.To) {
		return nil, errors.New("cannot swap OLT for OLT")
	}
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return nil, errors.New("swap amount must be positive")
	}
	if err := ValidateSlippage(req.Slippage); err != nil {
		return nil, err
	}

	router, routerAddr, err := m.deployed(Router)
	if err != nil {
		return nil, err
	}
	path, err := m.swapPath(req.From, req.To)
	if err != nil {
		return nil, err
	}

	reserves, err := m.Reserves(ctx, path[0], path[1])
	if err != nil {
		return nil, err
	}
	if reserves[0].Sign() == 0 || reserves[1].Sign() == 0 {
		return nil, ErrNoLiquidity
	}

	q := &SwapQuote{
		Request: req,
		Method:  swapMethod(native(req.From), native(req.To), req.Kind),
		Path:    path,
	}

	if req.Kind == ExactIn {
		amounts, err := m.queryBigs(ctx, router, routerAddr, "getAmountsOut", req.Amount, path)
		if err != nil {
			return nil, err
		}
		if len(amounts) != len(path) {
			return nil, unexpected(router, "getAmountsOut", amounts)
		}
		q.AmountIn, q.AmountOut = req.Amount, amounts[len(amounts)-1]
		if q.Limit, err = MinReceived(q.AmountOut, req.Slippage); err != nil {
			return nil, err
		}
		if q.Limit.Sign() == 0 {
			return nil, ErrSlippageTooHigh
		}
	} else {
		amounts, err := m.queryBigs(ctx, router, routerAddr, "getAmountsIn", req.Amount, path)
		if err != nil {
			return nil, err
		}
		if len(amounts) != len(path) {
			return nil, unexpected(router, "getAmountsIn", amounts)
		}
		q.AmountIn, q.AmountOut = amounts[0], req.Amount
		if q.Limit, err = MaxPaid(q.AmountIn, req.Slippage); err != nil {
			return nil, err
		}
	}

	q.Fee = new(big.Int).Mul(q.AmountIn, big.NewInt(feePerMille))
	q.Fee.Quo(q.Fee, big.NewInt(1000))
	if q.AmountIn.Sign() > 0 {
		q.Price = decimal.NewFromBigInt(q.AmountOut, 0).DivRound(decimal.NewFromBigInt(q.AmountIn, 0), priceDigits)
	}
	return q, nil
}

func (m *Manager) swapPath(from, to common.Address) ([]common.Address, error) {
	if native(from) || native(to) {
		wolt, err := m.ledger.Address(WOLT)
		if err != nil {
			return nil, fmt.Errorf("%s is not deployed: %w", WOLT, err)
		}
		if native(from) {
			from = wolt
		} else {
			to = wolt
		}
	}
	if _, _, err := SortTokens(from, to); err != nil {
		return nil, err
	}
	return []common.Address{from, to}, nil
}

// args builds the router arguments for q in entry point order.
func (q *SwapQuote) args(to common.Address, deadline *big.Int) ([]any, *big.Int) {
	switch q.Method {
	case "swapExactETHForTokens":
		return []any{q.Limit, q.Path, to, deadline}, q.AmountIn
	case "swapETHForExactTokens":
		return []any{q.AmountOut, q.Path, to, deadline}, q.Limit
	case "swapExactTokensForETH", "swapExactTokensForTokens":
		return []any{q.AmountIn, q.Limit, q.Path, to, deadline}, nil
	default:
		return []any{q.AmountOut, q.Limit, q.Path, to, deadline}, nil
	}
}

// SwapResult holds the simulated router amounts and the receipt.
type SwapResult struct {
	Quote     *SwapQuote
	Simulated []*big.Int
	Receipt   *tx.Receipt
}

// ExecuteSwap approves the input token if needed, simulates the swap and
// sends it.
func (m *Manager) ExecuteSwap(ctx context.Context, q *SwapQuote) (*SwapResult, error) {
	router, routerAddr, err := m.deployed(Router)
	if err != nil {
		return nil, err
	}

	if !native(q.Request.From) {
		spend := q.AmountIn
		if q.Request.Kind == ExactOut {
			spend = q.Limit
		}
		if err := m.EnsureAllowance(ctx, q.Path[0], routerAddr, spend); err != nil {
			return nil, err
		}
	}

	args, value := q.args(m.recipient(q.Request.Recipient), m.deadlineAt(q.Request.Deadline))
	opts := tx.Options{Amount: olt(value)}

	simulated, err := m.exec.Query(ctx, router, routerAddr, q.Method, opts, args...)
	if err != nil {
		return nil, fmt.Errorf("simulate %s: %w", q.Method, err)
	}
	amounts, _ := simulated.([]*big.Int)

	m.logger.Info("swapping",
		"method", q.Method, "from", keys.FormatAddress(q.Path[0]), "to", keys.FormatAddress(q.Path[1]),
		"amount_in", q.AmountIn.String(), "amount_out", q.AmountOut.String(), "limit", q.Limit.String())
	r, err := m.execute(ctx, router, routerAddr, q.Method, opts, args...)
	if err != nil {
		return nil, err
	}
	return &SwapResult{Quote: q, Simulated: amounts, Receipt: r}, nil
}
