package uniswap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/oneswap-deployer/internal/contracts"
	"github.com/dmagro/oneswap-deployer/internal/state"
	"github.com/dmagro/oneswap-deployer/internal/tx"
	"github.com/dmagro/oneswap-deployer/internal/units"
)

var (
	discard  = slog.New(slog.NewTextHandler(io.Discard, nil))
	fixedNow = time.Unix(1_700_000_000, 0)
)

func oltUnits(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

type call struct {
	kind     string
	contract string
	to       common.Address
	method   string
	args     []any
	value    decimal.Decimal
}

// fakeChain is an in-memory stand-in for the node plus the deployed
// contracts. Calls are ABI-encoded against the real artifacts before they
// are interpreted, so argument types are checked.
type fakeChain struct {
	mu sync.Mutex

	me     common.Address
	native *big.Int
	next   int64

	names      map[common.Address]string
	byName     map[string]common.Address
	balances   map[common.Address]map[common.Address]*big.Int
	allowances map[common.Address]map[[2]common.Address]*big.Int
	supply     map[common.Address]*big.Int
	pairs      map[[2]common.Address]common.Address
	reserves   map[common.Address][2]*big.Int

	calls []call
	// failOn maps "kind:method" to the error returned for it.
	failOn map[string]error
	// ignore lists executes that confirm without changing anything.
	ignore map[string]bool
}

func newFakeChain(nativeOLT int64) *fakeChain {
	return &fakeChain{
		me:         common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		native:     oltUnits(nativeOLT),
		names:      make(map[common.Address]string),
		byName:     make(map[string]common.Address),
		balances:   make(map[common.Address]map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[[2]common.Address]*big.Int),
		supply:     make(map[common.Address]*big.Int),
		pairs:      make(map[[2]common.Address]common.Address),
		reserves:   make(map[common.Address][2]*big.Int),
		failOn:     make(map[string]error),
		ignore:     make(map[string]bool),
	}
}

func (f *fakeChain) Address() common.Address { return f.me }

func (f *fakeChain) Balance(_ context.Context, _ common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return new(big.Int).Set(f.native), nil
}

func (f *fakeChain) Deploy(_ context.Context, c *contracts.Contract, opts tx.Options, args ...any) (*tx.Receipt, error) {
	if _, err := c.EncodeDeploy(args...); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{kind: "deploy", contract: c.Name, args: args, value: opts.Amount})
	if err := f.failOn["deploy:"+c.Name]; err != nil {
		return nil, err
	}

	addr := f.newAddress()
	f.names[addr] = c.Name
	f.byName[c.Name] = addr
	return &tx.Receipt{Hash: fmt.Sprintf("DEPLOY%d", len(f.calls)), ContractAddress: &addr, Status: true}, nil
}

func (f *fakeChain) Execute(_ context.Context, c *contracts.Contract, to common.Address, method string, opts tx.Options, args ...any) (*tx.Receipt, error) {
	if _, err := c.EncodeCall(method, args...); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{kind: "execute", contract: c.Name, to: to, method: method, args: args, value: opts.Amount})
	if err := f.failOn["execute:"+method]; err != nil {
		return nil, err
	}
	receipt := &tx.Receipt{Hash: fmt.Sprintf("TX%d", len(f.calls)), Status: true}
	if f.ignore[method] {
		return receipt, nil
	}

	value, _ := units.ToBaseUnits(opts.Amount, units.OLTDecimals)
	f.native.Sub(f.native, value)

	switch method {
	case "approve":
		f.setAllowance(to, f.me, args[0].(common.Address), args[1].(*big.Int))
	case "deposit":
		f.credit(to, f.me, value)
	case "mint":
		f.credit(to, args[0].(common.Address), args[1].(*big.Int))
		f.supply[to] = new(big.Int).Add(f.supplyOf(to), args[1].(*big.Int))
	case "addLiquidityETH":
		f.addReserves(args[0].(common.Address), args[1].(*big.Int), f.byName[WOLT], value)
	case "addLiquidity":
		f.addReserves(args[0].(common.Address), args[2].(*big.Int), args[1].(common.Address), args[3].(*big.Int))
	}
	return receipt, nil
}

func (f *fakeChain) Query(_ context.Context, c *contracts.Contract, to common.Address, method string, opts tx.Options, args ...any) (any, error) {
	if _, err := c.EncodeCall(method, args...); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{kind: "query", contract: c.Name, to: to, method: method, args: args, value: opts.Amount})
	if err := f.failOn["query:"+method]; err != nil {
		return nil, err
	}

	switch method {
	case "getPair":
		return f.pairs[sortedKey(args[0].(common.Address), args[1].(common.Address))], nil
	case "getReserves":
		r := f.reservesOf(to)
		return []any{new(big.Int).Set(r[0]), new(big.Int).Set(r[1]), big.NewInt(0)}, nil
	case "allowance":
		if v, ok := f.allowances[to][[2]common.Address{args[0].(common.Address), args[1].(common.Address)}]; ok {
			return new(big.Int).Set(v), nil
		}
		return new(big.Int), nil
	case "balanceOf":
		if v, ok := f.balances[to][args[0].(common.Address)]; ok {
			return new(big.Int).Set(v), nil
		}
		return new(big.Int), nil
	case "totalSupply":
		return new(big.Int).Set(f.supplyOf(to)), nil
	case "symbol":
		if name, ok := f.names[to]; ok {
			return name, nil
		}
		return "UNI-V2", nil
	case "decimals":
		return big.NewInt(18), nil
	case "getAmountsOut":
		amountIn, path := args[0].(*big.Int), args[1].([]common.Address)
		rIn, rOut := f.directional(path[0], path[1])
		inWithFee := new(big.Int).Mul(amountIn, big.NewInt(997))
		num := new(big.Int).Mul(inWithFee, rOut)
		den := new(big.Int).Add(new(big.Int).Mul(rIn, big.NewInt(1000)), inWithFee)
		return []*big.Int{amountIn, num.Quo(num, den)}, nil
	case "getAmountsIn":
		amountOut, path := args[0].(*big.Int), args[1].([]common.Address)
		rIn, rOut := f.directional(path[0], path[1])
		num := new(big.Int).Mul(new(big.Int).Mul(rIn, amountOut), big.NewInt(1000))
		den := new(big.Int).Mul(new(big.Int).Sub(rOut, amountOut), big.NewInt(997))
		in := num.Quo(num, den)
		return []*big.Int{in.Add(in, big.NewInt(1)), amountOut}, nil
	case "removeLiquidity", "removeLiquidityETH":
		return []any{big.NewInt(1), big.NewInt(1)}, nil
	case "swapExactTokensForTokens", "swapTokensForExactTokens", "swapExactETHForTokens",
		"swapTokensForExactETH", "swapExactTokensForETH", "swapETHForExactTokens":
		return []*big.Int{big.NewInt(1), big.NewInt(1)}, nil
	}
	return nil, nil
}

func (f *fakeChain) newAddress() common.Address {
	f.next++
	return common.BigToAddress(big.NewInt(0x1000 + f.next))
}

func (f *fakeChain) credit(token, owner common.Address, amount *big.Int) {
	if f.balances[token] == nil {
		f.balances[token] = make(map[common.Address]*big.Int)
	}
	cur, ok := f.balances[token][owner]
	if !ok {
		cur = new(big.Int)
	}
	f.balances[token][owner] = new(big.Int).Add(cur, amount)
}

func (f *fakeChain) setAllowance(token, owner, spender common.Address, v *big.Int) {
	if f.allowances[token] == nil {
		f.allowances[token] = make(map[[2]common.Address]*big.Int)
	}
	f.allowances[token][[2]common.Address{owner, spender}] = new(big.Int).Set(v)
}

func (f *fakeChain) supplyOf(token common.Address) *big.Int {
	if s, ok := f.supply[token]; ok {
		return s
	}
	return new(big.Int)
}

func (f *fakeChain) reservesOf(pair common.Address) [2]*big.Int {
	if r, ok := f.reserves[pair]; ok {
		return r
	}
	return [2]*big.Int{new(big.Int), new(big.Int)}
}

func (f *fakeChain) addReserves(a common.Address, amountA *big.Int, b common.Address, amountB *big.Int) {
	key := sortedKey(a, b)
	pair, ok := f.pairs[key]
	if !ok {
		pair = f.newAddress()
		f.pairs[key] = pair
	}
	r := f.reservesOf(pair)
	if key[0] != a {
		amountA, amountB = amountB, amountA
	}
	f.reserves[pair] = [2]*big.Int{new(big.Int).Add(r[0], amountA), new(big.Int).Add(r[1], amountB)}
	f.supply[pair] = new(big.Int).Add(f.supplyOf(pair), big.NewInt(1000))
	f.credit(pair, f.me, big.NewInt(1000))
}

// directional returns (reserveIn, reserveOut) for a swap from in to out.
func (f *fakeChain) directional(in, out common.Address) (*big.Int, *big.Int) {
	key := sortedKey(in, out)
	r := f.reservesOf(f.pairs[key])
	if key[0] == in {
		return r[0], r[1]
	}
	return r[1], r[0]
}

func sortedKey(a, b common.Address) [2]common.Address {
	t0, t1, _ := SortTokens(a, b)
	return [2]common.Address{t0, t1}
}

// count returns the number of recorded calls of kind.
func (f *fakeChain) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.kind == kind {
			n++
		}
	}
	return n
}

// writes is the number of state-changing calls.
func (f *fakeChain) writes() int { return f.count("deploy") + f.count("execute") }

func (f *fakeChain) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeChain) last(kind string) call {
	calls := f.recorded()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].kind == kind {
			return calls[i]
		}
	}
	return call{}
}

func openLedger(t *testing.T) *state.Store {
	t.Helper()
	s, err := state.Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestManager(t *testing.T, nativeOLT int64) (*Manager, *fakeChain, *state.Store) {
	t.Helper()
	chain := newFakeChain(nativeOLT)
	ledger := openLedger(t)
	m := NewManager(chain, contracts.NewRegistry(filepath.Join("testdata", "contracts")), ledger,
		Config{Now: func() time.Time { return fixedNow }}, discard)
	return m, chain, ledger
}

// bootstrapped returns a manager with a funded DAI/WOLT pool of 10 OLT and
// 5 DAI.
func bootstrapped(t *testing.T) (*Manager, *fakeChain, *state.Store, *BootstrapResult) {
	t.Helper()
	m, chain, ledger := newTestManager(t, 100)
	res, err := m.Bootstrap(context.Background(), BootstrapParams{
		InitialOLT: oltUnits(10),
		TokenRate:  decimal.RequireFromString("0.5"),
		DAIMint:    oltUnits(1_000),
	})
	require.NoError(t, err)
	return m, chain, ledger, res
}
