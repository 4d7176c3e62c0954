// Package uniswap drives the OneSwap (Uniswap V2) contracts: idempotent
// deployment, pair bookkeeping, approvals, liquidity and swaps.
//
// Every state-changing step first checks the chain or the state ledger and
// is skipped when its effect is already present, so a flow can be rerun
// after a partial failure.
package uniswap

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/dmagro/oneswap-deployer/internal/contracts"
	"github.com/dmagro/oneswap-deployer/internal/keys"
	"github.com/dmagro/oneswap-deployer/internal/state"
	"github.com/dmagro/oneswap-deployer/internal/tx"
	"github.com/dmagro/oneswap-deployer/internal/units"
)

// Artifact names, also used as state ledger keys.
const (
	WOLT    = "WOLT"
	Factory = "UniswapV2Factory"
	Router  = "UniswapV2Router"
	DAI     = "DAI"

	pairPrefix      = "UniswapV2Pair"
	defaultDeadline = 10 * time.Minute
)

// MaxUint256 is the "unlimited" approval amount.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// requiredMethods is checked against each artifact when it is loaded, so an
// incompatible build fails before anything is sent.
var requiredMethods = map[string][]string{
	WOLT: {
		"deposit()",
		"balanceOf(address)",
		"approve(address,uint256)",
		"allowance(address,address)",
	},
	Factory: {
		"getPair(address,address)",
	},
	Router: {
		"addLiquidity(address,address,uint256,uint256,uint256,uint256,address,uint256)",
		"addLiquidityETH(address,uint256,uint256,uint256,address,uint256)",
		"removeLiquidity(address,address,uint256,uint256,uint256,address,uint256)",
		"removeLiquidityETH(address,uint256,uint256,uint256,address,uint256)",
		"getAmountsOut(uint256,address[])",
		"getAmountsIn(uint256,address[])",
		"swapExactTokensForTokens(uint256,uint256,address[],address,uint256)",
		"swapTokensForExactTokens(uint256,uint256,address[],address,uint256)",
		"swapExactETHForTokens(uint256,address[],address,uint256)",
		"swapTokensForExactETH(uint256,uint256,address[],address,uint256)",
		"swapExactTokensForETH(uint256,uint256,address[],address,uint256)",
		"swapETHForExactTokens(uint256,address[],address,uint256)",
	},
	DAI: {
		"mint(address,uint256)",
		"totalSupply()",
	},
}

// Executor sends and reads contract calls on behalf of one key.
type Executor interface {
	Address() common.Address
	Balance(ctx context.Context, addr common.Address) (*big.Int, error)
	Deploy(ctx context.Context, c *contracts.Contract, opts tx.Options, args ...any) (*tx.Receipt, error)
	Execute(ctx context.Context, c *contracts.Contract, to common.Address, method string, opts tx.Options, args ...any) (*tx.Receipt, error)
	Query(ctx context.Context, c *contracts.Contract, to common.Address, method string, opts tx.Options, args ...any) (any, error)
}

// Artifacts resolves compiled contracts by name.
type Artifacts interface {
	Bind(name string, methods ...string) (*contracts.Contract, error)
}

// Ledger records deployed addresses.
type Ledger interface {
	Has(key string) bool
	Address(key string) (common.Address, error)
	Put(key string, r state.Record) error
	SmartDeploy(ctx context.Context, key string, deploy state.DeployFunc) (common.Address, bool, error)
}

type Config struct {
	// FeeTo is passed to the factory constructor. Zero means the deployer.
	FeeTo common.Address
	// Deadline is added to the current time for router calls.
	Deadline time.Duration
	// ChainID is passed to token constructors that take one.
	ChainID *big.Int
	Now     func() time.Time
}

type Manager struct {
	exec      Executor
	artifacts Artifacts
	ledger    Ledger
	logger    *slog.Logger

	feeTo    common.Address
	deadline time.Duration
	chainID  *big.Int
	now      func() time.Time
}

func NewManager(exec Executor, artifacts Artifacts, ledger Ledger, cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FeeTo == (common.Address{}) {
		cfg.FeeTo = exec.Address()
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = defaultDeadline
	}
	if cfg.ChainID == nil {
		cfg.ChainID = big.NewInt(1)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		exec:      exec,
		artifacts: artifacts,
		ledger:    ledger,
		logger:    logger,
		feeTo:     cfg.FeeTo,
		deadline:  cfg.Deadline,
		chainID:   cfg.ChainID,
		now:       cfg.Now,
	}
}

// Deployer is the address every transaction is signed by.
func (m *Manager) Deployer() common.Address { return m.exec.Address() }

// SmartDeploy deploys artifact name unless the ledger already has it. A
// recorded key costs no RPC calls at all.
func (m *Manager) SmartDeploy(ctx context.Context, name string, value *big.Int, args ...any) (common.Address, error) {
	return m.Deploy(ctx, name, name, value, args...)
}

// Deploy is SmartDeploy with a ledger key that differs from the artifact
// name.
func (m *Manager) Deploy(ctx context.Context, key, name string, value *big.Int, args ...any) (common.Address, error) {
	addr, deployed, err := m.ledger.SmartDeploy(ctx, key, func(ctx context.Context) (common.Address, string, error) {
		c, err := m.bind(name)
		if err != nil {
			return common.Address{}, "", err
		}

		m.logger.Debug("no previous deployment", "contract", name, "key", key)
		r, err := m.exec.Deploy(ctx, c, tx.Options{Amount: olt(value)}, args...)
		if err != nil {
			return common.Address{}, "", fmt.Errorf("deploy %s: %w", name, err)
		}
		if r.ContractAddress == nil {
			return common.Address{}, "", &StateInconsistencyError{Op: "deploy " + name, Reason: "receipt carries no contract address"}
		}
		return *r.ContractAddress, r.Hash, nil
	})
	if err != nil {
		return common.Address{}, err
	}

	if deployed {
		m.logger.Info("contract deployed", "contract", name, "address", keys.FormatAddress(addr))
	} else {
		m.logger.Info("using previous deployment", "contract", name, "address", keys.FormatAddress(addr))
	}
	return addr, nil
}

// CheckBalance fails unless the deployer holds strictly more than required
// base units of OLT.
func (m *Manager) CheckBalance(ctx context.Context, required *big.Int) error {
	have, err := m.exec.Balance(ctx, m.Deployer())
	if err != nil {
		return fmt.Errorf("get balance: %w", err)
	}
	if have.Cmp(required) <= 0 {
		return &InsufficientBalanceError{Have: have, Need: required}
	}
	return nil
}

func (m *Manager) bind(name string) (*contracts.Contract, error) {
	return m.artifacts.Bind(name, requiredMethods[name]...)
}

// deployed returns the bound artifact and its recorded address.
func (m *Manager) deployed(name string) (*contracts.Contract, common.Address, error) {
	addr, err := m.ledger.Address(name)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("%s is not deployed: %w", name, err)
	}
	c, err := m.bind(name)
	if err != nil {
		return nil, common.Address{}, err
	}
	return c, addr, nil
}

func (m *Manager) execute(ctx context.Context, c *contracts.Contract, to common.Address, method string, opts tx.Options, args ...any) (*tx.Receipt, error) {
	r, err := m.exec.Execute(ctx, c, to, method, opts, args...)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", c.Name, method, err)
	}
	if err := r.Check(); err != nil {
		return r, fmt.Errorf("%s.%s: %w", c.Name, method, err)
	}
	return r, nil
}

func (m *Manager) query(ctx context.Context, c *contracts.Contract, to common.Address, method string, args ...any) (any, error) {
	v, err := m.exec.Query(ctx, c, to, method, tx.Options{}, args...)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", c.Name, method, err)
	}
	return v, nil
}

func (m *Manager) queryBig(ctx context.Context, c *contracts.Contract, to common.Address, method string, args ...any) (*big.Int, error) {
	v, err := m.query(ctx, c, to, method, args...)
	if err != nil {
		return nil, err
	}
	n, ok := v.(*big.Int)
	if !ok {
		return nil, unexpected(c, method, v)
	}
	return n, nil
}

func (m *Manager) queryBigs(ctx context.Context, c *contracts.Contract, to common.Address, method string, args ...any) ([]*big.Int, error) {
	v, err := m.query(ctx, c, to, method, args...)
	if err != nil {
		return nil, err
	}
	switch vals := v.(type) {
	case []*big.Int:
		return vals, nil
	case []any:
		out := make([]*big.Int, len(vals))
		for i, x := range vals {
			n, ok := x.(*big.Int)
			if !ok {
				return nil, unexpected(c, method, v)
			}
			out[i] = n
		}
		return out, nil
	default:
		return nil, unexpected(c, method, v)
	}
}

func unexpected(c *contracts.Contract, method string, v any) error {
	return &contracts.AbiError{Contract: c.Name, Method: method, Err: fmt.Errorf("unexpected result type %T", v)}
}

func (m *Manager) deadlineAt(d time.Duration) *big.Int {
	if d <= 0 {
		d = m.deadline
	}
	return big.NewInt(m.now().Add(d).Unix())
}

func (m *Manager) recipient(to *common.Address) common.Address {
	if to != nil {
		return *to
	}
	return m.Deployer()
}

// olt converts base units to the decimal OLT amount carried in payloads.
func olt(value *big.Int) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return units.FromBaseUnits(value, units.OLTDecimals)
}

func orZero(n *big.Int) *big.Int {
	if n == nil {
		return new(big.Int)
	}
	return n
}
