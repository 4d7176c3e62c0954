package uniswap

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dmagro/oneswap-deployer/internal/contracts"
	"github.com/dmagro/oneswap-deployer/internal/gather"
	"github.com/dmagro/oneswap-deployer/internal/keys"
	"github.com/dmagro/oneswap-deployer/internal/tx"
)

// SortTokens orders a pair the way the factory does: by raw address bytes.
func SortTokens(a, b common.Address) (common.Address, common.Address, error) {
	switch bytes.Compare(a.Bytes(), b.Bytes()) {
	case 0:
		return common.Address{}, common.Address{}, ErrIdenticalAddresses
	case 1:
		return b, a, nil
	default:
		return a, b, nil
	}
}

// PairKey is the ledger key of the pair for a and b, independent of order.
func PairKey(a, b common.Address) (string, error) {
	t0, t1, err := SortTokens(a, b)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s_%s", pairPrefix, keys.BareAddress(t0), keys.BareAddress(t1)), nil
}

func (m *Manager) Symbol(ctx context.Context, token common.Address) (string, error) {
	erc20 := contracts.ERC20()
	v, err := m.query(ctx, erc20, token, "symbol")
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", unexpected(erc20, "symbol", v)
	}
	return s, nil
}

func (m *Manager) Decimals(ctx context.Context, token common.Address) (int, error) {
	n, err := m.queryBig(ctx, contracts.ERC20(), token, "decimals")
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}

func (m *Manager) TotalSupply(ctx context.Context, token common.Address) (*big.Int, error) {
	return m.queryBig(ctx, contracts.ERC20(), token, "totalSupply")
}

func (m *Manager) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	return m.queryBig(ctx, contracts.ERC20(), token, "balanceOf", owner)
}

func (m *Manager) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	return m.queryBig(ctx, contracts.ERC20(), token, "allowance", owner, spender)
}

// TokenInfo describes one ERC20 as seen by a holder.
type TokenInfo struct {
	Address  common.Address
	Symbol   string
	Decimals int
	Balance  *big.Int
}

// TokenInfo reads symbol, decimals and the holder balance concurrently.
func (m *Manager) TokenInfo(ctx context.Context, token, holder common.Address) (*TokenInfo, error) {
	info := &TokenInfo{Address: token}

	results := gather.ExecuteAll(ctx, []gather.Task[any]{
		{Name: "symbol", Run: func(ctx context.Context) (any, error) { return m.Symbol(ctx, token) }},
		{Name: "decimals", Run: func(ctx context.Context) (any, error) { return m.Decimals(ctx, token) }},
		{Name: "balance", Run: func(ctx context.Context) (any, error) { return m.BalanceOf(ctx, token, holder) }},
	})
	if err := gather.Err(results); err != nil {
		return nil, fmt.Errorf("token %s: %w", keys.FormatAddress(token), err)
	}

	info.Symbol = results[0].Value.(string)
	info.Decimals = results[1].Value.(int)
	info.Balance = results[2].Value.(*big.Int)
	return info, nil
}

// EnsureApproval sets the deployer's allowance of token for spender to
// amount (MaxUint256 when nil). Nothing is sent if it already matches.
func (m *Manager) EnsureApproval(ctx context.Context, token, spender common.Address, amount *big.Int) (bool, error) {
	if amount == nil {
		amount = MaxUint256
	}

	current, err := m.Allowance(ctx, token, m.Deployer(), spender)
	if err != nil {
		return false, err
	}
	if current.Cmp(amount) == 0 {
		m.logger.Debug("allowance already set",
			"token", keys.FormatAddress(token), "spender", keys.FormatAddress(spender))
		return false, nil
	}

	m.logger.Info("approving",
		"token", keys.FormatAddress(token), "spender", keys.FormatAddress(spender), "amount", amount.String())
	if _, err := m.execute(ctx, contracts.ERC20(), token, "approve", tx.Options{}, spender, amount); err != nil {
		return false, err
	}
	return true, nil
}

// EnsureAllowance approves MaxUint256 only when the current allowance is
// below needed.
func (m *Manager) EnsureAllowance(ctx context.Context, token, spender common.Address, needed *big.Int) error {
	current, err := m.Allowance(ctx, token, m.Deployer(), spender)
	if err != nil {
		return err
	}
	if current.Cmp(needed) >= 0 {
		return nil
	}
	_, err = m.EnsureApproval(ctx, token, spender, MaxUint256)
	return err
}

// WrapOLT deposits native OLT into WOLT until the deployer holds at least
// target. It returns the amount deposited, zero when nothing was needed.
func (m *Manager) WrapOLT(ctx context.Context, target *big.Int) (*big.Int, error) {
	c, wolt, err := m.deployed(WOLT)
	if err != nil {
		return nil, err
	}

	have, err := m.BalanceOf(ctx, wolt, m.Deployer())
	if err != nil {
		return nil, err
	}
	if have.Cmp(target) >= 0 {
		m.logger.Info("WOLT balance already sufficient", "balance", have.String())
		return new(big.Int), nil
	}

	delta := new(big.Int).Sub(target, have)
	if _, err := m.execute(ctx, c, wolt, "deposit", tx.Options{Amount: olt(delta)}); err != nil {
		return nil, err
	}

	have, err = m.BalanceOf(ctx, wolt, m.Deployer())
	if err != nil {
		return nil, err
	}
	if have.Cmp(target) < 0 {
		return nil, &StateInconsistencyError{Op: "wrap OLT", Reason: fmt.Sprintf("WOLT balance %s below target %s after deposit", have, target)}
	}
	return delta, nil
}

// DeployAndMintDAI deploys the test DAI token and mints amount to the
// deployer if nothing has been minted yet.
func (m *Manager) DeployAndMintDAI(ctx context.Context, amount *big.Int) (common.Address, error) {
	c, err := m.bind(DAI)
	if err != nil {
		return common.Address{}, err
	}

	var args []any
	if len(c.ABI.Constructor.Inputs) == 1 {
		args = append(args, m.chainID)
	}
	dai, err := m.SmartDeploy(ctx, DAI, nil, args...)
	if err != nil {
		return common.Address{}, err
	}

	supply, err := m.TotalSupply(ctx, dai)
	if err != nil {
		return common.Address{}, err
	}
	if supply.Sign() != 0 {
		m.logger.Info("DAI already minted", "supply", supply.String())
		return dai, nil
	}

	if _, err := m.execute(ctx, c, dai, "mint", tx.Options{}, m.Deployer(), amount); err != nil {
		return common.Address{}, err
	}
	supply, err = m.TotalSupply(ctx, dai)
	if err != nil {
		return common.Address{}, err
	}
	if supply.Cmp(amount) < 0 {
		return common.Address{}, &StateInconsistencyError{Op: "mint DAI", Reason: fmt.Sprintf("total supply %s below minted %s", supply, amount)}
	}
	return dai, nil
}
