package uniswap

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmagro/oneswap-deployer/internal/contracts"
	"github.com/dmagro/oneswap-deployer/internal/keys"
	"github.com/dmagro/oneswap-deployer/internal/state"
)

func TestSmartDeployUsesLedgerWithoutRPC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	seed := `{"WOLT": {"address": "0lt1111111111111111111111111111111111111111", "tx_hash": "AAA"}}`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))
	ledger, err := state.Open(path)
	require.NoError(t, err)
	defer ledger.Close()

	chain := newFakeChain(100)
	// an empty artifact dir proves nothing is even loaded
	m := NewManager(chain, contracts.NewRegistry(t.TempDir()), ledger, Config{}, discard)

	addr, err := m.SmartDeploy(context.Background(), WOLT, nil)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x1111111111111111111111111111111111111111"), addr)
	assert.Empty(t, chain.recorded())
}

func TestSmartDeployOnce(t *testing.T) {
	m, chain, ledger := newTestManager(t, 100)
	ctx := context.Background()

	first, err := m.SmartDeploy(ctx, WOLT, nil)
	require.NoError(t, err)
	second, err := m.SmartDeploy(ctx, WOLT, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, chain.count("deploy"))

	rec, err := ledger.Get(WOLT)
	require.NoError(t, err)
	assert.Equal(t, keys.BareAddress(first), rec.Address)
	assert.NotEmpty(t, rec.TxHash)
}

func TestSmartDeployRejectsIncompatibleArtifact(t *testing.T) {
	dir := t.TempDir()
	artifact := `{"abi": [{"type":"function","name":"balanceOf","stateMutability":"view",
		"inputs":[{"name":"o","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}], "bytecode": "0x00"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "WOLT.json"), []byte(artifact), 0o644))

	chain := newFakeChain(100)
	m := NewManager(chain, contracts.NewRegistry(dir), openLedger(t), Config{}, discard)

	_, err := m.SmartDeploy(context.Background(), WOLT, nil)
	var abiErr *contracts.AbiError
	require.ErrorAs(t, err, &abiErr)
	assert.Contains(t, err.Error(), "deposit()")
	assert.Zero(t, chain.writes())
}

func TestCheckBalance(t *testing.T) {
	m, _, _ := newTestManager(t, 10)
	ctx := context.Background()

	require.NoError(t, m.CheckBalance(ctx, oltUnits(9)))

	err := m.CheckBalance(ctx, oltUnits(10))
	var balErr *InsufficientBalanceError
	require.ErrorAs(t, err, &balErr)
	assert.Equal(t, oltUnits(10), balErr.Have)
}

func TestSortTokensAndPairKey(t *testing.T) {
	lo := common.HexToAddress("0x0000000000000000000000000000000000000001")
	hi := common.HexToAddress("0xff00000000000000000000000000000000000000")

	t0, t1, err := SortTokens(hi, lo)
	require.NoError(t, err)
	assert.Equal(t, lo, t0)
	assert.Equal(t, hi, t1)

	k1, err := PairKey(lo, hi)
	require.NoError(t, err)
	k2, err := PairKey(hi, lo)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Equal(t, "UniswapV2Pair_0000000000000000000000000000000000000001_ff00000000000000000000000000000000000000", k1)

	_, _, err = SortTokens(lo, lo)
	assert.ErrorIs(t, err, ErrIdenticalAddresses)
}

func TestReservesMissingPair(t *testing.T) {
	m, chain, _ := newTestManager(t, 100)
	ctx := context.Background()
	_, err := m.SmartDeploy(ctx, Factory, nil, chain.me)
	require.NoError(t, err)

	r, err := m.Reserves(ctx, common.HexToAddress("0x01"), common.HexToAddress("0x02"))
	require.NoError(t, err)
	assert.Zero(t, r[0].Sign())
	assert.Zero(t, r[1].Sign())
}

func TestReservesWithoutFactory(t *testing.T) {
	m, _, _ := newTestManager(t, 100)

	_, err := m.Reserves(context.Background(), common.HexToAddress("0x01"), common.HexToAddress("0x02"))
	assert.ErrorIs(t, err, state.ErrNotFound)
}

func TestBootstrap(t *testing.T) {
	_, chain, ledger, res := bootstrapped(t)

	assert.Equal(t, 4, chain.count("deploy"))
	// mint, approve WOLT, approve DAI, addLiquidityETH, approve pair
	assert.Equal(t, 5, chain.count("execute"))

	calls := chain.recorded()
	var deploys []call
	for _, c := range calls {
		if c.kind == "deploy" {
			deploys = append(deploys, c)
		}
	}
	require.Len(t, deploys, 4)
	assert.Equal(t, []string{WOLT, Factory, Router, DAI},
		[]string{deploys[0].contract, deploys[1].contract, deploys[2].contract, deploys[3].contract})
	assert.Equal(t, []any{chain.me}, deploys[1].args, "fee setter defaults to the deployer")
	assert.Equal(t, []any{res.Factory, res.WOLT}, deploys[2].args)
	assert.Equal(t, []any{big.NewInt(1)}, deploys[3].args)

	add := chain.last("execute")
	assert.Equal(t, "approve", add.method)

	pairKey, err := PairKey(res.WOLT, res.DAI)
	require.NoError(t, err)
	for _, key := range []string{WOLT, Factory, Router, DAI, pairKey} {
		assert.True(t, ledger.Has(key), key)
	}
	pair, err := ledger.Address(pairKey)
	require.NoError(t, err)
	assert.Equal(t, res.Pair, pair)

	r := res.Liquidity.Reserves
	assert.Equal(t, oltUnits(10), r[0], "WOLT sorts first")
	assert.Equal(t, oltUnits(5), r[1])
}

func TestBootstrapTwiceSendsNothing(t *testing.T) {
	m, chain, _, first := bootstrapped(t)
	before := chain.writes()

	second, err := m.Bootstrap(context.Background(), BootstrapParams{
		InitialOLT: oltUnits(10),
		TokenRate:  decimal.RequireFromString("0.5"),
		DAIMint:    oltUnits(1_000),
	})
	require.NoError(t, err)

	assert.Equal(t, before, chain.writes())
	assert.True(t, second.Liquidity.Skipped)
	assert.Equal(t, first.Pair, second.Pair)
	assert.Equal(t, first.DAI, second.DAI)
}

func TestBootstrapInsufficientBalance(t *testing.T) {
	m, chain, _ := newTestManager(t, 10)

	_, err := m.Bootstrap(context.Background(), BootstrapParams{
		InitialOLT: oltUnits(10),
		TokenRate:  decimal.RequireFromString("0.5"),
	})
	var balErr *InsufficientBalanceError
	assert.ErrorAs(t, err, &balErr)
	assert.Zero(t, chain.writes())
}

func TestEnsureApproval(t *testing.T) {
	m, chain, _ := newTestManager(t, 100)
	ctx := context.Background()
	token := common.HexToAddress("0x0000000000000000000000000000000000000abc")
	spender := common.HexToAddress("0x0000000000000000000000000000000000000def")

	sent, err := m.EnsureApproval(ctx, token, spender, nil)
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, []any{spender, MaxUint256}, chain.last("execute").args)

	sent, err = m.EnsureApproval(ctx, token, spender, nil)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Equal(t, 1, chain.count("execute"))

	// a different amount is approved again
	sent, err = m.EnsureApproval(ctx, token, spender, big.NewInt(5))
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, 2, chain.count("execute"))
}

func TestWrapOLT(t *testing.T) {
	m, chain, _ := newTestManager(t, 100)
	ctx := context.Background()
	_, err := m.SmartDeploy(ctx, WOLT, nil)
	require.NoError(t, err)

	deposited, err := m.WrapOLT(ctx, oltUnits(5))
	require.NoError(t, err)
	assert.Equal(t, oltUnits(5), deposited)

	deposited, err = m.WrapOLT(ctx, oltUnits(3))
	require.NoError(t, err)
	assert.Zero(t, deposited.Sign())
	assert.Equal(t, 1, chain.count("execute"))

	deposited, err = m.WrapOLT(ctx, oltUnits(8))
	require.NoError(t, err)
	assert.Equal(t, oltUnits(3), deposited)
	assert.Equal(t, "3", chain.last("execute").value.String())
}

func TestWrapOLTDetectsMissingDeposit(t *testing.T) {
	m, chain, _ := newTestManager(t, 100)
	ctx := context.Background()
	_, err := m.SmartDeploy(ctx, WOLT, nil)
	require.NoError(t, err)
	chain.ignore["deposit"] = true

	_, err = m.WrapOLT(ctx, oltUnits(1))
	var stateErr *StateInconsistencyError
	assert.ErrorAs(t, err, &stateErr)
}

func TestDeployAndMintDAIMintsOnce(t *testing.T) {
	m, chain, _ := newTestManager(t, 100)
	ctx := context.Background()

	dai, err := m.DeployAndMintDAI(ctx, oltUnits(50))
	require.NoError(t, err)
	again, err := m.DeployAndMintDAI(ctx, oltUnits(50))
	require.NoError(t, err)

	assert.Equal(t, dai, again)
	assert.Equal(t, 1, chain.count("deploy"))
	assert.Equal(t, 1, chain.count("execute"))
	assert.Equal(t, "mint", chain.last("execute").method)
}

func TestPairInfo(t *testing.T) {
	m, _, _, res := bootstrapped(t)

	info, err := m.PairInfo(context.Background(), res.DAI, res.WOLT)
	require.NoError(t, err)

	assert.True(t, info.Exists)
	assert.Equal(t, res.Pair, info.Pair)
	assert.Equal(t, WOLT, info.Token0.Symbol)
	assert.Equal(t, DAI, info.Token1.Symbol)
	assert.Equal(t, "0.5", info.Price0.String())
	assert.Equal(t, "2", info.Price1.String())
	assert.Equal(t, new(big.Int).Mul(oltUnits(10), oltUnits(5)), info.K)
}

func TestPairInfoMissingPair(t *testing.T) {
	m, chain, _ := newTestManager(t, 100)
	ctx := context.Background()
	_, err := m.SmartDeploy(ctx, Factory, nil, chain.me)
	require.NoError(t, err)

	info, err := m.PairInfo(ctx, common.HexToAddress("0x01"), common.HexToAddress("0x02"))
	require.NoError(t, err)
	assert.False(t, info.Exists)
	assert.True(t, info.Price0.IsZero())
	assert.Zero(t, info.K.Sign())
}

func TestEnsureAllowanceApprovesOnlyWhenShort(t *testing.T) {
	m, chain, _ := newTestManager(t, 100)
	ctx := context.Background()
	token := common.HexToAddress("0x0000000000000000000000000000000000000abc")
	spender := common.HexToAddress("0x0000000000000000000000000000000000000def")

	_, err := m.EnsureApproval(ctx, token, spender, big.NewInt(10))
	require.NoError(t, err)

	require.NoError(t, m.EnsureAllowance(ctx, token, spender, big.NewInt(10)))
	assert.Equal(t, 1, chain.count("execute"))

	require.NoError(t, m.EnsureAllowance(ctx, token, spender, big.NewInt(11)))
	assert.Equal(t, 2, chain.count("execute"))
	assert.Equal(t, []any{spender, MaxUint256}, chain.last("execute").args)
}
