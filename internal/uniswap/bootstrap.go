package uniswap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// BootstrapParams seeds a fresh deployment.
type BootstrapParams struct {
	// InitialOLT is the OLT side of the first DAI/WOLT liquidity, in base
	// units.
	InitialOLT *big.Int
	// TokenRate is DAI per OLT.
	TokenRate decimal.Decimal
	// DAIMint is minted to the deployer when DAI has no supply yet.
	DAIMint *big.Int
}

type BootstrapResult struct {
	WOLT, Factory, Router, DAI, Pair common.Address
	Liquidity                        *LiquidityResult
}

// Bootstrap deploys WOLT, the factory, the router and DAI, approves the
// router and funds the DAI/WOLT pool. Every step is skipped when already
// done, so a second run sends nothing.
func (m *Manager) Bootstrap(ctx context.Context, p BootstrapParams) (*BootstrapResult, error) {
	if p.InitialOLT == nil || p.InitialOLT.Sign() <= 0 {
		return nil, fmt.Errorf("initial OLT must be positive")
	}
	if !p.TokenRate.IsPositive() {
		return nil, fmt.Errorf("token rate must be positive")
	}
	initialDAI := decimal.NewFromBigInt(p.InitialOLT, 0).Mul(p.TokenRate).Floor().BigInt()
	if initialDAI.Sign() == 0 {
		return nil, fmt.Errorf("token rate %s yields no DAI for %s OLT base units", p.TokenRate, p.InitialOLT)
	}
	mint := p.DAIMint
	if mint == nil || mint.Cmp(initialDAI) < 0 {
		mint = initialDAI
	}

	if err := m.CheckBalance(ctx, p.InitialOLT); err != nil {
		return nil, err
	}

	res := &BootstrapResult{}
	var err error
	if res.WOLT, err = m.SmartDeploy(ctx, WOLT, nil); err != nil {
		return nil, err
	}
	if res.Factory, err = m.SmartDeploy(ctx, Factory, nil, m.feeTo); err != nil {
		return nil, err
	}
	if res.Router, err = m.SmartDeploy(ctx, Router, nil, res.Factory, res.WOLT); err != nil {
		return nil, err
	}
	if res.DAI, err = m.DeployAndMintDAI(ctx, mint); err != nil {
		return nil, err
	}

	for _, token := range []common.Address{res.WOLT, res.DAI} {
		if _, err := m.EnsureApproval(ctx, token, res.Router, MaxUint256); err != nil {
			return nil, err
		}
	}

	res.Liquidity, err = m.AddLiquidityOLT(ctx, AddLiquidityOLTParams{
		Token:       res.DAI,
		AmountToken: initialDAI,
		AmountOLT:   p.InitialOLT,
	})
	if err != nil {
		return nil, err
	}
	res.Pair = res.Liquidity.Pair

	if _, err := m.EnsureApproval(ctx, res.Pair, res.Router, MaxUint256); err != nil {
		return nil, err
	}
	return res, nil
}
