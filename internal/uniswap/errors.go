package uniswap

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrIdenticalAddresses = errors.New("identical token addresses")
	ErrNoLiquidity        = errors.New("pair has no liquidity")
	ErrSlippageTooHigh    = errors.New("slippage too high: minimum received rounds to zero")
	ErrInvalidSlippage    = errors.New("slippage must be between 0 and 100")
)

// InsufficientBalanceError is returned when the deployer cannot cover an
// operation.
type InsufficientBalanceError struct {
	Have *big.Int
	Need *big.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: have %s, need more than %s", e.Have, e.Need)
}

// StateInconsistencyError means a confirmed transaction did not leave the
// chain in the state it should have.
type StateInconsistencyError struct {
	Op     string
	Reason string
}

func (e *StateInconsistencyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}
