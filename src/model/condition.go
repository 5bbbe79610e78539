package model

import (
	"errors"
	"fmt"
)

// Race loss on claim arbitration. Expected, callers treat it as a no-op.
var ErrAlreadyClaimed = errors.New("await order is already claimed")

// Lost optimistic-concurrency race on a strategy write.
var ErrStaleStrategy = errors.New("strategy version is stale")

// Data-integrity gap: an await order references a strategy that no longer
// exists. Logged and skipped, never retried automatically.
var ErrStrategyNotFound = errors.New("strategy is not found")

// InsufficientPurchaseAmountError signals a value-averaging amount of zero:
// the holding already exceeds its growth target for this cycle.
type InsufficientPurchaseAmountError struct {
	Symbol string
}

func (e InsufficientPurchaseAmountError) Error() string {
	return fmt.Sprintf("[%s] holding exceeds the growth target, purchase is skipped", e.Symbol)
}

// StrategyNotActiveError rejects a purchase against a closed or soft deleted
// strategy. Terminal statuses are sinks, a buy must never mutate them.
type StrategyNotActiveError struct {
	Symbol string
	Status string
}

func (e StrategyNotActiveError) Error() string {
	return fmt.Sprintf("[%s] strategy is %s, purchase is rejected", e.Symbol, e.Status)
}

type BelowMinCostError struct {
	Symbol      string
	Cost        float64
	MinNotional float64
}

func (e BelowMinCostError) Error() string {
	return fmt.Sprintf("[%s] order cost %.8f is below the venue minimum %.8f", e.Symbol, e.Cost, e.MinNotional)
}

type BelowMinAmountError struct {
	Symbol      string
	Amount      float64
	MinQuantity float64
}

func (e BelowMinAmountError) Error() string {
	return fmt.Sprintf("[%s] order amount %.8f is below the venue minimum %.8f", e.Symbol, e.Amount, e.MinQuantity)
}

type InsufficientBalanceError struct {
	Asset     string
	Required  float64
	Available float64
}

func (e InsufficientBalanceError) Error() string {
	return fmt.Sprintf("[%s] balance %.8f does not cover the required %.8f", e.Asset, e.Available, e.Required)
}

// IsPurchaseCondition reports whether err is one of the expected validation
// conditions that skip the current strategy's tick without failing the loop.
func IsPurchaseCondition(err error) bool {
	var notActive StrategyNotActiveError
	var insufficientAmount InsufficientPurchaseAmountError
	var belowCost BelowMinCostError
	var belowAmount BelowMinAmountError
	var insufficientBalance InsufficientBalanceError

	return errors.As(err, &notActive) ||
		errors.As(err, &insufficientAmount) ||
		errors.As(err, &belowCost) ||
		errors.As(err, &belowAmount) ||
		errors.As(err, &insufficientBalance)
}
