package validator

import (
	"gitlab.com/open-soft/go-dca-bot/src/model"
)

// PurchaseValidator checks an intended market buy against the venue limits
// and the available balance before any order is placed. Violations come back
// as typed conditions, the caller skips the strategy for this tick.
type PurchaseValidator struct {
}

func (v *PurchaseValidator) Validate(
	strategy model.Strategy,
	limits model.MarketLimits,
	amount float64,
	cost float64,
	available float64,
) error {
	symbol := strategy.GetSymbol()

	if cost < limits.MinNotional {
		return model.BelowMinCostError{
			Symbol:      symbol,
			Cost:        cost,
			MinNotional: limits.MinNotional,
		}
	}

	if amount < limits.MinQuantity {
		return model.BelowMinAmountError{
			Symbol:      symbol,
			Amount:      amount,
			MinQuantity: limits.MinQuantity,
		}
	}

	if available < cost {
		return model.InsufficientBalanceError{
			Asset:     strategy.BaseSymbol,
			Required:  cost,
			Available: available,
		}
	}

	return nil
}
