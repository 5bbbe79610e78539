package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsDueAtDaily(t *testing.T) {
	assertion := assert.New(t)

	strategy := Strategy{
		Status:         StrategyStatusActive,
		PeriodUnit:     PeriodUnitDaily,
		PeriodValues:   PeriodValues{9, 21},
		PurchaseMinute: 30,
	}

	assertion.True(strategy.IsDueAt(time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)))
	assertion.True(strategy.IsDueAt(time.Date(2026, 3, 2, 21, 30, 0, 0, time.UTC)))
	assertion.False(strategy.IsDueAt(time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)))
	assertion.False(strategy.IsDueAt(time.Date(2026, 3, 2, 9, 31, 0, 0, time.UTC)))
}

func TestIsDueAtWeekly(t *testing.T) {
	assertion := assert.New(t)

	// Monday and Friday at 09:15
	strategy := Strategy{
		Status:         StrategyStatusActive,
		PeriodUnit:     PeriodUnitWeekly,
		PeriodValues:   PeriodValues{1, 5},
		PurchaseHour:   9,
		PurchaseMinute: 15,
	}

	monday := time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)
	assertion.Equal(time.Monday, monday.Weekday())
	assertion.True(strategy.IsDueAt(monday))

	tuesday := monday.AddDate(0, 0, 1)
	assertion.False(strategy.IsDueAt(tuesday))

	mondayWrongHour := time.Date(2026, 3, 2, 10, 15, 0, 0, time.UTC)
	assertion.False(strategy.IsDueAt(mondayWrongHour))
}

func TestIsDueAtMonthly(t *testing.T) {
	assertion := assert.New(t)

	strategy := Strategy{
		Status:         StrategyStatusActive,
		PeriodUnit:     PeriodUnitMonthly,
		PeriodValues:   PeriodValues{1, 15},
		PurchaseHour:   12,
		PurchaseMinute: 0,
	}

	assertion.True(strategy.IsDueAt(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)))
	assertion.False(strategy.IsDueAt(time.Date(2026, 3, 16, 12, 0, 0, 0, time.UTC)))
	assertion.False(strategy.IsDueAt(time.Date(2026, 3, 15, 13, 0, 0, 0, time.UTC)))
}

func TestInactiveStrategyIsNeverDue(t *testing.T) {
	assertion := assert.New(t)

	strategy := Strategy{
		Status:       StrategyStatusClosed,
		PeriodUnit:   PeriodUnitDaily,
		PeriodValues: PeriodValues{9},
	}

	assertion.False(strategy.IsDueAt(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)))
}

func TestStrategyStatusTransitions(t *testing.T) {
	assertion := assert.New(t)

	strategy := Strategy{Status: StrategyStatusActive}

	assertion.True(strategy.CanTransitionTo(StrategyStatusClosed))
	assertion.True(strategy.CanTransitionTo(StrategyStatusSoftDeleted))

	assertion.NoError(strategy.TransitionTo(StrategyStatusClosed, StopReasonProfitAutoSell))
	assertion.Equal(StrategyStatusClosed, strategy.Status)
	assertion.Equal(StopReasonProfitAutoSell, *strategy.StopReason)

	// terminal statuses are sinks, no reactivation
	assertion.Error(strategy.TransitionTo(StrategyStatusActive, ""))
	assertion.Error(strategy.TransitionTo(StrategyStatusSoftDeleted, StopReasonUserDeleteSell))
	assertion.Equal(StrategyStatusClosed, strategy.Status)
}

func TestRegisterFillAndResetRound(t *testing.T) {
	assertion := assert.New(t)

	highWater := 100000.00
	strategy := Strategy{Status: StrategyStatusActive, HighWaterPrice: &highWater}

	strategy.RegisterFill(0.002, 100.00)
	strategy.RegisterFill(0.001, 50.00)

	assertion.Equal(int64(2), strategy.BuyCount)
	assertion.InDelta(0.003, strategy.QuoteTotal, 1e-12)
	assertion.Equal(150.00, strategy.BaseTotal)
	assertion.Equal(int64(2), strategy.RoundBuyCount)
	assertion.InDelta(0.003, strategy.RoundQuoteTotal, 1e-12)
	assertion.Equal(150.00, strategy.RoundBaseTotal)

	strategy.ResetRound()

	assertion.Equal(int64(0), strategy.RoundBuyCount)
	assertion.Equal(0.00, strategy.RoundQuoteTotal)
	assertion.Equal(0.00, strategy.RoundBaseTotal)
	assertion.Nil(strategy.HighWaterPrice)

	// cumulative counters survive the reset
	assertion.Equal(int64(2), strategy.BuyCount)
	assertion.InDelta(0.003, strategy.QuoteTotal, 1e-12)
	assertion.Equal(150.00, strategy.BaseTotal)
}

func TestGetProfitPercent(t *testing.T) {
	assertion := assert.New(t)

	strategy := Strategy{
		RoundQuoteTotal: 0.02,
		RoundBaseTotal:  1000.00,
	}

	assertion.InDelta(90.00, strategy.GetProfitPercent(95000.00).Value(), 1e-9)
	assertion.InDelta(0.00, strategy.GetProfitPercent(50000.00).Value(), 1e-9)

	empty := Strategy{}
	assertion.Equal(0.00, empty.GetProfitPercent(95000.00).Value())
}

func TestGetDrawdownStopPrice(t *testing.T) {
	assertion := assert.New(t)

	highWater := 100000.00
	strategy := Strategy{
		DrawdownPercent: 5.00,
		HighWaterPrice:  &highWater,
	}

	assertion.InDelta(95000.00, strategy.GetDrawdownStopPrice(), 1e-6)

	strategy.HighWaterPrice = nil
	assertion.Equal(0.00, strategy.GetDrawdownStopPrice())
}

func TestRandomPurchaseTimeStaysInRange(t *testing.T) {
	assertion := assert.New(t)

	for i := 0; i < 200; i++ {
		hour, minute := RandomPurchaseTime()
		assertion.GreaterOrEqual(hour, int64(0))
		assertion.Less(hour, int64(24))
		assertion.GreaterOrEqual(minute, int64(0))
		assertion.Less(minute, int64(60))
	}
}
