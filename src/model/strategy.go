package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

const StrategyStatusActive = "active"
const StrategyStatusClosed = "closed"
const StrategyStatusSoftDeleted = "soft_deleted"

const PeriodUnitDaily = "daily"
const PeriodUnitWeekly = "weekly"
const PeriodUnitMonthly = "monthly"

const InvestModeFixed = "fixed"
const InvestModeValueAveraging = "value_averaging"

const StopReasonProfitAutoSell = "profit auto sell"
const StopReasonUserDeleteSell = "user delete sell"

// closed and soft_deleted are sinks, a strategy never reactivates
var strategyStatusFlow = map[string][]string{
	StrategyStatusActive:      {StrategyStatusClosed, StrategyStatusSoftDeleted},
	StrategyStatusClosed:      {},
	StrategyStatusSoftDeleted: {},
}

type PeriodValues []int64

func (p *PeriodValues) Scan(src interface{}) error {
	return json.Unmarshal(src.([]byte), &p)
}
func (p PeriodValues) Value() (driver.Value, error) {
	jsonV, err := json.Marshal(p)
	return string(jsonV), err
}
func (p PeriodValues) Contains(value int64) bool {
	for _, item := range p {
		if item == value {
			return true
		}
	}

	return false
}

type ApiCredentials struct {
	ApiKey    string `json:"apiKey"`
	ApiSecret string `json:"apiSecret"`
}

type Strategy struct {
	Id                   int64        `json:"id"`
	OwnerId              int64        `json:"ownerId"`
	Exchange             string       `json:"exchange"`
	QuoteSymbol          string       `json:"quoteSymbol"`
	BaseSymbol           string       `json:"baseSymbol"`
	EncryptedCredentials string       `json:"-"`
	PeriodUnit           string       `json:"periodUnit"`
	PeriodValues         PeriodValues `json:"periodValues"`
	PurchaseHour         int64        `json:"purchaseHour"`
	PurchaseMinute       int64        `json:"purchaseMinute"`
	BaseLimit            float64      `json:"baseLimit"`
	InvestMode           string       `json:"investMode"`
	GrowthRate           float64      `json:"growthRate"`
	BuyCount             int64        `json:"buyCount"`
	BaseTotal            float64      `json:"baseTotal"`
	QuoteTotal           float64      `json:"quoteTotal"`
	RoundBuyCount        int64        `json:"roundBuyCount"`
	RoundBaseTotal       float64      `json:"roundBaseTotal"`
	RoundQuoteTotal      float64      `json:"roundQuoteTotal"`
	TakeProfitPercent    *float64     `json:"takeProfitPercent"`
	DrawdownPercent      float64      `json:"drawdownPercent"`
	HighWaterPrice       *float64     `json:"highWaterPrice"`
	AutoRestart          bool         `json:"autoRestart"`
	Status               string       `json:"status"`
	StopReason           *string      `json:"stopReason"`
	Version              int64        `json:"version"`
	CreatedAt            string       `json:"createdAt"`
}

func (s Strategy) GetSymbol() string {
	return fmt.Sprintf("%s%s", s.QuoteSymbol, s.BaseSymbol)
}

func (s *Strategy) IsActive() bool {
	return s.Status == StrategyStatusActive
}

func (s *Strategy) IsValueAveraging() bool {
	return s.InvestMode == InvestModeValueAveraging
}

func (s *Strategy) HasTakeProfit() bool {
	return s.TakeProfitPercent != nil && *s.TakeProfitPercent > 0
}

func (s *Strategy) HasDrawdownProtection() bool {
	return s.DrawdownPercent > 0
}

// IsDueAt matches the purchase cadence against the wall clock at minute
// granularity. Daily plans fire on every configured hour, weekly and monthly
// plans fire on the configured weekday / day-of-month at the assigned hour.
func (s *Strategy) IsDueAt(now time.Time) bool {
	if !s.IsActive() {
		return false
	}

	if int64(now.Minute()) != s.PurchaseMinute {
		return false
	}

	switch s.PeriodUnit {
	case PeriodUnitDaily:
		return s.PeriodValues.Contains(int64(now.Hour()))
	case PeriodUnitWeekly:
		return s.PeriodValues.Contains(int64(now.Weekday())) && int64(now.Hour()) == s.PurchaseHour
	case PeriodUnitMonthly:
		return s.PeriodValues.Contains(int64(now.Day())) && int64(now.Hour()) == s.PurchaseHour
	}

	return false
}

func (s *Strategy) CanTransitionTo(status string) bool {
	allowed, ok := strategyStatusFlow[s.Status]

	if !ok {
		return false
	}

	for _, next := range allowed {
		if next == status {
			return true
		}
	}

	return false
}

func (s *Strategy) TransitionTo(status string, stopReason string) error {
	if !s.CanTransitionTo(status) {
		return errors.New(fmt.Sprintf("strategy %d: transition %s -> %s is not allowed", s.Id, s.Status, status))
	}

	s.Status = status
	s.StopReason = &stopReason

	return nil
}

// RegisterFill applies one executed buy to the cumulative and current-round
// counters. Totals only grow, quantities and costs are validated upstream.
func (s *Strategy) RegisterFill(quantity float64, cost float64) {
	s.BuyCount++
	s.QuoteTotal += quantity
	s.BaseTotal += cost
	s.RoundBuyCount++
	s.RoundQuoteTotal += quantity
	s.RoundBaseTotal += cost
}

// ResetRound starts the next accumulation cycle after a profit sell.
func (s *Strategy) ResetRound() {
	s.RoundBuyCount = 0
	s.RoundQuoteTotal = 0.00
	s.RoundBaseTotal = 0.00
	s.HighWaterPrice = nil
}

func (s *Strategy) GetProfit(bid float64) float64 {
	return s.RoundQuoteTotal*bid - s.RoundBaseTotal
}

func (s *Strategy) GetProfitPercent(bid float64) Percent {
	if s.RoundBaseTotal == 0.00 {
		return Percent(0.00)
	}

	return Percent(s.GetProfit(bid) / s.RoundBaseTotal * 100.00)
}

// GetDrawdownStopPrice is defined only while drawdown protection is enabled
// and a high-water price has been recorded.
func (s *Strategy) GetDrawdownStopPrice() float64 {
	if s.HighWaterPrice == nil {
		return 0.00
	}

	return *s.HighWaterPrice * (1 - s.DrawdownPercent/100.00)
}

// RandomPurchaseTime draws the hour and minute assigned to a new strategy,
// spreading purchase load across the fleet.
func RandomPurchaseTime() (int64, int64) {
	return int64(rand.Intn(24)), int64(rand.Intn(60))
}
