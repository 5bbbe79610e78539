package dca

import (
	"errors"
	"fmt"
	"log"

	"gitlab.com/open-soft/go-dca-bot/src/client"
	"gitlab.com/open-soft/go-dca-bot/src/model"
	"gitlab.com/open-soft/go-dca-bot/src/repository"
	"gitlab.com/open-soft/go-dca-bot/src/service"
)

// SellService evaluates take profit and trailing drawdown conditions. It
// never talks to the exchange order endpoint itself, a triggered sell becomes
// a durable intent that the settlement sweep executes later.
type SellService struct {
	StrategyRepository   repository.StrategyStorageInterface
	AwaitOrderRepository repository.AwaitOrderStorageInterface
	GatewayRegistry      *client.GatewayRegistry
	CallbackManager      service.CallbackManagerInterface
	CurrentBot           *model.Bot
}

func (s *SellService) RunSellCheck() {
	for _, strategy := range s.StrategyRepository.GetProtectedStrategies() {
		err := s.CheckStrategy(strategy)

		if err != nil {
			log.Printf("[%s] Sell check failed: %s", strategy.GetSymbol(), err.Error())
			s.CallbackManager.Error(*s.CurrentBot, "sell_check_failed", err.Error(), false)
		}
	}
}

func (s *SellService) CheckStrategy(strategy model.Strategy) error {
	if !strategy.HasTakeProfit() || strategy.RoundBaseTotal <= 0.00 {
		return nil
	}

	if s.AwaitOrderRepository.HasOpenIntent(strategy.Id) {
		return nil
	}

	gateway, err := s.GatewayRegistry.Get(strategy.Exchange)
	if err != nil {
		return err
	}

	quote, err := gateway.GetQuote(strategy.GetSymbol())
	if err != nil {
		return err
	}

	bid := quote.Bid

	profitPercent := strategy.GetProfitPercent(bid)
	if profitPercent.Lt(model.Percent(*strategy.TakeProfitPercent)) {
		return nil
	}

	if !strategy.HasDrawdownProtection() {
		return s.EnqueueSellIntent(strategy, model.AwaitReasonAutoTakeProfit, bid)
	}

	// trailing stop: ratchet the high water price up, sell only once the bid
	// retreats by the configured percentage from it
	if strategy.HighWaterPrice == nil || bid > *strategy.HighWaterPrice {
		strategy.HighWaterPrice = &bid

		err = s.StrategyRepository.Update(strategy)
		if err == model.ErrStaleStrategy {
			log.Printf("[%s] High water update lost a version race, retried next tick", strategy.GetSymbol())
			return nil
		}

		return err
	}

	if bid <= strategy.GetDrawdownStopPrice() {
		return s.EnqueueSellIntent(strategy, model.AwaitReasonAutoTakeProfit, bid)
	}

	return nil
}

// RequestClose turns a user delete into a durable sell intent, bypassing the
// profit check. The strategy keeps trading until the sweep settles it.
func (s *SellService) RequestClose(strategyId int64) error {
	strategy, err := s.StrategyRepository.Find(strategyId)
	if err != nil {
		return err
	}

	if !strategy.IsActive() {
		return errors.New(fmt.Sprintf("[%s] strategy %d is not active", strategy.GetSymbol(), strategy.Id))
	}

	if s.AwaitOrderRepository.HasOpenIntent(strategy.Id) {
		return errors.New(fmt.Sprintf("[%s] strategy %d already has a pending sell intent", strategy.GetSymbol(), strategy.Id))
	}

	bid := 0.00
	gateway, err := s.GatewayRegistry.Get(strategy.Exchange)
	if err == nil {
		quote, quoteErr := gateway.GetQuote(strategy.GetSymbol())
		if quoteErr == nil {
			bid = quote.Bid
		}
	}

	return s.EnqueueSellIntent(strategy, model.AwaitReasonUserRequestedClose, bid)
}

func (s *SellService) EnqueueSellIntent(strategy model.Strategy, reason string, triggerPrice float64) error {
	_, err := s.AwaitOrderRepository.Create(model.AwaitOrder{
		StrategyId:   strategy.Id,
		Reason:       reason,
		TriggerPrice: triggerPrice,
		Status:       model.AwaitStatusWaiting,
	})

	if err != nil {
		return err
	}

	log.Printf("[%s] Sell intent enqueued: %s at %.8f", strategy.GetSymbol(), reason, triggerPrice)

	return nil
}
