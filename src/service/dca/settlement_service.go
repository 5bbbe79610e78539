package dca

import (
	"errors"
	"log"
	"time"

	"gitlab.com/open-soft/go-dca-bot/src/client"
	"gitlab.com/open-soft/go-dca-bot/src/model"
	"gitlab.com/open-soft/go-dca-bot/src/repository"
	"gitlab.com/open-soft/go-dca-bot/src/service"
	"gitlab.com/open-soft/go-dca-bot/src/utils"
)

// SettlementService is the consumer side of the sell intent queue. Each
// pending intent is claimed with an atomic conditional update, settled
// against the exchange and completed. A claim lost to a concurrent sweep is
// a silent no-op.
type SettlementService struct {
	StrategyRepository   repository.StrategyStorageInterface
	AwaitOrderRepository repository.AwaitOrderStorageInterface
	OrderRepository      repository.OrderStorageInterface
	GatewayRegistry      *client.GatewayRegistry
	Vault                service.VaultInterface
	Formatter            *utils.Formatter
	CallbackManager      service.CallbackManagerInterface
	CurrentBot           *model.Bot
	ClaimLease           time.Duration
}

func (s *SettlementService) GetClaimLease() time.Duration {
	if s.ClaimLease > 0 {
		return s.ClaimLease
	}

	return repository.DefaultClaimLease
}

func (s *SettlementService) RunSettlementSweep(now time.Time) {
	for _, awaitOrder := range s.AwaitOrderRepository.GetPending(now, s.GetClaimLease()) {
		err := s.Settle(awaitOrder, now)

		if err == nil || errors.Is(err, model.ErrAlreadyClaimed) {
			continue
		}

		log.Printf("Settlement of intent %d failed: %s", awaitOrder.Id, err.Error())
	}
}

func (s *SettlementService) Settle(awaitOrder model.AwaitOrder, now time.Time) error {
	err := s.AwaitOrderRepository.Claim(awaitOrder, now, s.GetClaimLease())
	if err != nil {
		return err
	}

	strategy, err := s.StrategyRepository.Find(awaitOrder.StrategyId)
	if err != nil {
		if errors.Is(err, model.ErrStrategyNotFound) {
			// data-integrity gap, the intent is completed so it is never
			// retried
			log.Printf("Intent %d references missing strategy %d, skipped", awaitOrder.Id, awaitOrder.StrategyId)
			return s.AwaitOrderRepository.Complete(awaitOrder)
		}

		return err
	}

	quantity := strategy.RoundQuoteTotal
	executedQty := 0.00

	if quantity > 0.00 {
		executedQty, err = s.ExecuteSell(&strategy, awaitOrder, quantity)

		var belowMin model.BelowMinAmountError
		if errors.As(err, &belowMin) {
			// an unsellable dust holding stays on the account, the intent is
			// settled without an order
			log.Printf("[%s] Intent %d: %s, settled without a sell", strategy.GetSymbol(), awaitOrder.Id, err.Error())
			err = nil
		}

		if err != nil {
			// the intent stays processing, the claim lease makes it
			// reclaimable once the lease expires
			return err
		}
	}

	err = s.ApplyOutcome(&strategy, awaitOrder)
	if err != nil {
		return err
	}

	err = s.AwaitOrderRepository.Complete(awaitOrder)
	if err != nil {
		return err
	}

	err = s.StrategyRepository.Update(strategy)
	if err == model.ErrStaleStrategy {
		fresh, findErr := s.StrategyRepository.Find(strategy.Id)
		if findErr != nil {
			return findErr
		}

		// the sell is deducted from the re-read holding, a buy registered in
		// between must not be erased
		fresh.QuoteTotal = fresh.QuoteTotal - executedQty
		if fresh.QuoteTotal < 0.00 {
			fresh.QuoteTotal = 0.00
		}

		applyErr := s.ApplyOutcome(&fresh, awaitOrder)
		if applyErr != nil {
			return applyErr
		}

		err = s.StrategyRepository.Update(fresh)
	}

	return err
}

// ExecuteSell places the market sell and records the fill. It returns the
// executed quantity so the caller can reapply the deduction on a fresh copy
// after a lost version race.
func (s *SettlementService) ExecuteSell(strategy *model.Strategy, awaitOrder model.AwaitOrder, quantity float64) (float64, error) {
	symbol := strategy.GetSymbol()

	gateway, err := s.GatewayRegistry.Get(strategy.Exchange)
	if err != nil {
		return 0.00, err
	}

	credentials, err := s.Vault.DecryptCredentials(strategy.EncryptedCredentials)
	if err != nil {
		return 0.00, err
	}

	limits, err := gateway.GetMarketLimits(symbol)
	if err != nil {
		return 0.00, err
	}

	// formatting bumps a below-minimum quantity up to the venue minimum,
	// which on the sell side would order more than is held
	if quantity < limits.GetMinQuantity() {
		return 0.00, model.BelowMinAmountError{
			Symbol:      symbol,
			Amount:      quantity,
			MinQuantity: limits.GetMinQuantity(),
		}
	}

	order, err := gateway.MarketOrder(credentials, symbol, "SELL", s.Formatter.FormatQuantity(limits, quantity))
	if err != nil {
		return 0.00, err
	}

	price := order.GetAvgPrice()
	if price == 0.00 {
		price = awaitOrder.TriggerPrice
	}
	price = s.Formatter.FormatPrice(limits, price)

	strategy.QuoteTotal = strategy.QuoteTotal - order.ExecutedQty
	if strategy.QuoteTotal < 0.00 {
		strategy.QuoteTotal = 0.00
	}

	ledgerOrder := model.Order{
		StrategyId: strategy.Id,
		Exchange:   strategy.Exchange,
		Symbol:     symbol,
		Operation:  model.OperationSell,
		Quantity:   order.ExecutedQty,
		Price:      price,
		Cost:       order.CummulativeQuoteQty,
		BaseTotal:  strategy.BaseTotal,
		QuoteTotal: strategy.QuoteTotal,
		ExternalId: &order.OrderId,
	}

	_, err = s.OrderRepository.Create(ledgerOrder)
	if err != nil {
		return 0.00, err
	}

	ledgerOrder.CreatedAt = time.Now().Format("2006-01-02 15:04:05")
	s.CallbackManager.SellOrder(ledgerOrder, *s.CurrentBot, awaitOrder.Reason)

	return order.ExecutedQty, nil
}

// ApplyOutcome decides where the strategy goes after a settled sell. Auto
// restarting take profit keeps the plan active with a fresh round, everything
// else drives the strategy to a terminal status.
func (s *SettlementService) ApplyOutcome(strategy *model.Strategy, awaitOrder model.AwaitOrder) error {
	if awaitOrder.IsUserRequested() {
		err := strategy.TransitionTo(model.StrategyStatusSoftDeleted, model.StopReasonUserDeleteSell)
		if err != nil {
			return err
		}

		strategy.ResetRound()

		return nil
	}

	if strategy.AutoRestart {
		strategy.ResetRound()

		return nil
	}

	err := strategy.TransitionTo(model.StrategyStatusClosed, model.StopReasonProfitAutoSell)
	if err != nil {
		return err
	}

	strategy.ResetRound()

	return nil
}
