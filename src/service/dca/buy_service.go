package dca

import (
	"log"
	"math"
	"time"

	"gitlab.com/open-soft/go-dca-bot/src/client"
	"gitlab.com/open-soft/go-dca-bot/src/model"
	"gitlab.com/open-soft/go-dca-bot/src/repository"
	"gitlab.com/open-soft/go-dca-bot/src/service"
	"gitlab.com/open-soft/go-dca-bot/src/service/exchange"
	"gitlab.com/open-soft/go-dca-bot/src/utils"
	"gitlab.com/open-soft/go-dca-bot/src/validator"
)

// BuyService runs the periodic purchase path. Strategies are processed
// sequentially, one failing strategy never blocks the rest of the tick.
type BuyService struct {
	StrategyRepository repository.StrategyStorageInterface
	OrderRepository    repository.OrderStorageInterface
	GatewayRegistry    *client.GatewayRegistry
	Vault              service.VaultInterface
	BalanceService     exchange.BalanceServiceInterface
	PurchaseValidator  *validator.PurchaseValidator
	Formatter          *utils.Formatter
	CallbackManager    service.CallbackManagerInterface
	CurrentBot         *model.Bot
}

func (b *BuyService) RunBuyTick(now time.Time) {
	strategies := b.StrategyRepository.GetStrategiesByMinute(int64(now.Minute()))

	for _, strategy := range strategies {
		if !strategy.IsDueAt(now) {
			continue
		}

		err := b.ProcessPurchase(strategy)

		if err == nil {
			continue
		}

		if model.IsPurchaseCondition(err) {
			log.Printf("[%s] Buy tick skipped: %s", strategy.GetSymbol(), err.Error())
			continue
		}

		log.Printf("[%s] Buy tick failed: %s", strategy.GetSymbol(), err.Error())
		b.CallbackManager.Error(*b.CurrentBot, "buy_tick_failed", err.Error(), false)
	}
}

func (b *BuyService) ProcessPurchase(strategy model.Strategy) error {
	symbol := strategy.GetSymbol()

	if !strategy.IsActive() {
		return model.StrategyNotActiveError{Symbol: symbol, Status: strategy.Status}
	}

	gateway, err := b.GatewayRegistry.Get(strategy.Exchange)
	if err != nil {
		return err
	}

	credentials, err := b.Vault.DecryptCredentials(strategy.EncryptedCredentials)
	if err != nil {
		return err
	}

	quote, err := gateway.GetQuote(symbol)
	if err != nil {
		return err
	}

	limits, err := gateway.GetMarketLimits(symbol)
	if err != nil {
		return err
	}

	amount := b.CalculatePurchaseAmount(strategy, quote.Ask)
	if amount == 0.00 {
		return model.InsufficientPurchaseAmountError{Symbol: symbol}
	}

	cost := amount * quote.Ask

	available, err := b.BalanceService.GetAssetBalance(strategy, credentials, strategy.BaseSymbol, true)
	if err != nil {
		return err
	}

	err = b.PurchaseValidator.Validate(strategy, limits, amount, cost, available)
	if err != nil {
		return err
	}

	order, err := gateway.MarketOrder(credentials, symbol, "BUY", b.Formatter.FormatQuantity(limits, amount))
	if err != nil {
		return err
	}

	executedQty := order.ExecutedQty
	executedCost := order.CummulativeQuoteQty
	price := order.GetAvgPrice()
	if price == 0.00 {
		price = quote.Ask
	}
	price = b.Formatter.FormatPrice(limits, price)

	strategy.RegisterFill(executedQty, executedCost)

	_, err = b.OrderRepository.Create(model.Order{
		StrategyId: strategy.Id,
		Exchange:   strategy.Exchange,
		Symbol:     symbol,
		Operation:  model.OperationBuy,
		Quantity:   executedQty,
		Price:      price,
		Cost:       executedCost,
		BaseTotal:  strategy.BaseTotal,
		QuoteTotal: strategy.QuoteTotal,
		ExternalId: &order.OrderId,
	})
	if err != nil {
		return err
	}

	err = b.StrategyRepository.Update(strategy)
	if err == model.ErrStaleStrategy {
		// one retry on a fresh copy, the fill is already executed and must
		// not be lost
		fresh, findErr := b.StrategyRepository.Find(strategy.Id)
		if findErr != nil {
			return findErr
		}

		fresh.RegisterFill(executedQty, executedCost)
		err = b.StrategyRepository.Update(fresh)
	}
	if err != nil {
		return err
	}

	b.BalanceService.InvalidateBalanceCache(strategy, strategy.BaseSymbol)
	b.CallbackManager.BuyOrder(model.Order{
		StrategyId: strategy.Id,
		Symbol:     symbol,
		Operation:  model.OperationBuy,
		Quantity:   executedQty,
		Price:      price,
		CreatedAt:  time.Now().Format("2006-01-02 15:04:05"),
	}, *b.CurrentBot, "Recurring purchase executed")

	return nil
}

// CalculatePurchaseAmount sizes the buy in quote asset. Fixed mode spends the
// configured base amount every time. Value averaging targets a holding worth
// that compounds by the growth rate per executed buy of the current round and
// only buys the shortfall, a zero result means the target is already covered.
func (b *BuyService) CalculatePurchaseAmount(strategy model.Strategy, ask float64) float64 {
	if !strategy.IsValueAveraging() {
		return strategy.BaseLimit / ask
	}

	nowWorth := strategy.RoundQuoteTotal * ask
	expectedWorth := strategy.BaseLimit * math.Pow(1.00+strategy.GrowthRate, float64(strategy.RoundBuyCount))
	funds := expectedWorth - nowWorth

	if funds <= 0.00 {
		return 0.00
	}

	return funds / ask
}
