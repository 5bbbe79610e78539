package dca

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gitlab.com/open-soft/go-dca-bot/src/client"
	"gitlab.com/open-soft/go-dca-bot/src/model"
	"gitlab.com/open-soft/go-dca-bot/src/utils"
)

func newSettlementFixture() (*SettlementService, *StrategyStorageMock, *AwaitOrderStorageMock, *OrderStorageMock, *ExchangeGatewayMock, *VaultMock, *CallbackManagerMock) {
	strategyRepository := new(StrategyStorageMock)
	awaitOrderRepository := new(AwaitOrderStorageMock)
	orderRepository := new(OrderStorageMock)
	gateway := new(ExchangeGatewayMock)
	vault := new(VaultMock)
	callbackManager := new(CallbackManagerMock)

	registry := client.NewGatewayRegistry()
	registry.Register(model.ExchangeBinance, gateway)

	settlementService := &SettlementService{
		StrategyRepository:   strategyRepository,
		AwaitOrderRepository: awaitOrderRepository,
		OrderRepository:      orderRepository,
		GatewayRegistry:      registry,
		Vault:                vault,
		Formatter:            &utils.Formatter{},
		CallbackManager:      callbackManager,
		CurrentBot:           &model.Bot{Id: 1, BotUuid: "test-bot"},
		ClaimLease:           time.Minute * 30,
	}

	return settlementService, strategyRepository, awaitOrderRepository, orderRepository, gateway, vault, callbackManager
}

func newSellableStrategy() model.Strategy {
	strategy := newProtectedStrategy()
	strategy.BuyCount = 4
	strategy.BaseTotal = 1000.00
	strategy.QuoteTotal = 0.02

	return strategy
}

func expectSellExecution(strategy model.Strategy, gateway *ExchangeGatewayMock, vault *VaultMock, orderRepository *OrderStorageMock, callbackManager *CallbackManagerMock) {
	credentials := model.ApiCredentials{ApiKey: "key", ApiSecret: "secret"}

	vault.On("DecryptCredentials", "encrypted").Return(credentials, nil)
	gateway.On("GetMarketLimits", "BTCUSDT").Return(model.MarketLimits{
		Symbol:      "BTCUSDT",
		MinNotional: 5.00,
		MinQuantity: 0.00001,
		MinPrice:    0.01,
	}, nil)
	gateway.On("MarketOrder", credentials, "BTCUSDT", "SELL", strategy.RoundQuoteTotal).Return(model.ExchangeOrder{
		OrderId:             777,
		Symbol:              "BTCUSDT",
		Side:                "SELL",
		Status:              "FILLED",
		ExecutedQty:         strategy.RoundQuoteTotal,
		CummulativeQuoteQty: strategy.RoundQuoteTotal * 95000.00,
	}, nil)
	orderRepository.On("Create", mock.Anything).Return(2, nil)
	callbackManager.On("SellOrder", mock.Anything, mock.Anything, mock.Anything).Return()
}

func TestSettlementAutoRestartResetsRound(t *testing.T) {
	assertion := assert.New(t)
	settlementService, strategyRepository, awaitOrderRepository, orderRepository, gateway, vault, callbackManager := newSettlementFixture()

	strategy := newSellableStrategy()
	strategy.AutoRestart = true
	now := time.Now()

	awaitOrder := model.AwaitOrder{
		Id:         3,
		StrategyId: strategy.Id,
		Reason:     model.AwaitReasonAutoTakeProfit,
		Status:     model.AwaitStatusWaiting,
	}

	awaitOrderRepository.On("Claim", awaitOrder, now, time.Minute*30).Return(nil)
	strategyRepository.On("Find", strategy.Id).Return(strategy, nil)
	expectSellExecution(strategy, gateway, vault, orderRepository, callbackManager)
	awaitOrderRepository.On("Complete", awaitOrder).Return(nil)
	strategyRepository.On("Update", mock.Anything).Return(nil)

	err := settlementService.Settle(awaitOrder, now)

	assertion.NoError(err)
	saved := strategyRepository.savedStrategy
	assertion.Equal(model.StrategyStatusActive, saved.Status)
	assertion.Equal(int64(0), saved.RoundBuyCount)
	assertion.Equal(0.00, saved.RoundQuoteTotal)
	assertion.Equal(0.00, saved.RoundBaseTotal)
	assertion.Nil(saved.HighWaterPrice)
	// sold quantity left the cumulative holding
	assertion.Equal(0.00, saved.QuoteTotal)
	assertion.Equal(model.OperationSell, orderRepository.savedOrder.Operation)
}

func TestSettlementWithoutAutoRestartClosesStrategy(t *testing.T) {
	assertion := assert.New(t)
	settlementService, strategyRepository, awaitOrderRepository, orderRepository, gateway, vault, callbackManager := newSettlementFixture()

	strategy := newSellableStrategy()
	strategy.AutoRestart = false
	now := time.Now()

	awaitOrder := model.AwaitOrder{
		Id:         4,
		StrategyId: strategy.Id,
		Reason:     model.AwaitReasonAutoTakeProfit,
		Status:     model.AwaitStatusWaiting,
	}

	awaitOrderRepository.On("Claim", awaitOrder, now, time.Minute*30).Return(nil)
	strategyRepository.On("Find", strategy.Id).Return(strategy, nil)
	expectSellExecution(strategy, gateway, vault, orderRepository, callbackManager)
	awaitOrderRepository.On("Complete", awaitOrder).Return(nil)
	strategyRepository.On("Update", mock.Anything).Return(nil)

	err := settlementService.Settle(awaitOrder, now)

	assertion.NoError(err)
	saved := strategyRepository.savedStrategy
	assertion.Equal(model.StrategyStatusClosed, saved.Status)
	assertion.Equal(model.StopReasonProfitAutoSell, *saved.StopReason)
}

func TestSettlementUserCloseSoftDeletesStrategy(t *testing.T) {
	assertion := assert.New(t)
	settlementService, strategyRepository, awaitOrderRepository, orderRepository, gateway, vault, callbackManager := newSettlementFixture()

	strategy := newSellableStrategy()
	strategy.AutoRestart = true
	now := time.Now()

	awaitOrder := model.AwaitOrder{
		Id:         5,
		StrategyId: strategy.Id,
		Reason:     model.AwaitReasonUserRequestedClose,
		Status:     model.AwaitStatusWaiting,
	}

	awaitOrderRepository.On("Claim", awaitOrder, now, time.Minute*30).Return(nil)
	strategyRepository.On("Find", strategy.Id).Return(strategy, nil)
	expectSellExecution(strategy, gateway, vault, orderRepository, callbackManager)
	awaitOrderRepository.On("Complete", awaitOrder).Return(nil)
	strategyRepository.On("Update", mock.Anything).Return(nil)

	err := settlementService.Settle(awaitOrder, now)

	assertion.NoError(err)
	saved := strategyRepository.savedStrategy
	assertion.Equal(model.StrategyStatusSoftDeleted, saved.Status)
	assertion.Equal(model.StopReasonUserDeleteSell, *saved.StopReason)
}

// a buy registered between the sweep's read and write must survive the
// version-race retry
func TestSettlementStaleRetryKeepsConcurrentBuy(t *testing.T) {
	assertion := assert.New(t)
	settlementService, strategyRepository, awaitOrderRepository, orderRepository, gateway, vault, callbackManager := newSettlementFixture()

	strategy := newSellableStrategy()
	strategy.AutoRestart = true
	strategy.QuoteTotal = 0.03
	now := time.Now()

	awaitOrder := model.AwaitOrder{
		Id:         8,
		StrategyId: strategy.Id,
		Reason:     model.AwaitReasonAutoTakeProfit,
		Status:     model.AwaitStatusWaiting,
	}

	// the concurrent buy added 0.01 and bumped the version
	fresh := strategy
	fresh.QuoteTotal = 0.04
	fresh.Version = strategy.Version + 1

	awaitOrderRepository.On("Claim", awaitOrder, now, time.Minute*30).Return(nil)
	strategyRepository.On("Find", strategy.Id).Return(strategy, nil).Once()
	expectSellExecution(strategy, gateway, vault, orderRepository, callbackManager)
	awaitOrderRepository.On("Complete", awaitOrder).Return(nil)
	strategyRepository.On("Update", mock.Anything).Return(model.ErrStaleStrategy).Once()
	strategyRepository.On("Find", strategy.Id).Return(fresh, nil).Once()
	strategyRepository.On("Update", mock.Anything).Return(nil).Once()

	err := settlementService.Settle(awaitOrder, now)

	assertion.NoError(err)
	saved := strategyRepository.savedStrategy
	// the sold 0.02 is deducted from the re-read 0.04, the 0.01 buy survives
	assertion.InDelta(0.02, saved.QuoteTotal, 1e-9)
	assertion.Equal(model.StrategyStatusActive, saved.Status)
	assertion.Equal(0.00, saved.RoundQuoteTotal)
	assertion.Equal(fresh.Version, saved.Version)
}

// a round holding below the venue minimum can never fill a sell order, the
// intent is settled without one instead of cycling on lease reclaim
func TestSettlementDustHoldingSettlesWithoutSell(t *testing.T) {
	assertion := assert.New(t)
	settlementService, strategyRepository, awaitOrderRepository, orderRepository, gateway, vault, _ := newSettlementFixture()

	strategy := newSellableStrategy()
	strategy.AutoRestart = false
	strategy.RoundQuoteTotal = 0.000001
	now := time.Now()

	awaitOrder := model.AwaitOrder{
		Id:         9,
		StrategyId: strategy.Id,
		Reason:     model.AwaitReasonAutoTakeProfit,
		Status:     model.AwaitStatusWaiting,
	}

	awaitOrderRepository.On("Claim", awaitOrder, now, time.Minute*30).Return(nil)
	strategyRepository.On("Find", strategy.Id).Return(strategy, nil)
	vault.On("DecryptCredentials", "encrypted").Return(model.ApiCredentials{ApiKey: "key", ApiSecret: "secret"}, nil)
	gateway.On("GetMarketLimits", "BTCUSDT").Return(model.MarketLimits{
		Symbol:      "BTCUSDT",
		MinNotional: 5.00,
		MinQuantity: 0.00001,
		MinPrice:    0.01,
	}, nil)
	awaitOrderRepository.On("Complete", awaitOrder).Return(nil)
	strategyRepository.On("Update", mock.Anything).Return(nil)

	err := settlementService.Settle(awaitOrder, now)

	assertion.NoError(err)
	gateway.AssertNotCalled(t, "MarketOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	orderRepository.AssertNotCalled(t, "Create", mock.Anything)
	awaitOrderRepository.AssertCalled(t, "Complete", awaitOrder)
	saved := strategyRepository.savedStrategy
	assertion.Equal(model.StrategyStatusClosed, saved.Status)
	assertion.Equal(0.00, saved.RoundQuoteTotal)
}

func TestSettlementClaimLossIsSilentNoOp(t *testing.T) {
	assertion := assert.New(t)
	settlementService, strategyRepository, awaitOrderRepository, _, gateway, _, _ := newSettlementFixture()

	now := time.Now()
	awaitOrder := model.AwaitOrder{Id: 6, StrategyId: 10, Status: model.AwaitStatusWaiting}

	awaitOrderRepository.On("Claim", awaitOrder, now, time.Minute*30).Return(model.ErrAlreadyClaimed)

	err := settlementService.Settle(awaitOrder, now)

	assertion.ErrorIs(err, model.ErrAlreadyClaimed)
	strategyRepository.AssertNotCalled(t, "Find", mock.Anything)
	gateway.AssertNotCalled(t, "MarketOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementMissingStrategyCompletesIntent(t *testing.T) {
	assertion := assert.New(t)
	settlementService, strategyRepository, awaitOrderRepository, _, gateway, _, _ := newSettlementFixture()

	now := time.Now()
	awaitOrder := model.AwaitOrder{Id: 7, StrategyId: 404, Status: model.AwaitStatusWaiting}

	awaitOrderRepository.On("Claim", awaitOrder, now, time.Minute*30).Return(nil)
	strategyRepository.On("Find", int64(404)).Return(model.Strategy{}, model.ErrStrategyNotFound)
	awaitOrderRepository.On("Complete", awaitOrder).Return(nil)

	err := settlementService.Settle(awaitOrder, now)

	assertion.NoError(err)
	gateway.AssertNotCalled(t, "MarketOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	awaitOrderRepository.AssertCalled(t, "Complete", awaitOrder)
}

// inMemoryAwaitQueue reproduces the storage-level claim arbitration: the
// conditional update runs under one lock, exactly as a single SQL UPDATE does.
type inMemoryAwaitQueue struct {
	mu     sync.Mutex
	orders map[int64]*model.AwaitOrder
}

func (q *inMemoryAwaitQueue) Claim(awaitOrder model.AwaitOrder, now time.Time, lease time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	stored, ok := q.orders[awaitOrder.Id]
	if !ok {
		return model.ErrAlreadyClaimed
	}

	claimable := stored.Status == model.AwaitStatusWaiting ||
		(stored.Status == model.AwaitStatusProcessing && stored.IsLeaseExpired(now, lease))

	if !claimable {
		return model.ErrAlreadyClaimed
	}

	claimedAt := now.Format("2006-01-02 15:04:05")
	stored.Status = model.AwaitStatusProcessing
	stored.ClaimedAt = &claimedAt

	return nil
}

func (q *inMemoryAwaitQueue) Complete(awaitOrder model.AwaitOrder) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	stored, ok := q.orders[awaitOrder.Id]
	if !ok || stored.Status != model.AwaitStatusProcessing {
		return model.ErrAlreadyClaimed
	}

	stored.Status = model.AwaitStatusCompleted

	return nil
}

func TestClaimIsAtMostOnceUnderConcurrency(t *testing.T) {
	assertion := assert.New(t)

	queue := &inMemoryAwaitQueue{
		orders: map[int64]*model.AwaitOrder{
			1: {Id: 1, StrategyId: 10, Status: model.AwaitStatusWaiting},
		},
	}

	now := time.Now()
	workers := 32

	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- queue.Claim(model.AwaitOrder{Id: 1}, now, time.Minute*30)
		}()
	}

	wg.Wait()
	close(results)

	wins := 0
	losses := 0
	for err := range results {
		if err == nil {
			wins++
			continue
		}

		assertion.ErrorIs(err, model.ErrAlreadyClaimed)
		losses++
	}

	assertion.Equal(1, wins)
	assertion.Equal(workers-1, losses)

	// settle once, the record is completed exactly once and never regresses
	assertion.NoError(queue.Complete(model.AwaitOrder{Id: 1}))
	assertion.ErrorIs(queue.Complete(model.AwaitOrder{Id: 1}), model.ErrAlreadyClaimed)
	assertion.Equal(model.AwaitStatusCompleted, queue.orders[1].Status)

	// a completed intent is not claimable either, even after the lease window
	assertion.ErrorIs(queue.Claim(model.AwaitOrder{Id: 1}, now.Add(time.Hour), time.Minute*30), model.ErrAlreadyClaimed)
}

func TestExpiredLeaseIsReclaimable(t *testing.T) {
	assertion := assert.New(t)

	claimedAt := time.Now().Add(-time.Hour).Format("2006-01-02 15:04:05")
	queue := &inMemoryAwaitQueue{
		orders: map[int64]*model.AwaitOrder{
			1: {Id: 1, StrategyId: 10, Status: model.AwaitStatusProcessing, ClaimedAt: &claimedAt},
		},
	}

	err := queue.Claim(model.AwaitOrder{Id: 1}, time.Now(), time.Minute*30)

	assertion.NoError(err)
	assertion.Equal(model.AwaitStatusProcessing, queue.orders[1].Status)
}
