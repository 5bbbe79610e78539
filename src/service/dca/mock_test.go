package dca

import (
	"time"

	"github.com/stretchr/testify/mock"

	"gitlab.com/open-soft/go-dca-bot/src/model"
)

type StrategyStorageMock struct {
	mock.Mock
	savedStrategy model.Strategy
}

func (m *StrategyStorageMock) Create(strategy model.Strategy) (*int64, error) {
	args := m.Called(strategy)
	id := int64(args.Int(0))
	return &id, args.Error(1)
}
func (m *StrategyStorageMock) Find(id int64) (model.Strategy, error) {
	args := m.Called(id)
	return args.Get(0).(model.Strategy), args.Error(1)
}
func (m *StrategyStorageMock) Update(strategy model.Strategy) error {
	m.savedStrategy = strategy
	args := m.Called(strategy)
	return args.Error(0)
}
func (m *StrategyStorageMock) GetStrategiesByMinute(minute int64) []model.Strategy {
	args := m.Called(minute)
	return args.Get(0).([]model.Strategy)
}
func (m *StrategyStorageMock) GetProtectedStrategies() []model.Strategy {
	args := m.Called()
	return args.Get(0).([]model.Strategy)
}
func (m *StrategyStorageMock) GetStrategiesByOwner(ownerId int64) []model.Strategy {
	args := m.Called(ownerId)
	return args.Get(0).([]model.Strategy)
}

type AwaitOrderStorageMock struct {
	mock.Mock
	savedAwaitOrder model.AwaitOrder
}

func (m *AwaitOrderStorageMock) Create(awaitOrder model.AwaitOrder) (*int64, error) {
	m.savedAwaitOrder = awaitOrder
	args := m.Called(awaitOrder)
	id := int64(args.Int(0))
	return &id, args.Error(1)
}
func (m *AwaitOrderStorageMock) Find(id int64) (model.AwaitOrder, error) {
	args := m.Called(id)
	return args.Get(0).(model.AwaitOrder), args.Error(1)
}
func (m *AwaitOrderStorageMock) HasOpenIntent(strategyId int64) bool {
	args := m.Called(strategyId)
	return args.Bool(0)
}
func (m *AwaitOrderStorageMock) GetPending(now time.Time, lease time.Duration) []model.AwaitOrder {
	args := m.Called(now, lease)
	return args.Get(0).([]model.AwaitOrder)
}
func (m *AwaitOrderStorageMock) Claim(awaitOrder model.AwaitOrder, now time.Time, lease time.Duration) error {
	args := m.Called(awaitOrder, now, lease)
	return args.Error(0)
}
func (m *AwaitOrderStorageMock) Complete(awaitOrder model.AwaitOrder) error {
	args := m.Called(awaitOrder)
	return args.Error(0)
}

type OrderStorageMock struct {
	mock.Mock
	savedOrder model.Order
}

func (m *OrderStorageMock) Create(order model.Order) (*int64, error) {
	m.savedOrder = order
	args := m.Called(order)
	id := int64(args.Int(0))
	return &id, args.Error(1)
}
func (m *OrderStorageMock) Find(id int64) (model.Order, error) {
	args := m.Called(id)
	return args.Get(0).(model.Order), args.Error(1)
}
func (m *OrderStorageMock) GetOrderList(strategyId int64) []model.Order {
	args := m.Called(strategyId)
	return args.Get(0).([]model.Order)
}

type VaultMock struct {
	mock.Mock
}

func (m *VaultMock) EncryptCredentials(credentials model.ApiCredentials) (string, error) {
	args := m.Called(credentials)
	return args.String(0), args.Error(1)
}
func (m *VaultMock) DecryptCredentials(encrypted string) (model.ApiCredentials, error) {
	args := m.Called(encrypted)
	return args.Get(0).(model.ApiCredentials), args.Error(1)
}

type BalanceServiceMock struct {
	mock.Mock
}

func (m *BalanceServiceMock) GetAssetBalance(strategy model.Strategy, credentials model.ApiCredentials, asset string, cache bool) (float64, error) {
	args := m.Called(strategy, credentials, asset, cache)
	return args.Get(0).(float64), args.Error(1)
}
func (m *BalanceServiceMock) InvalidateBalanceCache(strategy model.Strategy, asset string) {
	m.Called(strategy, asset)
}

type CallbackManagerMock struct {
	mock.Mock
}

func (m *CallbackManagerMock) Error(bot model.Bot, code string, message string, stop bool) {
	m.Called(bot, code, message, stop)
}
func (m *CallbackManagerMock) SellOrder(order model.Order, bot model.Bot, details string) {
	m.Called(order, bot, details)
}
func (m *CallbackManagerMock) BuyOrder(order model.Order, bot model.Bot, details string) {
	m.Called(order, bot, details)
}

type ExchangeGatewayMock struct {
	mock.Mock
}

func (m *ExchangeGatewayMock) GetQuote(symbol string) (model.Quote, error) {
	args := m.Called(symbol)
	return args.Get(0).(model.Quote), args.Error(1)
}
func (m *ExchangeGatewayMock) GetMarketLimits(symbol string) (model.MarketLimits, error) {
	args := m.Called(symbol)
	return args.Get(0).(model.MarketLimits), args.Error(1)
}
func (m *ExchangeGatewayMock) GetBalances(credentials model.ApiCredentials) (map[string]model.Balance, error) {
	args := m.Called(credentials)
	return args.Get(0).(map[string]model.Balance), args.Error(1)
}
func (m *ExchangeGatewayMock) MarketOrder(credentials model.ApiCredentials, symbol string, side string, quantity float64) (model.ExchangeOrder, error) {
	args := m.Called(credentials, symbol, side, quantity)
	return args.Get(0).(model.ExchangeOrder), args.Error(1)
}
