package client

import (
	"errors"
	"fmt"
	"sync"

	"gitlab.com/open-soft/go-dca-bot/src/model"
)

// ExchangeGatewayInterface is the capability set the engine needs from a
// trading venue. Credentials are supplied per call, one adapter is registered
// per venue id.
type ExchangeGatewayInterface interface {
	GetQuote(symbol string) (model.Quote, error)
	GetMarketLimits(symbol string) (model.MarketLimits, error)
	GetBalances(credentials model.ApiCredentials) (map[string]model.Balance, error)
	MarketOrder(credentials model.ApiCredentials, symbol string, side string, quantity float64) (model.ExchangeOrder, error)
}

type GatewayRegistry struct {
	gateways map[string]ExchangeGatewayInterface
	mutex    sync.RWMutex
}

func NewGatewayRegistry() *GatewayRegistry {
	return &GatewayRegistry{
		gateways: make(map[string]ExchangeGatewayInterface),
	}
}

func (r *GatewayRegistry) Register(exchange string, gateway ExchangeGatewayInterface) {
	r.mutex.Lock()
	r.gateways[exchange] = gateway
	r.mutex.Unlock()
}

func (r *GatewayRegistry) Get(exchange string) (ExchangeGatewayInterface, error) {
	r.mutex.RLock()
	gateway, ok := r.gateways[exchange]
	r.mutex.RUnlock()

	if !ok {
		return nil, errors.New(fmt.Sprintf("exchange gateway [%s] is not registered", exchange))
	}

	return gateway, nil
}
