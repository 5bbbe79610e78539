package exchange

import (
	"encoding/json"
	"log"
	"strings"

	"gitlab.com/open-soft/go-dca-bot/src/client"
	"gitlab.com/open-soft/go-dca-bot/src/model"
	"gitlab.com/open-soft/go-dca-bot/src/repository"
)

// PriceStreamService feeds the redis quote cache from the public bookTicker
// stream so scheduler ticks read fresh prices without spending request
// weight.
type PriceStreamService struct {
	Binance            *client.Binance
	StrategyRepository repository.StrategyStorageInterface
	StreamDSN          string
}

// GetStreamSymbols collects the distinct symbols of the active strategies for
// stream subscription.
func (p *PriceStreamService) GetStreamSymbols() []model.SymbolInterface {
	seen := make(map[string]bool)
	symbols := make([]model.SymbolInterface, 0)

	for _, strategy := range p.StrategyRepository.GetProtectedStrategies() {
		if strategy.Exchange != model.ExchangeBinance {
			continue
		}

		symbol := strategy.GetSymbol()
		if !seen[symbol] {
			seen[symbol] = true
			symbols = append(symbols, strategy)
		}
	}

	return symbols
}

// Start subscribes to the combined bookTicker stream and keeps reading until
// the process exits. Reconnects happen inside client.Listen.
func (p *PriceStreamService) Start() {
	symbols := p.GetStreamSymbols()

	if len(symbols) == 0 {
		log.Printf("Price stream: no active symbols to subscribe")
		return
	}

	events := []string{"@bookTicker"}

	for index, streams := range client.GetStreamBatch(symbols, events) {
		tradeChannel := make(chan []byte)

		go func(channel <-chan []byte) {
			for message := range channel {
				p.HandleMessage(message)
			}
		}(tradeChannel)

		client.Listen(p.StreamDSN, tradeChannel, streams, int64(index))
		log.Printf("Price stream [%d] subscribed: %s", index, strings.Join(streams, ", "))
	}
}

func (p *PriceStreamService) HandleMessage(message []byte) {
	if !strings.Contains(string(message), "bookTicker") {
		return
	}

	var event model.StreamTickerEvent
	err := json.Unmarshal(message, &event)
	if err != nil {
		log.Printf("Price stream: %s", err.Error())
		return
	}

	if event.Data.Symbol == "" {
		return
	}

	p.Binance.SaveQuote(event.Data.ToQuote())
}
