package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	uuid2 "github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"gitlab.com/open-soft/go-dca-bot/src/model"
)

const quoteCacheTtl = time.Second * 10
const marketLimitsCacheTtl = time.Hour

func QuoteCacheKey(exchange string, symbol string) string {
	return fmt.Sprintf("book-ticker-%s-%s", exchange, strings.ToLower(symbol))
}

// Binance talks to the ws-api over one shared websocket. Market data requests
// are unsigned, account and order requests are signed with the credentials of
// the calling strategy.
type Binance struct {
	DestinationWsDSN string

	connection   *websocket.Conn
	Channel      chan []byte
	SocketWriter chan []byte
	RDB          *redis.Client
	Ctx          *context.Context

	WaitMode  bool
	Connected bool
	Lock      *sync.Mutex
}

func (b *Binance) IsWaitingMode() bool {
	b.Lock.Lock()
	isWaiting := b.WaitMode
	b.Lock.Unlock()

	return isWaiting
}

func (b *Binance) SetWaitingMode(isEnabled bool) {
	b.Lock.Lock()
	b.WaitMode = isEnabled
	b.Lock.Unlock()
}

func (b *Binance) CheckWait() {
	for {
		if !b.IsWaitingMode() {
			break
		}
	}
}

func (b *Binance) Connect() {
	connection, _, err := websocket.DefaultDialer.Dial(b.DestinationWsDSN, nil)
	if err != nil {
		b.Connected = false
		log.Printf("Binance WS [%s]: %s, wait and reconnect...", b.DestinationWsDSN, err.Error())
		time.Sleep(time.Second * 10)
		b.Connect()
		return
	}

	// reader channel
	go func() {
		for {
			_, message, err := connection.ReadMessage()
			if err != nil {
				log.Println("read: ", err)

				_ = connection.Close()
				b.Connected = false
				log.Printf("Binance WS, wait and reconnect...")
				time.Sleep(time.Second * 10)
				b.Connect()
				return
			}

			b.Channel <- message
		}
	}()

	// writer channel
	go func() {
		for {
			serialized := <-b.SocketWriter
			_ = b.connection.WriteMessage(websocket.TextMessage, serialized)
		}
	}()

	b.connection = connection
	b.Connected = true
	b.connection.SetPingHandler(nil)
}

func (b *Binance) socketRequest(req model.SocketRequest, channel chan []byte) {
	b.CheckWait()

	go func(req model.SocketRequest) {
		for {
			msg := <-b.Channel

			if strings.Contains(string(msg), "Too much request weight used; current limit is 6000 request weight per 1 MINUTE") {
				b.SetWaitingMode(true)

				log.Printf(
					"[%s] Socket error [%s]: %s, wait 1 min and retry...",
					req.Method,
					req.Id,
					string(msg),
				)

				time.Sleep(time.Minute)
				serialized, _ := json.Marshal(req)
				b.SetWaitingMode(false)

				b.SocketWriter <- serialized
				log.Printf("[%s] retried...", req.Id)

				continue
			}

			if strings.Contains(string(msg), req.Id) {
				channel <- msg
				return
			}

			b.Channel <- msg
		}
	}(req)

	serialized, _ := json.Marshal(req)
	b.SocketWriter <- serialized
}

// GetQuote reads the redis cache first. The cache is fed by the public ticker
// stream and by this fallback path, so scheduler ticks rarely spend request
// weight on price lookups.
func (b *Binance) GetQuote(symbol string) (model.Quote, error) {
	res := b.RDB.Get(*b.Ctx, QuoteCacheKey("binance", symbol)).Val()
	if len(res) > 0 {
		var quote model.Quote
		err := json.Unmarshal([]byte(res), &quote)

		if err == nil && quote.Bid > 0 && quote.Ask > 0 {
			return quote, nil
		}
	}

	channel := make(chan []byte)
	defer close(channel)

	socketRequest := model.SocketRequest{
		Id:     uuid2.New().String(),
		Method: "ticker.book",
		Params: make(map[string]any),
	}
	socketRequest.Params["symbol"] = symbol
	b.socketRequest(socketRequest, channel)
	message := <-channel

	var response model.BookTickerResponse
	json.Unmarshal(message, &response)

	if response.Error != nil {
		return model.Quote{}, errors.New(response.Error.GetMessage())
	}

	quote := response.Result.ToQuote()
	b.SaveQuote(quote)

	return quote, nil
}

func (b *Binance) SaveQuote(quote model.Quote) {
	encoded, err := json.Marshal(quote)
	if err == nil {
		b.RDB.Set(*b.Ctx, QuoteCacheKey("binance", quote.Symbol), string(encoded), quoteCacheTtl)
	}
}

func (b *Binance) GetMarketLimits(symbol string) (model.MarketLimits, error) {
	cacheKey := fmt.Sprintf("market-limits-binance-%s", strings.ToLower(symbol))
	res := b.RDB.Get(*b.Ctx, cacheKey).Val()
	if len(res) > 0 {
		var limits model.MarketLimits
		err := json.Unmarshal([]byte(res), &limits)

		if err == nil {
			return limits, nil
		}
	}

	channel := make(chan []byte)
	defer close(channel)

	socketRequest := model.SocketRequest{
		Id:     uuid2.New().String(),
		Method: "exchangeInfo",
		Params: make(map[string]any),
	}
	socketRequest.Params["symbols"] = []string{symbol}
	b.socketRequest(socketRequest, channel)
	message := <-channel

	var response model.ExchangeInfoResponse
	json.Unmarshal(message, &response)

	if response.Error != nil {
		return model.MarketLimits{}, errors.New(response.Error.GetMessage())
	}

	for _, exchangeSymbol := range response.Result.Symbols {
		if exchangeSymbol.Symbol == symbol && exchangeSymbol.IsTrading() {
			limits := exchangeSymbol.ToMarketLimits()

			encoded, err := json.Marshal(limits)
			if err == nil {
				b.RDB.Set(*b.Ctx, cacheKey, string(encoded), marketLimitsCacheTtl)
			}

			return limits, nil
		}
	}

	return model.MarketLimits{}, errors.New(fmt.Sprintf("[%s] symbol is not trading on binance", symbol))
}

func (b *Binance) GetBalances(credentials model.ApiCredentials) (map[string]model.Balance, error) {
	channel := make(chan []byte)
	defer close(channel)

	socketRequest := model.SocketRequest{
		Id:     uuid2.New().String(),
		Method: "account.status",
		Params: make(map[string]any),
	}
	socketRequest.Params["apiKey"] = credentials.ApiKey
	socketRequest.Params["timestamp"] = time.Now().Unix() * 1000
	socketRequest.Params["signature"] = b.signature(credentials.ApiSecret, socketRequest.Params)
	b.socketRequest(socketRequest, channel)
	message := <-channel

	var response model.AccountStatusResponse
	json.Unmarshal(message, &response)

	if response.Error != nil {
		return nil, errors.New(response.Error.GetMessage())
	}

	balanceMap := make(map[string]model.Balance)
	for _, balance := range response.Result.Balances {
		balanceMap[balance.Asset] = balance
	}

	return balanceMap, nil
}

func (b *Binance) MarketOrder(credentials model.ApiCredentials, symbol string, side string, quantity float64) (model.ExchangeOrder, error) {
	channel := make(chan []byte)
	defer close(channel)

	socketRequest := model.SocketRequest{
		Id:     uuid2.New().String(),
		Method: "order.place",
		Params: make(map[string]any),
	}
	socketRequest.Params["symbol"] = symbol
	socketRequest.Params["side"] = strings.ToUpper(side)
	socketRequest.Params["type"] = "MARKET"
	socketRequest.Params["quantity"] = strconv.FormatFloat(quantity, 'f', -1, 64)
	socketRequest.Params["apiKey"] = credentials.ApiKey
	socketRequest.Params["timestamp"] = time.Now().Unix() * 1000
	socketRequest.Params["signature"] = b.signature(credentials.ApiSecret, socketRequest.Params)
	b.socketRequest(socketRequest, channel)
	message := <-channel

	var response model.ExchangeOrderResponse
	json.Unmarshal(message, &response)

	if response.Error != nil {
		log.Printf("[%s] Market Order: %s", symbol, response.Error.GetMessage())

		if response.Error.IsNotional() {
			log.Printf("[%s] Sleep 1 minute", symbol)
			time.Sleep(time.Minute)
		}

		return model.ExchangeOrder{}, errors.New(response.Error.GetMessage())
	}

	return response.Result, nil
}

func (b *Binance) signature(apiSecret string, params map[string]any) string {
	parts := make([]string, 0)

	keys := make([]string, 0, len(params))

	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, params[key]))
	}

	mac := hmac.New(sha256.New, []byte(apiSecret))
	mac.Write([]byte(strings.Join(parts, "&")))

	return fmt.Sprintf("%x", mac.Sum(nil))
}
