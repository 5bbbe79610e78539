package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"gitlab.com/open-soft/go-dca-bot/src/model"
)

// ByBit is a REST gateway for the v5 spot API. Market data endpoints are
// public, wallet and order endpoints are signed with the credentials of the
// calling strategy.
type ByBit struct {
	HttpClient HttpClientInterface
	DSN        string

	RDB *redis.Client
	Ctx *context.Context
}

func (b *ByBit) GetQuote(symbol string) (model.Quote, error) {
	res := b.RDB.Get(*b.Ctx, QuoteCacheKey("bybit", symbol)).Val()
	if len(res) > 0 {
		var quote model.Quote
		err := json.Unmarshal([]byte(res), &quote)

		if err == nil && quote.Bid > 0 && quote.Ask > 0 {
			return quote, nil
		}
	}

	queryString := fmt.Sprintf("category=spot&symbol=%s", symbol)
	result, err := b.HttpClient.Get(fmt.Sprintf(
		"%s/v5/market/tickers?%s",
		b.DSN,
		queryString,
	), nil)
	if err != nil {
		return model.Quote{}, err
	}

	var tickerResponse model.ByBitTickerResponse
	err = json.Unmarshal(result, &tickerResponse)
	if err != nil {
		log.Printf("[%s] GetQuote: %s", symbol, err.Error())
		return model.Quote{}, err
	}

	if tickerResponse.Message != "OK" {
		log.Printf("[%s] GetQuote: %s", symbol, tickerResponse.Message)
		return model.Quote{}, errors.New(tickerResponse.Message)
	}

	for _, byBitTicker := range tickerResponse.Result.List {
		if byBitTicker.Symbol == symbol {
			quote := byBitTicker.ToQuote()
			b.SaveQuote(quote)

			return quote, nil
		}
	}

	return model.Quote{}, errors.New(fmt.Sprintf("[%s] ticker is not found", symbol))
}

func (b *ByBit) SaveQuote(quote model.Quote) {
	encoded, err := json.Marshal(quote)
	if err == nil {
		b.RDB.Set(*b.Ctx, QuoteCacheKey("bybit", quote.Symbol), string(encoded), quoteCacheTtl)
	}
}

func (b *ByBit) GetMarketLimits(symbol string) (model.MarketLimits, error) {
	cacheKey := fmt.Sprintf("market-limits-bybit-%s", strings.ToLower(symbol))
	res := b.RDB.Get(*b.Ctx, cacheKey).Val()
	if len(res) > 0 {
		var limits model.MarketLimits
		err := json.Unmarshal([]byte(res), &limits)

		if err == nil {
			return limits, nil
		}
	}

	queryString := fmt.Sprintf("category=spot&symbol=%s", symbol)
	result, err := b.HttpClient.Get(fmt.Sprintf(
		"%s/v5/market/instruments-info?%s",
		b.DSN,
		queryString,
	), nil)
	if err != nil {
		return model.MarketLimits{}, err
	}

	var instrumentResponse model.ByBitInstrumentResponse
	err = json.Unmarshal(result, &instrumentResponse)
	if err != nil {
		log.Printf("[%s] GetMarketLimits: %s", symbol, err.Error())
		return model.MarketLimits{}, err
	}

	if instrumentResponse.Message != "OK" {
		log.Printf("[%s] GetMarketLimits: %s", symbol, instrumentResponse.Message)
		return model.MarketLimits{}, errors.New(instrumentResponse.Message)
	}

	for _, instrument := range instrumentResponse.Result.List {
		if instrument.Symbol == symbol {
			limits := instrument.ToMarketLimits()
			encoded, err := json.Marshal(limits)
			if err == nil {
				b.RDB.Set(*b.Ctx, cacheKey, string(encoded), marketLimitsCacheTtl)
			}

			return limits, nil
		}
	}

	return model.MarketLimits{}, errors.New(fmt.Sprintf("[%s] instrument is not found", symbol))
}

func (b *ByBit) GetBalances(credentials model.ApiCredentials) (map[string]model.Balance, error) {
	queryString := "accountType=UNIFIED"
	result, err := b.HttpClient.Get(fmt.Sprintf(
		"%s/v5/account/wallet-balance?%s",
		b.DSN,
		queryString,
	), b.GetHeaders(credentials, queryString))
	if err != nil {
		return nil, err
	}

	var balanceResponse model.ByBitWalletBalanceResponse
	err = json.Unmarshal(result, &balanceResponse)
	if err != nil {
		log.Printf("GetBalances: %s", err.Error())
		return nil, err
	}

	if balanceResponse.Message != "OK" {
		log.Printf("GetBalances: %s", balanceResponse.Message)
		return nil, errors.New(balanceResponse.Message)
	}

	balances := make(map[string]model.Balance)
	for _, account := range balanceResponse.Result.List {
		if account.AccountType == "UNIFIED" {
			for _, coin := range account.Coin {
				balances[coin.Coin] = coin.ToBalance()
			}
		}
	}

	return balances, nil
}

func (b *ByBit) MarketOrder(credentials model.ApiCredentials, symbol string, side string, quantity float64) (model.ExchangeOrder, error) {
	requestBody := map[string]any{
		"category":  "spot",
		"symbol":    symbol,
		"side":      b.mapSide(side),
		"orderType": "Market",
		"qty":       strconv.FormatFloat(quantity, 'f', -1, 64),
	}
	encoded, err := json.Marshal(requestBody)
	if err != nil {
		return model.ExchangeOrder{}, err
	}

	result, err := b.HttpClient.Post(
		fmt.Sprintf("%s/v5/order/create", b.DSN),
		encoded,
		b.GetHeaders(credentials, string(encoded)),
	)
	if err != nil {
		return model.ExchangeOrder{}, err
	}

	var createResponse model.ByBitOrderCreateResponse
	err = json.Unmarshal(result, &createResponse)
	if err != nil {
		log.Printf("[%s] MarketOrder: %s", symbol, err.Error())
		return model.ExchangeOrder{}, err
	}

	if createResponse.Message != "OK" {
		log.Printf("[%s] MarketOrder: %s", symbol, createResponse.Message)
		return model.ExchangeOrder{}, errors.New(createResponse.Message)
	}

	return b.queryOrder(credentials, symbol, createResponse.Result.OrderId)
}

// queryOrder reads back the executed quantity and cost of a fresh market
// order. The create endpoint responds with the order id only.
func (b *ByBit) queryOrder(credentials model.ApiCredentials, symbol string, orderId string) (model.ExchangeOrder, error) {
	queryString := fmt.Sprintf("category=spot&limit=1&orderId=%s&symbol=%s&openOnly=0", orderId, symbol)
	result, err := b.HttpClient.Get(
		fmt.Sprintf("%s/v5/order/realtime?%s", b.DSN, queryString),
		b.GetHeaders(credentials, queryString),
	)
	if err != nil {
		return model.ExchangeOrder{}, err
	}

	var orderListResponse model.ByBitOrderListResponse
	err = json.Unmarshal(result, &orderListResponse)
	if err != nil {
		log.Printf("[%s] queryOrder: %s", symbol, err.Error())
		return model.ExchangeOrder{}, err
	}

	if orderListResponse.Message != "OK" {
		log.Printf("[%s] queryOrder: %s", symbol, orderListResponse.Message)
		return model.ExchangeOrder{}, errors.New(orderListResponse.Message)
	}

	for _, byBitOrder := range orderListResponse.Result.List {
		if byBitOrder.OrderId == orderId {
			return byBitOrder.ToExchangeOrder()
		}
	}

	return model.ExchangeOrder{}, errors.New(fmt.Sprintf("[%s] order %s is not found", symbol, orderId))
}

func (b *ByBit) mapSide(side string) string {
	if side == "SELL" {
		return "Sell"
	}

	return "Buy"
}

func (b *ByBit) GetHeaders(credentials model.ApiCredentials, payload string) map[string]string {
	timestamp := time.Now().UnixMilli()
	val := strconv.FormatInt(timestamp, 10) + credentials.ApiKey
	val = val + payload
	h := hmac.New(sha256.New, []byte(credentials.ApiSecret))
	h.Write([]byte(val))

	return map[string]string{
		"X-BAPI-API-KEY":   credentials.ApiKey,
		"X-BAPI-TIMESTAMP": strconv.FormatInt(timestamp, 10),
		"X-BAPI-SIGN":      hex.EncodeToString(h.Sum(nil)),
	}
}
