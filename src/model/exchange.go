package model

import "strings"

type SocketRequest struct {
	Id     string         `json:"id"`
	Method string         `json:"method"`
	Params map[string]any `json:"params"`
}

type SocketStreamsRequest struct {
	Id     int64    `json:"id"`
	Method string   `json:"method"`
	Params []string `json:"params"`
}

const ExchangeBinance = "binance"
const ExchangeByBit = "bybit"

type Error struct {
	Code    int64  `json:"code"`
	Message string `json:"msg"`
}

const BinanceErrorInvalidAPIKeyOrPermissions = "binance_error_invalid_api_key_or_permissions"
const BinanceErrorFilterNotional = "binance_error_filter_notional"

func (e *Error) GetMessage() string {
	if strings.Contains(e.Message, "Invalid API-key, IP, or permissions for action") {
		return BinanceErrorInvalidAPIKeyOrPermissions
	}

	if strings.Contains(e.Message, "Filter failure: NOTIONAL") {
		return BinanceErrorFilterNotional
	}

	return e.Message
}

func (e *Error) IsApiKeyOrPermissions() bool {
	return BinanceErrorInvalidAPIKeyOrPermissions == e.GetMessage()
}

func (e *Error) IsNotional() bool {
	return BinanceErrorFilterNotional == e.GetMessage()
}

// Quote is the current top of book for one pair.
type Quote struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
}

type BookTicker struct {
	Symbol   string  `json:"symbol"`
	BidPrice float64 `json:"bidPrice,string"`
	AskPrice float64 `json:"askPrice,string"`
}

func (b BookTicker) ToQuote() Quote {
	return Quote{
		Symbol: b.Symbol,
		Bid:    b.BidPrice,
		Ask:    b.AskPrice,
	}
}

type BookTickerResponse struct {
	Id     string     `json:"id"`
	Status int64      `json:"status"`
	Result BookTicker `json:"result"`
	Error  *Error     `json:"error"`
}

// StreamTicker is the bookTicker payload of the public combined stream.
type StreamTicker struct {
	Symbol   string  `json:"s"`
	BidPrice float64 `json:"b,string"`
	AskPrice float64 `json:"a,string"`
}

func (s StreamTicker) ToQuote() Quote {
	return Quote{
		Symbol: s.Symbol,
		Bid:    s.BidPrice,
		Ask:    s.AskPrice,
	}
}

type StreamTickerEvent struct {
	Stream string       `json:"stream"`
	Data   StreamTicker `json:"data"`
}

// MarketLimits are the venue minimums a purchase is validated against.
type MarketLimits struct {
	Symbol      string  `json:"symbol"`
	MinNotional float64 `json:"minNotional"`
	MinQuantity float64 `json:"minQuantity"`
	MinPrice    float64 `json:"minPrice"`
}

func (m MarketLimits) GetMinPrice() float64 {
	return m.MinPrice
}

func (m MarketLimits) GetMinQuantity() float64 {
	return m.MinQuantity
}

const BinanceExchangeFilterTypePrice = "PRICE_FILTER"
const BinanceExchangeFilterTypeLotSize = "LOT_SIZE"
const BinanceExchangeFilterTypeNotional = "NOTIONAL"

type ExchangeFilter struct {
	FilterType  string   `json:"filterType"`
	MinPrice    *float64 `json:"minPrice,string"`
	TickSize    *float64 `json:"tickSize,string"`
	MinQuantity *float64 `json:"minQty,string"`
	MinNotional *float64 `json:"minNotional,string"`
	StepSize    *float64 `json:"stepSize,string"`
}

type ExchangeSymbol struct {
	Symbol     string           `json:"symbol"`
	Status     string           `json:"status"`
	BaseAsset  string           `json:"baseAsset"`
	QuoteAsset string           `json:"quoteAsset"`
	Filters    []ExchangeFilter `json:"filters"`
}

func (e *ExchangeSymbol) IsTrading() bool {
	return e.Status == "TRADING"
}

func (e *ExchangeSymbol) ToMarketLimits() MarketLimits {
	limits := MarketLimits{Symbol: e.Symbol}

	for _, filter := range e.Filters {
		switch filter.FilterType {
		case BinanceExchangeFilterTypePrice:
			if filter.MinPrice != nil {
				limits.MinPrice = *filter.MinPrice
			}
		case BinanceExchangeFilterTypeLotSize:
			if filter.MinQuantity != nil {
				limits.MinQuantity = *filter.MinQuantity
			}
		case BinanceExchangeFilterTypeNotional:
			if filter.MinNotional != nil {
				limits.MinNotional = *filter.MinNotional
			}
		}
	}

	return limits
}

type ExchangeInfo struct {
	Timezone   string           `json:"timezone"`
	ServerTime int64            `json:"serverTime"`
	Symbols    []ExchangeSymbol `json:"symbols"`
}

type ExchangeInfoResponse struct {
	Id     string       `json:"id"`
	Status int64        `json:"status"`
	Result ExchangeInfo `json:"result"`
	Error  *Error       `json:"error"`
}

type Balance struct {
	Asset  string  `json:"asset"`
	Free   float64 `json:"free,string"`
	Locked float64 `json:"locked,string"`
}

type AccountStatus struct {
	Balances []Balance `json:"balances"`
}

type AccountStatusResponse struct {
	Id     string        `json:"id"`
	Status int64         `json:"status"`
	Result AccountStatus `json:"result"`
	Error  *Error        `json:"error"`
}

// ExchangeOrder is the venue's view of one placed market order.
type ExchangeOrder struct {
	OrderId             int64   `json:"orderId"`
	Symbol              string  `json:"symbol"`
	Side                string  `json:"side"`
	Status              string  `json:"status"`
	ExecutedQty         float64 `json:"executedQty,string"`
	CummulativeQuoteQty float64 `json:"cummulativeQuoteQty,string"`
}

func (e *ExchangeOrder) GetAvgPrice() float64 {
	if e.ExecutedQty == 0.00 {
		return 0.00
	}

	return e.CummulativeQuoteQty / e.ExecutedQty
}

type ExchangeOrderResponse struct {
	Id     string        `json:"id"`
	Status int64         `json:"status"`
	Result ExchangeOrder `json:"result"`
	Error  *Error        `json:"error"`
}

type SymbolInterface interface {
	GetSymbol() string
}
