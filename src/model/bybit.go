package model

import (
	"fmt"
	"strconv"
)

type ByBitTicker struct {
	Symbol    string  `json:"symbol"`
	Bid1Price float64 `json:"bid1Price,string"`
	Ask1Price float64 `json:"ask1Price,string"`
}

func (t ByBitTicker) ToQuote() Quote {
	return Quote{
		Symbol: t.Symbol,
		Bid:    t.Bid1Price,
		Ask:    t.Ask1Price,
	}
}

type ByBitTickerResult struct {
	Category string        `json:"category"`
	List     []ByBitTicker `json:"list"`
}

type ByBitTickerResponse struct {
	Code    int64             `json:"retCode"`
	Message string            `json:"retMsg"`
	Result  ByBitTickerResult `json:"result"`
}

type ByBitLotSizeFilter struct {
	MinOrderQty float64 `json:"minOrderQty,string"`
	MinOrderAmt float64 `json:"minOrderAmt,string"`
}

type ByBitPriceFilter struct {
	TickSize float64 `json:"tickSize,string"`
}

type ByBitInstrument struct {
	Symbol        string             `json:"symbol"`
	Status        string             `json:"status"`
	LotSizeFilter ByBitLotSizeFilter `json:"lotSizeFilter"`
	PriceFilter   ByBitPriceFilter   `json:"priceFilter"`
}

func (i ByBitInstrument) ToMarketLimits() MarketLimits {
	return MarketLimits{
		Symbol:      i.Symbol,
		MinNotional: i.LotSizeFilter.MinOrderAmt,
		MinQuantity: i.LotSizeFilter.MinOrderQty,
		MinPrice:    i.PriceFilter.TickSize,
	}
}

type ByBitInstrumentResult struct {
	Category string            `json:"category"`
	List     []ByBitInstrument `json:"list"`
}

type ByBitInstrumentResponse struct {
	Code    int64                 `json:"retCode"`
	Message string                `json:"retMsg"`
	Result  ByBitInstrumentResult `json:"result"`
}

type ByBitCoinBalance struct {
	Coin          string  `json:"coin"`
	WalletBalance float64 `json:"walletBalance,string"`
	Locked        float64 `json:"locked,string"`
}

func (c ByBitCoinBalance) ToBalance() Balance {
	return Balance{
		Asset:  c.Coin,
		Free:   c.WalletBalance - c.Locked,
		Locked: c.Locked,
	}
}

type ByBitWalletAccount struct {
	AccountType string             `json:"accountType"`
	Coin        []ByBitCoinBalance `json:"coin"`
}

type ByBitWalletBalanceResult struct {
	List []ByBitWalletAccount `json:"list"`
}

type ByBitWalletBalanceResponse struct {
	Code    int64                    `json:"retCode"`
	Message string                   `json:"retMsg"`
	Result  ByBitWalletBalanceResult `json:"result"`
}

type ByBitOrderCreateResult struct {
	OrderId string `json:"orderId"`
}

type ByBitOrderCreateResponse struct {
	Code    int64                  `json:"retCode"`
	Message string                 `json:"retMsg"`
	Result  ByBitOrderCreateResult `json:"result"`
}

type ByBitOrder struct {
	OrderId      string  `json:"orderId"`
	Symbol       string  `json:"symbol"`
	Side         string  `json:"side"`
	OrderStatus  string  `json:"orderStatus"`
	CumExecQty   float64 `json:"cumExecQty,string"`
	CumExecValue float64 `json:"cumExecValue,string"`
}

func (o ByBitOrder) ToExchangeOrder() (ExchangeOrder, error) {
	orderId, err := strconv.ParseInt(o.OrderId, 10, 64)
	if err != nil {
		// the ledger must keep the venue order identifier, a zero id would
		// silently lose it
		return ExchangeOrder{}, fmt.Errorf("[%s] unparsable order id %s: %w", o.Symbol, o.OrderId, err)
	}

	return ExchangeOrder{
		OrderId:             orderId,
		Symbol:              o.Symbol,
		Side:                o.Side,
		Status:              o.OrderStatus,
		ExecutedQty:         o.CumExecQty,
		CummulativeQuoteQty: o.CumExecValue,
	}, nil
}

type ByBitOrderListResult struct {
	List []ByBitOrder `json:"list"`
}

type ByBitOrderListResponse struct {
	Code    int64                `json:"retCode"`
	Message string               `json:"retMsg"`
	Result  ByBitOrderListResult `json:"result"`
}
