package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByBitOrderToExchangeOrder(t *testing.T) {
	assertion := assert.New(t)

	order := ByBitOrder{
		OrderId:      "1321003749386327552",
		Symbol:       "BTCUSDT",
		Side:         "Sell",
		OrderStatus:  "Filled",
		CumExecQty:   0.02,
		CumExecValue: 1900.00,
	}

	exchangeOrder, err := order.ToExchangeOrder()

	assertion.NoError(err)
	assertion.Equal(int64(1321003749386327552), exchangeOrder.OrderId)
	assertion.Equal(0.02, exchangeOrder.ExecutedQty)
	assertion.Equal(1900.00, exchangeOrder.CummulativeQuoteQty)
}

// the ledger keeps the venue order identifier, an unparsable id must fail
// loudly instead of recording a zero
func TestByBitOrderRejectsUnparsableId(t *testing.T) {
	assertion := assert.New(t)

	order := ByBitOrder{
		OrderId: "c8f2a5e0-9d41-4b7a-8d3f",
		Symbol:  "BTCUSDT",
	}

	_, err := order.ToExchangeOrder()

	assertion.Error(err)
	assertion.Contains(err.Error(), "c8f2a5e0-9d41-4b7a-8d3f")
}
