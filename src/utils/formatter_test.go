package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gitlab.com/open-soft/go-dca-bot/src/model"
)

func TestFormatQuantityTruncates(t *testing.T) {
	assertion := assert.New(t)
	formatter := Formatter{}

	limits := model.MarketLimits{
		Symbol:      "BTCUSDT",
		MinNotional: 5.00,
		MinQuantity: 0.00001,
		MinPrice:    0.01,
	}

	// truncated, never rounded up
	assertion.Equal(0.00123, formatter.FormatQuantity(limits, 0.0012399))
	assertion.Equal(0.00199, formatter.FormatQuantity(limits, 0.0019999))
	assertion.Equal(2.00, formatter.FormatQuantity(limits, 2.00))

	// below the exchange minimum bumps to the minimum
	assertion.Equal(0.00001, formatter.FormatQuantity(limits, 0.0000001))

	wholeLot := model.MarketLimits{MinQuantity: 1.00}
	assertion.Equal(3.00, formatter.FormatQuantity(wholeLot, 3.99))
}

func TestFormatPrice(t *testing.T) {
	assertion := assert.New(t)
	formatter := Formatter{}

	limits := model.MarketLimits{
		Symbol:   "BTCUSDT",
		MinPrice: 0.01,
	}

	assertion.Equal(64999.99, formatter.FormatPrice(limits, 64999.991))
	assertion.Equal(65000.00, formatter.FormatPrice(limits, 64999.996))
	assertion.Equal(0.01, formatter.FormatPrice(limits, 0.0001))
}
