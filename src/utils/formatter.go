package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gitlab.com/open-soft/go-dca-bot/src/model"
)

type Formatter struct {
}

func (m *Formatter) FormatPrice(limit model.MarketLimits, price float64) float64 {
	if price < limit.GetMinPrice() {
		return limit.GetMinPrice()
	}

	split := strings.Split(fmt.Sprintf("%s", strconv.FormatFloat(limit.GetMinPrice(), 'f', -1, 64)), ".")
	precision := 0
	if len(split) > 1 {
		precision = len(split[1])
	}
	ratio := math.Pow(10, float64(precision))
	return math.Round(price*ratio) / ratio
}

// FormatQuantity truncates to the step precision of the market, it never
// rounds up. A rounded up sell would exceed the held position.
func (m *Formatter) FormatQuantity(limit model.MarketLimits, quantity float64) float64 {
	if quantity < limit.GetMinQuantity() {
		return limit.GetMinQuantity()
	}

	splitQty := strings.Split(fmt.Sprintf("%s", strconv.FormatFloat(quantity, 'f', -1, 64)), ".")
	split := strings.Split(fmt.Sprintf("%s", strconv.FormatFloat(limit.GetMinQuantity(), 'f', -1, 64)), ".")
	precision := 0
	if len(split) > 1 {
		precision = len(split[1])
	}

	second := "00"
	if precision > 0 && len(splitQty) > 1 {
		substr := precision
		if len(splitQty[1]) < substr {
			substr = len(splitQty[1])
		}

		second = splitQty[1][0:substr]
	}
	quantity, _ = strconv.ParseFloat(fmt.Sprintf("%s.%s", splitQty[0], second), 64)

	return quantity
}

