package model

const OperationBuy = "buy"
const OperationSell = "sell"

type Percent float64

func (p Percent) Value() float64 {
	return float64(p)
}

func (p Percent) Lt(percent Percent) bool {
	return p.Value() < percent.Value()
}

// Order is one executed fill. The ledger is append-only, records are never
// mutated or deleted.
type Order struct {
	Id         int64   `json:"id"`
	StrategyId int64   `json:"strategyId"`
	Exchange   string  `json:"exchange"`
	Symbol     string  `json:"symbol"`
	Operation  string  `json:"operation"`
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
	Cost       float64 `json:"cost"`
	BaseTotal  float64 `json:"baseTotal"`
	QuoteTotal float64 `json:"quoteTotal"`
	ExternalId *int64  `json:"externalId"`
	CreatedAt  string  `json:"createdAt"`
}

func (o *Order) IsSell() bool {
	return o.Operation == OperationSell
}

func (o *Order) IsBuy() bool {
	return o.Operation == OperationBuy
}
