package domain

import (
	"strconv"
	"time"
)

type FeeDetails struct {
	MakerFeeAsset      float64 `json:"makerFeeAsset"`
	TakerFeeQuote      float64 `json:"takerFeeQuote"`
	WithdrawalFeeAsset float64 `json:"withdrawalFeeAsset"`
}

type QuantityDetails struct {
	Bought          float64 `json:"bought"`
	AfterFees       float64 `json:"afterFees"`
	AfterWithdrawal float64 `json:"afterWithdrawal"`
}

type PriceDetails struct {
	Current float64 `json:"current"`
	Average float64 `json:"average"`
	End     float64 `json:"end"`
}

// TradeSimulation is the result of one simulated buy, transfer and sell cycle.
type TradeSimulation struct {
	ID                  string          `json:"id"`
	Timestamp           time.Time       `json:"timestamp"`
	Symbol              string          `json:"symbol"`
	InitialBudget       float64         `json:"initialBudget"`
	AdjustedBudget      float64         `json:"adjustedBudget"`
	BuyExchange         ExchangeEnum    `json:"buyExchange"`
	SellExchange        ExchangeEnum    `json:"sellExchange"`
	Network             string          `json:"network"`
	Fees                FeeDetails      `json:"fees"`
	Quantities          QuantityDetails `json:"quantities"`
	BuyPrices           PriceDetails    `json:"buyPrices"`
	SellPrices          PriceDetails    `json:"sellPrices"`
	NetProfit           float64         `json:"netProfit"`
	NetProfitPercentage float64         `json:"netProfitPercentage"`
}

// Field is one named column of a flattened TradeSimulation.
type Field struct {
	Name  string
	Value string
}

// Fields flattens the simulation in a stable column order.
func (t TradeSimulation) Fields() []Field {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []Field{
		{"id", t.ID},
		{"timestamp", t.Timestamp.Format(time.RFC3339Nano)},
		{"symbol", t.Symbol},
		{"initial_budget", f(t.InitialBudget)},
		{"adjusted_budget", f(t.AdjustedBudget)},
		{"buy_exchange", t.BuyExchange.String()},
		{"sell_exchange", t.SellExchange.String()},
		{"network", t.Network},
		{"maker_fee_asset", f(t.Fees.MakerFeeAsset)},
		{"taker_fee_quote", f(t.Fees.TakerFeeQuote)},
		{"withdrawal_fee_asset", f(t.Fees.WithdrawalFeeAsset)},
		{"bought_qty", f(t.Quantities.Bought)},
		{"qty_after_fees", f(t.Quantities.AfterFees)},
		{"qty_after_withdrawal", f(t.Quantities.AfterWithdrawal)},
		{"buy_price_current", f(t.BuyPrices.Current)},
		{"buy_price_average", f(t.BuyPrices.Average)},
		{"buy_price_end", f(t.BuyPrices.End)},
		{"sell_price_current", f(t.SellPrices.Current)},
		{"sell_price_average", f(t.SellPrices.Average)},
		{"sell_price_end", f(t.SellPrices.End)},
		{"net_profit", f(t.NetProfit)},
		{"net_profit_percentage", f(t.NetProfitPercentage)},
	}
}

// FieldNames returns the column names produced by Fields.
func FieldNames() []string {
	fields := TradeSimulation{}.Fields()
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = field.Name
	}
	return names
}
