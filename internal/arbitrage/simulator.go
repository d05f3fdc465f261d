package arbitrage

import (
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
)

// BuyResult is the outcome of spending a quote budget against an ask book.
type BuyResult struct {
	Quantity     float64
	Spent        float64
	AveragePrice float64
	EndPrice     float64
}

// SimulateBuy walks asks best first until budget is spent. The last level
// touched may be filled partially.
func SimulateBuy(asks []domain.PriceLevel, budget float64) BuyResult {
	var r BuyResult
	for _, level := range asks {
		remaining := budget - r.Spent
		if remaining <= 0 {
			break
		}
		r.EndPrice = level.Price
		cost := level.Price * level.Volume
		if cost <= remaining {
			r.Spent += cost
			r.Quantity += level.Volume
			continue
		}
		fit := remaining / level.Price
		r.Spent += fit * level.Price
		r.Quantity += fit
		break
	}
	if r.Quantity > 0 {
		r.AveragePrice = r.Spent / r.Quantity
	}
	return r
}

// SellResult is the outcome of selling a quantity into a bid book.
type SellResult struct {
	Quantity     float64
	Proceeds     float64
	AveragePrice float64
	EndPrice     float64
}

// SimulateSell walks bids best first until target is sold or the book runs
// out. When the target is reached Quantity equals target exactly.
func SimulateSell(bids []domain.PriceLevel, target float64) SellResult {
	var r SellResult
	for _, level := range bids {
		if r.Quantity >= target {
			break
		}
		r.EndPrice = level.Price
		if r.Quantity+level.Volume <= target {
			r.Proceeds += level.Volume * level.Price
			r.Quantity += level.Volume
			continue
		}
		r.Proceeds += (target - r.Quantity) * level.Price
		r.Quantity = target
		break
	}
	if r.Quantity > 0 {
		r.AveragePrice = r.Proceeds / r.Quantity
	}
	return r
}

// AdjustBudget caps budget to the ask notional and to the notional needed to
// buy as much as the bid side can absorb.
func AdjustBudget(asks, bids []domain.PriceLevel, budget float64) float64 {
	askNotional := domain.TotalNotional(asks)
	if askNotional < budget {
		budget = askNotional
	}

	sellable := domain.TotalVolume(bids)
	needed, bought := 0.0, 0.0
	for _, level := range asks {
		if bought+level.Volume <= sellable {
			needed += level.Volume * level.Price
			bought += level.Volume
			continue
		}
		needed += (sellable - bought) * level.Price
		break
	}
	return min(budget, needed)
}

// Leg holds the book side and fee rates of one exchange in a simulated trade.
type Leg struct {
	Exchange domain.ExchangeEnum
	Levels   []domain.PriceLevel
	FeeRate  float64
}

// SimulateFull runs one buy, withdraw and sell cycle. buy.FeeRate is the
// maker rate charged in asset units, sell.FeeRate the taker rate charged on
// proceeds. withdrawalFee is a flat amount in asset units.
func SimulateFull(buy, sell Leg, budget, withdrawalFee float64) domain.TradeSimulation {
	adjusted := AdjustBudget(buy.Levels, sell.Levels, budget)

	bought := SimulateBuy(buy.Levels, adjusted)
	makerFee := bought.Quantity * buy.FeeRate
	afterFees := bought.Quantity - makerFee
	afterWithdrawal := afterFees - withdrawalFee

	sold := SimulateSell(sell.Levels, afterWithdrawal)
	takerFee := sold.Proceeds * sell.FeeRate
	net := sold.Proceeds - takerFee

	profit := net - adjusted
	percentage := 0.0
	if adjusted != 0 {
		percentage = profit / adjusted * 100
	}

	return domain.TradeSimulation{
		InitialBudget:  budget,
		AdjustedBudget: adjusted,
		BuyExchange:    buy.Exchange,
		SellExchange:   sell.Exchange,
		Fees: domain.FeeDetails{
			MakerFeeAsset:      makerFee,
			TakerFeeQuote:      takerFee,
			WithdrawalFeeAsset: withdrawalFee,
		},
		Quantities: domain.QuantityDetails{
			Bought:          bought.Quantity,
			AfterFees:       afterFees,
			AfterWithdrawal: afterWithdrawal,
		},
		BuyPrices: domain.PriceDetails{
			Current: domain.BestPrice(buy.Levels),
			Average: bought.AveragePrice,
			End:     bought.EndPrice,
		},
		SellPrices: domain.PriceDetails{
			Current: domain.BestPrice(sell.Levels),
			Average: sold.AveragePrice,
			End:     sold.EndPrice,
		},
		NetProfit:           profit,
		NetProfitPercentage: percentage,
	}
}
