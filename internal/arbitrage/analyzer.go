package arbitrage

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/market"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/config"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/logger"
	"go.uber.org/zap"
)

var Logger = logger.Get()
var ArbitrageLogger = logger.GetArbitrageLogger()

var (
	ErrUnknownPrice    = errors.New("price not yet received")
	ErrEmptyBook       = errors.New("order book side is empty")
	ErrNoCommonNetwork = errors.New("no common withdrawal network")
)

type TradingFees struct {
	Maker float64
	Taker float64
}

// Engine evaluates every tracked symbol for a buy-here, sell-there cycle.
type Engine struct {
	Budget    float64
	Threshold float64 // percentage, exclusive
	Fees      [domain.ExchangeCount]TradingFees
	// ReferenceFallback lets symbols without a shared asset network use the
	// cheapest shared network of the reference asset instead.
	ReferenceFallback bool

	now   func() time.Time
	newID func() string
}

func NewEngine(budget, threshold float64, fees [domain.ExchangeCount]TradingFees) *Engine {
	return &Engine{
		Budget:    budget,
		Threshold: threshold,
		Fees:      fees,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// NewEngineFromConfig builds an engine from the arbitrage and exchange fee settings.
func NewEngineFromConfig(cfg *config.Config) *Engine {
	var fees [domain.ExchangeCount]TradingFees
	for _, ex := range domain.Exchanges() {
		fees[ex] = TradingFees{Maker: cfg.Exchange[ex].MakerFee, Taker: cfg.Exchange[ex].TakerFee}
	}
	e := NewEngine(cfg.Arbitrage.Budget, cfg.Arbitrage.ProfitThreshold, fees)
	e.ReferenceFallback = cfg.Arbitrage.ReferenceFallback
	return e
}

// Direction returns the buy and sell exchanges for a pair of last prices.
// The lower price buys; on equal prices the second exchange sells.
func Direction(pair domain.QuotePair) (buy, sell domain.ExchangeEnum) {
	buy = domain.Binance
	if pair.Get(domain.OKX).Price < pair.Get(domain.Binance).Price {
		buy = domain.OKX
	}
	return buy, buy.Peer()
}

// Evaluate simulates one cycle for symbol. reference holds the reference
// asset networks per exchange and is only consulted with ReferenceFallback.
func (e *Engine) Evaluate(symbol string, pair domain.QuotePair, reference [domain.ExchangeCount][]domain.NetworkFee) (domain.TradeSimulation, error) {
	for _, q := range pair {
		if q == nil || q.Price <= 0 {
			return domain.TradeSimulation{}, ErrUnknownPrice
		}
	}

	buyEx, sellEx := Direction(pair)
	buy, sell := pair.Get(buyEx), pair.Get(sellEx)
	if len(buy.Asks) == 0 || len(sell.Bids) == 0 {
		return domain.TradeSimulation{}, ErrEmptyBook
	}

	network, withdrawalFee, err := e.selectNetwork(buy, sell, reference[buyEx], reference[sellEx])
	if err != nil {
		return domain.TradeSimulation{}, err
	}

	sim := SimulateFull(
		Leg{Exchange: buyEx, Levels: buy.Asks, FeeRate: e.Fees[buyEx].Maker},
		Leg{Exchange: sellEx, Levels: sell.Bids, FeeRate: e.Fees[sellEx].Taker},
		e.Budget,
		withdrawalFee,
	)
	sim.ID = e.newID()
	sim.Timestamp = e.now()
	sim.Symbol = symbol
	sim.Network = network.Name
	return sim, nil
}

// selectNetwork returns the chosen route and its withdrawal fee in asset units.
func (e *Engine) selectNetwork(buy, sell *domain.ExchangeQuote, buyRef, sellRef []domain.NetworkFee) (CommonNetwork, float64, error) {
	if network, ok := SelectCommonNetwork(buy.Networks, sell.Networks); ok {
		return network, network.BuyFee, nil
	}
	if !e.ReferenceFallback {
		return CommonNetwork{}, 0, ErrNoCommonNetwork
	}
	network, ok := SelectCommonNetwork(buyRef, sellRef)
	if !ok {
		return CommonNetwork{}, 0, ErrNoCommonNetwork
	}
	// reference fees are quoted in the quote asset
	ask := domain.BestPrice(buy.Asks)
	fee := network.BuyFee / ask
	network.BuyMinWithdraw /= ask
	return network, fee, nil
}

// Check evaluates every symbol of the reader and returns the simulations
// whose net profit percentage strictly exceeds the threshold, unranked.
func (e *Engine) Check(reader market.Reader) []domain.TradeSimulation {
	var reference [domain.ExchangeCount][]domain.NetworkFee
	for _, ex := range domain.Exchanges() {
		reference[ex] = reader.ReferenceNetworks(ex)
	}

	var opportunities []domain.TradeSimulation
	for _, symbol := range reader.Symbols() {
		pair, ok := reader.Get(symbol)
		if !ok {
			continue
		}
		sim, err := e.Evaluate(symbol, pair, reference)
		if err != nil {
			continue
		}
		if sim.NetProfitPercentage > e.Threshold {
			opportunities = append(opportunities, sim)
		}
	}
	if len(opportunities) > 0 {
		Logger.Info("Found arbitrage opportunities", zap.Int("count", len(opportunities)))
	}
	return opportunities
}

// Best returns the simulation with the highest net profit percentage.
func Best(opportunities []domain.TradeSimulation) (domain.TradeSimulation, bool) {
	if len(opportunities) == 0 {
		return domain.TradeSimulation{}, false
	}
	best := opportunities[0]
	for _, o := range opportunities[1:] {
		if o.NetProfitPercentage > best.NetProfitPercentage {
			best = o
		}
	}
	return best, true
}
