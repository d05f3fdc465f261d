package arbitrage

import (
	"testing"
	"time"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/market"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultFees = [domain.ExchangeCount]TradingFees{
	domain.Binance: {Maker: 0.001, Taker: 0.001},
	domain.OKX:     {Maker: 0.001, Taker: 0.001},
}

func newTestEngine(budget, threshold float64) *Engine {
	e := NewEngine(budget, threshold, defaultFees)
	e.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	e.newID = func() string { return "sim-1" }
	return e
}

func quote(price float64, bids, asks []domain.PriceLevel, networks ...domain.NetworkFee) *domain.ExchangeQuote {
	return &domain.ExchangeQuote{Price: price, Bids: bids, Asks: asks, Networks: networks}
}

var noReference [domain.ExchangeCount][]domain.NetworkFee

func TestDirection(t *testing.T) {
	buy, sell := Direction(domain.QuotePair{quote(100, nil, nil), quote(101, nil, nil)})
	assert.Equal(t, domain.Binance, buy)
	assert.Equal(t, domain.OKX, sell)

	buy, sell = Direction(domain.QuotePair{quote(101, nil, nil), quote(100, nil, nil)})
	assert.Equal(t, domain.OKX, buy)
	assert.Equal(t, domain.Binance, sell)

	buy, sell = Direction(domain.QuotePair{quote(100, nil, nil), quote(100, nil, nil)})
	assert.Equal(t, domain.Binance, buy)
	assert.Equal(t, domain.OKX, sell)
}

func TestEvaluatePinnedScenario(t *testing.T) {
	pair := domain.QuotePair{
		domain.Binance: quote(100, levels(99, 1), levels(100, 2), domain.NetworkFee{Name: "TRC20", Fee: 1}),
		domain.OKX:     quote(101, levels(101, 2), levels(102, 1), domain.NetworkFee{Name: "TRC20", Fee: 2}),
	}

	sim, err := newTestEngine(1000, 0).Evaluate("ABCUSDT", pair, noReference)

	require.NoError(t, err)
	assert.Equal(t, "sim-1", sim.ID)
	assert.Equal(t, "ABCUSDT", sim.Symbol)
	assert.Equal(t, domain.Binance, sim.BuyExchange)
	assert.Equal(t, domain.OKX, sim.SellExchange)
	assert.Equal(t, "trc20", sim.Network)
	assert.InDelta(t, 200, sim.AdjustedBudget, 1e-12)
	assert.InDelta(t, 0.998, sim.Quantities.AfterWithdrawal, 1e-12)
	assert.Equal(t, 1.0, sim.Fees.WithdrawalFeeAsset)
	assert.InDelta(t, -99.302798, sim.NetProfit, 1e-9)
}

func TestEvaluateUsesConfiguredFeeRates(t *testing.T) {
	pair := domain.QuotePair{
		domain.Binance: quote(100, nil, levels(100, 2), domain.NetworkFee{Name: "TRC20"}),
		domain.OKX:     quote(101, levels(101, 2), nil, domain.NetworkFee{Name: "TRC20"}),
	}
	e := newTestEngine(1000, 0)
	e.Fees[domain.Binance] = TradingFees{Maker: 0.01}
	e.Fees[domain.OKX] = TradingFees{Taker: 0.02}

	sim, err := e.Evaluate("ABCUSDT", pair, noReference)

	require.NoError(t, err)
	assert.InDelta(t, 0.02, sim.Fees.MakerFeeAsset, 1e-12)
	assert.InDelta(t, 1.98*101*0.02, sim.Fees.TakerFeeQuote, 1e-9)
}

func TestEvaluateSkips(t *testing.T) {
	trc := domain.NetworkFee{Name: "TRC20", Fee: 0.1}
	cases := []struct {
		name string
		pair domain.QuotePair
		err  error
	}{
		{"unknown price", domain.QuotePair{quote(-1, levels(1, 1), levels(1, 1), trc), quote(2, levels(1, 1), levels(1, 1), trc)}, ErrUnknownPrice},
		{"empty asks", domain.QuotePair{quote(1, levels(1, 1), nil, trc), quote(2, levels(2, 1), levels(2, 1), trc)}, ErrEmptyBook},
		{"empty bids", domain.QuotePair{quote(1, levels(1, 1), levels(1, 1), trc), quote(2, nil, levels(2, 1), trc)}, ErrEmptyBook},
		{"no network", domain.QuotePair{quote(1, levels(1, 1), levels(1, 1), trc), quote(2, levels(2, 1), levels(2, 1), domain.NetworkFee{Name: "ERC20"})}, ErrNoCommonNetwork},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestEngine(1000, 0).Evaluate("ABCUSDT", tc.pair, noReference)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestCheckIgnoresMinimumWithdrawal(t *testing.T) {
	store := market.NewStore([]string{"ABCUSDT"})
	require.NoError(t, store.UpdatePrice(domain.Binance, "ABCUSDT", 100))
	require.NoError(t, store.UpdatePrice(domain.OKX, "ABCUSDT", 110))
	require.NoError(t, store.UpdateBook(domain.Binance, "ABCUSDT", nil, levels(100, 10)))
	require.NoError(t, store.UpdateBook(domain.OKX, "ABCUSDT", levels(110, 10), nil))
	require.NoError(t, store.UpdateNetworks(domain.Binance, "ABCUSDT", []domain.NetworkFee{{Name: "TRC20", MinWithdraw: 50}}))
	require.NoError(t, store.UpdateNetworks(domain.OKX, "ABCUSDT", []domain.NetworkFee{{Name: "TRC20"}}))

	found := newTestEngine(1000, 0).Check(store)

	require.Len(t, found, 1)
	assert.InDelta(t, 9.78011, found[0].NetProfitPercentage, 1e-9)
}

func TestEvaluateKeepsWithdrawalFeeAboveQuantity(t *testing.T) {
	pair := domain.QuotePair{
		domain.Binance: quote(1, levels(1, 1), levels(1, 1), domain.NetworkFee{Name: "TRC20", Fee: 3}),
		domain.OKX:     quote(2, levels(2, 1), levels(2, 1), domain.NetworkFee{Name: "TRC20"}),
	}

	sim, err := newTestEngine(1000, -101).Evaluate("ABCUSDT", pair, noReference)

	require.NoError(t, err)
	assert.InDelta(t, -2.001, sim.Quantities.AfterWithdrawal, 1e-12)
	assert.InDelta(t, -100, sim.NetProfitPercentage, 1e-12)
}

func TestEvaluateReferenceFallback(t *testing.T) {
	pair := domain.QuotePair{
		domain.Binance: quote(10, nil, levels(10, 5), domain.NetworkFee{Name: "Native"}),
		domain.OKX:     quote(12, levels(12, 5), nil, domain.NetworkFee{Name: "Other"}),
	}
	reference := [domain.ExchangeCount][]domain.NetworkFee{
		domain.Binance: {{Name: "TRC20", Fee: 1}},
		domain.OKX:     {{Name: "TRC20", Fee: 0.5}},
	}

	e := newTestEngine(1000, 0)
	_, err := e.Evaluate("ABCUSDT", pair, reference)
	assert.ErrorIs(t, err, ErrNoCommonNetwork)

	e.ReferenceFallback = true
	sim, err := e.Evaluate("ABCUSDT", pair, reference)
	require.NoError(t, err)
	assert.Equal(t, "trc20", sim.Network)
	assert.InDelta(t, 0.1, sim.Fees.WithdrawalFeeAsset, 1e-12)
}

func TestCheckThresholdIsStrict(t *testing.T) {
	store := market.NewStore([]string{"ABCUSDT", "XYZUSDT"})
	trc := []domain.NetworkFee{{Name: "TRC20"}}
	for _, sym := range store.Symbols() {
		require.NoError(t, store.UpdateNetworks(domain.Binance, sym, trc))
		require.NoError(t, store.UpdateNetworks(domain.OKX, sym, trc))
	}
	// ABCUSDT: buy 1 at 100, sell at 110 with no fees -> exactly 10%
	require.NoError(t, store.UpdatePrice(domain.Binance, "ABCUSDT", 100))
	require.NoError(t, store.UpdatePrice(domain.OKX, "ABCUSDT", 110))
	require.NoError(t, store.UpdateBook(domain.Binance, "ABCUSDT", nil, levels(100, 1)))
	require.NoError(t, store.UpdateBook(domain.OKX, "ABCUSDT", levels(110, 1), nil))
	// XYZUSDT: 20%
	require.NoError(t, store.UpdatePrice(domain.Binance, "XYZUSDT", 100))
	require.NoError(t, store.UpdatePrice(domain.OKX, "XYZUSDT", 120))
	require.NoError(t, store.UpdateBook(domain.Binance, "XYZUSDT", nil, levels(100, 1)))
	require.NoError(t, store.UpdateBook(domain.OKX, "XYZUSDT", levels(120, 1), nil))

	e := NewEngine(1000, 10, [domain.ExchangeCount]TradingFees{})

	found := e.Check(store)
	require.Len(t, found, 1)
	assert.Equal(t, "XYZUSDT", found[0].Symbol)
	assert.NotEmpty(t, found[0].ID)

	e.Threshold = 9.99
	assert.Len(t, e.Check(store), 2)
}

func TestBest(t *testing.T) {
	_, ok := Best(nil)
	assert.False(t, ok)

	best, ok := Best([]domain.TradeSimulation{
		{Symbol: "A", NetProfitPercentage: 1},
		{Symbol: "B", NetProfitPercentage: 3},
		{Symbol: "C", NetProfitPercentage: 2},
	})
	require.True(t, ok)
	assert.Equal(t, "B", best.Symbol)
}

func TestNewEngineFromConfig(t *testing.T) {
	cfg := &config.Config{Exchange: map[domain.ExchangeEnum]config.ExchangeConfig{
		domain.Binance: {MakerFee: 0.002, TakerFee: 0.003},
		domain.OKX:     {MakerFee: 0.0008, TakerFee: 0.001},
	}}
	cfg.Arbitrage.Budget = 500
	cfg.Arbitrage.ProfitThreshold = 0.5
	cfg.Arbitrage.ReferenceFallback = true

	e := NewEngineFromConfig(cfg)

	assert.Equal(t, 500.0, e.Budget)
	assert.Equal(t, 0.5, e.Threshold)
	assert.True(t, e.ReferenceFallback)
	assert.Equal(t, TradingFees{Maker: 0.002, Taker: 0.003}, e.Fees[domain.Binance])
	assert.Equal(t, TradingFees{Maker: 0.0008, Taker: 0.001}, e.Fees[domain.OKX])
}
