package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) Service {
	srv, err := New(filepath.Join(t.TempDir(), "opportunities.db"))
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv
}

func TestAppendAndRecent(t *testing.T) {
	srv := newTestService(t)
	ctx := context.Background()
	ts := time.Date(2024, 5, 1, 12, 0, 0, 500, time.UTC)

	require.NoError(t, srv.Append(ctx, []domain.TradeSimulation{
		{ID: "a", Timestamp: ts, Symbol: "BTCUSDT", BuyExchange: domain.Binance, SellExchange: domain.OKX, Network: "trc20", AdjustedBudget: 200, NetProfit: 1.5, NetProfitPercentage: 0.75},
		{ID: "b", Timestamp: ts.Add(time.Second), Symbol: "ETHUSDT", BuyExchange: domain.OKX, SellExchange: domain.Binance, NetProfit: 3},
	}))

	recent, err := srv.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].ID)
	assert.Equal(t, Opportunity{
		ID:                  "a",
		Timestamp:           ts,
		Symbol:              "BTCUSDT",
		BuyExchange:         "Binance",
		SellExchange:        "OKX",
		Network:             "trc20",
		AdjustedBudget:      200,
		NetProfit:           1.5,
		NetProfitPercentage: 0.75,
	}, recent[1])

	recent, err = srv.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestAppendIsIdempotentPerID(t *testing.T) {
	srv := newTestService(t)
	ctx := context.Background()
	sim := domain.TradeSimulation{ID: "same", Timestamp: time.Now().UTC(), Symbol: "BTCUSDT"}

	require.NoError(t, srv.Append(ctx, []domain.TradeSimulation{sim}))
	require.NoError(t, srv.Append(ctx, []domain.TradeSimulation{sim}))

	assert.Equal(t, "1", srv.Health()["opportunities"])
}

func TestHealth(t *testing.T) {
	stats := newTestService(t).Health()

	assert.Equal(t, "up", stats["status"])
	assert.Equal(t, "0", stats["opportunities"])
}
