package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/database"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/market"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/metrics"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, db database.Service) (*FiberServer, *market.Store) {
	store := market.NewStore([]string{"BTCUSDT", "ETHUSDT"})
	s := New(store, db, metrics.New(), sink.NewHub())
	s.RegisterFiberRoutes()
	return s, store
}

func get(t *testing.T, s *FiberServer, path string) (int, []byte) {
	resp, err := s.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)

	status, body := get(t, s, "/health")

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"up","symbols":2,"clients":0}`, string(body))
}

func TestSymbolEndpoints(t *testing.T) {
	s, store := newTestServer(t, nil)
	require.NoError(t, store.UpdatePrice(domain.OKX, "BTCUSDT", 64000))

	status, body := get(t, s, "/symbols")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `["BTCUSDT","ETHUSDT"]`, string(body))

	status, body = get(t, s, "/symbols/BTCUSDT")
	require.Equal(t, http.StatusOK, status)
	var quotes map[string]domain.ExchangeQuote
	require.NoError(t, json.Unmarshal(body, &quotes))
	assert.Equal(t, 64000.0, quotes["OKX"].Price)
	assert.Equal(t, -1.0, quotes["Binance"].Price)

	status, _ = get(t, s, "/symbols/DOGEUSDT")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestNetworks(t *testing.T) {
	s, store := newTestServer(t, nil)
	store.SetReferenceNetworks(domain.Binance, []domain.NetworkFee{{Name: "Tron (TRC20)", Fee: 1}})

	status, body := get(t, s, "/networks")

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"Binance":[{"name":"Tron (TRC20)","fee":1,"minWd":0}],"OKX":[]}`, string(body))
}

func TestSnapshotServesLastSaved(t *testing.T) {
	s, store := newTestServer(t, nil)

	status, _ := get(t, s, "/snapshot")
	assert.Equal(t, http.StatusServiceUnavailable, status)

	require.NoError(t, s.Save(context.Background(), store.Snapshot()))
	status, body := get(t, s, "/snapshot")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"BTCUSDT"`)
}

func TestOpportunities(t *testing.T) {
	s, _ := newTestServer(t, nil)
	status, _ := get(t, s, "/opportunities")
	assert.Equal(t, http.StatusNotFound, status)

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Append(context.Background(), []domain.TradeSimulation{
		{ID: "x", Timestamp: time.Now().UTC(), Symbol: "BTCUSDT", NetProfitPercentage: 1.5},
	}))
	s, _ = newTestServer(t, db)

	status, body := get(t, s, "/opportunities?limit=5")
	assert.Equal(t, http.StatusOK, status)
	var got []database.Opportunity
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, 1)
	assert.Equal(t, 1.5, got[0].NetProfitPercentage)

	status, _ = get(t, s, "/opportunities?limit=0")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)
	s.metrics.Evaluations.Inc()

	status, body := get(t, s, "/metrics")

	assert.Equal(t, http.StatusOK, status)
	assert.True(t, strings.Contains(string(body), "arbitrage_evaluations_total 1"))
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	s, _ := newTestServer(t, nil)

	status, _ := get(t, s, "/ws/opportunities")

	assert.Equal(t, http.StatusUpgradeRequired, status)
}
