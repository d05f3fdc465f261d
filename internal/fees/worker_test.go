package fees

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/market"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/metrics"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/symbols"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	ex      domain.ExchangeEnum
	mapping map[string][]domain.NetworkFee
	err     error
	calls   atomic.Int32
}

func (f *fakeSource) Exchange() domain.ExchangeEnum { return f.ex }

func (f *fakeSource) GetNetworkFees(ctx context.Context) (map[string][]domain.NetworkFee, error) {
	f.calls.Add(1)
	return f.mapping, f.err
}

func TestRefreshAppliesNetworksByBaseAsset(t *testing.T) {
	store := market.NewStore([]string{"BTCUSDT", "ETHBTC", "FOOUSDT"})
	quotes := symbols.NewQuoteSet("USDT", "BTC")
	btc := []domain.NetworkFee{{Name: "Bitcoin", Fee: 0.0002, MinWithdraw: 0.001}}
	usdt := []domain.NetworkFee{{Name: "TRC20", Fee: 1}}
	source := &fakeSource{ex: domain.OKX, mapping: map[string][]domain.NetworkFee{
		"BTC":  btc,
		"ETH":  {{Name: "ERC20", Fee: 0.002}},
		"USDT": usdt,
	}}
	reg := metrics.New()

	require.NoError(t, NewWorker(source, store, quotes, reg).Refresh(context.Background()))

	pair, _ := store.Get("BTCUSDT")
	assert.Equal(t, btc, pair.Get(domain.OKX).Networks)
	assert.Empty(t, pair.Get(domain.Binance).Networks)
	pair, _ = store.Get("ETHBTC")
	assert.Equal(t, "ERC20", pair.Get(domain.OKX).Networks[0].Name)
	pair, _ = store.Get("FOOUSDT")
	assert.NotNil(t, pair.Get(domain.OKX).Networks)
	assert.Empty(t, pair.Get(domain.OKX).Networks)
	assert.Equal(t, usdt, store.ReferenceNetworks(domain.OKX))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.FeeRefreshes.WithLabelValues("OKX", "ok")))
}

func TestRefreshFailureLeavesStateUntouched(t *testing.T) {
	store := market.NewStore([]string{"BTCUSDT"})
	require.NoError(t, store.UpdateNetworks(domain.Binance, "BTCUSDT", []domain.NetworkFee{{Name: "Bitcoin"}}))
	reg := metrics.New()
	source := &fakeSource{ex: domain.Binance, err: errors.New("401")}

	err := NewWorker(source, store, symbols.NewQuoteSet("USDT"), reg).Refresh(context.Background())

	assert.Error(t, err)
	pair, _ := store.Get("BTCUSDT")
	assert.Len(t, pair.Get(domain.Binance).Networks, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.FeeRefreshes.WithLabelValues("Binance", "error")))
}

func TestRunKeepsRetryingUntilCancelled(t *testing.T) {
	source := &fakeSource{ex: domain.Binance, err: errors.New("timeout")}
	w := NewWorker(source, market.NewStore(nil), symbols.NewQuoteSet(), metrics.New())
	w.Interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return source.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
