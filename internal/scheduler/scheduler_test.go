package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/fees"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/market"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/metrics"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/symbols"
)

func TestNextMidnight(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"winter", time.Date(2024, 1, 10, 15, 30, 0, 0, london), time.Date(2024, 1, 11, 0, 0, 0, 0, london)},
		{"exactly midnight", time.Date(2024, 1, 11, 0, 0, 0, 0, london), time.Date(2024, 1, 12, 0, 0, 0, 0, london)},
		{"month end", time.Date(2024, 2, 29, 23, 59, 59, 0, london), time.Date(2024, 3, 1, 0, 0, 0, 0, london)},
		{"utc input", time.Date(2024, 7, 1, 23, 30, 0, 0, time.UTC), time.Date(2024, 7, 3, 0, 0, 0, 0, london)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.want.Equal(NextMidnight(tc.now, london)), "got %s", NextMidnight(tc.now, london))
		})
	}
}

func TestNextMidnightAcrossDaylightSaving(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	// clocks go forward on 2024-03-31, that day is 23 hours long
	start := time.Date(2024, 3, 30, 0, 0, 0, 0, london)
	first := NextMidnight(start.Add(time.Minute), london)
	second := NextMidnight(first, london)

	assert.Equal(t, 24*time.Hour, first.Sub(start))
	assert.Equal(t, 23*time.Hour, second.Sub(first))
}

type fakeDiscoverer struct {
	symbols []string
	calls   int
}

func (f *fakeDiscoverer) Discover(ctx context.Context) []string {
	f.calls++
	return f.symbols
}

type fakeSource struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeSource) Exchange() domain.ExchangeEnum { return domain.OKX }

func (f *fakeSource) GetNetworkFees(ctx context.Context) (map[string][]domain.NetworkFee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return map[string][]domain.NetworkFee{"SOL": {{Name: "Solana", Fee: 0.01}}}, nil
}

func TestRecalculateReplacesSymbols(t *testing.T) {
	store := market.NewStore([]string{"BTCUSDT"})
	require.NoError(t, store.UpdatePrice(domain.Binance, "BTCUSDT", 100))
	source := &fakeSource{}
	m := metrics.New()
	o := New(Options{
		Discoverer: &fakeDiscoverer{symbols: []string{"ETHUSDT", "SOLUSDT"}},
		Store:      store,
		FeeWorkers: []*fees.Worker{fees.NewWorker(source, store, symbols.NewQuoteSet("USDT"), m)},
		Metrics:    m,
	})

	o.Recalculate(context.Background())
	o.stopFeeds()

	assert.Equal(t, []string{"ETHUSDT", "SOLUSDT"}, store.Symbols())
	assert.False(t, store.Has("BTCUSDT"))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TrackedSymbols))
	assert.Equal(t, 1, source.calls)

	pair, ok := store.Get("SOLUSDT")
	require.True(t, ok)
	require.Len(t, pair.Get(domain.OKX).Networks, 1)
	assert.Equal(t, "Solana", pair.Get(domain.OKX).Networks[0].Name)
	assert.Equal(t, -1.0, pair.Get(domain.Binance).Price)
}

func TestRecalculateKeepsSymbolsOnEmptyDiscovery(t *testing.T) {
	store := market.NewStore([]string{"BTCUSDT"})
	require.NoError(t, store.UpdatePrice(domain.Binance, "BTCUSDT", 100))
	discoverer := &fakeDiscoverer{}
	o := New(Options{Discoverer: discoverer, Store: store, Metrics: metrics.New()})

	o.Recalculate(context.Background())

	assert.Equal(t, 1, discoverer.calls)
	assert.Equal(t, []string{"BTCUSDT"}, store.Symbols())
	pair, _ := store.Get("BTCUSDT")
	assert.Equal(t, 100.0, pair.Get(domain.Binance).Price)
}

type recordingSink struct {
	mu    sync.Mutex
	snaps []domain.Snapshot
	err   error
}

func (r *recordingSink) Save(ctx context.Context, snap domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
	return r.err
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func TestPublishSnapshotReachesEverySink(t *testing.T) {
	store := market.NewStore([]string{"BTCUSDT"})
	failing := &recordingSink{err: errors.New("redis down")}
	ok := &recordingSink{}
	o := New(Options{Store: store, Snapshots: []SnapshotSink{failing, ok}, Metrics: metrics.New()})

	o.PublishSnapshot(context.Background())

	assert.Equal(t, 1, failing.count())
	require.Equal(t, 1, ok.count())
	assert.Contains(t, ok.snaps[0].Symbols, "BTCUSDT")
}

func TestRunPublishesUntilCancelled(t *testing.T) {
	store := market.NewStore([]string{"BTCUSDT"})
	sink := &recordingSink{}
	o := New(Options{
		Discoverer: &fakeDiscoverer{},
		Store:      store,
		Snapshots:  []SnapshotSink{sink},
		Metrics:    metrics.New(),
	})
	o.SnapshotInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		o.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return sink.count() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
